package kit

import "context"

type contextKey string

const (
	// TransportKey records which surface a request arrived on: "http",
	// "mcp_stdio" or "mcp_quic".
	TransportKey contextKey = "kit_transport"
	// SessionIDKey identifies a long-lived MCP session.
	SessionIDKey contextKey = "kit_session_id"
	// RemoteAddrKey carries the peer address of the originating connection.
	RemoteAddrKey contextKey = "kit_remote_addr"
	// TraceIDKey carries the per-request trace identifier.
	TraceIDKey contextKey = "kit_trace_id"
)

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// GetTransport returns the transport tag, defaulting to "http".
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionIDKey).(string)
	return v
}

func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, RemoteAddrKey, addr)
}

func GetRemoteAddr(ctx context.Context) string {
	v, _ := ctx.Value(RemoteAddrKey).(string)
	return v
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}
