// Package kit holds the transport-agnostic endpoint plumbing shared by the
// docgate surfaces: a service operation is written once as an Endpoint and
// exposed over HTTP, MCP stdio, or MCP QUIC without transport-specific
// logic leaking into it.
package kit

import "context"

// Endpoint is one service operation: typed request in, typed response out.
// Transports decode their wire format into the request and encode the
// response back out.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour such as logging
// or timeouts.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares into one. The first middleware is outermost:
// Chain(a, b)(ep) runs a before b before ep, and unwinds in reverse.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
