// Command domwalkd serves the domwalk document gateway: JSON over HTTP,
// plus MCP tools over stdio or QUIC.
//
// Configuration comes from an optional YAML file (CONFIG) with env
// overrides:
//
//	LISTEN              HTTP listen address (default :8090)
//	CACHE_PATH          enable the response cache at this path
//	SANITIZE=1          sanitize fetched markup before parsing
//	RENDER=1            load pages through headless Chrome
//	BROWSER_URL         WebSocket URL of an external Chrome (implies RENDER)
//	STEALTH=1           anti-detection page setup for rendered loads
//	ALLOW_PRIVATE=1     permit loopback/private fetch targets (dev only)
//	ADMIN_PASSWORD_HASH bcrypt hash for the admin surface
//	JWT_SECRET          signing secret for admin bearer tokens
//	RATE_LIMIT_MAX      per-IP requests per minute (0 disables)
//	MCP_TRANSPORT       "stdio" or "quic" (default: HTTP only)
//	MCP_QUIC_ADDR       QUIC listen address (default :9444)
//	TLS_CERT, TLS_KEY   QUIC certificate; self-signed when unset
//	LOG_LEVEL           debug, info, warn, error
package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domwalk/docgate"
	"github.com/hazyhaar/domwalk/kit"
	"github.com/hazyhaar/domwalk/mcpquic"
)

func main() {
	cfg := &docgate.Config{}
	if path := os.Getenv("CONFIG"); path != "" {
		c, err := docgate.LoadConfigFile(path)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = c
	}
	applyEnv(cfg)
	mcpTransport := env("MCP_TRANSPORT", "")

	// Logging. In stdio mode stdout carries the JSON-RPC stream, so logs
	// go to stderr.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logOut := os.Stdout
	if mcpTransport == "stdio" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := docgate.New(cfg, logger)
	if err != nil {
		slog.Error("docgate service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()
	svc.Start(ctx)

	// MCP over stdio replaces the HTTP server entirely.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "domwalk",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		slog.Info("MCP stdio starting")
		runCtx := kit.WithTransport(ctx, "mcp_stdio")
		if err := mcpSrv.Run(runCtx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// Optional MCP QUIC alongside HTTP.
	if mcpTransport == "quic" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "domwalk",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)

		quicAddr := env("MCP_QUIC_ADDR", ":9444")
		certFile := env("TLS_CERT", "")
		keyFile := env("TLS_KEY", "")

		var tlsCfg *tls.Config
		if certFile != "" && keyFile != "" {
			tlsCfg, err = mcpquic.ServerTLSConfig(certFile, keyFile)
		} else {
			tlsCfg, err = mcpquic.SelfSignedTLSConfig()
		}
		if err != nil {
			slog.Error("MCP QUIC TLS", "error", err)
		} else {
			ql, qErr := mcpquic.NewListener(quicAddr, tlsCfg, mcpSrv, logger)
			if qErr != nil {
				slog.Error("MCP QUIC listener", "error", qErr)
			} else {
				go func() {
					slog.Info("MCP QUIC starting", "addr", quicAddr)
					if sErr := ql.Serve(ctx); sErr != nil && ctx.Err() == nil {
						slog.Error("MCP QUIC", "error", sErr)
					}
				}()
			}
		}
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func applyEnv(cfg *docgate.Config) {
	if v := os.Getenv("LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		cfg.AdminPasswordHash = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("BROWSER_URL"); v != "" {
		cfg.BrowserURL = v
		cfg.Render = true
	}
	if os.Getenv("RENDER") == "1" {
		cfg.Render = true
	}
	if os.Getenv("STEALTH") == "1" {
		cfg.Stealth = true
	}
	if os.Getenv("SANITIZE") == "1" {
		cfg.Sanitize = true
	}
	if os.Getenv("ALLOW_PRIVATE") == "1" {
		cfg.AllowPrivate = true
	}
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit.Enabled = true
			cfg.RateLimit.MaxRequests = n
			if cfg.RateLimit.WindowSeconds == 0 {
				cfg.RateLimit.WindowSeconds = 60
			}
		}
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
