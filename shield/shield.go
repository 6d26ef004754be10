// Package shield provides reusable HTTP security middleware for domwalk
// services. It consolidates security headers, rate limiting, body limits,
// request tracing, and HEAD method handling into a single importable package.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxBody(1 << 20))
//	r.Use(shield.TraceID)
//	r.Use(shield.NewRateLimiter(cfg).Middleware)
//
// Or apply the default stack in one call:
//
//	stack, rl := shield.DefaultStack(cfg, "/health")
//	rl.StartGC(done)
//	for _, mw := range stack {
//	    r.Use(mw)
//	}
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// HeadToGet converts HEAD requests to GET so that route handlers registered
// with r.Get() respond with 200 instead of 405 (Method Not Allowed).
// Go's net/http automatically strips the body for HEAD responses.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}

// DefaultStack returns the standard middleware stack for a domwalk API
// service. Middleware is ordered: HeadToGet → SecurityHeaders → MaxBody →
// TraceID → RateLimiter. The returned RateLimiter handle allows callers to
// start bucket GC. Paths matching excludePrefixes bypass rate limiting.
func DefaultStack(rate RateLimitConfig, excludePrefixes ...string) ([]func(http.Handler) http.Handler, *RateLimiter) {
	rl := NewRateLimiter(rate, excludePrefixes...)
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(1 << 20),
		TraceID,
		rl.Middleware,
	}, rl
}
