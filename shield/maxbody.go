package shield

import "net/http"

// MaxBody returns middleware that limits the request body size for all
// requests. Reads past the limit fail with *http.MaxBytesError, so handlers
// that decode a body see the overflow as a decode error.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
