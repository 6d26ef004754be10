package docgate

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/domwalk"
	"github.com/hazyhaar/domwalk/internal/safeurl"
)

// Routes builds the HTTP surface. Call it once per Service.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	for _, mw := range s.mw {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/inspect", s.handleInspect)
		r.Get("/text", s.handleText)
		r.Get("/links", s.handleLinks)
		r.Get("/markdown", s.handleMarkdown)
		r.Get("/find", s.handleFind)

		r.Post("/admin/token", s.handleToken)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/cache", s.handleCacheStats)
			r.Delete("/cache", s.handleCachePurge)
		})
	})

	return r
}

func (s *Service) handleInspect(w http.ResponseWriter, r *http.Request) {
	info, err := s.Inspect(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, info)
}

func (s *Service) handleText(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	text, err := s.Text(r.Context(), rawURL)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"url": rawURL, "text": text})
}

func (s *Service) handleLinks(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	links, err := s.Links(r.Context(), rawURL)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]any{"url": rawURL, "links": links})
}

func (s *Service) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	md, err := s.Markdown(r.Context(), rawURL)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]string{"url": rawURL, "markdown": md})
}

func (s *Service) handleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.Find(r.Context(), q.Get("url"), q.Get("id"), q.Get("tag"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, res)
}

func (s *Service) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AdminPasswordHash == "" {
		writeError(w, http.StatusForbidden, ErrAdminDisabled)
		return
	}
	if !s.checkBasic(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="domwalk admin"`)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	token, expires, err := s.mintToken()
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 200, map[string]any{"token": token, "expires_at": expires.UnixMilli()})
}

func (s *Service) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.CacheEntries(r.Context())
	if err != nil {
		writeError(w, cacheStatus(err), err)
		return
	}
	writeJSON(w, 200, map[string]int64{"entries": n})
}

func (s *Service) handleCachePurge(w http.ResponseWriter, r *http.Request) {
	olderThan := time.Duration(queryInt(r, "older_than", 0)) * time.Second
	n, err := s.PurgeCache(r.Context(), olderThan)
	if err != nil {
		writeError(w, cacheStatus(err), err)
		return
	}
	writeJSON(w, 200, map[string]int64{"deleted": n})
}

// statusFor maps load-operation errors to HTTP statuses: caller mistakes
// are 400, upstream fetch failures 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingURL), errors.Is(err, ErrMissingQuery):
		return http.StatusBadRequest
	case errors.Is(err, safeurl.ErrBlocked), errors.Is(err, safeurl.ErrUnsafeScheme):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func cacheStatus(err error) int {
	if errors.Is(err, domwalk.ErrNoCache) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
