// Package docgate exposes document loading and traversal as a small
// service: JSON over HTTP plus MCP tools over stdio or QUIC. It is the
// deployment wrapper around the domwalk library; all document semantics
// live there.
package docgate

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/domwalk"
	"github.com/hazyhaar/domwalk/internal/render"
	"github.com/hazyhaar/domwalk/internal/safeurl"
	"github.com/hazyhaar/domwalk/shield"
)

// ErrMissingURL is returned when an operation is called without a URL.
var ErrMissingURL = errors.New("docgate: url parameter required")

// ErrMissingQuery is returned by Find when neither id nor tag is given.
var ErrMissingQuery = errors.New("docgate: id or tag parameter required")

// ErrAdminDisabled is returned when no admin password hash is configured.
var ErrAdminDisabled = errors.New("docgate: admin surface not configured")

// maxFindMatches caps the matches a single Find returns.
const maxFindMatches = 100

// Service is the document gateway: one Loader configured from Config,
// shared by the HTTP and MCP surfaces.
type Service struct {
	cfg      *Config
	loader   *domwalk.Loader
	renderer *render.Renderer
	limiter  *shield.RateLimiter
	mw       []func(http.Handler) http.Handler
	signKey  []byte
	logger   *slog.Logger
}

// New builds a Service from cfg. The renderer, when configured, is started
// here; New fails if Chrome cannot be reached.
func New(cfg *Config, logger *slog.Logger) (*Service, error) {
	cfg.defaults()
	if logger == nil {
		logger = cfg.Logger
	}

	timeout := time.Duration(cfg.FetchTimeoutSeconds) * time.Second
	opts := []domwalk.Option{
		domwalk.WithLogger(logger),
		domwalk.WithUserAgent(cfg.UserAgent),
		domwalk.WithTimeout(timeout),
		domwalk.WithMaxBytes(cfg.MaxBytes),
	}
	if cfg.CachePath != "" {
		opts = append(opts, domwalk.WithLocalCache(cfg.CachePath))
	}
	if cfg.Sanitize {
		opts = append(opts, domwalk.WithSanitizer(bluemonday.UGCPolicy()))
	}
	if cfg.AllowPrivate {
		opts = append(opts, domwalk.WithURLValidator(safeurl.ValidateScheme))
	}

	var renderer *render.Renderer
	if cfg.Render {
		renderer = render.New(render.Config{
			RemoteURL:  cfg.BrowserURL,
			Stealth:    cfg.Stealth,
			NavTimeout: timeout,
			Logger:     logger,
		})
		if err := renderer.Start(); err != nil {
			return nil, fmt.Errorf("start renderer: %w", err)
		}
		opts = append(opts, domwalk.WithRenderer(renderer))
	}

	loader, err := domwalk.New(opts...)
	if err != nil {
		if renderer != nil {
			renderer.Close()
		}
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		loader:   loader,
		renderer: renderer,
		logger:   logger,
	}
	s.mw, s.limiter = shield.DefaultStack(cfg.RateLimit, "/health")
	if cfg.JWTSecret != "" {
		// Derive a 32-byte HS256 key from the configured secret.
		key := sha256.Sum256([]byte(cfg.JWTSecret))
		s.signKey = key[:]
	}
	return s, nil
}

// Start launches background maintenance (rate-limit bucket GC). It returns
// immediately; everything stops when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.limiter.StartGC(ctx.Done())
}

// Close releases the loader and, when configured, the headless browser.
func (s *Service) Close() error {
	var firstErr error
	if err := s.loader.Close(); err != nil {
		firstErr = err
	}
	if s.renderer != nil {
		if err := s.renderer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PageInfo summarises a loaded page.
type PageInfo struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
	Links    int    `json:"links"`
	Elements int    `json:"elements"`
	MaxDepth int    `json:"max_depth"`
}

// Match is one element matched by Find.
type Match struct {
	Tag  string   `json:"tag"`
	ID   string   `json:"id,omitempty"`
	Text string   `json:"text,omitempty"`
	HTML string   `json:"html"`
	Path []string `json:"path,omitempty"` // ancestor tags, nearest first
}

// FindResult is the outcome of a Find operation.
type FindResult struct {
	URL     string  `json:"url"`
	Matches []Match `json:"matches"`
}

func (s *Service) load(ctx context.Context, rawURL string) (*domwalk.Document, *url.URL, error) {
	if rawURL == "" {
		return nil, nil, ErrMissingURL
	}
	doc, err := s.loader.FromURL(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		base = nil
	}
	return doc, base, nil
}

// Inspect loads a page and reports its title, visible text, link count,
// element count and maximum nesting depth.
func (s *Service) Inspect(ctx context.Context, rawURL string) (*PageInfo, error) {
	doc, base, err := s.load(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	info := &PageInfo{
		URL:   rawURL,
		Title: doc.Title(),
		Text:  doc.Text(),
		Links: len(doc.Links(base)),
	}
	doc.Visit(func(el domwalk.Element, up domwalk.Ancestors) bool {
		info.Elements++
		if depth := len(up) + 1; depth > info.MaxDepth {
			info.MaxDepth = depth
		}
		return true
	})
	return info, nil
}

// Text loads a page and returns its visible text.
func (s *Service) Text(ctx context.Context, rawURL string) (string, error) {
	doc, _, err := s.load(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// Links loads a page and returns its hyperlinks, resolved against the
// page URL.
func (s *Service) Links(ctx context.Context, rawURL string) ([]domwalk.Link, error) {
	doc, base, err := s.load(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	links := doc.Links(base)
	if links == nil {
		links = []domwalk.Link{}
	}
	return links, nil
}

// Markdown loads a page and renders it as markdown, resolving relative
// links against the page origin.
func (s *Service) Markdown(ctx context.Context, rawURL string) (string, error) {
	doc, base, err := s.load(ctx, rawURL)
	if err != nil {
		return "", err
	}
	domain := ""
	if base != nil && base.Host != "" {
		domain = base.Scheme + "://" + base.Host
	}
	return doc.Markdown(domain)
}

// Find loads a page and returns the elements matching id and/or tag, each
// with its outer HTML, visible text, and ancestor tag path. The id match
// comes first; an element matching both filters appears once.
func (s *Service) Find(ctx context.Context, rawURL, id, tag string) (*FindResult, error) {
	if id == "" && tag == "" {
		return nil, ErrMissingQuery
	}
	doc, _, err := s.load(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	res := &FindResult{URL: rawURL, Matches: []Match{}}
	seen := make(map[domwalk.Element]bool)

	add := func(el domwalk.Element) {
		if seen[el] {
			return
		}
		seen[el] = true
		m := Match{
			Tag:  el.Tag(),
			ID:   el.ID(),
			Text: el.Text(),
			HTML: el.String(),
		}
		for anc := range el.Ancestors() {
			m.Path = append(m.Path, anc.Tag())
		}
		res.Matches = append(res.Matches, m)
	}

	if id != "" {
		if el, ok := doc.FindByID(id); ok {
			add(el)
		}
	}
	if tag != "" {
		for el := range doc.FindByTag(tag) {
			if len(res.Matches) >= maxFindMatches {
				break
			}
			add(el)
		}
	}
	return res, nil
}

// PurgeCache clears the response cache. A positive olderThan removes only
// entries fetched longer ago than that; zero removes everything.
func (s *Service) PurgeCache(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan > 0 {
		return s.loader.PurgeCacheOlderThan(ctx, time.Now().Add(-olderThan))
	}
	return s.loader.PurgeCache(ctx)
}

// CacheEntries reports the number of cached responses.
func (s *Service) CacheEntries(ctx context.Context) (int64, error) {
	return s.loader.CacheSize(ctx)
}
