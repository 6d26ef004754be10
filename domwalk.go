// Package domwalk loads HTML documents and presents a fluent, read-only
// view over the parsed tree: id/tag lookup, lazy ancestor chains, and
// visitor-driven depth-first traversal with subtree pruning.
//
// Parsing local markup needs no setup:
//
//	doc, err := domwalk.FromString("<html><body><a href='/x'>x</a></body></html>")
//	doc.Visit(func(el domwalk.Element, up domwalk.Ancestors) bool {
//		if a, ok := el.AsAnchor(); ok {
//			fmt.Println(a.Href())
//		}
//		return true // descend
//	})
//
// Remote documents go through a Loader, optionally backed by a persistent
// response cache that revalidates with conditional GET:
//
//	l, err := domwalk.New(domwalk.WithLocalCache(""))
//	defer l.Close()
//	doc, err := l.FromURL(ctx, "https://example.org")
//
// The package never mutates a parsed tree. Loaders and Documents are not
// synchronised; share them across goroutines only behind your own locking.
package domwalk

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/hazyhaar/domwalk/internal/fetch"
	"github.com/hazyhaar/domwalk/internal/fetchcache"
	"github.com/hazyhaar/domwalk/internal/safeurl"
)

// DefaultCachePath is where WithLocalCache("") puts the response cache.
const DefaultCachePath = "rest-calls.db"

// Renderer produces fully rendered markup for a URL, typically through a
// headless browser. internal/render holds the Chrome-backed implementation
// used by the domwalkd daemon.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Loader turns markup sources into Documents. Every Loader is an
// independent configuration scope: two Loaders never share fetch, cache or
// sanitizer state.
type Loader struct {
	fetcher   *fetch.Fetcher
	cache     *fetchcache.Store
	sanitizer *bluemonday.Policy
	renderer  Renderer
	validate  func(string) error
	log       *slog.Logger
	closed    bool
}

type options struct {
	useCache  bool
	cachePath string
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBytes  int64
	sanitizer *bluemonday.Policy
	renderer  Renderer
	validator func(string) error
	logger    *slog.Logger
}

// Option customises a Loader at construction.
type Option func(*options)

// WithLocalCache stores fetched responses in a persistent SQLite cache at
// path ("" selects DefaultCachePath) and revalidates them with conditional
// GET on later loads. The binary must blank-import an SQLite driver:
//
//	import _ "modernc.org/sqlite"
func WithLocalCache(path string) Option {
	return func(o *options) {
		o.useCache = true
		o.cachePath = path
	}
}

// WithHTTPClient replaces the fetch client. The caller then owns the
// redirect policy; the default client re-validates every redirect hop
// against the URL validator.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.client = c } }

// WithUserAgent sets the User-Agent header sent on fetches.
func WithUserAgent(ua string) Option { return func(o *options) { o.userAgent = ua } }

// WithTimeout bounds each fetch. Default: 30s.
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithMaxBytes caps the response body size. Oversized responses fail the
// load instead of being truncated. Default: 10MB.
func WithMaxBytes(n int64) Option { return func(o *options) { o.maxBytes = n } }

// WithSanitizer runs every markup source through the bluemonday policy
// before parsing.
func WithSanitizer(p *bluemonday.Policy) Option { return func(o *options) { o.sanitizer = p } }

// WithRenderer routes FromURL through a headless-browser renderer instead
// of the plain HTTP fetcher, for pages whose DOM is script-built.
func WithRenderer(r Renderer) Option { return func(o *options) { o.renderer = r } }

// WithURLValidator replaces the SSRF guard applied to fetched URLs.
// Default: safeurl.Validate, which blocks private and loopback targets.
func WithURLValidator(fn func(string) error) Option { return func(o *options) { o.validator = fn } }

// WithLogger sets the logger for fetch and cache activity. Default:
// slog.Default().
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// New creates a Loader. Without options it parses and fetches with safe
// defaults and no cache; construction then cannot fail.
func New(opts ...Option) (*Loader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	validate := o.validator
	if validate == nil {
		validate = safeurl.Validate
	}

	l := &Loader{
		fetcher: fetch.New(fetch.Config{
			Timeout:      o.timeout,
			MaxBytes:     o.maxBytes,
			UserAgent:    o.userAgent,
			URLValidator: validate,
			Client:       o.client,
		}),
		sanitizer: o.sanitizer,
		renderer:  o.renderer,
		validate:  validate,
		log:       o.logger,
	}

	if o.useCache {
		path := o.cachePath
		if path == "" {
			path = DefaultCachePath
		}
		store, err := fetchcache.Open(path, fetchcache.WithMkdirAll())
		if err != nil {
			return nil, fmt.Errorf("open local cache: %w", err)
		}
		l.cache = store
	}
	return l, nil
}

// Close releases the local cache, if any. The Loader must not be used after
// Close.
func (l *Loader) Close() error {
	l.closed = true
	if l.cache != nil {
		return l.cache.Close()
	}
	return nil
}

// FromString parses markup into a Document. The sanitizer policy, when
// configured, is applied first. The HTML parser is lenient: malformed
// markup is recovered, not rejected.
func (l *Loader) FromString(markup string) (*Document, error) {
	if l.closed {
		return nil, ErrLoaderClosed
	}
	if l.sanitizer != nil {
		markup = l.sanitizer.Sanitize(markup)
	}
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// FromBytes parses markup bytes, taken as UTF-8 text.
func (l *Loader) FromBytes(b []byte) (*Document, error) {
	return l.FromString(string(b))
}

// FromReader reads r to the end and parses the content as UTF-8 text. No
// charset detection is attempted.
func (l *Loader) FromReader(r io.Reader) (*Document, error) {
	if l.closed {
		return nil, ErrLoaderClosed
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return l.FromBytes(data)
}

// FromFile reads and parses the file at path.
func (l *Loader) FromFile(path string) (*Document, error) {
	if l.closed {
		return nil, ErrLoaderClosed
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return l.FromBytes(data)
}

// FromURL fetches rawURL with an HTTP GET accepting text/html and parses
// the response. With a local cache configured, the stored copy is
// revalidated via conditional GET and served when still current. Fetch
// failures (unreachable host, non-2xx status, oversized body) propagate;
// there is no retry and no partial Document.
func (l *Loader) FromURL(ctx context.Context, rawURL string) (*Document, error) {
	if l.closed {
		return nil, ErrLoaderClosed
	}
	body, err := l.fetchBody(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return l.FromString(body)
}

func (l *Loader) fetchBody(ctx context.Context, rawURL string) (string, error) {
	if l.renderer != nil {
		if err := l.validate(rawURL); err != nil {
			return "", fmt.Errorf("url blocked: %w", err)
		}
		markup, err := l.renderer.Render(ctx, rawURL)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", rawURL, err)
		}
		return markup, nil
	}

	var cached *fetchcache.Page
	if l.cache != nil {
		p, err := l.cache.Get(ctx, rawURL)
		if err != nil {
			l.log.Warn("cache read failed", "url", rawURL, "error", err)
		} else {
			cached = p
		}
	}

	var etag, lastMod, prevHash string
	if cached != nil {
		etag, lastMod, prevHash = cached.ETag, cached.LastModified, cached.ContentHash
	}

	res, err := l.fetcher.Fetch(ctx, rawURL, etag, lastMod, prevHash)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	if !res.Changed && cached != nil {
		if err := l.cache.Touch(ctx, rawURL, time.Now().UnixMilli()); err != nil {
			l.log.Warn("cache touch failed", "url", rawURL, "error", err)
		}
		l.log.Debug("served from cache", "url", rawURL, "status", res.StatusCode)
		return string(cached.Body), nil
	}

	if l.cache != nil {
		page := &fetchcache.Page{
			URL:          rawURL,
			Body:         res.Body,
			ContentHash:  res.Hash,
			ETag:         res.ETag,
			LastModified: res.LastMod,
			Status:       res.StatusCode,
		}
		if err := l.cache.Put(ctx, page); err != nil {
			l.log.Warn("cache write failed", "url", rawURL, "error", err)
		}
	}
	return string(res.Body), nil
}

// PurgeCache removes every stored response from the local cache and reports
// how many rows were deleted.
func (l *Loader) PurgeCache(ctx context.Context) (int64, error) {
	if l.cache == nil {
		return 0, ErrNoCache
	}
	return l.cache.Purge(ctx)
}

// PurgeCacheOlderThan removes stored responses fetched before cutoff.
func (l *Loader) PurgeCacheOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if l.cache == nil {
		return 0, ErrNoCache
	}
	return l.cache.PurgeOlderThan(ctx, cutoff.UnixMilli())
}

// CacheSize reports the number of stored responses.
func (l *Loader) CacheSize(ctx context.Context) (int64, error) {
	if l.cache == nil {
		return 0, ErrNoCache
	}
	return l.cache.Count(ctx)
}

// std backs the package-level loading functions. A Loader without options
// cannot fail to construct.
var std = func() *Loader {
	l, _ := New()
	return l
}()

// FromString parses markup with a default zero-configuration Loader.
func FromString(markup string) (*Document, error) { return std.FromString(markup) }

// FromBytes parses markup bytes with a default zero-configuration Loader.
func FromBytes(b []byte) (*Document, error) { return std.FromBytes(b) }

// FromReader parses a stream with a default zero-configuration Loader.
func FromReader(r io.Reader) (*Document, error) { return std.FromReader(r) }

// FromFile parses a file with a default zero-configuration Loader.
func FromFile(path string) (*Document, error) { return std.FromFile(path) }

// FromURL fetches and parses a URL with a default uncached Loader. The
// default SSRF guard applies.
func FromURL(ctx context.Context, rawURL string) (*Document, error) {
	return std.FromURL(ctx, rawURL)
}
