// Package fetchcache is the persistent local store for fetched documents:
// one SQLite row per URL, carrying the body plus the validators (ETag,
// Last-Modified, content hash) that let the fetcher revalidate cheaply.
//
// The caller must blank-import an SQLite driver before opening a store:
//
//	import _ "modernc.org/sqlite"
package fetchcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/domwalk/internal/ident"
)

type config struct {
	busyTimeout int
	mkdirAll    bool
	ping        bool
}

func defaults() config {
	return config{busyTimeout: 10_000, ping: true}
}

// Option customises Open behaviour.
type Option func(*config)

// WithMkdirAll creates parent directories of the database path before
// opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithoutPing skips the db.Ping() verification after opening.
func WithoutPing() Option { return func(c *config) { c.ping = false } }

// Store is the response cache handle.
type Store struct {
	DB    *sql.DB
	newID ident.Generator
}

// Page is one cached response row.
type Page struct {
	ID           string
	URL          string
	Body         []byte
	ContentHash  string
	ETag         string
	LastModified string
	Status       int
	FetchedAt    int64
}

// Open opens (or creates) the cache database at path with the usual
// production pragmas (foreign_keys ON, WAL, busy_timeout, synchronous
// NORMAL) and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("fetchcache: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("fetchcache: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("fetchcache: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("fetchcache: exec schema: %w", err)
	}

	if cfg.ping {
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("fetchcache: ping: %w", err)
		}
	}

	return &Store{DB: db, newID: ident.Prefixed("page_", ident.Default)}, nil
}

// OpenMemory opens an in-memory cache for testing. It sets MaxOpenConns(1)
// so all queries hit the same in-memory database, and registers t.Cleanup
// to close it.
func OpenMemory(t testing.TB, opts ...Option) *Store {
	t.Helper()
	s, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("fetchcache.OpenMemory: %v", err)
	}
	s.DB.SetMaxOpenConns(1)
	t.Cleanup(func() { s.Close() })
	return s
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Get retrieves the cached row for url, or nil when the URL has never been
// stored.
func (s *Store) Get(ctx context.Context, url string) (*Page, error) {
	p := &Page{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, url, body, content_hash, etag, last_modified, status, fetched_at
		FROM pages WHERE url = ?`, url).Scan(
		&p.ID, &p.URL, &p.Body, &p.ContentHash, &p.ETag, &p.LastModified,
		&p.Status, &p.FetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Put stores a response, replacing any previous row for the same URL. A row
// id is generated when the page has none.
func (s *Store) Put(ctx context.Context, p *Page) error {
	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.FetchedAt == 0 {
		p.FetchedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO pages (id, url, body, content_hash, etag, last_modified, status, fetched_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(url) DO UPDATE SET
			body = excluded.body,
			content_hash = excluded.content_hash,
			etag = excluded.etag,
			last_modified = excluded.last_modified,
			status = excluded.status,
			fetched_at = excluded.fetched_at`,
		p.ID, p.URL, p.Body, p.ContentHash, p.ETag, p.LastModified,
		p.Status, p.FetchedAt,
	)
	return err
}

// Touch refreshes the fetched_at timestamp after a revalidation that
// confirmed the stored body is still current.
func (s *Store) Touch(ctx context.Context, url string, fetchedAt int64) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE pages SET fetched_at = ? WHERE url = ?`, fetchedAt, url)
	return err
}

// Purge removes every cached row and reports how many were deleted.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM pages`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeOlderThan removes rows fetched before cutoff (unix millis) and
// reports how many were deleted.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count reports the number of cached rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n)
	return n, err
}
