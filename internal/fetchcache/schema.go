package fetchcache

// Schema contains the DDL for the response cache.
const Schema = `
-- Fetched pages, one row per URL, revalidated via conditional GET.
CREATE TABLE IF NOT EXISTS pages (
    id            TEXT PRIMARY KEY,
    url           TEXT NOT NULL UNIQUE,
    body          BLOB NOT NULL,
    content_hash  TEXT NOT NULL,
    etag          TEXT NOT NULL DEFAULT '',
    last_modified TEXT NOT NULL DEFAULT '',
    status        INTEGER NOT NULL DEFAULT 0,
    fetched_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_fetched ON pages(fetched_at);
`
