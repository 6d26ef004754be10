package domwalk

import "errors"

// ErrLoaderClosed is returned by loading operations after Close.
var ErrLoaderClosed = errors.New("domwalk: loader is closed")

// ErrNoCache is returned by cache operations on a Loader built without
// WithLocalCache.
var ErrNoCache = errors.New("domwalk: no local cache configured")
