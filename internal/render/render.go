// Package render fetches pages through headless Chrome so documents whose
// DOM is built by scripts can still be loaded. It wraps go-rod: launch or
// connect, open a stealth tab, navigate, wait for load, and return the
// serialised DOM.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the renderer.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty launches a local Chrome via the rod launcher.
	RemoteURL string

	// Stealth applies anti-detection page setup to every tab.
	Stealth bool

	// NavTimeout bounds navigation plus the load wait. Default: 30s.
	NavTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Renderer renders pages in a shared Chrome instance, one tab per Render
// call. Call Start before the first Render and Close when done.
type Renderer struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// New creates a Renderer. Chrome is not touched until Start.
func New(cfg Config) *Renderer {
	cfg.defaults()
	return &Renderer{cfg: cfg}
}

// Start launches Chrome, or connects to the configured remote instance.
// Calling Start on a started Renderer is a no-op.
func (r *Renderer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return nil
	}

	var wsURL string
	if r.cfg.RemoteURL != "" {
		wsURL = r.cfg.RemoteURL
		r.cfg.Logger.Info("render: connecting to remote chrome", "url", wsURL)
	} else {
		l := launcher.New().Headless(true)
		l = l.Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("render: launch: %w", err)
		}
		wsURL = u
		r.lnch = l
		r.cfg.Logger.Info("render: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("render: connect: %w", err)
	}
	r.browser = b
	return nil
}

// Close shuts down the tab's Chrome (local launches only) and disconnects.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return nil
}

// Render opens a tab, navigates to pageURL, waits for the load event, and
// returns the DOM serialised as outer HTML. The tab is closed before
// returning.
func (r *Renderer) Render(ctx context.Context, pageURL string) (string, error) {
	r.mu.RLock()
	b := r.browser
	r.mu.RUnlock()
	if b == nil {
		return "", fmt.Errorf("render: renderer not started")
	}

	var page *rod.Page
	var err error
	if r.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return "", fmt.Errorf("render: create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, r.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("render: navigate %s: %w", pageURL, err)
	}
	// The DOM is still serialised when the load event never fires; it
	// holds whatever arrived before the deadline.
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		r.cfg.Logger.Warn("render: wait load timeout", "url", pageURL, "error", err)
	}

	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("render: serialise DOM: %w", err)
	}
	return res.Value.Str(), nil
}
