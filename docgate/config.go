package docgate

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domwalk/shield"
)

// Config configures the document gateway.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// CachePath enables the persistent response cache when non-empty.
	CachePath string `yaml:"cache_path"`

	// Sanitize runs fetched markup through the bluemonday UGC policy
	// before parsing.
	Sanitize bool `yaml:"sanitize"`

	// Render routes loads through headless Chrome instead of the plain
	// HTTP fetcher.
	Render bool `yaml:"render"`

	// BrowserURL is the WebSocket URL of an external Chrome instance.
	// Empty launches a local Chrome. Only used with Render.
	BrowserURL string `yaml:"browser_url"`

	// Stealth applies anti-detection page setup to rendered loads.
	Stealth bool `yaml:"stealth"`

	// FetchTimeoutSeconds bounds each fetch or render (default: 30).
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`

	// MaxBytes caps fetched response bodies (default: 10 MiB).
	MaxBytes int64 `yaml:"max_bytes"`

	// UserAgent is sent on outbound fetches.
	UserAgent string `yaml:"user_agent"`

	// AllowPrivate permits fetching private and loopback addresses.
	// Development only; the scheme check still applies.
	AllowPrivate bool `yaml:"allow_private"`

	// AdminPasswordHash is the bcrypt hash admin endpoints verify basic
	// auth against. Empty disables the admin surface.
	AdminPasswordHash string `yaml:"admin_password_hash"`

	// JWTSecret signs short-lived admin bearer tokens. Empty disables
	// token minting; basic auth still works.
	JWTSecret string `yaml:"jwt_secret"`

	// RateLimit is the per-IP budget enforced on the HTTP surface.
	RateLimit shield.RateLimitConfig `yaml:"rate_limit"`

	// LogLevel is one of debug, info, warn, error (daemon only).
	LogLevel string `yaml:"log_level"`

	// Logger for service activity.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":8090"
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = 30
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "domwalk/1.0"
	}
	if c.RateLimit.Enabled && c.RateLimit.MaxRequests <= 0 {
		c.RateLimit.MaxRequests = 60
	}
	if c.RateLimit.Enabled && c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfigFile reads a YAML config file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.defaults()
	return &cfg, nil
}
