package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig   `envPrefix:"PORTAL_"`
	Backend  BackendConfig  `envPrefix:"PORTAL_BACKEND_"`
	Session  SessionConfig  `envPrefix:"PORTAL_SESSION_"`
	Browser  BrowserConfig  `envPrefix:"PORTAL_"`
	LogLevel string         `env:"LOG_LEVEL" envDefault:"info"`
}

// ServerConfig configures the HTTP listener and admin mount point.
type ServerConfig struct {
	Address       string        `env:"HTTP_ADDR" envDefault:":8080"`
	AdminBasePath string        `env:"ADMIN_BASE_PATH" envDefault:"/admin"`
	Environment   string        `env:"ENVIRONMENT" envDefault:"Development"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CORSOrigins   []string      `env:"CORS_ORIGINS" envSeparator:","`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`
}

// BackendConfig points the portal at the citizen-portal API.
type BackendConfig struct {
	URL             string        `env:"URL"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"10s"`
	RetryMaxElapsed time.Duration `env:"RETRY_MAX_ELAPSED" envDefault:"5s"`
}

// SessionConfig holds the cookie codec keys. Empty keys are generated at startup.
type SessionConfig struct {
	HashKey     string        `env:"HASH_KEY"`
	BlockKey    string        `env:"BLOCK_KEY"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"30m"`
	Lifetime    time.Duration `env:"LIFETIME" envDefault:"12h"`
}

// BrowserConfig tunes the public service browser.
type BrowserConfig struct {
	Languages       []string      `env:"LANGUAGES" envSeparator:"," envDefault:"en,si,ta"`
	DefaultLanguage string        `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	PageSessionTTL  time.Duration `env:"PAGE_SESSION_TTL" envDefault:"30m"`
	EngagementDelay time.Duration `env:"ENGAGEMENT_DELAY" envDefault:"1500ms"`
	StaticCatalog   string        `env:"STATIC_CATALOG"`
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values that take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles configuration from defaults, the optional .env file, the
// process environment and explicit overrides, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	values, err := environmentValues(options)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: values}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func environmentValues(options loaderOptions) (map[string]string, error) {
	values := make(map[string]string)

	if strings.TrimSpace(options.envFile) != "" {
		dotEnv, err := godotenv.Read(options.envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", options.envFile, err)
		}
		for k, v := range dotEnv {
			values[k] = v
		}
	}

	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[key] = value
		}
	}

	for k, v := range options.envMap {
		values[k] = v
	}
	return values, nil
}

func (c *Config) normalise() {
	c.Server.AdminBasePath = NormalizeBasePath(c.Server.AdminBasePath)
	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")

	langs := make([]string, 0, len(c.Browser.Languages))
	seen := make(map[string]struct{}, len(c.Browser.Languages))
	for _, l := range c.Browser.Languages {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		langs = append(langs, l)
	}
	c.Browser.Languages = langs
	c.Browser.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Browser.DefaultLanguage))

	origins := c.Server.CORSOrigins[:0]
	for _, o := range c.Server.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.CORSOrigins = origins
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var fields []string

	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fields = append(fields, "PORTAL_BACKEND_URL")
		}
	}
	if c.Backend.Timeout <= 0 {
		fields = append(fields, "PORTAL_BACKEND_TIMEOUT")
	}
	if c.Backend.RetryMaxElapsed < 0 {
		fields = append(fields, "PORTAL_BACKEND_RETRY_MAX_ELAPSED")
	}
	if k := c.Session.HashKey; k != "" && len(k) < 32 {
		fields = append(fields, "PORTAL_SESSION_HASH_KEY")
	}
	if k := len(c.Session.BlockKey); k != 0 && k != 16 && k != 24 && k != 32 {
		fields = append(fields, "PORTAL_SESSION_BLOCK_KEY")
	}
	if len(c.Browser.Languages) == 0 {
		fields = append(fields, "PORTAL_LANGUAGES")
	}
	if !contains(c.Browser.Languages, c.Browser.DefaultLanguage) {
		fields = append(fields, "PORTAL_DEFAULT_LANGUAGE")
	}
	if c.Browser.PageSessionTTL <= 0 {
		fields = append(fields, "PORTAL_PAGE_SESSION_TTL")
	}
	if c.Browser.EngagementDelay < 0 {
		fields = append(fields, "PORTAL_ENGAGEMENT_DELAY")
	}

	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

// NormalizeBasePath returns a rooted path without a trailing slash; empty input yields "/admin".
func NormalizeBasePath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return "/admin"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
