package config

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Environment variables that override file values.
const (
	EnvAPIKey = "EDUVERSE_API_KEY"
	EnvAPIURL = "EDUVERSE_API_URL"
	EnvUserID = "EDUVERSE_USER_ID"
)

type Config struct {
	APIURL     string `yaml:"api_url"`
	APIKey     string `yaml:"api_key"`
	EventsPath string `yaml:"events_path"`

	RequestTimeout string  `yaml:"request_timeout"`
	PollInterval   string  `yaml:"poll_interval"`
	RateLimit      float64 `yaml:"rate_limit"`
	RateBurst      int     `yaml:"rate_burst"`

	CacheSize       int    `yaml:"cache_size"`
	FeedbackVisible int    `yaml:"feedback_visible"`
	NoticeTTL       string `yaml:"notice_ttl"`
	SuccessTTL      string `yaml:"success_ttl"`

	// UserID is the identity the host supplies. Empty means the host has none
	// and feedback falls back to a prompted display name.
	UserID   string `yaml:"user_id,omitempty"`
	LogLevel string `yaml:"log_level"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return parseDuration(c.RequestTimeout, 10*time.Second)
}

func (c *Config) PollDuration() time.Duration {
	return parseDuration(c.PollInterval, 30*time.Second)
}

func (c *Config) NoticeDuration() time.Duration {
	return parseDuration(c.NoticeTTL, 5*time.Second)
}

func (c *Config) SuccessDuration() time.Duration {
	return parseDuration(c.SuccessTTL, 2500*time.Millisecond)
}

// GetCacheSize returns the bounded window capacity, defaulting to 5.
func (c *Config) GetCacheSize() int {
	if c.CacheSize <= 0 {
		return 5
	}
	return c.CacheSize
}

// GetFeedbackVisible returns how many feedback entries show before the toggle.
func (c *Config) GetFeedbackVisible() int {
	if c.FeedbackVisible <= 0 {
		return 3
	}
	return c.FeedbackVisible
}

// EventsURL joins the API base URL and the push channel path.
func (c *Config) EventsURL() string {
	base, err := url.Parse(c.APIURL)
	if err != nil {
		return c.APIURL + c.EventsPath
	}
	return base.JoinPath(c.EventsPath).String()
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "eduverse", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "eduverse", "eduverse.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, "eduverse", "eduverse.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path (or the default location), falling back to
// the embedded defaults for anything the file leaves out. A .env file in the
// working directory and the process environment override the API settings.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Non-fatal: embedded defaults still apply.
		_ = writeDefaults(path)
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	dotenv, err := godotenv.Read(".env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	applyEnv(cfg, dotenv)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment values; the process environment wins over
// the .env file.
func applyEnv(cfg *Config, dotenv map[string]string) {
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
	if v := lookup(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := lookup(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := lookup(EnvUserID); v != "" {
		cfg.UserID = v
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if cfg.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	u, err := url.Parse(cfg.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api_url: missing host")
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", cfg.CacheSize)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", cfg.RateLimit)
	}
	for name, v := range map[string]string{
		"request_timeout": cfg.RequestTimeout,
		"poll_interval":   cfg.PollInterval,
		"notice_ttl":      cfg.NoticeTTL,
		"success_ttl":     cfg.SuccessTTL,
	} {
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, v)
		}
	}
	return nil
}
