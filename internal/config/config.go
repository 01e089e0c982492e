// Package config loads and validates fetcher configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported content source kinds.
const (
	SourceAPI    = "api"
	SourceHTML   = "html"
	SourceRender = "render"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Source   SourceConfig   `mapstructure:"source"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// SourceConfig selects and tunes the content source.
type SourceConfig struct {
	Kind              string `mapstructure:"kind"`
	APIBaseURL        string `mapstructure:"api_base_url"`
	OldBaseURL        string `mapstructure:"old_base_url"`
	UserAgent         string `mapstructure:"user_agent"`
	MobileUserAgent   string `mapstructure:"mobile_user_agent"`
	CommentLimit      int    `mapstructure:"comment_limit"`
	ResolveShareLinks bool   `mapstructure:"resolve_share_links"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the headless rendering source.
type HeadlessConfig struct {
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REDDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("source.kind", SourceAPI)
	v.SetDefault("source.api_base_url", "https://www.reddit.com")
	v.SetDefault("source.old_base_url", "https://old.reddit.com")
	v.SetDefault("source.user_agent", "")
	v.SetDefault("source.mobile_user_agent", "")
	v.SetDefault("source.comment_limit", 10)
	v.SetDefault("source.resolve_share_links", true)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	switch c.Source.Kind {
	case SourceAPI, SourceHTML, SourceRender:
	default:
		return fmt.Errorf("source.kind must be one of %q, %q, %q; got %q", SourceAPI, SourceHTML, SourceRender, c.Source.Kind)
	}
	if c.Source.CommentLimit <= 0 || c.Source.CommentLimit > 10 {
		return fmt.Errorf("source.comment_limit must be between 1 and 10")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Source.Kind == SourceRender && c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0 when source.kind is %q", SourceRender)
	}
	return nil
}

// RequestTimeout is the per-request budget applied by the HTTP server.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}
