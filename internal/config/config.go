// Package config loads webforge settings from a YAML file, WEBFORGE_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. WEBFORGE_SERVER_ADDR
const EnvPrefix = "WEBFORGE"

// Config is the full application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Editor    EditorConfig    `mapstructure:"editor"`
	Credits   CreditsConfig   `mapstructure:"credits"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	SiteURL   string          `mapstructure:"site_url"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
}

// DatabaseConfig locates the SQLite file
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// EditorConfig tunes editor sessions
type EditorConfig struct {
	Latency           time.Duration `mapstructure:"latency"`       // simulated assistant think time
	AutosaveQuiet     time.Duration `mapstructure:"autosave_quiet"`
	SaveTimeout       time.Duration `mapstructure:"save_timeout"`
	ProjectCacheSize  int           `mapstructure:"project_cache_size"`
	ThrottlePerMinute float64       `mapstructure:"throttle_per_minute"`
	ThrottleBurst     int           `mapstructure:"throttle_burst"`
	FlushConcurrency  int           `mapstructure:"flush_concurrency"`
}

// CreditsConfig sets prices and rewards
type CreditsConfig struct {
	AssistantCost     int `mapstructure:"assistant_cost"`
	SignupBonus       int `mapstructure:"signup_bonus"`
	ReferrerBonus     int `mapstructure:"referrer_bonus"`
	RefereeBonus      int `mapstructure:"referee_bonus"`
	RewardPerReferral int `mapstructure:"reward_per_referral"`
}

// RateLimitConfig configures the per-IP fixed window
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Window      time.Duration `mapstructure:"window"`
	MaxRequests int           `mapstructure:"max_requests"`
}

// LogConfig configures zerolog output
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console, json
}

// DefaultDataDir returns ~/.webforge, falling back to ./.webforge
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".webforge"
	}
	return filepath.Join(home, ".webforge")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origin", "*")

	v.SetDefault("database.path", filepath.Join(DefaultDataDir(), "webforge.db"))

	v.SetDefault("editor.latency", "1500ms")
	v.SetDefault("editor.autosave_quiet", "1s")
	v.SetDefault("editor.save_timeout", "10s")
	v.SetDefault("editor.project_cache_size", 256)
	v.SetDefault("editor.throttle_per_minute", 30)
	v.SetDefault("editor.throttle_burst", 5)
	v.SetDefault("editor.flush_concurrency", 4)

	v.SetDefault("credits.assistant_cost", 1)
	v.SetDefault("credits.signup_bonus", 100)
	v.SetDefault("credits.referrer_bonus", 100)
	v.SetDefault("credits.referee_bonus", 200)
	v.SetDefault("credits.reward_per_referral", 100)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", "60s")
	v.SetDefault("rate_limit.max_requests", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("site_url", "http://localhost:3000")
}

// Load reads configuration. With an empty path, config.yaml is searched for in
// the working directory and the data directory; a missing file is not an
// error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDataDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Credits.AssistantCost < 1 {
		return fmt.Errorf("credits.assistant_cost must be at least 1, got %d", c.Credits.AssistantCost)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Window <= 0 || c.RateLimit.MaxRequests < 1) {
		return errors.New("rate_limit.window and rate_limit.max_requests must be positive")
	}
	if c.Editor.Latency < 0 {
		return errors.New("editor.latency must not be negative")
	}
	return nil
}
