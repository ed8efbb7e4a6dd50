// Package config loads the registration server configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration values.
type Config struct {
	Addr string `mapstructure:"addr"`
	Env  string `mapstructure:"env"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// CatalogPath points to a YAML activity catalog. Empty uses the
	// built-in catalog.
	CatalogPath string `mapstructure:"catalog_path"`

	// EmailDebounce is the quiet period before the live email check runs.
	EmailDebounce time.Duration `mapstructure:"email_debounce"`

	// EventsPerSecond and EventBurst rate limit inbound events per
	// connection.
	EventsPerSecond float64 `mapstructure:"events_per_second"`
	EventBurst      int     `mapstructure:"event_burst"`

	// MaxSessions caps concurrent connections. Zero means no cap.
	MaxSessions int `mapstructure:"max_sessions"`

	// Codec is the default wire codec: "json" or "msgpack".
	Codec string `mapstructure:"codec"`

	// AllowedOrigins for WebSocket upgrades besides same-origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is empty", ErrInvalidConfig)
	}
	if c.EmailDebounce <= 0 {
		return fmt.Errorf("%w: email_debounce must be positive", ErrInvalidConfig)
	}
	if c.EventsPerSecond <= 0 || c.EventBurst <= 0 {
		return fmt.Errorf("%w: event rate limits must be positive", ErrInvalidConfig)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("%w: max_sessions must not be negative", ErrInvalidConfig)
	}
	switch c.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("%w: unknown codec %q", ErrInvalidConfig, c.Codec)
	}
	return nil
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":3000")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("catalog_path", "")
	v.SetDefault("email_debounce", 500*time.Millisecond)
	v.SetDefault("events_per_second", 20.0)
	v.SetDefault("event_burst", 40)
	v.SetDefault("max_sessions", 1000)
	v.SetDefault("codec", "json")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// Load reads configuration from the optional file, then REGFORM_*
// environment variables. Without a file, config.yaml in the working
// directory and ./config is used when present.
func Load(file string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("REGFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
