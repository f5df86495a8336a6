package config

import (
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. KILODB_SERVER_PORT
const EnvPrefix = "KILODB"

// Config represents the root configuration structure for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	GC      GCConfig      `mapstructure:"gc"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds the network settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	RateLimit       float64       `mapstructure:"rate_limit"`       // commands per second per connection, 0 disables
	RateBurst       int           `mapstructure:"rate_burst"`       // bucket size of the per-connection limiter
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // how long to wait for connections on shutdown
	MaxBulkLen      int           `mapstructure:"max_bulk_len"`     // largest accepted bulk string in bytes
}

// StorageConfig defines the internal structure of the storage engine
type StorageConfig struct {
	Shards uint `mapstructure:"shards"`
}

// LogConfig defines logging verbosity and output style
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// MetricsConfig defines the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Load reads the configuration from a file and overrides it with environment variables
// and any flags bound to viper before the call
func Load(path string) (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	return current()
}

func current() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the server cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port must be set"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if c.Server.MaxBulkLen <= 0 {
		errs = append(errs, errors.New("server.max_bulk_len must be positive"))
	}
	if c.GC.Enabled && c.GC.Interval <= 0 {
		errs = append(errs, errors.New("gc.interval must be positive"))
	}
	if c.GC.Enabled && c.GC.SamplesPerCheck <= 0 {
		errs = append(errs, errors.New("gc.samples_per_check must be positive"))
	}
	if c.GC.MaxRounds < 0 {
		errs = append(errs, errors.New("gc.max_rounds must not be negative"))
	}
	if c.GC.MatchThreshold < 0 || c.GC.MatchThreshold > 1 {
		errs = append(errs, errors.New("gc.match_threshold must be within [0, 1]"))
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, errors.New("metrics.address must be set when metrics are enabled"))
	}

	return errors.Join(errs...)
}

// Watch calls fn with the reloaded configuration every time the config file changes.
// Invalid files are reported through onError and otherwise ignored
func Watch(fn func(*Config), onError func(error)) {
	viper.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := current()
		if err != nil {
			onError(err)
			return
		}
		fn(cfg)
	})
	viper.WatchConfig()
}

// setDefaults populates viper with fallback values if they are not provided via file or ENV
func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "6380")
	viper.SetDefault("server.rate_limit", 0)
	viper.SetDefault("server.rate_burst", 1000)
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.max_bulk_len", 512*1024*1024)

	// Storage
	viper.SetDefault("storage.shards", 32)

	// GC
	gc := DefaultGCConfig()
	viper.SetDefault("gc.enabled", gc.Enabled)
	viper.SetDefault("gc.interval", gc.Interval)
	viper.SetDefault("gc.samples_per_check", gc.SamplesPerCheck)
	viper.SetDefault("gc.match_threshold", gc.MatchThreshold)
	viper.SetDefault("gc.max_rounds", gc.MaxRounds)

	// Logger
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	// Metrics
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.address", "127.0.0.1:9121")
}
