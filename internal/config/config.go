package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Watch  WatchConfig  `yaml:"watch" mapstructure:"watch"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Rules  RulesConfig  `yaml:"rules" mapstructure:"rules"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the validation run archive.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// WatchConfig configures the staging directory watcher.
type WatchConfig struct {
	Dir        string        `yaml:"dir" mapstructure:"dir"`
	Debounce   time.Duration `yaml:"debounce" mapstructure:"debounce"`
	Extensions []string      `yaml:"extensions" mapstructure:"extensions"`
}

// BatchConfig configures multi-file validation.
type BatchConfig struct {
	MaxConcurrentFiles int `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
}

// RulesConfig selects the rule set. An empty File means the compiled-in
// municipal defaults.
type RulesConfig struct {
	File     string `yaml:"file" mapstructure:"file"`
	Location string `yaml:"location" mapstructure:"location"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLANWIZARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "planwizard.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.max_body_bytes", 4<<20)
	v.SetDefault("watch.dir", "staging")
	v.SetDefault("watch.debounce", "500ms")
	v.SetDefault("watch.extensions", []string{".json"})
	v.SetDefault("batch.max_concurrent_files", 4)
	v.SetDefault("rules.file", "")
	v.SetDefault("rules.location", "Punjab")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Unknown modes are
// rejected so callers cannot silently skip validation.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Batch.MaxConcurrentFiles < 1 || c.Batch.MaxConcurrentFiles > 64 {
		errs = append(errs, "batch.max_concurrent_files must be between 1 and 64")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported (sqlite, postgres)", c.Store.Driver))
	}

	switch mode {
	case "validate":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server.rate_limit_rps must be >= 0")
		}
		if c.Server.RateLimitRPS > 0 && c.Server.RateBurst < 1 {
			errs = append(errs, "server.rate_burst must be >= 1 when rate limiting is enabled")
		}
		if c.Server.MaxBodyBytes <= 0 {
			errs = append(errs, "server.max_body_bytes must be > 0")
		}
	case "watch":
		if c.Watch.Dir == "" {
			errs = append(errs, "watch.dir is required")
		}
		if c.Watch.Debounce < 0 {
			errs = append(errs, "watch.debounce must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
