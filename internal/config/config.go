// Package config loads application configuration from config.yaml and the
// environment, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Sources    SourcesConfig    `yaml:"sources" mapstructure:"sources"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures persistence. DatabaseURL is the Postgres DSN for
// the catalog, source cache, and run log; Driver selects the run-result
// store backend (postgres shares the pool, sqlite writes to SQLitePath).
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SourcesConfig is the per-source enablement map, read once per run.
type SourcesConfig struct {
	UVP     bool `yaml:"uvp" mapstructure:"uvp"`
	Website bool `yaml:"website" mapstructure:"website"`
	Review  bool `yaml:"review" mapstructure:"review"`
	Keyword bool `yaml:"keyword" mapstructure:"keyword"`
}

// ExtractionConfig tunes the runner and adapters.
type ExtractionConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MaxPerSource        int     `yaml:"max_per_source" mapstructure:"max_per_source"`
	Concurrency         int     `yaml:"concurrency" mapstructure:"concurrency"`
	AutoPersist         bool    `yaml:"auto_persist" mapstructure:"auto_persist"`
	LiveFetch           bool    `yaml:"live_fetch" mapstructure:"live_fetch"`
	FetchRatePerSec     float64 `yaml:"fetch_rate_per_sec" mapstructure:"fetch_rate_per_sec"`
	SeedListPath        string  `yaml:"seed_list_path" mapstructure:"seed_list_path"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "catalog-cli.db")
	v.SetDefault("sources.uvp", true)
	v.SetDefault("sources.website", true)
	v.SetDefault("sources.review", true)
	v.SetDefault("sources.keyword", true)
	v.SetDefault("extraction.similarity_threshold", 0.8)
	v.SetDefault("extraction.max_per_source", 50)
	v.SetDefault("extraction.concurrency", 4)
	v.SetDefault("extraction.auto_persist", false)
	v.SetDefault("extraction.live_fetch", false)
	v.SetDefault("extraction.fetch_rate_per_sec", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
