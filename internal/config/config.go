// Package config loads application configuration and installs the logger.
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
	Lisa  LisaConfig  `yaml:"lisa" mapstructure:"lisa"`
	Store StoreConfig `yaml:"store" mapstructure:"store"`
	Log   LogConfig   `yaml:"log" mapstructure:"log"`
}

// LisaConfig configures the statistical engine and output artifacts.
type LisaConfig struct {
	Permutations int     `yaml:"permutations" mapstructure:"permutations"`
	Alpha        float64 `yaml:"alpha" mapstructure:"alpha"`
	Seed         int64   `yaml:"seed" mapstructure:"seed"`
	Workers      int     `yaml:"workers" mapstructure:"workers"`
	GeoJSONOut   string  `yaml:"geojson_out" mapstructure:"geojson_out"`
	CSVOut       string  `yaml:"csv_out" mapstructure:"csv_out"`
	MapOut       string  `yaml:"map_out" mapstructure:"map_out"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("LISA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("lisa.permutations", 999)
	v.SetDefault("lisa.alpha", 0.05)
	v.SetDefault("lisa.seed", 42)
	v.SetDefault("lisa.workers", 0)
	v.SetDefault("lisa.geojson_out", "local_morans_results.geojson")
	v.SetDefault("lisa.csv_out", "local_morans_results.csv")
	v.SetDefault("lisa.map_out", "local_morans_map.png")
	v.SetDefault("store.path", "lisa_runs.db")
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
