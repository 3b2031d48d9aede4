package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config top-level struct
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	Output  OutputConfig  `yaml:"output"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type EngineConfig struct {
	// WithdrawalBackfill replays withdrawals that were rejected only because
	// funds were tied up in open disputes, once those disputes resolve.
	WithdrawalBackfill bool `yaml:"withdrawal_backfill"`
}

type OutputConfig struct {
	SortByClient bool `yaml:"sort_by_client"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{SortByClient: true},
	}
}

// Load reads yaml file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	// override log level from env if present
	if lvl := os.Getenv("ENGINE_LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}
