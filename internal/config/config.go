// Package config loads run settings from the environment and an optional
// YAML file.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the settings shared by the CLI and the server.
type Config struct {
	Workers       int      `yaml:"workers" env:"EGOLINT_WORKERS"`
	ParallelRules bool     `yaml:"parallel_rules" env:"EGOLINT_PARALLEL_RULES" env-default:"false"`
	Disable       []string `yaml:"disable" env:"EGOLINT_DISABLE" env-separator:","`
	LogLevel      string   `yaml:"log_level" env:"EGOLINT_LOG_LEVEL" env-default:"warn"`
	LogFormat     string   `yaml:"log_format" env:"EGOLINT_LOG_FORMAT" env-default:"text"`
	Color         bool     `yaml:"color" env:"EGOLINT_COLOR" env-default:"false"`
	Addr          string   `yaml:"addr" env:"EGOLINT_ADDR" env-default:":8080"`
	MetricsFile   string   `yaml:"metrics_file" env:"EGOLINT_METRICS_FILE"`
}

// Load reads the environment, and path first when it is not empty.
// Environment variables override the file.
func Load(path string) (*Config, error) {
	var cfg Config

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	ids := c.Disable[:0]
	for _, id := range c.Disable {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	c.Disable = ids
}

// Disabled returns the disabled rule IDs as a set.
func (c *Config) Disabled() map[string]bool {
	m := make(map[string]bool, len(c.Disable))
	for _, id := range c.Disable {
		m[id] = true
	}
	return m
}
