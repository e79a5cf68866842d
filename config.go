package docrel

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration of a store, usually docrel.yaml:
//
//	path: data/app.db
//	timeout: 5s
//	verbose: true
//	retry:
//	  max_attempts: 3
//	  initial_interval: 50ms
type Config struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
	Verbose bool          `yaml:"verbose"`
	Retry   RetryPolicy   `yaml:"retry"`
}

func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(raw)
}

func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("docrel config: %w", err)
	}
	if cfg.Timeout < 0 {
		return Config{}, fmt.Errorf("docrel config: negative timeout %v", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts < 0 {
		return Config{}, fmt.Errorf("docrel config: negative retry.max_attempts %d", cfg.Retry.MaxAttempts)
	}
	return cfg, nil
}

func (cfg Config) Options(logger *slog.Logger) Options {
	return Options{
		Logger:  logger,
		Verbose: cfg.Verbose,
		Timeout: cfg.Timeout,
	}
}

func (cfg Config) RegistryOptions(logger *slog.Logger) RegistryOptions {
	return RegistryOptions{
		Logger: logger,
		Retry:  cfg.Retry,
	}
}
