package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the indexer settings. Values are layered: defaults, then the
// YAML file, then VVCINDEX_* environment variables, then command-line flags.
type Config struct {
	LogLevel  string  `yaml:"log_level"`
	LogFormat string  `yaml:"log_format"`
	Output    string  `yaml:"output"`
	Workers   int     `yaml:"workers"`
	Window    int     `yaml:"window"`
	FrameRate float64 `yaml:"frame_rate"`
	Labels    bool    `yaml:"labels"`
	Trace     bool    `yaml:"trace"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		Output:    "text",
		Workers:   runtime.NumCPU(),
	}
}

// loadConfig builds a Config from the defaults, the optional YAML file at
// path and the environment.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.LogLevel = envOr("VVCINDEX_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("VVCINDEX_LOG_FORMAT", cfg.LogFormat)
	cfg.Output = envOr("VVCINDEX_OUTPUT", cfg.Output)
	if v := os.Getenv("VVCINDEX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("VVCINDEX_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if os.Getenv("DEBUG") != "" {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.Output {
	case "text", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Output))
	}
	switch c.LogFormat {
	case "console", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Window < 0 {
		errs = append(errs, fmt.Errorf("window must not be negative, got %d", c.Window))
	}
	if c.FrameRate < 0 {
		errs = append(errs, fmt.Errorf("frame rate must not be negative, got %v", c.FrameRate))
	}
	return errors.Join(errs...)
}

func parseLevel(level string) (slog.Level, error) {
	var lv slog.LevelVar
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return lv.Level(), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
