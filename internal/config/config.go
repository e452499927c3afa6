package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"jobshell/internal/jobs"
)

const (
	DefaultPrompt   = "# "
	DefaultLogLevel = "info"
)

type Config struct {
	HistoryFile string `yaml:"history_file"`
	HomeDir     string `yaml:"home_dir"`
	Prompt      string `yaml:"prompt"`
	MaxJobs     int    `yaml:"max_jobs"`
	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level"`
}

// Load reads file and fills in defaults. A missing file is not an error.
func Load(file string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize fills every unset field with its default.
func (c *Config) Normalize() error {
	var err error
	if c.HomeDir == "" {
		c.HomeDir, err = os.UserHomeDir()
		if err != nil {
			return err
		}
	}

	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(c.HomeDir, ".jobshell_history")
	}
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	if c.MaxJobs <= 0 {
		c.MaxJobs = jobs.DefaultCapacity
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return nil
}
