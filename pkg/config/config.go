package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrisonrobin/todocal/pkg/todotxt"
)

const (
	xdgAppName = "todocal"
	configFile = "config.json"

	DefaultCalendar = "Tasks"
	DefaultSortBy   = "priority"
)

type Config struct {
	Calendar string `json:"calendar"`
	SortBy   string `json:"sort_by,omitempty"`
}

// SortKey returns the configured sort key.
func (c *Config) SortKey() (todotxt.SortKey, error) {
	if c.SortBy == "" {
		return todotxt.ParseSortKey(DefaultSortBy)
	}
	return todotxt.ParseSortKey(c.SortBy)
}

// Dir returns the directory holding the config, token and cache files.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Calendar: DefaultCalendar, SortBy: DefaultSortBy}, nil
		}
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Calendar == "" {
		cfg.Calendar = DefaultCalendar
	}
	if cfg.SortBy == "" {
		cfg.SortBy = DefaultSortBy
	}
	if _, err := cfg.SortKey(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
