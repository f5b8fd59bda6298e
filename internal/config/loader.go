package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Load reads configuration from an optional YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// path comes from the --config flag; when empty EATLOG_CONFIG is consulted.
// .env and .env.local in the working directory are loaded into the
// environment first without overriding variables that are already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var cfg Config

	if path == "" {
		path = os.Getenv("EATLOG_CONFIG")
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Resolve(); err != nil {
		return nil, fmt.Errorf("config: resolve: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Resolve fills paths derived from DataDir. DataDir defaults to ~/.eatlog.
func (c *Config) Resolve() error {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".eatlog")
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.DataDir, "eatlog.db")
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = filepath.Join(c.DataDir, "photos")
	}
	return nil
}

// MoveDataDir points DataDir at dir. Paths derived from the old data
// directory follow it; explicitly configured paths are kept.
func (c *Config) MoveDataDir(dir string) error {
	old := c.DataDir
	c.DataDir = dir
	if c.Database.Path == filepath.Join(old, "eatlog.db") {
		c.Database.Path = ""
	}
	if c.Storage.Dir == filepath.Join(old, "photos") {
		c.Storage.Dir = ""
	}
	return c.Resolve()
}
