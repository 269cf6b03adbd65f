// Package config provides configuration loading and structs for the Osusume server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Data      DataConfig      `yaml:"data"`
	Recommend RecommendConfig `yaml:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the ratings database and the tag index directory.
type StorageConfig struct {
	RatingsDBPath string `yaml:"ratings_db_path"`
	IndexPath     string `yaml:"index_path"`
}

// DataConfig holds paths for the raw CSV inputs.
type DataConfig struct {
	TagsPath    string `yaml:"tags_path"`
	RatingsPath string `yaml:"ratings_path"`
}

// RecommendConfig holds neighborhood and ranking settings.
type RecommendConfig struct {
	// NeighborhoodSize is the number of similar items considered when
	// estimating a rating.
	NeighborhoodSize int `yaml:"neighborhood_size"`
	// DefaultTopN is the recommendation list size when the caller does not ask for one.
	DefaultTopN int `yaml:"default_top_n"`
	// MaxTopN caps the list size a caller may request.
	MaxTopN int `yaml:"max_top_n"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.RatingsDBPath = expandPath(cfg.Storage.RatingsDBPath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	if cfg.Data.TagsPath != "" {
		cfg.Data.TagsPath = expandPath(cfg.Data.TagsPath, configDir)
	}
	if cfg.Data.RatingsPath != "" {
		cfg.Data.RatingsPath = expandPath(cfg.Data.RatingsPath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
