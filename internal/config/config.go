// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

// Package config provides layered configuration for Melodex using Koanf v2.
//
// Configuration is loaded from three sources (highest priority wins):
//  1. Environment variables (MELODEX_ prefix, e.g. MELODEX_SERVER_PORT)
//  2. Optional YAML config file (config.yaml)
//  3. Built-in defaults
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/melodex/config.yaml",
	"/etc/melodex/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "MELODEX_CONFIG_PATH"

// envPrefix is the prefix for all Melodex environment variables.
const envPrefix = "MELODEX_"

// Config is the root configuration for the Melodex server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Database   DatabaseConfig   `koanf:"database"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Catalog    CatalogConfig    `koanf:"catalog"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Empty binds all interfaces.
	Host string `koanf:"host"`

	// Port is the HTTP listen port.
	Port int `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the per-IP request budget per minute for API endpoints.
	RateLimit int `koanf:"rate_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig holds DuckDB settings. The database is used as the columnar
// query engine for parquet table loading; recommendation state itself is
// in-memory.
type DatabaseConfig struct {
	// Path is the DuckDB database path. The default in-memory database is
	// sufficient since tables are read from parquet on demand.
	Path string `koanf:"path"`

	// Threads limits DuckDB worker threads. 0 uses the DuckDB default.
	Threads int `koanf:"threads"`
}

// RecommendConfig holds the recommendation pipeline settings.
type RecommendConfig struct {
	// PersonalPath is the parquet source for per-user offline recommendations.
	PersonalPath string `koanf:"personal_path"`

	// DefaultPath is the parquet source for the popularity fallback table.
	DefaultPath string `koanf:"default_path"`

	// MaxEventsPerUser bounds the per-user interaction history.
	MaxEventsPerUser int `koanf:"max_events_per_user"`

	// DefaultK is the result length when the request does not specify one.
	DefaultK int `koanf:"default_k"`

	// MaxK caps the requested result length.
	MaxK int `koanf:"max_k"`

	// DefaultN is the per-event similar-track fetch size for online
	// recommendations when the request does not specify one.
	DefaultN int `koanf:"default_n"`

	// DiagnosticLookups enables the catalog side channel: one debug log line
	// per recommended track with resolved name and artist.
	DiagnosticLookups bool `koanf:"diagnostic_lookups"`
}

// SimilarityConfig holds settings for the item-to-item similarity capability.
type SimilarityConfig struct {
	// NeighborsPath is the parquet source for the precomputed neighbor table.
	NeighborsPath string `koanf:"neighbors_path"`

	// Timeout bounds a single similarity lookup.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the sustained similarity lookup budget per second.
	// 0 disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// Burst is the rate limiter burst size.
	Burst int `koanf:"burst"`
}

// CatalogConfig holds settings for the track metadata catalog.
type CatalogConfig struct {
	// ItemsPath is the parquet source for track metadata.
	ItemsPath string `koanf:"items_path"`
}

// defaultConfig returns a Config with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Threads: 0,
		},
		Recommend: RecommendConfig{
			PersonalPath:      "personal_als.parquet",
			DefaultPath:       "top_popular.parquet",
			MaxEventsPerUser:  10,
			DefaultK:          100,
			MaxK:              1000,
			DefaultN:          10,
			DiagnosticLookups: false,
		},
		Similarity: SimilarityConfig{
			NeighborsPath: "similar_tracks.parquet",
			Timeout:       2 * time.Second,
			RateLimit:     0,
			Burst:         100,
		},
		Catalog: CatalogConfig{
			ItemsPath: "items.parquet",
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables. MELODEX_SERVER_PORT=9090 maps to
	// server.port, MELODEX_RECOMMEND_MAX_EVENTS_PER_USER to
	// recommend.max_events_per_user, and so on.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return envKeyToPath(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKeyToPath converts an env var suffix like SERVER_PORT to a koanf path
// like server.port. Only the section separator (the first underscore) becomes
// a dot; the remainder keeps underscores to match the koanf struct tags.
func envKeyToPath(s string) string {
	s = strings.ToLower(s)
	parts := strings.SplitN(s, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}

// findConfigFile returns the first existing config file path, honoring the
// MELODEX_CONFIG_PATH override. Returns "" if no config file exists.
func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Recommend.MaxEventsPerUser < 1 {
		return fmt.Errorf("recommend.max_events_per_user must be positive, got %d", c.Recommend.MaxEventsPerUser)
	}
	if c.Recommend.DefaultK < 1 {
		return fmt.Errorf("recommend.default_k must be positive, got %d", c.Recommend.DefaultK)
	}
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend.max_k (%d) must be >= recommend.default_k (%d)", c.Recommend.MaxK, c.Recommend.DefaultK)
	}
	if c.Recommend.DefaultN < 1 {
		return fmt.Errorf("recommend.default_n must be positive, got %d", c.Recommend.DefaultN)
	}
	if c.Similarity.Timeout <= 0 {
		return fmt.Errorf("similarity.timeout must be positive, got %s", c.Similarity.Timeout)
	}
	return nil
}
