// Package server wires a corpus and a search.Coordinator into a
// config-driven, admission-controlled service: the ambient stack
// cmd/grepd's "serve" subcommand needs but that the teacher's
// single-shot cserver never had to provide.
package server

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is grepd's server configuration file, read from TOML at
// startup (SPEC_FULL.md §A.3). Every field has a sane zero-value
// default applied by WithDefaults.
type Config struct {
	// Threads sizes the search.Coordinator's worker pool.
	Threads int `toml:"threads"`
	// ChunkSizeMB sizes the corpus allocator's chunk size, in megabytes.
	ChunkSizeMB int `toml:"chunk_size_mb"`
	// DefaultMaxMatches and DefaultTimeoutSeconds seed search.Options
	// for queries that don't override them.
	DefaultMaxMatches     int `toml:"default_max_matches"`
	DefaultTimeoutSeconds int `toml:"default_timeout_seconds"`
	// QueriesPerSecond and BurstQueries configure the admission
	// Limiter.
	QueriesPerSecond float64 `toml:"queries_per_second"`
	BurstQueries     int     `toml:"burst_queries"`
	// LogFile, MaxSizeMB, MaxBackups, MaxAgeDays configure the rotating
	// log sink (cmd/grepd/serve.go).
	LogFile    string `toml:"log_file"`
	MaxSizeMB  int    `toml:"log_max_size_mb"`
	MaxBackups int    `toml:"log_max_backups"`
	MaxAgeDays int    `toml:"log_max_age_days"`
}

// WithDefaults fills zero-value fields with grepd's defaults.
func (c Config) WithDefaults() Config {
	if c.Threads <= 0 {
		c.Threads = 8
	}
	if c.ChunkSizeMB <= 0 {
		c.ChunkSizeMB = 4
	}
	if c.DefaultMaxMatches <= 0 {
		c.DefaultMaxMatches = 50
	}
	if c.DefaultTimeoutSeconds <= 0 {
		c.DefaultTimeoutSeconds = 1
	}
	if c.QueriesPerSecond <= 0 {
		c.QueriesPerSecond = 20
	}
	if c.BurstQueries <= 0 {
		c.BurstQueries = 5
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 100
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 28
	}
	return c
}

// LoadConfig reads and parses the TOML config file at path.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("server: read config %q: %w", path, err)
	}
	var c Config
	if err := toml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("server: parse config %q: %w", path, err)
	}
	return c.WithDefaults(), nil
}
