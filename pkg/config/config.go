// Package config loads the optional traitdex.toml configuration file.
//
// Flags always override file values; the file exists so deployments can
// pin a doc root, cache backend, and publish target without repeating
// them on every invocation:
//
//	[scan]
//	root = "/srv/docs"
//	trait = "core::ops::drop::Drop"
//
//	[serve]
//	addr = ":8080"
//	cache_ttl = "1h"
//
//	[cache]
//	backend = "redis"        # "file", "redis", or "none"
//	redis_addr = "localhost:6379"
//
//	[publish]
//	mongo_uri = "mongodb://localhost:27017"
//	database = "traitdex"
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/traitdex/pkg/errors"
)

// Cache backend names accepted in [cache].backend.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the root of the traitdex.toml file.
type Config struct {
	Scan    ScanConfig    `toml:"scan"`
	Serve   ServeConfig   `toml:"serve"`
	Cache   CacheConfig   `toml:"cache"`
	Publish PublishConfig `toml:"publish"`
}

// ScanConfig configures docset scanning.
type ScanConfig struct {
	Root  string `toml:"root"`  // doc root directory
	Trait string `toml:"trait"` // optional trait filter
}

// ServeConfig configures the HTTP surface.
type ServeConfig struct {
	Addr     string   `toml:"addr"`
	CacheTTL duration `toml:"cache_ttl"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`        // file backend; empty for default
	RedisAddr string `toml:"redis_addr"` // redis backend
	RedisDB   int    `toml:"redis_db"`
}

// PublishConfig configures snapshot publishing.
type PublishConfig struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// duration wraps time.Duration for TOML decoding of strings like "1h".
type duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// CacheTTL returns the configured serve cache TTL.
func (c *Config) CacheTTL() time.Duration { return c.Serve.CacheTTL.Duration() }

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Serve: ServeConfig{
			Addr:     ":8080",
			CacheTTL: duration(time.Hour),
		},
		Cache: CacheConfig{
			Backend: BackendFile,
		},
		Publish: PublishConfig{
			Database:   "traitdex",
			Collection: "snapshots",
		},
	}
}

// Load reads a config file and applies it over the defaults.
// A missing file is not an error when path is empty; an explicit path
// that does not exist is reported as FILE_NOT_FOUND.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("traitdex.toml"); err != nil {
			return cfg, nil
		}
		path = "traitdex.toml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "config file %s does not exist", path)
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks cross-field constraints the TOML decoder cannot.
func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend %q requires redis_addr", BackendRedis)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend: %q", c.Cache.Backend)
	}

	if c.Scan.Trait != "" {
		if err := errors.ValidateTraitPath(c.Scan.Trait); err != nil {
			return err
		}
	}
	return nil
}
