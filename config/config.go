/*
Package config loads the directory client settings from the environment.

Variables use the DIRECTORY_ prefix:

	DIRECTORY_BASE_URL=http://localhost:3000
	DIRECTORY_PAGE_SIZE=6
	DIRECTORY_CACHE_TTL=5m

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
*/
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-team-directory/cache"
)

// Prefix is prepended to every variable name.
const Prefix = "DIRECTORY_"

// Config holds the runtime settings of one directory session.
type Config struct {
	// Remote collection endpoint
	BaseURL     string        `env:"BASE_URL"     envDefault:"http://localhost:3000"`
	MembersPath string        `env:"MEMBERS_PATH" envDefault:"/members"`
	Timeout     time.Duration `env:"TIMEOUT"      envDefault:"10s"`
	TotalHeader string        `env:"TOTAL_HEADER" envDefault:"X-Total-Count"`
	PageParam   string        `env:"PAGE_PARAM"   envDefault:"page"`
	LimitParam  string        `env:"LIMIT_PARAM"  envDefault:"limit"`
	SearchParam string        `env:"SEARCH_PARAM" envDefault:"q"`
	UserAgent   string        `env:"USER_AGENT"   envDefault:"team-directory"`

	// List
	PageSize int `env:"PAGE_SIZE" envDefault:"6"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Cache Cache `envPrefix:"CACHE_"`
}

// Cache holds the query cache settings.
type Cache struct {
	Capacity           int           `env:"CAPACITY"            envDefault:"1024"`
	NumShards          int           `env:"SHARDS"              envDefault:"8"`
	TTL                time.Duration `env:"TTL"                 envDefault:"5m"`
	EvictionPercentage int           `env:"EVICTION_PERCENTAGE" envDefault:"10"`
	KeySegmentMax      int           `env:"KEY_SEGMENT_MAX"     envDefault:"64"`
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s: %s", e.Field, e.Message)
}

// Load parses the process environment.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses environ instead of the process environment when it is
// not nil. Keys in environ are full names, prefix included.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: Prefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would break a session.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Field: "BaseURL", Message: "must not be empty"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Field: "BaseURL", Message: "must be an absolute URL"}
	}
	if c.PageSize <= 0 {
		return &ConfigError{Field: "PageSize", Message: "must be greater than 0"}
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "Timeout", Message: "must be non-negative"}
	}
	if c.PageParam == "" || c.LimitParam == "" || c.SearchParam == "" {
		return &ConfigError{Field: "QueryParams", Message: "must not be empty"}
	}
	if err := c.CacheConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// CacheConfig converts the cache settings for cache.NewCacheService.
func (c *Config) CacheConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Capacity = c.Cache.Capacity
	cfg.NumShards = c.Cache.NumShards
	cfg.TTL = c.Cache.TTL
	cfg.EvictionPercentage = c.Cache.EvictionPercentage
	return cfg
}
