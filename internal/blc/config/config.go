// Package config loads the checker's runtime configuration: the default
// User-Agent (overridable via the USER_AGENT environment variable), and
// an optional YAML file carrying per-host User-Agent overrides and a
// skip-links list.
//
// Grounded on spec.md §6's USER_AGENT env var, and on
// TheSnook-polyester/site/config.go's yaml-decoder pattern for the file
// format.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is used when neither the USER_AGENT environment
// variable nor a config file entry overrides it (spec.md §6).
const DefaultUserAgent = "github.com/datawire/getambassador.io-blc2"

// Config is the checker's runtime configuration.
type Config struct {
	// UserAgent is the default User-Agent sent on requests.
	UserAgent string `yaml:"-"`
	// PerHostUserAgent overrides UserAgent for specific hosts.
	PerHostUserAgent map[string]string `yaml:"per_host_user_agent"`
	// SkipLinks is a list of exact link URLs the generic policy's
	// product_should_skip_link hook should never check.
	SkipLinks []string `yaml:"skip_links"`
	// DiskCachePath, if non-empty, is the path to a bbolt database used as
	// httpcache.Client's persistent second tier (internal/blc/httpcache/diskcache).
	// Empty means in-memory caching only.
	DiskCachePath string `yaml:"disk_cache_path"`
}

// Load reads an optional YAML config file at path (path == "" means no
// file; Load returns the defaults, i.e. only DefaultUserAgent set) and
// applies the USER_AGENT and BLC_DISK_CACHE environment variable
// overrides on top.
func Load(path string) (*Config, error) {
	cfg := &Config{UserAgent: DefaultUserAgent}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		if err := d.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parsing config %q: %w", path, err)
		}
	}

	if ua := os.Getenv("USER_AGENT"); ua != "" {
		cfg.UserAgent = ua
	}
	if path := os.Getenv("BLC_DISK_CACHE"); path != "" {
		cfg.DiskCachePath = path
	}
	return cfg, nil
}

// ShouldSkipLink reports whether rawURL is in the configured skip list.
func (c *Config) ShouldSkipLink(rawURL string) bool {
	for _, skip := range c.SkipLinks {
		if skip == rawURL {
			return true
		}
	}
	return false
}
