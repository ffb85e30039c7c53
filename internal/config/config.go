// Package config loads the optional per-repository .codegraph.yml. Absent
// or unreadable files yield defaults; malformed YAML fails fast with a
// ConfigError before any job is created.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lumenforge/codegraph-mcp/internal/lang"
)

// FileName is the per-repository config file name.
const FileName = ".codegraph.yml"

// DefaultIgnoreFile is the ignore file consulted at the repository root.
const DefaultIgnoreFile = ".cgignore"

const (
	defaultFileCost  = 50 * time.Millisecond
	defaultPollFloor = 2 * time.Second
)

// Config holds user-overridable per-repository settings. Pointer fields
// distinguish "unset" from explicit zero values.
type Config struct {
	// IgnoreFile overrides the ignore file name at the repository root.
	IgnoreFile *string `yaml:"ignore_file"`

	// FileCostMS overrides the per-file cost used for build estimates.
	FileCostMS *int `yaml:"file_cost_ms"`

	// PollFloorMS overrides the watcher's minimum polling interval.
	PollFloorMS *int `yaml:"watch_poll_floor_ms"`

	// Languages restricts indexing to the listed languages. Empty means all
	// supported languages.
	Languages []string `yaml:"languages"`
}

// ConfigError marks a malformed config or ignore file. It is raised before
// a job exists and never recorded as a job failure.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads .codegraph.yml from the repository root. A missing or
// unreadable file returns defaults; YAML that does not parse returns a
// *ConfigError.
func Load(repoRoot string) (*Config, error) {
	cfg := &Config{}
	path := filepath.Join(repoRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// EffectiveIgnoreFile returns the configured ignore file name or the
// default.
func (c *Config) EffectiveIgnoreFile() string {
	if c.IgnoreFile != nil && *c.IgnoreFile != "" {
		return *c.IgnoreFile
	}
	return DefaultIgnoreFile
}

// EffectiveFileCost returns the per-file duration used for build estimates.
func (c *Config) EffectiveFileCost() time.Duration {
	if c.FileCostMS != nil && *c.FileCostMS > 0 {
		return time.Duration(*c.FileCostMS) * time.Millisecond
	}
	return defaultFileCost
}

// EffectivePollFloor returns the minimum watcher polling interval.
func (c *Config) EffectivePollFloor() time.Duration {
	if c.PollFloorMS != nil && *c.PollFloorMS > 0 {
		return time.Duration(*c.PollFloorMS) * time.Millisecond
	}
	return defaultPollFloor
}

// AllowsLanguage reports whether the config permits indexing a language. An
// empty allowlist permits everything.
func (c *Config) AllowsLanguage(l lang.Language) bool {
	if len(c.Languages) == 0 {
		return true
	}
	for _, entry := range c.Languages {
		if strings.EqualFold(entry, string(l)) {
			return true
		}
	}
	return false
}
