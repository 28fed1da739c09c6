package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for go-complexity
type Config struct {
	// Jobs caps how many functions are analyzed concurrently.
	// Zero picks one worker per CPU.
	Jobs int `yaml:"jobs" env:"GCX_JOBS"`

	// CountShortCircuit adds one complexity point per boolean
	// short-circuit operator found in branch conditions.
	CountShortCircuit bool `yaml:"count_short_circuit" env:"GCX_COUNT_SHORT_CIRCUIT"`

	// Thresholds for report violations. Zero disables a limit.
	MaxComplexity   int `yaml:"max_complexity" env:"GCX_MAX_COMPLEXITY"`
	MaxNestingDepth int `yaml:"max_nesting_depth" env:"GCX_MAX_NESTING_DEPTH"`

	// Extensions lists the file suffixes treated as analyzable source
	Extensions []string `yaml:"extensions" env:"GCX_EXTENSIONS"`

	// IgnoreFile names the per-directory ignore file
	IgnoreFile string `yaml:"ignore_file" env:"GCX_IGNORE_FILE"`

	// Result cache settings
	CacheEnabled    bool   `yaml:"cache_enabled" env:"GCX_CACHE_ENABLED"`
	CacheDir        string `yaml:"cache_dir" env:"GCX_CACHE_DIR"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"GCX_CACHE_MAX_ENTRIES"`

	// Logging
	Verbose bool `yaml:"verbose" env:"GCX_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Jobs:              0,
		CountShortCircuit: false,
		MaxComplexity:     10,
		MaxNestingDepth:   4,
		Extensions:        []string{".c", ".h", ".cc", ".cpp", ".cxx", ".hh", ".hpp"},
		IgnoreFile:        ".gcxignore",
		CacheEnabled:      true,
		CacheDir:          "",
		CacheMaxEntries:   1000,
		Verbose:           false,
	}
}

// globalConfigFilePath returns the global config file path (~/.gcx/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gcx/config.yaml"
	}
	return filepath.Join(home, ".gcx", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.gcx/config.yaml)
func projectConfigFilePath() string {
	return ".gcx/config.yaml"
}

// GlobalPath exposes the global config location for tooling.
func GlobalPath() string {
	return globalConfigFilePath()
}

// EffectiveCacheDir returns the configured cache directory, or the
// default ~/.gcx/cache when unset.
func (c *Config) EffectiveCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gcx/cache"
	}
	return filepath.Join(home, ".gcx", "cache")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.gcx/config.yaml)
// 3. Global config (~/.gcx/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GCX_JOBS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Jobs = i
		}
	}
	if v := os.Getenv("GCX_COUNT_SHORT_CIRCUIT"); v != "" {
		cfg.CountShortCircuit = parseBool(v)
	}
	// An explicit "0" disables a threshold; junk input keeps the default.
	if v := os.Getenv("GCX_MAX_COMPLEXITY"); v != "" {
		if i := parseInt(v); i > 0 || v == "0" {
			cfg.MaxComplexity = i
		}
	}
	if v := os.Getenv("GCX_MAX_NESTING_DEPTH"); v != "" {
		if i := parseInt(v); i > 0 || v == "0" {
			cfg.MaxNestingDepth = i
		}
	}
	if v := os.Getenv("GCX_EXTENSIONS"); v != "" {
		cfg.Extensions = SplitExtensions(v)
	}
	if v := os.Getenv("GCX_IGNORE_FILE"); v != "" {
		cfg.IgnoreFile = v
	}
	if v := os.Getenv("GCX_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("GCX_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("GCX_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("GCX_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be non-negative")
	}
	if c.MaxComplexity < 0 {
		return fmt.Errorf("max_complexity must be non-negative")
	}
	if c.MaxNestingDepth < 0 {
		return fmt.Errorf("max_nesting_depth must be non-negative")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid extension %q (must start with '.')", ext)
		}
	}
	if c.IgnoreFile == "" {
		return fmt.Errorf("ignore_file must not be empty")
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache_max_entries must be positive")
	}
	return nil
}

// SplitExtensions parses a comma separated extension list, adding the
// leading dot where it is missing.
func SplitExtensions(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, ".") {
			p = "." + p
		}
		out = append(out, p)
	}
	return out
}

// parseBool accepts the usual truthy spellings
func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
