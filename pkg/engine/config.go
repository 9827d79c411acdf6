package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls engine behavior. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	EnableCache       bool
	EnableSandbox     bool
	CacheSize         int
	MaxRecursionDepth int
	MaxExecutionTime  time.Duration
	MaxStringLength   int
	AllowedImports    []string
	BlockedNames      []string
}

// DefaultConfig returns the standard engine configuration: caching and
// sandboxing on, 1000 cached expressions, depth 100, 5s budget, 1MB
// string ceiling.
func DefaultConfig() Config {
	return Config{
		EnableCache:       true,
		EnableSandbox:     true,
		CacheSize:         1000,
		MaxRecursionDepth: 100,
		MaxExecutionTime:  5 * time.Second,
		MaxStringLength:   1_000_000,
	}
}

// configFile is the YAML shape of a config file. Durations are strings
// in Go duration syntax ("5s", "250ms").
type configFile struct {
	EnableCache       *bool    `yaml:"enable_cache"`
	EnableSandbox     *bool    `yaml:"enable_sandbox"`
	CacheSize         *int     `yaml:"cache_size"`
	MaxRecursionDepth *int     `yaml:"max_recursion_depth"`
	MaxExecutionTime  string   `yaml:"max_execution_time"`
	MaxStringLength   *int     `yaml:"max_string_length"`
	AllowedImports    []string `yaml:"allowed_imports"`
	BlockedNames      []string `yaml:"blocked_names"`
}

// LoadConfig reads a YAML config file, applying defaults for any field
// the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var f configFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if f.EnableCache != nil {
		cfg.EnableCache = *f.EnableCache
	}
	if f.EnableSandbox != nil {
		cfg.EnableSandbox = *f.EnableSandbox
	}
	if f.CacheSize != nil {
		cfg.CacheSize = *f.CacheSize
	}
	if f.MaxRecursionDepth != nil {
		cfg.MaxRecursionDepth = *f.MaxRecursionDepth
	}
	if f.MaxExecutionTime != "" {
		d, err := time.ParseDuration(f.MaxExecutionTime)
		if err != nil {
			return cfg, fmt.Errorf("parsing max_execution_time: %w", err)
		}
		cfg.MaxExecutionTime = d
	}
	if f.MaxStringLength != nil {
		cfg.MaxStringLength = *f.MaxStringLength
	}
	if f.AllowedImports != nil {
		cfg.AllowedImports = f.AllowedImports
	}
	if f.BlockedNames != nil {
		cfg.BlockedNames = f.BlockedNames
	}

	return cfg, nil
}
