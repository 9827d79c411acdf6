package engine

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
enable_cache: false
cache_size: 50
max_recursion_depth: 20
max_execution_time: 250ms
max_string_length: 4096
blocked_names:
  - secret
allowed_imports:
  - json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EnableCache {
		t.Error("enable_cache should be false")
	}
	if !cfg.EnableSandbox {
		t.Error("enable_sandbox should keep its default")
	}
	if cfg.CacheSize != 50 {
		t.Errorf("cache_size = %d", cfg.CacheSize)
	}
	if cfg.MaxRecursionDepth != 20 {
		t.Errorf("max_recursion_depth = %d", cfg.MaxRecursionDepth)
	}
	if cfg.MaxExecutionTime != 250*time.Millisecond {
		t.Errorf("max_execution_time = %s", cfg.MaxExecutionTime)
	}
	if cfg.MaxStringLength != 4096 {
		t.Errorf("max_string_length = %d", cfg.MaxStringLength)
	}
	if len(cfg.BlockedNames) != 1 || cfg.BlockedNames[0] != "secret" {
		t.Errorf("blocked_names = %v", cfg.BlockedNames)
	}
	if len(cfg.AllowedImports) != 1 || cfg.AllowedImports[0] != "json" {
		t.Errorf("allowed_imports = %v", cfg.AllowedImports)
	}
}

func TestLoadConfigEmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}
	if _, err := LoadConfig(writeConfig(t, "max_execution_time: banana")); err == nil {
		t.Error("bad duration should error")
	}
	if _, err := LoadConfig(writeConfig(t, ": not yaml [")); err == nil {
		t.Error("bad yaml should error")
	}
}
