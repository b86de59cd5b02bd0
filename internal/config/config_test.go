package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_SLOTNIK_KEY", "sekrit")

	path := writeConfig(t, `
server:
  address: ":9999"
  api_key: "${TEST_SLOTNIK_KEY}"
  rps: 25
database:
  path: "`+filepath.Join(t.TempDir(), "data", "test.db")+`"
engine:
  step_minutes: 30
  search_days: 14
catalog:
  cache_ttl_seconds: 60
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Address != ":9999" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Server.APIKey != "sekrit" {
		t.Errorf("env expansion failed, api_key = %q", cfg.Server.APIKey)
	}
	if cfg.SlotStep() != 30*time.Minute {
		t.Errorf("SlotStep() = %v", cfg.SlotStep())
	}
	if cfg.Engine.SearchDays != 14 {
		t.Errorf("search_days = %d", cfg.Engine.SearchDays)
	}
	if cfg.CatalogCacheTTL() != time.Minute {
		t.Errorf("CatalogCacheTTL() = %v", cfg.CatalogCacheTTL())
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "database:\n  path: \""+filepath.Join(dir, "slotnik.db")+"\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("default address = %q", cfg.Server.Address)
	}
	if cfg.SlotStep() != 15*time.Minute {
		t.Errorf("default SlotStep() = %v", cfg.SlotStep())
	}
	if cfg.CatalogCacheTTL() != 5*time.Minute {
		t.Errorf("default CatalogCacheTTL() = %v", cfg.CatalogCacheTTL())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
