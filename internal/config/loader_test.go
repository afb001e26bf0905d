package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/osvaldoandrade/schemaver/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemaver.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != "" {
		t.Fatalf("expected no source, got %s", cfg.Source)
	}
	want := Default()
	if cfg.Database != want.Database || cfg.TestMode != want.TestMode || cfg.Log != want.Log {
		t.Fatalf("expected defaults %+v, got %+v", want, cfg)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := writeConfig(t, `
database:
  backend: sqlite
  host: db.internal
  port: 6543
  dbname: registry
  fast: true
testmode:
  enabled: true
  dir: /tmp/fake-db
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != path {
		t.Fatalf("expected source %s, got %s", path, cfg.Source)
	}
	if cfg.Database.Backend != domain.BackendSQLite {
		t.Fatalf("expected sqlite backend, got %s", cfg.Database.Backend)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6543 || cfg.Database.DBName != "registry" {
		t.Fatalf("unexpected database section %+v", cfg.Database)
	}
	if cfg.Database.User != "postgres" {
		t.Fatalf("expected default user kept, got %s", cfg.Database.User)
	}
	if !cfg.Database.Fast {
		t.Fatalf("expected fast true")
	}
	if !cfg.TestMode.Enabled || cfg.TestMode.Dir != "/tmp/fake-db" {
		t.Fatalf("unexpected testmode %+v", cfg.TestMode)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log %+v", cfg.Log)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  host: from-file
`)
	t.Setenv("SCHEMAVER_DATABASE_HOST", "from-env")
	t.Setenv("SCHEMAVER_TESTMODE_ENABLED", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Host != "from-env" {
		t.Fatalf("expected env host, got %s", cfg.Database.Host)
	}
	if !cfg.TestMode.Enabled {
		t.Fatalf("expected testmode enabled from env")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "database:\n  backend: mongo\n")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "blank dbname", mutate: func(c *Config) { c.Database.DBName = " " }},
		{name: "bad port", mutate: func(c *Config) { c.Database.Port = 0 }},
		{name: "bad port ignored in testmode", mutate: func(c *Config) {
			c.Database.Port = 0
			c.TestMode.Enabled = true
		}, ok: true},
		{name: "testmode without dir", mutate: func(c *Config) {
			c.TestMode.Enabled = true
			c.TestMode.Dir = ""
		}},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if tt.ok && err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
		}
	}
}
