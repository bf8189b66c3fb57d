package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config written: %v", err)
	}
	if cfg.Addr != Default().Addr || cfg.DatabaseDriver != DriverSQLite {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: \":4000\"\nhistory_limit: 20\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ARANGAM_ADDR", ":5000")
	t.Setenv("ARANGAM_PERSIST_TIMEOUT", "2s")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":5000" {
		t.Fatalf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.HistoryLimit != 20 {
		t.Fatalf("expected history_limit from file, got %d", cfg.HistoryLimit)
	}
	if cfg.PersistTimeout != 2*time.Second {
		t.Fatalf("expected persist_timeout 2s, got %s", cfg.PersistTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseDriver = DriverPostgres }, wantErr: true},
		{name: "postgres with url", mutate: func(c *Config) {
			c.DatabaseDriver = DriverPostgres
			c.DatabaseURL = "postgres://localhost/arangam"
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mongo" }, wantErr: true},
		{name: "empty secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateFromKeepsZeroValues(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7000"})

	if cfg.Addr != ":7000" {
		t.Fatalf("expected addr override, got %q", cfg.Addr)
	}
	if cfg.JWTSecret != Default().JWTSecret {
		t.Fatalf("expected jwt secret untouched, got %q", cfg.JWTSecret)
	}
}
