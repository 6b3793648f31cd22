package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 5 || len(cfg.Server.AllowOrigins) != 1 || cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected server defaults %+v", cfg.Server)
	}
	if cfg.Query.BaseYear != 2010 {
		t.Errorf("expected base year 2010, got %d", cfg.Query.BaseYear)
	}
	if cfg.Indicators.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.Indicators.Timeout)
	}
	if got := cfg.Data.CPIPath(); got != filepath.Join("./data", "US_CPI.csv") {
		t.Errorf("unexpected cpi path %s", got)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("EMDAT_DATA_DIR", "/srv/emdat")
	t.Setenv("EMDAT_SERVER_PORT", "9090")
	t.Setenv("EMDAT_LOGGING_LEVEL", "debug")
	t.Setenv("EMDAT_INDICATORS_TIMEOUT", "30s")

	cfg, err := load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Data.Dir != "/srv/emdat" {
		t.Errorf("expected data dir from env, got %s", cfg.Data.Dir)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	if cfg.Indicators.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.Indicators.Timeout)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emdat.yaml")
	content := "query:\n  base_year: 2015\nworker:\n  count: 4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Query.BaseYear != 2015 {
		t.Errorf("expected base year 2015, got %d", cfg.Query.BaseYear)
	}
	if cfg.Worker.Count != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Worker.Count)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port", "EMDAT_SERVER_PORT", "70000"},
		{"level", "EMDAT_LOGGING_LEVEL", "verbose"},
		{"format", "EMDAT_LOGGING_FORMAT", "xml"},
		{"base year", "EMDAT_QUERY_BASE_YEAR", "1500"},
		{"timeout", "EMDAT_INDICATORS_TIMEOUT", "10ms"},
		{"workers", "EMDAT_WORKER_COUNT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			if _, err := load(""); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
