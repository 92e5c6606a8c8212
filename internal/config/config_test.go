package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "kotoba.db" {
		t.Errorf("Expected sqlite at kotoba.db, but got %s at %s", cfg.Storage.Driver, cfg.Storage.DSN)
	}
	if cfg.Storage.MaxConns != 4 {
		t.Errorf("Expected max conns 4, but got %d", cfg.Storage.MaxConns)
	}
	if cfg.Storage.MaxConnLifetime != 30*time.Minute {
		t.Errorf("Expected lifetime 30m, but got %v", cfg.Storage.MaxConnLifetime)
	}
	if cfg.Review.WritePolicy != "optimistic" {
		t.Errorf("Expected write policy optimistic, but got %s", cfg.Review.WritePolicy)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics to be enabled by default")
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kotoba.yaml")
	yamlDoc := `
storage:
  driver: postgres
  dsn: postgres://file
log:
  level: debug
http:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KOTOBA_STORAGE__DSN", "postgres://env")
	t.Setenv("KOTOBA_STORAGE__MAX_CONNS", "12")
	t.Setenv("KOTOBA_REVIEW__WRITE_POLICY", "rollback")

	fs := newFlags(t, "--config", path, "--log.level", "warn")

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}

	t.Run("file overrides defaults", func(t *testing.T) {
		if cfg.Storage.Driver != "postgres" {
			t.Errorf("Expected driver postgres, but got %s", cfg.Storage.Driver)
		}
		if cfg.HTTP.Addr != ":9000" {
			t.Errorf("Expected addr :9000, but got %s", cfg.HTTP.Addr)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		if cfg.Storage.DSN != "postgres://env" {
			t.Errorf("Expected dsn from env, but got %s", cfg.Storage.DSN)
		}
		if cfg.Storage.MaxConns != 12 {
			t.Errorf("Expected max conns 12, but got %d", cfg.Storage.MaxConns)
		}
		if cfg.Review.WritePolicy != "rollback" {
			t.Errorf("Expected write policy rollback, but got %s", cfg.Review.WritePolicy)
		}
	})

	t.Run("changed flags override everything", func(t *testing.T) {
		if cfg.Log.Level != "warn" {
			t.Errorf("Expected log level warn, but got %s", cfg.Log.Level)
		}
	})

	t.Run("unchanged flags keep lower layers", func(t *testing.T) {
		if cfg.Log.Format != "text" {
			t.Errorf("Expected log format text, but got %s", cfg.Log.Format)
		}
	})
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "driver", args: []string{"--storage.driver", "mysql"}, want: "Driver"},
		{name: "write policy", args: []string{"--review.write_policy", "retry"}, want: "WritePolicy"},
		{name: "log format", args: []string{"--log.format", "xml"}, want: "Format"},
		{name: "max conns", args: []string{"--storage.max_conns", "0"}, want: "MaxConns"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tc.args...))
			if err == nil {
				t.Fatal("Expected an error, but got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error to mention %s, but got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(fs); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}
