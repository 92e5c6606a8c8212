// Package config loads kotoba's settings. Sources are layered, each
// overriding the previous one: built-in defaults, an optional YAML file,
// KOTOBA_* environment variables, then command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix marks the environment variables read by Load. Nested keys are
// separated by a double underscore, e.g. KOTOBA_STORAGE__DSN.
const EnvPrefix = "KOTOBA_"

type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Review  ReviewConfig  `koanf:"review"`
	Library LibraryConfig `koanf:"library"`
	Log     LogConfig     `koanf:"log"`
	HTTP    HTTPConfig    `koanf:"http"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type StorageConfig struct {
	Driver          string        `koanf:"driver" validate:"required,oneof=sqlite postgres"`
	DSN             string        `koanf:"dsn" validate:"required"`
	MaxConns        int32         `koanf:"max_conns" validate:"min=1,max=100"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime" validate:"min=0"`
}

type ReviewConfig struct {
	WritePolicy string `koanf:"write_policy" validate:"oneof=optimistic rollback"`
}

type LibraryConfig struct {
	// Source is a local directory or a git URL holding N5_vocabulary.md
	// through N1_vocabulary.md.
	Source   string `koanf:"source" validate:"required"`
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

var defaults = map[string]any{
	"storage.driver":            "sqlite",
	"storage.dsn":               "kotoba.db",
	"storage.max_conns":         4,
	"storage.max_conn_lifetime": "30m",
	"review.write_policy":       "optimistic",
	"library.source":            "vocabulary",
	"library.repos_dir":         "repos",
	"log.level":                 "info",
	"log.format":                "text",
	"http.addr":                 ":8080",
	"metrics.enabled":           true,
}

// RegisterFlags adds a flag for every setting to fs, plus --config for the
// YAML file path.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("storage.driver", "sqlite", "Storage back end: sqlite or postgres")
	fs.String("storage.dsn", "kotoba.db", "SQLite file path or PostgreSQL connection string")
	fs.Int32("storage.max_conns", 4, "Maximum pooled PostgreSQL connections")
	fs.Duration("storage.max_conn_lifetime", 30*time.Minute, "Maximum lifetime of a pooled PostgreSQL connection")
	fs.String("review.write_policy", "optimistic", "What to do when a rating cannot be saved: optimistic or rollback")
	fs.String("library.source", "vocabulary", "Directory or git URL of the JLPT vocabulary files")
	fs.String("library.repos_dir", "repos", "Where git library sources are cloned")
	fs.String("log.level", "info", "Log level: debug, info, warn or error")
	fs.String("log.format", "text", "Log format: text or json")
	fs.String("http.addr", ":8080", "Listen address for serve")
	fs.Bool("metrics.enabled", true, "Expose Prometheus metrics on /metrics")
}

// Load builds the configuration. fs may be nil. When fs carries a --config
// flag its value names the YAML file; otherwise KOTOBA_CONFIG is consulted.
// A missing file is only an error when a path was given explicitly.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	path := os.Getenv(EnvPrefix + "CONFIG")
	if fs != nil {
		if p, err := fs.GetString("config"); err == nil && p != "" {
			path = p
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps KOTOBA_STORAGE__MAX_CONNS to storage.max_conns.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	if s == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
