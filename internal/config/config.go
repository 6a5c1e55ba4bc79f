package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "FUNDBRIDGE_CONFIG"

// defaultConfigPaths are searched in order; the first existing file wins.
var defaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fundbridge/config.yaml",
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Limits   LimitsConfig   `koanf:"limits"`
}

type ServerConfig struct {
	Addr        string        `koanf:"addr"`
	Environment string        `koanf:"environment"`
	Timeout     time.Duration `koanf:"timeout"`
}

// IsProduction reports whether the server runs in production mode.
// Controls the Secure attribute on issued cookies among other things.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.Environment), "production")
}

type AuthConfig struct {
	// Secret signs and verifies credentials. When empty a process-local
	// secret is generated; every outstanding credential becomes
	// unverifiable after a restart, so production deployments must set it.
	Secret           string        `koanf:"secret"`
	Issuer           string        `koanf:"issuer"`
	AccessTTL        time.Duration `koanf:"access_ttl"`
	RememberTTL      time.Duration `koanf:"remember_ttl"`
	CookieName       string        `koanf:"cookie_name"`
	LegacyCookieName string        `koanf:"legacy_cookie_name"`
	AdminPathPrefix  string        `koanf:"admin_path_prefix"`
}

type DatabaseConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type LimitsConfig struct {
	RatePerSecond int   `koanf:"rate_per_second"`
	RateBurst     int   `koanf:"rate_burst"`
	MaxBodyBytes  int64 `koanf:"max_body_bytes"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			Environment: "development",
			Timeout:     15 * time.Second,
		},
		Auth: AuthConfig{
			Secret:           "",
			Issuer:           "fundbridge",
			AccessTTL:        7 * 24 * time.Hour,
			RememberTTL:      30 * 24 * time.Hour,
			CookieName:       "auth_token",
			LegacyCookieName: "token",
			AdminPathPrefix:  "/v1/admin",
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Limits: LimitsConfig{
			RatePerSecond: 50,
			RateBurst:     100,
			MaxBodyBytes:  1 << 20,
		},
	}
}

// Load builds configuration from layered sources: struct defaults, then an
// optional YAML file, then environment variables (highest priority).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("FUNDBRIDGE_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot serve requests safely.
func (c *Config) Validate() error {
	if c.Auth.AccessTTL <= 0 {
		return errors.New("config: auth.access_ttl must be positive")
	}
	if c.Auth.RememberTTL < c.Auth.AccessTTL {
		return errors.New("config: auth.remember_ttl must not be shorter than auth.access_ttl")
	}
	if !strings.HasPrefix(c.Auth.AdminPathPrefix, "/") {
		return errors.New("config: auth.admin_path_prefix must start with /")
	}
	if c.Server.IsProduction() && strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("config: auth.secret is required in production")
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps FUNDBRIDGE_* variables to config paths, e.g.
// FUNDBRIDGE_AUTH_SECRET -> auth.secret, FUNDBRIDGE_PG_DSN -> database.dsn.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "FUNDBRIDGE_"))

	mappings := map[string]string{
		"addr":        "server.addr",
		"environment": "server.environment",
		"timeout":     "server.timeout",

		"auth_secret":        "auth.secret",
		"auth_issuer":        "auth.issuer",
		"auth_access_ttl":    "auth.access_ttl",
		"auth_remember_ttl":  "auth.remember_ttl",
		"auth_cookie":        "auth.cookie_name",
		"auth_legacy_cookie": "auth.legacy_cookie_name",
		"auth_admin_prefix":  "auth.admin_path_prefix",

		"pg_dsn":               "database.dsn",
		"pg_max_open_conns":    "database.max_open_conns",
		"pg_max_idle_conns":    "database.max_idle_conns",
		"pg_conn_max_lifetime": "database.conn_max_lifetime",

		"log_level":  "logging.level",
		"log_format": "logging.format",

		"rate_per_second": "limits.rate_per_second",
		"rate_burst":      "limits.rate_burst",
		"max_body_bytes":  "limits.max_body_bytes",
	}

	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	// Unknown variables are skipped so unrelated environment noise
	// cannot leak into the configuration.
	return ""
}
