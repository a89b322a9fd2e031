// Package config loads the application settings.
//
// SOURCES, LOWEST PRECEDENCE FIRST:
//  1. Defaults (SetDefault below)
//  2. A YAML file, when one is given and exists
//  3. Environment variables: TASKBOARD_ + the key upper-cased with dots
//     replaced by underscores, e.g. TASKBOARD_STORAGE_BACKEND=redis
//
// Example file:
//
//	server:
//	  port: 8080
//	storage:
//	  backend: sqlite
//	  sqlite_path: data/taskboard.db
//	auth:
//	  jwt_secret: change-me-to-something-long
//	  sign_in_delay: 500ms
//	log:
//	  level: debug
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TASKBOARD"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Namespace     string `mapstructure:"namespace"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	SignInDelay     time.Duration `mapstructure:"sign_in_delay"`
	VerifyPasswords bool          `mapstructure:"verify_passwords"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.backend", BackendSQLite)
	v.SetDefault("storage.sqlite_path", "data/taskboard.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.namespace", "taskboard")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.sign_in_delay", time.Duration(0))
	v.SetDefault("auth.verify_passwords", false)
	v.SetDefault("log.level", "info")
}

// Load reads the configuration. path may be empty (defaults and environment
// only) or name a file that doesn't exist yet, which is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// AUTOMATIC ENV:
	// With a key replacer, viper maps "storage.backend" to
	// TASKBOARD_STORAGE_BACKEND. AutomaticEnv only resolves keys viper already
	// knows about, which is why every key has a default above.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *os.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("config: unknown storage.backend %q (want sqlite, redis or memory)", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Auth.SignInDelay < 0 {
		return fmt.Errorf("config: auth.sign_in_delay must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server.port", cfg.Server.Port)
	v.Set("storage.backend", cfg.Storage.Backend)
	v.Set("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.Set("storage.redis_addr", cfg.Storage.RedisAddr)
	v.Set("storage.redis_password", cfg.Storage.RedisPassword)
	v.Set("storage.redis_db", cfg.Storage.RedisDB)
	v.Set("storage.namespace", cfg.Storage.Namespace)
	v.Set("auth.jwt_secret", cfg.Auth.JWTSecret)
	v.Set("auth.token_ttl", cfg.Auth.TokenTTL.String())
	v.Set("auth.sign_in_delay", cfg.Auth.SignInDelay.String())
	v.Set("auth.verify_passwords", cfg.Auth.VerifyPasswords)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// ParseLevel turns "debug", "info", "warn" or "error" into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown log.level %q", s)
	}
	return level, nil
}

// NewLogger builds the process logger: slog's text handler at the configured
// level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
