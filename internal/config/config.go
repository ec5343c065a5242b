// Package config provides Viper-based configuration loading for the
// live-session server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/questforge/mud/internal/game/admission"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// WebsocketConfig holds the websocket gateway settings.
type WebsocketConfig struct {
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
	// WriteTimeout is the per-message write deadline.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// PongTimeout is how long to wait for a pong before dropping the peer.
	PongTimeout time.Duration `mapstructure:"pong_timeout"`
	// MaxMessageBytes caps inbound message size.
	MaxMessageBytes int64 `mapstructure:"max_message_bytes"`
	// SendBuffer is the per-channel outbound event queue length.
	SendBuffer int `mapstructure:"send_buffer"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (w WebsocketConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// AuthConfig holds session-token verification settings.
type AuthConfig struct {
	// TokenSecret is the HMAC secret shared with the identity service.
	TokenSecret string `mapstructure:"token_secret"`
	// Issuer is the expected token issuer. Empty disables the issuer check.
	Issuer string `mapstructure:"issuer"`
}

// AdmissionConfig holds admission workflow settings.
type AdmissionConfig struct {
	// VisibilityPolicy is what happens to pending join requests when a
	// world's visibility flips: "retain" or "retire".
	VisibilityPolicy string `mapstructure:"visibility_policy"`
}

// Policy returns the typed admission policy.
func (a AdmissionConfig) Policy() admission.Policy {
	return admission.Policy(a.VisibilityPolicy)
}

// Config is the top-level application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admission AdmissionConfig `mapstructure:"admission"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateWebsocket(c.Websocket); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAuth(c.Auth); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAdmission(c.Admission); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateWebsocket(w WebsocketConfig) error {
	var errs []string
	if w.Port < 1 || w.Port > 65535 {
		errs = append(errs, fmt.Sprintf("websocket.port must be 1-65535, got %d", w.Port))
	}
	if w.WriteTimeout < 0 {
		errs = append(errs, "websocket.write_timeout must not be negative")
	}
	if w.PongTimeout < 0 {
		errs = append(errs, "websocket.pong_timeout must not be negative")
	}
	if w.MaxMessageBytes < 1 {
		errs = append(errs, fmt.Sprintf("websocket.max_message_bytes must be >= 1, got %d", w.MaxMessageBytes))
	}
	if w.SendBuffer < 1 {
		errs = append(errs, fmt.Sprintf("websocket.send_buffer must be >= 1, got %d", w.SendBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	if l.Format != "json" && l.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", l.Format)
	}
	return nil
}

func validateAuth(a AuthConfig) error {
	if a.TokenSecret == "" {
		return errors.New("auth.token_secret must not be empty")
	}
	return nil
}

func validateAdmission(a AdmissionConfig) error {
	if !a.Policy().Valid() {
		return fmt.Errorf("admission.visibility_policy must be retain or retire, got %q", a.VisibilityPolicy)
	}
	return nil
}

// Load reads configuration from the given file, applying defaults and
// MUD_-prefixed environment overrides.
//
// Precondition: path must point to a readable YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MUD_ prefix
	v.SetEnvPrefix("MUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mud")
	v.SetDefault("database.password", "mud")
	v.SetDefault("database.name", "mud")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("websocket.host", "0.0.0.0")
	v.SetDefault("websocket.port", 8080)
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.pong_timeout", "60s")
	v.SetDefault("websocket.max_message_bytes", 4096)
	v.SetDefault("websocket.send_buffer", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("admission.visibility_policy", "retain")
}
