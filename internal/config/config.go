// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"SHIELD_DB_PATH" envDefault:"./data/shield.db"`
	SessionSecret string `env:"SHIELD_SESSION_SECRET,required"`
	ServerHost    string `env:"SHIELD_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"SHIELD_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"SHIELD_ENV" envDefault:"development"`
	LogLevel      string `env:"SHIELD_LOG_LEVEL" envDefault:"info"`

	// RedisURL enables cross-process change notification when set
	// (e.g. redis://localhost:6379/0). A single process works without it.
	RedisURL    string `env:"SHIELD_REDIS_URL"`
	RedisPrefix string `env:"SHIELD_REDIS_PREFIX" envDefault:"shield:"`

	// Bootstrap admin created at startup when the admin set is empty.
	BootstrapAdminEmail    string `env:"SHIELD_BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"SHIELD_BOOTSTRAP_ADMIN_PASSWORD"`

	// AuditRetentionDays controls how long audit events are kept.
	AuditRetentionDays int `env:"SHIELD_AUDIT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if Redis change notification is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// BootstrapEnabled returns true if a bootstrap admin is configured.
func (c Config) BootstrapEnabled() bool {
	return c.BootstrapAdminEmail != "" && c.BootstrapAdminPassword != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("SHIELD_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("SHIELD_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("SHIELD_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.AuditRetentionDays < 1 {
		return nil, fmt.Errorf("SHIELD_AUDIT_RETENTION_DAYS must be positive, got %d", cfg.AuditRetentionDays)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
