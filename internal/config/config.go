// Package config loads service configuration from environment variables.
// Every setting has a default except where noted; Load validates the result
// so misconfiguration fails at startup.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Export   ExportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout bounds reading a request including the uploaded file.
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is applied by middleware to every request.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig limits spreadsheet uploads.
type UploadConfig struct {
	// MaxFileSize is the largest accepted file in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is how many files may be decoded at once.
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long an upload waits for a decode slot.
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// SessionConfig controls the in-memory session registry.
type SessionConfig struct {
	MaxSessions     int           `env:"SESSION_MAX" default:"100"`
	IdleTTL         time.Duration `env:"SESSION_IDLE_TTL" default:"2h"`
	JanitorInterval time.Duration `env:"SESSION_JANITOR_INTERVAL" default:"5m"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// UploadLimit is requests per minute for endpoints that accept files.
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For / X-Real-IP headers are honored.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key header.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`

	// File, when set, receives a copy of every log line and is rotated
	// by size. Stdout logging continues either way.
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" default:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" default:"28"`
	Compress   bool   `env:"LOG_COMPRESS" default:"true"`
}

// ExportConfig configures the optional PostgreSQL export sink.
// Database export is disabled when DatabaseURL is empty.
type ExportConfig struct {
	DatabaseURL     string        `env:"EXPORT_DATABASE_URL" envAlt:"DATABASE_URL"`
	MaxConns        int           `env:"EXPORT_DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"EXPORT_DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"EXPORT_DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"EXPORT_DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// EnsureSchema creates the export tables at startup.
	EnsureSchema bool `env:"EXPORT_ENSURE_SCHEMA" default:"true"`
}

// Enabled reports whether a database sink is configured.
func (c *ExportConfig) Enabled() bool {
	return c.DatabaseURL != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
