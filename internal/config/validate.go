package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		add("SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		add("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Upload
	if c.Upload.MaxFileSize <= 0 {
		add("UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxConcurrent <= 0 {
		add("UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		add("UPLOAD_MAX_WAIT_TIME must be positive")
	}

	// Session
	if c.Session.MaxSessions <= 0 {
		add("SESSION_MAX must be positive")
	}
	if c.Session.IdleTTL <= 0 {
		add("SESSION_IDLE_TTL must be positive")
	}
	if c.Session.JanitorInterval <= 0 {
		add("SESSION_JANITOR_INTERVAL must be positive")
	}

	// Rate limiting
	if c.Rate.Enabled && (c.Rate.RequestsPerMinute <= 0 || c.Rate.UploadLimit <= 0) {
		add("RATE_LIMIT_REQUESTS_PER_MINUTE and RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	// Security
	for _, cidr := range c.Security.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil && net.ParseIP(cidr) == nil {
			add("TRUSTED_PROXIES entry %q is not an IP or CIDR", cidr)
		}
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		add("REQUIRE_API_KEY is true but API_KEYS is empty")
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		add("LOG_MAX_SIZE_MB must be positive when LOG_FILE is set")
	}
	if c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		add("LOG_MAX_BACKUPS and LOG_MAX_AGE_DAYS must be non-negative")
	}

	// Export
	if c.Export.Enabled() {
		if c.Export.MaxConns <= 0 {
			add("EXPORT_DB_MAX_CONNS must be positive")
		}
		if c.Export.MinConns < 0 {
			add("EXPORT_DB_MIN_CONNS must be non-negative")
		}
		if c.Export.MaxConns < c.Export.MinConns {
			add("EXPORT_DB_MAX_CONNS (%d) must be >= EXPORT_DB_MIN_CONNS (%d)",
				c.Export.MaxConns, c.Export.MinConns)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a representation safe for logs; the database URL is masked.
func (c *Config) String() string {
	dbURL := "<disabled>"
	if c.Export.Enabled() {
		dbURL = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, MaxConcurrent: %d}, ", c.Upload.MaxFileSize, c.Upload.MaxConcurrent)
	fmt.Fprintf(&b, "Session: {Max: %d, IdleTTL: %s}, ", c.Session.MaxSessions, c.Session.IdleTTL)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q, File: %q}, ", c.Logging.Level, c.Logging.Format, c.Logging.File)
	fmt.Fprintf(&b, "Export: {URL: %s, MaxConns: %d}", dbURL, c.Export.MaxConns)
	b.WriteString("}")
	return b.String()
}
