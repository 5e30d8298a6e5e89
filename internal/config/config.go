// Package config loads process configuration from environment variables.
// Defaults are applied for unset values and the result is validated on
// startup so a misconfigured process fails before it touches the database.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Run        RunConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
	Validation ValidationConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is 0 so the blocking result endpoint can wait on long runs.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining runs (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. DB_URL is accepted as well.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies pending migrations on server start (default: true)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// RunConfig holds ETL run settings.
type RunConfig struct {
	// MaxConcurrent is the number of runs processed in parallel (default: 1)
	MaxConcurrent int `env:"RUN_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long a new run waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"RUN_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a whole run (default: 30m)
	Timeout time.Duration `env:"RUN_TIMEOUT" default:"30m"`

	// UnitTimeout bounds one match unit transaction (default: 30s)
	UnitTimeout time.Duration `env:"RUN_UNIT_TIMEOUT" default:"30s"`

	// Retention is how long finished runs stay queryable (default: 5m)
	Retention time.Duration `env:"RUN_RETENTION" default:"5m"`

	// HomeTeam overrides the home team in the validation thresholds.
	HomeTeam string `env:"HOME_TEAM"`

	// MaxFileSize is the largest accepted workbook in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// UploadDir holds uploaded workbooks until their run finishes (default: os temp dir)
	UploadDir string `env:"UPLOAD_DIR"`
}

// RateLimitConfig holds request rate limits.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// UploadsPerMinute limits upload and validate requests per client IP (default: 10)
	UploadsPerMinute int `env:"RATE_LIMIT_UPLOAD" default:"10"`

	// Burst is the number of requests allowed at once (default: 3)
	Burst int `env:"RATE_LIMIT_BURST" default:"3"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// AllowedOrigins is a comma-separated CORS origin list; empty disables CORS.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP and X-Forwarded-For are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards the run endpoints with the X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys.
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ValidationConfig points at the thresholds file.
type ValidationConfig struct {
	// ConfigPath is a YAML thresholds file; empty uses the built-in defaults.
	ConfigPath string `env:"VALIDATION_CONFIG"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
