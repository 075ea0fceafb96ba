package config

import "time"

// Config holds all application configuration, organized into logical
// groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	API      APIConfig      `mapstructure:"api"`
	Export   ExportConfig   `mapstructure:"export"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the database settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// TokenLifetime returns the access token lifetime as a duration.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// APIConfig contains the request-facing tunables: rate limiting, the
// aggregate cache and the task-requested marker lifetime.
type APIConfig struct {
	RateLimit         int `mapstructure:"rate_limit" validate:"required,gt=0"`
	RateWindowMinutes int `mapstructure:"rate_window_minutes" validate:"required,gt=0"`
	CacheTTLSeconds   int `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	MarkerTTLSeconds  int `mapstructure:"marker_ttl_seconds" validate:"required,gt=0"`
}

// RateWindow returns the rate-limit window as a duration.
func (c APIConfig) RateWindow() time.Duration {
	return time.Duration(c.RateWindowMinutes) * time.Minute
}

// CacheTTL returns the aggregate cache entry lifetime.
func (c APIConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// MarkerTTL returns the task-requested marker lifetime.
func (c APIConfig) MarkerTTL() time.Duration {
	return time.Duration(c.MarkerTTLSeconds) * time.Second
}

// ExportConfig contains the export settings.
type ExportConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// WorkerConfig sizes the background job runner.
type WorkerConfig struct {
	Count     int `mapstructure:"count" validate:"required,gt=0"`
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}
