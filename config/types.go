// Package config loads and validates the client configuration from layered
// sources: built-in defaults, config.yaml, an environment-specific overlay,
// and environment variables. The resulting Config is handed to the client
// builder once and is immutable for the lifetime of a pipeline instance.
package config

import "time"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config is the root configuration structure.
type Config struct {
	Client ClientConfig `koanf:"client"`
	Log    LogConfig    `koanf:"log"`
}

// ClientConfig configures one HTTP client pipeline instance.
type ClientConfig struct {
	BaseURL string        `koanf:"baseurl" validate:"required,url"`
	Env     string        `koanf:"env" validate:"required,oneof=development staging production"`
	Timeout TimeoutConfig `koanf:"timeout"`
	Retry   RetryConfig   `koanf:"retry"`
	Rate    RateConfig    `koanf:"rate"`
	Auth    AuthConfig    `koanf:"auth"`
}

// TimeoutConfig holds the connect and receive deadlines.
type TimeoutConfig struct {
	Connect time.Duration `koanf:"connect" validate:"gt=0"`
	Receive time.Duration `koanf:"receive" validate:"gt=0"`
}

// RetryConfig holds the retry policy knobs.
type RetryConfig struct {
	Max       int           `koanf:"max" validate:"gte=0,lte=10"`
	BaseDelay time.Duration `koanf:"basedelay" validate:"gt=0"`
	JitterMax time.Duration `koanf:"jittermax" validate:"gte=0"`
}

// RateConfig holds the optional client-side rate limiter settings.
// A zero Limit disables the limiter.
type RateConfig struct {
	Limit float64 `koanf:"limit" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// AuthConfig holds authentication-related pipeline settings.
type AuthConfig struct {
	// RefreshPath is the token refresh endpoint path. Requests targeting it
	// never trigger a recursive refresh.
	RefreshPath string `koanf:"refreshpath"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level           string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty          bool   `koanf:"pretty"`
	Payloads        bool   `koanf:"payloads"`
	MaxPayloadBytes int    `koanf:"maxpayloadbytes" validate:"gte=0"`
}
