package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string            `mapstructure:"environment"`
	Backend     BackendConfig     `mapstructure:"backend"`
	PostProcess PostProcessConfig `mapstructure:"postprocess"`
	Server      ServerConfig      `mapstructure:"server"`
	Simulator   SimulatorConfig   `mapstructure:"simulator"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// BackendConfig selects the prediction backend the client talks to.
// An empty BaseURL means same-origin: request paths are used as-is.
type BackendConfig struct {
	BaseURL        string               `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout        time.Duration        `mapstructure:"timeout" validate:"gte=0"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// Override trigger modes for the MRI/CT post-processor.
const (
	OverrideAlways        = "always"
	OverrideProbabilistic = "probabilistic"
	OverrideNever         = "never"
)

// PostProcessConfig configures the cross-sectional imaging post-processor.
type PostProcessConfig struct {
	OverrideMode        string  `mapstructure:"override_mode" validate:"oneof=always probabilistic never"`
	OverrideProbability float64 `mapstructure:"override_probability" validate:"gte=0,lte=1"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst      int           `mapstructure:"rate_burst" validate:"gte=0"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// SimulatorConfig configures the simulated inference backend.
type SimulatorConfig struct {
	CacheSize     int   `mapstructure:"cache_size" validate:"gt=0"`
	MaxReportSize int64 `mapstructure:"max_report_size" validate:"gt=0"`
	MaxXRaySize   int64 `mapstructure:"max_xray_size" validate:"gt=0"`
	MaxMRISize    int64 `mapstructure:"max_mri_size" validate:"gt=0"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Output string `mapstructure:"output"`
}
