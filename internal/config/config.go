package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/osteocare-ai/osteocare/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g.
// OSTEOCARE_BACKEND_BASE_URL.
const EnvPrefix = "OSTEOCARE"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
	validate   *validator.Validate
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfigFile reads the given file instead of searching for config.yaml.
func WithConfigFile(path string) Option {
	return func(m *Manager) { m.configFile = path }
}

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{validate: validator.New()}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/osteocare/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; defaults and environment variables suffice.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Backend defaults. An empty base URL targets the same origin.
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout", "60s")
	v.SetDefault("backend.circuit_breaker.enabled", false)
	v.SetDefault("backend.circuit_breaker.max_requests", 1)
	v.SetDefault("backend.circuit_breaker.interval", "60s")
	v.SetDefault("backend.circuit_breaker.timeout", "30s")
	v.SetDefault("backend.circuit_breaker.failure_threshold", 5)

	// Post-processing defaults
	v.SetDefault("postprocess.override_mode", domain.OverrideAlways)
	v.SetDefault("postprocess.override_probability", 0.45)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Simulator defaults
	v.SetDefault("simulator.cache_size", 512)
	v.SetDefault("simulator.max_report_size", 20<<20)
	v.SetDefault("simulator.max_xray_size", 30<<20)
	v.SetDefault("simulator.max_mri_size", 50<<20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetBackendConfig returns the prediction backend configuration
func (m *Manager) GetBackendConfig() *domain.BackendConfig {
	return &m.config.Backend
}

// GetPostProcessConfig returns the MRI/CT post-processing configuration
func (m *Manager) GetPostProcessConfig() *domain.PostProcessConfig {
	return &m.config.PostProcess
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetSimulatorConfig returns simulated backend configuration
func (m *Manager) GetSimulatorConfig() *domain.SimulatorConfig {
	return &m.config.Simulator
}

// Set overrides a single key and re-unmarshals the configuration.
func (m *Manager) Set(key string, value interface{}) error {
	m.v.Set(key, value)
	config := &domain.Config{}
	if err := m.v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	m.config = config
	return nil
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if err := m.validate.Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return domain.NewValidationError(fe.Namespace(), fmt.Sprintf("failed %q constraint", fe.Tag()), fe.Value())
		}
		return err
	}

	if config.Backend.CircuitBreaker.Enabled && config.Backend.CircuitBreaker.FailureThreshold == 0 {
		return domain.NewValidationError("backend.circuit_breaker.failure_threshold", "must be positive when the breaker is enabled", 0)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
