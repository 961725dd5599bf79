package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hr-digital/surat-izin/internal/domain"
)

// EnvPrefix prefixes every environment variable read by the Manager.
const EnvPrefix = "SURAT_IZIN"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	config     *domain.Config
	configFile string
	envFile    string
}

// Option customizes a Manager.
type Option func(*Manager)

// WithConfigFile reads configuration from an explicit file instead of searching the default paths.
func WithConfigFile(path string) Option {
	return func(m *Manager) {
		m.configFile = path
	}
}

// WithEnvFile loads environment variables from the given dotenv file. Defaults to ".env".
func WithEnvFile(path string) Option {
	return func(m *Manager) {
		m.envFile = path
	}
}

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{envFile: ".env"}
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
	// A missing .env file is normal outside local development.
	if m.envFile != "" {
		if err := godotenv.Load(m.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading env file %s: %w", m.envFile, err)
		}
	}

	v := viper.New()
	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/surat-izin/")
	}

	// Set environment variable prefix and enable automatic env binding
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The Gemini credentials keep their conventional names as a fallback.
	if err := v.BindEnv("ocr.api_key", EnvPrefix+"_OCR_API_KEY", "GEMINI_API_KEY"); err != nil {
		return fmt.Errorf("error binding env: %w", err)
	}
	if err := v.BindEnv("ocr.base_url", EnvPrefix+"_OCR_BASE_URL", "GEMINI_BASE_URL"); err != nil {
		return fmt.Errorf("error binding env: %w", err)
	}

	setDefaults(v)

	// Read configuration file (optional - will use defaults and env vars if not found)
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

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "90s")

	// Database defaults
	v.SetDefault("database.path", "data/surat_izin.db")
	v.SetDefault("database.busy_timeout", "5s")

	// OCR defaults
	v.SetDefault("ocr.api_key", "")
	v.SetDefault("ocr.base_url", "")
	v.SetDefault("ocr.model", "gemini-2.5-flash")
	v.SetDefault("ocr.timeout", "60s")
	v.SetDefault("ocr.rate_limit", 2)
	v.SetDefault("ocr.cache_size", 256)
	v.SetDefault("ocr.cache_ttl", "24h")
	v.SetDefault("ocr.redis_url", "")
	v.SetDefault("ocr.breaker_failures", 5)
	v.SetDefault("ocr.breaker_open_delay", "30s")

	// Upload defaults
	v.SetDefault("upload.max_bytes", 10<<20)
	v.SetDefault("upload.max_import_bytes", 64<<20)
	v.SetDefault("upload.allowed_extensions", []string{"jpg", "jpeg", "png", "pdf"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// MCP defaults
	v.SetDefault("mcp.server_name", "surat-izin")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetOCRConfig returns OCR configuration
func (m *Manager) GetOCRConfig() *domain.OCRConfig {
	return &m.config.OCR
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate database configuration
	if config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	// Validate OCR configuration
	if config.OCR.RateLimit <= 0 {
		return fmt.Errorf("invalid OCR rate limit: %d", config.OCR.RateLimit)
	}
	if config.OCR.Timeout <= 0 {
		return fmt.Errorf("invalid OCR timeout: %s", config.OCR.Timeout)
	}

	// Validate upload configuration
	if config.Upload.MaxBytes <= 0 {
		return fmt.Errorf("invalid upload size limit: %d", config.Upload.MaxBytes)
	}
	if config.Upload.MaxImportBytes <= 0 {
		return fmt.Errorf("invalid import size limit: %d", config.Upload.MaxImportBytes)
	}
	if len(config.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one allowed upload extension is required")
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// OCREnabled reports whether an API key for the vision model is configured.
func (m *Manager) OCREnabled() bool {
	return m.config.OCR.APIKey != ""
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
