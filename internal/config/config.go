package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pdf-suite-server/internal/domain"
)

var defaultAllowedOrigins = []string{
	"http://localhost:5173", // Vite dev server
	"http://localhost:4173", // Vite preview
	"http://localhost:3000", // Alternative dev port
}

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort         string
	MaxFileSize        int64
	LogLevel           string
	ConverterURL       string
	ConvertTimeout     time.Duration
	ConvertConcurrency int64
	AllowedOrigins     []string
	SessionTTL         time.Duration
	MaxRenderScale     float64
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// PaaS hosts provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:         getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "3001")),
		MaxFileSize:        getEnvInt64OrDefault("MAX_FILE_SIZE", 100*1024*1024), // 100MB default
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		ConverterURL:       strings.TrimRight(getEnvOrDefault("OO_URL", "http://localhost:8080"), "/"),
		ConvertTimeout:     getEnvDurationOrDefault("CONVERT_TIMEOUT", 180*time.Second),
		ConvertConcurrency: getEnvInt64OrDefault("CONVERT_CONCURRENCY", 2),
		AllowedOrigins:     getEnvListOrDefault("ALLOWED_ORIGINS", defaultAllowedOrigins),
		SessionTTL:         getEnvDurationOrDefault("SESSION_TTL", 30*time.Minute),
		MaxRenderScale:     getEnvFloatOrDefault("MAX_RENDER_SCALE", 2.0),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetMaxFileSize returns the maximum allowed request body size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetConverterURL returns the base URL of the document conversion service
func (c *AppConfig) GetConverterURL() string {
	return c.ConverterURL
}

// GetConvertTimeout returns how long one conversion may take
func (c *AppConfig) GetConvertTimeout() time.Duration {
	return c.ConvertTimeout
}

// GetConvertConcurrency returns how many conversions may run at once
func (c *AppConfig) GetConvertConcurrency() int64 {
	return c.ConvertConcurrency
}

// GetAllowedOrigins returns the CORS origins
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetSessionTTL returns the idle time after which viewer sessions expire
func (c *AppConfig) GetSessionTTL() time.Duration {
	return c.SessionTTL
}

// GetMaxRenderScale returns the largest accepted preview scale
func (c *AppConfig) GetMaxRenderScale() float64 {
	return c.MaxRenderScale
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
