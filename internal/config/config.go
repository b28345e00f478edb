package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the layout server
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Designer  DesignerConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	Environment    string
	AllowedOrigins []string
}

// BackendConfig holds the homestead REST backend connection settings
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// DesignerConfig holds the layout canvas settings
type DesignerConfig struct {
	PixelsPerFoot        float64
	GridSize             float64 // feet
	DragThreshold        float64 // pixels
	RulesPath            string  // optional collision rule table override
	MinorGridMaxFeet     float64
	SuperMajorMinFeet    float64
	CompressionThreshold int // bytes; larger view payloads are gzip framed
}

// RateLimitConfig holds request rate limits
type RateLimitConfig struct {
	GlobalPerMinute    int64
	WebSocketPerMinute int64
	// TrustedProxies are the IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers name the client. Empty means no proxy is trusted.
	TrustedProxies []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string
	Profiling bool
}

// Load reads configuration from environment variables and .env file
// It returns a Config struct with all settings populated
// The .env file is loaded from the current working directory
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found (this is OK if using environment variables): %v", err)
	}

	config := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8090"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:    getEnv("ENVIRONMENT", "development"),
			AllowedOrigins: getListEnv("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Backend: BackendConfig{
			// 127.0.0.1 rather than localhost avoids IPv6 resolution on Windows
			BaseURL:    getEnv("BACKEND_BASE_URL", "http://127.0.0.1:8000"),
			Timeout:    getDurationEnv("BACKEND_TIMEOUT", 10*time.Second),
			RetryCount: getIntEnv("BACKEND_RETRY_COUNT", 3),
		},
		Designer: DesignerConfig{
			PixelsPerFoot:        getFloatEnv("DESIGNER_PIXELS_PER_FOOT", 10),
			GridSize:             getFloatEnv("DESIGNER_GRID_SIZE", 1),
			DragThreshold:        getFloatEnv("DESIGNER_DRAG_THRESHOLD", 5),
			RulesPath:            getEnv("DESIGNER_RULES_PATH", ""),
			MinorGridMaxFeet:     getFloatEnv("DESIGNER_MINOR_GRID_MAX_FEET", 200),
			SuperMajorMinFeet:    getFloatEnv("DESIGNER_SUPER_MAJOR_MIN_FEET", 100),
			CompressionThreshold: getIntEnv("DESIGNER_COMPRESSION_THRESHOLD", 16*1024),
		},
		RateLimit: RateLimitConfig{
			GlobalPerMinute:    int64(getIntEnv("RATE_LIMIT_GLOBAL_PER_MINUTE", 1000)),
			WebSocketPerMinute: int64(getIntEnv("RATE_LIMIT_WEBSOCKET_PER_MINUTE", 30)),
			TrustedProxies:     getListEnv("TRUSTED_PROXIES", nil),
		},
		Logging: LoggingConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Profiling: getBoolEnv("ENABLE_PROFILING", false),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be an absolute URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.RetryCount < 0 {
		return fmt.Errorf("BACKEND_RETRY_COUNT must not be negative")
	}
	if c.Designer.PixelsPerFoot <= 0 {
		return fmt.Errorf("DESIGNER_PIXELS_PER_FOOT must be positive")
	}
	if c.Designer.GridSize <= 0 {
		return fmt.Errorf("DESIGNER_GRID_SIZE must be positive")
	}
	if c.Designer.DragThreshold < 0 {
		return fmt.Errorf("DESIGNER_DRAG_THRESHOLD must not be negative")
	}
	for _, p := range c.RateLimit.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", p)
			}
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

// Addr returns the host:port the server listens on
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// IsDebug returns true if debug logging is enabled
func (c *LoggingConfig) IsDebug() bool {
	return strings.EqualFold(c.Level, "debug")
}

// Helper functions for environment variable access

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: invalid number value for %s: %s, using default: %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean value for %s: %s, using default: %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return duration
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
