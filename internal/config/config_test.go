package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.Server.Port != "8090" {
		t.Errorf("Expected default port 8090, got %s", config.Server.Port)
	}
	if config.Backend.RetryCount != 3 {
		t.Errorf("Expected default retry count 3, got %d", config.Backend.RetryCount)
	}
	if config.Designer.PixelsPerFoot != 10 {
		t.Errorf("Expected 10 pixels per foot, got %v", config.Designer.PixelsPerFoot)
	}
	if config.Designer.GridSize != 1 {
		t.Errorf("Expected 1 ft grid, got %v", config.Designer.GridSize)
	}
	if config.Designer.DragThreshold != 5 {
		t.Errorf("Expected 5 px drag threshold, got %v", config.Designer.DragThreshold)
	}
	if config.Designer.MinorGridMaxFeet != 200 || config.Designer.SuperMajorMinFeet != 100 {
		t.Errorf("Unexpected grid limits: %+v", config.Designer)
	}
	if config.Logging.Profiling {
		t.Error("Expected profiling to be off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("BACKEND_BASE_URL", "http://backend.internal:8000")
	t.Setenv("BACKEND_TIMEOUT", "2s")
	t.Setenv("DESIGNER_PIXELS_PER_FOOT", "12.5")
	t.Setenv("DESIGNER_RULES_PATH", "/etc/layout/rules.json")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("ENABLE_PROFILING", "true")
	t.Setenv("BACKEND_RETRY_COUNT", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.Server.Addr() != "0.0.0.0:9999" {
		t.Errorf("Unexpected addr %s", config.Server.Addr())
	}
	if config.Backend.BaseURL != "http://backend.internal:8000" {
		t.Errorf("Unexpected backend URL %s", config.Backend.BaseURL)
	}
	if config.Backend.Timeout != 2*time.Second {
		t.Errorf("Expected 2s timeout, got %v", config.Backend.Timeout)
	}
	if config.Backend.RetryCount != 3 {
		t.Errorf("Expected invalid retry count to fall back to 3, got %d", config.Backend.RetryCount)
	}
	if config.Designer.PixelsPerFoot != 12.5 {
		t.Errorf("Expected 12.5 pixels per foot, got %v", config.Designer.PixelsPerFoot)
	}
	if config.Designer.RulesPath != "/etc/layout/rules.json" {
		t.Errorf("Unexpected rules path %s", config.Designer.RulesPath)
	}
	if len(config.Server.AllowedOrigins) != 2 || config.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", config.Server.AllowedOrigins)
	}
	if !config.Logging.Profiling {
		t.Error("Expected profiling to be enabled")
	}
	if len(config.RateLimit.TrustedProxies) != 2 || config.RateLimit.TrustedProxies[1] != "172.16.0.0/12" {
		t.Errorf("Unexpected trusted proxies %v", config.RateLimit.TrustedProxies)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("DESIGNER_GRID_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Error("Expected error for zero grid size")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend:  BackendConfig{BaseURL: "http://127.0.0.1:8000", RetryCount: 1},
			Designer: DesignerConfig{PixelsPerFoot: 10, GridSize: 1, DragThreshold: 5},
			Logging:  LoggingConfig{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing backend URL", func(c *Config) { c.Backend.BaseURL = "" }, true},
		{"relative backend URL", func(c *Config) { c.Backend.BaseURL = "/api" }, true},
		{"negative retries", func(c *Config) { c.Backend.RetryCount = -1 }, true},
		{"zero scale", func(c *Config) { c.Designer.PixelsPerFoot = 0 }, true},
		{"negative threshold", func(c *Config) { c.Designer.DragThreshold = -1 }, true},
		{"zero threshold", func(c *Config) { c.Designer.DragThreshold = 0 }, false},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"debug log level", func(c *Config) { c.Logging.Level = "DEBUG" }, false},
		{"trusted proxy IP and CIDR", func(c *Config) { c.RateLimit.TrustedProxies = []string{"10.0.0.1", "fd00::/8"} }, false},
		{"malformed trusted proxy", func(c *Config) { c.RateLimit.TrustedProxies = []string{"proxy.local"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	server := &ServerConfig{Environment: "production"}
	if !server.IsProduction() || server.IsDevelopment() {
		t.Error("Expected production environment")
	}

	logging := &LoggingConfig{Level: "Debug"}
	if !logging.IsDebug() {
		t.Error("Expected debug logging")
	}
}
