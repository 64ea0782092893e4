package config

import (
	"strings"
	"testing"
)

// setEnv clears every known variable, then applies the overrides
func setEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}
}

func TestLoadValidConfig(t *testing.T) {
	setEnv(t, map[string]string{
		"PORT":                 "8002",
		"ADDRESS":              "127.0.0.1",
		"ENV":                  "prod",
		"LOG_LEVEL":            "WARN",
		"CATALOG_DIR":          "/srv/catalog",
		"CATALOG_URL":          "https://minsa.example.org/catalog/",
		"CATALOG_RELOAD_TIMES": "05:30;17:30",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Expected env prod, got %s", cfg.Env)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level to be lowercased, got %s", cfg.LogLevel)
	}
	if cfg.CatalogDir != "/srv/catalog" {
		t.Errorf("Expected catalog dir /srv/catalog, got %s", cfg.CatalogDir)
	}
	if cfg.CatalogURL != "https://minsa.example.org/catalog" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", cfg.CatalogURL)
	}
	if cfg.CatalogReloadTimes != "05:30;17:30" {
		t.Errorf("Expected reload times 05:30;17:30, got %s", cfg.CatalogReloadTimes)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected default env dev, got %s", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.LogDir != "logs" {
		t.Errorf("Expected default log dir logs, got %s", cfg.LogDir)
	}
	if cfg.CatalogDir != "files" {
		t.Errorf("Expected default catalog dir files, got %s", cfg.CatalogDir)
	}
	if cfg.CatalogURL != "" {
		t.Errorf("Expected no catalog URL by default, got %s", cfg.CatalogURL)
	}
	if cfg.CatalogReloadTimes != "06:00;18:00" {
		t.Errorf("Expected default reload times, got %s", cfg.CatalogReloadTimes)
	}
	if cfg.LogRetentionWeeks != 4 {
		t.Errorf("Expected 4 weeks retention, got %d", cfg.LogRetentionWeeks)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"port not a number", "PORT", "abc", "PORT must be a valid number"},
		{"port zero", "PORT", "0", "PORT must be between 1 and 65535"},
		{"port too high", "PORT", "65536", "PORT must be between 1 and 65535"},
		{"privileged port", "PORT", "80", "PORT 80 is privileged"},
		{"invalid address", "ADDRESS", "invalid", "ADDRESS must be a valid IP address"},
		{"public address", "ADDRESS", "8.8.8.8", "is a public IP"},
		{"invalid env", "ENV", "invalid", "ENV must be one of"},
		{"invalid log level", "LOG_LEVEL", "verbose", "LOG_LEVEL must be one of"},
		{"negative body size", "MAX_REQUEST_BODY", "-1", "MAX_REQUEST_BODY must be positive"},
		{"huge header size", "MAX_HEADER_SIZE", "209715200", "MAX_HEADER_SIZE is too large"},
		{"retention too long", "LOG_RETENTION_WEEKS", "60", "LOG_RETENTION_WEEKS is too large"},
		{"log file too small", "MAX_LOG_FILE_SIZE", "1024", "MAX_LOG_FILE_SIZE is too small"},
		{"catalog url scheme", "CATALOG_URL", "ftp://example.org/catalog", "must use http or https"},
		{"catalog url without host", "CATALOG_URL", "https://", "must include a host"},
		{"reload time format", "CATALOG_RELOAD_TIMES", "6am;18:00", "is not HH:MM"},
		{"reload time out of range", "CATALOG_RELOAD_TIMES", "06:00;25:00", "is not HH:MM"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setEnv(t, map[string]string{tc.key: tc.value})

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s, got nil", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestLoadAcceptsPrivateAddresses(t *testing.T) {
	for _, address := range []string{"localhost", "::1", "10.0.0.5", "192.168.1.20"} {
		t.Run(address, func(t *testing.T) {
			setEnv(t, map[string]string{"ADDRESS": address})

			if _, err := Load(); err != nil {
				t.Errorf("Expected %s to be accepted, got %v", address, err)
			}
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		input    string
		expected Environment
		hasError bool
	}{
		{"dev", EnvDevelopment, false},
		{"development", EnvDevelopment, false},
		{"staging", EnvStaging, false},
		{"prod", EnvProduction, false},
		{"Production", EnvProduction, false},
		{"test", EnvTest, false},
		{"invalid", EnvDevelopment, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			env, err := ParseEnvironment(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for %s, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.input, err)
			}
			if env != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, env)
			}
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	tests := []struct {
		env      Environment
		expected string
	}{
		{EnvDevelopment, "dev"},
		{EnvStaging, "staging"},
		{EnvProduction, "prod"},
		{EnvTest, "test"},
	}

	for _, tt := range tests {
		if got := tt.env.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}
