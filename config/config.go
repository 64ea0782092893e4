// Package config loads and validates the service configuration from the
// environment
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment stage the service runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment accepts the short names and their long forms
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", value)
}

// Config holds all application configuration
type Config struct {
	Port               string
	Address            string
	Env                Environment
	LogLevel           string
	LogDir             string
	LogRetentionWeeks  int   // Number of weeks to keep log files
	MaxLogFileSize     int64 // Maximum log file size in bytes
	MaxRequestBody     int64 // Maximum request body size in bytes
	MaxHeaderSize      int64 // Maximum header size in bytes
	CatalogDir         string
	CatalogURL         string // Optional, catalog TSVs are downloaded from here before each reload
	CatalogReloadTimes string // gocron At() expression, e.g. "06:00;18:00"
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:               getEnvWithDefault("PORT", "8000"),
		Address:            getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:                env,
		LogLevel:           strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:             getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks:  getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:     getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:     getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:      getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		CatalogDir:         getEnvWithDefault("CATALOG_DIR", "files"),
		CatalogURL:         strings.TrimRight(os.Getenv("CATALOG_URL"), "/"),
		CatalogReloadTimes: getEnvWithDefault("CATALOG_RELOAD_TIMES", "06:00;18:00"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if cfg.CatalogDir == "" {
		return fmt.Errorf("invalid CATALOG_DIR: cannot be empty")
	}

	if err := validateCatalogURL(cfg.CatalogURL); err != nil {
		return fmt.Errorf("invalid CATALOG_URL: %w", err)
	}

	if err := validateReloadTimes(cfg.CatalogReloadTimes); err != nil {
		return fmt.Errorf("invalid CATALOG_RELOAD_TIMES: %w", err)
	}

	return nil
}

func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress only accepts loopback and private network addresses
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

func validateLogLevel(logLevel string) error {
	switch logLevel {
	case "debug", "info", "warn", "error":
		return nil
	case "":
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}
	return fmt.Errorf("LOG_LEVEL must be one of: [debug info warn error], got: %s", logLevel)
}

func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateCatalogURL accepts an empty value (local catalog only) or an
// absolute http(s) URL
func validateCatalogURL(raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("CATALOG_URL is not a valid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("CATALOG_URL must use http or https, got: %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("CATALOG_URL must include a host")
	}

	return nil
}

// validateReloadTimes checks every entry of a ';' separated HH:MM list
func validateReloadTimes(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("CATALOG_RELOAD_TIMES cannot be empty")
	}

	for _, part := range strings.Split(expr, ";") {
		if _, err := time.Parse("15:04", strings.TrimSpace(part)); err != nil {
			return fmt.Errorf("CATALOG_RELOAD_TIMES entry %q is not HH:MM", part)
		}
	}

	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"CATALOG_DIR",
		"CATALOG_URL",
		"CATALOG_RELOAD_TIMES",
	}
}
