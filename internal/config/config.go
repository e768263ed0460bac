// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration. It is constructed once
// at the process boundary and passed in; core packages never read the
// environment themselves.
type Config struct {
	Remote       bool   // serve on the fixed well-known port for tunneled access
	Port         int    // remote-mode port; 0 means the default
	PlanDir      string // plan storage directory; "" means the default
	ShareBaseURL string // base URL for remote share links; "" means the default
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Remote:       getEnvBool("PLANNOTATOR_REMOTE", false),
		Port:         getEnvInt("PLANNOTATOR_PORT", 0),
		PlanDir:      getEnv("PLANNOTATOR_PLAN_DIR", ""),
		ShareBaseURL: getEnv("PLANNOTATOR_SHARE_BASE_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all configuration fields are in range.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("PLANNOTATOR_PORT must be between 0 and 65535, got %d", c.Port)
	}
	if c.ShareBaseURL != "" && !strings.Contains(c.ShareBaseURL, "://") {
		return fmt.Errorf("PLANNOTATOR_SHARE_BASE_URL must be an absolute URL")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
