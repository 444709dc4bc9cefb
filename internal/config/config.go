package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds device settings. Endpoints and tunables live in
// ~/.hrms-mobile/config.yaml; secrets come from the environment only and are
// never written to disk.
type Config struct {
	UtilityAPIURL    string `yaml:"utility_api_url" validate:"required,url"`
	LMSAPIURL        string `yaml:"lms_api_url" validate:"required,url"`
	LocationEndpoint string `yaml:"location_endpoint" validate:"omitempty,url"`

	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds" validate:"min=1"`

	LocationMaxAgeSeconds   int `yaml:"location_max_age_seconds" validate:"min=1"`
	LocationWaitRetries     int `yaml:"location_wait_retries" validate:"min=1"`
	LocationWaitDelayMillis int `yaml:"location_wait_delay_millis" validate:"min=1"`

	StorePath string `yaml:"store_path" validate:"required"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Env-only secrets
	HRMSSecret   string `yaml:"-" validate:"required"`
	SignInSecret string `yaml:"-"`
	SignInIV     string `yaml:"-"`
}

// The utility API shared secret ships with the client; the env var exists so
// staging backends can be targeted without a rebuild.
const defaultHRMSSecret = "MEEPL_BEARER_TOKEN_OAUTH_HRMS_UTILITY_API_SECRET"

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	storePath := "hrms-mobile.db"
	if home != "" {
		storePath = filepath.Join(home, ".hrms-mobile", "hrms-mobile.db")
	}

	return &Config{
		UtilityAPIURL:           getEnv("HRMS_UTILITY_API_URL", ""),
		LMSAPIURL:               getEnv("HRMS_LMS_API_URL", ""),
		LocationEndpoint:        getEnv("HRMS_LOCATION_ENDPOINT", ""),
		HTTPTimeoutSeconds:      30,
		LocationMaxAgeSeconds:   120,
		LocationWaitRetries:     6,
		LocationWaitDelayMillis: 1000,
		StorePath:               storePath,
		LogLevel:                getEnv("HRMS_LOG_LEVEL", "info"),
		HRMSSecret:              getEnv("HRMS_UTILITY_API_SECRET", defaultHRMSSecret),
		SignInSecret:            os.Getenv("SIGN_IN_SECRET"),
		SignInIV:                os.Getenv("SIGN_IN_INITIAL_VECTOR"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load reads ~/.hrms-mobile/config.yaml over the defaults. Env vars win over
// the file for the endpoint URLs so one device can be repointed per shell.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(home, ".hrms-mobile", "config.yaml")

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		// env overrides stay authoritative
		if v := os.Getenv("HRMS_UTILITY_API_URL"); v != "" {
			cfg.UtilityAPIURL = v
		}
		if v := os.Getenv("HRMS_LMS_API_URL"); v != "" {
			cfg.LMSAPIURL = v
		}
		if v := os.Getenv("HRMS_LOCATION_ENDPOINT"); v != "" {
			cfg.LocationEndpoint = v
		}
	}

	return cfg, nil
}

// Validate rejects an unusable configuration before any dependency is built.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the non-secret part of the config back to the device.
func (c *Config) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".hrms-mobile")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0600)
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) LocationMaxAge() time.Duration {
	return time.Duration(c.LocationMaxAgeSeconds) * time.Second
}

func (c *Config) LocationWaitDelay() time.Duration {
	return time.Duration(c.LocationWaitDelayMillis) * time.Millisecond
}
