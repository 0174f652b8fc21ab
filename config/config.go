package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load loads the configuration from file and environment. Without an
// explicit path a missing config file is not an error: every setting can
// come from PI_* environment variables instead.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".pi"))
		}

		v.AddConfigPath("/etc/pi/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults; an empty base URL lets the client pick its own
	v.SetDefault("api.key", "")
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.page_size", 100)
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("ask.datasource", "")
	v.SetDefault("ask.refresh_interval", "500ms")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// envBindings maps config keys to the environment variables overriding them
var envBindings = map[string]string{
	"api.key":       "PI_API_KEY",
	"api.base_url":  "PI_BASE_URL",
	"api.page_size": "PI_PAGE_SIZE",
	"logging.level": "PI_LOG_LEVEL",
}

func bindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be positive, got %d", cfg.API.PageSize)
	}

	if cfg.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	if cfg.Ask.RefreshInterval < 0 {
		return fmt.Errorf("ask.refresh_interval must not be negative")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
