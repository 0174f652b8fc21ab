package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Ask     AskConfig     `mapstructure:"ask"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds Pi API connection details
type APIConfig struct {
	Key      string        `mapstructure:"key"`
	BaseURL  string        `mapstructure:"base_url"`
	PageSize int           `mapstructure:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AskConfig holds the defaults of the ask command
type AskConfig struct {
	Datasource      string        `mapstructure:"datasource"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
