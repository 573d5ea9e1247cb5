package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load loads the configuration from file. A missing config file is not an
// error; every setting has a usable default.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".marketctl"))
		}

		// Check /etc
		v.AddConfigPath("/etc/marketctl/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		if configPath != "" {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Market defaults
	v.SetDefault("market.url", "http://mineos.buttex.ru/MineOSAPI/2.04/")
	v.SetDefault("market.timeout", 30)
	v.SetDefault("market.user_agent", "marketctl")
	v.SetDefault("market.language", "english")

	// Download defaults
	v.SetDefault("download.dir", "mineos")
	v.SetDefault("download.concurrency", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Market.URL == "" {
		return fmt.Errorf("market.url is required")
	}

	if cfg.Market.Timeout <= 0 {
		return fmt.Errorf("market.timeout must be positive, got %d", cfg.Market.Timeout)
	}

	validLanguages := map[string]bool{
		"english": true,
		"russian": true,
	}
	if !validLanguages[cfg.Market.Language] {
		return fmt.Errorf("invalid market.language: %s (must be 'english' or 'russian')", cfg.Market.Language)
	}

	if cfg.Download.Concurrency < 1 {
		return fmt.Errorf("download.concurrency must be at least 1, got %d", cfg.Download.Concurrency)
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
