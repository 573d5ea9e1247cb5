package config

// Config represents the complete configuration structure
type Config struct {
	Market   MarketConfig   `mapstructure:"market"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Download DownloadConfig `mapstructure:"download"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// MarketConfig holds App Market API connection details
type MarketConfig struct {
	URL       string `mapstructure:"url"`
	Timeout   int    `mapstructure:"timeout"`
	UserAgent string `mapstructure:"user_agent"`
	Language  string `mapstructure:"language"`
}

// AuthConfig holds stored market credentials. Token takes precedence over
// name/password when both are present.
type AuthConfig struct {
	Token    string `mapstructure:"token"`
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// DownloadConfig controls where and how publications are fetched
type DownloadConfig struct {
	Dir         string `mapstructure:"dir"`
	Concurrency int    `mapstructure:"concurrency"`
}

// FilterConfig contains named filter expressions usable with --filter
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
