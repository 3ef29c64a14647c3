// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider name constants, used by the provider factory. Defined here to avoid
// magic strings at call sites.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Provider   ProviderConfig   `mapstructure:"provider" yaml:"provider"`
	Summarizer SummarizerConfig `mapstructure:"summarizer" yaml:"summarizer"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`

	// File output with rotation (lumberjack). Empty LogFile disables it.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ProviderConfig defines the LLM completion provider to drive.
type ProviderConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// APITimeout is the connection-level timeout for one provider call. It is
	// independent of the retry schedule.
	APITimeout time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
}

// SummarizerConfig holds the retry schedule and outbound pacing knobs. Values
// left at zero are replaced by the summarizer's defaults at construction.
type SummarizerConfig struct {
	MaxRetries         int           `mapstructure:"max_retries" yaml:"max_retries"`
	BaseDelay          time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	MaxDelay           time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	BackoffMultiplier  float64       `mapstructure:"backoff_multiplier" yaml:"backoff_multiplier"`
	MinRequestInterval time.Duration `mapstructure:"min_request_interval" yaml:"min_request_interval"`
}

// DatabaseConfig configures the optional summary history store.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
}

// SetDefaults registers the default value for every key on the given viper
// instance. Called before reading config files or the environment so that
// partial configs merge over a complete baseline.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "carebrief")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("provider.name", ProviderAnthropic)
	v.SetDefault("provider.model", "claude-sonnet-4-20250514")
	v.SetDefault("provider.api_timeout", 60*time.Second)

	v.SetDefault("summarizer.max_retries", 3)
	v.SetDefault("summarizer.base_delay", time.Second)
	v.SetDefault("summarizer.max_delay", 10*time.Second)
	v.SetDefault("summarizer.backoff_multiplier", 2.0)
	v.SetDefault("summarizer.min_request_interval", 100*time.Millisecond)

	v.SetDefault("database.enabled", false)
}

// Load reads configuration from the optional file path, the environment
// (CAREBRIEF_ prefix) and defaults, in ascending precedence of file < env.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("carebrief")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CAREBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env carry the day.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the rest of the application cannot act on.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q: supported providers are [%s, %s]",
			c.Provider.Name, ProviderAnthropic, ProviderGemini)
	}
	if c.Summarizer.MaxRetries < 0 {
		return fmt.Errorf("summarizer.max_retries must not be negative")
	}
	if c.Summarizer.BackoffMultiplier < 0 {
		return fmt.Errorf("summarizer.backoff_multiplier must not be negative")
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when database.enabled is true")
	}
	return nil
}
