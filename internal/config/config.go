package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all Upkeep configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Presets PresetsConfig `mapstructure:"presets"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
	Key  string `mapstructure:"key"`
}

// EngineConfig defines alert engine timing.
type EngineConfig struct {
	CriticalThreshold string `mapstructure:"critical_threshold"`
	AlertInterval     string `mapstructure:"alert_interval"`
	DisplayInterval   string `mapstructure:"display_interval"`
}

// EngineDurations are the parsed engine timings.
type EngineDurations struct {
	CriticalThreshold time.Duration
	AlertInterval     time.Duration
	DisplayInterval   time.Duration
}

// Durations parses the engine timings. Missing, invalid or non-positive
// values fall back to the defaults.
func (e EngineConfig) Durations() EngineDurations {
	return EngineDurations{
		CriticalThreshold: ParseDuration(e.CriticalThreshold, 2*time.Hour),
		AlertInterval:     ParseDuration(e.AlertInterval, 10*time.Second),
		DisplayInterval:   ParseDuration(e.DisplayInterval, time.Second),
	}
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Desktop DesktopConfig `mapstructure:"desktop"`
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// DesktopConfig defines OS notification settings.
type DesktopConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// PresetsConfig defines where default stock values come from.
type PresetsConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig defines the local HTTP API.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ParseDuration parses s, returning fallback when s is empty, invalid or
// not positive.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".upkeep"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".upkeep", "upkeep.db"))
	v.SetDefault("storage.key", "containers-v2")
	v.SetDefault("engine.critical_threshold", "2h")
	v.SetDefault("engine.alert_interval", "10s")
	v.SetDefault("engine.display_interval", "1s")
	v.SetDefault("alerts.desktop.enabled", true)
	v.SetDefault("alerts.slack.enabled", false)
	v.SetDefault("alerts.slack.channel", "#upkeep")
	v.SetDefault("alerts.webhook.enabled", false)
	v.SetDefault("presets.path", "")
	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("UPKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
