// Package config loads the engine configuration from file and
// environment variables.
package config

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// Config holds all configuration for the Black-Cross detection engine.
type Config struct {
	Engine struct {
		Workers            int `mapstructure:"workers"`
		QueueSize          int `mapstructure:"queue_size"`
		Shards             int `mapstructure:"shards"`
		ShardQueueSize     int `mapstructure:"shard_queue_size"`
		MaxWindowKeys      int `mapstructure:"max_window_keys"`
		RegexTimeoutMs     int `mapstructure:"regex_timeout_ms"`
		EmitTimeoutSeconds int `mapstructure:"emit_timeout_seconds"`
	} `mapstructure:"engine"`

	Rules struct {
		// File is an optional JSON/YAML rule file loaded at startup. The
		// rule-management collaborator replaces the rule set over the API
		// at runtime.
		File string `mapstructure:"file"`
	} `mapstructure:"rules"`

	API struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"api"`

	AlertSink struct {
		// Type selects the trigger sink: "webhook" posts trigger records
		// to the alert collaborator, "log" writes them to the engine log.
		Type           string            `mapstructure:"type"`
		WebhookURL     string            `mapstructure:"webhook_url"`
		WebhookMethod  string            `mapstructure:"webhook_method"`
		WebhookHeaders map[string]string `mapstructure:"webhook_headers"`
		TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	} `mapstructure:"alert_sink"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

func setDefaults() {
	viper.SetDefault("engine.workers", 4)
	viper.SetDefault("engine.queue_size", 1000)
	viper.SetDefault("engine.shards", 8)
	viper.SetDefault("engine.shard_queue_size", 256)
	viper.SetDefault("engine.max_window_keys", 10000)
	viper.SetDefault("engine.regex_timeout_ms", 500)
	viper.SetDefault("engine.emit_timeout_seconds", 30)

	viper.SetDefault("rules.file", "")

	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8081)

	viper.SetDefault("alert_sink.type", "log")
	viper.SetDefault("alert_sink.webhook_method", "POST")
	viper.SetDefault("alert_sink.timeout_seconds", 10)

	viper.SetDefault("logging.level", "info")
}

func loadFromEnv() {
	viper.SetEnvPrefix("BLACKCROSS")
	viper.AutomaticEnv()

	_ = viper.BindEnv("rules.file", "BLACKCROSS_RULES_FILE")
	_ = viper.BindEnv("api.port", "BLACKCROSS_API_PORT")
	_ = viper.BindEnv("alert_sink.webhook_url", "BLACKCROSS_ALERT_WEBHOOK_URL")
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be >= 1, got %d", c.Engine.Workers)
	}
	if c.Engine.Shards < 1 {
		return fmt.Errorf("engine.shards must be >= 1, got %d", c.Engine.Shards)
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be in 1..65535, got %d", c.API.Port)
	}
	switch c.AlertSink.Type {
	case "log":
	case "webhook":
		if c.AlertSink.WebhookURL == "" {
			return fmt.Errorf("alert_sink.webhook_url is required for webhook sink")
		}
		u, err := url.Parse(c.AlertSink.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("alert_sink.webhook_url must be a valid http(s) URL")
		}
	default:
		return fmt.Errorf("unknown alert_sink.type %q (must be \"log\" or \"webhook\")", c.AlertSink.Type)
	}
	return nil
}

// LoadConfig loads configuration from config.yaml (working directory or
// ./config) and BLACKCROSS_* environment variables, falling back to
// defaults.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	loadFromEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, will use defaults and env vars.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}
