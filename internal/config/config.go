package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Bot      BotConfig      `json:"bot"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Engine   EngineConfig   `json:"engine"`
}

type BotConfig struct {
	Token string `json:"token"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Output string `json:"output"`
}

type EngineConfig struct {
	// CooldownSweepSeconds is the interval between expired-cooldown purges.
	CooldownSweepSeconds int `json:"cooldown_sweep_seconds"`
	// ActionTimeoutSeconds bounds every Discord REST call made by an action.
	ActionTimeoutSeconds int `json:"action_timeout_seconds"`
	// WebhookTimeoutSeconds bounds every outbound webhook call.
	WebhookTimeoutSeconds int `json:"webhook_timeout_seconds"`
	// WebhookRatePerSecond caps outbound webhook calls across all firings.
	WebhookRatePerSecond float64 `json:"webhook_rate_per_second"`
}

// envOverrides mirrors the settings that may come from the environment.
type envOverrides struct {
	Token        string `env:"DISCORD_TOKEN"`
	DatabasePath string `env:"DATABASE_PATH"`
	LogLevel     string `env:"LOG_LEVEL"`
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault falls back to defaults (plus env overrides) when the config
// file is missing or unreadable.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = DefaultConfig()
		_ = applyEnv(cfg)
	}
	return cfg
}

func applyEnv(cfg *Config) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return err
	}
	if overrides.Token != "" {
		cfg.Bot.Token = overrides.Token
	}
	if overrides.DatabasePath != "" {
		cfg.Database.Path = overrides.DatabasePath
	}
	if overrides.LogLevel != "" {
		cfg.Logging.Level = overrides.LogLevel
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "workflows.db"},
		Logging:  LoggingConfig{Level: "info", Output: "stdout"},
		Engine: EngineConfig{
			CooldownSweepSeconds:  60,
			ActionTimeoutSeconds:  10,
			WebhookTimeoutSeconds: 10,
			WebhookRatePerSecond:  5,
		},
	}
}

func (e EngineConfig) CooldownSweepInterval() time.Duration {
	return time.Duration(e.CooldownSweepSeconds) * time.Second
}

func (e EngineConfig) ActionTimeout() time.Duration {
	return time.Duration(e.ActionTimeoutSeconds) * time.Second
}

func (e EngineConfig) WebhookTimeout() time.Duration {
	return time.Duration(e.WebhookTimeoutSeconds) * time.Second
}
