// Package config loads the governance configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/governance/riskcalc"
)

// Config is the complete governance configuration.
type Config struct {
	DBPath      string              `json:"db_path" yaml:"db_path"`
	MetricsAddr string              `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
	Logging     LoggingConfig       `json:"logging" yaml:"logging"`
	Risk        riskcalc.Thresholds `json:"risk" yaml:"risk"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json or console
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration to a file (format by extension).
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	if c.Risk.Top1Pct <= 0 || c.Risk.Top3Pct <= 0 {
		return fmt.Errorf("risk concentration thresholds must be positive")
	}
	if c.Risk.MaxDrawdownPct >= 0 {
		return fmt.Errorf("risk.max_drawdown_pct must be negative")
	}
	if c.Risk.VolPct <= 0 || c.Risk.VaR95Pct <= 0 {
		return fmt.Errorf("risk vol and var95 thresholds must be positive")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		DBPath: "./governance.sqlite",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Risk: riskcalc.DefaultThresholds(),
	}
}
