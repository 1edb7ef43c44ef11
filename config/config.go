package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/orplan/core/colgen"
	"github.com/kilianp07/orplan/core/factory"
	"github.com/kilianp07/orplan/core/history"
	"github.com/kilianp07/orplan/core/metrics"
	"github.com/kilianp07/orplan/infra/mqtt"
)

type Config struct {
	Optimizer colgen.Config        `json:"optimizer"`
	Solver    factory.ModuleConfig `json:"solver"`
	Input     InputConfig          `json:"input"`
	Metrics   metrics.Config       `json:"metrics"`
	History   history.Config       `json:"history"`
	MQTT      mqtt.Config          `json:"mqtt"`
	Server    ServerConfig         `json:"server"`
}

// Load reads the configuration file at path, applies K_ prefixed
// environment overrides (K_OPTIMIZER__MAX_ITERATIONS=50) and validates every
// section. An empty path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "K_"))
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without a file.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Optimizer.SetDefaults()
	if c.Solver.Type == "" {
		c.Solver.Type = "simplex"
	}
	c.History.SetDefaults()
	c.MQTT.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	if err := c.Input.Validate(); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
