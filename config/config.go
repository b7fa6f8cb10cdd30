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

	"github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/core/triplog"
	"github.com/kilianp07/evroute/infra/mqtt"
)

type Config struct {
	Network    NetworkConfig    `json:"network"`
	Vehicles   VehiclesConfig   `json:"vehicles"`
	Simulation SimulationConfig `json:"simulation"`
	Dashboard  DashboardConfig  `json:"dashboard"`
	Metrics    metrics.Config   `json:"metrics"`
	MQTT       mqtt.Config      `json:"mqtt"`
	TripLog    triplog.Config   `json:"trip_log"`
	API        APIConfig        `json:"api"`
	Log        LogConfig        `json:"log"`
	Sentry     SentryConfig     `json:"sentry"`
}

// Load reads the file at path and applies K_ environment overrides, e.g.
// K_SIMULATION__SPEED_FACTOR=10. An empty path loads the defaults.
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
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
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

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Network.SetDefaults()
	c.Vehicles.SetDefaults()
	c.Simulation.SetDefaults()
	c.Dashboard.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.TripLog.SetDefaults()
	c.API.SetDefaults()
	c.Log.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section and the references between them.
func (c Config) Validate() error {
	net, err := c.Network.Build()
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	if err := c.Vehicles.Validate(); err != nil {
		return fmt.Errorf("vehicles: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	for _, name := range []string{c.Simulation.Start, c.Simulation.End} {
		if name != "" && !net.Has(name) {
			return fmt.Errorf("simulation: unknown location %q", name)
		}
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.TripLog.Validate(); err != nil {
		return fmt.Errorf("trip_log: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
