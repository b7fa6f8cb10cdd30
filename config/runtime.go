package config

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// SimulationConfig tunes the controller and the frame driver.
type SimulationConfig struct {
	// SpeedFactor multiplies real time, 5 by default.
	SpeedFactor float64 `json:"speed_factor"`
	// Start and End preselect the route; empty means the first two locations.
	Start string `json:"start"`
	End   string `json:"end"`
	// FrameRate is the number of ticks per real second.
	FrameRate int `json:"frame_rate"`
	// AutoStart launches a run as soon as the service starts.
	AutoStart bool `json:"auto_start"`
}

// SetDefaults fills unset fields.
func (c *SimulationConfig) SetDefaults() {
	if c.SpeedFactor == 0 {
		c.SpeedFactor = 5
	}
	if c.FrameRate <= 0 {
		c.FrameRate = 60
	}
}

// Validate checks the numeric fields.
func (c SimulationConfig) Validate() error {
	if c.SpeedFactor <= 0 || math.IsNaN(c.SpeedFactor) || math.IsInf(c.SpeedFactor, 0) {
		return fmt.Errorf("speed_factor must be a positive number")
	}
	if c.FrameRate > 1000 {
		return fmt.Errorf("frame_rate %d is above 1000", c.FrameRate)
	}
	if c.Start != "" && c.Start == c.End {
		return fmt.Errorf("start and end must differ")
	}
	return nil
}

// DashboardConfig sizes the in-memory dashboard history.
type DashboardConfig struct {
	TimelineLimit int `json:"timeline_limit"`
}

// SetDefaults fills unset fields.
func (c *DashboardConfig) SetDefaults() {
	if c.TimelineLimit <= 0 {
		c.TimelineLimit = 600
	}
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	// Token, when set, must be sent as a bearer token on commands.
	Token string `json:"token"`
}

// SetDefaults fills unset fields.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// LogConfig sets the global log level.
type LogConfig struct {
	Level string `json:"level"`
}

// SetDefaults fills unset fields.
func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}
