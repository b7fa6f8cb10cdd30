package metrics

import "github.com/kilianp07/evroute/core/factory"

// Config selects the sinks and the sampling cadence.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// SampleEvery is the number of frames between two samples.
	SampleEvery int `json:"sample_every" yaml:"sample_every"`
	// PrometheusAddr serves /metrics when non-empty, e.g. ":9090".
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
	// GridFactor is the grid carbon intensity in gCO2/kWh.
	GridFactor float64 `json:"grid_factor" yaml:"grid_factor"`
	// ICEFactor is the tailpipe emission of a comparable combustion car in gCO2/km.
	ICEFactor float64 `json:"ice_factor" yaml:"ice_factor"`
	// EcoDB is the SQLite file holding daily eco records; empty keeps them
	// in memory.
	EcoDB string `json:"eco_db" yaml:"eco_db"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.SampleEvery <= 0 {
		c.SampleEvery = 30
	}
	if c.GridFactor == 0 {
		c.GridFactor = 56
	}
	if c.ICEFactor == 0 {
		c.ICEFactor = 120
	}
}
