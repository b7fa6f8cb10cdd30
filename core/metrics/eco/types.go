// Package eco aggregates per-vehicle daily driving totals and derives
// efficiency and emission KPIs from them.
package eco

import "time"

// Record aggregates the trips of a vehicle over one day.
type Record struct {
	Vehicle    string    `json:"vehicle"`
	Date       time.Time `json:"date"`
	Trips      int       `json:"trips"`
	DistanceKm float64   `json:"distance_km"`
	EnergyKWh  float64   `json:"energy_kwh"`
}

// Efficiency returns the consumption in kWh per 100 km, 0 without distance.
func (r Record) Efficiency() float64 {
	if r.DistanceKm == 0 {
		return 0
	}
	return r.EnergyKWh / r.DistanceKm * 100
}

// CO2Emitted returns the grams of CO2 attributable to charging the energy
// used, for a grid intensity in g/kWh.
func (r Record) CO2Emitted(gridFactor float64) float64 {
	return r.EnergyKWh * gridFactor
}

// CO2Avoided returns the grams saved compared to a combustion car emitting
// iceFactor g/km over the same distance. It can be negative.
func (r Record) CO2Avoided(iceFactor, gridFactor float64) float64 {
	return r.DistanceKm*iceFactor - r.CO2Emitted(gridFactor)
}
