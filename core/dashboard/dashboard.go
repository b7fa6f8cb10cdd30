// Package dashboard derives fleet-wide statistics from vehicle states.
// Everything here is pure: callers pass snapshots and get values back.
package dashboard

import (
	"math"

	"github.com/kilianp07/evroute/core/model"
)

const msToKmh = 3.6

// Metrics are the raw aggregates in base units.
type Metrics struct {
	Vehicles       int     `json:"vehicles"`
	AvgSpeed       float64 `json:"avg_speed"`        // m/s
	TotalDistance  float64 `json:"total_distance"`   // m
	TotalEnergy    float64 `json:"total_energy"`     // kWh
	MaxElapsedTime float64 `json:"max_elapsed_time"` // s
}

// AvgSpeedKmh returns the average speed in km/h.
func (m Metrics) AvgSpeedKmh() float64 { return m.AvgSpeed * msToKmh }

// TotalDistanceKm returns the fleet distance in km.
func (m Metrics) TotalDistanceKm() float64 { return m.TotalDistance / 1000 }

// Summarize aggregates states. An empty slice yields zero metrics.
func Summarize(states []model.VehicleState) Metrics {
	m := Metrics{Vehicles: len(states)}
	if len(states) == 0 {
		return m
	}
	var speed float64
	for _, s := range states {
		speed += s.CurrentSpeed
		m.TotalDistance += s.DistanceDriven
		m.TotalEnergy += s.EnergyUsed
		m.MaxElapsedTime = math.Max(m.MaxElapsedTime, s.ElapsedTime)
	}
	m.AvgSpeed = speed / float64(len(states))
	return m
}

// Reading pairs a vehicle state with its battery capacity.
type Reading struct {
	State      model.VehicleState
	BatteryKWh float64
}

// Report is what the dashboard displays.
type Report struct {
	Metrics
	BatteryPercent float64 `json:"battery_percent"`
	EcoScore       float64 `json:"eco_score"`
}

// BuildReport summarises readings and adds the battery and eco gauges.
// With no vehicles the battery reads full.
func BuildReport(readings []Reading) Report {
	states := make([]model.VehicleState, len(readings))
	for i, r := range readings {
		states[i] = r.State
	}
	rep := Report{Metrics: Summarize(states), BatteryPercent: 100}
	if len(readings) > 0 {
		var pct float64
		for _, r := range readings {
			pct += BatteryPercent(r.State.EnergyUsed, r.BatteryKWh)
		}
		rep.BatteryPercent = pct / float64(len(readings))
	}
	rep.EcoScore = EcoScore(rep.AvgSpeedKmh())
	return rep
}

// BatteryPercent is the charge left after using energyUsed from a battery
// of capacityKWh. Capacities of zero or less use model.DefaultBatteryKWh.
func BatteryPercent(energyUsed, capacityKWh float64) float64 {
	if capacityKWh <= 0 {
		capacityKWh = model.DefaultBatteryKWh
	}
	return math.Max(0, capacityKWh-energyUsed) / capacityKWh * 100
}

// EcoScore rates driving from 100 down, losing half a point per km/h of
// average speed.
func EcoScore(avgKmh float64) float64 {
	return math.Max(0, 100-avgKmh*0.5)
}
