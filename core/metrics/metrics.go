package metrics

import "time"

// VehicleSample is the state of one vehicle at a sampling instant.
type VehicleSample struct {
	RunID          string    `json:"run_id"`
	Vehicle        string    `json:"vehicle"`
	SpeedKmh       float64   `json:"speed_kmh"`
	DistanceM      float64   `json:"distance_m"`
	EnergyKWh      float64   `json:"energy_kwh"`
	BatteryPercent float64   `json:"battery_percent"`
	SegmentIndex   int       `json:"segment_index"`
	Moving         bool      `json:"moving"`
	Time           time.Time `json:"time"`
}

// DashboardSample is the fleet-wide dashboard at a sampling instant.
type DashboardSample struct {
	RunID           string    `json:"run_id"`
	Vehicles        int       `json:"vehicles"`
	AvgSpeedKmh     float64   `json:"avg_speed_kmh"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	TotalEnergyKWh  float64   `json:"total_energy_kwh"`
	BatteryPercent  float64   `json:"battery_percent"`
	EcoScore        float64   `json:"eco_score"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
	Time            time.Time `json:"time"`
}

// Trip outcomes.
const (
	TripArrived      = "arrived"
	TripPathNotFound = "path_not_found"
	TripAborted      = "aborted"
)

// TripEvent describes how a vehicle's trip ended.
type TripEvent struct {
	RunID     string    `json:"run_id"`
	Vehicle   string    `json:"vehicle"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Outcome   string    `json:"outcome"`
	DistanceM float64   `json:"distance_m"`
	EnergyKWh float64   `json:"energy_kwh"`
	DurationS float64   `json:"duration_s"`
	Time      time.Time `json:"time"`
}

// MetricsSink receives periodic simulation telemetry.
type MetricsSink interface {
	RecordVehicleStates(samples []VehicleSample) error
	RecordDashboard(s DashboardSample) error
}

// TripRecorder is implemented by sinks interested in finished trips.
type TripRecorder interface {
	RecordTrip(ev TripEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordVehicleStates([]VehicleSample) error { return nil }
func (NopSink) RecordDashboard(DashboardSample) error     { return nil }
func (NopSink) RecordTrip(TripEvent) error                { return nil }
