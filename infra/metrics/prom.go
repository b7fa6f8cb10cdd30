package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes simulation telemetry as Prometheus metrics.
type PromSink struct {
	speed    *prometheus.GaugeVec
	distance *prometheus.GaugeVec
	energy   *prometheus.GaugeVec
	battery  *prometheus.GaugeVec
	fleet    *prometheus.GaugeVec
	trips    *prometheus.CounterVec
	events   *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately, see StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	vehicleLabels := []string{"vehicle"}
	s := &PromSink{
		speed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evroute_vehicle_speed_kmh",
			Help: "Current vehicle speed",
		}, vehicleLabels),
		distance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evroute_vehicle_distance_meters",
			Help: "Distance driven during the current run",
		}, vehicleLabels),
		energy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evroute_vehicle_energy_kwh",
			Help: "Energy used during the current run",
		}, vehicleLabels),
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evroute_vehicle_battery_percent",
			Help: "Remaining battery charge",
		}, vehicleLabels),
		fleet: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evroute_dashboard",
			Help: "Fleet-wide dashboard values",
		}, []string{"metric"}),
		trips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evroute_trips_total",
			Help: "Finished trips by outcome",
		}, []string{"vehicle", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evroute_simulation_events_total",
			Help: "Simulation events by kind",
		}, []string{"kind"}),
	}
	var err error
	for _, p := range []**prometheus.GaugeVec{&s.speed, &s.distance, &s.energy, &s.battery, &s.fleet} {
		if *p, err = register(reg, *p); err != nil {
			return nil, err
		}
	}
	if s.trips, err = register(reg, s.trips); err != nil {
		return nil, err
	}
	if s.events, err = register(reg, s.events); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when c's descriptor is
// known to reg, so several sinks can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordVehicleStates sets the per-vehicle gauges.
func (s *PromSink) RecordVehicleStates(samples []coremetrics.VehicleSample) error {
	for _, v := range samples {
		s.speed.WithLabelValues(v.Vehicle).Set(v.SpeedKmh)
		s.distance.WithLabelValues(v.Vehicle).Set(v.DistanceM)
		s.energy.WithLabelValues(v.Vehicle).Set(v.EnergyKWh)
		s.battery.WithLabelValues(v.Vehicle).Set(v.BatteryPercent)
	}
	return nil
}

// RecordDashboard sets the fleet gauges.
func (s *PromSink) RecordDashboard(d coremetrics.DashboardSample) error {
	s.fleet.WithLabelValues("vehicles").Set(float64(d.Vehicles))
	s.fleet.WithLabelValues("avg_speed_kmh").Set(d.AvgSpeedKmh)
	s.fleet.WithLabelValues("total_distance_km").Set(d.TotalDistanceKm)
	s.fleet.WithLabelValues("total_energy_kwh").Set(d.TotalEnergyKWh)
	s.fleet.WithLabelValues("battery_percent").Set(d.BatteryPercent)
	s.fleet.WithLabelValues("eco_score").Set(d.EcoScore)
	s.fleet.WithLabelValues("elapsed_seconds").Set(d.ElapsedSeconds)
	return nil
}

// RecordTrip counts the trip under its outcome.
func (s *PromSink) RecordTrip(ev coremetrics.TripEvent) error {
	s.trips.WithLabelValues(ev.Vehicle, ev.Outcome).Inc()
	return nil
}

// RecordSimulationEvent counts one controller event.
func (s *PromSink) RecordSimulationEvent(kind string) {
	s.events.WithLabelValues(kind).Inc()
}

// Forget drops the per-vehicle series of a removed vehicle.
func (s *PromSink) Forget(vehicle string) {
	for _, g := range []*prometheus.GaugeVec{s.speed, s.distance, s.energy, s.battery} {
		g.DeleteLabelValues(vehicle)
	}
}
