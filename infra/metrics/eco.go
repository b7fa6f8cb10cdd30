package metrics

import (
	core "github.com/kilianp07/evroute/core/metrics"
	eco "github.com/kilianp07/evroute/core/metrics/eco"
	"github.com/prometheus/client_golang/prometheus"
)

// EcoSink turns finished trips into daily ecological KPIs.
type EcoSink struct {
	core.NopSink
	store      eco.Store
	gridFactor float64
	iceFactor  float64
	distance   *prometheus.GaugeVec
	efficiency *prometheus.GaugeVec
	co2        *prometheus.GaugeVec
}

// NewEcoSink creates a sink with Prometheus gauges registered on reg.
// gridFactor is in gCO2/kWh and iceFactor in gCO2/km.
func NewEcoSink(store eco.Store, gridFactor, iceFactor float64, reg prometheus.Registerer) (*EcoSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := []string{"vehicle", "day"}
	s := &EcoSink{
		store:      store,
		gridFactor: gridFactor,
		iceFactor:  iceFactor,
		distance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evroute_vehicle_daily_distance_km",
			Help: "Daily distance driven per vehicle",
		}, labels),
		efficiency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evroute_vehicle_efficiency_kwh_per_100km",
			Help: "Daily energy efficiency per vehicle",
		}, labels),
		co2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evroute_vehicle_co2_avoided_grams",
			Help: "Daily CO2 avoided per vehicle compared to a combustion car",
		}, labels),
	}
	var err error
	for _, p := range []**prometheus.GaugeVec{&s.distance, &s.efficiency, &s.co2} {
		if *p, err = register(reg, *p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RecordTrip adds arrived and aborted trips to the daily record of the
// vehicle. Trips that never started are ignored.
func (s *EcoSink) RecordTrip(ev core.TripEvent) error {
	rec, ok := eco.FromTrip(ev)
	if !ok {
		return nil
	}
	if err := s.store.Add(rec); err != nil {
		return err
	}
	records, err := s.store.Query(ev.Vehicle, ev.Time, ev.Time)
	if err != nil || len(records) == 0 {
		return err
	}
	day := records[0]
	dayStr := eco.Day(day.Date).Format("2006-01-02")
	s.distance.WithLabelValues(ev.Vehicle, dayStr).Set(day.DistanceKm)
	s.efficiency.WithLabelValues(ev.Vehicle, dayStr).Set(day.Efficiency())
	s.co2.WithLabelValues(ev.Vehicle, dayStr).Set(day.CO2Avoided(s.iceFactor, s.gridFactor))
	return nil
}
