package metrics

import "errors"

// MultiSink fans records out to several sinks. Every sink is called even
// when an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordVehicleStates(samples []VehicleSample) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordVehicleStates(samples))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordDashboard(d DashboardSample) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordDashboard(d))
	}
	return errors.Join(errs...)
}

// RecordTrip forwards to the sinks implementing TripRecorder.
func (m *MultiSink) RecordTrip(ev TripEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TripRecorder); ok {
			errs = append(errs, rec.RecordTrip(ev))
		}
	}
	return errors.Join(errs...)
}
