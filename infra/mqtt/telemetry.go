package mqtt

import (
	"errors"
	"path"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

// Publisher is the publishing side of PahoClient.
type Publisher interface {
	PublishJSON(kind, topic string, v any) error
}

// TelemetrySink publishes simulation telemetry as JSON:
//
//	<prefix>/vehicle/<type>/state   one message per vehicle sample
//	<prefix>/dashboard              the dashboard snapshot
//	<prefix>/trip                   finished trips
type TelemetrySink struct {
	pub    Publisher
	prefix string
}

// NewTelemetrySink returns a sink publishing under prefix.
func NewTelemetrySink(pub Publisher, prefix string) *TelemetrySink {
	return &TelemetrySink{pub: pub, prefix: prefix}
}

// VehicleTopic returns the state topic of vehicleType.
func (s *TelemetrySink) VehicleTopic(vehicleType string) string {
	return path.Join(s.prefix, "vehicle", vehicleType, "state")
}

// DashboardTopic returns the dashboard topic.
func (s *TelemetrySink) DashboardTopic() string { return path.Join(s.prefix, "dashboard") }

// TripTopic returns the trip topic.
func (s *TelemetrySink) TripTopic() string { return path.Join(s.prefix, "trip") }

func (s *TelemetrySink) RecordVehicleStates(samples []coremetrics.VehicleSample) error {
	var errs []error
	for _, v := range samples {
		errs = append(errs, s.pub.PublishJSON("telemetry", s.VehicleTopic(v.Vehicle), v))
	}
	return errors.Join(errs...)
}

func (s *TelemetrySink) RecordDashboard(d coremetrics.DashboardSample) error {
	return s.pub.PublishJSON("telemetry", s.DashboardTopic(), d)
}

func (s *TelemetrySink) RecordTrip(ev coremetrics.TripEvent) error {
	return s.pub.PublishJSON("trip", s.TripTopic(), ev)
}
