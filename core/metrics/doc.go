// Package metrics defines the telemetry sinks fed by the simulation host.
// Sinks receive per-vehicle samples and dashboard snapshots every sampling
// interval; sinks that also implement TripRecorder receive finished trips.
// Implementations (Prometheus, InfluxDB, MQTT) live in infra and register
// themselves with RegisterMetricsSink so configuration can select them by
// type name.
package metrics
