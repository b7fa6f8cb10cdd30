// Package infra holds the adapters behind the core contracts: zerolog
// logging, Sentry monitoring, the MQTT client, the Prometheus and InfluxDB
// sinks and the SQLite eco store.
package infra
