package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/infra/logger"
)

const writeTimeout = 10 * time.Second

// InfluxSink writes simulation telemetry to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordVehicleStates writes one vehicle_state point per sample in a single batch.
func (s *InfluxSink) RecordVehicleStates(samples []coremetrics.VehicleSample) error {
	if len(samples) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(samples))
	for _, v := range samples {
		points = append(points, write.NewPointWithMeasurement("vehicle_state").
			AddTag("vehicle", v.Vehicle).
			AddTag("run_id", v.RunID).
			AddTag("moving", strconv.FormatBool(v.Moving)).
			AddField("speed_kmh", round3(v.SpeedKmh)).
			AddField("distance_m", round3(v.DistanceM)).
			AddField("energy_kwh", round3(v.EnergyKWh)).
			AddField("battery_percent", round3(v.BatteryPercent)).
			AddField("segment_index", v.SegmentIndex).
			SetTime(v.Time))
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordDashboard writes the fleet summary.
func (s *InfluxSink) RecordDashboard(d coremetrics.DashboardSample) error {
	p := write.NewPointWithMeasurement("dashboard").
		AddTag("run_id", d.RunID).
		AddField("vehicles", d.Vehicles).
		AddField("avg_speed_kmh", round3(d.AvgSpeedKmh)).
		AddField("total_distance_km", round3(d.TotalDistanceKm)).
		AddField("total_energy_kwh", round3(d.TotalEnergyKWh)).
		AddField("battery_percent", round3(d.BatteryPercent)).
		AddField("eco_score", round3(d.EcoScore)).
		AddField("elapsed_s", round3(d.ElapsedSeconds)).
		SetTime(d.Time)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTrip writes the outcome of a finished trip.
func (s *InfluxSink) RecordTrip(ev coremetrics.TripEvent) error {
	p := write.NewPointWithMeasurement("trip").
		AddTag("vehicle", ev.Vehicle).
		AddTag("run_id", ev.RunID).
		AddTag("outcome", ev.Outcome).
		AddTag("from", ev.From).
		AddTag("to", ev.To).
		AddField("distance_m", round3(ev.DistanceM)).
		AddField("energy_kwh", round3(ev.EnergyKWh)).
		AddField("duration_s", round3(ev.DurationS)).
		SetTime(ev.Time)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
