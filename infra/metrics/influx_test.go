package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
	srv    *httptest.Server
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()
	ls := &lineServer{}
	ls.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(data)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.srv.Close)
	return ls
}

func (ls *lineServer) Bodies() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]string(nil), ls.bodies...)
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordVehicleStates(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	samples := []coremetrics.VehicleSample{
		{RunID: "r1", Vehicle: "tesla-model3", SpeedKmh: 42.1234, DistanceM: 120, EnergyKWh: 0.018, BatteryPercent: 99.97, SegmentIndex: 1, Moving: true, Time: now},
		{RunID: "r1", Vehicle: "nissan-leaf", Time: now},
	}
	require.NoError(t, sink.RecordVehicleStates(samples))

	p1 := write.NewPointWithMeasurement("vehicle_state").
		AddTag("vehicle", "tesla-model3").
		AddTag("run_id", "r1").
		AddTag("moving", "true").
		AddField("speed_kmh", 42.123).
		AddField("distance_m", 120.0).
		AddField("energy_kwh", 0.018).
		AddField("battery_percent", 99.97).
		AddField("segment_index", 1).
		SetTime(now)
	p2 := write.NewPointWithMeasurement("vehicle_state").
		AddTag("vehicle", "nissan-leaf").
		AddTag("run_id", "r1").
		AddTag("moving", "false").
		AddField("speed_kmh", 0.0).
		AddField("distance_m", 0.0).
		AddField("energy_kwh", 0.0).
		AddField("battery_percent", 0.0).
		AddField("segment_index", 0).
		SetTime(now)

	bodies := ls.Bodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, line(p1)+"\n"+line(p2), bodies[0])
}

func TestInfluxSink_RecordVehicleStatesEmpty(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL, "token", "org", "bucket")
	defer sink.Close()

	require.NoError(t, sink.RecordVehicleStates(nil))
	assert.Empty(t, ls.Bodies())
}

func TestInfluxSink_RecordDashboard(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	d := coremetrics.DashboardSample{RunID: "r1", Vehicles: 3, AvgSpeedKmh: 30, TotalDistanceKm: 1.5, TotalEnergyKWh: 0.2, BatteryPercent: 99.5, EcoScore: 85, ElapsedSeconds: 12, Time: now}
	require.NoError(t, sink.RecordDashboard(d))

	p := write.NewPointWithMeasurement("dashboard").
		AddTag("run_id", "r1").
		AddField("vehicles", 3).
		AddField("avg_speed_kmh", 30.0).
		AddField("total_distance_km", 1.5).
		AddField("total_energy_kwh", 0.2).
		AddField("battery_percent", 99.5).
		AddField("eco_score", 85.0).
		AddField("elapsed_s", 12.0).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, ls.Bodies())
}

func TestInfluxSink_RecordTrip(t *testing.T) {
	ls := newLineServer(t)
	sink := NewInfluxSink(ls.srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.TripEvent{RunID: "r1", Vehicle: "mahindra-thar", From: "Start Point A", To: "Park Entrance", Outcome: coremetrics.TripArrived, DistanceM: 1500, EnergyKWh: 0.33, DurationS: 95.5, Time: now}
	require.NoError(t, sink.RecordTrip(ev))

	p := write.NewPointWithMeasurement("trip").
		AddTag("vehicle", "mahindra-thar").
		AddTag("run_id", "r1").
		AddTag("outcome", "arrived").
		AddTag("from", "Start Point A").
		AddTag("to", "Park Entrance").
		AddField("distance_m", 1500.0).
		AddField("energy_kwh", 0.33).
		AddField("duration_s", 95.5).
		SetTime(now)
	assert.Equal(t, []string{line(p)}, ls.Bodies())
}

func TestInfluxSink_WriteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	assert.Error(t, sink.RecordDashboard(coremetrics.DashboardSample{Time: time.Now()}))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}
