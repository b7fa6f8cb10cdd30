package triplog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/core/model"
	"github.com/kilianp07/evroute/core/network"
	"github.com/kilianp07/evroute/core/simulation"
	"github.com/kilianp07/evroute/internal/eventbus"
)

var t0 = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func sampleRecords() []Record {
	return []Record{
		{ID: "1", RunID: "r1", Vehicle: "tesla-model3", Outcome: metrics.TripArrived, EndedAt: t0, DistanceM: 113},
		{ID: "2", RunID: "r1", Vehicle: "nissan-leaf", Outcome: metrics.TripPathNotFound, EndedAt: t0.Add(time.Minute)},
		{ID: "3", RunID: "r2", Vehicle: "tesla-model3", Outcome: metrics.TripAborted, EndedAt: t0.Add(time.Hour)},
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, s.Append(ctx, r))
	}

	all, err := s.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 113.0, all[0].DistanceM)

	tesla, err := s.Query(ctx, Query{Vehicle: "tesla-model3"})
	require.NoError(t, err)
	assert.Len(t, tesla, 2)

	arrived, err := s.Query(ctx, Query{Outcome: metrics.TripArrived})
	require.NoError(t, err)
	require.Len(t, arrived, 1)
	assert.Equal(t, "1", arrived[0].ID)

	window, err := s.Query(ctx, Query{Start: t0.Add(30 * time.Second), End: t0.Add(2 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "2", window[0].ID)

	run, err := s.Query(ctx, Query{RunID: "r1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, run, 1)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips", "trips.jsonl")
	s, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)

	// Garbage lines are skipped.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	all, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRotatingJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStoreReadsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trips.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 10, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	pad := make([]byte, 4096)
	for i := range pad {
		pad[i] = 'x'
	}
	// Enough records to go past 1 MB and force a rotation.
	for i := 0; i < 400; i++ {
		require.NoError(t, s.Append(ctx, Record{ID: fmt.Sprint(i), Vehicle: "nissan-leaf", Error: string(pad), EndedAt: t0}))
	}
	files, err := filepath.Glob(filepath.Join(dir, "trips*.jsonl"))
	require.NoError(t, err)
	assert.Greater(t, len(files), 1)

	recs, err := s.Query(ctx, Query{Vehicle: "nissan-leaf"})
	require.NoError(t, err)
	assert.Len(t, recs, 400)
	assert.Equal(t, "0", recs[0].ID)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trips.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "t.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(Config{Type: "parquet"})
	assert.Error(t, err)
}

type tripSink struct {
	events []metrics.TripEvent
}

func (s *tripSink) RecordTrip(ev metrics.TripEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func TestRecorderHandle(t *testing.T) {
	store := NewMemoryStore()
	sink := &tripSink{}
	rec := NewRecorder(store, sink, nil)
	ctx := context.Background()

	arrived := model.VehicleState{DistanceDriven: 113.1, EnergyUsed: 0.017, ElapsedTime: 14}
	events := []simulation.Event{
		{Kind: simulation.EventStarted, RunID: "r", Vehicle: "tesla-model3", From: "A", To: "C", Time: t0},
		{Kind: simulation.EventWaypoint, RunID: "r", Vehicle: "tesla-model3", Time: t0.Add(time.Second)},
		{Kind: simulation.EventArrived, RunID: "r", Vehicle: "tesla-model3", From: "A", To: "C", State: arrived, Time: t0.Add(3 * time.Second)},
		{Kind: simulation.EventPathNotFound, RunID: "r", Vehicle: "nissan-leaf", From: "A", To: "C", Error: "no path", Time: t0},
		{Kind: simulation.EventStarted, RunID: "r2", Vehicle: "mahindra-thar", Time: t0},
		{Kind: simulation.EventReset, RunID: "r2", Vehicle: "mahindra-thar", Time: t0.Add(time.Second)},
		{Kind: simulation.EventReset, RunID: "r2", Time: t0.Add(time.Second)},
		{Kind: simulation.EventPaused, RunID: "r2", Time: t0},
	}
	for _, ev := range events {
		require.NoError(t, rec.Handle(ctx, ev))
	}

	recs, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, metrics.TripArrived, recs[0].Outcome)
	assert.Equal(t, t0, recs[0].StartedAt)
	assert.Equal(t, t0.Add(3*time.Second), recs[0].EndedAt)
	assert.Equal(t, 2, recs[0].Waypoints)
	assert.Equal(t, 113.1, recs[0].DistanceM)
	assert.NotEmpty(t, recs[0].ID)

	assert.Equal(t, metrics.TripPathNotFound, recs[1].Outcome)
	assert.Equal(t, "no path", recs[1].Error)
	assert.Equal(t, metrics.TripAborted, recs[2].Outcome)

	require.Len(t, sink.events, 3)
	assert.Equal(t, 14.0, sink.events[0].DurationS)
}

func TestRecorderRunStopsWhenBusCloses(t *testing.T) {
	bus := eventbus.NewTyped[simulation.Event]()
	store := NewMemoryStore()
	rec := NewRecorder(store, nil, nil)

	done := make(chan struct{})
	go func() {
		rec.Run(context.Background(), bus)
		close(done)
	}()
	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(simulation.Event{Kind: simulation.EventArrived, Vehicle: "nissan-leaf", Time: t0})
	require.Eventually(t, func() bool {
		recs, _ := store.Query(context.Background(), Query{})
		return len(recs) == 1
	}, time.Second, 5*time.Millisecond)

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
}

func TestRecorderStartSubscribesImmediately(t *testing.T) {
	bus := eventbus.NewTyped[simulation.Event]()
	defer bus.Close()
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	NewRecorder(store, nil, nil).Start(ctx, bus)
	assert.Equal(t, 1, bus.Subscribers())

	bus.Publish(simulation.Event{Kind: simulation.EventStarted, Vehicle: "tesla-model3", Time: t0})
	bus.Publish(simulation.Event{Kind: simulation.EventArrived, Vehicle: "tesla-model3", Time: t0.Add(time.Minute)})
	require.Eventually(t, func() bool {
		recs, _ := store.Query(context.Background(), Query{})
		return len(recs) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return bus.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRecorderKeepsInterruptedTrips(t *testing.T) {
	net, err := network.New(network.DefaultLocations(), network.DefaultEdges())
	require.NoError(t, err)
	bus := eventbus.NewTyped[simulation.Event]()
	defer bus.Close()
	sub := bus.Subscribe()
	ctrl, err := simulation.New(simulation.Options{Network: net, Catalog: model.DefaultCatalog(), Bus: bus})
	require.NoError(t, err)

	store := NewMemoryStore()
	rec := NewRecorder(store, nil, nil)
	ctx := context.Background()
	flush := func() {
		for {
			select {
			case ev := <-sub:
				require.NoError(t, rec.Handle(ctx, ev))
			default:
				return
			}
		}
	}

	first, err := ctrl.Start(network.StartPointA, network.OfficeBuilding, []string{"tesla-model3", "nissan-leaf"})
	require.NoError(t, err)
	ctrl.Tick(0.5)
	require.NoError(t, ctrl.Pause())
	_, err = ctrl.Start(network.OfficeBuilding, network.StartPointA, []string{"tesla-model3"})
	require.NoError(t, err)
	ctrl.Tick(0.5)
	require.True(t, ctrl.RemoveVehicle("nissan-leaf"))
	flush()

	recs, err := store.Query(ctx, Query{Outcome: metrics.TripAborted})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Greater(t, r.DistanceM, 0.0)
		assert.Greater(t, r.EnergyKWh, 0.0)
		assert.Equal(t, network.StartPointA, r.From)
		assert.Equal(t, network.OfficeBuilding, r.To)
		assert.Equal(t, first.RunID, r.RunID)
	}
	assert.Equal(t, "tesla-model3", recs[0].Vehicle)
	assert.Equal(t, "nissan-leaf", recs[1].Vehicle)
}
