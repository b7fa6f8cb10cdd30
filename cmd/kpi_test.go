package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/core/triplog"
)

func TestCollectKPIsFromTripLog(t *testing.T) {
	cfg := config.Default()
	cfg.TripLog = triplog.Config{Type: "jsonl", Path: filepath.Join(t.TempDir(), "trips.jsonl")}
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)

	store, err := triplog.Open(cfg.TripLog)
	require.NoError(t, err)
	for _, r := range []triplog.Record{
		{ID: "1", Vehicle: "nissan-leaf", Outcome: metrics.TripArrived, EndedAt: now.Add(-time.Hour), DistanceM: 2000, EnergyKWh: 0.3},
		{ID: "2", Vehicle: "nissan-leaf", Outcome: metrics.TripArrived, EndedAt: now.AddDate(0, 0, -1), DistanceM: 1000, EnergyKWh: 0.15},
		{ID: "3", Vehicle: "nissan-leaf", Outcome: metrics.TripArrived, EndedAt: now.AddDate(0, 0, -30), DistanceM: 1000},
		{ID: "4", Vehicle: "tesla-model3", Outcome: metrics.TripAborted, EndedAt: now.Add(-2 * time.Hour), DistanceM: 500, EnergyKWh: 0.1},
	} {
		require.NoError(t, store.Append(context.Background(), r))
	}
	require.NoError(t, store.Close())

	rows, err := collectKPIs(context.Background(), cfg, "", 7, now)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byKey := map[string]kpiRow{}
	for _, r := range rows {
		byKey[r.Vehicle+"/"+r.Date] = r
	}
	leaf := byKey["nissan-leaf/2024-05-03"]
	assert.Equal(t, 1, leaf.Trips)
	assert.InDelta(t, 15, leaf.Efficiency, 1e-9)
	tesla := byKey["tesla-model3/2024-05-03"]
	assert.Zero(t, tesla.Trips)
	assert.InDelta(t, 0.5, tesla.DistanceKm, 1e-9)

	rows, err = collectKPIs(context.Background(), cfg, "tesla-model3", 1, now)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = collectKPIs(context.Background(), cfg, "", 0, now)
	assert.Error(t, err)
}

func TestWriteKPIsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeKPIs(&buf, "table", []kpiRow{{Vehicle: "nissan-leaf", Date: "2024-05-03", Trips: 2, DistanceKm: 3}}))
	assert.Contains(t, buf.String(), "VEHICLE")
	assert.Contains(t, buf.String(), "nissan-leaf")
	assert.Error(t, writeKPIs(&buf, "xml", nil))
}
