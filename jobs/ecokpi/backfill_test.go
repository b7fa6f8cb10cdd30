package ecokpi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/metrics"
	eco "github.com/kilianp07/evroute/core/metrics/eco"
	"github.com/kilianp07/evroute/core/triplog"
)

func TestBackfillFromTripLog(t *testing.T) {
	ctx := context.Background()
	trips := triplog.NewMemoryStore()
	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, r := range []triplog.Record{
		{ID: "1", Vehicle: "nissan-leaf", Outcome: metrics.TripArrived, EndedAt: day, DistanceM: 1200, EnergyKWh: 0.2},
		{ID: "2", Vehicle: "nissan-leaf", Outcome: metrics.TripAborted, EndedAt: day.Add(time.Hour), DistanceM: 300, EnergyKWh: 0.05},
		{ID: "3", Vehicle: "nissan-leaf", Outcome: metrics.TripPathNotFound, EndedAt: day},
		{ID: "4", Vehicle: "tesla-model3", Outcome: metrics.TripArrived, EndedAt: day, DistanceM: 5000, EnergyKWh: 0.8},
	} {
		require.NoError(t, trips.Append(ctx, r))
	}

	store := eco.NewMemoryStore()
	n, err := Backfill(ctx, trips, store, triplog.Query{Vehicle: "nissan-leaf"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs, err := store.Query("nissan-leaf", day, day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Trips)
	assert.InDelta(t, 1.5, recs[0].DistanceKm, 1e-9)
	assert.InDelta(t, 0.25, recs[0].EnergyKWh, 1e-9)

	recs, err = store.Query("tesla-model3", day, day)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestBackfillCancelled(t *testing.T) {
	trips := triplog.NewMemoryStore()
	require.NoError(t, trips.Append(context.Background(), triplog.Record{ID: "1", Vehicle: "nissan-leaf", Outcome: metrics.TripArrived, EndedAt: time.Now()}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Backfill(ctx, trips, eco.NewMemoryStore(), triplog.Query{})
	assert.ErrorIs(t, err, context.Canceled)
}
