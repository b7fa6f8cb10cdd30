package kpi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eco "github.com/kilianp07/evroute/core/metrics/eco"
)

func TestSQLiteStoreUpsertsByDay(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "eco.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	d := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.Add(eco.Record{Vehicle: "nissan-leaf", Date: d, Trips: 1, DistanceKm: 2, EnergyKWh: 0.3}))
	require.NoError(t, s.Add(eco.Record{Vehicle: "nissan-leaf", Date: d.Add(5 * time.Hour), Trips: 1, DistanceKm: 1.5, EnergyKWh: 0.2}))
	require.NoError(t, s.Add(eco.Record{Vehicle: "nissan-leaf", Date: d.AddDate(0, 0, 2), DistanceKm: 0.4, EnergyKWh: 0.05}))
	require.NoError(t, s.Add(eco.Record{Vehicle: "tesla-model3", Date: d, Trips: 1, DistanceKm: 9}))

	recs, err := s.Query("nissan-leaf", d, d.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, eco.Day(d), recs[0].Date)
	assert.Equal(t, 2, recs[0].Trips)
	assert.InDelta(t, 3.5, recs[0].DistanceKm, 1e-9)
	assert.InDelta(t, 0.5, recs[0].EnergyKWh, 1e-9)
	assert.Zero(t, recs[1].Trips)

	recs, err = s.Query("tesla-model3", d.AddDate(0, 0, 1), d.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eco.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Add(eco.Record{Vehicle: "mahindra-thar", Date: d, Trips: 1, DistanceKm: 4}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	recs, err := s.Query("mahindra-thar", d, d)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 4, recs[0].DistanceKm, 1e-9)
}
