// Package ecokpi rebuilds daily eco records from the trip log.
package ecokpi

import (
	"context"

	"github.com/kilianp07/evroute/core/metrics"
	eco "github.com/kilianp07/evroute/core/metrics/eco"
	"github.com/kilianp07/evroute/core/triplog"
)

// Backfill adds every trip matching q to store and returns how many records
// were added.
func Backfill(ctx context.Context, trips triplog.Store, store eco.Store, q triplog.Query) (int, error) {
	history, err := trips.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, h := range history {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		rec, ok := eco.FromTrip(metrics.TripEvent{
			Vehicle:   h.Vehicle,
			Outcome:   h.Outcome,
			DistanceM: h.DistanceM,
			EnergyKWh: h.EnergyKWh,
			Time:      h.EndedAt,
		})
		if !ok {
			continue
		}
		if err := store.Add(rec); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
