package eco

import "github.com/kilianp07/evroute/core/metrics"

// FromTrip converts a finished trip into a daily contribution. Trips that
// never started yield false. Only arrivals count as trips; aborted trips
// still contribute the distance and energy they used.
func FromTrip(ev metrics.TripEvent) (Record, bool) {
	if ev.Outcome == metrics.TripPathNotFound {
		return Record{}, false
	}
	rec := Record{
		Vehicle:    ev.Vehicle,
		Date:       Day(ev.Time),
		DistanceKm: ev.DistanceM / 1000,
		EnergyKWh:  ev.EnergyKWh,
	}
	if ev.Outcome == metrics.TripArrived {
		rec.Trips = 1
	}
	return rec, true
}
