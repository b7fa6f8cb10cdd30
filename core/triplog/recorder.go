package triplog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/core/monitoring"
	"github.com/kilianp07/evroute/core/simulation"
	"github.com/kilianp07/evroute/internal/eventbus"
)

type openTrip struct {
	runID     string
	from, to  string
	startedAt time.Time
	waypoints int
}

// Recorder turns simulation events into trip records. Finished trips are
// appended to the store and forwarded to the optional metrics recorder.
type Recorder struct {
	store Store
	sink  metrics.TripRecorder
	log   logger.Logger

	mu   sync.Mutex
	open map[string]*openTrip
}

// NewRecorder returns a Recorder writing to store. sink may be nil.
func NewRecorder(store Store, sink metrics.TripRecorder, log logger.Logger) *Recorder {
	return &Recorder{store: store, sink: sink, log: logger.OrNop(log), open: map[string]*openTrip{}}
}

// Run consumes bus until ctx is done or the bus is closed.
func (r *Recorder) Run(ctx context.Context, bus *eventbus.TypedBus[simulation.Event]) {
	r.consume(ctx, bus, bus.Subscribe())
}

// Start subscribes to bus before returning and consumes it in the
// background, so no event published afterwards is missed.
func (r *Recorder) Start(ctx context.Context, bus *eventbus.TypedBus[simulation.Event]) {
	sub := bus.Subscribe()
	monitoring.Go(func() { r.consume(ctx, bus, sub) })
}

func (r *Recorder) consume(ctx context.Context, bus *eventbus.TypedBus[simulation.Event], sub <-chan simulation.Event) {
	defer bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := r.Handle(ctx, ev); err != nil {
				r.log.Errorf("trip log: %v", err)
			}
		}
	}
}

// Handle processes a single event.
func (r *Recorder) Handle(ctx context.Context, ev simulation.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.Kind {
	case simulation.EventStarted:
		r.open[ev.Vehicle] = &openTrip{runID: ev.RunID, from: ev.From, to: ev.To, startedAt: ev.Time}
	case simulation.EventWaypoint:
		if t, ok := r.open[ev.Vehicle]; ok {
			t.waypoints++
		}
	case simulation.EventArrived:
		return r.close(ctx, ev, metrics.TripArrived)
	case simulation.EventPathNotFound:
		return r.close(ctx, ev, metrics.TripPathNotFound)
	case simulation.EventReset:
		if ev.Vehicle != "" {
			return r.close(ctx, ev, metrics.TripAborted)
		}
	}
	return nil
}

func (r *Recorder) close(ctx context.Context, ev simulation.Event, outcome string) error {
	rec := Record{
		ID:        uuid.NewString(),
		RunID:     ev.RunID,
		Vehicle:   ev.Vehicle,
		From:      ev.From,
		To:        ev.To,
		Outcome:   outcome,
		StartedAt: ev.Time,
		EndedAt:   ev.Time,
		DistanceM: ev.State.DistanceDriven,
		EnergyKWh: ev.State.EnergyUsed,
		DurationS: ev.State.ElapsedTime,
		Error:     ev.Error,
	}
	// A trip keeps the run and route it started with, even when it ends
	// after a restart with another selection.
	if t, ok := r.open[ev.Vehicle]; ok {
		rec.RunID, rec.From, rec.To = t.runID, t.from, t.to
		rec.StartedAt = t.startedAt
		rec.Waypoints = t.waypoints
		delete(r.open, ev.Vehicle)
	}
	if outcome == metrics.TripArrived {
		rec.Waypoints++
	}
	if err := r.store.Append(ctx, rec); err != nil {
		return err
	}
	r.log.Debugw("trip recorded", map[string]any{
		"vehicle": rec.Vehicle, "outcome": rec.Outcome, "distance_m": rec.DistanceM,
	})
	if r.sink == nil {
		return nil
	}
	return r.sink.RecordTrip(metrics.TripEvent{
		RunID:     rec.RunID,
		Vehicle:   rec.Vehicle,
		From:      rec.From,
		To:        rec.To,
		Outcome:   rec.Outcome,
		DistanceM: rec.DistanceM,
		EnergyKWh: rec.EnergyKWh,
		DurationS: rec.DurationS,
		Time:      rec.EndedAt,
	})
}
