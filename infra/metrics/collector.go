package metrics

import (
	"context"

	"github.com/kilianp07/evroute/core/simulation"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// EventCounter is implemented by sinks counting controller events.
type EventCounter interface {
	RecordSimulationEvent(kind string)
}

// StartEventCollector subscribes to the event bus and counts events.
// It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[simulation.Event], counter EventCounter) {
	if bus == nil || counter == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				counter.RecordSimulationEvent(string(ev.Kind))
			}
		}
	}()
}
