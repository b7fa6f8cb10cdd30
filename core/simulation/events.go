package simulation

import (
	"time"

	"github.com/kilianp07/evroute/core/model"
)

// EventKind names what happened in the simulation.
type EventKind string

const (
	EventStarted      EventKind = "started"
	EventPathNotFound EventKind = "path_not_found"
	EventWaypoint     EventKind = "waypoint"
	EventArrived      EventKind = "arrived"
	EventPaused       EventKind = "paused"
	EventResumed      EventKind = "resumed"
	EventReset        EventKind = "reset"
)

// Event is published on the controller bus. Vehicle is empty for events
// that concern the whole run.
type Event struct {
	Kind    EventKind          `json:"kind"`
	RunID   string             `json:"run_id"`
	Vehicle string             `json:"vehicle,omitempty"`
	From    string             `json:"from,omitempty"`
	To      string             `json:"to,omitempty"`
	State   model.VehicleState `json:"state"`
	Error   string             `json:"error,omitempty"`
	Time    time.Time          `json:"time"`
}
