// Package kinematics advances a vehicle along its path with constant
// acceleration and braking rates.
package kinematics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kilianp07/evroute/core/model"
)

const (
	// BrakingBuffer is added to the braking distance before the vehicle
	// starts slowing for a waypoint, in metres.
	BrakingBuffer = 1.0
	// ArrivalTolerance is the distance under which a waypoint counts as
	// reached, in metres.
	ArrivalTolerance = 0.5
	// HeadingSmoothing is the fraction of the heading error corrected per tick.
	HeadingSmoothing = 0.15
	// CollisionFactor scales movement. Collisions are not modelled so it
	// stays at 1.
	CollisionFactor = 1.0
)

// Body is the rendered vehicle: the position and heading the kinematics
// read and write each tick.
type Body interface {
	Position() r3.Vec
	SetPosition(r3.Vec)
	Heading() float64
	SetHeading(float64)
}

// Outcome tells the caller what a call to Advance did.
type Outcome int

const (
	// OutcomeStopped means the vehicle had nothing to drive and was held at rest.
	OutcomeStopped Outcome = iota
	// OutcomeMoving means the vehicle moved without reaching its waypoint.
	OutcomeMoving
	// OutcomeWaypoint means an intermediate waypoint was reached.
	OutcomeWaypoint
	// OutcomeFinished means the final waypoint was reached and the vehicle stopped.
	OutcomeFinished
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStopped:
		return "stopped"
	case OutcomeMoving:
		return "moving"
	case OutcomeWaypoint:
		return "waypoint"
	case OutcomeFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// BrakingDistance returns the distance needed to stop from speed at the
// given deceleration.
func BrakingDistance(speed, braking float64) float64 {
	if braking <= 0 {
		return 0
	}
	return speed * speed / (2 * braking)
}

// HeadingTowards returns the yaw that faces dir, measured from +Z towards +X.
func HeadingTowards(dir r3.Vec) float64 {
	return math.Atan2(dir.X, dir.Z)
}

// Advance moves st one step of dt seconds towards its next waypoint.
// The vehicle never passes its target within a single step.
func Advance(st *model.VehicleState, perf model.Performance, dt float64, body Body) Outcome {
	target, ok := st.Target()
	if !st.Moving || !ok {
		st.CurrentSpeed = 0
		st.Moving = false
		return OutcomeStopped
	}

	pos := body.Position()
	dir := r3.Sub(target, pos)
	dist := r3.Norm(dir)

	// A vehicle at rest always pulls away, otherwise it could stall inside
	// the braking buffer.
	goal := perf.MaxSpeed
	if st.CurrentSpeed > 0 && dist < BrakingDistance(st.CurrentSpeed, perf.Braking)+BrakingBuffer {
		goal = 0
	}
	switch {
	case st.CurrentSpeed < goal:
		st.CurrentSpeed = math.Min(st.CurrentSpeed+perf.Acceleration*dt, goal)
	case st.CurrentSpeed > goal:
		st.CurrentSpeed = math.Max(st.CurrentSpeed-perf.Braking*dt, goal)
	}
	if st.CurrentSpeed < 0 {
		st.CurrentSpeed = 0
	}

	move := math.Min(st.CurrentSpeed*dt*CollisionFactor, dist)
	if dist > 0 {
		pos = r3.Add(pos, r3.Scale(move/dist, dir))
		body.SetPosition(pos)
	}

	st.DistanceDriven += move
	st.EnergyUsed += move * perf.EnergyPerMeter
	st.ElapsedTime += dt

	if dist-move < ArrivalTolerance {
		st.SegmentIndex++
		if st.SegmentIndex >= len(st.Path)-1 {
			st.Moving = false
			st.CurrentSpeed = 0
			body.SetPosition(st.Path[len(st.Path)-1])
			return OutcomeFinished
		}
		return OutcomeWaypoint
	}

	h := body.Heading()
	body.SetHeading(h + (HeadingTowards(dir)-h)*HeadingSmoothing)
	return OutcomeMoving
}
