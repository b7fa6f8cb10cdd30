package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/kilianp07/evroute/core/model"
)

type body struct {
	pos     r3.Vec
	heading float64
}

func (b *body) Position() r3.Vec     { return b.pos }
func (b *body) SetPosition(p r3.Vec) { b.pos = p }
func (b *body) Heading() float64     { return b.heading }
func (b *body) SetHeading(h float64) { b.heading = h }

var tenMS = model.Profile{
	Type:                "test",
	MaxSpeedKmh:         36,
	AccelerationKmhPerS: 36,
	BrakingKmhPerS:      36,
	ConsumptionKWhPerKm: 0.2,
}.Performance()

func abc() model.Path {
	return model.Path{{X: 0}, {X: 10}, {X: 20}}
}

func TestAdvanceReachesEndOfPath(t *testing.T) {
	var st model.VehicleState
	st.AssignPath(abc())
	b := &body{}

	ticks := 0
	for st.Moving && ticks < 10 {
		Advance(&st, tenMS, 1, b)
		ticks++
	}
	require.False(t, st.Moving, "vehicle still moving after %d ticks", ticks)
	assert.InDelta(t, 20, st.DistanceDriven, ArrivalTolerance)
	assert.Equal(t, 0.0, st.CurrentSpeed)
	assert.Equal(t, 2, st.SegmentIndex)
	assert.Equal(t, r3.Vec{X: 20}, b.pos)
	assert.InDelta(t, st.DistanceDriven*tenMS.EnergyPerMeter, st.EnergyUsed, 1e-12)
}

func TestAdvanceOutcomes(t *testing.T) {
	var st model.VehicleState
	st.AssignPath(abc())
	b := &body{}

	assert.Equal(t, OutcomeWaypoint, Advance(&st, tenMS, 1, b))
	assert.InDelta(t, 10, st.DistanceDriven, 1e-9)
	assert.Equal(t, OutcomeFinished, Advance(&st, tenMS, 1, b))
	assert.InDelta(t, 20, st.DistanceDriven, 1e-9)
	assert.InDelta(t, 2, st.ElapsedTime, 1e-9)
	assert.Equal(t, OutcomeStopped, Advance(&st, tenMS, 1, b))
	assert.InDelta(t, 20, st.DistanceDriven, 1e-9)
	assert.Equal(t, "finished", OutcomeFinished.String())
}

func TestAdvanceNeverOvershoots(t *testing.T) {
	perf := model.Profile{Type: "fast", MaxSpeedKmh: 300, AccelerationKmhPerS: 200, BrakingKmhPerS: 10}.Performance()
	var st model.VehicleState
	st.AssignPath(model.Path{{}, {X: 3}, {X: 3, Z: 50}})
	b := &body{}

	for i := 0; i < 1000 && st.Moving; i++ {
		idx := st.SegmentIndex
		target := st.Path[idx+1]
		before := r3.Norm(r3.Sub(target, b.pos))
		Advance(&st, perf, 0.5, b)
		after := r3.Norm(r3.Sub(target, b.pos))
		assert.LessOrEqual(t, after, before+1e-9)
		// Progress along the segment never passes the target.
		seg := r3.Sub(target, st.Path[idx])
		assert.LessOrEqual(t, r3.Dot(r3.Sub(b.pos, st.Path[idx]), seg), r3.Dot(seg, seg)+1e-9)
	}
	assert.False(t, st.Moving)
}

func TestAdvanceMonotoneAndTerminates(t *testing.T) {
	perf := model.DefaultProfiles()[2].Performance()
	var st model.VehicleState
	st.AssignPath(model.Path{{X: -40, Z: -40}, {}, {X: 40, Z: 40}})
	b := &body{pos: st.Path[0]}

	prevDist, prevEnergy := 0.0, 0.0
	ticks := 0
	for st.Moving {
		Advance(&st, perf, 1.0/60*5, b)
		assert.GreaterOrEqual(t, st.DistanceDriven, prevDist)
		assert.GreaterOrEqual(t, st.EnergyUsed, prevEnergy)
		assert.GreaterOrEqual(t, st.CurrentSpeed, 0.0)
		assert.LessOrEqual(t, st.CurrentSpeed, perf.MaxSpeed+1e-9)
		prevDist, prevEnergy = st.DistanceDriven, st.EnergyUsed
		ticks++
		require.Less(t, ticks, 100000)
	}
	assert.InDelta(t, 2*math.Hypot(40, 40), st.DistanceDriven, 3*ArrivalTolerance)
}

func TestAdvanceRestingInsideBrakingBuffer(t *testing.T) {
	var st model.VehicleState
	st.AssignPath(model.Path{{}, {X: 0.8}})
	b := &body{}

	for i := 0; i < 200 && st.Moving; i++ {
		Advance(&st, tenMS, 0.05, b)
	}
	assert.False(t, st.Moving)
}

func TestAdvanceStoppedStates(t *testing.T) {
	b := &body{}

	var empty model.VehicleState
	empty.Moving = true
	empty.CurrentSpeed = 5
	assert.Equal(t, OutcomeStopped, Advance(&empty, tenMS, 1, b))
	assert.False(t, empty.Moving)
	assert.Zero(t, empty.CurrentSpeed)

	var single model.VehicleState
	single.AssignPath(model.Path{{X: 1}})
	assert.Equal(t, OutcomeStopped, Advance(&single, tenMS, 1, b))
	assert.Zero(t, single.DistanceDriven)
}

func TestAdvanceSmoothsHeading(t *testing.T) {
	var st model.VehicleState
	st.AssignPath(model.Path{{}, {X: 100}})
	b := &body{}

	Advance(&st, tenMS, 0.1, b)
	want := HeadingTowards(r3.Vec{X: 1}) * HeadingSmoothing
	assert.InDelta(t, want, b.heading, 1e-9)
}

func TestBrakingDistance(t *testing.T) {
	assert.Equal(t, 5.0, BrakingDistance(10, 10))
	assert.Equal(t, 0.0, BrakingDistance(10, 0))
}
