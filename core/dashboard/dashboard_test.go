package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evroute/core/model"
)

func TestSummarize(t *testing.T) {
	m := Summarize([]model.VehicleState{
		{CurrentSpeed: 10, DistanceDriven: 100, EnergyUsed: 0.5, ElapsedTime: 12},
		{CurrentSpeed: 20, DistanceDriven: 300, EnergyUsed: 1, ElapsedTime: 30},
	})
	assert.Equal(t, 2, m.Vehicles)
	assert.InDelta(t, 15, m.AvgSpeed, 1e-9)
	assert.InDelta(t, 400, m.TotalDistance, 1e-9)
	assert.InDelta(t, 1.5, m.TotalEnergy, 1e-9)
	assert.Equal(t, 30.0, m.MaxElapsedTime)
	assert.InDelta(t, 54, m.AvgSpeedKmh(), 1e-9)
	assert.InDelta(t, 0.4, m.TotalDistanceKm(), 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Metrics{}, Summarize(nil))
	assert.Equal(t, Metrics{}, Summarize([]model.VehicleState{}))
}

func TestBuildReport(t *testing.T) {
	rep := BuildReport([]Reading{
		{State: model.VehicleState{CurrentSpeed: 10, EnergyUsed: 6}, BatteryKWh: 60},
		{State: model.VehicleState{CurrentSpeed: 30, EnergyUsed: 100}, BatteryKWh: 0},
	})
	// (90% + 0%) / 2
	assert.InDelta(t, 45, rep.BatteryPercent, 1e-9)
	// avg 20 m/s = 72 km/h
	assert.InDelta(t, 64, rep.EcoScore, 1e-9)
}

func TestBuildReportEmpty(t *testing.T) {
	rep := BuildReport(nil)
	assert.Equal(t, 100.0, rep.BatteryPercent)
	assert.Equal(t, 100.0, rep.EcoScore)
	assert.Zero(t, rep.Vehicles)
}

func TestEcoScoreFloor(t *testing.T) {
	assert.Equal(t, 0.0, EcoScore(250))
}

func TestTimelineEvictsOldest(t *testing.T) {
	tl := NewTimeline(2)
	base := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		tl.Append(Sample{Time: base.Add(time.Duration(i) * time.Second)})
	}
	s := tl.Samples()
	require.Len(t, s, 2)
	assert.Equal(t, base.Add(time.Second), s[0].Time)
	assert.Equal(t, base.Add(2*time.Second), s[1].Time)

	tl.Clear()
	assert.Empty(t, tl.Samples())
}
