package app

import (
	"context"
	"time"

	"github.com/kilianp07/evroute/core/dashboard"
	"github.com/kilianp07/evroute/core/logger"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/core/simulation"
)

const msToKmh = 3.6

// Ticker delivers frame times. It matches time.Ticker so tests can drive
// frames by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// DriverOptions configures a FrameDriver.
type DriverOptions struct {
	// FrameRate is the number of frames per second, 60 by default.
	FrameRate int
	// SampleEvery is the number of frames between two telemetry samples.
	SampleEvery int
	Sink        coremetrics.MetricsSink
	Timeline    *dashboard.Timeline
	Logger      logger.Logger
	Clock       func() time.Time
	NewTicker   func(time.Duration) Ticker
}

// FrameDriver plays the host frame loop: it calls Controller.Tick with the
// real time elapsed since the previous frame and samples telemetry on a
// throttled cadence.
type FrameDriver struct {
	ctrl        *simulation.Controller
	sink        coremetrics.MetricsSink
	timeline    *dashboard.Timeline
	log         logger.Logger
	now         func() time.Time
	newTicker   func(time.Duration) Ticker
	interval    time.Duration
	sampleEvery int
	frames      int
	wasActive   bool
}

// NewFrameDriver creates a driver for ctrl.
func NewFrameDriver(ctrl *simulation.Controller, opts DriverOptions) *FrameDriver {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	if opts.SampleEvery <= 0 {
		opts.SampleEvery = 30
	}
	if opts.Sink == nil {
		opts.Sink = coremetrics.NopSink{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewTicker == nil {
		opts.NewTicker = func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }
	}
	return &FrameDriver{
		ctrl:        ctrl,
		sink:        opts.Sink,
		timeline:    opts.Timeline,
		log:         logger.OrNop(opts.Logger),
		now:         opts.Clock,
		newTicker:   opts.NewTicker,
		interval:    time.Second / time.Duration(opts.FrameRate),
		sampleEvery: opts.SampleEvery,
	}
}

// Run drives frames until ctx is canceled.
func (d *FrameDriver) Run(ctx context.Context) {
	t := d.newTicker(d.interval)
	defer t.Stop()
	last := d.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			now := d.now()
			d.Frame(now.Sub(last).Seconds(), now)
			last = now
		}
	}
}

// Frame advances the controller by realDelta seconds and samples every
// SampleEvery frames while vehicles are moving. The frame on which the
// fleet stops, or the run is paused, is always sampled so the final totals
// reach the sinks.
func (d *FrameDriver) Frame(realDelta float64, now time.Time) {
	d.ctrl.Tick(realDelta)
	st := d.ctrl.Status()
	active := st.Phase == simulation.PhaseRunning && st.Moving > 0
	if active {
		d.frames++
	}
	if (active && d.frames%d.sampleEvery == 0) || (d.wasActive && !active) {
		d.Sample(st.RunID, now)
	}
	d.wasActive = active
}

// Sample pushes the current vehicle states and dashboard to the sink and
// appends the dashboard to the timeline. Sink errors are logged.
func (d *FrameDriver) Sample(runID string, now time.Time) dashboard.Report {
	snap := d.ctrl.Snapshot()
	samples := make([]coremetrics.VehicleSample, len(snap))
	readings := make([]dashboard.Reading, len(snap))
	for i, s := range snap {
		samples[i] = coremetrics.VehicleSample{
			RunID:          runID,
			Vehicle:        s.Type,
			SpeedKmh:       s.State.CurrentSpeed * msToKmh,
			DistanceM:      s.State.DistanceDriven,
			EnergyKWh:      s.State.EnergyUsed,
			BatteryPercent: dashboard.BatteryPercent(s.State.EnergyUsed, s.BatteryKWh),
			SegmentIndex:   s.State.SegmentIndex,
			Moving:         s.State.Moving,
			Time:           now,
		}
		readings[i] = dashboard.Reading{State: s.State, BatteryKWh: s.BatteryKWh}
	}
	rep := dashboard.BuildReport(readings)
	if err := d.sink.RecordVehicleStates(samples); err != nil {
		d.log.Errorf("record vehicle states: %v", err)
	}
	if err := d.sink.RecordDashboard(DashboardSample(runID, rep, now)); err != nil {
		d.log.Errorf("record dashboard: %v", err)
	}
	if d.timeline != nil {
		d.timeline.Append(dashboard.Sample{Time: now, Report: rep})
	}
	return rep
}

// DashboardSample converts a report into its telemetry form.
func DashboardSample(runID string, rep dashboard.Report, now time.Time) coremetrics.DashboardSample {
	return coremetrics.DashboardSample{
		RunID:           runID,
		Vehicles:        rep.Vehicles,
		AvgSpeedKmh:     rep.AvgSpeedKmh(),
		TotalDistanceKm: rep.TotalDistanceKm(),
		TotalEnergyKWh:  rep.TotalEnergy,
		BatteryPercent:  rep.BatteryPercent,
		EcoScore:        rep.EcoScore,
		ElapsedSeconds:  rep.MaxElapsedTime,
		Time:            now,
	}
}
