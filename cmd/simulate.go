package cmd

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evroute/app"
	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/dashboard"
	"github.com/kilianp07/evroute/core/simulation"
	"github.com/kilianp07/evroute/pkg/export"
)

type simulateOptions struct {
	From       string
	To         string
	Vehicles   []string
	Speed      float64
	MaxSeconds float64
	Format     string
	Timeline   bool
}

var simOpts simulateOptions

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one trip headless and print the results",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simOpts.From, "from", "", "start location (configured selection when empty)")
	f.StringVar(&simOpts.To, "to", "", "end location (configured selection when empty)")
	f.StringSliceVar(&simOpts.Vehicles, "vehicles", nil, "vehicle types to drive (all active when empty)")
	f.Float64Var(&simOpts.Speed, "speed", 0, "speed factor (configured value when 0)")
	f.Float64Var(&simOpts.MaxSeconds, "max-seconds", 600, "stop after this many simulated seconds")
	f.StringVarP(&simOpts.Format, "format", "f", "table", "output format: table, json or yaml")
	f.BoolVar(&simOpts.Timeline, "timeline", false, "include the sampled dashboard timeline")
	rootCmd.AddCommand(simulateCmd)
}

type vehicleResult struct {
	Type           string  `json:"type" yaml:"type"`
	Name           string  `json:"name" yaml:"name"`
	Arrived        bool    `json:"arrived" yaml:"arrived"`
	DistanceM      float64 `json:"distance_m" yaml:"distance_m"`
	EnergyKWh      float64 `json:"energy_kwh" yaml:"energy_kwh"`
	ElapsedS       float64 `json:"elapsed_s" yaml:"elapsed_s"`
	AvgSpeedKmh    float64 `json:"avg_speed_kmh" yaml:"avg_speed_kmh"`
	BatteryPercent float64 `json:"battery_percent" yaml:"battery_percent"`
	Error          string  `json:"error,omitempty" yaml:"error,omitempty"`
}

type timelineEntry struct {
	ElapsedS       float64 `json:"elapsed_s" yaml:"elapsed_s"`
	AvgSpeedKmh    float64 `json:"avg_speed_kmh" yaml:"avg_speed_kmh"`
	TotalDistanceM float64 `json:"total_distance_m" yaml:"total_distance_m"`
	TotalEnergyKWh float64 `json:"total_energy_kwh" yaml:"total_energy_kwh"`
	EcoScore       float64 `json:"eco_score" yaml:"eco_score"`
}

type simulationResult struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	From        string          `json:"from" yaml:"from"`
	To          string          `json:"to" yaml:"to"`
	Route       []string        `json:"route" yaml:"route"`
	SpeedFactor float64         `json:"speed_factor" yaml:"speed_factor"`
	Frames      int             `json:"frames" yaml:"frames"`
	Completed   bool            `json:"completed" yaml:"completed"`
	Vehicles    []vehicleResult `json:"vehicles" yaml:"vehicles"`
	Timeline    []timelineEntry `json:"timeline,omitempty" yaml:"timeline,omitempty"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res, err := simulate(cfg, simOpts)
	if err != nil {
		return err
	}
	return writeResult(cmd.OutOrStdout(), simOpts.Format, res)
}

// simulate drives one run frame by frame on a synthetic clock until every
// vehicle has stopped or MaxSeconds of simulated time have passed.
func simulate(cfg *config.Config, opts simulateOptions) (simulationResult, error) {
	net, err := cfg.Network.Build()
	if err != nil {
		return simulationResult{}, err
	}
	catalog, err := cfg.Vehicles.Catalog()
	if err != nil {
		return simulationResult{}, err
	}
	speed := opts.Speed
	if speed == 0 {
		speed = cfg.Simulation.SpeedFactor
	}
	ctrl, err := simulation.New(simulation.Options{
		Network:     net,
		Catalog:     catalog,
		SpeedFactor: speed,
		Start:       cfg.Simulation.Start,
		End:         cfg.Simulation.End,
	})
	if err != nil {
		return simulationResult{}, err
	}
	for _, t := range cfg.Vehicles.Active {
		if err := ctrl.AddVehicle(t); err != nil {
			return simulationResult{}, err
		}
	}
	from, to := ctrl.Selection()
	if opts.From != "" {
		from = opts.From
	}
	if opts.To != "" {
		to = opts.To
	}

	timeline := dashboard.NewTimeline(cfg.Dashboard.TimelineLimit)
	driver := app.NewFrameDriver(ctrl, app.DriverOptions{
		FrameRate:   cfg.Simulation.FrameRate,
		SampleEvery: cfg.Metrics.SampleEvery,
		Timeline:    timeline,
	})
	rep, err := ctrl.Start(from, to, opts.Vehicles)
	if err != nil {
		return simulationResult{}, err
	}

	frameDelta := 1 / float64(cfg.Simulation.FrameRate)
	maxFrames := int(math.Round(opts.MaxSeconds * float64(cfg.Simulation.FrameRate) / speed))
	clock := time.Unix(0, 0).UTC()
	res := simulationResult{RunID: rep.RunID, From: from, To: to, Route: rep.Route, SpeedFactor: speed}
	for res.Frames < maxFrames && ctrl.Status().Moving > 0 {
		clock = clock.Add(time.Duration(frameDelta * float64(time.Second)))
		driver.Frame(frameDelta, clock)
		res.Frames++
	}
	res.Completed = ctrl.Status().Moving == 0

	for _, s := range ctrl.Snapshot() {
		v := vehicleResult{
			Type:           s.Type,
			Name:           s.Name,
			DistanceM:      s.State.DistanceDriven,
			EnergyKWh:      s.State.EnergyUsed,
			ElapsedS:       s.State.ElapsedTime,
			BatteryPercent: dashboard.BatteryPercent(s.State.EnergyUsed, s.BatteryKWh),
		}
		if s.State.ElapsedTime > 0 {
			v.AvgSpeedKmh = s.State.DistanceDriven / s.State.ElapsedTime * 3.6
		}
		if ferr, failed := rep.Failed[s.Type]; failed {
			v.Error = ferr.Error()
		} else {
			v.Arrived = !s.State.Moving && s.State.DistanceDriven > 0
		}
		res.Vehicles = append(res.Vehicles, v)
	}
	if opts.Timeline {
		for _, smp := range timeline.Samples() {
			res.Timeline = append(res.Timeline, timelineEntry{
				ElapsedS:       smp.MaxElapsedTime,
				AvgSpeedKmh:    smp.AvgSpeedKmh(),
				TotalDistanceM: smp.TotalDistance,
				TotalEnergyKWh: smp.TotalEnergy,
				EcoScore:       smp.EcoScore,
			})
		}
	}
	return res, nil
}

func writeResult(w io.Writer, format string, res simulationResult) error {
	switch format {
	case export.FormatJSON:
		return export.WriteJSON(w, res)
	case export.FormatYAML:
		return export.WriteYAML(w, res)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "run %s: %s -> %s (%d frames at x%g)\n", res.RunID, res.From, res.To, res.Frames, res.SpeedFactor)
		fmt.Fprintln(tw, "VEHICLE\tARRIVED\tDISTANCE (m)\tENERGY (kWh)\tTIME (s)\tAVG (km/h)\tBATTERY (%)")
		for _, v := range res.Vehicles {
			fmt.Fprintf(tw, "%s\t%t\t%.1f\t%.4f\t%.1f\t%.1f\t%.2f\n",
				v.Type, v.Arrived, v.DistanceM, v.EnergyKWh, v.ElapsedS, v.AvgSpeedKmh, v.BatteryPercent)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
