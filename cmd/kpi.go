package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evroute/config"
	eco "github.com/kilianp07/evroute/core/metrics/eco"
	"github.com/kilianp07/evroute/core/triplog"
	"github.com/kilianp07/evroute/jobs/ecokpi"
	"github.com/kilianp07/evroute/pkg/export"
)

var kpiOpts struct {
	days    int
	vehicle string
	format  string
}

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Summarise daily eco KPIs from the trip log",
	RunE:  runKPI,
}

func init() {
	kpiCmd.Flags().IntVar(&kpiOpts.days, "days", 7, "number of days to include")
	kpiCmd.Flags().StringVar(&kpiOpts.vehicle, "vehicle", "", "vehicle type (all active types when empty)")
	kpiCmd.Flags().StringVarP(&kpiOpts.format, "format", "f", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(kpiCmd)
}

type kpiRow struct {
	Vehicle    string  `json:"vehicle" yaml:"vehicle"`
	Date       string  `json:"date" yaml:"date"`
	Trips      int     `json:"trips" yaml:"trips"`
	DistanceKm float64 `json:"distance_km" yaml:"distance_km"`
	EnergyKWh  float64 `json:"energy_kwh" yaml:"energy_kwh"`
	Efficiency float64 `json:"kwh_per_100km" yaml:"kwh_per_100km"`
	CO2Avoided float64 `json:"co2_avoided_g" yaml:"co2_avoided_g"`
}

func runKPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rows, err := collectKPIs(cmd.Context(), cfg, kpiOpts.vehicle, kpiOpts.days, time.Now())
	if err != nil {
		return err
	}
	return writeKPIs(cmd.OutOrStdout(), kpiOpts.format, rows)
}

func collectKPIs(ctx context.Context, cfg *config.Config, vehicle string, days int, now time.Time) ([]kpiRow, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}
	trips, err := triplog.Open(cfg.TripLog)
	if err != nil {
		return nil, fmt.Errorf("trip log: %w", err)
	}
	defer func() { _ = trips.Close() }()

	start := eco.Day(now).AddDate(0, 0, 1-days)
	store := eco.NewMemoryStore()
	if _, err := ecokpi.Backfill(ctx, trips, store, triplog.Query{Start: start, Vehicle: vehicle}); err != nil {
		return nil, fmt.Errorf("backfill: %w", err)
	}

	types := cfg.Vehicles.Active
	if vehicle != "" {
		types = []string{vehicle}
	}
	var rows []kpiRow
	for _, t := range types {
		recs, err := store.Query(t, start, now)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			rows = append(rows, kpiRow{
				Vehicle:    t,
				Date:       r.Date.Format("2006-01-02"),
				Trips:      r.Trips,
				DistanceKm: r.DistanceKm,
				EnergyKWh:  r.EnergyKWh,
				Efficiency: r.Efficiency(),
				CO2Avoided: r.CO2Avoided(cfg.Metrics.ICEFactor, cfg.Metrics.GridFactor),
			})
		}
	}
	return rows, nil
}

func writeKPIs(w io.Writer, format string, rows []kpiRow) error {
	switch format {
	case export.FormatJSON:
		return export.WriteJSON(w, rows)
	case export.FormatYAML:
		return export.WriteYAML(w, rows)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VEHICLE\tDATE\tTRIPS\tDISTANCE (km)\tENERGY (kWh)\tkWh/100km\tCO2 AVOIDED (g)")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.3f\t%.4f\t%.2f\t%.1f\n",
				r.Vehicle, r.Date, r.Trips, r.DistanceKm, r.EnergyKWh, r.Efficiency, r.CO2Avoided)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
