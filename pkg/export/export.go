// Package export writes dashboard timelines and trip records in JSON, CSV
// or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evroute/core/dashboard"
	"github.com/kilianp07/evroute/core/triplog"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v to w as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

var timelineHeader = []string{
	"time", "vehicles", "avg_speed_kmh", "total_distance_km", "total_energy_kwh",
	"battery_percent", "eco_score", "elapsed_s",
}

// WriteTimelineCSV writes dashboard samples to w, one row per sample.
func WriteTimelineCSV(w io.Writer, samples []dashboard.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(timelineHeader); err != nil {
		return err
	}
	for _, s := range samples {
		rec := []string{
			s.Time.UTC().Format(time.RFC3339Nano),
			strconv.Itoa(s.Vehicles),
			formatFloat(s.AvgSpeedKmh()),
			formatFloat(s.TotalDistanceKm()),
			formatFloat(s.TotalEnergy),
			formatFloat(s.BatteryPercent),
			formatFloat(s.EcoScore),
			formatFloat(s.MaxElapsedTime),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var tripHeader = []string{
	"id", "run_id", "vehicle", "from", "to", "outcome", "started_at", "ended_at",
	"distance_m", "energy_kwh", "duration_s", "waypoints", "error",
}

// WriteTripsCSV writes trip records to w, one row per trip.
func WriteTripsCSV(w io.Writer, trips []triplog.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tripHeader); err != nil {
		return err
	}
	for _, t := range trips {
		rec := []string{
			t.ID,
			t.RunID,
			t.Vehicle,
			t.From,
			t.To,
			t.Outcome,
			formatTime(t.StartedAt),
			formatTime(t.EndedAt),
			formatFloat(t.DistanceM),
			formatFloat(t.EnergyKWh),
			formatFloat(t.DurationS),
			strconv.Itoa(t.Waypoints),
			t.Error,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTimeline writes samples in the given format.
func WriteTimeline(w io.Writer, format string, samples []dashboard.Sample) error {
	switch format {
	case FormatCSV:
		return WriteTimelineCSV(w, samples)
	case FormatYAML:
		return WriteYAML(w, samples)
	case FormatJSON, "":
		return WriteJSON(w, samples)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteTrips writes trips in the given format.
func WriteTrips(w io.Writer, format string, trips []triplog.Record) error {
	switch format {
	case FormatCSV:
		return WriteTripsCSV(w, trips)
	case FormatYAML:
		return WriteYAML(w, trips)
	case FormatJSON, "":
		return WriteJSON(w, trips)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
