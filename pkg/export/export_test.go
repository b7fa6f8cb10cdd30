package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evroute/core/dashboard"
	"github.com/kilianp07/evroute/core/triplog"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func samples() []dashboard.Sample {
	return []dashboard.Sample{
		{Time: t0, Report: dashboard.Report{
			Metrics:        dashboard.Metrics{Vehicles: 2, AvgSpeed: 10, TotalDistance: 1500, TotalEnergy: 0.25, MaxElapsedTime: 30},
			BatteryPercent: 99.5,
			EcoScore:       82,
		}},
		{Time: t0.Add(time.Second), Report: dashboard.Report{BatteryPercent: 100, EcoScore: 100}},
	}
}

func TestWriteTimelineCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTimelineCSV(&buf, samples()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, timelineHeader, rows[0])
	assert.Equal(t, []string{"2024-05-01T12:00:00Z", "2", "36", "1.5", "0.25", "99.5", "82", "30"}, rows[1])
	assert.Equal(t, "100", rows[2][6])
}

func TestWriteTripsCSV(t *testing.T) {
	trips := []triplog.Record{{
		ID: "t1", RunID: "r1", Vehicle: "nissan-leaf", From: "A", To: "B",
		Outcome: "path_not_found", EndedAt: t0, Error: "no path, really",
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteTripsCSV(&buf, trips))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, tripHeader, rows[0])
	assert.Equal(t, "", rows[1][6], "zero start time is left empty")
	assert.Equal(t, "2024-05-01T12:00:00Z", rows[1][7])
	assert.Equal(t, "no path, really", rows[1][12])
}

func TestWriteTimelineFormats(t *testing.T) {
	var js bytes.Buffer
	require.NoError(t, WriteTimeline(&js, FormatJSON, samples()))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.InDelta(t, 82, decoded[0]["eco_score"], 1e-9)

	var ys bytes.Buffer
	require.NoError(t, WriteTimeline(&ys, FormatYAML, samples()))
	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal(ys.Bytes(), &fromYAML))
	assert.Len(t, fromYAML, 2)

	assert.Error(t, WriteTimeline(&bytes.Buffer{}, "xml", samples()))
}

func TestWriteTripsDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrips(&buf, "", []triplog.Record{{ID: "t1", Vehicle: "tesla-model3"}}))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "["))
	assert.Contains(t, buf.String(), `"vehicle": "tesla-model3"`)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", ContentType(FormatCSV))
	assert.Equal(t, "application/yaml", ContentType(FormatYAML))
	assert.Equal(t, "application/json", ContentType("anything"))
}
