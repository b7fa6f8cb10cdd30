package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evroute/config"
	"github.com/kilianp07/evroute/core/network"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	out, err := execute(t, "route", network.StartPointA, network.OfficeBuilding)
	require.NoError(t, err)
	assert.Contains(t, out, "Start Point A -> Park Entrance -> Office Building")
	assert.Contains(t, out, "2 hops")
}

func TestRouteCommandUnknownLocation(t *testing.T) {
	_, err := execute(t, "route", network.StartPointA, "Moon Base")
	assert.Error(t, err)
}

func TestLocationsCommand(t *testing.T) {
	out, err := execute(t, "locations")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[4], network.ParkEntrance))
}

func TestSimulateDefaultScene(t *testing.T) {
	res, err := simulate(config.Default(), simulateOptions{MaxSeconds: 600})
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.Equal(t, network.StartPointA, res.From)
	assert.Equal(t, network.OfficeBuilding, res.To)
	assert.Equal(t, []string{network.StartPointA, network.ParkEntrance, network.OfficeBuilding}, res.Route)
	require.Len(t, res.Vehicles, 3)
	for _, v := range res.Vehicles {
		assert.True(t, v.Arrived, v.Type)
		assert.InDelta(t, 113.1, v.DistanceM, 1.5, v.Type)
		assert.Greater(t, v.EnergyKWh, 0.0)
		assert.Less(t, v.BatteryPercent, 100.0)
	}
}

func TestSimulateStopsAtMaxSeconds(t *testing.T) {
	res, err := simulate(config.Default(), simulateOptions{MaxSeconds: 1, Vehicles: []string{"tesla-model3"}, Timeline: true})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, 12, res.Frames)
}

func TestSimulateRejectsSameEndpoints(t *testing.T) {
	_, err := simulate(config.Default(), simulateOptions{From: network.ChargingHub, To: network.ChargingHub, MaxSeconds: 10})
	assert.Error(t, err)
}

func TestWriteResultYAML(t *testing.T) {
	res := simulationResult{RunID: "r1", From: "A", To: "B", Vehicles: []vehicleResult{{Type: "nissan-leaf", Arrived: true, DistanceM: 12.5}}}
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "yaml", res))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "r1", decoded["run_id"])
	vehicles, ok := decoded["vehicles"].([]any)
	require.True(t, ok)
	assert.Equal(t, "nissan-leaf", vehicles[0].(map[string]any)["type"])
	assert.NotContains(t, buf.String(), "timeline")

	assert.Error(t, writeResult(&buf, "xml", res))
}

func TestWriteResultTable(t *testing.T) {
	res := simulationResult{RunID: "r1", From: "A", To: "B", Vehicles: []vehicleResult{{Type: "nissan-leaf", Arrived: true}}}
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, "table", res))
	assert.Contains(t, buf.String(), "VEHICLE")
	assert.Contains(t, buf.String(), "nissan-leaf")
}
