package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
id: survey-01
vehicle: seacat-mk1-01
start_actions:
  - name: General
    params:
      - {name: LowBatteryState, value: " 25 "}
      - {name: EmergencyEnd, value: D}
  - name: Limits
    params:
      - {name: SafeAltitude, value: 3.5}
  - name: Edgetech2205
    params:
      - {name: Mission Critical, value: true}
maneuvers:
  - id: rows1
    kind: path
    pattern: rows
    speed: {value: 2, units: knots}
    waypoints:
      - {lat: 38.0, lon: -9.0, z: 5, z_units: DEPTH}
      - {lat: 38.001, lon: -9.0, z: 5, z_units: depth}
  - id: sk1
    kind: station-keeping
    duration: 60
    location: {lat: 38.0, lon: -9.0, z: 0, z_units: depth}
operation_area: {lat: 38.0, lon: -9.0, width: 100, length: 200, rotation: 0}
rendezvous:
  - {lat: 38.1, lon: -9.1}
`

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan([]byte(samplePlan))
	require.NoError(t, err)

	assert.Equal(t, "survey-01", p.ID)
	assert.Equal(t, "seacat-mk1-01", p.Vehicle)
	require.Len(t, p.Maneuvers, 2)

	rows := p.Maneuvers[0]
	assert.Equal(t, KindPath, rows.Kind)
	assert.True(t, rows.IsRectilinearSurvey())
	require.Len(t, rows.Waypoints, 2)
	assert.Equal(t, ZDepth, rows.Waypoints[0].ZUnits)

	sk := p.Maneuvers[1]
	assert.Equal(t, KindStationKeeping, sk.Kind)
	assert.False(t, sk.IsRectilinearSurvey())
	assert.Equal(t, int64(60), sk.Duration)

	require.NotNil(t, p.OperationArea)
	assert.Equal(t, 200.0, p.OperationArea.Length)
	require.Len(t, p.Rendezvous, 1)

	crit, ok := p.StartActions[2].Param("mission critical")
	require.True(t, ok)
	assert.Equal(t, "true", crit.Value)
}

func TestPlanSettings(t *testing.T) {
	p, err := ParsePlan([]byte(samplePlan))
	require.NoError(t, err)

	settings := p.Settings()
	assert.Equal(t, "25", settings[SettingLowBatteryState])
	assert.Equal(t, "D", settings[SettingEmergencyEnd])
	assert.Equal(t, "3.5", settings[SettingSafeAltitude])
	_, ok := settings["Mission Critical"]
	assert.False(t, ok, "payload parameters must not leak into settings")
}

func TestParsePlan_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"MissingID", "maneuvers: []\n"},
		{"UnknownField", "id: a\nbogus: 1\n"},
		{"UnknownZUnits", "id: a\nmaneuvers:\n  - id: g\n    kind: goto\n    location: {z_units: fathoms}\n"},
		{"DuplicateManeuver", "id: a\nmaneuvers:\n  - id: g\n    kind: goto\n  - id: g\n    kind: goto\n"},
		{"UnnamedManeuver", "id: a\nmaneuvers:\n  - kind: goto\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tt.data))
			if !errors.Is(err, ErrInvalidPlan) {
				t.Errorf("expected ErrInvalidPlan, got %v", err)
			}
		})
	}
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0o644))

	p, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, "survey-01", p.ID)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSpeedMPS(t *testing.T) {
	tests := []struct {
		speed Speed
		want  float64
	}{
		{Speed{Value: 1.5, Units: "m/s"}, 1.5},
		{Speed{Value: 2, Units: ""}, 2},
		{Speed{Value: 3, Units: "knots"}, 3 * 1852.0 / 3600.0},
		{Speed{Value: 36, Units: "km/h"}, 10},
		{Speed{Value: 1000, Units: "rpm"}, math.NaN()},
		{Speed{Value: 50, Units: "%"}, math.NaN()},
	}

	for _, tt := range tests {
		got := tt.speed.MPS()
		if math.IsNaN(tt.want) {
			assert.True(t, math.IsNaN(got), "%v should be undefined", tt.speed)
			continue
		}
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}

func TestCanonicalStable(t *testing.T) {
	p1, err := ParsePlan([]byte(samplePlan))
	require.NoError(t, err)
	p2, err := ParsePlan([]byte(samplePlan))
	require.NoError(t, err)

	c1, err := p1.Canonical()
	require.NoError(t, err)
	c2, err := p2.Canonical()
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}
