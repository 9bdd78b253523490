package model

import (
	"fmt"
	"math"
	"strings"

	"seacatgo/pkg/geo"
)

// Kind discriminates the maneuver variants.
type Kind string

const (
	KindPath           Kind = "path"
	KindStationKeeping Kind = "station-keeping"
	KindGoto           Kind = "goto"
)

// Path patterns. Only the rows family is laid out with 90 degree turns.
const (
	PatternRows        = "rows"
	PatternRowsPattern = "rows-pattern"
	PatternCrossHatch  = "cross-hatch"
	PatternRI          = "ri-pattern"
	PatternTrajectory  = "trajectory"
)

// Global setting keys read from the General/Limits start actions.
const (
	SettingLowBatteryState = "LowBatteryState"
	SettingEmergencyEnd    = "EmergencyEnd"
	SettingSafeAltitude    = "SafeAltitude"
	SettingCurveRadius     = "CurveRadiusAt3knots"
)

// ZUnits is the vertical reference of a waypoint.
type ZUnits string

const (
	ZNone     ZUnits = "none"
	ZDepth    ZUnits = "depth"
	ZAltitude ZUnits = "altitude"
	ZHeight   ZUnits = "height"
)

// Waypoint is a single geo-referenced point with a vertical reference.
type Waypoint struct {
	Lat    float64 `yaml:"lat" json:"lat"`
	Lon    float64 `yaml:"lon" json:"lon"`
	Z      float64 `yaml:"z" json:"z"`
	ZUnits ZUnits  `yaml:"z_units" json:"z_units"`
}

// Position returns the horizontal position of the waypoint.
func (w Waypoint) Position() geo.Point {
	return geo.Point{Lat: w.Lat, Lon: w.Lon}
}

// Param is a named parameter of an action. Values are kept as text.
type Param struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Action is a named parameter set, e.g. a payload configuration.
type Action struct {
	Name   string  `yaml:"name" json:"name"`
	Params []Param `yaml:"params" json:"params"`
}

// Param returns the parameter with the given name (case-insensitive).
func (a Action) Param(name string) (Param, bool) {
	for _, p := range a.Params {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Param{}, false
}

// Speed is a maneuver speed with its units.
type Speed struct {
	Value float64 `yaml:"value" json:"value"`
	Units string  `yaml:"units" json:"units"` // m/s, knots, km/h, rpm, %
}

// MPS returns the speed in meters per second.
// RPM and percentage speeds cannot be converted and yield NaN.
func (s Speed) MPS() float64 {
	switch strings.ToLower(strings.TrimSpace(s.Units)) {
	case "m/s", "mps", "":
		return s.Value
	case "knots", "knot", "kn", "kt":
		return s.Value * 1852.0 / 3600.0
	case "km/h", "kph":
		return s.Value / 3.6
	default:
		return math.NaN()
	}
}

// Maneuver is a tagged variant over the supported maneuver kinds.
// Path uses Pattern and Waypoints, StationKeeping uses Location and Duration,
// Goto uses Location.
type Maneuver struct {
	ID           string     `yaml:"id" json:"id"`
	Kind         Kind       `yaml:"kind" json:"kind"`
	Speed        Speed      `yaml:"speed" json:"speed"`
	StartActions []Action   `yaml:"start_actions,omitempty" json:"start_actions,omitempty"`
	Pattern      string     `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Waypoints    []Waypoint `yaml:"waypoints,omitempty" json:"waypoints,omitempty"`
	Location     Waypoint   `yaml:"location,omitempty" json:"location,omitempty"`
	Duration     int64      `yaml:"duration,omitempty" json:"duration,omitempty"` // seconds
}

// IsRectilinearSurvey reports whether the path is a rows survey whose
// consecutive legs meet at right angles.
func (m *Maneuver) IsRectilinearSurvey() bool {
	return m.Kind == KindPath && (m.Pattern == PatternRows || m.Pattern == PatternRowsPattern)
}

// Area is the rectangular operation (safety) area.
type Area struct {
	Lat         float64 `yaml:"lat" json:"lat"`
	Lon         float64 `yaml:"lon" json:"lon"`
	Width       float64 `yaml:"width" json:"width"`   // meters, east-west before rotation
	Length      float64 `yaml:"length" json:"length"` // meters, north-south before rotation
	RotationRad float64 `yaml:"rotation" json:"rotation"`
}

// LatLon is a plain position in degrees.
type LatLon struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// Plan is the vehicle-agnostic mission plan consumed by the exporter.
type Plan struct {
	ID            string     `yaml:"id" json:"id"`
	Vehicle       string     `yaml:"vehicle" json:"vehicle"`
	StartActions  []Action   `yaml:"start_actions,omitempty" json:"start_actions,omitempty"`
	Maneuvers     []Maneuver `yaml:"maneuvers" json:"maneuvers"`
	OperationArea *Area      `yaml:"operation_area,omitempty" json:"operation_area,omitempty"`
	Rendezvous    []LatLon   `yaml:"rendezvous,omitempty" json:"rendezvous,omitempty"`
}

// Settings flattens the parameters of the General and Limits start actions.
// Names and values are trimmed; later entries win.
func (p *Plan) Settings() map[string]string {
	ret := make(map[string]string)
	for _, a := range p.StartActions {
		if !strings.EqualFold(a.Name, "General") && !strings.EqualFold(a.Name, "Limits") {
			continue
		}
		for _, prm := range a.Params {
			ret[strings.TrimSpace(prm.Name)] = strings.TrimSpace(prm.Value)
		}
	}
	return ret
}

// Validate checks the structural requirements of a plan.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing plan id", ErrInvalidPlan)
	}
	seen := make(map[string]bool, len(p.Maneuvers))
	for i := range p.Maneuvers {
		m := &p.Maneuvers[i]
		if m.ID == "" {
			return fmt.Errorf("%w: maneuver %d has no id", ErrInvalidPlan, i)
		}
		if seen[m.ID] {
			return fmt.Errorf("%w: duplicate maneuver id %q", ErrInvalidPlan, m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}
