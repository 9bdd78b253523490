package exporter

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"seacatgo/pkg/format"
	"seacatgo/pkg/geo"
	"seacatgo/pkg/model"
	"seacatgo/pkg/script"
)

// H LowBatteryState 20
func (e *Exporter) sectionLowBatteryState(settings map[string]string) string {
	v := e.numericSetting(settings, model.SettingLowBatteryState, e.opts.LowBatteryState)
	return script.HeaderLine(model.SettingLowBatteryState, e.formatter.Value(model.SettingLowBatteryState, v, 0))
}

// H SafeAltitude 3.0
func (e *Exporter) sectionSafeAltitude(settings map[string]string) string {
	v := e.numericSetting(settings, model.SettingSafeAltitude, e.opts.SafeAltitude)
	return script.HeaderLine(model.SettingSafeAltitude, e.formatter.Value(model.SettingSafeAltitude, v, 1))
}

func (e *Exporter) numericSetting(settings map[string]string, key, def string) string {
	v, ok := settings[key]
	if !ok {
		return def
	}
	if !format.IsNumeric(v) {
		slog.Warn("Invalid plan setting, using default", "setting", key, "value", v, "default", def)
		return def
	}
	return v
}

// H EmergencyEnd P|D
//
// Only an explicit D selects drifting at the end; any other value keeps
// position.
func (e *Exporter) sectionEmergencyEnd(st *state, settings map[string]string) string {
	v, ok := settings[model.SettingEmergencyEnd]
	if !ok {
		v = e.opts.EmergencyEnd
	}
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "D":
		st.keepPosition = false
	case "P":
		st.keepPosition = true
	default:
		slog.Warn("Unknown emergency end, keeping position", "value", v)
		st.keepPosition = true
	}

	mode := "P"
	if !st.keepPosition {
		mode = "D"
	}
	return script.HeaderLine(model.SettingEmergencyEnd, mode)
}

// applyTurnRadius overrides the configured turn radius from the plan. An
// unusable value leaves the configured radius in effect.
func (e *Exporter) applyTurnRadius(st *state, settings map[string]string) {
	v, ok := settings[model.SettingCurveRadius]
	if !ok {
		return
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		slog.Warn("Invalid curve radius, keeping configured radius", "value", v, "radius", st.turnRadius)
		return
	}
	st.turnRadius = r
}

// H EmergencyRendezvousPoint 2
// 1 38.438316661 -9.1103307842
// 2 38.438317761 -9.1103309942
func sectionRendezvous(plan *model.Plan) string {
	if len(plan.Rendezvous) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(script.HeaderLine("EmergencyRendezvousPoint", strconv.Itoa(len(plan.Rendezvous))))
	for i, p := range plan.Rendezvous {
		row := script.Line{Kind: script.Row, Params: []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(p.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Lon, 'f', -1, 64),
		}}
		sb.WriteString(row.String())
		sb.WriteString(script.NewLine)
	}
	return sb.String()
}

// AutonomyCorners returns the four corners of the operation area, clockwise
// from the north-west corner of the unrotated rectangle. It returns nil when
// the plan has no operation area.
func AutonomyCorners(area *model.Area) []geo.Point {
	if area == nil {
		return nil
	}
	center := geo.Point{Lat: area.Lat, Lon: area.Lon}
	halfL, halfW := area.Length/2, area.Width/2
	offsets := [4][2]float64{
		{halfL, -halfW},
		{halfL, halfW},
		{-halfL, halfW},
		{-halfL, -halfW},
	}
	corners := make([]geo.Point, 0, len(offsets))
	for _, o := range offsets {
		n, e := geo.Rotate(area.RotationRad, o[0], o[1])
		corners = append(corners, geo.Translate(center, n, e))
	}
	return corners
}

// H AutonomyArea 4
// 1 <lat> <lon>
// ...
func sectionAutonomyArea(corners []geo.Point) string {
	if len(corners) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(script.HeaderLine("AutonomyArea", strconv.Itoa(len(corners))))
	for i, c := range corners {
		row := script.Line{Kind: script.Row, Params: []string{
			strconv.Itoa(i + 1),
			format.Real(c.Lat, format.DefaultPlaces),
			format.Real(c.Lon, format.DefaultPlaces),
		}}
		sb.WriteString(row.String())
		sb.WriteString(script.NewLine)
	}
	return sb.String()
}

// sectionExplorationArea is always empty; the vehicle derives it from the
// autonomy area.
func sectionExplorationArea() string {
	return ""
}

// checkAutonomyArea warns about every plan position lying outside the
// autonomy area. The vehicle aborts when it leaves the area, so such plans
// are most likely mistakes, but the export still goes ahead.
func checkAutonomyArea(plan *model.Plan, corners []geo.Point) int {
	if len(corners) == 0 {
		return 0
	}
	ring := make(orb.Ring, 0, len(corners)+1)
	for _, c := range corners {
		ring = append(ring, c.Orb())
	}
	ring = append(ring, corners[0].Orb())
	poly := orb.Polygon{ring}

	outside := 0
	check := func(m *model.Maneuver, wp model.Waypoint) {
		if !planar.PolygonContains(poly, wp.Position().Orb()) {
			outside++
			slog.Warn("Position outside autonomy area", "maneuver", m.ID, "lat", wp.Lat, "lon", wp.Lon)
		}
	}
	for i := range plan.Maneuvers {
		m := &plan.Maneuvers[i]
		switch m.Kind {
		case model.KindPath:
			for _, wp := range m.Waypoints {
				check(m, wp)
			}
		case model.KindStationKeeping, model.KindGoto:
			check(m, m.Location)
		}
	}
	return outside
}

// sectionPayloadCriticality lists every start action carrying a boolean
// "Mission Critical" parameter, split by whether the payload is permanently
// installed on the vehicle model:
//
//	H SystemPayload 2
//	1 C Edgetech2205
//	2 N MicronDST
//
// Each list is numbered on its own. The text carries no trailing newline.
func (e *Exporter) sectionPayloadCriticality(plan *model.Plan) (system, swap string) {
	var sbSystem, sbSwap strings.Builder
	nSystem, nSwap := 0, 0

	for _, a := range plan.StartActions {
		p, ok := a.Param(paramMissionCritical)
		if !ok {
			continue
		}
		if _, isBool := format.ParseBool(p.Value); !isBool {
			slog.Warn("Mission Critical is not a boolean, payload not listed", "payload", a.Name, "value", p.Value)
			continue
		}
		value := e.formatter.Boolean(p.Name, p.Value)

		sb, n := &sbSwap, &nSwap
		if e.tables.IsSystemPayload(plan.Vehicle, a.Name) {
			sb, n = &sbSystem, &nSystem
		}
		*n++
		sb.WriteString(script.NewLine)
		sb.WriteString(strconv.Itoa(*n))
		sb.WriteString(" ")
		sb.WriteString(value)
		sb.WriteString(" ")
		sb.WriteString(a.Name)
	}

	if nSystem > 0 {
		system = "H SystemPayload " + strconv.Itoa(nSystem) + sbSystem.String()
	}
	if nSwap > 0 {
		swap = "H SwapPayload " + strconv.Itoa(nSwap) + sbSwap.String()
	}
	return system, swap
}

// planChecksum is the MD5 of the canonical plan encoding, upper-case hex.
func planChecksum(plan *model.Plan) (string, error) {
	data, err := plan.Canonical()
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}
	sum := md5.Sum(data)
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}

// sectionBody renders the plan comment, the maneuvers, the shutdown settings
// and the final mission end command.
func (e *Exporter) sectionBody(st *state, plan *model.Plan, checksum string) error {
	st.b.Comment("Plan: ", plan.ID, " (MD5:", checksum, ")")
	st.b.Blank()

	if err := e.walk(st, plan); err != nil {
		return err
	}

	e.shutdownSection(st)
	st.b.Blank()
	missionEnd(st)
	return nil
}
