package exporter

import (
	"fmt"
	"log/slog"
	"math"

	"seacatgo/pkg/format"
	"seacatgo/pkg/geo"
	"seacatgo/pkg/logging"
	"seacatgo/pkg/model"
	"seacatgo/pkg/trace"
	"seacatgo/pkg/turn"
)

// walk translates the maneuver sequence into the body of the script.
func (e *Exporter) walk(st *state, plan *model.Plan) error {
	for i := range plan.Maneuvers {
		m := &plan.Maneuvers[i]
		speed := m.Speed.MPS()

		switch m.Kind {
		case model.KindPath:
			e.maneuverHeader(st, m)
			if err := e.walkPath(st, m, speed); err != nil {
				return fmt.Errorf("maneuver %q: %w", m.ID, err)
			}
		case model.KindStationKeeping:
			e.maneuverHeader(st, m)
			wp := m.Location
			if err := keepPosition(st, wp, m.Duration); err != nil {
				return fmt.Errorf("maneuver %q: %w", m.ID, err)
			}
			st.mark(trace.KindWaypoint, m.ID, wp.Position())
		case model.KindGoto:
			if math.IsNaN(speed) {
				slog.Debug("Goto without usable speed skipped", "maneuver", m.ID, "units", m.Speed.Units)
				continue
			}
			e.maneuverHeader(st, m)
			wp := m.Location
			if err := gotoCommand(st, wp.Position(), wp, speed); err != nil {
				return fmt.Errorf("maneuver %q: %w", m.ID, err)
			}
			st.mark(trace.KindWaypoint, m.ID, wp.Position())
		default:
			slog.Warn("Unsupported maneuver skipped", "maneuver", m.ID, "kind", m.Kind, "plan", plan.ID)
		}

		st.b.Gap(e.opts.ManeuverGap)
		st.b.Blank()
	}
	return nil
}

// walkPath runs the straight/curve state machine over the waypoints of a
// path maneuver. Turn detection only applies to rows surveys, needs a known
// incoming heading and is never attempted right after a turn.
func (e *Exporter) walkPath(st *state, m *model.Maneuver, speed float64) error {
	var prev *model.Waypoint
	heading := math.NaN()
	prevWasCurve := false

	for i := range m.Waypoints {
		wp := &m.Waypoints[i]
		if prev != nil {
			next := geo.Heading(prev.Position(), wp.Position())
			curved := false
			if !math.IsNaN(heading) && !prevWasCurve && m.IsRectilinearSurvey() {
				if delta, ok := turn.Detect(heading, next); ok {
					t := turn.Synthesize(prev.Position(), wp.Position(), heading, delta, st.turnRadius)
					logging.Trace(slog.Default(), "Turn synthesized",
						"maneuver", m.ID,
						"waypoint", i,
						"regime", t.Regime,
						"direction", t.Direction,
						"delta_deg", delta*180/math.Pi)
					if err := e.emitTurn(st, m.ID, *wp, t, speed); err != nil {
						return err
					}
					curved = true
				}
			}
			heading = next
			if curved {
				prev = wp
				prevWasCurve = true
				continue
			}
		}

		if err := gotoCommand(st, wp.Position(), *wp, speed); err != nil {
			return err
		}
		st.mark(trace.KindWaypoint, m.ID, wp.Position())
		prev = wp
		prevWasCurve = false
	}
	return nil
}

// emitTurn writes the commands of a synthesized turn, bracketed by acoustic
// repeat settings when those are armed.
func (e *Exporter) emitTurn(st *state, maneuver string, wp model.Waypoint, t turn.Turn, speed float64) error {
	if _, err := turn.DepthMode(wp.ZUnits); err != nil {
		return err
	}

	if st.acomsOnCurves {
		st.b.Setting('Q', "Acoms", format.Integer(int64(st.acomsRepetitions)), "0")
	}

	for _, seg := range t.Segments {
		var err error
		switch seg.Kind {
		case turn.Curve:
			err = curveCommand(st, seg.Target, seg.Center, t.Direction, wp, speed)
		case turn.Straight:
			err = gotoCommand(st, seg.Target, wp, speed)
		}
		if err != nil {
			return err
		}
	}

	if st.acomsOnCurves {
		st.b.Setting('Q', "Acoms", "0")
	}

	for _, seg := range t.Segments {
		if seg.Kind == turn.Curve {
			st.mark(trace.KindCenter, maneuver, seg.Center)
		}
		kind := trace.KindArc
		if seg.Target == wp.Position() {
			kind = trace.KindWaypoint
		}
		st.mark(kind, maneuver, seg.Target)
	}
	if t.Regime == turn.Tight {
		st.mark(trace.KindControl, maneuver, t.Control)
	}
	return nil
}

// C n A Goto <lat> <lon> <depth> <mode> <speed>
func gotoCommand(st *state, target geo.Point, wp model.Waypoint, speed float64) error {
	mode, err := turn.DepthMode(wp.ZUnits)
	if err != nil {
		return err
	}
	st.b.Command('A', "Goto",
		format.Real(target.Lat, format.DefaultPlaces),
		format.Real(target.Lon, format.DefaultPlaces),
		format.Real(wp.Z, 1),
		mode,
		format.Real(speed, 1))
	return nil
}

// C n C Curve <target-lat> <target-lon> <center-lat> <center-lon> <R|L> <depth> <mode> <speed>
func curveCommand(st *state, target, center geo.Point, dir turn.Direction, wp model.Waypoint, speed float64) error {
	mode, err := turn.DepthMode(wp.ZUnits)
	if err != nil {
		return err
	}
	st.b.Command('C', "Curve",
		format.Real(target.Lat, format.DefaultPlaces),
		format.Real(target.Lon, format.DefaultPlaces),
		format.Real(center.Lat, format.DefaultPlaces),
		format.Real(center.Lon, format.DefaultPlaces),
		dir.String(),
		format.Real(wp.Z, 1),
		mode,
		format.Real(speed, 1))
	return nil
}

// C n K KeepPosition <lat> <lon> <depth> <mode> <seconds>
func keepPosition(st *state, wp model.Waypoint, seconds int64) error {
	mode, err := turn.DepthMode(wp.ZUnits)
	if err != nil {
		return err
	}
	st.b.Command('K', "KeepPosition",
		format.Real(wp.Lat, format.DefaultPlaces),
		format.Real(wp.Lon, format.DefaultPlaces),
		format.Real(wp.Z, 1),
		mode,
		format.Integer(seconds))
	return nil
}

// C n Z MissionEnd <P|D>
func missionEnd(st *state) {
	v := "D"
	if st.keepPosition {
		v = "P"
	}
	st.b.Command('Z', "MissionEnd", v)
}
