package exporter

import (
	"log/slog"
	"strconv"
	"strings"

	"seacatgo/pkg/format"
	"seacatgo/pkg/model"
)

// Actions with dedicated settings instead of a generic payload line.
const (
	actionObstacleAvoidance = "ObstacleAvoidance"
	actionExternalControl   = "ExternalControl"
	actionAcoms             = "Acoms"

	paramActive          = "Active"
	paramRepetitions     = "Repetitions"
	paramInterval        = "Interval"
	paramMissionCritical = "Mission Critical"

	acomsOnCurvesInterval = -1
)

// maneuverHeader writes the maneuver comment and payload settings, then
// reserves the payload gap before the trajectory commands.
func (e *Exporter) maneuverHeader(st *state, m *model.Maneuver) {
	st.b.Comment(m.ID)
	for _, a := range m.StartActions {
		e.action(st, a)
	}
	st.b.Gap(e.opts.PayloadGap)
}

func (e *Exporter) action(st *state, a model.Action) {
	switch a.Name {
	case actionObstacleAvoidance:
		if on, ok := firstFlag(a); ok {
			st.b.Setting('O', actionObstacleAvoidance, flag(on))
		}
	case actionExternalControl:
		if on, ok := firstFlag(a); ok {
			st.b.Setting('R', actionExternalControl, flag(on))
		}
	case actionAcoms:
		e.acoms(st, a)
	default:
		e.payload(st, a)
	}
}

// S n Q Acoms <repetitions> <interval> | S n Q Acoms 0
//
// The first parameter is the auto send flag. An interval of -1 asks for the
// acoustic messages to be sent around every synthesized turn instead.
func (e *Exporter) acoms(st *state, a model.Action) {
	autoSend, ok := firstFlag(a)
	if !ok {
		return
	}
	if !autoSend {
		st.acomsOnCurves = false
		st.b.Setting('Q', actionAcoms, "0")
		return
	}

	st.acomsRepetitions = e.opts.AcomsRepetitions
	if p, found := a.Param(paramRepetitions); found {
		n, err := strconv.Atoi(strings.TrimSpace(p.Value))
		if err != nil {
			slog.Warn("Invalid Acoms repetitions, using default", "value", p.Value, "default", e.opts.AcomsRepetitions)
		} else {
			st.acomsRepetitions = n
		}
	}

	interval := "0"
	st.acomsOnCurves = false
	if p, found := a.Param(paramInterval); found {
		interval = strings.TrimSpace(p.Value)
		n, err := strconv.Atoi(interval)
		if err != nil {
			slog.Warn("Invalid Acoms interval", "value", p.Value)
		}
		st.acomsOnCurves = err == nil && n == acomsOnCurvesInterval
	}

	if st.acomsOnCurves {
		st.b.Setting('Q', actionAcoms, "0")
		return
	}
	st.b.Setting('Q', actionAcoms, format.Integer(int64(st.acomsRepetitions)), interval)
}

// payload writes a generic payload setting, e.g.
//
//	S 3 P Edgetech2205 RANGE:50;GAIN:100;OPMODE:HF;PING:ON_LOG;
//
// Every pair is terminated by ';'. The Active parameter is renamed to the
// payload's active keyword. When it is false the payload is scheduled for
// shutdown at mission end and the remaining parameters are dropped, leaving
// that last pair unterminated.
func (e *Exporter) payload(st *state, a model.Action) {
	var sb strings.Builder
	for _, p := range a.Params {
		isActive := strings.EqualFold(strings.TrimSpace(p.Name), paramActive)
		name := format.Name(p.Name)
		if isActive {
			name = strings.ToUpper(e.tables.ActiveKeyword(a.Name))
		}

		sb.WriteString(name)
		sb.WriteString(":")
		sb.WriteString(e.formatter.PayloadValue(name, p.Value))

		if isActive {
			if on, _ := format.ParseBool(p.Value); !on {
				st.recordShutdown(a.Name)
				break
			}
		}
		sb.WriteString(";")
	}

	if sb.Len() == 0 {
		st.b.Setting('P', a.Name)
		return
	}
	st.b.Setting('P', a.Name, sb.String())
}

// shutdownSection disables the runtime settings and switches off every
// payload recorded for shutdown.
func (e *Exporter) shutdownSection(st *state) {
	st.b.Comment("Ending")
	st.b.Setting('O', actionObstacleAvoidance, flag(false))
	st.b.Setting('R', actionExternalControl, flag(false))
	for _, name := range st.shutdown {
		kw := strings.ToUpper(e.tables.ActiveKeyword(name))
		st.b.Setting('P', name, kw+":OFF")
	}
}

func firstFlag(a model.Action) (on, ok bool) {
	if len(a.Params) == 0 {
		slog.Warn("Action without parameters ignored", "action", a.Name)
		return false, false
	}
	on, _ = format.ParseBool(a.Params[0].Value)
	return on, true
}

func flag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
