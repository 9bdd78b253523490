package exporter

import (
	"slices"

	"seacatgo/pkg/geo"
	"seacatgo/pkg/script"
	"seacatgo/pkg/trace"
)

// state is the mutable context of a single export. It is created by Export
// and never shared between calls.
type state struct {
	b *script.Builder

	// payloads switched off by an "Active: false" parameter, in first seen order
	shutdown []string

	keepPosition     bool
	turnRadius       float64
	acomsRepetitions int
	acomsOnCurves    bool

	trace []trace.Point
}

func newState(opts Options) *state {
	return &state{
		b:                script.NewBuilder(),
		keepPosition:     true,
		turnRadius:       opts.TurnRadius,
		acomsRepetitions: opts.AcomsRepetitions,
	}
}

func (s *state) recordShutdown(payload string) {
	if !slices.Contains(s.shutdown, payload) {
		s.shutdown = append(s.shutdown, payload)
	}
}

func (s *state) mark(kind trace.Kind, maneuver string, p geo.Point) {
	s.trace = append(s.trace, trace.Point{Kind: kind, Maneuver: maneuver, Pos: p})
}
