// Package exporter translates a mission plan into a SeaCat-MK1 mission
// script.
//
// An Exporter only holds immutable inputs (lookup tables, template and
// options) and may be shared between goroutines. Every Export call works on
// its own state: line counter, pending payload shutdowns, turn radius and
// acoustic settings start from the configured defaults each time.
package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"seacatgo/pkg/format"
	"seacatgo/pkg/model"
	"seacatgo/pkg/tables"
	"seacatgo/pkg/trace"
)

// DateLayout is the layout of the generation timestamp, e.g.
// "Tue Dec 15 13:34:50 2009 +0000".
const DateLayout = "Mon Jan 2 15:04:05 2006 -0700"

// Options are the export defaults. Plan settings override some of them for
// a single export.
type Options struct {
	TurnRadius       float64 // meters
	PayloadGap       int
	ManeuverGap      int
	AcomsRepetitions int
	LowBatteryState  string
	SafeAltitude     string
	EmergencyEnd     string
}

// DefaultOptions returns the stock SeaCat-MK1 defaults.
func DefaultOptions() Options {
	return Options{
		TurnRadius:       15,
		PayloadGap:       5,
		ManeuverGap:      10,
		AcomsRepetitions: 3,
		LowBatteryState:  "20",
		SafeAltitude:     "3.0",
		EmergencyEnd:     "P",
	}
}

// Result is a fully assembled mission script.
type Result struct {
	Document     string
	Lines        int // numbered S and C lines
	Checksum     string
	TurnRadius   float64
	KeepPosition bool
	Outside      int // plan positions outside the autonomy area
	Trace        []trace.Point
}

// Exporter writes SeaCat-MK1 mission scripts.
type Exporter struct {
	tables    *tables.Tables
	formatter *format.Formatter
	template  string
	opts      Options
	now       func() time.Time
}

// New creates an exporter. A nil table set behaves like empty tables and an
// empty template selects the built-in one.
func New(t *tables.Tables, template string, opts Options) *Exporter {
	if t == nil {
		t = tables.New(nil, nil, nil)
	}
	if template == "" {
		template = defaultTemplate
	}
	return &Exporter{
		tables:    t,
		formatter: format.New(t),
		template:  template,
		opts:      opts,
		now:       time.Now,
	}
}

// SetClock replaces the clock used for the generation timestamp.
func (e *Exporter) SetClock(now func() time.Time) {
	e.now = now
}

// Name is the human readable exporter name.
func (e *Exporter) Name() string {
	return "SeaCat-MK1 Mission File"
}

// Extensions lists the file extensions of exported documents.
func (e *Exporter) Extensions() []string {
	return []string{"txt"}
}

// Export builds the mission script for plan. Any error aborts the whole
// export; no partial document is returned.
func (e *Exporter) Export(plan *model.Plan) (*Result, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: nil plan", model.ErrInvalidPlan)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	st := newState(e.opts)
	settings := plan.Settings()

	values := map[string]string{
		KeyGenDate: e.now().Format(DateLayout),
	}
	values[KeyLowBatteryState] = e.sectionLowBatteryState(settings)
	values[KeyEmergencyEnd] = e.sectionEmergencyEnd(st, settings)
	values[KeySafeAltitude] = e.sectionSafeAltitude(settings)
	e.applyTurnRadius(st, settings)
	values[KeyEmergencyRendezvousPoint] = sectionRendezvous(plan)

	checksum, err := planChecksum(plan)
	if err != nil {
		return nil, err
	}
	if err := e.sectionBody(st, plan, checksum); err != nil {
		return nil, fmt.Errorf("export of plan %q failed: %w", plan.ID, err)
	}
	values[KeyBody] = st.b.String()

	corners := AutonomyCorners(plan.OperationArea)
	values[KeyAutonomyArea] = sectionAutonomyArea(corners)
	values[KeyExplorationArea] = sectionExplorationArea()
	values[KeySystemPayload], values[KeySwapPayload] = e.sectionPayloadCriticality(plan)

	res := &Result{
		Document:     Substitute(e.template, values),
		Lines:        st.b.Lines(),
		Checksum:     checksum,
		TurnRadius:   st.turnRadius,
		KeepPosition: st.keepPosition,
		Outside:      checkAutonomyArea(plan, corners),
		Trace:        st.trace,
	}

	slog.Debug("Plan exported",
		"plan", plan.ID,
		"maneuvers", len(plan.Maneuvers),
		"lines", res.Lines,
		"turn_radius", res.TurnRadius)
	return res, nil
}

// ExportToFile exports plan and writes the document to path. The file is
// written to a temporary file in the same directory and renamed into place,
// so path is either left untouched or holds the complete document.
func (e *Exporter) ExportToFile(plan *model.Plan, path string) (*Result, error) {
	res, err := e.Export(plan)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(path, res.Document); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return res, nil
}

func writeAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(dir, ".seacat-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}
