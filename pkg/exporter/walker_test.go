package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seacatgo/pkg/format"
	"seacatgo/pkg/geo"
	"seacatgo/pkg/model"
	"seacatgo/pkg/script"
	"seacatgo/pkg/trace"
)

func TestWalk_StraightPaths(t *testing.T) {
	a := origin
	b := geo.Translate(a, 100, 0)
	c := geo.Translate(b, 0, 100)
	d := geo.Translate(c, 100, 0)

	tests := []struct {
		name     string
		maneuver model.Maneuver
	}{
		{"RowsCollinear", pathManeuver("m", model.PatternRows, a, b, geo.Translate(b, 100, 0))},
		{"RowsObliqueCorner", pathManeuver("m", model.PatternRows, a, b, geo.Translate(b, 100, 100))},
		{"TrajectoryWithCorner", pathManeuver("m", model.PatternTrajectory, a, b, c, d)},
		{"CrossHatchWithCorner", pathManeuver("m", model.PatternCrossHatch, a, b, c, d)},
		{"SingleWaypoint", pathManeuver("m", model.PatternRows, a)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, lines := mustExport(t, newTestExporter(), planOf(tt.maneuver))

			cmds := trajectory(lines)
			require.Len(t, cmds, len(tt.maneuver.Waypoints), "one goto per waypoint")
			for i, c := range cmds {
				wp := tt.maneuver.Waypoints[i]
				assert.Equal(t, byte('A'), c.Directive)
				assert.Equal(t, "Goto", c.Token)
				assert.Equal(t, []string{
					format.Real(wp.Lat, format.DefaultPlaces),
					format.Real(wp.Lon, format.DefaultPlaces),
					"2.0", "D", "1.5",
				}, c.Params)
			}
		})
	}
}

func TestWalk_TightTurn(t *testing.T) {
	b := geo.Translate(origin, 100, 0)
	c := geo.Translate(b, 0, 10)
	d := geo.Translate(c, -100, 0)

	_, lines := mustExport(t, newTestExporter(), planOf(pathManeuver("rows", model.PatternRows, origin, b, c, d)))

	cmds := trajectory(lines)
	require.Len(t, cmds, 5)
	assert.Equal(t, []byte{'A', 'A', 'C', 'C', 'A'}, directives(cmds))

	c1, c2 := cmds[2], cmds[3]
	assert.Equal(t, c1.Params[2:4], c2.Params[2:4], "both curves share the center")
	assert.Equal(t, "R", c1.Params[4])
	assert.Equal(t, "R", c2.Params[4])
	assert.Equal(t, []string{"2.0", "D", "1.5"}, c2.Params[5:])
	assert.Equal(t, format.Real(c.Lat, format.DefaultPlaces), c2.Params[0], "second curve ends on the waypoint")
	assert.Equal(t, format.Real(c.Lon, format.DefaultPlaces), c2.Params[1])

	// The waypoint after a turn is flown straight even at a right angle
	assert.Equal(t, format.Real(d.Lat, format.DefaultPlaces), cmds[4].Params[0])
}

func TestWalk_WideTurn(t *testing.T) {
	b := geo.Translate(origin, 100, 0)
	c := geo.Translate(b, 0, 100)

	_, lines := mustExport(t, newTestExporter(), planOf(pathManeuver("rows", model.PatternRows, origin, b, c)))

	cmds := trajectory(lines)
	require.Len(t, cmds, 5)
	assert.Equal(t, []byte{'A', 'A', 'C', 'A', 'C'}, directives(cmds))
	assert.NotEqual(t, cmds[2].Params[2:4], cmds[4].Params[2:4], "two distinct centers")
	assert.Equal(t, "R", cmds[2].Params[4])
	assert.Equal(t, "R", cmds[4].Params[4])
}

func TestWalk_TurnRadiusFromPlan(t *testing.T) {
	b := geo.Translate(origin, 100, 0)
	c := geo.Translate(b, 0, 60)
	plan := planOf(pathManeuver("rows", model.PatternRows, origin, b, c))

	_, lines := mustExport(t, newTestExporter(), plan)
	assert.Len(t, trajectory(lines), 5, "60 m leg is wide with the default 15 m radius")

	plan.StartActions = []model.Action{{Name: "General", Params: []model.Param{
		{Name: model.SettingCurveRadius, Value: "40"},
	}}}
	res, lines := mustExport(t, newTestExporter(), plan)
	assert.Equal(t, 40.0, res.TurnRadius)
	assert.Len(t, trajectory(lines), 4, "60 m leg is tight with a 40 m radius")
}

func TestWalk_TurnDirections(t *testing.T) {
	tests := []struct {
		name    string
		heading float64 // degrees of the first leg
		turn    float64 // signed heading change in degrees
		want    string
	}{
		{"NorthThenEast", 0, 90, "R"},
		{"NorthThenWest", 0, -90, "L"},
		{"EastThenSouth", 90, 90, "R"},
		{"EastThenNorth", 90, -90, "L"},
		{"SouthThenWest", 180, 90, "R"},
		{"SouthThenEast", 180, -90, "L"},
		{"WestThenNorth", 270, 90, "R"},
		{"WestThenSouth", 270, -90, "L"},
		{"DiagonalRight", 45, 90, "R"},
		{"DiagonalLeft", 225, -90, "L"},
	}

	leg := func(p geo.Point, deg, dist float64) geo.Point {
		rad := deg * math.Pi / 180
		return geo.Translate(p, dist*math.Cos(rad), dist*math.Sin(rad))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := leg(origin, tt.heading, 200)
			for _, dist := range []float64{10, 100} {
				c := leg(b, tt.heading+tt.turn, dist)
				_, lines := mustExport(t, newTestExporter(), planOf(pathManeuver("rows", model.PatternRowsPattern, origin, b, c)))

				curves := filter(lines, script.Command, 'C')
				require.Len(t, curves, 2, "distance %v", dist)
				for _, cv := range curves {
					assert.Equal(t, tt.want, cv.Params[4], "distance %v", dist)
				}
			}
		})
	}
}

func TestWalk_LineNumbering(t *testing.T) {
	b := geo.Translate(origin, 100, 0)
	first := pathManeuver("m1", model.PatternRows, origin, b)
	first.StartActions = []model.Action{{Name: "ObstacleAvoidance", Params: []model.Param{{Name: "Enabled", Value: "true"}}}}
	second := gotoManeuver("m2", geo.Translate(b, 100, 0), mps(1))

	_, lines := mustExport(t, newTestExporter(), planOf(first, second))
	numbered := script.Numbered(lines)

	var got []int64
	for _, l := range numbered {
		got = append(got, l.Number)
	}
	// setting, payload gap, two gotos, maneuver gap, payload gap, goto,
	// maneuver gap, two ending settings and the mission end
	assert.Equal(t, []int64{1, 6, 7, 21, 31, 32, 33}, got)
	assert.GreaterOrEqual(t, got[3]-got[2], int64(10), "maneuver gap")
}

func TestWalk_UnsupportedManeuver(t *testing.T) {
	plan := planOf(
		gotoManeuver("g1", origin, mps(1)),
		model.Maneuver{ID: "loiter1", Kind: "loiter", Speed: mps(1)},
		gotoManeuver("g2", geo.Translate(origin, 50, 0), mps(1)),
	)

	res, lines := mustExport(t, newTestExporter(), plan)
	gotos := filter(lines, script.Command, 'A')
	require.Len(t, gotos, 2)
	assert.Equal(t, int64(5), gotos[0].Number)
	assert.Equal(t, int64(28), gotos[1].Number, "the skipped maneuver still reserves its gap")
	assert.NotContains(t, res.Document, "% loiter1")
}

func TestWalk_GotoWithoutSpeedSkipped(t *testing.T) {
	plan := planOf(
		gotoManeuver("g1", origin, model.Speed{Value: 1000, Units: "rpm"}),
		gotoManeuver("g2", geo.Translate(origin, 50, 0), model.Speed{Value: 3, Units: "knots"}),
	)

	res, lines := mustExport(t, newTestExporter(), plan)
	gotos := filter(lines, script.Command, 'A')
	require.Len(t, gotos, 1)
	assert.Equal(t, int64(5), gotos[0].Number, "nothing reserved for the skipped goto")
	assert.Equal(t, "1.5", gotos[0].Params[4])
	assert.NotContains(t, res.Document, "% g1")
	assert.Contains(t, res.Document, "% g2")
}

func TestWalk_HalfwaySpeedRoundsUp(t *testing.T) {
	_, lines := mustExport(t, newTestExporter(), planOf(gotoManeuver("g1", origin, mps(1.25))))
	gotos := filter(lines, script.Command, 'A')
	require.Len(t, gotos, 1)
	assert.Equal(t, "1.3", gotos[0].Params[4])
}

func TestWalk_StationKeeping(t *testing.T) {
	plan := planOf(model.Maneuver{
		ID:       "sk1",
		Kind:     model.KindStationKeeping,
		Location: model.Waypoint{Lat: 38.1, Lon: -9.2, Z: 0, ZUnits: model.ZAltitude},
		Duration: 120,
	})

	_, lines := mustExport(t, newTestExporter(), plan)
	keeps := filter(lines, script.Command, 'K')
	require.Len(t, keeps, 1)
	assert.Equal(t, "C 5 K KeepPosition 38.100000 -9.200000 0.0 A 120", keeps[0].String())
}

func TestWalk_Trace(t *testing.T) {
	b := geo.Translate(origin, 100, 0)
	c := geo.Translate(b, 0, 10)

	res, _ := mustExport(t, newTestExporter(), planOf(pathManeuver("rows", model.PatternRows, origin, b, c)))

	counts := map[trace.Kind]int{}
	for _, p := range res.Trace {
		counts[p.Kind]++
		assert.Equal(t, "rows", p.Maneuver)
	}
	assert.Equal(t, 3, counts[trace.KindWaypoint])
	assert.Equal(t, 1, counts[trace.KindArc])
	assert.Equal(t, 2, counts[trace.KindCenter])
	assert.Equal(t, 1, counts[trace.KindControl])
}

func directives(lines []script.Line) []byte {
	ret := make([]byte, 0, len(lines))
	for _, l := range lines {
		ret = append(ret, l.Directive)
	}
	return ret
}
