// Package turn detects right-angle turns between survey legs and synthesizes
// the curve geometry the autopilot should fly instead of a sharp corner.
package turn

import (
	"errors"
	"fmt"
	"math"

	"seacatgo/pkg/geo"
	"seacatgo/pkg/model"
)

// ErrUnsupportedVerticalRef is returned for waypoints whose vertical
// reference is neither depth nor altitude.
var ErrUnsupportedVerticalRef = errors.New("unsupported vertical reference")

// ToleranceDeg is how far from 90 degrees a heading change may be and still
// count as a turn.
const ToleranceDeg = 2.0

// Direction of a turn as written in curve commands.
type Direction byte

const (
	Right Direction = 'R' // clockwise
	Left  Direction = 'L' // counter-clockwise
)

func (d Direction) String() string {
	return string(d)
}

// Regime is the strategy used to fly a turn.
type Regime int

const (
	// Tight turns pivot twice around the midpoint of the two waypoints.
	Tight Regime = iota + 1
	// Wide turns fly a quarter circle, a straight leg and another quarter circle.
	Wide
)

func (r Regime) String() string {
	switch r {
	case Tight:
		return "tight"
	case Wide:
		return "wide"
	}
	return "unknown"
}

// SegmentKind tells how a segment is flown.
type SegmentKind int

const (
	Curve SegmentKind = iota + 1
	Straight
)

// Segment is one synthesized command: fly to Target, pivoting on Center for
// curves.
type Segment struct {
	Kind   SegmentKind
	Target geo.Point
	Center geo.Point
}

// Turn is the synthesized geometry replacing a corner.
type Turn struct {
	Regime    Regime
	Direction Direction
	Delta     float64 // signed heading change, radians
	Segments  []Segment
	Control   geo.Point // tight turns only: the point opposite the corner
}

// Centers returns the distinct pivot points of the turn in flight order.
func (t *Turn) Centers() []geo.Point {
	var ret []geo.Point
	for _, s := range t.Segments {
		if s.Kind != Curve {
			continue
		}
		if len(ret) > 0 && ret[len(ret)-1] == s.Center {
			continue
		}
		ret = append(ret, s.Center)
	}
	return ret
}

// Detect compares the incoming heading with the heading of the next leg, both
// radians clockwise from north, and reports whether the change is a right
// angle within ToleranceDeg.
func Detect(heading, next float64) (delta float64, ok bool) {
	delta = geo.NormalizeRadPi(next - heading)
	deg := math.Abs(delta * 180.0 / math.Pi)
	return delta, math.Abs(deg-90) < ToleranceDeg
}

// DirectionOf maps a signed heading change to a turn direction.
func DirectionOf(delta float64) Direction {
	if delta > 0 {
		return Right
	}
	return Left
}

// Synthesize builds the geometry of a turn from prev to wp. heading is the
// travel heading arriving at prev, delta the signed heading change returned
// by Detect and radius the turn radius in meters.
//
// When the waypoints are closer than twice the radius the turn is flown
// around their midpoint, first to a control point ahead of the midpoint and
// then to wp. Otherwise the vehicle overshoots prev by one radius on a
// quarter circle, crosses on a straight leg and closes onto wp on a second
// quarter circle.
func Synthesize(prev, wp geo.Point, heading, delta, radius float64) Turn {
	dir := DirectionOf(delta)
	t := Turn{Direction: dir, Delta: delta}

	d := geo.Distance(prev, wp)
	fwdN, fwdE := math.Cos(heading), math.Sin(heading)

	if d < 2*radius {
		t.Regime = Tight
		center := geo.Midpoint(prev, wp)
		half := d / 2
		t.Control = geo.Translate(center, half*fwdN, half*fwdE)
		t.Segments = []Segment{
			{Kind: Curve, Target: t.Control, Center: center},
			{Kind: Curve, Target: wp, Center: center},
		}
		return t
	}

	t.Regime = Wide
	s := 1.0
	if dir == Left {
		s = -1.0
	}
	c1 := geo.Translate(prev,
		radius*math.Cos(heading+s*math.Pi/2),
		radius*math.Sin(heading+s*math.Pi/2))
	c2 := geo.Translate(wp,
		radius*math.Cos(heading-s*math.Pi/2),
		radius*math.Sin(heading-s*math.Pi/2))
	arcStart := geo.Translate(c1, radius*fwdN, radius*fwdE)
	arcEnd := geo.Translate(c2, radius*fwdN, radius*fwdE)

	t.Segments = []Segment{
		{Kind: Curve, Target: arcStart, Center: c1},
		{Kind: Straight, Target: arcEnd},
		{Kind: Curve, Target: wp, Center: c2},
	}
	return t
}

// DepthMode returns the one letter depth mode of a vertical reference:
// D for constant depth, A for constant altitude.
func DepthMode(z model.ZUnits) (string, error) {
	switch z {
	case model.ZDepth:
		return "D", nil
	case model.ZAltitude:
		return "A", nil
	}
	return "", fmt.Errorf("%w %q, valid are %s or %s", ErrUnsupportedVerticalRef, z, model.ZDepth, model.ZAltitude)
}
