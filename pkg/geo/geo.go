package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Orb returns the point as an orb.Point (lon, lat).
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb.Point (lon, lat) into a Point.
func FromOrb(p orb.Point) Point {
	return Point{Lat: p.Lat(), Lon: p.Lon()}
}

// Distance calculates the great circle distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	return orbgeo.Distance(p1.Orb(), p2.Orb())
}

// DestinationPoint calculates the destination point from a start point, given distance (in meters) and bearing (in degrees).
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	if distMeters == 0 {
		return start
	}
	return FromOrb(orbgeo.PointAtBearingAndDistance(start.Orb(), bearing, distMeters))
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees [0, 360).
func Bearing(p1, p2 Point) float64 {
	return math.Mod(orbgeo.Bearing(p1.Orb(), p2.Orb())+360.0, 360.0)
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

// NormalizeRadPi normalizes an angle in radians to the range (-Pi, Pi].
func NormalizeRadPi(rad float64) float64 {
	for rad > math.Pi {
		rad -= 2 * math.Pi
	}
	for rad <= -math.Pi {
		rad += 2 * math.Pi
	}
	return rad
}

// Offset returns the local north and east displacement in meters of to relative to from.
func Offset(from, to Point) (north, east float64) {
	d := Distance(from, to)
	if d == 0 {
		return 0, 0
	}
	b := Bearing(from, to) * math.Pi / 180.0
	return d * math.Cos(b), d * math.Sin(b)
}

// Translate moves p by the given north and east displacement in meters.
func Translate(p Point, north, east float64) Point {
	d := math.Hypot(north, east)
	if d == 0 {
		return p
	}
	b := math.Atan2(east, north) * 180.0 / math.Pi
	return DestinationPoint(p, d, b)
}

// Heading returns the heading in radians from one point to another,
// measured clockwise from north and normalized to (-Pi, Pi].
func Heading(from, to Point) float64 {
	north, east := Offset(from, to)
	return NormalizeRadPi(math.Atan2(east, north))
}

// Midpoint returns the point halfway between p1 and p2.
func Midpoint(p1, p2 Point) Point {
	north, east := Offset(p1, p2)
	return Translate(p1, north/2, east/2)
}

// Rotate rotates the (north, east) vector by the given angle in radians, clockwise.
func Rotate(angleRad, north, east float64) (float64, float64) {
	sin, cos := math.Sincos(angleRad)
	return north*cos - east*sin, north*sin + east*cos
}
