// Package trace records the geometry synthesized during an export and writes
// it out for external renderers, as GeoJSON or as an ESRI point shapefile.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"seacatgo/pkg/geo"
)

// Kind tags a traced point.
type Kind string

const (
	KindWaypoint Kind = "waypoint" // plan waypoint flown as given
	KindArc      Kind = "arc"      // synthesized curve or straight target
	KindCenter   Kind = "center"   // curve pivot
	KindControl  Kind = "control"  // tight turn control point
)

const maneuverFieldLen = 64

// Point is one traced position.
type Point struct {
	Kind     Kind
	Maneuver string
	Pos      geo.Point
}

// FeatureCollection converts the trace into GeoJSON point features. Each
// feature carries kind, maneuver and seq properties.
func FeatureCollection(points []Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range points {
		f := geojson.NewFeature(p.Pos.Orb())
		f.Properties["kind"] = string(p.Kind)
		f.Properties["maneuver"] = p.Maneuver
		f.Properties["seq"] = i
		fc.Append(f)
	}
	return fc
}

// Path returns the flown track: every non-center, non-control point in order.
func Path(points []Point) orb.LineString {
	var ls orb.LineString
	for _, p := range points {
		if p.Kind == KindWaypoint || p.Kind == KindArc {
			ls = append(ls, p.Pos.Orb())
		}
	}
	return ls
}

// WriteGeoJSON writes the trace as a FeatureCollection. The flown track is
// appended as a final LineString feature when it has at least two points.
func WriteGeoJSON(path string, points []Point) error {
	fc := FeatureCollection(points)
	if ls := Path(points); len(ls) > 1 {
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = "track"
		fc.Append(f)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}

// WriteShapefile writes the trace as a POINT shapefile (.shp, .shx, .dbf)
// with KIND, MANEUVER and SEQ attributes.
func WriteShapefile(path string, points []Point) error {
	shape, err := shp.Create(path, shp.POINT)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %w", err)
	}
	defer shape.Close()

	fields := []shp.Field{
		shp.StringField("KIND", 16),
		shp.StringField("MANEUVER", maneuverFieldLen),
		shp.NumberField("SEQ", 10),
	}
	if err := shape.SetFields(fields); err != nil {
		return fmt.Errorf("failed to set shapefile fields: %w", err)
	}

	for i, p := range points {
		n := int(shape.Write(&shp.Point{X: p.Pos.Lon, Y: p.Pos.Lat}))
		if err := shape.WriteAttribute(n, 0, string(p.Kind)); err != nil {
			return fmt.Errorf("failed to write attribute: %w", err)
		}
		maneuver := p.Maneuver
		if len(maneuver) > maneuverFieldLen {
			maneuver = maneuver[:maneuverFieldLen]
		}
		if err := shape.WriteAttribute(n, 1, maneuver); err != nil {
			return fmt.Errorf("failed to write attribute: %w", err)
		}
		if err := shape.WriteAttribute(n, 2, i); err != nil {
			return fmt.Errorf("failed to write attribute: %w", err)
		}
	}
	return nil
}

// Write picks the format from the file extension: .shp writes a shapefile,
// anything else GeoJSON.
func Write(path string, points []Point) error {
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return WriteShapefile(path, points)
	}
	return WriteGeoJSON(path, points)
}
