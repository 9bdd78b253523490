package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seacatgo/pkg/geo"
)

func samplePoints() []Point {
	return []Point{
		{Kind: KindWaypoint, Maneuver: "rows", Pos: geo.Point{Lat: 38.0, Lon: -9.0}},
		{Kind: KindCenter, Maneuver: "rows", Pos: geo.Point{Lat: 38.0001, Lon: -9.0002}},
		{Kind: KindArc, Maneuver: "rows", Pos: geo.Point{Lat: 38.0002, Lon: -9.0001}},
		{Kind: KindWaypoint, Maneuver: "rows", Pos: geo.Point{Lat: 38.0002, Lon: -9.0003}},
	}
}

func TestPath(t *testing.T) {
	ls := Path(samplePoints())
	require.Len(t, ls, 3, "centers are not part of the track")
	assert.Equal(t, orb.Point{-9.0, 38.0}, ls[0])
}

func TestWriteGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.geojson")
	require.NoError(t, Write(path, samplePoints()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)

	// One feature per point plus the track
	require.Len(t, fc.Features, 5)
	assert.Equal(t, "waypoint", fc.Features[0].Properties["kind"])
	assert.Equal(t, "center", fc.Features[1].Properties["kind"])
	assert.Equal(t, "rows", fc.Features[2].Properties["maneuver"])
	assert.Equal(t, orb.Point{-9.0, 38.0}, fc.Features[0].Geometry)
	assert.Equal(t, "track", fc.Features[4].Properties["kind"])
}

func TestWriteGeoJSON_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteGeoJSON(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestWriteShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.shp")
	points := samplePoints()
	points[0].Maneuver = strings.Repeat("m", 80)
	require.NoError(t, Write(path, points))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	clean := func(s string) string { return strings.TrimRight(s, "\x00 ") }

	var count int
	for r.Next() {
		n, s := r.Shape()
		p, ok := s.(*shp.Point)
		require.True(t, ok)
		assert.InDelta(t, points[n].Pos.Lon, p.X, 1e-9)
		assert.InDelta(t, points[n].Pos.Lat, p.Y, 1e-9)
		assert.Equal(t, string(points[n].Kind), clean(r.ReadAttribute(n, 0)))
		count++
	}
	require.NoError(t, r.Err())
	assert.Equal(t, len(points), count)
	assert.Len(t, clean(r.ReadAttribute(0, 1)), maneuverFieldLen)
}
