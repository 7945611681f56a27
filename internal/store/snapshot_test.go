package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"geomemdb/internal/geo"
)

func TestReadSnapshotMissingFileIsNotAnError(t *testing.T) {
	points, polygons, err := readSnapshot(filepath.Join(t.TempDir(), "nope.bincode"))
	require.NoError(t, err)
	require.Nil(t, points)
	require.Nil(t, polygons)
}

func TestWriteThenReadSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.bincode")

	points := map[string]geo.Point{"p": {Lon: 1, Lat: 2}}
	polygons := map[string]geo.Polygon{
		"poly": {Vertices: []geo.Point{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}, {Lon: 1, Lat: 1}}},
	}

	require.NoError(t, writeSnapshot(path, points, polygons))

	gotPoints, gotPolygons, err := readSnapshot(path)
	require.NoError(t, err)
	require.Equal(t, points, gotPoints)
	require.Equal(t, polygons, gotPolygons)
}

func TestWriteSnapshotLeavesNoTempFileBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.bincode")
	require.NoError(t, writeSnapshot(path, map[string]geo.Point{}, map[string]geo.Polygon{}))

	_, err := readSnapshot(path + ".tmp")
	require.NoError(t, err) // missing-file case: .tmp was renamed away
}

func TestWriteSnapshotOverwritesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.bincode")

	require.NoError(t, writeSnapshot(path, map[string]geo.Point{"old": {Lon: 0, Lat: 0}}, map[string]geo.Polygon{}))
	require.NoError(t, writeSnapshot(path, map[string]geo.Point{"new": {Lon: 1, Lat: 1}}, map[string]geo.Polygon{}))

	points, _, err := readSnapshot(path)
	require.NoError(t, err)
	require.Contains(t, points, "new")
	require.NotContains(t, points, "old")
}
