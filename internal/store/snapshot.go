package store

import (
	"encoding/json"
	"os"

	"geomemdb/internal/geo"
)

// snapshotFile is a point-in-time copy of the points and polygons maps.
// The spatial indices are never part of it — they are always rebuilt from
// these maps on load.
type snapshotFile struct {
	Points   map[string]geo.Point   `json:"points"`
	Polygons map[string]geo.Polygon `json:"polygons"`
}

// writeSnapshot writes points/polygons to path via write-then-rename, so a
// crash mid-write leaves the previous snapshot intact rather than a
// half-written one.
func writeSnapshot(path string, points map[string]geo.Point, polygons map[string]geo.Polygon) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(snapshotFile{Points: points, Polygons: polygons}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readSnapshot loads path. A missing file is not an error — the caller
// starts from an empty store.
func readSnapshot(path string) (points map[string]geo.Point, polygons map[string]geo.Polygon, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var snap snapshotFile
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, nil, err
	}
	return snap.Points, snap.Polygons, nil
}
