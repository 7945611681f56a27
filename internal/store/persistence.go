// Package store is the durability layer: an append-only WAL plus a
// snapshot taken on shutdown, and the crash-recovery protocol that combines
// them.
package store

import (
	"fmt"
	"log"
	"path/filepath"

	"geomemdb/internal/geo"
)

const (
	walFileName      = "wal.log"
	snapshotFileName = "snapshot.bincode"
)

// Persistence owns the WAL file handle and the snapshot path for one node.
// Its WAL lock is independent of the lock the caller (cluster.Node) holds
// around geo.Database. The caller releases the db lock before Append;
// Recover and Snapshot are called with the db lock held.
type Persistence struct {
	wal          *wal
	snapshotPath string
}

// Open opens (creating if absent) the WAL file and records the snapshot
// path, both under dataDir. It does not read either file — call Recover
// for that.
func Open(dataDir string) (*Persistence, error) {
	w, err := openWAL(filepath.Join(dataDir, walFileName))
	if err != nil {
		return nil, fmt.Errorf("open wal: %w", err)
	}
	return &Persistence{
		wal:          w,
		snapshotPath: filepath.Join(dataDir, snapshotFileName),
	}, nil
}

// Append durably records a GEOADD entry. A failure here is surfaced to the
// caller for logging; it does not block the in-memory mutation from taking
// effect.
func (p *Persistence) Append(key string, coords []geo.LatLon) error {
	return p.wal.append(walEntry{Key: key, Coords: coords})
}

// Recover loads the snapshot if one exists (otherwise starts empty), then
// replays the WAL on top.
//
// A missing snapshot file is not an error — recovery proceeds from an empty
// store. A present-but-corrupt snapshot is logged and treated the same way:
// the store starts empty but WAL replay is still attempted on top of it,
// since the log may hold everything the snapshot would have. A WAL replay
// failure stops at the bad record; everything replayed before it stays
// applied.
func (p *Persistence) Recover(db *geo.Database) error {
	points, polygons, err := readSnapshot(p.snapshotPath)
	if err != nil {
		log.Printf("load snapshot: %v — starting from empty store", err)
		points, polygons = nil, nil
	}
	db.LoadFrom(points, polygons)

	if err := p.wal.replay(func(entry walEntry) error {
		db.Add(entry.Key, entry.Coords)
		return nil
	}); err != nil {
		return fmt.Errorf("replay wal: %w", err)
	}
	return nil
}

// Snapshot writes db's current state to disk and truncates the WAL, since
// the snapshot now captures every entry the log held.
func (p *Persistence) Snapshot(db *geo.Database) error {
	points, polygons := db.Snapshot()
	if err := writeSnapshot(p.snapshotPath, points, polygons); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return p.wal.truncate()
}

// Close closes the WAL file handle. Call during shutdown, after the final
// snapshot.
func (p *Persistence) Close() error {
	return p.wal.close()
}
