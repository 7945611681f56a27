package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"geomemdb/internal/geo"
)

func TestRecoverOnFreshDataDirStartsEmpty(t *testing.T) {
	p, err := Open(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	db := geo.New()
	require.NoError(t, p.Recover(db))
	require.Empty(t, db.Keys())
}

func TestAppendThenRecoverReplaysWAL(t *testing.T) {
	dir := t.TempDir()

	p, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, p.Append("a", []geo.LatLon{{Lat: 1, Lon: 1}}))
	require.NoError(t, p.Append("b", []geo.LatLon{{Lat: 2, Lon: 2}}))
	require.NoError(t, p.Close())

	p2, err := Open(dir)
	require.NoError(t, err)
	defer p2.Close()

	db := geo.New()
	require.NoError(t, p2.Recover(db))
	require.ElementsMatch(t, []string{"a", "b"}, db.Keys())
}

func TestSnapshotTruncatesWALSoRecoveryDoesNotReplayOldEntries(t *testing.T) {
	dir := t.TempDir()

	p, err := Open(dir)
	require.NoError(t, err)

	db := geo.New()
	db.Add("a", []geo.LatLon{{Lat: 1, Lon: 1}})
	require.NoError(t, p.Append("a", []geo.LatLon{{Lat: 1, Lon: 1}}))

	require.NoError(t, p.Snapshot(db))

	// A write after the snapshot should be the only thing left in the WAL.
	require.NoError(t, p.Append("b", []geo.LatLon{{Lat: 2, Lon: 2}}))
	require.NoError(t, p.Close())

	p2, err := Open(dir)
	require.NoError(t, err)
	defer p2.Close()

	db2 := geo.New()
	require.NoError(t, p2.Recover(db2))
	require.ElementsMatch(t, []string{"a", "b"}, db2.Keys())

	// Confirm the WAL itself only holds the post-snapshot entry, not "a" twice.
	var replayed []walEntry
	require.NoError(t, p2.wal.replay(func(e walEntry) error {
		replayed = append(replayed, e)
		return nil
	}))
	require.Len(t, replayed, 1)
	require.Equal(t, "b", replayed[0].Key)
}

func TestRecoverStillReplaysWALWhenSnapshotIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFileName), []byte("{not json"), 0644))

	p, err := Open(dir)
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Append("a", []geo.LatLon{{Lat: 1, Lon: 1}}))

	db := geo.New()
	require.NoError(t, p.Recover(db))
	require.ElementsMatch(t, []string{"a"}, db.Keys())
}
