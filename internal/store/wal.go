package store

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"geomemdb/internal/geo"
)

// The WAL is an append-only file where every GEOADD is durably recorded
// before the caller is told it succeeded. Writes are sequential, so they
// stay fast even without special tuning; on restart the log is replayed
// top to bottom to rebuild in-memory state exactly as it was.
//
// Entries are newline-delimited JSON (NDJSON), the same encoding the
// snapshot file uses — see snapshot.go.

type walEntry struct {
	Key    string       `json:"key"`
	Coords []geo.LatLon `json:"coords"`
}

type wal struct {
	mu   sync.Mutex
	file *os.File
}

func openWAL(path string) (*wal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &wal{file: f}, nil
}

// append serialises entry as JSON, writes it, and fsyncs before returning.
// Sync is the durability guarantee this system makes: a crash right after
// append returns loses nothing already acknowledged to a client.
func (w *wal) append(entry walEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if _, err := w.file.Write(data); err != nil {
		return err
	}
	return w.file.Sync()
}

// replay reads every entry from the start of the file and invokes apply for
// each, in order. A malformed or partial final record (the signature of a
// crash mid-write) stops replay at that record and returns an error; every
// entry applied before it remains in effect.
func (w *wal) replay(apply func(entry walEntry) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, 0); err != nil {
		return err
	}
	defer w.file.Seek(0, 2) // leave the offset at EOF; O_APPEND ignores it anyway

	scanner := bufio.NewScanner(w.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry walEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return err
		}
		if err := apply(entry); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// truncate empties the WAL. Called after a successful snapshot, since the
// snapshot now captures everything the log held and there is no reason to
// let it grow forever.
func (w *wal) truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	_, err := w.file.Seek(0, 0)
	return err
}

func (w *wal) close() error {
	return w.file.Close()
}
