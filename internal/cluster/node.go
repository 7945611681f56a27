// Package cluster implements the leader/replica role model: a role-tagged
// record owning the database and persistence layer, heartbeat liveness
// tracking, and the background tasks that keep it current.
package cluster

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"geomemdb/internal/geo"
	"geomemdb/internal/store"
)

// Role is immutable for a process's lifetime — there is no promotion or
// demotion.
type Role int

const (
	Leader Role = iota
	Replica
)

func (r Role) String() string {
	if r == Leader {
		return "leader"
	}
	return "replica"
}

// Config is the static configuration a Node is built from.
type Config struct {
	Role            Role
	OwnAddr         string
	LeaderAddr      string // only meaningful for Role == Replica
	HeartbeatPeriod time.Duration
	MonitorPeriod   time.Duration
	DeadTimeout     time.Duration
}

// Node is the role-tagged record: role, addresses, the database, the
// persistence layer, and the live-replica table, all owned by one process
// for its lifetime.
//
// db and persistence take separate locks. On the write path (GeoAdd) mu
// guards db and is released before Persistence is touched, so a WAL
// append (which can block on disk I/O) never blocks a concurrent reader.
// Recover and Snapshot hold mu across their Persistence call, so the store
// cannot change between the snapshot write and the WAL truncation; the
// lock order is always mu, then Persistence.
type Node struct {
	cfg Config

	mu sync.Mutex
	db *geo.Database

	persistence *store.Persistence

	liveMu    sync.Mutex
	liveSince map[string]time.Time
}

// NewNode constructs a Node. For a leader, call Recover before serving
// traffic; a replica starts from an empty store and never performs
// recovery.
func NewNode(cfg Config, db *geo.Database, persistence *store.Persistence) *Node {
	return &Node{
		cfg:         cfg,
		db:          db,
		persistence: persistence,
		liveSince:   make(map[string]time.Time),
	}
}

func (n *Node) Role() Role         { return n.cfg.Role }
func (n *Node) LeaderAddr() string { return n.cfg.LeaderAddr }

// Recover loads the snapshot (if any) and replays the WAL on top. Only
// meaningful for a leader; callers should not call it for a replica.
func (n *Node) Recover() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.persistence.Recover(n.db)
}

// GeoAdd mutates the database and then appends to the WAL, in that order —
// the in-memory write is visible to readers immediately, and a WAL failure
// is logged but does not undo it or fail the call. It is only called on
// the leader; a replica forwards GEOADD to the leader instead
// (internal/server).
func (n *Node) GeoAdd(key string, coords []geo.LatLon) {
	n.mu.Lock()
	n.db.Add(key, coords)
	n.mu.Unlock()

	// db's lock is released before Persistence is touched — see the lock
	// order note on Node.
	if err := n.persistence.Append(key, coords); err != nil {
		log.Printf("wal append failed for key %q: %v", key, err)
	}
}

// GeoSearch reads the database. Readers and writers share the same lock;
// there is no reader/writer split.
func (n *Node) GeoSearch(lat, lon, radiusM float64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.db.Search(lat, lon, radiusM)
}

// GeoGet reads one key's formatted geometry.
func (n *Node) GeoGet(key string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.db.Get(key)
}

// Keys returns every stored key, for the debug façade.
func (n *Node) Keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.db.Keys()
}

// Snapshot persists the current store state and truncates the WAL. Called
// on clean shutdown for either role.
func (n *Node) Snapshot() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.persistence.Snapshot(n.db)
}

// RecordHeartbeat marks addr as live as of now. Leader-side only.
func (n *Node) RecordHeartbeat(addr string) {
	n.liveMu.Lock()
	defer n.liveMu.Unlock()
	n.liveSince[addr] = time.Now()
}

// LiveReplicas returns the addresses currently considered live.
func (n *Node) LiveReplicas() []string {
	n.liveMu.Lock()
	defer n.liveMu.Unlock()
	out := make([]string, 0, len(n.liveSince))
	for addr := range n.liveSince {
		out = append(out, addr)
	}
	return out
}

// MonitorReplicas is the leader's background liveness sweep: every
// MonitorPeriod, drop any replica whose last heartbeat is older than
// DeadTimeout. The removal set is collected under one lock acquisition and
// applied under a second, so the table is never observed half-pruned by a
// concurrent heartbeat.
func (n *Node) MonitorReplicas(ctx context.Context) {
	ticker := time.NewTicker(n.cfg.MonitorPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.pruneDeadReplicas()
		}
	}
}

func (n *Node) pruneDeadReplicas() {
	now := time.Now()

	var dead []string
	n.liveMu.Lock()
	for addr, last := range n.liveSince {
		if now.Sub(last) > n.cfg.DeadTimeout {
			dead = append(dead, addr)
		}
	}
	n.liveMu.Unlock()

	if len(dead) == 0 {
		return
	}

	n.liveMu.Lock()
	for _, addr := range dead {
		delete(n.liveSince, addr)
	}
	n.liveMu.Unlock()

	for _, addr := range dead {
		log.Printf("replica at %s is considered dead", addr)
	}
}

// SendHeartbeats is the replica's background liveness signal: every
// HeartbeatPeriod, dial the leader and send HEARTBEAT\n. A connect or
// write failure is logged and retried on the next tick, at least one full
// period later, which keeps retries of a transient failure no tighter than
// the heartbeat period itself without needing a separate backoff timer.
//
// Each tick dials a fresh connection, so the leader sees a new ephemeral
// source port on every heartbeat — it never coalesces repeat heartbeats
// from the same replica into one live-replica entry; liveness is tied to
// heartbeat arrival time, not connection identity.
func (n *Node) SendHeartbeats(ctx context.Context) {
	if n.cfg.Role != Replica {
		return
	}

	ticker := time.NewTicker(n.cfg.HeartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.sendHeartbeatOnce()
		}
	}
}

func (n *Node) sendHeartbeatOnce() {
	conn, err := net.DialTimeout("tcp", n.cfg.LeaderAddr, n.cfg.HeartbeatPeriod)
	if err != nil {
		log.Printf("heartbeat: failed to connect to leader at %s: %v", n.cfg.LeaderAddr, err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("HEARTBEAT\n")); err != nil {
		log.Printf("heartbeat: failed to send to leader at %s: %v", n.cfg.LeaderAddr, err)
		return
	}
}

// Describe is a small human-readable summary of the node's role and
// addresses.
func (n *Node) Describe() string {
	if n.cfg.Role == Leader {
		return fmt.Sprintf("leader at %s", n.cfg.OwnAddr)
	}
	return fmt.Sprintf("replica at %s (leader %s)", n.cfg.OwnAddr, n.cfg.LeaderAddr)
}
