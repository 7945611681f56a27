package server

import (
	"context"
	"fmt"
	"log"
	"net"

	"geomemdb/internal/cluster"
)

// Config configures the server supervisor.
type Config struct {
	OwnAddr string
}

// Server is the listener supervisor: it binds the listener, performs
// recovery, starts the role-specific background task and the accept loop,
// and snapshots on shutdown.
type Server struct {
	cfg  Config
	node *cluster.Node
}

// New builds a Server around an already-constructed Node. The Node must not
// yet have had Recover called — Run does that, for a leader, before
// accepting any connections.
func New(cfg Config, node *cluster.Node) *Server {
	return &Server{cfg: cfg, node: node}
}

// Run performs recovery, binds the listener, starts the background task
// and the accept loop, then blocks until ctx is cancelled, at which point
// it snapshots and returns. A bind failure is returned directly — the
// caller treats it as a fatal startup error.
func (s *Server) Run(ctx context.Context) error {
	if s.node.Role() == cluster.Leader {
		if err := s.node.Recover(); err != nil {
			log.Printf("recovery: %v", err)
		}
	}

	listener, err := net.Listen("tcp", s.cfg.OwnAddr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.OwnAddr, err)
	}

	if s.node.Role() == cluster.Leader {
		go s.node.MonitorReplicas(ctx)
	} else {
		go s.node.SendHeartbeats(ctx)
	}

	go s.acceptLoop(ctx, listener)

	log.Printf("geomemdb %s listening on %s", s.node.Role(), s.cfg.OwnAddr)

	<-ctx.Done()
	listener.Close()

	log.Printf("shutting down, taking final snapshot")
	if err := s.node.Snapshot(); err != nil {
		log.Printf("final snapshot failed: %v", err)
	}
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("accept failed: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}
