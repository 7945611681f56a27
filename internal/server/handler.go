// Package server implements the per-connection command loop and the
// listener supervisor that binds it to a port.
package server

import (
	"log"
	"net"
	"strings"
	"time"

	"geomemdb/internal/cluster"
	"geomemdb/internal/protocol"
)

// readBufSize bounds a single read to one command: larger inputs are
// deliberately not supported.
const readBufSize = 1024

// handleConn runs the read-dispatch-write loop for one accepted connection
// until EOF or an I/O error, then closes it. No other connection is
// affected by a failure here.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	log.Printf("connection from %s", remote)
	defer log.Printf("connection from %s closed", remote)

	buf := make([]byte, readBufSize)

	for {
		n, err := conn.Read(buf)
		if err != nil || n == 0 {
			return
		}

		line := strings.ToValidUTF8(string(buf[:n]), "�")
		response := s.dispatch(line, remote)

		if _, err := conn.Write([]byte(response)); err != nil {
			log.Printf("write to %s failed: %v", remote, err)
			return
		}
	}
}

// dispatch decodes one line and runs it against s.node.
func (s *Server) dispatch(line, remoteAddr string) string {
	cmd, err := protocol.Parse(line)
	if err != nil {
		return "ERROR\n"
	}

	switch cmd.Verb {
	case protocol.GeoAdd:
		return s.dispatchGeoAdd(line, cmd)
	case protocol.GeoSearch:
		keys := s.node.GeoSearch(cmd.Lat, cmd.Lon, cmd.RadiusM)
		return strings.Join(keys, "\n") + "\n"
	case protocol.GeoGet:
		val, ok := s.node.GeoGet(cmd.Key)
		if !ok {
			return "Not Found\n"
		}
		return val + "\n"
	case protocol.Heartbeat:
		if s.node.Role() == cluster.Leader {
			s.node.RecordHeartbeat(remoteAddr)
			return "OK\n"
		}
		return "ERROR\n"
	default:
		return "ERROR\n"
	}
}

func (s *Server) dispatchGeoAdd(line string, cmd protocol.Command) string {
	if s.node.Role() == cluster.Leader {
		s.node.GeoAdd(cmd.Key, cmd.Coords)
		return "OK\n"
	}
	return s.forwardToLeader(line)
}

// forwardToLeader relays a raw GEOADD line to the leader and returns its
// reply verbatim. A connect failure answers ERROR\n to the client; the
// connection to the client itself stays open.
func (s *Server) forwardToLeader(line string) string {
	conn, err := net.DialTimeout("tcp", s.node.LeaderAddr(), 5*time.Second)
	if err != nil {
		log.Printf("forward to leader at %s failed: %v", s.node.LeaderAddr(), err)
		return "ERROR\n"
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(line)); err != nil {
		log.Printf("forward to leader at %s failed: %v", s.node.LeaderAddr(), err)
		return "ERROR\n"
	}

	buf := make([]byte, readBufSize)
	n, err := conn.Read(buf)
	if err != nil {
		log.Printf("reading leader reply from %s failed: %v", s.node.LeaderAddr(), err)
		return "ERROR\n"
	}
	return string(buf[:n])
}
