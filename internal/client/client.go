// Package client is a thin SDK over the line protocol (internal/protocol):
// it hides connection handling and line formatting behind a small set of
// Go calls. A round trip is one line out, one reply back — no HTTP, no JSON.
package client

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"geomemdb/internal/geo"
	"geomemdb/internal/protocol"
)

// readBufSize mirrors internal/server's own read buffer: no single reply
// exceeds one command's worth of data.
const readBufSize = 1024

// Client talks to a single geomemdb node over the line protocol.
type Client struct {
	addr    string
	timeout time.Duration
}

// New creates a Client. addr is "host:port"; timeout bounds every dial and
// round-trip.
func New(addr string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{addr: addr, timeout: timeout}
}

// ErrNotFound mirrors the protocol's "Not Found" reply to GEOGET.
var ErrNotFound = fmt.Errorf("key not found")

// GeoAdd sends GEOADD key lat1 lon1 [lat2 lon2 ...].
func (c *Client) GeoAdd(ctx context.Context, key string, coords [][2]float64) error {
	latLons := make([]geo.LatLon, len(coords))
	for i, pt := range coords {
		latLons[i] = geo.LatLon{Lat: pt[0], Lon: pt[1]}
	}
	line := protocol.Format(protocol.Command{Verb: protocol.GeoAdd, Key: key, Coords: latLons})

	reply, err := c.roundTrip(ctx, line)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("server replied %q", reply)
	}
	return nil
}

// GeoSearch sends GEOSEARCH lat lon radiusMeters and returns the matching keys.
func (c *Client) GeoSearch(ctx context.Context, lat, lon, radiusM float64) ([]string, error) {
	line := protocol.Format(protocol.Command{Verb: protocol.GeoSearch, Lat: lat, Lon: lon, RadiusM: radiusM})
	reply, err := c.roundTrip(ctx, line)
	if err != nil {
		return nil, err
	}
	if reply == "" {
		return nil, nil
	}
	return strings.Split(reply, "\n"), nil
}

// GeoGet sends GEOGET key and returns its stored value representation.
func (c *Client) GeoGet(ctx context.Context, key string) (string, error) {
	line := protocol.Format(protocol.Command{Verb: protocol.GeoGet, Key: key})
	reply, err := c.roundTrip(ctx, line)
	if err != nil {
		return "", err
	}
	if reply == "Not Found" {
		return "", ErrNotFound
	}
	return reply, nil
}

// Heartbeat sends a bare HEARTBEAT probe, used by `geomemctl ping`.
func (c *Client) Heartbeat(ctx context.Context) error {
	line := protocol.Format(protocol.Command{Verb: protocol.Heartbeat})
	reply, err := c.roundTrip(ctx, line)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("server replied %q", reply)
	}
	return nil
}

// roundTrip dials fresh, writes one line, and reads one reply. The
// protocol is request/response over a short-lived connection, so there is
// no pooling to do here.
func (c *Client) roundTrip(ctx context.Context, line string) (string, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(c.timeout))
	}

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}

	// The server answers one command with exactly one write, which may
	// itself contain embedded newlines (GEOSEARCH returns one key per
	// line) — read it whole rather than stopping at the first "\n".
	buf := make([]byte, readBufSize)
	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return strings.TrimRight(string(buf[:n]), "\n"), nil
}
