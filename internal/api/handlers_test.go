package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"geomemdb/internal/cluster"
	"geomemdb/internal/geo"
	"geomemdb/internal/store"
)

func newTestNode(t *testing.T) *cluster.Node {
	t.Helper()
	p, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return cluster.NewNode(cluster.Config{Role: cluster.Leader}, geo.New(), p)
}

func TestHealthReportsRole(t *testing.T) {
	router := NewRouter(newTestNode(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "leader", body["role"])
	require.Equal(t, "ok", body["status"])
}

func TestDebugKeysReflectsStoredData(t *testing.T) {
	node := newTestNode(t)
	node.GeoAdd("sf", []geo.LatLon{{Lat: 1, Lon: 2}})
	router := NewRouter(node)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/keys", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Keys []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"sf"}, body.Keys)
}

func TestDebugReplicasReflectsLiveHeartbeats(t *testing.T) {
	node := newTestNode(t)
	node.RecordHeartbeat("10.0.0.1:9000")
	router := NewRouter(node)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/replicas", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		LiveReplicas []string `json:"live_replicas"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"10.0.0.1:9000"}, body.LiveReplicas)
}
