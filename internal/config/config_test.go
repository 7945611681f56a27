package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"geomemdb/internal/cluster"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"ROLE", "THIS_ADDR", "LEADER_ADDR", "HEARTBEAT_PERIOD_S", "MONITOR_PERIOD_S", "DEAD_TIMEOUT_S", "DATA_DIR", "DEBUG_ADDR"} {
		old, had := os.LookupEnv(key)
		os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				os.Setenv(key, old)
			} else {
				os.Unsetenv(key)
			}
		})
	}
}

func TestLoadDefaultsToLeaderWithDocumentedDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, cluster.Leader, cfg.Role)
	require.Equal(t, "127.0.0.1:6379", cfg.ThisAddr)
	require.Equal(t, 5*time.Second, cfg.HeartbeatPeriod)
}

func TestLoadRejectsInvalidRole(t *testing.T) {
	clearEnv(t)
	os.Setenv("ROLE", "dictator")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadReplicaRole(t *testing.T) {
	clearEnv(t)
	os.Setenv("ROLE", "replica")
	os.Setenv("LEADER_ADDR", "10.0.0.1:6379")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, cluster.Replica, cfg.Role)
	require.Equal(t, "10.0.0.1:6379", cfg.LeaderAddr)
}

func TestLoadRejectsNonIntegerSecondsValue(t *testing.T) {
	clearEnv(t)
	os.Setenv("HEARTBEAT_PERIOD_S", "soon")
	_, err := Load()
	require.Error(t, err)
}
