// Package config loads and validates startup configuration from the
// environment: read each variable, fall back to a documented default, and
// fail fast on a value that is set but invalid (an unknown ROLE, or a
// non-integer seconds value).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"geomemdb/internal/cluster"
)

// Config is the fully resolved, validated startup configuration.
type Config struct {
	Role            cluster.Role
	ThisAddr        string
	LeaderAddr      string
	HeartbeatPeriod time.Duration
	MonitorPeriod   time.Duration
	DeadTimeout     time.Duration
	DataDir         string
	DebugAddr       string
}

// Load reads and validates configuration from the environment. It first
// loads a .env file in the working directory if one exists, so operators
// can keep local overrides out of their shell.
//
// Every variable has a documented default. Load returns an error for an
// invalid ROLE and for a HEARTBEAT_PERIOD_S, MONITOR_PERIOD_S or
// DEAD_TIMEOUT_S value that is not an integer.
func Load() (Config, error) {
	loadDotEnv(".env")

	roleStr := getEnv("ROLE", "leader")
	var role cluster.Role
	switch roleStr {
	case "leader":
		role = cluster.Leader
	case "replica":
		role = cluster.Replica
	default:
		return Config{}, fmt.Errorf("invalid ROLE %q: must be \"leader\" or \"replica\"", roleStr)
	}

	heartbeat, err := getEnvSeconds("HEARTBEAT_PERIOD_S", 5)
	if err != nil {
		return Config{}, err
	}
	monitor, err := getEnvSeconds("MONITOR_PERIOD_S", 10)
	if err != nil {
		return Config{}, err
	}
	deadTimeout, err := getEnvSeconds("DEAD_TIMEOUT_S", 10)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Role:            role,
		ThisAddr:        getEnv("THIS_ADDR", "127.0.0.1:6379"),
		LeaderAddr:      getEnv("LEADER_ADDR", "127.0.0.1:6379"),
		HeartbeatPeriod: heartbeat,
		MonitorPeriod:   monitor,
		DeadTimeout:     deadTimeout,
		DataDir:         getEnv("DATA_DIR", "."),
		DebugAddr:       getEnv("DEBUG_ADDR", "127.0.0.1:8080"),
	}, nil
}

func getEnv(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

func getEnvSeconds(name string, def int) (time.Duration, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return time.Duration(def) * time.Second, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return time.Duration(n) * time.Second, nil
}
