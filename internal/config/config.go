// Package config loads the environment-variable configuration recognized
// by both binaries, applying defaults the same way the teacher's
// HNSWConfig.setDefaults does: plain os.Getenv plus strconv parsing, no
// flag or viper framework involved.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/haivivi/mtreecluster/internal/metric"
)

// Worker holds the configuration recognized by the worker binary.
type Worker struct {
	NodeID         string
	MaxChildren    int
	MinChildren    int
	DistanceMetric string
	Host           string
	Port           int
	LogLevel       string
}

// LoadWorker reads WORKER_NODE_ID, M_TREE_MAX_CHILDREN, M_TREE_MIN_CHILDREN,
// M_TREE_DISTANCE_METRIC, ORCHESTRATOR_HOST (reused as the worker's bind
// host), WORKER_BASE_PORT, and LOG_LEVEL from the environment, applying the
// documented defaults for anything unset.
func LoadWorker() (Worker, error) {
	w := Worker{
		NodeID:         fmt.Sprintf("worker-%d", os.Getpid()),
		MaxChildren:    4,
		MinChildren:    2,
		DistanceMetric: "euclidean",
		Host:           "0.0.0.0",
		Port:           5001,
		LogLevel:       "INFO",
	}
	if v, ok := os.LookupEnv("WORKER_NODE_ID"); ok {
		w.NodeID = v
	}
	if v, ok := os.LookupEnv("M_TREE_MAX_CHILDREN"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Worker{}, fmt.Errorf("config: M_TREE_MAX_CHILDREN: %w", err)
		}
		w.MaxChildren = n
	}
	if v, ok := os.LookupEnv("M_TREE_MIN_CHILDREN"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Worker{}, fmt.Errorf("config: M_TREE_MIN_CHILDREN: %w", err)
		}
		w.MinChildren = n
	}
	if v, ok := os.LookupEnv("M_TREE_DISTANCE_METRIC"); ok {
		w.DistanceMetric = v
	}
	if v, ok := os.LookupEnv("ORCHESTRATOR_HOST"); ok {
		w.Host = v
	}
	if v, ok := os.LookupEnv("WORKER_BASE_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Worker{}, fmt.Errorf("config: WORKER_BASE_PORT: %w", err)
		}
		w.Port = n
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		w.LogLevel = v
	}
	if _, err := metric.Parse(w.DistanceMetric); err != nil {
		return Worker{}, err
	}
	return w, nil
}

// Coordinator holds the configuration recognized by the coordinator
// binary.
type Coordinator struct {
	Replicas      int
	Host          string
	Port          int
	LogLevel      string
	FanoutTimeout time.Duration
	StatusTimeout time.Duration
}

// LoadCoordinator reads CONSISTENT_HASHER_REPLICAS, ORCHESTRATOR_HOST,
// ORCHESTRATOR_PORT, LOG_LEVEL, and the two timeout additions this
// expansion introduces for the parallel fan-out and status aggregation
// deadlines spec.md §5 requires.
func LoadCoordinator() (Coordinator, error) {
	c := Coordinator{
		Replicas:      100,
		Host:          "0.0.0.0",
		Port:          5000,
		LogLevel:      "INFO",
		FanoutTimeout: 2 * time.Second,
		StatusTimeout: 500 * time.Millisecond,
	}
	if v, ok := os.LookupEnv("CONSISTENT_HASHER_REPLICAS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Coordinator{}, fmt.Errorf("config: CONSISTENT_HASHER_REPLICAS: %w", err)
		}
		c.Replicas = n
	}
	if v, ok := os.LookupEnv("ORCHESTRATOR_HOST"); ok {
		c.Host = v
	}
	if v, ok := os.LookupEnv("ORCHESTRATOR_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Coordinator{}, fmt.Errorf("config: ORCHESTRATOR_PORT: %w", err)
		}
		c.Port = n
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("COORDINATOR_FANOUT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Coordinator{}, fmt.Errorf("config: COORDINATOR_FANOUT_TIMEOUT: %w", err)
		}
		c.FanoutTimeout = d
	}
	if v, ok := os.LookupEnv("COORDINATOR_STATUS_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Coordinator{}, fmt.Errorf("config: COORDINATOR_STATUS_TIMEOUT: %w", err)
		}
		c.StatusTimeout = d
	}
	return c, nil
}
