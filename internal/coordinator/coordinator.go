// Package coordinator implements C6: it owns a consistent-hash ring and a
// registry of worker endpoints, routes writes to exactly one worker, and
// scatter-gathers reads across every registered worker before merging
// under the global distance ordering.
package coordinator

import (
	"container/heap"
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/haivivi/mtreecluster/internal/errkind"
	"github.com/haivivi/mtreecluster/internal/ring"
	"github.com/haivivi/mtreecluster/internal/vector"
)

// Config configures a Coordinator.
type Config struct {
	Replicas      int
	FanoutTimeout time.Duration
	StatusTimeout time.Duration
}

// Coordinator routes writes and fans out reads across a set of registered
// workers. The ring and the registry are guarded by a single mutex so
// they always agree, per spec.md §4.4; the lock is held only while
// mutating or snapshotting state, never across an outbound RPC.
type Coordinator struct {
	mu       sync.Mutex
	ring     *ring.Ring
	registry map[string]string // node id -> endpoint URL

	httpClient    *http.Client
	fanoutTimeout time.Duration
	statusTimeout time.Duration
}

// New constructs a Coordinator from cfg.
func New(cfg Config) *Coordinator {
	if cfg.FanoutTimeout <= 0 {
		cfg.FanoutTimeout = 2 * time.Second
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 500 * time.Millisecond
	}
	return &Coordinator{
		ring:     ring.New(cfg.Replicas),
		registry: make(map[string]string),
		httpClient: &http.Client{
			Transport: &http.Transport{MaxIdleConnsPerHost: 64},
		},
		fanoutTimeout: cfg.FanoutTimeout,
		statusTimeout: cfg.StatusTimeout,
	}
}

// RegisterWorker adds or updates a worker's endpoint. Registering an
// already-known id updates its URL in place without re-adding virtual
// points to the ring (the lenient default policy from spec.md §6).
func (c *Coordinator) RegisterWorker(nodeID, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, known := c.registry[nodeID]; known {
		c.registry[nodeID] = url
		return nil
	}
	if err := c.ring.AddNode(nodeID); err != nil {
		return fmt.Errorf("coordinator: register %q: %w", nodeID, err)
	}
	c.registry[nodeID] = url
	return nil
}

// DeregisterWorker removes a worker from the ring and registry. Fails
// with ErrNotFound if nodeID is not registered.
func (c *Coordinator) DeregisterWorker(nodeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, known := c.registry[nodeID]; !known {
		return fmt.Errorf("coordinator: deregister %q: %w", nodeID, errkind.ErrNotFound)
	}
	delete(c.registry, nodeID)
	return c.ring.RemoveNode(nodeID)
}

// unregisterStale removes nodeID from both the ring and the registry
// without requiring it to exist in either — used when a write discovers
// its routed worker has no resolvable endpoint.
func (c *Coordinator) unregisterStale(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.registry, nodeID)
	_ = c.ring.RemoveNode(nodeID)
}

// workerEndpoints is a point-in-time copy of the registry, taken under
// the lock and used for the remainder of a request without holding it.
func (c *Coordinator) workerEndpoints() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := make(map[string]string, len(c.registry))
	for id, url := range c.registry {
		snap[id] = url
	}
	return snap
}

// Insert routes v to the single worker responsible for v.ID. It fails
// with ErrNoRouteToAnyWorker if the ring has no nodes or the routed
// worker's endpoint is unknown — in the latter case the stale id is
// unregistered. There are no retries and no replication.
func (c *Coordinator) Insert(ctx context.Context, v vector.Vector) error {
	c.mu.Lock()
	target, err := c.ring.GetNode(v.ID)
	endpoint, known := "", false
	if err == nil {
		endpoint, known = c.registry[target]
	}
	c.mu.Unlock()

	if err != nil || !known {
		if target != "" {
			c.unregisterStale(target)
		}
		return fmt.Errorf("coordinator: insert %q: %w", v.ID, errkind.ErrNoRouteToAnyWorker)
	}

	ctx, cancel := context.WithTimeout(ctx, c.fanoutTimeout)
	defer cancel()
	if err := postInsert(ctx, c.httpClient, endpoint, v); err != nil {
		return fmt.Errorf("coordinator: insert %q on %q: %w", v.ID, target, err)
	}
	return nil
}

// KNN scatter-gathers a k-NN query across every registered worker and
// merges the results under the global distance ordering, returning at
// most k. Workers that fail or time out are skipped, not surfaced,
// unless every worker fails.
func (c *Coordinator) KNN(ctx context.Context, q vector.Vector, k int) ([]vector.SearchResult, error) {
	endpoints := c.workerEndpoints()
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("coordinator: knn: %w", errkind.ErrNoActiveWorkers)
	}

	type outcome struct {
		results []vector.SearchResult
		err     error
	}
	out := make(chan outcome, len(endpoints))
	var wg sync.WaitGroup
	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			reqCtx, cancel := context.WithTimeout(ctx, c.fanoutTimeout)
			defer cancel()
			results, err := postKNN(reqCtx, c.httpClient, endpoint, q, k)
			out <- outcome{results: results, err: err}
		}(endpoint)
	}
	go func() { wg.Wait(); close(out) }()

	var allFailed = true
	merged := &resultMaxHeap{}
	for o := range out {
		if o.err != nil {
			continue
		}
		allFailed = false
		for _, r := range o.results {
			heap.Push(merged, r)
			if merged.Len() > k {
				heap.Pop(merged)
			}
		}
	}
	if allFailed {
		return nil, fmt.Errorf("coordinator: knn: %w", errkind.ErrAllWorkersFailed)
	}
	return sortedMerged(*merged), nil
}

// Range scatter-gathers a range query across every registered worker and
// deduplicates by vector id, keeping the first occurrence encountered.
func (c *Coordinator) Range(ctx context.Context, q vector.Vector, r float64) ([]vector.SearchResult, error) {
	endpoints := c.workerEndpoints()
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("coordinator: range: %w", errkind.ErrNoActiveWorkers)
	}

	type outcome struct {
		results []vector.SearchResult
		err     error
	}
	out := make(chan outcome, len(endpoints))
	var wg sync.WaitGroup
	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			reqCtx, cancel := context.WithTimeout(ctx, c.fanoutTimeout)
			defer cancel()
			results, err := postRange(reqCtx, c.httpClient, endpoint, q, r)
			out <- outcome{results: results, err: err}
		}(endpoint)
	}
	go func() { wg.Wait(); close(out) }()

	var allFailed = true
	seen := make(map[string]bool)
	var merged []vector.SearchResult
	for o := range out {
		if o.err != nil {
			continue
		}
		allFailed = false
		for _, r := range o.results {
			if seen[r.Vector.ID] {
				continue
			}
			seen[r.Vector.ID] = true
			merged = append(merged, r)
		}
	}
	if allFailed {
		return nil, fmt.Errorf("coordinator: range: %w", errkind.ErrAllWorkersFailed)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Less(merged[j]) })
	return merged, nil
}

// WorkerStatus is one worker's contribution to an aggregated status call.
type WorkerStatus struct {
	NodeID    string
	NodeURL   string
	Status    string
	MTreeSize int
}

// AggregateStatus calls /status on every registered worker in parallel
// with a short per-worker timeout. Unreachable workers are reported with
// Status "UNREACHABLE" rather than dropped.
func (c *Coordinator) AggregateStatus(ctx context.Context) []WorkerStatus {
	endpoints := c.workerEndpoints()
	out := make([]WorkerStatus, len(endpoints))
	ids := make([]string, 0, len(endpoints))
	for id := range endpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id, url string) {
			defer wg.Done()
			reqCtx, cancel := context.WithTimeout(ctx, c.statusTimeout)
			defer cancel()
			size, err := getStatus(reqCtx, c.httpClient, url)
			if err != nil {
				out[i] = WorkerStatus{NodeID: id, NodeURL: url, Status: "UNREACHABLE"}
				return
			}
			out[i] = WorkerStatus{NodeID: id, NodeURL: url, Status: "ok", MTreeSize: size}
		}(i, id, endpoints[id])
	}
	wg.Wait()
	return out
}

// ActiveWorkerCount returns the number of registered workers.
func (c *Coordinator) ActiveWorkerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.registry)
}
