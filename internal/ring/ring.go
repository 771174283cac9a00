// Package ring implements a consistent-hash ring over virtual nodes: it
// maps a vector id to exactly one responsible worker id, and keeps that
// mapping stable as workers are added or removed.
package ring

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/haivivi/mtreecluster/internal/errkind"
)

// DefaultReplicas is the number of virtual points created per physical
// node when Replicas is left at zero.
const DefaultReplicas = 100

type virtualPoint struct {
	hash uint32
	node string
}

// Ring is a concurrency-safe consistent-hash ring. GetNode is a pure
// function of the ring's current state: repeated calls between mutations
// return the same answer.
type Ring struct {
	mu       sync.RWMutex
	replicas int
	points   []virtualPoint // sorted ascending by hash
	nodes    map[string]struct{}
}

// New creates an empty ring with the given number of virtual points per
// physical node. A non-positive value falls back to DefaultReplicas.
func New(replicas int) *Ring {
	if replicas <= 0 {
		replicas = DefaultReplicas
	}
	return &Ring{
		replicas: replicas,
		nodes:    make(map[string]struct{}),
	}
}

// hashKey returns the low 32 bits of SHA-1(key), the wire contract both
// test fixtures and cross-language clients depend on for placement
// determinism.
func hashKey(key string) uint32 {
	sum := sha1.Sum([]byte(key))
	return binary.BigEndian.Uint32(sum[16:20])
}

// AddNode registers a physical node, creating Replicas virtual points
// named "{id}-{i}" for i in [0, Replicas). Fails with ErrAlreadyPresent
// if id is already registered.
func (r *Ring) AddNode(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[id]; ok {
		return fmt.Errorf("ring: %w: node %q", errkind.ErrAlreadyPresent, id)
	}
	r.nodes[id] = struct{}{}

	for i := 0; i < r.replicas; i++ {
		key := fmt.Sprintf("%s-%d", id, i)
		r.points = append(r.points, virtualPoint{hash: hashKey(key), node: id})
	}
	sort.Slice(r.points, func(i, j int) bool { return r.points[i].hash < r.points[j].hash })
	return nil
}

// RemoveNode deregisters a physical node and all of its virtual points.
// Fails with ErrNotFound if id is not registered.
func (r *Ring) RemoveNode(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[id]; !ok {
		return fmt.Errorf("ring: %w: node %q", errkind.ErrNotFound, id)
	}
	delete(r.nodes, id)

	kept := r.points[:0]
	for _, p := range r.points {
		if p.node != id {
			kept = append(kept, p)
		}
	}
	r.points = kept
	return nil
}

// GetNode returns the physical node id responsible for key: the node
// owning the least virtual point whose hash is >= hash(key), wrapping to
// the first point if none qualifies. Fails with ErrEmptyRing if no nodes
// are registered.
func (r *Ring) GetNode(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.points) == 0 {
		return "", fmt.Errorf("ring: %w", errkind.ErrEmptyRing)
	}

	h := hashKey(key)
	idx := sort.Search(len(r.points), func(i int) bool { return r.points[i].hash >= h })
	if idx == len(r.points) {
		idx = 0
	}
	return r.points[idx].node, nil
}

// NodeCount returns the number of distinct physical nodes registered.
func (r *Ring) NodeCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// PointCount returns the total number of virtual points on the ring —
// always Replicas * NodeCount().
func (r *Ring) PointCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.points)
}
