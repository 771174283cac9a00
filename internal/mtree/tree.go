// Package mtree implements a balanced, height-uniform M-tree over a
// general metric space: incremental insertion with node splits, and
// k-nearest-neighbor and range queries driven by branch-and-bound search
// over covering radii.
//
// The representation is an arena of nodes indexed by integer handles
// rather than pointer-linked nodes with owning back-references — splits
// become handle-table operations instead of juggling cyclic ownership.
package mtree

import (
	"fmt"
	"sync"

	"github.com/haivivi/mtreecluster/internal/errkind"
	"github.com/haivivi/mtreecluster/internal/metric"
	"github.com/haivivi/mtreecluster/internal/vector"
)

// Config controls tree shape and the distance function used to compare
// vectors. MinChildren must be at least 2 and at most ceil(MaxChildren/2).
type Config struct {
	MaxChildren int
	MinChildren int
	Metric      metric.Metric
}

func (c *Config) setDefaults() {
	if c.MaxChildren <= 0 {
		c.MaxChildren = 4
	}
	if c.MinChildren <= 0 {
		c.MinChildren = 2
	}
	if c.Metric == nil {
		c.Metric = metric.Euclidean
	}
}

// Tree is a concurrency-safe M-tree. Reads (KNN, Range, Size) may proceed
// in parallel; Insert takes an exclusive lock. A Tree is ready to use as
// soon as it is constructed with New; the dimension of stored vectors is
// fixed by the first successful Insert.
type Tree struct {
	mu sync.RWMutex

	maxChildren int
	minChildren int
	dist        metric.Metric

	dim    int
	hasDim bool

	root  nodeHandle
	nodes []treeNode
	size  int
}

// New creates an empty tree with the given configuration.
func New(cfg Config) *Tree {
	cfg.setDefaults()
	return &Tree{
		maxChildren: cfg.MaxChildren,
		minChildren: cfg.MinChildren,
		dist:        cfg.Metric,
		root:        invalidHandle,
	}
}

// Size returns the number of stored data vectors.
func (t *Tree) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

func (t *Tree) newNode(isLeaf bool) nodeHandle {
	t.nodes = append(t.nodes, treeNode{
		isLeaf:         isLeaf,
		parent:         invalidHandle,
		parentEntryIdx: -1,
	})
	return nodeHandle(len(t.nodes) - 1)
}

// syncChildLinks refreshes parent/parentEntryIdx for every child referenced
// by h's entries. Called whenever h's entries slice is replaced or
// reordered, since slice splicing shifts indices that children's back
// references must track.
func (t *Tree) syncChildLinks(h nodeHandle) {
	if t.nodes[h].isLeaf {
		return
	}
	for i, e := range t.nodes[h].entries {
		t.nodes[e.child].parent = h
		t.nodes[e.child].parentEntryIdx = i
	}
}

// parentRoutingOf returns the routing object of the entry that references
// h from h's parent node, and whether h has a parent at all (false for the
// root, per the "undefined for root-level entries" rule).
func (t *Tree) parentRoutingOf(h nodeHandle) (vector.Vector, bool) {
	p := t.nodes[h].parent
	if p == invalidHandle {
		return vector.Vector{}, false
	}
	idx := t.nodes[h].parentEntryIdx
	return t.nodes[p].entries[idx].routing, true
}

func (t *Tree) checkDim(v vector.Vector) error {
	if !t.hasDim {
		return nil
	}
	if v.Dim() != t.dim {
		return fmt.Errorf("mtree: %w: got dim %d, want %d", errkind.ErrDimensionMismatch, v.Dim(), t.dim)
	}
	return nil
}
