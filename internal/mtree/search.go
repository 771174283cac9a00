package mtree

import (
	"container/heap"
	"math"
	"sort"

	"github.com/haivivi/mtreecluster/internal/vector"
)

// frontierItem is a candidate node waiting to be explored, ordered by its
// lower bound on the distance from the query to anything reachable
// through it. qToRouting is the exact distance from the query to the
// routing object of the entry that leads to node — the cached value the
// algorithm reuses to lower-bound node's own entries without touching the
// metric again.
type frontierItem struct {
	lowerBound    float64
	node          nodeHandle
	qToRouting    float64
	hasQToRouting bool
}

type frontierHeap []frontierItem

func (h frontierHeap) Len() int            { return len(h) }
func (h frontierHeap) Less(i, j int) bool  { return h[i].lowerBound < h[j].lowerBound }
func (h frontierHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *frontierHeap) Push(x any)         { *h = append(*h, x.(frontierItem)) }
func (h *frontierHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// resultItem is a candidate match kept in the bounded max-heap during
// KNN search: the heap root is always the current farthest result.
type resultItem struct {
	v    vector.Vector
	dist float64
}

type resultMaxHeap []resultItem

func (h resultMaxHeap) Len() int           { return len(h) }
func (h resultMaxHeap) Less(i, j int) bool { return h[i].dist > h[j].dist }
func (h resultMaxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultMaxHeap) Push(x any)        { *h = append(*h, x.(resultItem)) }
func (h *resultMaxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// KNN returns at most min(k, Size()) results ordered ascending by
// distance to q, exact to the brute-force ordering under the tree's
// metric. It fails with ErrDimensionMismatch if q's dimension disagrees
// with the tree's.
func (t *Tree) KNN(q vector.Vector, k int) ([]vector.SearchResult, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.checkDim(q); err != nil {
		return nil, err
	}
	if t.root == invalidHandle || k <= 0 {
		return nil, nil
	}

	results := &resultMaxHeap{}
	frontier := &frontierHeap{}
	heap.Push(frontier, frontierItem{node: t.root})

	for frontier.Len() > 0 {
		dk := math.Inf(1)
		if results.Len() >= k {
			dk = (*results)[0].dist
		}

		item := heap.Pop(frontier).(frontierItem)
		if item.lowerBound > dk {
			break
		}

		node := t.nodes[item.node]
		if node.isLeaf {
			for _, e := range node.entries {
				if item.hasQToRouting && e.hasDistToParent {
					if math.Abs(item.qToRouting-e.distToParent) > dk {
						continue
					}
				}
				d := t.dist(q.Data, e.routing.Data)
				if d > dk {
					continue
				}
				heap.Push(results, resultItem{v: e.routing, dist: d})
				if results.Len() > k {
					heap.Pop(results)
				}
			}
			continue
		}

		for _, e := range node.entries {
			if item.hasQToRouting && e.hasDistToParent {
				if math.Abs(item.qToRouting-e.distToParent) > dk+e.radius {
					continue
				}
			}
			d := t.dist(q.Data, e.routing.Data)
			if d-e.radius > dk {
				continue
			}
			lb := d - e.radius
			if lb < 0 {
				lb = 0
			}
			heap.Push(frontier, frontierItem{lowerBound: lb, node: e.child, qToRouting: d, hasQToRouting: true})
		}
	}

	return sortedResults(*results), nil
}

// Range returns every stored vector within radius r of q, ordered
// ascending by distance. It fails with ErrDimensionMismatch if q's
// dimension disagrees with the tree's.
func (t *Tree) Range(q vector.Vector, r float64) ([]vector.SearchResult, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.checkDim(q); err != nil {
		return nil, err
	}
	if t.root == invalidHandle {
		return nil, nil
	}

	var out []vector.SearchResult
	frontier := &frontierHeap{}
	heap.Push(frontier, frontierItem{node: t.root})

	for frontier.Len() > 0 {
		item := heap.Pop(frontier).(frontierItem)
		if item.lowerBound > r {
			break
		}

		node := t.nodes[item.node]
		if node.isLeaf {
			for _, e := range node.entries {
				if item.hasQToRouting && e.hasDistToParent {
					if math.Abs(item.qToRouting-e.distToParent) > r {
						continue
					}
				}
				d := t.dist(q.Data, e.routing.Data)
				if d <= r {
					out = append(out, vector.SearchResult{Vector: e.routing, Distance: d})
				}
			}
			continue
		}

		for _, e := range node.entries {
			if item.hasQToRouting && e.hasDistToParent {
				if math.Abs(item.qToRouting-e.distToParent) > r+e.radius {
					continue
				}
			}
			d := t.dist(q.Data, e.routing.Data)
			if d-e.radius > r {
				continue
			}
			lb := d - e.radius
			if lb < 0 {
				lb = 0
			}
			heap.Push(frontier, frontierItem{lowerBound: lb, node: e.child, qToRouting: d, hasQToRouting: true})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

func sortedResults(h resultMaxHeap) []vector.SearchResult {
	out := make([]vector.SearchResult, len(h))
	for i, r := range h {
		out[i] = vector.SearchResult{Vector: r.v, Distance: r.dist}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
