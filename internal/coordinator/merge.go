package coordinator

import (
	"sort"

	"github.com/haivivi/mtreecluster/internal/vector"
)

// resultMaxHeap bounds the merged k-NN result set to k entries: the root
// is always the current farthest candidate, evicted first when a closer
// one arrives. Mirrors the per-worker bounded max-heap the metric tree
// itself uses during branch-and-bound search.
type resultMaxHeap []vector.SearchResult

func (h resultMaxHeap) Len() int           { return len(h) }
func (h resultMaxHeap) Less(i, j int) bool { return h[j].Less(h[i]) }
func (h resultMaxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultMaxHeap) Push(x any)        { *h = append(*h, x.(vector.SearchResult)) }
func (h *resultMaxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func sortedMerged(h resultMaxHeap) []vector.SearchResult {
	out := make([]vector.SearchResult, len(h))
	copy(out, h)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
