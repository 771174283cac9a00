package mtree

import (
	"math/rand/v2"

	"github.com/haivivi/mtreecluster/internal/vector"
)

// minSamplePairs is the lower bound on candidate pairs considered when
// MAX_CHILDREN is too large to enumerate every pair exactly.
const minSamplePairs = 20

// exactPromotionThreshold mirrors spec's "MAX_CHILDREN small (<= 8)":
// below this the mM_RAD_2 enumeration is exhaustive, above it a bounded
// random sample of candidate pairs is used instead.
const exactPromotionThreshold = 8

type pairCandidate struct {
	i, j       int
	radA, radB float64
}

// lessPair orders two equally-summed candidates by the reproducibility
// tie-break: lexicographic (radius_a, radius_b, id_a, id_b).
func lessPair(entries []entry, c, best pairCandidate) bool {
	if c.radA != best.radA {
		return c.radA < best.radA
	}
	if c.radB != best.radB {
		return c.radB < best.radB
	}
	if entries[c.i].routing.ID != entries[best.i].routing.ID {
		return entries[c.i].routing.ID < entries[best.i].routing.ID
	}
	return entries[c.j].routing.ID < entries[best.j].routing.ID
}

// split performs an mM_RAD_2 promotion and generalized-hyperplane
// partition on the overflowing node h, replaces h with two new sibling
// nodes in h's parent (or allocates a new root if h was the root), and
// cascades the split upward if the parent now overflows too.
//
// trackIdx, if >= 0, names an original entry index in h whose new home
// the caller wants to know; the returned tracked handle is invalidHandle
// when trackIdx is < 0.
func (t *Tree) split(h nodeHandle, trackIdx int) (a, b, tracked nodeHandle) {
	entries := t.nodes[h].entries
	n := len(entries)
	isLeaf := t.nodes[h].isLeaf

	candidates := t.candidatePairs(n)

	var best pairCandidate
	haveBest := false
	for _, c := range candidates {
		i, j := c[0], c[1]
		oi, oj := entries[i].routing, entries[j].routing
		radA, radB := entries[i].radius, entries[j].radius
		for k, e := range entries {
			if k == i || k == j {
				continue
			}
			di := t.dist(oi.Data, e.routing.Data)
			dj := t.dist(oj.Data, e.routing.Data)
			if di <= dj {
				if r := reach(t.dist, oi, e); r > radA {
					radA = r
				}
			} else {
				if r := reach(t.dist, oj, e); r > radB {
					radB = r
				}
			}
		}
		cand := pairCandidate{i: i, j: j, radA: radA, radB: radB}
		if !haveBest {
			best, haveBest = cand, true
			continue
		}
		if cand.radA+cand.radB < best.radA+best.radB {
			best = cand
		} else if cand.radA+cand.radB == best.radA+best.radB && lessPair(entries, cand, best) {
			best = cand
		}
	}

	oi, oj := entries[best.i].routing, entries[best.j].routing
	sideA, sideB := []int{best.i}, []int{best.j}
	for k := range entries {
		if k == best.i || k == best.j {
			continue
		}
		di := t.dist(oi.Data, entries[k].routing.Data)
		dj := t.dist(oj.Data, entries[k].routing.Data)
		switch {
		case di < dj:
			sideA = append(sideA, k)
		case dj < di:
			sideB = append(sideB, k)
		default:
			if len(sideA) <= len(sideB) {
				sideA = append(sideA, k)
			} else {
				sideB = append(sideB, k)
			}
		}
	}

	t.enforceMinChildren(&sideA, &sideB, oi, oj, best.j, entries)
	t.enforceMinChildren(&sideB, &sideA, oj, oi, best.i, entries)

	radA := t.tightRadius(oi, sideA, entries)
	radB := t.tightRadius(oj, sideB, entries)

	newEntriesA, trackedInA := buildPartitionEntries(t, oi, sideA, entries, trackIdx)
	newEntriesB, trackedInB := buildPartitionEntries(t, oj, sideB, entries, trackIdx)

	newA := t.newNode(isLeaf)
	newB := t.newNode(isLeaf)
	t.nodes[newA].entries = newEntriesA
	t.nodes[newB].entries = newEntriesB
	if !isLeaf {
		t.syncChildLinks(newA)
		t.syncChildLinks(newB)
	}

	tracked = invalidHandle
	if trackIdx >= 0 {
		if trackedInA {
			tracked = newA
		} else if trackedInB {
			tracked = newB
		}
	}

	if t.nodes[h].parent == invalidHandle {
		newRoot := t.newNode(false)
		t.nodes[newRoot].entries = []entry{
			{routing: oi, radius: radA, child: newA},
			{routing: oj, radius: radB, child: newB},
		}
		t.syncChildLinks(newRoot)
		t.root = newRoot
		return newA, newB, tracked
	}

	parent := t.nodes[h].parent
	pIdx := t.nodes[h].parentEntryIdx

	var distA, distB float64
	var hasDist bool
	if grandParentRouting, ok := t.parentRoutingOf(parent); ok {
		distA = t.dist(oi.Data, grandParentRouting.Data)
		distB = t.dist(oj.Data, grandParentRouting.Data)
		hasDist = true
	}

	old := t.nodes[parent].entries
	spliced := make([]entry, 0, len(old)+1)
	spliced = append(spliced, old[:pIdx]...)
	spliced = append(spliced,
		entry{routing: oi, radius: radA, child: newA, distToParent: distA, hasDistToParent: hasDist},
		entry{routing: oj, radius: radB, child: newB, distToParent: distB, hasDistToParent: hasDist},
	)
	spliced = append(spliced, old[pIdx+1:]...)
	t.nodes[parent].entries = spliced
	t.syncChildLinks(parent)

	if len(t.nodes[parent].entries) > t.maxChildren {
		t.split(parent, -1)
	}

	return newA, newB, tracked
}

// candidatePairs returns the index pairs (i, j), i < j, considered by the
// mM_RAD_2 promotion heuristic: every pair when MAX_CHILDREN is small
// enough for exact enumeration, otherwise a bounded random sample.
func (t *Tree) candidatePairs(n int) [][2]int {
	if t.maxChildren <= exactPromotionThreshold {
		pairs := make([][2]int, 0, n*(n-1)/2)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, [2]int{i, j})
			}
		}
		return pairs
	}

	total := n * (n - 1) / 2
	want := minSamplePairs
	if want > total {
		want = total
	}
	seen := make(map[[2]int]bool, want)
	pairs := make([][2]int, 0, want)
	for len(pairs) < want {
		i, j := rand.IntN(n), rand.IntN(n)
		if i == j {
			continue
		}
		if i > j {
			i, j = j, i
		}
		key := [2]int{i, j}
		if seen[key] {
			continue
		}
		seen[key] = true
		pairs = append(pairs, key)
	}
	return pairs
}

// enforceMinChildren moves entries from big to small — never the pivot
// entry at pivotIdx, which must stay on big's side — until small meets
// MinChildren, each time choosing the move that least increases small's
// resulting covering radius. Stops early if big would drop below one
// entry (its own pivot), which should not happen for any valid
// configuration (MinChildren <= ceil(MaxChildren/2)).
func (t *Tree) enforceMinChildren(small, big *[]int, smallRouting, bigRouting vector.Vector, pivotIdx int, entries []entry) {
	for len(*small) < t.minChildren && len(*big) > 1 {
		bestPos := -1
		bestRadius := 0.0
		for pos, k := range *big {
			if k == pivotIdx {
				continue
			}
			r := t.tightRadius(smallRouting, append(append([]int{}, *small...), k), entries)
			if bestPos == -1 || r < bestRadius {
				bestPos, bestRadius = pos, r
			}
		}
		if bestPos == -1 {
			break
		}
		moved := (*big)[bestPos]
		*big = append((*big)[:bestPos], (*big)[bestPos+1:]...)
		*small = append(*small, moved)
	}
}

// tightRadius returns the covering radius that routing must have to cover
// every entry named by idx, via reach (distance to the entry plus the
// entry's own radius).
func (t *Tree) tightRadius(routing vector.Vector, idx []int, entries []entry) float64 {
	radius := 0.0
	for _, k := range idx {
		if r := reach(t.dist, routing, entries[k]); r > radius {
			radius = r
		}
	}
	return radius
}

// buildPartitionEntries materializes the entries for one side of a split,
// recomputing distToParent against the side's new routing object, and
// reports whether trackIdx (an index into the original entries slice, or
// < 0 if the caller doesn't care) landed in this side.
func buildPartitionEntries(t *Tree, routing vector.Vector, idx []int, entries []entry, trackIdx int) ([]entry, bool) {
	out := make([]entry, 0, len(idx))
	tracked := false
	for _, k := range idx {
		e := entries[k]
		e.distToParent = t.dist(routing.Data, e.routing.Data)
		e.hasDistToParent = true
		out = append(out, e)
		if k == trackIdx {
			tracked = true
		}
	}
	return out, tracked
}
