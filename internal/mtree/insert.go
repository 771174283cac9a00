package mtree

import "github.com/haivivi/mtreecluster/internal/vector"

// Insert adds v to the tree. It fails with an ErrDimensionMismatch-wrapped
// error if v's dimension disagrees with the tree's established dimension;
// on failure the tree is left unchanged.
//
// Inserting a vector whose id already exists in the tree appends a second
// leaf entry rather than replacing the existing one — ids are not a
// uniqueness constraint here, per the cluster's duplicate-id contract.
func (t *Tree) Insert(v vector.Vector) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkDim(v); err != nil {
		return err
	}
	if !t.hasDim {
		t.dim = v.Dim()
		t.hasDim = true
	}

	if t.root == invalidHandle {
		h := t.newNode(true)
		t.nodes[h].entries = append(t.nodes[h].entries, entry{routing: v, child: invalidHandle})
		t.root = h
		t.size++
		return nil
	}

	cur := t.root
	for !t.nodes[cur].isLeaf {
		idx := t.chooseEntry(cur, v)
		cur = t.nodes[cur].entries[idx].child
	}
	leaf := cur

	e := entry{routing: v, child: invalidHandle}
	if parentRouting, ok := t.parentRoutingOf(leaf); ok {
		e.distToParent = t.dist(v.Data, parentRouting.Data)
		e.hasDistToParent = true
	}
	t.nodes[leaf].entries = append(t.nodes[leaf].entries, e)
	trackIdx := len(t.nodes[leaf].entries) - 1
	t.size++

	containing := leaf
	if len(t.nodes[leaf].entries) > t.maxChildren {
		_, _, tracked := t.split(leaf, trackIdx)
		containing = tracked
	}
	t.widenAncestors(containing, v)
	return nil
}

// chooseEntry implements leaf selection: prefer the entry that already
// covers v, breaking ties by smaller distance; failing that, the entry
// whose covering radius would enlarge least, breaking ties by smaller
// distance then by lower index for determinism.
func (t *Tree) chooseEntry(h nodeHandle, v vector.Vector) int {
	entries := t.nodes[h].entries

	bestFit, bestFitDist := -1, 0.0
	bestOverflow, bestEnlarge, bestOverflowDist := -1, 0.0, 0.0

	for i, e := range entries {
		d := t.dist(v.Data, e.routing.Data)
		if d <= e.radius {
			if bestFit == -1 || d < bestFitDist {
				bestFit, bestFitDist = i, d
			}
			continue
		}
		enlarge := d - e.radius
		if bestOverflow == -1 || enlarge < bestEnlarge || (enlarge == bestEnlarge && d < bestOverflowDist) {
			bestOverflow, bestEnlarge, bestOverflowDist = i, enlarge, d
		}
	}
	if bestFit != -1 {
		return bestFit
	}
	return bestOverflow
}

// widenAncestors walks from h up to the root, widening every ancestor
// entry's covering radius so that invariant 2 (coverage) holds for the
// newly inserted v.
func (t *Tree) widenAncestors(h nodeHandle, v vector.Vector) {
	cur := h
	for t.nodes[cur].parent != invalidHandle {
		p := t.nodes[cur].parent
		idx := t.nodes[cur].parentEntryIdx
		e := &t.nodes[p].entries[idx]
		if d := t.dist(e.routing.Data, v.Data); d > e.radius {
			e.radius = d
		}
		cur = p
	}
}
