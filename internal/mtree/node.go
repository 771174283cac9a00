package mtree

import "github.com/haivivi/mtreecluster/internal/vector"

// nodeHandle is an index into Tree.nodes. Nodes are arena-allocated and
// never reused once created, avoiding cyclic ownership between a node and
// its parent (see the package doc for the reasoning).
type nodeHandle int32

const invalidHandle nodeHandle = -1

// entry is a single routing slot inside a node. For a leaf node, entry
// represents a stored data vector directly (radius is always 0, child is
// invalidHandle). For an internal node, entry routes to a child subtree:
// routing is the promoted vector standing in for that subtree, and radius
// is the tight covering radius over every vector reachable through child.
type entry struct {
	routing         vector.Vector
	radius          float64
	distToParent    float64
	hasDistToParent bool
	child           nodeHandle
}

// reach returns the worst-case distance from c to anything reachable
// through e: the distance to e's routing object plus e's own covering
// radius. Used by the split heuristic to size a candidate partition.
func reach(dist func(a, b []float32) float64, c vector.Vector, e entry) float64 {
	return dist(c.Data, e.routing.Data) + e.radius
}

// treeNode is one node of the tree: a homogeneous set of entries (all
// leaf or all internal) plus a back-reference to the parent node and the
// index within the parent's entries that owns this node. Height
// uniformity means every leaf node sits at the same depth from the root.
type treeNode struct {
	isLeaf         bool
	entries        []entry
	parent         nodeHandle
	parentEntryIdx int
}
