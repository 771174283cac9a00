// Package vector defines the data model shared by the metric tree, the
// consistent-hash ring, and both RPC surfaces: an immutable, identified
// fixed-dimension vector and the result pair returned by searches.
package vector

import (
	"fmt"

	"github.com/haivivi/mtreecluster/internal/errkind"
)

// Vector is an immutable identified point in an n-dimensional space, with
// optional opaque metadata. Equality is by (ID, Data); hashing is by ID.
//
// A Vector is never mutated after construction: once routed to a worker's
// tree it is owned by exactly one leaf entry for the lifetime of the
// process.
type Vector struct {
	ID       string
	Data     []float32
	Metadata map[string]any
}

// New validates and constructs a Vector. It fails if id is empty or data
// has zero length; dimension agreement with an existing tree is checked
// separately by the tree itself (ErrDimensionMismatch).
func New(id string, data []float32, metadata map[string]any) (Vector, error) {
	if id == "" {
		return Vector{}, fmt.Errorf("vector: id must not be empty: %w", errkind.ErrInvalidArgument)
	}
	if len(data) == 0 {
		return Vector{}, fmt.Errorf("vector: data must have at least one element: %w", errkind.ErrInvalidArgument)
	}
	cp := make([]float32, len(data))
	copy(cp, data)
	return Vector{ID: id, Data: cp, Metadata: metadata}, nil
}

// Dim returns the dimension of the vector.
func (v Vector) Dim() int {
	return len(v.Data)
}

// SearchResult pairs a matched vector with its distance to the query.
// Results are ordered ascending by Distance; ties are broken by Vector.ID
// for deterministic output.
type SearchResult struct {
	Vector   Vector
	Distance float64
}

// Less reports whether r should sort before other: by distance, then by id.
func (r SearchResult) Less(other SearchResult) bool {
	if r.Distance != other.Distance {
		return r.Distance < other.Distance
	}
	return r.Vector.ID < other.Vector.ID
}
