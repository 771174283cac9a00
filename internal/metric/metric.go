// Package metric provides the distance functions the tree prunes branches
// with. Distances are expressed as a small function type rather than an
// interface with subclass dispatch, so the per-comparison cost stays
// negligible on the hot path of a branch-and-bound search.
package metric

import (
	"fmt"
	"math"

	"github.com/haivivi/mtreecluster/internal/errkind"
)

// Metric computes a non-negative distance between two equal-length vectors.
// Implementations must satisfy identity (d(a,a)=0), symmetry, and the
// triangle inequality.
type Metric func(a, b []float32) float64

// Euclidean is the L2 norm of the difference between a and b.
func Euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Cosine is 1 - cosine_similarity(a, b), clamped to [0, 2]. Any zero-norm
// operand yields 1.0 rather than an undefined similarity — the single
// policy called for when the two obvious source behaviors disagree.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	d := 1 - sim
	if d < 0 {
		d = 0
	}
	if d > 2 {
		d = 2
	}
	return d
}

// Parse resolves a configured metric name to a Metric, as used by
// M_TREE_DISTANCE_METRIC. Unknown names are an InvalidArgument-class error.
func Parse(name string) (Metric, error) {
	switch name {
	case "", "euclidean":
		return Euclidean, nil
	case "cosine":
		return Cosine, nil
	default:
		return nil, fmt.Errorf("metric: unknown distance metric %q: %w", name, errkind.ErrInvalidArgument)
	}
}
