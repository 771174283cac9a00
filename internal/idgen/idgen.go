// Package idgen generates identifiers for test fixtures and benchmark
// tooling. Production vector ids are always client-supplied and never
// pass through this package.
package idgen

import "github.com/google/uuid"

// VectorID returns a random id suitable for seeding test and benchmark
// vectors, prefixed so it reads clearly in fixture output.
func VectorID() string {
	return "vec_" + uuid.New().String()[:12]
}

// RequestID returns a random id for correlating a single coordinator or
// worker request across log lines.
func RequestID() string {
	return "req_" + uuid.New().String()[:12]
}
