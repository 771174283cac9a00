package errkind

import (
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrDimensionMismatch, http.StatusBadRequest},
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrEmptyRing, http.StatusServiceUnavailable},
		{ErrNoActiveWorkers, http.StatusServiceUnavailable},
		{ErrAlreadyPresent, http.StatusConflict},
		{ErrNotFound, http.StatusNotFound},
		{ErrNoRouteToAnyWorker, http.StatusServiceUnavailable},
		{ErrAllWorkersFailed, http.StatusBadGateway},
		{ErrInternalTree, http.StatusInternalServerError},
		{fmt.Errorf("unmapped error"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Fatalf("StatusCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestStatusCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("workersvc: insert: %w", ErrDimensionMismatch)
	if got := StatusCode(wrapped); got != http.StatusBadRequest {
		t.Fatalf("StatusCode(wrapped) = %d, want %d", got, http.StatusBadRequest)
	}
}
