// Package errkind collects the sentinel errors shared across the metric
// tree, the ring, the worker, and the coordinator, plus the HTTP status
// code each maps to. Both RPC surfaces consult StatusCode when writing an
// error response so that a client sees one consistent error shape
// regardless of which layer produced the failure.
package errkind

import (
	"errors"
	"net/http"
)

// Sentinel errors. Wrap these with fmt.Errorf("...: %w", Err...) to add
// detail without losing errors.Is matchability.
var (
	ErrDimensionMismatch  = errors.New("errkind: dimension mismatch")
	ErrInvalidArgument    = errors.New("errkind: invalid argument")
	ErrEmptyRing          = errors.New("errkind: ring has no nodes")
	ErrNoActiveWorkers    = errors.New("errkind: no active workers")
	ErrAlreadyPresent     = errors.New("errkind: already present")
	ErrNotFound           = errors.New("errkind: not found")
	ErrWorkerUnreachable  = errors.New("errkind: worker unreachable")
	ErrNoRouteToAnyWorker = errors.New("errkind: no route to any worker")
	ErrAllWorkersFailed   = errors.New("errkind: all workers failed")
	ErrInternalTree       = errors.New("errkind: internal tree error")
)

// StatusCode maps an error produced anywhere in this service to the HTTP
// status code spec.md §6/§7 assigns it. Unrecognized errors map to 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrEmptyRing), errors.Is(err, ErrNoActiveWorkers):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrAlreadyPresent):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoRouteToAnyWorker):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrAllWorkersFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrInternalTree):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
