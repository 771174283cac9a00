package coordinator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haivivi/mtreecluster/internal/wire"
)

func doCoordRequest(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCoordinatorHandleRegisterAndStatus(t *testing.T) {
	c := newTestCoordinator()
	w := newFakeWorker(t, "w1")
	defer w.close()
	mux := NewServer(c).Mux()

	rec := doCoordRequest(t, mux, http.MethodPost, "/register_worker", wire.RegisterWorkerRequest{NodeID: "w1", NodeURL: w.server.URL})
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d, want %d, body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}

	rec = doCoordRequest(t, mux, http.MethodGet, "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp wire.CoordinatorStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ActiveWorkersCount != 1 {
		t.Fatalf("active_workers_count = %d, want 1", resp.ActiveWorkersCount)
	}
}

func TestCoordinatorHandleRegisterRejectsMissingFields(t *testing.T) {
	c := newTestCoordinator()
	mux := NewServer(c).Mux()
	rec := doCoordRequest(t, mux, http.MethodPost, "/register_worker", wire.RegisterWorkerRequest{NodeID: "w1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCoordinatorHandleDeregisterUnknown(t *testing.T) {
	c := newTestCoordinator()
	mux := NewServer(c).Mux()
	rec := doCoordRequest(t, mux, http.MethodPost, "/deregister_worker", wire.DeregisterWorkerRequest{NodeID: "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCoordinatorHandleInsertVectorNoWorkers(t *testing.T) {
	c := newTestCoordinator()
	mux := NewServer(c).Mux()
	rec := doCoordRequest(t, mux, http.MethodPost, "/insert_vector", wire.VectorJSON{ID: "a", Vector: []float32{1, 2}})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d, body=%s", rec.Code, http.StatusServiceUnavailable, rec.Body.String())
	}
}

func TestCoordinatorHandleInsertVectorAccepted(t *testing.T) {
	c := newTestCoordinator()
	w := newFakeWorker(t, "w1")
	defer w.close()
	c.RegisterWorker("w1", w.server.URL)
	mux := NewServer(c).Mux()

	rec := doCoordRequest(t, mux, http.MethodPost, "/insert_vector", wire.VectorJSON{ID: "a", Vector: []float32{1, 2}})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d, body=%s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
}

func TestCoordinatorHandleKNNNoActiveWorkers(t *testing.T) {
	c := newTestCoordinator()
	mux := NewServer(c).Mux()
	rec := doCoordRequest(t, mux, http.MethodPost, "/search/knn", wire.KNNRequest{
		QueryVector: wire.VectorJSON{ID: "q", Vector: []float32{1, 2}},
		K:           1,
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
