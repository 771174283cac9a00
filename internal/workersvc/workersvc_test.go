package workersvc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haivivi/mtreecluster/internal/vector"
	"github.com/haivivi/mtreecluster/internal/wire"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Config{NodeID: "worker-test", MaxChildren: 4, MinChildren: 2, DistanceMetric: "euclidean"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestServiceInsertAndKNN(t *testing.T) {
	svc := newTestService(t)
	v, _ := vector.New("a", []float32{1, 2}, nil)
	if err := svc.Insert(v); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	q, _ := vector.New("q", []float32{1, 2}, nil)
	results, err := svc.KNN(q, 1)
	if err != nil {
		t.Fatalf("KNN: %v", err)
	}
	if len(results) != 1 || results[0].Vector.ID != "a" {
		t.Fatalf("KNN results = %+v, want [a]", results)
	}
}

func TestServiceKNNRejectsNonPositiveK(t *testing.T) {
	svc := newTestService(t)
	q, _ := vector.New("q", []float32{1, 2}, nil)
	if _, err := svc.KNN(q, 0); err == nil {
		t.Fatalf("expected error for k=0")
	}
}

func TestServiceRangeRejectsNonPositiveRadius(t *testing.T) {
	svc := newTestService(t)
	q, _ := vector.New("q", []float32{1, 2}, nil)
	if _, err := svc.Range(q, 0); err == nil {
		t.Fatalf("expected error for radius=0")
	}
}

func TestServiceStatus(t *testing.T) {
	svc := newTestService(t)
	v, _ := vector.New("a", []float32{1, 2}, nil)
	svc.Insert(v)
	st := svc.Status()
	if st.NodeID != "worker-test" || st.MTreeSize != 1 {
		t.Fatalf("Status() = %+v, want NodeID=worker-test MTreeSize=1", st)
	}
}

// ---------------------------------------------------------------------------
// HTTP handler tests
// ---------------------------------------------------------------------------

func doRequest(t *testing.T, mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleInsertAndSearch(t *testing.T) {
	svc := newTestService(t)
	mux := NewServer(svc).Mux()

	rec := doRequest(t, mux, http.MethodPost, "/insert", wire.VectorJSON{ID: "a", Vector: []float32{1, 2}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert status = %d, want %d, body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	rec = doRequest(t, mux, http.MethodPost, "/search/knn", wire.KNNRequest{
		QueryVector: wire.VectorJSON{ID: "q", Vector: []float32{1, 2}},
		K:           1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("knn status = %d, want %d, body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp wire.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].VectorID != "a" {
		t.Fatalf("knn results = %+v, want [a]", resp.Results)
	}
}

func TestHandleInsertRejectsMissingID(t *testing.T) {
	svc := newTestService(t)
	mux := NewServer(svc).Mux()
	rec := doRequest(t, mux, http.MethodPost, "/insert", wire.VectorJSON{Vector: []float32{1, 2}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("insert status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleKNNRejectsNonPositiveK(t *testing.T) {
	svc := newTestService(t)
	mux := NewServer(svc).Mux()
	rec := doRequest(t, mux, http.MethodPost, "/search/knn", wire.KNNRequest{
		QueryVector: wire.VectorJSON{ID: "q", Vector: []float32{1, 2}},
		K:           0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("knn status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleStatusAndHealth(t *testing.T) {
	svc := newTestService(t)
	mux := NewServer(svc).Mux()

	rec := doRequest(t, mux, http.MethodGet, "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	var st wire.WorkerStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.NodeID != "worker-test" {
		t.Fatalf("status node_id = %q, want worker-test", st.NodeID)
	}

	rec = doRequest(t, mux, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health code = %d, want %d", rec.Code, http.StatusOK)
	}
}
