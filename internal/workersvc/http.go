package workersvc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/haivivi/mtreecluster/internal/errkind"
	"github.com/haivivi/mtreecluster/internal/vector"
	"github.com/haivivi/mtreecluster/internal/wire"
)

// Server exposes a Service over the worker HTTP surface defined in
// spec.md §6: GET /status, GET /health, POST /insert, POST /search/knn,
// POST /search/range.
type Server struct {
	svc *Service
}

// NewServer wraps svc in an HTTP handler.
func NewServer(svc *Service) *Server {
	return &Server{svc: svc}
}

// Mux builds the worker's request router.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /insert", s.handleInsert)
	mux.HandleFunc("POST /search/knn", s.handleKNN)
	mux.HandleFunc("POST /search/range", s.handleRange)
	return mux
}

// ServeHTTP lets Server be used directly as an http.Handler, logging
// method, path, status, and latency for every request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.Mux().ServeHTTP(rec, r)
	slog.Info("worker request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "latency", time.Since(start))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Status()
	writeJSON(w, http.StatusOK, wire.WorkerStatusResponse{
		NodeID:       st.NodeID,
		Status:       "ok",
		MTreeSize:    st.MTreeSize,
		MTreeMetrics: "",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wire.HealthResponse{Status: "healthy", NodeID: s.svc.NodeID()})
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req wire.VectorJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ID == "" || len(req.Vector) == 0 {
		writeError(w, http.StatusBadRequest, "id and vector are required")
		return
	}
	v, err := vector.New(req.ID, req.Vector, req.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.Insert(v); err != nil {
		writeError(w, errkind.StatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, wire.InsertResponse{Status: "success"})
}

func (s *Server) handleKNN(w http.ResponseWriter, r *http.Request) {
	var req wire.KNNRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.K <= 0 {
		writeError(w, http.StatusBadRequest, "k must be a positive integer")
		return
	}
	q, err := vector.New(req.QueryVector.ID, req.QueryVector.Vector, req.QueryVector.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.svc.KNN(q, req.K)
	if err != nil {
		writeError(w, errkind.StatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wire.SearchResponse{Status: "success", Results: toResultJSON(results)})
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	var req wire.RangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Radius <= 0 {
		writeError(w, http.StatusBadRequest, "radius must be positive")
		return
	}
	q, err := vector.New(req.QueryVector.ID, req.QueryVector.Vector, req.QueryVector.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results, err := s.svc.Range(q, req.Radius)
	if err != nil {
		writeError(w, errkind.StatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wire.SearchResponse{Status: "success", Results: toResultJSON(results)})
}

func toResultJSON(results []vector.SearchResult) []wire.SearchResultJSON {
	out := make([]wire.SearchResultJSON, len(results))
	for i, r := range results {
		out[i] = wire.SearchResultJSON{
			VectorID:          r.Vector.ID,
			Distance:          r.Distance,
			VectorDataSnippet: r.Vector.Data,
			Metadata:          r.Vector.Metadata,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("worker: encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, wire.ErrorResponse{Status: "error", Message: message})
}
