package coordinator

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/haivivi/mtreecluster/internal/errkind"
	"github.com/haivivi/mtreecluster/internal/vector"
	"github.com/haivivi/mtreecluster/internal/wire"
)

// Server exposes a Coordinator over the HTTP surface defined in spec.md
// §6: GET /status, POST /register_worker, POST /deregister_worker,
// POST /insert_vector, POST /search/knn, POST /search/range.
type Server struct {
	coord *Coordinator
}

// NewServer wraps coord in an HTTP handler.
func NewServer(coord *Coordinator) *Server {
	return &Server{coord: coord}
}

// Mux builds the coordinator's request router.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /register_worker", s.handleRegisterWorker)
	mux.HandleFunc("POST /deregister_worker", s.handleDeregisterWorker)
	mux.HandleFunc("POST /insert_vector", s.handleInsertVector)
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
	slog.Info("coordinator request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "latency", time.Since(start))
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
	statuses := s.coord.AggregateStatus(r.Context())
	details := make([]wire.WorkerDetail, len(statuses))
	for i, st := range statuses {
		details[i] = wire.WorkerDetail{
			NodeID:    st.NodeID,
			NodeURL:   st.NodeURL,
			Status:    st.Status,
			MTreeSize: st.MTreeSize,
		}
	}
	writeJSON(w, http.StatusOK, wire.CoordinatorStatusResponse{
		OrchestratorStatus:     "ok",
		ActiveWorkersCount:     s.coord.ActiveWorkerCount(),
		ConsistentHasherStatus: "ok",
		WorkerDetails:          details,
	})
}

func (s *Server) handleRegisterWorker(w http.ResponseWriter, r *http.Request) {
	var req wire.RegisterWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.NodeID == "" || req.NodeURL == "" {
		writeError(w, http.StatusBadRequest, "node_id and node_url are required")
		return
	}
	if err := s.coord.RegisterWorker(req.NodeID, req.NodeURL); err != nil {
		writeError(w, errkind.StatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wire.InsertResponse{Status: "success"})
}

func (s *Server) handleDeregisterWorker(w http.ResponseWriter, r *http.Request) {
	var req wire.DeregisterWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.NodeID == "" {
		writeError(w, http.StatusBadRequest, "node_id is required")
		return
	}
	if err := s.coord.DeregisterWorker(req.NodeID); err != nil {
		writeError(w, errkind.StatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wire.InsertResponse{Status: "success"})
}

func (s *Server) handleInsertVector(w http.ResponseWriter, r *http.Request) {
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
	if err := s.coord.Insert(r.Context(), v); err != nil {
		writeError(w, errkind.StatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, wire.InsertResponse{Status: "accepted"})
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
	results, err := s.coord.KNN(r.Context(), q, req.K)
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
	results, err := s.coord.Range(r.Context(), q, req.Radius)
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
		slog.Error("coordinator: encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, wire.ErrorResponse{Status: "error", Message: message})
}
