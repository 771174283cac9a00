// Package workersvc implements C5: a process that owns a single metric
// tree and serves insert/k-NN/range/status RPCs over it. It never
// retries a failed tree operation — failures surface to the caller as
// structured responses.
package workersvc

import (
	"fmt"

	"github.com/haivivi/mtreecluster/internal/errkind"
	"github.com/haivivi/mtreecluster/internal/metric"
	"github.com/haivivi/mtreecluster/internal/mtree"
	"github.com/haivivi/mtreecluster/internal/vector"
)

// Config configures a Service's tree.
type Config struct {
	NodeID         string
	MaxChildren    int
	MinChildren    int
	DistanceMetric string
}

// Service owns one mtree.Tree and answers the worker RPCs defined in
// spec.md §6.
type Service struct {
	nodeID string
	tree   *mtree.Tree
}

// New constructs a Service from cfg. It fails if DistanceMetric names an
// unrecognized metric.
func New(cfg Config) (*Service, error) {
	m, err := metric.Parse(cfg.DistanceMetric)
	if err != nil {
		return nil, err
	}
	return &Service{
		nodeID: cfg.NodeID,
		tree: mtree.New(mtree.Config{
			MaxChildren: cfg.MaxChildren,
			MinChildren: cfg.MinChildren,
			Metric:      m,
		}),
	}, nil
}

// Insert adds v to the tree.
func (s *Service) Insert(v vector.Vector) error {
	if err := s.tree.Insert(v); err != nil {
		return fmt.Errorf("workersvc: insert: %w", err)
	}
	return nil
}

// KNN returns the k nearest vectors to q.
func (s *Service) KNN(q vector.Vector, k int) ([]vector.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("workersvc: %w: k must be positive", errkind.ErrInvalidArgument)
	}
	results, err := s.tree.KNN(q, k)
	if err != nil {
		return nil, fmt.Errorf("workersvc: knn: %w", err)
	}
	return results, nil
}

// Range returns every vector within radius r of q.
func (s *Service) Range(q vector.Vector, r float64) ([]vector.SearchResult, error) {
	if r <= 0 {
		return nil, fmt.Errorf("workersvc: %w: radius must be positive", errkind.ErrInvalidArgument)
	}
	results, err := s.tree.Range(q, r)
	if err != nil {
		return nil, fmt.Errorf("workersvc: range: %w", err)
	}
	return results, nil
}

// Status is the snapshot returned by GET /status.
type Status struct {
	NodeID    string
	MTreeSize int
}

// Status reports the current size of the tree.
func (s *Service) Status() Status {
	return Status{NodeID: s.nodeID, MTreeSize: s.tree.Size()}
}

// NodeID returns the worker's configured identity.
func (s *Service) NodeID() string {
	return s.nodeID
}
