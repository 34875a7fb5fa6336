// Package memory provides an in-process implementation of the graph
// repository port. Batching is a pure in-memory transform, so the only
// storage the service needs is a concurrency-safe registry of graphs by
// id.
package memory

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"heterobatch/application/ports"
	"heterobatch/domain/graph"
	pkgerrors "heterobatch/pkg/errors"
)

// GraphStore is a thread-safe in-memory graph repository
type GraphStore struct {
	mu      sync.RWMutex
	graphs  map[string]*graph.HeteroGraph
	maxSize int
	logger  *zap.Logger
}

// NewGraphStore creates a graph store holding at most maxSize graphs
func NewGraphStore(maxSize int, logger *zap.Logger) *GraphStore {
	return &GraphStore{
		graphs:  make(map[string]*graph.HeteroGraph),
		maxSize: maxSize,
		logger:  logger,
	}
}

var _ ports.GraphRepository = (*GraphStore)(nil)

// Save persists a graph under its ID
func (s *GraphStore) Save(_ context.Context, g *graph.HeteroGraph) error {
	if g == nil {
		return pkgerrors.NewValidationError("graph cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.graphs[g.ID()]; !exists && len(s.graphs) >= s.maxSize {
		return pkgerrors.NewValidationError("graph store is full")
	}
	s.graphs[g.ID()] = g

	s.logger.Debug("Graph stored",
		zap.String("graphID", g.ID()),
		zap.Int("stored", len(s.graphs)),
	)
	return nil
}

// GetByID retrieves a graph by its ID
func (s *GraphStore) GetByID(_ context.Context, id string) (*graph.HeteroGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("graph " + id)
	}
	return g, nil
}

// Delete removes a graph
func (s *GraphStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graphs[id]; !ok {
		return pkgerrors.NewNotFoundError("graph " + id)
	}
	delete(s.graphs, id)
	return nil
}

// List returns the IDs of all stored graphs in sorted order
func (s *GraphStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.graphs))
	for id := range s.graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of stored graphs
func (s *GraphStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.graphs), nil
}
