package ports

import (
	"context"

	"heterobatch/domain/graph"
)

// GraphRepository is the port for graph storage. The batching engine
// itself is pure; the HTTP surface needs a registry to hold graphs
// between construction, batching, and unbatching calls.
type GraphRepository interface {
	// Save persists a graph under its ID
	Save(ctx context.Context, g *graph.HeteroGraph) error

	// GetByID retrieves a graph by its ID
	GetByID(ctx context.Context, id string) (*graph.HeteroGraph, error)

	// Delete removes a graph
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored graphs
	List(ctx context.Context) ([]string, error)

	// Count returns the number of stored graphs
	Count(ctx context.Context) (int, error)
}
