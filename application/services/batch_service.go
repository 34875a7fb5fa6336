package services

import (
	"context"

	"go.uber.org/zap"

	"heterobatch/application/ports"
	"heterobatch/domain/batch"
	"heterobatch/domain/graph"
	"heterobatch/infrastructure/config"
	pkgerrors "heterobatch/pkg/errors"
	"heterobatch/pkg/tensor"
)

// BatchService orchestrates graph construction, attribute management, and
// the batch/unbatch operations over the graph repository. The domain layer
// is pure; this service is where stored graphs, configuration limits, and
// logging meet.
type BatchService struct {
	graphRepo ports.GraphRepository
	cfg       *config.Config
	logger    *zap.Logger
}

// NewBatchService creates a new batch service
func NewBatchService(
	graphRepo ports.GraphRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *BatchService {
	return &BatchService{
		graphRepo: graphRepo,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateGraph builds a heterogeneous graph from per-relation edge lists and
// stores it. numNodes may be nil, in which case node counts are inferred
// from the largest endpoint seen per node type.
func (s *BatchService) CreateGraph(
	ctx context.Context,
	relations []graph.RelationEdges,
	numNodes map[graph.NodeType]int,
) (*graph.HeteroGraph, error) {
	var opts []graph.Option
	if len(numNodes) > 0 {
		opts = append(opts, graph.WithNumNodes(numNodes))
	}

	g, err := graph.New(relations, opts...)
	if err != nil {
		return nil, err
	}

	if err := s.graphRepo.Save(ctx, g); err != nil {
		return nil, err
	}

	s.logger.Info("Graph created",
		zap.String("graphID", g.ID()),
		zap.Int("nodeTypes", len(g.NodeTypes())),
		zap.Int("relations", len(g.Relations())),
	)
	return g, nil
}

// GetGraph retrieves a stored graph by ID
func (s *BatchService) GetGraph(ctx context.Context, graphID string) (*graph.HeteroGraph, error) {
	return s.graphRepo.GetByID(ctx, graphID)
}

// ListGraphs returns the IDs of all stored graphs
func (s *BatchService) ListGraphs(ctx context.Context) ([]string, error) {
	return s.graphRepo.List(ctx)
}

// DeleteGraph removes a stored graph
func (s *BatchService) DeleteGraph(ctx context.Context, graphID string) error {
	if err := s.graphRepo.Delete(ctx, graphID); err != nil {
		return err
	}
	s.logger.Info("Graph deleted", zap.String("graphID", graphID))
	return nil
}

// SetNodeAttribute attaches a named node attribute tensor to a stored graph.
// The rows are interpreted as one row per node of the given type.
func (s *BatchService) SetNodeAttribute(
	ctx context.Context,
	graphID string,
	nodeType graph.NodeType,
	name string,
	rows [][]float64,
) error {
	g, err := s.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return err
	}

	t, err := tensor.FromRows(rows)
	if err != nil {
		return err
	}
	if err := g.SetNodeData(nodeType, name, t); err != nil {
		return err
	}

	s.logger.Debug("Node attribute set",
		zap.String("graphID", graphID),
		zap.String("nodeType", string(nodeType)),
		zap.String("name", name),
	)
	return nil
}

// SetEdgeAttribute attaches a named edge attribute tensor to a stored graph.
// The rows are interpreted as one row per edge of the given relation.
func (s *BatchService) SetEdgeAttribute(
	ctx context.Context,
	graphID string,
	rel graph.Relation,
	name string,
	rows [][]float64,
) error {
	g, err := s.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return err
	}

	t, err := tensor.FromRows(rows)
	if err != nil {
		return err
	}
	if err := g.SetEdgeData(rel, name, t); err != nil {
		return err
	}

	s.logger.Debug("Edge attribute set",
		zap.String("graphID", graphID),
		zap.String("relation", rel.String()),
		zap.String("name", name),
	)
	return nil
}

// BatchGraphs merges the stored graphs named by graphIDs into a single
// batched graph, stores it, and returns it. The inputs are looked up in
// order; the order determines constituent positions in the batch.
func (s *BatchService) BatchGraphs(
	ctx context.Context,
	graphIDs []string,
	nodeAttrs batch.NodePolicy,
	edgeAttrs batch.EdgePolicy,
) (*graph.HeteroGraph, error) {
	if len(graphIDs) == 0 {
		return nil, pkgerrors.NewValidationError("at least one graph ID is required")
	}
	if len(graphIDs) > s.cfg.MaxBatchSize {
		return nil, pkgerrors.NewValidationError("batch size exceeds limit").
			WithDetails(map[string]interface{}{
				"requested": len(graphIDs),
				"limit":     s.cfg.MaxBatchSize,
			})
	}

	inputs := make([]*graph.HeteroGraph, 0, len(graphIDs))
	for _, id := range graphIDs {
		g, err := s.graphRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, g)
	}

	bg, err := batch.Batch(inputs, nodeAttrs, edgeAttrs)
	if err != nil {
		s.logger.Warn("Batch failed",
			zap.Error(err),
			zap.Int("inputs", len(inputs)),
		)
		return nil, err
	}

	if err := s.graphRepo.Save(ctx, bg); err != nil {
		return nil, err
	}

	s.logger.Info("Batch created",
		zap.String("batchID", bg.ID()),
		zap.Int("inputs", len(inputs)),
		zap.Int("batchSize", bg.BatchSize()),
	)
	return bg, nil
}

// UnbatchGraph splits a stored batched graph back into its constituents,
// stores each of them, and returns them in batch order.
func (s *BatchService) UnbatchGraph(ctx context.Context, batchID string) ([]*graph.HeteroGraph, error) {
	bg, err := s.graphRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	gs, err := batch.Unbatch(bg)
	if err != nil {
		return nil, err
	}

	for _, g := range gs {
		if err := s.graphRepo.Save(ctx, g); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Batch split",
		zap.String("batchID", batchID),
		zap.Int("constituents", len(gs)),
	)
	return gs, nil
}
