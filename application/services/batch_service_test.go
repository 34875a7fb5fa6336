package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heterobatch/domain/batch"
	"heterobatch/domain/graph"
	"heterobatch/infrastructure/config"
	"heterobatch/infrastructure/persistence/memory"
	pkgerrors "heterobatch/pkg/errors"
)

func newTestService(t *testing.T, maxBatchSize int) *BatchService {
	t.Helper()
	cfg := &config.Config{
		Environment:  "development",
		MaxBatchSize: maxBatchSize,
		MaxGraphs:    100,
	}
	logger := zap.NewNop()
	return NewBatchService(memory.NewGraphStore(cfg.MaxGraphs, logger), cfg, logger)
}

func socialRelations() []graph.RelationEdges {
	return []graph.RelationEdges{
		{
			Relation: graph.NewRelation("user", "follows", "user"),
			Edges:    []graph.Edge{{Src: 0, Dst: 1}, {Src: 1, Dst: 2}},
		},
		{
			Relation: graph.NewRelation("user", "plays", "game"),
			Edges:    []graph.Edge{{Src: 0, Dst: 0}, {Src: 1, Dst: 0}},
		},
	}
}

func TestServiceCreateAndGetGraph(t *testing.T) {
	svc := newTestService(t, 8)
	ctx := context.Background()

	g, err := svc.CreateGraph(ctx, socialRelations(), nil)
	require.NoError(t, err)

	got, err := svc.GetGraph(ctx, g.ID())
	require.NoError(t, err)
	assert.Same(t, g, got)

	ids, err := svc.ListGraphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID()}, ids)
}

func TestServiceCreateGraphWithExplicitCounts(t *testing.T) {
	svc := newTestService(t, 8)

	g, err := svc.CreateGraph(context.Background(), socialRelations(), map[graph.NodeType]int{
		"user": 5,
		"game": 2,
	})
	require.NoError(t, err)

	n, err := g.NumNodes("user")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestServiceSetAttributes(t *testing.T) {
	svc := newTestService(t, 8)
	ctx := context.Background()

	g, err := svc.CreateGraph(ctx, socialRelations(), nil)
	require.NoError(t, err)

	nUsers, err := g.NumNodes("user")
	require.NoError(t, err)
	rows := make([][]float64, nUsers)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(i)}
	}
	require.NoError(t, svc.SetNodeAttribute(ctx, g.ID(), "user", "h", rows))
	assert.True(t, g.HasNodeData("user", "h"))

	follows := graph.NewRelation("user", "follows", "user")
	require.NoError(t, svc.SetEdgeAttribute(ctx, g.ID(), follows, "w", [][]float64{{1}, {2}}))
	assert.True(t, g.HasEdgeData(follows, "w"))

	// Wrong leading dimension is rejected.
	err = svc.SetEdgeAttribute(ctx, g.ID(), follows, "w2", [][]float64{{1}})
	require.Error(t, err)
}

func TestServiceBatchAndUnbatch(t *testing.T) {
	svc := newTestService(t, 8)
	ctx := context.Background()

	g1, err := svc.CreateGraph(ctx, socialRelations(), nil)
	require.NoError(t, err)
	g2, err := svc.CreateGraph(ctx, socialRelations(), nil)
	require.NoError(t, err)

	bg, err := svc.BatchGraphs(ctx, []string{g1.ID(), g2.ID()}, batch.AllNodeAttrs(), batch.AllEdgeAttrs())
	require.NoError(t, err)
	assert.True(t, bg.IsBatch())
	assert.Equal(t, 2, bg.BatchSize())

	// The batch is stored and retrievable.
	stored, err := svc.GetGraph(ctx, bg.ID())
	require.NoError(t, err)
	assert.Same(t, bg, stored)

	gs, err := svc.UnbatchGraph(ctx, bg.ID())
	require.NoError(t, err)
	require.Len(t, gs, 2)
	assert.True(t, graph.EquivalentTopology(g1, gs[0]))
	assert.True(t, graph.EquivalentTopology(g2, gs[1]))

	// Constituents are stored under fresh IDs.
	for _, g := range gs {
		_, err := svc.GetGraph(ctx, g.ID())
		require.NoError(t, err)
	}
}

func TestServiceBatchSizeLimit(t *testing.T) {
	svc := newTestService(t, 1)
	ctx := context.Background()

	g1, err := svc.CreateGraph(ctx, socialRelations(), nil)
	require.NoError(t, err)
	g2, err := svc.CreateGraph(ctx, socialRelations(), nil)
	require.NoError(t, err)

	_, err = svc.BatchGraphs(ctx, []string{g1.ID(), g2.ID()}, batch.AllNodeAttrs(), batch.AllEdgeAttrs())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestServiceBatchUnknownGraph(t *testing.T) {
	svc := newTestService(t, 8)

	_, err := svc.BatchGraphs(context.Background(), []string{"missing"}, batch.AllNodeAttrs(), batch.AllEdgeAttrs())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestServiceUnbatchPlainGraph(t *testing.T) {
	svc := newTestService(t, 8)
	ctx := context.Background()

	g, err := svc.CreateGraph(ctx, socialRelations(), nil)
	require.NoError(t, err)

	_, err = svc.UnbatchGraph(ctx, g.ID())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotABatch(err))
}
