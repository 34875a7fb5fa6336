package batch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heterobatch/domain/graph"
	pkgerrors "heterobatch/pkg/errors"
	"heterobatch/pkg/tensor"
)

func TestUnbatchPlainGraphFails(t *testing.T) {
	g := mustGraph(t, []graph.RelationEdges{
		{Relation: followsUser, Edges: []graph.Edge{{Src: 0, Dst: 1}}},
	})

	_, err := Unbatch(g)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotABatch(err))
}

func TestRoundTripUnderAllPolicies(t *testing.T) {
	nodePolicies := map[string]NodePolicy{
		"all":      AllNodeAttrs(),
		"none":     NoNodeAttrs(),
		"explicit": ExplicitNodeAttrs(map[graph.NodeType]string{"user": "h1"}),
	}
	edgePolicies := map[string]EdgePolicy{
		"all":      AllEdgeAttrs(),
		"none":     NoEdgeAttrs(),
		"explicit": ExplicitEdgeAttrs(map[graph.Relation]string{followsUser: "h2"}),
	}

	for nodeName, nodePolicy := range nodePolicies {
		for edgeName, edgePolicy := range edgePolicies {
			t.Run(nodeName+"_"+edgeName, func(t *testing.T) {
				g1 := newFeatureGraph(t)
				g2 := newFeatureGraph(t)

				bg, err := Batch([]*graph.HeteroGraph{g1, g2}, nodePolicy, edgePolicy)
				require.NoError(t, err)

				gs, err := Unbatch(bg)
				require.NoError(t, err)
				require.Len(t, gs, 2)

				checkEquivalent(t, g1, gs[0], nil, nil)
				checkEquivalent(t, g2, gs[1], nil, nil)

				// Every attribute the batch included round-trips exactly.
				for i, orig := range []*graph.HeteroGraph{g1, g2} {
					for _, nt := range bg.NodeTypes() {
						names, err := bg.NodeDataNames(nt)
						require.NoError(t, err)
						for _, name := range names {
							want, err := orig.NodeData(nt, name)
							require.NoError(t, err)
							got, err := gs[i].NodeData(nt, name)
							require.NoError(t, err)
							assert.True(t, tensor.Equal(want, got))
						}
					}
					for _, rel := range bg.Relations() {
						names, err := bg.EdgeDataNames(rel)
						require.NoError(t, err)
						for _, name := range names {
							want, err := orig.EdgeData(rel, name)
							require.NoError(t, err)
							got, err := gs[i].EdgeData(rel, name)
							require.NoError(t, err)
							assert.True(t, tensor.Equal(want, got))
						}
					}
				}
			})
		}
	}
}

func TestRebatchReproducesBatch(t *testing.T) {
	g1 := newFeatureGraph(t)
	g2 := newFeatureGraph(t)
	g3 := mustGraph(t, []graph.RelationEdges{
		{Relation: followsUser, Edges: []graph.Edge{{Src: 0, Dst: 1}}},
		{Relation: plays, Edges: []graph.Edge{{Src: 0, Dst: 0}}},
	})

	bg, err := Batch([]*graph.HeteroGraph{g1, g2, g3}, AllNodeAttrs(), AllEdgeAttrs())
	require.NoError(t, err)

	gs, err := Unbatch(bg)
	require.NoError(t, err)

	rebatched, err := Batch(gs, AllNodeAttrs(), AllEdgeAttrs())
	require.NoError(t, err)

	assert.True(t, graph.EquivalentTopology(bg, rebatched))
	for _, nt := range bg.NodeTypes() {
		names, err := bg.NodeDataNames(nt)
		require.NoError(t, err)
		for _, name := range names {
			want, err := bg.NodeData(nt, name)
			require.NoError(t, err)
			got, err := rebatched.NodeData(nt, name)
			require.NoError(t, err)
			assert.True(t, tensor.Equal(want, got))
		}
	}
}

func TestUnbatchedGraphsAreIndependent(t *testing.T) {
	g1 := newFeatureGraph(t)
	g2 := newFeatureGraph(t)

	bg, err := Batch([]*graph.HeteroGraph{g1, g2}, AllNodeAttrs(), AllEdgeAttrs())
	require.NoError(t, err)

	gs, err := Unbatch(bg)
	require.NoError(t, err)

	// Mutating an unbatched graph's attribute storage must not leak into
	// the batch.
	h1, err := gs[0].NodeData("user", "h1")
	require.NoError(t, err)
	h1.Data()[0] = 99

	merged, err := bg.NodeData("user", "h1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, merged.Data()[0])
}

func TestConcurrentBatchCalls(t *testing.T) {
	// Batch and Unbatch are pure; independent calls need no coordination.
	type pair struct{ g1, g2 *graph.HeteroGraph }
	pairs := make([]pair, 8)
	for i := range pairs {
		pairs[i] = pair{newFeatureGraph(t), newFeatureGraph(t)}
	}

	var wg sync.WaitGroup
	for _, p := range pairs {
		wg.Add(1)
		go func(p pair) {
			defer wg.Done()
			bg, err := Batch([]*graph.HeteroGraph{p.g1, p.g2}, AllNodeAttrs(), AllEdgeAttrs())
			assert.NoError(t, err)
			gs, err := Unbatch(bg)
			assert.NoError(t, err)
			assert.Len(t, gs, 2)
		}(p)
	}
	wg.Wait()
}
