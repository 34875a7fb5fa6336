// Package batch implements batching and unbatching of heterogeneous
// graphs: merging an ordered list of graphs into one graph with
// offset-shifted node and edge ids per type and relation, attaching the
// batch descriptor that makes the merge exactly invertible, and slicing
// a batched graph back into its constituents.
//
// Batch and Unbatch are pure functions over immutable inputs; concurrent
// calls on distinct graphs need no coordination.
package batch

import (
	"heterobatch/domain/graph"
	pkgerrors "heterobatch/pkg/errors"
	"heterobatch/pkg/tensor"
)

// Batch merges an ordered list of graphs into one batched graph. Inputs
// that are themselves batches are flattened: their constituents, not the
// batch, become entries of the new descriptor, so batching is associative
// and always yields a flat list of leaf graphs. Attribute inclusion is
// governed per axis by the policies; a name survives only if every input
// with a nonzero count for its type or relation defines it (all-or-nothing
// per name, partial presence is silently omitted). Inputs are not mutated.
func Batch(inputs []*graph.HeteroGraph, nodeAttrs NodePolicy, edgeAttrs EdgePolicy) (*graph.HeteroGraph, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.NewValidationError("batch requires at least one graph")
	}

	u, err := unifySchemas(inputs)
	if err != nil {
		return nil, err
	}
	schema := u.schema

	// Input-level offsets: the id shift applied to input j's nodes is the
	// total count of the inputs before it, regardless of whether those
	// inputs are plain graphs or batches.
	totalNodes := make([]int, schema.NumNodeTypes())
	inputNodeOffset := make([][]int, schema.NumNodeTypes())
	for t := range inputNodeOffset {
		offs := make([]int, len(inputs))
		running := 0
		for j := range inputs {
			offs[j] = running
			running += u.numNodes[t][j]
		}
		inputNodeOffset[t] = offs
		totalNodes[t] = running
	}

	merged := make([][]graph.Edge, schema.NumRelations())
	for r, rel := range schema.Relations() {
		srcIdx, err := schema.NodeTypeIndex(rel.SrcType)
		if err != nil {
			return nil, err
		}
		dstIdx, err := schema.NodeTypeIndex(rel.DstType)
		if err != nil {
			return nil, err
		}
		var list []graph.Edge
		for j, g := range inputs {
			if !g.Schema().HasRelation(rel) {
				continue
			}
			edges, err := g.Edges(rel)
			if err != nil {
				return nil, err
			}
			srcOff := inputNodeOffset[srcIdx][j]
			dstOff := inputNodeOffset[dstIdx][j]
			for _, e := range edges {
				list = append(list, graph.Edge{Src: e.Src + srcOff, Dst: e.Dst + dstOff})
			}
		}
		merged[r] = list
	}

	bg, err := graph.NewWithSchema(schema, totalNodes, merged)
	if err != nil {
		return nil, err
	}

	desc, err := buildDescriptor(u, inputs)
	if err != nil {
		return nil, err
	}
	if err := bg.AttachBatchDesc(desc); err != nil {
		return nil, err
	}

	if err := mergeNodeAttrs(bg, u, inputs, nodeAttrs); err != nil {
		return nil, err
	}
	if err := mergeEdgeAttrs(bg, u, inputs, edgeAttrs); err != nil {
		return nil, err
	}
	return bg, nil
}

// buildDescriptor expands the per-input counts into per-leaf counts:
// a plain input contributes one entry, a batched input contributes one
// entry per constituent, taken from its own descriptor. Nested
// descriptors are collapsed here; the result never records a batch of
// batches.
func buildDescriptor(u *unifiedSchema, inputs []*graph.HeteroGraph) (*graph.BatchDesc, error) {
	size := 0
	for _, g := range inputs {
		size += g.BatchSize()
	}

	leafNodes := make([][]int, u.schema.NumNodeTypes())
	for t, nt := range u.schema.NodeTypes() {
		leafNodes[t] = make([]int, 0, size)
		for j, g := range inputs {
			leafNodes[t] = append(leafNodes[t], leafCounts(g, u.numNodes[t][j], func() ([]int, error) {
				return g.BatchNumNodes(nt)
			})...)
		}
	}
	leafEdges := make([][]int, u.schema.NumRelations())
	for r, rel := range u.schema.Relations() {
		leafEdges[r] = make([]int, 0, size)
		for j, g := range inputs {
			leafEdges[r] = append(leafEdges[r], leafCounts(g, u.numEdges[r][j], func() ([]int, error) {
				return g.BatchNumEdges(rel)
			})...)
		}
	}
	return graph.NewBatchDesc(size, leafNodes, leafEdges)
}

// leafCounts returns one count per leaf of the input: the input's own
// per-constituent counts when it declares the type or relation, zeros
// otherwise.
func leafCounts(g *graph.HeteroGraph, total int, perGraph func() ([]int, error)) []int {
	if total == 0 {
		return make([]int, g.BatchSize())
	}
	counts, err := perGraph()
	if err != nil {
		// Nonzero total implies the type is declared by the input.
		return make([]int, g.BatchSize())
	}
	return counts
}

// mergeNodeAttrs concatenates the surviving node attribute tensors per
// type in graph order. Graphs with zero nodes of a type contribute no
// rows and are skipped, not zero-padded.
func mergeNodeAttrs(bg *graph.HeteroGraph, u *unifiedSchema, inputs []*graph.HeteroGraph, policy NodePolicy) error {
	for t, nt := range u.schema.NodeTypes() {
		var contributors []*graph.HeteroGraph
		for j, g := range inputs {
			if u.numNodes[t][j] > 0 {
				contributors = append(contributors, g)
			}
		}
		if len(contributors) == 0 {
			continue
		}

		names := make([][]string, len(contributors))
		for i, g := range contributors {
			ns, err := g.NodeDataNames(nt)
			if err != nil {
				return err
			}
			names[i] = ns
		}

		for _, name := range policy.candidates(nt, names) {
			tensors, ok, err := collectNodeTensors(contributors, nt, name)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			mergedTensor, err := tensor.Concat(tensors)
			if err != nil {
				return pkgerrors.Wrapf(err, "node attribute %q of type %q", name, nt)
			}
			if err := bg.SetNodeData(nt, name, mergedTensor); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeEdgeAttrs concatenates the surviving edge attribute tensors per
// canonical relation in graph order.
func mergeEdgeAttrs(bg *graph.HeteroGraph, u *unifiedSchema, inputs []*graph.HeteroGraph, policy EdgePolicy) error {
	for r, rel := range u.schema.Relations() {
		var contributors []*graph.HeteroGraph
		for j, g := range inputs {
			if u.numEdges[r][j] > 0 {
				contributors = append(contributors, g)
			}
		}
		if len(contributors) == 0 {
			continue
		}

		names := make([][]string, len(contributors))
		for i, g := range contributors {
			ns, err := g.EdgeDataNames(rel)
			if err != nil {
				return err
			}
			names[i] = ns
		}

		for _, name := range policy.candidates(rel, names) {
			tensors, ok, err := collectEdgeTensors(contributors, rel, name)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			mergedTensor, err := tensor.Concat(tensors)
			if err != nil {
				return pkgerrors.Wrapf(err, "edge attribute %q of relation %q", name, rel)
			}
			if err := bg.SetEdgeData(rel, name, mergedTensor); err != nil {
				return err
			}
		}
	}
	return nil
}

// collectNodeTensors gathers one attribute across contributors in graph
// order. A contributor lacking the attribute makes the whole name drop
// out (ok=false); that is the documented all-or-nothing omission rule,
// not an error.
func collectNodeTensors(contributors []*graph.HeteroGraph, nt graph.NodeType, name string) ([]*tensor.Tensor, bool, error) {
	tensors := make([]*tensor.Tensor, 0, len(contributors))
	for _, g := range contributors {
		if !g.HasNodeData(nt, name) {
			return nil, false, nil
		}
		t, err := g.NodeData(nt, name)
		if err != nil {
			return nil, false, err
		}
		tensors = append(tensors, t)
	}
	return tensors, true, nil
}

// collectEdgeTensors is collectNodeTensors for the edge axis.
func collectEdgeTensors(contributors []*graph.HeteroGraph, rel graph.Relation, name string) ([]*tensor.Tensor, bool, error) {
	tensors := make([]*tensor.Tensor, 0, len(contributors))
	for _, g := range contributors {
		if !g.HasEdgeData(rel, name) {
			return nil, false, nil
		}
		t, err := g.EdgeData(rel, name)
		if err != nil {
			return nil, false, err
		}
		tensors = append(tensors, t)
	}
	return tensors, true, nil
}
