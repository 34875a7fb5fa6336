package batch

import (
	"fmt"

	"heterobatch/domain/graph"
	pkgerrors "heterobatch/pkg/errors"
	"heterobatch/pkg/tensor"
)

// Unbatch splits a batched graph back into its ordered constituents.
// Each constituent keeps the full unified schema; its nodes are the
// half-open id range owned by it per type, its edges the analogous range
// per relation with endpoints shifted back to local ids. Attribute
// tensors are sliced along the leading dimension; a constituent with a
// zero count omits the attribute, mirroring the merge-time skip rule.
// Re-batching the result reproduces the original topology and included
// attributes exactly.
func Unbatch(bg *graph.HeteroGraph) ([]*graph.HeteroGraph, error) {
	desc := bg.BatchDesc()
	if desc == nil {
		return nil, pkgerrors.NewNotABatchError()
	}

	out := make([]*graph.HeteroGraph, 0, desc.Size())
	for i := 0; i < desc.Size(); i++ {
		g, err := sliceConstituent(bg, desc, i)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// sliceConstituent extracts constituent i from the merged graph.
func sliceConstituent(bg *graph.HeteroGraph, desc *graph.BatchDesc, i int) (*graph.HeteroGraph, error) {
	schema := bg.Schema()

	numNodes := make([]int, schema.NumNodeTypes())
	for t := range numNodes {
		numNodes[t] = desc.NumNodesOf(t, i)
	}

	edges := make([][]graph.Edge, schema.NumRelations())
	for r, rel := range schema.Relations() {
		count := desc.NumEdgesOf(r, i)
		if count == 0 {
			continue
		}
		srcIdx, err := schema.NodeTypeIndex(rel.SrcType)
		if err != nil {
			return nil, err
		}
		dstIdx, err := schema.NodeTypeIndex(rel.DstType)
		if err != nil {
			return nil, err
		}
		mergedEdges, err := bg.Edges(rel)
		if err != nil {
			return nil, err
		}

		start := desc.EdgeOffset(r, i)
		end := start + count
		if end > len(mergedEdges) {
			return nil, pkgerrors.NewInternalError(fmt.Sprintf(
				"batch descriptor edge range [%d, %d) exceeds %d edges of relation %q",
				start, end, len(mergedEdges), rel))
		}

		srcOff := desc.NodeOffset(srcIdx, i)
		dstOff := desc.NodeOffset(dstIdx, i)
		local := make([]graph.Edge, 0, count)
		for _, e := range mergedEdges[start:end] {
			src := e.Src - srcOff
			dst := e.Dst - dstOff
			if src < 0 || src >= numNodes[srcIdx] || dst < 0 || dst >= numNodes[dstIdx] {
				return nil, pkgerrors.NewInternalError(fmt.Sprintf(
					"batch descriptor offsets inconsistent: edge (%d, %d) of relation %q falls outside constituent %d",
					e.Src, e.Dst, rel, i))
			}
			local = append(local, graph.Edge{Src: src, Dst: dst})
		}
		edges[r] = local
	}

	g, err := graph.NewWithSchema(schema, numNodes, edges)
	if err != nil {
		return nil, err
	}

	for t, nt := range schema.NodeTypes() {
		count := desc.NumNodesOf(t, i)
		if count == 0 {
			continue
		}
		names, err := bg.NodeDataNames(nt)
		if err != nil {
			return nil, err
		}
		offset := desc.NodeOffset(t, i)
		for _, name := range names {
			merged, err := bg.NodeData(nt, name)
			if err != nil {
				return nil, err
			}
			sliced, err := tensor.Slice(merged, offset, offset+count)
			if err != nil {
				return nil, err
			}
			if err := g.SetNodeData(nt, name, sliced); err != nil {
				return nil, err
			}
		}
	}

	for r, rel := range schema.Relations() {
		count := desc.NumEdgesOf(r, i)
		if count == 0 {
			continue
		}
		names, err := bg.EdgeDataNames(rel)
		if err != nil {
			return nil, err
		}
		offset := desc.EdgeOffset(r, i)
		for _, name := range names {
			merged, err := bg.EdgeData(rel, name)
			if err != nil {
				return nil, err
			}
			sliced, err := tensor.Slice(merged, offset, offset+count)
			if err != nil {
				return nil, err
			}
			if err := g.SetEdgeData(rel, name, sliced); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}
