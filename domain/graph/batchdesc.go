package graph

import (
	"fmt"

	pkgerrors "heterobatch/pkg/errors"
)

// BatchDesc is the batch descriptor attached to a merged graph: the batch
// size plus, for every node type and canonical relation of the merged
// schema, the ordered per-constituent counts and their exclusive prefix-sum
// offsets. Outer slices are aligned with the schema's type and relation
// table indices. The descriptor is everything unbatching needs besides the
// merged topology itself.
type BatchDesc struct {
	size        int
	numNodes    [][]int
	nodeOffsets [][]int
	numEdges    [][]int
	edgeOffsets [][]int
}

// NewBatchDesc creates a descriptor from per-graph node and edge counts.
// numNodes is indexed by node-type table index, numEdges by relation table
// index; every inner slice must hold one count per constituent graph.
func NewBatchDesc(size int, numNodes, numEdges [][]int) (*BatchDesc, error) {
	if size <= 0 {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("batch size must be positive, got %d", size))
	}
	nodeOffsets, err := prefixSums(size, numNodes, "node")
	if err != nil {
		return nil, err
	}
	edgeOffsets, err := prefixSums(size, numEdges, "edge")
	if err != nil {
		return nil, err
	}
	return &BatchDesc{
		size:        size,
		numNodes:    numNodes,
		nodeOffsets: nodeOffsets,
		numEdges:    numEdges,
		edgeOffsets: edgeOffsets,
	}, nil
}

// prefixSums computes exclusive prefix sums per type:
// offsets[0] = 0, offsets[i] = offsets[i-1] + counts[i-1].
func prefixSums(size int, counts [][]int, axis string) ([][]int, error) {
	offsets := make([][]int, len(counts))
	for t, perGraph := range counts {
		if len(perGraph) != size {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf(
				"%s counts for type index %d have %d entries, expected batch size %d",
				axis, t, len(perGraph), size))
		}
		offs := make([]int, size)
		for i, c := range perGraph {
			if c < 0 {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf(
					"%s count cannot be negative: %d", axis, c))
			}
			if i > 0 {
				offs[i] = offs[i-1] + perGraph[i-1]
			}
		}
		offsets[t] = offs
	}
	return offsets, nil
}

// Size returns the number of constituent graphs
func (d *BatchDesc) Size() int {
	return d.size
}

// NumNodesPerGraph returns the ordered per-graph node counts for a node
// type table index
func (d *BatchDesc) NumNodesPerGraph(ntypeIdx int) []int {
	return append([]int(nil), d.numNodes[ntypeIdx]...)
}

// NumEdgesPerGraph returns the ordered per-graph edge counts for a
// relation table index
func (d *BatchDesc) NumEdgesPerGraph(relIdx int) []int {
	return append([]int(nil), d.numEdges[relIdx]...)
}

// NodeOffset returns the node-id offset of constituent graph i for a node
// type table index
func (d *BatchDesc) NodeOffset(ntypeIdx, i int) int {
	return d.nodeOffsets[ntypeIdx][i]
}

// EdgeOffset returns the edge-id offset of constituent graph i for a
// relation table index
func (d *BatchDesc) EdgeOffset(relIdx, i int) int {
	return d.edgeOffsets[relIdx][i]
}

// NumNodesOf returns the node count of constituent graph i for a node type
// table index
func (d *BatchDesc) NumNodesOf(ntypeIdx, i int) int {
	return d.numNodes[ntypeIdx][i]
}

// NumEdgesOf returns the edge count of constituent graph i for a relation
// table index
func (d *BatchDesc) NumEdgesOf(relIdx, i int) int {
	return d.numEdges[relIdx][i]
}

// TotalNodes returns the summed node count for a node type table index
func (d *BatchDesc) TotalNodes(ntypeIdx int) int {
	last := d.size - 1
	return d.nodeOffsets[ntypeIdx][last] + d.numNodes[ntypeIdx][last]
}

// TotalEdges returns the summed edge count for a relation table index
func (d *BatchDesc) TotalEdges(relIdx int) int {
	last := d.size - 1
	return d.edgeOffsets[relIdx][last] + d.numEdges[relIdx][last]
}
