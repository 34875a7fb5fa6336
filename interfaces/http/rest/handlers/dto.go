package handlers

import (
	"strings"

	"heterobatch/domain/batch"
	"heterobatch/domain/graph"
	pkgerrors "heterobatch/pkg/errors"
)

// RelationSpec describes one relation of a graph creation request. Edges
// are [src, dst] node id pairs, typed locally per endpoint node type.
type RelationSpec struct {
	SrcType string   `json:"src_type" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	DstType string   `json:"dst_type" validate:"required"`
	Edges   [][2]int `json:"edges"`
}

// CreateGraphRequest is the body of POST /graphs
type CreateGraphRequest struct {
	Relations []RelationSpec `json:"relations" validate:"required,min=1,dive"`
	NumNodes  map[string]int `json:"num_nodes,omitempty"`
}

// SetAttributeRequest is the body of POST /graphs/{graphID}/attributes.
// Target selects node or edge attributes; edge targets name the relation
// by its canonical "src:name:dst" triple.
type SetAttributeRequest struct {
	Target   string      `json:"target" validate:"required,oneof=node edge"`
	NodeType string      `json:"node_type,omitempty"`
	Relation string      `json:"relation,omitempty"`
	Name     string      `json:"name" validate:"required"`
	Values   [][]float64 `json:"values" validate:"required,min=1"`
}

// PolicySpec selects which attributes a batch carries over. Mode is one of
// "all", "none", or "explicit"; in explicit mode Names maps a node type or
// a canonical relation triple to the single attribute name to merge.
type PolicySpec struct {
	Mode  string            `json:"mode" validate:"required,oneof=all none explicit"`
	Names map[string]string `json:"names,omitempty"`
}

// CreateBatchRequest is the body of POST /batches. Graphs are merged in
// the order given; omitted policies default to "all".
type CreateBatchRequest struct {
	GraphIDs  []string    `json:"graph_ids" validate:"required,min=1,dive,required"`
	NodeAttrs *PolicySpec `json:"node_attrs,omitempty" validate:"omitempty"`
	EdgeAttrs *PolicySpec `json:"edge_attrs,omitempty" validate:"omitempty"`
}

// RelationResponse is the wire form of one relation and its edge list
type RelationResponse struct {
	SrcType  string   `json:"src_type"`
	Name     string   `json:"name"`
	DstType  string   `json:"dst_type"`
	NumEdges int      `json:"num_edges"`
	Edges    [][2]int `json:"edges"`
}

// GraphResponse is the wire form of a stored graph. Batch fields are
// present only for batched graphs.
type GraphResponse struct {
	ID            string              `json:"id"`
	NumNodes      map[string]int      `json:"num_nodes"`
	Relations     []RelationResponse  `json:"relations"`
	NodeAttrs     map[string][]string `json:"node_attrs,omitempty"`
	EdgeAttrs     map[string][]string `json:"edge_attrs,omitempty"`
	IsBatch       bool                `json:"is_batch"`
	BatchSize     int                 `json:"batch_size"`
	BatchNumNodes map[string][]int    `json:"batch_num_nodes,omitempty"`
	BatchNumEdges map[string][]int    `json:"batch_num_edges,omitempty"`
}

// UnbatchResponse is the wire form of a split batch
type UnbatchResponse struct {
	BatchID string          `json:"batch_id"`
	Graphs  []GraphResponse `json:"graphs"`
}

// ListGraphsResponse lists stored graph IDs
type ListGraphsResponse struct {
	GraphIDs []string `json:"graph_ids"`
	Count    int      `json:"count"`
}

func toRelationEdges(specs []RelationSpec) []graph.RelationEdges {
	out := make([]graph.RelationEdges, len(specs))
	for i, spec := range specs {
		edges := make([]graph.Edge, len(spec.Edges))
		for j, e := range spec.Edges {
			edges[j] = graph.Edge{Src: e[0], Dst: e[1]}
		}
		out[i] = graph.RelationEdges{
			Relation: graph.NewRelation(graph.NodeType(spec.SrcType), spec.Name, graph.NodeType(spec.DstType)),
			Edges:    edges,
		}
	}
	return out
}

func toNumNodes(counts map[string]int) map[graph.NodeType]int {
	if len(counts) == 0 {
		return nil
	}
	out := make(map[graph.NodeType]int, len(counts))
	for nt, n := range counts {
		out[graph.NodeType(nt)] = n
	}
	return out
}

// parseRelationTriple parses a canonical "src:name:dst" relation key
func parseRelationTriple(key string) (graph.Relation, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return graph.Relation{}, pkgerrors.NewValidationError(
			"relation must be a src:name:dst triple, got " + key)
	}
	return graph.NewRelation(graph.NodeType(parts[0]), parts[1], graph.NodeType(parts[2])), nil
}

func toNodePolicy(spec *PolicySpec) (batch.NodePolicy, error) {
	if spec == nil {
		return batch.AllNodeAttrs(), nil
	}
	switch spec.Mode {
	case "all":
		return batch.AllNodeAttrs(), nil
	case "none":
		return batch.NoNodeAttrs(), nil
	case "explicit":
		names := make(map[graph.NodeType]string, len(spec.Names))
		for nt, name := range spec.Names {
			names[graph.NodeType(nt)] = name
		}
		return batch.ExplicitNodeAttrs(names), nil
	default:
		return batch.NodePolicy{}, pkgerrors.NewValidationError("unknown attribute policy mode " + spec.Mode)
	}
}

func toEdgePolicy(spec *PolicySpec) (batch.EdgePolicy, error) {
	if spec == nil {
		return batch.AllEdgeAttrs(), nil
	}
	switch spec.Mode {
	case "all":
		return batch.AllEdgeAttrs(), nil
	case "none":
		return batch.NoEdgeAttrs(), nil
	case "explicit":
		names := make(map[graph.Relation]string, len(spec.Names))
		for key, name := range spec.Names {
			rel, err := parseRelationTriple(key)
			if err != nil {
				return batch.EdgePolicy{}, err
			}
			names[rel] = name
		}
		return batch.ExplicitEdgeAttrs(names), nil
	default:
		return batch.EdgePolicy{}, pkgerrors.NewValidationError("unknown attribute policy mode " + spec.Mode)
	}
}

// toGraphResponse projects a graph into its wire form
func toGraphResponse(g *graph.HeteroGraph) (*GraphResponse, error) {
	resp := &GraphResponse{
		ID:        g.ID(),
		NumNodes:  make(map[string]int),
		IsBatch:   g.IsBatch(),
		BatchSize: g.BatchSize(),
	}

	for _, nt := range g.NodeTypes() {
		n, err := g.NumNodes(nt)
		if err != nil {
			return nil, err
		}
		resp.NumNodes[string(nt)] = n

		names, err := g.NodeDataNames(nt)
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			if resp.NodeAttrs == nil {
				resp.NodeAttrs = make(map[string][]string)
			}
			resp.NodeAttrs[string(nt)] = names
		}
	}

	for _, rel := range g.Relations() {
		edges, err := g.Edges(rel)
		if err != nil {
			return nil, err
		}
		pairs := make([][2]int, len(edges))
		for i, e := range edges {
			pairs[i] = [2]int{e.Src, e.Dst}
		}
		resp.Relations = append(resp.Relations, RelationResponse{
			SrcType:  string(rel.SrcType),
			Name:     rel.Name,
			DstType:  string(rel.DstType),
			NumEdges: len(edges),
			Edges:    pairs,
		})

		names, err := g.EdgeDataNames(rel)
		if err != nil {
			return nil, err
		}
		if len(names) > 0 {
			if resp.EdgeAttrs == nil {
				resp.EdgeAttrs = make(map[string][]string)
			}
			resp.EdgeAttrs[rel.String()] = names
		}
	}

	if g.IsBatch() {
		resp.BatchNumNodes = make(map[string][]int)
		for _, nt := range g.NodeTypes() {
			counts, err := g.BatchNumNodes(nt)
			if err != nil {
				return nil, err
			}
			resp.BatchNumNodes[string(nt)] = counts
		}
		resp.BatchNumEdges = make(map[string][]int)
		for _, rel := range g.Relations() {
			counts, err := g.BatchNumEdges(rel)
			if err != nil {
				return nil, err
			}
			resp.BatchNumEdges[rel.String()] = counts
		}
	}

	return resp, nil
}
