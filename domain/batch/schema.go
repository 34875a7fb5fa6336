package batch

import (
	"heterobatch/domain/graph"
)

// unifiedSchema is the result of merging the input graphs' schemas: the
// union type registry in first-seen order plus, for every (type, input)
// and (relation, input) pair, the input's count with 0 for absentees.
type unifiedSchema struct {
	schema *graph.Schema

	// numNodes[t][j] is input j's node count for unified type index t;
	// numEdges[r][j] likewise for unified relation index r.
	numNodes [][]int
	numEdges [][]int
}

// unifySchemas merges the node-type and relation schemas of the inputs,
// preserving first-seen order across the list. Canonical triples are the
// identity of a relation, so one short name bound to several triples
// yields several distinct entries rather than a conflict; genuine
// endpoint conflicts under one canonical key are caught by the schema's
// own defensive validation.
func unifySchemas(inputs []*graph.HeteroGraph) (*unifiedSchema, error) {
	var relations []graph.Relation
	seenRel := make(map[graph.Relation]bool)
	var ntypes []graph.NodeType
	seenNT := make(map[graph.NodeType]bool)

	for _, g := range inputs {
		for _, rel := range g.Relations() {
			if !seenRel[rel] {
				seenRel[rel] = true
				relations = append(relations, rel)
			}
		}
		for _, nt := range g.NodeTypes() {
			if !seenNT[nt] {
				seenNT[nt] = true
				ntypes = append(ntypes, nt)
			}
		}
	}

	schema, err := graph.NewSchema(relations, ntypes)
	if err != nil {
		return nil, err
	}

	u := &unifiedSchema{
		schema:   schema,
		numNodes: make([][]int, schema.NumNodeTypes()),
		numEdges: make([][]int, schema.NumRelations()),
	}
	for t := range u.numNodes {
		u.numNodes[t] = make([]int, len(inputs))
	}
	for r := range u.numEdges {
		u.numEdges[r] = make([]int, len(inputs))
	}

	for t, nt := range schema.NodeTypes() {
		for j, g := range inputs {
			if !g.Schema().HasNodeType(nt) {
				continue
			}
			count, err := g.NumNodes(nt)
			if err != nil {
				return nil, err
			}
			u.numNodes[t][j] = count
		}
	}
	for r, rel := range schema.Relations() {
		for j, g := range inputs {
			if !g.Schema().HasRelation(rel) {
				continue
			}
			count, err := g.NumEdges(rel)
			if err != nil {
				return nil, err
			}
			u.numEdges[r][j] = count
		}
	}
	return u, nil
}
