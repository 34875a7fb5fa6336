// Package graph implements the heterogeneous graph model: typed node
// partitions, directed canonical relations with per-relation edge lists,
// and per-type/per-relation attribute tables. Topology is immutable once
// a graph is constructed; attributes may be set or overwritten by name
// until the graph is batched.
package graph

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "heterobatch/pkg/errors"
	"heterobatch/pkg/tensor"
)

// Edge is a directed edge between local node ids of the relation's
// endpoint types
type Edge struct {
	Src int `json:"src"`
	Dst int `json:"dst"`
}

// RelationEdges pairs a canonical relation with its ordered edge list.
// Edge ids are implicit: 0-based insertion order.
type RelationEdges struct {
	Relation Relation
	Edges    []Edge
}

// EdgeForm selects the result shape of AllEdges
type EdgeForm int

const (
	// FormEndpoints returns source and destination ids only
	FormEndpoints EdgeForm = iota
	// FormAll additionally returns the 0-based edge ids
	FormAll
)

// HeteroGraph is a heterogeneous graph: per-type node counts, per-relation
// edge lists, and attribute tables for both axes
type HeteroGraph struct {
	id       string
	schema   *Schema
	numNodes []int
	edges    [][]Edge
	nodeData []*frame
	edgeData []*frame
	batch    *BatchDesc
}

// options holds construction overrides.
type options struct {
	numNodes map[NodeType]int
}

// Option customizes graph construction
type Option func(*options)

// WithNumNodes fixes explicit node counts for the given types. A count
// must cover every node id referenced by the edge lists; types with
// isolated trailing nodes need this override.
func WithNumNodes(counts map[NodeType]int) Option {
	return func(o *options) {
		if o.numNodes == nil {
			o.numNodes = make(map[NodeType]int, len(counts))
		}
		for nt, c := range counts {
			o.numNodes[nt] = c
		}
	}
}

// New builds a graph from an ordered list of relation edge lists. Node
// counts are inferred as max referenced id + 1 per type unless overridden
// via WithNumNodes. Relations with empty edge lists and types with zero
// nodes are valid.
func New(relations []RelationEdges, opts ...Option) (*HeteroGraph, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rels := make([]Relation, 0, len(relations))
	seen := make(map[Relation]bool, len(relations))
	for _, re := range relations {
		if seen[re.Relation] {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("duplicate relation %q", re.Relation))
		}
		seen[re.Relation] = true
		rels = append(rels, re.Relation)
	}

	var extra []NodeType
	for nt := range o.numNodes {
		extra = append(extra, nt)
	}
	schema, err := NewSchema(rels, extra)
	if err != nil {
		return nil, err
	}

	// Infer per-type node counts from the highest referenced id.
	numNodes := make([]int, schema.NumNodeTypes())
	edges := make([][]Edge, schema.NumRelations())
	for _, re := range relations {
		relIdx, _ := schema.RelationIndex(re.Relation)
		srcIdx, _ := schema.NodeTypeIndex(re.Relation.SrcType)
		dstIdx, _ := schema.NodeTypeIndex(re.Relation.DstType)
		for _, e := range re.Edges {
			if e.Src < 0 || e.Dst < 0 {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf(
					"relation %q has negative node id (%d, %d)", re.Relation, e.Src, e.Dst))
			}
			if e.Src+1 > numNodes[srcIdx] {
				numNodes[srcIdx] = e.Src + 1
			}
			if e.Dst+1 > numNodes[dstIdx] {
				numNodes[dstIdx] = e.Dst + 1
			}
		}
		edges[relIdx] = append([]Edge(nil), re.Edges...)
	}

	for nt, c := range o.numNodes {
		if c < 0 {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("node count for type %q cannot be negative", nt))
		}
		idx, err := schema.NodeTypeIndex(nt)
		if err != nil {
			return nil, err
		}
		if c < numNodes[idx] {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf(
				"explicit node count %d for type %q is below referenced id range %d", c, nt, numNodes[idx]))
		}
		numNodes[idx] = c
	}

	return assemble(schema, numNodes, edges)
}

// NewWithSchema builds a graph over an existing schema with explicit node
// counts and edge lists aligned to the schema's table order. Endpoint ids
// are bounds-checked against the counts. The batch engine uses this to
// assemble merged and sliced graphs.
func NewWithSchema(schema *Schema, numNodes []int, edges [][]Edge) (*HeteroGraph, error) {
	if len(numNodes) != schema.NumNodeTypes() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf(
			"got %d node counts for %d node types", len(numNodes), schema.NumNodeTypes()))
	}
	if len(edges) != schema.NumRelations() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf(
			"got %d edge lists for %d relations", len(edges), schema.NumRelations()))
	}
	return assemble(schema, numNodes, edges)
}

// assemble validates endpoint bounds and allocates the attribute frames.
func assemble(schema *Schema, numNodes []int, edges [][]Edge) (*HeteroGraph, error) {
	for relIdx, rel := range schema.Relations() {
		srcIdx, _ := schema.NodeTypeIndex(rel.SrcType)
		dstIdx, _ := schema.NodeTypeIndex(rel.DstType)
		for _, e := range edges[relIdx] {
			if e.Src < 0 || e.Src >= numNodes[srcIdx] {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf(
					"relation %q: source id %d out of range [0, %d)", rel, e.Src, numNodes[srcIdx]))
			}
			if e.Dst < 0 || e.Dst >= numNodes[dstIdx] {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf(
					"relation %q: destination id %d out of range [0, %d)", rel, e.Dst, numNodes[dstIdx]))
			}
		}
	}

	g := &HeteroGraph{
		id:       uuid.New().String(),
		schema:   schema,
		numNodes: numNodes,
		edges:    edges,
		nodeData: make([]*frame, schema.NumNodeTypes()),
		edgeData: make([]*frame, schema.NumRelations()),
	}
	for i, c := range numNodes {
		g.nodeData[i] = newFrame(c)
	}
	for i, list := range edges {
		g.edgeData[i] = newFrame(len(list))
	}
	return g, nil
}

// ID returns the graph's unique identifier
func (g *HeteroGraph) ID() string {
	return g.id
}

// Schema returns the graph's type registry
func (g *HeteroGraph) Schema() *Schema {
	return g.schema
}

// NodeTypes returns the ordered node type list
func (g *HeteroGraph) NodeTypes() []NodeType {
	return g.schema.NodeTypes()
}

// RelationNames returns the short relation names in canonical table order
func (g *HeteroGraph) RelationNames() []string {
	return g.schema.RelationNames()
}

// Relations returns the ordered canonical relation list
func (g *HeteroGraph) Relations() []Relation {
	return g.schema.Relations()
}

// NumNodes returns the node count of a type
func (g *HeteroGraph) NumNodes(nt NodeType) (int, error) {
	idx, err := g.schema.NodeTypeIndex(nt)
	if err != nil {
		return 0, err
	}
	return g.numNodes[idx], nil
}

// NumEdges returns the edge count of a canonical relation
func (g *HeteroGraph) NumEdges(rel Relation) (int, error) {
	idx, err := g.schema.RelationIndex(rel)
	if err != nil {
		return 0, err
	}
	return len(g.edges[idx]), nil
}

// NumEdgesByName returns the edge count of a relation referenced by its
// short name; fails if the name is ambiguous
func (g *HeteroGraph) NumEdgesByName(name string) (int, error) {
	rel, err := g.schema.Resolve(name)
	if err != nil {
		return 0, err
	}
	return g.NumEdges(rel)
}

// Edges returns a copy of a relation's ordered edge list
func (g *HeteroGraph) Edges(rel Relation) ([]Edge, error) {
	idx, err := g.schema.RelationIndex(rel)
	if err != nil {
		return nil, err
	}
	return append([]Edge(nil), g.edges[idx]...), nil
}

// EdgesByName returns a copy of a relation's edge list by short name
func (g *HeteroGraph) EdgesByName(name string) ([]Edge, error) {
	rel, err := g.schema.Resolve(name)
	if err != nil {
		return nil, err
	}
	return g.Edges(rel)
}

// AllEdges returns a relation's endpoints as parallel slices. With
// FormAll the 0-based edge ids are returned as well; with FormEndpoints
// the id slice is nil.
func (g *HeteroGraph) AllEdges(rel Relation, form EdgeForm) (src, dst, eid []int, err error) {
	idx, err := g.schema.RelationIndex(rel)
	if err != nil {
		return nil, nil, nil, err
	}
	list := g.edges[idx]
	src = make([]int, len(list))
	dst = make([]int, len(list))
	for i, e := range list {
		src[i] = e.Src
		dst[i] = e.Dst
	}
	if form == FormAll {
		eid = make([]int, len(list))
		for i := range list {
			eid[i] = i
		}
	}
	return src, dst, eid, nil
}

// AllEdgesByName is AllEdges with the relation referenced by short name
func (g *HeteroGraph) AllEdgesByName(name string, form EdgeForm) (src, dst, eid []int, err error) {
	rel, err := g.schema.Resolve(name)
	if err != nil {
		return nil, nil, nil, err
	}
	return g.AllEdges(rel, form)
}

// SetNodeData stores a node attribute tensor for a type. The tensor's
// leading dimension must equal the type's node count.
func (g *HeteroGraph) SetNodeData(nt NodeType, name string, t *tensor.Tensor) error {
	idx, err := g.schema.NodeTypeIndex(nt)
	if err != nil {
		return err
	}
	return g.nodeData[idx].set(name, t)
}

// NodeData returns a node attribute tensor by name
func (g *HeteroGraph) NodeData(nt NodeType, name string) (*tensor.Tensor, error) {
	idx, err := g.schema.NodeTypeIndex(nt)
	if err != nil {
		return nil, err
	}
	return g.nodeData[idx].get(name)
}

// HasNodeData reports whether a node attribute is present
func (g *HeteroGraph) HasNodeData(nt NodeType, name string) bool {
	idx, err := g.schema.NodeTypeIndex(nt)
	if err != nil {
		return false
	}
	return g.nodeData[idx].has(name)
}

// NodeDataNames returns the sorted attribute names of a node type's table
func (g *HeteroGraph) NodeDataNames(nt NodeType) ([]string, error) {
	idx, err := g.schema.NodeTypeIndex(nt)
	if err != nil {
		return nil, err
	}
	return g.nodeData[idx].names(), nil
}

// SetEdgeData stores an edge attribute tensor for a relation. The tensor's
// leading dimension must equal the relation's edge count.
func (g *HeteroGraph) SetEdgeData(rel Relation, name string, t *tensor.Tensor) error {
	idx, err := g.schema.RelationIndex(rel)
	if err != nil {
		return err
	}
	return g.edgeData[idx].set(name, t)
}

// EdgeData returns an edge attribute tensor by name
func (g *HeteroGraph) EdgeData(rel Relation, name string) (*tensor.Tensor, error) {
	idx, err := g.schema.RelationIndex(rel)
	if err != nil {
		return nil, err
	}
	return g.edgeData[idx].get(name)
}

// HasEdgeData reports whether an edge attribute is present
func (g *HeteroGraph) HasEdgeData(rel Relation, name string) bool {
	idx, err := g.schema.RelationIndex(rel)
	if err != nil {
		return false
	}
	return g.edgeData[idx].has(name)
}

// EdgeDataNames returns the sorted attribute names of a relation's table
func (g *HeteroGraph) EdgeDataNames(rel Relation) ([]string, error) {
	idx, err := g.schema.RelationIndex(rel)
	if err != nil {
		return nil, err
	}
	return g.edgeData[idx].names(), nil
}

// IsBatch reports whether the graph carries a batch descriptor
func (g *HeteroGraph) IsBatch() bool {
	return g.batch != nil
}

// BatchDesc returns the attached batch descriptor, or nil for a plain
// graph
func (g *HeteroGraph) BatchDesc() *BatchDesc {
	return g.batch
}

// BatchSize returns the number of constituent graphs; a plain graph
// counts as a batch of one
func (g *HeteroGraph) BatchSize() int {
	if g.batch == nil {
		return 1
	}
	return g.batch.Size()
}

// BatchNumNodes returns the ordered per-constituent node counts for a
// type. For a plain graph this is a single-element sequence.
func (g *HeteroGraph) BatchNumNodes(nt NodeType) ([]int, error) {
	idx, err := g.schema.NodeTypeIndex(nt)
	if err != nil {
		return nil, err
	}
	if g.batch == nil {
		return []int{g.numNodes[idx]}, nil
	}
	return g.batch.NumNodesPerGraph(idx), nil
}

// BatchNumEdges returns the ordered per-constituent edge counts for a
// canonical relation
func (g *HeteroGraph) BatchNumEdges(rel Relation) ([]int, error) {
	idx, err := g.schema.RelationIndex(rel)
	if err != nil {
		return nil, err
	}
	if g.batch == nil {
		return []int{len(g.edges[idx])}, nil
	}
	return g.batch.NumEdgesPerGraph(idx), nil
}

// BatchNumEdgesByName is BatchNumEdges with the relation referenced by
// short name
func (g *HeteroGraph) BatchNumEdgesByName(name string) ([]int, error) {
	rel, err := g.schema.Resolve(name)
	if err != nil {
		return nil, err
	}
	return g.BatchNumEdges(rel)
}

// AttachBatchDesc attaches a batch descriptor produced by the batch
// engine. The descriptor's summed counts must match the graph's per-type
// node counts and per-relation edge counts.
func (g *HeteroGraph) AttachBatchDesc(desc *BatchDesc) error {
	if desc == nil {
		return pkgerrors.NewValidationError("batch descriptor cannot be nil")
	}
	for i := range g.numNodes {
		if desc.TotalNodes(i) != g.numNodes[i] {
			return pkgerrors.NewInternalError(fmt.Sprintf(
				"batch descriptor node total %d does not match graph count %d for type %q",
				desc.TotalNodes(i), g.numNodes[i], g.schema.ntypes[i]))
		}
	}
	for i := range g.edges {
		if desc.TotalEdges(i) != len(g.edges[i]) {
			return pkgerrors.NewInternalError(fmt.Sprintf(
				"batch descriptor edge total %d does not match graph count %d for relation %q",
				desc.TotalEdges(i), len(g.edges[i]), g.schema.relations[i]))
		}
	}
	g.batch = desc
	return nil
}

// EquivalentTopology reports whether two graphs agree on schema order,
// per-type node counts, and per-relation edge lists. Attributes are not
// compared.
func EquivalentTopology(a, b *HeteroGraph) bool {
	if !a.schema.Equal(b.schema) {
		return false
	}
	for i := range a.numNodes {
		if a.numNodes[i] != b.numNodes[i] {
			return false
		}
	}
	for i := range a.edges {
		if len(a.edges[i]) != len(b.edges[i]) {
			return false
		}
		for j := range a.edges[i] {
			if a.edges[i][j] != b.edges[i][j] {
				return false
			}
		}
	}
	return true
}
