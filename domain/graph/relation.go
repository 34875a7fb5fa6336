package graph

import (
	"fmt"

	pkgerrors "heterobatch/pkg/errors"
)

// NodeType names a partition of nodes in a heterogeneous graph.
// Identity is by name: two graphs' "user" types are the same type.
type NodeType string

// String returns the string representation
func (t NodeType) String() string {
	return string(t)
}

// Relation is the canonical identifier of an edge type: a directed
// (source type, name, destination type) triple. The short Name alone may
// be ambiguous across triples; the triple never is.
type Relation struct {
	SrcType NodeType `json:"src_type"`
	Name    string   `json:"name"`
	DstType NodeType `json:"dst_type"`
}

// NewRelation creates a canonical relation triple
func NewRelation(src NodeType, name string, dst NodeType) Relation {
	return Relation{SrcType: src, Name: name, DstType: dst}
}

// String returns the canonical "src:name:dst" form
func (r Relation) String() string {
	return fmt.Sprintf("%s:%s:%s", r.SrcType, r.Name, r.DstType)
}

// Schema is the ordered registry of node types and canonical relations
// of a heterogeneous graph. Relations are held in a fixed ordered table
// and referenced internally by integer index, so offset lookups during
// batching are O(1).
type Schema struct {
	ntypes    []NodeType
	ntypeIdx  map[NodeType]int
	relations []Relation
	relIdx    map[Relation]int
	byName    map[string][]int
}

// NewSchema builds a schema from an ordered relation list. Node types are
// registered in first-seen order (source before destination per relation),
// followed by any extra node types that participate in no relation.
// Duplicate canonical triples collapse into one entry.
func NewSchema(relations []Relation, extraNodeTypes []NodeType) (*Schema, error) {
	s := &Schema{
		ntypeIdx: make(map[NodeType]int),
		relIdx:   make(map[Relation]int),
		byName:   make(map[string][]int),
	}
	for _, rel := range relations {
		if rel.Name == "" || rel.SrcType == "" || rel.DstType == "" {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("relation %q has empty components", rel))
		}
		s.addRelation(rel)
	}
	for _, nt := range extraNodeTypes {
		if nt == "" {
			return nil, pkgerrors.NewValidationError("node type name cannot be empty")
		}
		s.addNodeType(nt)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) addNodeType(nt NodeType) int {
	if idx, ok := s.ntypeIdx[nt]; ok {
		return idx
	}
	idx := len(s.ntypes)
	s.ntypes = append(s.ntypes, nt)
	s.ntypeIdx[nt] = idx
	return idx
}

func (s *Schema) addRelation(rel Relation) int {
	if idx, ok := s.relIdx[rel]; ok {
		return idx
	}
	s.addNodeType(rel.SrcType)
	s.addNodeType(rel.DstType)
	idx := len(s.relations)
	s.relations = append(s.relations, rel)
	s.relIdx[rel] = idx
	s.byName[rel.Name] = append(s.byName[rel.Name], idx)
	return idx
}

// validate checks internal consistency: every relation endpoint must be a
// registered node type and every canonical triple must map to exactly one
// table entry. Violations cannot occur through the constructor; the check
// guards against descriptor corruption in later merges.
func (s *Schema) validate() error {
	for _, rel := range s.relations {
		if _, ok := s.ntypeIdx[rel.SrcType]; !ok {
			return pkgerrors.NewSchemaMismatchError(
				fmt.Sprintf("relation %q references unregistered source type %q", rel, rel.SrcType))
		}
		if _, ok := s.ntypeIdx[rel.DstType]; !ok {
			return pkgerrors.NewSchemaMismatchError(
				fmt.Sprintf("relation %q references unregistered destination type %q", rel, rel.DstType))
		}
	}
	for name, indices := range s.byName {
		seen := make(map[Relation]bool, len(indices))
		for _, idx := range indices {
			rel := s.relations[idx]
			if seen[rel] {
				return pkgerrors.NewSchemaMismatchError(
					fmt.Sprintf("canonical relation %q registered twice under name %q", rel, name))
			}
			seen[rel] = true
		}
	}
	return nil
}

// NodeTypes returns the ordered node type list
func (s *Schema) NodeTypes() []NodeType {
	return append([]NodeType(nil), s.ntypes...)
}

// Relations returns the ordered canonical relation list
func (s *Schema) Relations() []Relation {
	return append([]Relation(nil), s.relations...)
}

// RelationNames returns the short names of the canonical relations in
// table order. A short name shared by several triples appears once per
// triple.
func (s *Schema) RelationNames() []string {
	names := make([]string, len(s.relations))
	for i, rel := range s.relations {
		names[i] = rel.Name
	}
	return names
}

// NumNodeTypes returns the number of registered node types
func (s *Schema) NumNodeTypes() int {
	return len(s.ntypes)
}

// NumRelations returns the number of registered canonical relations
func (s *Schema) NumRelations() int {
	return len(s.relations)
}

// HasNodeType reports whether the node type is registered
func (s *Schema) HasNodeType(nt NodeType) bool {
	_, ok := s.ntypeIdx[nt]
	return ok
}

// HasRelation reports whether the canonical relation is registered
func (s *Schema) HasRelation(rel Relation) bool {
	_, ok := s.relIdx[rel]
	return ok
}

// NodeTypeIndex returns the table index of a node type
func (s *Schema) NodeTypeIndex(nt NodeType) (int, error) {
	idx, ok := s.ntypeIdx[nt]
	if !ok {
		return 0, pkgerrors.NewNotFoundError(fmt.Sprintf("node type %q", nt))
	}
	return idx, nil
}

// RelationIndex returns the table index of a canonical relation
func (s *Schema) RelationIndex(rel Relation) (int, error) {
	idx, ok := s.relIdx[rel]
	if !ok {
		return 0, pkgerrors.NewNotFoundError(fmt.Sprintf("relation %q", rel))
	}
	return idx, nil
}

// Resolve maps a short relation name to its canonical triple. The lookup
// fails when the name is unknown or matches more than one triple.
func (s *Schema) Resolve(name string) (Relation, error) {
	indices, ok := s.byName[name]
	if !ok || len(indices) == 0 {
		return Relation{}, pkgerrors.NewNotFoundError(fmt.Sprintf("relation name %q", name))
	}
	if len(indices) > 1 {
		return Relation{}, pkgerrors.NewAmbiguousRelationError(name, len(indices))
	}
	return s.relations[indices[0]], nil
}

// Equal reports whether two schemas register the same node types and
// canonical relations in the same order
func (s *Schema) Equal(other *Schema) bool {
	if len(s.ntypes) != len(other.ntypes) || len(s.relations) != len(other.relations) {
		return false
	}
	for i, nt := range s.ntypes {
		if other.ntypes[i] != nt {
			return false
		}
	}
	for i, rel := range s.relations {
		if other.relations[i] != rel {
			return false
		}
	}
	return true
}
