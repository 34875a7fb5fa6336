package batch

import "heterobatch/domain/graph"

// policyMode discriminates the attribute inclusion variants.
type policyMode int

// The zero value of a Policy is None.
const (
	modeNone policyMode = iota
	modeAll
	modeExplicit
)

// Policy selects which attributes of one axis survive a batch merge.
// The variants are: All (every name defined by all contributing graphs),
// None (skip the axis entirely), and Explicit (one chosen name per key,
// where a missing or empty entry skips that key).
type Policy[K comparable] struct {
	mode  policyMode
	names map[K]string
}

// NodePolicy selects node attributes per node type
type NodePolicy = Policy[graph.NodeType]

// EdgePolicy selects edge attributes per canonical relation
type EdgePolicy = Policy[graph.Relation]

// AllNodeAttrs includes every node attribute defined by all graphs that
// have at least one node of the type
func AllNodeAttrs() NodePolicy {
	return NodePolicy{mode: modeAll}
}

// NoNodeAttrs skips node attributes entirely
func NoNodeAttrs() NodePolicy {
	return NodePolicy{mode: modeNone}
}

// ExplicitNodeAttrs includes one named attribute per node type. Types
// missing from the map, or mapped to the empty string, carry no
// attributes into the merged graph.
func ExplicitNodeAttrs(names map[graph.NodeType]string) NodePolicy {
	return NodePolicy{mode: modeExplicit, names: names}
}

// AllEdgeAttrs includes every edge attribute defined by all graphs that
// have at least one edge of the relation
func AllEdgeAttrs() EdgePolicy {
	return EdgePolicy{mode: modeAll}
}

// NoEdgeAttrs skips edge attributes entirely
func NoEdgeAttrs() EdgePolicy {
	return EdgePolicy{mode: modeNone}
}

// ExplicitEdgeAttrs includes one named attribute per canonical relation
func ExplicitEdgeAttrs(names map[graph.Relation]string) EdgePolicy {
	return EdgePolicy{mode: modeExplicit, names: names}
}

// candidates returns the attribute names the policy nominates for one
// key, given the per-contributor name sets. Presence across all
// contributors is checked later; None nominates nothing and Explicit
// nominates at most the configured name.
func (p Policy[K]) candidates(key K, contributorNames [][]string) []string {
	switch p.mode {
	case modeAll:
		return intersect(contributorNames)
	case modeExplicit:
		name, ok := p.names[key]
		if !ok || name == "" {
			return nil
		}
		return []string{name}
	default:
		return nil
	}
}

// intersect returns the names present in every set, in the sorted order
// of the first set.
func intersect(sets [][]string) []string {
	if len(sets) == 0 {
		return nil
	}
	var out []string
	for _, name := range sets[0] {
		inAll := true
		for _, other := range sets[1:] {
			found := false
			for _, n := range other {
				if n == name {
					found = true
					break
				}
			}
			if !found {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, name)
		}
	}
	return out
}
