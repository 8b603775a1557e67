// Package graph derives the relationship maps of an IFC entity store:
// property definitions, property set membership and aggregation.
package graph

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Kind identifies the relationship an edge was derived from.
type Kind int

const (
	// DefinesByProperties links an object to a property set.
	DefinesByProperties Kind = iota
	// PropertySetMember links a property set to one of its properties.
	PropertySetMember
	// Aggregates links a parent to one of its aggregated children.
	Aggregates
)

func (k Kind) String() string {
	switch k {
	case DefinesByProperties:
		return "defines-by-properties"
	case PropertySetMember:
		return "property-set-member"
	case Aggregates:
		return "aggregates"
	default:
		return "unknown"
	}
}

// Edge is one relationship between two entities. Via names the
// relationship entity that declared it (empty for property set membership,
// which the set declares itself).
type Edge struct {
	From string
	To   string
	Kind Kind
	Via  string
}

// idSet is an insertion-ordered set of identifiers.
type idSet struct {
	m *orderedmap.OrderedMap[string, struct{}]
}

func newIDSet() *idSet {
	return &idSet{m: orderedmap.NewOrderedMap[string, struct{}]()}
}

func (s *idSet) add(id string) bool {
	if _, ok := s.m.Get(id); ok {
		return false
	}
	s.m.Set(id, struct{}{})
	return true
}

func (s *idSet) list() []string {
	out := make([]string, 0, s.m.Len())
	for el := s.m.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

// Stats counts what was dropped while building a Graph.
type Stats struct {
	Relations int // relationship entities processed
	Edges     int // distinct edges recorded
	Dangling  int // references to identifiers missing from the store
	Malformed int // relationship entities whose references could not be located
}

// Graph holds the relationship maps. It is built once by Build and is
// read-only afterwards.
type Graph struct {
	propertySetsOf      map[string]*idSet // owner -> property sets
	definingRelationsOf map[string]*idSet // owner -> defines-by-properties relations
	definitionOf        map[string]*idSet // defines-by-properties relation -> property sets
	propertiesIn        map[string]*idSet // property set -> properties
	childrenOf          map[string]*idSet // parent -> children
	aggregatingOf       map[string]*idSet // parent -> aggregation relations
	parentsOf           map[string]*idSet // child -> parents
	aggregationNodes    *idSet            // every id on either end of an aggregation edge
	stats               Stats
}

func newGraph() *Graph {
	return &Graph{
		propertySetsOf:      make(map[string]*idSet),
		definingRelationsOf: make(map[string]*idSet),
		definitionOf:        make(map[string]*idSet),
		propertiesIn:        make(map[string]*idSet),
		childrenOf:          make(map[string]*idSet),
		aggregatingOf:       make(map[string]*idSet),
		parentsOf:           make(map[string]*idSet),
		aggregationNodes:    newIDSet(),
	}
}

func addTo(m map[string]*idSet, key, id string) bool {
	set, ok := m[key]
	if !ok {
		set = newIDSet()
		m[key] = set
	}
	return set.add(id)
}

func listOf(m map[string]*idSet, key string) []string {
	set, ok := m[key]
	if !ok {
		return nil
	}
	return set.list()
}

// AddEdge records a relationship. via is the declaring relationship
// entity, if any.
func (g *Graph) AddEdge(kind Kind, from, to, via string) {
	var added bool
	switch kind {
	case DefinesByProperties:
		added = addTo(g.propertySetsOf, from, to)
		if via != "" {
			addTo(g.definingRelationsOf, from, via)
			addTo(g.definitionOf, via, to)
		}
	case PropertySetMember:
		added = addTo(g.propertiesIn, from, to)
	case Aggregates:
		added = addTo(g.childrenOf, from, to)
		addTo(g.parentsOf, to, from)
		g.aggregationNodes.add(from)
		g.aggregationNodes.add(to)
		if via != "" {
			addTo(g.aggregatingOf, from, via)
		}
	}
	if added {
		g.stats.Edges++
	}
}

// PropertySetsOf returns the property sets attached to owner.
func (g *Graph) PropertySetsOf(owner string) []string {
	return listOf(g.propertySetsOf, owner)
}

// DefiningRelationsOf returns the defines-by-properties relations that
// reference owner.
func (g *Graph) DefiningRelationsOf(owner string) []string {
	return listOf(g.definingRelationsOf, owner)
}

// DefinitionOf returns the property sets a defines-by-properties relation
// attaches.
func (g *Graph) DefinitionOf(rel string) []string {
	return listOf(g.definitionOf, rel)
}

// PropertiesIn returns the members of a property set.
func (g *Graph) PropertiesIn(pset string) []string {
	return listOf(g.propertiesIn, pset)
}

// ChildrenOf returns the children aggregated under parent.
func (g *Graph) ChildrenOf(parent string) []string {
	return listOf(g.childrenOf, parent)
}

// AggregatingRelationsOf returns the aggregation relations whose relating
// object is parent.
func (g *Graph) AggregatingRelationsOf(parent string) []string {
	return listOf(g.aggregatingOf, parent)
}

// ParentsOf returns the parents child is aggregated under.
func (g *Graph) ParentsOf(child string) []string {
	return listOf(g.parentsOf, child)
}

// HasChildren reports whether parent aggregates anything.
func (g *Graph) HasChildren(parent string) bool {
	set, ok := g.childrenOf[parent]
	return ok && set.m.Len() > 0
}

// Stats returns build statistics.
func (g *Graph) Stats() Stats {
	return g.stats
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return g.stats.Edges
}

// Depth returns how many aggregation levels lie beneath id. A leaf has
// depth 0. Cycles are cut at the first repeated node.
func (g *Graph) Depth(id string) int {
	return g.depth(id, map[string]bool{})
}

func (g *Graph) depth(id string, onPath map[string]bool) int {
	if onPath[id] {
		return 0
	}
	onPath[id] = true
	defer delete(onPath, id)

	max := 0
	for _, child := range g.ChildrenOf(id) {
		if d := g.depth(child, onPath) + 1; d > max {
			max = d
		}
	}
	return max
}
