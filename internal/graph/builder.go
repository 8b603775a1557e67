package graph

import (
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/logger"
	"github.com/dbsmedya/ifcchunk/internal/step"
	"github.com/dbsmedya/ifcchunk/internal/store"
)

// Schema names the relationship entity types and where their references
// sit in the attribute list.
type Schema struct {
	DefinesByProperties string
	PropertySet         string
	Aggregation         []string
}

// DefaultSchema returns the IFC2x3/IFC4 relationship types.
func DefaultSchema() Schema {
	return Schema{
		DefinesByProperties: "IFCRELDEFINESBYPROPERTIES",
		PropertySet:         "IFCPROPERTYSET",
		Aggregation:         []string{"IFCRELAGGREGATES"},
	}
}

// Attribute positions shared by IfcRelDefinesByProperties,
// IfcRelAggregates and IfcPropertySet: four IfcRoot attributes come first.
const (
	posRelated  = 4 // RelatedObjects / RelatingObject / HasProperties
	posRelating = 5 // RelatingPropertyDefinition / RelatedObjects
)

// Builder constructs a Graph from an entity store.
type Builder struct {
	schema      Schema
	aggregation map[string]bool
	log         *logger.Logger
}

// NewBuilder creates a builder for the given schema. A nil logger
// discards output.
func NewBuilder(schema Schema, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.NewNop()
	}
	agg := make(map[string]bool, len(schema.Aggregation))
	for _, t := range schema.Aggregation {
		agg[strings.ToUpper(t)] = true
	}
	schema.DefinesByProperties = strings.ToUpper(schema.DefinesByProperties)
	schema.PropertySet = strings.ToUpper(schema.PropertySet)
	return &Builder{schema: schema, aggregation: agg, log: log}
}

// Build derives the relationship maps in one pass over s. The result
// depends only on s.
func Build(s *store.Store, schema Schema) *Graph {
	return NewBuilder(schema, nil).Build(s)
}

// Build derives the relationship maps in one pass over s. References to
// identifiers missing from s are dropped.
func (b *Builder) Build(s *store.Store) *Graph {
	g := newGraph()

	for _, e := range s.All() {
		switch {
		case e.Type == b.schema.DefinesByProperties:
			g.stats.Relations++
			b.definesByProperties(g, s, e)
		case e.Type == b.schema.PropertySet:
			g.stats.Relations++
			b.propertySet(g, s, e)
		case b.aggregation[e.Type]:
			g.stats.Relations++
			b.aggregates(g, s, e)
		}
	}

	b.log.Debugw("relationship graph built",
		"relations", g.stats.Relations,
		"edges", g.stats.Edges,
		"dangling", g.stats.Dangling,
		"malformed", g.stats.Malformed)
	return g
}

func (b *Builder) definesByProperties(g *Graph, s *store.Store, e *store.Entity) {
	owners, okOwners := refListAt(e, posRelated)
	psets, okPsets := refsAt(e, posRelating)
	if !okOwners || !okPsets {
		owners, psets, okOwners = searchDefinesShape(e.Attributes)
		if !okOwners {
			b.malformed(g, e)
			return
		}
	}

	psets = b.resolve(g, s, e, psets)
	for _, owner := range b.resolve(g, s, e, owners) {
		for _, pset := range psets {
			g.AddEdge(DefinesByProperties, owner, pset, e.ID)
		}
	}
}

func (b *Builder) aggregates(g *Graph, s *store.Store, e *store.Entity) {
	parent, okParent := refAt(e, posRelated)
	children, okChildren := refListAt(e, posRelating)
	if !okParent || !okChildren {
		parent, children, okParent = searchAggregatesShape(e.Attributes)
		if !okParent {
			b.malformed(g, e)
			return
		}
	}

	if !s.Has(parent) {
		g.stats.Dangling++
		b.log.Debugw("dropping aggregation with unknown parent", "relation", e.ID, "parent", parent)
		return
	}
	for _, child := range b.resolve(g, s, e, children) {
		g.AddEdge(Aggregates, parent, child, e.ID)
	}
}

func (b *Builder) propertySet(g *Graph, s *store.Store, e *store.Entity) {
	props, ok := refListAt(e, posRelated)
	if !ok {
		props, ok = lastRefList(e.Attributes)
		if !ok {
			// An empty property set is legal and has no members.
			if v, has := e.Attr(posRelated); has && v.Kind == step.KindList && len(v.Items) == 0 {
				return
			}
			b.malformed(g, e)
			return
		}
	}
	for _, prop := range b.resolve(g, s, e, props) {
		g.AddEdge(PropertySetMember, e.ID, prop, "")
	}
}

func (b *Builder) resolve(g *Graph, s *store.Store, rel *store.Entity, ids []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if s.Has(id) {
			out = append(out, id)
			continue
		}
		g.stats.Dangling++
		b.log.Debugw("dropping dangling reference", "relation", rel.ID, "ref", id)
	}
	return out
}

func (b *Builder) malformed(g *Graph, e *store.Entity) {
	g.stats.Malformed++
	b.log.Debugw("relationship references not found", "id", e.ID, "type", e.Type)
}

func refAt(e *store.Entity, i int) (string, bool) {
	v, ok := e.Attr(i)
	if !ok {
		return "", false
	}
	return v.Ref()
}

func refListAt(e *store.Entity, i int) ([]string, bool) {
	v, ok := e.Attr(i)
	if !ok {
		return nil, false
	}
	return v.RefList()
}

// refsAt accepts a single reference or a list of references.
func refsAt(e *store.Entity, i int) ([]string, bool) {
	v, ok := e.Attr(i)
	if !ok {
		return nil, false
	}
	if id, ok := v.Ref(); ok {
		return []string{id}, true
	}
	return v.RefList()
}

// searchDefinesShape finds the first reference list and the last single
// reference after it.
func searchDefinesShape(attrs []step.Value) (owners, psets []string, ok bool) {
	listAt := -1
	for i, a := range attrs {
		if ids, isList := a.RefList(); isList {
			owners, listAt = ids, i
			break
		}
	}
	if listAt < 0 {
		return nil, nil, false
	}
	for i := len(attrs) - 1; i > listAt; i-- {
		if id, isRef := attrs[i].Ref(); isRef {
			return owners, []string{id}, true
		}
	}
	return nil, nil, false
}

// searchAggregatesShape finds the last reference list and the last single
// reference before it.
func searchAggregatesShape(attrs []step.Value) (parent string, children []string, ok bool) {
	listAt := -1
	for i := len(attrs) - 1; i >= 0; i-- {
		if ids, isList := attrs[i].RefList(); isList {
			children, listAt = ids, i
			break
		}
	}
	for i := listAt - 1; i >= 0; i-- {
		if id, isRef := attrs[i].Ref(); isRef {
			return id, children, true
		}
	}
	return "", nil, false
}

func lastRefList(attrs []step.Value) ([]string, bool) {
	for i := len(attrs) - 1; i >= 0; i-- {
		if ids, ok := attrs[i].RefList(); ok {
			return ids, true
		}
	}
	return nil, false
}
