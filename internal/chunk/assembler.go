package chunk

import (
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/graph"
	"github.com/dbsmedya/ifcchunk/internal/logger"
	"github.com/dbsmedya/ifcchunk/internal/step"
	"github.com/dbsmedya/ifcchunk/internal/store"
)

// DefaultPlacementTypes are the entity types followed from an object
// placement down to its coordinates.
var DefaultPlacementTypes = []string{
	"IFCLOCALPLACEMENT",
	"IFCAXIS2PLACEMENT3D",
	"IFCCARTESIANPOINT",
	"IFCDIRECTION",
}

const (
	// posObjectPlacement is IfcProduct.ObjectPlacement.
	posObjectPlacement = 5
	maxPlacementDepth  = 10
)

// Assembler builds chunks. By default it collects two levels: the anchor
// and its direct children. Grandchildren are left out, so anchors with
// deeper aggregation trees produce partial chunks unless WithDepth raises
// the limit.
type Assembler struct {
	depth          int
	placements     bool
	placementTypes map[string]bool
	log            *logger.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithDepth sets how many aggregation levels below the anchor are
// collected. Values below 1 are ignored.
func WithDepth(levels int) Option {
	return func(a *Assembler) {
		if levels >= 1 {
			a.depth = levels
		}
	}
}

// WithPlacements makes the assembler follow each collected object's
// placement chain through the given entity types, or
// DefaultPlacementTypes when none are given.
func WithPlacements(types ...string) Option {
	return func(a *Assembler) {
		if len(types) == 0 {
			types = DefaultPlacementTypes
		}
		a.placements = true
		a.placementTypes = make(map[string]bool, len(types))
		for _, t := range types {
			a.placementTypes[strings.ToUpper(t)] = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(a *Assembler) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAssembler creates an Assembler.
func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{depth: 1, log: logger.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the chunk for anchorID with default settings.
func Assemble(anchorID string, s *store.Store, g *graph.Graph) Chunk {
	return NewAssembler().Assemble(assembly.Assembly{ID: anchorID}, s, g)
}

// Assemble collects, in order: the anchor, its property chain (defining
// relations, property sets, properties), its aggregation relations, then
// each child followed by the child's own property chain. No identifier is
// added twice and only identifiers present in s are added.
func (a *Assembler) Assemble(anchor assembly.Assembly, s *store.Store, g *graph.Graph) Chunk {
	w := &walk{
		asm:     a,
		s:       s,
		g:       g,
		visited: make(map[string]bool),
	}
	w.object(anchor.ID, 0)

	c := Chunk{Assembly: anchor, Entities: w.out}
	a.log.Debugw("chunk assembled",
		"assembly", anchor.ID,
		"entities", c.Len(),
		"chars", c.Size())
	return c
}

// AssembleAll builds one chunk per anchor, in anchor order.
func (a *Assembler) AssembleAll(anchors []assembly.Assembly, s *store.Store, g *graph.Graph) []Chunk {
	chunks := make([]Chunk, 0, len(anchors))
	for _, anchor := range anchors {
		chunks = append(chunks, a.Assemble(anchor, s, g))
	}
	return chunks
}

type walk struct {
	asm     *Assembler
	s       *store.Store
	g       *graph.Graph
	visited map[string]bool
	out     []*store.Entity
}

// add appends id unless it was already visited or does not resolve.
func (w *walk) add(id string) (*store.Entity, bool) {
	if w.visited[id] {
		return nil, false
	}
	e, ok := w.s.Get(id)
	if !ok {
		return nil, false
	}
	w.visited[id] = true
	w.out = append(w.out, e)
	return e, true
}

func (w *walk) object(id string, level int) {
	e, ok := w.add(id)
	if !ok {
		return
	}
	if w.asm.placements {
		w.placement(e, 0)
	}
	w.propertyChain(id)

	if level >= w.asm.depth {
		return
	}
	for _, rel := range w.g.AggregatingRelationsOf(id) {
		w.add(rel)
	}
	for _, child := range w.g.ChildrenOf(id) {
		w.object(child, level+1)
	}
}

func (w *walk) propertyChain(id string) {
	for _, rel := range w.g.DefiningRelationsOf(id) {
		if _, ok := w.add(rel); !ok {
			continue
		}
		for _, pset := range w.g.DefinitionOf(rel) {
			w.propertySet(pset)
		}
	}
	// Sets reached through a relation shared with an earlier object.
	for _, pset := range w.g.PropertySetsOf(id) {
		w.propertySet(pset)
	}
}

func (w *walk) propertySet(pset string) {
	if _, ok := w.add(pset); !ok {
		return
	}
	for _, prop := range w.g.PropertiesIn(pset) {
		w.add(prop)
	}
}

// placement follows the object placement of a product, or every reference
// of a placement entity, through placement types only.
func (w *walk) placement(e *store.Entity, depth int) {
	if depth > maxPlacementDepth {
		return
	}

	var refs []string
	if w.asm.placementTypes[e.Type] {
		for _, attr := range e.Attributes {
			refs = append(refs, step.Refs(attr)...)
		}
	} else if v, ok := e.Attr(posObjectPlacement); ok {
		if id, isRef := v.Ref(); isRef {
			refs = append(refs, id)
		}
	}

	for _, id := range refs {
		ref, ok := w.s.Get(id)
		if !ok || !w.asm.placementTypes[ref.Type] {
			continue
		}
		if _, added := w.add(id); added {
			w.placement(ref, depth+1)
		}
	}
}
