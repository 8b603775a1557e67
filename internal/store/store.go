// Package store indexes the DATA section of an IFC (STEP physical file)
// into entity records keyed by instance identifier.
package store

import (
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/ifcchunk/internal/step"
)

// Entity is one logical record of the DATA section.
type Entity struct {
	ID         string
	Type       string
	Raw        string       // full logical line, physical lines folded with single spaces
	Attributes []step.Value // nil when the attribute list could not be parsed
}

// Attr returns the attribute at position i.
func (e *Entity) Attr(i int) (step.Value, bool) {
	if i < 0 || i >= len(e.Attributes) {
		return step.Value{}, false
	}
	return e.Attributes[i], true
}

// Stats describes what was skipped while building a Store.
type Stats struct {
	Statements int  // logical lines seen inside the DATA section
	Skipped    int  // logical lines without a leading identifier
	Unparsed   int  // identifier found but attribute list malformed
	Duplicates int  // identifiers defined more than once (last one wins)
	Truncated  bool // DATA section not closed by ENDSEC
	NoData     bool // no DATA section found
}

// Store maps identifiers to entities. It is read-only once built and safe
// for concurrent readers.
type Store struct {
	entities *orderedmap.OrderedMap[string, *Entity]
	stats    Stats
}

func newStore() *Store {
	return &Store{entities: orderedmap.NewOrderedMap[string, *Entity]()}
}

// Get returns the entity with the given identifier.
func (s *Store) Get(id string) (*Entity, bool) {
	return s.entities.Get(id)
}

// Has reports whether id resolves to an entity.
func (s *Store) Has(id string) bool {
	_, ok := s.entities.Get(id)
	return ok
}

// Len returns the number of entities.
func (s *Store) Len() int {
	return s.entities.Len()
}

// IDs returns all identifiers in file order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, s.entities.Len())
	for el := s.entities.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Key)
	}
	return ids
}

// All returns all entities in file order.
func (s *Store) All() []*Entity {
	all := make([]*Entity, 0, s.entities.Len())
	for el := s.entities.Front(); el != nil; el = el.Next() {
		all = append(all, el.Value)
	}
	return all
}

// OfType returns the entities whose type name matches typ, case-insensitively.
func (s *Store) OfType(typ string) []*Entity {
	typ = strings.ToUpper(typ)
	var out []*Entity
	for el := s.entities.Front(); el != nil; el = el.Next() {
		if el.Value.Type == typ {
			out = append(out, el.Value)
		}
	}
	return out
}

// Stats returns parse statistics gathered while building the store.
func (s *Store) Stats() Stats {
	return s.stats
}

func (s *Store) put(e *Entity) {
	if _, exists := s.entities.Get(e.ID); exists {
		s.stats.Duplicates++
	}
	s.entities.Set(e.ID, e)
}
