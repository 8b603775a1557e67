// Package chunk assembles the self-contained entity subset sent for
// extraction around one assembly anchor.
package chunk

import (
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/store"
)

// Chunk is the ordered, duplicate-free entity set of one assembly. The
// anchor comes first.
type Chunk struct {
	Assembly assembly.Assembly
	Entities []*store.Entity
}

// Stats summarises the content of a chunk.
type Stats struct {
	Entities   int `json:"entities" yaml:"entities"`
	Chars      int `json:"chars" yaml:"chars"`
	Placements int `json:"placements" yaml:"placements"` // IFCLOCALPLACEMENT
	Axes       int `json:"axes" yaml:"axes"`             // IFCAXIS2PLACEMENT3D
	Points     int `json:"points" yaml:"points"`         // IFCCARTESIANPOINT
}

// Coordinates returns the number of entities carrying position data.
func (s Stats) Coordinates() int {
	return s.Placements + s.Axes + s.Points
}

// Len returns the number of entities.
func (c Chunk) Len() int {
	return len(c.Entities)
}

// IDs returns the entity identifiers in chunk order.
func (c Chunk) IDs() []string {
	ids := make([]string, len(c.Entities))
	for i, e := range c.Entities {
		ids[i] = e.ID
	}
	return ids
}

// Contains reports whether id is part of the chunk.
func (c Chunk) Contains(id string) bool {
	for _, e := range c.Entities {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Text renders the chunk as exchange-file lines, one entity per line.
func (c Chunk) Text() string {
	var sb strings.Builder
	sb.Grow(c.Size())
	for i, e := range c.Entities {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Raw)
	}
	return sb.String()
}

// Size returns len(c.Text()) without building the text.
func (c Chunk) Size() int {
	if len(c.Entities) == 0 {
		return 0
	}
	n := len(c.Entities) - 1
	for _, e := range c.Entities {
		n += len(e.Raw)
	}
	return n
}

// Stats counts entities and coordinate-bearing entities.
func (c Chunk) Stats() Stats {
	st := Stats{Entities: len(c.Entities), Chars: c.Size()}
	for _, e := range c.Entities {
		switch e.Type {
		case "IFCLOCALPLACEMENT":
			st.Placements++
		case "IFCAXIS2PLACEMENT3D":
			st.Axes++
		case "IFCCARTESIANPOINT":
			st.Points++
		}
	}
	return st
}
