package assembly

import (
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/graph"
	"github.com/dbsmedya/ifcchunk/internal/store"
)

const singleValueType = "IFCPROPERTYSINGLEVALUE"

// Properties resolves the single-value properties attached to id through
// its property sets. When a name occurs more than once the later value
// wins. Properties without a nominal value are skipped.
func Properties(id string, s *store.Store, g *graph.Graph) map[string]string {
	props := make(map[string]string)
	for _, pset := range g.PropertySetsOf(id) {
		for _, propID := range g.PropertiesIn(pset) {
			name, value, ok := singleValue(s, propID)
			if ok {
				props[name] = value
			}
		}
	}
	return props
}

// singleValue reads IFCPROPERTYSINGLEVALUE(Name, Description, NominalValue, Unit).
func singleValue(s *store.Store, id string) (name, value string, ok bool) {
	e, found := s.Get(id)
	if !found || e.Type != singleValueType {
		return "", "", false
	}
	n, ok := e.Attr(0)
	if !ok {
		return "", "", false
	}
	name, ok = n.Scalar()
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", false
	}
	v, ok := e.Attr(2)
	if !ok {
		return "", "", false
	}
	value, ok = v.Scalar()
	if !ok {
		return "", "", false
	}
	return name, value, true
}
