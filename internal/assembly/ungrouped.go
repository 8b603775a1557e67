package assembly

import (
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/graph"
	"github.com/dbsmedya/ifcchunk/internal/store"
)

// DefaultComponentTypes are the entity type prefixes treated as physical
// components when looking for ungrouped entities.
var DefaultComponentTypes = []string{
	"IFCFLOWFITTING", "IFCFLOWSEGMENT", "IFCWALL", "IFCSLAB",
	"IFCBEAM", "IFCCOLUMN", "IFCDOOR", "IFCWINDOW",
}

// Ungrouped returns the component entities that are not direct children
// of any of the given assemblies, in store order. componentTypes are
// matched as type prefixes, so IFCWALL also covers IFCWALLSTANDARDCASE.
func Ungrouped(s *store.Store, g *graph.Graph, assemblies []Assembly, componentTypes []string) []string {
	if componentTypes == nil {
		componentTypes = DefaultComponentTypes
	}
	prefixes := make([]string, len(componentTypes))
	for i, t := range componentTypes {
		prefixes[i] = strings.ToUpper(t)
	}

	grouped := make(map[string]bool)
	for _, a := range assemblies {
		for _, child := range g.ChildrenOf(a.ID) {
			grouped[child] = true
		}
	}

	var out []string
	for _, e := range s.All() {
		if grouped[e.ID] || !hasAnyPrefix(e.Type, prefixes) {
			continue
		}
		out = append(out, e.ID)
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
