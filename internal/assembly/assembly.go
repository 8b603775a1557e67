// Package assembly locates the PIPE/BRANCH assembly anchors of an IFC
// model and resolves their tags and display names.
package assembly

import (
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/graph"
	"github.com/dbsmedya/ifcchunk/internal/logger"
	"github.com/dbsmedya/ifcchunk/internal/store"
)

// Assembly is one chunk anchor.
type Assembly struct {
	ID   string `json:"id" yaml:"id"`
	Tag  string `json:"tag" yaml:"tag"`
	Name string `json:"name" yaml:"name"`
}

// TagPredicate decides whether a resolved tag qualifies an assembly.
type TagPredicate func(tag string) bool

// AcceptTags accepts any of tags, ignoring case and surrounding spaces.
func AcceptTags(tags ...string) TagPredicate {
	accepted := make(map[string]bool, len(tags))
	for _, t := range tags {
		accepted[strings.ToUpper(strings.TrimSpace(t))] = true
	}
	return func(tag string) bool {
		return accepted[strings.ToUpper(strings.TrimSpace(tag))]
	}
}

// AcceptAny accepts every non-empty tag.
func AcceptAny() TagPredicate {
	return func(tag string) bool { return strings.TrimSpace(tag) != "" }
}

const (
	DefaultAssemblyType = "IFCELEMENTASSEMBLY"
	DefaultUnknownName  = "Unknown"
)

// Locator finds assemblies. The zero value is not usable; use NewLocator.
type Locator struct {
	assemblyType string
	tagProps     []string
	nameProps    []string
	unknownName  string
	log          *logger.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithAssemblyType sets the entity type scanned for anchors.
func WithAssemblyType(t string) Option {
	return func(l *Locator) { l.assemblyType = strings.ToUpper(t) }
}

// WithTagProperties sets the property names that carry the tag, in
// priority order.
func WithTagProperties(names ...string) Option {
	return func(l *Locator) { l.tagProps = names }
}

// WithNameProperties sets the property names that carry the display
// name, in priority order.
func WithNameProperties(names ...string) Option {
	return func(l *Locator) { l.nameProps = names }
}

// WithUnknownName sets the name used when no name property resolves.
func WithUnknownName(name string) Option {
	return func(l *Locator) { l.unknownName = name }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Locator) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLocator returns a Locator for IFCELEMENTASSEMBLY anchors tagged
// through E3DType and named through NAME or Name, unless overridden.
func NewLocator(opts ...Option) *Locator {
	l := &Locator{
		assemblyType: DefaultAssemblyType,
		tagProps:     []string{"E3DType"},
		nameProps:    []string{"NAME", "Name"},
		unknownName:  DefaultUnknownName,
		log:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Find returns the assemblies whose tag satisfies pred, in store order.
// Entities without a resolvable tag, or with a rejected one, are skipped.
func (l *Locator) Find(s *store.Store, g *graph.Graph, pred TagPredicate) []Assembly {
	if pred == nil {
		pred = AcceptAny()
	}

	var found []Assembly
	candidates := s.OfType(l.assemblyType)
	for _, e := range candidates {
		props := Properties(e.ID, s, g)

		tag, ok := firstOf(props, l.tagProps)
		if !ok {
			l.log.Debugw("assembly has no tag property", "id", e.ID)
			continue
		}
		if !pred(tag) {
			l.log.Debugw("assembly tag not accepted", "id", e.ID, "tag", tag)
			continue
		}

		name, ok := firstOf(props, l.nameProps)
		if !ok {
			name = l.unknownName
		}
		found = append(found, Assembly{ID: e.ID, Tag: tag, Name: name})
	}

	l.log.Debugw("assemblies located", "candidates", len(candidates), "accepted", len(found))
	return found
}

func firstOf(props map[string]string, names []string) (string, bool) {
	for _, n := range names {
		if v, ok := props[n]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}
