// Package pipeline wires the store, graph, locator, assembler and
// dispatcher into the single entry point that turns one IFC file into a
// merged extraction result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/chunk"
	"github.com/dbsmedya/ifcchunk/internal/config"
	"github.com/dbsmedya/ifcchunk/internal/dispatch"
	"github.com/dbsmedya/ifcchunk/internal/extract"
	"github.com/dbsmedya/ifcchunk/internal/graph"
	"github.com/dbsmedya/ifcchunk/internal/logger"
	"github.com/dbsmedya/ifcchunk/internal/store"
)

// ErrEntityNotFound is returned by Chunk for an identifier absent from
// the file.
var ErrEntityNotFound = errors.New("entity not found")

// Processor runs the chunking pipeline.
type Processor struct {
	log            *logger.Logger
	schema         graph.Schema
	locator        *assembly.Locator
	assembler      *chunk.Assembler
	coordinator    *dispatch.Coordinator
	componentTypes []string
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}

// WithSchema sets the relationship type names used to build the graph.
func WithSchema(schema graph.Schema) Option {
	return func(p *Processor) { p.schema = schema }
}

// WithLocator replaces the assembly locator.
func WithLocator(l *assembly.Locator) Option {
	return func(p *Processor) { p.locator = l }
}

// WithAssembler replaces the chunk assembler.
func WithAssembler(a *chunk.Assembler) Option {
	return func(p *Processor) { p.assembler = a }
}

// WithCoordinator replaces the dispatch coordinator.
func WithCoordinator(c *dispatch.Coordinator) Option {
	return func(p *Processor) { p.coordinator = c }
}

// WithComponentTypes sets the type prefixes reported as ungrouped
// components by Plan.
func WithComponentTypes(types ...string) Option {
	return func(p *Processor) { p.componentTypes = types }
}

// New creates a Processor with default settings.
func New(opts ...Option) *Processor {
	p := &Processor{
		log:            logger.NewNop(),
		schema:         graph.DefaultSchema(),
		componentTypes: assembly.DefaultComponentTypes,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.locator == nil {
		p.locator = assembly.NewLocator(assembly.WithLogger(p.log))
	}
	if p.assembler == nil {
		p.assembler = chunk.NewAssembler(chunk.WithLogger(p.log))
	}
	if p.coordinator == nil {
		p.coordinator = dispatch.NewCoordinator(dispatch.WithLogger(p.log))
	}
	return p
}

// FromConfig creates a Processor from the chunking and dispatch sections
// of cfg. metrics may be nil.
func FromConfig(cfg *config.Config, log *logger.Logger, metrics *dispatch.Metrics) *Processor {
	if log == nil {
		log = logger.NewDefault()
	}
	ch := cfg.Chunking

	schema := graph.DefaultSchema()
	if len(ch.AggregationTypes) > 0 {
		schema.Aggregation = ch.AggregationTypes
	}

	locOpts := []assembly.Option{
		assembly.WithLogger(log),
		assembly.WithUnknownName(ch.UnknownName),
	}
	if ch.AssemblyType != "" {
		locOpts = append(locOpts, assembly.WithAssemblyType(ch.AssemblyType))
	}
	if len(ch.TagProperties) > 0 {
		locOpts = append(locOpts, assembly.WithTagProperties(ch.TagProperties...))
	}
	if len(ch.NameProperties) > 0 {
		locOpts = append(locOpts, assembly.WithNameProperties(ch.NameProperties...))
	}

	asmOpts := []chunk.Option{chunk.WithLogger(log), chunk.WithDepth(ch.Depth)}
	if ch.IncludePlacements {
		asmOpts = append(asmOpts, chunk.WithPlacements(ch.PlacementTypes...))
	}

	return New(
		WithLogger(log),
		WithSchema(schema),
		WithLocator(assembly.NewLocator(locOpts...)),
		WithAssembler(chunk.NewAssembler(asmOpts...)),
		WithCoordinator(dispatch.NewCoordinator(
			dispatch.WithLogger(log),
			dispatch.WithMetrics(metrics),
			dispatch.WithChunkTimeout(time.Duration(cfg.Dispatch.ChunkTimeoutSeconds*float64(time.Second))),
		)),
	)
}

// Prepared is the synchronous half of the pipeline: everything built
// before any extraction call is made.
type Prepared struct {
	Store      *store.Store
	Graph      *graph.Graph
	Assemblies []assembly.Assembly
	Chunks     []chunk.Chunk
}

// Prepare parses raw, builds the relationship graph, locates the
// assemblies accepted by pred and assembles one chunk per assembly.
func (p *Processor) Prepare(raw string, pred assembly.TagPredicate) *Prepared {
	s := store.NewParser(p.log).Parse(raw)
	g := graph.NewBuilder(p.schema, p.log).Build(s)
	found := p.locator.Find(s, g, pred)
	chunks := p.assembler.AssembleAll(found, s, g)

	p.log.Infow("File prepared",
		"entities", s.Len(),
		"relations", g.Stats().Relations,
		"assemblies", len(found),
	)

	return &Prepared{Store: s, Graph: g, Assemblies: found, Chunks: chunks}
}

// Process prepares raw and dispatches every chunk to fn with at most
// limit calls in flight. A file without accepted assemblies yields an
// empty result.
func (p *Processor) Process(ctx context.Context, raw string, pred assembly.TagPredicate, limit int, fn extract.Func) (*dispatch.Result, error) {
	prep := p.Prepare(raw, pred)
	if len(prep.Chunks) == 0 {
		p.log.Warn("No accepted assemblies found - nothing to extract")
	}
	res, err := p.coordinator.Run(ctx, prep.Chunks, limit, fn)
	if err != nil && res == nil {
		return nil, fmt.Errorf("dispatch failed: %w", err)
	}
	return res, err
}

// Chunk assembles the chunk anchored at id, whether or not id is a
// located assembly.
func (p *Processor) Chunk(raw, id string) (chunk.Chunk, error) {
	prep := p.Prepare(raw, assembly.AcceptAny())
	if !prep.Store.Has(id) {
		return chunk.Chunk{}, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	for i, a := range prep.Assemblies {
		if a.ID == id {
			return prep.Chunks[i], nil
		}
	}
	return p.assembler.Assemble(assembly.Assembly{ID: id}, prep.Store, prep.Graph), nil
}

// ProcessFile runs the pipeline over raw with default settings.
func ProcessFile(ctx context.Context, raw string, pred assembly.TagPredicate, limit int, fn extract.Func) (*dispatch.Result, error) {
	return New().Process(ctx, raw, pred, limit, fn)
}
