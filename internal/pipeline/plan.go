package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/dispatch"
	"github.com/dbsmedya/ifcchunk/internal/extract"
	"github.com/dbsmedya/ifcchunk/internal/graph"
	"github.com/dbsmedya/ifcchunk/internal/store"
)

// charsPerToken approximates the tokenizer of the extraction backend.
const charsPerToken = 4

// ChunkEstimate is the dry-run estimate for one chunk.
type ChunkEstimate struct {
	Assembly        assembly.Assembly `json:"assembly" yaml:"assembly"`
	Entities        int               `json:"entities" yaml:"entities"`
	Chars           int               `json:"chars" yaml:"chars"`
	Coordinates     int               `json:"coordinates" yaml:"coordinates"`
	InputTokens     int               `json:"inputTokens" yaml:"inputTokens"`
	MaxOutputTokens int               `json:"maxOutputTokens" yaml:"maxOutputTokens"`
	Large           bool              `json:"large" yaml:"large"`
}

// Plan is the dry-run view of a file: what would be sent for extraction
// without calling the backend.
type Plan struct {
	Store       store.Stats     `json:"store" yaml:"store"`
	Entities    int             `json:"entities" yaml:"entities"`
	Graph       graph.Stats     `json:"graph" yaml:"graph"`
	Chunks      []ChunkEstimate `json:"chunks" yaml:"chunks"`
	Ungrouped   []string        `json:"ungrouped" yaml:"ungrouped"`
	TotalChars  int             `json:"totalChars" yaml:"totalChars"`
	TotalTokens int             `json:"totalTokens" yaml:"totalTokens"`
	Concurrency int             `json:"concurrency" yaml:"concurrency"`
	Warnings    []string        `json:"warnings" yaml:"warnings"`
}

// EstimateTokens approximates the token count of chars characters.
func EstimateTokens(chars int) int {
	return (chars + charsPerToken - 1) / charsPerToken
}

// Plan prepares raw and estimates the work an extraction run would do.
// limit is the concurrency the run would use; 0 selects it from the
// chunk count.
func (p *Processor) Plan(raw string, pred assembly.TagPredicate, limit int) *Plan {
	return p.Estimate(p.Prepare(raw, pred), limit)
}

// Estimate builds the Plan of an already prepared file.
func (p *Processor) Estimate(prep *Prepared, limit int) *Plan {
	plan := &Plan{
		Store:     prep.Store.Stats(),
		Entities:  prep.Store.Len(),
		Graph:     prep.Graph.Stats(),
		Chunks:    make([]ChunkEstimate, 0, len(prep.Chunks)),
		Ungrouped: assembly.Ungrouped(prep.Store, prep.Graph, prep.Assemblies, p.componentTypes),
		Warnings:  []string{},
	}
	if plan.Ungrouped == nil {
		plan.Ungrouped = []string{}
	}

	for _, c := range prep.Chunks {
		st := c.Stats()
		est := ChunkEstimate{
			Assembly:        c.Assembly,
			Entities:        st.Entities,
			Chars:           st.Chars,
			Coordinates:     st.Coordinates(),
			InputTokens:     EstimateTokens(st.Chars),
			MaxOutputTokens: extract.MaxOutputTokens(st.Chars),
			Large:           st.Chars > extract.LargeChunkChars,
		}
		plan.Chunks = append(plan.Chunks, est)
		plan.TotalChars += est.Chars
		plan.TotalTokens += est.InputTokens

		if est.Large {
			plan.warn("chunk %s (%s) is %d characters; extraction may be truncated", c.Assembly.ID, c.Assembly.Name, est.Chars)
		}
	}

	plan.Concurrency = limit
	if limit <= 0 {
		plan.Concurrency = dispatch.OptimalConcurrency(len(prep.Chunks))
	}

	switch {
	case plan.Store.NoData:
		plan.warn("file has no DATA section")
	case plan.Store.Truncated:
		plan.warn("DATA section is truncated; the incomplete trailing entity was dropped")
	}
	if plan.Store.Skipped > 0 {
		plan.warn("%d statements without an entity identifier were skipped", plan.Store.Skipped)
	}
	if plan.Graph.Dangling > 0 {
		plan.warn("%d relationship references do not resolve to an entity", plan.Graph.Dangling)
	}
	if err := prep.Graph.CheckAggregationCycles(); err != nil {
		var cycle *graph.CycleError
		if errors.As(err, &cycle) {
			plan.warn("aggregation cycle through %d entities: %s",
				len(cycle.Info.UnprocessedNodes), strings.Join(cycle.Info.CyclePath, " -> "))
		} else {
			plan.warn("%v", err)
		}
	}
	if len(plan.Chunks) == 0 && !plan.Store.NoData {
		plan.warn("no accepted assemblies found")
	}

	return plan
}

func (p *Plan) warn(format string, args ...interface{}) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}
