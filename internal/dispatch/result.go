package dispatch

import (
	"math"
	"sort"
	"time"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/extract"
)

// Outcome is the per-chunk record of a run.
type Outcome struct {
	Index      int
	Assembly   assembly.Assembly
	State      State
	Components []extract.Component
	Tokens     int
	Err        error
	Duration   time.Duration
}

func (o *Outcome) moveTo(next State) error {
	s, err := transition(o.State, next)
	o.State = s
	return err
}

// Failure describes one chunk whose extraction failed.
type Failure struct {
	Index    int               `json:"index" yaml:"index"`
	Assembly assembly.Assembly `json:"assembly" yaml:"assembly"`
	Message  string            `json:"message" yaml:"message"`
}

// TypeCount is the number of merged components of one type.
type TypeCount struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// BoundingVolume encloses every positioned component.
type BoundingVolume struct {
	MinX float64 `json:"minX" yaml:"minX"`
	MinY float64 `json:"minY" yaml:"minY"`
	MinZ float64 `json:"minZ" yaml:"minZ"`
	MaxX float64 `json:"maxX" yaml:"maxX"`
	MaxY float64 `json:"maxY" yaml:"maxY"`
	MaxZ float64 `json:"maxZ" yaml:"maxZ"`
}

// Summary describes a merged run. The component fields are always
// computed from Result.Components.
type Summary struct {
	TotalComponents int             `json:"totalComponents" yaml:"totalComponents"`
	ComponentTypes  []TypeCount     `json:"componentTypes" yaml:"componentTypes"`
	BoundingVolume  *BoundingVolume `json:"boundingVolume,omitempty" yaml:"boundingVolume,omitempty"`
	Positioned      int             `json:"positioned" yaml:"positioned"`

	Chunks      int           `json:"chunks" yaml:"chunks"`
	Succeeded   int           `json:"succeeded" yaml:"succeeded"`
	Failed      int           `json:"failed" yaml:"failed"`
	Skipped     int           `json:"skipped" yaml:"skipped"`
	Concurrency int           `json:"concurrency" yaml:"concurrency"`
	TotalTokens int           `json:"totalTokens" yaml:"totalTokens"`
	Elapsed     time.Duration `json:"elapsed" yaml:"elapsed"`
	ChunkTime   time.Duration `json:"chunkTime" yaml:"chunkTime"` // sum of per-chunk call durations
}

// Result is the merged output of a run.
type Result struct {
	RunID      string              `json:"runId" yaml:"runId"`
	Components []extract.Component `json:"components" yaml:"components"`
	Summary    Summary             `json:"summary" yaml:"summary"`
	Failures   []Failure           `json:"failures" yaml:"failures"`
	Skipped    []assembly.Assembly `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Outcomes   []Outcome           `json:"-" yaml:"-"`
}

// Summarize computes the component statistics of a merged component list:
// total count, per-type counts (most frequent first, then by name) and the
// bounding volume of all components with a full position.
func Summarize(components []extract.Component) Summary {
	sum := Summary{TotalComponents: len(components), ComponentTypes: []TypeCount{}}

	counts := make(map[string]int)
	bv := BoundingVolume{
		MinX: math.Inf(1), MinY: math.Inf(1), MinZ: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1), MaxZ: math.Inf(-1),
	}
	for _, c := range components {
		counts[c.Type]++
		if !c.HasPosition() {
			continue
		}
		sum.Positioned++
		bv.MinX, bv.MaxX = math.Min(bv.MinX, *c.X), math.Max(bv.MaxX, *c.X)
		bv.MinY, bv.MaxY = math.Min(bv.MinY, *c.Y), math.Max(bv.MaxY, *c.Y)
		bv.MinZ, bv.MaxZ = math.Min(bv.MinZ, *c.Z), math.Max(bv.MaxZ, *c.Z)
	}

	for t, n := range counts {
		sum.ComponentTypes = append(sum.ComponentTypes, TypeCount{Type: t, Count: n})
	}
	sort.Slice(sum.ComponentTypes, func(i, j int) bool {
		a, b := sum.ComponentTypes[i], sum.ComponentTypes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Type < b.Type
	})

	if sum.Positioned > 0 {
		sum.BoundingVolume = &bv
	}
	return sum
}
