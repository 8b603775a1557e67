// Package extract defines the contract between chunk dispatch and the
// component extraction backend, and builds extraction prompts from chunks.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dbsmedya/ifcchunk/internal/chunk"
	"github.com/dbsmedya/ifcchunk/internal/logger"
)

// Component is one extracted physical component.
type Component struct {
	GlobalID   string                 `json:"globalId" yaml:"globalId"`
	Type       string                 `json:"type" yaml:"type"`
	Name       string                 `json:"name" yaml:"name"`
	Material   string                 `json:"material,omitempty" yaml:"material,omitempty"`
	X          *float64               `json:"x" yaml:"x"`
	Y          *float64               `json:"y" yaml:"y"`
	Z          *float64               `json:"z" yaml:"z"`
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
	Assembly   string                 `json:"assembly,omitempty" yaml:"assembly,omitempty"` // originating assembly ID
}

// HasPosition reports whether all three coordinates are set.
func (c Component) HasPosition() bool {
	return c.X != nil && c.Y != nil && c.Z != nil
}

// Result is the successful outcome of one extraction call.
type Result struct {
	Components []Component
	Tokens     int
}

// Schema is an opaque JSON schema handed to the backend.
type Schema json.RawMessage

// LoadSchema reads a schema file. An empty path yields a nil schema.
func LoadSchema(path string) (Schema, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("schema file %s is not valid JSON", path)
	}
	return Schema(data), nil
}

// Request is one extraction call.
type Request struct {
	Prompt    string
	Schema    Schema
	MaxTokens int
}

// Extractor turns a prompt into components. Implementations own their
// retry policy.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Result, error)
}

// Func extracts the components of one chunk.
type Func func(ctx context.Context, c chunk.Chunk) (*Result, error)

// ErrEmptyChunk is returned for chunks without entities.
var ErrEmptyChunk = errors.New("chunk has no entities")

// LargeChunkChars is the size above which a chunk is reported as large.
const LargeChunkChars = 100000

// ChunkOption configures ForChunks.
type ChunkOption func(*chunkOptions)

type chunkOptions struct {
	expectCoordinates bool
}

// ExpectCoordinates reports chunks that carry no coordinate entities.
// Enable it when placement chains are being assembled into chunks.
func ExpectCoordinates(on bool) ChunkOption {
	return func(o *chunkOptions) {
		o.expectCoordinates = on
	}
}

// ForChunks adapts an Extractor to a Func: it builds the prompt, scales
// the output budget to the chunk size and tags every component with the
// originating assembly. A nil logger discards output.
func ForChunks(ex Extractor, schema Schema, log *logger.Logger, opts ...ChunkOption) Func {
	if log == nil {
		log = logger.NewNop()
	}
	var o chunkOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(ctx context.Context, c chunk.Chunk) (*Result, error) {
		if c.Len() == 0 {
			return nil, ErrEmptyChunk
		}

		st := c.Stats()
		alog := log.WithAssembly(c.Assembly.ID, c.Assembly.Name)
		if st.Chars > LargeChunkChars {
			alog.Warnw("large chunk", "chars", st.Chars, "entities", st.Entities)
		}
		if o.expectCoordinates && st.Coordinates() == 0 {
			alog.Warnw("chunk has no coordinate entities; components will lack positions")
		}

		res, err := ex.Extract(ctx, Request{
			Prompt:    Prompt(c),
			Schema:    schema,
			MaxTokens: MaxOutputTokens(st.Chars),
		})
		if err != nil {
			return nil, err
		}
		if res == nil {
			res = &Result{}
		}
		for i := range res.Components {
			if res.Components[i].Assembly == "" {
				res.Components[i].Assembly = c.Assembly.ID
			}
		}
		return res, nil
	}
}

// MaxOutputTokens scales the response budget with the chunk size.
func MaxOutputTokens(chunkChars int) int {
	switch {
	case chunkChars > 50000:
		return 65535
	case chunkChars > 20000:
		return 32768
	default:
		return 16384
	}
}
