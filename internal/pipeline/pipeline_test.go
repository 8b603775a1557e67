package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/chunk"
	"github.com/dbsmedya/ifcchunk/internal/config"
	"github.com/dbsmedya/ifcchunk/internal/extract"
	"github.com/dbsmedya/ifcchunk/internal/ifctest"
	"github.com/dbsmedya/ifcchunk/internal/logger"
)

// recorder is an extract.Func that remembers every chunk it was given.
type recorder struct {
	mu     sync.Mutex
	chunks map[string]chunk.Chunk
}

func newRecorder() *recorder {
	return &recorder{chunks: make(map[string]chunk.Chunk)}
}

func (r *recorder) extract(ctx context.Context, c chunk.Chunk) (*extract.Result, error) {
	r.mu.Lock()
	r.chunks[c.Assembly.ID] = c
	r.mu.Unlock()
	return &extract.Result{
		Components: []extract.Component{{GlobalID: c.Assembly.ID, Type: c.Assembly.Tag, Name: c.Assembly.Name}},
		Tokens:     c.Len(),
	}, nil
}

func TestProcessFile_Branch(t *testing.T) {
	rec := newRecorder()

	res, err := ProcessFile(context.Background(), ifctest.Branch, assembly.AcceptTags("PIPE", "BRANCH"), 0, rec.extract)
	require.NoError(t, err)

	require.Len(t, rec.chunks, 1)
	c := rec.chunks["#4530"]
	assert.Equal(t, ifctest.BranchChunkIDs, c.IDs())
	assert.Equal(t, assembly.Assembly{ID: "#4530", Tag: "BRANCH", Name: "B1"}, c.Assembly)

	require.Len(t, res.Components, 1)
	assert.Equal(t, "B1", res.Components[0].Name)
	assert.Equal(t, 1, res.Summary.TotalComponents)
	assert.Equal(t, len(ifctest.BranchChunkIDs), res.Summary.TotalTokens)
	assert.Empty(t, res.Failures)
}

func TestProcessFile_EmptyDataSection(t *testing.T) {
	rec := newRecorder()
	raw := "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\nENDSEC;\nEND-ISO-10303-21;\n"

	res, err := ProcessFile(context.Background(), raw, assembly.AcceptTags("PIPE", "BRANCH"), 0, rec.extract)
	require.NoError(t, err)

	assert.Empty(t, rec.chunks)
	assert.Empty(t, res.Components)
	assert.Empty(t, res.Failures)
	assert.Zero(t, res.Summary.TotalComponents)
}

func TestProcessFile_OnlyAcceptedTagsInStoreOrder(t *testing.T) {
	res, err := ProcessFile(context.Background(), ifctest.Multiple, assembly.AcceptTags("PIPE", "BRANCH"), 1, newRecorder().extract)
	require.NoError(t, err)

	require.Len(t, res.Components, 2)
	assert.Equal(t, "#1000", res.Components[0].GlobalID)
	assert.Equal(t, "#2000", res.Components[1].GlobalID)
	assert.Equal(t, []extract.Component{
		{GlobalID: "#1000", Type: "PIPE", Name: "P1"},
		{GlobalID: "#2000", Type: "BRANCH", Name: "B1"},
	}, res.Components)
}

// promptChecker is an extract.Extractor that asserts on the request.
type promptChecker struct {
	t *testing.T
}

func (p promptChecker) Extract(ctx context.Context, req extract.Request) (*extract.Result, error) {
	assert.Contains(p.t, req.Prompt, "Assembly: BRANCH - B1 (ID: #4530)")
	assert.Contains(p.t, req.Prompt, "#278= IFCFLOWFITTING('fitting1',$,'WELD 1',$,$,$,$,$);")
	assert.Equal(p.t, 16384, req.MaxTokens)
	return &extract.Result{
		Components: []extract.Component{{GlobalID: "fitting1", Type: "Weld", Name: "WELD 1"}},
		Tokens:     42,
	}, nil
}

func TestProcessFile_ThroughExtractor(t *testing.T) {
	fn := extract.ForChunks(promptChecker{t: t}, nil, nil)

	res, err := ProcessFile(context.Background(), ifctest.Branch, nil, 0, fn)
	require.NoError(t, err)

	require.Len(t, res.Components, 1)
	assert.Equal(t, "#4530", res.Components[0].Assembly)
	assert.Equal(t, 42, res.Summary.TotalTokens)
	assert.NotEmpty(t, res.RunID)
}

func TestProcessor_FromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Chunking.IncludePlacements = true

	p := FromConfig(cfg, logger.NewNop(), nil)
	prep := p.Prepare(ifctest.Placed, assembly.AcceptTags(cfg.Chunking.AcceptedTags...))

	require.Len(t, prep.Chunks, 1)
	c := prep.Chunks[0]
	assert.Equal(t, "/P-100", c.Assembly.Name)
	for _, id := range []string{"#60", "#22", "#21", "#20", "#70", "#14", "#13", "#10", "#11", "#12"} {
		assert.True(t, c.Contains(id), "chunk should contain %s", id)
	}
	assert.Equal(t, 6, c.Stats().Coordinates())
}

func TestProcessor_FromConfigTagsCaseInsensitive(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Chunking.AcceptedTags = []string{"pipe"}

	p := FromConfig(cfg, logger.NewNop(), nil)
	prep := p.Prepare(ifctest.Multiple, assembly.AcceptTags(cfg.Chunking.AcceptedTags...))

	require.Len(t, prep.Assemblies, 1)
	assert.Equal(t, "#1000", prep.Assemblies[0].ID)
}

func TestProcessor_Chunk(t *testing.T) {
	p := New()

	c, err := p.Chunk(ifctest.Branch, "#4530")
	require.NoError(t, err)
	assert.Equal(t, ifctest.BranchChunkIDs, c.IDs())
	assert.Equal(t, "B1", c.Assembly.Name)

	c, err = p.Chunk(ifctest.Branch, "#278")
	require.NoError(t, err)
	assert.Equal(t, "#278", c.IDs()[0])
	assert.Empty(t, c.Assembly.Tag)

	_, err = p.Chunk(ifctest.Branch, "#9999")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestProcessor_Plan(t *testing.T) {
	plan := New().Plan(ifctest.Multiple, assembly.AcceptTags("PIPE", "BRANCH"), 0)

	require.Len(t, plan.Chunks, 2)
	pipe := plan.Chunks[0]
	assert.Equal(t, "#1000", pipe.Assembly.ID)
	assert.Equal(t, 5, pipe.Entities)
	assert.Equal(t, EstimateTokens(pipe.Chars), pipe.InputTokens)
	assert.Equal(t, 16384, pipe.MaxOutputTokens)
	assert.False(t, pipe.Large)

	assert.Equal(t, plan.Chunks[0].Chars+plan.Chunks[1].Chars, plan.TotalChars)
	assert.Equal(t, []string{"#3000"}, plan.Ungrouped)
	assert.Equal(t, 2, plan.Concurrency)
	assert.Empty(t, plan.Warnings)
}

func TestProcessor_PlanWarnings(t *testing.T) {
	t.Run("no data section", func(t *testing.T) {
		plan := New().Plan("ISO-10303-21;\nHEADER;\nENDSEC;\n", nil, 3)
		assert.Equal(t, []string{"file has no DATA section"}, plan.Warnings)
		assert.Equal(t, 3, plan.Concurrency)
		assert.NotNil(t, plan.Chunks)
	})

	t.Run("no accepted assemblies", func(t *testing.T) {
		plan := New().Plan(ifctest.Multiple, assembly.AcceptTags("STRUCTURE"), 0)
		assert.Equal(t, []string{"no accepted assemblies found"}, plan.Warnings)
	})

	t.Run("aggregation cycle and dangling reference", func(t *testing.T) {
		raw := "DATA;\n" +
			"#1= IFCELEMENTASSEMBLY('a',$,$,$,$,$,$,$,$);\n" +
			"#2= IFCELEMENTASSEMBLY('b',$,$,$,$,$,$,$,$);\n" +
			"#10= IFCRELAGGREGATES('x',$,$,$,#1,(#2));\n" +
			"#11= IFCRELAGGREGATES('y',$,$,$,#2,(#1,#99));\n" +
			"ENDSEC;\n"
		plan := New().Plan(raw, nil, 0)

		joined := strings.Join(plan.Warnings, "\n")
		assert.Contains(t, joined, "1 relationship references do not resolve")
		assert.Contains(t, joined, "aggregation cycle through 2 entities")
	})

	t.Run("truncated file", func(t *testing.T) {
		plan := New().Plan("DATA;\n#1= IFCWALL('w',$,$,$,$,$,$,$);\n#2= IFCWALL(", nil, 0)
		assert.Contains(t, plan.Warnings, "DATA section is truncated; the incomplete trailing entity was dropped")
		assert.Equal(t, []string{"#1"}, plan.Ungrouped)
	})
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(0))
	assert.Equal(t, 1, EstimateTokens(1))
	assert.Equal(t, 1, EstimateTokens(4))
	assert.Equal(t, 2, EstimateTokens(5))
	assert.Equal(t, 25000, EstimateTokens(100000))
}
