package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ifcchunk/internal/ifctest"
	"github.com/dbsmedya/ifcchunk/internal/pipeline"
)

func TestChunkCommandFlags(t *testing.T) {
	for _, name := range []string{"file", "assembly"} {
		f := chunkCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Contains(t, f.Annotations, "cobra_annotation_bash_completion_one_required_flag")
	}
	prompt := chunkCmd.Flags().Lookup("prompt")
	require.NotNil(t, prompt)
	assert.Equal(t, "false", prompt.DefValue)
}

func TestRunChunk(t *testing.T) {
	withGlobals(t)
	chunkFile = writeFixture(t, "branch.ifc", ifctest.Branch)
	chunkAssembly = "4530"

	var buf bytes.Buffer
	setOutputWriter(&buf)
	require.NoError(t, runChunk(chunkCmd, nil))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(ifctest.BranchChunkIDs))
	for i, id := range ifctest.BranchChunkIDs {
		assert.True(t, strings.HasPrefix(lines[i], id+"="), "line %d should start with %s: %q", i, id, lines[i])
	}
}

func TestRunChunk_Prompt(t *testing.T) {
	withGlobals(t)
	chunkFile = writeFixture(t, "branch.ifc", ifctest.Branch)
	chunkAssembly = "#4530"
	chunkPrompt = true

	var buf bytes.Buffer
	setOutputWriter(&buf)
	require.NoError(t, runChunk(chunkCmd, nil))

	assert.Contains(t, buf.String(), "Assembly: BRANCH - B1 (ID: #4530)")
	assert.Contains(t, buf.String(), "IFC Data Chunk:")
}

func TestRunChunk_UnknownEntity(t *testing.T) {
	withGlobals(t)
	chunkFile = writeFixture(t, "branch.ifc", ifctest.Branch)
	chunkAssembly = "#9999"

	err := runChunk(chunkCmd, nil)
	assert.ErrorIs(t, err, pipeline.ErrEntityNotFound)
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "#4530", normalizeID("4530"))
	assert.Equal(t, "#4530", normalizeID("#4530"))
	assert.Equal(t, "", normalizeID(""))
}
