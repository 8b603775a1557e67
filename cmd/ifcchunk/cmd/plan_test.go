package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/config"
	"github.com/dbsmedya/ifcchunk/internal/ifctest"
	"github.com/dbsmedya/ifcchunk/internal/pipeline"
)

func TestPlanCommandStructure(t *testing.T) {
	assert.NotNil(t, planCmd)
	assert.Equal(t, "plan", planCmd.Use)
	assert.NotEmpty(t, planCmd.Short)
	assert.NotEmpty(t, planCmd.Long)
	assert.NotNil(t, planCmd.RunE)
}

func TestPlanCommandFlags(t *testing.T) {
	fileFlag := planCmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag)
	assert.Equal(t, "f", fileFlag.Shorthand)
	assert.Equal(t, "", fileFlag.DefValue)
	assert.Contains(t, fileFlag.Annotations, "cobra_annotation_bash_completion_one_required_flag")
}

func TestRunPlan_Multiple(t *testing.T) {
	withGlobals(t)
	planFile = writeFixture(t, "multiple.ifc", ifctest.Multiple)

	var buf bytes.Buffer
	setOutputWriter(&buf)

	require.NoError(t, runPlan(planCmd, nil))

	out := buf.String()
	assert.Contains(t, out, "Chunk Plan: multiple.ifc")
	assert.Contains(t, out, "[File Overview]")
	assert.Contains(t, out, "Assemblies:      2 (tags: PIPE, BRANCH)")
	assert.Contains(t, out, "Concurrency:     2")
	assert.Contains(t, out, "[Chunks]")
	assert.Contains(t, out, "#1000")
	assert.Contains(t, out, "#2000")
	assert.NotContains(t, out, "#3100", "EQUI is not an accepted tag")
	assert.Contains(t, out, "• #3000 IFCWALL")
	assert.NotContains(t, out, "[Warnings]")
}

func TestRunPlan_TreeAndWarnings(t *testing.T) {
	withGlobals(t)
	planFile = writeFixture(t, "branch.ifc", ifctest.Branch)

	var buf bytes.Buffer
	setOutputWriter(&buf)
	require.NoError(t, runPlan(planCmd, nil))

	out := buf.String()
	assert.Contains(t, out, "#4530 BRANCH B1")
	assert.Contains(t, out, "├── #278 IFCFLOWFITTING")
	assert.Contains(t, out, "└── #316 IFCFLOWSEGMENT")
	assert.Contains(t, out, "[ Chunking ]")
	assert.Contains(t, out, "Ungrouped Components")
	assert.Contains(t, out, "(none)")
}

func TestRunPlan_MissingFile(t *testing.T) {
	withGlobals(t)
	planFile = "does-not-exist.ifc"
	assert.Error(t, runPlan(planCmd, nil))
}

func TestPrintChunkTable_Alignment(t *testing.T) {
	var buf bytes.Buffer
	setOutputWriter(&buf)
	defer resetOutputWriter()

	printChunkTable([]pipeline.ChunkEstimate{
		{Assembly: assembly.Assembly{ID: "#1", Tag: "PIPE", Name: "配管"}, Entities: 5, Chars: 400, InputTokens: 100},
		{Assembly: assembly.Assembly{ID: "#1000", Tag: "BRANCH", Name: "B1"}, Entities: 12, Chars: 1200, InputTokens: 300},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	col := visualWidth(lines[0][:strings.Index(lines[0], "ENTITIES")])
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		idx := strings.Index(line, " "+fields[4]+" ")
		assert.Equal(t, col, visualWidth(line[:idx+1]), "column start in %q", line)
	}
}

func TestAssemblyTree_Truncates(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("DATA;\n")
	sb.WriteString("#1= IFCELEMENTASSEMBLY('a',$,$,$,$,$,$,$,$);\n")
	sb.WriteString("#2= IFCPROPERTYSET('p',$,'P',$,(#3));\n")
	sb.WriteString("#3= IFCPROPERTYSINGLEVALUE('E3DType',$,IFCLABEL('PIPE'),$);\n")
	sb.WriteString("#4= IFCRELDEFINESBYPROPERTIES('r',$,$,$,(#1),#2);\n")
	children := make([]string, 0, 10)
	for i := 10; i < 20; i++ {
		id := fmt.Sprintf("#%d", i)
		children = append(children, id)
		sb.WriteString(id + "= IFCFLOWSEGMENT('s',$,$,$,$,$,$,$);\n")
	}
	sb.WriteString("#5= IFCRELAGGREGATES('g',$,$,$,#1,(" + strings.Join(children, ",") + "));\nENDSEC;\n")

	p := pipeline.New()
	prep := p.Prepare(sb.String(), nil)
	lines := assemblyTree(prep)

	require.Len(t, lines, 1+maxTreeChildren+1)
	assert.Equal(t, "#1 PIPE Unknown", lines[0])
	assert.Equal(t, "├── #10 IFCFLOWSEGMENT", lines[1])
	assert.Equal(t, "└── ... 2 more", lines[len(lines)-1])
}

func TestPrintSideBySide(t *testing.T) {
	var buf bytes.Buffer
	setOutputWriter(&buf)
	defer resetOutputWriter()

	printSideBySide([]string{"ab", "├── wide"}, []string{"R1", "R2", "R3"}, 2)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  ab        R1", lines[0])
	assert.Equal(t, "  ├── wide  R2", lines[1])
	assert.Equal(t, "            R3", lines[2])
}

func TestVisualWidth(t *testing.T) {
	assert.Equal(t, 5, visualWidth("hello"))
	assert.Equal(t, 4, visualWidth("├── "))
	assert.Equal(t, 4, visualWidth("配管"))
	assert.Equal(t, 0, visualWidth(""))
}

func TestChunkingSummary(t *testing.T) {
	cfg := config.DefaultConfig()
	lines := chunkingSummary(cfg)
	assert.Contains(t, lines, "Assembly Type:  IFCELEMENTASSEMBLY")
	assert.Contains(t, lines, "Placements:     off")

	cfg.Chunking.IncludePlacements = true
	assert.Contains(t, chunkingSummary(cfg), "Placements:     on")
}
