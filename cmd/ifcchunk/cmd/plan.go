package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/config"
	"github.com/dbsmedya/ifcchunk/internal/logger"
	"github.com/dbsmedya/ifcchunk/internal/pipeline"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

// maxTreeChildren limits the children listed per assembly in the tree.
const maxTreeChildren = 8

var planFile string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the chunking plan for an IFC file",
	Long: `Plan parses an IFC file, locates the tagged assemblies and shows the
chunks an extraction run would send, without calling the LLM backend.

The plan shows:
  - Assembly tree (assemblies and their aggregated children)
  - Per-chunk entity count, size and estimated tokens
  - Component entities not grouped under any assembly
  - Structural warnings (truncated file, dangling references, cycles)

Example:
  ifcchunk plan --file model.ifc --tags PIPE,BRANCH`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "",
		"Path to the IFC file (required)")
	planCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	raw, err := readInput(planFile)
	if err != nil {
		return err
	}

	p := pipeline.FromConfig(cfg, log.WithFile(planFile), nil)
	prep := p.Prepare(raw, assembly.AcceptTags(cfg.Chunking.AcceptedTags...))
	plan := p.Estimate(prep, cfg.Dispatch.Concurrency)

	printPlan(filepath.Base(planFile), cfg, prep, plan)
	return nil
}

func printPlan(name string, cfg *config.Config, prep *pipeline.Prepared, plan *pipeline.Plan) {
	printHeader("Chunk Plan: %s", name)

	fmt.Fprintln(outputWriter)
	printSection("File Overview")
	fmt.Fprintf(outputWriter, "  Entities:        %d\n", plan.Entities)
	fmt.Fprintf(outputWriter, "  Relations:       %d (%d edges)\n", plan.Graph.Relations, plan.Graph.Edges)
	fmt.Fprintf(outputWriter, "  Assemblies:      %d (tags: %s)\n", len(plan.Chunks), strings.Join(cfg.Chunking.AcceptedTags, ", "))
	fmt.Fprintf(outputWriter, "  Input Tokens:    ~%d\n", plan.TotalTokens)
	fmt.Fprintf(outputWriter, "  Concurrency:     %d\n", plan.Concurrency)

	if len(prep.Assemblies) > 0 {
		fmt.Fprintln(outputWriter)
		printSection("Assembly Tree")
		printSideBySide(assemblyTree(prep), chunkingSummary(cfg), 4)
	}

	fmt.Fprintln(outputWriter)
	printSection("Chunks")
	if len(plan.Chunks) == 0 {
		fmt.Fprintln(outputWriter, "  (none)")
	} else {
		printChunkTable(plan.Chunks)
	}

	fmt.Fprintln(outputWriter)
	printSection("Ungrouped Components")
	if len(plan.Ungrouped) == 0 {
		fmt.Fprintln(outputWriter, "  (none)")
	}
	for _, id := range plan.Ungrouped {
		e, _ := prep.Store.Get(id)
		fmt.Fprintf(outputWriter, "  • %s %s\n", id, e.Type)
	}

	if len(plan.Warnings) > 0 {
		fmt.Fprintln(outputWriter)
		printSection("Warnings")
		for _, w := range plan.Warnings {
			fmt.Fprintf(outputWriter, "  %s %s\n", color.Yellow.Sprint("!"), w)
		}
	}
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := visualWidth(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", color.Bold.Sprint(title))
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", color.Cyan.Sprint(title))
	fmt.Fprintln(outputWriter, strings.Repeat("-", visualWidth(title)+2))
}

// printChunkTable prints one aligned row per chunk
func printChunkTable(chunks []pipeline.ChunkEstimate) {
	header := []string{"#", "ID", "TAG", "NAME", "ENTITIES", "CHARS", "TOKENS", "COORDS"}
	rows := make([][]string, 0, len(chunks))
	for i, c := range chunks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Assembly.ID,
			c.Assembly.Tag,
			c.Assembly.Name,
			strconv.Itoa(c.Entities),
			strconv.Itoa(c.Chars),
			strconv.Itoa(c.InputTokens),
			strconv.Itoa(c.Coordinates),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = visualWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := visualWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	printRow := func(cells []string, paint func(string) string) {
		var sb strings.Builder
		sb.WriteString(" ")
		for i, cell := range cells {
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
		}
		fmt.Fprintln(outputWriter, paint(strings.TrimRight(sb.String(), " ")))
	}

	printRow(header, func(s string) string { return color.Bold.Sprint(s) })
	for i, row := range rows {
		paint := func(s string) string { return s }
		if chunks[i].Large {
			paint = func(s string) string { return color.Red.Sprint(s) }
		}
		printRow(row, paint)
	}
}

// assemblyTree renders each located assembly with its aggregated children
func assemblyTree(prep *pipeline.Prepared) []string {
	var lines []string
	for _, a := range prep.Assemblies {
		lines = append(lines, fmt.Sprintf("%s %s %s", a.ID, a.Tag, a.Name))

		children := prep.Graph.ChildrenOf(a.ID)
		shown := children
		if len(shown) > maxTreeChildren {
			shown = shown[:maxTreeChildren]
		}
		for i, id := range shown {
			branch := "├── "
			if i == len(shown)-1 && len(children) == len(shown) {
				branch = "└── "
			}
			typ := "?"
			if e, ok := prep.Store.Get(id); ok {
				typ = e.Type
			}
			lines = append(lines, fmt.Sprintf("%s%s %s", branch, id, typ))
		}
		if rest := len(children) - len(shown); rest > 0 {
			lines = append(lines, fmt.Sprintf("└── ... %d more", rest))
		}
	}
	return lines
}

// chunkingSummary lists the chunking settings shown beside the tree
func chunkingSummary(cfg *config.Config) []string {
	ch := cfg.Chunking
	placements := "off"
	if ch.IncludePlacements {
		placements = "on"
	}
	return []string{
		"[ Chunking ]",
		strings.Repeat("-", 12),
		fmt.Sprintf("Assembly Type:  %s", ch.AssemblyType),
		fmt.Sprintf("Tag Property:   %s", strings.Join(ch.TagProperties, ", ")),
		fmt.Sprintf("Depth:          %d", ch.Depth),
		fmt.Sprintf("Placements:     %s", placements),
	}
}

// printSideBySide prints two blocks of text side by side
// padding is the minimum spaces between the two columns
func printSideBySide(leftLines, rightLines []string, padding int) {
	leftWidth := 0
	for _, line := range leftLines {
		if w := visualWidth(line); w > leftWidth {
			leftWidth = w
		}
	}

	maxHeight := len(leftLines)
	if len(rightLines) > maxHeight {
		maxHeight = len(rightLines)
	}

	for i := 0; i < maxHeight; i++ {
		leftPart, rightPart := "", ""
		if i < len(leftLines) {
			leftPart = leftLines[i]
		}
		if i < len(rightLines) {
			rightPart = rightLines[i]
		}

		line := "  " + runewidth.FillRight(leftPart, leftWidth+padding) + rightPart
		fmt.Fprintln(outputWriter, strings.TrimRight(line, " "))
	}
}

// visualWidth returns the display width of s in a terminal
func visualWidth(s string) int {
	return runewidth.StringWidth(s)
}
