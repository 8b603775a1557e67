package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/ifcchunk/internal/assembly"
	"github.com/dbsmedya/ifcchunk/internal/config"
	"github.com/dbsmedya/ifcchunk/internal/dispatch"
	"github.com/dbsmedya/ifcchunk/internal/extract"
	"github.com/dbsmedya/ifcchunk/internal/extract/llm"
	"github.com/dbsmedya/ifcchunk/internal/lifecycle"
	"github.com/dbsmedya/ifcchunk/internal/logger"
	"github.com/dbsmedya/ifcchunk/internal/pipeline"
)

var (
	extractFile   string
	extractFormat string
	extractOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract components from an IFC file",
	Long: `Extract chunks an IFC file by assembly and sends every chunk to the
configured LLM backend concurrently. The merged components and a summary
(type counts, bounding volume, token usage) are written as JSON or YAML.

A chunk whose extraction fails is reported under "failures" and does not
stop the others. On SIGINT/SIGTERM, chunks already sent are awaited,
the rest are skipped and the partial result is still written.

Example:
  ifcchunk extract --file model.ifc --format yaml --output result.yaml`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "",
		"Path to the IFC file (required)")
	extractCmd.MarkFlagRequired("file")
	extractCmd.Flags().StringVar(&extractFormat, "format", "json",
		"Output format (json, yaml)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "",
		"Write the result to this file instead of stdout")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractFormat != "json" && extractFormat != "yaml" {
		return fmt.Errorf("unsupported format %q (use json or yaml)", extractFormat)
	}

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	if err := cfg.ValidateLLM(); err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	raw, err := readInput(extractFile)
	if err != nil {
		return err
	}

	var schema extract.Schema
	if cfg.LLM.SchemaFile != "" {
		if schema, err = extract.LoadSchema(cfg.LLM.SchemaFile); err != nil {
			return err
		}
	}

	ex, err := llm.New(&cfg.LLM, log)
	if err != nil {
		return err
	}

	var metrics *dispatch.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics = dispatch.NewMetrics(reg)
		stop := serveMetrics(cfg.Metrics, reg, log)
		defer stop()
	}

	ctx, cancel := lifecycle.WithSignals(context.Background(), func(sig os.Signal) {
		log.Warnw("Received shutdown signal - waiting for in-flight chunks", "signal", sig.String())
	})
	defer cancel()

	flog := log.WithFile(extractFile)
	flog.Infow("Starting extraction",
		"model", cfg.LLM.Model,
		"tags", cfg.Chunking.AcceptedTags,
	)

	p := pipeline.FromConfig(cfg, flog, metrics)
	res, err := p.Process(ctx,
		raw,
		assembly.AcceptTags(cfg.Chunking.AcceptedTags...),
		cfg.Dispatch.Concurrency,
		extract.ForChunks(ex, schema, flog, extract.ExpectCoordinates(cfg.Chunking.IncludePlacements)),
	)
	if err != nil {
		if res == nil || !errors.Is(err, context.Canceled) {
			return fmt.Errorf("extraction failed: %w", err)
		}
		flog.Warnw("Extraction cancelled - writing partial result", "skipped", len(res.Skipped))
	}

	out := cmd.OutOrStdout()
	if extractOutput != "" {
		f, err := os.Create(extractOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeResult(out, res, extractFormat); err != nil {
		return err
	}

	printRunSummary(cmd.ErrOrStderr(), res)

	if len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d chunks failed", len(res.Failures), res.Summary.Chunks)
	}
	return nil
}

// writeResult encodes res as JSON or YAML
func writeResult(w io.Writer, res *dispatch.Result, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// printRunSummary prints the run totals and failures
func printRunSummary(w io.Writer, res *dispatch.Result) {
	s := res.Summary
	fmt.Fprintf(w, "\n=== Extraction Complete ===\n")
	fmt.Fprintf(w, "Run: %s\n", res.RunID)
	fmt.Fprintf(w, "Duration: %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Chunks: %d succeeded, %d failed, %d skipped\n", s.Succeeded, s.Failed, s.Skipped)
	fmt.Fprintf(w, "Components: %d\n", s.TotalComponents)
	fmt.Fprintf(w, "Tokens: %d\n", s.TotalTokens)

	if len(res.Failures) > 0 {
		fmt.Fprintf(w, "\nFailures:\n")
		for _, f := range res.Failures {
			fmt.Fprintf(w, "  - %s (%s): %s\n", f.Assembly.ID, f.Assembly.Name, f.Message)
		}
	}
}

// serveMetrics exposes reg on cfg.Listen until the returned func is called
func serveMetrics(cfg config.MetricsConfig, reg *prometheus.Registry, log *logger.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnw("Metrics listener stopped", "listen", cfg.Listen, "error", err)
		}
	}()
	log.Infow("Serving metrics", "listen", cfg.Listen)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
