package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/ifcchunk/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile           string
	logLevel          string
	logFormat         string
	concurrency       int
	acceptedTags      []string
	includePlacements bool
)

var rootCmd = &cobra.Command{
	Use:   "ifcchunk",
	Short: "IFC assembly chunking and component extraction",
	Long: `Split an IFC (STEP) file into self-contained assembly chunks and
extract structured component data from each chunk concurrently.

Features:
  - Grammar-based STEP tokenizer tolerant of multi-line entities
  - Relationship graph over property and aggregation relations
  - One chunk per tagged assembly with its children and property chains
  - Bounded concurrent extraction with deterministic merge order
  - Component summary with type counts and bounding volume`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "ifcchunk.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Chunking and dispatch overrides
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0,
		"Override the number of concurrent extraction calls (0 = from config or chunk count)")
	rootCmd.PersistentFlags().StringSliceVar(&acceptedTags, "tags", nil,
		"Override accepted assembly tags (comma separated, e.g. PIPE,BRANCH)")
	rootCmd.PersistentFlags().BoolVar(&includePlacements, "include-placements", false,
		"Include placement chains (coordinates) in every chunk")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel          string
	LogFormat         string
	Concurrency       int
	Tags              []string
	IncludePlacements bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:          logLevel,
		LogFormat:         logFormat,
		Concurrency:       concurrency,
		Tags:              acceptedTags,
		IncludePlacements: includePlacements,
	}
}

// loadConfig loads the config file, applies CLI overrides and validates
// the result. When required is false a missing file falls back to the
// defaults.
func loadConfig(required bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if required {
		cfg, err = config.Load(GetConfigFile())
	} else {
		cfg, err = config.LoadOrDefault(GetConfigFile())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	o := GetCLIOverrides()
	cfg.ApplyOverrides(o.LogLevel, o.LogFormat, o.Concurrency, o.Tags, o.IncludePlacements)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readInput reads the IFC file named by a command's --file flag.
func readInput(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read IFC file: %w", err)
	}
	return string(data), nil
}
