package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/ifcchunk/internal/config"
	"github.com/dbsmedya/ifcchunk/internal/extract"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate checks the configuration file and the files it references.

Checks performed:
  - Configuration syntax and required fields
  - Chunking, dispatch, metrics and logging settings
  - LLM backend settings (host, model, token)
  - Output schema and system prompt files are readable

Example:
  ifcchunk validate --config ifcchunk.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	o := GetCLIOverrides()
	cfg.ApplyOverrides(o.LogLevel, o.LogFormat, o.Concurrency, o.Tags, o.IncludePlacements)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(w, "Config file: %s\n", configFile)
	fmt.Fprintf(w, "Accepted tags: %s\n\n", strings.Join(cfg.Chunking.AcceptedTags, ", "))

	hasErrors := false
	report := func(section string, err error) {
		if err == nil {
			fmt.Fprintf(w, "✅ %s\n", section)
			return
		}
		hasErrors = true
		fmt.Fprintf(w, "❌ %s\n", section)
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				fmt.Fprintf(w, "    - %s\n", v.Error())
			}
			return
		}
		fmt.Fprintf(w, "    - %v\n", err)
	}

	report("Chunking and runtime settings", cfg.Validate())
	report("LLM backend settings", cfg.ValidateLLM())
	if cfg.LLM.SchemaFile != "" {
		_, err := extract.LoadSchema(cfg.LLM.SchemaFile)
		report("Output schema file", err)
	}
	if cfg.LLM.SystemPromptFile != "" {
		_, err := os.Stat(cfg.LLM.SystemPromptFile)
		report("System prompt file", err)
	}
	fmt.Fprintln(w)

	if hasErrors {
		return fmt.Errorf("configuration is invalid")
	}

	fmt.Fprintln(w, "=== Validation Complete ===")
	fmt.Fprintln(w, "✅ Configuration is valid")
	return nil
}
