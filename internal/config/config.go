// Package config provides configuration structures and loading for ifcchunk.
package config

// Config represents the complete application configuration.
type Config struct {
	Chunking ChunkingConfig `yaml:"chunking" mapstructure:"chunking"`
	Dispatch DispatchConfig `yaml:"dispatch" mapstructure:"dispatch"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// ChunkingConfig controls how assemblies are located and chunked.
type ChunkingConfig struct {
	AssemblyType      string   `yaml:"assembly_type" mapstructure:"assembly_type"`
	AcceptedTags      []string `yaml:"accepted_tags" mapstructure:"accepted_tags"`
	TagProperties     []string `yaml:"tag_properties" mapstructure:"tag_properties"`
	NameProperties    []string `yaml:"name_properties" mapstructure:"name_properties"`
	UnknownName       string   `yaml:"unknown_name" mapstructure:"unknown_name"`
	AggregationTypes  []string `yaml:"aggregation_types" mapstructure:"aggregation_types"`
	Depth             int      `yaml:"depth" mapstructure:"depth"` // aggregation levels below the anchor
	IncludePlacements bool     `yaml:"include_placements" mapstructure:"include_placements"`
	PlacementTypes    []string `yaml:"placement_types" mapstructure:"placement_types"`
}

// DispatchConfig controls the concurrent extraction run.
type DispatchConfig struct {
	Concurrency         int     `yaml:"concurrency" mapstructure:"concurrency"` // 0 = derive from chunk count
	ChunkTimeoutSeconds float64 `yaml:"chunk_timeout_seconds" mapstructure:"chunk_timeout_seconds"`
}

// LLMConfig configures the OpenAI-compatible extraction backend.
type LLMConfig struct {
	Host             string  `yaml:"host" mapstructure:"host"`
	Model            string  `yaml:"model" mapstructure:"model"`
	Token            string  `yaml:"token" mapstructure:"token"`
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	SchemaFile       string  `yaml:"schema_file" mapstructure:"schema_file"`
	SystemPromptFile string  `yaml:"system_prompt_file" mapstructure:"system_prompt_file"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Listen  string `yaml:"listen" mapstructure:"listen"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			AssemblyType:     "IFCELEMENTASSEMBLY",
			AcceptedTags:     []string{"PIPE", "BRANCH"},
			TagProperties:    []string{"E3DType"},
			NameProperties:   []string{"NAME", "Name"},
			UnknownName:      "Unknown",
			AggregationTypes: []string{"IFCRELAGGREGATES"},
			Depth:            1,
			PlacementTypes: []string{
				"IFCLOCALPLACEMENT",
				"IFCAXIS2PLACEMENT3D",
				"IFCCARTESIANPOINT",
				"IFCDIRECTION",
			},
		},
		Dispatch: DispatchConfig{
			Concurrency:         0,
			ChunkTimeoutSeconds: 300,
		},
		LLM: LLMConfig{
			Host:        "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Token:       "${OPENAI_API_KEY}",
			Temperature: 0.05,
			MaxAttempts: 3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, concurrency int, tags []string, includePlacements bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if concurrency > 0 {
		c.Dispatch.Concurrency = concurrency
	}
	if len(tags) > 0 {
		c.Chunking.AcceptedTags = tags
	}
	if includePlacements {
		c.Chunking.IncludePlacements = true
	}
}
