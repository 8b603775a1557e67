package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
// LLM settings are checked separately by ValidateLLM because only the
// extract command needs them.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateChunking()...)
	errors = append(errors, c.validateDispatch()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateLLM checks the settings required to call the extraction backend.
func (c *Config) ValidateLLM() error {
	var errors ValidationErrors

	if c.LLM.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.host",
			Message: "host is required",
		})
	}

	if c.LLM.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.model",
			Message: "model is required",
		})
	}

	if c.LLM.Token == "" || strings.HasPrefix(c.LLM.Token, "${") {
		errors = append(errors, ValidationError{
			Field:   "llm.token",
			Message: "token is required (set it directly or through an environment variable)",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.MaxAttempts <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_attempts",
			Message: "max_attempts must be positive",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateChunking() ValidationErrors {
	var errors ValidationErrors
	ch := c.Chunking

	if strings.TrimSpace(ch.AssemblyType) == "" {
		errors = append(errors, ValidationError{
			Field:   "chunking.assembly_type",
			Message: "assembly_type is required",
		})
	}

	if len(ch.AcceptedTags) == 0 {
		errors = append(errors, ValidationError{
			Field:   "chunking.accepted_tags",
			Message: "at least one accepted tag must be defined",
		})
	}

	if len(ch.TagProperties) == 0 {
		errors = append(errors, ValidationError{
			Field:   "chunking.tag_properties",
			Message: "at least one tag property must be defined",
		})
	}

	if len(ch.AggregationTypes) == 0 {
		errors = append(errors, ValidationError{
			Field:   "chunking.aggregation_types",
			Message: "at least one aggregation type must be defined",
		})
	}

	if strings.TrimSpace(ch.UnknownName) == "" {
		errors = append(errors, ValidationError{
			Field:   "chunking.unknown_name",
			Message: "unknown_name cannot be empty",
		})
	}

	if ch.Depth < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunking.depth",
			Message: "depth must be at least 1",
		})
	}

	if ch.IncludePlacements && len(ch.PlacementTypes) == 0 {
		errors = append(errors, ValidationError{
			Field:   "chunking.placement_types",
			Message: "placement_types is required when include_placements is enabled",
		})
	}

	return errors
}

func (c *Config) validateDispatch() ValidationErrors {
	var errors ValidationErrors

	if c.Dispatch.Concurrency < 0 {
		errors = append(errors, ValidationError{
			Field:   "dispatch.concurrency",
			Message: "concurrency cannot be negative (0 selects it from the chunk count)",
		})
	}

	if c.Dispatch.ChunkTimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "dispatch.chunk_timeout_seconds",
			Message: "chunk_timeout_seconds cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateMetrics() ValidationErrors {
	var errors ValidationErrors

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errors = append(errors, ValidationError{
			Field:   "metrics.listen",
			Message: "listen address is required when metrics are enabled",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
