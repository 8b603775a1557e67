// Package llm implements extract.Extractor on top of an OpenAI-compatible
// chat completion API through langchaingo.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/dbsmedya/ifcchunk/internal/config"
	"github.com/dbsmedya/ifcchunk/internal/extract"
	"github.com/dbsmedya/ifcchunk/internal/logger"
)

// ErrEmptyResponse is returned when the model answers without choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// Extractor asks a chat model for the components of a chunk and decodes
// the JSON answer, re-asking when the answer cannot be decoded.
type Extractor struct {
	client       llms.Model
	systemPrompt string
	temperature  float64
	maxAttempts  int
	log          *logger.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSystemPrompt replaces extract.DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Extractor) {
		if strings.TrimSpace(prompt) != "" {
			e.systemPrompt = prompt
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(e *Extractor) { e.temperature = t }
}

// WithMaxAttempts sets how often a malformed answer is re-requested.
func WithMaxAttempts(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.log = log
		}
	}
}

// NewWithModel wraps an existing model.
func NewWithModel(client llms.Model, opts ...Option) *Extractor {
	e := &Extractor{
		client:       client,
		systemPrompt: extract.DefaultSystemPrompt,
		temperature:  0.05,
		maxAttempts:  3,
		log:          logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New creates an Extractor for the configured OpenAI-compatible endpoint.
func New(cfg *config.LLMConfig, log *logger.Logger) (*Extractor, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(cfg.Token),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var systemPrompt string
	if cfg.SystemPromptFile != "" {
		data, err := os.ReadFile(cfg.SystemPromptFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read system prompt file: %w", err)
		}
		systemPrompt = string(data)
	}

	return NewWithModel(client,
		WithSystemPrompt(systemPrompt),
		WithTemperature(cfg.Temperature),
		WithMaxAttempts(cfg.MaxAttempts),
		WithLogger(log),
	), nil
}

type response struct {
	Components []extract.Component `json:"components"`
}

// Extract implements extract.Extractor. Transport errors are returned
// immediately; undecodable answers are retried up to the attempt limit.
// Tokens are summed over all attempts.
func (e *Extractor) Extract(ctx context.Context, req extract.Request) (*extract.Result, error) {
	system := e.systemPrompt
	if len(req.Schema) > 0 {
		system += "\n\nThe JSON object must follow this JSON schema:\n" + string(req.Schema)
	}
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(e.temperature), llms.WithJSONMode()}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	tokens := 0
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		resp, err := e.client.GenerateContent(ctx, content, opts...)
		if err != nil {
			return nil, fmt.Errorf("generate content: %w", err)
		}
		if len(resp.Choices) < 1 {
			return nil, ErrEmptyResponse
		}

		choice := resp.Choices[0]
		tokens += totalTokens(choice.GenerationInfo)

		text := cleanResponse(choice.Content)
		var parsed response
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			lastErr = err
			e.log.Warnw("error parsing model response",
				"attempt", attempt,
				"response", truncate(text, 500),
				"error", err)
			continue
		}

		if parsed.Components == nil {
			parsed.Components = []extract.Component{}
		}
		return &extract.Result{Components: parsed.Components, Tokens: tokens}, nil
	}

	return nil, fmt.Errorf("failed to parse model response after %d attempts: %w", e.maxAttempts, lastErr)
}

// cleanResponse strips code fences and surrounding prose, then repairs
// malformed JSON such as unquoted keys and trailing commas. Text the
// repairer rejects is returned as is so the caller reports the parse error.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}
	if repaired, err := jsonrepair.Repair(s); err == nil {
		return repaired
	}
	return s
}

func totalTokens(info map[string]any) int {
	switch v := info["TotalTokens"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
