// Package llm provides the language-model collaborator used by the search
// pipeline: provider backends behind a single interface, plus the typed
// calls each pipeline stage makes.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Mode selects how structured output is requested from a backend.
type Mode string

// Mode constants.
const (
	// ModeStructured asks the provider for a JSON document matching a schema.
	ModeStructured Mode = "structured"
	// ModeToolCalling asks the provider to call a single function whose
	// parameters are the schema.
	ModeToolCalling Mode = "tool_calling"
)

// ParseMode converts a config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStructured, "":
		return ModeStructured, nil
	case ModeToolCalling:
		return ModeToolCalling, nil
	default:
		return "", fmt.Errorf("unknown llm mode %q", s)
	}
}

// Schema describes the structured output expected from a call.
type Schema struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object.
	Parameters map[string]any
}

// MarshalParameters returns the schema parameters as JSON.
func (s *Schema) MarshalParameters() (json.RawMessage, error) {
	return json.Marshal(s.Parameters)
}

// GenerateRequest defines the input for an LLM generation call.
type GenerateRequest struct {
	Prompt    string
	SystemMsg string
	// Schema requests structured output. Nil means free text.
	Schema      *Schema
	Mode        Mode
	Temperature float64
	MaxTokens   int
}

// TokenUsage tracks LLM token consumption.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerateResponse holds the result of an LLM generation call. For
// structured requests Content holds the JSON document or tool arguments.
type GenerateResponse struct {
	Content string
	Model   string
	Usage   TokenUsage
}

// Backend defines the interface for LLM text generation.
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}
