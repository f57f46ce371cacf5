package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaBackend implements Backend using a local Ollama server. Free text
// and structured output go through /api/generate; tool calling uses
// /api/chat.
type OllamaBackend struct {
	endpoint string
	model    string
	client   *http.Client
}

// OllamaOption configures the OllamaBackend.
type OllamaOption func(*OllamaBackend)

// WithOllamaHTTPClient overrides the default HTTP client.
func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(b *OllamaBackend) {
		b.client = c
	}
}

// NewOllamaBackend creates a new Ollama LLM backend.
func NewOllamaBackend(endpoint, model string, opts ...OllamaOption) *OllamaBackend {
	b := &OllamaBackend{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend name.
func (*OllamaBackend) Name() string {
	return "ollama"
}

type ollamaGenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Format  json.RawMessage `json:"format,omitempty"`
	Stream  bool            `json:"stream"`
	Options *ollamaOptions  `json:"options,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaTool struct {
	Type     string         `json:"type"`
	Function ollamaFunction `json:"function"`
}

type ollamaFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Generate calls the Ollama API.
func (b *OllamaBackend) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	opts := &ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	if req.Temperature <= 0 && req.MaxTokens <= 0 {
		opts = nil
	}

	if req.Schema != nil && req.Mode == ModeToolCalling {
		return b.chatWithTool(ctx, req, opts)
	}

	genReq := ollamaGenerateRequest{
		Model:   b.model,
		Prompt:  req.Prompt,
		System:  req.SystemMsg,
		Options: opts,
	}
	if req.Schema != nil {
		params, err := req.Schema.MarshalParameters()
		if err != nil {
			return GenerateResponse{}, fmt.Errorf("marshaling schema: %w", err)
		}
		genReq.Format = params
	}

	var resp ollamaGenerateResponse
	if err := b.post(ctx, "/api/generate", genReq, &resp); err != nil {
		return GenerateResponse{}, err
	}

	return GenerateResponse{
		Content: resp.Response,
		Model:   resp.Model,
		Usage:   usage(resp.PromptEvalCount, resp.EvalCount),
	}, nil
}

func (b *OllamaBackend) chatWithTool(ctx context.Context, req GenerateRequest, opts *ollamaOptions) (GenerateResponse, error) {
	params, err := req.Schema.MarshalParameters()
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("marshaling schema: %w", err)
	}

	messages := []ollamaMessage{{Role: "user", Content: req.Prompt}}
	if req.SystemMsg != "" {
		messages = append([]ollamaMessage{{Role: "system", Content: req.SystemMsg}}, messages...)
	}

	chatReq := ollamaChatRequest{
		Model:    b.model,
		Messages: messages,
		Tools: []ollamaTool{{
			Type: "function",
			Function: ollamaFunction{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Parameters:  params,
			},
		}},
		Options: opts,
	}

	var resp ollamaChatResponse
	if err := b.post(ctx, "/api/chat", chatReq, &resp); err != nil {
		return GenerateResponse{}, err
	}

	if len(resp.Message.ToolCalls) == 0 {
		return GenerateResponse{}, contractErr(b.Name(), resp.Message.Content, ErrNoToolCall)
	}

	return GenerateResponse{
		Content: string(resp.Message.ToolCalls[0].Function.Arguments),
		Model:   resp.Model,
		Usage:   usage(resp.PromptEvalCount, resp.EvalCount),
	}, nil
}

func (b *OllamaBackend) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing ollama response: %w", err)
	}
	return nil
}

func usage(prompt, completion int) TokenUsage {
	return TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
