package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIProvider talks to the chat completions API. Structured requests are
// sent with a json_schema response format.
type OpenAIProvider struct {
	api       jsonAPI
	apiKey    string
	config    *ProviderConfig
	model     string
	maxTokens int
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    *float64              `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason,omitempty"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewOpenAIProvider(config *ProviderConfig) (*OpenAIProvider, error) {
	apiKey, err := requireAPIKey(config)
	if err != nil {
		return nil, err
	}

	api := newJSONAPI("openai", config, "https://api.openai.com/v1", func(h http.Header) {
		h.Set("Authorization", "Bearer "+apiKey)
	})
	api.errorMessage = func(body []byte) string {
		var e openAIErrorBody
		if json.Unmarshal(body, &e) != nil || e.Error == nil {
			return ""
		}
		return e.Error.Message
	}

	return &OpenAIProvider{
		api:       api,
		apiKey:    apiKey,
		config:    config,
		model:     stringOption(config.Config, "model", "gpt-4o"),
		maxTokens: intOption(config.Config, "max_tokens", 0),
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	started := time.Now()

	var out openAIResponse
	if err := p.api.post(ctx, "/chat/completions", p.buildRequest(req), &out); err != nil {
		return nil, err
	}

	resp := &GenerateResponse{
		TokensUsed:   out.Usage.TotalTokens,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
		Model:        out.Model,
		Latency:      time.Since(started),
		Provider:     p.config.Name,
	}
	if len(out.Choices) > 0 {
		resp.Content = out.Choices[0].Message.Content
		resp.FinishReason = out.Choices[0].FinishReason
	}
	return resp, nil
}

func (p *OpenAIProvider) buildRequest(req *GenerateRequest) *openAIRequest {
	out := &openAIRequest{
		Model:       firstNonEmpty(req.Model, p.model),
		Temperature: req.Temperature,
		MaxTokens:   p.maxTokens,
	}
	if req.MaxTokens > 0 {
		out.MaxTokens = req.MaxTokens
	}

	if req.SystemPrompt != "" {
		out.Messages = append(out.Messages, openAIMessage{Role: "system", Content: req.SystemPrompt})
	}
	out.Messages = append(out.Messages, openAIMessage{Role: "user", Content: req.Prompt})

	if s := req.ResponseSchema; s != nil {
		out.ResponseFormat = &openAIResponseFormat{
			Type:       "json_schema",
			JSONSchema: &openAIJSONSchema{Name: s.Name, Schema: s.Document},
		}
	}
	return out
}

func (p *OpenAIProvider) GetCapabilities() *ProviderCapabilities {
	return &ProviderCapabilities{
		SupportsStructuredOutput: true,
		SupportsSystemPrompt:     true,
		MaxContextTokens:         intOption(p.config.Config, "max_context_tokens", 128000),
	}
}

func (p *OpenAIProvider) GetInfo() *ProviderInfo {
	return &ProviderInfo{
		Name:        p.config.Name,
		Type:        ProviderTypeAPI,
		Model:       p.model,
		Description: fmt.Sprintf("OpenAI chat completions at %s", p.api.baseURL),
	}
}

func (p *OpenAIProvider) IsAvailable() bool { return p.apiKey != "" }

// Health lists models.
func (p *OpenAIProvider) Health(ctx context.Context) error {
	return p.api.ping(ctx, "/models")
}

func (p *OpenAIProvider) Close() error { return nil }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
