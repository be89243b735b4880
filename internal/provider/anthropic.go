package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

// AnthropicProvider talks to the Messages API. It has no schema-constrained
// output mode, so structured requests carry the schema in the prompt.
type AnthropicProvider struct {
	api       jsonAPI
	apiKey    string
	config    *ProviderConfig
	model     string
	maxTokens int
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func NewAnthropicProvider(config *ProviderConfig) (*AnthropicProvider, error) {
	apiKey, err := requireAPIKey(config)
	if err != nil {
		return nil, err
	}

	api := newJSONAPI("anthropic", config, "https://api.anthropic.com/v1", func(h http.Header) {
		h.Set("x-api-key", apiKey)
		h.Set("anthropic-version", anthropicVersion)
	})
	api.errorMessage = func(body []byte) string {
		var e struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &e) != nil || e.Error == nil {
			return ""
		}
		return e.Error.Message
	}

	return &AnthropicProvider{
		api:    api,
		apiKey: apiKey,
		config: config,
		model:  stringOption(config.Config, "model", "claude-sonnet-4-5"),
		// max_tokens is mandatory on this API
		maxTokens: intOption(config.Config, "max_tokens", 4096),
	}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	started := time.Now()

	in := &anthropicRequest{
		Model:       firstNonEmpty(req.Model, p.model),
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
		System:      req.SystemPrompt,
		MaxTokens:   p.maxTokens,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		in.MaxTokens = req.MaxTokens
	}

	var out anthropicResponse
	if err := p.api.post(ctx, "/messages", in, &out); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &GenerateResponse{
		Content:      text.String(),
		TokensUsed:   out.Usage.InputTokens + out.Usage.OutputTokens,
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
		Model:        out.Model,
		Latency:      time.Since(started),
		FinishReason: out.StopReason,
		Provider:     p.config.Name,
	}, nil
}

func (p *AnthropicProvider) GetCapabilities() *ProviderCapabilities {
	return &ProviderCapabilities{
		SupportsSystemPrompt: true,
		MaxContextTokens:     intOption(p.config.Config, "max_context_tokens", 200000),
	}
}

func (p *AnthropicProvider) GetInfo() *ProviderInfo {
	return &ProviderInfo{
		Name:        p.config.Name,
		Type:        ProviderTypeAPI,
		Model:       p.model,
		Description: fmt.Sprintf("Anthropic Messages API at %s", p.api.baseURL),
	}
}

func (p *AnthropicProvider) IsAvailable() bool { return p.apiKey != "" }

func (p *AnthropicProvider) Health(ctx context.Context) error {
	return p.api.ping(ctx, "/models")
}

func (p *AnthropicProvider) Close() error { return nil }
