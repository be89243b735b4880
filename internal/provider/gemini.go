package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements the ProviderClient interface on the Google Gen AI SDK
type GeminiProvider struct {
	client    *genai.Client
	config    *ProviderConfig
	model     string
	maxTokens int
	hasKey    bool
}

// NewGeminiProvider creates a Gemini Developer API client.
// The key comes from the config or, failing that, GEMINI_API_KEY / GOOGLE_API_KEY.
func NewGeminiProvider(ctx context.Context, config *ProviderConfig) (*GeminiProvider, error) {
	apiKey := stringOption(config.Config, "api_key", "")

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL := stringOption(config.Config, "base_url", ""); baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiProvider{
		client:    client,
		config:    config,
		model:     stringOption(config.Config, "model", "gemini-2.5-flash"),
		maxTokens: intOption(config.Config, "max_tokens", 0),
		hasKey:    apiKey != "",
	}, nil
}

// Generate implements ProviderClient.Generate
func (p *GeminiProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	startTime := time.Now()

	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	resp, err := p.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		p.buildConfig(req),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	out := &GenerateResponse{
		Model:    model,
		Latency:  time.Since(startTime),
		Provider: p.config.Name,
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var text strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
		out.Content = text.String()
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}

	if usage := resp.UsageMetadata; usage != nil {
		out.InputTokens = int(usage.PromptTokenCount)
		out.OutputTokens = int(usage.CandidatesTokenCount)
		out.TokensUsed = int(usage.TotalTokenCount)
	}

	return out, nil
}

func (p *GeminiProvider) buildConfig(req *GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
	}

	return cfg
}

// GetCapabilities implements ProviderClient.GetCapabilities
func (p *GeminiProvider) GetCapabilities() *ProviderCapabilities {
	return &ProviderCapabilities{
		SupportsStructuredOutput: true,
		SupportsSystemPrompt:     true,
		MaxContextTokens:         intOption(p.config.Config, "max_context_tokens", 1000000),
	}
}

// GetInfo implements ProviderClient.GetInfo
func (p *GeminiProvider) GetInfo() *ProviderInfo {
	return &ProviderInfo{
		Name:        p.config.Name,
		Type:        ProviderTypeAPI,
		Model:       p.model,
		Description: "Google Gemini via the Gen AI SDK",
	}
}

// IsAvailable reports whether a key was configured explicitly.
// The SDK may still find one in the environment.
func (p *GeminiProvider) IsAvailable() bool {
	return p.hasKey
}

// Health fetches the configured model's metadata
func (p *GeminiProvider) Health(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.model, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Close implements ProviderClient.Close
func (p *GeminiProvider) Close() error {
	return nil
}
