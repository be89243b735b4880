package provider

import (
	"encoding/json"
	"time"
)

// Metadata keys set by the generation service on every request.
const (
	MetadataStage         = "stage"
	MetadataCorrelationID = "correlation_id"
)

// GenerateRequest contains all parameters for generating a response
type GenerateRequest struct {
	// Prompt is the main input text for the model
	Prompt string `json:"prompt"`

	// SystemPrompt sets the system-level instructions
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens limits the response length. 0 uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness. nil uses the provider default.
	Temperature *float64 `json:"temperature,omitempty"`

	// Model overrides the provider's default model
	Model string `json:"model,omitempty"`

	// ResponseSchema asks for JSON output conforming to a schema document
	ResponseSchema *ResponseSchema `json:"response_schema,omitempty"`

	// Metadata for tracking and debugging
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ResponseSchema names a JSON Schema document the output must satisfy.
type ResponseSchema struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

// GenerateResponse contains the model's response
type GenerateResponse struct {
	// Content is the generated text
	Content string `json:"content"`

	// TokensUsed is the total tokens consumed (input + output)
	TokensUsed int `json:"tokens_used"`

	// InputTokens is tokens in the prompt
	InputTokens int `json:"input_tokens,omitempty"`

	// OutputTokens is tokens in the response
	OutputTokens int `json:"output_tokens,omitempty"`

	// Model is the actual model that generated the response
	Model string `json:"model"`

	// Latency is how long the generation took
	Latency time.Duration `json:"latency"`

	// FinishReason explains why generation stopped ("stop", "length", ...)
	FinishReason string `json:"finish_reason"`

	// Provider is the name of the provider that handled this request
	Provider string `json:"provider"`
}

// ProviderConfig describes one backend in brief-to-plan.yaml.
type ProviderConfig struct {
	// Name is the provider identifier: openai, anthropic, gemini, or any name for cli/scripted
	Name string `yaml:"name" json:"name" mapstructure:"name"`

	// Type is the provider implementation type
	Type ProviderType `yaml:"type" json:"type" mapstructure:"type"`

	// Enabled controls if this provider is active
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`

	// Config contains provider-specific options (api_key, base_url, model, max_tokens, path, args, responses_dir)
	Config map[string]any `yaml:"config" json:"config" mapstructure:"config"`
}
