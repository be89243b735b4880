package provider

import "context"

// ProviderClient is implemented by every model backend. Generate is a
// single blocking round trip; retries belong to the generation service.
type ProviderClient interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	GetCapabilities() *ProviderCapabilities
	GetInfo() *ProviderInfo
	// IsAvailable reports whether the provider has the credentials or
	// binaries it needs.
	IsAvailable() bool
	// Health performs a cheap authenticated call against the backend.
	Health(ctx context.Context) error
	Close() error
}

type ProviderCapabilities struct {
	// SupportsStructuredOutput is set when the backend can be constrained to
	// a JSON schema. Other backends receive the schema as prompt text.
	SupportsStructuredOutput bool
	SupportsSystemPrompt     bool
	MaxContextTokens         int
}

type ProviderInfo struct {
	Name        string
	Type        ProviderType
	Model       string
	Description string
}

// ProviderType is how a provider is reached.
type ProviderType string

const (
	ProviderTypeAPI ProviderType = "api"
	// ProviderTypeCLI runs an executable speaking JSON over stdin/stdout.
	ProviderTypeCLI ProviderType = "cli"
	// ProviderTypeScripted replays canned responses offline.
	ProviderTypeScripted ProviderType = "scripted"
)
