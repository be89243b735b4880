package provider

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

//go:embed scripted/*.txt
var scriptedDefaults embed.FS

// ScriptedProvider replays canned responses keyed by the request's stage
// metadata. Responses come from <responses_dir>/<stage>.txt when a directory
// is configured, falling back to the built-in set.
type ScriptedProvider struct {
	name string
	dir  string

	mu    sync.Mutex
	calls map[string]int
}

// NewScriptedProvider creates a provider that never touches the network
func NewScriptedProvider(config *ProviderConfig) (*ScriptedProvider, error) {
	dir := stringOption(config.Config, "responses_dir", "")
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("responses_dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("responses_dir %s is not a directory", dir)
		}
	}

	return &ScriptedProvider{
		name:  config.Name,
		dir:   dir,
		calls: make(map[string]int),
	}, nil
}

// Generate returns the canned response for req.Metadata["stage"]
func (s *ScriptedProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stage := req.Metadata[MetadataStage]
	if stage == "" {
		return nil, fmt.Errorf("scripted provider needs the %q metadata key", MetadataStage)
	}

	content, err := s.response(stage)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.calls[stage]++
	s.mu.Unlock()

	return &GenerateResponse{
		Content:      content,
		OutputTokens: len(content) / 4,
		TokensUsed:   len(content) / 4,
		Model:        "scripted",
		Latency:      time.Millisecond,
		FinishReason: "stop",
		Provider:     s.name,
	}, nil
}

func (s *ScriptedProvider) response(stage string) (string, error) {
	file := stage + ".txt"

	if s.dir != "" {
		data, err := os.ReadFile(filepath.Join(s.dir, file))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read scripted response: %w", err)
		}
	}

	data, err := scriptedDefaults.ReadFile("scripted/" + file)
	if err != nil {
		return "", fmt.Errorf("no scripted response for stage %s", stage)
	}
	return string(data), nil
}

// Calls reports how many times each stage was answered
func (s *ScriptedProvider) Calls() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int, len(s.calls))
	for k, v := range s.calls {
		out[k] = v
	}
	return out
}

func (s *ScriptedProvider) GetCapabilities() *ProviderCapabilities {
	return &ProviderCapabilities{
		SupportsStructuredOutput: true,
		SupportsSystemPrompt:     true,
		MaxContextTokens:         128000,
	}
}

func (s *ScriptedProvider) GetInfo() *ProviderInfo {
	desc := "Scripted responses (built-in)"
	if s.dir != "" {
		desc = fmt.Sprintf("Scripted responses from %s", s.dir)
	}
	return &ProviderInfo{
		Name:        s.name,
		Type:        ProviderTypeScripted,
		Model:       "scripted",
		Description: desc,
	}
}

func (s *ScriptedProvider) IsAvailable() bool { return true }

func (s *ScriptedProvider) Health(ctx context.Context) error { return ctx.Err() }

func (s *ScriptedProvider) Close() error { return nil }
