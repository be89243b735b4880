package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Executable wire formats.
const (
	// FormatJSON sends the GenerateRequest as JSON on stdin and expects a
	// GenerateResponse as JSON on stdout. The subcommand "generate" is appended
	// to the configured args, and "health" is used for health checks.
	FormatJSON = "json"

	// FormatText pipes the prompt to stdin and takes stdout as the content.
	FormatText = "text"
)

// ExecutableProvider wraps any executable that reads a prompt on stdin.
// Any program can be a provider.
type ExecutableProvider struct {
	path         string
	args         []string
	format       string
	info         *ProviderInfo
	capabilities *ProviderCapabilities
}

// NewExecutableProvider creates a new executable-based provider
func NewExecutableProvider(config *ProviderConfig) (*ExecutableProvider, error) {
	path := stringOption(config.Config, "path", "")
	if path == "" {
		return nil, fmt.Errorf("executable path required for CLI provider %s", config.Name)
	}
	if _, err := exec.LookPath(path); err != nil {
		return nil, fmt.Errorf("executable not found: %s: %w", path, err)
	}

	format := stringOption(config.Config, "format", FormatJSON)
	if format != FormatJSON && format != FormatText {
		return nil, fmt.Errorf("unknown executable format %q (want %s or %s)", format, FormatJSON, FormatText)
	}

	return &ExecutableProvider{
		path:   path,
		args:   stringsOption(config.Config, "args"),
		format: format,
		info: &ProviderInfo{
			Name:        config.Name,
			Type:        ProviderTypeCLI,
			Model:       stringOption(config.Config, "model", ""),
			Description: fmt.Sprintf("Executable provider: %s", path),
		},
		capabilities: &ProviderCapabilities{
			SupportsStructuredOutput: false,
			SupportsSystemPrompt:     format == FormatJSON,
			MaxContextTokens:         intOption(config.Config, "max_context_tokens", 4096),
		},
	}, nil
}

// Generate sends a prompt to the executable and returns the response
func (e *ExecutableProvider) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	startTime := time.Now()

	args := append([]string{}, e.args...)
	var stdin []byte
	if e.format == FormatJSON {
		requestJSON, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		stdin = requestJSON
		args = append(args, "generate")
	} else {
		stdin = []byte(req.Prompt)
	}

	output, err := e.run(ctx, stdin, args)
	if err != nil {
		return nil, err
	}

	resp := &GenerateResponse{Content: string(output)}
	if e.format == FormatJSON {
		resp = &GenerateResponse{}
		if err := json.Unmarshal(output, resp); err != nil {
			return nil, fmt.Errorf("failed to parse provider response: %w", err)
		}
	}

	resp.Latency = time.Since(startTime)
	if resp.Provider == "" {
		resp.Provider = e.info.Name
	}
	if resp.Model == "" {
		resp.Model = e.info.Model
	}

	return resp, nil
}

func (e *ExecutableProvider) run(ctx context.Context, stdin []byte, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, e.path, args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("provider failed (exit %d): %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("failed to execute provider: %w", err)
	}

	return stdout.Bytes(), nil
}

// GetCapabilities returns what this provider supports
func (e *ExecutableProvider) GetCapabilities() *ProviderCapabilities {
	return e.capabilities
}

// GetInfo returns provider metadata
func (e *ExecutableProvider) GetInfo() *ProviderInfo {
	return e.info
}

// IsAvailable checks if the executable exists and is accessible
func (e *ExecutableProvider) IsAvailable() bool {
	_, err := exec.LookPath(e.path)
	return err == nil
}

// Health runs the "health" subcommand for JSON executables.
// Text executables are healthy when they can be found.
func (e *ExecutableProvider) Health(ctx context.Context) error {
	if e.format == FormatText {
		if !e.IsAvailable() {
			return fmt.Errorf("health check failed: executable %s not found", e.path)
		}
		return nil
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	args := append(append([]string{}, e.args...), "health")
	if _, err := e.run(healthCtx, nil, args); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Close is a no-op; each call starts a fresh process
func (e *ExecutableProvider) Close() error {
	return nil
}
