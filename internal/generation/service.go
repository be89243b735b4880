package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/metrics"
	"github.com/Njuelle/brief-to-plan/internal/provider"
	"github.com/Njuelle/brief-to-plan/internal/schema"
	"github.com/Njuelle/brief-to-plan/internal/telemetry"
)

// DefaultTemperature applies to requests that do not set one.
const DefaultTemperature = 0.2

// Options configures a Service.
type Options struct {
	// Temperature is the default sampling temperature.
	Temperature float64

	// Model overrides the provider's default model when non-empty.
	Model string

	// SystemPrompt is sent with every request when the provider accepts one.
	SystemPrompt string

	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// DefaultOptions returns the options used by NewService when none are given.
func DefaultOptions() Options {
	return Options{Temperature: DefaultTemperature}
}

// Service implements Generator on top of a provider.ProviderClient.
type Service struct {
	client provider.ProviderClient
	opts   Options
	logger *log.Logger
}

// NewService wraps client.
func NewService(client provider.ProviderClient, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		client: client,
		opts:   opts,
		logger: logger.With("component", "generation"),
	}
}

var _ Generator = (*Service)(nil)

// GenerateText implements Generator.
func (s *Service) GenerateText(ctx context.Context, req Request) (string, error) {
	resp, err := s.generate(ctx, "text", s.request(ctx, req, req.Prompt))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// GenerateObject implements Generator. The schema document is appended to the
// prompt for every backend and also attached to the request for backends that
// can be constrained to it.
func (s *Service) GenerateObject(ctx context.Context, req Request, desc schema.Descriptor) (json.RawMessage, error) {
	preq := s.request(ctx, req, objectPrompt(req.Prompt, desc))
	if s.client.GetCapabilities().SupportsStructuredOutput {
		preq.ResponseSchema = &provider.ResponseSchema{Name: desc.Name, Document: desc.Document}
	}

	resp, err := s.generate(ctx, "object", preq)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(stripFence(resp.Content)), nil
}

func (s *Service) request(ctx context.Context, req Request, prompt string) *provider.GenerateRequest {
	temperature := s.opts.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	metadata := map[string]string{}
	if stage := log.StageFrom(ctx); stage != "" {
		metadata[provider.MetadataStage] = stage
	}
	if id := log.CorrelationIDFrom(ctx); id != "" {
		metadata[provider.MetadataCorrelationID] = id
	}

	out := &provider.GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
		Model:       s.opts.Model,
		Metadata:    metadata,
	}
	if s.opts.SystemPrompt != "" && s.client.GetCapabilities().SupportsSystemPrompt {
		out.SystemPrompt = s.opts.SystemPrompt
	}
	return out
}

func (s *Service) generate(ctx context.Context, mode string, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	info := s.client.GetInfo()
	logger := s.logger.WithContext(ctx)

	ctx, span := telemetry.StartProviderSpan(ctx, info.Name, "generate_"+mode)
	defer span.End()
	span.SetAttributes(
		attribute.Int("max_tokens", req.MaxTokens),
		attribute.Float64("temperature", *req.Temperature),
		attribute.Int("prompt_chars", len(req.Prompt)),
	)

	start := time.Now()
	resp, err := s.client.Generate(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		gerr := errors.NewGenerationError(info.Name, err)
		s.opts.Metrics.RecordGeneration(info.Name, mode, elapsed, 0, 0, false)
		s.opts.Metrics.RecordError(string(gerr.Code), "generation")
		telemetry.RecordError(span, gerr)
		logger.LogError("generation failed", gerr)
		return nil, gerr
	}

	s.opts.Metrics.RecordGeneration(info.Name, mode, elapsed, resp.InputTokens, resp.OutputTokens, true)

	if strings.TrimSpace(resp.Content) == "" {
		gerr := errors.NewEmptyResponseError(info.Name)
		s.opts.Metrics.RecordError(string(gerr.Code), "generation")
		telemetry.RecordError(span, gerr)
		logger.Warn("empty generation", "finish_reason", resp.FinishReason)
		return nil, gerr
	}

	telemetry.RecordSuccess(span,
		attribute.String("model", resp.Model),
		attribute.Int("tokens_used", resp.TokensUsed),
		attribute.String("finish_reason", resp.FinishReason),
	)
	logger.Debug("generation complete",
		"provider", info.Name,
		"mode", mode,
		"model", resp.Model,
		"tokens", resp.TokensUsed,
		"latency", elapsed,
	)

	return resp, nil
}

func objectPrompt(prompt string, desc schema.Descriptor) string {
	return fmt.Sprintf("%s\n\nRespond with a single JSON object named %q that conforms to this JSON Schema. Output only the JSON.\n%s",
		prompt, desc.Name, desc.Document)
}

// stripFence removes a surrounding Markdown code fence.
func stripFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return content
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
