// Package generation is the boundary between pipeline stages and model
// backends: plain text generation and schema-constrained object generation.
package generation

import (
	"context"
	"encoding/json"

	"github.com/Njuelle/brief-to-plan/internal/schema"
)

// Request is a typed generation request.
type Request struct {
	Prompt string

	// Temperature overrides the service default when set.
	Temperature *float64

	// MaxTokens limits the response length. 0 leaves it to the backend.
	MaxTokens int
}

// Generator is what stages depend on.
type Generator interface {
	// GenerateText returns the raw generated text without post-processing.
	GenerateText(ctx context.Context, req Request) (string, error)

	// GenerateObject asks for JSON conforming to the described schema and
	// returns it undecoded.
	GenerateObject(ctx context.Context, req Request, desc schema.Descriptor) (json.RawMessage, error)
}

// GenerateStructured asks g for a value conforming to s, then decodes and
// validates it. Validation failures are returned as is; nothing is repaired.
func GenerateStructured[T any](ctx context.Context, g Generator, req Request, s *schema.Schema[T]) (T, error) {
	var zero T

	desc, err := s.Descriptor()
	if err != nil {
		return zero, err
	}

	raw, err := g.GenerateObject(ctx, req, desc)
	if err != nil {
		return zero, err
	}

	return s.Parse(raw)
}

// Temperature is a convenience for building requests.
func Temperature(t float64) *float64 { return &t }
