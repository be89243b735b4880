// Package repair recovers structured data from free-form model output.
//
// The JSON object span of the text is parsed and validated first. When
// that fails the text degrades to a flat list of its non-empty lines.
// Repair itself never fails.
package repair

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Njuelle/brief-to-plan/internal/schema"
)

// MaxItems caps the flat-list fallback.
const MaxItems = 60

var bullet = regexp.MustCompile(`^[-*]+\s+`)

// Result is the outcome of a repair attempt. Exactly one of Value or Items
// carries the data: Value on the structured branch, Items on the fallback.
type Result[T any] struct {
	Value *T
	Items []string

	// Cause is the parse or validation error that forced the fallback.
	Cause error
}

// Structured reports whether the structured branch succeeded.
func (r Result[T]) Structured() bool { return r.Value != nil }

// ExtractCandidate returns the span from the first '{' to the last '}'
// inclusive, or the whole text when no such span exists.
func ExtractCandidate(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return raw
	}
	return raw[start : end+1]
}

// FlatList splits raw into lines, strips bullet markers and surrounding
// whitespace, drops empty lines and keeps at most MaxItems.
func FlatList(raw string) []string {
	items := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		line = strings.TrimSpace(bullet.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		items = append(items, line)
		if len(items) == MaxItems {
			break
		}
	}
	return items
}

// Repair parses the JSON candidate of raw against s and falls back to
// FlatList on any failure.
func Repair[T any](raw string, s *schema.Schema[T]) Result[T] {
	value, err := s.Parse([]byte(ExtractCandidate(raw)))
	if err == nil {
		return Result[T]{Value: &value}
	}
	return Result[T]{Items: FlatList(raw), Cause: err}
}
