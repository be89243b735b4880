package log

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format int

const (
	FormatJSON Format = iota
	// FormatText is slog's key=value rendering
	FormatText
)

func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ParseFormat parses a format name. "console" is accepted as an alias of text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "text", "console":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (want json or text)", s)
	}
}

// Output is the log destination. The zero value writes to stderr.
type Output struct {
	writer io.Writer
}

func (o Output) Writer() io.Writer {
	if o.writer == nil {
		return os.Stderr
	}
	return o.writer
}

func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

type Config struct {
	Level  Level
	Format Format
	// Output defaults to stderr; stdout carries the plan summary.
	Output    Output
	AddSource bool

	// ServiceName and ServiceVersion are attached to every entry when
	// ServiceName is set.
	ServiceName    string
	ServiceVersion string
}

// DefaultConfig logs at INFO level in JSON to stderr.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatJSON,
		Output:         NewOutput(os.Stderr),
		ServiceName:    "brief-to-plan",
		ServiceVersion: "dev",
	}
}
