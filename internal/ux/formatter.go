// Package ux renders command results for people and scripts.
package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by NewFormatter.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the output formats for flag help.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes the given data to the output writer
	Format(data any) error
}

// NewFormatter creates a formatter based on the format string.
// A nil writer means os.Stdout.
func NewFormatter(format string, w io.Writer) (Formatter, error) {
	if w == nil {
		w = os.Stdout
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return &JSONFormatter{w: w}, nil
	case FormatYAML, "yml":
		return &YAMLFormatter{w: w}, nil
	case FormatText, "":
		return &TextFormatter{w: w}, nil
	default:
		return nil, fmt.Errorf("invalid argument %q for output format (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// JSONFormatter formats output as indented JSON
type JSONFormatter struct {
	w io.Writer
}

// Format writes data as JSON
func (f *JSONFormatter) Format(data any) error {
	encoder := json.NewEncoder(f.w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	w io.Writer
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data any) error {
	encoder := yaml.NewEncoder(f.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// TextFormatter writes strings and fmt.Stringers as lines. Anything else is
// rendered as YAML, which reads well enough in a terminal.
type TextFormatter struct {
	w io.Writer
}

// Format writes data as text
func (f *TextFormatter) Format(data any) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(f.w, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.w, v.String())
		return err
	default:
		return (&YAMLFormatter{w: f.w}).Format(data)
	}
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*YAMLFormatter)(nil)
	_ Formatter = (*TextFormatter)(nil)
)
