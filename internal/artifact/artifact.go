// Package artifact persists the outputs of a run: the Markdown plan and a
// machine-readable state document next to it.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/pipeline"
	"github.com/Njuelle/brief-to-plan/internal/report"
)

// DocumentVersion is written into every state document.
const DocumentVersion = "1.0"

// Format selects the encoding of the state document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	// FormatNone skips the state document and only writes the Markdown plan.
	FormatNone Format = "none"
)

// ParseFormat accepts json, yaml (or yml) and none.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "none":
		return FormatNone, nil
	default:
		return "", fmt.Errorf("unknown state format %q (supported: json, yaml, none)", s)
	}
}

// Document is the saved form of a final state.
type Document struct {
	Version     string    `json:"version" yaml:"version"`
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`

	pipeline.State `yaml:",inline"`
}

// Paths lists the files written by Save.
type Paths struct {
	Markdown string
	// State is empty when the format is FormatNone.
	State string
}

// Store writes run artifacts under a directory
type Store struct {
	dir    string
	format Format
}

// NewStore creates a store rooted at dir
func NewStore(dir string, format Format) *Store {
	if format == "" {
		format = FormatJSON
	}
	return &Store{dir: dir, format: format}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Timestamp renders t the way plan files are named: an ISO-8601 UTC
// instant with ':' and '.' replaced by '-'.
func Timestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%03dZ", t.Format("2006-01-02T15-04-05"), t.Nanosecond()/int(time.Millisecond))
}

// Save writes plan-<timestamp>.md and, unless disabled, plan-<timestamp>.<format>.
func (s *Store) Save(state pipeline.State, generatedAt time.Time) (Paths, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Paths{}, errors.NewFileWriteError(s.dir, err)
	}

	base := filepath.Join(s.dir, "plan-"+Timestamp(generatedAt))
	paths := Paths{Markdown: base + ".md"}

	if err := writeFile(paths.Markdown, []byte(report.Markdown(state, generatedAt))); err != nil {
		return Paths{}, err
	}

	if s.format == FormatNone {
		return paths, nil
	}

	doc := Document{
		Version:     DocumentVersion,
		GeneratedAt: generatedAt.UTC(),
		Fingerprint: report.Fingerprint(state),
		State:       state,
	}
	data, err := Encode(doc, s.format)
	if err != nil {
		return Paths{}, err
	}

	paths.State = base + "." + string(s.format)
	if err := writeFile(paths.State, data); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

// Encode marshals doc in the given format.
func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode state document: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode state document: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode state document: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("cannot encode state document as %q", format)
	}
}

// Load reads a state document; the format follows the file extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileReadError(path, err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, errors.NewMalformedJSONError("state document", err)
	}
	return &doc, nil
}

// List returns the Markdown plans in the store, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.NewFileReadError(s.dir, err)
	}

	plans := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, "plan-") && filepath.Ext(name) == ".md" {
			plans = append(plans, filepath.Join(s.dir, name))
		}
	}
	sort.Strings(plans)
	return plans, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewFileWriteError(path, err)
	}
	return nil
}
