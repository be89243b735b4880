// Package schema declares the user-story and plan schemas, decodes
// generated content into them and enforces their structural bounds.
package schema

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/Njuelle/brief-to-plan/internal/errors"
)

// Schema couples a Go type with its defaults, its validator and the
// JSON Schema document sent to model backends.
type Schema[T any] struct {
	name     string
	document func() *openapi3.Schema
	defaults func(*T)
	validate func(*T) error

	once sync.Once
	raw  json.RawMessage
	err  error
}

// Descriptor is the type-erased view of a schema handed to generators.
type Descriptor struct {
	Name     string
	Document json.RawMessage
}

// UserStories is the schema of the user-story collection.
var UserStories = &Schema[UserStoryCollection]{
	name:     "user_story_collection",
	document: userStoriesDocument,
	defaults: (*UserStoryCollection).applyDefaults,
	validate: (*UserStoryCollection).Validate,
}

// Plans is the schema of an implementation plan.
var Plans = &Schema[Plan]{
	name:     "implementation_plan",
	document: planDocument,
	defaults: (*Plan).applyDefaults,
	validate: (*Plan).Validate,
}

// Name returns the schema identifier.
func (s *Schema[T]) Name() string { return s.name }

// Document builds a fresh JSON Schema document for the type.
func (s *Schema[T]) Document() *openapi3.Schema { return s.document() }

// Descriptor returns the schema name and its JSON document, rendered once.
func (s *Schema[T]) Descriptor() (Descriptor, error) {
	s.once.Do(func() {
		s.raw, s.err = json.Marshal(s.document())
	})
	if s.err != nil {
		return Descriptor{}, fmt.Errorf("render %s schema: %w", s.name, s.err)
	}
	return Descriptor{Name: s.name, Document: s.raw}, nil
}

// Validate applies defaults to v and checks it.
// Failures are VALID-001 errors wrapping a *Violation.
func (s *Schema[T]) Validate(v *T) error {
	s.defaults(v)
	if err := s.validate(v); err != nil {
		return errors.NewSchemaViolationError(s.name, err)
	}
	return nil
}

// Parse decodes JSON, applies defaults and validates. Unknown fields are
// ignored, and field names match exactly: "EPICS" is not "epics".
func (s *Schema[T]) Parse(data []byte) (T, error) {
	var v T

	var generic any
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimSpace(data)))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return v, errors.NewMalformedJSONError(s.name, err)
	}
	if dec.More() {
		return v, errors.NewMalformedJSONError(s.name, stderrors.New("trailing data after the JSON value"))
	}
	exact, err := json.Marshal(exactKeys(generic, reflect.TypeFor[T]()))
	if err != nil {
		return v, errors.NewMalformedJSONError(s.name, err)
	}

	if err := json.Unmarshal(exact, &v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "(root)"
			}
			return v, errors.NewSchemaViolationError(s.name, &Violation{
				Field:      field,
				Constraint: fmt.Sprintf("must be %s, got JSON %s", jsonKind(typeErr.Type), typeErr.Value),
			})
		}
		return v, errors.NewMalformedJSONError(s.name, err)
	}

	if err := s.Validate(&v); err != nil {
		return v, err
	}
	return v, nil
}

// ParseYAML decodes a YAML document through its JSON equivalent and validates it.
func (s *Schema[T]) ParseYAML(data []byte) (T, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		var zero T
		return zero, errors.NewMalformedJSONError(s.name, fmt.Errorf("yaml: %w", err))
	}
	encoded, err := json.Marshal(generic)
	if err != nil {
		var zero T
		return zero, errors.NewMalformedJSONError(s.name, err)
	}
	return s.Parse(encoded)
}

// exactKeys drops object keys that match a field of t only when case is
// ignored, so encoding/json treats them like any other unknown field.
func exactKeys(v any, t reflect.Type) any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch x := v.(type) {
	case map[string]any:
		if t.Kind() != reflect.Struct {
			return x
		}
		fields := jsonFields(t)
		for key, val := range x {
			if ft, ok := fields[key]; ok {
				x[key] = exactKeys(val, ft)
				continue
			}
			for name := range fields {
				if strings.EqualFold(name, key) {
					delete(x, key)
					break
				}
			}
		}
	case []any:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return x
		}
		for i := range x {
			x[i] = exactKeys(x[i], t.Elem())
		}
	}
	return v
}

// jsonFields maps the JSON names of the exported fields of struct type t to
// their types.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		fields[name] = f.Type
	}
	return fields
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a number"
	}
}
