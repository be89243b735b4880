package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Generation errors (GEN-001 to GEN-099)
	ErrCodeGenerationFailed ErrorCode = "GEN-001"
	ErrCodeGenerationEmpty  ErrorCode = "GEN-002"

	// Validation errors (VALID-001 to VALID-099)
	ErrCodeSchemaViolation ErrorCode = "VALID-001"
	ErrCodeMalformedJSON   ErrorCode = "VALID-002"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeBriefMissing   ErrorCode = "CONFIG-001"
	ErrCodeProviderConfig ErrorCode = "CONFIG-002"
	ErrCodeConfigFile     ErrorCode = "CONFIG-003"

	// Stage contract errors (STAGE-001 to STAGE-099)
	ErrCodeUndeclaredWrite ErrorCode = "STAGE-001"
	ErrCodeInvalidGraph    ErrorCode = "STAGE-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileWriteFailed ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
)

// Kind groups error codes into the failure classes callers branch on.
type Kind string

const (
	KindGeneration    Kind = "generation"
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindStage         Kind = "stage"
	KindIO            Kind = "io"
	KindUnknown       Kind = "unknown"
)

// PlannerError represents an error with code, suggestions, and documentation
type PlannerError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *PlannerError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// Kind derives the failure class from the code prefix.
func (e *PlannerError) Kind() Kind {
	prefix, _, _ := strings.Cut(string(e.Code), "-")
	switch prefix {
	case "GEN":
		return KindGeneration
	case "VALID":
		return KindValidation
	case "CONFIG":
		return KindConfiguration
	case "STAGE":
		return KindStage
	case "IO":
		return KindIO
	default:
		return KindUnknown
	}
}

// New creates a new PlannerError
func New(code ErrorCode, message string) *PlannerError {
	return &PlannerError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new PlannerError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *PlannerError {
	return &PlannerError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *PlannerError) WithSuggestion(suggestion string) *PlannerError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *PlannerError) WithSuggestions(suggestions ...string) *PlannerError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *PlannerError) WithDocs(url string) *PlannerError {
	e.DocsURL = url
	return e
}

// As returns the first PlannerError in err's chain.
func As(err error) (*PlannerError, bool) {
	var pe *PlannerError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// KindOf reports the failure class of err, or KindUnknown.
func KindOf(err error) Kind {
	if pe, ok := As(err); ok {
		return pe.Kind()
	}
	return KindUnknown
}

// IsGenerationFailure reports whether the model backend failed to answer.
func IsGenerationFailure(err error) bool { return KindOf(err) == KindGeneration }

// IsValidationFailure reports whether generated content broke a schema.
func IsValidationFailure(err error) bool { return KindOf(err) == KindValidation }

// IsConfigurationFailure reports whether required configuration is missing.
func IsConfigurationFailure(err error) bool { return KindOf(err) == KindConfiguration }

// Common error constructors for frequently used errors

// NewGenerationError wraps a failed backend call
func NewGenerationError(provider string, cause error) *PlannerError {
	return Wrap(ErrCodeGenerationFailed, fmt.Sprintf("generation failed on provider %s", provider), cause).
		WithSuggestion("Check network connectivity and the provider status page").
		WithSuggestion("Run 'brief-to-plan providers check' to verify credentials")
}

// NewEmptyResponseError reports a backend answer with no content
func NewEmptyResponseError(provider string) *PlannerError {
	return New(ErrCodeGenerationEmpty, fmt.Sprintf("provider %s returned an empty response", provider)).
		WithSuggestion("Increase max tokens or try a different model")
}

// NewSchemaViolationError reports the first failed constraint of a schema
func NewSchemaViolationError(schema string, violation error) *PlannerError {
	return Wrap(ErrCodeSchemaViolation, fmt.Sprintf("%s failed validation", schema), violation)
}

// NewMalformedJSONError reports content that could not be decoded
func NewMalformedJSONError(schema string, cause error) *PlannerError {
	return Wrap(ErrCodeMalformedJSON, fmt.Sprintf("%s: content is not valid JSON", schema), cause)
}

// NewBriefMissingError reports an empty brief
func NewBriefMissingError() *PlannerError {
	return New(ErrCodeBriefMissing, "a project brief is required").
		WithSuggestion(`Pass it with --brief "Your project description"`).
		WithSuggestion("Use --interactive to type it in a form")
}

// NewProviderConfigError reports an unusable provider configuration
func NewProviderConfigError(provider, details string) *PlannerError {
	return New(ErrCodeProviderConfig, fmt.Sprintf("provider %s is misconfigured: %s", provider, details)).
		WithSuggestion(fmt.Sprintf("Set the %s_API_KEY environment variable or add it to .env", strings.ToUpper(provider))).
		WithSuggestion("Check the provider section of brief-to-plan.yaml")
}

// NewConfigFileError reports a configuration file that could not be loaded
func NewConfigFileError(path string, cause error) *PlannerError {
	return Wrap(ErrCodeConfigFile, fmt.Sprintf("failed to load configuration file: %s", path), cause).
		WithSuggestion("Check the file syntax")
}

// NewUndeclaredWriteError reports a stage diff touching a field it did not declare
func NewUndeclaredWriteError(stage, field string) *PlannerError {
	return New(ErrCodeUndeclaredWrite, fmt.Sprintf("stage %s wrote undeclared field %s", stage, field))
}

// NewInvalidGraphError reports an unusable stage list
func NewInvalidGraphError(details string) *PlannerError {
	return New(ErrCodeInvalidGraph, fmt.Sprintf("invalid stage graph: %s", details))
}

// NewFileWriteError creates a file write error
func NewFileWriteError(path string, cause error) *PlannerError {
	return Wrap(ErrCodeFileWriteFailed, fmt.Sprintf("failed to write file: %s", path), cause).
		WithSuggestion("Check that the output directory is writable")
}

// NewFileReadError creates a file read error
func NewFileReadError(path string, cause error) *PlannerError {
	return Wrap(ErrCodeFileReadFailed, fmt.Sprintf("failed to read file: %s", path), cause).
		WithSuggestion("Check if the file path is correct")
}
