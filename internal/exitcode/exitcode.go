// Package exitcode maps command errors to process exit codes.
package exitcode

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/Njuelle/brief-to-plan/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition, including stage contract violations
	GeneralError = 1

	// UsageError indicates invalid command usage or configuration (bad flags, missing brief, provider setup)
	UsageError = 2

	// ValidationError indicates generated or supplied content failed its schema
	ValidationError = 3

	// GenerationError indicates the model provider failed or returned nothing
	GenerationError = 4

	// OutputError indicates the plan or state could not be written or read
	OutputError = 5

	// Interrupted indicates the run was canceled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode classifies err by its coded kind, falling back to the
// messages cobra uses for usage mistakes.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.KindOf(err) {
	case errors.KindConfiguration:
		return UsageError
	case errors.KindValidation:
		return ValidationError
	case errors.KindGeneration:
		return GenerationError
	case errors.KindIO:
		return OutputError
	case errors.KindStage:
		return GeneralError
	}

	if stderrors.Is(err, context.Canceled) {
		return Interrupted
	}

	errMsg := strings.ToLower(err.Error())
	for _, usage := range []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"invalid argument",
		"required flag",
		"accepts ",
		"requires at least",
		"flag needs an argument",
	} {
		if strings.Contains(errMsg, usage) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage or configuration error"
	case ValidationError:
		return "Schema validation failed"
	case GenerationError:
		return "Model provider failed"
	case OutputError:
		return "Could not read or write output files"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
