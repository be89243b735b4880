// Package tui holds the interactive terminal forms.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// MinBriefLength is the shortest brief the form accepts.
const MinBriefLength = 10

// BriefAnswers is what the brief form collects.
type BriefAnswers struct {
	Brief string
	Stack string
}

// PromptForBrief asks for the project brief and an optional technology stack.
// Values already set in defaults pre-fill the form. Aborting the form returns
// context.Canceled.
func PromptForBrief(defaults BriefAnswers) (BriefAnswers, error) {
	answers := defaults

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Project brief").
				Description("Describe the product to plan: who it is for and what it must do.").
				Placeholder("Build a personal expense tracker").
				CharLimit(4000).
				Validate(ValidateBrief).
				Value(&answers.Brief),
			huh.NewInput().
				Title("Technology stack (optional)").
				Description("Mandatory choices the architecture must use.").
				Placeholder("Go, PostgreSQL, React").
				Value(&answers.Stack),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return defaults, context.Canceled
		}
		return defaults, fmt.Errorf("prompt failed: %w", err)
	}

	answers.Brief = strings.TrimSpace(answers.Brief)
	answers.Stack = strings.TrimSpace(answers.Stack)
	return answers, nil
}

// ValidateBrief rejects briefs too short to plan from.
func ValidateBrief(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("a brief is required")
	}
	if len([]rune(s)) < MinBriefLength {
		return fmt.Errorf("brief must be at least %d characters", MinBriefLength)
	}
	return nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	return isCharDevice(os.Stdin)
}

// IsTerminal reports whether w writes to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isCharDevice(f)
}

func isCharDevice(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
