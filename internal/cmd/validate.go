package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Njuelle/brief-to-plan/internal/artifact"
	perrors "github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/report"
	"github.com/Njuelle/brief-to-plan/internal/schema"
	"github.com/Njuelle/brief-to-plan/internal/ux"
)

// Document kinds accepted by validate.
const (
	kindStories = "stories"
	kindPlan    = "plan"
	kindState   = "state"
)

// ValidationResult describes a file that passed validation.
type ValidationResult struct {
	File    string `json:"file" yaml:"file"`
	Kind    string `json:"kind" yaml:"kind"`
	Valid   bool   `json:"valid" yaml:"valid"`
	Epics   int    `json:"epics" yaml:"epics"`
	Stories int    `json:"stories" yaml:"stories"`
	Tasks   int    `json:"tasks,omitempty" yaml:"tasks,omitempty"`
}

func (r ValidationResult) String() string {
	detail := fmt.Sprintf("%d epics, %d stories", r.Epics, r.Stories)
	if r.Kind != kindStories {
		detail += fmt.Sprintf(", %d tasks", r.Tasks)
	}
	return fmt.Sprintf("✓ %s is a valid %s document (%s)", r.File, r.Kind, detail)
}

func newValidateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "validate <stories|plan|state> <file>",
		Short: "Check a JSON or YAML file against a schema",
		Long: `Validate a user-story collection, an implementation plan, or a saved
state document. Files ending in .yaml or .yml are read as YAML, anything
else as JSON. State documents must also match their recorded fingerprint.

The first violated constraint is reported and the command exits with code 3.`,
		Example: `  brief-to-plan validate stories stories.json
  brief-to-plan validate plan backend.yaml
  brief-to-plan validate state output/plan-2025-03-04T10-30-15-123Z.json`,
		Args:      cobra.MatchAll(cobra.ExactArgs(2), kindArg(kindStories, kindPlan, kindState)),
		ValidArgs: []string{kindStories, kindPlan, kindState},
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := ux.NewFormatter(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			result, err := validateFile(args[0], args[1])
			if err != nil {
				return err
			}
			return formatter.Format(result)
		},
	}

	cmd.Flags().StringVar(&output, "output", ux.FormatText, "output format: "+strings.Join(ux.Formats, ", "))
	return cmd
}

// kindArg checks the first positional argument against the allowed kinds.
func kindArg(kinds ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) == 0 {
			return nil
		}
		for _, k := range kinds {
			if args[0] == k {
				return nil
			}
		}
		return fmt.Errorf("invalid argument %q (accepts %s)", args[0], strings.Join(kinds, ", "))
	}
}

func validateFile(kind, path string) (ValidationResult, error) {
	result := ValidationResult{File: path, Kind: kind, Valid: true}

	if kind == kindState {
		doc, err := artifact.Load(path)
		if err != nil {
			return result, err
		}
		return result, checkState(&result, doc)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return result, perrors.NewFileReadError(path, err)
	}
	yamlFile := isYAML(path)

	switch kind {
	case kindStories:
		parse := schema.UserStories.Parse
		if yamlFile {
			parse = schema.UserStories.ParseYAML
		}
		stories, err := parse(data)
		if err != nil {
			return result, err
		}
		result.Epics = len(stories.Epics)
		result.Stories = stories.StoryCount()

	case kindPlan:
		parse := schema.Plans.Parse
		if yamlFile {
			parse = schema.Plans.ParseYAML
		}
		plan, err := parse(data)
		if err != nil {
			return result, err
		}
		countPlan(&result, &plan)
	}
	return result, nil
}

// checkState verifies the fingerprint of a saved state, then validates its
// structured parts.
func checkState(result *ValidationResult, doc *artifact.Document) error {
	if doc.Fingerprint != "" {
		if got := report.Fingerprint(doc.State); got != doc.Fingerprint {
			return perrors.New(perrors.ErrCodeSchemaViolation,
				fmt.Sprintf("state fingerprint mismatch: recorded %s, content hashes to %s", doc.Fingerprint, got)).
				WithSuggestion("The file was edited after it was generated")
		}
	}

	if doc.UserStories != nil {
		if err := schema.UserStories.Validate(doc.UserStories); err != nil {
			return err
		}
		result.Epics += len(doc.UserStories.Epics)
		result.Stories += doc.UserStories.StoryCount()
	}
	for _, plan := range []*schema.Plan{doc.BackendPlan, doc.FrontendPlan} {
		if plan == nil {
			continue
		}
		if err := schema.Plans.Validate(plan); err != nil {
			return err
		}
	}
	result.Tasks = len(doc.BackendTasks) + len(doc.FrontendTasks)
	return nil
}

func countPlan(result *ValidationResult, plan *schema.Plan) {
	result.Epics += len(plan.Epics)
	for _, e := range plan.Epics {
		result.Stories += len(e.Stories)
	}
	result.Tasks += plan.TaskCount()
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
