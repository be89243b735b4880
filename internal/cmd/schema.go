package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Njuelle/brief-to-plan/internal/schema"
	"github.com/Njuelle/brief-to-plan/internal/ux"
)

func newSchemaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema <stories|plan>",
		Short: "Print the JSON Schema of a generated document",
		Long: `Print the JSON Schema sent to model backends for user stories or
implementation plans. Useful for preparing files for 'validate' or for
configuring an external cli provider.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), kindArg(kindStories, kindPlan)),
		ValidArgs: []string{kindStories, kindPlan},
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := ux.NewFormatter(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			doc, err := schemaDocument(args[0])
			if err != nil {
				return err
			}
			return formatter.Format(doc)
		},
	}

	cmd.Flags().StringVar(&output, "output", ux.FormatJSON, "output format: json or yaml")
	return cmd
}

// schemaDocument returns the schema as a generic value so that both
// encoders see the same field names.
func schemaDocument(kind string) (any, error) {
	var (
		desc schema.Descriptor
		err  error
	)
	switch kind {
	case kindStories:
		desc, err = schema.UserStories.Descriptor()
	case kindPlan:
		desc, err = schema.Plans.Descriptor()
	default:
		return nil, fmt.Errorf("invalid argument %q (accepts %s, %s)", kind, kindStories, kindPlan)
	}
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(desc.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode %s schema: %w", desc.Name, err)
	}
	doc["title"] = desc.Name
	return doc, nil
}
