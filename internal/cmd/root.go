package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = NewRootCommand()

// NewRootCommand builds the command tree. Every call returns a fresh tree
// with its own flag state.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "brief-to-plan",
		Short: "Turn a project brief into a technical implementation plan",
		Long: `brief-to-plan expands a short product brief into a technical implementation
plan. A language model runs five stages: it extends the brief, writes user
stories, designs the architecture, and plans backend and frontend tasks in
parallel. The result is saved as Markdown plus a JSON or YAML state document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ./brief-to-plan.yaml, then the user config dir)")
	flags.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")

	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newSchemaCmd(),
		newProvidersCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context canceled on interrupt
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
