package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Njuelle/brief-to-plan/internal/ux"
	"github.com/Njuelle/brief-to-plan/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		verbose bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			out := cmd.OutOrStdout()

			if asJSON {
				formatter, err := ux.NewFormatter(ux.FormatJSON, out)
				if err != nil {
					return err
				}
				return formatter.Format(info)
			}

			if verbose {
				fmt.Fprintln(out, banner())
				fmt.Fprintln(out, info.String())
				return nil
			}

			fmt.Fprintf(out, "%s %s\n", version.Name, info.Short())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output version information as JSON")
	return cmd
}

func banner() string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 4).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("[ %s ]\nBrief in, implementation plan out", version.Name))
}
