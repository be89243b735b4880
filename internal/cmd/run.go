package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Njuelle/brief-to-plan/internal/artifact"
	"github.com/Njuelle/brief-to-plan/internal/config"
	perrors "github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/generation"
	"github.com/Njuelle/brief-to-plan/internal/pipeline"
	"github.com/Njuelle/brief-to-plan/internal/progress"
	"github.com/Njuelle/brief-to-plan/internal/provider"
	"github.com/Njuelle/brief-to-plan/internal/report"
	"github.com/Njuelle/brief-to-plan/internal/stages"
	"github.com/Njuelle/brief-to-plan/internal/telemetry"
	"github.com/Njuelle/brief-to-plan/internal/trace"
	"github.com/Njuelle/brief-to-plan/internal/tui"
)

var runBindings = []flagBinding{
	{flag: "provider", key: "provider.name"},
	{flag: "model", key: "provider.model"},
	{flag: "responses-dir", key: "provider.responses_dir"},
	{flag: "temperature", key: "generation.temperature"},
	{flag: "stack", key: "generation.stack"},
	{flag: "structured-plans", key: "generation.structured_plans"},
	{flag: "out", key: "output.dir"},
	{flag: "state-format", key: "output.state_format"},
	{flag: "no-summary", key: "output.summary", negate: true},
	{flag: "no-progress", key: "output.progress", negate: true},
	{flag: "journal", key: "journal.enabled"},
	{flag: "journal-dir", key: "journal.dir"},
	{flag: "metrics-file", key: "metrics.file"},
	{flag: "timeout", key: "timeout"},
	{flag: "thread-id", key: "thread_id"},
}

type runOptions struct {
	brief       string
	interactive bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [brief]",
		Short: "Generate an implementation plan from a brief",
		Long: `Run the planning pipeline on a project brief.

The brief comes from --brief, the positional arguments, or an interactive
form with --interactive. The Markdown plan and the state document are
written to the output directory; a compact summary is printed to stdout.`,
		Example: `  brief-to-plan run "Build a personal expense tracker"
  brief-to-plan run --provider anthropic --stack "Go, React" -b "Team wiki with search"
  brief-to-plan run --interactive --state-format yaml --journal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.brief, "brief", "b", "", "project brief to plan")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "enter the brief in an interactive form")
	flags.StringP("provider", "p", "", "model provider: openai, anthropic, gemini, cli, scripted")
	flags.StringP("model", "m", "", "model name (provider default when empty)")
	flags.String("responses-dir", "", "directory of <stage>.txt responses for the scripted provider")
	flags.Float64("temperature", 0.2, "default sampling temperature")
	flags.String("stack", "", "mandatory technology choices for the architecture")
	flags.Bool("structured-plans", false, "plan with schema-constrained output instead of text with repair")
	flags.StringP("out", "o", "output", "output directory")
	flags.String("state-format", "json", "state document format: json, yaml, none")
	flags.Bool("no-summary", false, "do not print the summary to stdout")
	flags.Bool("no-progress", false, "do not print stage progress to stderr")
	flags.Bool("journal", false, "write a JSONL run journal")
	flags.String("journal-dir", "", "run journal directory (default <out>/runs)")
	flags.String("metrics-file", "", "write Prometheus metrics to this file after the run")
	flags.Duration("timeout", 0, "abort the run after this long (0 means no limit)")
	flags.String("thread-id", "", "correlation id of the run (default $THREAD_ID or a new UUID)")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string, opts *runOptions) (err error) {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, runBindings...)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("journal-dir") && cmd.Flags().Changed("out") {
		cfg.Journal.Dir = filepath.Join(cfg.Output.Dir, "runs")
	}

	brief, err := resolveBrief(args, opts, cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, err := artifact.ParseFormat(cfg.Output.StateFormat)
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeConfigFile, "invalid output.state_format", err)
	}

	sess := setupObservability(ctx, cmd, cfg)
	defer func() { sess.finish(err) }()

	ctx, span := telemetry.StartCommandSpan(ctx, "run")
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.RecordSuccess(span)
		}
		span.End()
	}()

	client, err := buildProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			sess.logger.Warn("Failed to close provider", "error", cerr)
		}
	}()

	gen := generation.NewService(client, generation.Options{
		Temperature:  cfg.Generation.Temperature,
		Model:        cfg.Provider.Model,
		SystemPrompt: cfg.Generation.SystemPrompt,
		Logger:       sess.logger,
		Metrics:      sess.metrics,
	})

	observers := pipeline.Observers{
		pipeline.NewLogObserver(sess.logger),
		pipeline.NewMetricsObserver(sess.metrics),
	}

	if cfg.Output.Progress {
		indicator := progress.NewIndicator(progress.Config{
			Writer:      cmd.ErrOrStderr(),
			ShowSpinner: tui.IsTerminal(cmd.ErrOrStderr()),
		})
		defer indicator.Stop()
		observers = append(observers, indicator)
	}

	var journal *trace.Journal
	if cfg.Journal.Enabled {
		journal, err = trace.NewJournal(trace.Config{
			RunID:   cfg.ThreadID,
			Dir:     cfg.Journal.Dir,
			Enabled: true,
		})
		if err != nil {
			return err
		}
		defer func() {
			if cerr := journal.Close(); cerr != nil {
				sess.logger.Warn("Run journal incomplete", "path", journal.Path(), "error", cerr)
			}
		}()
		observers = append(observers, journal)
	}

	orch, err := pipeline.New(
		stages.Default(gen, stages.Options{
			Stack:           cfg.Generation.Stack,
			StructuredPlans: cfg.Generation.StructuredPlans,
			Logger:          sess.logger,
			Metrics:         sess.metrics,
		}),
		pipeline.WithObserver(observers...),
	)
	if err != nil {
		return err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	state, err := orch.Run(ctx, brief, cfg.ThreadID)
	if err != nil {
		return err
	}

	paths, err := artifact.NewStore(cfg.Output.Dir, format).Save(*state, time.Now())
	if err != nil {
		return err
	}
	sess.logger.Info("Plan saved", "markdown", paths.Markdown, "state", paths.State)

	out := cmd.OutOrStdout()
	if cfg.Output.Summary {
		fmt.Fprintln(out, report.Compact(*state, report.DefaultStyles()))
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "📄 Full plan saved to: %s\n", paths.Markdown)
	if paths.State != "" {
		fmt.Fprintf(out, "🗂️  State saved to: %s\n", paths.State)
	}
	if journal != nil {
		fmt.Fprintf(out, "🧾 Run journal: %s\n", journal.Path())
	}
	return nil
}

// resolveBrief picks the brief from --brief, the arguments or the form.
// The form may also fill in the stack.
func resolveBrief(args []string, opts *runOptions, cfg *config.Config) (string, error) {
	brief := strings.TrimSpace(opts.brief)
	if brief == "" {
		brief = strings.TrimSpace(strings.Join(args, " "))
	}

	if opts.interactive {
		if !tui.IsInteractive() {
			return "", perrors.NewBriefMissingError().
				WithSuggestion("--interactive needs a terminal on stdin")
		}
		answers, err := tui.PromptForBrief(tui.BriefAnswers{Brief: brief, Stack: cfg.Generation.Stack})
		if err != nil {
			return "", err
		}
		brief = answers.Brief
		cfg.Generation.Stack = answers.Stack
	}

	if brief == "" {
		return "", perrors.NewBriefMissingError()
	}
	return brief, nil
}

// buildProvider creates the configured backend. Construction failures are
// configuration problems.
func buildProvider(ctx context.Context, cfg *config.Config) (provider.ProviderClient, error) {
	client, err := provider.New(ctx, cfg.ProviderConfig())
	if err != nil {
		if _, coded := perrors.As(err); coded {
			return nil, err
		}
		return nil, perrors.NewProviderConfigError(cfg.Provider.Name, err.Error())
	}
	return client, nil
}
