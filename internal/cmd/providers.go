package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Njuelle/brief-to-plan/internal/config"
	perrors "github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/provider"
	"github.com/Njuelle/brief-to-plan/internal/ux"
)

// ProviderStatus is one row of 'providers list' and 'providers check'.
type ProviderStatus struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Active      bool   `json:"active" yaml:"active"`
	Configured  bool   `json:"configured" yaml:"configured"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Detail explains why a provider is not configured or failed its check
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Healthy *bool  `json:"healthy,omitempty" yaml:"healthy,omitempty"`

	err error
}

// ProviderTable renders statuses as an aligned table in text output.
type ProviderTable []ProviderStatus

func (t ProviderTable) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tCONFIGURED\tMODEL\tSTATUS")
	fmt.Fprintln(w, "----\t----\t----------\t-----\t------")
	for _, p := range t {
		name := p.Name
		if p.Active {
			name += " *"
		}
		configured := "no"
		if p.Configured {
			configured = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, p.Type, configured, orDash(p.Model), p.status())
	}
	_ = w.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func (p ProviderStatus) status() string {
	switch {
	case p.Healthy != nil && *p.Healthy:
		return "✓ healthy"
	case p.Healthy != nil:
		return "✗ " + p.Detail
	case p.Detail != "":
		return p.Detail
	default:
		return "-"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "providers",
		Aliases: []string{"provider"},
		Short:   "Inspect model providers",
		Long: `Inspect the model providers brief-to-plan can use. Hosted providers are
configured through their API key environment variables; the cli provider
needs provider.path; the scripted provider always works offline.`,
	}

	cmd.AddCommand(newProvidersListCmd(), newProvidersCheckCmd())
	return cmd
}

func newProvidersListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List providers and whether they are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formatter, err := ux.NewFormatter(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			registry := provider.NewRegistry()
			defer registry.CloseAll() //nolint:errcheck

			statuses := loadProviders(cmd.Context(), cfg, registry, config.Providers, log.DefaultLogger())
			return formatter.Format(ProviderTable(statuses))
		},
	}

	cmd.Flags().StringVar(&output, "output", ux.FormatText, "output format: "+strings.Join(ux.Formats, ", "))
	return cmd
}

func newProvidersCheckCmd() *cobra.Command {
	var (
		output  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:     "check [provider-name...]",
		Aliases: []string{"doctor", "health"},
		Short:   "Check provider health",
		Long: `Run a health check against providers. Without arguments every configured
provider is checked. Naming a provider that is not configured is an error.`,
		Args: func(_ *cobra.Command, args []string) error {
			for _, name := range args {
				if !knownProvider(name) {
					return fmt.Errorf("invalid argument %q (accepts %s)", name, strings.Join(config.Providers, ", "))
				}
			}
			return nil
		},
		ValidArgs: config.Providers,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			formatter, err := ux.NewFormatter(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sess := setupObservability(cmd.Context(), cmd, cfg)
			defer func() { sess.finish(err) }()

			names := args
			if len(names) == 0 {
				names = config.Providers
			}

			registry := provider.NewRegistry()
			defer registry.CloseAll() //nolint:errcheck

			statuses := loadProviders(cmd.Context(), cfg, registry, names, sess.logger)
			checked, err := checkProviders(cmd.Context(), registry, statuses, len(args) > 0, timeout)

			if ferr := formatter.Format(ProviderTable(checked)); ferr != nil && err == nil {
				err = ferr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&output, "output", ux.FormatText, "output format: "+strings.Join(ux.Formats, ", "))
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout per health check")
	return cmd
}

func knownProvider(name string) bool {
	for _, p := range config.Providers {
		if p == name {
			return true
		}
	}
	return false
}

// loadProviders registers every usable provider in names and reports the
// status of each one.
func loadProviders(ctx context.Context, cfg *config.Config, registry *provider.Registry, names []string, logger *log.Logger) []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(names))

	for _, name := range names {
		pcfg := cfg.WithProvider(name)
		status := ProviderStatus{
			Name:   name,
			Type:   pcfg.Provider.Type,
			Active: name == cfg.Provider.Name,
		}

		client, err := registerProvider(ctx, pcfg, registry)
		if err != nil {
			logger.Debug("Provider unavailable", "provider", name, "error", err)
			status.Detail = detail(err)
			status.err = err
			statuses = append(statuses, status)
			continue
		}

		info := client.GetInfo()
		status.Configured = true
		status.Model = info.Model
		status.Description = info.Description
		statuses = append(statuses, status)
	}
	return statuses
}

func registerProvider(ctx context.Context, cfg *config.Config, registry *provider.Registry) (provider.ProviderClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := registry.LoadFromConfig(ctx, cfg.ProviderConfig()); err != nil {
		return nil, perrors.NewProviderConfigError(cfg.Provider.Name, err.Error())
	}
	return registry.Get(cfg.Provider.Name)
}

// checkProviders pings every configured provider. When strict, a provider
// that is not configured fails the check as well.
func checkProviders(ctx context.Context, registry *provider.Registry, statuses []ProviderStatus, strict bool, timeout time.Duration) ([]ProviderStatus, error) {
	var firstErr error

	for i := range statuses {
		s := &statuses[i]
		if !s.Configured {
			if strict && firstErr == nil {
				firstErr = s.err
			}
			continue
		}

		client, err := registry.Get(s.Name)
		if err != nil {
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		herr := client.Health(checkCtx)
		cancel()

		healthy := herr == nil
		s.Healthy = &healthy
		if herr != nil {
			s.Detail = detail(herr)
			if firstErr == nil {
				firstErr = perrors.NewGenerationError(s.Name, herr)
			}
		}
	}
	return statuses, firstErr
}

// detail is the first line of err without its error code.
func detail(err error) string {
	if pe, ok := perrors.As(err); ok && pe.Cause == nil {
		return pe.Message
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
