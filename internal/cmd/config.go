package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Njuelle/brief-to-plan/internal/config"
)

// flagBinding maps a command-line flag onto a configuration key.
type flagBinding struct {
	flag string
	key  string
	// negate stores the inverse of a boolean flag, as for --no-summary.
	negate bool
}

var rootBindings = []flagBinding{
	{flag: "log-level", key: "log.level"},
	{flag: "log-format", key: "log.format"},
}

// loadConfig reads the configuration with every changed flag in bindings
// applied as an override. Validation is left to the caller.
func loadConfig(cmd *cobra.Command, bindings ...flagBinding) (*config.Config, error) {
	opts := config.DefaultLoadOptions()
	flags := cmd.Flags()
	if path, err := flags.GetString("config"); err == nil {
		opts.ConfigFile = path
	}
	if path, err := flags.GetString("env-file"); err == nil {
		opts.EnvFile = path
	}

	opts.Overrides = overrides(cmd, append(rootBindings, bindings...))
	return config.Load(opts)
}

// overrides collects the values of flags the user actually set.
func overrides(cmd *cobra.Command, bindings []flagBinding) map[string]any {
	flags := cmd.Flags()
	out := make(map[string]any)

	for _, b := range bindings {
		f := flags.Lookup(b.flag)
		if f == nil || !f.Changed {
			continue
		}

		switch f.Value.Type() {
		case "bool":
			v, _ := flags.GetBool(b.flag)
			out[b.key] = v != b.negate
		case "duration":
			v, _ := flags.GetDuration(b.flag)
			out[b.key] = v
		case "float64":
			v, _ := flags.GetFloat64(b.flag)
			out[b.key] = v
		case "int":
			v, _ := flags.GetInt(b.flag)
			out[b.key] = v
		default:
			out[b.key] = f.Value.String()
		}
	}
	return out
}
