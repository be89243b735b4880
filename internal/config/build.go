package config

import (
	"io"

	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/provider"
	"github.com/Njuelle/brief-to-plan/internal/version"
)

// ProviderConfig converts the provider section into the registry's form.
// Only non-zero options are passed so each provider keeps its own defaults.
func (c *Config) ProviderConfig() *provider.ProviderConfig {
	p := c.Provider
	opts := map[string]any{}

	set := func(key, value string) {
		if value != "" {
			opts[key] = value
		}
	}
	set("api_key", p.APIKey)
	set("base_url", p.BaseURL)
	set("model", p.Model)
	set("path", p.Path)
	set("format", p.Format)
	set("responses_dir", p.ResponsesDir)
	if p.MaxTokens > 0 {
		opts["max_tokens"] = p.MaxTokens
	}
	if p.Timeout > 0 {
		opts["timeout"] = p.Timeout
	}
	if len(p.Args) > 0 {
		opts["args"] = p.Args
	}

	return &provider.ProviderConfig{
		Name:    p.Name,
		Type:    provider.ProviderType(p.Type),
		Enabled: true,
		Config:  opts,
	}
}

// Logger builds the structured logger described by the log section.
// Invalid values fall back to the defaults; Validate reports them.
func (c *Config) Logger(w io.Writer) *log.Logger {
	level, _ := log.ParseLevel(c.Log.Level)
	format, _ := log.ParseFormat(c.Log.Format)

	return log.New(log.Config{
		Level:          level,
		Format:         format,
		Output:         log.NewOutput(w),
		ServiceName:    version.Name,
		ServiceVersion: version.Version,
	})
}

// Providers lists the backends the registry can build, in display order.
var Providers = []string{"openai", "anthropic", "gemini", "cli", "scripted"}

// WithProvider returns a copy of c targeting the named backend. When name is
// not the configured backend only its transport settings carry over; the
// type and API key are resolved again from the environment.
func (c *Config) WithProvider(name string) *Config {
	out := *c
	if name == c.Provider.Name {
		return &out
	}
	out.Provider = ProviderConfig{
		Name:      name,
		MaxTokens: c.Provider.MaxTokens,
		Timeout:   c.Provider.Timeout,
		Format:    c.Provider.Format,
	}
	out.resolve()
	return &out
}
