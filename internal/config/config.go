// Package config handles application configuration using Viper.
//
// Sources, lowest precedence first: defaults, brief-to-plan.yaml (working
// directory, then the user config directory), a .env file, BRIEF2PLAN_*
// environment variables, and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	perrors "github.com/Njuelle/brief-to-plan/internal/errors"
	"github.com/Njuelle/brief-to-plan/internal/log"
	"github.com/Njuelle/brief-to-plan/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. BRIEF2PLAN_PROVIDER_NAME.
const EnvPrefix = "BRIEF2PLAN"

// FileName is the configuration file name without extension.
const FileName = "brief-to-plan"

// Config represents the complete brief-to-plan configuration
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider" yaml:"provider"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Telemetry  telemetry.Config `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Journal    JournalConfig    `mapstructure:"journal" yaml:"journal"`

	// Timeout bounds a whole run; zero means no limit
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// ThreadID is the correlation id of the run. Filled from THREAD_ID or a new UUID when empty.
	ThreadID string `mapstructure:"thread_id" yaml:"thread_id"`
}

// ProviderConfig selects and tunes the model backend
type ProviderConfig struct {
	// Name is openai, anthropic, gemini, cli or scripted
	Name string `mapstructure:"name" yaml:"name"`
	// Type is api, cli or scripted; inferred from Name when empty
	Type string `mapstructure:"type" yaml:"type"`

	Model     string        `mapstructure:"model" yaml:"model"`
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	MaxTokens int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// Path, Args and Format configure the cli provider
	Path   string   `mapstructure:"path" yaml:"path"`
	Args   []string `mapstructure:"args" yaml:"args"`
	Format string   `mapstructure:"format" yaml:"format"`

	// ResponsesDir overrides the scripted provider's built-in responses
	ResponsesDir string `mapstructure:"responses_dir" yaml:"responses_dir"`
}

// GenerationConfig controls prompting
type GenerationConfig struct {
	// Temperature is the default sampling temperature (0.2)
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	// SystemPrompt is sent with every request when non-empty
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
	// Stack lists mandatory technology choices for the architecture stage
	Stack string `mapstructure:"stack" yaml:"stack"`
	// StructuredPlans makes the planning stages use schema-constrained generation
	StructuredPlans bool `mapstructure:"structured_plans" yaml:"structured_plans"`
}

// OutputConfig controls where results go
type OutputConfig struct {
	// Dir receives plan-<timestamp>.md and the state document
	Dir string `mapstructure:"dir" yaml:"dir"`
	// StateFormat is json, yaml or none
	StateFormat string `mapstructure:"state_format" yaml:"state_format"`
	// Summary prints the compact summary to stdout
	Summary bool `mapstructure:"summary" yaml:"summary"`
	// Progress prints stage progress to stderr
	Progress bool `mapstructure:"progress" yaml:"progress"`
}

// LogConfig controls structured logging
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `mapstructure:"level" yaml:"level"`
	// Format is json or text
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus textfile export
type MetricsConfig struct {
	// File receives the registry in text exposition format after each command; empty disables
	File string `mapstructure:"file" yaml:"file"`
}

// JournalConfig controls the JSONL run journal
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:    "openai",
			Timeout: 120 * time.Second,
			Format:  "json",
		},
		Generation: GenerationConfig{
			Temperature: 0.2,
		},
		Output: OutputConfig{
			Dir:         "output",
			StateFormat: "json",
			Summary:     true,
			Progress:    true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Telemetry: telemetry.DefaultConfig(),
		Journal: JournalConfig{
			Dir: filepath.Join("output", "runs"),
		},
	}
}

// LoadOptions tunes Load
type LoadOptions struct {
	// ConfigFile is an explicit configuration file; it must exist
	ConfigFile string

	// EnvFile is loaded into the process environment unless empty; a missing file is ignored
	EnvFile string

	// SearchPaths replaces the default configuration search path when non-nil
	SearchPaths []string

	// Overrides are applied last, keyed like the file ("provider.name")
	Overrides map[string]any
}

// DefaultLoadOptions searches the working directory and the user config directory and reads .env
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{EnvFile: ".env"}
}

// Load reads configuration from defaults, file, environment and overrides
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, perrors.NewConfigFileError(opts.EnvFile, err)
		}
	}

	v := viper.New()
	SetDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range searchPaths(opts.SearchPaths) {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, perrors.NewConfigFileError(configPath(v, opts.ConfigFile), err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, perrors.NewConfigFileError(configPath(v, opts.ConfigFile), err)
	}

	cfg.resolve()
	return &cfg, nil
}

// UsedFile reports which configuration file Load would read, or "".
func UsedFile(opts LoadOptions) string {
	if opts.ConfigFile != "" {
		return opts.ConfigFile
	}
	for _, dir := range searchPaths(opts.SearchPaths) {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, FileName+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func searchPaths(custom []string) []string {
	if custom != nil {
		return custom
	}
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, FileName))
	}
	return paths
}

func configPath(v *viper.Viper, explicit string) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	if explicit != "" {
		return explicit
	}
	return FileName + ".yaml"
}

// SetDefaults registers default values with viper. Every key is registered
// so that AutomaticEnv can override it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.type", d.Provider.Type)
	v.SetDefault("provider.model", d.Provider.Model)
	v.SetDefault("provider.api_key", d.Provider.APIKey)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.max_tokens", d.Provider.MaxTokens)
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.path", d.Provider.Path)
	v.SetDefault("provider.args", d.Provider.Args)
	v.SetDefault("provider.format", d.Provider.Format)
	v.SetDefault("provider.responses_dir", d.Provider.ResponsesDir)

	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.system_prompt", d.Generation.SystemPrompt)
	v.SetDefault("generation.stack", d.Generation.Stack)
	v.SetDefault("generation.structured_plans", d.Generation.StructuredPlans)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.state_format", d.Output.StateFormat)
	v.SetDefault("output.summary", d.Output.Summary)
	v.SetDefault("output.progress", d.Output.Progress)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.service_version", d.Telemetry.ServiceVersion)
	v.SetDefault("telemetry.environment", d.Telemetry.Environment)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)

	v.SetDefault("metrics.file", d.Metrics.File)

	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.dir", d.Journal.Dir)

	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("thread_id", d.ThreadID)
}

// resolve fills values that come from well-known environment variables
func (c *Config) resolve() {
	c.Provider.Name = strings.ToLower(strings.TrimSpace(c.Provider.Name))
	if c.Provider.Type == "" {
		c.Provider.Type = inferType(c.Provider.Name)
	}
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = apiKeyFromEnv(c.Provider.Name)
	}

	if c.ThreadID == "" {
		c.ThreadID = os.Getenv("THREAD_ID")
	}
	if c.ThreadID == "" {
		c.ThreadID = uuid.NewString()
	}
}

func inferType(name string) string {
	switch name {
	case "scripted":
		return "scripted"
	case "cli":
		return "cli"
	default:
		return "api"
	}
}

// APIKeyEnv lists the environment variables consulted for each hosted provider, in order.
var APIKeyEnv = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

func apiKeyFromEnv(provider string) string {
	for _, name := range APIKeyEnv[provider] {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// Redacted returns a copy safe to print, with the API key masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.Provider.APIKey != "" {
		out.Provider.APIKey = mask(out.Provider.APIKey)
	}
	return out
}

func mask(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}

// Validate checks enumerations and provider requirements
func (c *Config) Validate() error {
	if err := validateLog(c.Log); err != nil {
		return err
	}

	switch c.Output.StateFormat {
	case "json", "yaml", "yml", "none":
	default:
		return perrors.New(perrors.ErrCodeConfigFile, fmt.Sprintf("output.state_format must be json, yaml or none, got %q", c.Output.StateFormat))
	}

	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return perrors.New(perrors.ErrCodeConfigFile, fmt.Sprintf("generation.temperature must be between 0 and 2, got %v", c.Generation.Temperature))
	}
	if c.Timeout < 0 {
		return perrors.New(perrors.ErrCodeConfigFile, "timeout must not be negative")
	}

	return c.Provider.validate()
}

func validateLog(c LogConfig) error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return perrors.Wrap(perrors.ErrCodeConfigFile, "invalid log.level", err)
	}
	if _, err := log.ParseFormat(c.Format); err != nil {
		return perrors.Wrap(perrors.ErrCodeConfigFile, "invalid log.format", err)
	}
	return nil
}

func (p ProviderConfig) validate() error {
	switch p.Type {
	case "api":
		if _, known := APIKeyEnv[p.Name]; !known {
			return perrors.NewProviderConfigError(p.Name, "unknown provider (supported: openai, anthropic, gemini, cli, scripted)")
		}
		if p.APIKey == "" {
			return perrors.NewProviderConfigError(p.Name, fmt.Sprintf("no API key; set %s", strings.Join(APIKeyEnv[p.Name], " or ")))
		}
	case "cli":
		if p.Path == "" {
			return perrors.NewProviderConfigError(p.Name, "provider.path is required for the cli provider")
		}
		if p.Format != "json" && p.Format != "text" {
			return perrors.NewProviderConfigError(p.Name, fmt.Sprintf("provider.format must be json or text, got %q", p.Format))
		}
	case "scripted":
	default:
		return perrors.NewProviderConfigError(p.Name, fmt.Sprintf("unknown provider type %q", p.Type))
	}
	if p.MaxTokens < 0 {
		return perrors.NewProviderConfigError(p.Name, "max_tokens must not be negative")
	}
	return nil
}
