package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// hosted maps the name of each API provider to its constructor.
var hosted = map[string]func(context.Context, *ProviderConfig) (ProviderClient, error){
	"openai": func(_ context.Context, c *ProviderConfig) (ProviderClient, error) {
		return NewOpenAIProvider(c)
	},
	"anthropic": func(_ context.Context, c *ProviderConfig) (ProviderClient, error) {
		return NewAnthropicProvider(c)
	},
	"gemini": func(ctx context.Context, c *ProviderConfig) (ProviderClient, error) {
		return NewGeminiProvider(ctx, c)
	},
}

// New builds a single provider from its configuration.
func New(ctx context.Context, config *ProviderConfig) (ProviderClient, error) {
	switch config.Type {
	case ProviderTypeScripted:
		return NewScriptedProvider(config)
	case ProviderTypeCLI:
		return NewExecutableProvider(config)
	case ProviderTypeAPI:
		build, ok := hosted[config.Name]
		if !ok {
			return nil, fmt.Errorf("unknown API provider: %s", config.Name)
		}
		return build(ctx, config)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", config.Type)
	}
}

type entry struct {
	client ProviderClient
	config *ProviderConfig
}

// Registry holds the providers built for one command, keyed by name.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds client under name. Names are unique.
func (r *Registry) Register(name string, client ProviderClient, config *ProviderConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.entries[name]; dup {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.entries[name] = entry{client: client, config: config}
	return nil
}

func (r *Registry) lookup(name string) (entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return entry{}, fmt.Errorf("provider %s not found", name)
	}
	return e, nil
}

func (r *Registry) Get(name string) (ProviderClient, error) {
	e, err := r.lookup(name)
	return e.client, err
}

func (r *Registry) GetConfig(name string) (*ProviderConfig, error) {
	e, err := r.lookup(name)
	return e.config, err
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// CloseAll closes and forgets every provider.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]entry)
	r.mu.Unlock()

	var errs []error
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		if err := entries[name].client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close provider %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// LoadFromConfig builds the provider described by config and registers it.
// Disabled providers are skipped.
func (r *Registry) LoadFromConfig(ctx context.Context, config *ProviderConfig) error {
	if config.Name == "" {
		return errors.New("provider name is required")
	}
	if !config.Enabled {
		return nil
	}

	client, err := New(ctx, config)
	if err != nil {
		return fmt.Errorf("create provider %s: %w", config.Name, err)
	}
	return r.Register(config.Name, client, config)
}
