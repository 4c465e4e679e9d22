package provider

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

// Registry is a thread-safe registry of upstream providers. It maps provider
// names to providers and keeps, per model type, the priority order in which
// providers are tried.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string               // registration order
	modelIdx  map[ModelType][]string // model → provider names (priority order)
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		modelIdx:  make(map[ModelType][]string),
	}
}

// Register adds a provider. Within each model, providers are tried in
// registration order unless SetPriority overrides it. Registering a name
// twice replaces the provider and keeps its position.
func (r *Registry) Register(p Provider) error {
	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[info.Name]; !exists {
		r.order = append(r.order, info.Name)
	}
	r.providers[info.Name] = p

	for _, model := range p.SupportedModels() {
		if !slices.Contains(r.modelIdx[model], info.Name) {
			r.modelIdx[model] = append(r.modelIdx[model], info.Name)
		}
	}
	return nil
}

// SetPriority fixes the order in which providers are tried for model.
// Every name must be registered and support the model; providers left out
// are no longer consulted for it.
func (r *Registry) SetPriority(model ModelType, names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		p, ok := r.providers[name]
		if !ok {
			return &ErrProviderNotFound{Name: name}
		}
		if p.Fetcher(model) == nil {
			return &ErrModelNotSupported{Provider: name, Model: model}
		}
	}
	r.modelIdx[model] = slices.Clone(names)
	return nil
}

// Get returns a provider by name, or an error if not found.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List returns info about all registered providers, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// ProvidersFor returns the names of providers serving model, in priority order.
func (r *Registry) ProvidersFor(model ModelType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.modelIdx[model])
}

// Directory returns the first registered provider that publishes an
// industry directory.
func (r *Registry) Directory() (IndustryDirectory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if d, ok := r.providers[name].(IndustryDirectory); ok {
			return d, true
		}
	}
	return nil, false
}

// Fetch retrieves model data from the named provider.
func (r *Registry) Fetch(ctx context.Context, providerName string, model ModelType, params QueryParams) (*FetchResult, error) {
	r.mu.RLock()
	p, ok := r.providers[providerName]
	r.mu.RUnlock()
	if !ok {
		return nil, &ErrProviderNotFound{Name: providerName}
	}

	fetcher := p.Fetcher(model)
	if fetcher == nil {
		return nil, &ErrModelNotSupported{Provider: providerName, Model: model}
	}

	if err := ValidateParams(params, fetcher.RequiredParams()); err != nil {
		return nil, err
	}

	result, err := fetcher.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("provider %q fetch %s: %w", providerName, model, err)
	}

	result.Provider = providerName
	result.Model = model
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}
	return result, nil
}

// FetchAs fetches model data from the named provider and asserts its type.
func FetchAs[T any](ctx context.Context, r *Registry, providerName string, model ModelType, params QueryParams) (T, error) {
	var zero T
	res, err := r.Fetch(ctx, providerName, model, params)
	if err != nil {
		return zero, err
	}
	v, ok := res.Data.(T)
	if !ok {
		return zero, fmt.Errorf("provider %q fetch %s: unexpected data type %T", providerName, model, res.Data)
	}
	return v, nil
}

// ModelCoverage returns a map of model types to the providers serving them.
func (r *Registry) ModelCoverage() map[ModelType][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coverage := make(map[ModelType][]string, len(r.modelIdx))
	for model, names := range r.modelIdx {
		coverage[model] = slices.Clone(names)
	}
	return coverage
}
