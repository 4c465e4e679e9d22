package provider

import (
	"context"
	"sort"
	"time"
)

// FetchFunc performs the fetch of a FuncFetcher and returns the typed data.
type FetchFunc func(ctx context.Context, params QueryParams) (any, error)

// FuncFetcher adapts a function to the Fetcher interface.
type FuncFetcher struct {
	model       ModelType
	description string
	required    []string
	fn          FetchFunc
}

// NewFetcher creates a fetcher backed by fn.
func NewFetcher(model ModelType, desc string, required []string, fn FetchFunc) *FuncFetcher {
	return &FuncFetcher{model: model, description: desc, required: required, fn: fn}
}

func (f *FuncFetcher) ModelType() ModelType     { return f.model }
func (f *FuncFetcher) Description() string      { return f.description }
func (f *FuncFetcher) RequiredParams() []string { return f.required }

// Fetch validates params and invokes the wrapped function.
func (f *FuncFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	if err := ValidateParams(params, f.required); err != nil {
		return nil, err
	}
	data, err := f.fn(ctx, params)
	if err != nil {
		return nil, err
	}
	return &FetchResult{Model: f.model, Data: data, FetchedAt: time.Now()}, nil
}

// BaseProvider provides common functionality for provider implementations.
// Embed this in concrete providers to simplify implementation.
type BaseProvider struct {
	info     ProviderInfo
	fetchers map[ModelType]Fetcher
}

// NewBaseProvider creates a base provider.
func NewBaseProvider(name, description, website string, stateful bool) BaseProvider {
	return BaseProvider{
		info: ProviderInfo{
			Name:        name,
			Description: description,
			Website:     website,
			Stateful:    stateful,
		},
		fetchers: make(map[ModelType]Fetcher),
	}
}

func (bp *BaseProvider) Info() ProviderInfo {
	info := bp.info
	info.Models = bp.SupportedModels()
	return info
}

func (bp *BaseProvider) Fetcher(model ModelType) Fetcher {
	return bp.fetchers[model]
}

// SupportedModels returns the registered model types sorted by name.
func (bp *BaseProvider) SupportedModels() []ModelType {
	out := make([]ModelType, 0, len(bp.fetchers))
	for m := range bp.fetchers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RegisterFetcher adds a fetcher, replacing any previous one for its model.
func (bp *BaseProvider) RegisterFetcher(f Fetcher) {
	bp.fetchers[f.ModelType()] = f
}

// Handle registers fn as the fetcher for model.
func (bp *BaseProvider) Handle(model ModelType, desc string, required []string, fn FetchFunc) {
	bp.RegisterFetcher(NewFetcher(model, desc, required, fn))
}
