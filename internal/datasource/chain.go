// Package datasource turns the provider registry into per-category fallback
// chains and fans them out for one security.
//
// Every category resolves to a provider.Result: a value tagged with the
// source that produced it, or an explicit absence that records why each
// attempted source failed. Upstream failures never cross this package as
// errors; only an unresolvable identifier does.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
)

var (
	errNoSource = errors.New("no provider registered")
	errPanic    = errors.New("fetcher panicked")
)

// Step is one named source of a Chain.
type Step[T any] struct {
	Source string
	Fetch  func(ctx context.Context) (T, error)
}

// Chain is an ordered list of sources for one category: the primary first,
// then the fallbacks. Each step runs through the retry policy; a failure or
// a value rejected by Validate moves on to the next step.
type Chain[T any] struct {
	Model    provider.ModelType
	Steps    []Step[T]
	Validate func(T) bool // nil accepts every value
	Retry    infra.RetryPolicy
}

// Run returns the first valid value, or an absence carrying one
// *provider.FetchError per attempted source.
func (c Chain[T]) Run(ctx context.Context, log zerolog.Logger) provider.Result[T] {
	if len(c.Steps) == 0 {
		return provider.Absent[T](&provider.FetchError{
			Model: c.Model, Kind: provider.KindUnavailable, Err: errNoSource,
		})
	}

	failures := make([]*provider.FetchError, 0, len(c.Steps))
	for _, step := range c.Steps {
		v, err := infra.RetryValue(ctx, c.Retry, guard(step.Fetch))
		if err == nil && c.Validate != nil && !c.Validate(v) {
			err = fmt.Errorf("%s rejected by validator: %w", c.Model, provider.ErrEmpty)
		}
		if err != nil {
			fe := &provider.FetchError{Source: step.Source, Model: c.Model, Kind: provider.Classify(err), Err: err}
			failures = append(failures, fe)
			log.Debug().Str("model", string(c.Model)).Str("source", step.Source).
				Str("kind", string(fe.Kind)).Err(err).Msg("source failed")
			continue
		}

		log.Debug().Str("model", string(c.Model)).Str("source", step.Source).Msg("fetched")
		res := provider.Found(v, step.Source)
		res.Failures = failures
		return res
	}

	log.Warn().Str("model", string(c.Model)).Int("sources", len(c.Steps)).Msg("category absent")
	return provider.Absent[T](failures...)
}

// guard turns a panic inside fetch into an error so that one broken source
// fails its step instead of the whole process.
func guard[T any](fetch func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (v T, err error) {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				v, err = zero, fmt.Errorf("%w: %v", errPanic, r)
			}
		}()
		return fetch(ctx)
	}
}

// registryChain builds a chain over every provider serving model, in the
// registry's priority order.
func registryChain[T any](reg *provider.Registry, model provider.ModelType, params provider.QueryParams, retry infra.RetryPolicy, validate func(T) bool) Chain[T] {
	c := Chain[T]{Model: model, Validate: validate, Retry: retry}
	for _, name := range reg.ProvidersFor(model) {
		c.Steps = append(c.Steps, Step[T]{
			Source: name,
			Fetch: func(ctx context.Context) (T, error) {
				return provider.FetchAs[T](ctx, reg, name, model, params)
			},
		})
	}
	return c
}

// nonEmpty accepts non-empty slices.
func nonEmpty[T any](v []T) bool { return len(v) > 0 }
