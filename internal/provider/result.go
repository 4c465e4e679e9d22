package provider

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind classifies why a source did not produce a result.
type FailureKind string

const (
	KindFailed      FailureKind = "failed"      // error after retries
	KindEmpty       FailureKind = "empty"       // answered without usable data
	KindUnavailable FailureKind = "unavailable" // could not be queried
)

// FetchError records one source's failure inside a fallback chain.
type FetchError struct {
	Source string
	Model  ModelType
	Kind   FailureKind
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Source, e.Model, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Source, e.Model, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Classify maps an error returned by a fetch attempt to a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrEmpty):
		return KindEmpty
	case errors.As(err, new(*ErrProviderNotFound)), errors.As(err, new(*ErrModelNotSupported)):
		return KindUnavailable
	default:
		return KindFailed
	}
}

// Result is the outcome of one category fetch: either a value tagged with
// the source that produced it, or an explicit absence carrying the failure
// of every attempted source.
type Result[T any] struct {
	Value     T             `json:"value"`
	Source    string        `json:"source,omitempty"`
	Present   bool          `json:"present"`
	FetchedAt time.Time     `json:"fetched_at,omitzero"`
	Failures  []*FetchError `json:"-"`
}

// Found returns a present result.
func Found[T any](v T, source string) Result[T] {
	return Result[T]{Value: v, Source: source, Present: true, FetchedAt: time.Now()}
}

// Absent returns an absence marker carrying the attempted sources' failures.
func Absent[T any](failures ...*FetchError) Result[T] {
	return Result[T]{Failures: failures}
}

// Get returns the value and whether it is present.
func (r Result[T]) Get() (T, bool) {
	return r.Value, r.Present
}

// Err summarizes the failures of an absent result, nil when present.
func (r Result[T]) Err() error {
	if r.Present {
		return nil
	}
	if len(r.Failures) == 0 {
		return errors.New("no source attempted")
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return fmt.Errorf("all sources failed: %w", errors.Join(errs...))
}
