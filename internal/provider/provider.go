// Package provider defines the upstream provider abstraction. A Provider
// registers one Fetcher per data category it serves, and a Registry routes
// category requests to providers in priority order.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seenimoa/stockfusion/pkg/models"
)

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string      `json:"name"`        // e.g. "eastmoney", "baostock"
	Description string      `json:"description"` // human-readable description
	Website     string      `json:"website"`
	Stateful    bool        `json:"stateful"` // requires a login session
	Models      []ModelType `json:"models"`
}

// Provider is the interface that all upstream providers implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Fetcher returns the fetcher for the given model type, or nil if unsupported.
	Fetcher(model ModelType) Fetcher

	// SupportedModels returns all model types this provider can fetch.
	SupportedModels() []ModelType

	// Ping verifies the provider is reachable.
	Ping(ctx context.Context) error
}

// IndustryDirectory is the reference directory of industry boards and their
// constituents. Implemented by providers that publish board listings.
type IndustryDirectory interface {
	Industries(ctx context.Context) ([]models.Industry, error)
	Constituents(ctx context.Context, boardCode string) ([]models.PeerQuote, error)
}

// QueryParams is the generic query parameter map passed to fetchers.
type QueryParams map[string]string

// QueryParamKey constants.
const (
	ParamCode      = "code"       // canonical six-digit code
	ParamStartDate = "start_date" // YYYY-MM-DD
	ParamEndDate   = "end_date"   // YYYY-MM-DD
	ParamDate      = "date"       // report period, YYYY-MM-DD
)

// FetchResult wraps a fetcher result with metadata.
type FetchResult struct {
	Provider  string    `json:"provider"`
	Model     ModelType `json:"model"`
	Data      any       `json:"data"` // typed per ModelType
	FetchedAt time.Time `json:"fetched_at"`
}

// Fetcher fetches one data category from one provider.
type Fetcher interface {
	ModelType() ModelType
	Description() string
	RequiredParams() []string
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// Sentinel errors providers wrap to classify failures.
var (
	// ErrEmpty means the upstream answered but had no data for the request.
	ErrEmpty = errors.New("empty result")
	// ErrUnavailable means the provider cannot be queried at all right now.
	ErrUnavailable = errors.New("provider unavailable")
)

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrModelNotSupported is returned when a provider doesn't support a model type.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	return fmt.Sprintf("provider %q does not support model %q", e.Provider, e.Model)
}

// ErrMissingParam is returned when a required query parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ValidateParams checks that all required parameters are present in params.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if v, ok := params[key]; !ok || v == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
