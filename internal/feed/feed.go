package feed

import (
	"context"
	"errors"
	"fmt"

	"WineScout/internal/domain"
)

// ErrUnknownSource marks a source name with no registered adapter, so
// callers can tell a bad request apart from an upstream failure.
var ErrUnknownSource = errors.New("feed adapter is not registered")

// Request carries all parameters required to execute one fetch.
// BatchNumber/BatchSize are honored only by adapters that support
// client-driven chunked invocation; others fetch the full feed.
type Request struct {
	SourceName  string
	BatchNumber int // 1-indexed; 0 means "whole feed"
	BatchSize   int
	Options     map[string]string
}

// Result is the outcome of one fetch: normalized wines plus the cursor
// for batched sources.
type Result struct {
	Wines         []domain.Wine
	TotalProducts int
	HasMore       bool
	NextBatch     int // 0 when HasMore is false
}

// Adapter captures a single source strategy (Systembolaget, Vinmonopolet,
// Alko, scraping service). Fetch returns normalized but unscored wines;
// a fetch or parse error aborts the whole sync.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, req Request) (Result, error)
}

// Registry keeps a mapping from source names to their adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds or replaces an adapter.
func (r *Registry) Register(adapter Adapter) {
	if r.adapters == nil {
		r.adapters = map[string]Adapter{}
	}
	r.adapters[adapter.Name()] = adapter
}

// Resolve returns an adapter by source name or an error if it is absent.
func (r *Registry) Resolve(name string) (Adapter, error) {
	if adapter, ok := r.adapters[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, name)
}

// Names lists registered sources; used by the sync-all job.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
