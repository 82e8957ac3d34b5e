// Package adapter defines the contract every auction source implements
// and the registry the orchestrator builds adapters from.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/IshaanNene/auction-ingest/internal/adapter/automart"
	"github.com/IshaanNene/auction-ingest/internal/adapter/courtauction"
	"github.com/IshaanNene/auction-ingest/internal/adapter/onbid"
	"github.com/IshaanNene/auction-ingest/internal/browser"
	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/inspection"
	"github.com/IshaanNene/auction-ingest/internal/observability"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

// Adapter drives one auction source.
type Adapter interface {
	Name() string
	Source() types.Source

	// Init prepares the adapter. sess may be nil for sources that do not
	// need a browser.
	Init(ctx context.Context, sess browser.Session, cfg *config.Config) error

	// Scrape returns every item found. Per-row and per-page failures are
	// logged and skipped; only fatal conditions return an error.
	Scrape(ctx context.Context) ([]*types.AuctionItem, error)

	// InspectionReports returns the reports collected during Scrape.
	InspectionReports() []*types.InspectionReport

	Cleanup(ctx context.Context) error
}

// Deps are the shared collaborators handed to every constructor.
type Deps struct {
	Metrics    *observability.Metrics
	Inspection *inspection.Parser
}

// Constructor builds an adapter.
type Constructor func(logger *slog.Logger, deps Deps) Adapter

// Entry describes a registered source.
type Entry struct {
	Source       types.Source
	New          Constructor
	NeedsBrowser bool
}

// Registry maps sources to their constructors.
type Registry struct {
	entries map[types.Source]Entry
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[types.Source]Entry)}
}

// Register adds a source. Registering the same source twice is an error.
func (r *Registry) Register(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.Source]; exists {
		return fmt.Errorf("source %q already registered", e.Source)
	}
	r.entries[e.Source] = e
	return nil
}

// Lookup resolves a configured source name.
func (r *Registry) Lookup(name string) (Entry, error) {
	src, ok := types.ParseSource(name)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", types.ErrUnknownSource, name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[src]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", types.ErrUnknownSource, name)
	}
	return e, nil
}

// Sources lists the registered sources in name order.
func (r *Registry) Sources() []types.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Source, 0, len(r.entries))
	for src := range r.entries {
		out = append(out, src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Default returns a registry holding the three built-in sources.
func Default() *Registry {
	r := NewRegistry()
	for _, e := range []Entry{
		{
			Source:       types.SourceAutomart,
			NeedsBrowser: true,
			New: func(logger *slog.Logger, deps Deps) Adapter {
				return automart.New(logger, deps.Metrics, deps.Inspection)
			},
		},
		{
			Source:       types.SourceCourtAuction,
			NeedsBrowser: true,
			New: func(logger *slog.Logger, deps Deps) Adapter {
				return courtauction.New(logger, deps.Metrics)
			},
		},
		{
			Source: types.SourceOnbid,
			New: func(logger *slog.Logger, deps Deps) Adapter {
				return onbid.New(logger, deps.Metrics)
			},
		},
	} {
		// built-in sources are distinct
		_ = r.Register(e)
	}
	return r
}

// New builds the adapter for a configured source name from the default
// registry.
func New(name string, logger *slog.Logger, deps Deps) (Adapter, error) {
	e, err := Default().Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.New(logger, withDefaults(logger, deps)), nil
}

func withDefaults(logger *slog.Logger, deps Deps) Deps {
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(logger)
	}
	if deps.Inspection == nil {
		deps.Inspection = inspection.NewParser(logger)
	}
	return deps
}
