// Package pipeline normalizes scraped items before they are stored and
// submitted.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/auction-ingest/internal/types"
)

// Middleware processes an item and returns the (possibly modified) item.
// Return nil to drop the item from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an item. Return nil to drop the item.
	Process(item *types.AuctionItem) (*types.AuctionItem, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Default returns the pipeline every run uses.
func Default(logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(&TerminalConsistencyMiddleware{})
	p.Use(NewPriceAuditMiddleware(logger))
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the item through all middleware in order.
func (p *Pipeline) Process(item *types.AuctionItem) (*types.AuctionItem, error) {
	current := item

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %s: %w", mw.Name(), err)
		}
		if result == nil {
			p.logger.Debug("item dropped", "stage", mw.Name(), "source_id", item.SourceID)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Run processes a batch. Items that fail or are dropped are left out and
// the rest keep their order.
func (p *Pipeline) Run(items []*types.AuctionItem) []*types.AuctionItem {
	out := make([]*types.AuctionItem, 0, len(items))
	for _, item := range items {
		result, err := p.Process(item)
		if err != nil {
			p.logger.Warn("item rejected", "key", item.Key(), "error", err)
			continue
		}
		if result != nil {
			out = append(out, result)
		}
	}
	if dropped := len(items) - len(out); dropped > 0 {
		p.logger.Info("pipeline complete", "in", len(items), "out", len(out), "dropped", dropped)
	}
	return out
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
