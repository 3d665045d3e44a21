// Package analyticembed is the public entry point for hosts embedding the
// analytic service.
package analyticembed

import (
	"context"

	core "github.com/goliatone/go-analytics-embed/components/analytic"
)

// Service exposes the underlying components/analytic.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Analytic, Config and Widget are the types hosts exchange with Service.
type (
	Analytic = core.Analytic
	Config   = core.Config
	Widget   = core.Widget
)

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewInMemoryService builds a service over an in-memory store seeded with
// the default analytics. Useful for demos and tests.
func NewInMemoryService(opts Options) (*Service, []Analytic, error) {
	store := core.NewInMemoryConfigStore()
	seeded, err := core.SeedAnalytics(context.Background(), store, nil)
	if err != nil {
		return nil, nil, err
	}
	opts.Store = store
	return core.NewService(opts), seeded, nil
}
