package analytic

import (
	"context"
	"errors"
	"fmt"
)

var errMissingSeedStore = errors.New("analytic: store is required to seed analytics")

// AnalyticCreator is implemented by stores that can allocate new analytics.
type AnalyticCreator interface {
	Create(ctx context.Context, name string, cfg Config) (Analytic, error)
}

// SeedAnalytic describes a starter analytic.
type SeedAnalytic struct {
	Name   string
	Config Config
}

// DefaultSeedAnalytics returns one analytic per layout variant plus a map
// embed focused on the United States.
func DefaultSeedAnalytics() []SeedAnalytic {
	seeds := make([]SeedAnalytic, 0, len(Variants())+1)
	for _, variant := range Variants() {
		cfg := DefaultConfig()
		cfg.Variant = variant
		seeds = append(seeds, SeedAnalytic{Name: "Global Reach " + variant.Name(), Config: cfg})
	}
	usMap := DefaultConfig()
	usMap.EmbedOption = EmbedBoth
	usMap.HighlightCountry = &Ref{ID: CountryUnitedStates, Name: CountryUnitedStates}
	usMap.StateName = &Ref{ID: "Texas", Name: "Texas"}
	seeds = append(seeds, SeedAnalytic{Name: "Texas Map", Config: usMap})
	return seeds
}

// SeedAnalytics creates the starter analytics. Every seed is attempted and
// the failures are joined.
func SeedAnalytics(ctx context.Context, store AnalyticCreator, seeds []SeedAnalytic) ([]Analytic, error) {
	if store == nil {
		return nil, errMissingSeedStore
	}
	if seeds == nil {
		seeds = DefaultSeedAnalytics()
	}
	var (
		created []Analytic
		seedErr error
	)
	for _, seed := range seeds {
		record, err := store.Create(ctx, seed.Name, NormalizeConfig(ApplyStoredDefaults(seed.Config)))
		if err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("seed analytic %s: %w", seed.Name, err))
			continue
		}
		created = append(created, record)
	}
	return created, seedErr
}
