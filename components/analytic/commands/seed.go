package commands

import (
	"context"
	"errors"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	gocommand "github.com/goliatone/go-command"
)

// SeedAnalyticsInput controls bootstrap behavior. Empty Seeds uses the
// defaults.
type SeedAnalyticsInput struct {
	Seeds []analytic.SeedAnalytic
}

// SeedAnalyticsCommand creates starter analytics.
type SeedAnalyticsCommand struct {
	store     analytic.AnalyticCreator
	telemetry Telemetry
}

// NewSeedAnalyticsCommand wires dependencies.
func NewSeedAnalyticsCommand(store analytic.AnalyticCreator, telemetry Telemetry) *SeedAnalyticsCommand {
	return &SeedAnalyticsCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedAnalyticsInput] = (*SeedAnalyticsCommand)(nil)

// Execute runs the seed pipeline.
func (c *SeedAnalyticsCommand) Execute(ctx context.Context, msg SeedAnalyticsInput) error {
	if c.store == nil {
		return errors.New("seed command requires analytic store")
	}
	created, err := analytic.SeedAnalytics(ctx, c.store, msg.Seeds)
	c.telemetry.Record(ctx, "analytic.seed", map[string]any{"created": len(created)})
	return err
}
