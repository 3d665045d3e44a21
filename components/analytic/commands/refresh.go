package commands

import (
	"context"
	"errors"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	gocommand "github.com/goliatone/go-command"
)

// RefreshReportInput asks for a fresh report of a stored analytic.
type RefreshReportInput struct {
	AnalyticID string               `json:"analytic_id"`
	Filter     *analytic.DateFilter `json:"filter,omitempty"`
	Force      bool                 `json:"force"`
}

type refreshService interface {
	RefreshReport(ctx context.Context, req analytic.RefreshRequest) (analytic.ReportSnapshot, analytic.ReportRequest, error)
}

// RefreshReportCommand refetches a report and lets the service broadcast
// the new snapshot.
type RefreshReportCommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshReportCommand creates the command.
func NewRefreshReportCommand(service refreshService, telemetry Telemetry) *RefreshReportCommand {
	return &RefreshReportCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshReportInput] = (*RefreshReportCommand)(nil)

// Execute refetches the report.
func (c *RefreshReportCommand) Execute(ctx context.Context, msg RefreshReportInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if msg.AnalyticID == "" {
		return errors.New("refresh command requires analytic id")
	}
	_, req, err := c.service.RefreshReport(ctx, analytic.RefreshRequest{
		AnalyticID: msg.AnalyticID,
		Filter:     msg.Filter,
		Force:      msg.Force,
	})
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "analytic.command.refresh", map[string]any{
		"analytic_id": msg.AnalyticID,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
		"force":       msg.Force,
	})
	return nil
}
