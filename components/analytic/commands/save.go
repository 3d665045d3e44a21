package commands

import (
	"context"
	"errors"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	gocommand "github.com/goliatone/go-command"
)

// SaveAnalyticInput captures an editor submission.
type SaveAnalyticInput struct {
	AnalyticID string         `json:"analytic_id"`
	Config     map[string]any `json:"config"`
	UserID     string         `json:"user_id"`
	// Result receives the stored analytic when set.
	Result *analytic.Analytic `json:"-"`
}

type saveService interface {
	SaveConfig(ctx context.Context, req analytic.SaveRequest) (analytic.Analytic, error)
}

// SaveAnalyticCommand wraps Service.SaveConfig.
type SaveAnalyticCommand struct {
	service   saveService
	telemetry Telemetry
}

// NewSaveAnalyticCommand creates the command.
func NewSaveAnalyticCommand(service saveService, telemetry Telemetry) *SaveAnalyticCommand {
	return &SaveAnalyticCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveAnalyticInput] = (*SaveAnalyticCommand)(nil)

// Execute validates and persists the configuration.
func (c *SaveAnalyticCommand) Execute(ctx context.Context, msg SaveAnalyticInput) error {
	if c.service == nil {
		return errors.New("save command requires service")
	}
	if msg.AnalyticID == "" {
		return errors.New("save command requires analytic id")
	}
	record, err := c.service.SaveConfig(ctx, analytic.SaveRequest{
		ID:        msg.AnalyticID,
		Candidate: msg.Config,
		UserID:    msg.UserID,
	})
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = record
	}
	c.telemetry.Record(ctx, "analytic.command.save", map[string]any{
		"analytic_id": msg.AnalyticID,
		"user_id":     msg.UserID,
	})
	return nil
}
