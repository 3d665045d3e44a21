package queries

import (
	"context"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	gocommand "github.com/goliatone/go-command"
)

type widgetService interface {
	ResolveWidget(ctx context.Context, req analytic.WidgetRequest) (analytic.Widget, error)
}

// WidgetQuery resolves a widget for preview or embed.
type WidgetQuery struct {
	service widgetService
}

// NewWidgetQuery builds the query.
func NewWidgetQuery(service widgetService) *WidgetQuery {
	return &WidgetQuery{service: service}
}

var _ gocommand.Querier[analytic.WidgetRequest, analytic.Widget] = (*WidgetQuery)(nil)

// Query resolves the widget.
func (q *WidgetQuery) Query(ctx context.Context, req analytic.WidgetRequest) (analytic.Widget, error) {
	return q.service.ResolveWidget(ctx, req)
}
