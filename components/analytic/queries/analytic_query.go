package queries

import (
	"context"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	gocommand "github.com/goliatone/go-command"
)

type configService interface {
	LoadConfig(ctx context.Context, id string) (analytic.Analytic, error)
}

// AnalyticQuery loads a stored analytic with defaults applied.
type AnalyticQuery struct {
	service configService
}

// NewAnalyticQuery builds the query.
func NewAnalyticQuery(service configService) *AnalyticQuery {
	return &AnalyticQuery{service: service}
}

var _ gocommand.Querier[string, analytic.Analytic] = (*AnalyticQuery)(nil)

// Query loads the analytic by id.
func (q *AnalyticQuery) Query(ctx context.Context, id string) (analytic.Analytic, error) {
	return q.service.LoadConfig(ctx, id)
}
