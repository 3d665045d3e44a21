package analytic

import "context"

// Telemetry records analytic events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

const (
	EventReportFetched   = "analytic.report.fetched"
	EventReportFailed    = "analytic.report.failed"
	EventReportStale     = "analytic.report.superseded"
	EventConfigSaved     = "analytic.config.saved"
	EventConfigRejected  = "analytic.config.rejected"
	EventFullscreen      = "analytic.runtime.fullscreen"
	EventFullscreenFall  = "analytic.runtime.fullscreen_fallback"
	EventWidgetResolved  = "analytic.widget.resolved"
	EventCatalogReloaded = "analytic.catalog.reloaded"
)
