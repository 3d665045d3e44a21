package telemetry

import (
	"context"
	"strings"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/sirupsen/logrus"
)

// LogrusTelemetry writes analytic telemetry events as structured log lines.
type LogrusTelemetry struct {
	logger logrus.FieldLogger
}

var _ analytic.Telemetry = (*LogrusTelemetry)(nil)

// NewLogrusTelemetry wraps a logger; nil uses the logrus standard logger.
func NewLogrusTelemetry(logger logrus.FieldLogger) *LogrusTelemetry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusTelemetry{logger: logger}
}

// Record implements analytic.Telemetry. Failures log at warn, supersession
// and fallbacks at debug, everything else at info.
func (t *LogrusTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	entry := t.logger.WithFields(logrus.Fields(payload)).WithField("event", event)
	switch {
	case strings.HasSuffix(event, ".failed"), strings.HasSuffix(event, ".error"), event == analytic.EventConfigRejected:
		entry.Warn(event)
	case event == analytic.EventReportStale, event == analytic.EventFullscreenFall:
		entry.Debug(event)
	default:
		entry.Info(event)
	}
}

// LogNotifier logs author notifications; it is the server side stand-in
// for the toast surface.
type LogNotifier struct {
	logger logrus.FieldLogger
}

var _ analytic.Notifier = (*LogNotifier)(nil)

// NewLogNotifier wraps a logger; nil uses the logrus standard logger.
func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements analytic.Notifier.
func (n *LogNotifier) Notify(_ context.Context, note analytic.Notification) error {
	entry := n.logger.WithFields(logrus.Fields{
		"analytic_id": note.AnalyticID,
		"note_level":  string(note.Level),
		"duration_ms": note.Duration.Milliseconds(),
	})
	if note.Level == analytic.NotifyError {
		entry.Error(note.Message)
		return nil
	}
	entry.Info(note.Message)
	return nil
}
