package analytic

import (
	"context"
	"sync"
	"time"
)

// DefaultNotificationDuration is how long a toast stays visible.
const DefaultNotificationDuration = 3 * time.Second

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) error { return nil }

// NotificationsClient is the minimal surface needed from an external
// notifications service.
type NotificationsClient interface {
	PublishAnalyticNotification(ctx context.Context, note Notification) error
}

// NotificationsHook forwards notifications to an external client.
type NotificationsHook struct {
	Client NotificationsClient
}

// Notify publishes the note when a client is configured.
func (h *NotificationsHook) Notify(ctx context.Context, note Notification) error {
	if h == nil || h.Client == nil {
		return nil
	}
	return h.Client.PublishAnalyticNotification(ctx, note)
}

// RecordingNotifier keeps notifications in memory; used by the editor
// preview and tests.
type RecordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

// Notify implements Notifier.
func (r *RecordingNotifier) Notify(_ context.Context, note Notification) error {
	r.mu.Lock()
	r.notes = append(r.notes, note)
	r.mu.Unlock()
	return nil
}

// Notifications returns a copy of what was recorded.
func (r *RecordingNotifier) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}
