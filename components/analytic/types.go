package analytic

import (
	"context"
	"time"
)

// ConfigStore persists analytic configurations. Implementations must be safe
// for concurrent use.
type ConfigStore interface {
	Load(ctx context.Context, id string) (Analytic, error)
	Update(ctx context.Context, id string, cfg Config) (Analytic, error)
	List(ctx context.Context) ([]Analytic, error)
}

// ReportClient fetches report totals for a derived request.
type ReportClient interface {
	FetchReport(ctx context.Context, req ReportRequest) (ReportSnapshot, error)
}

// EventHook notifies transports (SSE/WebSocket) about configuration and
// snapshot changes.
type EventHook interface {
	AnalyticUpdated(ctx context.Context, event ConfigEvent) error
}

// Notifier surfaces transient, user-facing messages (toast style).
type Notifier interface {
	Notify(ctx context.Context, note Notification) error
}

// EmbedOption selects which regions an embed renders.
type EmbedOption string

const (
	EmbedReport EmbedOption = "report"
	EmbedMap    EmbedOption = "map"
	EmbedBoth   EmbedOption = "both"
)

// ShowsMap reports whether the option includes the map region.
func (o EmbedOption) ShowsMap() bool {
	return o == EmbedMap || o == EmbedBoth
}

// ShowsMetrics reports whether the option includes the metrics region.
func (o EmbedOption) ShowsMetrics() bool {
	return o == EmbedReport || o == EmbedBoth
}

// ColorScheme is the widget palette.
type ColorScheme string

const (
	SchemeLight ColorScheme = "light"
	SchemeDark  ColorScheme = "dark"
)

// Ref points at an entry of a reference list (platform, country, state).
type Ref struct {
	ID   string `json:"id" yaml:"id" bson:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
}

// IsZero reports whether the reference is unset.
func (r *Ref) IsZero() bool {
	return r == nil || r.ID == ""
}

// ReportItem is a metric selection drawn from the report catalog.
type ReportItem struct {
	ID   int    `json:"id" yaml:"id" bson:"id"`
	Name string `json:"name" yaml:"name" bson:"name"`
}

// Config is the persisted embed configuration of one analytic.
type Config struct {
	Platform         *Ref         `json:"platform" yaml:"platform" bson:"platform"`
	ReportItems      []ReportItem `json:"reportItems" yaml:"reportItems" bson:"reportItems"`
	ColorScheme      ColorScheme  `json:"colorScheme" yaml:"colorScheme" bson:"colorScheme"`
	EmbedOption      EmbedOption  `json:"embedOption" yaml:"embedOption" bson:"embedOption"`
	HighlightCountry *Ref         `json:"highlightCountry,omitempty" yaml:"highlightCountry,omitempty" bson:"highlightCountry,omitempty"`
	StateName        *Ref         `json:"stateName,omitempty" yaml:"stateName,omitempty" bson:"stateName,omitempty"`
	Width            int          `json:"width" yaml:"width" bson:"width"`
	Height           int          `json:"height" yaml:"height" bson:"height"`
	Variant          Variant      `json:"variant" yaml:"variant" bson:"variant"`
}

// Analytic is a stored configuration plus its metadata.
type Analytic struct {
	ID        string    `json:"id"`
	Name      string    `json:"analyticName"`
	Config    Config    `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Mode distinguishes the author preview from the public iframe.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeEmbed   Mode = "embed"
)

// ConfigEvent describes changes transports might care about.
type ConfigEvent struct {
	AnalyticID string          `json:"analytic_id"`
	Reason     string          `json:"reason"`
	Config     *Config         `json:"config,omitempty"`
	Snapshot   *ReportSnapshot `json:"snapshot,omitempty"`
}

// NotificationLevel grades a Notification.
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyError   NotificationLevel = "error"
)

// Notification is a transient message for the author.
type Notification struct {
	Level      NotificationLevel
	Message    string
	AnalyticID string
	Duration   time.Duration
}

// ViewerContext carries request scoped locale and client hints.
type ViewerContext struct {
	UserID    string
	Locale    string
	UserAgent string
	Platform  string
	Touch     int
}
