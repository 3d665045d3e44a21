package analytic

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ettle/strcase"
)

var (
	errMissingStore = errors.New("analytic: config store not configured")
	errInvalidID    = errors.New("analytic: analytic id is required")
)

// Options configures the analytic Service. Every collaborator is an
// interface so hosts can swap implementations.
type Options struct {
	Store                ConfigStore
	Reports              ReportClient
	Validator            *Validator
	Layouts              *LayoutResolver
	Catalog              *CatalogHolder
	Hook                 EventHook
	Notifier             Notifier
	Telemetry            Telemetry
	Translator           TranslationService
	Themes               ThemeProvider
	MapRenderer          MapRenderer
	SnapshotCache        *TTLCache[ReportSnapshot]
	Clock                Clock
	NotificationDuration time.Duration
}

// Service ties the config model, report orchestrator, layout resolver and
// embed runtime together for the editor and the public embed.
type Service struct {
	opts Options
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	if opts.Layouts == nil {
		opts.Layouts = NewLayoutResolver()
	}
	if opts.Catalog == nil {
		opts.Catalog = NewCatalogHolder(nil)
	}
	if opts.Hook == nil {
		opts.Hook = noopEventHook{}
	}
	if opts.Notifier == nil {
		opts.Notifier = noopNotifier{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.Clock = normalizeClock(opts.Clock)
	if opts.SnapshotCache == nil {
		opts.SnapshotCache = NewTTLCache[ReportSnapshot](DefaultSnapshotTTL).WithClock(opts.Clock)
	}
	if opts.NotificationDuration <= 0 {
		opts.NotificationDuration = DefaultNotificationDuration
	}
	return &Service{opts: opts}
}

// Validator exposes the shared validator.
func (s *Service) Validator() *Validator { return s.opts.Validator }

// Catalog returns the current reference catalog.
func (s *Service) Catalog() *Catalog { return s.opts.Catalog.Catalog() }

// LoadConfig reads an analytic, fills stored defaults and normalizes it.
// Unknown ids return a NotFoundError; other failures a FetchError.
func (s *Service) LoadConfig(ctx context.Context, id string) (Analytic, error) {
	store, err := s.store()
	if err != nil {
		return Analytic{}, err
	}
	if strings.TrimSpace(id) == "" {
		return Analytic{}, errInvalidID
	}
	record, err := store.Load(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return Analytic{}, err
		}
		return Analytic{}, &FetchError{Op: "config load", Err: err}
	}
	record.Config = NormalizeConfig(ApplyStoredDefaults(record.Config))
	return record, nil
}

// ListAnalytics returns every stored analytic.
func (s *Service) ListAnalytics(ctx context.Context) ([]Analytic, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	records, err := store.List(ctx)
	if err != nil {
		return nil, &FetchError{Op: "config list", Err: err}
	}
	return records, nil
}

// SaveRequest carries a candidate configuration for persistence.
type SaveRequest struct {
	ID        string
	Candidate map[string]any
	UserID    string
}

// SaveConfig validates, persists and announces a configuration. Validation
// failures return a ValidationError and never reach the store. Store
// failures notify the author and leave the caller's draft untouched.
func (s *Service) SaveConfig(ctx context.Context, req SaveRequest) (Analytic, error) {
	store, err := s.store()
	if err != nil {
		return Analytic{}, err
	}
	if strings.TrimSpace(req.ID) == "" {
		return Analytic{}, errInvalidID
	}
	cfg, errs := s.opts.Validator.Validate(req.Candidate)
	if !errs.Empty() {
		s.recordTelemetry(ctx, EventConfigRejected, map[string]any{
			"analytic_id": req.ID,
			"fields":      len(errs),
		})
		return Analytic{}, &ValidationError{Fields: errs}
	}
	record, err := store.Update(ctx, req.ID, cfg)
	if err != nil {
		s.notify(ctx, NotifyError, "Failed to update analytic", req.ID)
		if IsNotFound(err) {
			return Analytic{}, err
		}
		return Analytic{}, fmt.Errorf("analytic: save %s: %w", req.ID, err)
	}
	if inv, ok := store.(interface{ Invalidate(string) }); ok {
		inv.Invalidate(req.ID)
	}
	event := ConfigEvent{AnalyticID: req.ID, Reason: "config.saved", Config: &record.Config}
	if err := s.opts.Hook.AnalyticUpdated(ctx, event); err != nil {
		s.recordTelemetry(ctx, "analytic.hook.error", map[string]any{"analytic_id": req.ID, "error": err.Error()})
	}
	s.notify(ctx, NotifySuccess, "Analytic updated successfully", req.ID)
	s.recordTelemetry(ctx, EventConfigSaved, map[string]any{
		"analytic_id":  req.ID,
		"user_id":      req.UserID,
		"embed_option": string(record.Config.EmbedOption),
		"variant":      string(record.Config.Variant),
	})
	return record, nil
}

// NewOrchestrator builds an orchestrator sharing the service snapshot cache.
// Applied snapshots are broadcast through the event hook. A nil filter
// means the current month.
func (s *Service) NewOrchestrator(analyticID string, cfg Config, filter *DateFilter) (*Orchestrator, error) {
	if filter != nil {
		if _, err := filter.Resolve(s.opts.Clock()); err != nil {
			return nil, err
		}
	}
	return NewOrchestrator(cfg, OrchestratorOptions{
		AnalyticID: analyticID,
		Client:     s.opts.Reports,
		Telemetry:  s.opts.Telemetry,
		Cache:      s.opts.SnapshotCache,
		Clock:      s.opts.Clock,
		Filter:     filter,
		OnSnapshot: func(ctx context.Context, snap ReportSnapshot) {
			_ = s.opts.Hook.AnalyticUpdated(ctx, ConfigEvent{
				AnalyticID: analyticID,
				Reason:     "report.refreshed",
				Snapshot:   &snap,
			})
		},
	}), nil
}

// RefreshRequest asks for the report of a stored analytic.
type RefreshRequest struct {
	AnalyticID string
	Filter     *DateFilter
	Force      bool
}

// RefreshReport loads the analytic and fetches its report for the filter.
func (s *Service) RefreshReport(ctx context.Context, req RefreshRequest) (ReportSnapshot, ReportRequest, error) {
	record, err := s.LoadConfig(ctx, req.AnalyticID)
	if err != nil {
		return ReportSnapshot{}, ReportRequest{}, err
	}
	orch, err := s.NewOrchestrator(record.ID, record.Config, req.Filter)
	if err != nil {
		return ReportSnapshot{}, ReportRequest{}, err
	}
	defer orch.Close()
	snap, err := s.fetchInto(ctx, orch, req.Force)
	return snap, orch.Request(), err
}

// WidgetRequest describes one render of a widget.
type WidgetRequest struct {
	AnalyticID    string
	Name          string
	Draft         map[string]any
	Mode          Mode
	Filter        *DateFilter
	ViewportWidth int
	Viewer        ViewerContext
	Force         bool
}

// Widget is a fully resolved widget ready for a template or JSON client.
type Widget struct {
	Analytic    Analytic        `json:"analytic"`
	Config      Config          `json:"config"`
	Mode        Mode            `json:"mode"`
	Filter      DateFilter      `json:"filter"`
	Request     ReportRequest   `json:"request"`
	Snapshot    ReportSnapshot  `json:"snapshot"`
	Layout      Layout          `json:"layout"`
	Theme       *ThemeSelection `json:"-"`
	ThemeStyle  string          `json:"themeStyle"`
	BodyStyle   string          `json:"bodyStyle,omitempty"`
	MapHTML     string          `json:"mapHtml,omitempty"`
	Footnote    string          `json:"footnote"`
	EmptyState  string          `json:"emptyState,omitempty"`
	Submittable bool            `json:"submittable"`
	Warning     string          `json:"warning,omitempty"`
	Err         error           `json:"-"`
}

// ResolveWidget loads (or takes the draft), fetches the report, resolves the
// layout and runs the embed session for one render. Report failures degrade
// to the last known or empty snapshot and are reported on Widget.Err.
func (s *Service) ResolveWidget(ctx context.Context, req WidgetRequest) (Widget, error) {
	record, err := s.widgetAnalytic(ctx, req)
	if err != nil {
		return Widget{}, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeEmbed
	}
	widget := Widget{
		Analytic:    record,
		Config:      record.Config.Effective(),
		Mode:        mode,
		Submittable: true,
	}

	orch, err := s.NewOrchestrator(record.ID, record.Config, req.Filter)
	if err != nil {
		return Widget{}, err
	}
	defer orch.Close()
	snap, fetchErr := s.fetchInto(ctx, orch, req.Force)
	if fetchErr != nil {
		widget.Err = fetchErr
		widget.Warning = translateOrFallback(ctx, s.opts.Translator, "analytic.report.unavailable", req.Viewer.Locale, "Report data is temporarily unavailable", nil)
	}
	widget.Snapshot = snap
	widget.Filter = orch.Filter()
	widget.Request = orch.Request()

	caps := CapabilitiesFor(req.Viewer)
	layout, err := s.opts.Layouts.Resolve(LayoutInput{
		Name:          record.Name,
		Config:        record.Config,
		Snapshot:      &snap,
		Mode:          mode,
		ViewportWidth: req.ViewportWidth,
		Capabilities:  caps,
		Locale:        req.Viewer.Locale,
	})
	if err != nil {
		return Widget{}, err
	}
	s.localizeLayout(ctx, &layout, req.Viewer.Locale)
	widget.Layout = layout
	widget.Footnote = layout.Footnote
	if region, ok := layout.Region(RegionMetrics); ok {
		widget.EmptyState = region.EmptyState
	}

	widget.Theme = resolveTheme(ctx, s.opts.Themes, layout.ColorScheme, req.Viewer)
	widget.ThemeStyle = widget.Theme.CSSVariablesInline()

	host := NewDocumentHost(caps.NativeFullscreen())
	err = WithSession(ctx, SessionOptions{
		AnalyticID:   record.ID,
		Mode:         mode,
		ColorScheme:  layout.ColorScheme,
		Host:         host,
		Capabilities: caps,
		Telemetry:    s.opts.Telemetry,
	}, func(*Session) error {
		widget.BodyStyle = host.BodyStyle()
		return nil
	})
	if err != nil {
		return Widget{}, err
	}

	if region, ok := layout.Region(RegionMap); ok && s.opts.MapRenderer != nil {
		mapHTML, err := s.opts.MapRenderer.RenderMap(ctx, MapInput{
			AnalyticID:       record.ID,
			Markers:          region.Markers,
			Scheme:           layout.ColorScheme,
			HighlightCountry: layout.HighlightCountry,
			StateName:        layout.StateName,
			HeightPx:         region.HeightPx,
			ChartTheme:       widget.Theme.ChartTheme,
		})
		if err != nil {
			s.recordTelemetry(ctx, "analytic.map.error", map[string]any{"analytic_id": record.ID, "error": err.Error()})
		} else {
			widget.MapHTML = mapHTML
		}
	}

	s.recordTelemetry(ctx, EventWidgetResolved, map[string]any{
		"analytic_id": record.ID,
		"mode":        string(mode),
		"variant":     string(layout.Variant),
		"regions":     len(layout.Regions),
	})
	return widget, nil
}

// EmbedSnippet returns the iframe markup that embeds an analytic.
func (s *Service) EmbedSnippet(record Analytic, baseURL string) string {
	return EmbedSnippet(record, baseURL)
}

// EmbedSnippet returns the iframe markup that embeds an analytic.
func EmbedSnippet(record Analytic, baseURL string) string {
	cfg := ApplyStoredDefaults(record.Config)
	slug := strcase.ToKebab(record.Name)
	if slug == "" {
		slug = record.ID
	}
	src := strings.TrimRight(baseURL, "/") + "/analytic/" + record.ID
	return fmt.Sprintf(
		`<iframe id="analytic-%s" title="%s" src="%s" width="%d" height="%d" style="border:0;" loading="lazy" allowfullscreen></iframe>`,
		html.EscapeString(slug),
		html.EscapeString(record.Name),
		html.EscapeString(src),
		ClampWidth(cfg.Width),
		ClampHeight(cfg.Height),
	)
}

func (s *Service) widgetAnalytic(ctx context.Context, req WidgetRequest) (Analytic, error) {
	if req.Draft == nil {
		return s.LoadConfig(ctx, req.AnalyticID)
	}
	cfg, errs := s.opts.Validator.Validate(req.Draft)
	if !IsSubmittable(cfg, errs) {
		return Analytic{}, ErrNotSubmittable
	}
	record := Analytic{ID: req.AnalyticID, Name: req.Name, Config: ApplyStoredDefaults(cfg)}
	if record.Name == "" && req.AnalyticID != "" && s.opts.Store != nil {
		if stored, err := s.opts.Store.Load(ctx, req.AnalyticID); err == nil {
			record.Name = stored.Name
		}
	}
	return record, nil
}

func (s *Service) fetchInto(ctx context.Context, orch *Orchestrator, force bool) (ReportSnapshot, error) {
	_, err := orch.Refresh(ctx, force)
	return orch.Snapshot(), err
}

func (s *Service) localizeLayout(ctx context.Context, layout *Layout, locale string) {
	if s.opts.Translator == nil {
		return
	}
	layout.Footnote = translateOrFallback(ctx, s.opts.Translator, "analytic.footnote", locale, layout.Footnote, nil)
	for i := range layout.Regions {
		region := &layout.Regions[i]
		for j := range region.Cards {
			key := "analytic.item." + strcase.ToSnake(region.Cards[j].Item.Name)
			region.Cards[j].Label = translateOrFallback(ctx, s.opts.Translator, key, locale, region.Cards[j].Label, nil)
		}
		if region.EmptyState != "" {
			region.EmptyState = translateOrFallback(ctx, s.opts.Translator, "analytic.empty_selection", locale, region.EmptyState, nil)
		}
	}
}

func (s *Service) notify(ctx context.Context, level NotificationLevel, message, analyticID string) {
	_ = s.opts.Notifier.Notify(ctx, Notification{
		Level:      level,
		Message:    message,
		AnalyticID: analyticID,
		Duration:   s.opts.NotificationDuration,
	})
}

func (s *Service) store() (ConfigStore, error) {
	if s.opts.Store == nil {
		return nil, errMissingStore
	}
	return s.opts.Store, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}
