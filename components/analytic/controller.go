package analytic

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	DefaultEmbedTemplate    = "embed.html"
	DefaultNotFoundTemplate = "not_found.html"
	// NotFoundMessage is shown when an embed id does not resolve.
	NotFoundMessage = "Analytic not found"
)

// WidgetResolver is the part of the Service the controller needs.
type WidgetResolver interface {
	ResolveWidget(ctx context.Context, req WidgetRequest) (Widget, error)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Service          WidgetResolver
	Renderer         Renderer
	Template         string
	NotFoundTemplate string
}

// Controller renders the public embed page.
type Controller struct {
	service          WidgetResolver
	renderer         Renderer
	template         string
	notFoundTemplate string
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	tpl := opts.Template
	if tpl == "" {
		tpl = DefaultEmbedTemplate
	}
	notFound := opts.NotFoundTemplate
	if notFound == "" {
		notFound = DefaultNotFoundTemplate
	}
	return &Controller{
		service:          opts.Service,
		renderer:         opts.Renderer,
		template:         tpl,
		notFoundTemplate: notFound,
	}
}

// Resolve returns the widget for JSON clients.
func (c *Controller) Resolve(ctx context.Context, req WidgetRequest) (Widget, error) {
	if c.service == nil {
		return Widget{}, errors.New("analytic: controller service not configured")
	}
	return c.service.ResolveWidget(ctx, req)
}

// RenderTemplate resolves the widget and writes the embed page. Any failure
// to resolve the analytic, a missing id or a failed store load alike,
// renders the not found page and still returns the error so transports can
// pick the status.
func (c *Controller) RenderTemplate(ctx context.Context, req WidgetRequest, out io.Writer) error {
	if c.renderer == nil {
		return errors.New("analytic: renderer not configured")
	}
	widget, err := c.Resolve(ctx, req)
	if err != nil {
		if rerr := c.render(c.notFoundTemplate, map[string]any{
			"message":     NotFoundMessage,
			"analytic_id": req.AnalyticID,
		}, out); rerr != nil {
			return rerr
		}
		return err
	}
	return c.render(c.template, widgetTemplateData(widget), out)
}

func (c *Controller) render(name string, data any, out io.Writer) error {
	html, err := c.renderer.Render(name, data)
	if err != nil {
		return fmt.Errorf("analytic: render %s: %w", name, err)
	}
	_, err = io.WriteString(out, html)
	return err
}

func widgetTemplateData(widget Widget) map[string]any {
	regions := make([]map[string]any, 0, len(widget.Layout.Regions))
	for _, region := range widget.Layout.Regions {
		regions = append(regions, map[string]any{
			"kind":       string(region.Kind),
			"span":       region.Span,
			"width":      region.WidthPx,
			"height":     region.HeightPx,
			"columns":    region.Columns,
			"cards":      region.Cards,
			"empty":      region.EmptyState,
			"fullscreen": region.FullscreenTrigger,
		})
	}
	presets := make([]string, 0, len(Presets()))
	for _, preset := range Presets() {
		presets = append(presets, string(preset))
	}
	return map[string]any{
		"widget":        widget,
		"analytic_id":   widget.Analytic.ID,
		"title":         widget.Layout.Title,
		"regions":       regions,
		"direction":     string(widget.Layout.Direction),
		"width":         widget.Layout.Width,
		"height":        widget.Layout.Height,
		"filter_anchor": string(widget.Layout.FilterToggle.Anchor),
		"filter_kind":   string(widget.Filter.Kind),
		"filter_preset": string(widget.Filter.Preset),
		"start_date":    widget.Filter.StartDate,
		"end_date":      widget.Filter.EndDate,
		"presets":       presets,
		"theme_style":   widget.ThemeStyle,
		"body_style":    widget.BodyStyle,
		"map_html":      widget.MapHTML,
		"footnote":      widget.Footnote,
		"warning":       widget.Warning,
		"embed":         widget.Mode == ModeEmbed,
		"manual":        widget.Layout.Fullscreen.Manual,
		"scheme":        string(widget.Layout.ColorScheme),
	}
}
