package gorouter

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	router "github.com/goliatone/go-router"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/goliatone/go-analytics-embed/components/analytic/commands"
	"github.com/goliatone/go-analytics-embed/components/analytic/httpapi"
)

var errEmbedUnavailable = errors.New("analytic unavailable")

// Registrar is the subset of router.Router used to mount routes.
type Registrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// ViewerResolver converts a router.Context into an analytic.ViewerContext.
type ViewerResolver func(router.Context) analytic.ViewerContext

// Config wires go-router with the embed controller, the JSON API and the
// broadcast hook.
type Config struct {
	Router         Registrar
	Controller     httpapi.EmbedRenderer
	API            *httpapi.Handlers
	Broadcast      *analytic.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths of the analytic endpoints.
type RouteConfig struct {
	Embed     string
	Analytic  string
	Widget    string
	Report    string
	Refresh   string
	WebSocket string
}

// Register mounts the embed page, JSON API and WebSocket stream.
func Register(cfg Config) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := strings.TrimRight(cfg.BasePath, "/")
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}

	cfg.Router.Get(base+routes.Embed, router.WrapHandler(func(ctx router.Context) error {
		req, err := widgetRequest(ctx, viewerResolver)
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		req.Mode = analytic.ModeEmbed
		var buf bytes.Buffer
		status := http.StatusOK
		if err := cfg.Controller.RenderTemplate(ctx.Context(), req, &buf); err != nil {
			if buf.Len() == 0 {
				return respondError(ctx, http.StatusInternalServerError, errEmbedUnavailable)
			}
			status = httpapi.StatusFor(err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Status(status).Send(buf.Bytes())
	}))

	if cfg.API != nil {
		registerAPI(cfg.Router, base, cfg.API, viewerResolver, routes)
	}
	if cfg.Broadcast != nil {
		registerWebSocket(cfg.Router, cfg.Broadcast, base+routes.WebSocket)
	}
	return nil
}

func registerAPI(r Registrar, base string, api *httpapi.Handlers, resolver ViewerResolver, routes RouteConfig) {
	if api.Analytic != nil {
		r.Get(base+routes.Analytic, router.WrapHandler(func(ctx router.Context) error {
			record, err := api.Analytic.Query(ctx.Context(), ctx.Param("id"))
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, record)
		}))
	}

	if api.Save != nil {
		r.Put(base+routes.Analytic, router.WrapHandler(func(ctx router.Context) error {
			var payload map[string]any
			if err := sonic.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			var record analytic.Analytic
			err := api.Save.Execute(ctx.Context(), commands.SaveAnalyticInput{
				AnalyticID: ctx.Param("id"),
				Config:     payload,
				UserID:     resolver(ctx).UserID,
				Result:     &record,
			})
			if err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusOK, record)
		}))
	}

	if api.Widget != nil {
		widget := func(draft bool) router.HandlerFunc {
			return router.WrapHandler(func(ctx router.Context) error {
				req, err := widgetRequest(ctx, resolver)
				if err != nil {
					return respondError(ctx, http.StatusBadRequest, err)
				}
				if draft {
					if err := sonic.Unmarshal(ctx.Body(), &req.Draft); err != nil {
						return respondError(ctx, http.StatusBadRequest, err)
					}
					req.Mode = analytic.ModePreview
				}
				resolved, err := api.Widget.Query(ctx.Context(), req)
				if err != nil {
					return respondError(ctx, httpapi.StatusFor(err), err)
				}
				return ctx.JSON(http.StatusOK, resolved)
			})
		}
		r.Get(base+routes.Widget, widget(false))
		r.Post(base+routes.Widget, widget(true))
	}

	if api.Reports != nil {
		r.Get(base+routes.Report, router.WrapHandler(func(ctx router.Context) error {
			filter, err := analytic.ParseFilter(ctx.Query("preset"), ctx.Query("startDate"), ctx.Query("endDate"))
			if err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			snap, req, err := api.Reports.RefreshReport(ctx.Context(), analytic.RefreshRequest{
				AnalyticID: ctx.Param("id"),
				Filter:     filter,
				Force:      ctx.Query("force") == "true",
			})
			payload := map[string]any{"snapshot": snap, "request": req}
			if err != nil {
				status := httpapi.StatusFor(err)
				if status != http.StatusBadGateway {
					return respondError(ctx, status, err)
				}
				payload["error"] = err.Error()
				return ctx.JSON(status, payload)
			}
			return ctx.JSON(http.StatusOK, payload)
		}))
	}

	if api.Refresh != nil {
		r.Post(base+routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
			var payload commands.RefreshReportInput
			if body := ctx.Body(); len(body) > 0 {
				if err := sonic.Unmarshal(body, &payload); err != nil {
					return respondError(ctx, http.StatusBadRequest, err)
				}
			}
			payload.AnalyticID = ctx.Param("id")
			if err := api.Refresh.Execute(ctx.Context(), payload); err != nil {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
		}))
	}
}

func registerWebSocket(r Registrar, hook *analytic.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe(ws.Param("id"))
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func widgetRequest(ctx router.Context, resolver ViewerResolver) (analytic.WidgetRequest, error) {
	filter, err := analytic.ParseFilter(ctx.Query("preset"), ctx.Query("startDate"), ctx.Query("endDate"))
	if err != nil {
		return analytic.WidgetRequest{}, err
	}
	req := analytic.WidgetRequest{
		AnalyticID: ctx.Param("id"),
		Mode:       analytic.Mode(ctx.Query("mode")),
		Filter:     filter,
		Force:      ctx.Query("force") == "true",
		Viewer:     resolver(ctx),
	}
	if raw := ctx.Query("viewport"); raw != "" {
		width, err := strconv.Atoi(raw)
		if err != nil {
			return analytic.WidgetRequest{}, errors.New("viewport must be an integer")
		}
		req.ViewportWidth = width
	}
	return req, nil
}

func defaultViewerResolver(ctx router.Context) analytic.ViewerContext {
	var viewer analytic.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	viewer.Locale = inferLocale(ctx)
	viewer.UserAgent = ctx.Header("User-Agent")
	viewer.Platform = ctx.Query("platform")
	if touch, err := strconv.Atoi(ctx.Query("touch")); err == nil {
		viewer.Touch = touch
	}
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		return parseAcceptLanguage(header)
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, status int, err error) error {
	payload := map[string]any{"error": err.Error()}
	var validationErr *analytic.ValidationError
	if errors.As(err, &validationErr) {
		payload["fields"] = validationErr.Fields
	}
	return ctx.JSON(status, payload)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Embed == "" {
		routes.Embed = "/analytic/:id"
	}
	if routes.Analytic == "" {
		routes.Analytic = "/api/analytics/:id"
	}
	if routes.Widget == "" {
		routes.Widget = "/api/analytics/:id/widget"
	}
	if routes.Report == "" {
		routes.Report = "/api/analytics/:id/report"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/api/analytics/:id/refresh"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/api/analytics/:id/ws"
	}
	return routes
}
