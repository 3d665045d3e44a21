package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/goliatone/go-analytics-embed/components/analytic/commands"
	gocommand "github.com/goliatone/go-command"
)

// ReportRefresher returns the refreshed report of a stored analytic.
type ReportRefresher interface {
	RefreshReport(ctx context.Context, req analytic.RefreshRequest) (analytic.ReportSnapshot, analytic.ReportRequest, error)
}

// EmbedRenderer writes the public embed page.
type EmbedRenderer interface {
	RenderTemplate(ctx context.Context, req analytic.WidgetRequest, out io.Writer) error
}

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Save     gocommand.Commander[commands.SaveAnalyticInput]
	Refresh  gocommand.Commander[commands.RefreshReportInput]
	Analytic gocommand.Querier[string, analytic.Analytic]
	Widget   gocommand.Querier[analytic.WidgetRequest, analytic.Widget]
	Reports  ReportRefresher
	Embed    EmbedRenderer
}

type reportResponse struct {
	Snapshot analytic.ReportSnapshot `json:"snapshot"`
	Request  analytic.ReportRequest  `json:"request"`
	Error    string                  `json:"error,omitempty"`
}

type errorResponse struct {
	Error  string                `json:"error"`
	Fields analytic.FieldErrors `json:"fields,omitempty"`
}

// HandleGetAnalytic returns the stored analytic with defaults applied.
func (h *Handlers) HandleGetAnalytic(w http.ResponseWriter, r *http.Request, analyticID string) {
	record, err := h.Analytic.Query(r.Context(), analyticID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandleSaveAnalytic validates and persists an editor submission. Field
// errors are answered with 422 and the per-field messages.
func (h *Handlers) HandleSaveAnalytic(w http.ResponseWriter, r *http.Request, analyticID string) {
	var payload map[string]any
	if err := decodeBody(r, &payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var record analytic.Analytic
	input := commands.SaveAnalyticInput{
		AnalyticID: analyticID,
		Config:     payload,
		UserID:     r.Header.Get("X-User-ID"),
		Result:     &record,
	}
	if err := h.Save.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandleRefreshReport refetches a report and lets hooks broadcast it.
func (h *Handlers) HandleRefreshReport(w http.ResponseWriter, r *http.Request, analyticID string) {
	var payload commands.RefreshReportInput
	if r.ContentLength != 0 {
		if err := decodeBody(r, &payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	payload.AnalyticID = analyticID
	if err := h.Refresh.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleReport returns the report snapshot for the query filter. A failed
// fetch answers 502 with whatever snapshot is still known.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request, analyticID string) {
	query := r.URL.Query()
	filter, err := analytic.ParseFilter(query.Get("preset"), query.Get("startDate"), query.Get("endDate"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap, req, err := h.Reports.RefreshReport(r.Context(), analytic.RefreshRequest{
		AnalyticID: analyticID,
		Filter:     filter,
		Force:      query.Get("force") == "true",
	})
	if err != nil {
		var fetchErr *analytic.FetchError
		if errors.As(err, &fetchErr) {
			writeJSON(w, http.StatusBadGateway, reportResponse{Snapshot: snap, Request: req, Error: err.Error()})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Snapshot: snap, Request: req})
}

// HandleWidget resolves the widget for JSON clients. A POST body is taken
// as an unsaved draft and rendered in preview mode.
func (h *Handlers) HandleWidget(w http.ResponseWriter, r *http.Request, analyticID string) {
	req, err := WidgetRequestFromHTTP(r, analyticID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Method == http.MethodPost {
		var draft map[string]any
		if err := decodeBody(r, &draft); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		req.Draft = draft
		req.Mode = analytic.ModePreview
	}
	widget, err := h.Widget.Query(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, widget)
}

// HandleEmbed writes the public embed page.
func (h *Handlers) HandleEmbed(w http.ResponseWriter, r *http.Request, analyticID string) {
	req, err := WidgetRequestFromHTTP(r, analyticID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req.Mode = analytic.ModeEmbed
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	rec := &statusWriter{ResponseWriter: w}
	if err := h.Embed.RenderTemplate(r.Context(), req, rec); err != nil {
		// The page is shown on third party sites; error details stay server side.
		if len(rec.buf) > 0 {
			rec.flush(StatusFor(err))
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	rec.flush(http.StatusOK)
}

// WidgetRequestFromHTTP reads the filter, viewport and viewer details of a
// widget request.
func WidgetRequestFromHTTP(r *http.Request, analyticID string) (analytic.WidgetRequest, error) {
	query := r.URL.Query()
	filter, err := analytic.ParseFilter(query.Get("preset"), query.Get("startDate"), query.Get("endDate"))
	if err != nil {
		return analytic.WidgetRequest{}, err
	}
	req := analytic.WidgetRequest{
		AnalyticID: analyticID,
		Mode:       analytic.Mode(query.Get("mode")),
		Filter:     filter,
		Force:      query.Get("force") == "true",
		Viewer: analytic.ViewerContext{
			UserID:    r.Header.Get("X-User-ID"),
			Locale:    firstNonEmpty(query.Get("locale"), r.Header.Get("Accept-Language")),
			UserAgent: r.UserAgent(),
			Platform:  query.Get("platform"),
		},
	}
	if raw := query.Get("viewport"); raw != "" {
		if req.ViewportWidth, err = strconv.Atoi(raw); err != nil {
			return analytic.WidgetRequest{}, errors.New("viewport must be an integer")
		}
	}
	if raw := query.Get("touch"); raw != "" {
		if req.Viewer.Touch, err = strconv.Atoi(raw); err != nil {
			return analytic.WidgetRequest{}, errors.New("touch must be an integer")
		}
	}
	return req, nil
}

// StatusFor maps analytic errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		validationErr *analytic.ValidationError
		fetchErr      *analytic.FetchError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case analytic.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &validationErr), errors.Is(err, analytic.ErrNotSubmittable):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var validationErr *analytic.ValidationError
	if errors.As(err, &validationErr) {
		resp.Fields = validationErr.Fields
	}
	writeJSON(w, StatusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	body, err := sonic.ConfigStd.Marshal(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func decodeBody(r *http.Request, out any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return sonic.ConfigStd.Unmarshal(body, out)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// statusWriter buffers a rendered page so the status can be chosen after
// rendering.
type statusWriter struct {
	http.ResponseWriter
	buf []byte
}

func (s *statusWriter) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *statusWriter) flush(status int) {
	s.ResponseWriter.WriteHeader(status)
	_, _ = s.ResponseWriter.Write(s.buf)
}
