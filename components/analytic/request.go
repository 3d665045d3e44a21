package analytic

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// ReportRequest is the outbound report query. Optional fields are omitted
// from the wire, never sent as null.
type ReportRequest struct {
	StartDate        string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate          string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Platform         string `json:"platform" validate:"omitempty,lowercase"`
	IsMap            bool   `json:"isMap"`
	HighlightCountry string `json:"highlightCountry,omitempty"`
	StateName        string `json:"state_name,omitempty"`
}

// DeriveRequest maps a config and filter to the request. It is pure: the
// same inputs always give the same request.
func DeriveRequest(cfg Config, filter DateFilter) ReportRequest {
	eff := cfg.Effective()
	req := ReportRequest{
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
		IsMap:     eff.EmbedOption.ShowsMap(),
	}
	if !eff.Platform.IsZero() && eff.Platform.ID != PlatformAll {
		req.Platform = strings.ToLower(eff.Platform.Name)
	}
	if eff.HighlightCountry != nil {
		req.HighlightCountry = eff.HighlightCountry.ID
	}
	if eff.StateName != nil {
		req.StateName = eff.StateName.ID
	}
	return req
}

// Key is a stable hash of the request used for caching and change checks.
func (r ReportRequest) Key() string {
	return hashOf(r)
}

// Payload returns the wire map of the request.
func (r ReportRequest) Payload() map[string]any {
	payload := map[string]any{
		"startDate": r.StartDate,
		"endDate":   r.EndDate,
		"platform":  r.Platform,
		"isMap":     r.IsMap,
	}
	if r.HighlightCountry != "" {
		payload["highlightCountry"] = r.HighlightCountry
	}
	if r.StateName != "" {
		payload["state_name"] = r.StateName
	}
	return payload
}

var (
	requestValidatorOnce sync.Once
	requestValidator     *validator.Validate
)

func requestRules() *validator.Validate {
	requestValidatorOnce.Do(func() {
		requestValidator = validator.New()
		requestValidator.RegisterStructValidation(validateRequestShape, ReportRequest{})
	})
	return requestValidator
}

func validateRequestShape(sl validator.StructLevel) {
	req := sl.Current().Interface().(ReportRequest)
	start, errStart := time.Parse(DateLayout, req.StartDate)
	end, errEnd := time.Parse(DateLayout, req.EndDate)
	if errStart == nil && errEnd == nil && end.Before(start) {
		sl.ReportError(req.EndDate, "EndDate", "endDate", "date_order", "")
	}
	if req.StateName != "" && req.HighlightCountry != CountryUnitedStates {
		sl.ReportError(req.StateName, "StateName", "state_name", "us_only", "")
	}
	if req.HighlightCountry != "" && !req.IsMap {
		sl.ReportError(req.HighlightCountry, "HighlightCountry", "highlightCountry", "map_only", "")
	}
}

// Validate checks the request before it goes on the wire.
func (r ReportRequest) Validate() error {
	if err := requestRules().Struct(r); err != nil {
		return fmt.Errorf("analytic: invalid report request: %w", err)
	}
	return nil
}
