package analytic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCandidate() map[string]any {
	return map[string]any{
		"platform":    map[string]any{"id": "1", "name": "Facebook"},
		"reportItems": []any{map[string]any{"id": 1, "name": ItemImpressions}},
		"colorScheme": "light",
		"embedOption": "report",
		"width":       600,
		"height":      600,
		"variant":     "1",
	}
}

func TestValidatorAcceptsDefaultConfig(t *testing.T) {
	cfg, errs := NewValidator().ValidateConfig(DefaultConfig())
	require.True(t, errs.Empty(), "unexpected errors: %v", errs.Messages())
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, VariantClassic, cfg.Variant)
	assert.Equal(t, PlatformAll, cfg.Platform.ID)
}

func TestValidatorFieldErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(map[string]any)
		field   string
		code    ErrorCode
		message string
	}{
		{
			name:    "missing platform",
			mutate:  func(c map[string]any) { delete(c, "platform") },
			field:   "platform",
			code:    CodeRequired,
			message: "Platform is required",
		},
		{
			name:    "empty report items",
			mutate:  func(c map[string]any) { c["reportItems"] = []any{} },
			field:   "reportItems",
			code:    CodeMinSelection,
			message: "At least one report item must be selected.",
		},
		{
			name:    "non numeric width",
			mutate:  func(c map[string]any) { c["width"] = "wide" },
			field:   "width",
			code:    CodeTypeError,
			message: "Width must be a number",
		},
		{
			name:    "narrow width",
			mutate:  func(c map[string]any) { c["width"] = 200 },
			field:   "width",
			code:    CodeMinNotMet,
			message: "Minimum width will be 300px",
		},
		{
			name:    "numeric string below minimum",
			mutate:  func(c map[string]any) { c["width"] = "250" },
			field:   "width",
			code:    CodeMinNotMet,
			message: "Minimum width will be 300px",
		},
		{
			name:    "wide width",
			mutate:  func(c map[string]any) { c["width"] = 1300 },
			field:   "width",
			code:    CodeMaxExceeded,
			message: "Maximum width will be 1200px",
		},
		{
			name:    "short height",
			mutate:  func(c map[string]any) { c["height"] = 300 },
			field:   "height",
			code:    CodeMinNotMet,
			message: "Minimum height will be 400px",
		},
		{
			name:   "unknown scheme",
			mutate: func(c map[string]any) { c["colorScheme"] = "blue" },
			field:  "colorScheme",
			code:   CodeInvalidValue,
		},
	}

	validator := NewValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			candidate := validCandidate()
			tc.mutate(candidate)
			_, errs := validator.Validate(candidate)
			require.True(t, errs.Has(tc.field), "expected %s error, got %v", tc.field, errs.Messages())
			assert.Equal(t, tc.code, errs[tc.field].Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, errs[tc.field].Message)
			}
		})
	}
}

func TestValidatorKeepsBestEffortConfig(t *testing.T) {
	candidate := validCandidate()
	candidate["width"] = "wide"

	cfg, errs := NewValidator().Validate(candidate)
	require.True(t, errs.Has("width"))
	assert.Zero(t, cfg.Width)
	assert.Equal(t, "Facebook", cfg.Platform.Name)
	assert.True(t, IsSubmittable(cfg, errs), "width errors must not block preview")
}

func TestValidatorReadsLegacyKeys(t *testing.T) {
	candidate := validCandidate()
	delete(candidate, "platform")
	delete(candidate, "variant")
	candidate["platforms"] = map[string]any{"id": 2, "name": "Instagram"}
	candidate["selectedEmbed"] = 3

	cfg, errs := NewValidator().Validate(candidate)
	require.True(t, errs.Empty(), "unexpected errors: %v", errs.Messages())
	assert.Equal(t, "2", cfg.Platform.ID)
	assert.Equal(t, VariantStackedRow, cfg.Variant)
}

func TestValidatorRejectsUnknownVariant(t *testing.T) {
	candidate := validCandidate()
	candidate["variant"] = "9"

	_, errs := NewValidator().Validate(candidate)
	require.True(t, errs.Has("variant"))
	assert.Equal(t, CodeInvalidValue, errs["variant"].Code)
}

func TestNormalizeAppendsProfessionsOfFaithOnce(t *testing.T) {
	candidate := validCandidate()
	candidate["embedOption"] = "map"

	once := Normalize(candidate)
	twice := Normalize(once)

	items, ok := twice["reportItems"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, ItemProfessionsOfFaith, items[1].(map[string]any)["name"])
	assert.Len(t, once["reportItems"], 2)
	assert.Len(t, candidate["reportItems"], 1, "input must not be mutated")
}

func TestNormalizeLeavesReportEmbeds(t *testing.T) {
	out := Normalize(validCandidate())
	assert.Len(t, out["reportItems"], 1)
}

func TestNormalizeConfigIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmbedOption = EmbedBoth
	cfg.ReportItems = []ReportItem{{ID: 1, Name: ItemImpressions}}

	once := NormalizeConfig(cfg)
	twice := NormalizeConfig(once)
	assert.Equal(t, once, twice)
	assert.Len(t, once.ReportItems, 2)
	assert.Len(t, cfg.ReportItems, 1)
}

func TestIsSubmittable(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, IsSubmittable(cfg, FieldErrors{}))

	noPlatform := cfg.Clone()
	noPlatform.Platform = nil
	assert.False(t, IsSubmittable(noPlatform, FieldErrors{}))

	noItems := cfg.Clone()
	noItems.ReportItems = nil
	assert.False(t, IsSubmittable(noItems, FieldErrors{}))

	assert.False(t, IsSubmittable(cfg, FieldErrors{"reportItems": {Field: "reportItems", Code: CodeMinSelection}}))
	assert.True(t, IsSubmittable(cfg, FieldErrors{"height": {Field: "height", Code: CodeMinNotMet}}))
}

func TestConfigEffectiveSuppressesConditionalFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HighlightCountry = &Ref{ID: CountryUnitedStates, Name: CountryUnitedStates}
	cfg.StateName = &Ref{ID: "Texas", Name: "Texas"}

	report := cfg.Effective()
	assert.Nil(t, report.HighlightCountry)
	assert.Nil(t, report.StateName)
	assert.NotNil(t, cfg.HighlightCountry, "stored values are untouched")

	cfg.EmbedOption = EmbedMap
	us := cfg.Effective()
	require.NotNil(t, us.StateName)
	assert.Equal(t, "Texas", us.StateName.ID)

	cfg.HighlightCountry = &Ref{ID: "Canada", Name: "Canada"}
	canada := cfg.Effective()
	assert.Equal(t, "Canada", canada.HighlightCountry.ID)
	assert.Nil(t, canada.StateName)
	assert.True(t, cfg.SolicitsCountry())
	assert.False(t, cfg.SolicitsState())
}

func TestApplyStoredDefaultsKeepsPresentValues(t *testing.T) {
	cfg := ApplyStoredDefaults(Config{Width: 150, EmbedOption: EmbedMap})
	assert.Equal(t, 150, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
	assert.Equal(t, EmbedMap, cfg.EmbedOption)
	assert.Equal(t, SchemeLight, cfg.ColorScheme)
	assert.Equal(t, VariantClassic, cfg.Variant)
	assert.Len(t, cfg.ReportItems, 3)
}

func TestApplyStoredDefaultsTreatsZeroSizeAsMissing(t *testing.T) {
	cfg := ApplyStoredDefaults(Config{Width: 0, Height: 0, EmbedOption: EmbedReport})
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)

	kept := ApplyStoredDefaults(Config{Width: -5, Height: 120})
	assert.Equal(t, -5, kept.Width)
	assert.Equal(t, 120, kept.Height)
	_, errs := NewValidator().ValidateConfig(kept)
	assert.True(t, errs.Has("width"))
	assert.True(t, errs.Has("height"))
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: FieldErrors{
		"width":    {Field: "width", Message: "Width must be a number"},
		"platform": {Field: "platform", Message: "Platform is required"},
	}}
	assert.Equal(t, "analytic: validation failed: platform: Platform is required; width: Width must be a number", err.Error())
}
