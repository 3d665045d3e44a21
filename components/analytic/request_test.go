package analytic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marchFilter(t *testing.T) DateFilter {
	t.Helper()
	filter, err := CustomFilter("2024-03-01", "2024-03-15")
	require.NoError(t, err)
	return filter
}

func TestDeriveRequestAllPlatforms(t *testing.T) {
	req := DeriveRequest(DefaultConfig(), marchFilter(t))
	assert.Equal(t, ReportRequest{StartDate: "2024-03-01", EndDate: "2024-03-15"}, req)
	assert.NoError(t, req.Validate())
}

func TestDeriveRequestLowercasesPlatform(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Platform = &Ref{ID: "3", Name: "YouTube"}
	req := DeriveRequest(cfg, marchFilter(t))
	assert.Equal(t, "youtube", req.Platform)
}

func TestDeriveRequestMapWithState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmbedOption = EmbedBoth
	cfg.HighlightCountry = &Ref{ID: CountryUnitedStates, Name: CountryUnitedStates}
	cfg.StateName = &Ref{ID: "Texas", Name: "Texas"}

	req := DeriveRequest(cfg, marchFilter(t))
	assert.True(t, req.IsMap)
	assert.Equal(t, CountryUnitedStates, req.HighlightCountry)
	assert.Equal(t, "Texas", req.StateName)
	assert.NoError(t, req.Validate())

	payload := req.Payload()
	assert.Equal(t, "Texas", payload["state_name"])
	assert.Equal(t, true, payload["isMap"])
}

func TestDeriveRequestSuppressesHiddenFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HighlightCountry = &Ref{ID: "Canada", Name: "Canada"}
	cfg.StateName = &Ref{ID: "Texas", Name: "Texas"}

	req := DeriveRequest(cfg, marchFilter(t))
	assert.False(t, req.IsMap)
	assert.Empty(t, req.HighlightCountry)
	assert.Empty(t, req.StateName)

	payload := req.Payload()
	_, hasCountry := payload["highlightCountry"]
	_, hasState := payload["state_name"]
	assert.False(t, hasCountry)
	assert.False(t, hasState)

	cfg.EmbedOption = EmbedMap
	req = DeriveRequest(cfg, marchFilter(t))
	assert.Equal(t, "Canada", req.HighlightCountry)
	assert.Empty(t, req.StateName, "state is only sent for the United States")
}

func TestDeriveRequestIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmbedOption = EmbedMap
	first := DeriveRequest(cfg, marchFilter(t))
	second := DeriveRequest(cfg.Clone(), marchFilter(t))
	assert.Equal(t, first, second)
	assert.Equal(t, first.Key(), second.Key())

	cfg.Platform = &Ref{ID: "1", Name: "Facebook"}
	assert.NotEqual(t, first.Key(), DeriveRequest(cfg, marchFilter(t)).Key())
}

func TestReportRequestValidate(t *testing.T) {
	assert.Error(t, ReportRequest{}.Validate())
	assert.Error(t, ReportRequest{StartDate: "2024-03-10", EndDate: "2024-03-01"}.Validate())
	assert.Error(t, ReportRequest{StartDate: "03/01/2024", EndDate: "2024-03-10"}.Validate())
	assert.Error(t, ReportRequest{StartDate: "2024-03-01", EndDate: "2024-03-10", IsMap: true, HighlightCountry: "Canada", StateName: "Texas"}.Validate())
	assert.Error(t, ReportRequest{StartDate: "2024-03-01", EndDate: "2024-03-10", HighlightCountry: "Canada"}.Validate())
	assert.NoError(t, ReportRequest{StartDate: "2024-03-01", EndDate: "2024-03-10", Platform: "tiktok"}.Validate())
}

func TestPresetFilters(t *testing.T) {
	now := time.Date(2024, time.March, 15, 17, 30, 0, 0, time.UTC)
	cases := map[Preset][2]string{
		PresetCurrentMonth: {"2024-03-01", "2024-03-15"},
		PresetLastMonth:    {"2024-02-01", "2024-02-29"},
		PresetLast7Days:    {"2024-03-09", "2024-03-15"},
		PresetLast30Days:   {"2024-02-15", "2024-03-15"},
		PresetLast90Days:   {"2023-12-17", "2024-03-15"},
		PresetCurrentYear:  {"2024-01-01", "2024-03-15"},
	}
	for preset, want := range cases {
		filter, err := PresetFilter(preset, now)
		require.NoError(t, err, preset)
		assert.Equal(t, FilterPreset, filter.Kind)
		assert.Equal(t, want[0], filter.StartDate, preset)
		assert.Equal(t, want[1], filter.EndDate, preset)
	}

	_, err := PresetFilter("fortnight", now)
	assert.Error(t, err)
	assert.Equal(t, "2024-03-01", DefaultFilter(now).StartDate)
}

func TestCustomFilter(t *testing.T) {
	filter, err := CustomFilter("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, FilterCustom, filter.Kind)

	_, err = CustomFilter("2024-02-01", "2024-01-31")
	assert.Error(t, err)
	_, err = CustomFilter("yesterday", "2024-01-31")
	assert.Error(t, err)
}

func TestDateFilterResolve(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	resolved, err := DateFilter{}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, PresetCurrentMonth, resolved.Preset)

	resolved, err = DateFilter{Kind: FilterPreset, Preset: PresetLastMonth}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", resolved.StartDate)

	custom := DateFilter{Kind: FilterCustom, StartDate: "2023-05-01", EndDate: "2023-05-02"}
	resolved, err = custom.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, custom, resolved)

	_, err = DateFilter{Kind: "weekly"}.Resolve(now)
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	filter, err := ParseFilter("", "", "")
	require.NoError(t, err)
	assert.Nil(t, filter)

	filter, err = ParseFilter("custom", "", "")
	require.NoError(t, err)
	assert.Nil(t, filter)

	filter, err = ParseFilter("last7Days", "", "")
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.Equal(t, PresetLast7Days, filter.Preset)

	filter, err = ParseFilter("last7Days", "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, FilterCustom, filter.Kind)

	_, err = ParseFilter("someday", "", "")
	assert.Error(t, err)
	_, err = ParseFilter("", "2024-01-10", "")
	assert.Error(t, err)
}
