package analytic

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of filter dates.
const DateLayout = "2006-01-02"

// FilterKind distinguishes relative presets from fixed ranges.
type FilterKind string

const (
	FilterPreset FilterKind = "preset"
	FilterCustom FilterKind = "custom"
)

// Preset names a range computed relative to now.
type Preset string

const (
	PresetCurrentMonth Preset = "currentMonth"
	PresetLastMonth    Preset = "lastMonth"
	PresetLast7Days    Preset = "last7Days"
	PresetLast30Days   Preset = "last30Days"
	PresetLast90Days   Preset = "last90Days"
	PresetCurrentYear  Preset = "currentYear"
)

// Presets lists the supported presets in display order.
func Presets() []Preset {
	return []Preset{PresetCurrentMonth, PresetLastMonth, PresetLast7Days, PresetLast30Days, PresetLast90Days, PresetCurrentYear}
}

// DateFilter is the session scoped range the report is fetched for. It is
// replaced wholesale on every change.
type DateFilter struct {
	Kind      FilterKind `json:"kind"`
	Preset    Preset     `json:"preset,omitempty"`
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
}

// Clock returns the current time; tests inject fixed clocks.
type Clock func() time.Time

func normalizeClock(clock Clock) Clock {
	if clock == nil {
		return time.Now
	}
	return clock
}

// DefaultFilter is the current calendar month up to today.
func DefaultFilter(now time.Time) DateFilter {
	filter, _ := PresetFilter(PresetCurrentMonth, now)
	return filter
}

// PresetFilter computes a preset range relative to now.
func PresetFilter(preset Preset, now time.Time) (DateFilter, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var start, end time.Time
	switch preset {
	case PresetCurrentMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		end = today
	case PresetLastMonth:
		firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		start = firstOfMonth.AddDate(0, -1, 0)
		end = firstOfMonth.AddDate(0, 0, -1)
	case PresetLast7Days:
		start, end = today.AddDate(0, 0, -6), today
	case PresetLast30Days:
		start, end = today.AddDate(0, 0, -29), today
	case PresetLast90Days:
		start, end = today.AddDate(0, 0, -89), today
	case PresetCurrentYear:
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		end = today
	default:
		return DateFilter{}, fmt.Errorf("analytic: unknown date preset %q", preset)
	}
	return DateFilter{
		Kind:      FilterPreset,
		Preset:    preset,
		StartDate: start.Format(DateLayout),
		EndDate:   end.Format(DateLayout),
	}, nil
}

// CustomFilter builds a fixed range. Dates must be ISO and ordered.
func CustomFilter(start, end string) (DateFilter, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateFilter{}, fmt.Errorf("analytic: invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateFilter{}, fmt.Errorf("analytic: invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return DateFilter{}, fmt.Errorf("analytic: end date %s is before start date %s", end, start)
	}
	return DateFilter{Kind: FilterCustom, StartDate: start, EndDate: end}, nil
}

// Resolve recomputes preset ranges against now; custom ranges are
// returned unchanged.
func (f DateFilter) Resolve(now time.Time) (DateFilter, error) {
	switch f.Kind {
	case FilterCustom:
		return CustomFilter(f.StartDate, f.EndDate)
	case FilterPreset, "":
		preset := f.Preset
		if preset == "" {
			preset = PresetCurrentMonth
		}
		return PresetFilter(preset, now)
	}
	return DateFilter{}, fmt.Errorf("analytic: unknown filter kind %q", f.Kind)
}

// ParseFilter builds a filter from transport parameters. Explicit dates win
// over a preset; no parameters at all returns nil, meaning the default.
func ParseFilter(preset, start, end string) (*DateFilter, error) {
	if start != "" || end != "" {
		filter, err := CustomFilter(start, end)
		if err != nil {
			return nil, err
		}
		return &filter, nil
	}
	if preset == "" || preset == string(FilterCustom) {
		return nil, nil
	}
	for _, known := range Presets() {
		if string(known) == preset {
			return &DateFilter{Kind: FilterPreset, Preset: known}, nil
		}
	}
	return nil, fmt.Errorf("analytic: unknown date preset %q", preset)
}
