package analytic

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Location is one map marker returned by the report backend.
type Location struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count *int64  `json:"count,omitempty"`
	Label string  `json:"label,omitempty"`
}

// ReportSnapshot is the wholesale-replaced set of values for display.
// Absent fields are zero.
type ReportSnapshot struct {
	Impressions int64      `json:"impressions"`
	Sessions    int64      `json:"sessions"`
	Pofs        int64      `json:"pofs"`
	Locations   []Location `json:"locations"`
	FetchedAt   time.Time  `json:"fetchedAt,omitzero"`
}

// Clone returns a deep copy so callers never share the locations slice.
func (s ReportSnapshot) Clone() ReportSnapshot {
	out := s
	if len(s.Locations) > 0 {
		out.Locations = make([]Location, len(s.Locations))
		for i, loc := range s.Locations {
			out.Locations[i] = loc
			if loc.Count != nil {
				count := *loc.Count
				out.Locations[i].Count = &count
			}
		}
	}
	return out
}

// Field returns the value of a snapshot field by its wire name.
func (s ReportSnapshot) Field(name string) (int64, bool) {
	switch name {
	case "impressions":
		return s.Impressions, true
	case "sessions":
		return s.Sessions, true
	case "pofs":
		return s.Pofs, true
	}
	return 0, false
}

// DecodeReportPayload normalizes the accepted backend shapes into a
// snapshot. A body of {result:{status,totals}} or {status,totals} with a
// truthy status yields the totals; anything else is read as the totals
// object itself.
func DecodeReportPayload(body []byte) (ReportSnapshot, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return ReportSnapshot{}, nil
	}
	var raw map[string]any
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return ReportSnapshot{}, fmt.Errorf("analytic: decode report payload: %w", err)
	}
	return SnapshotFromMap(unwrapTotals(raw)), nil
}

func unwrapTotals(raw map[string]any) map[string]any {
	if result, ok := raw["result"].(map[string]any); ok {
		if truthy(result["status"]) {
			if totals, ok := result["totals"].(map[string]any); ok {
				return totals
			}
			return map[string]any{}
		}
	}
	if _, ok := raw["status"]; ok {
		if truthy(raw["status"]) {
			if totals, ok := raw["totals"].(map[string]any); ok {
				return totals
			}
		}
	}
	return raw
}

// SnapshotFromMap reads the totals object leniently: numbers may arrive as
// JSON numbers or numeric strings and unknown keys are ignored.
func SnapshotFromMap(totals map[string]any) ReportSnapshot {
	snap := ReportSnapshot{
		Impressions: toInt64(totals["impressions"]),
		Sessions:    toInt64(totals["sessions"]),
		Pofs:        toInt64(totals["pofs"]),
	}
	items, _ := totals["locations"].([]any)
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		lat, okLat := toFloat(entry["lat"])
		lng, okLng := toFloat(firstPresent(entry, "lng", "lon"))
		if !okLat || !okLng {
			continue
		}
		loc := Location{Lat: lat, Lng: lng}
		if v, ok := entry["count"]; ok && v != nil {
			count := toInt64(v)
			loc.Count = &count
		}
		if label, ok := entry["label"].(string); ok {
			loc.Label = label
		}
		snap.Locations = append(snap.Locations, loc)
	}
	return snap
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "false" && t != "0"
	case nil:
		return false
	}
	return true
}

func toInt64(v any) int64 {
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	return int64(f)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
