package analytic

import (
	"fmt"
	"sort"
	"sync"
)

const (
	MinWidth      = 300
	MaxWidth      = 1200
	MinHeight     = 400
	DefaultWidth  = 600
	DefaultHeight = 600

	// GridUnits is the number of columns spans are expressed in.
	GridUnits = 12
	// StackedRowBreakpoint is the width at which the stacked-row variant
	// places metrics and map side by side.
	StackedRowBreakpoint = 900

	sidebarSpan          = 3
	stackedRowMetricSpan = 5
	stackedRowMapSpan    = 7
	stackedColumnMapPx   = 400
	classicMetricsBandPx = 160

	// EmptySelectionMessage replaces the metrics grid when nothing is selected.
	EmptySelectionMessage = "No report items selected."
	// Footnote is shown under every widget.
	Footnote = "Numbers are updated hourly, except for TikTok which is typically 1-2 days behind."
	titleSuffixPOF = " - Professions of Faith"
)

// RegionKind names a logical region of the widget.
type RegionKind string

const (
	RegionMetrics RegionKind = "metrics"
	RegionMap     RegionKind = "map"
	// RegionTitle anchors the filter toggle when no region is visible.
	RegionTitle RegionKind = "title"
)

// Direction is the flow axis of the top level regions.
type Direction string

const (
	DirectionRow    Direction = "row"
	DirectionColumn Direction = "column"
)

// Placement describes how a region is positioned.
type Placement string

const (
	PlacementFlow  Placement = "flow"
	PlacementFixed Placement = "fixed"
)

// Marker is a map location ready for rendering.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int64   `json:"count"`
	Label string  `json:"label,omitempty"`
}

// Region is one placed block of the widget.
type Region struct {
	Kind              RegionKind   `json:"kind"`
	Span              int          `json:"span"`
	WidthPx           int          `json:"widthPx"`
	HeightPx          int          `json:"heightPx,omitempty"`
	Order             int          `json:"order"`
	Placement         Placement    `json:"placement"`
	Columns           int          `json:"columns,omitempty"`
	Cards             []MetricCard `json:"cards,omitempty"`
	EmptyState        string       `json:"emptyState,omitempty"`
	Markers           []Marker     `json:"markers,omitempty"`
	FullscreenTrigger bool         `json:"fullscreenTrigger,omitempty"`
}

// FilterToggle places the date filter control.
type FilterToggle struct {
	Anchor  RegionKind `json:"anchor"`
	Visible bool       `json:"visible"`
}

// Fullscreen describes the fullscreen affordance of an embed.
type Fullscreen struct {
	Available bool `json:"available"`
	Manual    bool `json:"manual"`
}

// Layout is the fully resolved structure of a widget.
type Layout struct {
	Variant          Variant      `json:"variant"`
	Width            int          `json:"width"`
	Height           int          `json:"height"`
	Direction        Direction    `json:"direction"`
	ColorScheme      ColorScheme  `json:"colorScheme"`
	Regions          []Region     `json:"regions"`
	FilterToggle     FilterToggle `json:"filterToggle"`
	Fullscreen       Fullscreen   `json:"fullscreen"`
	HighlightCountry *Ref         `json:"highlightCountry,omitempty"`
	StateName        *Ref         `json:"stateName,omitempty"`
	Title            string       `json:"title"`
	Footnote         string       `json:"footnote"`
}

// Region returns the region of the given kind.
func (l Layout) Region(kind RegionKind) (Region, bool) {
	for _, region := range l.Regions {
		if region.Kind == kind {
			return region, true
		}
	}
	return Region{}, false
}

// LayoutInput is everything a strategy may look at.
type LayoutInput struct {
	Name          string
	Config        Config
	Snapshot      *ReportSnapshot
	Mode          Mode
	ViewportWidth int
	Capabilities  Capabilities
	Locale        string
}

// RegionPlan is the output of the shared region policy that strategies
// arrange geometrically.
type RegionPlan struct {
	Width         int
	Height        int
	ViewportWidth int
	ShowMetrics   bool
	ShowMap       bool
	Columns       int
}

// AvailableWidth is the smaller of the resolved and reported viewport width.
func (p RegionPlan) AvailableWidth() int {
	if p.ViewportWidth > 0 && p.ViewportWidth < p.Width {
		return p.ViewportWidth
	}
	return p.Width
}

// RegionCount returns how many top level regions are visible.
func (p RegionPlan) RegionCount() int {
	n := 0
	if p.ShowMetrics {
		n++
	}
	if p.ShowMap {
		n++
	}
	return n
}

// LayoutStrategy arranges the visible regions. Strategies only decide
// geometry; content is filled in by the resolver.
type LayoutStrategy interface {
	Variant() Variant
	Arrange(plan RegionPlan) (Direction, []Region)
}

// ClampWidth bounds a width to [MinWidth, MaxWidth], defaulting zero.
func ClampWidth(width int) int {
	if width <= 0 {
		width = DefaultWidth
	}
	return min(max(width, MinWidth), MaxWidth)
}

// ClampHeight bounds a height to [MinHeight, ∞), defaulting zero.
func ClampHeight(height int) int {
	if height <= 0 {
		height = DefaultHeight
	}
	return max(height, MinHeight)
}

// RegionPolicy holds the predicates every strategy shares.
type RegionPolicy struct{}

// Plan derives visibility, clamps and grid sizing for a config.
func (RegionPolicy) Plan(cfg Config, viewport int) RegionPlan {
	return RegionPlan{
		Width:         ClampWidth(cfg.Width),
		Height:        ClampHeight(cfg.Height),
		ViewportWidth: viewport,
		ShowMetrics:   cfg.EmbedOption.ShowsMetrics(),
		ShowMap:       cfg.EmbedOption.ShowsMap(),
		Columns:       len(MappableItems(cfg.ReportItems)),
	}
}

// Title returns the widget heading for a config.
func (RegionPolicy) Title(name string, cfg Config) string {
	if hasItem(cfg.ReportItems, ItemProfessionsOfFaith) {
		return name + titleSuffixPOF
	}
	return name
}

// Markers converts snapshot locations to map markers.
func (RegionPolicy) Markers(snap *ReportSnapshot) []Marker {
	if snap == nil || len(snap.Locations) == 0 {
		return nil
	}
	markers := make([]Marker, 0, len(snap.Locations))
	for _, loc := range snap.Locations {
		marker := Marker{Lat: loc.Lat, Lng: loc.Lng, Label: loc.Label}
		if loc.Count != nil {
			marker.Count = *loc.Count
		}
		markers = append(markers, marker)
	}
	return markers
}

// LayoutResolver picks a strategy by variant and fills the regions.
type LayoutResolver struct {
	mu         sync.RWMutex
	strategies map[Variant]LayoutStrategy
	fallback   Variant
	policy     RegionPolicy
}

// NewLayoutResolver registers the given strategies, or the built-in four
// when none are supplied.
func NewLayoutResolver(strategies ...LayoutStrategy) *LayoutResolver {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	r := &LayoutResolver{
		strategies: make(map[Variant]LayoutStrategy, len(strategies)),
		fallback:   VariantClassic,
	}
	for _, strategy := range strategies {
		r.Register(strategy)
	}
	return r
}

// DefaultStrategies returns the built-in strategies.
func DefaultStrategies() []LayoutStrategy {
	return []LayoutStrategy{
		ClassicStrategy{},
		SidebarStrategy{},
		StackedRowStrategy{},
		StackedColumnStrategy{},
	}
}

// Register adds or replaces the strategy for its variant.
func (r *LayoutResolver) Register(strategy LayoutStrategy) {
	if strategy == nil {
		return
	}
	r.mu.Lock()
	r.strategies[strategy.Variant()] = strategy
	r.mu.Unlock()
}

// Strategy returns the strategy for a variant, falling back to classic.
func (r *LayoutResolver) Strategy(variant Variant) (LayoutStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if strategy, ok := r.strategies[variant]; ok {
		return strategy, nil
	}
	if strategy, ok := r.strategies[r.fallback]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("analytic: no layout strategy for variant %q", variant)
}

// Resolve produces the layout for the input. The config is used through its
// effective view so suppressed conditional fields never reach the output.
func (r *LayoutResolver) Resolve(in LayoutInput) (Layout, error) {
	cfg := in.Config.Effective()
	strategy, err := r.Strategy(cfg.Variant)
	if err != nil {
		return Layout{}, err
	}
	plan := r.policy.Plan(cfg, in.ViewportWidth)
	direction, regions := strategy.Arrange(plan)
	sort.SliceStable(regions, func(i, j int) bool { return regions[i].Order < regions[j].Order })

	embed := in.Mode == ModeEmbed
	manual := embed && in.Capabilities != nil && in.Capabilities.ManualTrigger()
	for i := range regions {
		switch regions[i].Kind {
		case RegionMetrics:
			regions[i].Cards = ResolveMetrics(cfg, in.Snapshot, in.Locale)
			if len(cfg.ReportItems) == 0 {
				regions[i].EmptyState = EmptySelectionMessage
				regions[i].Columns = 0
			}
		case RegionMap:
			regions[i].Markers = r.policy.Markers(in.Snapshot)
			regions[i].FullscreenTrigger = embed
		}
	}

	anchor := RegionTitle
	if len(regions) > 0 {
		anchor = regions[0].Kind
	}
	layout := Layout{
		Variant:          strategy.Variant(),
		Width:            plan.Width,
		Height:           plan.Height,
		Direction:        direction,
		ColorScheme:      cfg.ColorScheme,
		Regions:          regions,
		FilterToggle:     FilterToggle{Anchor: anchor, Visible: true},
		Fullscreen:       Fullscreen{Available: embed && plan.ShowMap, Manual: manual && plan.ShowMap},
		HighlightCountry: cfg.HighlightCountry,
		StateName:        cfg.StateName,
		Title:            r.policy.Title(in.Name, cfg),
		Footnote:         Footnote,
	}
	if layout.ColorScheme == "" {
		layout.ColorScheme = SchemeLight
	}
	return layout, nil
}

// ClassicStrategy stacks the metric cards above a full width map.
type ClassicStrategy struct{}

func (ClassicStrategy) Variant() Variant { return VariantClassic }

func (ClassicStrategy) Arrange(plan RegionPlan) (Direction, []Region) {
	var regions []Region
	mapHeight := plan.Height
	if plan.ShowMetrics {
		regions = append(regions, fullRow(RegionMetrics, plan, 0))
		regions[len(regions)-1].Columns = plan.Columns
		if plan.ShowMap {
			mapHeight = max(plan.Height-classicMetricsBandPx, MinHeight/2)
		}
	}
	if plan.ShowMap {
		region := fullRow(RegionMap, plan, 1)
		region.HeightPx = mapHeight
		regions = append(regions, region)
	}
	return DirectionColumn, regions
}

// SidebarStrategy pins metrics in a 3/12 sidebar with the map filling the
// remainder at full height.
type SidebarStrategy struct{}

func (SidebarStrategy) Variant() Variant { return VariantSidebar }

func (SidebarStrategy) Arrange(plan RegionPlan) (Direction, []Region) {
	if plan.RegionCount() < 2 {
		return DirectionColumn, singleRegion(plan)
	}
	sidebarWidth := spanWidth(plan.Width, sidebarSpan)
	return DirectionRow, []Region{
		{
			Kind:      RegionMetrics,
			Span:      sidebarSpan,
			WidthPx:   sidebarWidth,
			HeightPx:  plan.Height,
			Order:     0,
			Placement: PlacementFixed,
			Columns:   min(plan.Columns, 1),
		},
		{
			Kind:      RegionMap,
			Span:      GridUnits - sidebarSpan,
			WidthPx:   plan.Width - sidebarWidth,
			HeightPx:  plan.Height,
			Order:     1,
			Placement: PlacementFlow,
		},
	}
}

// StackedRowStrategy places metrics and map side by side (5/12, 7/12) on
// wide viewports and stacks them otherwise.
type StackedRowStrategy struct{}

func (StackedRowStrategy) Variant() Variant { return VariantStackedRow }

func (StackedRowStrategy) Arrange(plan RegionPlan) (Direction, []Region) {
	if plan.RegionCount() < 2 {
		return DirectionColumn, singleRegion(plan)
	}
	if plan.AvailableWidth() < StackedRowBreakpoint {
		metrics := fullRow(RegionMetrics, plan, 0)
		metrics.Columns = plan.Columns
		mapRegion := fullRow(RegionMap, plan, 1)
		mapRegion.HeightPx = plan.Height
		return DirectionColumn, []Region{metrics, mapRegion}
	}
	metricsWidth := spanWidth(plan.Width, stackedRowMetricSpan)
	return DirectionRow, []Region{
		{
			Kind:      RegionMetrics,
			Span:      stackedRowMetricSpan,
			WidthPx:   metricsWidth,
			HeightPx:  plan.Height,
			Order:     0,
			Placement: PlacementFlow,
			Columns:   plan.Columns,
		},
		{
			Kind:      RegionMap,
			Span:      stackedRowMapSpan,
			WidthPx:   plan.Width - metricsWidth,
			HeightPx:  plan.Height,
			Order:     1,
			Placement: PlacementFlow,
		},
	}
}

// StackedColumnStrategy puts the map on top and a metrics grid below, one
// column per mappable item.
type StackedColumnStrategy struct{}

func (StackedColumnStrategy) Variant() Variant { return VariantStackedColumn }

func (StackedColumnStrategy) Arrange(plan RegionPlan) (Direction, []Region) {
	var regions []Region
	if plan.ShowMap {
		region := fullRow(RegionMap, plan, 0)
		region.HeightPx = plan.Height
		if plan.ShowMetrics {
			region.HeightPx = min(stackedColumnMapPx, plan.Height)
		}
		regions = append(regions, region)
	}
	if plan.ShowMetrics {
		region := fullRow(RegionMetrics, plan, 1)
		region.Columns = plan.Columns
		regions = append(regions, region)
	}
	return DirectionColumn, regions
}

func fullRow(kind RegionKind, plan RegionPlan, order int) Region {
	return Region{
		Kind:      kind,
		Span:      GridUnits,
		WidthPx:   plan.Width,
		Order:     order,
		Placement: PlacementFlow,
	}
}

func singleRegion(plan RegionPlan) []Region {
	switch {
	case plan.ShowMetrics:
		region := fullRow(RegionMetrics, plan, 0)
		region.Columns = plan.Columns
		return []Region{region}
	case plan.ShowMap:
		region := fullRow(RegionMap, plan, 0)
		region.HeightPx = plan.Height
		return []Region{region}
	}
	return nil
}

func spanWidth(total, span int) int {
	return total * span / GridUnits
}

func hasItem(items []ReportItem, name string) bool {
	for _, item := range items {
		if item.Name == name {
			return true
		}
	}
	return false
}
