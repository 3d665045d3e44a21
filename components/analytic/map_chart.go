package analytic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	// envEChartsCDN overrides where the ECharts runtime and map files load from.
	envEChartsCDN = "ANALYTIC_ECHARTS_CDN"

	worldMap = "world"
	usaMap   = "USA"
)

// MapInput is what the map region needs to draw its markers.
type MapInput struct {
	AnalyticID       string
	Markers          []Marker
	Scheme           ColorScheme
	HighlightCountry *Ref
	StateName        *Ref
	HeightPx         int
	ChartTheme       string
}

// MapRenderer turns markers into embeddable markup.
type MapRenderer interface {
	RenderMap(ctx context.Context, in MapInput) (string, error)
}

// EChartsMapRenderer renders a go-echarts geo scatter chart.
type EChartsMapRenderer struct {
	cache      RenderCache
	assetsHost string
}

// MapRendererOption customizes the renderer.
type MapRendererOption func(*EChartsMapRenderer)

// WithMapCache injects a render cache.
func WithMapCache(cache RenderCache) MapRendererOption {
	return func(r *EChartsMapRenderer) {
		r.cache = cache
	}
}

// WithMapAssetsHost points the chart scripts at a CDN or local path.
func WithMapAssetsHost(host string) MapRendererOption {
	return func(r *EChartsMapRenderer) {
		r.assetsHost = ensureTrailingSlash(host)
	}
}

// NewEChartsMapRenderer builds a renderer with a five minute cache.
func NewEChartsMapRenderer(options ...MapRendererOption) *EChartsMapRenderer {
	r := &EChartsMapRenderer{
		cache:      NewTTLCache[string](5 * time.Minute),
		assetsHost: DefaultEChartsAssetsHost(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// RenderMap implements MapRenderer.
func (r *EChartsMapRenderer) RenderMap(_ context.Context, in MapInput) (string, error) {
	render := func() (string, error) {
		return r.render(in)
	}
	if r.cache == nil {
		return render()
	}
	return r.cache.GetOrLoad("map:"+in.AnalyticID+":"+hashOf(in), render)
}

func (r *EChartsMapRenderer) render(in MapInput) (string, error) {
	mapName := worldMap
	if !in.StateName.IsZero() && !in.HighlightCountry.IsZero() && in.HighlightCountry.ID == CountryUnitedStates {
		mapName = usaMap
	}
	height := in.HeightPx
	if height <= 0 {
		height = MinHeight
	}
	theme := in.ChartTheme
	if theme == "" {
		theme = chartThemeFor(in.Scheme)
	}
	initOpts := opts.Initialization{
		Theme:           theme,
		Width:           "100%",
		Height:          fmt.Sprintf("%dpx", height),
		BackgroundColor: "transparent",
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	geo := charts.NewGeo()
	geo.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithGeoComponentOpts(opts.GeoComponent{Map: mapName}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	geo.AddSeries("locations", types.ChartScatter, toGeoData(in.Markers))
	return renderChart(geo)
}

func toGeoData(markers []Marker) []opts.GeoData {
	data := make([]opts.GeoData, len(markers))
	for i, marker := range markers {
		name := marker.Label
		if name == "" {
			name = fmt.Sprintf("%.4f,%.4f", marker.Lat, marker.Lng)
		}
		data[i] = opts.GeoData{
			Name:  name,
			Value: []float64{marker.Lng, marker.Lat, float64(marker.Count)},
		}
	}
	return data
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", fmt.Errorf("analytic: render chart: %w", err)
	}
	return buf.String(), nil
}

func chartThemeFor(scheme ColorScheme) string {
	if scheme == SchemeDark {
		return types.ThemeChalk
	}
	return types.ThemeWesteros
}

// DefaultEChartsAssetsHost returns the assets host, honoring
// ANALYTIC_ECHARTS_CDN when set. Empty means the go-echarts default.
func DefaultEChartsAssetsHost() string {
	return ensureTrailingSlash(strings.TrimSpace(os.Getenv(envEChartsCDN)))
}

func ensureTrailingSlash(value string) string {
	if value == "" || strings.HasSuffix(value, "/") {
		return value
	}
	return value + "/"
}
