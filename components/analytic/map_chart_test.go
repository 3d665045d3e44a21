package analytic

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRenderCache struct {
	inner *TTLCache[string]
	loads int
}

func (c *countingRenderCache) GetOrLoad(key string, load func() (string, error)) (string, error) {
	return c.inner.GetOrLoad(key, func() (string, error) {
		c.loads++
		return load()
	})
}

func TestEChartsMapRendererDrawsMarkers(t *testing.T) {
	renderer := NewEChartsMapRenderer(WithMapAssetsHost("https://cdn.example.com/echarts"))
	html, err := renderer.RenderMap(context.Background(), MapInput{
		AnalyticID: "a1",
		Markers:    []Marker{{Lat: 30.27, Lng: -97.74, Count: 12, Label: "Austin"}},
		Scheme:     SchemeDark,
		HeightPx:   440,
	})
	require.NoError(t, err)
	assert.Contains(t, html, "https://cdn.example.com/echarts/")
	assert.Contains(t, html, "Austin")
	assert.Contains(t, html, "440px")
	assert.Contains(t, html, "world")
}

func TestEChartsMapRendererFocusesUnitedStates(t *testing.T) {
	renderer := NewEChartsMapRenderer()
	html, err := renderer.RenderMap(context.Background(), MapInput{
		AnalyticID:       "a1",
		HighlightCountry: &Ref{ID: CountryUnitedStates},
		StateName:        &Ref{ID: "Texas"},
	})
	require.NoError(t, err)
	assert.Contains(t, html, usaMap)
}

func TestEChartsMapRendererCachesOutput(t *testing.T) {
	cache := &countingRenderCache{inner: NewTTLCache[string](DefaultSnapshotTTL)}
	renderer := NewEChartsMapRenderer(WithMapCache(cache))
	in := MapInput{AnalyticID: "a1", Markers: []Marker{{Lat: 1, Lng: 2}}}

	first, err := renderer.RenderMap(context.Background(), in)
	require.NoError(t, err)
	second, err := renderer.RenderMap(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.loads)

	in.Markers = append(in.Markers, Marker{Lat: 3, Lng: 4})
	_, err = renderer.RenderMap(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.loads)
}

func TestDefaultEChartsAssetsHost(t *testing.T) {
	t.Setenv(envEChartsCDN, "https://assets.example.com")
	assert.Equal(t, "https://assets.example.com/", DefaultEChartsAssetsHost())

	t.Setenv(envEChartsCDN, "")
	assert.Empty(t, DefaultEChartsAssetsHost())
	assert.True(t, strings.HasSuffix(ensureTrailingSlash("x"), "/"))
}
