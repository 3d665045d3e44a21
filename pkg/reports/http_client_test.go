package reports

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientFetchReport(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultReportsPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(body, &payload))
		_, _ = w.Write([]byte(`{"result":{"status":true,"totals":{"impressions":"1200","sessions":30,"pofs":4,"locations":[{"lat":1.5,"lon":2.5,"count":3}]}}}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/", APIKey: "secret"})
	require.NoError(t, err)

	snap, err := client.FetchReport(context.Background(), analytic.ReportRequest{
		StartDate: "2026-10-01",
		EndDate:   "2026-10-16",
		Platform:  "tiktok",
		IsMap:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1200), snap.Impressions)
	assert.Equal(t, int64(30), snap.Sessions)
	assert.Equal(t, int64(4), snap.Pofs)
	require.Len(t, snap.Locations, 1)
	assert.Equal(t, 2.5, snap.Locations[0].Lng)
	assert.Equal(t, "tiktok", payload["platform"])
	assert.Equal(t, true, payload["isMap"])
	assert.NotContains(t, payload, "highlightCountry")
	assert.NotContains(t, payload, "state_name")
}

func TestHTTPClientRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.FetchReport(context.Background(), analytic.ReportRequest{StartDate: "2026-10-01", EndDate: "2026-10-02"})
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusServiceUnavailable, remote.Status)
	assert.Contains(t, remote.Body, "upstream unavailable")
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	require.Error(t, err)
}

func TestMockClientIsDeterministic(t *testing.T) {
	client := NewMockClient()
	req := analytic.ReportRequest{StartDate: "2026-10-01", EndDate: "2026-10-16", IsMap: true}

	first, err := client.FetchReport(context.Background(), req)
	require.NoError(t, err)
	second, err := client.FetchReport(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Impressions, second.Impressions)
	assert.NotEmpty(t, first.Locations)
	assert.Len(t, client.Requests(), 2)

	client.FailWith(errors.New("down"))
	_, err = client.FetchReport(context.Background(), req)
	require.Error(t, err)
}
