package reports

import (
	"context"
	"hash/fnv"
	"sync"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
)

// MockClient returns deterministic snapshots derived from the request so
// demos and tests get stable numbers without a backend.
type MockClient struct {
	mu       sync.Mutex
	requests []analytic.ReportRequest
	err      error
}

var _ analytic.ReportClient = (*MockClient)(nil)

// NewMockClient builds a mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// FailWith makes subsequent fetches return err; nil restores success.
func (m *MockClient) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Requests returns every request received so far.
func (m *MockClient) Requests() []analytic.ReportRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]analytic.ReportRequest(nil), m.requests...)
}

// FetchReport implements analytic.ReportClient.
func (m *MockClient) FetchReport(ctx context.Context, req analytic.ReportRequest) (analytic.ReportSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return analytic.ReportSnapshot{}, err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return analytic.ReportSnapshot{}, err
	}

	seed := int64(hashRequest(req) % 100000)
	snap := analytic.ReportSnapshot{
		Impressions: 100000 + seed*7,
		Sessions:    20000 + seed,
		Pofs:        500 + seed%997,
	}
	if req.IsMap {
		snap.Locations = mockLocations(snap.Pofs)
	}
	return snap, nil
}

var mockPoints = []struct {
	label    string
	lat, lng float64
}{
	{"Lagos", 6.5244, 3.3792},
	{"Manila", 14.5995, 120.9842},
	{"São Paulo", -23.5505, -46.6333},
	{"Dallas", 32.7767, -96.7970},
	{"Houston", 29.7604, -95.3698},
	{"Nairobi", -1.2921, 36.8219},
}

func mockLocations(total int64) []analytic.Location {
	out := make([]analytic.Location, 0, len(mockPoints))
	share := total / int64(len(mockPoints))
	for _, point := range mockPoints {
		count := share
		out = append(out, analytic.Location{Lat: point.lat, Lng: point.lng, Count: &count, Label: point.label})
	}
	return out
}

func hashRequest(req analytic.ReportRequest) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(req.Key()))
	return h.Sum32()
}
