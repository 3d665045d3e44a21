package analytic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReportPayloadShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want ReportSnapshot
	}{
		{
			name: "wrapped result",
			body: `{"result":{"status":true,"totals":{"impressions":"1200","sessions":34,"pofs":2}}}`,
			want: ReportSnapshot{Impressions: 1200, Sessions: 34, Pofs: 2},
		},
		{
			name: "status envelope",
			body: `{"status":1,"totals":{"impressions":5}}`,
			want: ReportSnapshot{Impressions: 5},
		},
		{
			name: "bare totals",
			body: `{"impressions":9,"sessions":"3","extra":"ignored"}`,
			want: ReportSnapshot{Impressions: 9, Sessions: 3},
		},
		{
			name: "failed result",
			body: `{"result":{"status":false,"totals":{"impressions":9}}}`,
			want: ReportSnapshot{},
		},
		{
			name: "empty body",
			body: "  ",
			want: ReportSnapshot{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap, err := DecodeReportPayload([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, snap)
		})
	}
}

func TestDecodeReportPayloadInvalidJSON(t *testing.T) {
	_, err := DecodeReportPayload([]byte(`{"impressions":`))
	assert.Error(t, err)
}

func TestSnapshotLocations(t *testing.T) {
	snap, err := DecodeReportPayload([]byte(`{"locations":[
		{"lat":30.26,"lng":-97.74,"count":"12","label":"Austin"},
		{"lat":"19.43","lon":-99.13},
		{"lat":1.0},
		"garbage"
	]}`))
	require.NoError(t, err)
	require.Len(t, snap.Locations, 2)

	austin := snap.Locations[0]
	require.NotNil(t, austin.Count)
	assert.Equal(t, int64(12), *austin.Count)
	assert.Equal(t, "Austin", austin.Label)

	mexico := snap.Locations[1]
	assert.Nil(t, mexico.Count)
	assert.InDelta(t, -99.13, mexico.Lng, 0.0001)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	count := int64(4)
	snap := ReportSnapshot{Locations: []Location{{Lat: 1, Lng: 2, Count: &count}}}
	clone := snap.Clone()
	*clone.Locations[0].Count = 99
	clone.Locations[0].Lat = 50

	assert.Equal(t, int64(4), *snap.Locations[0].Count)
	assert.Equal(t, float64(1), snap.Locations[0].Lat)
}

func TestSnapshotField(t *testing.T) {
	snap := ReportSnapshot{Impressions: 1, Sessions: 2, Pofs: 3}
	value, ok := snap.Field("pofs")
	require.True(t, ok)
	assert.Equal(t, int64(3), value)
	_, ok = snap.Field("clicks")
	assert.False(t, ok)
}
