package catalogwatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	analytic "github.com/goliatone/go-analytics-embed/components/analytic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordingTelemetry) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

const catalogV1 = `version: "1"
platforms:
  - {id: All, name: All}
  - {id: "1", name: Facebook}
countries:
  - {id: United States, name: United States}
states:
  - {id: Texas, name: Texas}
`

const catalogV2 = `version: "1"
platforms:
  - {id: All, name: All}
  - {id: "1", name: Facebook}
  - {id: "2", name: TikTok}
countries:
  - {id: United States, name: United States}
states:
  - {id: Texas, name: Texas}
`

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogV1), 0o600))

	holder := analytic.NewCatalogHolder(nil)
	telemetry := &recordingTelemetry{}
	watcher, err := New(path, holder, telemetry)
	require.NoError(t, err)
	assert.Len(t, holder.Catalog().Platforms, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte(catalogV2), 0o600))
	assert.Eventually(t, func() bool {
		return len(holder.Catalog().Platforms) == 3
	}, 2*time.Second, 20*time.Millisecond)
	assert.True(t, telemetry.has(analytic.EventCatalogReloaded))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherKeepsCatalogOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogV1), 0o600))

	holder := analytic.NewCatalogHolder(nil)
	telemetry := &recordingTelemetry{}
	watcher, err := New(path, holder, telemetry)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("version: \"9\"\n"), 0o600))
	assert.Eventually(t, func() bool {
		return telemetry.has(EventCatalogFailed)
	}, 2*time.Second, 20*time.Millisecond)
	assert.Len(t, holder.Catalog().Platforms, 2)
	assert.Equal(t, 0, watcher.Reloads())
}

func TestNewRejectsMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"), analytic.NewCatalogHolder(nil), nil)
	require.Error(t, err)
}
