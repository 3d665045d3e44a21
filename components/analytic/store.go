package analytic

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const listCacheKey = "__list__"

// InMemoryConfigStore keeps analytics in memory.
type InMemoryConfigStore struct {
	mu      sync.RWMutex
	records map[string]Analytic
	now     Clock
}

// NewInMemoryConfigStore builds an empty store.
func NewInMemoryConfigStore() *InMemoryConfigStore {
	return &InMemoryConfigStore{
		records: make(map[string]Analytic),
		now:     time.Now,
	}
}

// Create stores a new analytic under a generated id.
func (s *InMemoryConfigStore) Create(_ context.Context, name string, cfg Config) (Analytic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := Analytic{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Config:    cfg.Clone(),
		UpdatedAt: s.now(),
	}
	s.records[record.ID] = record
	return cloneAnalytic(record), nil
}

// Put stores an analytic under its own id, replacing any existing record.
func (s *InMemoryConfigStore) Put(record Analytic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	s.records[record.ID] = cloneAnalytic(record)
}

// Load implements ConfigStore.
func (s *InMemoryConfigStore) Load(_ context.Context, id string) (Analytic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return Analytic{}, &NotFoundError{ID: id}
	}
	return cloneAnalytic(record), nil
}

// Update replaces the configuration of an existing analytic.
func (s *InMemoryConfigStore) Update(_ context.Context, id string, cfg Config) (Analytic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return Analytic{}, &NotFoundError{ID: id}
	}
	record.Config = cfg.Clone()
	record.UpdatedAt = s.now()
	s.records[id] = record
	return cloneAnalytic(record), nil
}

// List returns every analytic ordered by name.
func (s *InMemoryConfigStore) List(context.Context) ([]Analytic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Analytic, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, cloneAnalytic(record))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// CachedConfigStore caches reads of another store. Updates invalidate the
// record and the listing.
type CachedConfigStore struct {
	next    ConfigStore
	records *TTLCache[Analytic]
	lists   *TTLCache[[]Analytic]
}

// NewCachedConfigStore wraps a store with TTL caches.
func NewCachedConfigStore(next ConfigStore, ttl time.Duration) *CachedConfigStore {
	return &CachedConfigStore{
		next:    next,
		records: NewTTLCache[Analytic](ttl),
		lists:   NewTTLCache[[]Analytic](ttl),
	}
}

// Load implements ConfigStore.
func (c *CachedConfigStore) Load(ctx context.Context, id string) (Analytic, error) {
	record, err := c.records.GetOrLoad(id, func() (Analytic, error) {
		return c.next.Load(ctx, id)
	})
	if err != nil {
		return Analytic{}, err
	}
	return cloneAnalytic(record), nil
}

// Update implements ConfigStore.
func (c *CachedConfigStore) Update(ctx context.Context, id string, cfg Config) (Analytic, error) {
	record, err := c.next.Update(ctx, id, cfg)
	c.Invalidate(id)
	if err != nil {
		return Analytic{}, err
	}
	return record, nil
}

// List implements ConfigStore.
func (c *CachedConfigStore) List(ctx context.Context) ([]Analytic, error) {
	records, err := c.lists.GetOrLoad(listCacheKey, func() ([]Analytic, error) {
		return c.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make([]Analytic, len(records))
	for i, record := range records {
		out[i] = cloneAnalytic(record)
	}
	return out, nil
}

// Invalidate drops the cached record and every cached listing.
func (c *CachedConfigStore) Invalidate(id string) {
	c.records.Delete(id)
	c.lists.Purge()
}

func cloneAnalytic(record Analytic) Analytic {
	record.Config = record.Config.Clone()
	return record
}
