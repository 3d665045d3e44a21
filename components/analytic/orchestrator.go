package analytic

import (
	"context"
	"sync"
	"time"
)

// DefaultSnapshotTTL bounds how long a fetched snapshot is reused for an
// identical request.
const DefaultSnapshotTTL = 5 * time.Minute

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	AnalyticID string
	Client     ReportClient
	Telemetry  Telemetry
	Cache      *TTLCache[ReportSnapshot]
	Clock      Clock
	// Filter replaces the default current month filter when set.
	Filter     *DateFilter
	OnSnapshot func(ctx context.Context, snap ReportSnapshot)
}

// Orchestrator turns (config, filter) into report fetches and keeps the
// latest snapshot. Only the newest request may apply its result: older
// responses are discarded with ErrSuperseded and nothing applies after
// Close.
type Orchestrator struct {
	client     ReportClient
	telemetry  Telemetry
	cache      *TTLCache[ReportSnapshot]
	clock      Clock
	onSnapshot func(ctx context.Context, snap ReportSnapshot)
	analyticID string

	mu         sync.Mutex
	cfg        Config
	filter     DateFilter
	snapshot   *ReportSnapshot
	issuedKey  string
	seq        uint64
	cancel     context.CancelFunc
	closed     bool
	lastErr    error
	fetchCount int
}

// NewOrchestrator prepares an orchestrator with the default (or supplied)
// filter. No fetch happens until Start. An unresolvable filter falls back
// to the default.
func NewOrchestrator(cfg Config, opts OrchestratorOptions) *Orchestrator {
	clock := normalizeClock(opts.Clock)
	cache := opts.Cache
	if cache == nil {
		cache = NewTTLCache[ReportSnapshot](DefaultSnapshotTTL).WithClock(clock)
	}
	filter := DefaultFilter(clock())
	if opts.Filter != nil {
		if resolved, err := opts.Filter.Resolve(clock()); err == nil {
			filter = resolved
		}
	}
	return &Orchestrator{
		client:     opts.Client,
		telemetry:  normalizeTelemetry(opts.Telemetry),
		cache:      cache,
		clock:      clock,
		onSnapshot: opts.OnSnapshot,
		analyticID: opts.AnalyticID,
		cfg:        cfg.Clone(),
		filter:     filter,
	}
}

// Start issues the first fetch with the current (default) filter.
func (o *Orchestrator) Start(ctx context.Context) (ReportSnapshot, error) {
	return o.fetch(ctx, false)
}

// SetFilter replaces the filter wholesale and refetches.
func (o *Orchestrator) SetFilter(ctx context.Context, filter DateFilter) (ReportSnapshot, error) {
	resolved, err := filter.Resolve(o.clock())
	if err != nil {
		return o.Snapshot(), err
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ReportSnapshot{}, ErrClosed
	}
	o.filter = resolved
	o.mu.Unlock()
	return o.fetch(ctx, false)
}

// SetConfig swaps the config. A fetch is issued only when the derived
// request changes.
func (o *Orchestrator) SetConfig(ctx context.Context, cfg Config) (ReportSnapshot, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ReportSnapshot{}, ErrClosed
	}
	o.cfg = cfg.Clone()
	unchanged := o.issuedKey != "" && DeriveRequest(o.cfg, o.filter).Key() == o.issuedKey
	o.mu.Unlock()
	if unchanged {
		return o.Snapshot(), nil
	}
	return o.fetch(ctx, false)
}

// Refresh refetches the current request; force bypasses the cache.
func (o *Orchestrator) Refresh(ctx context.Context, force bool) (ReportSnapshot, error) {
	return o.fetch(ctx, force)
}

// Snapshot returns the last applied snapshot, or the zero snapshot before
// the first successful fetch.
func (o *Orchestrator) Snapshot() ReportSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.snapshot == nil {
		return ReportSnapshot{}
	}
	return o.snapshot.Clone()
}

// HasSnapshot reports whether any fetch has succeeded.
func (o *Orchestrator) HasSnapshot() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot != nil
}

// Filter returns the current filter.
func (o *Orchestrator) Filter() DateFilter {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filter
}

// Request returns the request the current state derives.
func (o *Orchestrator) Request() ReportRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return DeriveRequest(o.cfg, o.filter)
}

// LastError returns the most recent fetch failure, cleared on success.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Fetches counts requests sent to the client.
func (o *Orchestrator) Fetches() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fetchCount
}

// Close cancels any in-flight fetch; later results are dropped.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator) fetch(ctx context.Context, force bool) (ReportSnapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ReportSnapshot{}, ErrClosed
	}
	req := DeriveRequest(o.cfg, o.filter)
	key := req.Key()
	o.seq++
	seq := o.seq
	o.issuedKey = key
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if !force {
		if cached, ok := o.cache.Get(key); ok {
			o.applyLocked(cached)
			o.mu.Unlock()
			return cached.Clone(), nil
		}
	}
	if o.client == nil {
		o.keepLastGoodLocked(key)
		o.mu.Unlock()
		return o.Snapshot(), &FetchError{Op: "report fetch", Err: errNoClient}
	}
	if err := req.Validate(); err != nil {
		o.lastErr = &FetchError{Op: "report request", Err: err}
		err := o.lastErr
		o.mu.Unlock()
		o.telemetry.Record(ctx, EventReportFailed, o.eventPayload(req, err))
		return o.Snapshot(), err
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.fetchCount++
	o.mu.Unlock()
	defer cancel()

	started := o.clock()
	snap, err := o.client.FetchReport(fetchCtx, req)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ReportSnapshot{}, ErrClosed
	}
	if seq != o.seq {
		o.mu.Unlock()
		o.telemetry.Record(ctx, EventReportStale, o.eventPayload(req, nil))
		return o.Snapshot(), ErrSuperseded
	}
	o.cancel = nil
	if err != nil {
		o.lastErr = &FetchError{Op: "report fetch", Err: err}
		ferr := o.lastErr
		o.keepLastGoodLocked(key)
		o.mu.Unlock()
		o.telemetry.Record(ctx, EventReportFailed, o.eventPayload(req, err))
		return o.Snapshot(), ferr
	}
	snap.FetchedAt = o.clock()
	o.cache.Set(key, snap.Clone())
	o.applyLocked(snap)
	o.mu.Unlock()

	payload := o.eventPayload(req, nil)
	payload["duration_ms"] = o.clock().Sub(started).Milliseconds()
	o.telemetry.Record(ctx, EventReportFetched, payload)
	if o.onSnapshot != nil {
		o.onSnapshot(ctx, snap.Clone())
	}
	return snap.Clone(), nil
}

func (o *Orchestrator) applyLocked(snap ReportSnapshot) {
	applied := snap.Clone()
	o.snapshot = &applied
	o.lastErr = nil
}

// keepLastGoodLocked adopts the last snapshot stored for key, even an
// expired one, when a failed fetch leaves the orchestrator with nothing to
// show. A snapshot already applied is never replaced.
func (o *Orchestrator) keepLastGoodLocked(key string) {
	if o.snapshot != nil {
		return
	}
	if stale, ok := o.cache.Stale(key); ok {
		kept := stale.Clone()
		o.snapshot = &kept
	}
}

func (o *Orchestrator) eventPayload(req ReportRequest, err error) map[string]any {
	payload := map[string]any{
		"analytic_id": o.analyticID,
		"start_date":  req.StartDate,
		"end_date":    req.EndDate,
		"platform":    req.Platform,
		"is_map":      req.IsMap,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	return payload
}
