package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/connect-metrics/internal/cache"
	"github.com/ignite/connect-metrics/internal/daterange"
	"github.com/ignite/connect-metrics/internal/metrics"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
	"github.com/ignite/connect-metrics/internal/pkg/logger"
	"github.com/ignite/connect-metrics/internal/pkg/promstats"
)

// versionKey holds the time of the last upload. Entries computed before it
// are stale regardless of age.
const versionKey = "data_version"

// DefaultTTL is how long a computed view is served from cache.
const DefaultTTL = 30 * time.Minute

// Service computes and caches metrics views. It is safe for concurrent use.
type Service struct {
	source DataSource
	cache  cache.Store
	locks  Locker
	cfg    metrics.Config
	clock  clock.Clock
	ttl    time.Duration
	stats  *promstats.Metrics
}

// Options holds the optional collaborators of a Service. A nil Locks
// recomputes without coordination.
type Options struct {
	TTL   time.Duration
	Locks Locker
	Stats *promstats.Metrics
}

func NewService(source DataSource, store cache.Store, cfg metrics.Config, clk clock.Clock, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Service{
		source: source,
		cache:  store,
		locks:  opts.Locks,
		cfg:    cfg.WithDefaults(),
		clock:  clk,
		ttl:    opts.TTL,
		stats:  opts.Stats,
	}
}

// Result is one served view.
type Result struct {
	View        View
	Metrics     json.RawMessage
	LastUpdated time.Time
	Cached      bool
}

// MarshalJSON flattens the view's fields next to last_updated and cached.
func (r Result) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(r.Metrics) > 0 {
		if err := json.Unmarshal(r.Metrics, &fields); err != nil {
			return nil, fmt.Errorf("metrics payload is not an object: %w", err)
		}
	}
	ts, _ := json.Marshal(r.LastUpdated)
	cached, _ := json.Marshal(r.Cached)
	fields["last_updated"] = ts
	fields["cached"] = cached
	return json.Marshal(fields)
}

func cacheKey(view View, filter daterange.Filter, p Params) string {
	key := cache.Key(string(view), string(filter))
	if view == ViewAttempts && p.ListName != "" {
		key += ":list=" + p.ListName
	}
	return key
}

// Get serves view from cache when fresh, otherwise recomputes it.
func (s *Service) Get(ctx context.Context, view View, filter daterange.Filter, p Params) (Result, error) {
	if _, err := ParseView(string(view)); err != nil {
		return Result{}, err
	}
	key := cacheKey(view, filter, p)

	entry, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrMiss):
		s.stats.CacheLookup(string(view), "miss")
	default:
		logger.Warn("cache read failed", "key", key, "backend", s.cache.Name(), "error", err)
		s.stats.CacheLookup(string(view), "error")
	}
	haveEntry := err == nil && len(entry.Metrics) > 0
	if haveEntry && s.fresh(ctx, entry) {
		s.stats.CacheLookup(string(view), "hit")
		logger.Debug("serving cached view", "key", key, "age", s.clock.Now().Sub(entry.LastUpdated).String())
		return Result{View: view, Metrics: entry.Metrics, LastUpdated: entry.LastUpdated, Cached: true}, nil
	}
	if haveEntry {
		s.stats.CacheLookup(string(view), "stale")
	}

	release, acquired := s.acquire(ctx, key)
	defer release()
	if !acquired {
		if haveEntry {
			return Result{View: view, Metrics: entry.Metrics, LastUpdated: entry.LastUpdated, Cached: true}, nil
		}
		return s.recompute(ctx, view, filter, p, "")
	}
	return s.recompute(ctx, view, filter, p, key)
}

// Refresh recomputes view and stores it, bypassing the cached copy.
func (s *Service) Refresh(ctx context.Context, view View, filter daterange.Filter, p Params) (Result, error) {
	if _, err := ParseView(string(view)); err != nil {
		return Result{}, err
	}
	key := cacheKey(view, filter, p)
	release, acquired := s.acquire(ctx, key)
	defer release()
	if !acquired {
		logger.Info("refresh skipped, recompute in progress elsewhere", "key", key)
		return Result{}, nil
	}
	return s.recompute(ctx, view, filter, p, key)
}

// Invalidate marks every cached view stale. Called after an upload.
func (s *Service) Invalidate(ctx context.Context) error {
	marker := cache.Entry{Metrics: json.RawMessage(`{}`), LastUpdated: s.clock.Now()}
	if err := s.cache.Put(ctx, versionKey, marker); err != nil {
		return fmt.Errorf("write data version: %w", err)
	}
	var keys []string
	for _, v := range Views {
		for _, f := range []daterange.Filter{daterange.All, daterange.Today, daterange.Week, daterange.Month} {
			keys = append(keys, cacheKey(v, f, Params{}))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Warn("cache delete failed", "backend", s.cache.Name(), "error", err)
	}
	logger.Info("metrics cache invalidated", "backend", s.cache.Name())
	return nil
}

func (s *Service) fresh(ctx context.Context, e cache.Entry) bool {
	if !e.Fresh(s.ttl, s.clock.Now()) {
		return false
	}
	marker, err := s.cache.Get(ctx, versionKey)
	if err != nil {
		return true
	}
	return !e.LastUpdated.Before(marker.LastUpdated)
}

// acquire takes the recompute lock for key. Without a locker, or when the
// lock backend errors, it proceeds as if the lock was taken.
func (s *Service) acquire(ctx context.Context, key string) (release func(), acquired bool) {
	noop := func() {}
	if s.locks == nil {
		return noop, true
	}
	lock := s.locks.Lock("recompute:" + key)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		logger.Warn("recompute lock unavailable", "key", key, "error", err)
		return noop, true
	}
	if !ok {
		return noop, false
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("recompute lock release failed", "key", key, "error", err)
		}
	}, true
}

// recompute loads and computes view. A non-empty key stores the result.
// The entry is stamped with the time the load started so an upload that
// lands mid-load still marks it stale.
func (s *Service) recompute(ctx context.Context, view View, filter daterange.Filter, p Params, key string) (Result, error) {
	start := time.Now()
	computedAt := s.clock.Now()
	data, err := s.source.Load(ctx, filter)
	if err != nil {
		return Result{}, fmt.Errorf("load %s data: %w", view, err)
	}
	payload, err := json.Marshal(compute(view, data, s.cfg, s.clock, p))
	if err != nil {
		return Result{}, fmt.Errorf("encode %s metrics: %w", view, err)
	}
	elapsed := time.Since(start)
	s.stats.ObserveRecompute(string(view), elapsed)

	res := Result{View: view, Metrics: payload, LastUpdated: computedAt}
	if key != "" {
		if err := s.cache.Put(ctx, key, cache.Entry{Metrics: payload, LastUpdated: res.LastUpdated}); err != nil {
			logger.Warn("cache write failed", "key", key, "backend", s.cache.Name(), "error", err)
		}
	}
	logger.Info("recomputed metrics view",
		"view", view, "filter", filter, "calls", len(data.Calls),
		"validations", len(data.Validations), "contacts", len(data.Contacts),
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}
