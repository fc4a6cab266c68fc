package topology

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"netinspect/internal/domain"
)

// flightKey is the single-flight key shared by every refresh of the slot
const flightKey = "topology"

// ErrNoSnapshot is returned when a build produced neither a snapshot nor an error
var ErrNoSnapshot = errors.New("build returned no snapshot")

// BuildFunc computes a fresh snapshot
type BuildFunc func(ctx context.Context) (*domain.Snapshot, error)

// UpdateFunc is called after a new snapshot has been stored
type UpdateFunc func(snap *domain.Snapshot)

// CacheConfig holds cache settings
type CacheConfig struct {
	// Enabled turns caching on; when off every Get runs a build
	Enabled bool
	// TTL is how long a stored snapshot is served without a rebuild
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: true,
		TTL:     300 * time.Second,
	}
}

// Cache owns the current topology snapshot.
//
// Readers share the slot under a read lock. Concurrent misses and scheduled
// refreshes are collapsed into a single in-flight build; the slot is only
// write-locked to swap in the result. A failed build leaves the stored
// snapshot and its timestamp untouched and the stale snapshot is served.
type Cache struct {
	build   BuildFunc
	config  CacheConfig
	clock   clock.Clock
	logger  zerolog.Logger
	metrics *Metrics

	hooksMu sync.RWMutex
	hooks   []UpdateFunc

	mu         sync.RWMutex
	snapshot   *domain.Snapshot
	computedAt time.Time

	flight singleflight.Group
}

// CacheOption customizes a Cache
type CacheOption func(*Cache)

// WithCacheClock sets the clock used for freshness checks
func WithCacheClock(clk clock.Clock) CacheOption {
	return func(c *Cache) { c.clock = clk }
}

// WithCacheLogger sets the cache logger
func WithCacheLogger(logger zerolog.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// WithCacheMetrics sets the metrics sink
func WithCacheMetrics(m *Metrics) CacheOption {
	return func(c *Cache) { c.metrics = m }
}

// NewCache creates a cache around build
func NewCache(build BuildFunc, config CacheConfig, opts ...CacheOption) *Cache {
	c := &Cache{
		build:  build,
		config: config,
		clock:  clock.New(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUpdate registers fn to be called after each successful refresh
func (c *Cache) OnUpdate(fn UpdateFunc) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Enabled reports whether caching is on
func (c *Cache) Enabled() bool {
	return c.config.Enabled
}

// Get returns the cached snapshot if it is fresh, otherwise refreshes it.
// Before the first successful build a build error is returned; afterwards
// the last good snapshot is returned instead.
func (c *Cache) Get(ctx context.Context) (*domain.Snapshot, error) {
	if !c.config.Enabled {
		c.metrics.cacheResult("bypass")
		return c.safeBuild(ctx)
	}

	if snap := c.fresh(); snap != nil {
		c.metrics.cacheResult("hit")
		return snap, nil
	}

	c.metrics.cacheResult("miss")
	return c.do(ctx, true)
}

// Refresh rebuilds the snapshot unconditionally, joining a build that is
// already in flight
func (c *Cache) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	return c.do(ctx, false)
}

// ScheduledRefresh pre-warms the slot. It is a no-op when caching is disabled.
func (c *Cache) ScheduledRefresh(ctx context.Context) {
	if !c.config.Enabled {
		return
	}
	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("Scheduled topology refresh produced no snapshot")
	}
}

// Current returns the stored snapshot and the instant it was stored, without
// checking freshness. The snapshot is nil before the first successful build.
func (c *Cache) Current() (*domain.Snapshot, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.computedAt
}

// fresh returns the stored snapshot if its age is within [0, TTL]
func (c *Cache) fresh() *domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil {
		return nil
	}

	age := c.clock.Now().Sub(c.computedAt)
	if age < 0 || age > c.config.TTL {
		return nil
	}
	return c.snapshot
}

// do runs a refresh through the single-flight group. When reuseFresh is set
// the flight first re-checks the slot, so a caller that lost the race to
// another refresh gets that result instead of starting a second build.
func (c *Cache) do(ctx context.Context, reuseFresh bool) (*domain.Snapshot, error) {
	ch := c.flight.DoChan(flightKey, func() (interface{}, error) {
		if reuseFresh {
			if snap := c.fresh(); snap != nil {
				return snap, nil
			}
		}
		return c.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) refresh(ctx context.Context) (*domain.Snapshot, error) {
	start := c.clock.Now()
	snap, err := c.safeBuild(ctx)
	c.metrics.buildResult(err == nil, c.clock.Since(start).Seconds())

	if err != nil {
		prev, prevAt := c.Current()
		if prev == nil {
			c.logger.Warn().Err(err).Msg("Topology build failed and no previous snapshot is available")
			return nil, err
		}
		c.logger.Warn().Err(err).
			Str("snapshot_id", prev.ID()).
			Time("snapshot_at", prevAt).
			Msg("Refresh topology cache failed, keeping last snapshot")
		return prev, nil
	}

	c.mu.Lock()
	c.snapshot = snap
	c.computedAt = c.clock.Now()
	c.mu.Unlock()

	c.metrics.snapshotStored(snap.NodeCount(), snap.LinkCount())
	c.logger.Info().
		Str("snapshot_id", snap.ID()).
		Int("nodes", snap.NodeCount()).
		Int("links", snap.LinkCount()).
		Dur("took", c.clock.Since(start)).
		Msg("Topology cache refreshed")

	c.notify(snap)
	return snap, nil
}

// safeBuild runs the build function, turning a panic or a nil result into an error
func (c *Cache) safeBuild(ctx context.Context) (snap *domain.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap, err = nil, fmt.Errorf("topology build panicked: %v", r)
		}
	}()

	snap, err = c.build(ctx)
	if err == nil && snap == nil {
		err = ErrNoSnapshot
	}
	return snap, err
}

func (c *Cache) notify(snap *domain.Snapshot) {
	c.hooksMu.RLock()
	hooks := make([]UpdateFunc, len(c.hooks))
	copy(hooks, c.hooks)
	c.hooksMu.RUnlock()

	for _, fn := range hooks {
		fn(snap)
	}
}
