package topology

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// ErrRefresherRunning is returned when Start is called twice
var ErrRefresherRunning = errors.New("refresher already running")

// Refresher periodically pre-warms a Cache through the same refresh path
// that readers use on a miss
type Refresher struct {
	cache    *Cache
	interval time.Duration
	clock    clock.Clock
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// RefresherOption customizes a Refresher
type RefresherOption func(*Refresher)

// WithRefresherClock sets the clock driving the ticker
func WithRefresherClock(clk clock.Clock) RefresherOption {
	return func(r *Refresher) { r.clock = clk }
}

// WithRefresherLogger sets the refresher logger
func WithRefresherLogger(logger zerolog.Logger) RefresherOption {
	return func(r *Refresher) { r.logger = logger }
}

// NewRefresher creates a refresher for cache running every interval
func NewRefresher(cache *Cache, interval time.Duration, opts ...RefresherOption) *Refresher {
	if interval <= 0 {
		interval = 300 * time.Second
	}

	r := &Refresher{
		cache:    cache,
		interval: interval,
		clock:    clock.New(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the refresh loop. The first refresh runs immediately.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return ErrRefresherRunning
	}
	if !r.cache.Enabled() {
		r.logger.Info().Msg("Topology cache disabled, scheduled refresh not started")
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	// the ticker is created before the goroutine so a mock clock sees it
	ticker := r.clock.Ticker(r.interval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()

		r.cache.ScheduledRefresh(loopCtx)

		for {
			select {
			case <-loopCtx.Done():
				r.logger.Info().Msg("Stopping topology refresh loop")
				return
			case <-ticker.C:
				r.cache.ScheduledRefresh(loopCtx)
			}
		}
	}()

	r.logger.Info().Dur("interval", r.interval).Msg("Started topology refresh loop")
	return nil
}

// Stop cancels the loop and waits for an in-progress refresh to return
func (r *Refresher) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	return nil
}
