package cache

import (
	"context"
	"sync"
	"time"

	"pubg-tracker/internal/constants"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Reaper periodically removes expired summaries from the persistent tier.
// SQLite has no TTL index, so this loop plays that role.
type Reaper struct {
	store    Store
	interval time.Duration
	clock    clockwork.Clock
	logger   zerolog.Logger
	metrics  *cacheMetrics

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewReaper(c *StatsCache, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = constants.DefaultReapInterval
	}
	return &Reaper{
		store:    c.store,
		interval: interval,
		clock:    c.clock,
		logger:   c.logger.With().Str("component", "stats_reaper").Logger(),
		metrics:  c.metrics,
	}
}

func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.group != nil {
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.group, ctx = errgroup.WithContext(ctx)
	r.group.Go(func() error {
		r.run(ctx)
		return nil
	})

	r.logger.Info().Dur("interval", r.interval).Msg("stats reaper started")
}

func (r *Reaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.group == nil {
		return
	}
	r.cancel()
	_ = r.group.Wait()
	r.group = nil

	r.logger.Info().Msg("stats reaper stopped")
}

func (r *Reaper) run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.ReapOnce(ctx)
		}
	}
}

// ReapOnce deletes every persisted summary whose expiry has passed.
func (r *Reaper) ReapOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	n, err := r.store.DeleteExpired(ctx, r.clock.Now())
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to reap expired stats")
		return 0
	}
	if n > 0 {
		r.metrics.reaped.Add(float64(n))
		r.logger.Debug().Int64("rows", n).Msg("reaped expired stats")
	}
	return n
}
