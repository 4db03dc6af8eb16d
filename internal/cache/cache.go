// Package cache implements the two-tier stats cache: a bounded in-process LRU
// with its own TTL in front of the persistent store, which stays the authority
// on whether a summary is still valid.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pubg-tracker/internal/constants"
	"pubg-tracker/internal/domain"
	"pubg-tracker/internal/worker"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Store is the persistent tier.
type Store interface {
	Get(ctx context.Context, key domain.StatsKey) (*domain.StatsSummary, error)
	Upsert(ctx context.Context, s *domain.StatsSummary) error
	DeleteByPlayer(ctx context.Context, playerID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ComputeFunc produces a fresh summary on a miss in both tiers.
type ComputeFunc func(ctx context.Context) (*domain.StatsSummary, error)

type Options struct {
	Capacity   int
	TTL        time.Duration
	Workers    int
	QueueSize  int
	Clock      clockwork.Clock
	Registerer prometheus.Registerer
}

type StatsCache struct {
	memory  *expirable.LRU[string, domain.StatsSummary]
	store   Store
	pool    *worker.Pool[persistJob]
	flights atomic.Pointer[singleflight.Group]
	clock   clockwork.Clock
	logger  zerolog.Logger
	metrics *cacheMetrics

	// genMu orders memory writes against invalidation sweeps.
	genMu     sync.RWMutex
	globalGen uint64
	playerGen map[string]uint64
}

// generation identifies the invalidation epoch a value was produced in.
type generation struct {
	global uint64
	player uint64
}

type persistJob struct {
	summary domain.StatsSummary
	gen     generation
}

func New(store Store, opts Options, logger zerolog.Logger) *StatsCache {
	if opts.Capacity <= 0 {
		opts.Capacity = constants.DefaultStatsCacheCapacity
	}
	if opts.TTL <= 0 {
		opts.TTL = constants.DefaultStatsCacheTTL
	}
	if opts.Workers <= 0 {
		opts.Workers = constants.DefaultPersistWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = constants.DefaultPersistQueueSize
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	c := &StatsCache{
		memory:    expirable.NewLRU[string, domain.StatsSummary](opts.Capacity, nil, opts.TTL),
		store:     store,
		clock:     opts.Clock,
		logger:    logger.With().Str("component", "stats_cache").Logger(),
		metrics:   newCacheMetrics(opts.Registerer),
		playerGen: make(map[string]uint64),
	}
	c.flights.Store(&singleflight.Group{})

	poolOpts := []worker.Option[persistJob]{}
	if opts.Registerer != nil {
		poolOpts = append(poolOpts, worker.WithMetrics[persistJob](opts.Registerer, "pubg_stats_persist"))
	}
	c.pool = worker.NewPool(opts.Workers, opts.QueueSize, c.persist, poolOpts...)

	return c
}

// Start launches the background persistence workers.
func (c *StatsCache) Start(ctx context.Context) error {
	return c.pool.Start(ctx)
}

// Close drains queued persistence jobs, waiting at most timeout.
func (c *StatsCache) Close(timeout time.Duration) error {
	return c.pool.Stop(timeout)
}

// Flush waits for every queued persistence job to finish.
func (c *StatsCache) Flush(ctx context.Context) error {
	return c.pool.Flush(ctx)
}

// GetOrCompute returns the summary for key from memory, then from the
// persistent tier if still valid there, and otherwise from compute.
// Concurrent misses on one key share a single computation, which is not
// cancelled when ctx is.
func (c *StatsCache) GetOrCompute(ctx context.Context, key domain.StatsKey, compute ComputeFunc) (*domain.StatsSummary, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	k := key.String()
	if s, ok := c.lookupMemory(k); ok {
		c.logger.Debug().Str("key", k).Msg("memory cache hit")
		return &s, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.flights.Load().DoChan(k, func() (any, error) {
		return c.load(detached, key, compute)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		s := *res.Val.(*domain.StatsSummary)
		return &s, nil
	}
}

func (c *StatsCache) load(ctx context.Context, key domain.StatsKey, compute ComputeFunc) (*domain.StatsSummary, error) {
	gen := c.generation(key.PlayerID)
	k := key.String()

	if s, ok := c.lookupMemory(k); ok {
		return &s, nil
	}

	stored, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if stored != nil && stored.Fresh(c.clock.Now()) {
		c.metrics.hits.WithLabelValues("persistent").Inc()
		c.logger.Debug().Str("key", k).Msg("persistent cache hit")
		c.remember(stored, gen)
		return stored, nil
	}

	c.metrics.misses.Inc()
	summary, err := compute(ctx)
	if err != nil {
		c.metrics.computes.WithLabelValues("error").Inc()
		return nil, err
	}
	if summary == nil {
		c.metrics.computes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("compute returned no summary for %s", k)
	}
	c.metrics.computes.WithLabelValues("ok").Inc()

	if summary.Key() != key {
		c.logger.Warn().
			Str("key", k).
			Str("summary_key", summary.Key().String()).
			Msg("computed summary key differs from requested key")
	}

	c.commit(summary, gen)
	return summary, nil
}

// lookupMemory returns the memory entry for k while its expires_at is still
// ahead. An expired entry is evicted and reported as a miss.
func (c *StatsCache) lookupMemory(k string) (domain.StatsSummary, bool) {
	s, ok := c.memory.Get(k)
	if !ok {
		return domain.StatsSummary{}, false
	}
	if !s.Fresh(c.clock.Now()) {
		c.memory.Remove(k)
		c.logger.Debug().Str("key", k).Time("expires_at", s.ExpiresAt).Msg("evicting expired memory entry")
		return domain.StatsSummary{}, false
	}
	c.metrics.hits.WithLabelValues("memory").Inc()
	return s, true
}

// Store writes s into the memory tier and queues it for the persistent tier.
func (c *StatsCache) Store(s *domain.StatsSummary) {
	c.commit(s, c.generation(s.PlayerID))
}

func (c *StatsCache) commit(s *domain.StatsSummary, gen generation) {
	if !c.remember(s, gen) {
		c.logger.Debug().Str("key", s.Key().String()).Msg("summary invalidated before commit")
		return
	}

	err := c.pool.Submit(persistJob{summary: *s, gen: gen})
	switch {
	case err == nil:
	case errors.Is(err, worker.ErrQueueFull):
		c.metrics.persisted.WithLabelValues("dropped").Inc()
		c.logger.Warn().Str("key", s.Key().String()).Msg("persistence queue full, dropping write")
	default:
		c.metrics.persisted.WithLabelValues("dropped").Inc()
		c.logger.Warn().Err(err).Str("key", s.Key().String()).Msg("persistence unavailable, dropping write")
	}
}

// remember adds s to the memory tier unless its player was invalidated after gen.
func (c *StatsCache) remember(s *domain.StatsSummary, gen generation) bool {
	c.genMu.RLock()
	defer c.genMu.RUnlock()

	if !c.currentLocked(s.PlayerID, gen) {
		return false
	}
	c.memory.Add(s.Key().String(), *s)
	return true
}

// Invalidate drops every period/mode/shard view of playerID from both tiers.
func (c *StatsCache) Invalidate(ctx context.Context, playerID string) error {
	keys := domain.AllStatsKeys(playerID)

	c.genMu.Lock()
	c.playerGen[playerID]++
	for _, key := range keys {
		c.memory.Remove(key.String())
	}
	c.genMu.Unlock()

	flights := c.flights.Load()
	for _, key := range keys {
		flights.Forget(key.String())
	}
	c.metrics.invalidations.WithLabelValues("player").Inc()

	n, err := c.store.DeleteByPlayer(ctx, playerID)
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("player_id", playerID).
		Int("memory_keys", len(keys)).
		Int64("rows", n).
		Msg("invalidated player stats")
	return nil
}

// InvalidateAll empties both tiers.
func (c *StatsCache) InvalidateAll(ctx context.Context) error {
	c.genMu.Lock()
	c.globalGen++
	c.memory.Purge()
	c.genMu.Unlock()

	c.flights.Store(&singleflight.Group{})
	c.metrics.invalidations.WithLabelValues("all").Inc()

	n, err := c.store.DeleteAll(ctx)
	if err != nil {
		return err
	}

	c.logger.Info().Int64("rows", n).Msg("invalidated all stats")
	return nil
}

// Len is the number of entries held in the memory tier.
func (c *StatsCache) Len() int {
	return c.memory.Len()
}

func (c *StatsCache) generation(playerID string) generation {
	c.genMu.RLock()
	defer c.genMu.RUnlock()
	return generation{global: c.globalGen, player: c.playerGen[playerID]}
}

func (c *StatsCache) current(playerID string, gen generation) bool {
	c.genMu.RLock()
	defer c.genMu.RUnlock()
	return c.currentLocked(playerID, gen)
}

func (c *StatsCache) currentLocked(playerID string, gen generation) bool {
	return c.globalGen == gen.global && c.playerGen[playerID] == gen.player
}
