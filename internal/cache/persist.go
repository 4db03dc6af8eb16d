package cache

import (
	"context"
	"errors"

	"pubg-tracker/internal/constants"

	"github.com/sethvargo/go-retry"
)

var errStale = errors.New("summary invalidated")

// persist is the worker pool processor. Failures are logged here and never
// reach the request that produced the summary.
func (c *StatsCache) persist(ctx context.Context, job persistJob) error {
	s := job.summary
	log := c.logger.With().Str("key", s.Key().String()).Logger()

	backoff := retry.WithMaxRetries(constants.PersistRetries, retry.NewExponential(constants.PersistInitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if !c.current(s.PlayerID, job.gen) {
			return errStale
		}
		if err := c.store.Upsert(ctx, &s); err != nil {
			log.Warn().Err(err).Msg("stats upsert failed, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})

	switch {
	case err == nil:
		c.metrics.persisted.WithLabelValues("ok").Inc()
		return nil
	case errors.Is(err, errStale):
		c.metrics.persisted.WithLabelValues("stale").Inc()
		log.Debug().Msg("skipping write for invalidated summary")
		return nil
	default:
		c.metrics.persisted.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("failed to persist stats")
		return err
	}
}
