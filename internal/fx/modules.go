package fx

import (
	"context"
	"database/sql"

	"pubg-tracker/internal/api"
	"pubg-tracker/internal/cache"
	"pubg-tracker/internal/config"
	"pubg-tracker/internal/constants"
	"pubg-tracker/internal/database"
	"pubg-tracker/internal/db"
	"pubg-tracker/internal/logger"
	"pubg-tracker/internal/repository"
	"pubg-tracker/internal/server"
	"pubg-tracker/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideDB opens the database and closes it after every other component
// has stopped.
func ProvideDB(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	sqlDB, err := database.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info().Msg("closing database")
			return sqlDB.Close()
		},
	})
	return sqlDB, nil
}

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideRegisterer(reg *prometheus.Registry) prometheus.Registerer {
	return reg
}

func ProvideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func ProvideAPIClient(cfg *config.Config, logger zerolog.Logger, clock clockwork.Clock, reg prometheus.Registerer) *api.Client {
	return api.NewClient(cfg.PubgAPIKey, cfg.PubgAPIBaseURL, logger, api.WithClock(clock), api.WithRegisterer(reg))
}

// ProvideStatsCache starts the persistence workers with the app and drains
// them on shutdown.
func ProvideStatsCache(lc fx.Lifecycle, repo *repository.StatsRepository, cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer, logger zerolog.Logger) *cache.StatsCache {
	c := cache.New(repo, cache.Options{
		Capacity:   cfg.StatsCacheCapacity,
		TTL:        cfg.StatsCacheTTL,
		Workers:    cfg.PersistWorkers,
		QueueSize:  cfg.PersistQueueSize,
		Clock:      clock,
		Registerer: reg,
	}, logger)

	lc.Append(fx.Hook{
		// the start context ends once startup completes
		OnStart: func(context.Context) error {
			return c.Start(context.Background())
		},
		OnStop: func(context.Context) error {
			if err := c.Close(constants.PersistDrainTimeout); err != nil {
				logger.Warn().Err(err).Msg("persistence queue did not drain")
			}
			return nil
		},
	})
	return c
}

func ProvideReaper(lc fx.Lifecycle, c *cache.StatsCache, cfg *config.Config) *cache.Reaper {
	r := cache.NewReaper(c, cfg.ReapInterval)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			r.Start(context.Background())
			return nil
		},
		OnStop: func(context.Context) error {
			r.Stop()
			return nil
		},
	})
	return r
}

func ProvideStatsService(client *api.Client, players *repository.PlayerRepository, c *cache.StatsCache, clock clockwork.Clock, logger zerolog.Logger) *service.StatsService {
	return service.NewStatsService(client, players, c, clock, logger)
}

func ProvidePlayerService(client *api.Client, players *repository.PlayerRepository, stats *service.StatsService, clock clockwork.Clock, logger zerolog.Logger) *service.PlayerService {
	return service.NewPlayerService(client, players, stats, clock, logger)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Invoke(logger.ApplyLevel),
	fx.Provide(ProvideDB),
	fx.Provide(ProvideQueries),
	// metrics + time
	fx.Provide(ProvideRegistry),
	fx.Provide(ProvideRegisterer),
	fx.Provide(ProvideClock),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewStatsRepository),
	// api client
	fx.Provide(ProvideAPIClient),
	// cache
	fx.Provide(ProvideStatsCache),
	fx.Provide(ProvideReaper),
	// svc
	fx.Provide(ProvideStatsService),
	fx.Provide(ProvidePlayerService),
	// server
	fx.Provide(server.NewTrackerServer),
)
