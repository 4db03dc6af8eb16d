package service

import (
	"context"
	"fmt"
	"strings"

	"pubg-tracker/internal/cache"
	"pubg-tracker/internal/constants"
	"pubg-tracker/internal/domain"
	"pubg-tracker/internal/stats"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type MatchFetcher interface {
	FetchMatch(ctx context.Context, shard, matchID string) (*domain.MatchRecord, error)
}

type PlayerLookup interface {
	Get(ctx context.Context, id string) (*domain.Player, error)
}

type StatsCache interface {
	GetOrCompute(ctx context.Context, key domain.StatsKey, compute cache.ComputeFunc) (*domain.StatsSummary, error)
	Invalidate(ctx context.Context, playerID string) error
	InvalidateAll(ctx context.Context) error
}

// StatsService computes player summaries from recent matches and serves them
// through the stats cache.
type StatsService struct {
	matches MatchFetcher
	players PlayerLookup
	cache   StatsCache
	clock   clockwork.Clock
	logger  zerolog.Logger
}

func NewStatsService(matches MatchFetcher, players PlayerLookup, cache StatsCache, clock clockwork.Clock, logger zerolog.Logger) *StatsService {
	return &StatsService{
		matches: matches,
		players: players,
		cache:   cache,
		clock:   clock,
		logger:  logger.With().Str("component", "stats_service").Logger(),
	}
}

// GetOrComputeStats returns the summary for the player and selectors. Empty
// selectors take the defaults 7d, all and steam.
func (s *StatsService) GetOrComputeStats(ctx context.Context, playerID, period, mode, shard string) (*domain.StatsSummary, error) {
	key, err := domain.NewStatsKey(playerID, period, mode, shard)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStatsKey, err)
	}

	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*domain.StatsSummary, error) {
		return s.compute(ctx, key)
	})
}

func (s *StatsService) compute(ctx context.Context, key domain.StatsKey) (*domain.StatsSummary, error) {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	player, err := s.players.Get(dbCtx, key.PlayerID)
	cancel()
	if err != nil {
		return nil, err
	}

	ids := player.LastMatches
	if len(ids) > constants.MaxTrackedMatches {
		ids = ids[:constants.MaxTrackedMatches]
	}

	shard := player.Shard
	if shard == "" {
		shard = string(key.Shard)
	}

	log := s.logger.With().Str("player_id", key.PlayerID).Str("key", key.String()).Logger()
	log.Info().Int("match_count", len(ids)).Msg("computing stats")

	// one match at a time to bound load on the external API
	matches := make([]domain.MatchRecord, 0, len(ids))
	for _, id := range ids {
		m, err := s.matches.FetchMatch(ctx, shard, id)
		if err != nil {
			log.Warn().Err(err).Str("match_id", id).Msg("skipping match")
			continue
		}
		matches = append(matches, *m)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w for player %s", ErrNoMatchData, key.PlayerID)
	}

	summary := stats.Aggregate(player.AccountID, matches, key.Period, s.clock.Now())
	summary.PlayerID = key.PlayerID
	summary.Mode = key.Mode
	summary.Shard = key.Shard

	log.Info().
		Int("matches_counted", summary.MatchesCounted).
		Int("fetched", len(matches)).
		Msg("stats computed")
	return &summary, nil
}

// Invalidate drops every cached summary for the player.
func (s *StatsService) Invalidate(ctx context.Context, playerID string) error {
	return s.cache.Invalidate(ctx, playerID)
}

// InvalidateAll drops every cached summary.
func (s *StatsService) InvalidateAll(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

type DashboardEntry struct {
	Player *domain.Player
	Stats  *domain.StatsSummary
}

// Dashboard computes the same view for several players concurrently. Results
// keep the order of playerIDs; the first failure fails the whole call.
func (s *StatsService) Dashboard(ctx context.Context, playerIDs []string, period, mode, shard string) ([]DashboardEntry, error) {
	ids := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one player id is required", ErrInvalidArgument)
	}
	if len(ids) > constants.DashboardMaxPlayers {
		return nil, fmt.Errorf("%w: at most %d players can be compared", ErrInvalidArgument, constants.DashboardMaxPlayers)
	}

	entries := make([]DashboardEntry, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			player, err := s.players.Get(gctx, id)
			if err != nil {
				return err
			}
			summary, err := s.GetOrComputeStats(gctx, id, period, mode, shard)
			if err != nil {
				return fmt.Errorf("stats for player %s: %w", id, err)
			}
			entries[i] = DashboardEntry{Player: player, Stats: summary}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}
