package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pubg-tracker/internal/db"
	"pubg-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// StatsRepository is the persistent tier of the stats cache. At most one row
// exists per (player, period, mode, shard).
type StatsRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewStatsRepository(queries *db.Queries, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{
		queries: queries,
		logger:  logger,
	}
}

// Get returns nil, nil when no summary is stored for key. Expiry is not
// checked here.
func (r *StatsRepository) Get(ctx context.Context, key domain.StatsKey) (*domain.StatsSummary, error) {
	row, err := r.queries.GetPlayerStats(ctx, db.GetPlayerStatsParams{
		PlayerID: key.PlayerID,
		Period:   string(key.Period),
		Mode:     string(key.Mode),
		Shard:    string(key.Shard),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domain.StatsSummary{
		ID:             row.ID,
		PlayerID:       row.PlayerID,
		Period:         domain.Period(row.Period),
		Mode:           domain.Mode(row.Mode),
		Shard:          domain.Shard(row.Shard),
		Kills:          int(row.Kills),
		Deaths:         int(row.Deaths),
		KDRatio:        row.KdRatio,
		WinRate:        row.WinRate,
		DamageDealt:    row.DamageDealt,
		SurvivalTime:   row.SurvivalTime,
		Wins:           int(row.Wins),
		MatchesCounted: int(row.MatchesCounted),
		ComputedAt:     row.ComputedAt,
		ExpiresAt:      row.ExpiresAt,
	}, nil
}

// Upsert replaces the stored summary for the summary's key.
func (r *StatsRepository) Upsert(ctx context.Context, s *domain.StatsSummary) error {
	id := s.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	err := r.queries.UpsertPlayerStats(ctx, db.UpsertPlayerStatsParams{
		ID:             id,
		PlayerID:       s.PlayerID,
		Period:         string(s.Period),
		Mode:           string(s.Mode),
		Shard:          string(s.Shard),
		Kills:          int64(s.Kills),
		Deaths:         int64(s.Deaths),
		KdRatio:        s.KDRatio,
		WinRate:        s.WinRate,
		DamageDealt:    s.DamageDealt,
		SurvivalTime:   s.SurvivalTime,
		Wins:           int64(s.Wins),
		MatchesCounted: int64(s.MatchesCounted),
		ComputedAt:     s.ComputedAt.UTC(),
		ExpiresAt:      s.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert stats %s: %w", s.Key(), err)
	}
	return nil
}

func (r *StatsRepository) Count(ctx context.Context, playerID string) (int64, error) {
	return r.queries.CountPlayerStats(ctx, playerID)
}

func (r *StatsRepository) DeleteByPlayer(ctx context.Context, playerID string) (int64, error) {
	return r.queries.DeletePlayerStatsByPlayer(ctx, playerID)
}

func (r *StatsRepository) DeleteAll(ctx context.Context) (int64, error) {
	return r.queries.DeleteAllPlayerStats(ctx)
}

// DeleteExpired removes every summary whose expires_at is at or before now.
func (r *StatsRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.queries.DeleteExpiredPlayerStats(ctx, now.UTC())
}
