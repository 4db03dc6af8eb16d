package service

import (
	"context"
	"fmt"
	"strings"

	"pubg-tracker/internal/api"
	"pubg-tracker/internal/constants"
	"pubg-tracker/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

type PlayerFetcher interface {
	FetchPlayer(ctx context.Context, shard, name string) (*api.PlayerRecord, error)
}

type PlayerStore interface {
	Create(ctx context.Context, player *domain.Player) (*domain.Player, error)
	Get(ctx context.Context, id string) (*domain.Player, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.Player, error)
	List(ctx context.Context) ([]domain.Player, error)
	UpdateMatches(ctx context.Context, player *domain.Player) error
	Delete(ctx context.Context, id string) error
}

type Invalidator interface {
	Invalidate(ctx context.Context, playerID string) error
}

// PlayerService is the registry of tracked players. Any change to a player's
// recent matches invalidates its cached stats.
type PlayerService struct {
	api    PlayerFetcher
	repo   PlayerStore
	stats  Invalidator
	clock  clockwork.Clock
	logger zerolog.Logger
}

func NewPlayerService(api PlayerFetcher, repo PlayerStore, stats Invalidator, clock clockwork.Clock, logger zerolog.Logger) *PlayerService {
	return &PlayerService{
		api:    api,
		repo:   repo,
		stats:  stats,
		clock:  clock,
		logger: logger.With().Str("component", "player_service").Logger(),
	}
}

// AddPlayer starts tracking name on shard. Adding an already tracked account
// returns the stored player unchanged.
func (s *PlayerService) AddPlayer(ctx context.Context, shard, name string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if shard = strings.TrimSpace(shard); shard == "" {
		shard = string(domain.DefaultShard)
	}
	if !domain.Shard(shard).Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidArgument, domain.ErrInvalidShard, shard)
	}

	s.logger.Info().Str("name", name).Str("shard", shard).Msg("adding player")

	record, err := s.api.FetchPlayer(ctx, shard, name)
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to fetch player")
		return nil, fmt.Errorf("failed to fetch player: %w", err)
	}

	existing, err := s.repo.GetByAccountID(ctx, record.AccountID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info().Str("player_id", existing.ID).Msg("player already tracked")
		return existing, nil
	}

	now := s.clock.Now().UTC()
	player, err := s.repo.Create(ctx, &domain.Player{
		AccountID:       record.AccountID,
		Name:            record.Name,
		Shard:           shard,
		LastMatches:     recentMatches(record.MatchIDs),
		LastRefreshedAt: &now,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", record.AccountID).Msg("failed to create player")
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	s.logger.Info().Str("player_id", player.ID).Str("name", player.Name).Msg("player added")
	return player, nil
}

func (s *PlayerService) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.List(ctx)
}

func (s *PlayerService) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	player, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Debug().Err(err).Str("player_id", id).Msg("player lookup failed")
		return nil, err
	}
	return player, nil
}

// GetPlayerMatches returns the stored recent match ids, newest first.
func (s *PlayerService) GetPlayerMatches(ctx context.Context, id string) ([]string, error) {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	return player.LastMatches, nil
}

// RefreshPlayer re-fetches the player's recent matches and invalidates every
// cached summary built from the old list.
func (s *PlayerService) RefreshPlayer(ctx context.Context, id string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	player, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	record, err := s.api.FetchPlayer(ctx, player.Shard, player.Name)
	if err != nil {
		s.logger.Error().Err(err).Str("player_id", id).Msg("failed to refresh player")
		return nil, fmt.Errorf("failed to fetch player: %w", err)
	}

	now := s.clock.Now().UTC()
	updated := *player
	updated.Name = record.Name
	updated.LastMatches = recentMatches(record.MatchIDs)
	updated.LastRefreshedAt = &now

	if err := s.repo.UpdateMatches(ctx, &updated); err != nil {
		return nil, err
	}

	if err := s.stats.Invalidate(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to invalidate stats: %w", err)
	}

	s.logger.Info().Str("player_id", id).Int("matches", len(updated.LastMatches)).Msg("player refreshed")
	return &updated, nil
}

// RefreshFailure records a player that RefreshAllPlayers could not refresh.
type RefreshFailure struct {
	PlayerID string
	Err      error
}

// RefreshAllPlayers refreshes every tracked player one at a time. A failure
// for one player does not stop the others.
func (s *PlayerService) RefreshAllPlayers(ctx context.Context) ([]domain.Player, []RefreshFailure, error) {
	players, err := s.ListPlayers(ctx)
	if err != nil {
		return nil, nil, err
	}

	refreshed := make([]domain.Player, 0, len(players))
	var failed []RefreshFailure
	for _, p := range players {
		if err := ctx.Err(); err != nil {
			return refreshed, failed, err
		}
		updated, err := s.RefreshPlayer(ctx, p.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("player_id", p.ID).Msg("refresh failed")
			failed = append(failed, RefreshFailure{PlayerID: p.ID, Err: err})
			continue
		}
		refreshed = append(refreshed, *updated)
	}

	s.logger.Info().Int("refreshed", len(refreshed)).Int("failed", len(failed)).Msg("refreshed all players")
	return refreshed, failed, nil
}

// DeletePlayer removes the player, then invalidates its stats in both tiers.
func (s *PlayerService) DeletePlayer(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.stats.Invalidate(ctx, id); err != nil {
		return fmt.Errorf("failed to invalidate stats: %w", err)
	}

	s.logger.Info().Str("player_id", id).Msg("player deleted")
	return nil
}

func recentMatches(ids []string) []string {
	n := min(len(ids), constants.MaxTrackedMatches)
	out := make([]string, n)
	copy(out, ids[:n])
	return out
}

