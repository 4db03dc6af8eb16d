package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pubg-tracker/internal/db"
	"pubg-tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewPlayerRepository(queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		logger:  logger,
	}
}

// Create stores a new player. An empty ID is replaced by a fresh uuid.
func (r *PlayerRepository) Create(ctx context.Context, player *domain.Player) (*domain.Player, error) {
	now := time.Now().UTC()
	created := *player
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	matches, err := encodeMatches(created.LastMatches)
	if err != nil {
		return nil, err
	}

	err = r.queries.CreatePlayer(ctx, db.CreatePlayerParams{
		ID:              created.ID,
		AccountID:       created.AccountID,
		Name:            created.Name,
		Shard:           created.Shard,
		LastMatches:     matches,
		LastRefreshedAt: nullTime(created.LastRefreshedAt),
		CreatedAt:       created.CreatedAt,
		UpdatedAt:       created.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", created.AccountID, err)
	}

	r.logger.Debug().Str("player_id", created.ID).Str("account_id", created.AccountID).Msg("player created")
	return &created, nil
}

func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	player, err := r.queries.GetPlayer(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return toDomainPlayer(player)
}

// GetByAccountID returns nil, nil when no player has the external id.
func (r *PlayerRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Player, error) {
	player, err := r.queries.GetPlayerByAccountID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomainPlayer(player)
}

func (r *PlayerRepository) List(ctx context.Context) ([]domain.Player, error) {
	players, err := r.queries.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Player, 0, len(players))
	for _, p := range players {
		player, err := toDomainPlayer(p)
		if err != nil {
			return nil, err
		}
		result = append(result, *player)
	}
	return result, nil
}

func (r *PlayerRepository) UpdateMatches(ctx context.Context, player *domain.Player) error {
	matches, err := encodeMatches(player.LastMatches)
	if err != nil {
		return err
	}

	n, err := r.queries.UpdatePlayerMatches(ctx, db.UpdatePlayerMatchesParams{
		Name:            player.Name,
		LastMatches:     matches,
		LastRefreshedAt: nullTime(player.LastRefreshedAt),
		UpdatedAt:       time.Now().UTC(),
		ID:              player.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to update player %s: %w", player.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, player.ID)
	}
	return nil
}

// Delete removes the player row. Its stats rows belong to the stats cache and
// are cleared through it.
func (r *PlayerRepository) Delete(ctx context.Context, id string) error {
	n, err := r.queries.DeletePlayer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}

	r.logger.Debug().Str("player_id", id).Msg("player deleted")
	return nil
}

func toDomainPlayer(p db.Player) (*domain.Player, error) {
	var matches []string
	if p.LastMatches != "" {
		if err := json.Unmarshal([]byte(p.LastMatches), &matches); err != nil {
			return nil, fmt.Errorf("failed to decode last matches for player %s: %w", p.ID, err)
		}
	}

	player := &domain.Player{
		ID:          p.ID,
		AccountID:   p.AccountID,
		Name:        p.Name,
		Shard:       p.Shard,
		LastMatches: matches,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.LastRefreshedAt.Valid {
		t := p.LastRefreshedAt.Time
		player.LastRefreshedAt = &t
	}
	return player, nil
}

func encodeMatches(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode match ids: %w", err)
	}
	return string(b), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
