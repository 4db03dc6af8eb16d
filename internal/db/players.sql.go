package db

import (
	"context"
	"database/sql"
	"time"
)

const playerColumns = `id, account_id, name, shard, last_matches, last_refreshed_at, created_at, updated_at`

func scanPlayer(row interface{ Scan(...interface{}) error }) (Player, error) {
	var i Player
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Name,
		&i.Shard,
		&i.LastMatches,
		&i.LastRefreshedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPlayer = `INSERT INTO players (` + playerColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreatePlayerParams struct {
	ID              string
	AccountID       string
	Name            string
	Shard           string
	LastMatches     string
	LastRefreshedAt sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (q *Queries) CreatePlayer(ctx context.Context, arg CreatePlayerParams) error {
	_, err := q.db.ExecContext(ctx, createPlayer,
		arg.ID,
		arg.AccountID,
		arg.Name,
		arg.Shard,
		arg.LastMatches,
		arg.LastRefreshedAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getPlayer = `SELECT ` + playerColumns + ` FROM players WHERE id = ?`

func (q *Queries) GetPlayer(ctx context.Context, id string) (Player, error) {
	return scanPlayer(q.db.QueryRowContext(ctx, getPlayer, id))
}

const getPlayerByAccountID = `SELECT ` + playerColumns + ` FROM players WHERE account_id = ?`

func (q *Queries) GetPlayerByAccountID(ctx context.Context, accountID string) (Player, error) {
	return scanPlayer(q.db.QueryRowContext(ctx, getPlayerByAccountID, accountID))
}

const listPlayers = `SELECT ` + playerColumns + ` FROM players ORDER BY created_at ASC, name ASC`

func (q *Queries) ListPlayers(ctx context.Context) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		i, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updatePlayerMatches = `UPDATE players
SET name = ?, last_matches = ?, last_refreshed_at = ?, updated_at = ?
WHERE id = ?`

type UpdatePlayerMatchesParams struct {
	Name            string
	LastMatches     string
	LastRefreshedAt sql.NullTime
	UpdatedAt       time.Time
	ID              string
}

func (q *Queries) UpdatePlayerMatches(ctx context.Context, arg UpdatePlayerMatchesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePlayerMatches,
		arg.Name,
		arg.LastMatches,
		arg.LastRefreshedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deletePlayer = `DELETE FROM players WHERE id = ?`

func (q *Queries) DeletePlayer(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePlayer, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
