package db

import (
	"context"
	"time"
)

const upsertPlayerStats = `INSERT INTO player_stats (
    id, player_id, period, mode, shard, kills, deaths, kd_ratio, win_rate,
    damage_dealt, survival_time, wins, matches_counted, computed_at, expires_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (player_id, period, mode, shard) DO UPDATE SET
    kills = excluded.kills,
    deaths = excluded.deaths,
    kd_ratio = excluded.kd_ratio,
    win_rate = excluded.win_rate,
    damage_dealt = excluded.damage_dealt,
    survival_time = excluded.survival_time,
    wins = excluded.wins,
    matches_counted = excluded.matches_counted,
    computed_at = excluded.computed_at,
    expires_at = excluded.expires_at`

type UpsertPlayerStatsParams struct {
	ID             string
	PlayerID       string
	Period         string
	Mode           string
	Shard          string
	Kills          int64
	Deaths         int64
	KdRatio        float64
	WinRate        float64
	DamageDealt    float64
	SurvivalTime   float64
	Wins           int64
	MatchesCounted int64
	ComputedAt     time.Time
	ExpiresAt      time.Time
}

func (q *Queries) UpsertPlayerStats(ctx context.Context, arg UpsertPlayerStatsParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayerStats,
		arg.ID,
		arg.PlayerID,
		arg.Period,
		arg.Mode,
		arg.Shard,
		arg.Kills,
		arg.Deaths,
		arg.KdRatio,
		arg.WinRate,
		arg.DamageDealt,
		arg.SurvivalTime,
		arg.Wins,
		arg.MatchesCounted,
		arg.ComputedAt,
		arg.ExpiresAt,
	)
	return err
}

const getPlayerStats = `SELECT id, player_id, period, mode, shard, kills, deaths, kd_ratio, win_rate,
    damage_dealt, survival_time, wins, matches_counted, computed_at, expires_at
FROM player_stats
WHERE player_id = ? AND period = ? AND mode = ? AND shard = ?`

type GetPlayerStatsParams struct {
	PlayerID string
	Period   string
	Mode     string
	Shard    string
}

func (q *Queries) GetPlayerStats(ctx context.Context, arg GetPlayerStatsParams) (PlayerStat, error) {
	row := q.db.QueryRowContext(ctx, getPlayerStats,
		arg.PlayerID,
		arg.Period,
		arg.Mode,
		arg.Shard,
	)
	var i PlayerStat
	err := row.Scan(
		&i.ID,
		&i.PlayerID,
		&i.Period,
		&i.Mode,
		&i.Shard,
		&i.Kills,
		&i.Deaths,
		&i.KdRatio,
		&i.WinRate,
		&i.DamageDealt,
		&i.SurvivalTime,
		&i.Wins,
		&i.MatchesCounted,
		&i.ComputedAt,
		&i.ExpiresAt,
	)
	return i, err
}

const countPlayerStats = `SELECT COUNT(*) FROM player_stats WHERE player_id = ?`

func (q *Queries) CountPlayerStats(ctx context.Context, playerID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPlayerStats, playerID).Scan(&count)
	return count, err
}

const deletePlayerStatsByPlayer = `DELETE FROM player_stats WHERE player_id = ?`

func (q *Queries) DeletePlayerStatsByPlayer(ctx context.Context, playerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePlayerStatsByPlayer, playerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteAllPlayerStats = `DELETE FROM player_stats`

func (q *Queries) DeleteAllPlayerStats(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAllPlayerStats)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteExpiredPlayerStats = `DELETE FROM player_stats WHERE expires_at <= ?`

func (q *Queries) DeleteExpiredPlayerStats(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredPlayerStats, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
