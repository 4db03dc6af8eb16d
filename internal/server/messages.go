package server

import (
	"time"

	"pubg-tracker/internal/domain"
)

type AddPlayerRequest struct {
	Name  string `json:"name"`
	Shard string `json:"shard"`
}

type PlayerRequest struct {
	ID string `json:"id"`
}

type Player struct {
	ID              string     `json:"id"`
	AccountID       string     `json:"account_id"`
	Name            string     `json:"name"`
	Shard           string     `json:"shard"`
	LastMatches     []string   `json:"last_matches"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type PlayerResponse struct {
	Player Player `json:"player"`
}

type ListPlayersRequest struct{}

type ListPlayersResponse struct {
	Players []Player `json:"players"`
}

type RefreshAllPlayersRequest struct{}

type RefreshFailure struct {
	PlayerID string `json:"player_id"`
	Error    string `json:"error"`
}

type RefreshAllPlayersResponse struct {
	Refreshed []Player         `json:"refreshed"`
	Failed    []RefreshFailure `json:"failed"`
}

type DeletePlayerResponse struct{}

type PlayerMatchesResponse struct {
	PlayerID string   `json:"player_id"`
	MatchIDs []string `json:"match_ids"`
}

type StatsRequest struct {
	PlayerID string `json:"player_id"`
	Period   string `json:"period"`
	Mode     string `json:"mode"`
	Shard    string `json:"shard"`
}

type Stats struct {
	PlayerID       string    `json:"player_id"`
	Period         string    `json:"period"`
	Mode           string    `json:"mode"`
	Shard          string    `json:"shard"`
	Kills          int       `json:"kills"`
	Deaths         int       `json:"deaths"`
	KDRatio        float64   `json:"kd_ratio"`
	WinRate        float64   `json:"win_rate"`
	DamageDealt    float64   `json:"damage_dealt"`
	SurvivalTime   float64   `json:"survival_time"`
	Wins           int       `json:"top1_count"`
	MatchesCounted int       `json:"matches_played"`
	ComputedAt     time.Time `json:"computed_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type StatsResponse struct {
	Stats Stats `json:"stats"`
}

type DashboardRequest struct {
	PlayerIDs []string `json:"player_ids"`
	Period    string   `json:"period"`
	Mode      string   `json:"mode"`
	Shard     string   `json:"shard"`
}

type DashboardPlayer struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Stats    Stats  `json:"stats"`
}

type DashboardResponse struct {
	Players []DashboardPlayer `json:"players"`
	Period  string            `json:"period"`
	Mode    string            `json:"mode"`
}

type ClearCacheRequest struct{}

type ClearCacheResponse struct{}

func toPlayer(p *domain.Player) Player {
	matches := p.LastMatches
	if matches == nil {
		matches = []string{}
	}
	return Player{
		ID:              p.ID,
		AccountID:       p.AccountID,
		Name:            p.Name,
		Shard:           p.Shard,
		LastMatches:     matches,
		LastRefreshedAt: p.LastRefreshedAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toStats(s *domain.StatsSummary) Stats {
	return Stats{
		PlayerID:       s.PlayerID,
		Period:         string(s.Period),
		Mode:           string(s.Mode),
		Shard:          string(s.Shard),
		Kills:          s.Kills,
		Deaths:         s.Deaths,
		KDRatio:        s.KDRatio,
		WinRate:        s.WinRate,
		DamageDealt:    s.DamageDealt,
		SurvivalTime:   s.SurvivalTime,
		Wins:           s.Wins,
		MatchesCounted: s.MatchesCounted,
		ComputedAt:     s.ComputedAt,
		ExpiresAt:      s.ExpiresAt,
	}
}
