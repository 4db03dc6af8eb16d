package db

import (
	"database/sql"
	"time"
)

type Player struct {
	ID              string
	AccountID       string
	Name            string
	Shard           string
	LastMatches     string
	LastRefreshedAt sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type PlayerStat struct {
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
