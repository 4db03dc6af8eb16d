package domain

import (
	"time"
)

type Player struct {
	ID              string // uuid
	AccountID       string // external player id, e.g. "account.abc..."
	Name            string
	Shard           string
	LastMatches     []string
	LastRefreshedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MatchRecord is a read-only snapshot of one completed match as reported by the
// external API.
type MatchRecord struct {
	MatchID      string
	CreatedAt    string // RFC3339, kept raw
	GameMode     string
	MapName      string
	Duration     int
	ShardID      string
	Participants []Participant
}

type Participant struct {
	PlayerID     string
	Name         string
	Kills        int
	Assists      int
	DamageDealt  float64
	TimeSurvived float64 // seconds
	WinPlace     int
	DeathType    string // "alive" when the player survived
}

// Alive reports whether the participant finished the match without dying.
func (p Participant) Alive() bool {
	return p.DeathType == DeathTypeAlive
}

const DeathTypeAlive = "alive"

type StatsSummary struct {
	ID             string // nanoid, assigned by the store
	PlayerID       string
	Period         Period
	Mode           Mode
	Shard          Shard
	Kills          int
	Deaths         int
	KDRatio        float64
	WinRate        float64 // percentage, 0-100
	DamageDealt    float64
	SurvivalTime   float64 // seconds
	Wins           int
	MatchesCounted int
	ComputedAt     time.Time
	ExpiresAt      time.Time
}

func (s *StatsSummary) Key() StatsKey {
	return StatsKey{PlayerID: s.PlayerID, Period: s.Period, Mode: s.Mode, Shard: s.Shard}
}

// Fresh reports whether the summary is still valid at now.
func (s *StatsSummary) Fresh(now time.Time) bool {
	return s.ExpiresAt.After(now)
}
