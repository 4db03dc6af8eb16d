package stats

import (
	"testing"
	"time"

	"pubg-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func match(id string, age time.Duration, participants ...domain.Participant) domain.MatchRecord {
	return domain.MatchRecord{
		MatchID:      id,
		CreatedAt:    now.Add(-age).Format(time.RFC3339),
		Participants: participants,
	}
}

func TestAggregate_SingleWinWithinWindow(t *testing.T) {
	matches := []domain.MatchRecord{
		match("m1", 2*24*time.Hour,
			domain.Participant{PlayerID: "account.other", Kills: 9, DeathType: "byplayer"},
			domain.Participant{PlayerID: "account.me", Kills: 5, DamageDealt: 750.5, WinPlace: 1, DeathType: "alive", TimeSurvived: 1800},
		),
	}

	s := Aggregate("account.me", matches, domain.Period7d, now)

	assert.Equal(t, 5, s.Kills)
	assert.Equal(t, 0, s.Deaths)
	assert.InDelta(t, 5.0, s.KDRatio, 1e-9)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.MatchesCounted)
	assert.InDelta(t, 100.0, s.WinRate, 1e-9)
	assert.InDelta(t, 750.5, s.DamageDealt, 1e-9)
	assert.InDelta(t, 1800.0, s.SurvivalTime, 1e-9)
	assert.Equal(t, domain.Period7d, s.Period)
	assert.Equal(t, now, s.ComputedAt)
	assert.Equal(t, now.Add(24*time.Hour), s.ExpiresAt)
}

func TestAggregate_MatchOutsideWindowExcluded(t *testing.T) {
	matches := []domain.MatchRecord{
		match("old", 10*24*time.Hour,
			domain.Participant{PlayerID: "account.me", Kills: 3, WinPlace: 1, DeathType: "alive"},
		),
	}

	s := Aggregate("account.me", matches, domain.Period7d, now)

	assert.Equal(t, 0, s.MatchesCounted)
	assert.Equal(t, 0, s.Kills)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.KDRatio)

	// the same match falls inside a 30 day window
	s = Aggregate("account.me", matches, domain.Period30d, now)
	assert.Equal(t, 1, s.MatchesCounted)
	assert.Equal(t, 3, s.Kills)
}

func TestAggregate_MixedMatches(t *testing.T) {
	matches := []domain.MatchRecord{
		match("m1", 1*time.Hour, domain.Participant{PlayerID: "account.me", Kills: 4, DamageDealt: 300, WinPlace: 3, DeathType: "byplayer", TimeSurvived: 900}),
		match("m2", 2*time.Hour, domain.Participant{PlayerID: "account.me", Kills: 2, DamageDealt: 150, WinPlace: 1, DeathType: "alive", TimeSurvived: 1500}),
		match("m3", 3*time.Hour, domain.Participant{PlayerID: "account.me", Kills: 0, DamageDealt: 10, WinPlace: 40, DeathType: "suicide", TimeSurvived: 60}),
		match("m4", 4*time.Hour, domain.Participant{PlayerID: "account.someone", Kills: 12, WinPlace: 1, DeathType: "alive"}),
		match("m5", 100*24*time.Hour, domain.Participant{PlayerID: "account.me", Kills: 50, WinPlace: 1, DeathType: "alive"}),
	}

	s := Aggregate("account.me", matches, domain.Period7d, now)

	assert.Equal(t, 3, s.MatchesCounted)
	assert.Equal(t, 6, s.Kills)
	assert.Equal(t, 2, s.Deaths)
	assert.InDelta(t, 3.0, s.KDRatio, 1e-9)
	assert.Equal(t, 1, s.Wins)
	assert.InDelta(t, 100.0/3.0, s.WinRate, 1e-9)
	assert.InDelta(t, 460.0, s.DamageDealt, 1e-9)
	assert.InDelta(t, 2460.0, s.SurvivalTime, 1e-9)
}

func TestAggregate_UnparseableTimestampIsCounted(t *testing.T) {
	matches := []domain.MatchRecord{
		{MatchID: "m1", CreatedAt: "yesterday", Participants: []domain.Participant{{PlayerID: "account.me", Kills: 1, DeathType: "byzone"}}},
	}

	s := Aggregate("account.me", matches, domain.Period7d, now)
	assert.Equal(t, 1, s.MatchesCounted)
	assert.Equal(t, 1, s.Deaths)
}

func TestAggregate_TTLByPeriod(t *testing.T) {
	tests := []struct {
		period domain.Period
		ttl    time.Duration
	}{
		{domain.Period7d, 24 * time.Hour},
		{domain.Period30d, 72 * time.Hour},
		{domain.Period90d, 168 * time.Hour},
		{domain.Period("unknown"), 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			s := Aggregate("account.me", nil, tt.period, now)
			assert.Equal(t, now.Add(tt.ttl), s.ExpiresAt)
			assert.True(t, s.ExpiresAt.After(s.ComputedAt))
		})
	}
}

func TestKDRatioAndWinRate(t *testing.T) {
	for kills := 0; kills < 20; kills++ {
		for deaths := 0; deaths < 10; deaths++ {
			got := KDRatio(kills, deaths)
			if deaths == 0 {
				require.Equal(t, float64(kills), got)
			} else {
				require.InDelta(t, float64(kills)/float64(deaths), got, 1e-9)
			}
		}
	}

	assert.Equal(t, 0.0, WinRate(0, 0))
	assert.Equal(t, 0.0, WinRate(3, 0))
	for matches := 1; matches <= 5; matches++ {
		for wins := 0; wins <= matches; wins++ {
			require.InDelta(t, 100*float64(wins)/float64(matches), WinRate(wins, matches), 1e-9)
		}
	}
}
