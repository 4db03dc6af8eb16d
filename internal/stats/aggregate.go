// Package stats turns raw match records into windowed performance summaries.
package stats

import (
	"time"

	"pubg-tracker/internal/domain"
)

// Aggregate folds the subject's participation in matches into a summary for
// period, as of now. Matches created before the period window are skipped, as
// are matches the subject did not play in. PlayerID, Mode and Shard are left
// for the caller to fill.
func Aggregate(accountID string, matches []domain.MatchRecord, period domain.Period, now time.Time) domain.StatsSummary {
	periodStart := now.Add(-period.Window())

	s := domain.StatsSummary{
		Period: period,
		Mode:   domain.DefaultMode,
		Shard:  domain.DefaultShard,
	}

	for _, m := range matches {
		// an unparseable timestamp does not exclude the match
		if created, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil && created.Before(periodStart) {
			continue
		}

		p, ok := findParticipant(m.Participants, accountID)
		if !ok {
			continue
		}

		s.MatchesCounted++
		s.Kills += p.Kills
		s.DamageDealt += p.DamageDealt
		s.SurvivalTime += p.TimeSurvived
		if p.WinPlace == 1 {
			s.Wins++
		}
		if !p.Alive() {
			s.Deaths++
		}
	}

	s.KDRatio = KDRatio(s.Kills, s.Deaths)
	s.WinRate = WinRate(s.Wins, s.MatchesCounted)
	s.ComputedAt = now
	s.ExpiresAt = now.Add(period.TTL())

	return s
}

func findParticipant(participants []domain.Participant, accountID string) (domain.Participant, bool) {
	for _, p := range participants {
		if p.PlayerID == accountID {
			return p, true
		}
	}
	return domain.Participant{}, false
}

// KDRatio is kills per death, or the raw kill count when there were no deaths.
func KDRatio(kills, deaths int) float64 {
	if deaths == 0 {
		return float64(kills)
	}
	return float64(kills) / float64(deaths)
}

// WinRate is the percentage of matches won.
func WinRate(wins, matches int) float64 {
	if matches == 0 {
		return 0
	}
	return float64(wins) / float64(matches) * 100
}
