package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"pubg-tracker/internal/api"
	"pubg-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetOrComputeStats_WinningMatch(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "steam", "m1")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").
		Return(match("m1", 48*time.Hour, domain.Participant{Kills: 5, DamageDealt: 750.5, TimeSurvived: 1800, WinPlace: 1, DeathType: "alive"}), nil)

	s, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	require.NoError(t, err)

	assert.Equal(t, p.ID, s.PlayerID)
	assert.Equal(t, 5, s.Kills)
	assert.Equal(t, 0, s.Deaths)
	assert.Equal(t, 5.0, s.KDRatio)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.MatchesCounted)
	assert.Equal(t, 100.0, s.WinRate)
	assert.InDelta(t, 750.5, s.DamageDealt, 1e-9)
	assert.Equal(t, testNow.Add(24*time.Hour), s.ExpiresAt)
}

func TestGetOrComputeStats_SecondCallSkipsExternalAPI(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "steam", "m1", "m2")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").Return(match("m1", time.Hour, domain.Participant{Kills: 2, DeathType: "byplayer"}), nil)
	e.api.On("FetchMatch", mock.Anything, "steam", "m2").Return(match("m2", time.Hour, domain.Participant{Kills: 4, DeathType: "byplayer"}), nil)

	first, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "", "", "")
	require.NoError(t, err)
	e.api.AssertNumberOfCalls(t, "FetchMatch", 2)

	second, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	require.NoError(t, err)
	e.api.AssertNumberOfCalls(t, "FetchMatch", 2)
	assert.Equal(t, first, second)
	assert.Equal(t, 3.0, second.KDRatio)
}

func TestGetOrComputeStats_PersistentTierSurvivesMemoryLoss(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "steam", "m1")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").Return(match("m1", time.Hour, domain.Participant{Kills: 1, DeathType: "alive"}), nil)

	_, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "30d", "solo", "steam")
	require.NoError(t, err)
	e.flush(t)

	n, err := e.statsRepo.Count(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// a fresh service over the same store reads the persisted row
	fresh := newStatsServiceOver(e)
	s, err := fresh.GetOrComputeStats(context.Background(), p.ID, "30d", "solo", "steam")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Kills)
	e.api.AssertNumberOfCalls(t, "FetchMatch", 1)
}

func TestGetOrComputeStats_SkipsFailedMatches(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "steam", "m1", "m2", "m3")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").Return(nil, &api.ServerError{StatusCode: 503, Detail: "unavailable"})
	e.api.On("FetchMatch", mock.Anything, "steam", "m2").Return(match("m2", time.Hour, domain.Participant{Kills: 3, WinPlace: 1, DeathType: "alive"}), nil)
	e.api.On("FetchMatch", mock.Anything, "steam", "m3").Return(nil, api.ErrNotFound)

	s, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	require.NoError(t, err)
	assert.Equal(t, 1, s.MatchesCounted)
	assert.Equal(t, 3, s.Kills)
	e.api.AssertNumberOfCalls(t, "FetchMatch", 3)
}

func TestGetOrComputeStats_NoMatchData(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "steam", "m1")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").Return(nil, &api.NetworkError{Err: errors.New("connection reset")})

	_, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	assert.ErrorIs(t, err, ErrNoMatchData)

	// failures are not cached
	_, err = e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	assert.ErrorIs(t, err, ErrNoMatchData)
	e.api.AssertNumberOfCalls(t, "FetchMatch", 2)

	noMatches := e.addPlayerWithAccount(t, "account.empty")
	_, err = e.stats.GetOrComputeStats(context.Background(), noMatches.ID, "7d", "all", "steam")
	assert.ErrorIs(t, err, ErrNoMatchData)
}

func TestGetOrComputeStats_OldMatchesCountNothing(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "steam", "m1")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").Return(match("m1", 10*24*time.Hour, domain.Participant{Kills: 8, WinPlace: 1, DeathType: "alive"}), nil)

	s, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	require.NoError(t, err)
	assert.Equal(t, 0, s.MatchesCounted)
	assert.Equal(t, 0.0, s.WinRate)
}

func TestGetOrComputeStats_FetchesFromPlayerShard(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "xbox", "m1")
	e.api.On("FetchMatch", mock.Anything, "xbox", "m1").Return(match("m1", time.Hour, domain.Participant{Kills: 1, DeathType: "alive"}), nil)

	s, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "duo", "psn")
	require.NoError(t, err)
	assert.Equal(t, domain.ShardPSN, s.Shard)
	assert.Equal(t, domain.ModeDuo, s.Mode)
}

func TestGetOrComputeStats_UsesAtMostFiveMatches(t *testing.T) {
	e := newTestEnv(t)
	ids := []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"}
	p := e.addPlayer(t, "steam", ids...)
	e.api.On("FetchMatch", mock.Anything, "steam", mock.Anything).Return(match("m", time.Hour, domain.Participant{Kills: 1, DeathType: "alive"}), nil)

	s, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	require.NoError(t, err)
	assert.Equal(t, 5, s.MatchesCounted)
	e.api.AssertNotCalled(t, "FetchMatch", mock.Anything, "steam", "m6")
}

func TestGetOrComputeStats_Errors(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.stats.GetOrComputeStats(context.Background(), "missing", "7d", "all", "steam")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = e.stats.GetOrComputeStats(context.Background(), "p1", "1y", "all", "steam")
	assert.ErrorIs(t, err, ErrInvalidStatsKey)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = e.stats.GetOrComputeStats(context.Background(), "p1", "7d", "tdm", "steam")
	assert.ErrorIs(t, err, domain.ErrInvalidMode)

	_, err = e.stats.GetOrComputeStats(context.Background(), " ", "7d", "all", "steam")
	assert.ErrorIs(t, err, ErrInvalidStatsKey)

	e.api.AssertNotCalled(t, "FetchMatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvalidate_EveryCombinationRecomputes(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "steam", "m1")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").Return(match("m1", time.Hour, domain.Participant{Kills: 1, DeathType: "alive"}), nil)

	keys := domain.AllStatsKeys(p.ID)
	for _, k := range keys {
		_, err := e.stats.GetOrComputeStats(context.Background(), p.ID, string(k.Period), string(k.Mode), string(k.Shard))
		require.NoError(t, err)
	}
	e.flush(t)
	e.api.AssertNumberOfCalls(t, "FetchMatch", len(keys))

	n, err := e.statsRepo.Count(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(len(keys)), n)

	require.NoError(t, e.stats.Invalidate(context.Background(), p.ID))

	n, err = e.statsRepo.Count(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, e.cache.Len())

	for _, k := range keys {
		_, err := e.stats.GetOrComputeStats(context.Background(), p.ID, string(k.Period), string(k.Mode), string(k.Shard))
		require.NoError(t, err)
	}
	e.api.AssertNumberOfCalls(t, "FetchMatch", 2*len(keys))
}

func TestInvalidateAll(t *testing.T) {
	e := newTestEnv(t)
	p := e.addPlayer(t, "steam", "m1")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").Return(match("m1", time.Hour, domain.Participant{Kills: 1, DeathType: "alive"}), nil)

	_, err := e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	require.NoError(t, err)
	e.flush(t)

	require.NoError(t, e.stats.InvalidateAll(context.Background()))

	_, err = e.stats.GetOrComputeStats(context.Background(), p.ID, "7d", "all", "steam")
	require.NoError(t, err)
	e.api.AssertNumberOfCalls(t, "FetchMatch", 2)
}

func TestDashboard(t *testing.T) {
	e := newTestEnv(t)
	a := e.addPlayer(t, "steam", "m1")
	b := e.addPlayerWithAccount(t, "account.second", "m1")
	e.api.On("FetchMatch", mock.Anything, "steam", "m1").Return(match("m1", time.Hour, domain.Participant{Kills: 2, DeathType: "alive"}), nil)

	entries, err := e.stats.Dashboard(context.Background(), []string{a.ID, " " + b.ID, ""}, "7d", "all", "steam")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, a.ID, entries[0].Player.ID)
	assert.Equal(t, 2, entries[0].Stats.Kills)
	assert.Equal(t, b.ID, entries[1].Player.ID)
	// the second player did not take part in the match
	assert.Equal(t, 0, entries[1].Stats.MatchesCounted)
}

func TestDashboard_Validation(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.stats.Dashboard(context.Background(), nil, "7d", "all", "steam")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	ids := make([]string, 11)
	for i := range ids {
		ids[i] = "p"
	}
	_, err = e.stats.Dashboard(context.Background(), ids, "7d", "all", "steam")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.stats.Dashboard(context.Background(), []string{"missing"}, "7d", "all", "steam")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
