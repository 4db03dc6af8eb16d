package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pubg-tracker/internal/api"
	"pubg-tracker/internal/cache"
	"pubg-tracker/internal/config"
	"pubg-tracker/internal/database"
	"pubg-tracker/internal/db"
	"pubg-tracker/internal/domain"
	"pubg-tracker/internal/repository"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const subject = "account.subject"

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) FetchMatch(ctx context.Context, shard, matchID string) (*domain.MatchRecord, error) {
	args := m.Called(ctx, shard, matchID)
	rec, _ := args.Get(0).(*domain.MatchRecord)
	return rec, args.Error(1)
}

func (m *mockAPI) FetchPlayer(ctx context.Context, shard, name string) (*api.PlayerRecord, error) {
	args := m.Called(ctx, shard, name)
	rec, _ := args.Get(0).(*api.PlayerRecord)
	return rec, args.Error(1)
}

type testEnv struct {
	api       *mockAPI
	players   *repository.PlayerRepository
	statsRepo *repository.StatsRepository
	cache     *cache.StatsCache
	stats     *StatsService
	registry  *PlayerService
	clock     *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "service.db")}
	sqlDB, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	queries := db.New(sqlDB)
	players := repository.NewPlayerRepository(queries, zerolog.Nop())
	statsRepo := repository.NewStatsRepository(queries, zerolog.Nop())

	clock := clockwork.NewFakeClockAt(testNow)
	statsCache := cache.New(statsRepo, cache.Options{
		Capacity:  100,
		TTL:       time.Hour,
		Workers:   1,
		QueueSize: 128,
		Clock:     clock,
	}, zerolog.Nop())
	require.NoError(t, statsCache.Start(context.Background()))
	t.Cleanup(func() { _ = statsCache.Close(time.Second) })

	client := &mockAPI{}
	stats := NewStatsService(client, players, statsCache, clock, zerolog.Nop())

	return &testEnv{
		api:       client,
		players:   players,
		statsRepo: statsRepo,
		cache:     statsCache,
		stats:     stats,
		registry:  NewPlayerService(client, players, stats, clock, zerolog.Nop()),
		clock:     clock,
	}
}

func (e *testEnv) addPlayer(t *testing.T, shard string, matchIDs ...string) *domain.Player {
	t.Helper()
	p, err := e.players.Create(context.Background(), &domain.Player{
		AccountID:   subject,
		Name:        "Subject",
		Shard:       shard,
		LastMatches: matchIDs,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.cache.Flush(ctx))
}

func match(id string, age time.Duration, p domain.Participant) *domain.MatchRecord {
	p.PlayerID = subject
	return &domain.MatchRecord{
		MatchID:   id,
		CreatedAt: testNow.Add(-age).Format(time.RFC3339),
		GameMode:  "squad-fpp",
		Participants: []domain.Participant{
			p,
			{PlayerID: "account.other", Kills: 9, WinPlace: 2, DeathType: "byplayer"},
		},
	}
}

func (e *testEnv) addPlayerWithAccount(t *testing.T, accountID string, matchIDs ...string) *domain.Player {
	t.Helper()
	p, err := e.players.Create(context.Background(), &domain.Player{
		AccountID:   accountID,
		Name:        accountID,
		Shard:       "steam",
		LastMatches: matchIDs,
	})
	require.NoError(t, err)
	return p
}

// newStatsServiceOver builds a service with an empty memory tier over the
// same persistent store and external API.
func newStatsServiceOver(e *testEnv) *StatsService {
	c := cache.New(e.statsRepo, cache.Options{Clock: e.clock}, zerolog.Nop())
	return NewStatsService(e.api, e.players, c, e.clock, zerolog.Nop())
}
