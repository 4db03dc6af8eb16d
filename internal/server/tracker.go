package server

import (
	"context"
	"fmt"
	"strings"

	"pubg-tracker/internal/domain"
	"pubg-tracker/internal/service"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type TrackerServer struct {
	playerSvc *service.PlayerService
	statsSvc  *service.StatsService
	logger    zerolog.Logger
}

func NewTrackerServer(playerSvc *service.PlayerService, statsSvc *service.StatsService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{playerSvc: playerSvc, statsSvc: statsSvc, logger: logger}
}

func (s *TrackerServer) AddPlayer(ctx context.Context, req *connect.Request[AddPlayerRequest]) (*connect.Response[PlayerResponse], error) {
	player, err := s.playerSvc.AddPlayer(ctx, req.Msg.Shard, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&PlayerResponse{Player: toPlayer(player)}), nil
}

func (s *TrackerServer) ListPlayers(ctx context.Context, _ *connect.Request[ListPlayersRequest]) (*connect.Response[ListPlayersResponse], error) {
	players, err := s.playerSvc.ListPlayers(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &ListPlayersResponse{Players: make([]Player, 0, len(players))}
	for i := range players {
		resp.Players = append(resp.Players, toPlayer(&players[i]))
	}
	return connect.NewResponse(resp), nil
}

func (s *TrackerServer) GetPlayer(ctx context.Context, req *connect.Request[PlayerRequest]) (*connect.Response[PlayerResponse], error) {
	id, err := parsePlayerID(req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	player, err := s.playerSvc.GetPlayer(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&PlayerResponse{Player: toPlayer(player)}), nil
}

func (s *TrackerServer) RefreshPlayer(ctx context.Context, req *connect.Request[PlayerRequest]) (*connect.Response[PlayerResponse], error) {
	id, err := parsePlayerID(req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	player, err := s.playerSvc.RefreshPlayer(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&PlayerResponse{Player: toPlayer(player)}), nil
}

func (s *TrackerServer) RefreshAllPlayers(ctx context.Context, _ *connect.Request[RefreshAllPlayersRequest]) (*connect.Response[RefreshAllPlayersResponse], error) {
	refreshed, failed, err := s.playerSvc.RefreshAllPlayers(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &RefreshAllPlayersResponse{
		Refreshed: make([]Player, 0, len(refreshed)),
		Failed:    make([]RefreshFailure, 0, len(failed)),
	}
	for i := range refreshed {
		resp.Refreshed = append(resp.Refreshed, toPlayer(&refreshed[i]))
	}
	for _, f := range failed {
		resp.Failed = append(resp.Failed, RefreshFailure{PlayerID: f.PlayerID, Error: f.Err.Error()})
	}
	return connect.NewResponse(resp), nil
}

func (s *TrackerServer) DeletePlayer(ctx context.Context, req *connect.Request[PlayerRequest]) (*connect.Response[DeletePlayerResponse], error) {
	id, err := parsePlayerID(req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.playerSvc.DeletePlayer(ctx, id); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeletePlayerResponse{}), nil
}

func (s *TrackerServer) GetPlayerMatches(ctx context.Context, req *connect.Request[PlayerRequest]) (*connect.Response[PlayerMatchesResponse], error) {
	id, err := parsePlayerID(req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	ids, err := s.playerSvc.GetPlayerMatches(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return connect.NewResponse(&PlayerMatchesResponse{PlayerID: id, MatchIDs: ids}), nil
}

func (s *TrackerServer) GetPlayerStats(ctx context.Context, req *connect.Request[StatsRequest]) (*connect.Response[StatsResponse], error) {
	id, err := parsePlayerID(req.Msg.PlayerID)
	if err != nil {
		return nil, toConnectError(err)
	}

	summary, err := s.statsSvc.GetOrComputeStats(ctx, id, req.Msg.Period, req.Msg.Mode, req.Msg.Shard)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("player_id", id).Msg("stats request failed")
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&StatsResponse{Stats: toStats(summary)}), nil
}

func (s *TrackerServer) GetDashboard(ctx context.Context, req *connect.Request[DashboardRequest]) (*connect.Response[DashboardResponse], error) {
	for _, raw := range req.Msg.PlayerIDs {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, err := parsePlayerID(raw); err != nil {
			return nil, toConnectError(err)
		}
	}

	entries, err := s.statsSvc.Dashboard(ctx, req.Msg.PlayerIDs, req.Msg.Period, req.Msg.Mode, req.Msg.Shard)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &DashboardResponse{
		Players: make([]DashboardPlayer, 0, len(entries)),
		Period:  orDefault(req.Msg.Period, string(domain.DefaultPeriod)),
		Mode:    orDefault(req.Msg.Mode, string(domain.DefaultMode)),
	}
	for _, e := range entries {
		resp.Players = append(resp.Players, DashboardPlayer{
			PlayerID: e.Player.ID,
			Name:     e.Player.Name,
			Stats:    toStats(e.Stats),
		})
	}
	return connect.NewResponse(resp), nil
}

func (s *TrackerServer) ClearCache(ctx context.Context, _ *connect.Request[ClearCacheRequest]) (*connect.Response[ClearCacheResponse], error) {
	if err := s.statsSvc.InvalidateAll(ctx); err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info().Msg("stats cache cleared")
	return connect.NewResponse(&ClearCacheResponse{}), nil
}

func parsePlayerID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errInvalidPlayerID, raw)
	}
	return id.String(), nil
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
