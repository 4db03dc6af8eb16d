package server

import (
	"net/http"

	"connectrpc.com/connect"
)

const PubgTrackerServiceName = "pubg.v1.PubgTracker"

// PubgTrackerPath is the URL prefix every procedure is served under.
const PubgTrackerPath = "/" + PubgTrackerServiceName + "/"

const (
	AddPlayerProcedure         = PubgTrackerPath + "AddPlayer"
	ListPlayersProcedure       = PubgTrackerPath + "ListPlayers"
	GetPlayerProcedure         = PubgTrackerPath + "GetPlayer"
	RefreshPlayerProcedure     = PubgTrackerPath + "RefreshPlayer"
	RefreshAllPlayersProcedure = PubgTrackerPath + "RefreshAllPlayers"
	DeletePlayerProcedure      = PubgTrackerPath + "DeletePlayer"
	GetPlayerMatchesProcedure  = PubgTrackerPath + "GetPlayerMatches"
	GetPlayerStatsProcedure    = PubgTrackerPath + "GetPlayerStats"
	GetDashboardProcedure      = PubgTrackerPath + "GetDashboard"
	ClearCacheProcedure        = PubgTrackerPath + "ClearCache"
)

// Procedures lists every path NewPubgTrackerHandler serves.
var Procedures = []string{
	AddPlayerProcedure,
	ListPlayersProcedure,
	GetPlayerProcedure,
	RefreshPlayerProcedure,
	RefreshAllPlayersProcedure,
	DeletePlayerProcedure,
	GetPlayerMatchesProcedure,
	GetPlayerStatsProcedure,
	GetDashboardProcedure,
	ClearCacheProcedure,
}

// NewPubgTrackerHandler builds the Connect handler for every procedure and
// returns it with the path to mount it on.
func NewPubgTrackerHandler(srv *TrackerServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(AddPlayerProcedure, connect.NewUnaryHandler(AddPlayerProcedure, srv.AddPlayer, opts...))
	mux.Handle(ListPlayersProcedure, connect.NewUnaryHandler(ListPlayersProcedure, srv.ListPlayers, opts...))
	mux.Handle(GetPlayerProcedure, connect.NewUnaryHandler(GetPlayerProcedure, srv.GetPlayer, opts...))
	mux.Handle(RefreshPlayerProcedure, connect.NewUnaryHandler(RefreshPlayerProcedure, srv.RefreshPlayer, opts...))
	mux.Handle(RefreshAllPlayersProcedure, connect.NewUnaryHandler(RefreshAllPlayersProcedure, srv.RefreshAllPlayers, opts...))
	mux.Handle(DeletePlayerProcedure, connect.NewUnaryHandler(DeletePlayerProcedure, srv.DeletePlayer, opts...))
	mux.Handle(GetPlayerMatchesProcedure, connect.NewUnaryHandler(GetPlayerMatchesProcedure, srv.GetPlayerMatches, opts...))
	mux.Handle(GetPlayerStatsProcedure, connect.NewUnaryHandler(GetPlayerStatsProcedure, srv.GetPlayerStats, opts...))
	mux.Handle(GetDashboardProcedure, connect.NewUnaryHandler(GetDashboardProcedure, srv.GetDashboard, opts...))
	mux.Handle(ClearCacheProcedure, connect.NewUnaryHandler(ClearCacheProcedure, srv.ClearCache, opts...))

	return PubgTrackerPath, mux
}
