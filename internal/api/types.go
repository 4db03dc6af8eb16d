package api

import (
	"encoding/json"
	"fmt"

	"pubg-tracker/internal/domain"
)

// PlayerRecord is the subset of a player resource the tracker keeps.
type PlayerRecord struct {
	AccountID string
	Name      string
	ShardID   string
	MatchIDs  []string
}

type PlayerResponse struct {
	Data []PlayerData `json:"data"`
}

type PlayerData struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		Name      string  `json:"name"`
		ShardID   string  `json:"shardId"`
		CreatedAt *string `json:"createdAt"`
		UpdatedAt *string `json:"updatedAt"`
	} `json:"attributes"`
	Relationships struct {
		Matches struct {
			Data []ResourceRef `json:"data"`
		} `json:"matches"`
	} `json:"relationships"`
}

type ResourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (d PlayerData) Record() *PlayerRecord {
	ids := make([]string, 0, len(d.Relationships.Matches.Data))
	for _, m := range d.Relationships.Matches.Data {
		ids = append(ids, m.ID)
	}
	return &PlayerRecord{
		AccountID: d.ID,
		Name:      d.Attributes.Name,
		ShardID:   d.Attributes.ShardID,
		MatchIDs:  ids,
	}
}

type MatchResponse struct {
	Data     MatchData          `json:"data"`
	Included []IncludedResource `json:"included"`
}

type MatchData struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		CreatedAt     string  `json:"createdAt"`
		Duration      int     `json:"duration"`
		GameMode      string  `json:"gameMode"`
		MapName       string  `json:"mapName"`
		IsCustomMatch bool    `json:"isCustomMatch"`
		MatchType     *string `json:"matchType"`
		ShardID       string  `json:"shardId"`
	} `json:"attributes"`
}

// IncludedResource is one entry of the polymorphic "included" array. Only
// participants are decoded; rosters, assets and unknown types keep just their
// type and id.
type IncludedResource struct {
	Type        string
	ID          string
	Participant *ParticipantAttributes
}

func (r *IncludedResource) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type       string          `json:"type"`
		ID         string          `json:"id"`
		Attributes json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Type = raw.Type
	r.ID = raw.ID
	if raw.Type == "participant" && len(raw.Attributes) > 0 {
		var attrs ParticipantAttributes
		if err := json.Unmarshal(raw.Attributes, &attrs); err != nil {
			return fmt.Errorf("participant %s: %w", raw.ID, err)
		}
		r.Participant = &attrs
	}
	return nil
}

type ParticipantAttributes struct {
	Stats   ParticipantStats `json:"stats"`
	Actor   string           `json:"actor"`
	ShardID string           `json:"shardId"`
}

type ParticipantStats struct {
	DBNOs           int     `json:"DBNOs"`
	Assists         int     `json:"assists"`
	Boosts          int     `json:"boosts"`
	DamageDealt     float64 `json:"damageDealt"`
	DeathType       string  `json:"deathType"`
	HeadshotKills   int     `json:"headshotKills"`
	Heals           int     `json:"heals"`
	KillPlace       int     `json:"killPlace"`
	KillStreaks     int     `json:"killStreaks"`
	Kills           int     `json:"kills"`
	LongestKill     float64 `json:"longestKill"`
	Name            string  `json:"name"`
	PlayerID        string  `json:"playerId"`
	Revives         int     `json:"revives"`
	RideDistance    float64 `json:"rideDistance"`
	RoadKills       int     `json:"roadKills"`
	SwimDistance    float64 `json:"swimDistance"`
	TeamKills       int     `json:"teamKills"`
	TimeSurvived    float64 `json:"timeSurvived"`
	VehicleDestroys int     `json:"vehicleDestroys"`
	WalkDistance    float64 `json:"walkDistance"`
	WeaponsAcquired int     `json:"weaponsAcquired"`
	WinPlace        int     `json:"winPlace"`
}

func (m *MatchResponse) Record() *domain.MatchRecord {
	rec := &domain.MatchRecord{
		MatchID:   m.Data.ID,
		CreatedAt: m.Data.Attributes.CreatedAt,
		GameMode:  m.Data.Attributes.GameMode,
		MapName:   m.Data.Attributes.MapName,
		Duration:  m.Data.Attributes.Duration,
		ShardID:   m.Data.Attributes.ShardID,
	}
	for _, inc := range m.Included {
		if inc.Participant == nil {
			continue
		}
		s := inc.Participant.Stats
		rec.Participants = append(rec.Participants, domain.Participant{
			PlayerID:     s.PlayerID,
			Name:         s.Name,
			Kills:        s.Kills,
			Assists:      s.Assists,
			DamageDealt:  s.DamageDealt,
			TimeSurvived: s.TimeSurvived,
			WinPlace:     s.WinPlace,
			DeathType:    s.DeathType,
		})
	}
	return rec
}
