package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidMode   = errors.New("invalid mode")
	ErrInvalidShard  = errors.New("invalid shard")
	ErrEmptyPlayerID = errors.New("player id is required")
)

type Period string

const (
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period90d Period = "90d"
)

var Periods = []Period{Period7d, Period30d, Period90d}

// Window is the trailing window a summary for p covers. Unknown periods fall
// back to 7 days.
func (p Period) Window() time.Duration {
	switch p {
	case Period30d:
		return 30 * 24 * time.Hour
	case Period90d:
		return 90 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// TTL is how long a summary for p stays valid after computation.
func (p Period) TTL() time.Duration {
	switch p {
	case Period30d:
		return 72 * time.Hour
	case Period90d:
		return 168 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (p Period) Valid() bool {
	return p == Period7d || p == Period30d || p == Period90d
}

type Mode string

const (
	ModeSolo  Mode = "solo"
	ModeDuo   Mode = "duo"
	ModeSquad Mode = "squad"
	ModeAll   Mode = "all"
)

var Modes = []Mode{ModeSolo, ModeDuo, ModeSquad, ModeAll}

func (m Mode) Valid() bool {
	for _, v := range Modes {
		if m == v {
			return true
		}
	}
	return false
}

type Shard string

const (
	ShardSteam Shard = "steam"
	ShardXbox  Shard = "xbox"
	ShardPSN   Shard = "psn"
)

var Shards = []Shard{ShardSteam, ShardXbox, ShardPSN}

func (s Shard) Valid() bool {
	for _, v := range Shards {
		if s == v {
			return true
		}
	}
	return false
}

const (
	DefaultPeriod = Period7d
	DefaultMode   = ModeAll
	DefaultShard  = ShardSteam
)

// StatsKey identifies one summary in both cache tiers.
type StatsKey struct {
	PlayerID string
	Period   Period
	Mode     Mode
	Shard    Shard
}

// NewStatsKey builds a key from raw selectors. Empty selectors take the
// defaults (7d, all, steam).
func NewStatsKey(playerID, period, mode, shard string) (StatsKey, error) {
	k := StatsKey{
		PlayerID: strings.TrimSpace(playerID),
		Period:   Period(orDefault(period, string(DefaultPeriod))),
		Mode:     Mode(orDefault(mode, string(DefaultMode))),
		Shard:    Shard(orDefault(shard, string(DefaultShard))),
	}
	if err := k.Validate(); err != nil {
		return StatsKey{}, err
	}
	return k, nil
}

func (k StatsKey) Validate() error {
	if k.PlayerID == "" {
		return ErrEmptyPlayerID
	}
	if !k.Period.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriod, k.Period)
	}
	if !k.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, k.Mode)
	}
	if !k.Shard.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidShard, k.Shard)
	}
	return nil
}

func (k StatsKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.PlayerID, k.Period, k.Mode, k.Shard)
}

// AllStatsKeys enumerates every period/mode/shard view of a player.
func AllStatsKeys(playerID string) []StatsKey {
	keys := make([]StatsKey, 0, len(Periods)*len(Modes)*len(Shards))
	for _, p := range Periods {
		for _, m := range Modes {
			for _, s := range Shards {
				keys = append(keys, StatsKey{PlayerID: playerID, Period: p, Mode: m, Shard: s})
			}
		}
	}
	return keys
}

func orDefault(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
