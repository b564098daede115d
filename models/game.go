package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game представляет одну типпрунду (Tippspiel).
type Game struct {
	ID             int             `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	StakePerPerson decimal.Decimal `json:"stake_per_person" db:"stake_per_person"`
	URL            *string         `json:"url,omitempty" db:"url"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	LogoKey        *string         `json:"-" db:"logo_key"`
	LogoURL        *string         `json:"logo_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Config           *GameConfig       `json:"config,omitempty" db:"-"`
	Members          []Member          `json:"members,omitempty" db:"-"`
	PlacementPayouts []PlacementPayout `json:"placement_payouts,omitempty" db:"-"`
}

// GameConfig хранит распределение призового фонда одной игры.
// victory_share_percent + placement_share_percent должны давать ровно 100.00.
type GameConfig struct {
	ID                    int             `json:"id" db:"id"`
	GameID                int             `json:"game_id" db:"game_id"`
	VictorySharePercent   decimal.Decimal `json:"victory_share_percent" db:"victory_share_percent"`
	PlacementSharePercent decimal.Decimal `json:"placement_share_percent" db:"placement_share_percent"`
	NumMatchdays          int             `json:"num_matchdays" db:"num_matchdays"`
}

// PlacementPayout задаёт долю placement-пота для одного места (rank=1 — победитель).
// Rank уникален внутри игры; проценты по всем местам не обязаны давать 100.
type PlacementPayout struct {
	ID      int             `json:"id" db:"id"`
	GameID  int             `json:"game_id" db:"game_id"`
	Rank    int             `json:"rank" db:"rank"`
	Percent decimal.Decimal `json:"percent" db:"percent"`
}
