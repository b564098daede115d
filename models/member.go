package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Member struct {
	ID        int       `json:"id" db:"id"`
	GameID    int       `json:"game_id" db:"game_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Nickname  string    `json:"nickname" db:"nickname"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Optional linked data, populated by services, not mapped directly.
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty" db:"-"`
	LatestPoints  *PointsStatus  `json:"latest_points,omitempty" db:"-"`
	LatestVictory *VictoryStatus `json:"latest_victory,omitempty" db:"-"`
}

type PaymentMethod struct {
	ID        int     `json:"id" db:"id"`
	MemberID  int     `json:"member_id" db:"member_id"`
	Label     string  `json:"label" db:"label"`
	Reference *string `json:"reference,omitempty" db:"reference"`
}

// PointsStatus является снимком общего счёта участника на дату, не дельтой.
type PointsStatus struct {
	ID       int       `json:"id" db:"id"`
	MemberID int       `json:"member_id" db:"member_id"`
	Points   int       `json:"points" db:"points"`
	Date     time.Time `json:"date" db:"date"`
}

// VictoryStatus является снимком числа побед участника на дату.
// Победы дробные: ничья в туре делит победу, например 0.5.
type VictoryStatus struct {
	ID        int             `json:"id" db:"id"`
	MemberID  int             `json:"member_id" db:"member_id"`
	Victories decimal.Decimal `json:"victories" db:"victories"`
	Date      time.Time       `json:"date" db:"date"`
}
