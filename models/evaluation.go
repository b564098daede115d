package models

import "github.com/shopspring/decimal"

// EvaluationRow — одна строка итоговой таблицы выплат.
type EvaluationRow struct {
	Rank             int             `json:"rank"`
	Member           Member          `json:"member"`
	Points           int             `json:"points"`
	Victories        decimal.Decimal `json:"victories"`
	PayoutVictories  decimal.Decimal `json:"payout_victories"`
	PayoutPlacement  decimal.Decimal `json:"payout_placement"`
	PayoutTotal      decimal.Decimal `json:"payout_total"`
	PlacementPercent decimal.Decimal `json:"placement_percent"`
}

// EvaluationResult — полный результат расчёта выплат по игре.
// PlacementPercentSum информационная: показывает нераспределённый остаток
// placement-пота, если правила мест не покрывают 100%.
type EvaluationResult struct {
	GameID              int             `json:"game_id"`
	TotalStake          decimal.Decimal `json:"total_stake"`
	VictoryPot          decimal.Decimal `json:"victory_pot"`
	PlacementPot        decimal.Decimal `json:"placement_pot"`
	PerMatchday         decimal.Decimal `json:"per_matchday"`
	PlacementPercentSum decimal.Decimal `json:"placement_percent_sum"`
	Rows                []EvaluationRow `json:"rows"`
}
