// Package payout содержит чистую арифметику расчёта выплат: ранжирование
// участников и распределение двух потов призового фонда. Пакет не трогает
// хранилище — на вход идут уже загруженные данные игры.
package payout

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tipprunde/models"
	"tipprunde/money"
)

// TotalStake возвращает общий призовой фонд игры: взнос на человека,
// умноженный на число участников.
func TotalStake(stakePerPerson decimal.Decimal, memberCount int) decimal.Decimal {
	return stakePerPerson.Mul(decimal.NewFromInt(int64(memberCount)))
}

// Rank сортирует участников по убыванию очков, потом побед; равные счёты
// разрешаются по фамилии и имени без учёта регистра, по возрастанию. Порядок
// полностью детерминирован: двух участников с одним рангом не бывает.
func Rank(members []models.Member) []models.Member {
	ranked := make([]models.Member, len(members))
	copy(ranked, members)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		ap, bp := latestPoints(a), latestPoints(b)
		if ap != bp {
			return ap > bp
		}
		av, bv := latestVictories(a), latestVictories(b)
		if !av.Equal(bv) {
			return av.GreaterThan(bv)
		}
		al, bl := strings.ToLower(a.LastName), strings.ToLower(b.LastName)
		if al != bl {
			return al < bl
		}
		return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
	})

	return ranked
}

// Evaluate строит полную таблицу выплат по игре.
//
// Пот побед делится поровну на число туров, после чего каждый участник
// получает долю, пропорциональную числу его побед. Пот мест распределяется
// по правилам (rank -> percent); места без правила получают 0%. Участник без
// истории статусов считается с 0 очков / 0.0 побед и всё равно получает
// строку и ранг.
//
// Каждое промежуточное умножение/деление квантуется до цента, поэтому сумма
// victory_pot + placement_pot может расходиться с total_stake максимум на
// ±0.01 — расхождение детерминировано и не скрывается.
func Evaluate(game *models.Game, members []models.Member, cfg *models.GameConfig, rules []models.PlacementPayout) models.EvaluationResult {
	totalStake := TotalStake(game.StakePerPerson, len(members))
	victoryPot := money.ApplyPercent(totalStake, cfg.VictorySharePercent)
	placementPot := money.ApplyPercent(totalStake, cfg.PlacementSharePercent)

	perMatchday := decimal.Zero
	if cfg.NumMatchdays > 0 {
		perMatchday = money.DivideBy(victoryPot, cfg.NumMatchdays)
	}

	rankToPercent := make(map[int]decimal.Decimal, len(rules))
	percentSum := decimal.Zero
	for _, rule := range rules {
		rankToPercent[rule.Rank] = rule.Percent
		percentSum = percentSum.Add(rule.Percent)
	}

	ranked := Rank(members)
	rows := make([]models.EvaluationRow, 0, len(ranked))
	for idx, m := range ranked {
		rank := idx + 1
		victories := latestVictories(m)

		payoutVictories := money.Quantize(perMatchday.Mul(victories))
		placementPercent, ok := rankToPercent[rank]
		if !ok {
			placementPercent = decimal.Zero
		}
		payoutPlacement := money.ApplyPercent(placementPot, placementPercent)

		rows = append(rows, models.EvaluationRow{
			Rank:             rank,
			Member:           m,
			Points:           latestPoints(m),
			Victories:        victories,
			PayoutVictories:  payoutVictories,
			PayoutPlacement:  payoutPlacement,
			PayoutTotal:      money.Quantize(payoutVictories.Add(payoutPlacement)),
			PlacementPercent: placementPercent,
		})
	}

	return models.EvaluationResult{
		GameID:              game.ID,
		TotalStake:          totalStake,
		VictoryPot:          victoryPot,
		PlacementPot:        placementPot,
		PerMatchday:         perMatchday,
		PlacementPercentSum: percentSum,
		Rows:                rows,
	}
}

func latestPoints(m models.Member) int {
	if m.LatestPoints == nil {
		return 0
	}
	return m.LatestPoints.Points
}

func latestVictories(m models.Member) decimal.Decimal {
	if m.LatestVictory == nil {
		return decimal.Zero
	}
	return m.LatestVictory.Victories
}
