// Package money содержит десятичную арифметику для денежных сумм и процентов.
// Все промежуточные результаты умножения и деления округляются до двух знаков
// (half-up, от нуля) перед суммированием или сравнением, чтобы расчёт выплат
// был детерминированным и не накапливал дрейф.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quantize округляет значение до двух десятичных знаков (half-up).
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ApplyPercent возвращает base * percent / 100, округлённое до цента.
func ApplyPercent(base, percent decimal.Decimal) decimal.Decimal {
	return Quantize(base.Mul(percent).Div(hundred))
}

// DivideBy делит сумму на count и округляет до цента. Вызывающая сторона
// гарантирует count > 0.
func DivideBy(amount decimal.Decimal, count int) decimal.Decimal {
	return Quantize(amount.Div(decimal.NewFromInt(int64(count))))
}

// ParseAmount разбирает денежную или процентную строку из пользовательского
// ввода. Немецкая запятая допустима ("12,50"). Пустая или нечисловая строка —
// ошибка валидации на границе, не внутри движка.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
