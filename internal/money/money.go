// Package money содержит денежную арифметику с фиксированной точкой (2 знака)
// и две явные политики округления: агрегатную и распределительную.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloud-ru/installments-go/pkg/utils"
	"github.com/shopspring/decimal"
)

// Places количество знаков после запятой у денежных сумм
const Places int32 = 2

var (
	// Cent минимальная денежная единица, она же допуск сверки
	Cent = decimal.New(1, -Places)

	ErrInvalidSplit  = errors.New("split requires count >= 1 and a non-negative total")
	ErrInvalidAmount = errors.New("invalid amount")
)

// AggregateRound округляет итоговые показатели: половина вверх (от нуля)
func AggregateRound(v decimal.Decimal) decimal.Decimal {
	return v.Round(Places)
}

// DistributeRound округляет долю при распределении: всегда вниз,
// остаток забирает последний элемент
func DistributeRound(v decimal.Decimal) decimal.Decimal {
	return v.RoundFloor(Places)
}

// Split делит total на count частей с точностью до цента.
// Все части кроме последней равны floor(total/count), последняя получает остаток,
// поэтому сумма частей всегда равна total.
func Split(total decimal.Decimal, count int) ([]decimal.Decimal, error) {
	if count < 1 || total.IsNegative() {
		return nil, fmt.Errorf("%w: total=%s count=%d", ErrInvalidSplit, total.String(), count)
	}

	perItem := DistributeRound(total.Div(decimal.NewFromInt(int64(count))))
	sumExceptLast := perItem.Mul(decimal.NewFromInt(int64(count - 1)))

	parts := make([]decimal.Decimal, count)
	for i := 0; i < count-1; i++ {
		parts[i] = perItem
	}
	parts[count-1] = total.Sub(sumExceptLast)

	return parts, nil
}

// Sum складывает суммы без промежуточного округления
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// WithinTolerance true, если |diff| меньше одного цента
func WithinTolerance(diff decimal.Decimal) bool {
	return diff.Abs().LessThan(Cent)
}

// Parse разбирает сумму из строки, допускает запятую как разделитель
func Parse(value string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return AggregateRound(d), nil
}

// FromFloat переводит float64 из внешнего ввода в сумму с 2 знаками
func FromFloat(value float64) (decimal.Decimal, error) {
	if !utils.IsFinite(value) {
		return decimal.Zero, fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	return AggregateRound(decimal.NewFromFloat(value)), nil
}
