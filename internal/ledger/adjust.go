package ledger

import (
	"fmt"

	"github.com/cloud-ru/installments-go/internal/money"
	"github.com/shopspring/decimal"
)

// Correction разница, которую нужно убрать из колонки
// (положительная: излишек, отрицательная: недостача)
type Correction struct {
	Column     Column
	Difference decimal.Decimal
}

// Adjustment результат корректировки: изменение каждой колонки
// (отрицательное значение: списано) и затронутые строки в порядке графика
type Adjustment struct {
	Lot     decimal.Decimal
	HU      decimal.Decimal
	Touched []ID
}

// ResidualError излишек больше суммы колонки (или график пуст),
// убрать разницу перераспределением нельзя
type ResidualError struct {
	Column   Column
	Residual decimal.Decimal
}

func (e *ResidualError) Error() string {
	return fmt.Sprintf("%s: %s column keeps %s", ErrResidualUnresolved, e.Column, e.Residual.StringFixed(2))
}

func (e *ResidualError) Unwrap() error {
	return ErrResidualUnresolved
}

// AdjustToBalance убирает расхождение с целевыми итогами: сначала лот,
// затем HU (если настроено). Повторный вызов ничего не меняет.
func (l *Ledger) AdjustToBalance() (Adjustment, error) {
	meta := l.Meta()
	corrections := []Correction{{Column: ColumnLot, Difference: meta.LotBalanceDifference}}
	if l.expected.HUConfigured() {
		corrections = append(corrections, Correction{Column: ColumnHU, Difference: meta.HUBalanceDifference})
	}
	return l.Rebalance(corrections, nil)
}

// Rebalance применяет корректировки к строкам, прошедшим фильтр eligible
// (nil: все строки). Излишек снимается с конца графика к началу, строка
// обнуляется и остаток переносится на предыдущую. Недостача целиком
// добавляется к последней строке. Если хотя бы одну корректировку нельзя
// выполнить, график не меняется и возвращается *ResidualError.
func (l *Ledger) Rebalance(corrections []Correction, eligible func(Line) bool) (Adjustment, error) {
	targets := make([]int, 0, len(l.lines))
	for i, ln := range l.lines {
		if eligible == nil || eligible(ln) {
			targets = append(targets, i)
		}
	}

	for _, c := range corrections {
		if !validColumn(c.Column) {
			return Adjustment{}, fmt.Errorf("%w: %q", ErrUnknownColumn, c.Column)
		}
		if err := l.checkResolvable(c, targets); err != nil {
			return Adjustment{}, err
		}
	}

	adj := Adjustment{Lot: decimal.Zero, HU: decimal.Zero}
	touched := make(map[int]struct{})
	for _, c := range corrections {
		applied := l.cascade(c, targets, touched)
		if c.Column == ColumnHU {
			adj.HU = adj.HU.Add(applied)
		} else {
			adj.Lot = adj.Lot.Add(applied)
		}
	}

	for _, i := range targets {
		if _, ok := touched[i]; ok {
			l.lines[i].recomputeTotal()
			adj.Touched = append(adj.Touched, l.lines[i].ID)
		}
	}
	return adj, nil
}

func (l *Ledger) checkResolvable(c Correction, targets []int) error {
	if c.Difference.IsZero() {
		return nil
	}
	if len(targets) == 0 {
		return &ResidualError{Column: c.Column, Residual: c.Difference}
	}
	if c.Difference.IsPositive() {
		amounts := make([]decimal.Decimal, len(targets))
		for k, i := range targets {
			amounts[k] = l.lines[i].Amount(c.Column)
		}
		available := money.Sum(amounts...)
		if c.Difference.GreaterThan(available) {
			return &ResidualError{Column: c.Column, Residual: c.Difference.Sub(available)}
		}
	}
	return nil
}

func (l *Ledger) cascade(c Correction, targets []int, touched map[int]struct{}) decimal.Decimal {
	switch {
	case c.Difference.IsPositive():
		remaining := c.Difference
		for k := len(targets) - 1; k >= 0 && remaining.IsPositive(); k-- {
			i := targets[k]
			amount := l.lines[i].Amount(c.Column)
			if amount.IsZero() {
				continue
			}
			if amount.GreaterThanOrEqual(remaining) {
				l.lines[i].setAmount(c.Column, amount.Sub(remaining))
				remaining = decimal.Zero
			} else {
				l.lines[i].setAmount(c.Column, decimal.Zero)
				remaining = remaining.Sub(amount)
			}
			touched[i] = struct{}{}
		}
		return c.Difference.Sub(remaining).Neg()

	case c.Difference.IsNegative():
		i := targets[len(targets)-1]
		l.lines[i].setAmount(c.Column, l.lines[i].Amount(c.Column).Sub(c.Difference))
		touched[i] = struct{}{}
		return c.Difference.Neg()
	}
	return decimal.Zero
}
