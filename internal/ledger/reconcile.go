package ledger

import (
	"github.com/cloud-ru/installments-go/internal/money"
	"github.com/shopspring/decimal"
)

// Meta пересчитывает итоги и сверяет их с целевыми. Считается заново
// при каждом вызове, кеша нет.
func (l *Ledger) Meta() Meta {
	var m Meta
	for _, ln := range l.lines {
		m.LotTotal = m.LotTotal.Add(ln.Lot)
		m.HUTotal = m.HUTotal.Add(ln.HU)
		if !ln.Lot.IsZero() {
			m.LotCount++
		}
		if !ln.HU.IsZero() {
			m.HUCount++
		}
	}
	m.LotTotal = money.AggregateRound(m.LotTotal)
	m.HUTotal = money.AggregateRound(m.HUTotal)
	m.TotalCount = len(l.lines)
	m.TotalAmount = m.LotTotal.Add(m.HUTotal)

	m.LotBalanceDifference = m.LotTotal.Sub(l.expected.Lot)
	if l.expected.HUConfigured() {
		m.HUBalanceDifference = m.HUTotal.Sub(l.expected.HU)
	} else {
		m.HUBalanceDifference = decimal.Zero
	}

	m.IsValid = len(l.lines) > 0 &&
		money.WithinTolerance(m.LotBalanceDifference) &&
		money.WithinTolerance(m.HUBalanceDifference)
	return m
}

// ColumnTotal сумма колонки по строкам, прошедшим фильтр (nil: все строки)
func (l *Ledger) ColumnTotal(column Column, eligible func(Line) bool) decimal.Decimal {
	total := decimal.Zero
	for _, ln := range l.lines {
		if eligible == nil || eligible(ln) {
			total = total.Add(ln.Amount(column))
		}
	}
	return total
}
