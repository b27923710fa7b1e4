package ledger

import (
	"errors"
	"time"

	"github.com/cloud-ru/installments-go/internal/money"
	"github.com/shopspring/decimal"
)

// Status статус строки графика (используется в допсоглашениях)
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusExpired Status = "EXPIRED"
)

// Column колонка суммы, над которой выполняется операция
type Column string

const (
	ColumnLot Column = "lot"
	ColumnHU  Column = "hu"
)

var (
	ErrLineNotFound       = errors.New("installment line not found")
	ErrEmptySelection     = errors.New("no installment lines selected")
	ErrUnknownColumn      = errors.New("unknown amount column")
	ErrResidualUnresolved = errors.New("balance difference cannot be absorbed by the schedule")
)

// Line одна строка графика платежей (cuota)
type Line struct {
	ID       ID
	Number   int
	HUNumber int
	DueDate  time.Time
	Lot      decimal.Decimal
	HU       decimal.Decimal
	Total    decimal.Decimal
	Status   Status
}

// Amount сумма строки в указанной колонке
func (ln Line) Amount(column Column) decimal.Decimal {
	if column == ColumnHU {
		return ln.HU
	}
	return ln.Lot
}

func (ln *Line) setAmount(column Column, v decimal.Decimal) {
	if column == ColumnHU {
		ln.HU = v
	} else {
		ln.Lot = v
	}
}

func (ln *Line) recomputeTotal() {
	ln.Total = ln.Lot.Add(ln.HU)
}

// LinePatch частичное изменение строки; nil-поля не трогаются
type LinePatch struct {
	Lot     *decimal.Decimal
	HU      *decimal.Decimal
	DueDate *time.Time
}

// Expected целевые итоги, с которыми сверяется график
type Expected struct {
	Lot decimal.Decimal
	HU  decimal.Decimal
}

func (e Expected) rounded() Expected {
	return Expected{Lot: money.AggregateRound(e.Lot), HU: money.AggregateRound(e.HU)}
}

// HUConfigured false, если финансирование HU не предусмотрено
func (e Expected) HUConfigured() bool {
	return !e.HU.IsZero()
}

// Meta производные показатели графика
type Meta struct {
	LotTotal             decimal.Decimal
	HUTotal              decimal.Decimal
	LotCount             int
	HUCount              int
	TotalCount           int
	TotalAmount          decimal.Decimal
	LotBalanceDifference decimal.Decimal
	HUBalanceDifference  decimal.Decimal
	IsValid              bool
}

func validColumn(column Column) bool {
	return column == ColumnLot || column == ColumnHU
}
