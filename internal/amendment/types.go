package amendment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/internal/money"
	"github.com/shopspring/decimal"
)

// State состояние допсоглашения
type State int

const (
	StateInactive State = iota
	StateActive
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSaving:
		return "saving"
	default:
		return "inactive"
	}
}

var (
	ErrNotActive             = errors.New("amendment is not active")
	ErrAlreadyActive         = errors.New("amendment already started")
	ErrPaidLineLocked        = errors.New("paid installment amount cannot be changed or removed")
	ErrNotBalanced           = errors.New("pending installments do not match the expected total")
	ErrNoPendingInstallments = errors.New("amendment has no pending installments")
	ErrSubmissionInFlight    = errors.New("amendment submission already in progress")
)

// FinancingDetail данные финансирования продажи, из которых считаются
// уже оплаченная сумма и общий долг
type FinancingDetail struct {
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	TotalLateFeePaid decimal.Decimal `json:"totalLateFeePaid"`
	TotalCouteAmount decimal.Decimal `json:"totalCouteAmount"`
	TotalLateFee     decimal.Decimal `json:"totalLateFee"`
}

// PaidAmount оплачено всего, включая пени
func (d FinancingDetail) PaidAmount() decimal.Decimal {
	return d.TotalPaid.Add(d.TotalLateFeePaid)
}

// Debt общий долг по графику, включая пени
func (d FinancingDetail) Debt() decimal.Decimal {
	return d.TotalCouteAmount.Add(d.TotalLateFee)
}

// Installment строка графика в запросе на сохранение допсоглашения
type Installment struct {
	Number  int             `json:"number"`
	DueDate string          `json:"dueDate"`
	Amount  decimal.Decimal `json:"amount"`
	Status  ledger.Status   `json:"status"`
}

// Submission тело запроса на сохранение допсоглашения
type Submission struct {
	AdditionalAmount decimal.Decimal `json:"additionalAmount"`
	Observation      string          `json:"observation,omitempty"`
	Installments     []Installment   `json:"installments"`
}

// MarshalJSON пишет сумму числом с двумя знаками: "amount": 1000.00
func (i Installment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Number  int           `json:"number"`
		DueDate string        `json:"dueDate"`
		Amount  json.Number   `json:"amount"`
		Status  ledger.Status `json:"status"`
	}{i.Number, i.DueDate, fixed(i.Amount), i.Status})
}

func (s Submission) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		AdditionalAmount json.Number   `json:"additionalAmount"`
		Observation      string        `json:"observation,omitempty"`
		Installments     []Installment `json:"installments"`
	}{fixed(s.AdditionalAmount), s.Observation, s.Installments})
}

func fixed(v decimal.Decimal) json.Number {
	return json.Number(v.StringFixed(money.Places))
}

// Submitter внешний сервис, принимающий допсоглашение
type Submitter interface {
	SubmitAmendment(ctx context.Context, financingID string, submission Submission) (string, error)
}

// Patch изменение строки допсоглашения; у оплаченной строки менять можно только дату
type Patch struct {
	Amount  *decimal.Decimal
	DueDate *time.Time
}
