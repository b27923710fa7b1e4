// Package schedule описывает контракт внешнего сервиса расчета графика
// и загрузку его ответа в редактируемый график.
package schedule

import (
	"fmt"

	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/shopspring/decimal"
)

// AmortizationRequest запрос на генерацию графика
type AmortizationRequest struct {
	TotalAmount        decimal.Decimal  `json:"totalAmount"`
	InitialAmount      decimal.Decimal  `json:"initialAmount"`
	ReservationAmount  decimal.Decimal  `json:"reservationAmount"`
	InterestRate       decimal.Decimal  `json:"interestRate"`
	NumberOfPayments   int              `json:"numberOfPayments"`
	FirstPaymentDate   string           `json:"firstPaymentDate"`
	IncludeDecimals    bool             `json:"includeDecimals"`
	TotalAmountHU      *decimal.Decimal `json:"totalAmountHu,omitempty"`
	NumberOfPaymentsHU *int             `json:"numberOfPaymentsHu,omitempty"`
	FirstPaymentDateHU string           `json:"firstPaymentDateHu,omitempty"`
}

// HasHU запрошено ли финансирование HU
func (r AmortizationRequest) HasHU() bool {
	return r.TotalAmountHU != nil && r.TotalAmountHU.IsPositive()
}

// Meta итоги графика по версии сервиса расчета
type Meta struct {
	LotInstallmentsCount   int             `json:"lotInstallmentsCount"`
	LotTotalAmount         decimal.Decimal `json:"lotTotalAmount"`
	HUInstallmentsCount    int             `json:"huInstallmentsCount"`
	HUTotalAmount          decimal.Decimal `json:"huTotalAmount"`
	TotalInstallmentsCount int             `json:"totalInstallmentsCount"`
	TotalAmount            decimal.Decimal `json:"totalAmount"`
}

// AmortizationResponse сгенерированный график
type AmortizationResponse struct {
	Installments []ledger.Installment `json:"installments"`
	Meta         Meta                 `json:"meta"`
}

// Expected целевые итоги для сверки отредактированного графика
func (r AmortizationResponse) Expected() ledger.Expected {
	return ledger.Expected{
		Lot: r.Meta.LotTotalAmount,
		HU:  r.Meta.HUTotalAmount,
	}
}

// Load заменяет содержимое l сгенерированным графиком
func (r AmortizationResponse) Load(l *ledger.Ledger) error {
	lines, err := ledger.LinesFromInstallments(r.Installments)
	if err != nil {
		return fmt.Errorf("load amortization schedule: %w", err)
	}
	l.Initialize(lines, r.Expected())
	return nil
}
