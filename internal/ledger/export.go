package ledger

import (
	"fmt"

	"github.com/cloud-ru/installments-go/pkg/utils"
	"github.com/shopspring/decimal"
)

// Installment строка графика в формате сервиса расчета, без внутренних ID
type Installment struct {
	LotInstallmentAmount   decimal.Decimal `json:"lotInstallmentAmount"`
	LotInstallmentNumber   int             `json:"lotInstallmentNumber"`
	HUInstallmentAmount    decimal.Decimal `json:"huInstallmentAmount"`
	HUInstallmentNumber    int             `json:"huInstallmentNumber"`
	ExpectedPaymentDate    string          `json:"expectedPaymentDate"`
	TotalInstallmentAmount decimal.Decimal `json:"totalInstallmentAmount"`
}

// Export сериализует график в порядке строк
func (l *Ledger) Export() []Installment {
	out := make([]Installment, len(l.lines))
	for i, ln := range l.lines {
		out[i] = Installment{
			LotInstallmentAmount:   ln.Lot,
			LotInstallmentNumber:   ln.Number,
			HUInstallmentAmount:    ln.HU,
			HUInstallmentNumber:    ln.HUNumber,
			ExpectedPaymentDate:    ln.DueDate.Format(utils.DateLayout),
			TotalInstallmentAmount: ln.Total,
		}
	}
	return out
}

// LinesFromInstallments переводит ответ сервиса расчета в строки графика.
// Total пересчитывается из лота и HU при загрузке.
func LinesFromInstallments(items []Installment) ([]Line, error) {
	lines := make([]Line, len(items))
	for i, it := range items {
		due, err := utils.ParseDate(it.ExpectedPaymentDate)
		if err != nil {
			return nil, fmt.Errorf("installment %d: invalid expected payment date %q: %w", it.LotInstallmentNumber, it.ExpectedPaymentDate, err)
		}
		lines[i] = Line{
			Number:   it.LotInstallmentNumber,
			HUNumber: it.HUInstallmentNumber,
			DueDate:  due,
			Lot:      it.LotInstallmentAmount,
			HU:       it.HUInstallmentAmount,
			Status:   StatusPending,
		}
	}
	return lines, nil
}
