package tools

import (
	"github.com/cloud-ru/installments-go/internal/amendment"
	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/pkg/utils"
	"github.com/shopspring/decimal"
)

// LineView строка графика в ответе инструмента
type LineView struct {
	ID       ledger.ID       `json:"id"`
	Number   int             `json:"number"`
	HUNumber int             `json:"huNumber"`
	DueDate  string          `json:"dueDate"`
	Lot      decimal.Decimal `json:"lotAmount"`
	HU       decimal.Decimal `json:"huAmount"`
	Total    decimal.Decimal `json:"totalAmount"`
	Status   ledger.Status   `json:"status"`
}

// MetaView итоги и признак сходимости графика
type MetaView struct {
	LotTotal             decimal.Decimal `json:"lotTotal"`
	HUTotal              decimal.Decimal `json:"huTotal"`
	LotCount             int             `json:"lotCount"`
	HUCount              int             `json:"huCount"`
	TotalCount           int             `json:"totalCount"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	LotBalanceDifference decimal.Decimal `json:"lotBalanceDifference"`
	HUBalanceDifference  decimal.Decimal `json:"huBalanceDifference"`
	IsValid              bool            `json:"isValid"`
}

// ScheduleView состояние редактируемого графика
type ScheduleView struct {
	Lines []LineView `json:"lines"`
	Meta  MetaView   `json:"meta"`
}

// AdjustmentView результат корректировки
type AdjustmentView struct {
	Lot      decimal.Decimal `json:"lot"`
	HU       decimal.Decimal `json:"hu"`
	Touched  []ledger.ID     `json:"touched"`
	Schedule interface{}     `json:"schedule"`
}

// AmendmentView состояние допсоглашения
type AmendmentView struct {
	State             string          `json:"state"`
	FinancingID       string          `json:"financingId,omitempty"`
	TotalPaid         decimal.Decimal `json:"totalPaidAmount"`
	TotalDebt         decimal.Decimal `json:"totalDebt"`
	AdditionalAmount  decimal.Decimal `json:"additionalAmount"`
	ExpectedTotal     decimal.Decimal `json:"expectedTotal"`
	PendingTotal      decimal.Decimal `json:"pendingInstallmentsTotal"`
	BalanceDifference decimal.Decimal `json:"balanceDifference"`
	IsBalanceValid    bool            `json:"isBalanceValid"`
	CanSave           bool            `json:"canSave"`
	Lines             []LineView      `json:"lines"`
}

func lineViews(lines []ledger.Line) []LineView {
	out := make([]LineView, len(lines))
	for i, ln := range lines {
		out[i] = LineView{
			ID:       ln.ID,
			Number:   ln.Number,
			HUNumber: ln.HUNumber,
			DueDate:  ln.DueDate.Format(utils.DateLayout),
			Lot:      ln.Lot,
			HU:       ln.HU,
			Total:    ln.Total,
			Status:   ln.Status,
		}
	}
	return out
}

func metaView(m ledger.Meta) MetaView {
	return MetaView{
		LotTotal:             m.LotTotal,
		HUTotal:              m.HUTotal,
		LotCount:             m.LotCount,
		HUCount:              m.HUCount,
		TotalCount:           m.TotalCount,
		TotalAmount:          m.TotalAmount,
		LotBalanceDifference: m.LotBalanceDifference,
		HUBalanceDifference:  m.HUBalanceDifference,
		IsValid:              m.IsValid,
	}
}

func scheduleView(l *ledger.Ledger) ScheduleView {
	return ScheduleView{Lines: lineViews(l.Lines()), Meta: metaView(l.Meta())}
}

func amendmentView(b *amendment.Builder) AmendmentView {
	return AmendmentView{
		State:             b.State().String(),
		FinancingID:       b.FinancingID(),
		TotalPaid:         b.TotalPaid(),
		TotalDebt:         b.TotalDebt(),
		AdditionalAmount:  b.AdditionalAmount(),
		ExpectedTotal:     b.ExpectedTotal(),
		PendingTotal:      b.PendingTotal(),
		BalanceDifference: b.BalanceDifference(),
		IsBalanceValid:    b.IsBalanceValid(),
		CanSave:           b.CanSave(),
		Lines:             lineViews(b.Lines()),
	}
}
