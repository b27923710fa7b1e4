// Package amendment ведет допсоглашение (adenda): фиксирует уже оплаченную
// сумму одной строкой PAID, позволяет собрать новый график оставшегося долга
// и отправляет его во внешний сервис, когда график сходится с целевой суммой.
package amendment

import (
	"context"
	"fmt"
	"time"

	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/internal/money"
	"github.com/cloud-ru/installments-go/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Builder конечный автомат inactive -> active -> saving -> inactive.
// Не потокобезопасен; вызывающая сторона не должна запускать Save повторно,
// пока предыдущая отправка не завершилась.
type Builder struct {
	submitter Submitter
	ids       ledger.IDGenerator
	now       func() time.Time
	log       logrus.FieldLogger

	state       State
	financingID string
	schedule    *ledger.Ledger
	seedID      ledger.ID
	totalPaid   decimal.Decimal
	totalDebt   decimal.Decimal
	additional  decimal.Decimal
}

// Option настройка Builder
type Option func(*Builder)

func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

func WithIDGenerator(g ledger.IDGenerator) Option {
	return func(b *Builder) {
		b.ids = g
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Builder) {
		b.log = log
	}
}

// NewBuilder создает неактивное допсоглашение
func NewBuilder(submitter Submitter, opts ...Option) *Builder {
	b := &Builder{
		submitter: submitter,
		ids:       ledger.NewSequence(),
		now:       time.Now,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.clear()
	return b
}

// Start открывает допсоглашение: график состоит из одной строки PAID
// на всю оплаченную сумму с датой сегодня, доплата обнуляется.
func (b *Builder) Start(financingID string, detail FinancingDetail) error {
	if b.state != StateInactive {
		return ErrAlreadyActive
	}

	b.financingID = financingID
	b.totalPaid = detail.PaidAmount()
	b.totalDebt = detail.Debt()
	b.additional = decimal.Zero

	b.schedule.Initialize([]ledger.Line{{
		Number:  1,
		DueDate: utils.DateOnly(b.now()),
		Lot:     b.totalPaid,
		Status:  ledger.StatusPaid,
	}}, ledger.Expected{})
	b.seedID = b.schedule.Lines()[0].ID
	b.state = StateActive

	b.log.WithFields(logrus.Fields{
		"financing_id": financingID,
		"total_paid":   b.totalPaid.StringFixed(money.Places),
		"total_debt":   b.totalDebt.StringFixed(money.Places),
	}).Info("amendment started")
	return nil
}

// Add добавляет quantity строк PENDING на сумму total помесячно от startDate
func (b *Builder) Add(quantity int, total decimal.Decimal, startDate time.Time) ([]ledger.Line, error) {
	if err := b.requireActive(); err != nil {
		return nil, err
	}
	return b.schedule.Add(quantity, total, decimal.Zero, startDate)
}

// Delete удаляет строки; оплаченную строку удалить нельзя
func (b *Builder) Delete(ids ...ledger.ID) (int, error) {
	if err := b.requireActive(); err != nil {
		return 0, err
	}
	if b.selectsSeed(ids) {
		return 0, ErrPaidLineLocked
	}
	return b.schedule.Delete(ids...), nil
}

// UpdateOne меняет сумму и/или дату строки. У оплаченной строки
// разрешено менять только дату.
func (b *Builder) UpdateOne(id ledger.ID, patch Patch) error {
	if err := b.requireActive(); err != nil {
		return err
	}
	if ln, ok := b.schedule.Line(id); ok && ln.Status == ledger.StatusPaid && patch.Amount != nil {
		return ErrPaidLineLocked
	}
	return b.schedule.UpdateOne(id, ledger.LinePatch{Lot: patch.Amount, DueDate: patch.DueDate})
}

// BulkUpdateAmount распределяет total по выбранным строкам PENDING
func (b *Builder) BulkUpdateAmount(ids []ledger.ID, total decimal.Decimal) error {
	if err := b.requireActive(); err != nil {
		return err
	}
	if b.selectsSeed(ids) {
		return ErrPaidLineLocked
	}
	return b.schedule.BulkUpdateAmount(ids, total, ledger.ColumnLot)
}

// BulkUpdateDates назначает выбранным строкам помесячные даты от startDate
func (b *Builder) BulkUpdateDates(ids []ledger.ID, startDate time.Time) (int, error) {
	if err := b.requireActive(); err != nil {
		return 0, err
	}
	return b.schedule.BulkUpdateDates(ids, startDate), nil
}

// SetAdditionalAmount задает доплату (> 0) или скидку (< 0)
func (b *Builder) SetAdditionalAmount(amount decimal.Decimal) error {
	if err := b.requireActive(); err != nil {
		return err
	}
	b.additional = amount
	return nil
}

// AdjustToBalance подгоняет строки PENDING под целевую сумму
func (b *Builder) AdjustToBalance() (ledger.Adjustment, error) {
	if err := b.requireActive(); err != nil {
		return ledger.Adjustment{}, err
	}
	return b.schedule.Rebalance([]ledger.Correction{{
		Column:     ledger.ColumnLot,
		Difference: b.BalanceDifference(),
	}}, isUnpaid)
}

// ExpectedTotal = долг + доплата - оплачено
func (b *Builder) ExpectedTotal() decimal.Decimal {
	return money.AggregateRound(b.totalDebt.Add(b.additional).Sub(b.totalPaid))
}

// PendingTotal сумма всех строк, кроме оплаченных
func (b *Builder) PendingTotal() decimal.Decimal {
	return money.AggregateRound(b.schedule.ColumnTotal(ledger.ColumnLot, isUnpaid))
}

// BalanceDifference = PendingTotal - ExpectedTotal
func (b *Builder) BalanceDifference() decimal.Decimal {
	return b.PendingTotal().Sub(b.ExpectedTotal())
}

func (b *Builder) IsBalanceValid() bool {
	return money.WithinTolerance(b.BalanceDifference())
}

// HasPending есть ли хотя бы одна строка PENDING
func (b *Builder) HasPending() bool {
	for _, ln := range b.schedule.Lines() {
		if ln.Status == ledger.StatusPending {
			return true
		}
	}
	return false
}

// CanSave условие, при котором Save отправит допсоглашение
func (b *Builder) CanSave() bool {
	return b.state == StateActive && b.IsBalanceValid() && b.HasPending()
}

// Export формирует тело запроса на сохранение
func (b *Builder) Export(observation string) Submission {
	lines := b.schedule.Lines()
	installments := make([]Installment, len(lines))
	for i, ln := range lines {
		installments[i] = Installment{
			Number:  ln.Number,
			DueDate: ln.DueDate.Format(utils.DateLayout),
			Amount:  ln.Total,
			Status:  ln.Status,
		}
	}
	return Submission{
		AdditionalAmount: b.additional,
		Observation:      observation,
		Installments:     installments,
	}
}

// Save отправляет допсоглашение. При успехе состояние очищается,
// при ошибке допсоглашение остается активным без изменений.
func (b *Builder) Save(ctx context.Context, observation string) (string, error) {
	switch b.state {
	case StateSaving:
		return "", ErrSubmissionInFlight
	case StateInactive:
		return "", ErrNotActive
	}
	if !b.IsBalanceValid() {
		return "", fmt.Errorf("%w: difference %s", ErrNotBalanced, b.BalanceDifference().StringFixed(money.Places))
	}
	if !b.HasPending() {
		return "", ErrNoPendingInstallments
	}

	submission := b.Export(observation)
	logger := b.log.WithFields(logrus.Fields{
		"financing_id": b.financingID,
		"installments": len(submission.Installments),
	})

	b.state = StateSaving
	message, err := b.submitter.SubmitAmendment(ctx, b.financingID, submission)
	if err != nil {
		b.state = StateActive
		logger.WithError(err).Warn("amendment submission failed")
		return "", fmt.Errorf("submit amendment: %w", err)
	}

	logger.Info("amendment saved")
	b.clear()
	return message, nil
}

// Cancel закрывает допсоглашение без отправки
func (b *Builder) Cancel() {
	if b.state != StateInactive {
		b.log.WithField("financing_id", b.financingID).Info("amendment cancelled")
	}
	b.clear()
}

func (b *Builder) State() State {
	return b.state
}

func (b *Builder) FinancingID() string {
	return b.financingID
}

func (b *Builder) TotalPaid() decimal.Decimal {
	return b.totalPaid
}

func (b *Builder) TotalDebt() decimal.Decimal {
	return b.totalDebt
}

func (b *Builder) AdditionalAmount() decimal.Decimal {
	return b.additional
}

// Lines копия строк допсоглашения
func (b *Builder) Lines() []ledger.Line {
	return b.schedule.Lines()
}

func (b *Builder) requireActive() error {
	if b.state != StateActive {
		return ErrNotActive
	}
	return nil
}

func (b *Builder) selectsSeed(ids []ledger.ID) bool {
	for _, id := range ids {
		if id == b.seedID {
			return true
		}
	}
	return false
}

func (b *Builder) clear() {
	b.state = StateInactive
	b.financingID = ""
	b.schedule = ledger.New(ledger.WithIDGenerator(b.ids))
	b.seedID = ""
	b.totalPaid = decimal.Zero
	b.totalDebt = decimal.Zero
	b.additional = decimal.Zero
}

func isUnpaid(ln ledger.Line) bool {
	return ln.Status != ledger.StatusPaid
}
