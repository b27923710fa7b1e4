package amendment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	calls       int
	financingID string
	last        Submission
	err         error
}

func (f *fakeSubmitter) SubmitAmendment(_ context.Context, financingID string, s Submission) (string, error) {
	f.calls++
	f.financingID = financingID
	f.last = s
	if f.err != nil {
		return "", f.err
	}
	return "Adenda registrada", nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

var today = time.Date(2024, 1, 20, 15, 4, 5, 0, time.UTC)

func newBuilder(t *testing.T, sub Submitter) (*Builder, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	b := NewBuilder(sub,
		WithClock(func() time.Time { return today }),
		WithLogger(logger),
	)
	return b, hook
}

func scenarioDetail() FinancingDetail {
	return FinancingDetail{
		TotalPaid:        dec("1000"),
		TotalLateFeePaid: dec("0"),
		TotalCouteAmount: dec("12000"),
		TotalLateFee:     dec("0"),
	}
}

func TestStartSeedsPaidLine(t *testing.T) {
	b, hook := newBuilder(t, &fakeSubmitter{})

	detail := FinancingDetail{
		TotalPaid:        dec("900"),
		TotalLateFeePaid: dec("100"),
		TotalCouteAmount: dec("11500"),
		TotalLateFee:     dec("500"),
	}
	require.NoError(t, b.Start("fin-1", detail))

	assert.Equal(t, StateActive, b.State())
	lines := b.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Number)
	assert.Equal(t, ledger.StatusPaid, lines[0].Status)
	assert.Equal(t, "1000.00", lines[0].Total.StringFixed(2))
	assert.Equal(t, "2024-01-20", lines[0].DueDate.Format(utils.DateLayout))

	assert.Equal(t, "1000.00", b.TotalPaid().StringFixed(2))
	assert.Equal(t, "12000.00", b.TotalDebt().StringFixed(2))
	assert.True(t, b.AdditionalAmount().IsZero())
	assert.Equal(t, "11000.00", b.ExpectedTotal().StringFixed(2))
	assert.False(t, b.IsBalanceValid())
	assert.False(t, b.CanSave())

	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "fin-1", hook.LastEntry().Data["financing_id"])

	assert.ErrorIs(t, b.Start("fin-2", detail), ErrAlreadyActive)
}

func TestScenarioHappyPath(t *testing.T) {
	sub := &fakeSubmitter{}
	b, _ := newBuilder(t, sub)
	require.NoError(t, b.Start("fin-1", scenarioDetail()))

	added, err := b.Add(11, dec("11000"), day("2024-01-01"))
	require.NoError(t, err)
	require.Len(t, added, 11)

	for i, ln := range added {
		assert.Equal(t, i+2, ln.Number)
		assert.Equal(t, ledger.StatusPending, ln.Status)
		assert.Equal(t, "1000.00", ln.Lot.StringFixed(2))
		assert.Equal(t, utils.AddMonths(day("2024-01-01"), i), ln.DueDate)
	}
	assert.Equal(t, "11000.00", b.PendingTotal().StringFixed(2))
	assert.True(t, b.IsBalanceValid())
	assert.True(t, b.CanSave())

	msg, err := b.Save(context.Background(), "renegociación")
	require.NoError(t, err)
	assert.Equal(t, "Adenda registrada", msg)

	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, "fin-1", sub.financingID)
	assert.Equal(t, "renegociación", sub.last.Observation)
	require.Len(t, sub.last.Installments, 12)
	assert.Equal(t, Installment{Number: 1, DueDate: "2024-01-20", Amount: sub.last.Installments[0].Amount, Status: ledger.StatusPaid}, sub.last.Installments[0])
	assert.Equal(t, "1000.00", sub.last.Installments[0].Amount.StringFixed(2))
	assert.Equal(t, 12, sub.last.Installments[11].Number)
	assert.Equal(t, "2024-11-01", sub.last.Installments[11].DueDate)

	assert.Equal(t, StateInactive, b.State())
	assert.Empty(t, b.Lines())
	assert.Empty(t, b.FinancingID())
}

func TestAdditionalAmount(t *testing.T) {
	tests := []struct {
		name       string
		additional string
		expected   string
	}{
		{name: "extra charge", additional: "500", expected: "11500.00"},
		{name: "discount", additional: "-1500.50", expected: "9499.50"},
		{name: "none", additional: "0", expected: "11000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBuilder(t, &fakeSubmitter{})
			require.NoError(t, b.Start("fin-1", scenarioDetail()))
			require.NoError(t, b.SetAdditionalAmount(dec(tt.additional)))

			assert.Equal(t, tt.expected, b.ExpectedTotal().StringFixed(2))

			_, err := b.Add(3, dec(tt.expected), day("2024-02-01"))
			require.NoError(t, err)
			assert.True(t, b.IsBalanceValid())
			assert.True(t, b.BalanceDifference().IsZero())

			sub := b.Export("")
			assert.True(t, sub.AdditionalAmount.Equal(dec(tt.additional)))
		})
	}
}

func TestPaidLineLocked(t *testing.T) {
	b, _ := newBuilder(t, &fakeSubmitter{})
	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	_, err := b.Add(2, dec("11000"), day("2024-02-01"))
	require.NoError(t, err)

	seed := b.Lines()[0]
	amount := dec("1")
	assert.ErrorIs(t, b.UpdateOne(seed.ID, Patch{Amount: &amount}), ErrPaidLineLocked)

	_, err = b.Delete(seed.ID, b.Lines()[1].ID)
	assert.ErrorIs(t, err, ErrPaidLineLocked)
	assert.Len(t, b.Lines(), 3)

	assert.ErrorIs(t, b.BulkUpdateAmount([]ledger.ID{seed.ID}, dec("5")), ErrPaidLineLocked)

	due := day("2023-12-31")
	require.NoError(t, b.UpdateOne(seed.ID, Patch{DueDate: &due}))
	got := b.Lines()[0]
	assert.Equal(t, "2023-12-31", got.DueDate.Format(utils.DateLayout))
	assert.Equal(t, "1000.00", got.Total.StringFixed(2))
}

func TestDeleteRenumbersAfterSeed(t *testing.T) {
	b, _ := newBuilder(t, &fakeSubmitter{})
	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	added, err := b.Add(4, dec("11000"), day("2024-02-01"))
	require.NoError(t, err)

	n, err := b.Delete(added[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	lines := b.Lines()
	require.Len(t, lines, 4)
	for i, ln := range lines {
		assert.Equal(t, i+1, ln.Number)
	}
	assert.Equal(t, ledger.StatusPaid, lines[0].Status)
	assert.Equal(t, added[2].ID, lines[2].ID)
	assert.False(t, b.IsBalanceValid())
	assert.Equal(t, "-2750.00", b.BalanceDifference().StringFixed(2))
}

func TestAdjustToBalanceIgnoresPaidLine(t *testing.T) {
	b, _ := newBuilder(t, &fakeSubmitter{})
	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	_, err := b.Add(3, dec("12000"), day("2024-02-01"))
	require.NoError(t, err)
	require.Equal(t, "1000.00", b.BalanceDifference().StringFixed(2))

	adj, err := b.AdjustToBalance()
	require.NoError(t, err)
	assert.Equal(t, "-1000.00", adj.Lot.StringFixed(2))

	lines := b.Lines()
	assert.Equal(t, "1000.00", lines[0].Total.StringFixed(2))
	assert.Equal(t, "3000.00", lines[3].Total.StringFixed(2))
	assert.True(t, b.IsBalanceValid())

	require.NoError(t, b.SetAdditionalAmount(dec("-12000")))
	_, err = b.AdjustToBalance()
	assert.ErrorIs(t, err, ledger.ErrResidualUnresolved)
	assert.Equal(t, "11000.00", b.PendingTotal().StringFixed(2))
}

func TestSaveGuards(t *testing.T) {
	sub := &fakeSubmitter{}
	b, _ := newBuilder(t, sub)

	_, err := b.Save(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotActive)

	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	_, err = b.Save(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotBalanced)

	// все оплачено: целевая сумма 0, строк PENDING нет
	require.NoError(t, b.SetAdditionalAmount(dec("-11000")))
	assert.True(t, b.IsBalanceValid())
	_, err = b.Save(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoPendingInstallments)

	assert.Zero(t, sub.calls)
	assert.Equal(t, StateActive, b.State())
}

func TestSaveFailureKeepsState(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("gateway timeout")}
	b, hook := newBuilder(t, sub)
	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	_, err := b.Add(11, dec("11000"), day("2024-01-01"))
	require.NoError(t, err)
	require.NoError(t, b.SetAdditionalAmount(dec("0")))
	before := b.Lines()

	_, err = b.Save(context.Background(), "obs")
	require.Error(t, err)
	assert.ErrorIs(t, err, sub.err)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	assert.Equal(t, StateActive, b.State())
	assert.Equal(t, before, b.Lines())
	assert.Equal(t, "fin-1", b.FinancingID())
	assert.True(t, b.CanSave())

	sub.err = nil
	_, err = b.Save(context.Background(), "obs")
	require.NoError(t, err)
	assert.Equal(t, 2, sub.calls)
	assert.Equal(t, StateInactive, b.State())
}

type reentrantSubmitter struct {
	b   *Builder
	err error
}

func (r *reentrantSubmitter) SubmitAmendment(ctx context.Context, _ string, _ Submission) (string, error) {
	_, r.err = r.b.Save(ctx, "")
	return "ok", nil
}

func TestSaveWhileSaving(t *testing.T) {
	sub := &reentrantSubmitter{}
	b, _ := newBuilder(t, sub)
	sub.b = b
	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	_, err := b.Add(1, dec("11000"), day("2024-01-01"))
	require.NoError(t, err)

	_, err = b.Save(context.Background(), "")
	require.NoError(t, err)
	assert.ErrorIs(t, sub.err, ErrSubmissionInFlight)
}

func TestCancel(t *testing.T) {
	sub := &fakeSubmitter{}
	b, _ := newBuilder(t, sub)
	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	_, err := b.Add(2, dec("100"), day("2024-01-01"))
	require.NoError(t, err)
	require.NoError(t, b.SetAdditionalAmount(dec("10")))

	b.Cancel()

	assert.Equal(t, StateInactive, b.State())
	assert.Empty(t, b.Lines())
	assert.True(t, b.AdditionalAmount().IsZero())
	assert.True(t, b.TotalPaid().IsZero())
	assert.Zero(t, sub.calls)

	_, err = b.Add(1, dec("1"), day("2024-01-01"))
	assert.ErrorIs(t, err, ErrNotActive)
	assert.ErrorIs(t, b.SetAdditionalAmount(dec("1")), ErrNotActive)

	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	assert.Len(t, b.Lines(), 1)
}

func TestSubmissionWireFormat(t *testing.T) {
	b, _ := newBuilder(t, &fakeSubmitter{})
	require.NoError(t, b.Start("fin-1", scenarioDetail()))
	require.NoError(t, b.SetAdditionalAmount(dec("-500")))
	_, err := b.Add(1, dec("10500"), day("2024-02-01"))
	require.NoError(t, err)

	raw, err := json.Marshal(b.Export("descuento"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"additionalAmount": -500.00,
		"observation": "descuento",
		"installments": [
			{"number": 1, "dueDate": "2024-01-20", "amount": 1000.00, "status": "PAID"},
			{"number": 2, "dueDate": "2024-02-01", "amount": 10500.00, "status": "PENDING"}
		]
	}`, string(raw))
	assert.Contains(t, string(raw), `"amount":1000.00`)

	var decoded Submission
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.AdditionalAmount.Equal(dec("-500")))
	require.Len(t, decoded.Installments, 2)
	assert.True(t, decoded.Installments[1].Amount.Equal(dec("10500")))
}
