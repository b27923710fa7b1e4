package validators

import (
	"fmt"
	"math"

	"github.com/cloud-ru/installments-go/internal/config"
	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/internal/schedule"
	"github.com/cloud-ru/installments-go/pkg/utils"
)

// ValidatePositiveNumber проверяет, что число конечное и в допустимом диапазоне
func ValidatePositiveNumber(name string, value float64, minInclusive, maxInclusive float64) error {
	if !utils.IsFinite(value) {
		return fmt.Errorf("%s: значение не является конечным числом", name)
	}
	if value < minInclusive {
		return fmt.Errorf("%s: значение должно быть ≥ %.0f", name, minInclusive)
	}
	if value > maxInclusive {
		return fmt.Errorf("%s: значение слишком велико (>%.0f)", name, maxInclusive)
	}
	return nil
}

// ValidateIntRange проверяет, что целое число в допустимом диапазоне
func ValidateIntRange(name string, value int, minInclusive, maxInclusive int) error {
	if value < minInclusive || value > maxInclusive {
		return fmt.Errorf("%s: значение должно быть в диапазоне [%d; %d]", name, minInclusive, maxInclusive)
	}
	return nil
}

// CheckQuantity проверяет количество добавляемых строк
func CheckQuantity(cfg *config.Config, quantity int) error {
	return ValidateIntRange("quantity", quantity, 1, cfg.MaxInstallments)
}

// CheckTotal проверяет неотрицательную сумму (итог для распределения, сумма строки)
func CheckTotal(cfg *config.Config, name string, value float64) error {
	return ValidatePositiveNumber(name, value, 0.0, cfg.MaxAmount)
}

// CheckSignedAmount проверяет сумму со знаком (доплата или скидка)
func CheckSignedAmount(cfg *config.Config, name string, value float64) error {
	if !utils.IsFinite(value) {
		return fmt.Errorf("%s: значение не является конечным числом", name)
	}
	if math.Abs(value) > cfg.MaxAmount {
		return fmt.Errorf("%s: значение по модулю слишком велико (>%.0f)", name, cfg.MaxAmount)
	}
	return nil
}

// CheckDate проверяет дату в формате YYYY-MM-DD
func CheckDate(name, value string) error {
	if _, err := utils.ParseDate(value); err != nil {
		return fmt.Errorf("%s: ожидается дата в формате YYYY-MM-DD", name)
	}
	return nil
}

// CheckColumn проверяет колонку суммы
func CheckColumn(value string) (ledger.Column, error) {
	switch c := ledger.Column(value); c {
	case ledger.ColumnLot, ledger.ColumnHU:
		return c, nil
	default:
		return "", fmt.Errorf("column: ожидается %q или %q", ledger.ColumnLot, ledger.ColumnHU)
	}
}

// CheckAmortizationRequest проверяет запрос к сервису расчета графика
func CheckAmortizationRequest(cfg *config.Config, req schedule.AmortizationRequest) error {
	if err := CheckTotal(cfg, "totalAmount", req.TotalAmount.InexactFloat64()); err != nil {
		return err
	}
	if !req.TotalAmount.IsPositive() {
		return fmt.Errorf("totalAmount: значение должно быть > 0")
	}
	if err := CheckTotal(cfg, "initialAmount", req.InitialAmount.InexactFloat64()); err != nil {
		return err
	}
	if err := CheckTotal(cfg, "reservationAmount", req.ReservationAmount.InexactFloat64()); err != nil {
		return err
	}
	if err := ValidatePositiveNumber("interestRate", req.InterestRate.InexactFloat64(), 0.0, 1000.0); err != nil {
		return err
	}
	if err := CheckQuantity(cfg, req.NumberOfPayments); err != nil {
		return fmt.Errorf("numberOfPayments: %w", err)
	}
	if err := CheckDate("firstPaymentDate", req.FirstPaymentDate); err != nil {
		return err
	}
	if req.HasHU() {
		if err := CheckTotal(cfg, "totalAmountHu", req.TotalAmountHU.InexactFloat64()); err != nil {
			return err
		}
		if req.NumberOfPaymentsHU == nil {
			return fmt.Errorf("numberOfPaymentsHu: обязателен при totalAmountHu > 0")
		}
		if err := CheckQuantity(cfg, *req.NumberOfPaymentsHU); err != nil {
			return fmt.Errorf("numberOfPaymentsHu: %w", err)
		}
		if err := CheckDate("firstPaymentDateHu", req.FirstPaymentDateHU); err != nil {
			return err
		}
	}
	return nil
}
