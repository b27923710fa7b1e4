package validators

import (
	"math"
	"testing"

	"github.com/cloud-ru/installments-go/internal/config"
	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/internal/schedule"
	"github.com/shopspring/decimal"
)

func TestValidators(t *testing.T) {
	cfg, _ := config.LoadConfig()

	tests := []struct {
		name      string
		validator func(*config.Config, interface{}) error
		value     interface{}
		wantError bool
	}{
		{
			name:      "valid quantity",
			validator: func(cfg *config.Config, v interface{}) error { return CheckQuantity(cfg, v.(int)) },
			value:     12,
			wantError: false,
		},
		{
			name:      "invalid quantity zero",
			validator: func(cfg *config.Config, v interface{}) error { return CheckQuantity(cfg, v.(int)) },
			value:     0,
			wantError: true,
		},
		{
			name:      "invalid quantity above max",
			validator: func(cfg *config.Config, v interface{}) error { return CheckQuantity(cfg, v.(int)) },
			value:     601,
			wantError: true,
		},
		{
			name:      "valid total",
			validator: func(cfg *config.Config, v interface{}) error { return CheckTotal(cfg, "total", v.(float64)) },
			value:     11000.0,
			wantError: false,
		},
		{
			name:      "zero total allowed",
			validator: func(cfg *config.Config, v interface{}) error { return CheckTotal(cfg, "total", v.(float64)) },
			value:     0.0,
			wantError: false,
		},
		{
			name:      "negative total",
			validator: func(cfg *config.Config, v interface{}) error { return CheckTotal(cfg, "total", v.(float64)) },
			value:     -0.01,
			wantError: true,
		},
		{
			name:      "NaN total",
			validator: func(cfg *config.Config, v interface{}) error { return CheckTotal(cfg, "total", v.(float64)) },
			value:     math.NaN(),
			wantError: true,
		},
		{
			name:      "negative additional amount",
			validator: func(cfg *config.Config, v interface{}) error { return CheckSignedAmount(cfg, "additionalAmount", v.(float64)) },
			value:     -1500.0,
			wantError: false,
		},
		{
			name:      "infinite additional amount",
			validator: func(cfg *config.Config, v interface{}) error { return CheckSignedAmount(cfg, "additionalAmount", v.(float64)) },
			value:     math.Inf(-1),
			wantError: true,
		},
		{
			name:      "valid date",
			validator: func(_ *config.Config, v interface{}) error { return CheckDate("startDate", v.(string)) },
			value:     "2024-01-01",
			wantError: false,
		},
		{
			name:      "invalid date",
			validator: func(_ *config.Config, v interface{}) error { return CheckDate("startDate", v.(string)) },
			value:     "01/01/2024",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validator(cfg, tt.value)
			if (err != nil) != tt.wantError {
				t.Errorf("validator error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestCheckColumn(t *testing.T) {
	c, err := CheckColumn("hu")
	if err != nil || c != ledger.ColumnHU {
		t.Errorf("CheckColumn(hu) = %v, %v", c, err)
	}
	if _, err := CheckColumn("total"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestCheckAmortizationRequest(t *testing.T) {
	cfg, _ := config.LoadConfig()
	hu := decimal.NewFromInt(5000)
	huPayments := 10

	valid := schedule.AmortizationRequest{
		TotalAmount:       decimal.NewFromInt(100000),
		InitialAmount:     decimal.NewFromInt(10000),
		ReservationAmount: decimal.NewFromInt(1000),
		InterestRate:      decimal.NewFromInt(12),
		NumberOfPayments:  24,
		FirstPaymentDate:  "2024-01-01",
	}
	if err := CheckAmortizationRequest(cfg, valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	withHU := valid
	withHU.TotalAmountHU = &hu
	if err := CheckAmortizationRequest(cfg, withHU); err == nil {
		t.Error("expected error when numberOfPaymentsHu is missing")
	}
	withHU.NumberOfPaymentsHU = &huPayments
	withHU.FirstPaymentDateHU = "2024-02-01"
	if err := CheckAmortizationRequest(cfg, withHU); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	zero := valid
	zero.TotalAmount = decimal.Zero
	if err := CheckAmortizationRequest(cfg, zero); err == nil {
		t.Error("expected error for zero total amount")
	}

	noPayments := valid
	noPayments.NumberOfPayments = 0
	if err := CheckAmortizationRequest(cfg, noPayments); err == nil {
		t.Error("expected error for zero payments")
	}
}
