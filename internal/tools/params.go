package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cloud-ru/installments-go/internal/ledger"
	"github.com/cloud-ru/installments-go/internal/money"
	"github.com/cloud-ru/installments-go/internal/validators"
	"github.com/cloud-ru/installments-go/pkg/utils"
	"github.com/shopspring/decimal"
)

// ErrInvalidParams параметры инструмента не прошли проверку
var ErrInvalidParams = errors.New("неверные параметры")

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidParams, err)
}

// Params аргументы вызова инструмента в виде декодированного JSON
type Params map[string]interface{}

func (p Params) has(name string) bool {
	v, ok := p[name]
	return ok && v != nil
}

func (p Params) number(name string) (float64, error) {
	v, ok := p[name].(float64)
	if !ok {
		return 0, invalid(fmt.Errorf("invalid parameter: %s", name))
	}
	return v, nil
}

// amount читает сумму из числа или строки, округляя до центов
func (p Params) amount(name string) (decimal.Decimal, error) {
	switch v := p[name].(type) {
	case float64:
		d, err := money.FromFloat(v)
		if err != nil {
			return decimal.Zero, invalid(fmt.Errorf("%s: %w", name, err))
		}
		return d, nil
	case string:
		d, err := money.Parse(v)
		if err != nil {
			return decimal.Zero, invalid(fmt.Errorf("%s: %w", name, err))
		}
		return d, nil
	default:
		return decimal.Zero, invalid(fmt.Errorf("invalid parameter: %s", name))
	}
}

func (p Params) integer(name string) (int, error) {
	v, err := p.number(name)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, invalid(fmt.Errorf("%s: ожидается целое число", name))
	}
	return int(v), nil
}

func (p Params) text(name string) (string, error) {
	v, ok := p[name].(string)
	if !ok || v == "" {
		return "", invalid(fmt.Errorf("invalid parameter: %s", name))
	}
	return v, nil
}

func (p Params) date(name string) (time.Time, error) {
	raw, err := p.text(name)
	if err != nil {
		return time.Time{}, err
	}
	if err := validators.CheckDate(name, raw); err != nil {
		return time.Time{}, invalid(err)
	}
	return utils.ParseDate(raw)
}

func (p Params) id(name string) (ledger.ID, error) {
	v, err := p.text(name)
	return ledger.ID(v), err
}

func (p Params) ids(name string) ([]ledger.ID, error) {
	raw, ok := p[name].([]interface{})
	if !ok {
		return nil, invalid(fmt.Errorf("invalid parameter: %s", name))
	}
	out := make([]ledger.ID, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, invalid(fmt.Errorf("%s: ожидается список строковых id", name))
		}
		out = append(out, ledger.ID(s))
	}
	return out, nil
}

// decode перекладывает params в типизированную структуру через JSON
func (p Params) decode(out interface{}) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return invalid(err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return invalid(err)
	}
	return nil
}
