package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount carried as a decimal and serialized as a string
// with exactly two fraction digits. Order totals and product prices never pass
// through float64.
type Money struct {
	dec decimal.Decimal
}

// NewMoney builds a Money from a decimal amount.
func NewMoney(d decimal.Decimal) Money {
	return Money{dec: d}
}

// MoneyFromString parses a decimal amount such as "89.00".
func MoneyFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Money{}, fmt.Errorf("parsing money %q: %w", value, err)
	}
	return Money{dec: d}, nil
}

// MustMoney parses a decimal amount and panics on malformed input. Intended for
// seed data and tests.
func MustMoney(value string) Money {
	m, err := MoneyFromString(value)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.dec
}

// Mul multiplies by an integer quantity.
func (m Money) Mul(qty int) Money {
	return Money{dec: m.dec.Mul(decimal.NewFromInt(int64(qty)))}
}

// Add sums two amounts.
func (m Money) Add(other Money) Money {
	return Money{dec: m.dec.Add(other.dec)}
}

// ApplyDiscountPercent applies a multiplicative percentage discount and rounds
// to two decimal places.
func (m Money) ApplyDiscountPercent(percent int) Money {
	if percent <= 0 {
		return m.Round2()
	}
	factor := decimal.NewFromInt(int64(100 - percent)).Div(decimal.NewFromInt(100))
	return Money{dec: m.dec.Mul(factor).Round(2)}
}

// Round2 rounds to two decimal places.
func (m Money) Round2() Money {
	return Money{dec: m.dec.Round(2)}
}

// IsZero reports whether the amount equals zero.
func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

// Equal compares two amounts numerically.
func (m Money) Equal(other Money) bool {
	return m.dec.Equal(other.dec)
}

// String renders the amount with two fraction digits.
func (m Money) String() string {
	return m.dec.StringFixed(2)
}

// MarshalJSON renders the amount as a "123.45" string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("money must be a decimal string: %w", err)
	}
	parsed, err := MoneyFromString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer, storing the fixed-point text form.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner for numeric/text columns.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Money{}
		return nil
	case string:
		parsed, err := MoneyFromString(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case []byte:
		parsed, err := MoneyFromString(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case int64:
		*m = Money{dec: decimal.NewFromInt(v)}
		return nil
	case float64:
		*m = Money{dec: decimal.NewFromFloat(v).Round(2)}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
}
