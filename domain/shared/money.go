package shared

import (
	"github.com/shopspring/decimal"
)

// Money 值对象 - 两位小数的定点金额，单一币种
type Money struct {
	amount decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{amount: decimal.Zero}

func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount.Round(2)}
}

// ParseMoney parses a decimal string such as "10.00".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, NewValidationError("money", "amount", "invalid amount "+s)
	}
	return NewMoney(d), nil
}

// MustMoney panics on malformed input; intended for constants and tests.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Times multiplies by a quantity.
func (m Money) Times(quantity int) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) IsNegative() bool { return m.amount.IsNegative() }

func (m Money) Equals(other Money) bool { return m.amount.Equal(other.amount) }

// String renders two fixed decimal places.
func (m Money) String() string { return m.amount.StringFixed(2) }
