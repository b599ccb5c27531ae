// Package money holds the monetary value types exchanged with payment gateways.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var (
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrMissingCurrency = errors.New("currency is required")
)

type Currency struct {
	ShortName string
}

func NewCurrency(shortName string) Currency {
	return Currency{ShortName: strings.ToUpper(strings.TrimSpace(shortName))}
}

func (c Currency) String() string {
	return c.ShortName
}

// Price is an amount in major units together with its currency.
type Price struct {
	Amount   decimal.Decimal
	Currency Currency
}

func NewPrice(amount decimal.Decimal, currency Currency) (Price, error) {
	if amount.IsNegative() {
		return Price{}, ErrNegativeAmount
	}
	if currency.ShortName == "" {
		return Price{}, ErrMissingCurrency
	}
	return Price{Amount: amount, Currency: currency}, nil
}

// GrossAmount is the payable amount including surcharges. Surcharges are not
// modelled here, so it equals Amount.
func (p Price) GrossAmount() decimal.Decimal {
	return p.Amount
}

// MinorUnits renders the price for wire transmission, see MinorUnits.
func (p Price) MinorUnits() string {
	return MinorUnits(p.Amount)
}

func (p Price) String() string {
	return p.Amount.String()
}

// MinorUnits rounds amount to two decimal places and scales it by 100,
// returning the integer count of minor units as a string: 19.999 -> "2000".
func MinorUnits(amount decimal.Decimal) string {
	return ToMinorUnits(amount).StringFixed(0)
}

// ToMinorUnits is MinorUnits without the string conversion.
func ToMinorUnits(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2).Mul(hundred)
}
