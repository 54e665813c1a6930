package shared

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies have no minor unit
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
}

// MinorUnitExponent returns the number of minor-unit digits of currency
func MinorUnitExponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// FormatAmount renders an amount stored in minor units as a decimal string,
// e.g. 12550 USD becomes "125.50".
func FormatAmount(minor int64, currency string) string {
	exp := MinorUnitExponent(currency)
	return decimal.New(minor, -exp).StringFixed(exp)
}

// ParseAmount converts a decimal string such as "125.5" into minor units. It
// fails when the value has more fractional digits than the currency allows.
func ParseAmount(value, currency string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	exp := MinorUnitExponent(currency)
	scaled := d.Shift(exp)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, ErrAmountPrecision
	}
	return scaled.IntPart(), nil
}
