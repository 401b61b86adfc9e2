// Package format turns computed amounts and stored dates into display strings.
// Rounding happens here and nowhere else.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DateLayout is the YYYY-MM-DD layout of every persisted date.
const DateLayout = "2006-01-02"

const displayLayout = "01/02/2006"

// Currency formats amount in the ISO 4217 currency code, rounded half away from zero
// to the currency's minor unit: Currency(308, "USD") is "$308.00". Unknown codes are
// printed as a plain two-decimal number followed by the code.
func Currency(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = money.USD
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// KnownCurrency reports whether code is an ISO 4217 code the formatter knows.
func KnownCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}

// ParseDate accepts a YYYY-MM-DD date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// Date renders a stored date as MM/DD/YYYY. Unparseable input is returned unchanged.
func Date(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(displayLayout)
}

// ISODate renders t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(DateLayout)
}

// CurrentDate returns today's date as YYYY-MM-DD in local time.
func CurrentDate() string {
	return ISODate(time.Now())
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(iso string, n int) (string, error) {
	t, err := ParseDate(iso)
	if err != nil {
		return "", err
	}
	return ISODate(t.AddDate(0, 0, n)), nil
}

// Quantity renders a quantity without trailing zeros: 1.50 becomes 1.5.
func Quantity(q decimal.Decimal) string {
	return q.String()
}

// Percent renders a tax rate: 8 becomes "8%", 7.25 becomes "7.25%".
func Percent(rate decimal.Decimal) string {
	return rate.String() + "%"
}
