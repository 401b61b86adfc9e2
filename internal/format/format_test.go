package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount string
		code   string
		want   string
	}{
		{"308", "USD", "$308.00"},
		{"1234.5", "usd", "$1,234.50"},
		{"0.125", "USD", "$0.13"},
		{"0", "", "$0.00"},
		{"12.5", "XYZ", "12.50 XYZ"},
	}
	for _, tt := range tests {
		got := Currency(decimal.RequireFromString(tt.amount), tt.code)
		if got != tt.want {
			t.Errorf("Currency(%s, %q) = %q, want %q", tt.amount, tt.code, got, tt.want)
		}
	}
}

func TestDates(t *testing.T) {
	if got := Date("2024-03-05"); got != "03/05/2024" {
		t.Errorf("Date = %q", got)
	}
	if got := Date("not a date"); got != "not a date" {
		t.Errorf("expected unparseable input unchanged, got %q", got)
	}

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"2024-03-15", 30, "2024-04-14"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2023-12-31", 1, "2024-01-01"},
		{"2024-01-10", -10, "2023-12-31"},
	}
	for _, tt := range tests {
		got, err := AddDays(tt.in, tt.n)
		if err != nil {
			t.Fatalf("AddDays(%s): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("AddDays(%s, %d) = %s, want %s", tt.in, tt.n, got, tt.want)
		}
	}
	if _, err := AddDays("15/03/2024", 1); err == nil {
		t.Errorf("expected invalid date to fail")
	}
	if _, err := ParseDate(CurrentDate()); err != nil {
		t.Errorf("CurrentDate is not ISO: %v", err)
	}
}

func TestPercentAndQuantity(t *testing.T) {
	if got := Percent(decimal.RequireFromString("7.250")); got != "7.25%" {
		t.Errorf("Percent = %q", got)
	}
	if got := Quantity(decimal.RequireFromString("1.50")); got != "1.5" {
		t.Errorf("Quantity = %q", got)
	}
}

func TestKnownCurrency(t *testing.T) {
	for code, want := range map[string]bool{"USD": true, " eur ": true, "JPY": true, "XYZ": false, "": false} {
		if got := KnownCurrency(code); got != want {
			t.Errorf("KnownCurrency(%q) = %v, want %v", code, got, want)
		}
	}
}
