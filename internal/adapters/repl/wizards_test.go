package repl

import (
	"testing"

	"estimate-desk/internal/core"
)

func TestParseLineInput(t *testing.T) {
	item, err := parseLineInput("2 Days $400 taxable Replace fence boards")
	if err != nil {
		t.Fatal(err)
	}
	if item.Description != "Replace fence boards" || item.Unit != core.UnitDays || !item.Taxable {
		t.Errorf("item = %+v", item)
	}
	if item.Quantity.String() != "2" || item.UnitPrice.String() != "400" {
		t.Errorf("quantity/price = %s/%s", item.Quantity, item.UnitPrice)
	}

	// A lone "taxable" is the description, not the flag.
	item, err = parseLineInput("1 hours 10 taxable")
	if err != nil {
		t.Fatal(err)
	}
	if item.Taxable || item.Description != "taxable" {
		t.Errorf("item = %+v", item)
	}

	for _, bad := range []string{"", "1 hours 10", "x hours 10 desc", "1 weeks 10 desc", "1 hours ten desc"} {
		if _, err := parseLineInput(bad); err == nil {
			t.Errorf("parseLineInput(%q): expected error", bad)
		}
	}
}
