package core_test

import (
	"errors"
	"testing"

	"estimate-desk/internal/core"
)

func TestValidateLineItem(t *testing.T) {
	valid := core.LineItem{ID: "1", Description: "Consulting", Quantity: dec("1"), Unit: core.UnitHours, UnitPrice: dec("0")}

	tests := []struct {
		name      string
		mutate    func(*core.LineItem)
		wantField string
	}{
		{name: "valid, free item", mutate: func(*core.LineItem) {}},
		{name: "blank description", mutate: func(i *core.LineItem) { i.Description = "  " }, wantField: "description"},
		{name: "zero quantity", mutate: func(i *core.LineItem) { i.Quantity = dec("0") }, wantField: "quantity"},
		{name: "negative quantity", mutate: func(i *core.LineItem) { i.Quantity = dec("-1") }, wantField: "quantity"},
		{name: "negative price", mutate: func(i *core.LineItem) { i.UnitPrice = dec("-0.01") }, wantField: "unitPrice"},
		{name: "unknown unit", mutate: func(i *core.LineItem) { i.Unit = "weeks" }, wantField: "unit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid
			tt.mutate(&item)
			err := core.ValidateLineItem(item)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, ve.Field)
			}
			if !errors.Is(err, core.ErrInvalidLineItem) {
				t.Errorf("expected ErrInvalidLineItem, got %v", err)
			}
		})
	}
}

func TestValidateItems_DuplicateIDs(t *testing.T) {
	items := sampleItems()
	items[1].ID = items[0].ID
	if err := core.ValidateItems(items); !errors.Is(err, core.ErrInvalidLineItem) {
		t.Errorf("expected duplicate id to be rejected, got %v", err)
	}
}

func TestValidateTaxRate(t *testing.T) {
	if err := core.ValidateTaxRate(dec("0")); err != nil {
		t.Errorf("expected 0 to be valid, got %v", err)
	}
	if err := core.ValidateTaxRate(dec("-1")); !errors.Is(err, core.ErrInvalidTaxRate) {
		t.Errorf("expected ErrInvalidTaxRate, got %v", err)
	}
}

func TestValidateClient(t *testing.T) {
	tests := []struct {
		name    string
		client  core.Client
		wantErr bool
	}{
		{"name only", core.Client{Name: "Acme"}, false},
		{"blank name", core.Client{Name: "   "}, true},
		{"good email", core.Client{Name: "Acme", Email: strPtr("ops@acme.io")}, false},
		{"email without domain dot", core.Client{Name: "Acme", Email: strPtr("ops@acme")}, true},
		{"email with space", core.Client{Name: "Acme", Email: strPtr("o ps@acme.io")}, true},
		{"blank email is absent", core.Client{Name: "Acme", Email: strPtr("  ")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateClient(tt.client)
			if tt.wantErr && !errors.Is(err, core.ErrInvalidClient) {
				t.Errorf("expected ErrInvalidClient, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestNormalizeClient(t *testing.T) {
	c := core.NormalizeClient(core.Client{Name: "  Acme ", Phone: strPtr(" "), Company: strPtr(" Acme Ltd ")})
	if c.Name != "Acme" {
		t.Errorf("expected trimmed name, got %q", c.Name)
	}
	if c.Phone != nil {
		t.Errorf("expected blank phone to become absent, got %q", *c.Phone)
	}
	if c.Company == nil || *c.Company != "Acme Ltd" {
		t.Errorf("expected trimmed company, got %v", c.Company)
	}
}

func TestValidateSettings(t *testing.T) {
	s := core.DefaultSettings()
	if err := core.ValidateSettings(s); err != nil {
		t.Fatalf("default settings rejected: %v", err)
	}

	s.DefaultTaxRate = dec("-1")
	if err := core.ValidateSettings(s); !errors.Is(err, core.ErrInvalidSettings) {
		t.Errorf("negative default tax rate: got %v, want ErrInvalidSettings", err)
	}

	s = core.DefaultSettings()
	bad := "not-an-email"
	s.Email = &bad
	if err := core.ValidateSettings(s); !errors.Is(err, core.ErrInvalidSettings) {
		t.Errorf("malformed email: got %v, want ErrInvalidSettings", err)
	}
}
