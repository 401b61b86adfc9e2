package core

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estimate-desk/internal/format"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DecimalFromFloat converts a float input into a decimal, rejecting NaN and ±Inf so a
// non-finite value can never reach the totals engine.
func DecimalFromFloat(field string, f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &ValidationError{Err: ErrNonFinite, Field: field, Details: fmt.Sprintf("got %v", f)}
	}
	return decimal.NewFromFloat(f), nil
}

// ValidateLineItem checks the input-boundary constraints of a line item.
func ValidateLineItem(item LineItem) error {
	if strings.TrimSpace(item.Description) == "" {
		return &ValidationError{Err: ErrInvalidLineItem, Field: "description", Details: "description is required"}
	}
	if !item.Quantity.IsPositive() {
		return &ValidationError{Err: ErrInvalidLineItem, Field: "quantity", Details: fmt.Sprintf("quantity must be positive, got %s", item.Quantity)}
	}
	if item.UnitPrice.IsNegative() {
		return &ValidationError{Err: ErrInvalidLineItem, Field: "unitPrice", Details: fmt.Sprintf("unit price must not be negative, got %s", item.UnitPrice)}
	}
	if !item.Unit.Valid() {
		return &ValidationError{Err: ErrInvalidLineItem, Field: "unit", Details: fmt.Sprintf("unit must be %q or %q, got %q", UnitHours, UnitDays, item.Unit)}
	}
	return nil
}

// ValidateItems validates every item and checks that ids are unique within the list.
func ValidateItems(items []LineItem) error {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if err := ValidateLineItem(item); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if item.ID == "" {
			return &ValidationError{Err: ErrInvalidLineItem, Field: "id", Details: fmt.Sprintf("line %d has no id", i+1)}
		}
		if seen[item.ID] {
			return &ValidationError{Err: ErrInvalidLineItem, Field: "id", Details: fmt.Sprintf("duplicate line item id %s", item.ID)}
		}
		seen[item.ID] = true
	}
	return nil
}

// ValidateTaxRate rejects negative percentages.
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return &ValidationError{Err: ErrInvalidTaxRate, Field: "taxRate", Details: fmt.Sprintf("tax rate must not be negative, got %s", rate)}
	}
	return nil
}

// ValidateDate checks that s is a YYYY-MM-DD calendar date.
func ValidateDate(field, s string) error {
	if _, err := time.Parse(format.DateLayout, s); err != nil {
		return &ValidationError{Err: ErrInvalidDate, Field: field, Details: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
	}
	return nil
}

// NormalizeClient trims every field and turns blank optional fields into absent ones.
func NormalizeClient(c Client) Client {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = trimOptional(c.Phone)
	c.Email = trimOptional(c.Email)
	c.Address = trimOptional(c.Address)
	c.Company = trimOptional(c.Company)
	return c
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// ValidateClient requires a name and a well-formed email when one is given.
func ValidateClient(c Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Err: ErrInvalidClient, Field: "name", Details: "client name is required"}
	}
	if c.Email != nil && strings.TrimSpace(*c.Email) != "" && !emailPattern.MatchString(strings.TrimSpace(*c.Email)) {
		return &ValidationError{Err: ErrInvalidClient, Field: "email", Details: fmt.Sprintf("malformed email %q", *c.Email)}
	}
	return nil
}

// ValidateSettings checks the default tax rate and the optional contact email.
// The currency code is checked by callers that know the currency table.
func ValidateSettings(s Settings) error {
	if s.DefaultTaxRate.IsNegative() {
		return &ValidationError{Err: ErrInvalidSettings, Field: "defaultTaxRate", Details: fmt.Sprintf("tax rate must not be negative, got %s", s.DefaultTaxRate)}
	}
	if s.Email != nil && !emailPattern.MatchString(*s.Email) {
		return &ValidationError{Err: ErrInvalidSettings, Field: "email", Details: fmt.Sprintf("malformed email %q", *s.Email)}
	}
	return nil
}

// validateDocument checks the parts of a document shared by estimates and invoices.
func validateDocument(d DocumentCore) error {
	if d.ClientID == "" {
		return &ValidationError{Err: ErrInvalidClient, Field: "clientId", Details: "a client must be selected"}
	}
	if err := ValidateDate("issueDate", d.IssueDate); err != nil {
		return err
	}
	if err := ValidateTaxRate(d.TaxRate); err != nil {
		return err
	}
	return ValidateItems(d.Items)
}
