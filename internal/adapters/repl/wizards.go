package repl

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"estimate-desk/internal/app"
	"estimate-desk/internal/core"

	"github.com/shopspring/decimal"
)

const lineFormat = "<quantity> <hours|days> <unit-price> [taxable] <description>"

// handleNewClient runs an interactive client creation session.
func handleNewClient(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService) {
	name := prompt(reader, "Name: ")
	if name == "" {
		fmt.Println("Client creation cancelled.")
		return
	}
	req := app.ClientRequest{
		Name:    name,
		Company: optional(prompt(reader, "Company (optional): ")),
		Email:   optional(prompt(reader, "Email (optional): ")),
		Phone:   optional(prompt(reader, "Phone (optional): ")),
		Address: optional(prompt(reader, "Address (optional): ")),
	}
	result, err := svc.CreateClient(ctx, req)
	if err != nil {
		fmt.Printf("[REPL] Error creating client: %v\n", err)
		return
	}
	fmt.Printf("Client created: %s (%s)\n", result.Summary.Client.Name, shortID(result.Summary.Client.ID))
}

// handleNewEstimate runs an interactive estimate creation session. seed holds items
// proposed by the drafting assistant, which the user can extend before saving.
func handleNewEstimate(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService, clientID string, seed []core.LineItem) {
	settings, err := svc.GetSettings(ctx)
	if err != nil {
		fmt.Printf("[REPL] Error loading settings: %v\n", err)
		return
	}

	var items []app.LineItemInput
	for _, s := range seed {
		items = append(items, app.LineItemInput{
			Description: s.Description,
			Quantity:    s.Quantity,
			Unit:        s.Unit,
			UnitPrice:   s.UnitPrice,
			Taxable:     s.Taxable,
		})
	}
	if len(items) > 0 {
		fmt.Printf("%d drafted item(s) included.\n", len(items))
	}

	fmt.Println("Enter line items. Type 'done' when finished, 'cancel' to abort.")
	fmt.Printf("Format per line: %s\n", lineFormat)
	fmt.Println("  Example: 6 hours 55 Sand and stain deck")
	if settings.EnableItemTaxable {
		fmt.Println("  Example: 2 days 400 taxable Replace fence boards")
	}

	lineNum := len(items) + 1
	for {
		fmt.Printf("  Item %d: ", lineNum)
		raw, readErr := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.ToLower(raw) == "cancel" {
			fmt.Println("Estimate creation cancelled.")
			return
		}
		if strings.ToLower(raw) == "done" || (raw == "" && readErr != nil) {
			break
		}
		if raw == "" {
			continue
		}
		item, err := parseLineInput(raw)
		if err != nil {
			fmt.Printf("  %v\n", err)
			continue
		}
		items = append(items, item)
		lineNum++
	}

	if len(items) == 0 {
		fmt.Println("No items entered. Estimate not created.")
		return
	}

	req := app.DocumentRequest{
		ClientID:   clientID,
		IssueDate:  prompt(reader, "Issue date (YYYY-MM-DD, leave blank for today): "),
		ValidUntil: prompt(reader, "Valid until (YYYY-MM-DD, leave blank for 30 days): "),
		Items:      items,
	}
	if raw := prompt(reader, fmt.Sprintf("Tax rate %% [%s]: ", settings.DefaultTaxRate.String())); raw != "" {
		rate, err := decimal.NewFromString(strings.TrimSuffix(raw, "%"))
		if err != nil {
			fmt.Printf("[REPL] Invalid tax rate: %s\n", raw)
			return
		}
		req.TaxRate = &rate
	}
	if notes := prompt(reader, "Notes (blank for default): "); notes != "" {
		req.Notes = &notes
	}

	result, err := svc.CreateEstimate(ctx, req)
	if err != nil {
		fmt.Printf("[REPL] Error creating estimate: %v\n", err)
		return
	}
	fmt.Printf("\nEstimate created: %s (DRAFT)\n", result.Estimate.EstimateNumber)
	printEstimateResult(result, settings.DefaultCurrency)
	fmt.Println("Use '/send <number>' when delivered, '/convert <number>' to invoice.")
}

// parseLineInput reads one wizard line in lineFormat.
func parseLineInput(raw string) (app.LineItemInput, error) {
	parts := strings.Fields(raw)
	if len(parts) < 4 {
		return app.LineItemInput{}, fmt.Errorf("invalid format, use: %s", lineFormat)
	}
	qty, err := decimal.NewFromString(parts[0])
	if err != nil {
		return app.LineItemInput{}, fmt.Errorf("invalid quantity: %s", parts[0])
	}
	unit := core.Unit(strings.ToLower(parts[1]))
	if !unit.Valid() {
		return app.LineItemInput{}, fmt.Errorf("invalid unit %q, use hours or days", parts[1])
	}
	price, err := decimal.NewFromString(strings.TrimPrefix(parts[2], "$"))
	if err != nil {
		return app.LineItemInput{}, fmt.Errorf("invalid price: %s", parts[2])
	}
	rest := parts[3:]
	taxable := false
	if strings.EqualFold(rest[0], "taxable") && len(rest) > 1 {
		taxable = true
		rest = rest[1:]
	}
	return app.LineItemInput{
		Description: strings.Join(rest, " "),
		Quantity:    qty,
		Unit:        unit,
		UnitPrice:   price,
		Taxable:     taxable,
	}, nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := reader.ReadString('\n')
	return strings.TrimSpace(s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
