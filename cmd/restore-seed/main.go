// restore-seed wipes the configured store and loads a small demo data set: two
// clients, a sent estimate, a converted estimate with its invoice and an overdue
// invoice. Run it to get a known state for manual testing.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"log"
	"time"

	"estimate-desk/internal/app"
	"estimate-desk/internal/bootstrap"
	"estimate-desk/internal/config"
	"estimate-desk/internal/core"
	"estimate-desk/internal/format"

	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	env, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer env.Close()
	svc := env.Service

	log.Println("Clearing all data...")
	if err := svc.ResetAllData(ctx); err != nil {
		log.Fatalf("Failed to reset: %v", err)
	}

	log.Println("Restoring settings...")
	if _, err := svc.UpdateSettings(ctx, app.SettingsRequest{
		CompanyName:    str("Harbor Renovations"),
		Phone:          str("(555) 010-2030"),
		Email:          str("office@harbor-renovations.example"),
		Address:        str("12 Dock Street, Portsmouth"),
		DefaultTaxRate: dec("8"),
		DefaultNote:    str("Thank you for your business."),
	}); err != nil {
		log.Fatalf("Failed to restore settings: %v", err)
	}

	log.Println("Restoring clients...")
	ada := mustClient(ctx, svc, app.ClientRequest{Name: "Ada Lovelace", Company: str("Analytical Engines Ltd"), Email: str("ada@engines.example")})
	grace := mustClient(ctx, svc, app.ClientRequest{Name: "Grace Hopper", Phone: str("(555) 019-0611"), Address: str("1 Cobol Way")})

	log.Println("Restoring estimates and invoices...")
	today := time.Now()
	sent, err := svc.CreateEstimate(ctx, app.DocumentRequest{
		ClientID:  ada,
		IssueDate: format.ISODate(today.AddDate(0, 0, -3)),
		Items: []app.LineItemInput{
			item("Kitchen cabinet installation", "2", core.UnitDays, "480", false),
			item("Hardware and fixings", "1", core.UnitHours, "135.50", true),
		},
	})
	if err != nil {
		log.Fatalf("Failed to create estimate: %v", err)
	}
	if _, err := svc.SetEstimateStatus(ctx, sent.Estimate.ID, string(core.EstimateStatusSent)); err != nil {
		log.Fatalf("Failed to send estimate: %v", err)
	}

	converted, err := svc.CreateEstimate(ctx, app.DocumentRequest{
		ClientID:  grace,
		IssueDate: format.ISODate(today.AddDate(0, 0, -20)),
		Items: []app.LineItemInput{
			item("Deck sanding and staining", "6", core.UnitHours, "55", false),
		},
	})
	if err != nil {
		log.Fatalf("Failed to create estimate: %v", err)
	}
	if _, err := svc.ConvertEstimate(ctx, converted.Estimate.ID); err != nil {
		log.Fatalf("Failed to convert estimate: %v", err)
	}

	if _, err := svc.CreateInvoice(ctx, app.DocumentRequest{
		ClientID:  ada,
		IssueDate: format.ISODate(today.AddDate(0, 0, -45)),
		DueDate:   format.ISODate(today.AddDate(0, 0, -15)),
		Items: []app.LineItemInput{
			item("Emergency leak repair", "3", core.UnitHours, "90", false),
		},
	}); err != nil {
		log.Fatalf("Failed to create invoice: %v", err)
	}

	result, err := svc.CheckConsistency(ctx)
	if err != nil {
		log.Fatalf("Failed to verify seed: %v", err)
	}
	if result.Severe > 0 {
		log.Fatalf("Seed left %d severe issue(s): %v", result.Severe, result.Issues)
	}

	log.Println("Seed data restored successfully.")
}

func mustClient(ctx context.Context, svc app.ApplicationService, req app.ClientRequest) string {
	res, err := svc.CreateClient(ctx, req)
	if err != nil {
		log.Fatalf("Failed to create client %s: %v", req.Name, err)
	}
	return res.Summary.Client.ID
}

func item(desc, qty string, unit core.Unit, price string, taxable bool) app.LineItemInput {
	return app.LineItemInput{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		Unit:        unit,
		UnitPrice:   decimal.RequireFromString(price),
		Taxable:     taxable,
	}
}

func str(s string) *string { return &s }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
