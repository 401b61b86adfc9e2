package repl

import (
	"fmt"
	"strings"

	"estimate-desk/internal/app"
	"estimate-desk/internal/core"
	"estimate-desk/internal/format"

	"github.com/shopspring/decimal"
)

func printClients(result *app.ClientListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("  CLIENTS")
	fmt.Println(strings.Repeat("=", 72))
	if len(result.Clients) == 0 {
		fmt.Println("  No clients found. Use /new-client to add one.")
		fmt.Println(strings.Repeat("=", 72))
		return
	}
	fmt.Printf("  %-10s %-24s %-20s %s\n", "ID", "NAME", "COMPANY", "EMAIL")
	fmt.Println(strings.Repeat("-", 72))
	for _, c := range result.Clients {
		fmt.Printf("  %-10s %-24s %-20s %s\n", shortID(c.ID), truncate(c.Name, 24), truncate(deref(c.Company), 20), deref(c.Email))
	}
	fmt.Println(strings.Repeat("=", 72))
}

func printClientSummary(result *app.ClientResult, currency string) {
	s := result.Summary
	fmt.Println()
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  Client:    %s\n", s.Client.Name)
	if s.Client.Company != nil {
		fmt.Printf("  Company:   %s\n", *s.Client.Company)
	}
	if s.Client.Email != nil {
		fmt.Printf("  Email:     %s\n", *s.Client.Email)
	}
	if s.Client.Phone != nil {
		fmt.Printf("  Phone:     %s\n", *s.Client.Phone)
	}
	if s.Client.Address != nil {
		fmt.Printf("  Address:   %s\n", *s.Client.Address)
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("  Estimates: %-4d %s\n", s.EstimateCount, format.Currency(s.EstimateTotalValue, currency))
	fmt.Printf("  Invoices:  %-4d %s  (%d paid)\n", s.InvoiceCount, format.Currency(s.InvoiceTotalValue, currency), s.PaidInvoiceCount)
	fmt.Println(strings.Repeat("-", 60))
}

func printEstimates(result *app.EstimateListResult, currency string) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("  ESTIMATES")
	fmt.Println(strings.Repeat("=", 80))
	if len(result.Estimates) == 0 {
		fmt.Println("  No estimates found.")
		fmt.Println(strings.Repeat("=", 80))
		return
	}
	fmt.Printf("  %-10s %-24s %-12s %-10s %14s\n", "NUMBER", "CLIENT", "DATE", "STATUS", "TOTAL")
	fmt.Println(strings.Repeat("-", 80))
	for _, row := range result.Estimates {
		e := row.Estimate
		fmt.Printf("  %-10s %-24s %-12s %-10s %14s\n",
			e.EstimateNumber, truncate(row.ClientName, 24), e.IssueDate,
			strings.ToUpper(string(e.State.Status())), format.Currency(e.Total, currency))
	}
	fmt.Println(strings.Repeat("=", 80))
}

func printInvoices(result *app.InvoiceListResult, currency string) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("  INVOICES")
	fmt.Println(strings.Repeat("=", 80))
	if len(result.Invoices) == 0 {
		fmt.Println("  No invoices found.")
		fmt.Println(strings.Repeat("=", 80))
		return
	}
	fmt.Printf("  %-10s %-24s %-12s %-10s %14s\n", "NUMBER", "CLIENT", "DUE", "STATUS", "TOTAL")
	fmt.Println(strings.Repeat("-", 80))
	for _, row := range result.Invoices {
		inv := row.Invoice
		status := "UNPAID"
		switch {
		case inv.Paid:
			status = "PAID"
		case row.Overdue:
			status = "OVERDUE"
		}
		fmt.Printf("  %-10s %-24s %-12s %-10s %14s\n",
			inv.InvoiceNumber, truncate(row.ClientName, 24), inv.DueDate, status, format.Currency(inv.Total, currency))
	}
	fmt.Println(strings.Repeat("=", 80))
}

func printItems(items []core.LineItem, currency string) {
	fmt.Printf("  %-30s %8s %-6s %12s %12s\n", "DESCRIPTION", "QTY", "UNIT", "UNIT PRICE", "AMOUNT")
	fmt.Println(strings.Repeat("-", 76))
	for _, item := range items {
		desc := item.Description
		if item.Taxable {
			desc += " *"
		}
		fmt.Printf("  %-30s %8s %-6s %12s %12s\n",
			truncate(desc, 30), format.Quantity(item.Quantity), item.Unit,
			format.Currency(item.UnitPrice, currency), format.Currency(core.ExtendedAmount(item), currency))
	}
}

func printDraft(d *app.DraftResult, currency string) {
	fmt.Printf("\nREASONING:  %s\n", d.Reasoning)
	fmt.Printf("CONFIDENCE: %.2f\n", d.Confidence)
	if len(d.Items) > 0 {
		fmt.Println("PROPOSED ITEMS:")
		printItems(d.Items, currency)
		fmt.Println(strings.Repeat("-", 76))
		fmt.Printf("  %-63s %12s\n", "SUBTOTAL", format.Currency(core.ComputeTotals(d.Items, decimal.Zero).Subtotal, currency))
	}
	for _, r := range d.Rejected {
		fmt.Printf("  skipped %q: %s\n", r.Description, r.Reason)
	}
}

func printEstimateResult(r *app.EstimateResult, currency string) {
	e := r.Estimate
	fmt.Println()
	fmt.Println(strings.Repeat("-", 76))
	fmt.Printf("  Estimate:    %s\n", e.EstimateNumber)
	if r.Client != nil {
		fmt.Printf("  Client:      %s\n", r.Client.Name)
	}
	fmt.Printf("  Status:      %s\n", strings.ToUpper(string(e.State.Status())))
	fmt.Printf("  Date:        %s  (valid until %s)\n", e.IssueDate, e.ValidUntil)
	fmt.Println(strings.Repeat("-", 76))
	printItems(e.Items, currency)
	fmt.Println(strings.Repeat("-", 76))
	fmt.Printf("  %-63s %12s\n", "SUBTOTAL", format.Currency(r.Totals.Subtotal, currency))
	fmt.Printf("  %-63s %12s\n", "TAX "+format.Percent(e.TaxRate), format.Currency(r.Totals.Tax, currency))
	fmt.Printf("  %-63s %12s\n", "TOTAL", format.Currency(r.Totals.Total, currency))
	fmt.Println(strings.Repeat("-", 76))
}

func printSettings(s *core.Settings) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println("  SETTINGS")
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-16s %s\n", "Company", s.CompanyName)
	fmt.Printf("  %-16s %s\n", "Phone", deref(s.Phone))
	fmt.Printf("  %-16s %s\n", "Email", deref(s.Email))
	fmt.Printf("  %-16s %s\n", "Address", deref(s.Address))
	fmt.Printf("  %-16s %s\n", "Tax rate", format.Percent(s.DefaultTaxRate))
	fmt.Printf("  %-16s %s\n", "Currency", s.DefaultCurrency)
	fmt.Printf("  %-16s %s\n", "Default note", deref(s.DefaultNote))
	fmt.Printf("  %-16s %t\n", "Item taxable", s.EnableItemTaxable)
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println("  Change settings with: estimate-desk settings set --help")
}

func printIssues(result *app.ConsistencyResult) {
	fmt.Println()
	if len(result.Issues) == 0 {
		fmt.Println("No issues found.")
		return
	}
	for _, issue := range result.Issues {
		fmt.Printf("  %s\n", issue)
	}
	fmt.Printf("%d issue(s), %d severe.\n", len(result.Issues), result.Severe)
}

func printHelp() {
	fmt.Println()
	fmt.Println("ESTIMATE DESK — COMMANDS")
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println()
	fmt.Println("  CLIENTS")
	fmt.Println("  /clients [query]                 List clients")
	fmt.Println("  /client <name-or-id>             Client details and totals")
	fmt.Println("  /new-client                      Create client (interactive)")
	fmt.Println()
	fmt.Println("  ESTIMATES")
	fmt.Println("  /estimates [query]               List estimates")
	fmt.Println("  /new-estimate <client>           Create estimate (interactive)")
	fmt.Println("  /send <estimate-ref>             Mark as SENT")
	fmt.Println("  /convert <estimate-ref>          Create invoice from estimate")
	fmt.Println()
	fmt.Println("  INVOICES")
	fmt.Println("  /invoices [paid|unpaid|overdue]  List invoices")
	fmt.Println("  /paid <invoice-ref>              Mark as PAID")
	fmt.Println("  /unpaid <invoice-ref>            Mark as UNPAID")
	fmt.Println()
	fmt.Println("  DOCUMENTS")
	fmt.Println("  /show <ref>                      Print estimate or invoice")
	fmt.Println("  /render <ref> [markdown|html|share]")
	fmt.Println()
	fmt.Println("  SESSION")
	fmt.Println("  /settings                        Show settings")
	fmt.Println("  /check                           Report data inconsistencies")
	fmt.Println("  /help                            Show this help")
	fmt.Println("  /exit                            Exit")
	fmt.Println()
	fmt.Println("  DRAFTING MODE  (no / prefix)")
	fmt.Println("  Describe a job and the assistant proposes line items.")
	fmt.Println("  Example: \"replace 40 feet of fence and paint it\"")
	fmt.Println(strings.Repeat("=", 62))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
