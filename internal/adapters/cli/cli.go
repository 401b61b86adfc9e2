package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"estimate-desk/internal/app"
	"estimate-desk/internal/core"
	"estimate-desk/internal/format"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// ErrInconsistent is returned by the check command when severe issues are found.
var ErrInconsistent = errors.New("data has consistency issues")

// Execute runs a one-shot CLI command. args is os.Args[1:].
func Execute(ctx context.Context, svc app.ApplicationService, args []string) error {
	root := NewRootCommand(svc)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Commands write to cmd.OutOrStdout().
func NewRootCommand(svc app.ApplicationService) *cobra.Command {
	p := &printer{}
	root := &cobra.Command{
		Use:           "estimate-desk",
		Short:         "Estimates and invoices for independent contractors",
		Long:          "Run without arguments for the interactive shell.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&p.json, "json", false, "print JSON instead of tables")

	root.AddCommand(clientsCmd(svc, p))
	root.AddCommand(estimatesCmd(svc, p))
	root.AddCommand(invoicesCmd(svc, p))
	root.AddCommand(settingsCmd(svc, p))
	root.AddCommand(draftCmd(svc, p))
	root.AddCommand(resetCmd(svc))
	root.AddCommand(checkCmd(svc, p))
	return root
}

// ── Output ──────────────────────────────────────────────────────────────────

type printer struct {
	json bool
}

func (p *printer) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// money formats amount in the installation currency.
func money(ctx context.Context, svc app.ApplicationService, amount decimal.Decimal) string {
	settings, err := svc.GetSettings(ctx)
	if err != nil {
		return amount.StringFixed(2)
	}
	return format.Currency(amount, settings.DefaultCurrency)
}

// ── Flag parsing ────────────────────────────────────────────────────────────

// parseItem reads "description,quantity,unit,price[,taxable]". The description may
// itself contain commas; the numeric fields are taken from the end.
func parseItem(raw string) (app.LineItemInput, error) {
	parts := strings.Split(raw, ",")
	taxable := false
	if n := len(parts); n > 0 && strings.EqualFold(strings.TrimSpace(parts[n-1]), "taxable") {
		taxable = true
		parts = parts[:n-1]
	}
	if len(parts) < 4 {
		return app.LineItemInput{}, fmt.Errorf("item %q: want description,quantity,unit,price[,taxable]", raw)
	}
	n := len(parts)
	qty, err := decimal.NewFromString(strings.TrimSpace(parts[n-3]))
	if err != nil {
		return app.LineItemInput{}, fmt.Errorf("item %q: invalid quantity: %w", raw, err)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[n-1]))
	if err != nil {
		return app.LineItemInput{}, fmt.Errorf("item %q: invalid price: %w", raw, err)
	}
	return app.LineItemInput{
		Description: strings.TrimSpace(strings.Join(parts[:n-3], ",")),
		Quantity:    qty,
		Unit:        core.Unit(strings.ToLower(strings.TrimSpace(parts[n-2]))),
		UnitPrice:   price,
		Taxable:     taxable,
	}, nil
}

// docFlags are the create/edit flags shared by estimates and invoices.
type docFlags struct {
	client     string
	issueDate  string
	validUntil string
	dueDate    string
	tax        string
	notes      string
	items      []string
	clearItems bool
}

func (f *docFlags) register(cmd *cobra.Command, kind core.DocumentKind) {
	cmd.Flags().StringVar(&f.client, "client", "", "client id or name")
	cmd.Flags().StringVar(&f.issueDate, "date", "", "issue date (YYYY-MM-DD)")
	if kind == core.KindEstimate {
		cmd.Flags().StringVar(&f.validUntil, "valid-until", "", "validity end (YYYY-MM-DD)")
	} else {
		cmd.Flags().StringVar(&f.dueDate, "due", "", "due date (YYYY-MM-DD)")
	}
	cmd.Flags().StringVar(&f.tax, "tax", "", "tax rate in percent")
	cmd.Flags().StringVar(&f.notes, "notes", "", "notes printed on the document")
	cmd.Flags().StringArrayVar(&f.items, "item", nil, `line item "description,quantity,unit,price[,taxable]" (repeatable; replaces all items)`)
	cmd.Flags().BoolVar(&f.clearItems, "clear-items", false, "remove every line item")
}

// request converts the flags that were set into a DocumentRequest.
func (f *docFlags) request(cmd *cobra.Command, svc app.ApplicationService) (app.DocumentRequest, error) {
	req := app.DocumentRequest{
		IssueDate:  f.issueDate,
		ValidUntil: f.validUntil,
		DueDate:    f.dueDate,
	}
	if f.client != "" {
		id, err := svc.ResolveRef(cmd.Context(), app.RefClient, f.client)
		if err != nil {
			return req, err
		}
		req.ClientID = id
	}
	if cmd.Flags().Changed("tax") {
		rate, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(f.tax), "%"))
		if err != nil {
			return req, fmt.Errorf("invalid tax rate %q: %w", f.tax, err)
		}
		req.TaxRate = &rate
	}
	if cmd.Flags().Changed("notes") {
		req.Notes = &f.notes
	}
	if f.clearItems {
		req.Items = []app.LineItemInput{}
	}
	for _, raw := range f.items {
		item, err := parseItem(raw)
		if err != nil {
			return req, err
		}
		req.Items = append(req.Items, item)
	}
	return req, nil
}
