package cli

import (
	"fmt"
	"io"

	"estimate-desk/internal/app"
	"estimate-desk/internal/core"
	"estimate-desk/internal/format"

	"github.com/spf13/cobra"
)

// ── Estimates ───────────────────────────────────────────────────────────────

func estimatesCmd(svc app.ApplicationService, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "estimates",
		Aliases: []string{"estimate", "est", "e"},
		Short:   "Manage estimates",
	}

	var filter app.EstimateFilter
	var filterClient string
	list := &cobra.Command{
		Use:   "list",
		Short: "List estimates, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filter
			if filterClient != "" {
				id, err := svc.ResolveRef(cmd.Context(), app.RefClient, filterClient)
				if err != nil {
					return err
				}
				f.ClientID = id
			}
			result, err := svc.ListEstimates(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p.json {
				return p.encode(out, result.Estimates)
			}
			if len(result.Estimates) == 0 {
				fmt.Fprintln(out, "No estimates found.")
				return nil
			}
			settings, err := svc.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			tw := p.table(out)
			fmt.Fprintln(tw, "NUMBER\tCLIENT\tDATE\tSTATUS\tTOTAL")
			for _, row := range result.Estimates {
				e := row.Estimate
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.EstimateNumber, row.ClientName, e.IssueDate, e.State.Status(),
					format.Currency(e.Total, settings.DefaultCurrency))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&filter.Query, "query", "q", "", "match number or notes")
	list.Flags().StringVar(&filter.Status, "status", "", "draft, sent or converted")
	list.Flags().StringVar(&filterClient, "client", "", "client id or name")
	cmd.AddCommand(list)

	cmd.AddCommand(showCmd(svc, p, core.KindEstimate))

	var create docFlags
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Create an estimate; unset fields take the defaults from settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := create.request(cmd, svc)
			if err != nil {
				return err
			}
			result, err := svc.CreateEstimate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printEstimate(cmd, svc, p, "Created", result)
		},
	}
	create.register(newCmd, core.KindEstimate)
	cmd.AddCommand(newCmd)

	var edit docFlags
	editCmd := &cobra.Command{
		Use:   "edit <estimate>",
		Short: "Update an estimate; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefEstimate, args[0])
			if err != nil {
				return err
			}
			req, err := edit.request(cmd, svc)
			if err != nil {
				return err
			}
			result, err := svc.UpdateEstimate(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			return printEstimate(cmd, svc, p, "Updated", result)
		},
	}
	edit.register(editCmd, core.KindEstimate)
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status <estimate> <draft|sent>",
		Short: "Mark an estimate as draft or sent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefEstimate, args[0])
			if err != nil {
				return err
			}
			result, err := svc.SetEstimateStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return printEstimate(cmd, svc, p, "Marked "+string(result.Estimate.State.Status()), result)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "convert <estimate>",
		Short: "Create an invoice from an estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefEstimate, args[0])
			if err != nil {
				return err
			}
			result, err := svc.ConvertEstimate(cmd.Context(), id)
			if err != nil {
				return err
			}
			if p.json {
				return p.encode(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %s into %s, due %s\n",
				result.Estimate.EstimateNumber, result.Invoice.InvoiceNumber, format.Date(result.Invoice.DueDate))
			return nil
		},
	})

	cmd.AddCommand(deleteCmd(svc, core.KindEstimate))
	cmd.AddCommand(renderCmd(svc, core.KindEstimate))
	return cmd
}

func printEstimate(cmd *cobra.Command, svc app.ApplicationService, p *printer, verb string, r *app.EstimateResult) error {
	out := cmd.OutOrStdout()
	if p.json {
		return p.encode(out, r)
	}
	fmt.Fprintf(out, "%s estimate %s (%d items, total %s)\n",
		verb, r.Estimate.EstimateNumber, len(r.Estimate.Items), money(cmd.Context(), svc, r.Totals.Total))
	return nil
}

// ── Invoices ────────────────────────────────────────────────────────────────

func invoicesCmd(svc app.ApplicationService, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoices",
		Aliases: []string{"invoice", "inv", "i"},
		Short:   "Manage invoices",
	}

	var filter app.InvoiceFilter
	var filterClient string
	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filter
			if filterClient != "" {
				id, err := svc.ResolveRef(cmd.Context(), app.RefClient, filterClient)
				if err != nil {
					return err
				}
				f.ClientID = id
			}
			result, err := svc.ListInvoices(cmd.Context(), f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p.json {
				return p.encode(out, result.Invoices)
			}
			if len(result.Invoices) == 0 {
				fmt.Fprintln(out, "No invoices found.")
				return nil
			}
			settings, err := svc.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			tw := p.table(out)
			fmt.Fprintln(tw, "NUMBER\tCLIENT\tDUE\tSTATUS\tTOTAL")
			for _, row := range result.Invoices {
				inv := row.Invoice
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					inv.InvoiceNumber, row.ClientName, inv.DueDate, invoiceStatus(inv.Paid, row.Overdue),
					format.Currency(inv.Total, settings.DefaultCurrency))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&filter.Query, "query", "q", "", "match number, notes or client name")
	list.Flags().StringVar(&filter.Status, "status", "", "paid, unpaid or overdue")
	list.Flags().StringVar(&filterClient, "client", "", "client id or name")
	cmd.AddCommand(list)

	cmd.AddCommand(showCmd(svc, p, core.KindInvoice))

	var create docFlags
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Create an invoice; unset fields take the defaults from settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := create.request(cmd, svc)
			if err != nil {
				return err
			}
			result, err := svc.CreateInvoice(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printInvoice(cmd, svc, p, "Created", result)
		},
	}
	create.register(newCmd, core.KindInvoice)
	cmd.AddCommand(newCmd)

	var edit docFlags
	editCmd := &cobra.Command{
		Use:   "edit <invoice>",
		Short: "Update an invoice; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefInvoice, args[0])
			if err != nil {
				return err
			}
			req, err := edit.request(cmd, svc)
			if err != nil {
				return err
			}
			result, err := svc.UpdateInvoice(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			return printInvoice(cmd, svc, p, "Updated", result)
		},
	}
	edit.register(editCmd, core.KindInvoice)
	cmd.AddCommand(editCmd)

	var unpaid bool
	paid := &cobra.Command{
		Use:   "paid <invoice>",
		Short: "Mark an invoice as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefInvoice, args[0])
			if err != nil {
				return err
			}
			result, err := svc.SetInvoicePaid(cmd.Context(), id, !unpaid)
			if err != nil {
				return err
			}
			return printInvoice(cmd, svc, p, "Marked "+invoiceStatus(result.Invoice.Paid, result.Overdue), result)
		},
	}
	paid.Flags().BoolVar(&unpaid, "unpaid", false, "mark as unpaid instead")
	cmd.AddCommand(paid)

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <invoice>",
		Short: "Flip an invoice between paid and unpaid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefInvoice, args[0])
			if err != nil {
				return err
			}
			result, err := svc.ToggleInvoicePaid(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printInvoice(cmd, svc, p, "Marked "+invoiceStatus(result.Invoice.Paid, result.Overdue), result)
		},
	})

	cmd.AddCommand(deleteCmd(svc, core.KindInvoice))
	cmd.AddCommand(renderCmd(svc, core.KindInvoice))
	return cmd
}

func printInvoice(cmd *cobra.Command, svc app.ApplicationService, p *printer, verb string, r *app.InvoiceResult) error {
	out := cmd.OutOrStdout()
	if p.json {
		return p.encode(out, r)
	}
	fmt.Fprintf(out, "%s invoice %s (%d items, total %s, due %s)\n",
		verb, r.Invoice.InvoiceNumber, len(r.Invoice.Items), money(cmd.Context(), svc, r.Totals.Total), format.Date(r.Invoice.DueDate))
	return nil
}

func invoiceStatus(paid, overdue bool) string {
	switch {
	case paid:
		return "paid"
	case overdue:
		return "overdue"
	default:
		return "unpaid"
	}
}

// ── Shared document commands ────────────────────────────────────────────────

func refKind(kind core.DocumentKind) app.RefKind {
	if kind == core.KindInvoice {
		return app.RefInvoice
	}
	return app.RefEstimate
}

// showCmd prints the markdown rendering of a document, or its full record with --json.
func showCmd(svc app.ApplicationService, p *printer, kind core.DocumentKind) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("show <%s>", kind),
		Short: fmt.Sprintf("Show an %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := svc.ResolveRef(ctx, refKind(kind), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p.json {
				if kind == core.KindInvoice {
					r, err := svc.GetInvoice(ctx, id)
					if err != nil {
						return err
					}
					return p.encode(out, r)
				}
				r, err := svc.GetEstimate(ctx, id)
				if err != nil {
					return err
				}
				return p.encode(out, r)
			}
			doc, err := svc.RenderDocument(ctx, kind, id, app.FormatMarkdown)
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, doc.Body)
			return err
		},
	}
}

func deleteCmd(svc app.ApplicationService, kind core.DocumentKind) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("rm <%s>", kind),
		Short: fmt.Sprintf("Delete an %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := svc.ResolveRef(ctx, refKind(kind), args[0])
			if err != nil {
				return err
			}
			if kind == core.KindInvoice {
				err = svc.DeleteInvoice(ctx, id)
			} else {
				err = svc.DeleteEstimate(ctx, id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, args[0])
			return nil
		},
	}
}

// renderCmd writes the document body, for piping into a file or a mail client.
func renderCmd(svc app.ApplicationService, kind core.DocumentKind) *cobra.Command {
	var docFormat string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("render <%s>", kind),
		Short: fmt.Sprintf("Render an %s as markdown, html or share text", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), refKind(kind), args[0])
			if err != nil {
				return err
			}
			doc, err := svc.RenderDocument(cmd.Context(), kind, id, app.DocumentFormat(docFormat))
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), doc.Body)
			return err
		},
	}
	cmd.Flags().StringVarP(&docFormat, "format", "f", string(app.FormatMarkdown), "markdown, html or share")
	return cmd
}
