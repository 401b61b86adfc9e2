package cli

import (
	"errors"
	"fmt"
	"strings"

	"estimate-desk/internal/app"
	"estimate-desk/internal/core"
	"estimate-desk/internal/format"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func settingsCmd(svc app.ApplicationService, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change company details and document defaults",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := svc.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			return printSettings(cmd, p, s)
		},
	})

	var companyName, phone, email, address, logo, currency, note, taxRate string
	var itemTaxable bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req app.SettingsRequest
			str := func(flag, v string) *string {
				if !cmd.Flags().Changed(flag) {
					return nil
				}
				s := v
				return &s
			}
			req.CompanyName = str("company", companyName)
			req.Phone = str("phone", phone)
			req.Email = str("email", email)
			req.Address = str("address", address)
			req.LogoURI = str("logo", logo)
			req.DefaultCurrency = str("currency", currency)
			req.DefaultNote = str("note", note)
			if cmd.Flags().Changed("tax") {
				rate, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(taxRate), "%"))
				if err != nil {
					return fmt.Errorf("invalid tax rate %q: %w", taxRate, err)
				}
				req.DefaultTaxRate = &rate
			}
			if cmd.Flags().Changed("item-taxable") {
				req.EnableItemTaxable = &itemTaxable
			}
			s, err := svc.UpdateSettings(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printSettings(cmd, p, s)
		},
	}
	set.Flags().StringVar(&companyName, "company", "", "company name printed on documents")
	set.Flags().StringVar(&phone, "phone", "", "company phone")
	set.Flags().StringVar(&email, "email", "", "company email")
	set.Flags().StringVar(&address, "address", "", "company address")
	set.Flags().StringVar(&logo, "logo", "", "logo image URI")
	set.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code")
	set.Flags().StringVar(&note, "note", "", "default notes for new documents")
	set.Flags().StringVar(&taxRate, "tax", "", "default tax rate in percent")
	set.Flags().BoolVar(&itemTaxable, "item-taxable", true, "allow marking individual items taxable")
	cmd.AddCommand(set)

	return cmd
}

func printSettings(cmd *cobra.Command, p *printer, s *core.Settings) error {
	out := cmd.OutOrStdout()
	if p.json {
		return p.encode(out, s)
	}
	tw := p.table(out)
	fmt.Fprintf(tw, "Company\t%s\n", s.CompanyName)
	fmt.Fprintf(tw, "Phone\t%s\n", deref(s.Phone))
	fmt.Fprintf(tw, "Email\t%s\n", deref(s.Email))
	fmt.Fprintf(tw, "Address\t%s\n", deref(s.Address))
	fmt.Fprintf(tw, "Logo\t%s\n", deref(s.LogoURI))
	fmt.Fprintf(tw, "Tax rate\t%s\n", format.Percent(s.DefaultTaxRate))
	fmt.Fprintf(tw, "Currency\t%s\n", s.DefaultCurrency)
	fmt.Fprintf(tw, "Default note\t%s\n", deref(s.DefaultNote))
	fmt.Fprintf(tw, "Item taxable\t%t\n", s.EnableItemTaxable)
	return tw.Flush()
}

// ── Drafting assistant ──────────────────────────────────────────────────────

func draftCmd(svc app.ApplicationService, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "draft <description...>",
		Short: "Ask the assistant to propose line items for a job",
		Long:  "Proposals are printed only. Pass them to 'estimates new --item' to keep them.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.DraftLineItems(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				if errors.Is(err, app.ErrDrafterUnavailable) {
					return fmt.Errorf("%w: set OPENAI_API_KEY to enable drafting", err)
				}
				return err
			}
			out := cmd.OutOrStdout()
			if p.json {
				return p.encode(out, result)
			}
			tw := p.table(out)
			fmt.Fprintln(tw, "DESCRIPTION\tQTY\tUNIT\tPRICE\tTAXABLE")
			for _, item := range result.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
					item.Description, format.Quantity(item.Quantity), item.Unit,
					money(cmd.Context(), svc, item.UnitPrice), item.Taxable)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, r := range result.Rejected {
				fmt.Fprintf(out, "skipped %q: %s\n", r.Description, r.Reason)
			}
			if result.Reasoning != "" {
				fmt.Fprintf(out, "\n%s (confidence %.0f%%)\n", result.Reasoning, result.Confidence*100)
			}
			return nil
		},
	}
}

// ── Maintenance ─────────────────────────────────────────────────────────────

func resetCmd(svc app.ApplicationService) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all clients, estimates and invoices and restore default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all data; pass --yes to confirm")
			}
			if err := svc.ResetAllData(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func checkCmd(svc app.ApplicationService, p *printer) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report inconsistencies left by interrupted writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.CheckConsistency(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p.json {
				if err := p.encode(out, result); err != nil {
					return err
				}
			} else if len(result.Issues) == 0 {
				fmt.Fprintln(out, "No issues found.")
			} else {
				for _, issue := range result.Issues {
					fmt.Fprintln(out, issue.String())
				}
			}
			if result.Severe > 0 {
				return fmt.Errorf("%w: %d severe", ErrInconsistent, result.Severe)
			}
			return nil
		},
	}
}
