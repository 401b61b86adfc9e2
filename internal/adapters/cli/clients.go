package cli

import (
	"fmt"

	"estimate-desk/internal/app"

	"github.com/spf13/cobra"
)

func clientsCmd(svc app.ApplicationService, p *printer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clients",
		Aliases: []string{"client", "c"},
		Short:   "Manage clients",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [query]",
		Short: "List clients, optionally filtered by name, company or email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			result, err := svc.ListClients(cmd.Context(), query)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p.json {
				return p.encode(out, result.Clients)
			}
			if len(result.Clients) == 0 {
				fmt.Fprintln(out, "No clients yet. Use 'clients add --name ...' to create one.")
				return nil
			}
			tw := p.table(out)
			fmt.Fprintln(tw, "ID\tNAME\tCOMPANY\tEMAIL")
			for _, c := range result.Clients {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(c.ID), c.Name, deref(c.Company), deref(c.Email))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <client>",
		Short: "Show a client with document totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefClient, args[0])
			if err != nil {
				return err
			}
			result, err := svc.GetClient(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p.json {
				return p.encode(out, result.Summary)
			}
			s := result.Summary
			fmt.Fprintf(out, "%s\n", s.Client.Name)
			for _, line := range []*string{s.Client.Company, s.Client.Email, s.Client.Phone, s.Client.Address} {
				if line != nil {
					fmt.Fprintf(out, "  %s\n", *line)
				}
			}
			fmt.Fprintf(out, "Estimates: %d (%s)\n", s.EstimateCount, money(cmd.Context(), svc, s.EstimateTotalValue))
			fmt.Fprintf(out, "Invoices:  %d (%s), %d paid\n", s.InvoiceCount, money(cmd.Context(), svc, s.InvoiceTotalValue), s.PaidInvoiceCount)
			return nil
		},
	})

	var req clientFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.CreateClient(cmd.Context(), req.request(cmd))
			if err != nil {
				return err
			}
			if p.json {
				return p.encode(cmd.OutOrStdout(), result.Summary.Client)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created client %s (%s)\n", result.Summary.Client.Name, result.Summary.Client.ID)
			return nil
		},
	}
	req.register(add)
	cmd.AddCommand(add)

	var editReq clientFlags
	edit := &cobra.Command{
		Use:   "edit <client>",
		Short: "Update a client; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefClient, args[0])
			if err != nil {
				return err
			}
			current, err := svc.GetClient(cmd.Context(), id)
			if err != nil {
				return err
			}
			c := current.Summary.Client
			r := app.ClientRequest{Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address, Company: c.Company}
			editReq.apply(cmd, &r)
			result, err := svc.UpdateClient(cmd.Context(), id, r)
			if err != nil {
				return err
			}
			if p.json {
				return p.encode(cmd.OutOrStdout(), result.Summary.Client)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated client %s\n", result.Summary.Client.Name)
			return nil
		},
	}
	editReq.register(edit)
	cmd.AddCommand(edit)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <client>",
		Short: "Delete a client and all of its estimates and invoices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := svc.ResolveRef(cmd.Context(), app.RefClient, args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteClient(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Client deleted.")
			return nil
		},
	})

	return cmd
}

type clientFlags struct {
	name, phone, email, address, company string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "client name")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.address, "address", "", "postal address")
	cmd.Flags().StringVar(&f.company, "company", "", "company name")
}

func (f *clientFlags) request(cmd *cobra.Command) app.ClientRequest {
	var r app.ClientRequest
	f.apply(cmd, &r)
	return r
}

// apply overwrites the fields of r whose flags were set. An empty value clears an
// optional field.
func (f *clientFlags) apply(cmd *cobra.Command, r *app.ClientRequest) {
	if cmd.Flags().Changed("name") {
		r.Name = f.name
	}
	set := func(flag string, v string, dst **string) {
		if cmd.Flags().Changed(flag) {
			s := v
			*dst = &s
		}
	}
	set("phone", f.phone, &r.Phone)
	set("email", f.email, &r.Email)
	set("address", f.address, &r.Address)
	set("company", f.company, &r.Company)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// shortID is the id prefix shown in tables; ResolveRef accepts it back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
