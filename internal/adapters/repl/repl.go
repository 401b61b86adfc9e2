package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"estimate-desk/internal/app"
	"estimate-desk/internal/core"
)

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and sends any other input to the drafting assistant as a job description.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	settings, err := svc.GetSettings(ctx)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	fmt.Println("Estimate Desk")
	company := settings.CompanyName
	if company == "" {
		company = "(company name not set, see /settings)"
	}
	fmt.Printf("Company: %s (%s)\n", company, settings.DefaultCurrency)
	fmt.Println("Describe a job to draft line items, or use /help for commands.")
	fmt.Println(strings.Repeat("-", 70))

	errExit := fmt.Errorf("exit")

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "clients":
			result, err := svc.ListClients(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printClients(result)

		case "client":
			if len(args) < 1 {
				fmt.Println("Usage: /client <name-or-id>")
				return nil
			}
			id, err := svc.ResolveRef(ctx, app.RefClient, strings.Join(args, " "))
			if err != nil {
				return err
			}
			result, err := svc.GetClient(ctx, id)
			if err != nil {
				return err
			}
			printClientSummary(result, settings.DefaultCurrency)

		case "new-client":
			handleNewClient(ctx, reader, svc)

		case "estimates":
			result, err := svc.ListEstimates(ctx, app.EstimateFilter{Query: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			printEstimates(result, settings.DefaultCurrency)

		case "new-estimate":
			if len(args) < 1 {
				fmt.Println("Usage: /new-estimate <client>")
				return nil
			}
			id, err := svc.ResolveRef(ctx, app.RefClient, strings.Join(args, " "))
			if err != nil {
				return err
			}
			handleNewEstimate(ctx, reader, svc, id, nil)

		case "send":
			if len(args) < 1 {
				fmt.Println("Usage: /send <estimate-ref>")
				return nil
			}
			id, err := svc.ResolveRef(ctx, app.RefEstimate, args[0])
			if err != nil {
				return err
			}
			result, err := svc.SetEstimateStatus(ctx, id, string(core.EstimateStatusSent))
			if err != nil {
				return err
			}
			fmt.Printf("Estimate %s marked as SENT.\n", result.Estimate.EstimateNumber)

		case "convert":
			if len(args) < 1 {
				fmt.Println("Usage: /convert <estimate-ref>")
				return nil
			}
			id, err := svc.ResolveRef(ctx, app.RefEstimate, args[0])
			if err != nil {
				return err
			}
			result, err := svc.ConvertEstimate(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("Estimate %s CONVERTED. Invoice %s due %s.\n",
				result.Estimate.EstimateNumber, result.Invoice.InvoiceNumber, result.Invoice.DueDate)

		case "invoices":
			filter := app.InvoiceFilter{}
			if len(args) > 0 {
				filter.Status = strings.ToLower(args[0])
			}
			result, err := svc.ListInvoices(ctx, filter)
			if err != nil {
				return err
			}
			printInvoices(result, settings.DefaultCurrency)

		case "paid", "unpaid":
			if len(args) < 1 {
				fmt.Printf("Usage: /%s <invoice-ref>\n", cmd)
				return nil
			}
			id, err := svc.ResolveRef(ctx, app.RefInvoice, args[0])
			if err != nil {
				return err
			}
			result, err := svc.SetInvoicePaid(ctx, id, cmd == "paid")
			if err != nil {
				return err
			}
			fmt.Printf("Invoice %s marked as %s.\n", result.Invoice.InvoiceNumber, strings.ToUpper(cmd))

		case "show", "render":
			if len(args) < 1 {
				fmt.Printf("Usage: /%s <document-ref> [markdown|html|share]\n", cmd)
				return nil
			}
			kind, id, err := resolveDocument(ctx, svc, args[0])
			if err != nil {
				return err
			}
			docFormat := app.FormatMarkdown
			if len(args) > 1 {
				docFormat = app.DocumentFormat(strings.ToLower(args[1]))
			}
			doc, err := svc.RenderDocument(ctx, kind, id, docFormat)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(doc.Body)

		case "settings":
			current, err := svc.GetSettings(ctx)
			if err != nil {
				return err
			}
			printSettings(current)

		case "check":
			result, err := svc.CheckConsistency(ctx)
			if err != nil {
				return err
			}
			printIssues(result)

		case "help", "h":
			printHelp()

		case "exit", "quit", "q":
			return errExit

		default:
			fmt.Printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Print("\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if readErr != nil {
				fmt.Println()
				return
			}
			continue
		}

		// Slash prefix → deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(input); err != nil {
				if err == errExit {
					fmt.Println("Goodbye!")
					break
				}
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		// No slash prefix → draft line items for the described job.
		fmt.Println("[AI] Drafting line items...")
		draft, err := svc.DraftLineItems(ctx, input)
		if err != nil {
			if errors.Is(err, app.ErrDrafterUnavailable) {
				fmt.Println("Drafting is disabled. Set OPENAI_API_KEY to enable it, or use /new-estimate.")
				continue
			}
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printDraft(draft, settings.DefaultCurrency)
		if len(draft.Items) == 0 {
			fmt.Println("Nothing usable was proposed. Try describing the job in more detail.")
			continue
		}
		if draft.Confidence < 0.6 {
			fmt.Println("\nWARNING: Low confidence proposal.")
		}

		fmt.Print("\nStart an estimate with these items? Client name (blank to discard): ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)
		if choice == "" {
			fmt.Println("Draft discarded.")
			continue
		}
		clientID, err := svc.ResolveRef(ctx, app.RefClient, choice)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		handleNewEstimate(ctx, reader, svc, clientID, draft.Items)
	}
}

// resolveDocument looks ref up as an estimate first, then as an invoice.
func resolveDocument(ctx context.Context, svc app.ApplicationService, ref string) (core.DocumentKind, string, error) {
	id, err := svc.ResolveRef(ctx, app.RefEstimate, ref)
	if err == nil {
		return core.KindEstimate, id, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return "", "", err
	}
	id, err = svc.ResolveRef(ctx, app.RefInvoice, ref)
	if err != nil {
		return "", "", err
	}
	return core.KindInvoice, id, nil
}
