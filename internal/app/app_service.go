package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estimate-desk/internal/ai"
	"estimate-desk/internal/core"
	"estimate-desk/internal/format"
	"estimate-desk/internal/render"

	"github.com/shopspring/decimal"
)

// ErrDrafterUnavailable is returned by DraftLineItems when no drafting assistant is configured.
var ErrDrafterUnavailable = errors.New("line item drafting is not configured (set OPENAI_API_KEY)")

// recentItemHints caps the previously quoted items sent to the drafting assistant.
const recentItemHints = 20

type appService struct {
	repo          core.Repository
	docService    core.DocumentService
	clientService core.ClientService
	drafter       ai.Drafter
	now           func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// drafter may be nil, in which case DraftLineItems returns ErrDrafterUnavailable.
// A nil clock defaults to time.Now.
func NewAppService(
	repo core.Repository,
	docService core.DocumentService,
	clientService core.ClientService,
	drafter ai.Drafter,
	clock func() time.Time,
) ApplicationService {
	if clock == nil {
		clock = time.Now
	}
	return &appService{
		repo:          repo,
		docService:    docService,
		clientService: clientService,
		drafter:       drafter,
		now:           clock,
	}
}

func (s *appService) today() string {
	return format.ISODate(s.now())
}

// ── Clients ─────────────────────────────────────────────────────────────────

func (s *appService) ListClients(ctx context.Context, query string) (*ClientListResult, error) {
	clients, err := s.clientService.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]core.Client, 0, len(clients))
	for _, c := range clients {
		if q == "" || contains(c.Name, q) || containsOpt(c.Company, q) || containsOpt(c.Email, q) {
			out = append(out, c)
		}
	}
	return &ClientListResult{Clients: out}, nil
}

func (s *appService) GetClient(ctx context.Context, id string) (*ClientResult, error) {
	sum, err := s.clientService.ClientSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClientResult{Summary: *sum}, nil
}

func (s *appService) CreateClient(ctx context.Context, req ClientRequest) (*ClientResult, error) {
	c, err := s.clientService.CreateClient(ctx, clientFromRequest(req))
	if err != nil {
		return nil, err
	}
	return &ClientResult{Summary: core.ClientSummary{
		Client:             *c,
		EstimateTotalValue: decimal.Zero,
		InvoiceTotalValue:  decimal.Zero,
	}}, nil
}

func (s *appService) UpdateClient(ctx context.Context, id string, req ClientRequest) (*ClientResult, error) {
	c := clientFromRequest(req)
	c.ID = id
	if _, err := s.clientService.UpdateClient(ctx, c); err != nil {
		return nil, err
	}
	return s.GetClient(ctx, id)
}

func (s *appService) DeleteClient(ctx context.Context, id string) error {
	return s.clientService.DeleteClient(ctx, id)
}

func clientFromRequest(req ClientRequest) core.Client {
	return core.Client{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Company: req.Company,
	}
}

// ── Estimates ───────────────────────────────────────────────────────────────

func (s *appService) ListEstimates(ctx context.Context, filter EstimateFilter) (*EstimateListResult, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load estimates: %w", err)
	}
	names := clientNames(snap.Clients)
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	rows := make([]EstimateRow, 0, len(snap.Estimates))
	for _, e := range snap.Estimates {
		if filter.ClientID != "" && e.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && string(e.State.Status()) != filter.Status {
			continue
		}
		if q != "" && !contains(e.EstimateNumber, q) && !contains(e.Notes, q) {
			continue
		}
		rows = append(rows, EstimateRow{Estimate: e, ClientName: names[e.ClientID]})
	}
	return &EstimateListResult{Estimates: rows}, nil
}

func (s *appService) GetEstimate(ctx context.Context, id string) (*EstimateResult, error) {
	e, err := s.repo.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.estimateResult(ctx, e)
}

func (s *appService) NewEstimate(ctx context.Context, clientID string) (*EstimateResult, error) {
	e, err := s.docService.NewEstimate(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.estimateResult(ctx, e)
}

func (s *appService) CreateEstimate(ctx context.Context, req DocumentRequest) (*EstimateResult, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	doc := documentFromRequest(req, core.DocumentCore{}, settings)
	e, err := s.docService.CreateEstimate(ctx, core.Estimate{
		DocumentCore: doc,
		ValidUntil:   req.ValidUntil,
		State:        core.Draft(),
	})
	if err != nil {
		return nil, err
	}
	return s.estimateResult(ctx, e)
}

func (s *appService) UpdateEstimate(ctx context.Context, id string, req DocumentRequest) (*EstimateResult, error) {
	existing, err := s.repo.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	updated := *existing
	updated.DocumentCore = documentFromRequest(req, existing.DocumentCore, settings)
	if req.ValidUntil != "" {
		updated.ValidUntil = req.ValidUntil
	}
	e, err := s.docService.SaveEstimate(ctx, updated)
	if err != nil {
		return nil, err
	}
	return s.estimateResult(ctx, e)
}

func (s *appService) SetEstimateStatus(ctx context.Context, id, status string) (*EstimateResult, error) {
	e, err := s.docService.SetEstimateStatus(ctx, id, core.EstimateStatus(strings.ToLower(strings.TrimSpace(status))))
	if err != nil {
		return nil, err
	}
	return s.estimateResult(ctx, e)
}

func (s *appService) DeleteEstimate(ctx context.Context, id string) error {
	return s.docService.DeleteEstimate(ctx, id)
}

func (s *appService) ConvertEstimate(ctx context.Context, id string) (*ConversionResult, error) {
	e, inv, err := s.docService.ConvertToInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{Estimate: e, Invoice: inv}, nil
}

func (s *appService) estimateResult(ctx context.Context, e *core.Estimate) (*EstimateResult, error) {
	client, err := s.optionalClient(ctx, e.ClientID)
	if err != nil {
		return nil, err
	}
	return &EstimateResult{Estimate: e, Client: client, Totals: e.Totals()}, nil
}

// ── Invoices ────────────────────────────────────────────────────────────────

func (s *appService) ListInvoices(ctx context.Context, filter InvoiceFilter) (*InvoiceListResult, error) {
	switch filter.Status {
	case InvoiceStatusAll, InvoiceStatusPaid, InvoiceStatusUnpaid, InvoiceStatusOverdue:
	default:
		return nil, &core.ValidationError{Err: errInvalidRequest, Field: "status", Details: fmt.Sprintf("unknown invoice status %q", filter.Status)}
	}

	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	names := clientNames(snap.Clients)
	today := s.today()
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	rows := make([]InvoiceRow, 0, len(snap.Invoices))
	for _, inv := range snap.Invoices {
		overdue := core.IsOverdue(inv, today)
		if filter.ClientID != "" && inv.ClientID != filter.ClientID {
			continue
		}
		switch filter.Status {
		case InvoiceStatusPaid:
			if !inv.Paid {
				continue
			}
		case InvoiceStatusUnpaid:
			if inv.Paid {
				continue
			}
		case InvoiceStatusOverdue:
			if !overdue {
				continue
			}
		}
		name := names[inv.ClientID]
		if q != "" && !contains(inv.InvoiceNumber, q) && !contains(inv.Notes, q) && !contains(name, q) {
			continue
		}
		rows = append(rows, InvoiceRow{Invoice: inv, ClientName: name, Overdue: overdue})
	}
	return &InvoiceListResult{Invoices: rows}, nil
}

func (s *appService) GetInvoice(ctx context.Context, id string) (*InvoiceResult, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) NewInvoice(ctx context.Context, clientID string) (*InvoiceResult, error) {
	inv, err := s.docService.NewInvoice(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) CreateInvoice(ctx context.Context, req DocumentRequest) (*InvoiceResult, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	inv, err := s.docService.CreateInvoice(ctx, core.Invoice{
		DocumentCore: documentFromRequest(req, core.DocumentCore{}, settings),
		DueDate:      req.DueDate,
	})
	if err != nil {
		return nil, err
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) UpdateInvoice(ctx context.Context, id string, req DocumentRequest) (*InvoiceResult, error) {
	existing, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	updated := *existing
	updated.DocumentCore = documentFromRequest(req, existing.DocumentCore, settings)
	if req.DueDate != "" {
		updated.DueDate = req.DueDate
	}
	inv, err := s.docService.SaveInvoice(ctx, updated)
	if err != nil {
		return nil, err
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) SetInvoicePaid(ctx context.Context, id string, paid bool) (*InvoiceResult, error) {
	inv, err := s.docService.SetInvoicePaid(ctx, id, paid)
	if err != nil {
		return nil, err
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) ToggleInvoicePaid(ctx context.Context, id string) (*InvoiceResult, error) {
	inv, err := s.docService.TogglePaid(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.invoiceResult(ctx, inv)
}

func (s *appService) DeleteInvoice(ctx context.Context, id string) error {
	return s.docService.DeleteInvoice(ctx, id)
}

func (s *appService) invoiceResult(ctx context.Context, inv *core.Invoice) (*InvoiceResult, error) {
	client, err := s.optionalClient(ctx, inv.ClientID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{
		Invoice: inv,
		Client:  client,
		Totals:  inv.Totals(),
		Overdue: core.IsOverdue(*inv, s.today()),
	}, nil
}

// ── Settings ────────────────────────────────────────────────────────────────

func (s *appService) GetSettings(ctx context.Context) (*core.Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

func (s *appService) UpdateSettings(ctx context.Context, req SettingsRequest) (*core.Settings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if req.CompanyName != nil {
		settings.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	setOptional(&settings.Phone, req.Phone)
	setOptional(&settings.Email, req.Email)
	setOptional(&settings.Address, req.Address)
	setOptional(&settings.LogoURI, req.LogoURI)
	setOptional(&settings.DefaultNote, req.DefaultNote)
	if req.DefaultTaxRate != nil {
		settings.DefaultTaxRate = *req.DefaultTaxRate
	}
	if req.DefaultCurrency != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.DefaultCurrency))
		if !format.KnownCurrency(code) {
			return nil, &core.ValidationError{Err: core.ErrInvalidSettings, Field: "defaultCurrency", Details: fmt.Sprintf("unknown currency code %q", *req.DefaultCurrency)}
		}
		settings.DefaultCurrency = code
	}
	if req.EnableItemTaxable != nil {
		settings.EnableItemTaxable = *req.EnableItemTaxable
	}

	if err := core.ValidateSettings(settings); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return &settings, nil
}

// setOptional applies an optional settings field: nil keeps, blank clears.
func setOptional(dst **string, v *string) {
	if v == nil {
		return
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		*dst = nil
		return
	}
	*dst = &t
}

// ── Output ──────────────────────────────────────────────────────────────────

func (s *appService) RenderDocument(ctx context.Context, kind core.DocumentKind, id string, f DocumentFormat) (*RenderResult, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var view *render.View
	switch kind {
	case core.KindEstimate:
		e, err := s.repo.GetEstimate(ctx, id)
		if err != nil {
			return nil, err
		}
		client, err := s.repo.GetClient(ctx, e.ClientID)
		if err != nil {
			return nil, err
		}
		if view, err = render.NewEstimateView(*e, *client, settings); err != nil {
			return nil, err
		}
	case core.KindInvoice:
		inv, err := s.repo.GetInvoice(ctx, id)
		if err != nil {
			return nil, err
		}
		client, err := s.repo.GetClient(ctx, inv.ClientID)
		if err != nil {
			return nil, err
		}
		if view, err = render.NewInvoiceView(*inv, *client, settings); err != nil {
			return nil, err
		}
	default:
		return nil, &core.ValidationError{Err: errInvalidRequest, Field: "kind", Details: fmt.Sprintf("unknown document kind %q", kind)}
	}

	result := &RenderResult{Kind: kind, Number: view.Number, Format: f}
	switch f {
	case FormatMarkdown:
		result.ContentType = "text/markdown; charset=utf-8"
		result.Body, err = render.Markdown(view)
	case FormatHTML:
		result.ContentType = "text/html; charset=utf-8"
		result.Body, err = render.HTML(view)
	case FormatShare:
		result.ContentType = "text/plain; charset=utf-8"
		result.Body, err = render.ShareText(view)
	default:
		return nil, &core.ValidationError{Err: errInvalidRequest, Field: "format", Details: fmt.Sprintf("unknown format %q (want markdown, html or share)", f)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s %s: %w", kind, view.Number, err)
	}
	return result, nil
}

func (s *appService) DraftLineItems(ctx context.Context, description string) (*DraftResult, error) {
	if s.drafter == nil {
		return nil, ErrDrafterUnavailable
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	hints := ai.DraftHints{
		Currency:       snap.Settings.DefaultCurrency,
		TaxableEnabled: snap.Settings.EnableItemTaxable,
		RecentItems:    recentItems(snap, recentItemHints),
	}
	draft, err := s.drafter.DraftLineItems(ctx, description, hints)
	if err != nil {
		return nil, err
	}

	result := &DraftResult{Items: []core.LineItem{}, Reasoning: draft.Reasoning, Confidence: draft.Confidence}
	for _, d := range draft.Items {
		item, err := draftedItem(d, snap.Settings.EnableItemTaxable)
		if err != nil {
			result.Rejected = append(result.Rejected, DraftRejection{Description: d.Description, Reason: err.Error()})
			continue
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// draftedItem turns a model proposal into a line item, rejecting non-finite numbers and
// anything ValidateLineItem would refuse.
func draftedItem(d ai.DraftItem, taxableEnabled bool) (core.LineItem, error) {
	qty, err := core.DecimalFromFloat("quantity", d.Quantity)
	if err != nil {
		return core.LineItem{}, err
	}
	price, err := core.DecimalFromFloat("unitPrice", d.UnitPrice)
	if err != nil {
		return core.LineItem{}, err
	}
	item := core.LineItem{
		Description: strings.TrimSpace(d.Description),
		Quantity:    qty,
		Unit:        core.Unit(strings.ToLower(strings.TrimSpace(d.Unit))),
		UnitPrice:   price,
		Taxable:     d.Taxable && taxableEnabled,
	}
	if err := core.ValidateLineItem(item); err != nil {
		return core.LineItem{}, err
	}
	return item, nil
}

// recentItems returns up to limit distinct items, most recently issued documents first.
func recentItems(snap core.Snapshot, limit int) []core.LineItem {
	type dated struct {
		date  string
		items []core.LineItem
	}
	docs := make([]dated, 0, len(snap.Estimates)+len(snap.Invoices))
	for _, e := range snap.Estimates {
		docs = append(docs, dated{e.IssueDate, e.Items})
	}
	for _, inv := range snap.Invoices {
		docs = append(docs, dated{inv.IssueDate, inv.Items})
	}
	// Insertion sort keeps equal dates in storage order.
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0 && docs[j].date > docs[j-1].date; j-- {
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
	}

	seen := make(map[string]bool)
	var out []core.LineItem
	for _, d := range docs {
		for _, item := range d.items {
			key := strings.ToLower(strings.TrimSpace(item.Description))
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, item)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// ── Maintenance ─────────────────────────────────────────────────────────────

func (s *appService) ResetAllData(ctx context.Context) error {
	if err := s.repo.ClearAllData(ctx); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	return nil
}

func (s *appService) CheckConsistency(ctx context.Context) (*ConsistencyResult, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	result := &ConsistencyResult{Issues: core.CheckConsistency(snap)}
	if result.Issues == nil {
		result.Issues = []core.Issue{}
	}
	for _, issue := range result.Issues {
		if issue.Severe() {
			result.Severe++
		}
	}
	return result, nil
}

// ── Helpers ─────────────────────────────────────────────────────────────────

var errInvalidRequest = errors.New("invalid request")

// documentFromRequest merges req over base. An empty base means a new document, whose
// tax rate and notes default from settings.
func documentFromRequest(req DocumentRequest, base core.DocumentCore, settings core.Settings) core.DocumentCore {
	doc := base
	isNew := base.ClientID == "" && base.IssueDate == ""
	if isNew {
		doc.TaxRate = settings.DefaultTaxRate
		if settings.DefaultNote != nil {
			doc.Notes = *settings.DefaultNote
		}
		doc.Items = []core.LineItem{}
	}

	if req.ClientID != "" {
		doc.ClientID = req.ClientID
	}
	if req.IssueDate != "" {
		doc.IssueDate = req.IssueDate
	}
	if req.TaxRate != nil {
		doc.TaxRate = *req.TaxRate
	}
	if req.Notes != nil {
		doc.Notes = *req.Notes
	}
	if req.Items != nil {
		doc.Items = mergeItems(req.Items, base.Items, settings.EnableItemTaxable)
	}
	return doc
}

// mergeItems builds the new item list. An input identical to the stored item with the
// same id keeps that item as is; any other input has its taxable flag cleared when
// item-level taxation is switched off.
func mergeItems(inputs []LineItemInput, stored []core.LineItem, taxableEnabled bool) []core.LineItem {
	byID := make(map[string]core.LineItem, len(stored))
	for _, item := range stored {
		byID[item.ID] = item
	}
	items := make([]core.LineItem, 0, len(inputs))
	for _, in := range inputs {
		item := core.LineItem{
			ID:          in.ID,
			Description: in.Description,
			Quantity:    in.Quantity,
			Unit:        in.Unit,
			UnitPrice:   in.UnitPrice,
			Taxable:     in.Taxable,
		}
		if prev, ok := byID[in.ID]; !ok || !sameItem(prev, item) {
			item.Taxable = item.Taxable && taxableEnabled
		}
		items = append(items, item)
	}
	return items
}

func sameItem(a, b core.LineItem) bool {
	return a.ID == b.ID && a.Description == b.Description && a.Unit == b.Unit && a.Taxable == b.Taxable &&
		a.Quantity.Equal(b.Quantity) && a.UnitPrice.Equal(b.UnitPrice)
}

func (s *appService) optionalClient(ctx context.Context, id string) (*core.Client, error) {
	if id == "" {
		return nil, nil
	}
	c, err := s.repo.GetClient(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func clientNames(clients []core.Client) map[string]string {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names
}

// contains reports whether s contains the already lower-cased q, ignoring case.
func contains(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

func containsOpt(s *string, q string) bool {
	return s != nil && contains(*s, q)
}
