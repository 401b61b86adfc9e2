package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientService manages clients. Deleting a client deletes every estimate and invoice
// addressed to it.
type ClientService interface {
	CreateClient(ctx context.Context, c Client) (*Client, error)
	UpdateClient(ctx context.Context, c Client) (*Client, error)
	GetClient(ctx context.Context, id string) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	DeleteClient(ctx context.Context, id string) error
	ClientSummary(ctx context.Context, id string) (*ClientSummary, error)
}

type clientService struct {
	repo Repository
}

func NewClientService(repo Repository) ClientService {
	return &clientService{repo: repo}
}

func (s *clientService) CreateClient(ctx context.Context, c Client) (*Client, error) {
	c = NormalizeClient(c)
	if err := ValidateClient(c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := s.repo.SaveClient(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &c, nil
}

func (s *clientService) UpdateClient(ctx context.Context, c Client) (*Client, error) {
	if _, err := s.repo.GetClient(ctx, c.ID); err != nil {
		return nil, err
	}
	c = NormalizeClient(c)
	if err := ValidateClient(c); err != nil {
		return nil, err
	}
	if err := s.repo.SaveClient(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return &c, nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (*Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *clientService) ListClients(ctx context.Context) ([]Client, error) {
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	if _, err := s.repo.GetClient(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client %s: %w", id, err)
	}
	return nil
}

func (s *clientService) ClientSummary(ctx context.Context, id string) (*ClientSummary, error) {
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	sum := SummarizeClient(*client, snap.Estimates, snap.Invoices)
	return &sum, nil
}

// SummarizeClient counts and totals the documents addressed to c.
func SummarizeClient(c Client, estimates []Estimate, invoices []Invoice) ClientSummary {
	sum := ClientSummary{
		Client:             c,
		EstimateTotalValue: decimal.Zero,
		InvoiceTotalValue:  decimal.Zero,
	}
	for _, e := range estimates {
		if e.ClientID != c.ID {
			continue
		}
		sum.EstimateCount++
		sum.EstimateTotalValue = sum.EstimateTotalValue.Add(e.Total)
	}
	for _, inv := range invoices {
		if inv.ClientID != c.ID {
			continue
		}
		sum.InvoiceCount++
		sum.InvoiceTotalValue = sum.InvoiceTotalValue.Add(inv.Total)
		if inv.Paid {
			sum.PaidInvoiceCount++
		}
	}
	return sum
}
