package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	EstimateNumberPrefix = "EST"
	InvoiceNumberPrefix  = "INV"
)

// NumberingService issues unique, increasing, human-readable document numbers.
// Every call consumes a number, whether or not the caller ends up persisting a document.
type NumberingService interface {
	NextEstimateNumber(ctx context.Context) (string, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
}

type numberingService struct {
	repo Repository
}

func NewNumberingService(repo Repository) NumberingService {
	return &numberingService{repo: repo}
}

func (s *numberingService) NextEstimateNumber(ctx context.Context) (string, error) {
	return s.next(ctx, KindEstimate, EstimateNumberPrefix)
}

func (s *numberingService) NextInvoiceNumber(ctx context.Context) (string, error) {
	return s.next(ctx, KindInvoice, InvoiceNumberPrefix)
}

func (s *numberingService) next(ctx context.Context, kind DocumentKind, prefix string) (string, error) {
	n, err := s.repo.NextCounter(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("failed to issue %s number: %w", kind, err)
	}
	return FormatNumber(prefix, n), nil
}

// FormatNumber renders a sequence number as PREFIX-0001. Numbers wider than four
// digits are printed in full.
func FormatNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// ParseNumber extracts the sequence number from a formatted document number.
func ParseNumber(prefix, number string) (int64, bool) {
	digits, ok := strings.CutPrefix(number, prefix+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
