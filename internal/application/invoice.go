package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oksasatya/ppob-membership/internal/domain/repository"
)

// invoiceDateLayout renders DDMMYYYY.
const invoiceDateLayout = "02012006"

// InvoiceSequencer hands out INV<DDMMYYYY>-<NNN> numbers derived from the most
// recent ledger entry. It must run inside the ledger transaction; uniqueness is
// enforced by the store and callers retry on ErrDuplicateInvoice.
type InvoiceSequencer struct {
	Repo repository.TransactionHistoryRepository
	Now  func() time.Time
}

func NewInvoiceSequencer(repo repository.TransactionHistoryRepository, now func() time.Time) *InvoiceSequencer {
	if now == nil {
		now = time.Now
	}
	return &InvoiceSequencer{Repo: repo, Now: now}
}

func (s *InvoiceSequencer) Next(ctx context.Context) (string, error) {
	today := s.Now().UTC().Format(invoiceDateLayout)
	latest, err := s.Repo.FindLatest(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	prev := ""
	if latest != nil {
		prev = latest.InvoiceNumber
	}
	return NextInvoiceNumber(today, prev), nil
}

// NextInvoiceNumber returns the number following latest for the given day.
// The counter restarts at 001 when latest is empty, belongs to another day or
// carries an unreadable suffix.
func NextInvoiceNumber(today, latest string) string {
	counter := 1
	if latest != "" && strings.Contains(latest, today) {
		if _, suffix, ok := strings.Cut(latest, "-"); ok {
			if n, err := strconv.Atoi(suffix); err == nil && n >= 0 {
				counter = n + 1
			}
		}
	}
	return fmt.Sprintf("INV%s-%03d", today, counter)
}
