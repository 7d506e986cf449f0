// Package memory is an in-process ledger used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ports "freelancedesk/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows []ports.LedgerRow
}

var (
	_ ports.LedgerWriter = (*Ledger)(nil)
	_ ports.LedgerReader = (*Ledger)(nil)
)

func New() *Ledger {
	return &Ledger{}
}

// AppendPayment stores the row and returns a synthetic row reference.
func (l *Ledger) AppendPayment(_ context.Context, row ports.LedgerRow) (string, error) {
	if row.PaymentID == "" {
		return "", errors.New("ledger row has no payment id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, row)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

func (l *Ledger) ListPayments(_ context.Context) ([]ports.LedgerRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ports.LedgerRow(nil), l.rows...), nil
}
