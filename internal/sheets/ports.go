// Package sheets defines the spreadsheet ledger that mirrors received
// payments for bookkeeping.
package sheets

import (
	"context"

	"freelancedesk/internal/core"
)

// LedgerRow is one mirrored payment with its client and project resolved.
type LedgerRow struct {
	PaymentID   string
	OwnerID     string
	Date        core.Date
	ClientName  string
	ProjectName string
	Amount      core.Money
	Type        core.PaymentType
	Method      string
	Notes       string
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		// AppendPayment adds a row and returns a reference to it.
		AppendPayment(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}

	// LedgerReader lists mirrored rows, used for reconciliation.
	LedgerReader interface {
		ListPayments(ctx context.Context) ([]LedgerRow, error)
	}
)
