package storage

import (
	"context"
	"fmt"
	"time"
)

// Ledger sync states of a payment.
const (
	LedgerPending = "pending"
	LedgerSynced  = "synced"
	LedgerError   = "error"
)

// PendingLedgerPayment is the minimal data needed to queue a ledger sync.
type PendingLedgerPayment struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
}

// GetPendingLedgerPayments returns up to limit payments not yet mirrored,
// oldest first. Payments that failed before are retried as well.
func (r *SQLiteRepository) GetPendingLedgerPayments(ctx context.Context, limit int) ([]PendingLedgerPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, created_at FROM payments
		 WHERE ledger_status IN ('pending', 'error')
		 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, classify("get pending ledger payments", err)
	}
	defer rows.Close()

	var out []PendingLedgerPayment
	for rows.Next() {
		var (
			p       PendingLedgerPayment
			created string
		)
		if err := rows.Scan(&p.ID, &p.OwnerID, &created); err != nil {
			return nil, fmt.Errorf("scan pending payment: %w", err)
		}
		p.CreatedAt = parseTime(created)
		out = append(out, p)
	}
	return out, classify("get pending ledger payments", rows.Err())
}

// MarkLedgerSynced records the spreadsheet reference of a mirrored payment.
func (r *SQLiteRepository) MarkLedgerSynced(ctx context.Context, id, ref string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET ledger_status = 'synced', ledger_ref = ?, ledger_synced_at = ? WHERE id = ?`,
		ref, formatTime(r.stamp()), id)
	return classify("mark ledger synced", err)
}

// MarkLedgerError flags a payment whose mirroring failed.
func (r *SQLiteRepository) MarkLedgerError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payments SET ledger_status = 'error' WHERE id = ?`, id)
	return classify("mark ledger error", err)
}

// LedgerStatus returns the sync state and reference of a payment.
func (r *SQLiteRepository) LedgerStatus(ctx context.Context, id string) (status, ref string, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT ledger_status, ledger_ref FROM payments WHERE id = ?`, id).Scan(&status, &ref)
	if err != nil {
		return "", "", classify("ledger status", err)
	}
	return status, ref, nil
}
