package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"freelancedesk/internal/core"
)

const paymentColumns = `id, project_id, user_id, amount_cents, date, notes, payment_type, payment_method, created_at`

func scanPayment(s scanner) (core.Payment, error) {
	var (
		p                    core.Payment
		date, ptype, created string
	)
	err := s.Scan(&p.ID, &p.ProjectID, &p.OwnerID, &p.Amount.Cents, &date, &p.Notes, &ptype, &p.PaymentMethod, &created)
	if err != nil {
		return core.Payment{}, err
	}
	p.Date, _ = core.ParseDate(date)
	p.PaymentType = core.PaymentType(ptype)
	p.CreatedAt = parseTime(created)
	return p, nil
}

// CreatePayment records a payment. Payments are never updated.
func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) (core.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = r.stamp()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ProjectID, p.OwnerID, p.Amount.Cents, p.Date.String(), p.Notes, string(p.PaymentType),
		p.PaymentMethod, formatTime(p.CreatedAt))
	if err != nil {
		return core.Payment{}, classify("create payment", err)
	}
	return p, nil
}

// GetPayment loads a payment owned by owner.
func (r *SQLiteRepository) GetPayment(ctx context.Context, owner, id string) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if err != nil {
		return core.Payment{}, classify("get payment", err)
	}
	if err := checkOwner("get payment", owner, p.OwnerID); err != nil {
		return core.Payment{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) queryPayments(ctx context.Context, op, query string, args ...any) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out := []core.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, classify(op, rows.Err())
}

// ListPayments returns owner's payments, most recent date first.
func (r *SQLiteRepository) ListPayments(ctx context.Context, owner string) ([]core.Payment, error) {
	return r.queryPayments(ctx, "list payments",
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? ORDER BY date DESC, created_at DESC`, owner)
}

// ListPaymentsByProject returns one project's payments, most recent first.
func (r *SQLiteRepository) ListPaymentsByProject(ctx context.Context, owner, projectID string) ([]core.Payment, error) {
	return r.queryPayments(ctx, "list project payments",
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = ? AND project_id = ? ORDER BY date DESC, created_at DESC`,
		owner, projectID)
}

// DeletePayment removes an owned payment.
func (r *SQLiteRepository) DeletePayment(ctx context.Context, owner, id string) error {
	if _, err := r.GetPayment(ctx, owner, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ? AND user_id = ?`, id, owner)
	return classify("delete payment", err)
}
