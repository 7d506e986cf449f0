package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"freelancedesk/internal/core"
)

const investmentColumns = `id, agency_id, name, amount_cents, date, payment_method, upi_id, transaction_id, notes, created_at, updated_at`

func scanInvestment(s scanner) (core.Investment, error) {
	var (
		i                              core.Investment
		date, method, created, updated string
	)
	err := s.Scan(&i.ID, &i.AgencyID, &i.Name, &i.Amount.Cents, &date, &method, &i.UPIID, &i.TransactionID, &i.Notes,
		&created, &updated)
	if err != nil {
		return core.Investment{}, err
	}
	i.Date, _ = core.ParseDate(date)
	i.PaymentMethod = core.InvestmentMethod(method)
	i.CreatedAt = parseTime(created)
	i.UpdatedAt = parseTime(updated)
	return i, nil
}

func (r *SQLiteRepository) CreateInvestment(ctx context.Context, i core.Investment) (core.Investment, error) {
	now := r.stamp()
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	i.CreatedAt, i.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO investments (`+investmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.AgencyID, i.Name, i.Amount.Cents, i.Date.String(), string(i.PaymentMethod), i.UPIID, i.TransactionID,
		i.Notes, formatTime(now), formatTime(now))
	if err != nil {
		return core.Investment{}, classify("create investment", err)
	}
	return i, nil
}

func (r *SQLiteRepository) GetInvestment(ctx context.Context, agency, id string) (core.Investment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = ?`, id)
	i, err := scanInvestment(row)
	if err != nil {
		return core.Investment{}, classify("get investment", err)
	}
	if err := checkOwner("get investment", agency, i.AgencyID); err != nil {
		return core.Investment{}, err
	}
	return i, nil
}

// ListInvestments returns the agency's investments, most recent first.
func (r *SQLiteRepository) ListInvestments(ctx context.Context, agency string) ([]core.Investment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE agency_id = ? ORDER BY date DESC, created_at DESC`, agency)
	if err != nil {
		return nil, classify("list investments", err)
	}
	defer rows.Close()

	out := []core.Investment{}
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		out = append(out, i)
	}
	return out, classify("list investments", rows.Err())
}

func (r *SQLiteRepository) UpdateInvestment(ctx context.Context, i core.Investment) (core.Investment, error) {
	existing, err := r.GetInvestment(ctx, i.AgencyID, i.ID)
	if err != nil {
		return core.Investment{}, err
	}
	i.CreatedAt = existing.CreatedAt
	i.UpdatedAt = r.stamp()

	_, err = r.db.ExecContext(ctx,
		`UPDATE investments SET name = ?, amount_cents = ?, date = ?, payment_method = ?, upi_id = ?, transaction_id = ?,
		 notes = ?, updated_at = ? WHERE id = ? AND agency_id = ?`,
		i.Name, i.Amount.Cents, i.Date.String(), string(i.PaymentMethod), i.UPIID, i.TransactionID, i.Notes,
		formatTime(i.UpdatedAt), i.ID, i.AgencyID)
	if err != nil {
		return core.Investment{}, classify("update investment", err)
	}
	return i, nil
}

func (r *SQLiteRepository) DeleteInvestment(ctx context.Context, agency, id string) error {
	if _, err := r.GetInvestment(ctx, agency, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM investments WHERE id = ? AND agency_id = ?`, id, agency)
	return classify("delete investment", err)
}
