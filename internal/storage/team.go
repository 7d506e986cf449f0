package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"freelancedesk/internal/core"
)

const memberColumns = `id, agency_id, name, email, role, created_at, updated_at`

const teamPaymentColumns = `id, agency_id, team_member_id, amount_cents, date, notes, project_id, created_at, updated_at`

func scanMember(s scanner) (core.TeamMember, error) {
	var (
		m                core.TeamMember
		created, updated string
	)
	if err := s.Scan(&m.ID, &m.AgencyID, &m.Name, &m.Email, &m.Role, &created, &updated); err != nil {
		return core.TeamMember{}, err
	}
	m.CreatedAt = parseTime(created)
	m.UpdatedAt = parseTime(updated)
	return m, nil
}

func scanTeamPayment(s scanner) (core.TeamMemberPayment, error) {
	var (
		p                      core.TeamMemberPayment
		date, created, updated string
	)
	err := s.Scan(&p.ID, &p.AgencyID, &p.TeamMemberID, &p.Amount.Cents, &date, &p.Notes, &p.ProjectID, &created, &updated)
	if err != nil {
		return core.TeamMemberPayment{}, err
	}
	p.Date, _ = core.ParseDate(date)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func (r *SQLiteRepository) CreateTeamMember(ctx context.Context, m core.TeamMember) (core.TeamMember, error) {
	now := r.stamp()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt, m.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO team_members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.AgencyID, m.Name, m.Email, m.Role, formatTime(now), formatTime(now))
	if err != nil {
		return core.TeamMember{}, classify("create team member", err)
	}
	return m, nil
}

func (r *SQLiteRepository) GetTeamMember(ctx context.Context, agency, id string) (core.TeamMember, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM team_members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err != nil {
		return core.TeamMember{}, classify("get team member", err)
	}
	if err := checkOwner("get team member", agency, m.AgencyID); err != nil {
		return core.TeamMember{}, err
	}
	return m, nil
}

// ListTeamMembers returns the agency's members ordered by name.
func (r *SQLiteRepository) ListTeamMembers(ctx context.Context, agency string) ([]core.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE agency_id = ? ORDER BY name COLLATE NOCASE, id`, agency)
	if err != nil {
		return nil, classify("list team members", err)
	}
	defer rows.Close()

	out := []core.TeamMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		out = append(out, m)
	}
	return out, classify("list team members", rows.Err())
}

func (r *SQLiteRepository) UpdateTeamMember(ctx context.Context, m core.TeamMember) (core.TeamMember, error) {
	existing, err := r.GetTeamMember(ctx, m.AgencyID, m.ID)
	if err != nil {
		return core.TeamMember{}, err
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = r.stamp()

	_, err = r.db.ExecContext(ctx,
		`UPDATE team_members SET name = ?, email = ?, role = ?, updated_at = ? WHERE id = ? AND agency_id = ?`,
		m.Name, m.Email, m.Role, formatTime(m.UpdatedAt), m.ID, m.AgencyID)
	if err != nil {
		return core.TeamMember{}, classify("update team member", err)
	}
	return m, nil
}

// DeleteTeamMember removes a member with no recorded payments. Members that
// were paid are refused with core.ErrConflict so payout history stays intact.
func (r *SQLiteRepository) DeleteTeamMember(ctx context.Context, agency, id string) error {
	if _, err := r.GetTeamMember(ctx, agency, id); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var paid int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM team_member_payments WHERE agency_id = ? AND team_member_id = ?`, agency, id).Scan(&paid)
		if err != nil {
			return classify("count member payments", err)
		}
		if paid > 0 {
			return fmt.Errorf("delete team member: %w: member has %d payment(s)", core.ErrConflict, paid)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM team_members WHERE id = ? AND agency_id = ?`, id, agency); err != nil {
			return classify("delete team member", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) CreateTeamPayment(ctx context.Context, p core.TeamMemberPayment) (core.TeamMemberPayment, error) {
	now := r.stamp()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO team_member_payments (`+teamPaymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AgencyID, p.TeamMemberID, p.Amount.Cents, p.Date.String(), p.Notes, p.ProjectID,
		formatTime(now), formatTime(now))
	if err != nil {
		return core.TeamMemberPayment{}, classify("create team payment", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetTeamPayment(ctx context.Context, agency, id string) (core.TeamMemberPayment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamPaymentColumns+` FROM team_member_payments WHERE id = ?`, id)
	p, err := scanTeamPayment(row)
	if err != nil {
		return core.TeamMemberPayment{}, classify("get team payment", err)
	}
	if err := checkOwner("get team payment", agency, p.AgencyID); err != nil {
		return core.TeamMemberPayment{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) queryTeamPayments(ctx context.Context, op, query string, args ...any) ([]core.TeamMemberPayment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out := []core.TeamMemberPayment{}
	for rows.Next() {
		p, err := scanTeamPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team payment: %w", err)
		}
		out = append(out, p)
	}
	return out, classify(op, rows.Err())
}

// ListTeamPayments returns the agency's payouts, most recent first.
func (r *SQLiteRepository) ListTeamPayments(ctx context.Context, agency string) ([]core.TeamMemberPayment, error) {
	return r.queryTeamPayments(ctx, "list team payments",
		`SELECT `+teamPaymentColumns+` FROM team_member_payments WHERE agency_id = ? ORDER BY date DESC, created_at DESC`,
		agency)
}

// ListTeamPaymentsByMember returns one member's payouts, most recent first.
func (r *SQLiteRepository) ListTeamPaymentsByMember(ctx context.Context, agency, memberID string) ([]core.TeamMemberPayment, error) {
	return r.queryTeamPayments(ctx, "list member payments",
		`SELECT `+teamPaymentColumns+` FROM team_member_payments
		 WHERE agency_id = ? AND team_member_id = ? ORDER BY date DESC, created_at DESC`,
		agency, memberID)
}

func (r *SQLiteRepository) UpdateTeamPayment(ctx context.Context, p core.TeamMemberPayment) (core.TeamMemberPayment, error) {
	existing, err := r.GetTeamPayment(ctx, p.AgencyID, p.ID)
	if err != nil {
		return core.TeamMemberPayment{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.stamp()

	_, err = r.db.ExecContext(ctx,
		`UPDATE team_member_payments SET team_member_id = ?, amount_cents = ?, date = ?, notes = ?, project_id = ?, updated_at = ?
		 WHERE id = ? AND agency_id = ?`,
		p.TeamMemberID, p.Amount.Cents, p.Date.String(), p.Notes, p.ProjectID, formatTime(p.UpdatedAt),
		p.ID, p.AgencyID)
	if err != nil {
		return core.TeamMemberPayment{}, classify("update team payment", err)
	}
	return p, nil
}

func (r *SQLiteRepository) DeleteTeamPayment(ctx context.Context, agency, id string) error {
	if _, err := r.GetTeamPayment(ctx, agency, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM team_member_payments WHERE id = ? AND agency_id = ?`, id, agency)
	return classify("delete team payment", err)
}
