package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"freelancedesk/internal/core"
)

const projectColumns = `id, client_id, user_id, name, status, deadline, total_amount_cents,
	reminder_date, completed_date, team_members, created_at, updated_at`

func scanProject(s scanner) (core.Project, error) {
	var (
		p                                 core.Project
		status, members, created, updated string
		deadline, reminder, completed     sql.NullString
	)
	err := s.Scan(&p.ID, &p.ClientID, &p.OwnerID, &p.Name, &status, &deadline, &p.TotalAmount.Cents,
		&reminder, &completed, &members, &created, &updated)
	if err != nil {
		return core.Project{}, err
	}
	p.Status = core.ProjectStatus(status)
	p.Deadline = parseDate(deadline)
	p.ReminderDate = parseDate(reminder)
	p.CompletedDate = parseDate(completed)
	if members != "" {
		if err := json.Unmarshal([]byte(members), &p.TeamMembers); err != nil {
			return core.Project{}, fmt.Errorf("decode team members: %w", err)
		}
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func encodeMembers(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode team members: %w", err)
	}
	return string(b), nil
}

// CreateProject inserts p for its owner, assigning id and timestamps.
func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	now := r.stamp()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	members, err := encodeMembers(p.TeamMembers)
	if err != nil {
		return core.Project{}, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClientID, p.OwnerID, p.Name, string(p.Status), formatDate(p.Deadline), p.TotalAmount.Cents,
		formatDate(p.ReminderDate), formatDate(p.CompletedDate), members, formatTime(now), formatTime(now))
	if err != nil {
		return core.Project{}, classify("create project", err)
	}
	return p, nil
}

// GetProject loads a project owned by owner.
func (r *SQLiteRepository) GetProject(ctx context.Context, owner, id string) (core.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return core.Project{}, classify("get project", err)
	}
	if err := checkOwner("get project", owner, p.OwnerID); err != nil {
		return core.Project{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) queryProjects(ctx context.Context, op, query string, args ...any) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out := []core.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, classify(op, rows.Err())
}

// ListProjects returns owner's projects, newest first.
func (r *SQLiteRepository) ListProjects(ctx context.Context, owner string) ([]core.Project, error) {
	return r.queryProjects(ctx, "list projects",
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY created_at DESC, id`, owner)
}

// ListProjectsByClient returns one client's projects, newest first.
func (r *SQLiteRepository) ListProjectsByClient(ctx context.Context, owner, clientID string) ([]core.Project, error) {
	return r.queryProjects(ctx, "list client projects",
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? AND client_id = ? ORDER BY created_at DESC, id`,
		owner, clientID)
}

// ListDueReminders returns projects whose reminder date is on or before day.
func (r *SQLiteRepository) ListDueReminders(ctx context.Context, owner string, day core.Date) ([]core.Project, error) {
	return r.queryProjects(ctx, "list due reminders",
		`SELECT `+projectColumns+` FROM projects
		 WHERE user_id = ? AND reminder_date IS NOT NULL AND reminder_date <= ?
		 ORDER BY reminder_date, id`,
		owner, day.String())
}

// UpdateProject overwrites the editable fields of an owned project.
func (r *SQLiteRepository) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	existing, err := r.GetProject(ctx, p.OwnerID, p.ID)
	if err != nil {
		return core.Project{}, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.stamp()
	members, err := encodeMembers(p.TeamMembers)
	if err != nil {
		return core.Project{}, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE projects SET client_id = ?, name = ?, status = ?, deadline = ?, total_amount_cents = ?,
		 reminder_date = ?, completed_date = ?, team_members = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		p.ClientID, p.Name, string(p.Status), formatDate(p.Deadline), p.TotalAmount.Cents,
		formatDate(p.ReminderDate), formatDate(p.CompletedDate), members, formatTime(p.UpdatedAt),
		p.ID, p.OwnerID)
	if err != nil {
		return core.Project{}, classify("update project", err)
	}
	return p, nil
}

// ClearReminder empties a project's reminder date once it was acknowledged.
func (r *SQLiteRepository) ClearReminder(ctx context.Context, owner, id string) error {
	if _, err := r.GetProject(ctx, owner, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects SET reminder_date = NULL, updated_at = ? WHERE id = ? AND user_id = ?`,
		formatTime(r.stamp()), id, owner)
	return classify("clear reminder", err)
}

// DeleteProject removes a project together with its payments.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, owner, id string) error {
	if _, err := r.GetProject(ctx, owner, id); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE user_id = ? AND project_id = ?`, owner, id); err != nil {
			return classify("delete project payments", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, id, owner); err != nil {
			return classify("delete project", err)
		}
		return nil
	})
}
