package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"freelancedesk/internal/core"
)

const clientColumns = `id, user_id, name, email, phone, notes, created_at, updated_at`

func scanClient(s scanner) (core.Client, error) {
	var (
		c                core.Client
		created, updated string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Phone, &c.Notes, &created, &updated); err != nil {
		return core.Client{}, err
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

// CreateClient inserts c for its owner, assigning id and timestamps.
func (r *SQLiteRepository) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	now := r.stamp()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Email, c.Phone, c.Notes, formatTime(now), formatTime(now))
	if err != nil {
		return core.Client{}, classify("create client", err)
	}
	return c, nil
}

// GetClient loads a client owned by owner.
func (r *SQLiteRepository) GetClient(ctx context.Context, owner, id string) (core.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return core.Client{}, classify("get client", err)
	}
	if err := checkOwner("get client", owner, c.OwnerID); err != nil {
		return core.Client{}, err
	}
	return c, nil
}

// ListClients returns owner's clients, newest first.
func (r *SQLiteRepository) ListClients(ctx context.Context, owner string) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE user_id = ? ORDER BY created_at DESC, id`, owner)
	if err != nil {
		return nil, classify("list clients", err)
	}
	defer rows.Close()

	out := []core.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, classify("list clients", rows.Err())
}

// UpdateClient overwrites the editable fields of an owned client.
func (r *SQLiteRepository) UpdateClient(ctx context.Context, c core.Client) (core.Client, error) {
	existing, err := r.GetClient(ctx, c.OwnerID, c.ID)
	if err != nil {
		return core.Client{}, err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = r.stamp()

	_, err = r.db.ExecContext(ctx,
		`UPDATE clients SET name = ?, email = ?, phone = ?, notes = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.Email, c.Phone, c.Notes, formatTime(c.UpdatedAt), c.ID, c.OwnerID)
	if err != nil {
		return core.Client{}, classify("update client", err)
	}
	return c, nil
}

// DeleteClient removes a client that has no projects. Clients that still
// own projects are refused with core.ErrConflict.
func (r *SQLiteRepository) DeleteClient(ctx context.Context, owner, id string) error {
	if _, err := r.GetClient(ctx, owner, id); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var projects int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM projects WHERE user_id = ? AND client_id = ?`, owner, id).Scan(&projects)
		if err != nil {
			return classify("count client projects", err)
		}
		if projects > 0 {
			return fmt.Errorf("delete client: %w: client has %d project(s)", core.ErrConflict, projects)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = ? AND user_id = ?`, id, owner); err != nil {
			return classify("delete client", err)
		}
		return nil
	})
}
