// Package storage persists owner-scoped records in SQLite.
//
// Every read and write is filtered by the owning user (or agency) id. A
// record that exists but belongs to someone else is reported as
// core.ErrPermissionDenied rather than not found.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"freelancedesk/internal/core"

	_ "modernc.org/sqlite"
)

const migrateHint = "run `deskctl migrate up` to create the schema"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// Options controls how the repository is opened.
type Options struct {
	// AutoMigrate applies pending migrations on open.
	AutoMigrate bool
}

// NewSQLiteRepository opens (and by default migrates) the database at dbPath.
func NewSQLiteRepository(dbPath string, opts ...Options) (*SQLiteRepository, error) {
	o := Options{AutoMigrate: true}
	if len(opts) > 0 {
		o = opts[0]
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if o.AutoMigrate {
		if err := RunMigrations(dbPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already open database. Migrations are the caller's job.
func NewWithDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection and that the schema exists.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n)
	return classify("check schema", err)
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// classify maps driver errors onto the core error classes.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
		return &core.PreconditionError{Op: op, Hint: migrateHint, Err: err}
	case strings.Contains(msg, "UNIQUE constraint"), strings.Contains(msg, "CHECK constraint"):
		return fmt.Errorf("%s: %w: %v", op, core.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// checkOwner turns a row owned by someone else into ErrPermissionDenied.
func checkOwner(op, owner, rowOwner string) error {
	if owner != rowOwner {
		return fmt.Errorf("%s: %w", op, core.ErrPermissionDenied)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// timestampLayout keeps every fraction digit so stored stamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDate(ns sql.NullString) core.Date {
	if !ns.Valid {
		return core.Date{}
	}
	d, err := core.ParseDate(ns.String)
	if err != nil {
		return core.Date{}
	}
	return d
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// stamp fills creation and update times for a new record.
func (r *SQLiteRepository) stamp() time.Time {
	return r.now().UTC()
}
