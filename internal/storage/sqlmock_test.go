package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"freelancedesk/internal/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing table", errors.New("SQL logic error: no such table: clients (1)"), core.ErrPrecondition},
		{"missing column", errors.New("no such column: ledger_status"), core.ErrPrecondition},
		{"unique", errors.New("UNIQUE constraint failed: clients.id"), core.ErrConflict},
		{"check", errors.New("CHECK constraint failed: amount_cents > 0"), core.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("op", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if classify("op", nil) != nil {
		t.Error("nil error should stay nil")
	}
	other := errors.New("disk I/O error")
	if got := classify("op", other); !errors.Is(got, other) || errors.Is(got, core.ErrConflict) {
		t.Errorf("unexpected classification %v", got)
	}
}

func TestDeleteClientRollsBackOnExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewWithDB(db)

	cols := []string{"id", "user_id", "name", "email", "phone", "notes", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + clientColumns + ` FROM clients WHERE id = ?`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("c1", "u1", "Acme", "", "", "", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM projects`)).
		WithArgs("u1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM clients`)).
		WithArgs("c1", "u1").
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	if err := repo.DeleteClient(context.Background(), "u1", "c1"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestListPaymentsQueryErrorIsPrecondition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewWithDB(db)

	mock.ExpectQuery(`SELECT .* FROM payments`).
		WithArgs("u1").
		WillReturnError(errors.New("no such table: payments"))

	_, err = repo.ListPayments(context.Background(), "u1")
	if !errors.Is(err, core.ErrPrecondition) {
		t.Fatalf("want ErrPrecondition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
