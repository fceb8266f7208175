package customer

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { db.Close() }
}

func customerRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "first_name", "last_name", "phone", "age",
		"email_opt_in", "sms_opt_in", "push_opt_in", "created_at",
	})
}

func TestPostgresFindByID(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM intake_customers").
		WithArgs("cust-1").
		WillReturnRows(customerRows().AddRow(
			"cust-1", "jane@example.com", "Jane", "Doe", "+15551234567", 42,
			true, true, false, created,
		))

	repo := NewPostgresRepo(db)
	c, err := repo.FindByID(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if c.Email != "jane@example.com" || c.Age != 42 {
		t.Errorf("unexpected customer: %+v", c)
	}
	if !c.Preferences.Email || !c.Preferences.SMS || c.Preferences.Push {
		t.Errorf("unexpected preferences: %+v", c.Preferences)
	}
}

func TestPostgresFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM intake_customers").
		WithArgs("missing").
		WillReturnRows(customerRows())

	repo := NewPostgresRepo(db)
	_, err := repo.FindByID(context.Background(), "missing")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresCountCases(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT(.+) FROM intake_cases").
		WithArgs("cust-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	repo := NewPostgresRepo(db)
	n, err := repo.CountCases(context.Background(), "cust-1")
	if err != nil {
		t.Fatalf("CountCases: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 cases, got %d", n)
	}
}

func TestPostgresFindAll(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT(.+) FROM intake_customers").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM intake_customers").
		WillReturnRows(customerRows().
			AddRow("c1", "a@example.com", "A", "One", "", 30, true, false, false, time.Now()).
			AddRow("c2", "b@example.com", "B", "Two", "", 50, true, true, false, time.Now()))

	repo := NewPostgresRepo(db)
	list, total, err := repo.FindAll(context.Background(), ListFilter{Limit: 10})
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("expected 2 customers, got %d (total %d)", len(list), total)
	}
}
