package comms

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/careline/intake-platform/internal/domain"
)

func TestPostgresLogAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPostgresLogStore(db)
	now := time.Now()

	mock.ExpectExec("INSERT INTO communication_logs").
		WithArgs("l1", "c1", "t1", "email", "sent", "Hi Jane", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.Append(context.Background(), domain.CommunicationLog{
		ID: "l1", CustomerID: "c1", TemplateID: "t1",
		Channel: domain.ChannelEmail, Status: domain.LogSent,
		Content: "Hi Jane", Metadata: map[string]string{"stage": "active"},
		SentAt: now,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresLogMarkDeliveredMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewPostgresLogStore(db)
	at := time.Now()

	mock.ExpectExec("UPDATE communication_logs").
		WithArgs("delivered", at, "ghost", "sent").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	if err := store.MarkDelivered(context.Background(), "ghost", at); err != ErrLogNotFound {
		t.Fatalf("expected ErrLogNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
