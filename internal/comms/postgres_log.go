package comms

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/careline/intake-platform/internal/domain"
)

// PostgresLogStore persists communication logs in the
// communication_logs table.
type PostgresLogStore struct {
	db *sql.DB
}

// NewPostgresLogStore creates a log store over the given database.
func NewPostgresLogStore(db *sql.DB) *PostgresLogStore {
	return &PostgresLogStore{db: db}
}

func (s *PostgresLogStore) Append(ctx context.Context, entry domain.CommunicationLog) error {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO communication_logs
			(id, customer_id, template_id, channel, status, content, metadata, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.CustomerID, entry.TemplateID, string(entry.Channel),
		string(entry.Status), entry.Content, meta, entry.SentAt)
	return err
}

func (s *PostgresLogStore) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE communication_logs
		SET status = $1, delivered_at = $2
		WHERE id = $3 AND status = $4`,
		string(domain.LogDelivered), at, id, string(domain.LogSent))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM communication_logs WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrLogNotFound
		}
	}
	return nil
}

func (s *PostgresLogStore) ForCustomer(ctx context.Context, customerID string) ([]domain.CommunicationLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, template_id, channel, status, content, metadata, sent_at, delivered_at
		FROM communication_logs
		WHERE customer_id = $1
		ORDER BY sent_at ASC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CommunicationLog
	for rows.Next() {
		var (
			e           domain.CommunicationLog
			channel     string
			status      string
			meta        []byte
			deliveredAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.TemplateID, &channel,
			&status, &e.Content, &meta, &e.SentAt, &deliveredAt); err != nil {
			return nil, err
		}
		e.Channel = domain.Channel(channel)
		e.Status = domain.LogStatus(status)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, err
			}
		}
		if deliveredAt.Valid {
			t := deliveredAt.Time
			e.DeliveredAt = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
