package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/lib/pq"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/events"
	"github.com/gigmarket/messaging/internal/tx"
)

//go:embed schema.sql
var schema string

type Repository struct {
	DB *sql.DB
	Tx tx.Transactor
	// Outbox enables writing an outbox_events row alongside every append and read-mark.
	Outbox bool
}

func NewDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return db, db.PingContext(ctx)
}

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) getter(tx *sql.Tx) queryable {
	if tx != nil {
		return tx
	}
	return r.DB
}

func (r *Repository) Ping(ctx context.Context) error {
	return domain.NewStorageError("ping", r.DB.PingContext(ctx))
}

func (r *Repository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	err := r.Tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		q := r.getter(tx)
		_, err := q.ExecContext(ctx, `
			INSERT INTO messages (id, sender_id, recipient_id, content, created_at, read)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			msg.ID,
			msg.SenderID,
			msg.RecipientID,
			msg.Body,
			msg.CreatedAt,
			msg.Read,
		)
		if err != nil {
			return err
		}

		if !r.Outbox {
			return nil
		}
		payload, err := events.Encode(events.TypeMessageSent, msg.CreatedAt, events.MessageSent{Message: msg})
		if err != nil {
			return err
		}
		return r.insertOutbox(ctx, tx, domain.PairKey(msg.SenderID, msg.RecipientID), events.TypeMessageSent, payload)
	})
	return domain.NewStorageError("insert message", err)
}

func (r *Repository) ListConversation(ctx context.Context, a, b string) ([]*domain.Message, error) {
	msgs, err := r.query(ctx, `
		SELECT id, sender_id, recipient_id, content, created_at, read
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at ASC, id ASC
	`, a, b)
	if err != nil {
		return nil, domain.NewStorageError("list conversation", err)
	}
	return msgs, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	msgs, err := r.query(ctx, `
		SELECT id, sender_id, recipient_id, content, created_at, read
		FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, domain.NewStorageError("list for user", err)
	}
	return msgs, nil
}

func (r *Repository) MarkRead(ctx context.Context, from, to string) (int, error) {
	var count int
	err := r.Tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		q := r.getter(tx)
		res, err := q.ExecContext(ctx, `
			UPDATE messages
			SET read = TRUE
			WHERE sender_id = $1
			  AND recipient_id = $2
			  AND NOT read
		`, from, to)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		count = int(n)

		if !r.Outbox || count == 0 {
			return nil
		}
		payload, err := events.Encode(events.TypeMessagesRead, time.Now(), events.MessagesRead{From: from, To: to, Count: count})
		if err != nil {
			return err
		}
		return r.insertOutbox(ctx, tx, domain.PairKey(from, to), events.TypeMessagesRead, payload)
	})
	if err != nil {
		return 0, domain.NewStorageError("mark read", err)
	}
	return count, nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx *sql.Tx, aggregateID, eventType string, payload []byte) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO outbox_events (aggregate_id, event_type, payload)
		VALUES ($1, $2, $3)
	`, aggregateID, eventType, payload)
	return err
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Message, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Body,
			&msg.CreatedAt,
			&msg.Read,
		); err != nil {
			return nil, err
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}
