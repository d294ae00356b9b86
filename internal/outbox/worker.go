package outbox

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/events"
	"github.com/gigmarket/messaging/internal/observability"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Worker relays outbox_events rows to kafka in id order.
type Worker struct {
	DB          *sql.DB
	Producer    Publisher
	TopicPrefix string
	BatchSize   int
	PollDelay   time.Duration
}

func (w *Worker) Start(ctx context.Context) {
	log := observability.GetLogger(ctx)
	log.Info("outbox worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopping")
			return
		default:
		}

		n, err := w.processBatch(ctx)
		if err != nil {
			log.Error("outbox worker error", zap.Error(err))
			observability.OutboxErrorsTotal.Inc()
		}
		if err != nil || n == 0 {
			select {
			case <-ctx.Done():
			case <-time.After(w.PollDelay):
			}
		}
	}
}

type event struct {
	id          int64
	aggregateID string
	eventType   string
	payload     []byte
}

func (w *Worker) processBatch(ctx context.Context) (int, error) {
	tx, err := w.DB.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, w.BatchSize)
	if err != nil {
		return 0, err
	}

	var batch []event
	for rows.Next() {
		var e event
		if err := rows.Scan(&e.id, &e.aggregateID, &e.eventType, &e.payload); err != nil {
			rows.Close()
			return 0, err
		}
		batch = append(batch, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(batch) == 0 {
		return 0, nil
	}

	log := observability.GetLogger(ctx)
	for _, e := range batch {
		topic := events.Topic(w.TopicPrefix, e.eventType)
		if topic == "" {
			log.Warn("unknown event type in outbox", zap.String("event_type", e.eventType), zap.Int64("id", e.id))
		} else if err := w.Producer.Publish(ctx, topic, []byte(e.aggregateID), e.payload); err != nil {
			return 0, err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE outbox_events SET processed_at = NOW() WHERE id = $1
		`, e.id); err != nil {
			return 0, err
		}
		observability.OutboxPublishedTotal.WithLabelValues(e.eventType).Inc()
	}

	return len(batch), tx.Commit()
}
