package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pos-backend/internal/models"
)

// OutboxRepository is the dispatcher's view of outbox_events. Events are
// inserted by the write paths through insertEvent, inside their own tx.
type OutboxRepository struct {
	DB *pgxpool.Pool
}

func NewOutboxRepository(db *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{DB: db}
}

func insertEvent(ctx context.Context, tx DBTX, aggregateType string, aggregateID uuid.UUID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO outbox_events(aggregate_type, aggregate_id, event_type, payload)
         VALUES($1, $2, $3, $4)`,
		aggregateType, aggregateID, eventType, json.RawMessage(body))
	if err != nil {
		return fmt.Errorf("failed to insert outbox event %s: %w", eventType, err)
	}
	return nil
}

// ledgerPayload builds the payload of a customer-side ledger event.
func ledgerPayload(customerID uuid.UUID, subCustomerID *uuid.UUID, amount decimal.Decimal) models.LedgerEventPayload {
	return models.LedgerEventPayload{
		CustomerID:    &customerID,
		SubCustomerID: subCustomerID,
		Amount:        amount.String(),
	}
}

// Claim locks up to limit due events for this dispatcher. PROCESSING rows
// whose lock is older than staleAfter are taken over.
func (r *OutboxRepository) Claim(ctx context.Context, dispatcherID string, limit int, staleAfter time.Duration) ([]*models.OutboxEvent, error) {
	var events []*models.OutboxEvent
	err := inTx(ctx, r.DB, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT id FROM outbox_events
             WHERE (status = 'PENDING')
                OR (status = 'FAILED' AND next_attempt_at <= NOW())
                OR (status = 'PROCESSING' AND locked_at < $1)
             ORDER BY id
             LIMIT $2
             FOR UPDATE SKIP LOCKED`,
			time.Now().Add(-staleAfter), limit)
		if err != nil {
			return fmt.Errorf("failed to select outbox events: %w", err)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return fmt.Errorf("failed to read outbox ids: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		rows, err = tx.Query(ctx,
			`UPDATE outbox_events
             SET status='PROCESSING', locked_at=NOW(), locked_by=$1, attempts=attempts+1
             WHERE id = ANY($2)
             RETURNING id, aggregate_type, aggregate_id, event_type, payload, status, attempts,
                       next_attempt_at, locked_at, locked_by, last_error, published_at, created_at`,
			dispatcherID, ids)
		if err != nil {
			return fmt.Errorf("failed to claim outbox events: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var e models.OutboxEvent
			if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload,
				&e.Status, &e.Attempts, &e.NextAttemptAt, &e.LockedAt, &e.LockedBy, &e.LastError,
				&e.PublishedAt, &e.CreatedAt); err != nil {
				return err
			}
			events = append(events, &e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	sortEventsByID(events)
	return events, nil
}

func sortEventsByID(events []*models.OutboxEvent) {
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) error {
	return expectOne(r.DB.Exec(ctx,
		`UPDATE outbox_events
         SET status='SENT', published_at=NOW(), locked_at=NULL, locked_by=NULL, last_error=NULL
         WHERE id=$1`, id))
}

// MarkFailed schedules a retry, or parks the event as DEAD when dead is set.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, lastErr string, nextAttempt time.Time, dead bool) error {
	status := models.OutboxStatusFailed
	if dead {
		status = models.OutboxStatusDead
	}
	return expectOne(r.DB.Exec(ctx,
		`UPDATE outbox_events
         SET status=$1, last_error=$2, next_attempt_at=$3, locked_at=NULL, locked_by=NULL
         WHERE id=$4`, status, lastErr, nextAttempt, id))
}

// CountByStatus feeds the detailed health check.
func (r *OutboxRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.Query(ctx, `SELECT status, COUNT(*) FROM outbox_events GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
