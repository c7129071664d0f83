// Package outbox delivers committed outbox events to Redis subscribers and
// the live dashboard.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pos-backend/internal/cache"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
)

const (
	Channel = "pos:events"
	LockKey = "lock:outbox-dispatcher"

	baseBackoff = time.Second
	maxBackoff  = 10 * time.Minute
)

// Store is the dispatcher's access to outbox_events.
type Store interface {
	Claim(ctx context.Context, dispatcherID string, limit int, staleAfter time.Duration) ([]*models.OutboxEvent, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, lastErr string, nextAttempt time.Time, dead bool) error
}

type Broadcaster interface {
	BroadcastRaw(msgType string, data []byte)
}

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

type Dispatcher struct {
	Store       Store
	Hub         Broadcaster
	Logger      *logrus.Logger
	ID          string
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	StaleAfter  time.Duration

	// Swappable for tests; default to the shared Redis client.
	Publish    func(ctx context.Context, channel string, payload []byte) error
	Lock       func(ctx context.Context, key string, ttl time.Duration) (cache.Lock, error)
	Invalidate func(ctx context.Context, customerID string)
	Now        func() time.Time
}

func NewDispatcher(store Store, hub Broadcaster, cfg Config, logger *logrus.Logger) *Dispatcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 20
	}
	host, _ := os.Hostname()
	return &Dispatcher{
		Store:       store,
		Hub:         hub,
		Logger:      logger,
		ID:          host + "-" + uuid.NewString()[:8],
		Interval:    cfg.PollInterval,
		BatchSize:   cfg.BatchSize,
		MaxAttempts: cfg.MaxAttempts,
		StaleAfter:  time.Minute,
		Publish:     cache.Publish,
		Lock:        cache.Obtain,
		Invalidate:  cache.InvalidateBalances,
		Now:         time.Now,
	}
}

// Backoff is the delay before retry number attempts+1: one second doubled
// per attempt, capped at ten minutes.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Run polls until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	d.Logger.WithField("dispatcher", d.ID).Info("outbox dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.Logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.Tick(ctx); err != nil && ctx.Err() == nil {
				d.Logger.WithError(err).Error("outbox dispatch failed")
			}
		}
	}
}

// Tick dispatches one batch under the dispatcher lock and returns how many
// events were handled. A lock held by another replica is not an error.
func (d *Dispatcher) Tick(ctx context.Context) (int, error) {
	lock, err := d.Lock(ctx, LockKey, d.Interval*5+d.StaleAfter)
	if errors.Is(err, cache.ErrLockHeld) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to obtain dispatcher lock: %w", err)
	}
	defer lock.Release(context.Background())

	events, err := d.Store.Claim(ctx, d.ID, d.BatchSize, d.StaleAfter)
	if err != nil {
		return 0, err
	}
	for _, e := range events {
		if err := d.dispatch(ctx, e); err != nil {
			return 0, err
		}
	}
	return len(events), nil
}

func (d *Dispatcher) dispatch(ctx context.Context, e *models.OutboxEvent) error {
	body, err := json.Marshal(models.PublishedEvent{
		ID:            e.ID,
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		Payload:       e.Payload,
		CreatedAt:     e.CreatedAt,
	})
	if err == nil {
		err = d.Publish(ctx, Channel, body)
	}
	if err != nil {
		return d.fail(ctx, e, err)
	}

	var payload models.LedgerEventPayload
	if json.Unmarshal(e.Payload, &payload) == nil && payload.CustomerID != nil {
		d.Invalidate(ctx, payload.CustomerID.String())
	}
	if d.Hub != nil {
		d.Hub.BroadcastRaw(e.EventType, body)
	}

	if err := d.Store.MarkSent(ctx, e.ID); err != nil {
		return fmt.Errorf("failed to mark event %d sent: %w", e.ID, err)
	}
	metrics.OutboxEventsTotal.WithLabelValues("sent").Inc()
	return nil
}

// fail records a delivery error. Claim has already counted this attempt.
func (d *Dispatcher) fail(ctx context.Context, e *models.OutboxEvent, cause error) error {
	dead := e.Attempts >= d.MaxAttempts
	next := d.Now().Add(Backoff(e.Attempts))

	entry := d.Logger.WithFields(logrus.Fields{
		"event_id":   e.ID,
		"event_type": e.EventType,
		"attempts":   e.Attempts,
	}).WithError(cause)
	if dead {
		entry.Error("outbox event moved to DEAD")
		metrics.OutboxEventsTotal.WithLabelValues("dead").Inc()
	} else {
		entry.Warn("outbox event delivery failed")
		metrics.OutboxEventsTotal.WithLabelValues("failed").Inc()
	}

	if err := d.Store.MarkFailed(ctx, e.ID, cause.Error(), next, dead); err != nil {
		return fmt.Errorf("failed to mark event %d failed: %w", e.ID, err)
	}
	return nil
}
