package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/cache"
	"pos-backend/internal/monitoring"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// Pinger is the part of the pool the checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OutboxCounter reports outbox_events rows per status.
type OutboxCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type HealthChecker struct {
	db        Pinger
	pool      *pgxpool.Pool
	outbox    OutboxCounter
	startedAt time.Time
}

type HealthStatus struct {
	Status   string                `json:"status"`
	Database ComponentHealth       `json:"database"`
	Redis    ComponentHealth       `json:"redis"`
	Uptime   string                `json:"uptime,omitempty"`
	Host     *monitoring.HostStats `json:"host,omitempty"`
	Pool     *PoolStats            `json:"pool,omitempty"`
	Outbox   map[string]int        `json:"outbox,omitempty"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	IdleConns     int32 `json:"idle_conns"`
	MaxConns      int32 `json:"max_conns"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	h := &HealthChecker{pool: db, startedAt: time.Now()}
	if db != nil {
		h.db = db
	}
	return h
}

// WithOutbox adds event backlog counts to the detailed check.
func (h *HealthChecker) WithOutbox(o OutboxCounter) *HealthChecker {
	h.outbox = o
	return h
}

// CheckBasic reports readiness. Redis is optional, so only the database
// decides the overall status.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	status := StatusHealthy
	if dbHealth.Status != StatusHealthy {
		status = StatusUnhealthy
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Redis:    h.checkRedis(),
	}
}

// CheckDetailed adds uptime, host and pool statistics.
func (h *HealthChecker) CheckDetailed() HealthStatus {
	status := h.CheckBasic()
	status.Uptime = time.Since(h.startedAt).Round(time.Second).String()
	host := monitoring.CollectHostStats()
	status.Host = &host
	if h.pool != nil {
		s := h.pool.Stat()
		status.Pool = &PoolStats{
			TotalConns:    s.TotalConns(),
			AcquiredConns: s.AcquiredConns(),
			IdleConns:     s.IdleConns(),
			MaxConns:      s.MaxConns(),
		}
	}
	if h.outbox != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if counts, err := h.outbox.CountByStatus(ctx); err == nil {
			status.Outbox = counts
		}
	}
	return status
}

func (h *HealthChecker) checkDatabase() ComponentHealth {
	if h.db == nil {
		return ComponentHealth{Status: StatusUnhealthy}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{
			Status:       StatusUnhealthy,
			ResponseTime: responseTime,
		}
	}

	return ComponentHealth{
		Status:       StatusHealthy,
		ResponseTime: responseTime,
	}
}

func (h *HealthChecker) checkRedis() ComponentHealth {
	if !cache.Enabled() {
		return ComponentHealth{Status: StatusDisabled}
	}
	start := time.Now()
	healthy := cache.IsHealthy()
	responseTime := time.Since(start).Milliseconds()
	if !healthy {
		return ComponentHealth{Status: StatusUnhealthy, ResponseTime: responseTime}
	}
	return ComponentHealth{Status: StatusHealthy, ResponseTime: responseTime}
}
