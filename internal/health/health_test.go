package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestCheckBasic(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		status string
	}{
		{"database up", stubPinger{}, StatusHealthy},
		{"database down", stubPinger{err: errors.New("refused")}, StatusUnhealthy},
		{"no database", nil, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HealthChecker{db: tt.db}
			status := h.CheckBasic()
			assert.Equal(t, tt.status, status.Status)
			assert.Equal(t, tt.status, status.Database.Status)
			// no Redis configured in tests
			assert.Equal(t, StatusDisabled, status.Redis.Status)
		})
	}
}

func TestCheckDetailed(t *testing.T) {
	h := &HealthChecker{db: stubPinger{}}
	status := h.CheckDetailed()
	assert.Equal(t, StatusHealthy, status.Status)
	assert.NotEmpty(t, status.Uptime)
	assert.NotNil(t, status.Host)
	assert.Nil(t, status.Pool)
}

type stubOutbox map[string]int

func (s stubOutbox) CountByStatus(context.Context) (map[string]int, error) { return s, nil }

func TestCheckDetailedIncludesOutbox(t *testing.T) {
	h := (&HealthChecker{db: stubPinger{}}).WithOutbox(stubOutbox{"PENDING": 2, "DEAD": 1})
	status := h.CheckDetailed()
	assert.Equal(t, 2, status.Outbox["PENDING"])
	assert.Equal(t, 1, status.Outbox["DEAD"])
}
