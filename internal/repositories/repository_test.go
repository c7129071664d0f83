package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("network down")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrInvalidReference},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "products_stock_check"}, ErrConflict},
		{"passthrough", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestTranslateDeleteError(t *testing.T) {
	err := translateDeleteError(&pgconn.PgError{Code: "23503", TableName: "debts"})
	assert.ErrorIs(t, err, ErrReferenced)
	assert.Contains(t, err.Error(), "debts")

	assert.ErrorIs(t, translateDeleteError(pgx.ErrNoRows), ErrNotFound)
}

func TestExpectOne(t *testing.T) {
	assert.ErrorIs(t, expectOne(pgconn.NewCommandTag("UPDATE 0"), nil), ErrNotFound)
	assert.NoError(t, expectOne(pgconn.NewCommandTag("UPDATE 1"), nil))
	assert.ErrorIs(t, expectOne(pgconn.CommandTag{}, pgx.ErrNoRows), ErrNotFound)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "d.id, d.amount, d.status", prefixed("d", "id, amount,\n\tstatus"))
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "%%"},
		{"milk", "%milk%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
		{`%_\`, `%\%\_\\%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, likePattern(tt.in))
		})
	}
}
