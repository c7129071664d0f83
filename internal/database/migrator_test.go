package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_sales.sql":       {Data: []byte("SELECT 2")},
		"001_init.sql":        {Data: []byte("SELECT 1")},
		"003_outbox.sql":      {Data: []byte("SELECT 3")},
		"999_reset_all.sql":   {Data: []byte("DROP TABLE x")},
		"README.md":           {Data: []byte("docs")},
		"archive/000_old.sql": {Data: []byte("SELECT 0")},
	}

	tests := []struct {
		name    string
		applied map[string]bool
		want    []string
	}{
		{"fresh database", nil, []string{"001_init.sql", "002_sales.sql", "003_outbox.sql"}},
		{"partially applied", map[string]bool{"001_init.sql": true}, []string{"002_sales.sql", "003_outbox.sql"}},
		{"up to date", map[string]bool{"001_init.sql": true, "002_sales.sql": true, "003_outbox.sql": true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pendingMigrations(fsys, ".", tt.applied)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPendingMigrationsMissingDir(t *testing.T) {
	_, err := pendingMigrations(fstest.MapFS{}, "nope", nil)
	assert.Error(t, err)
}
