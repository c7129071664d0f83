package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDayAndMonth(t *testing.T) {
	require.NoError(t, SetLocation("Asia/Kolkata"))

	// 20:00 UTC on the 31st is already the 1st in Kolkata
	ts := time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC)

	day := StartOfDay(ts)
	assert.Equal(t, 1, day.Day())
	assert.Equal(t, time.February, day.Month())
	assert.Equal(t, 0, day.Hour())

	month := StartOfMonth(ts)
	assert.Equal(t, time.February, month.Month())
	assert.Equal(t, 1, month.Day())
}

func TestSetLocationRejectsUnknownZone(t *testing.T) {
	assert.Error(t, SetLocation("Mars/Olympus"))
}

func TestDateRange(t *testing.T) {
	require.NoError(t, SetLocation("UTC"))

	tests := []struct {
		name     string
		from, to string
		wantErr  bool
		wantFrom string
		wantTo   string
	}{
		{name: "empty", from: "", to: ""},
		{name: "both", from: "2024-03-01", to: "2024-03-31", wantFrom: "2024-03-01", wantTo: "2024-04-01"},
		{name: "only to", to: "2024-03-05", wantTo: "2024-03-06"},
		{name: "bad from", from: "03/01/2024", wantErr: true},
		{name: "reversed", from: "2024-03-10", to: "2024-03-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := DateRange(tt.from, tt.to)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantFrom == "" {
				assert.Nil(t, from)
			} else {
				assert.Equal(t, tt.wantFrom, from.Format(DateLayout))
			}
			if tt.wantTo == "" {
				assert.Nil(t, to)
			} else {
				assert.Equal(t, tt.wantTo, to.Format(DateLayout))
			}
		})
	}
}
