// Package timeutil keeps business-day arithmetic in the shop's timezone.
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

var (
	mu       sync.RWMutex
	location = time.FixedZone("IST", 5*60*60+30*60)
)

// SetLocation switches the business timezone, e.g. "Asia/Kolkata".
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	mu.Lock()
	location = loc
	mu.Unlock()
	return nil
}

func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return location
}

// Now returns the current time in the business timezone
func Now() time.Time {
	return time.Now().In(Location())
}

// StartOfDay returns local midnight of t's business day.
func StartOfDay(t time.Time) time.Time {
	loc := Location()
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

func StartOfMonth(t time.Time) time.Time {
	loc := Location()
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), 1, 0, 0, 0, 0, loc)
}

// ParseDate reads a YYYY-MM-DD date as local midnight.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Location())
}

// DateRange turns optional from/to dates into a half-open [from, to+1day)
// range. Empty values give nil bounds.
func DateRange(from, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if from != "" {
		t, err := ParseDate(from)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid from date: %w", err)
		}
		start = &t
	}
	if to != "" {
		t, err := ParseDate(to)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid to date: %w", err)
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, fmt.Errorf("from date is after to date")
	}
	return start, end, nil
}

func Format(t time.Time, layout string) string {
	return t.In(Location()).Format(layout)
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
