// Package clinic holds the clinic's local-time schedule configuration.
package clinic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Hours describes the clinic's daily working window in its local time zone.
// Appointments are stored as UTC instants; every working-hours comparison
// happens in the clinic location.
type Hours struct {
	loc      *time.Location
	openMin  int // minutes since local midnight
	closeMin int
}

// NewHours parses a time zone name and "HH:MM" open/close wall-clock times.
func NewHours(tz, open, close string) (*Hours, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("clinic: load time zone %q: %w", tz, err)
	}
	openMin, err := parseWallClock(open)
	if err != nil {
		return nil, fmt.Errorf("clinic: opening time: %w", err)
	}
	closeMin, err := parseWallClock(close)
	if err != nil {
		return nil, fmt.Errorf("clinic: closing time: %w", err)
	}
	if closeMin <= openMin {
		return nil, fmt.Errorf("clinic: closing time %s must be after opening time %s", close, open)
	}
	return &Hours{loc: loc, openMin: openMin, closeMin: closeMin}, nil
}

// Location returns the clinic's time zone.
func (h *Hours) Location() *time.Location {
	return h.loc
}

// Window returns the working window [open, close) for the given calendar date.
func (h *Hours) Window(year int, month time.Month, day int) (open, close time.Time) {
	midnight := time.Date(year, month, day, 0, 0, 0, 0, h.loc)
	open = midnight.Add(time.Duration(h.openMin) * time.Minute)
	close = midnight.Add(time.Duration(h.closeMin) * time.Minute)
	return open, close
}

// WindowFor returns the working window for the clinic-local date of t.
func (h *Hours) WindowFor(t time.Time) (open, close time.Time) {
	local := t.In(h.loc)
	return h.Window(local.Date())
}

// DayBounds returns the clinic-local midnight-to-midnight bounds containing t.
func (h *Hours) DayBounds(t time.Time) (start, end time.Time) {
	local := t.In(h.loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, h.loc)
	return start, start.AddDate(0, 0, 1)
}

// Contains reports whether the interval [start, end) fits entirely inside the
// working window of start's clinic-local date.
func (h *Hours) Contains(start, end time.Time) bool {
	open, close := h.WindowFor(start)
	return !start.Before(open) && !end.After(close)
}

// parseWallClock converts "HH:MM" to minutes since midnight.
func parseWallClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed wall-clock time %q", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("malformed hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("malformed minute in %q", s)
	}
	return hh*60 + mm, nil
}
