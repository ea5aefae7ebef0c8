package scheduling

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"planned", "confirmed", "completed", "cancelled"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Fatalf("ParseStatus(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "PLANNED", "pending", "запланирован", "done"} {
		if _, err := ParseStatus(invalid); err == nil {
			t.Fatalf("ParseStatus(%q): expected error", invalid)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPlanned, StatusConfirmed, true},
		{StatusPlanned, StatusCancelled, true},
		{StatusPlanned, StatusCompleted, false},
		{StatusPlanned, StatusPlanned, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPlanned, false},
		{StatusCancelled, StatusPlanned, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("%s→%s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsActive(t *testing.T) {
	if !StatusPlanned.IsActive() || !StatusConfirmed.IsActive() {
		t.Fatal("planned and confirmed must occupy the schedule")
	}
	if StatusCancelled.IsActive() || StatusCompleted.IsActive() {
		t.Fatal("cancelled and completed must not occupy the schedule")
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	base := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", base, base.Add(30 * time.Minute), base, base.Add(30 * time.Minute), true},
		{"partial", base, base.Add(30 * time.Minute), base.Add(15 * time.Minute), base.Add(45 * time.Minute), true},
		{"contained", base, base.Add(time.Hour), base.Add(15 * time.Minute), base.Add(30 * time.Minute), true},
		{"touching ends", base, base.Add(30 * time.Minute), base.Add(30 * time.Minute), base.Add(time.Hour), false},
		{"disjoint", base, base.Add(30 * time.Minute), base.Add(2 * time.Hour), base.Add(3 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Fatalf("overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}
