package schedule

import (
	"testing"
	"time"
)

// 2026-08-24 is a Monday.
func at(day, hour, min int) time.Time {
	return time.Date(2026, 8, day, hour, min, 0, 0, time.UTC)
}

func TestResolveOpen(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		open bool
	}{
		{"monday evening after open", at(24, 18, 0), true},
		{"monday just before open", at(24, 17, 59), false},
		{"tuesday overnight", at(25, 3, 30), true},
		{"tuesday 08:15 still open", at(25, 8, 15), true},
		{"tuesday 08:20 closed", at(25, 8, 20), false},
		{"tuesday 08:25 closed", at(25, 8, 25), false},
		{"tuesday midday closed", at(25, 12, 0), false},
		{"friday 09:30 still open", at(28, 9, 30), true},
		{"friday 10:19 still open", at(28, 10, 19), true},
		{"friday 10:20 closed", at(28, 10, 20), false},
		// The Friday rule keys off the current day: a session opened on
		// Friday evening closes Saturday at 08:20, not 10:20.
		{"saturday 08:25 after friday session", at(29, 8, 25), false},
		{"saturday 08:15 after friday session", at(29, 8, 15), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Resolve(tt.now)
			if w.Open != tt.open {
				t.Errorf("Resolve(%v).Open = %v, want %v", tt.now, w.Open, tt.open)
			}
		})
	}
}

func TestResolveStart(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{"evening maps to today 18:00", at(24, 19, 30), at(24, 18, 0)},
		{"exactly 18:00 maps to today", at(24, 18, 0), at(24, 18, 0)},
		{"overnight maps to yesterday 18:00", at(25, 2, 0), at(24, 18, 0)},
		{"morning maps to yesterday 18:00", at(25, 8, 10), at(24, 18, 0)},
		{"afternoon still yesterday 18:00", at(25, 15, 0), at(24, 18, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Resolve(tt.now)
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("Resolve(%v).Start = %v, want %v", tt.now, w.Start, tt.wantStart)
			}
		})
	}
}

func TestResolveClosingLabel(t *testing.T) {
	if got := Resolve(at(25, 7, 0)).ClosingLabel; got != "08:20" {
		t.Errorf("weekday closing label = %q, want %q", got, "08:20")
	}
	if got := Resolve(at(28, 7, 0)).ClosingLabel; got != "10:20" {
		t.Errorf("friday closing label = %q, want %q", got, "10:20")
	}
}
