// Package schedule resolves wall-clock time to the current betting session.
//
// A session runs from 18:00 on day D to a closing time on day D+1: 08:20 on
// most days, 10:20 when the current day is a Friday (school-schedule
// exception). The Friday rule is deliberately evaluated against the current
// day rather than the session's start day; this matches the behaviour the
// rest of the system was built around, including right at the boundary.
package schedule

import (
	"fmt"
	"time"
)

const (
	openingHour       = 18
	closingHour       = 8
	fridayClosingHour = 10
	closingMinute     = 20
)

// Window describes one betting session as seen from a given instant.
type Window struct {
	// Start is the session's lower bound (18:00 today or yesterday). Bets
	// and games belonging to the session are scoped by this timestamp.
	Start time.Time

	// Open reports whether new bets may currently be placed for a normal
	// game. Trip games ignore this entirely.
	Open bool

	// ClosingLabel is the display label for the session's closing time,
	// e.g. "08:20" or "10:20".
	ClosingLabel string
}

// Resolve maps now to the current betting session. It is pure: callers must
// resolve once per logical request and reuse the result so a window boundary
// cannot flip mid-request.
func Resolve(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), now.Day(), openingHour, 0, 0, 0, now.Location())
	if now.Hour() < openingHour {
		start = start.AddDate(0, 0, -1)
	}

	closing := closingHour
	if now.Weekday() == time.Friday {
		closing = fridayClosingHour
	}

	open := now.Hour() >= openingHour ||
		now.Hour() < closing ||
		(now.Hour() == closing && now.Minute() < closingMinute)

	return Window{
		Start:        start,
		Open:         open,
		ClosingLabel: fmt.Sprintf("%02d:%02d", closing, closingMinute),
	}
}
