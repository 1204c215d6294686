// Package market holds trading-hour rules and the explicit price table.
package market

import "time"

// Hours is a weekday trading window in a fixed location.
// The window opens at OpenHour:00 and closes at CloseHour:00 (exclusive).
type Hours struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

// DefaultHours returns the weekday 09:00-16:00 window in loc (local time when nil)
func DefaultHours(loc *time.Location) Hours {
	if loc == nil {
		loc = time.Local
	}
	return Hours{Location: loc, OpenHour: 9, CloseHour: 16}
}

// IsOpen reports whether t falls inside the trading window
func (h Hours) IsOpen(t time.Time) bool {
	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= h.OpenHour*60 && minute < h.CloseHour*60
}

// Fixed is a market that is always open (true) or always closed (false)
type Fixed bool

// IsOpen implements domain.MarketHours
func (f Fixed) IsOpen(time.Time) bool { return bool(f) }
