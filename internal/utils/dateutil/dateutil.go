// Package dateutil centralizes the service's date handling. All settlement
// days are Korea Standard Time days; the API exchanges yyyy-MM-dd strings
// whose range boundaries carry the +09:00 offset.
package dateutil

import (
	"errors"
	"time"
)

// KST is the settlement timezone (+09:00, no DST).
var KST = time.FixedZone("KST", 9*60*60)

// DateLayout is the wire format for dates.
const DateLayout = "2006-01-02"

// ErrBadDate reports an unparseable yyyy-MM-dd value.
var ErrBadDate = errors.New("invalid date, expected yyyy-MM-dd")

// ParseDate parses a yyyy-MM-dd string as a KST calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, KST)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return t, nil
}

// DayWindow returns [00:00:00, next day 00:00:00) in KST for a date.
func DayWindow(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, KST)
	return start, start.AddDate(0, 0, 1)
}

// RangeWindow returns the half-open window covering [startDate, endDate]
// as KST days.
func RangeWindow(startDate, endDate time.Time) (time.Time, time.Time) {
	start, _ := DayWindow(startDate)
	_, end := DayWindow(endDate)
	return start, end
}

// SettlementDate truncates an instant to its KST calendar date.
func SettlementDate(t time.Time) time.Time {
	t = t.In(KST)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, KST)
}

// FormatDate renders a time as its KST calendar date.
func FormatDate(t time.Time) string {
	return t.In(KST).Format(DateLayout)
}
