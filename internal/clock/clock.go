// Package clock anchors report dates to the school's civil calendar.
//
// Reports are bucketed by the date in Japan Standard Time regardless of the
// server's local zone, so a report submitted at 08:00 JST is "today" even
// when the host runs in UTC.
package clock

import "time"

// JST is the fixed UTC+9 zone all report dates are computed in.
var JST = time.FixedZone("JST", 9*60*60)

// DateLayout is the storage and wire format of civil dates.
const DateLayout = "2006-01-02"

// DateOf returns the civil date of t in JST, as midnight JST.
func DateOf(t time.Time) time.Time {
	y, m, d := t.In(JST).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, JST)
}

// Today returns the current civil date in JST.
func Today() time.Time {
	return DateOf(time.Now())
}

// Date builds a civil date in JST.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, JST)
}

// DaysBetween returns the number of calendar days from a to b. The result is
// negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(JST).Date()
	by, bm, bd := b.In(JST).Date()
	// Compare in UTC so no DST-like offset changes can leak into the division.
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string as a JST civil date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, JST)
}

// FormatDate renders t's JST civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.In(JST).Format(DateLayout)
}

// FiscalYear returns the school year t falls in. The year starts in April:
// 2025-03-31 belongs to fiscal 2024, 2025-04-01 to fiscal 2025.
func FiscalYear(t time.Time) int {
	y, m, _ := t.In(JST).Date()
	if m >= time.April {
		return y
	}
	return y - 1
}
