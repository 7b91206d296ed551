package timeline

import (
	"fmt"
	"time"
)

// breakdown decomposes an elapsed duration into calendar-ish units using
// fixed divisors (60s, 60m, 24h, 7d, 4w). Months are left cumulative since
// the display never rolls them into years.
type breakdown struct {
	seconds int64
	minutes int64
	hours   int64
	days    int64
	weeks   int64
	months  int64
}

func decompose(totalSeconds int64) breakdown {
	var b breakdown
	b.seconds = totalSeconds % 60
	totalMinutes := totalSeconds / 60
	b.minutes = totalMinutes % 60
	totalHours := totalMinutes / 60
	b.hours = totalHours % 24
	totalDays := totalHours / 24
	b.days = totalDays % 7
	totalWeeks := totalDays / 7
	b.weeks = totalWeeks % 4
	b.months = totalWeeks / 4
	return b
}

// FormatBreakdown renders the elapsed time between two instants as a compact
// string of at most two units, most significant first (e.g. "3D 4H").
// Negative elapsed time clamps to zero. The same tie-break table serves both
// the live "time since enquiry" badge and stage-transition analytics, so the
// unit selection below must not drift:
//
//  1. months > 0: "<months>M", plus "<weeks>W" when weeks > 0
//  2. weeks > 0:  "<weeks>W", plus "<days>D" when days > 0
//  3. days > 0:   "<days>D", plus "<hours>H" when hours > 0
//  4. hours > 0:  "<hours>H", plus "<minutes>M" only when both instants fall
//     on the same calendar day
//  5. minutes > 0: "<minutes>M", plus "<seconds>S" only when total elapsed
//     is under one hour
//  6. seconds > 0 (elapsed under one hour): "<seconds>S"
//  7. otherwise "0S"
func FormatBreakdown(from, to time.Time) string {
	if to.Before(from) {
		to = from
	}

	totalSeconds := int64(to.Sub(from) / time.Second)
	b := decompose(totalSeconds)

	sameDay := from.Year() == to.Year() && from.YearDay() == to.YearDay()
	underHour := totalSeconds < 3600

	switch {
	case b.months > 0:
		if b.weeks > 0 {
			return fmt.Sprintf("%dM %dW", b.months, b.weeks)
		}
		return fmt.Sprintf("%dM", b.months)

	case b.weeks > 0:
		if b.days > 0 {
			return fmt.Sprintf("%dW %dD", b.weeks, b.days)
		}
		return fmt.Sprintf("%dW", b.weeks)

	case b.days > 0:
		if b.hours > 0 {
			return fmt.Sprintf("%dD %dH", b.days, b.hours)
		}
		return fmt.Sprintf("%dD", b.days)

	case b.hours > 0:
		if b.minutes > 0 && sameDay {
			return fmt.Sprintf("%dH %dM", b.hours, b.minutes)
		}
		return fmt.Sprintf("%dH", b.hours)

	case b.minutes > 0:
		if b.seconds > 0 && underHour {
			return fmt.Sprintf("%dM %dS", b.minutes, b.seconds)
		}
		return fmt.Sprintf("%dM", b.minutes)

	case b.seconds > 0 && underHour:
		return fmt.Sprintf("%dS", b.seconds)

	default:
		return "0S"
	}
}

// Age renders the elapsed time from an instant to now, for live badges.
func Age(since time.Time) string {
	return FormatBreakdown(since, time.Now())
}
