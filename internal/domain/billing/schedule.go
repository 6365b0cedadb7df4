package billing

import (
	"time"
)

// IsDue classifies a template as due for generation at the given instant.
// True only when the document is a template, its schedule is active, and the
// next due date has passed. Purely advisory: nothing is mutated here, and
// generation does not change the classification — advancing the schedule is
// a separate, explicit edit.
func IsDue(doc *Document, now time.Time) bool {
	if doc == nil || !doc.IsRecurring || doc.Recurrence == nil {
		return false
	}
	if !doc.Recurrence.IsActive {
		return false
	}
	return !doc.Recurrence.NextDueDate.After(now)
}

// Advance computes the next occurrence after date for the given frequency.
//
// Weekly adds seven days. Monthly, quarterly and annual use calendar
// arithmetic keeping the day-of-month, clamped to the last valid day when
// the target month is shorter (Jan 31 + 1 month = Feb 28, or Feb 29 in a
// leap year).
func Advance(date time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return addMonthsClamped(date, 1)
	case FrequencyQuarterly:
		return addMonthsClamped(date, 3)
	case FrequencyAnnual:
		return addMonthsClamped(date, 12)
	}
	return date
}

// addMonthsClamped adds months without the day-overflow behavior of
// time.AddDate (which would turn Jan 31 + 1 month into Mar 2/3).
func addMonthsClamped(date time.Time, months int) time.Time {
	year, month, day := date.Date()

	m := int(month) - 1 + months
	year += m / 12
	month = time.Month(m%12 + 1)

	if last := daysInMonth(year, month); day > last {
		day = last
	}

	h, min, sec := date.Clock()
	return time.Date(year, month, day, h, min, sec, date.Nanosecond(), date.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
