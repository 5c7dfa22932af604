package reminder

import (
	"time"

	"pawtrack/internal/model"
)

// Window is how far now may drift from the configured remind time, on either
// side, for the reminder to fire.
const Window = 3 * time.Minute

// WeekdayIndex converts time.Weekday to the 0=Monday..6=Sunday numbering
// stored in reminder repeat-day sets.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Due reports whether the reminder should fire at now. Four gates, all of
// which must pass:
//
//  1. a remind time is configured;
//  2. the date pattern matches: for yearly events the event's month/day
//     equals today's (the reminder's own date and repeat settings are
//     ignored), otherwise either the one-shot remind date is today or
//     today's weekday is in the repeat set;
//  3. now falls within ±Window of today's remind time;
//  4. it has not already fired today.
func Due(r model.Reminder, e model.Event, now time.Time) bool {
	if r.RemindAt == nil {
		return false
	}

	today := now

	switch {
	case e.IsYearly:
		if e.Date.Month() != today.Month() || e.Date.Day() != today.Day() {
			return false
		}
	case !r.Repeat:
		if r.RemindDate == nil || !sameDay(*r.RemindDate, today) {
			return false
		}
	default:
		if !containsDay(r.RepeatDays, WeekdayIndex(today.Weekday())) {
			return false
		}
	}

	remindAt, err := time.Parse("15:04", *r.RemindAt)
	if err != nil {
		return false
	}
	target := time.Date(now.Year(), now.Month(), now.Day(),
		remindAt.Hour(), remindAt.Minute(), 0, 0, now.Location())
	diff := now.Sub(target)
	if diff < -Window || diff > Window {
		return false
	}

	if r.LastReminded != nil && sameDay(*r.LastReminded, today) {
		return false
	}

	return true
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
