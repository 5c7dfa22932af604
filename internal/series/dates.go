package series

import "time"

// Span is how many consecutive years a yearly series covers when created
// or extended: the start year plus two more.
const Span = 3

// StartYear picks the first year of a yearly series from the user-supplied
// date's year and the current year. A series may start at most one year in
// the past; older dates are pulled forward to currentYear-1. The second
// return value reports whether the year was adjusted, which callers surface
// as a warning.
func StartYear(inputYear, currentYear int) (int, bool) {
	if inputYear >= currentYear-1 {
		return inputYear, false
	}
	return currentYear - 1, true
}

// StartDate resolves the first occurrence of a series from the anchor's
// month/day and the chosen start year. A Feb-29 anchor landing on a non-leap
// start year is clamped to Feb 28, a one-time correction applied only when
// establishing the series start. Extension years are never clamped; see Dates.
func StartDate(anchor time.Time, startYear int) time.Time {
	month, day := anchor.Month(), anchor.Day()
	if month == time.February && day == 29 && !isLeap(startYear) {
		day = 28
	}
	return time.Date(startYear, month, day, 0, 0, 0, 0, time.UTC)
}

// Dates produces one occurrence date per year for years consecutive years
// beginning at startYear, keeping the anchor's month and day. The start year
// is clamped per StartDate; later years where the date does not exist
// (Feb 29 outside a leap year) are skipped, so the result may be shorter
// than requested.
func Dates(anchor time.Time, startYear, years int) []time.Time {
	month, day := anchor.Month(), anchor.Day()

	dates := make([]time.Time, 0, years)
	for year := startYear; year < startYear+years; year++ {
		if year == startYear {
			dates = append(dates, StartDate(anchor, startYear))
			continue
		}
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if d.Month() != month || d.Day() != day {
			// time.Date normalized an impossible date (Feb 29 in a
			// non-leap year rolls to Mar 1): skip this year.
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// YearDate places the anchor's month/day in the given year, reporting false
// when the date does not exist in that year.
func YearDate(anchor time.Time, year int) (time.Time, bool) {
	month, day := anchor.Month(), anchor.Day()
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
