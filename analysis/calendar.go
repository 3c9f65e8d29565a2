package analysis

import "time"

// DateOf projects an instant onto its calendar date in the instant's own location.
// Dates are represented as midnight UTC so that day arithmetic is exact.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FirstOfMonth returns the first day of d's month.
func FirstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b. Both must be DateOf values.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// DiffMonth returns the number of calendar months from d2 to d1, ignoring the day of month.
func DiffMonth(d1, d2 time.Time) int {
	return (d1.Year()-d2.Year())*12 + int(d1.Month()) - int(d2.Month())
}

// AddMonths adds n calendar months to d, clamping the day to the last valid day of the target month
// (Jan 31 + 1 month is Feb 28 or 29).
func AddMonths(d time.Time, n int) time.Time {
	m := int(d.Month()) - 1 + n
	year := d.Year() + floorDiv(m, 12)
	month := time.Month(m-floorDiv(m, 12)*12 + 1)
	day := d.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
