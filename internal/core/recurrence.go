package core

import "time"

// OccurrencesInPeriod expands a recurring spend into the dates it falls on within
// [periodStart, periodEnd], both bounds inclusive at day granularity. All dates are
// midnight in the location of the inputs and the result is sorted ascending.
//
// No occurrence is produced before the recurrence's own start date. The fortnightly
// cadence is anchored to the first matching weekday of this calculation, so windows
// starting on different days may select a different 14-day phase.
func OccurrencesInPeriod(rs RecurringSpend, periodStart, periodEnd time.Time) []time.Time {
	start := Midnight(rs.StartDate)
	pStart := Midnight(periodStart)
	pEnd := Midnight(periodEnd)

	if start.After(pEnd) {
		return nil
	}

	calcStart := maxTime(start, pStart)

	switch rs.ScheduleFrequency {
	case Weekly:
		return stepByDays(calcStart, pEnd, rs.weekday(), 7)
	case Fortnightly:
		return stepByDays(calcStart, pEnd, rs.weekday(), 14)
	case Monthly:
		return monthly(calcStart, pEnd, rs.monthDay())
	default:
		return nil
	}
}

// weekday is the target weekday, falling back to the start date's weekday.
func (rs RecurringSpend) weekday() time.Weekday {
	if rs.DayOfWeek != nil {
		return time.Weekday(*rs.DayOfWeek)
	}
	return rs.StartDate.Weekday()
}

// monthDay is the target day of month, falling back to the start date's day.
func (rs RecurringSpend) monthDay() int {
	if rs.DayOfMonth != nil {
		return *rs.DayOfMonth
	}
	return rs.StartDate.Day()
}

func stepByDays(from, until time.Time, target time.Weekday, step int) []time.Time {
	offset := (int(target) - int(from.Weekday()) + 7) % 7
	current := from.AddDate(0, 0, offset)

	var dates []time.Time
	for !current.After(until) {
		dates = append(dates, current)
		// AddDate returns a new value and keeps wall-clock midnight across DST changes.
		current = current.AddDate(0, 0, step)
	}
	return dates
}

func monthly(from, until time.Time, day int) []time.Time {
	loc := from.Location()
	year, month := from.Year(), from.Month()

	current := clampedDate(year, month, day, loc)
	if current.Before(from) {
		year, month = nextMonth(year, month)
		current = clampedDate(year, month, day, loc)
	}

	var dates []time.Time
	for !current.After(until) {
		dates = append(dates, current)
		year, month = nextMonth(year, month)
		current = clampedDate(year, month, day, loc)
	}
	return dates
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
