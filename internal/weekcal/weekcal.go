// Package weekcal maps calendar dates onto the collection cadence.
// A month is divided into four collection weeks: days 1-7, 8-14,
// 15-21 and 22 through the end of the month.
package weekcal

import "time"

func WeekOfMonth(t time.Time) int {
	day := t.Day()
	if day >= 22 {
		return 4
	}
	return (day-1)/7 + 1
}

// the fourth collection week triggers the monthly rollup.
func IsLastWeek(t time.Time) bool {
	return WeekOfMonth(t) == 4
}

// MonthYear renders the "YYYY-MM" label used in filenames, sheet tab
// names and summaries.
func MonthYear(t time.Time) string {
	return t.Format("2006-01")
}

// MonthYearCompact renders the "YYYYMM" form embedded in filenames.
func MonthYearCompact(t time.Time) string {
	return t.Format("200601")
}
