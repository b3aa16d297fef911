package weekcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(day int) time.Time {
	return time.Date(2025, time.September, day, 0, 0, 0, 0, time.UTC)
}

func TestWeekOfMonth(t *testing.T) {
	cases := []struct {
		day    int
		expect int
	}{
		{day: 1, expect: 1},
		{day: 7, expect: 1},
		{day: 8, expect: 2},
		{day: 14, expect: 2},
		{day: 15, expect: 3},
		{day: 21, expect: 3},
		{day: 22, expect: 4},
		{day: 28, expect: 4},
		{day: 30, expect: 4},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, WeekOfMonth(date(test.day)), "day %d", test.day)
	}

	// months longer than 28 days still cap out at week 4
	require.Equal(t, 4, WeekOfMonth(time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC)))
}

func TestIsLastWeek(t *testing.T) {
	// day 22 of a 30 day month
	require.True(t, IsLastWeek(date(22)))
	require.False(t, IsLastWeek(date(21)))
	require.False(t, IsLastWeek(date(1)))
}

func TestMonthYear(t *testing.T) {
	d := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-03", MonthYear(d))
	require.Equal(t, "202503", MonthYearCompact(d))
}
