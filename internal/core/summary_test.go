package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func exp(id string, amount float64, date time.Time) Expense {
	return Expense{ID: id, Title: id, Amount: NewAmount(amount), Date: date}
}

func TestSummarizeMonth(t *testing.T) {
	now := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	expenses := []Expense{
		exp("a", 100, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
		exp("b", 50, time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)),
		exp("c", 200, time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)),
	}

	s := Summarize(expenses, now)

	require.True(t, s.Month.Equal(NewAmount(150)), "month total %s", s.Month)
	require.Equal(t, 2, s.Count)
	require.True(t, s.Average.Equal(NewAmount(75)), "average %s", s.Average)
	require.Equal(t, "a", s.Highest.ID)
	require.Equal(t, "b", s.Lowest.ID)
	require.Len(t, s.Top, 2)
	require.Equal(t, "a", s.Top[0].ID)
	require.Equal(t, "b", s.Top[1].ID)
	require.True(t, s.Today.Equal(NewAmount(50)), "today %s", s.Today)
	// 2024-06-15 is a Saturday; the week starts Monday 2024-06-10.
	require.True(t, s.Week.Equal(NewAmount(50)), "week %s", s.Week)
}

func TestSummarizeEmptyMonth(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	s := Summarize([]Expense{exp("old", 20, time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC))}, now)

	require.Equal(t, 0, s.Count)
	require.True(t, s.Average.IsZero())
	require.True(t, s.Month.IsZero())
	require.Empty(t, s.Top)
	require.Equal(t, "", s.Highest.Title)
	require.True(t, s.Highest.Amount.IsZero())
	require.Equal(t, "", s.Lowest.Title)
	require.True(t, s.Lowest.Amount.IsZero())
	require.True(t, s.Highest.Date.Equal(now))

	s = Summarize(nil, now)
	require.True(t, s.Average.IsZero())
}

func TestStartOfWeek(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		// Sunday: previous Monday, six days earlier.
		{time.Date(2024, 6, 16, 20, 30, 0, 0, time.UTC), time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		// Monday: same day at midnight.
		{time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC), time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		// Wednesday.
		{time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC), time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)},
		// Across a month boundary.
		{time.Date(2024, 7, 2, 8, 0, 0, 0, time.UTC), time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), time.Date(2024, 2, 26, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		require.True(t, StartOfWeek(tc.now).Equal(tc.want), "now=%s got=%s", tc.now, StartOfWeek(tc.now))
	}
}

func TestWeekWindowIsInclusiveOfNow(t *testing.T) {
	now := time.Date(2024, 6, 16, 12, 0, 0, 0, time.UTC) // Sunday
	expenses := []Expense{
		exp("monday-midnight", 1, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)),
		exp("at-now", 2, now),
		exp("sunday-before", 4, time.Date(2024, 6, 9, 23, 59, 0, 0, time.UTC)),
		exp("later-today", 8, now.Add(time.Hour)),
	}

	s := Summarize(expenses, now)
	require.True(t, s.Week.Equal(NewAmount(3)), "week %s", s.Week)
	require.True(t, s.Today.Equal(NewAmount(10)), "today %s", s.Today)
}

func TestWindowsUseNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2024, 6, 1, 1, 0, 0, 0, loc)
	// 2024-05-31 21:00 UTC is 2024-06-01 02:00 in UTC+5.
	e := exp("late", 5, time.Date(2024, 5, 31, 21, 0, 0, 0, time.UTC))

	require.True(t, SameDay(e.Date, now))
	require.True(t, SameMonth(e.Date, now))
}

func TestAverageRoundsToAmountScale(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	avg := Average([]Expense{exp("a", 10, base), exp("b", 10, base), exp("c", 0, base)})

	require.NoError(t, avg.Validate())
	require.Equal(t, "6.66666667", avg.String())
}

func TestTopNStableOnTies(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	expenses := []Expense{
		exp("x", 10, base), exp("y", 30, base), exp("z", 10, base), exp("w", 30, base), exp("v", 5, base),
	}
	top := TopN(expenses, 3)
	require.Equal(t, []string{"y", "w", "x"}, ids(top))
	// input untouched
	require.Equal(t, []string{"x", "y", "z", "w", "v"}, ids(expenses))
}

func TestExtremaPickFirstOnTies(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	expenses := []Expense{exp("a", 5, base), exp("b", 9, base), exp("c", 9, base), exp("d", 5, base)}

	hi, ok := Highest(expenses)
	require.True(t, ok)
	require.Equal(t, "b", hi.ID)
	lo, ok := Lowest(expenses)
	require.True(t, ok)
	require.Equal(t, "a", lo.ID)
}

func ids(expenses []Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}
