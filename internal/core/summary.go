package core

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// TopCount is how many entries Summary.Top holds at most.
const TopCount = 3

// Summary is the spending analysis for a reference instant.
type Summary struct {
	Now     time.Time `json:"now"`
	Today   Amount    `json:"today_total"`
	Week    Amount    `json:"week_total"`
	Month   Amount    `json:"month_total"`
	Count   int       `json:"month_count"`
	Average Amount    `json:"month_average"`
	Highest Expense   `json:"highest"`
	Lowest  Expense   `json:"lowest"`
	Top     []Expense `json:"top"`
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Monday 00:00 of the ISO week containing t. For a
// Sunday that is the Monday six days earlier.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// SameDay reports whether t falls on now's calendar day, judged in now's location.
func SameDay(t, now time.Time) bool {
	ty, tm, td := t.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}

// SameMonth reports whether t falls in now's calendar month.
func SameMonth(t, now time.Time) bool {
	ty, tm, _ := t.In(now.Location()).Date()
	ny, nm, _ := now.Date()
	return ty == ny && tm == nm
}

// InWeek reports whether t lies in [StartOfWeek(now), now].
func InWeek(t, now time.Time) bool {
	return !t.Before(StartOfWeek(now)) && !t.After(now)
}

// Filter returns the expenses matching keep, preserving order.
func Filter(expenses []Expense, keep func(Expense) bool) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Total sums the amounts.
func Total(expenses []Expense) Amount {
	sum := Zero
	for _, e := range expenses {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// Average is total/count rounded to MaxAmountScale digits, and exactly zero
// for an empty slice.
func Average(expenses []Expense) Amount {
	if len(expenses) == 0 {
		return Zero
	}
	return Amount{Total(expenses).Div(decimal.NewFromInt(int64(len(expenses)))).Round(MaxAmountScale)}
}

// Highest returns the first entry with the largest amount.
func Highest(expenses []Expense) (Expense, bool) {
	return extremum(expenses, func(c int) bool { return c > 0 })
}

// Lowest returns the first entry with the smallest amount.
func Lowest(expenses []Expense) (Expense, bool) {
	return extremum(expenses, func(c int) bool { return c < 0 })
}

func extremum(expenses []Expense, better func(cmp int) bool) (Expense, bool) {
	if len(expenses) == 0 {
		return Expense{}, false
	}
	best := expenses[0]
	for _, e := range expenses[1:] {
		if better(e.Amount.Cmp(best.Amount)) {
			best = e
		}
	}
	return best, true
}

// TopN returns up to n entries by descending amount. Ties keep their
// relative order.
func TopN(expenses []Expense, n int) []Expense {
	sorted := slices.Clone(expenses)
	slices.SortStableFunc(sorted, func(a, b Expense) int {
		return b.Amount.Cmp(a.Amount)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Summarize computes every window total and the month statistics. Nothing is
// cached; each call walks the collection again.
func Summarize(expenses []Expense, now time.Time) Summary {
	today := Filter(expenses, func(e Expense) bool { return SameDay(e.Date, now) })
	week := Filter(expenses, func(e Expense) bool { return InWeek(e.Date, now) })
	month := Filter(expenses, func(e Expense) bool { return SameMonth(e.Date, now) })

	placeholder := Expense{Date: now}
	highest, ok := Highest(month)
	if !ok {
		highest = placeholder
	}
	lowest, ok := Lowest(month)
	if !ok {
		lowest = placeholder
	}

	return Summary{
		Now:     now,
		Today:   Total(today),
		Week:    Total(week),
		Month:   Total(month),
		Count:   len(month),
		Average: Average(month),
		Highest: highest,
		Lowest:  lowest,
		Top:     TopN(month, TopCount),
	}
}
