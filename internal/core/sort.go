package core

import (
	"fmt"
	"slices"
	"strings"
)

// SortMode is a display ordering over the collection.
type SortMode string

const (
	SortNewest  SortMode = "newest"
	SortOldest  SortMode = "oldest"
	SortHighest SortMode = "highest"
	SortLowest  SortMode = "lowest"
)

// DefaultSortMode is the ordering shown before the user picks one.
const DefaultSortMode = SortNewest

func (m SortMode) String() string {
	return string(m)
}

func (m SortMode) IsValid() bool {
	switch m {
	case SortNewest, SortOldest, SortHighest, SortLowest:
		return true
	default:
		return false
	}
}

// ParseSortMode accepts the mode names plus the short "high"/"low" aliases.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "newest":
		return SortNewest, nil
	case "oldest":
		return SortOldest, nil
	case "highest", "high":
		return SortHighest, nil
	case "lowest", "low":
		return SortLowest, nil
	default:
		return "", fmt.Errorf("invalid sort mode %q", s)
	}
}

// Sorted returns a sorted copy; the input slice is never reordered. The sort
// is stable, so equal keys keep their collection order and sorting an
// already sorted list changes nothing.
func Sorted(expenses []Expense, mode SortMode) []Expense {
	out := slices.Clone(expenses)
	if out == nil {
		out = []Expense{}
	}
	switch mode {
	case SortNewest:
		slices.SortStableFunc(out, func(a, b Expense) int { return b.Date.Compare(a.Date) })
	case SortOldest:
		slices.SortStableFunc(out, func(a, b Expense) int { return a.Date.Compare(b.Date) })
	case SortHighest:
		slices.SortStableFunc(out, func(a, b Expense) int { return b.Amount.Cmp(a.Amount) })
	case SortLowest:
		slices.SortStableFunc(out, func(a, b Expense) int { return a.Amount.Cmp(b.Amount) })
	}
	return out
}
