package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spendbook/internal/core"
	applog "spendbook/internal/log"
	"spendbook/internal/notify"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newController(t *testing.T) (*ListController, *harness, *testClock, *notify.Recorder) {
	t.Helper()
	h := newHarness(t, WithIDGenerator(sequentialIDs()))
	clk := &testClock{t: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
	rec := &notify.Recorder{}
	c := NewListController(h.repo,
		WithClock(clk.Now),
		WithNotifier(rec),
		WithUndoWindow(3*time.Second),
		WithControllerLogger(applog.Discard()),
	)
	return c, h, clk, rec
}

func seed(t *testing.T, h *harness) {
	t.Helper()
	ctx := context.Background()
	for _, d := range []core.Draft{
		draft("rent", 900, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		draft("coffee", 3, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)),
		draft("shoes", 80, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)),
	} {
		_, err := h.repo.Add(ctx, d)
		require.NoError(t, err)
	}
}

func titles(expenses []core.Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.Title
	}
	return out
}

func TestViewFollowsMode(t *testing.T) {
	c, h, _, _ := newController(t)
	seed(t, h)
	stored := titles(h.repo.List())

	require.Equal(t, core.SortNewest, c.Mode())
	require.Equal(t, []string{"coffee", "rent", "shoes"}, titles(c.View()))

	require.NoError(t, c.SetMode(core.SortHighest))
	require.Equal(t, []string{"rent", "shoes", "coffee"}, titles(c.View()))

	require.NoError(t, c.SetMode(core.SortLowest))
	require.Equal(t, []string{"coffee", "shoes", "rent"}, titles(c.View()))

	require.NoError(t, c.SetMode(core.SortOldest))
	require.Equal(t, []string{"shoes", "rent", "coffee"}, titles(c.View()))

	require.Equal(t, stored, titles(h.repo.List()), "stored order untouched")
	require.Error(t, c.SetMode("sideways"))
	require.Equal(t, core.SortOldest, c.Mode())
}

func TestDeleteThenUndoRestoresFields(t *testing.T) {
	c, h, clk, rec := newController(t)
	seed(t, h)
	ctx := context.Background()
	original, _ := h.repo.Get("id-2")

	slot, ok := c.Delete(ctx, "id-2")
	require.True(t, ok)
	require.Equal(t, clk.Now().Add(3*time.Second), slot.Until)
	require.Equal(t, 2, h.repo.Len())
	require.Equal(t, []notify.Kind{notify.KindExpenseDeleted}, rec.Kinds())
	require.Equal(t, "id-2", rec.All()[0].ExpenseID)

	clk.Advance(2 * time.Second)
	restored, ok := c.Undo(ctx)
	require.True(t, ok)
	require.Equal(t, original, restored)
	require.Equal(t, 3, h.repo.Len())
	require.Equal(t, "id-2", h.repo.List()[0].ID, "restored at the head")

	_, ok = c.Undo(ctx)
	require.False(t, ok, "slot is single use")
}

func TestUndoAfterWindowIsNoop(t *testing.T) {
	c, h, clk, _ := newController(t)
	seed(t, h)
	ctx := context.Background()

	_, ok := c.Delete(ctx, "id-1")
	require.True(t, ok)
	_, pending := c.Pending()
	require.True(t, pending)

	clk.Advance(3*time.Second + time.Millisecond)
	_, pending = c.Pending()
	require.False(t, pending)
	_, ok = c.Undo(ctx)
	require.False(t, ok)
	require.Equal(t, 2, h.repo.Len())
}

func TestSecondDeleteReplacesSlot(t *testing.T) {
	c, h, _, _ := newController(t)
	seed(t, h)
	ctx := context.Background()

	_, _ = c.Delete(ctx, "id-1")
	_, _ = c.Delete(ctx, "id-2")

	restored, ok := c.Undo(ctx)
	require.True(t, ok)
	require.Equal(t, "id-2", restored.ID)
	_, found := h.repo.Get("id-1")
	require.False(t, found, "first deletion is final")
}

func TestDeleteUnknownLeavesSlotAlone(t *testing.T) {
	c, h, _, rec := newController(t)
	seed(t, h)

	_, ok := c.Delete(context.Background(), "nope")
	require.False(t, ok)
	_, pending := c.Pending()
	require.False(t, pending)
	require.Empty(t, rec.All())
}

func TestSwipe(t *testing.T) {
	c, h, _, _ := newController(t)
	seed(t, h)
	ctx := context.Background()

	res, err := c.Swipe(ctx, "id-3", SwipeLeft)
	require.NoError(t, err)
	require.Equal(t, ActionEdit, res.Action)
	require.Equal(t, "shoes", res.Expense.Title)
	require.Equal(t, 3, h.repo.Len(), "edit does not mutate")

	res, err = c.Swipe(ctx, "id-3", SwipeRight)
	require.NoError(t, err)
	require.Equal(t, ActionDelete, res.Action)
	require.False(t, res.UndoUntil.IsZero())
	require.Equal(t, 2, h.repo.Len())

	_, err = c.Swipe(ctx, "id-3", SwipeLeft)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = c.Swipe(ctx, "id-1", Direction("up"))
	require.ErrorIs(t, err, ErrInvalidDirection)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("right")
	require.NoError(t, err)
	require.Equal(t, SwipeRight, d)
	_, err = ParseDirection("diagonal")
	require.ErrorIs(t, err, ErrInvalidDirection)
}
