package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	applog "spendbook/internal/log"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestFeedExpiresEntries(t *testing.T) {
	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	feed := NewFeedWithClock(10, 10*time.Second, clk.now)
	ctx := context.Background()

	failure := New(KindStorageWriteFailure, "Failed to save expenses.", errors.New("disk full"))
	failure.At = clk.t
	deleted := New(KindExpenseDeleted, "Expense deleted", nil)
	deleted.At = clk.t.Add(time.Millisecond)
	deleted.Until = clk.t.Add(3 * time.Second)

	feed.Notify(ctx, failure)
	feed.Notify(ctx, deleted)

	recent := feed.Recent()
	require.Len(t, recent, 2)
	require.Equal(t, KindExpenseDeleted, recent[0].Kind)

	clk.t = clk.t.Add(4 * time.Second)
	recent = feed.Recent()
	require.Len(t, recent, 1)
	require.Equal(t, KindStorageWriteFailure, recent[0].Kind)

	feed.Dismiss(failure.ID)
	require.Empty(t, feed.Recent())
}

func TestFeedDropsAlreadyExpired(t *testing.T) {
	clk := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	feed := NewFeedWithClock(10, time.Minute, clk.now)
	n := New(KindExpenseDeleted, "Expense deleted", nil)
	n.Until = clk.t.Add(-time.Second)
	feed.Notify(context.Background(), n)
	require.Empty(t, feed.Recent())
}

func TestMultiAndRecorder(t *testing.T) {
	var a, b Recorder
	m := Multi(&a, nil, &b)
	m.Notify(context.Background(), New(KindValidationFailure, "Please enter title and amount", nil))

	require.Equal(t, []Kind{KindValidationFailure}, a.Kinds())
	require.Len(t, b.All(), 1)
}

func TestLogNotifierLevels(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(applog.New(applog.Config{Output: &buf}))
	ctx := context.Background()

	n.Notify(ctx, New(KindStorageReadFailure, "Failed to load expenses.", errors.New("bad json")))
	n.Notify(ctx, Notification{Kind: KindExpenseDeleted, Message: "Expense deleted", ExpenseID: "e1"})

	out := buf.String()
	require.Contains(t, out, "level=ERROR")
	require.Contains(t, out, "kind=storage_read_failure")
	require.Contains(t, out, "expense_id=e1")
	require.Contains(t, out, "component=notify")
}

func TestKindIsFailure(t *testing.T) {
	require.True(t, KindStorageReadFailure.IsFailure())
	require.True(t, KindStorageWriteFailure.IsFailure())
	require.True(t, KindValidationFailure.IsFailure())
	require.False(t, KindExpenseDeleted.IsFailure())
}
