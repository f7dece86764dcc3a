package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"spendbook/internal/core"
	applog "spendbook/internal/log"
)

type fakeSaver struct {
	mu      sync.Mutex
	saves   [][]core.Expense
	fail    bool
	started chan struct{}
	gate    chan struct{}
}

func (f *fakeSaver) Save(_ context.Context, expenses []core.Expense) bool {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, expenses)
	return !f.fail
}

func (f *fakeSaver) all() [][]core.Expense {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]core.Expense(nil), f.saves...)
}

func snapshot(ids ...string) []core.Expense {
	out := make([]core.Expense, len(ids))
	for i, id := range ids {
		out[i] = core.Expense{ID: id}
	}
	return out
}

func start(t *testing.T, p *Persister) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func flush(t *testing.T, p *Persister) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Flush(ctx))
}

func TestPersisterWritesDispatchedSnapshot(t *testing.T) {
	saver := &fakeSaver{}
	p := NewPersister(saver, applog.Discard())
	start(t, p)

	p.Dispatch(snapshot("a"))
	flush(t, p)

	saves := saver.all()
	require.Len(t, saves, 1)
	require.Equal(t, "a", saves[0][0].ID)
	require.Equal(t, Stats{Dispatched: 1, Saved: 1}, p.Stats())
}

func TestPersisterCoalescesWhileBusy(t *testing.T) {
	saver := &fakeSaver{started: make(chan struct{}, 4), gate: make(chan struct{})}
	p := NewPersister(saver, applog.Discard())
	start(t, p)

	p.Dispatch(snapshot("1"))
	<-saver.started // first write in progress

	p.Dispatch(snapshot("1", "2"))
	p.Dispatch(snapshot("1", "2", "3"))

	close(saver.gate)
	flush(t, p)

	saves := saver.all()
	require.Len(t, saves, 2)
	require.Len(t, saves[1], 3, "only the latest pending snapshot is written")
}

func TestPersisterCountsFailures(t *testing.T) {
	saver := &fakeSaver{fail: true}
	p := NewPersister(saver, applog.Discard())
	start(t, p)

	p.Dispatch(snapshot("a"))
	flush(t, p)

	require.Equal(t, uint64(1), p.Stats().Failed)
}

func TestPersisterDrainsOnShutdown(t *testing.T) {
	saver := &fakeSaver{}
	p := NewPersister(saver, applog.Discard())

	p.Dispatch(snapshot("late"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	saves := saver.all()
	require.Len(t, saves, 1)
	require.Equal(t, "late", saves[0][0].ID)
}

func TestFlushWithNothingPending(t *testing.T) {
	p := NewPersister(&fakeSaver{}, applog.Discard())
	require.NoError(t, p.Flush(context.Background()))
}

func TestFlushHonoursContext(t *testing.T) {
	p := NewPersister(&fakeSaver{}, applog.Discard())
	p.Dispatch(snapshot("never-written"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, p.Flush(ctx), context.DeadlineExceeded)
}
