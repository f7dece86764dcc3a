package amqp

import (
	"context"
	"sync"
	"testing"
	"time"

	applog "spendbook/internal/log"
	"spendbook/internal/notify"
)

type recordingPublisher struct {
	mu   sync.Mutex
	got  []notify.Notification
	done chan struct{}
}

func (p *recordingPublisher) PublishNotification(_ context.Context, n notify.Notification) error {
	p.mu.Lock()
	p.got = append(p.got, n)
	p.mu.Unlock()
	if p.done != nil {
		p.done <- struct{}{}
	}
	return nil
}

func TestNotifierPublishesInBackground(t *testing.T) {
	pub := &recordingPublisher{done: make(chan struct{}, 1)}
	n := NewNotifier(pub, 4, applog.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Notify(ctx, notify.New(notify.KindExpenseDeleted, "Expense deleted", nil))

	select {
	case <-pub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not published")
	}
}

func TestNotifierDropsWhenFullAndDrainsOnStop(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNotifier(pub, 2, applog.Discard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n.Notify(ctx, notify.New(notify.KindExpenseDeleted, "Expense deleted", nil))
	}

	runCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := n.Run(runCtx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(pub.got) != 2 {
		t.Fatalf("expected 2 published after drain, got %d", len(pub.got))
	}
}
