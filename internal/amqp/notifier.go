package amqp

import (
	"context"
	"time"

	applog "spendbook/internal/log"
	"spendbook/internal/notify"
)

// DefaultQueueSize bounds the notifications waiting to be published.
const DefaultQueueSize = 64

// Publisher publishes one notification.
type Publisher interface {
	PublishNotification(ctx context.Context, n notify.Notification) error
}

// Notifier forwards notifications to the broker from its own goroutine, so
// Notify never waits on the network. When the queue is full the newest
// notification is dropped.
type Notifier struct {
	pub    Publisher
	queue  chan notify.Notification
	logger *applog.Logger
}

func NewNotifier(pub Publisher, queueSize int, logger *applog.Logger) *Notifier {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = applog.Default(applog.ComponentAMQP)
	}
	return &Notifier{
		pub:    pub,
		queue:  make(chan notify.Notification, queueSize),
		logger: logger.WithComponent(applog.ComponentAMQP),
	}
}

func (n *Notifier) Notify(ctx context.Context, note notify.Notification) {
	select {
	case n.queue <- note:
	default:
		n.logger.WarnContext(ctx, "Notification queue full, dropping",
			applog.FieldKind, note.Kind)
	}
}

// Run publishes queued notifications until ctx is cancelled, then makes a
// bounded attempt at whatever is still queued.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n.drain(context.WithoutCancel(ctx))
			return nil
		case note := <-n.queue:
			n.publish(ctx, note)
		}
	}
}

func (n *Notifier) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for {
		select {
		case note := <-n.queue:
			n.publish(ctx, note)
		default:
			return
		}
	}
}

func (n *Notifier) publish(ctx context.Context, note notify.Notification) {
	if err := n.pub.PublishNotification(ctx, note); err != nil {
		n.logger.WarnContext(ctx, "Failed to publish notification",
			applog.FieldKind, note.Kind,
			applog.FieldError, err)
	}
}
