// Package notify carries user-facing notifications: storage failures,
// validation problems and the "expense deleted" message that offers undo.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	applog "spendbook/internal/log"
)

// Kind classifies a notification.
type Kind string

const (
	KindStorageReadFailure  Kind = "storage_read_failure"
	KindStorageWriteFailure Kind = "storage_write_failure"
	KindValidationFailure   Kind = "validation_failure"
	KindExpenseDeleted      Kind = "expense_deleted"
)

// IsFailure reports whether the kind describes an error.
func (k Kind) IsFailure() bool {
	switch k {
	case KindStorageReadFailure, KindStorageWriteFailure, KindValidationFailure:
		return true
	default:
		return false
	}
}

// Notification is a message for the user. Until, when set, is the instant
// after which the notification should no longer be shown.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Err       string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
	Until     time.Time `json:"until,omitzero"`
}

// New builds a notification stamped with a fresh id and time.
func New(kind Kind, message string, err error) Notification {
	n := Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
		At:      time.Now(),
	}
	if err != nil {
		n.Err = err.Error()
	}
	return n
}

// Notifier receives notifications. Implementations must not block for long;
// they are called from request handlers and the persistence goroutine.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Nop drops every notification.
var Nop Notifier = Func(func(context.Context, Notification) {})

// Multi fans a notification out to every non-nil notifier.
func Multi(notifiers ...Notifier) Notifier {
	var list []Notifier
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return Func(func(ctx context.Context, n Notification) {
		for _, target := range list {
			target.Notify(ctx, n)
		}
	})
}

// LogNotifier writes notifications to the structured log, failures at error
// level.
type LogNotifier struct {
	logger *applog.Logger
}

func NewLogNotifier(logger *applog.Logger) *LogNotifier {
	if logger == nil {
		logger = applog.Default(applog.ComponentNotify)
	}
	return &LogNotifier{logger: logger.WithComponent(applog.ComponentNotify)}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	args := []any{applog.FieldKind, string(n.Kind), "notification_id", n.ID}
	if n.ExpenseID != "" {
		args = append(args, applog.FieldExpenseID, n.ExpenseID)
	}
	if n.Err != "" {
		args = append(args, applog.FieldError, n.Err)
	}
	if n.Kind.IsFailure() {
		l.logger.ErrorContext(ctx, n.Message, args...)
		return
	}
	l.logger.InfoContext(ctx, n.Message, args...)
}
