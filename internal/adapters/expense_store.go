package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"spendbook/internal/core"
	"spendbook/internal/kv"
	applog "spendbook/internal/log"
	"spendbook/internal/notify"
)

// DefaultKey is the key the expense collection is stored under.
const DefaultKey = "expenses-data"

// ExpenseStore adapts a kv.Store to the expense collection: the whole
// collection is one JSON array under a single key. Failures never reach the
// caller; they are reported to the notifier.
type ExpenseStore struct {
	store    kv.Store
	key      string
	notifier notify.Notifier
	logger   *applog.Logger
}

func NewExpenseStore(store kv.Store, key string, notifier notify.Notifier, logger *applog.Logger) *ExpenseStore {
	if key == "" {
		key = DefaultKey
	}
	if notifier == nil {
		notifier = notify.Nop
	}
	if logger == nil {
		logger = applog.Default(applog.ComponentStorage)
	}
	return &ExpenseStore{
		store:    store,
		key:      key,
		notifier: notifier,
		logger:   logger.WithComponent(applog.ComponentStorage),
	}
}

// Load returns the stored collection. A missing key yields an empty
// collection silently; unreadable or malformed data yields an empty
// collection and a storage_read_failure notification.
func (s *ExpenseStore) Load(ctx context.Context) []core.Expense {
	raw, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.readFailure(ctx, fmt.Errorf("read %s: %w", s.key, err))
		return []core.Expense{}
	}
	if !found || raw == "" {
		s.logger.InfoContext(ctx, "No stored expenses, starting empty", applog.FieldKey, s.key)
		return []core.Expense{}
	}

	expenses, err := decode(raw)
	if err != nil {
		s.readFailure(ctx, fmt.Errorf("parse %s: %w", s.key, err))
		return []core.Expense{}
	}

	s.logger.InfoContext(ctx, "Expenses loaded",
		applog.FieldKey, s.key,
		applog.FieldCount, len(expenses))
	return expenses
}

// Save writes the whole collection. It reports success; a failure has
// already been sent to the notifier.
func (s *ExpenseStore) Save(ctx context.Context, expenses []core.Expense) bool {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	body, err := json.Marshal(expenses)
	if err != nil {
		s.writeFailure(ctx, fmt.Errorf("encode expenses: %w", err))
		return false
	}
	if err := s.store.Set(ctx, s.key, string(body)); err != nil {
		s.writeFailure(ctx, fmt.Errorf("write %s: %w", s.key, err))
		return false
	}

	s.logger.DebugContext(ctx, "Expenses saved",
		applog.FieldOperation, applog.OpSave,
		applog.FieldKey, s.key,
		applog.FieldCount, len(expenses))
	return true
}

func decode(raw string) ([]core.Expense, error) {
	var expenses []core.Expense
	if err := json.Unmarshal([]byte(raw), &expenses); err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, nil
}

func (s *ExpenseStore) readFailure(ctx context.Context, err error) {
	s.notifier.Notify(ctx, notify.New(notify.KindStorageReadFailure, "Failed to load expenses.", err))
}

func (s *ExpenseStore) writeFailure(ctx context.Context, err error) {
	s.notifier.Notify(ctx, notify.New(notify.KindStorageWriteFailure, "Failed to save expenses.", err))
}
