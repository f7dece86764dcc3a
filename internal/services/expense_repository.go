package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"spendbook/internal/core"
	applog "spendbook/internal/log"
)

var ErrNotFound = errors.New("expense not found")

type (
	// Loader reads the persisted collection. It never fails; problems are
	// reported through its own side channel.
	Loader interface {
		Load(ctx context.Context) []core.Expense
	}

	// Dispatcher takes a snapshot for best-effort persistence without
	// waiting for the write.
	Dispatcher interface {
		Dispatch(snapshot []core.Expense)
	}
)

// ExpenseRepository owns the in-memory expense collection. Every mutation
// changes memory immediately and then dispatches a snapshot for writing;
// a failed write is reported elsewhere and never rolled back here.
type ExpenseRepository struct {
	mu       sync.RWMutex
	expenses []core.Expense
	loader   Loader
	persist  Dispatcher
	newID    func() string
	logger   *applog.Logger
}

// RepositoryOption configures an ExpenseRepository.
type RepositoryOption func(*ExpenseRepository)

// WithIDGenerator replaces the default UUID v4 generator.
func WithIDGenerator(gen func() string) RepositoryOption {
	return func(r *ExpenseRepository) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithRepositoryLogger sets the logger.
func WithRepositoryLogger(logger *applog.Logger) RepositoryOption {
	return func(r *ExpenseRepository) {
		if logger != nil {
			r.logger = logger.WithComponent(applog.ComponentRepository)
		}
	}
}

func NewExpenseRepository(loader Loader, persist Dispatcher, opts ...RepositoryOption) *ExpenseRepository {
	r := &ExpenseRepository{
		expenses: []core.Expense{},
		loader:   loader,
		persist:  persist,
		newID:    uuid.NewString,
		logger:   applog.Default(applog.ComponentRepository),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the collection with the persisted one.
func (r *ExpenseRepository) Load(ctx context.Context) {
	var loaded []core.Expense
	if r.loader != nil {
		loaded = r.loader.Load(ctx)
	}
	if loaded == nil {
		loaded = []core.Expense{}
	}

	r.mu.Lock()
	r.expenses = loaded
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "Repository loaded",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldCount, len(loaded))
}

// Add validates the draft, assigns a fresh id and puts the expense at the
// head of the collection.
func (r *ExpenseRepository) Add(ctx context.Context, d core.Draft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e := d.WithID(r.freshIDLocked())
	r.prependLocked(e)

	r.logger.InfoContext(ctx, "Expense added",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithExpense(e.ID, e.Title, e.Amount.String()).
			ToSlice()...)
	return e, nil
}

// Update merges the patch over the expense with the given id. A missing id
// is not an error: found is false and nothing changes.
func (r *ExpenseRepository) Update(ctx context.Context, id string, p core.Patch) (core.Expense, bool, error) {
	if err := p.Validate(); err != nil {
		return core.Expense{}, false, fmt.Errorf("update expense %s: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		r.logger.DebugContext(ctx, "Update of unknown expense ignored", applog.FieldExpenseID, id)
		return core.Expense{}, false, nil
	}

	updated := p.Apply(r.expenses[i])
	next := slices.Clone(r.expenses)
	next[i] = updated
	r.replaceLocked(next)

	r.logger.InfoContext(ctx, "Expense updated",
		applog.NewFields().
			WithOperation(applog.OpUpdate).
			WithExpense(updated.ID, updated.Title, updated.Amount.String()).
			ToSlice()...)
	return updated, true, nil
}

// Delete removes the expense with the given id and returns it.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) (core.Expense, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return core.Expense{}, false
	}

	removed := r.expenses[i]
	r.replaceLocked(slices.Delete(slices.Clone(r.expenses), i, i+1))

	r.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	return removed, true
}

// Restore puts a previously removed expense back at the head. The original
// id is kept unless another expense holds it by now.
func (r *ExpenseRepository) Restore(ctx context.Context, e core.Expense) core.Expense {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" || r.indexLocked(e.ID) >= 0 {
		e.ID = r.freshIDLocked()
	}
	r.prependLocked(e)

	r.logger.InfoContext(ctx, "Expense restored",
		applog.FieldOperation, applog.OpRestore,
		applog.FieldExpenseID, e.ID)
	return e
}

// Get returns the expense with the given id.
func (r *ExpenseRepository) Get(id string) (core.Expense, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.expenses[i], true
	}
	return core.Expense{}, false
}

// List returns a copy of the collection in stored order (most recent add
// first).
func (r *ExpenseRepository) List() []core.Expense {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.expenses)
}

// Len returns the number of expenses.
func (r *ExpenseRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.expenses)
}

func (r *ExpenseRepository) indexLocked(id string) int {
	return slices.IndexFunc(r.expenses, func(e core.Expense) bool { return e.ID == id })
}

func (r *ExpenseRepository) freshIDLocked() string {
	for {
		id := r.newID()
		if id != "" && r.indexLocked(id) < 0 {
			return id
		}
	}
}

func (r *ExpenseRepository) prependLocked(e core.Expense) {
	next := make([]core.Expense, 0, len(r.expenses)+1)
	next = append(next, e)
	next = append(next, r.expenses...)
	r.replaceLocked(next)
}

// replaceLocked swaps in a new backing slice and dispatches it. Slices handed
// to the dispatcher are never written again, so it can hold on to them.
func (r *ExpenseRepository) replaceLocked(next []core.Expense) {
	r.expenses = next
	if r.persist != nil {
		r.persist.Dispatch(next)
	}
}
