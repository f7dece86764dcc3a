package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spendbook/internal/core"
	applog "spendbook/internal/log"
	"spendbook/internal/notify"
)

// DefaultUndoWindow is how long a deleted expense can be brought back.
const DefaultUndoWindow = 3 * time.Second

// Direction is the direction a list entry was swiped in.
type Direction string

const (
	SwipeLeft  Direction = "left"
	SwipeRight Direction = "right"
)

// Action is what a swipe resolved to.
type Action string

const (
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

var ErrInvalidDirection = errors.New("invalid swipe direction")

// ParseDirection validates a swipe direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case SwipeLeft, SwipeRight:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// UndoSlot holds the most recently deleted expense until Until.
type UndoSlot struct {
	Expense core.Expense `json:"expense"`
	Until   time.Time    `json:"until"`
}

// SwipeResult tells the caller what happened. For ActionEdit, Expense is the
// record to prefill the edit form with; for ActionDelete it is the removed
// record and UndoUntil closes the undo window.
type SwipeResult struct {
	Action    Action       `json:"action"`
	Expense   core.Expense `json:"expense"`
	UndoUntil time.Time    `json:"undo_until,omitzero"`
}

// ListController holds the display ordering and the one-slot undo buffer
// over the repository's collection. It never reorders the collection itself.
type ListController struct {
	repo     *ExpenseRepository
	window   time.Duration
	now      func() time.Time
	notifier notify.Notifier
	logger   *applog.Logger

	mu   sync.Mutex
	mode core.SortMode
	slot *UndoSlot
}

// ControllerOption configures a ListController.
type ControllerOption func(*ListController)

func WithUndoWindow(d time.Duration) ControllerOption {
	return func(c *ListController) {
		if d > 0 {
			c.window = d
		}
	}
}

func WithClock(now func() time.Time) ControllerOption {
	return func(c *ListController) {
		if now != nil {
			c.now = now
		}
	}
}

func WithNotifier(n notify.Notifier) ControllerOption {
	return func(c *ListController) {
		if n != nil {
			c.notifier = n
		}
	}
}

func WithControllerLogger(logger *applog.Logger) ControllerOption {
	return func(c *ListController) {
		if logger != nil {
			c.logger = logger.WithComponent(applog.ComponentController)
		}
	}
}

func NewListController(repo *ExpenseRepository, opts ...ControllerOption) *ListController {
	c := &ListController{
		repo:     repo,
		window:   DefaultUndoWindow,
		now:      time.Now,
		notifier: notify.Nop,
		logger:   applog.Default(applog.ComponentController),
		mode:     core.DefaultSortMode,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetMode selects the ordering used by View.
func (c *ListController) SetMode(mode core.SortMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("set sort mode: invalid mode %q", mode)
	}
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	c.logger.Debug("Sort mode changed",
		applog.FieldOperation, applog.OpSort,
		applog.FieldSortMode, mode.String())
	return nil
}

func (c *ListController) Mode() core.SortMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// View derives the ordered list from the current collection.
func (c *ListController) View() []core.Expense {
	return core.Sorted(c.repo.List(), c.Mode())
}

// Delete removes the expense and keeps it in the undo slot for the undo
// window. A previous slot is dropped, making that deletion final.
func (c *ListController) Delete(ctx context.Context, id string) (UndoSlot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, ok := c.repo.Delete(ctx, id)
	if !ok {
		return UndoSlot{}, false
	}

	slot := UndoSlot{Expense: removed, Until: c.now().Add(c.window)}
	c.slot = &slot

	n := notify.New(notify.KindExpenseDeleted, "Expense deleted", nil)
	n.ExpenseID = removed.ID
	n.Until = slot.Until
	c.notifier.Notify(ctx, n)

	return slot, true
}

// Undo brings back the expense in the undo slot if the window is still
// open. Otherwise it does nothing.
func (c *ListController) Undo(ctx context.Context) (core.Expense, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.pendingLocked()
	if !ok {
		return core.Expense{}, false
	}
	c.slot = nil

	restored := c.repo.Restore(ctx, slot.Expense)
	c.logger.InfoContext(ctx, "Deletion undone",
		applog.FieldOperation, applog.OpUndo,
		applog.FieldExpenseID, restored.ID)
	return restored, true
}

// Pending returns the undo slot while its window is open.
func (c *ListController) Pending() (UndoSlot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *ListController) pendingLocked() (UndoSlot, bool) {
	if c.slot == nil {
		return UndoSlot{}, false
	}
	if c.now().After(c.slot.Until) {
		c.slot = nil
		return UndoSlot{}, false
	}
	return *c.slot, true
}

// Swipe maps a gesture on a list entry to its action: left opens the edit
// flow, right deletes with undo.
func (c *ListController) Swipe(ctx context.Context, id string, dir Direction) (SwipeResult, error) {
	switch dir {
	case SwipeLeft:
		e, ok := c.repo.Get(id)
		if !ok {
			return SwipeResult{}, fmt.Errorf("swipe %s: %w", id, ErrNotFound)
		}
		return SwipeResult{Action: ActionEdit, Expense: e}, nil
	case SwipeRight:
		slot, ok := c.Delete(ctx, id)
		if !ok {
			return SwipeResult{}, fmt.Errorf("swipe %s: %w", id, ErrNotFound)
		}
		return SwipeResult{Action: ActionDelete, Expense: slot.Expense, UndoUntil: slot.Until}, nil
	default:
		return SwipeResult{}, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
}
