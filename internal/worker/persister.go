package worker

import (
	"context"
	"sync"

	"spendbook/internal/core"
	applog "spendbook/internal/log"
)

// Saver writes a full expense collection and reports whether it succeeded.
type Saver interface {
	Save(ctx context.Context, expenses []core.Expense) bool
}

// Stats counts completed writes.
type Stats struct {
	Dispatched uint64
	Saved      uint64
	Failed     uint64
}

type waiter struct {
	seq uint64
	ch  chan struct{}
}

// Persister is the single background writer behind the repository. Dispatch
// never blocks: when a snapshot is still waiting to be written, a newer one
// replaces it, so only the latest state reaches storage.
type Persister struct {
	saver  Saver
	logger *applog.Logger
	wake   chan struct{}

	mu         sync.Mutex
	pending    []core.Expense
	hasPending bool
	dispatched uint64
	written    uint64
	stats      Stats
	waiters    []waiter
}

func NewPersister(saver Saver, logger *applog.Logger) *Persister {
	if logger == nil {
		logger = applog.Default(applog.ComponentPersister)
	}
	return &Persister{
		saver:  saver,
		logger: logger.WithComponent(applog.ComponentPersister),
		wake:   make(chan struct{}, 1),
	}
}

// Dispatch hands a snapshot to the writer. The caller must not modify the
// slice afterwards.
func (p *Persister) Dispatch(snapshot []core.Expense) {
	p.mu.Lock()
	p.pending = snapshot
	p.hasPending = true
	p.dispatched++
	p.stats.Dispatched++
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run writes dispatched snapshots until ctx is cancelled, then writes
// whatever is still pending and returns.
func (p *Persister) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "Persister started")
	for {
		select {
		case <-ctx.Done():
			p.drain(context.WithoutCancel(ctx))
			p.logger.Info("Persister stopped", "saved", p.Stats().Saved, "failed", p.Stats().Failed)
			return nil
		case <-p.wake:
			p.drain(ctx)
		}
	}
}

func (p *Persister) drain(ctx context.Context) {
	for {
		p.mu.Lock()
		if !p.hasPending {
			p.mu.Unlock()
			return
		}
		snapshot, seq := p.pending, p.dispatched
		p.pending, p.hasPending = nil, false
		p.mu.Unlock()

		ok := p.saver.Save(ctx, snapshot)

		p.mu.Lock()
		if ok {
			p.stats.Saved++
		} else {
			p.stats.Failed++
		}
		p.written = seq
		p.releaseLocked()
		p.mu.Unlock()

		if !ok {
			p.logger.WarnContext(ctx, "Snapshot not persisted, keeping in-memory state",
				applog.FieldCount, len(snapshot))
		}
	}
}

func (p *Persister) releaseLocked() {
	kept := p.waiters[:0]
	for _, w := range p.waiters {
		if w.seq <= p.written {
			close(w.ch)
			continue
		}
		kept = append(kept, w)
	}
	p.waiters = kept
}

// Flush blocks until every snapshot dispatched before the call has been
// written (successfully or not), or ctx is done. It needs Run to be active.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.written >= p.dispatched {
		p.mu.Unlock()
		return nil
	}
	w := waiter{seq: p.dispatched, ch: make(chan struct{})}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
