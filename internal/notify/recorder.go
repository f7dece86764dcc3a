package notify

import (
	"context"
	"slices"
	"sync"
)

// Recorder keeps every notification it receives. Tests use it to assert on
// the side channel.
type Recorder struct {
	mu   sync.Mutex
	list []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, n)
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.list)
}

// Kinds returns the kinds in arrival order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.list))
	for i, n := range r.list {
		kinds[i] = n.Kind
	}
	return kinds
}
