package notify

import (
	"context"
	"slices"
	"time"

	"spendbook/internal/cache"
)

const (
	DefaultFeedSize = 50
	DefaultFeedTTL  = 10 * time.Second
)

// Feed keeps recent notifications for the presentation layer to poll. Each
// entry disappears once its display duration is over: Until when set,
// otherwise the feed TTL.
type Feed struct {
	entries *cache.LRUCache[Notification]
	ttl     time.Duration
	now     func() time.Time
}

func NewFeed(size int, ttl time.Duration) *Feed {
	return NewFeedWithClock(size, ttl, time.Now)
}

func NewFeedWithClock(size int, ttl time.Duration, now func() time.Time) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	if ttl <= 0 {
		ttl = DefaultFeedTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Feed{
		entries: cache.NewLRUCacheWithClock[Notification](size, ttl, now),
		ttl:     ttl,
		now:     now,
	}
}

func (f *Feed) Notify(_ context.Context, n Notification) {
	ttl := f.ttl
	if !n.Until.IsZero() {
		ttl = n.Until.Sub(f.now())
		if ttl <= 0 {
			return
		}
	}
	f.entries.SetWithTTL(n.ID, n, ttl)
}

// Dismiss removes a notification before it expires.
func (f *Feed) Dismiss(id string) {
	f.entries.Delete(id)
}

// Recent returns the live notifications, newest first.
func (f *Feed) Recent() []Notification {
	out := f.entries.Values()
	slices.SortStableFunc(out, func(a, b Notification) int { return b.At.Compare(a.At) })
	return out
}

// CleanExpired implements cache.Cleaner.
func (f *Feed) CleanExpired() int {
	return f.entries.CleanExpired()
}
