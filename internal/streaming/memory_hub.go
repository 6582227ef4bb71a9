package streaming

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultChannelBuffer = 64

type subscription struct {
	events chan StreamEvent
	filter EventFilter
}

// MemoryHub is a process-local EventHub. Publishing never blocks: a
// subscriber whose buffer is full misses the event and the hub counts it in
// Dropped. Consumers that need every event poll the session snapshot instead.
type MemoryHub struct {
	mu      sync.RWMutex
	subs    map[*subscription]struct{}
	buffer  int
	dropped atomic.Uint64
}

func NewMemoryHub() *MemoryHub {
	return NewMemoryHubSize(defaultChannelBuffer)
}

// NewMemoryHubSize sets the per-subscriber buffer. Non-positive sizes fall
// back to the default.
func NewMemoryHubSize(buffer int) *MemoryHub {
	if buffer <= 0 {
		buffer = defaultChannelBuffer
	}
	return &MemoryHub{subs: map[*subscription]struct{}{}, buffer: buffer}
}

func (h *MemoryHub) Publish(ctx context.Context, event StreamEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.filter.Matches(event) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Subscribe registers a filtered subscription. Cancel is idempotent and
// closes the channel once the subscription is gone, so Publish never sends
// on a closed channel.
func (h *MemoryHub) Subscribe(ctx context.Context, filter EventFilter) (<-chan StreamEvent, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sub := &subscription{events: make(chan StreamEvent, h.buffer), filter: filter}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.events, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.events)
		})
	}, nil
}

// Subscribers returns the number of live subscriptions.
func (h *MemoryHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// buffer was full.
func (h *MemoryHub) Dropped() uint64 {
	return h.dropped.Load()
}

var _ EventHub = (*MemoryHub)(nil)
