package realtime

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

// LocalFeed in-process fan-out for single-instance deployments and tests.
type LocalFeed struct {
	mu   sync.Mutex
	subs map[*localSub]struct{}
}

type localSub struct {
	tables map[string]struct{}
	ch     chan Event
}

// NewLocalFeed creates an empty feed.
func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[*localSub]struct{})}
}

// Publish never blocks: a subscriber with a full buffer already has pending
// work and misses this event.
func (f *LocalFeed) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		if _, ok := s.tables[ev.Table]; !ok {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber removed when ctx is done.
func (f *LocalFeed) Subscribe(ctx context.Context, tables ...string) (<-chan Event, error) {
	s := &localSub{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan Event, subscriberBuffer),
	}
	for _, t := range tables {
		s.tables[t] = struct{}{}
	}

	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, s)
		close(s.ch)
		f.mu.Unlock()
	}()
	return s.ch, nil
}
