// Package status publishes per-job stages to any number of subscribers.
//
// Broadcast is a keyed multiplexer with replay depth 1: a subscriber that
// attaches late first receives the current stage of its key, then every later
// stage in publish order. Closing the Broadcast completes all subscriptions.
//
//	b := status.NewBroadcast()
//	b.Set("Song", model.Queued())
//
//	for st := range b.Stages(ctx, "Song") {
//	    fmt.Println(st)
//	    if st.IsTerminal() {
//	        break
//	    }
//	}
package status

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/handiism/trackflyer/internal/model"
)

const subscriberBuffer = 16

// Broadcast is safe for concurrent use.
type Broadcast struct {
	mu     sync.Mutex
	latest map[string]model.Stage
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

// NewBroadcast creates an open Broadcast.
func NewBroadcast() *Broadcast {
	return &Broadcast{
		latest: make(map[string]model.Stage),
		subs:   make(map[string]map[*Subscription]struct{}),
	}
}

// Set records st as the latest stage of key and fans it out to the key's
// subscribers. Set never blocks on slow subscribers. After Close it is a no-op.
func (b *Broadcast) Set(key string, st model.Stage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.latest[key] = st
	for s := range b.subs[key] {
		s.push(st)
	}
}

// Latest returns the most recent stage published for key.
func (b *Broadcast) Latest(key string) (model.Stage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.latest[key]
	return st, ok
}

// Snapshot returns a copy of the latest stage of every key.
func (b *Broadcast) Snapshot() map[string]model.Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return maps.Clone(b.latest)
}

// Keys returns every key that has been published, sorted.
func (b *Broadcast) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Sorted(maps.Keys(b.latest))
}

// Subscribe attaches to key. The subscription ends when ctx is done, when it is
// closed, or when the Broadcast is closed and every queued stage was delivered.
func (b *Broadcast) Subscribe(ctx context.Context, key string) *Subscription {
	s := &Subscription{
		key:  key,
		b:    b,
		out:  make(chan model.Stage, subscriberBuffer),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	if st, ok := b.latest[key]; ok {
		s.push(st)
	}
	if b.closed {
		s.finish()
	} else {
		if b.subs[key] == nil {
			b.subs[key] = make(map[*Subscription]struct{})
		}
		b.subs[key][s] = struct{}{}
	}
	b.mu.Unlock()

	go s.pump(ctx)
	return s
}

// Stages returns a restartable sequence of the stages of key. Every range over
// it opens a fresh subscription and therefore starts with the current stage.
func (b *Broadcast) Stages(ctx context.Context, key string) iter.Seq[model.Stage] {
	return func(yield func(model.Stage) bool) {
		sub := b.Subscribe(ctx, key)
		defer sub.Close()

		for st := range sub.C() {
			if !yield(st) {
				return
			}
		}
	}
}

// Close completes every subscription once its queued stages are delivered.
// Close is idempotent.
func (b *Broadcast) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, set := range b.subs {
		for s := range set {
			s.finish()
		}
	}
	clear(b.subs)
}

func (b *Broadcast) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[s.key]
	if !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(b.subs, s.key)
	}
}

// Subscription delivers the stages of one key in publish order. Stages are
// queued without bound between Set and the consumer so publishers never wait.
type Subscription struct {
	key string
	b   *Broadcast
	out chan model.Stage

	mu    sync.Mutex
	queue []model.Stage
	ended bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan model.Stage {
	return s.out
}

// Key returns the subscribed key.
func (s *Subscription) Key() string {
	return s.key
}

// Close detaches the subscription. Queued stages are dropped.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Subscription) push(st model.Stage) {
	s.mu.Lock()
	s.queue = append(s.queue, st)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) finish() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump(ctx context.Context) {
	defer close(s.out)
	defer s.b.remove(s)

	for {
		s.mu.Lock()
		batch, ended := s.queue, s.ended
		s.queue = nil
		s.mu.Unlock()

		for _, st := range batch {
			select {
			case s.out <- st:
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		if ended {
			return
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
