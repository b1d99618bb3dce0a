package events

import (
	"sync"
)

// DefaultBufferSize is the subscriber buffer used when none is requested.
const DefaultBufferSize = 256

// Droppable reports whether a subscriber may miss the event when its buffer
// is full. Only timeline records are droppable: the terminal events carry
// the complete timeline again.
func Droppable(event Event) bool {
	_, ok := event.(TimelineEvent)
	return ok
}

// subscription is one subscriber channel. Events that must not be lost wait
// in backlog until the reader makes room; pump forwards them in order.
type subscription struct {
	out  chan Event
	wake chan struct{}
	done chan struct{}

	mu      sync.Mutex
	backlog []Event
}

func newSubscription(bufSize int) *subscription {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &subscription{
		out:  make(chan Event, bufSize),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// deliver hands event to the subscriber without blocking. Once anything is
// backlogged, droppable events are discarded and the rest queue behind it,
// so delivery order is preserved.
func (s *subscription) deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.backlog) == 0 {
		select {
		case s.out <- event:
			return
		default:
		}
	}

	if Droppable(event) {
		return
	}

	s.backlog = append(s.backlog, event)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump forwards backlogged events until done is closed.
func (s *subscription) pump(wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.backlog) == 0 {
				s.mu.Unlock()
				break
			}
			// Head stays queued until sent so deliver keeps queuing behind it
			next := s.backlog[0]
			s.mu.Unlock()

			select {
			case s.out <- next:
			case <-s.done:
				return
			}

			s.mu.Lock()
			s.backlog = s.backlog[1:]
			s.mu.Unlock()
		}
	}
}

// EventBus is a channel-based pub-sub event bus.
// Supports topic-based subscriptions and SubscribeAll for cross-topic consumption.
type EventBus struct {
	mu      sync.RWMutex
	subs    map[string][]*subscription // topic -> subscribers
	allSubs []*subscription            // subscribers to all topics
	pumps   sync.WaitGroup
	closed  bool
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[string][]*subscription),
	}
}

// Subscribe creates a subscription to a specific topic.
// bufSize defaults to DefaultBufferSize if <= 0.
func (b *EventBus) Subscribe(topic string, bufSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := b.attach(bufSize)
	if sub != nil {
		b.subs[topic] = append(b.subs[topic], sub)
	}
	return b.channel(sub)
}

// SubscribeAll creates a subscription to ALL topics.
// bufSize defaults to DefaultBufferSize if <= 0.
func (b *EventBus) SubscribeAll(bufSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := b.attach(bufSize)
	if sub != nil {
		b.allSubs = append(b.allSubs, sub)
	}
	return b.channel(sub)
}

// attach starts a subscription. Returns nil once the bus is closed.
// Callers hold b.mu.
func (b *EventBus) attach(bufSize int) *subscription {
	if b.closed {
		return nil
	}
	sub := newSubscription(bufSize)
	b.pumps.Add(1)
	go sub.pump(&b.pumps)
	return sub
}

func (b *EventBus) channel(sub *subscription) <-chan Event {
	if sub == nil {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	return sub.out
}

// Publish sends an event to all subscribers of the given topic and to every
// SubscribeAll channel. It never blocks: a full subscriber loses droppable
// events and backlogs the others.
func (b *EventBus) Publish(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs[topic] {
		sub.deliver(event)
	}
	for _, sub := range b.allSubs {
		sub.deliver(event)
	}
}

// Emit publishes an event on the topic its type belongs to.
func (b *EventBus) Emit(event Event) {
	b.Publish(TopicOf(event), event)
}

// TopicOf returns the topic an event is published on.
func TopicOf(event Event) string {
	if _, ok := event.(TimelineEvent); ok {
		return TopicTimeline
	}
	return TopicAnalysis
}

// Close stops every subscription and closes its channel. Backlogged events
// that were not read yet are discarded.
// Safe to call multiple times (idempotent).
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	all := append([]*subscription(nil), b.allSubs...)
	for _, subs := range b.subs {
		all = append(all, subs...)
	}

	for _, sub := range all {
		close(sub.done)
	}
	b.pumps.Wait()
	for _, sub := range all {
		close(sub.out)
	}
}
