package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/stagewatch/internal/logging"
)

// Handler is a function that handles an event.
type Handler func(Event)

// wildcard is the event type key for handlers that receive every event.
const wildcard = "*"

type subscription struct {
	id      string
	runID   string // empty: every run
	handler Handler
}

// accepts reports whether the subscription wants ev. Run-scoped
// subscriptions drop events that carry no run or another run's ID.
func (s subscription) accepts(ev Event) bool {
	if s.runID == "" {
		return true
	}
	re, ok := ev.(RunEvent)
	return ok && re.EventRunID() == s.runID
}

// Bus is a synchronous pub-sub event bus shared by the runs of one process.
// Handlers run on the publishing goroutine, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	byType map[string][]subscription
	types  map[string]string // subscription ID -> event type key
	nextID atomic.Uint64
	logger *logging.Logger
}

// NewBus creates an event bus. Handler panics are reported to logger; a
// nil logger discards them.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bus{
		byType: make(map[string][]subscription),
		types:  make(map[string]string),
		logger: logger,
	}
}

// Subscribe registers a handler for one event type and returns its
// subscription ID.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	return b.add(eventType, "", handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.add(wildcard, "", handler)
}

// SubscribeRun registers a handler for one event type that only receives
// events of the run identified by runID.
func (b *Bus) SubscribeRun(runID, eventType string, handler Handler) string {
	return b.add(eventType, runID, handler)
}

func (b *Bus) add(key, runID string, handler Handler) string {
	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType[key] = append(b.byType[key], subscription{id: id, runID: runID, handler: handler})
	b.types[id] = key
	return id
}

// Unsubscribe removes a subscription. It reports whether the ID was known.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, ok := b.types[id]
	if !ok {
		return false
	}
	delete(b.types, id)
	b.byType[key] = slices.DeleteFunc(b.byType[key], func(s subscription) bool {
		return s.id == id
	})
	if len(b.byType[key]) == 0 {
		delete(b.byType, key)
	}
	return true
}

// Publish delivers ev to the handlers of its type, then to wildcard
// handlers. A panicking handler is logged and skipped.
func (b *Bus) Publish(ev Event) {
	for _, sub := range b.matching(ev) {
		b.safeCall(sub.handler, ev)
	}
}

// matching snapshots the subscriptions for ev so handlers may subscribe or
// unsubscribe without deadlocking.
func (b *Bus) matching(ev Event) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var subs []subscription
	for _, key := range []string{ev.EventType(), wildcard} {
		for _, sub := range b.byType[key] {
			if sub.accepts(ev) {
				subs = append(subs, sub)
			}
		}
	}
	return subs
}

func (b *Bus) safeCall(handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", ev.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	handler(ev)
}
