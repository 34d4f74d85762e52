package watcher

import (
	"sync"
	"time"
)

// BatchDebouncer collects events until a quiet period has passed and emits
// them as one batch. Repeated events for a path collapse into the latest.
type BatchDebouncer struct {
	delay  time.Duration
	timer  *time.Timer
	mu     sync.Mutex
	events []Event
	index  map[string]int
	emit   func([]Event)
}

// NewBatchDebouncer creates a new batch debouncer
func NewBatchDebouncer(delay time.Duration, emit func([]Event)) *BatchDebouncer {
	return &BatchDebouncer{
		delay:  delay,
		events: make([]Event, 0),
		index:  make(map[string]int),
		emit:   emit,
	}
}

// Add adds an event to the batch and restarts the quiet period
func (b *BatchDebouncer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i, ok := b.index[event.Path]; ok {
		b.events[i] = event
	} else {
		b.index[event.Path] = len(b.events)
		b.events = append(b.events, event)
	}

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.flush)
}

func (b *BatchDebouncer) take() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.events
	b.events = make([]Event, 0)
	b.index = make(map[string]int)
	b.timer = nil
	return events
}

func (b *BatchDebouncer) flush() {
	events := b.take()
	if len(events) > 0 && b.emit != nil {
		b.emit(events)
	}
}

// Cancel drops pending events
func (b *BatchDebouncer) Cancel() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.take()
}

// Flush immediately emits any pending events
func (b *BatchDebouncer) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()

	b.flush()
}

// EventCount returns the number of pending events
func (b *BatchDebouncer) EventCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
