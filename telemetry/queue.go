// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"sync"
)

// queue is a count-bounded FIFO of envelopes awaiting flush. When a
// push would exceed capacity, the oldest envelope is dropped and the
// drop counter incremented. This provides backpressure when the sink
// can't keep up: the client loses old data rather than blocking the
// application or exhausting memory.
//
// The notify channel (capacity 1) signals the flusher goroutine when
// new data is available. The flusher selects on Notify() alongside
// its interval ticker and stop channel.
//
// Thread-safe: all methods may be called concurrently.
type queue struct {
	mu       sync.Mutex
	entries  []Envelope
	capacity int
	dropped  uint64
	notify   chan struct{}
}

// newQueue creates a queue holding at most capacity envelopes. The
// capacity must be positive.
func newQueue(capacity int) *queue {
	if capacity <= 0 {
		panic(fmt.Sprintf("telemetry: queue capacity must be positive, got %d", capacity))
	}
	return &queue{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// Push appends an envelope. If the queue is full, the oldest envelope
// is dropped to make room. Returns true if an envelope was evicted.
func (q *queue) Push(env Envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	evicted := false
	for len(q.entries) >= q.capacity {
		q.entries[0] = Envelope{} // release params for GC
		q.entries = q.entries[1:]
		q.dropped++
		evicted = true
	}
	q.entries = append(q.entries, env)

	// Non-blocking signal to the flusher.
	select {
	case q.notify <- struct{}{}:
	default:
	}

	return evicted
}

// PopBatch removes and returns up to max of the oldest envelopes.
// Returns nil if the queue is empty.
func (q *queue) PopBatch(max int) []Envelope {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	if n == 0 {
		return nil
	}
	if n > max {
		n = max
	}
	batch := make([]Envelope, n)
	copy(batch, q.entries[:n])
	for i := range q.entries[:n] {
		q.entries[i] = Envelope{} // release params for GC
	}
	q.entries = q.entries[n:]
	return batch
}

// Len returns the number of envelopes waiting in the queue.
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Dropped returns the total number of envelopes evicted due to
// overflow since creation.
func (q *queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Notify returns a channel that receives a signal (at most once per
// Push) when new data is available. The flusher goroutine selects on
// this channel alongside its ticker to wake up early.
func (q *queue) Notify() <-chan struct{} {
	return q.notify
}
