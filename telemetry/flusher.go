// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hawk-tui/hawk-go/lib/clock"
)

// flusher drains the queue into the sink. Exactly one flusher
// goroutine runs per client, so batches reach the sink in queue
// order and the sink sees at most one in-flight write.
//
// Two conditions trigger a flush: the queue reaching the batch
// threshold (checked on every push notification) and the flush
// interval elapsing with anything at all queued. Each flush writes
// one wire line covering the whole batch.
//
// Write failures are contained here: the batch is discarded, the
// failure is counted and logged, and the loop continues. Producers
// never see sink errors.
type flusher struct {
	queue    *queue
	sink     Sink
	clk      clock.Clock
	logger   *slog.Logger
	batchMax int

	flushed  atomic.Uint64 // envelopes successfully written
	batches  atomic.Uint64 // batch writes that reached the sink
	failed   atomic.Uint64 // envelopes lost to sink write errors
	rejected atomic.Uint64 // envelopes lost to encode errors

	stop chan struct{}
	done chan struct{}
}

func newFlusher(q *queue, sink Sink, clk clock.Clock, logger *slog.Logger, batchMax int) *flusher {
	return &flusher{
		queue:    q,
		sink:     sink,
		clk:      clk,
		logger:   logger,
		batchMax: batchMax,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// run is the flusher goroutine body. interval is the periodic flush
// cadence for partial batches.
func (f *flusher) run(interval time.Duration) {
	defer close(f.done)

	ticker := f.clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.queue.Notify():
			// Push notification: flush only once a full batch is
			// ready. Partial batches wait for the ticker so bursty
			// producers get coalesced into fewer writes.
			for f.queue.Len() >= f.batchMax {
				f.flushOnce()
			}
		case <-ticker.C:
			f.flushOnce()
		case <-f.stop:
			f.drain()
			return
		}
	}
}

// flushOnce pops one batch and writes it. No-op on an empty queue.
func (f *flusher) flushOnce() {
	batch := f.queue.PopBatch(f.batchMax)
	if len(batch) == 0 {
		return
	}

	line, skipped, err := encodeBatch(batch)
	if skipped > 0 {
		f.rejected.Add(uint64(skipped))
		f.logger.Warn("dropped unserializable telemetry",
			"count", skipped,
		)
	}
	if err != nil || line == nil {
		return
	}

	if err := f.sink.Emit(line); err != nil {
		lost := len(batch) - skipped
		f.failed.Add(uint64(lost))
		f.logger.Warn("telemetry batch write failed",
			"error", err,
			"lost", lost,
		)
		return
	}
	f.flushed.Add(uint64(len(batch) - skipped))
	f.batches.Add(1)
}

// drain makes a final pass over the queue during shutdown. The client
// bounds the overall shutdown with a timeout; drain itself just
// flushes until the queue is empty or a write fails.
func (f *flusher) drain() {
	for f.queue.Len() > 0 {
		before := f.queue.Len()
		f.flushOnce()
		if f.queue.Len() >= before {
			// No progress, give up rather than spin.
			return
		}
	}
}

// shutdown signals the goroutine to drain and exit, returning the
// done channel so the caller can bound the wait.
func (f *flusher) shutdown() <-chan struct{} {
	close(f.stop)
	return f.done
}
