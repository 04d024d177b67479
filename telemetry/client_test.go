// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hawk-tui/hawk-go/lib/clock"
	"github.com/hawk-tui/hawk-go/lib/testutil"
)

// fakeSink records emitted lines and signals each write on Lines so
// tests can wait for flushes without sleeping. Setting failNext makes
// the next Emit call return an error.
type fakeSink struct {
	mu       sync.Mutex
	lines    [][]byte
	Lines    chan []byte
	Failures chan struct{}
	failNext atomic.Bool
	closed   atomic.Bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		Lines:    make(chan []byte, 64),
		Failures: make(chan struct{}, 64),
	}
}

func (f *fakeSink) Emit(line []byte) error {
	if f.failNext.Swap(false) {
		f.Failures <- struct{}{}
		return fmt.Errorf("%w: injected failure", ErrSinkWrite)
	}
	copied := make([]byte, len(line))
	copy(copied, line)
	f.mu.Lock()
	f.lines = append(f.lines, copied)
	f.mu.Unlock()
	f.Lines <- copied
	return nil
}

func (f *fakeSink) Close() error {
	f.closed.Store(true)
	return nil
}

// newTestClient builds a client on a fake clock and fake sink with a
// small threshold so tests stay readable. The returned FakeClock has
// the flusher's ticker already registered.
func newTestClient(t *testing.T, threshold int) (*Client, *fakeSink, *clock.FakeClock) {
	t.Helper()
	fakeClock := clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	sink := newFakeSink()

	opts := NewOptions("test-app")
	opts.QueueCapacity = threshold * 4
	opts.FlushThreshold = threshold
	opts.Sink = sink
	opts.Clock = fakeClock
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(client.Shutdown)

	// The flusher registers its interval ticker on startup.
	fakeClock.WaitForTimers(1)
	return client, sink, fakeClock
}

// decodeLine parses a wire line into the envelopes it carries,
// normalizing the single-object and array forms.
func decodeLine(t *testing.T, line []byte) []map[string]any {
	t.Helper()
	if len(line) > 0 && line[0] == '[' {
		var batch []map[string]any
		if err := json.Unmarshal(line, &batch); err != nil {
			t.Fatalf("decode batch: %v", err)
		}
		return batch
	}
	var single map[string]any
	if err := json.Unmarshal(line, &single); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return []map[string]any{single}
}

func TestClientThresholdTriggersSingleBatchFlush(t *testing.T) {
	const threshold = 10
	client, sink, _ := newTestClient(t, threshold)

	for i := 0; i < threshold; i++ {
		client.Info(fmt.Sprintf("message %d", i), nil)
	}

	line := testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for threshold flush")
	batch := decodeLine(t, line)
	if len(batch) != threshold {
		t.Fatalf("expected one batch of %d, got %d", threshold, len(batch))
	}

	// Nothing else pending: exactly one flush.
	select {
	case extra := <-sink.Lines:
		t.Fatalf("unexpected second flush: %s", extra)
	default:
	}
	if got := client.Stats().Flushed; got != threshold {
		t.Fatalf("expected %d flushed, got %d", threshold, got)
	}
}

func TestClientStatsCountBatchesAndEnqueues(t *testing.T) {
	const threshold = 10
	client, sink, fakeClock := newTestClient(t, threshold)

	for i := 0; i < threshold; i++ {
		client.Info(fmt.Sprintf("message %d", i), nil)
	}
	testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for threshold flush")

	client.Info("straggler", nil)
	fakeClock.Advance(DefaultFlushInterval)
	testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for interval flush")

	stats := client.Stats()
	if stats.Enqueued != threshold+1 {
		t.Fatalf("expected %d enqueued, got %d", threshold+1, stats.Enqueued)
	}
	if stats.Batches != 2 {
		t.Fatalf("expected 2 batches, got %d", stats.Batches)
	}
	if stats.Flushed != threshold+1 {
		t.Fatalf("expected %d flushed, got %d", threshold+1, stats.Flushed)
	}
	if got := stats.AverageBatchSize(); got != float64(threshold+1)/2 {
		t.Fatalf("expected average batch size %.1f, got %.1f", float64(threshold+1)/2, got)
	}
}

func TestClientIntervalFlushesPartialBatch(t *testing.T) {
	client, sink, fakeClock := newTestClient(t, 10)

	client.Info("one", nil)
	client.Info("two", nil)
	client.Info("three", nil)

	// Below threshold: nothing flushes until the interval elapses.
	select {
	case line := <-sink.Lines:
		t.Fatalf("premature flush: %s", line)
	default:
	}

	fakeClock.Advance(DefaultFlushInterval)
	line := testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for interval flush")
	batch := decodeLine(t, line)
	if len(batch) != 3 {
		t.Fatalf("expected partial batch of 3, got %d", len(batch))
	}
}

func TestClientSingleMessageEncodesAsBareObject(t *testing.T) {
	client, sink, fakeClock := newTestClient(t, 10)

	client.Gauge("fps", 61.2, &MetricFields{Unit: "frames/s"})
	fakeClock.Advance(DefaultFlushInterval)

	line := testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for flush")
	if line[0] != '{' {
		t.Fatalf("single envelope should be a bare object, got %s", line)
	}
	batch := decodeLine(t, line)
	if batch[0]["method"] != "hawk.metric" {
		t.Fatalf("expected hawk.metric, got %v", batch[0]["method"])
	}
}

func TestClientSequencesAreStrictlyIncreasing(t *testing.T) {
	client, sink, fakeClock := newTestClient(t, 100)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				client.Info("concurrent", nil)
			}
		}()
	}
	wg.Wait()

	fakeClock.Advance(DefaultFlushInterval)

	seen := make(map[uint64]bool)
	collected := 0
	for collected < 80 {
		line := testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for flush")
		for _, env := range decodeLine(t, line) {
			meta := env["hawk_meta"].(map[string]any)
			seq := uint64(meta["sequence"].(float64))
			if seen[seq] {
				t.Fatalf("duplicate sequence %d", seq)
			}
			seen[seq] = true
			collected++
		}
	}
	for i := uint64(0); i < 80; i++ {
		if !seen[i] {
			t.Fatalf("missing sequence %d", i)
		}
	}
}

func TestClientSinkFailureDoesNotKillWorker(t *testing.T) {
	client, sink, fakeClock := newTestClient(t, 10)

	sink.failNext.Store(true)
	client.Info("lost", nil)
	fakeClock.Advance(DefaultFlushInterval)
	testutil.RequireReceive(t, sink.Failures, 5*time.Second, "waiting for injected failure")

	// The failed batch is discarded; the worker must keep flushing.
	client.Info("survives", nil)
	fakeClock.Advance(DefaultFlushInterval)

	line := testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for post-failure flush")
	batch := decodeLine(t, line)
	params := batch[0]["params"].(map[string]any)
	if params["message"] != "survives" {
		t.Fatalf("expected the post-failure message, got %v", params["message"])
	}

	stats := client.Stats()
	if stats.Failed != 1 {
		t.Fatalf("expected 1 failed envelope, got %d", stats.Failed)
	}
	if stats.Flushed != 1 {
		t.Fatalf("expected 1 flushed envelope, got %d", stats.Flushed)
	}
}

func TestClientUnserializableMessageSkippedInBatch(t *testing.T) {
	client, sink, fakeClock := newTestClient(t, 10)

	client.Info("good one", nil)
	client.Emit(MethodEvent, map[string]any{"ch": make(chan int)})
	client.Info("good two", nil)
	fakeClock.Advance(DefaultFlushInterval)

	line := testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for flush")
	batch := decodeLine(t, line)
	if len(batch) != 2 {
		t.Fatalf("expected 2 surviving envelopes, got %d", len(batch))
	}
	if got := client.Stats().Rejected; got != 1 {
		t.Fatalf("expected 1 rejected envelope, got %d", got)
	}
}

func TestClientShutdownDrainsQueue(t *testing.T) {
	client, sink, _ := newTestClient(t, 10)

	client.Info("queued before shutdown", nil)
	client.Shutdown()

	line := testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for shutdown drain")
	batch := decodeLine(t, line)
	params := batch[0]["params"].(map[string]any)
	if params["message"] != "queued before shutdown" {
		t.Fatalf("drain lost the queued message, got %v", params["message"])
	}
	if !sink.closed.Load() {
		t.Fatal("shutdown must close the sink")
	}

	// Emits after shutdown are discarded, and Shutdown is idempotent.
	client.Info("after shutdown", nil)
	client.Shutdown()
	if got := client.Stats().Queued; got != 0 {
		t.Fatalf("expected empty queue after shutdown, got %d", got)
	}
}

func TestClientMetadataStampedOnEveryMessage(t *testing.T) {
	client, sink, fakeClock := newTestClient(t, 10)

	client.Event("startup", "ready", &EventFields{Severity: SeverityInfo})
	fakeClock.Advance(DefaultFlushInterval)

	line := testutil.RequireReceive(t, sink.Lines, 5*time.Second, "waiting for flush")
	env := decodeLine(t, line)[0]
	meta := env["hawk_meta"].(map[string]any)
	if meta["app_name"] != "test-app" {
		t.Fatalf("expected app_name test-app, got %v", meta["app_name"])
	}
	if meta["session_id"] != client.SessionID() {
		t.Fatalf("expected session %s, got %v", client.SessionID(), meta["session_id"])
	}
}
