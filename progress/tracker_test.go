// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/hawk-tui/hawk-go/lib/clock"
	"github.com/hawk-tui/hawk-go/telemetry"
)

// fakeEmitter captures emitted envelopes synchronously.
type fakeEmitter struct {
	mu    sync.Mutex
	calls []telemetry.ProgressParams
}

func (f *fakeEmitter) Emit(method string, params any) {
	if method != telemetry.MethodProgress {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params.(telemetry.ProgressParams))
}

func (f *fakeEmitter) emitted() []telemetry.ProgressParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]telemetry.ProgressParams(nil), f.calls...)
}

func newTestTracker() (*Tracker, *fakeEmitter, *clock.FakeClock) {
	emitter := &fakeEmitter{}
	fakeClock := clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	return NewTracker(emitter, fakeClock), emitter, fakeClock
}

func TestTrackerLifecycle(t *testing.T) {
	tracker, emitter, fakeClock := newTestTracker()

	tracker.Start("t", "Transcode", 10, nil)
	fakeClock.Advance(time.Second)
	tracker.Update("t", 5, "")
	tracker.Update("t", 10, "")
	tracker.Complete("t", true, "")

	if active := tracker.Active(); len(active) != 0 {
		t.Fatalf("expected no active operations, got %v", active)
	}
	completed, ok := tracker.History("t")
	if !ok {
		t.Fatal("expected t in history")
	}
	if !completed.Success {
		t.Fatal("expected success=true")
	}
	if completed.Duration < 0 {
		t.Fatalf("expected non-negative duration, got %s", completed.Duration)
	}

	calls := emitter.emitted()
	if len(calls) != 4 {
		t.Fatalf("expected 4 envelopes, got %d", len(calls))
	}
	if calls[0].Status != telemetry.ProgressPending {
		t.Fatalf("expected initial pending, got %s", calls[0].Status)
	}
	if calls[3].Status != telemetry.ProgressCompleted {
		t.Fatalf("expected terminal completed, got %s", calls[3].Status)
	}
	if calls[3].Current != calls[3].Total {
		t.Fatalf("terminal envelope should report full progress, got %v/%v",
			calls[3].Current, calls[3].Total)
	}
}

func TestTrackerETAFromThroughput(t *testing.T) {
	tracker, emitter, fakeClock := newTestTracker()

	start := fakeClock.Now()
	tracker.Start("scan", "Scanning", 10, &StartOptions{Unit: "files"})

	// 5 of 10 done after 10 seconds: rate 0.5/s, 5 remaining, so the
	// estimate lands 10 seconds past the update.
	fakeClock.Advance(10 * time.Second)
	tracker.Update("scan", 5, "")

	calls := emitter.emitted()
	update := calls[len(calls)-1]
	if update.EstimatedCompletion == nil {
		t.Fatal("expected an ETA on the update envelope")
	}
	want := start.Add(20 * time.Second)
	if !update.EstimatedCompletion.Equal(want) {
		t.Fatalf("expected ETA %s, got %s", want, update.EstimatedCompletion)
	}
}

func TestTrackerNoETAWithoutProgress(t *testing.T) {
	tracker, emitter, fakeClock := newTestTracker()

	tracker.Start("stall", "Stalled", 10, nil)
	fakeClock.Advance(time.Second)
	tracker.Update("stall", 0, "")

	calls := emitter.emitted()
	if eta := calls[len(calls)-1].EstimatedCompletion; eta != nil {
		t.Fatalf("expected no ETA at zero progress, got %s", eta)
	}
}

func TestTrackerUpdateUnknownIDIsNoOp(t *testing.T) {
	tracker, emitter, _ := newTestTracker()

	tracker.Update("ghost", 5, "")
	tracker.Complete("ghost", true, "")

	if calls := emitter.emitted(); len(calls) != 0 {
		t.Fatalf("expected no envelopes for unknown id, got %d", len(calls))
	}
}

func TestTrackerCascadingCompletion(t *testing.T) {
	tracker, emitter, fakeClock := newTestTracker()

	tracker.Start("parent", "Deploy", 2, nil)
	tracker.Start("child", "Upload", 10, &StartOptions{ParentID: "parent"})
	fakeClock.Advance(time.Second)

	tracker.Complete("parent", true, "")

	// The child must reach history, with its completion no later
	// than the parent's.
	childDone, ok := tracker.History("child")
	if !ok {
		t.Fatal("expected child in history")
	}
	parentDone, ok := tracker.History("parent")
	if !ok {
		t.Fatal("expected parent in history")
	}
	if childDone.EndTime.After(parentDone.EndTime) {
		t.Fatalf("child completed at %s, after parent at %s",
			childDone.EndTime, parentDone.EndTime)
	}

	// Terminal envelopes: child before parent.
	calls := emitter.emitted()
	var terminalOrder []string
	for _, call := range calls {
		if call.Status == telemetry.ProgressCompleted {
			terminalOrder = append(terminalOrder, call.ID)
		}
	}
	if len(terminalOrder) != 2 || terminalOrder[0] != "child" || terminalOrder[1] != "parent" {
		t.Fatalf("expected terminal order [child parent], got %v", terminalOrder)
	}
}

func TestTrackerCompleteFailurePropagatesToChildren(t *testing.T) {
	tracker, _, _ := newTestTracker()

	tracker.Start("parent", "Build", 1, nil)
	tracker.Start("child", "Compile", 1, &StartOptions{ParentID: "parent"})
	tracker.Complete("parent", false, "build aborted")

	for _, id := range []string{"parent", "child"} {
		completed, ok := tracker.History(id)
		if !ok {
			t.Fatalf("expected %s in history", id)
		}
		if completed.Success {
			t.Fatalf("expected %s to record failure", id)
		}
	}
}

func TestTrackerSummary(t *testing.T) {
	tracker, _, fakeClock := newTestTracker()

	tracker.Start("a", "A", 1, nil)
	fakeClock.Advance(2 * time.Second)
	tracker.Complete("a", true, "")

	tracker.Start("b", "B", 1, nil)
	fakeClock.Advance(4 * time.Second)
	tracker.Complete("b", false, "")

	tracker.Start("c", "C", 1, nil)

	summary := tracker.Summary()
	if summary.ActiveOperations != 1 || summary.CompletedOperations != 2 {
		t.Fatalf("expected 1 active / 2 completed, got %d/%d",
			summary.ActiveOperations, summary.CompletedOperations)
	}
	if summary.AverageDuration != 3*time.Second {
		t.Fatalf("expected 3s average duration, got %s", summary.AverageDuration)
	}
	if summary.SuccessRate != 0.5 {
		t.Fatalf("expected 0.5 success rate, got %v", summary.SuccessRate)
	}
	if len(summary.CurrentOperations) != 1 || summary.CurrentOperations[0] != "c" {
		t.Fatalf("expected current operations [c], got %v", summary.CurrentOperations)
	}
}

func TestOperationHandle(t *testing.T) {
	tracker, emitter, _ := newTestTracker()

	op := tracker.Start("copy", "Copying", 4, &StartOptions{Unit: "files"})
	op.Increment(1, "")
	op.Increment(2, "")
	op.Update(4, "done copying")
	op.Complete(true, "")

	calls := emitter.emitted()
	var currents []float64
	for _, call := range calls {
		if call.Status == telemetry.ProgressInProgress {
			currents = append(currents, call.Current)
		}
	}
	want := []float64{1, 3, 4}
	if len(currents) != len(want) {
		t.Fatalf("expected %d updates, got %d", len(want), len(currents))
	}
	for i := range want {
		if currents[i] != want[i] {
			t.Fatalf("update %d: expected current %v, got %v", i, want[i], currents[i])
		}
	}

	if _, ok := tracker.History("copy"); !ok {
		t.Fatal("expected copy in history")
	}
}

func TestOperationDoneWithDefer(t *testing.T) {
	tracker, _, _ := newTestTracker()

	run := func() (err error) {
		op := tracker.Start("job", "Job", 1, nil)
		defer op.Done(&err)
		return nil
	}
	if err := run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	completed, ok := tracker.History("job")
	if !ok || !completed.Success {
		t.Fatalf("expected successful completion, got %+v ok=%v", completed, ok)
	}
}
