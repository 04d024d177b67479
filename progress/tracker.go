// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/hawk-tui/hawk-go/lib/clock"
	"github.com/hawk-tui/hawk-go/telemetry"
)

// Emitter is the slice of the telemetry client the tracker needs.
// *telemetry.Client satisfies it.
type Emitter interface {
	Emit(method string, params any)
}

// record is one active operation. Mutated only under Tracker.mu.
type record struct {
	id         string
	label      string
	total      float64
	current    float64
	unit       string
	parentID   string
	children   map[string]struct{}
	startTime  time.Time
	lastUpdate time.Time
	eta        *time.Time
}

// Completed is one finished operation, as kept in history.
type Completed struct {
	ID       string
	Label    string
	Total    float64
	Success  bool
	Duration time.Duration

	// EndTime is when Complete ran. For a child completed by its
	// parent's cascade, this is at or before the parent's EndTime.
	EndTime time.Time
}

// Summary aggregates the tracker's history on demand.
type Summary struct {
	ActiveOperations    int
	CompletedOperations int
	AverageDuration     time.Duration
	SuccessRate         float64
	CurrentOperations   []string
}

// Tracker maintains active operation state and emits progress
// envelopes. Safe for concurrent use; emission happens outside the
// state lock.
type Tracker struct {
	emitter Emitter
	clk     clock.Clock

	mu      sync.Mutex
	active  map[string]*record
	history map[string]Completed
}

// NewTracker creates a Tracker that fans progress envelopes out
// through emitter.
func NewTracker(emitter Emitter, clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.Real()
	}
	return &Tracker{
		emitter: emitter,
		clk:     clk,
		active:  make(map[string]*record),
		history: make(map[string]Completed),
	}
}

// StartOptions carries the optional attributes of a new operation.
type StartOptions struct {
	// Unit names what current/total count ("files", "MB").
	Unit string

	// ParentID links this operation under an active parent. The
	// parent's completion cascades to this operation. An unknown
	// parent id leaves the operation top-level.
	ParentID string
}

// Start registers a new operation and emits its "pending" envelope.
// The returned Operation is a scoped handle for updates; the id-based
// Tracker methods work as well. Restarting an id that is still active
// resets it.
func (t *Tracker) Start(id, label string, total float64, opts *StartOptions) *Operation {
	now := t.clk.Now()
	rec := &record{
		id:         id,
		label:      label,
		total:      total,
		unit:       "",
		children:   make(map[string]struct{}),
		startTime:  now,
		lastUpdate: now,
	}
	if opts != nil {
		rec.unit = opts.Unit
		rec.parentID = opts.ParentID
	}

	t.mu.Lock()
	t.active[id] = rec
	if rec.parentID != "" {
		if parent, ok := t.active[rec.parentID]; ok {
			parent.children[id] = struct{}{}
		}
	}
	t.mu.Unlock()

	t.emitter.Emit(telemetry.MethodProgress, telemetry.ProgressParams{
		ID:     id,
		Label:  label,
		Total:  total,
		Status: telemetry.ProgressPending,
		Unit:   rec.unit,
	})
	return &Operation{tracker: t, id: id}
}

// Update records new progress for an active operation and emits an
// envelope carrying the recomputed ETA. Unknown ids are ignored.
func (t *Tracker) Update(id string, current float64, details string) {
	now := t.clk.Now()

	t.mu.Lock()
	rec, ok := t.active[id]
	if !ok {
		t.mu.Unlock()
		return
	}
	rec.current = current
	rec.lastUpdate = now

	// ETA from observed throughput: remaining work divided by the
	// average rate so far.
	rec.eta = nil
	elapsed := now.Sub(rec.startTime)
	if current > 0 && elapsed > 0 {
		rate := current / elapsed.Seconds()
		remaining := rec.total - current
		if rate > 0 {
			eta := now.Add(time.Duration(remaining / rate * float64(time.Second)))
			rec.eta = &eta
		}
	}
	if details == "" {
		details = fmt.Sprintf("Progress: %v/%v", current, rec.total)
	}
	params := telemetry.ProgressParams{
		ID:                  id,
		Label:               rec.label,
		Current:             current,
		Total:               rec.total,
		Status:              telemetry.ProgressInProgress,
		Unit:                rec.unit,
		Details:             details,
		EstimatedCompletion: rec.eta,
	}
	t.mu.Unlock()

	t.emitter.Emit(telemetry.MethodProgress, params)
}

// Complete finishes an operation, cascading depth-first through its
// children so every child reaches history before the parent. The
// terminal envelope carries status "completed" or "error". Unknown
// ids are ignored.
func (t *Tracker) Complete(id string, success bool, finalMessage string) {
	t.mu.Lock()
	terminal := t.completeLocked(id, success, finalMessage, nil)
	t.mu.Unlock()

	// Children first, parent last, emitted outside the lock.
	for _, params := range terminal {
		t.emitter.Emit(telemetry.MethodProgress, params)
	}
}

// completeLocked moves id and its subtree from active to history and
// appends their terminal envelopes to out, children before parent.
// Caller holds t.mu.
func (t *Tracker) completeLocked(id string, success bool, finalMessage string, out []telemetry.ProgressParams) []telemetry.ProgressParams {
	rec, ok := t.active[id]
	if !ok {
		return out
	}

	for childID := range rec.children {
		out = t.completeLocked(childID, success, "", out)
	}

	now := t.clk.Now()
	t.history[id] = Completed{
		ID:       id,
		Label:    rec.label,
		Total:    rec.total,
		Success:  success,
		Duration: now.Sub(rec.startTime),
		EndTime:  now,
	}
	delete(t.active, id)

	status := telemetry.ProgressCompleted
	details := finalMessage
	if !success {
		status = telemetry.ProgressError
		if details == "" {
			details = "Operation failed"
		}
	} else if details == "" {
		details = "Operation completed"
	}
	return append(out, telemetry.ProgressParams{
		ID:      id,
		Label:   rec.label,
		Current: rec.total,
		Total:   rec.total,
		Status:  status,
		Unit:    rec.unit,
		Details: details,
	})
}

// Active returns the ids of operations currently in flight.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	return ids
}

// History returns the completed record for id, if any.
func (t *Tracker) History(id string) (Completed, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	completed, ok := t.history[id]
	return completed, ok
}

// Summary aggregates history: operation counts, mean duration, and
// the fraction of completions that succeeded.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := Summary{
		ActiveOperations:    len(t.active),
		CompletedOperations: len(t.history),
		SuccessRate:         1.0,
	}
	for id := range t.active {
		summary.CurrentOperations = append(summary.CurrentOperations, id)
	}
	if len(t.history) > 0 {
		var totalDuration time.Duration
		succeeded := 0
		for _, completed := range t.history {
			totalDuration += completed.Duration
			if completed.Success {
				succeeded++
			}
		}
		summary.AverageDuration = totalDuration / time.Duration(len(t.history))
		summary.SuccessRate = float64(succeeded) / float64(len(t.history))
	}
	return summary
}

// Operation is a scoped handle for one tracked operation. It lets a
// worker update and complete its own progress without carrying the
// Tracker and id separately, and gives the guaranteed-release shape:
//
//	op := tracker.Start("ingest", "Ingesting", 100, nil)
//	defer op.Done(&err)
type Operation struct {
	mu      sync.Mutex
	tracker *Tracker
	id      string
	current float64
}

// ID returns the operation's id.
func (o *Operation) ID() string { return o.id }

// Update sets the operation's absolute progress.
func (o *Operation) Update(current float64, details string) {
	o.mu.Lock()
	o.current = current
	o.mu.Unlock()
	o.tracker.Update(o.id, current, details)
}

// Increment advances progress by amount.
func (o *Operation) Increment(amount float64, details string) {
	o.mu.Lock()
	o.current += amount
	current := o.current
	o.mu.Unlock()
	o.tracker.Update(o.id, current, details)
}

// Complete finishes the operation explicitly.
func (o *Operation) Complete(success bool, finalMessage string) {
	o.tracker.Complete(o.id, success, finalMessage)
}

// Done completes the operation based on the pointed-to error, for use
// with defer in functions with a named error return. A nil err
// pointer means success.
func (o *Operation) Done(err *error) {
	success := err == nil || *err == nil
	o.tracker.Complete(o.id, success, "")
}
