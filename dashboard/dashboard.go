// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hawk-tui/hawk-go/lib/clock"
	"github.com/hawk-tui/hawk-go/telemetry"
)

// Emitter is the slice of the telemetry client the dashboard needs.
// *telemetry.Client satisfies it.
type Emitter interface {
	Emit(method string, params any)
}

// maxGridColumns is the dashboard grid width for auto-layout.
const maxGridColumns = 12

// shutdownJoinTimeout bounds the wait for polling loops on Shutdown.
// Loops still running afterwards are abandoned; they observe the stop
// signal at their next wake.
const shutdownJoinTimeout = 1 * time.Second

// Dashboard owns a named set of widgets and their polling loops. Safe
// for concurrent use.
type Dashboard struct {
	name    string
	emitter Emitter
	clk     clock.Clock

	mu       sync.Mutex
	widgets  map[string]*Widget
	stats    map[string]RefreshStats
	shutdown bool

	// Auto-layout cursor. rowMaxHeight tracks the tallest widget on
	// the current row so wrapping advances past all of them.
	nextRow      int
	nextCol      int
	rowMaxHeight int

	stop        chan struct{}
	loops       sync.WaitGroup
	activeLoops atomic.Int64
}

// New creates a Dashboard emitting through emitter. A nil clk uses
// the wall clock.
func New(name string, emitter Emitter, clk clock.Clock) *Dashboard {
	if clk == nil {
		clk = clock.Real()
	}
	return &Dashboard{
		name:    name,
		emitter: emitter,
		clk:     clk,
		widgets: make(map[string]*Widget),
		stats:   make(map[string]RefreshStats),
		stop:    make(chan struct{}),
	}
}

// AddMetric adds a gauge widget showing a single numeric value. The
// emitted data is {value, unit, timestamp}.
func (d *Dashboard) AddMetric(id, title, unit string, value func() (float64, error), opts *WidgetOptions) *Widget {
	clk := d.clk
	data := func() (any, error) {
		v, err := value()
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"value":     v,
			"unit":      unit,
			"timestamp": clk.Now(),
		}, nil
	}
	return d.add(id, title, telemetry.WidgetGauge, data,
		refreshPeriod(opts, DefaultMetricRefresh), opts)
}

// AddStatus adds a status-grid widget. check returns a name→state
// map ("database" → "healthy").
func (d *Dashboard) AddStatus(id, title string, check func() (map[string]any, error), opts *WidgetOptions) *Widget {
	data := func() (any, error) { return check() }
	return d.add(id, title, telemetry.WidgetStatusGrid, data,
		refreshPeriod(opts, DefaultStatusRefresh), opts)
}

// AddChart adds a time-series chart widget. chartType names the
// rendering style ("line", "bar"); it is stamped into each sample.
func (d *Dashboard) AddChart(id, title, chartType string, series func() (map[string]any, error), opts *WidgetOptions) *Widget {
	data := func() (any, error) {
		sample, err := series()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(sample)+1)
		for k, v := range sample {
			out[k] = v
		}
		out["chart_type"] = chartType
		return out, nil
	}
	return d.add(id, title, telemetry.WidgetChart, data,
		refreshPeriod(opts, DefaultChartRefresh), opts)
}

// AddTable adds a tabular widget. rows returns {headers, rows}.
func (d *Dashboard) AddTable(id, title string, rows func() (map[string]any, error), opts *WidgetOptions) *Widget {
	data := func() (any, error) { return rows() }
	return d.add(id, title, telemetry.WidgetTable, data,
		refreshPeriod(opts, DefaultTableRefresh), opts)
}

// AddCustom adds a widget of an arbitrary kind; the consumer decides
// how to render its data.
func (d *Dashboard) AddCustom(id, title string, kind telemetry.WidgetKind, data DataFunc, opts *WidgetOptions) *Widget {
	return d.add(id, title, kind, data,
		refreshPeriod(opts, DefaultCustomRefresh), opts)
}

// add registers the widget, assigns its layout, starts its polling
// loop, and emits the creation envelope.
func (d *Dashboard) add(id, title string, kind telemetry.WidgetKind, data DataFunc, refresh time.Duration, opts *WidgetOptions) *Widget {
	widget := &Widget{
		id:      id,
		title:   title,
		kind:    kind,
		refresh: refresh,
		data:    data,
	}

	d.mu.Lock()
	switch {
	case opts != nil && opts.Layout != nil:
		widget.layout = *opts.Layout
	default:
		width, height := defaultWidgetWidth, defaultWidgetHeight
		if opts != nil && opts.Width > 0 {
			width = opts.Width
		}
		if opts != nil && opts.Height > 0 {
			height = opts.Height
		}
		widget.layout = d.autoLayoutLocked(width, height)
	}
	d.widgets[id] = widget
	stopped := d.shutdown
	d.mu.Unlock()

	// Creation envelope with a first synchronous capture; a failing
	// callback still announces the widget, with no data.
	initial, err := data()
	if err != nil {
		d.reportRefreshError(widget, err)
		initial = nil
	}
	d.emitWidget(widget, initial)

	if refresh > 0 && !stopped {
		d.loops.Add(1)
		d.activeLoops.Add(1)
		go d.refreshLoop(widget)
	}
	return widget
}

// autoLayoutLocked assigns the next free grid rectangle: left to
// right, wrapping to a fresh row once the cursor reaches the grid
// edge. Caller holds d.mu.
func (d *Dashboard) autoLayoutLocked(width, height int) telemetry.WidgetLayout {
	if d.nextCol >= maxGridColumns {
		d.nextRow += d.rowMaxHeight
		d.nextCol = 0
		d.rowMaxHeight = 0
	}
	layout := telemetry.WidgetLayout{
		Row:    d.nextRow,
		Col:    d.nextCol,
		Width:  width,
		Height: height,
	}
	d.nextCol += width
	if height > d.rowMaxHeight {
		d.rowMaxHeight = height
	}
	return layout
}

// refreshLoop is one widget's polling goroutine. Each cycle times the
// data callback and sleeps for the remainder of the period, so the
// cadence does not drift with callback latency. Exits on dashboard
// shutdown or widget removal.
func (d *Dashboard) refreshLoop(widget *Widget) {
	defer d.loops.Done()
	defer d.activeLoops.Add(-1)

	for {
		delay := widget.refresh

		select {
		case <-d.stop:
			return
		default:
		}
		if widget.removed.Load() {
			return
		}

		started := d.clk.Now()
		data, err := widget.data()
		elapsed := d.clk.Now().Sub(started)

		if err != nil {
			// Report and retry after a full period, never faster.
			d.reportRefreshError(widget, err)
		} else {
			d.emitWidget(widget, data)
			d.recordRefresh(widget.id, elapsed)
			delay -= elapsed
			if delay < 0 {
				delay = 0
			}
		}

		select {
		case <-d.stop:
			return
		case <-d.clk.After(delay):
		}
	}
}

// emitWidget sends one hawk.dashboard envelope for the widget.
func (d *Dashboard) emitWidget(widget *Widget, data any) {
	d.emitter.Emit(telemetry.MethodDashboard, telemetry.DashboardParams{
		WidgetID:  widget.id,
		Type:      widget.kind,
		Title:     widget.title,
		Data:      data,
		Layout:    widget.layout,
		Dashboard: d.name,
	})
}

// reportRefreshError surfaces a callback failure through the
// transport as an ERROR log.
func (d *Dashboard) reportRefreshError(widget *Widget, err error) {
	now := d.clk.Now()
	d.emitter.Emit(telemetry.MethodLog, telemetry.LogParams{
		Message:   fmt.Sprintf("Widget refresh error: %s: %v", widget.id, err),
		Level:     telemetry.LevelError,
		Timestamp: &now,
		Component: "dashboard." + d.name,
	})
}

// recordRefresh updates the widget's polling statistics.
func (d *Dashboard) recordRefresh(id string, elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := d.stats[id]
	entry.LastRefresh = d.clk.Now()
	entry.LastDuration = elapsed
	entry.Count++
	d.stats[id] = entry
}

// RemoveWidget unregisters a widget. Its polling loop observes the
// removal at its next wake and exits without emitting further data.
func (d *Dashboard) RemoveWidget(id string) {
	d.mu.Lock()
	widget, ok := d.widgets[id]
	if ok {
		delete(d.widgets, id)
	}
	d.mu.Unlock()
	if ok {
		widget.removed.Store(true)
	}
}

// Stats returns a snapshot of widget counts and refresh history.
func (d *Dashboard) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	refreshes := make(map[string]RefreshStats, len(d.stats))
	for id, entry := range d.stats {
		refreshes[id] = entry
	}
	return Stats{
		WidgetCount: len(d.widgets),
		ActiveLoops: int(d.activeLoops.Load()),
		Refreshes:   refreshes,
	}
}

// Shutdown signals every polling loop to stop at its next wake and
// waits for them with a bounded timeout. Loops that miss the deadline
// are abandoned. Safe to call more than once.
func (d *Dashboard) Shutdown() {
	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		return
	}
	d.shutdown = true
	d.mu.Unlock()

	close(d.stop)

	done := make(chan struct{})
	go func() {
		d.loops.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownJoinTimeout):
	}
}
