// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"sync/atomic"
	"time"

	"github.com/hawk-tui/hawk-go/telemetry"
)

// Default refresh periods per widget kind. Status and table data
// changes slowly; gauges and custom widgets poll faster.
const (
	DefaultMetricRefresh = 1 * time.Second
	DefaultStatusRefresh = 5 * time.Second
	DefaultChartRefresh  = 2 * time.Second
	DefaultTableRefresh  = 5 * time.Second
	DefaultCustomRefresh = 1 * time.Second
)

// Default widget extent on the grid when WidgetOptions.Layout is nil.
const (
	defaultWidgetWidth  = 4
	defaultWidgetHeight = 3
)

// DataFunc produces a widget's current data. It runs on the widget's
// own polling goroutine, never concurrently with itself. Returning an
// error skips the emit for that cycle.
type DataFunc func() (any, error)

// WidgetOptions carries the optional attributes shared by all widget
// constructors.
type WidgetOptions struct {
	// Refresh overrides the kind's default polling period. Zero
	// keeps the default; negative disables polling entirely (the
	// widget emits only its creation envelope).
	Refresh time.Duration

	// Layout pins the widget to an explicit grid rectangle. Nil
	// requests auto-layout.
	Layout *telemetry.WidgetLayout

	// Width and Height size the widget when auto-layout places it.
	// Zero means the 4x3 default. Ignored when Layout is set.
	Width  int
	Height int
}

// Widget is one scheduled dashboard element. Returned by the add
// methods; the zero value is not usable.
type Widget struct {
	id      string
	title   string
	kind    telemetry.WidgetKind
	refresh time.Duration
	layout  telemetry.WidgetLayout
	data    DataFunc

	// removed tells the polling loop to exit without emitting
	// further data.
	removed atomic.Bool
}

// ID returns the widget's identifier.
func (w *Widget) ID() string { return w.id }

// Layout returns the widget's grid rectangle as assigned at creation.
func (w *Widget) Layout() telemetry.WidgetLayout { return w.layout }

// refreshPeriod resolves the configured refresh against a kind
// default.
func refreshPeriod(opts *WidgetOptions, fallback time.Duration) time.Duration {
	if opts == nil || opts.Refresh == 0 {
		return fallback
	}
	return opts.Refresh
}

// RefreshStats records a widget's polling history.
type RefreshStats struct {
	LastRefresh  time.Time
	LastDuration time.Duration
	Count        uint64
}

// Stats is a point-in-time snapshot of the dashboard's scheduling
// state.
type Stats struct {
	WidgetCount int
	ActiveLoops int
	Refreshes   map[string]RefreshStats
}
