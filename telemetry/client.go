// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Client is the producer-facing entry point. All emit methods are
// non-blocking and safe for concurrent use: they stamp metadata,
// enqueue, and return. A single background flusher goroutine delivers
// batches to the sink.
//
// A Client must be created with New and released with Shutdown. Emits
// after Shutdown are silently discarded.
type Client struct {
	opts      Options
	sessionID string
	seq       sequencer
	queue     *queue
	flusher   *flusher

	enqueued atomic.Uint64

	shutdownOnce sync.Once
	closed       chan struct{}
}

// Stats is a point-in-time snapshot of the client's counters.
type Stats struct {
	// Queued is the number of envelopes currently waiting for flush.
	Queued int

	// Enqueued counts envelopes accepted by Emit over the client's
	// lifetime, including any later dropped under pressure.
	Enqueued uint64

	// Dropped counts envelopes evicted because the queue was full.
	Dropped uint64

	// Flushed counts envelopes successfully written to the sink.
	Flushed uint64

	// Batches counts sink writes that succeeded.
	Batches uint64

	// Failed counts envelopes lost to sink write errors.
	Failed uint64

	// Rejected counts envelopes lost to serialization errors.
	Rejected uint64
}

// AverageBatchSize is the mean number of envelopes per successful
// sink write, or zero before the first flush.
func (s Stats) AverageBatchSize() float64 {
	if s.Batches == 0 {
		return 0
	}
	return float64(s.Flushed) / float64(s.Batches)
}

// New creates a Client and starts its flusher goroutine.
func New(opts Options) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	opts = opts.withDefaults()

	if opts.CapturePath != "" {
		compression, err := ParseCompression(opts.CaptureCompression)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		opts.Sink = NewTeeSink(opts.Sink, NewCaptureSink(opts.CapturePath, compression))
	}

	c := &Client{
		opts:      opts,
		sessionID: newSessionID(opts.Clock.Now()),
		queue:     newQueue(opts.QueueCapacity),
		closed:    make(chan struct{}),
	}
	c.flusher = newFlusher(c.queue, opts.Sink, opts.Clock, opts.Logger, opts.FlushThreshold)
	go c.flusher.run(opts.FlushInterval)
	return c, nil
}

// Emit enqueues one telemetry message with the given JSON-RPC method
// and parameters. This is the extension point for methods the typed
// helpers don't cover; the helpers all route through it.
func (c *Client) Emit(method string, params any) {
	select {
	case <-c.closed:
		return
	default:
	}
	meta := Metadata{
		AppName:   c.opts.AppName,
		SessionID: c.sessionID,
		Sequence:  c.seq.Next(),
		Timestamp: c.opts.Clock.Now(),
	}
	c.enqueued.Add(1)
	if c.queue.Push(newEnvelope(method, params, meta)) {
		c.opts.Logger.Warn("telemetry queue full, dropped oldest",
			"method", method,
			"dropped_total", c.queue.Dropped(),
		)
	}
}

// LogFields carries the optional attributes of a log message.
type LogFields struct {
	Context   map[string]any
	Tags      []string
	Component string
	Extra     map[string]any
}

// Log emits a log message at the given level. fields may be nil.
func (c *Client) Log(level Level, message string, fields *LogFields) {
	now := c.opts.Clock.Now()
	params := LogParams{
		Message:   message,
		Level:     level,
		Timestamp: &now,
	}
	if fields != nil {
		params.Context = fields.Context
		params.Tags = fields.Tags
		params.Component = fields.Component
		params.Extra = fields.Extra
	}
	c.Emit(MethodLog, params)
}

// Debug emits a DEBUG-level log message.
func (c *Client) Debug(message string, fields *LogFields) { c.Log(LevelDebug, message, fields) }

// Info emits an INFO-level log message.
func (c *Client) Info(message string, fields *LogFields) { c.Log(LevelInfo, message, fields) }

// Warn emits a WARN-level log message.
func (c *Client) Warn(message string, fields *LogFields) { c.Log(LevelWarn, message, fields) }

// Error emits an ERROR-level log message.
func (c *Client) Error(message string, fields *LogFields) { c.Log(LevelError, message, fields) }

// Success emits a SUCCESS-level log message.
func (c *Client) Success(message string, fields *LogFields) { c.Log(LevelSuccess, message, fields) }

// MetricFields carries the optional attributes of a metric sample.
type MetricFields struct {
	Unit      string
	Tags      map[string]any
	Component string
}

// Metric emits one metric sample. fields may be nil.
func (c *Client) Metric(name string, value float64, kind MetricKind, fields *MetricFields) {
	now := c.opts.Clock.Now()
	params := MetricParams{
		Name:      name,
		Value:     value,
		Type:      kind,
		Timestamp: &now,
	}
	if fields != nil {
		params.Unit = fields.Unit
		params.Tags = fields.Tags
		if fields.Component != "" {
			params.Extra = map[string]any{"component": fields.Component}
		}
	}
	c.Emit(MethodMetric, params)
}

// Gauge emits a point-in-time measurement.
func (c *Client) Gauge(name string, value float64, fields *MetricFields) {
	c.Metric(name, value, MetricGauge, fields)
}

// Counter emits a monotonically accumulating count.
func (c *Client) Counter(name string, value float64, fields *MetricFields) {
	c.Metric(name, value, MetricCounter, fields)
}

// Histogram emits one observation of a distribution.
func (c *Client) Histogram(name string, value float64, fields *MetricFields) {
	c.Metric(name, value, MetricHistogram, fields)
}

// EventFields carries the optional attributes of a discrete event.
type EventFields struct {
	Message  string
	Severity Severity
	Data     map[string]any
}

// Event emits a discrete named occurrence. fields may be nil, in
// which case severity defaults to info.
func (c *Client) Event(eventType, title string, fields *EventFields) {
	now := c.opts.Clock.Now()
	params := EventParams{
		Type:      eventType,
		Title:     title,
		Severity:  SeverityInfo,
		Timestamp: &now,
	}
	if fields != nil {
		params.Message = fields.Message
		if fields.Severity != "" {
			params.Severity = fields.Severity
		}
		params.Data = fields.Data
	}
	c.Emit(MethodEvent, params)
}

// SessionID returns the identifier stamped on every message of this
// client's lifetime.
func (c *Client) SessionID() string { return c.sessionID }

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() Stats {
	return Stats{
		Queued:   c.queue.Len(),
		Enqueued: c.enqueued.Load(),
		Dropped:  c.queue.Dropped(),
		Flushed:  c.flusher.flushed.Load(),
		Batches:  c.flusher.batches.Load(),
		Failed:   c.flusher.failed.Load(),
		Rejected: c.flusher.rejected.Load(),
	}
}

// Shutdown stops accepting new messages, waits up to the configured
// timeout for the flusher to drain the queue, and closes the sink.
// Safe to call more than once; later calls are no-ops.
func (c *Client) Shutdown() {
	c.shutdownOnce.Do(func() {
		close(c.closed)
		select {
		case <-c.flusher.shutdown():
		case <-time.After(c.opts.ShutdownTimeout):
			c.opts.Logger.Warn("telemetry shutdown timed out, abandoning queue",
				"remaining", c.queue.Len(),
			)
		}
		if err := c.opts.Sink.Close(); err != nil {
			c.opts.Logger.Warn("telemetry sink close failed", "error", err)
		}
	})
}
