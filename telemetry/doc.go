// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry implements the hawk client's asynchronous telemetry
// transport: the bounded-buffer pipeline that turns application calls
// into ordered, batched, line-delimited JSON-RPC envelopes on a sink.
//
// The package is organized around the message data flow:
//
//   - params.go: typed parameter structs for each wire method
//   - envelope.go: envelope construction and JSON encoding
//   - sequence.go: session identity and the monotonic sequence counter
//   - queue.go: bounded drop-oldest queue between producers and the flusher
//   - flusher.go: the single background worker that batches and writes
//   - sink.go / capture.go: output destinations (stream, compressed file)
//   - client.go: the public producer API (Log, Metric, Event, Emit, Span)
//
// Data flow:
//
//	application call → envelope (sequence stamped) → queue → flusher → sink
//
// Every public producer call is non-blocking and never returns an
// error: under queue pressure the oldest unflushed envelope is dropped
// (recency over completeness), and encode or sink failures are contained
// inside the flusher worker. The instrumented application keeps running
// whether or not anything is consuming the stream.
//
// Flush triggers:
//   - Threshold: the flusher drains and writes a batch as soon as the
//     queue holds Options.FlushThreshold envelopes (default 100)
//   - Timer: a partial batch is written every Options.FlushInterval
//     (default 100ms) so low-traffic producers still ship promptly
//
// Shutdown drains the queue, performs a final flush, and joins the
// worker with a bounded wait.
package telemetry
