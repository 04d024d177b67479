// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// Package progress tracks long-running operations and derives
// completion estimates from observed throughput.
//
// A Tracker owns the set of active operations and a history of
// completed ones. Operations form a hierarchy: completing a parent
// completes its children first, so a consumer always sees child
// terminal envelopes before the parent's. Every state change fans out
// a hawk.progress envelope through the telemetry transport; the
// Tracker itself never blocks on I/O.
package progress
