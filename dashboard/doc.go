// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// Package dashboard schedules live widget refreshes.
//
// A Dashboard owns a set of widgets, each backed by a user-supplied
// data callback and an independent refresh period. Every widget gets
// its own polling loop: capture data, emit one hawk.dashboard
// envelope, then sleep for whatever remains of the period so the
// cadence self-corrects under variable callback latency. A failing
// callback is reported through the transport and retried after a full
// period; it never terminates the loop.
//
// Widgets placed without an explicit position flow left to right on a
// 12-column grid and wrap to the next row when the running column
// offset reaches the grid edge.
package dashboard
