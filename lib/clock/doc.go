// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// The hawk client runs several background loops — the batch flusher and
// one polling loop per dashboard widget — all of which sleep, tick, and
// timestamp. Production code accepts a Clock parameter instead of
// calling time.Now, time.After, time.NewTicker, or time.Sleep directly.
// In production, Real() provides the standard library behavior. In
// tests, Fake() provides a deterministic clock that advances only when
// Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Dashboard struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	d := dashboard.New(emitter, dashboard.Options{Clock: c})
//	// ... widget loops start ...
//	c.WaitForTimers(1)         // wait for a loop to register its sleep
//	c.Advance(1 * time.Second) // fire it deterministically
//
// # FakeClock Synchronization
//
// When a goroutine calls Sleep, After, or NewTicker on a FakeClock, it
// registers a pending waiter. Use WaitForTimers to block until a
// specific number of waiters are registered before calling Advance.
// This eliminates the race between timer registration and time
// advancement that plagues tests using time.Sleep for synchronization.
package clock
