// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"
)

// sequencer hands out strictly increasing sequence numbers starting
// at 0. It is shared by all producer goroutines of one client.
type sequencer struct {
	next atomic.Uint64
}

// Next claims the next sequence number.
func (s *sequencer) Next() uint64 {
	return s.next.Add(1) - 1
}

// newSessionID derives a session identifier from the wall clock. One
// client instance keeps the same id for its whole lifetime, so a
// reader can group messages from one run of the application.
func newSessionID(now time.Time) string {
	return fmt.Sprintf("sess_%d", now.Unix())
}
