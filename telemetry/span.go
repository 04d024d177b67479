// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"time"
)

// Span times a scoped unit of work. StartSpan emits an entry log and
// records the start time; End emits a duration histogram plus an exit
// log whose level reflects success or failure. The usual shape is:
//
//	span := client.StartSpan("rebuild_index")
//	defer func() { span.End(err) }()
//
// End is idempotent so a defer and an explicit early call can
// coexist.
type Span struct {
	client    *Client
	name      string
	component string
	start     time.Time
	ended     bool
}

// StartSpan begins timing a named unit of work. component may be
// empty.
func (c *Client) StartSpan(name, component string) *Span {
	s := &Span{
		client:    c,
		name:      name,
		component: component,
		start:     c.opts.Clock.Now(),
	}
	c.Debug(fmt.Sprintf("→ %s started", name), &LogFields{Component: component})
	return s
}

// Child begins a nested span whose name extends this span's path
// ("parent > child"). The child inherits the component unless
// overridden later and times independently of its parent.
func (s *Span) Child(name string) *Span {
	return s.client.StartSpan(s.name+" > "+name, s.component)
}

// End completes the span. A nil err emits a DEBUG exit log; non-nil
// emits ERROR with the failure attached. Either way the duration is
// recorded as a histogram sample named "<name>.duration".
func (s *Span) End(err error) {
	if s.ended {
		return
	}
	s.ended = true

	elapsed := s.client.opts.Clock.Now().Sub(s.start)
	s.client.Histogram(s.name+".duration", elapsed.Seconds(), &MetricFields{
		Unit:      "seconds",
		Component: s.component,
	})

	if err != nil {
		s.client.Error(fmt.Sprintf("✗ %s failed after %.3fs", s.name, elapsed.Seconds()),
			&LogFields{
				Component: s.component,
				Context:   map[string]any{"error": err.Error()},
			})
		return
	}
	s.client.Debug(fmt.Sprintf("✓ %s completed in %.3fs", s.name, elapsed.Seconds()),
		&LogFields{Component: s.component})
}
