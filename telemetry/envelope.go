// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata rides alongside every message under the "hawk_meta" key.
// Sequence numbers are stamped at enqueue time and therefore reflect
// acceptance order, not arrival order at the sink.
type Metadata struct {
	AppName   string    `json:"app_name"`
	SessionID string    `json:"session_id"`
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope is one JSON-RPC 2.0 notification carrying a telemetry
// payload. Params holds one of the *Params structs from params.go, or
// any caller-supplied value for custom methods.
type Envelope struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`

	// ID is the optional JSON-RPC correlation id. The protocol is
	// output-only, so the client never expects a response; consumers
	// may still use the id to cross-reference envelopes.
	ID any `json:"id,omitempty"`

	Meta Metadata `json:"hawk_meta"`
}

// newEnvelope fills in the protocol constants and metadata. The
// sequence number must already be claimed by the caller so that
// envelopes dropped before encoding still consume their slot.
func newEnvelope(method string, params any, meta Metadata) Envelope {
	return Envelope{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		Meta:    meta,
	}
}

// Encode renders the envelope as a single JSON object with no
// trailing newline. Failures wrap ErrSerialization so the flusher can
// skip the envelope without aborting the rest of the batch.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("%w: method %s seq %d: %v",
			ErrSerialization, e.Method, e.Meta.Sequence, err)
	}
	return data, nil
}

// encodeBatch renders a slice of envelopes as the wire form the
// reader expects: a bare object for a single envelope, a JSON array
// for several. Envelopes that fail to encode are skipped; the number
// skipped is returned so the flusher can account for them. A batch
// where every envelope fails yields (nil, n, nil).
func encodeBatch(batch []Envelope) ([]byte, int, error) {
	encoded := make([]json.RawMessage, 0, len(batch))
	skipped := 0
	for _, env := range batch {
		data, err := env.Encode()
		if err != nil {
			skipped++
			continue
		}
		encoded = append(encoded, data)
	}
	switch len(encoded) {
	case 0:
		return nil, skipped, nil
	case 1:
		return encoded[0], skipped, nil
	default:
		out, err := json.Marshal(encoded)
		if err != nil {
			// Raw messages are already valid JSON; this cannot
			// fail in practice.
			return nil, skipped, fmt.Errorf("%w: batch of %d: %v",
				ErrSerialization, len(encoded), err)
		}
		return out, skipped, nil
	}
}
