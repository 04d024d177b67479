// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeebo/blake3"

	"github.com/hawk-tui/hawk-go/lib/codec"
)

// Record is one audit log entry. Checksum covers every other field;
// a record whose recomputed checksum differs from the stored one has
// been tampered with or corrupted.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id"`
	Sequence  uint64         `json:"sequence"`
	EventType string         `json:"event_type"`
	Data      map[string]any `json:"data,omitempty"`
	Source    string         `json:"source"`
	Checksum  string         `json:"checksum,omitempty"`
}

// recordDomainKey is the BLAKE3 keyed-hash domain for audit record
// checksums: the ASCII domain name zero-padded to 32 bytes. Changing
// it invalidates every existing audit file.
var recordDomainKey = [32]byte{
	'h', 'a', 'w', 'k', '.', 'a', 'u', 'd', 'i', 't', '.',
	'r', 'e', 'c', 'o', 'r', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// checksumBytes is how much of the 32-byte digest the stored checksum
// keeps. 16 bytes is ample for corruption detection and keeps audit
// lines compact.
const checksumBytes = 16

// computeChecksum hashes the canonical form of a record's fields,
// excluding the checksum itself. Canonicalization goes through a JSON
// round trip into a plain map and then deterministic CBOR, so the
// result is identical whether computed from a live Record or from a
// re-parsed audit line.
func computeChecksum(record Record) (string, error) {
	record.Checksum = ""
	jsonForm, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("audit: record not serializable: %w", err)
	}
	var normalized map[string]any
	if err := json.Unmarshal(jsonForm, &normalized); err != nil {
		return "", fmt.Errorf("audit: normalizing record: %w", err)
	}
	return checksumOfMap(normalized)
}

// checksumOfMap hashes an already-normalized record map. The caller
// must have removed the "checksum" key.
func checksumOfMap(fields map[string]any) (string, error) {
	canonical, err := codec.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("audit: canonical encoding: %w", err)
	}
	hasher, err := blake3.NewKeyed(recordDomainKey[:])
	if err != nil {
		panic("audit: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(canonical)
	return hex.EncodeToString(hasher.Sum(nil)[:checksumBytes]), nil
}

// verifyLine parses one audit file line and checks its checksum.
// Returns false for unparseable lines, missing checksums, and
// mismatches alike.
func verifyLine(line []byte) bool {
	var fields map[string]any
	if err := json.Unmarshal(line, &fields); err != nil {
		return false
	}
	stored, ok := fields["checksum"].(string)
	if !ok || stored == "" {
		return false
	}
	delete(fields, "checksum")
	recomputed, err := checksumOfMap(fields)
	if err != nil {
		return false
	}
	return recomputed == stored
}
