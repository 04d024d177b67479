// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit appends tamper-evident records to a local file and
// mirrors them through the telemetry transport.
//
// Every record carries a checksum computed over the canonical form of
// all its other fields. The canonical form is deterministic CBOR of
// the record's JSON shape, so a record survives being written,
// re-read, and re-verified regardless of JSON number representation.
// VerifyIntegrity re-reads the file and reports how many lines still
// match their checksums; corruption is counted, never fatal.
package audit
