// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides deterministic CBOR encoding.
//
// The hawk wire protocol itself is line-delimited JSON (see the
// telemetry package), but the audit log needs a canonical byte form to
// compute tamper-evident checksums: the same logical record must always
// hash to the same value, regardless of map iteration order or integer
// width. CBOR Core Deterministic Encoding (RFC 8949 §4.2) provides
// exactly that — sorted map keys, smallest integer encoding, no
// indefinite-length items.
//
// Use Marshal to produce the canonical bytes and Unmarshal to decode
// them. All hashing of structured data in this module goes through this
// package so the canonical form is defined in one place.
package codec
