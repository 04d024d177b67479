// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// Package confpanel is a validated, typed key/value store whose
// schema and values mirror to the telemetry stream as hawk.config
// envelopes.
//
// A Panel holds field definitions (type, bounds, enum options, custom
// validator) and current values. SetValue applies the full validation
// chain all-or-nothing: a rejected value leaves the store untouched
// and reports failure as a return value, never a panic. Values can be
// persisted to a flat JSON file and loaded back through the same
// validation path.
package confpanel
