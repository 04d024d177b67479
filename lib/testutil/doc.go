// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared helpers for tests: channel
// receive/send operations with timeout safety valves, so individual
// tests never hang forever on a channel that a buggy implementation
// fails to service.
package testutil
