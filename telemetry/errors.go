// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "errors"

// Error sentinels for the transport pipeline. All of them are
// contained inside the background worker — none propagate to producer
// calls — but they are exported so tests and sinks can classify
// failures with errors.Is.
var (
	// ErrSerialization indicates an envelope's parameters could not
	// be encoded (unsupported type, cyclic structure). The flusher
	// drops the single offending envelope and keeps the batch alive.
	ErrSerialization = errors.New("telemetry: envelope not serializable")

	// ErrSinkWrite indicates the write to the output sink failed.
	// The batch is discarded (no retry) and the worker continues.
	ErrSinkWrite = errors.New("telemetry: sink write failed")

	// ErrClosed indicates an operation on a client or sink that has
	// already been shut down.
	ErrClosed = errors.New("telemetry: closed")
)
