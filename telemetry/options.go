// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hawk-tui/hawk-go/lib/clock"
)

// Defaults for Options fields left zero. The flush threshold is well
// below the queue capacity so a healthy sink never sees drops.
const (
	DefaultQueueCapacity   = 200
	DefaultFlushThreshold  = 100
	DefaultFlushInterval   = 100 * time.Millisecond
	DefaultShutdownTimeout = 1 * time.Second
)

// Options configures a Client. The zero value is not usable; start
// from NewOptions and override what you need.
type Options struct {
	// AppName identifies this application in every message's
	// metadata. Required.
	AppName string

	// QueueCapacity bounds the pending-envelope queue. When full,
	// the oldest envelope is dropped.
	QueueCapacity int

	// FlushThreshold is the batch size that triggers an immediate
	// flush. Must not exceed QueueCapacity.
	FlushThreshold int

	// FlushInterval is the cadence at which partial batches are
	// flushed.
	FlushInterval time.Duration

	// ShutdownTimeout bounds the drain during Shutdown. Envelopes
	// still queued when it expires are lost.
	ShutdownTimeout time.Duration

	// CapturePath, when set, records the full session to a capture
	// file alongside the live sink.
	CapturePath string

	// CaptureCompression selects the capture file's compression
	// ("none", "lz4", "zstd"). Only consulted when CapturePath is
	// set.
	CaptureCompression string

	// Sink receives encoded batches. Defaults to stdout NDJSON.
	// Not settable from YAML.
	Sink Sink

	// Logger receives the client's own diagnostics (drop warnings,
	// sink failures). These go through slog, never through the
	// telemetry stream itself. Defaults to slog.Default.
	Logger *slog.Logger

	// Clock drives the flush ticker. Tests substitute a fake.
	Clock clock.Clock
}

// fileOptions is the YAML form of Options. Durations are strings in
// Go duration syntax ("100ms", "2s"); zero-valued fields fall back to
// the defaults.
type fileOptions struct {
	AppName            string `yaml:"app_name"`
	QueueCapacity      int    `yaml:"queue_capacity"`
	FlushThreshold     int    `yaml:"flush_threshold"`
	FlushInterval      string `yaml:"flush_interval"`
	ShutdownTimeout    string `yaml:"shutdown_timeout"`
	CapturePath        string `yaml:"capture_path"`
	CaptureCompression string `yaml:"capture_compression"`
}

// NewOptions returns Options with all defaults applied for the given
// application name.
func NewOptions(appName string) Options {
	return Options{
		AppName:         appName,
		QueueCapacity:   DefaultQueueCapacity,
		FlushThreshold:  DefaultFlushThreshold,
		FlushInterval:   DefaultFlushInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadOptions reads Options from a YAML file, applying defaults for
// absent fields. Unknown keys are rejected so typos surface early.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("telemetry: read options: %w", err)
	}

	var file fileOptions
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return Options{}, fmt.Errorf("telemetry: parse options %s: %w", path, err)
	}

	opts := NewOptions(file.AppName)
	if file.QueueCapacity != 0 {
		opts.QueueCapacity = file.QueueCapacity
	}
	if file.FlushThreshold != 0 {
		opts.FlushThreshold = file.FlushThreshold
	}
	if file.FlushInterval != "" {
		interval, err := time.ParseDuration(file.FlushInterval)
		if err != nil {
			return Options{}, fmt.Errorf("telemetry: options %s: flush_interval: %w", path, err)
		}
		opts.FlushInterval = interval
	}
	if file.ShutdownTimeout != "" {
		timeout, err := time.ParseDuration(file.ShutdownTimeout)
		if err != nil {
			return Options{}, fmt.Errorf("telemetry: options %s: shutdown_timeout: %w", path, err)
		}
		opts.ShutdownTimeout = timeout
	}
	opts.CapturePath = file.CapturePath
	opts.CaptureCompression = file.CaptureCompression

	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("telemetry: options %s: %w", path, err)
	}
	return opts, nil
}

// Validate checks the options for internal consistency.
func (o Options) Validate() error {
	if o.AppName == "" {
		return fmt.Errorf("app_name is required")
	}
	if o.QueueCapacity <= 0 {
		return fmt.Errorf("queue_capacity must be positive, got %d", o.QueueCapacity)
	}
	if o.FlushThreshold <= 0 {
		return fmt.Errorf("flush_threshold must be positive, got %d", o.FlushThreshold)
	}
	if o.FlushThreshold > o.QueueCapacity {
		return fmt.Errorf("flush_threshold %d exceeds queue_capacity %d",
			o.FlushThreshold, o.QueueCapacity)
	}
	if o.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be positive, got %s", o.FlushInterval)
	}
	if o.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", o.ShutdownTimeout)
	}
	if o.CaptureCompression != "" {
		if _, err := ParseCompression(o.CaptureCompression); err != nil {
			return err
		}
	}
	return nil
}

// withDefaults fills in the runtime fields that have no YAML form.
func (o Options) withDefaults() Options {
	if o.Sink == nil {
		o.Sink = StdoutSink()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	return o
}
