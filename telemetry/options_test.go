// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions("demo")
	if err := opts.Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}
	if opts.QueueCapacity != DefaultQueueCapacity {
		t.Fatalf("expected capacity %d, got %d", DefaultQueueCapacity, opts.QueueCapacity)
	}
	if opts.FlushInterval != DefaultFlushInterval {
		t.Fatalf("expected interval %s, got %s", DefaultFlushInterval, opts.FlushInterval)
	}
}

func TestOptionsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing app name", func(o *Options) { o.AppName = "" }},
		{"zero capacity", func(o *Options) { o.QueueCapacity = 0 }},
		{"zero threshold", func(o *Options) { o.FlushThreshold = 0 }},
		{"threshold above capacity", func(o *Options) { o.FlushThreshold = o.QueueCapacity + 1 }},
		{"zero interval", func(o *Options) { o.FlushInterval = 0 }},
		{"zero shutdown timeout", func(o *Options) { o.ShutdownTimeout = 0 }},
		{"bad compression", func(o *Options) { o.CaptureCompression = "gzip" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := NewOptions("demo")
			tc.mutate(&opts)
			if err := opts.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadOptionsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hawk.yaml")
	content := `
app_name: batch-worker
queue_capacity: 500
flush_threshold: 50
flush_interval: 250ms
capture_compression: zstd
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	opts, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if opts.AppName != "batch-worker" {
		t.Fatalf("expected app_name batch-worker, got %q", opts.AppName)
	}
	if opts.QueueCapacity != 500 || opts.FlushThreshold != 50 {
		t.Fatalf("unexpected sizes: capacity=%d threshold=%d",
			opts.QueueCapacity, opts.FlushThreshold)
	}
	if opts.FlushInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms interval, got %s", opts.FlushInterval)
	}
	// Absent fields keep their defaults.
	if opts.ShutdownTimeout != DefaultShutdownTimeout {
		t.Fatalf("expected default shutdown timeout, got %s", opts.ShutdownTimeout)
	}
}

func TestLoadOptionsRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hawk.yaml")
	content := "app_name: demo\nflush_treshold: 10\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadOptions(path); err == nil {
		t.Fatal("expected error for misspelled key")
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	if _, err := LoadOptions(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
