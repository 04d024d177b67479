// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/hawk-tui/hawk-go/lib/clock"
	"github.com/hawk-tui/hawk-go/telemetry"
)

// Emitter is the slice of the telemetry client the logger needs for
// mirroring records. *telemetry.Client satisfies it.
type Emitter interface {
	Emit(method string, params any)
}

// Logger appends checksummed records to an audit file, one JSON
// object per line, and mirrors each record through the transport as
// an informational event. The file is append-only; nothing in this
// package ever rewrites it.
//
// Sequence numbers are monotonic per process. Ordering across process
// restarts is provided by the session id, a fresh UUID per Logger.
type Logger struct {
	emitter Emitter
	clk     clock.Clock

	mu        sync.Mutex
	path      string
	file      *os.File
	sequence  uint64
	sessionID string
	source    string
}

// New opens (creating if needed) the audit file at path for
// appending. A nil clk uses the wall clock.
func New(path string, emitter Emitter, clk clock.Clock) (*Logger, error) {
	if clk == nil {
		clk = clock.Real()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open audit file: %w", err)
	}

	source, err := os.Hostname()
	if err != nil {
		source = "unknown"
	}
	return &Logger{
		emitter:   emitter,
		clk:       clk,
		path:      path,
		file:      file,
		sessionID: uuid.NewString(),
		source:    source,
	}, nil
}

// SessionID returns the logger's session identifier, stamped into
// every record.
func (l *Logger) SessionID() string { return l.sessionID }

// LogAccess records an access attempt on a resource.
func (l *Logger) LogAccess(user, resource, action, result string, details map[string]any) (Record, error) {
	if details == nil {
		details = map[string]any{}
	}
	return l.LogEvent("access", map[string]any{
		"user":     user,
		"resource": resource,
		"action":   action,
		"result":   result,
		"details":  details,
	})
}

// LogConfigChange records a configuration value change.
func (l *Logger) LogConfigChange(user, key string, oldValue, newValue any) (Record, error) {
	return l.LogEvent("config_change", map[string]any{
		"user":       user,
		"config_key": key,
		"old_value":  fmt.Sprint(oldValue),
		"new_value":  fmt.Sprint(newValue),
	})
}

// LogCommand records a command execution.
func (l *Logger) LogCommand(user, command string, args []string, result, output string) (Record, error) {
	return l.LogEvent("command", map[string]any{
		"user":      user,
		"command":   command,
		"arguments": args,
		"result":    result,
		"output":    output,
	})
}

// LogEvent builds, checksums, appends, and mirrors one audit record.
// The returned Record includes the assigned sequence and checksum.
// The file write is synchronous; a write failure is returned but the
// record is still mirrored through the transport.
func (l *Logger) LogEvent(eventType string, data map[string]any) (Record, error) {
	l.mu.Lock()
	l.sequence++
	record := Record{
		Timestamp: l.clk.Now().UTC(),
		SessionID: l.sessionID,
		Sequence:  l.sequence,
		EventType: eventType,
		Data:      data,
		Source:    l.source,
	}

	checksum, err := computeChecksum(record)
	if err != nil {
		l.mu.Unlock()
		return Record{}, err
	}
	record.Checksum = checksum

	line, err := json.Marshal(record)
	if err != nil {
		l.mu.Unlock()
		return Record{}, fmt.Errorf("audit: encoding record: %w", err)
	}
	line = append(line, '\n')
	_, writeErr := l.file.Write(line)
	l.mu.Unlock()

	l.mirror(record)

	if writeErr != nil {
		return record, fmt.Errorf("audit: appending record: %w", writeErr)
	}
	return record, nil
}

// mirror forwards the record through the transport as an
// informational event.
func (l *Logger) mirror(record Record) {
	if l.emitter == nil {
		return
	}
	l.emitter.Emit(telemetry.MethodEvent, telemetry.EventParams{
		Type:     "audit_event",
		Title:    "Audit: " + record.EventType,
		Severity: telemetry.SeverityInfo,
		Data: map[string]any{
			"session_id": record.SessionID,
			"sequence":   record.Sequence,
			"event_type": record.EventType,
			"data":       record.Data,
			"source":     record.Source,
			"checksum":   record.Checksum,
		},
	})
}

// Report summarizes an integrity scan.
type Report struct {
	// Verified counts lines whose recomputed checksum matched.
	Verified int

	// Corrupted counts mismatches and unparseable lines.
	Corrupted int
}

// Total returns the number of scanned lines.
func (r Report) Total() int { return r.Verified + r.Corrupted }

// IntegrityRatio is the fraction of lines that verified, 1.0 for an
// empty file.
func (r Report) IntegrityRatio() float64 {
	if r.Total() == 0 {
		return 1.0
	}
	return float64(r.Verified) / float64(r.Total())
}

// VerifyIntegrity re-reads the audit file line by line and recomputes
// every checksum. Corrupted lines are counted, not fatal; only a
// failure to read the file at all returns an error.
func (l *Logger) VerifyIntegrity() (Report, error) {
	l.mu.Lock()
	path := l.path
	l.mu.Unlock()
	return VerifyFile(path)
}

// VerifyFile scans any audit file without needing a live Logger.
func VerifyFile(path string) (Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("audit: open for verification: %w", err)
	}
	defer file.Close()

	var report Report
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if verifyLine(line) {
			report.Verified++
		} else {
			report.Corrupted++
		}
	}
	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("audit: scanning audit file: %w", err)
	}
	return report, nil
}

// Close releases the file handle. The Logger must not be used after
// Close.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
