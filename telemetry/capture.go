// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Capture file layout:
//
//	offset 0: magic "HWKC" (4 bytes)
//	offset 4: format version (1 byte, currently 1)
//	offset 5: compression tag (1 byte)
//	offset 6: uncompressed size, little-endian uint64 (8 bytes)
//	offset 14: payload (compressed NDJSON stream)
//
// The uncompressed size is recorded so decompression can allocate
// exactly and verify the payload was not truncated.
var captureMagic = []byte("HWKC")

const captureVersion = 1

// Compression identifies the algorithm used for a capture file's
// payload. Values are stored in the file header and must not change.
type Compression uint8

const (
	// CompressionNone stores the NDJSON stream uncompressed.
	CompressionNone Compression = 0

	// CompressionLZ4 uses LZ4 block compression. Fast default when
	// capture overhead must stay negligible.
	CompressionLZ4 Compression = 1

	// CompressionZstd uses zstd at its default level. Telemetry
	// streams are repetitive JSON, so zstd typically shrinks them
	// several-fold. The right choice for long sessions.
	CompressionZstd Compression = 2
)

// String returns the human-readable name of a compression value.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression name as it appears in
// configuration files.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown capture compression: %q", name)
	}
}

// zstd encoder/decoder are reused across captures. Both are safe for
// concurrent use.
var (
	captureZstdEncoder *zstd.Encoder
	captureZstdDecoder *zstd.Decoder
)

func init() {
	var err error
	captureZstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("telemetry: zstd encoder initialization failed: " + err.Error())
	}
	captureZstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("telemetry: zstd decoder initialization failed: " + err.Error())
	}
}

// CaptureSink records the full NDJSON stream in memory and writes a
// compressed capture file on Close. It is meant for session recording
// and replay; wrap it in a TeeSink to capture while still emitting
// live output.
type CaptureSink struct {
	mu          sync.Mutex
	buf         bytes.Buffer
	path        string
	compression Compression
	closed      bool
}

// NewCaptureSink creates a sink that writes its capture to path when
// closed.
func NewCaptureSink(path string, compression Compression) *CaptureSink {
	return &CaptureSink{path: path, compression: compression}
}

// Emit appends one newline-terminated wire line to the capture.
func (c *CaptureSink) Emit(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.buf.Write(line)
	c.buf.WriteByte('\n')
	return nil
}

// Close compresses the recorded stream and writes the capture file.
// Incompressible payloads fall back to CompressionNone.
func (c *CaptureSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	raw := c.buf.Bytes()
	tag := c.compression
	payload, err := compressCapture(raw, tag)
	if err != nil {
		tag = CompressionNone
		payload = raw
	}

	header := make([]byte, 0, 14)
	header = append(header, captureMagic...)
	header = append(header, captureVersion, byte(tag))
	header = binary.LittleEndian.AppendUint64(header, uint64(len(raw)))

	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	if err := os.WriteFile(c.path, out, 0o644); err != nil {
		return fmt.Errorf("telemetry: write capture: %w", err)
	}
	return nil
}

// errIncompressible signals that compressed output would not be
// smaller than the input. The capture falls back to CompressionNone.
var errIncompressible = fmt.Errorf("data is incompressible")

func compressCapture(data []byte, tag Compression) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		destination := make([]byte, bound)
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	case CompressionZstd:
		compressed := captureZstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("unsupported capture compression: %d", tag)
	}
}

// ReadCapture reads a capture file and returns the decompressed
// NDJSON stream (one wire line per newline-terminated record).
func ReadCapture(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: read capture: %w", err)
	}
	if len(raw) < 14 || !bytes.Equal(raw[:4], captureMagic) {
		return nil, fmt.Errorf("telemetry: %s is not a capture file", path)
	}
	if raw[4] != captureVersion {
		return nil, fmt.Errorf("telemetry: unsupported capture version %d", raw[4])
	}
	tag := Compression(raw[5])
	size := binary.LittleEndian.Uint64(raw[6:14])
	payload := raw[14:]

	switch tag {
	case CompressionNone:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("telemetry: capture payload %d bytes, header says %d",
				len(payload), size)
		}
		return payload, nil

	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("telemetry: lz4 decompress capture: %w", err)
		}
		if uint64(read) != size {
			return nil, fmt.Errorf("telemetry: capture decompressed to %d bytes, header says %d",
				read, size)
		}
		return destination, nil

	case CompressionZstd:
		destination := make([]byte, 0, size)
		result, err := captureZstdDecoder.DecodeAll(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("telemetry: zstd decompress capture: %w", err)
		}
		if uint64(len(result)) != size {
			return nil, fmt.Errorf("telemetry: capture decompressed to %d bytes, header says %d",
				len(result), size)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("telemetry: unknown capture compression %d", tag)
	}
}

// TeeSink fans each batch out to several sinks in order. The first
// write error is returned after all sinks have been attempted, so a
// failing live sink does not starve the capture.
type TeeSink struct {
	sinks []Sink
}

// NewTeeSink combines sinks into one. Typical use is live stdout plus
// a CaptureSink.
func NewTeeSink(sinks ...Sink) *TeeSink {
	return &TeeSink{sinks: sinks}
}

// Emit writes the line to every sink.
func (t *TeeSink) Emit(line []byte) error {
	var firstErr error
	for _, s := range t.sinks {
		if err := s.Emit(line); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink, returning the first error.
func (t *TeeSink) Close() error {
	var firstErr error
	for _, s := range t.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
