// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestMarshalDeterministicMapOrder(t *testing.T) {
	t.Parallel()

	// Maps with identical contents must encode to identical bytes
	// regardless of insertion order.
	first := map[string]any{"alpha": 1, "beta": "x", "gamma": true}
	second := map[string]any{"gamma": true, "beta": "x", "alpha": 1}

	firstBytes, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal(first): %v", err)
	}
	secondBytes, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal(second): %v", err)
	}

	if !bytes.Equal(firstBytes, secondBytes) {
		t.Fatalf("deterministic encoding violated:\n  %x\n  %x", firstBytes, secondBytes)
	}
}

func TestUnmarshalAnyProducesStringKeyedMaps(t *testing.T) {
	t.Parallel()

	data, err := Marshal(map[string]any{"nested": map[string]any{"key": "value"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	top, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type %T, want map[string]any", decoded)
	}
	if _, ok := top["nested"].(map[string]any); !ok {
		t.Fatalf("nested type %T, want map[string]any", top["nested"])
	}
}

func TestRoundTripStruct(t *testing.T) {
	t.Parallel()

	type record struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	original := record{Name: "batch", Count: 42}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded record
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Fatalf("round trip: got %+v, want %+v", decoded, original)
	}
}
