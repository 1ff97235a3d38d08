// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

// sampleHello is a representative internal handshake message using
// cbor struct tags (the convention for purely-internal types).
type sampleHello struct {
	Protocol int    `cbor:"protocol"`
	Pid      int    `cbor:"pid,omitempty"`
	Width    int    `cbor:"width"`
	Height   int    `cbor:"height"`
	Name     string `cbor:"name"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleHello{
		Protocol: 1,
		Pid:      4211,
		Width:    800,
		Height:   600,
		Name:     "nested-3",
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var decoded sampleHello
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	message := sampleHello{
		Protocol: 1,
		Pid:      7,
		Width:    640,
		Height:   480,
		Name:     "nested-1",
	}

	first, err := Marshal(message)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}

	second, err := Marshal(message)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestEncoderDecoderStreamRoundtrip(t *testing.T) {
	messages := []sampleHello{
		{Protocol: 1, Pid: 100, Width: 320, Height: 200, Name: "a"},
		{Protocol: 1, Pid: 101, Width: 640, Height: 480, Name: "b"},
		{Protocol: 2, Width: 800, Height: 600, Name: "c"},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, message := range messages {
		if err := encoder.Encode(message); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range messages {
		var got sampleHello
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode message %d: %v", i, err)
		}
		if got != want {
			t.Errorf("message %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestOmitemptyRespected(t *testing.T) {
	// A zero-value omitempty field should not appear in output.
	withPid := sampleHello{Protocol: 1, Pid: 9, Width: 1, Height: 1, Name: "x"}
	withoutPid := sampleHello{Protocol: 1, Width: 1, Height: 1, Name: "x"}

	dataWith, err := Marshal(withPid)
	if err != nil {
		t.Fatal(err)
	}
	dataWithout, err := Marshal(withoutPid)
	if err != nil {
		t.Fatal(err)
	}

	// The encoding without the pid field should be shorter because the
	// omitted field is not present.
	if len(dataWithout) >= len(dataWith) {
		t.Errorf("omitempty not effective: without=%d bytes, with=%d bytes",
			len(dataWithout), len(dataWith))
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var message sampleHello
	err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &message)
	if err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	// Forward compatibility: a newer peer may add fields.
	extended := map[string]any{
		"protocol": 1,
		"width":    640,
		"height":   480,
		"name":     "n",
		"extra":    "future field",
	}
	data, err := Marshal(extended)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleHello
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Width != 640 || decoded.Height != 480 {
		t.Errorf("known fields lost: %+v", decoded)
	}
}

func TestByteStringRoundtrip(t *testing.T) {
	// Verify that []byte fields encode as CBOR byte strings (major
	// type 2), not text strings. This matters for carrying compressed
	// frame payloads.
	type envelope struct {
		Payload []byte `cbor:"payload"`
	}

	original := envelope{Payload: []byte{0x00, 0x01, 0xFE, 0xFF}}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded envelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !bytes.Equal(decoded.Payload, original.Payload) {
		t.Errorf("byte string roundtrip: got %x, want %x", decoded.Payload, original.Payload)
	}
}

func BenchmarkMarshal(b *testing.B) {
	message := sampleHello{
		Protocol: 1,
		Pid:      4211,
		Width:    800,
		Height:   600,
		Name:     "nested-3",
	}

	b.ReportAllocs()
	for b.Loop() {
		Marshal(message)
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	message := sampleHello{
		Protocol: 1,
		Pid:      4211,
		Width:    800,
		Height:   600,
		Name:     "nested-3",
	}
	data, err := Marshal(message)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		var decoded sampleHello
		Unmarshal(data, &decoded)
	}
}
