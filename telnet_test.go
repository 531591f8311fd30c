// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"io"
	"net"
	"testing"
)

func TestWriteRecordDoublesFFAndEndsWithEOR(t *testing.T) {
	client, peer := net.Pipe()
	defer client.Close()
	defer peer.Close()

	f := NewFramer(client, "IBM-3179-2", "")

	go func() {
		f.WriteRecord([]byte{0x01, 0xff, 0x02})
	}()

	buf := make([]byte, 6)
	if _, err := io.ReadFull(peer, buf); err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	want := []byte{0x01, 0xff, 0xff, 0x02, tnIAC, tnEOR}
	for i, b := range want {
		if buf[i] != b {
			t.Errorf("byte %d: want 0x%02x, got 0x%02x", i, b, buf[i])
		}
	}
}

func TestReadRecordAssemblesUntilEOR(t *testing.T) {
	client, peer := net.Pipe()
	defer client.Close()
	defer peer.Close()

	f := NewFramer(client, "IBM-3179-2", "")

	go func() {
		peer.Write([]byte{0xF1, 0x01, 0x02, tnIAC, tnEOR})
	}()

	rec, err := f.ReadRecord()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xF1, 0x01, 0x02}
	if len(rec) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(rec))
	}
	for i, b := range want {
		if rec[i] != b {
			t.Errorf("byte %d: want 0x%02x, got 0x%02x", i, b, rec[i])
		}
	}
}

func TestReadRecordUnescapesLiteralFF(t *testing.T) {
	client, peer := net.Pipe()
	defer client.Close()
	defer peer.Close()

	f := NewFramer(client, "IBM-3179-2", "")

	go func() {
		peer.Write([]byte{0x01, tnIAC, tnIAC, 0x02, tnIAC, tnEOR})
	}()

	rec, err := f.ReadRecord()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x01, 0xff, 0x02}
	if len(rec) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(rec))
	}
	for i, b := range want {
		if rec[i] != b {
			t.Errorf("byte %d: want 0x%02x, got 0x%02x", i, b, rec[i])
		}
	}
}
