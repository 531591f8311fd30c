// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"testing"

	"github.com/racingmars/go5250/internal/codepage"
)

func newTestDecoder(t *testing.T) (*decoder, *Screen, *OIA) {
	t.Helper()
	table, err := codepage.Get("037")
	if err != nil {
		t.Fatalf("loading CCSID 037: %v", err)
	}
	screen := NewScreen()
	oia := NewOIA()
	return newDecoder(screen, oia, table, "IBM-3179-2"), screen, oia
}

// wtdHeader builds a Write to Display command byte plus CC1 (unlock)
// and CC2 bytes, ready to have orders appended.
func wtdHeader(cc1 byte) []byte {
	return []byte{cmdWriteToDisplay, cc1, 0x00}
}

func TestDecoderWritesCharacters(t *testing.T) {
	d, s, _ := newTestDecoder(t)
	rec := wtdHeader(ccKeyboardUnlock)
	rec = append(rec, orderSBA, 0x01, 0x01)
	rec = append(rec, 0xC8, 0x85, 0x93, 0x93, 0x96) // EBCDIC "Hello" under CCSID 037
	if err := d.ProcessRecord(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := s.Line(0)[:5]
	if got != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", got)
	}
}

func TestDecoderSBAOutOfRangeProducesNegativeResponse(t *testing.T) {
	d, _, _ := newTestDecoder(t)
	rec := wtdHeader(ccKeyboardUnlock)
	rec = append(rec, orderSBA, 0xFF, 0xFF) // row 255, far out of range
	if err := d.ProcessRecord(rec); err != nil {
		t.Fatalf("malformed orders must not produce a ProtocolError: %v", err)
	}
	out := d.TakeOutbound()
	if len(out) != 1 || out[0][0] != nrRequestError {
		t.Fatalf("expected one negative-response record, got %v", out)
	}
}

func TestDecoderStartOfFieldRegistersField(t *testing.T) {
	d, s, _ := newTestDecoder(t)
	rec := wtdHeader(ccKeyboardUnlock)
	rec = append(rec, orderSBA, 0x01, 0x01)
	rec = append(rec, orderSF, attrUnprotectedBit)
	rec = append(rec, 0xC8, 0x85, 0x93, 0x93, 0x96)
	rec = append(rec, orderSF, 0x00) // close the field

	if err := d.ProcessRecord(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := s.FieldAt(0, 1)
	if f == nil {
		t.Fatal("expected a field to be registered at (0,1)")
	}
	if f.Length != 5 {
		t.Errorf("expected field length 5, got %d", f.Length)
	}
	if !f.Unprotected() {
		t.Error("expected field to be unprotected")
	}
}

func TestDecoderClearUnitResetsEverything(t *testing.T) {
	d, s, o := newTestDecoder(t)
	rec := wtdHeader(ccKeyboardUnlock)
	rec = append(rec, orderSF, attrUnprotectedBit)
	if err := d.ProcessRecord(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := d.ProcessRecord([]byte{cmdClearUnit}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Fields()) != 0 {
		t.Error("expected Clear Unit to discard the field table")
	}
	if !o.Locked() {
		t.Error("expected Clear Unit to relock the keyboard")
	}
}

func TestDecoderUnknownCommandIsProtocolError(t *testing.T) {
	d, _, _ := newTestDecoder(t)
	err := d.ProcessRecord([]byte{0x99})
	if err == nil {
		t.Fatal("expected an error for an unrecognized command byte")
	}
	if _, ok := err.(*ProtocolError); !ok {
		t.Errorf("expected *ProtocolError, got %T", err)
	}
}
