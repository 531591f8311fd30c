// This file is part of https://github.com/racingmars/go5250/
// Copyright 2020, 2025 by Matthew R. Wilson, licensed under the MIT license.
// See LICENSE in the project root for license information.

package codepage

import (
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/transform"
)

func TestGetKnownCCSIDs(t *testing.T) {
	for _, id := range []string{"037", "500", "1140", "870", "875"} {
		if _, err := Get(id); err != nil {
			t.Errorf("Get(%q) returned unexpected error: %v", id, err)
		}
	}
}

func TestGetUnknownCCSID(t *testing.T) {
	if _, err := Get("99999"); err == nil {
		t.Error("expected error for unknown CCSID, got nil")
	}
}

func TestRoundTripOverMappedSubset(t *testing.T) {
	for _, id := range Available() {
		tbl, err := Get(id)
		if err != nil {
			t.Fatalf("Get(%q): %v", id, err)
		}
		for b := 0; b < 256; b++ {
			r := tbl.Decode(byte(b))
			if r == Substitute {
				// spec.md §9: some CCSIDs have documented unmappable
				// slots; round-trip is only guaranteed over the mapped
				// subset.
				continue
			}
			got, err := tbl.Encode(r)
			if err != nil {
				t.Errorf("ccsid %s: Encode(Decode(0x%02x)) returned error: %v", id, b, err)
				continue
			}
			if got != byte(b) {
				t.Errorf("ccsid %s: round trip for byte 0x%02x produced 0x%02x", id, b, got)
			}
		}
	}
}

func TestEncodeUnmappableIsError(t *testing.T) {
	tbl, err := Get("870")
	if err != nil {
		t.Fatal(err)
	}
	// 0x41 is a documented unmapped slot in our 870 table.
	if r := tbl.Decode(0x41); r != Substitute {
		t.Fatalf("expected byte 0x41 to decode to Substitute, got %U", r)
	}
	if _, err := tbl.EncodeString(string(rune(0xFFFE))); err == nil {
		t.Error("expected EncodeString of an unmapped code point to fail")
	} else {
		var uerr *UnmappableError
		if !errors.As(err, &uerr) {
			t.Errorf("expected *UnmappableError, got %T", err)
		}
	}
}

func TestEncodeStringAllOrNothing(t *testing.T) {
	tbl, err := Get("037")
	if err != nil {
		t.Fatal(err)
	}
	_, err = tbl.EncodeString("AB" + string(rune(0xFFFE)) + "CD")
	if err == nil {
		t.Fatal("expected error from unmappable rune in middle of string")
	}
}

func TestEncodingDecoderRoundTrip(t *testing.T) {
	tbl, err := Get("037")
	if err != nil {
		t.Fatal(err)
	}
	enc := tbl.NewEncoding()

	input := "HELLO 123"
	ebcdic, err := tbl.EncodeString(input)
	if err != nil {
		t.Fatal(err)
	}

	r := transform.NewReader(strings.NewReader(string(ebcdic)), enc.NewDecoder())
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != input {
		t.Errorf("got %q, want %q", string(out), input)
	}
}

func TestDecodeIsTotal(t *testing.T) {
	tbl, err := Get("037")
	if err != nil {
		t.Fatal(err)
	}
	for b := 0; b < 256; b++ {
		// Decode must never panic and must always return some rune.
		if r := tbl.Decode(byte(b)); r == 0 && b != 0 {
			// rune 0 is a legitimate decode for NUL (byte 0) only
			t.Errorf("byte 0x%02x decoded to NUL unexpectedly", b)
		}
	}
}
