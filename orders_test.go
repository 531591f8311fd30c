// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "testing"

func TestDecodeBufferAddress(t *testing.T) {
	row, col, ok := decodeBufferAddress(0x01, 0x01, DefaultRows, DefaultCols)
	if !ok || row != 0 || col != 0 {
		t.Errorf("(1,1) should decode to (0,0), got (%d,%d) ok=%v", row, col, ok)
	}

	row, col, ok = decodeBufferAddress(0x0C, 0x28, DefaultRows, DefaultCols)
	if !ok || row != 11 || col != 39 {
		t.Errorf("(12,40) should decode to (11,39), got (%d,%d) ok=%v", row, col, ok)
	}
}

func TestDecodeBufferAddressOutOfRange(t *testing.T) {
	if _, _, ok := decodeBufferAddress(25, 1, DefaultRows, DefaultCols); ok {
		t.Error("row 25 should be out of range for a 24-row screen")
	}
	if _, _, ok := decodeBufferAddress(1, 81, DefaultRows, DefaultCols); ok {
		t.Error("col 81 should be out of range for an 80-col screen")
	}
}

func TestFieldAttributePredicates(t *testing.T) {
	unprotected := attrUnprotectedBit
	if !isUnprotected(unprotected) {
		t.Error("expected unprotected bit to be recognized")
	}
	if isUnprotected(0x00) {
		t.Error("0x00 should be protected")
	}
	if !isNumericOnly(attrNumericBit) {
		t.Error("expected numeric bit to be recognized")
	}
	if !isFER(attrFERBit) {
		t.Error("expected FER bit to be recognized")
	}
}
