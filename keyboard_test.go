// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"testing"

	"github.com/racingmars/go5250/internal/codepage"
)

func newTestKeyboard(t *testing.T) (*keyboardController, *Screen, *OIA, *[][]byte) {
	t.Helper()
	table, err := codepage.Get("037")
	if err != nil {
		t.Fatalf("loading CCSID 037: %v", err)
	}
	screen := NewScreen()
	oia := NewOIA()
	oia.unlock()

	var sent [][]byte
	transmit := func(rec []byte) error {
		sent = append(sent, rec)
		return nil
	}
	return newKeyboardController(screen, oia, table, transmit), screen, oia, &sent
}

func TestKeyboardRejectsWhenLocked(t *testing.T) {
	k, _, oia, _ := newTestKeyboard(t)
	oia.lock(InhibitSystemLock, 0x05)

	err := k.Send(DataKey('A'))
	if err == nil {
		t.Fatal("expected an error while keyboard is locked")
	}
	if _, ok := err.(*OperatorErrorError); !ok {
		t.Errorf("expected *OperatorErrorError, got %T", err)
	}
}

func TestKeyboardDataKeyRejectedOutsideField(t *testing.T) {
	k, _, _, _ := newTestKeyboard(t)
	err := k.Send(DataKey('A'))
	if err == nil {
		t.Fatal("expected an error typing outside any field")
	}
	if fe, ok := err.(*FieldError); !ok || fe.Kind != FieldErrorNoField {
		t.Errorf("expected FieldErrorNoField, got %v", err)
	}
}

func TestKeyboardDataKeyWritesAndSetsMDT(t *testing.T) {
	k, s, _, _ := newTestKeyboard(t)
	f := &Field{Row: 0, Col: 0, Length: 5, Attr: attrUnprotectedBit}
	s.fields.add(f)
	s.cursorRow, s.cursorCol = 0, 1

	if err := k.Send(DataKey('A')); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CharAt(0, 1) != 'A' {
		t.Errorf("expected 'A' written at (0,1), got %q", s.CharAt(0, 1))
	}
	if !f.MDT {
		t.Error("expected MDT to be set after a data key")
	}
}

func TestKeyboardNumericFieldRejectsLetters(t *testing.T) {
	k, s, _, _ := newTestKeyboard(t)
	f := &Field{Row: 0, Col: 0, Length: 5, Attr: attrUnprotectedBit | attrNumericBit}
	s.fields.add(f)
	s.cursorRow, s.cursorCol = 0, 1

	err := k.Send(DataKey('A'))
	if fe, ok := err.(*FieldError); !ok || fe.Kind != FieldErrorNumeric {
		t.Errorf("expected FieldErrorNumeric, got %v", err)
	}
}

func TestKeyboardAIDArmsResponseAndLocksKeyboard(t *testing.T) {
	k, s, oia, sent := newTestKeyboard(t)
	f := &Field{Row: 0, Col: 0, Length: 5, Attr: attrUnprotectedBit}
	s.fields.add(f)
	f.MDT = true
	s.chars[1] = 'h'
	s.chars[2] = 'i'

	if err := k.Send(AIDKey(AIDEnter)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected exactly one transmitted record, got %d", len(*sent))
	}
	if (*sent)[0][0] != byte(AIDEnter) {
		t.Errorf("expected first byte to be the AID, got 0x%02x", (*sent)[0][0])
	}
	if !oia.Locked() {
		t.Error("expected keyboard to lock immediately after an AID key")
	}
}

func TestKeyboardShortFormAIDOmitsFieldContent(t *testing.T) {
	k, s, _, sent := newTestKeyboard(t)
	f := &Field{Row: 0, Col: 0, Length: 5, Attr: attrUnprotectedBit}
	s.fields.add(f)
	f.MDT = true

	if err := k.Send(AIDKey(AIDClear)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := (*sent)[0]
	if len(rec) != 3 {
		t.Errorf("expected a short-form response of exactly 3 bytes, got %d", len(rec))
	}
}

func TestKeyboardSendStringTruncationLeavesPlaneUnchanged(t *testing.T) {
	k, s, _, _ := newTestKeyboard(t)
	f := &Field{Row: 0, Col: 10, Length: 5, Attr: attrUnprotectedBit}
	s.fields.add(f)
	s.cursorRow, s.cursorCol = 0, 11

	before := s.Text()
	err := k.sendString("ABCDEF")
	fe, ok := err.(*FieldError)
	if !ok || fe.Kind != FieldErrorTruncation {
		t.Fatalf("expected FieldErrorTruncation, got %v", err)
	}
	if fe.Max != 5 || fe.Got != 6 {
		t.Errorf("expected max:5 got:6, got max:%d got:%d", fe.Max, fe.Got)
	}
	if s.Text() != before {
		t.Error("expected the character plane to be unchanged after a rejected send_string")
	}
	if f.MDT {
		t.Error("expected MDT to remain unset after a rejected send_string")
	}
}

func TestKeyboardSendStringExactLengthSucceeds(t *testing.T) {
	k, s, _, _ := newTestKeyboard(t)
	f := &Field{Row: 0, Col: 10, Length: 5, Attr: attrUnprotectedBit}
	s.fields.add(f)
	s.cursorRow, s.cursorCol = 0, 11

	if err := k.sendString("ABCDE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range "ABCDE" {
		if s.CharAt(0, 11+i) != want {
			t.Errorf("position %d: expected %q, got %q", i, want, s.CharAt(0, 11+i))
		}
	}
	if !f.MDT {
		t.Error("expected MDT to be set after a successful send_string")
	}
}

func TestKeyboardDataKeyRejectsUnmappableRune(t *testing.T) {
	k, s, _, _ := newTestKeyboard(t)
	f := &Field{Row: 0, Col: 0, Length: 5, Attr: attrUnprotectedBit}
	s.fields.add(f)
	s.cursorRow, s.cursorCol = 0, 1

	err := k.Send(DataKey('中')) // a CJK ideograph, unmapped in single-byte CCSID 037
	uerr, ok := err.(*UnmappableCharacterError)
	if !ok {
		t.Fatalf("expected *UnmappableCharacterError, got %T (%v)", err, err)
	}
	if uerr.Codepoint != '中' {
		t.Errorf("expected codepoint U+4E2D, got %U", uerr.Codepoint)
	}
	if s.CharAt(0, 1) != ' ' {
		t.Error("expected the character plane to be unchanged after a rejected data key")
	}
}

func TestKeyboardResetClearsOperatorError(t *testing.T) {
	k, _, oia, _ := newTestKeyboard(t)
	oia.lock(InhibitOperatorError, 0x02)

	if err := k.Send(LocalOnlyKey(LocalReset)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oia.Locked() {
		t.Error("expected RESET to clear an operator-error inhibit")
	}
}
