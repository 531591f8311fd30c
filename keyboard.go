// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"errors"

	"github.com/racingmars/go5250/internal/codepage"
)

// keyboardController implements the 5250 keyboard state machine of
// spec.md §4.5: it turns a Key into either a local screen edit
// (data/cursor/local keys) or an outbound AID response record, and
// enforces the input-inhibit invariant against the OIA.
//
// Session owns one keyboardController and funnels every Send call
// through it; the controller never talks to the network directly,
// it hands finished records to transmit.
type keyboardController struct {
	screen   *Screen
	oia      *OIA
	table    *codepage.Table
	transmit func([]byte) error
}

func newKeyboardController(screen *Screen, oia *OIA, table *codepage.Table, transmit func([]byte) error) *keyboardController {
	return &keyboardController{screen: screen, oia: oia, table: table, transmit: transmit}
}

// Send dispatches one Key through the state machine. It returns
// *OperatorErrorError if the keyboard is currently inhibited,
// *FieldError if a data key or AID is rejected by field rules, or a
// transmit error from the underlying connection.
func (k *keyboardController) Send(key Key) error {
	if key.Kind != KeyLocal {
		if k.oia.Locked() {
			return &OperatorErrorError{Code: 0x02, Reason: k.oia.Reason()}
		}
	}

	switch key.Kind {
	case KeyData:
		return k.sendData(key.Rune)
	case KeyCursor:
		return k.sendCursor(key.Cursor)
	case KeyAID:
		return k.sendAID(key.AID)
	case KeyLocal:
		return k.sendLocal(key.Local)
	default:
		return &ConfigError{Reason: "unknown key kind"}
	}
}

func (k *keyboardController) sendData(r rune) error {
	k.screen.mu.Lock()
	defer k.screen.mu.Unlock()

	row, col := k.screen.cursorRow, k.screen.cursorCol
	f := k.screen.fields.at(row, col)
	if f == nil {
		return &FieldError{Kind: FieldErrorNoField}
	}
	if !f.Unprotected() || f.Bypass() {
		return &FieldError{Kind: FieldErrorProtected, FieldName: f.Name}
	}
	if f.Numeric() && !isNumericRune(r) {
		return &FieldError{Kind: FieldErrorNumeric, FieldName: f.Name}
	}
	if _, err := k.table.Encode(r); err != nil {
		return unmappableError(err)
	}

	off := row*k.screen.cols + col
	total := k.screen.cols * k.screen.rows
	start := f.contentStart(k.screen.cols) % total
	used := (off - start + total) % total
	if used >= f.Length {
		return &FieldError{Kind: FieldErrorTruncation, FieldName: f.Name, Max: f.Length, Got: used + 1}
	}

	k.screen.chars[off] = r
	k.screen.dirty.mark(row, col)
	f.MDT = true

	k.advanceWithinField(f, off)
	return nil
}

// unmappableError adapts a codepage.UnmappableError into the public
// UnmappableCharacterError, passing through any other encode failure
// unchanged.
func unmappableError(err error) error {
	var uerr *codepage.UnmappableError
	if errors.As(err, &uerr) {
		return &UnmappableCharacterError{CCSID: uerr.CCSID, Codepoint: uerr.Codepoint}
	}
	return err
}

// sendString types every rune of s into the field at the cursor as a
// single atomic operation: the field's remaining capacity and the
// CCSID-encodability of every rune are validated before anything is
// written, so a rejected string leaves the plane at its pre-call
// contents, per spec.md §7/§8.
func (k *keyboardController) sendString(s string) error {
	k.screen.mu.Lock()
	defer k.screen.mu.Unlock()

	row, col := k.screen.cursorRow, k.screen.cursorCol
	f := k.screen.fields.at(row, col)
	if f == nil {
		return &FieldError{Kind: FieldErrorNoField}
	}
	if !f.Unprotected() || f.Bypass() {
		return &FieldError{Kind: FieldErrorProtected, FieldName: f.Name}
	}

	runes := []rune(s)
	total := k.screen.cols * k.screen.rows
	start := f.contentStart(k.screen.cols) % total
	off := row*k.screen.cols + col
	used := (off - start + total) % total
	if used+len(runes) > f.Length {
		return &FieldError{Kind: FieldErrorTruncation, FieldName: f.Name, Max: f.Length, Got: used + len(runes)}
	}
	for _, r := range runes {
		if f.Numeric() && !isNumericRune(r) {
			return &FieldError{Kind: FieldErrorNumeric, FieldName: f.Name}
		}
		if _, err := k.table.Encode(r); err != nil {
			return unmappableError(err)
		}
	}

	for i, r := range runes {
		cellOff := (off + i) % total
		k.screen.chars[cellOff] = r
		k.screen.dirty.mark(cellOff/k.screen.cols, cellOff%k.screen.cols)
	}
	if len(runes) > 0 {
		f.MDT = true
		k.advanceWithinField(f, (off+len(runes)-1)%total)
	}
	return nil
}

// isNumericRune reports whether r is acceptable input for a
// numeric-only 5250 field.
func isNumericRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r == '+' || r == '-' || r == '.' || r == ',':
		return true
	default:
		return false
	}
}

// advanceWithinField moves the cursor to the next cell in f, or to
// the next input-capable field if f is now full, per the
// cursorProgression behavior of spec.md §4.5.
func (k *keyboardController) advanceWithinField(f *Field, off int) {
	total := k.screen.cols * k.screen.rows
	start := f.contentStart(k.screen.cols) % total
	used := (off - start + total) % total
	if used+1 < f.Length {
		next := (off + 1) % total
		k.screen.cursorRow, k.screen.cursorCol = next/k.screen.cols, next%k.screen.cols
		return
	}
	nf := k.screen.fields.next(f.Row, f.Col)
	if nf != nil {
		nstart := nf.contentStart(k.screen.cols) % total
		k.screen.cursorRow, k.screen.cursorCol = nstart/k.screen.cols, nstart%k.screen.cols
	}
}

func (k *keyboardController) sendCursor(m CursorMove) error {
	k.screen.mu.Lock()
	defer k.screen.mu.Unlock()

	row, col := k.screen.cursorRow, k.screen.cursorCol
	switch m {
	case CursorHome:
		if f := k.screen.fields.next(-1, -1); f != nil {
			total := k.screen.cols * k.screen.rows
			start := f.contentStart(k.screen.cols) % total
			k.screen.cursorRow, k.screen.cursorCol = start/k.screen.cols, start%k.screen.cols
		} else {
			k.screen.cursorRow, k.screen.cursorCol = 0, 0
		}
	case CursorUp:
		k.screen.cursorRow = (row - 1 + k.screen.rows) % k.screen.rows
	case CursorDown:
		k.screen.cursorRow = (row + 1) % k.screen.rows
	case CursorLeft:
		k.moveLinear(-1)
	case CursorRight:
		k.moveLinear(1)
	case CursorNewLine:
		k.screen.cursorRow = (row + 1) % k.screen.rows
		k.screen.cursorCol = 0
	case CursorTab:
		if f := k.screen.fields.next(row, col); f != nil {
			total := k.screen.cols * k.screen.rows
			start := f.contentStart(k.screen.cols) % total
			k.screen.cursorRow, k.screen.cursorCol = start/k.screen.cols, start%k.screen.cols
		}
	case CursorBackTab:
		if f := k.screen.fields.previous(row, col); f != nil {
			total := k.screen.cols * k.screen.rows
			start := f.contentStart(k.screen.cols) % total
			k.screen.cursorRow, k.screen.cursorCol = start/k.screen.cols, start%k.screen.cols
		}
	case CursorFieldHome:
		if f := k.screen.fields.at(row, col); f != nil {
			total := k.screen.cols * k.screen.rows
			start := f.contentStart(k.screen.cols) % total
			k.screen.cursorRow, k.screen.cursorCol = start/k.screen.cols, start%k.screen.cols
		}
	}
	return nil
}

func (k *keyboardController) moveLinear(delta int) {
	total := k.screen.cols * k.screen.rows
	off := k.screen.cursorRow*k.screen.cols + k.screen.cursorCol
	off = (off + delta + total) % total
	k.screen.cursorRow, k.screen.cursorCol = off/k.screen.cols, off%k.screen.cols
}

func (k *keyboardController) sendAID(aid AID) error {
	k.screen.mu.Lock()

	for _, f := range k.screen.fields.fields {
		if f.MDT && f.FERRequired() {
			k.screen.mu.Unlock()
			return &FieldError{Kind: FieldErrorFERNotSatisfied, FieldName: f.Name}
		}
	}

	fieldsCopy := make([]*Field, len(k.screen.fields.fields))
	copy(fieldsCopy, k.screen.fields.fields)
	cursorRow, cursorCol := k.screen.cursorRow, k.screen.cursorCol
	getText := func(f *Field) string { return k.screen.fieldTextLocked(f) }

	if !aid.IsShortForm() {
		for _, f := range fieldsCopy {
			if !f.MDT || !f.Unprotected() || f.Bypass() {
				continue
			}
			if _, err := k.table.EncodeString(getText(f)); err != nil {
				k.screen.mu.Unlock()
				return unmappableError(err)
			}
		}
	}

	rec := encodeAIDResponse(aid, cursorRow, cursorCol, fieldsCopy, getText, k.table)
	k.screen.mu.Unlock()

	k.oia.lock(InhibitSystemLock, 0x05)
	return k.transmit(rec)
}

func (k *keyboardController) sendLocal(l LocalKey) error {
	switch l {
	case LocalReset:
		if k.oia.Reason() == InhibitOperatorError {
			k.oia.unlock()
		}
	case LocalToggleInsert:
		k.oia.setInsertMode(!k.oia.InsertMode())
	}
	return nil
}
