// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "testing"

func TestNewScreenIsBlank(t *testing.T) {
	s := NewScreen()
	if s.CharAt(0, 0) != ' ' {
		t.Error("a fresh screen should be all spaces")
	}
	row, col := s.Cursor()
	if row != 0 || col != 0 {
		t.Errorf("a fresh screen should home the cursor, got (%d,%d)", row, col)
	}
}

func TestScreenTextLineCount(t *testing.T) {
	s := NewScreen()
	text := s.Text()
	lines := 1
	for _, r := range text {
		if r == '\n' {
			lines++
		}
	}
	if lines != DefaultRows {
		t.Errorf("expected %d lines, got %d", DefaultRows, lines)
	}
}

func TestFieldTableAtAndTraversal(t *testing.T) {
	ft := newFieldTable(DefaultCols, DefaultRows)
	f1 := &Field{Row: 0, Col: 5, Length: 10, Attr: attrUnprotectedBit}
	f2 := &Field{Row: 1, Col: 5, Length: 10, Attr: attrUnprotectedBit}
	ft.add(f1)
	ft.add(f2)

	if got := ft.at(0, 6); got != f1 {
		t.Error("expected position (0,6) to belong to f1")
	}
	if got := ft.at(1, 6); got != f2 {
		t.Error("expected position (1,6) to belong to f2")
	}
	if got := ft.at(5, 5); got != nil {
		t.Error("expected no field at an empty position")
	}

	if got := ft.next(0, 6); got != f2 {
		t.Error("expected next() from inside f1 to return f2")
	}
	if got := ft.next(1, 6); got != f1 {
		t.Error("expected next() to wrap around back to f1")
	}
}

func TestFieldPredicates(t *testing.T) {
	protected := &Field{Attr: 0x00}
	if protected.Unprotected() {
		t.Error("attribute 0x00 should be protected")
	}
	unprotected := &Field{Attr: attrUnprotectedBit}
	if !unprotected.Unprotected() {
		t.Error("expected unprotected field to report Unprotected() == true")
	}
}
