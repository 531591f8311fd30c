// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "testing"

func TestFieldsEqualExactMatch(t *testing.T) {
	if !fieldsEqual("100.00", "100.00", 0) {
		t.Error("expected an exact string match to pass with no precision configured")
	}
}

func TestFieldsEqualNoPrecisionRejectsMismatch(t *testing.T) {
	if fieldsEqual("100.001", "100.002", 0) {
		t.Error("expected mismatched strings to fail when no precision tolerance is configured")
	}
}

func TestFieldsEqualWithinPrecision(t *testing.T) {
	if !fieldsEqual("100.001", "100.002", 1) {
		t.Error("expected values rounding to the same 1-decimal figure to match")
	}
	if fieldsEqual("100.04", "100.06", 1) {
		t.Error("expected values rounding to different 1-decimal figures to mismatch")
	}
}

func TestFieldsEqualNonNumericWithPrecisionConfigured(t *testing.T) {
	if fieldsEqual("ABC", "XYZ", 2) {
		t.Error("expected non-numeric strings to never match via precision rounding")
	}
}

func TestStepAssertOIAStatusUsesStatusText(t *testing.T) {
	s, err := NewSession(SessionConfig{CCSID: "037"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.oia.lock(InhibitSystemLock, 0x05)
	s.keyb = newKeyboardController(s.screen, s.oia, s.table, func([]byte) error { return nil })

	step := WorkflowStep{AssertKind: AssertOIAStatus, Expectation: "X SYSTEM"}
	if err := stepAssert(step, nil, Tolerances{}, s); err != nil {
		t.Errorf("expected the assert to pass against the 5250-style status text, got %v", err)
	}
}
