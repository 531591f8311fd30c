// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"errors"
	"testing"
)

func TestSubstituteParams(t *testing.T) {
	row := map[string]string{"user": "jdoe", "dept": "ACCT"}
	out, err := substituteParams("${user}/${dept}", row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "jdoe/ACCT" {
		t.Errorf("expected %q, got %q", "jdoe/ACCT", out)
	}
}

func TestSubstituteParamsNoPlaceholders(t *testing.T) {
	out, err := substituteParams("literal text", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "literal text" {
		t.Errorf("expected literal text to pass through unchanged, got %q", out)
	}
}

func TestSubstituteParamsMissing(t *testing.T) {
	_, err := substituteParams("${missing}", map[string]string{"user": "jdoe"})
	var perr *ParameterMissingError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParameterMissingError, got %v", err)
	}
	if perr.Name != "missing" {
		t.Errorf("expected missing param name %q, got %q", "missing", perr.Name)
	}
}
