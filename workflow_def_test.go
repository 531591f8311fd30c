// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "testing"

const sampleWorkflowYAML = `
name: sign-on-and-check-balance
tolerances:
  maxDurationMs: 5000
  fieldPrecision: 1
  maxRetries: 2
  requiresApproval: false
steps:
  - action: LOGIN
    host: example.invalid
    port: 23
    user: jdoe
    password: secret
    timeoutMs: 10000
    onError: abort
  - action: FILL
    fields:
      account: "${acct_no}"
    onError: continue
  - action: SUBMIT
    aid: ENTER
    onError: "retry:3"
  - action: ASSERT
    textContains: "BALANCE"
    onError: abort
  - action: CAPTURE
    name: final-screen
`

func TestParseWorkflowYAML(t *testing.T) {
	wf, err := ParseWorkflowYAML([]byte(sampleWorkflowYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.Name != "sign-on-and-check-balance" {
		t.Errorf("unexpected name %q", wf.Name)
	}
	if len(wf.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(wf.Steps))
	}

	login := wf.Steps[0]
	if login.Action != ActionLogin || login.Host != "example.invalid" || login.User != "jdoe" {
		t.Errorf("login step not parsed correctly: %+v", login)
	}
	if login.OnError.Mode != OnErrorAbort {
		t.Error("expected login step's onError: abort to resolve to OnErrorAbort")
	}

	submit := wf.Steps[2]
	if submit.Action != ActionSubmit || submit.AID != AIDEnter {
		t.Errorf("submit step not parsed correctly: %+v", submit)
	}
	if submit.OnError.Mode != OnErrorRetry || submit.OnError.Retries != 3 {
		t.Errorf("expected retry:3 onError, got %+v", submit.OnError)
	}

	assert := wf.Steps[3]
	if assert.AssertKind != AssertTextContains || assert.Expectation != "BALANCE" {
		t.Errorf("assert step not parsed correctly: %+v", assert)
	}
}

func TestParseWorkflowYAMLUnknownAction(t *testing.T) {
	_, err := ParseWorkflowYAML([]byte("name: bad\nsteps:\n  - action: BOGUS\n"))
	if err == nil {
		t.Fatal("expected an error for an unrecognized action")
	}
}
