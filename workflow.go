// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkflowResult is what run_workflow returns: per spec.md §4.7, the
// runner catches everything a step can throw and records it rather
// than propagating, except when OnErrorAbort ends the run early.
type WorkflowResult struct {
	RunID       uuid.UUID
	StepResults []StepResult
	Aborted     bool
}

// StepResult is one entry in a WorkflowResult.
type StepResult struct {
	Index   int
	Action  StepAction
	Err     error
	Retries int
}

// Success reports whether every step in the run completed without an
// unrecovered error.
func (r WorkflowResult) Success() bool {
	for _, sr := range r.StepResults {
		if sr.Err != nil {
			return false
		}
	}
	return !r.Aborted
}

// RunWorkflow executes wf's steps in order against a fresh Session,
// substituting ${col} references from row, and recording every step's
// outcome to sink. Each step's onError policy governs whether a
// failure aborts the run, is recorded and skipped, or is retried up
// to N times.
func RunWorkflow(ctx context.Context, wf *Workflow, row map[string]string, sink ArtifactSink) WorkflowResult {
	runID := uuid.New()
	result := WorkflowResult{RunID: runID}

	var session *Session
	defer func() {
		if session != nil {
			session.Disconnect()
		}
	}()

	for i, step := range wf.Steps {
		stepCtx, cancel := context.WithTimeout(ctx, step.timeout())
		err := runStepWithRetry(stepCtx, step, row, wf.Tolerances, &session)
		cancel()

		sr := StepResult{Index: i, Action: step.Action, Err: err}
		outcome := "ok"
		var snapshot string
		if err != nil {
			outcome = "error"
		}
		if (err != nil || step.Action == ActionCapture) && session != nil {
			snapshot = session.Screen().Text()
		}
		sink.Record(ArtifactRecord{RunID: runID, StepIndex: i, StepKind: step.Action, Outcome: outcome, Screenshot: snapshot, Error: errString(err), Timestamp: time.Now()})

		if err != nil {
			sr.Retries = step.OnError.Retries
			result.StepResults = append(result.StepResults, sr)
			if step.OnError.Mode == OnErrorAbort {
				result.Aborted = true
				return result
			}
			continue // OnErrorContinue, or retries exhausted
		}
		result.StepResults = append(result.StepResults, sr)
	}
	return result
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func runStepWithRetry(ctx context.Context, step WorkflowStep, row map[string]string, tol Tolerances, session **Session) error {
	attempts := 1
	if step.OnError.Mode == OnErrorRetry {
		attempts += step.OnError.Retries
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = runStep(ctx, step, row, tol, session)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func runStep(ctx context.Context, step WorkflowStep, row map[string]string, tol Tolerances, session **Session) error {
	switch step.Action {
	case ActionLogin:
		return stepLogin(ctx, step, session)
	case ActionNavigate:
		return stepNavigate(ctx, step, *session)
	case ActionFill:
		return stepFill(step, row, *session)
	case ActionSubmit:
		return stepSubmit(ctx, step, *session)
	case ActionAssert:
		return stepAssert(step, row, tol, *session)
	case ActionCapture:
		return nil // capture's screen dump is taken by the caller via ArtifactRecord.Screenshot
	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown step action %q", step.Action)}
	}
}

func stepLogin(ctx context.Context, step WorkflowStep, session **Session) error {
	s, err := NewSession(SessionConfig{Host: step.Host, Port: step.Port, TLS: step.TLS, DeviceName: step.DeviceName})
	if err != nil {
		return err
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	*session = s

	if err := s.WaitForKeyboardUnlock(ctx); err != nil {
		return err
	}

	userField := findSignOnField(s.Screen(), "user", "userid")
	passField := findSignOnField(s.Screen(), "password", "pass")
	if userField == nil || passField == nil {
		return &AssertionFailedError{Expectation: "sign-on screen", Actual: "user/password fields not found", Screen: s.Screen().Text()}
	}

	if err := fillNamedField(s, userField.Name, step.User); err != nil {
		return err
	}
	if err := fillNamedField(s, passField.Name, step.Password); err != nil {
		return err
	}
	if err := s.SendKey(AIDKey(AIDEnter)); err != nil {
		return err
	}
	if err := s.WaitForKeyboardUnlock(ctx); err != nil {
		return err
	}

	if strings.Contains(strings.ToUpper(s.Screen().Text()), "SIGN ON") {
		return &AssertionFailedError{Expectation: "signed on", Actual: "sign-on screen still displayed", Screen: s.Screen().Text()}
	}
	return nil
}

// findSignOnField locates a field by a case-insensitive substring
// match over its logical Name, a heuristic real sign-on screens'
// field names (USER, USERID, PASSWORD...) satisfy even without a
// fixed position contract.
func findSignOnField(screen *Screen, substrings ...string) *Field {
	for _, f := range screen.Fields() {
		lower := strings.ToLower(f.Name)
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				cp := f
				return &cp
			}
		}
	}
	return nil
}

func fillNamedField(s *Session, name, value string) error {
	f := s.Screen().FieldByName(name)
	if f == nil {
		return &FieldError{Kind: FieldErrorNoField, FieldName: name}
	}
	if len([]rune(value)) > f.Length {
		return &FieldError{Kind: FieldErrorTruncation, FieldName: name, Max: f.Length, Got: len([]rune(value))}
	}
	scr := s.Screen()
	scr.mu.Lock()
	total := scr.cols * scr.rows
	start := f.contentStart(scr.cols) % total
	scr.cursorRow, scr.cursorCol = start/scr.cols, start%scr.cols
	scr.mu.Unlock()
	return s.SendString(value)
}

func stepNavigate(ctx context.Context, step WorkflowStep, s *Session) error {
	if s == nil {
		return &ConnectionError{Reason: "navigate with no active session"}
	}
	for _, key := range step.ViaKeys {
		if err := s.SendKey(key); err != nil {
			return err
		}
	}
	if err := s.WaitForKeyboardUnlock(ctx); err != nil {
		return err
	}
	if step.ScreenHint != "" && !strings.Contains(s.Screen().Text(), step.ScreenHint) {
		return &AssertionFailedError{Expectation: "screen hint", Expected: step.ScreenHint, Screen: s.Screen().Text()}
	}
	return nil
}

func stepFill(step WorkflowStep, row map[string]string, s *Session) error {
	if s == nil {
		return &ConnectionError{Reason: "fill with no active session"}
	}
	for name, rawVal := range step.Fields {
		val, err := substituteParams(rawVal, row)
		if err != nil {
			return err
		}
		if err := fillNamedField(s, name, val); err != nil {
			return err
		}
	}
	return nil
}

func stepSubmit(ctx context.Context, step WorkflowStep, s *Session) error {
	if s == nil {
		return &ConnectionError{Reason: "submit with no active session"}
	}
	if err := s.SendKey(AIDKey(step.AID)); err != nil {
		return err
	}
	return s.WaitForKeyboardUnlock(ctx)
}

func stepAssert(step WorkflowStep, row map[string]string, tol Tolerances, s *Session) error {
	if s == nil {
		return &ConnectionError{Reason: "assert with no active session"}
	}
	expected, err := substituteParams(step.Expectation, row)
	if err != nil {
		return err
	}

	var actual string
	var ok bool
	switch step.AssertKind {
	case AssertTextContains:
		actual = s.Screen().Text()
		ok = strings.Contains(actual, expected)
	case AssertFieldEquals:
		actual, _ = s.Screen().FieldText(step.FieldName)
		ok = fieldsEqual(actual, expected, tol.FieldPrecision)
	case AssertOIAStatus:
		actual = s.OIA().StatusText()
		ok = strings.EqualFold(actual, expected)
	case AssertScreenTitle:
		actual = s.Screen().Line(0)
		ok = strings.Contains(actual, expected)
	}
	if !ok {
		return &AssertionFailedError{Expectation: expected, Expected: expected, Actual: actual, Screen: s.Screen().Text()}
	}
	return nil
}

// fieldsEqual compares a field's actual content against its expected
// value. An exact string match always passes; when tol names a
// non-zero FieldPrecision and both sides parse as numbers, the
// comparison rounds to that many decimal places instead, per
// spec.md §4.7's field-precision tolerance.
func fieldsEqual(actual, expected string, precision int) bool {
	if actual == expected {
		return true
	}
	if precision <= 0 {
		return false
	}
	af, aerr := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	ef, eerr := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	if aerr != nil || eerr != nil {
		return false
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(af*scale) == math.Round(ef*scale)
}
