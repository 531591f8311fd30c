// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "time"

// StepAction names the recognized workflow step kinds, per spec.md
// §4.7 and §6.
type StepAction string

const (
	ActionLogin    StepAction = "LOGIN"
	ActionNavigate StepAction = "NAVIGATE"
	ActionFill     StepAction = "FILL"
	ActionSubmit   StepAction = "SUBMIT"
	ActionAssert   StepAction = "ASSERT"
	ActionCapture  StepAction = "CAPTURE"
)

// ErrorPolicy names how the runner reacts when a step fails.
type ErrorPolicy struct {
	Mode    ErrorPolicyMode
	Retries int // meaningful only when Mode == OnErrorRetry
}

type ErrorPolicyMode int

const (
	OnErrorAbort ErrorPolicyMode = iota
	OnErrorContinue
	OnErrorRetry
)

// AssertKind names which expectation an Assert step checks.
type AssertKind int

const (
	AssertTextContains AssertKind = iota
	AssertFieldEquals
	AssertOIAStatus
	AssertScreenTitle
)

// WorkflowStep is a closed variant, in the same spirit as Key: Action
// discriminates which payload fields are meaningful. This mirrors how
// spec.md §4.7 describes steps as a tagged union without a Go
// language feature for sum types.
type WorkflowStep struct {
	Action    StepAction
	Timeout   time.Duration
	OnError   ErrorPolicy

	// LOGIN
	Host       string
	Port       int
	TLS        bool
	User       string
	Password   string
	DeviceName string

	// NAVIGATE
	ScreenHint string
	ViaKeys    []Key

	// FILL
	Fields map[string]string // field name -> value, possibly with ${col} refs

	// SUBMIT
	AID AID

	// ASSERT
	AssertKind  AssertKind
	Expectation string // the literal text this assertion checks against
	FieldName   string // for AssertFieldEquals

	// CAPTURE
	CaptureName string
}

// defaultStepTimeout is used when a step does not specify one.
const defaultStepTimeout = 10 * time.Second

func (s WorkflowStep) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaultStepTimeout
}
