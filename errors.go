// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "fmt"

// ConfigError reports a problem discovered at session setup: an unknown
// CCSID, an unknown device type, or a malformed workflow definition. It is
// always fatal -- go5250 never attempts to recover from a ConfigError.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ConnectionError reports a TCP/TLS failure or a rejected telnet
// negotiation. The Session transitions to Disconnected and notifies
// listeners whenever a ConnectionError occurs.
type ConnectionError struct {
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connection error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("connection error: %s", e.Reason)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports malformed telnet framing or a 5250 order the
// decoder cannot represent. A ProtocolError always tears the session
// down; the decoder never swallows one to return a "best effort" screen.
type ProtocolError struct {
	Reason string
	Record []byte
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// InhibitReason enumerates why the keyboard is currently locked. See OIA.
type InhibitReason int

const (
	InhibitNone InhibitReason = iota
	InhibitSystemLock
	InhibitOperatorError
	InhibitMessageWaiting
	InhibitPostHelp
	InhibitPowerOn
)

func (r InhibitReason) String() string {
	switch r {
	case InhibitNone:
		return "none"
	case InhibitSystemLock:
		return "system lock"
	case InhibitOperatorError:
		return "operator error"
	case InhibitMessageWaiting:
		return "message waiting"
	case InhibitPostHelp:
		return "post help"
	case InhibitPowerOn:
		return "power on"
	default:
		return "unknown"
	}
}

// StatusText returns the human-readable inhibit code a real 5250
// emulator draws in the OIA, e.g. "X SYSTEM" or "X II", per spec.md
// §3. "" if the keyboard is not inhibited.
func (r InhibitReason) StatusText() string {
	switch r {
	case InhibitNone:
		return ""
	case InhibitSystemLock:
		return "X SYSTEM"
	case InhibitOperatorError:
		return "X II"
	case InhibitMessageWaiting:
		return "X MW"
	case InhibitPostHelp:
		return "X HELP"
	case InhibitPowerOn:
		return "X CLOCK"
	default:
		return "X ?"
	}
}

// OperatorErrorError reports that a key was rejected because the keyboard
// is currently inhibited. Code is the OIA status code, e.g. 0x02 for
// "input inhibited". It is recoverable: the caller can send KeyReset to
// clear it.
type OperatorErrorError struct {
	Code   byte
	Reason InhibitReason
}

func (e *OperatorErrorError) Error() string {
	return fmt.Sprintf("operator error: keyboard inhibited (%s, code 0x%02x)", e.Reason, e.Code)
}

// FieldErrorKind enumerates the ways a field-level send can be rejected.
type FieldErrorKind int

const (
	FieldErrorTruncation FieldErrorKind = iota
	FieldErrorNumeric
	FieldErrorFERNotSatisfied
	FieldErrorBypass
	FieldErrorProtected
	FieldErrorNoField
)

// FieldError reports that send_string/Fill rejected a value before
// applying it: truncation, a numeric-field violation, an unsatisfied
// Field-Exit-Required flag, or a write into a protected/bypass field.
type FieldError struct {
	Kind      FieldErrorKind
	FieldName string
	Max       int
	Got       int
}

func (e *FieldError) Error() string {
	switch e.Kind {
	case FieldErrorTruncation:
		return fmt.Sprintf("field %q: truncation: max %d, got %d", e.FieldName, e.Max, e.Got)
	case FieldErrorNumeric:
		return fmt.Sprintf("field %q: value is not valid for a numeric field", e.FieldName)
	case FieldErrorFERNotSatisfied:
		return fmt.Sprintf("field %q: field-exit-required flag not satisfied", e.FieldName)
	case FieldErrorBypass:
		return fmt.Sprintf("field %q: field is bypassed", e.FieldName)
	case FieldErrorProtected:
		return fmt.Sprintf("field %q: field is protected", e.FieldName)
	case FieldErrorNoField:
		return "cursor is not positioned in an input-capable field"
	default:
		return "field error"
	}
}

// UnmappableCharacterError reports that the codec could not encode a
// character for the session's CCSID. The send is never partially
// applied.
type UnmappableCharacterError struct {
	CCSID     string
	Codepoint rune
}

func (e *UnmappableCharacterError) Error() string {
	return fmt.Sprintf("character %U has no mapping in CCSID %s", e.Codepoint, e.CCSID)
}

// TimeoutError reports that a wait_for_* call exceeded its deadline. The
// session remains usable after a TimeoutError.
type TimeoutError struct {
	WaitedFor string
	ElapsedMs int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for %s after %dms", e.WaitedFor, e.ElapsedMs)
}

// AssertionFailedError reports that a workflow Assert step's expectation
// did not hold.
type AssertionFailedError struct {
	Expectation string
	Expected    string
	Actual      string
	Screen      string
}

func (e *AssertionFailedError) Error() string {
	return fmt.Sprintf("assertion failed (%s): expected %q, got %q", e.Expectation, e.Expected, e.Actual)
}

// CancelledError reports cooperative cancellation of a wait or a
// workflow run.
type CancelledError struct {
	Reason string
}

func (e *CancelledError) Error() string {
	if e.Reason == "" {
		return "cancelled"
	}
	return fmt.Sprintf("cancelled: %s", e.Reason)
}

// ParameterMissingError reports that a workflow step referenced
// ${name} and no such column exists in the current data row.
type ParameterMissingError struct {
	Name      string
	Available []string
}

func (e *ParameterMissingError) Error() string {
	return fmt.Sprintf("parameter %q not found in data row; available columns: %v", e.Name, e.Available)
}
