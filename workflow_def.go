// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Tolerances carries the per-workflow quality thresholds a batch run
// scores against, per spec.md §4.7.
type Tolerances struct {
	MaxDurationMs     int  `yaml:"maxDurationMs"`
	FieldPrecision    int  `yaml:"fieldPrecision"`
	MaxRetries        int  `yaml:"maxRetries"`
	RequiresApproval  bool `yaml:"requiresApproval"`
}

// Workflow is a named, ordered list of steps plus the tolerances a
// batch run measures quality against.
type Workflow struct {
	Name       string
	Tolerances Tolerances
	Steps      []WorkflowStep
}

// rawDefinition mirrors the YAML workflow-definition format of
// spec.md §6 before it is resolved into the typed Workflow/
// WorkflowStep structures the runner consumes.
type rawDefinition struct {
	Name       string     `yaml:"name"`
	Tolerances Tolerances `yaml:"tolerances"`
	Steps      []rawStep  `yaml:"steps"`
}

type rawStep struct {
	Action    string `yaml:"action"`
	TimeoutMs int    `yaml:"timeoutMs"`
	OnError   string `yaml:"onError"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Device   string `yaml:"device"`

	Screen string   `yaml:"screen"`
	Keys   []string `yaml:"keys"`

	Fields map[string]string `yaml:"fields"`

	AID string `yaml:"aid"`

	TextContains string `yaml:"textContains"`
	FieldEquals  map[string]string `yaml:"fieldEquals"`
	OIAStatus    string `yaml:"oiaStatus"`
	ScreenTitle  string `yaml:"screenTitle"`

	Name string `yaml:"name"`
}

// ParseWorkflowYAML decodes a workflow definition in the YAML format
// of spec.md §6. Unknown actions or malformed onError/aid/key values
// produce a *ConfigError, since a bad workflow definition is a
// startup-time mistake, never a runtime one.
func ParseWorkflowYAML(data []byte) (*Workflow, error) {
	var raw rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Reason: "parsing workflow YAML", Err: err}
	}

	wf := &Workflow{Name: raw.Name, Tolerances: raw.Tolerances}
	for i, rs := range raw.Steps {
		step, err := rs.resolve()
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("step %d", i), Err: err}
		}
		wf.Steps = append(wf.Steps, step)
	}
	return wf, nil
}

func (rs rawStep) resolve() (WorkflowStep, error) {
	step := WorkflowStep{
		Timeout: time.Duration(rs.TimeoutMs) * time.Millisecond,
	}

	policy, err := parseOnError(rs.OnError)
	if err != nil {
		return step, err
	}
	step.OnError = policy

	switch strings.ToUpper(rs.Action) {
	case string(ActionLogin):
		step.Action = ActionLogin
		step.Host, step.Port, step.TLS = rs.Host, rs.Port, rs.TLS
		step.User, step.Password, step.DeviceName = rs.User, rs.Password, rs.Device
	case string(ActionNavigate):
		step.Action = ActionNavigate
		step.ScreenHint = rs.Screen
		for _, k := range rs.Keys {
			key, err := parseWorkflowKey(k)
			if err != nil {
				return step, err
			}
			step.ViaKeys = append(step.ViaKeys, key)
		}
	case string(ActionFill):
		step.Action = ActionFill
		step.Fields = rs.Fields
	case string(ActionSubmit):
		step.Action = ActionSubmit
		aid, ok := ParseAID(rs.AID)
		if !ok {
			return step, fmt.Errorf("unknown aid %q", rs.AID)
		}
		step.AID = aid
	case string(ActionAssert):
		step.Action = ActionAssert
		switch {
		case rs.TextContains != "":
			step.AssertKind = AssertTextContains
			step.Expectation = rs.TextContains
		case len(rs.FieldEquals) == 1:
			step.AssertKind = AssertFieldEquals
			for name, val := range rs.FieldEquals {
				step.FieldName = name
				step.Expectation = val
			}
		case rs.OIAStatus != "":
			step.AssertKind = AssertOIAStatus
			step.Expectation = rs.OIAStatus
		case rs.ScreenTitle != "":
			step.AssertKind = AssertScreenTitle
			step.Expectation = rs.ScreenTitle
		default:
			return step, fmt.Errorf("assert step has no recognized expectation")
		}
	case string(ActionCapture):
		step.Action = ActionCapture
		step.CaptureName = rs.Name
	default:
		return step, fmt.Errorf("unknown action %q", rs.Action)
	}

	return step, nil
}

func parseOnError(s string) (ErrorPolicy, error) {
	if s == "" || strings.EqualFold(s, "abort") {
		return ErrorPolicy{Mode: OnErrorAbort}, nil
	}
	if strings.EqualFold(s, "continue") {
		return ErrorPolicy{Mode: OnErrorContinue}, nil
	}
	if strings.HasPrefix(strings.ToLower(s), "retry:") {
		n, err := strconv.Atoi(s[len("retry:"):])
		if err != nil {
			return ErrorPolicy{}, fmt.Errorf("malformed onError retry count: %q", s)
		}
		return ErrorPolicy{Mode: OnErrorRetry, Retries: n}, nil
	}
	return ErrorPolicy{}, fmt.Errorf("unknown onError policy %q", s)
}

// parseWorkflowKey translates a Navigate step's key name ("ENTER",
// "TAB", "UP", a literal single character, ...) into a Key.
func parseWorkflowKey(name string) (Key, error) {
	if aid, ok := ParseAID(name); ok && aid != AIDNone {
		return AIDKey(aid), nil
	}
	switch strings.ToUpper(name) {
	case "TAB":
		return CursorKey(CursorTab), nil
	case "BACKTAB":
		return CursorKey(CursorBackTab), nil
	case "HOME":
		return CursorKey(CursorHome), nil
	case "UP":
		return CursorKey(CursorUp), nil
	case "DOWN":
		return CursorKey(CursorDown), nil
	case "LEFT":
		return CursorKey(CursorLeft), nil
	case "RIGHT":
		return CursorKey(CursorRight), nil
	case "NEWLINE":
		return CursorKey(CursorNewLine), nil
	case "RESET":
		return LocalOnlyKey(LocalReset), nil
	}
	if len([]rune(name)) == 1 {
		return DataKey([]rune(name)[0]), nil
	}
	return Key{}, fmt.Errorf("unrecognized key name %q", name)
}
