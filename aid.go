// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "strings"

// AID is a 5250 Attention Identifier byte: it identifies which key
// triggered a host-directed transmission (ENTER, F-keys, PA-keys...).
type AID byte

// AID byte values, per spec.md §6 and the IBM 5250 data stream reference.
const (
	AIDNone      AID = 0x00
	AIDEnter     AID = 0xF1
	AIDF1        AID = 0x31
	AIDF2        AID = 0x32
	AIDF3        AID = 0x33
	AIDF4        AID = 0x34
	AIDF5        AID = 0x35
	AIDF6        AID = 0x36
	AIDF7        AID = 0x37
	AIDF8        AID = 0x38
	AIDF9        AID = 0x39
	AIDF10       AID = 0x3A
	AIDF11       AID = 0x3B
	AIDF12       AID = 0x3C
	AIDF13       AID = 0xB1
	AIDF14       AID = 0xB2
	AIDF15       AID = 0xB3
	AIDF16       AID = 0xB4
	AIDF17       AID = 0xB5
	AIDF18       AID = 0xB6
	AIDF19       AID = 0xB7
	AIDF20       AID = 0xB8
	AIDF21       AID = 0xB9
	AIDF22       AID = 0xBA
	AIDF23       AID = 0xBB
	AIDF24       AID = 0xBC
	AIDClear     AID = 0xBD
	AIDHelp      AID = 0xF3
	AIDRollUp    AID = 0xF8 // Roll/Page down in IBM's terminology
	AIDRollDown  AID = 0xF7 // Roll/Page up
	AIDPrint     AID = 0xF6
	AIDRecBack   AID = 0xF5 // Record Backspace
	AIDPA1       AID = 0x6C
	AIDPA2       AID = 0x6E
	AIDPA3       AID = 0x6B
	AIDSysReq    AID = 0xF0
	AIDAttn      AID = 0x7E // sent like any other AID key; no separate Attention handling
)

// shortFormAIDs arm a response that carries only the AID byte and cursor
// address -- no field contents -- per spec.md §4.5.
var shortFormAIDs = map[AID]bool{
	AIDClear:    true,
	AIDHelp:     true,
	AIDPA1:      true,
	AIDPA2:      true,
	AIDPA3:      true,
	AIDPrint:    true,
	AIDSysReq:   true,
	AIDRollUp:   true,
	AIDRollDown: true,
}

// IsShortForm reports whether this AID's response carries only the AID
// byte and cursor position, with no field contents.
func (a AID) IsShortForm() bool {
	return shortFormAIDs[a]
}

var aidNames = map[AID]string{
	AIDNone: "[none]", AIDEnter: "Enter", AIDClear: "Clear", AIDHelp: "Help",
	AIDRollUp: "RollUp", AIDRollDown: "RollDown", AIDPrint: "Print",
	AIDRecBack: "RecordBackspace", AIDSysReq: "SysReq", AIDAttn: "Attn",
	AIDPA1: "PA1", AIDPA2: "PA2", AIDPA3: "PA3",
	AIDF1: "F1", AIDF2: "F2", AIDF3: "F3", AIDF4: "F4", AIDF5: "F5",
	AIDF6: "F6", AIDF7: "F7", AIDF8: "F8", AIDF9: "F9", AIDF10: "F10",
	AIDF11: "F11", AIDF12: "F12", AIDF13: "F13", AIDF14: "F14",
	AIDF15: "F15", AIDF16: "F16", AIDF17: "F17", AIDF18: "F18",
	AIDF19: "F19", AIDF20: "F20", AIDF21: "F21", AIDF22: "F22",
	AIDF23: "F23", AIDF24: "F24",
}

// String returns a human-readable AID key name, e.g. "Enter" or "F3".
func (a AID) String() string {
	if name, ok := aidNames[a]; ok {
		return name
	}
	return "[unknown]"
}

// ParseAID returns the AID for a case-insensitive key name such as
// "ENTER", "F1".."F24", "PA1".."PA3", or "CLEAR". It is used by the
// workflow runtime to translate a Submit step's `aid:` string.
func ParseAID(name string) (AID, bool) {
	for aid, n := range aidNames {
		if strings.EqualFold(n, name) {
			return aid, true
		}
	}
	return AIDNone, false
}
