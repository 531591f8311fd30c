// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

// Top-level 5250 command bytes, per spec.md §4.3.
const (
	cmdWriteToDisplay       byte = 0xF1
	cmdWriteStructuredField byte = 0xF3
	cmdReadInputFields      byte = 0xF5
	cmdReadMDTFields        byte = 0xF6
	cmdReadImmediate        byte = 0xF4
	cmdClearUnit            byte = 0x04
	cmdClearFormatTable     byte = 0x40
	cmdSaveScreen           byte = 0xF2
	cmdSavePartialScreen    byte = 0x12
)

// 5250 order bytes that occur inside a Write To Display command.
const (
	orderSBA byte = 0x11 // Set Buffer Address
	orderIC  byte = 0x13 // Insert Cursor
	orderSF  byte = 0x1D // Start of Field
	orderSOH byte = 0x01 // Set Header (Start of Header)
	orderRA  byte = 0x02 // Repeat to Address
	orderEA  byte = 0x03 // Erase to Address
	orderMC  byte = 0x04 // Modify Control (reserved; treated as a no-op skip)
	orderSFE byte = 0x28 // Start of Field Extended
	orderSA  byte = 0x29 // Set Attribute
	orderWEA byte = 0x2C // Write Extended Attribute (single cell)
	orderTD  byte = 0x22 // Transparent Data
)

// Write-to-Display control character (CC1) bits.
const (
	ccResetMDT       byte = 0x40
	ccKeyboardUnlock byte = 0x02 // low nibble position for unlock per spec.md §4.3
	ccSoundAlarm     byte = 0x04
	ccHomeCursor     byte = 0x80
)

// Negative-response (error) codes sent back to the host, per spec.md
// §4.3 and §8.
const (
	nrRequestError byte = 0x05 // class byte
	nrInvalidSBA   byte = 0x22 // SBA addressed outside the active screen
	nrInvalidOrder byte = 0x1A // unrecognized/malformed order
)

// WTDSF (Write To Display Structured Field) subfield classes, per
// spec.md §4.3.
const (
	wtdsfClass5250Query byte = 0xD9
)

// WTDSF subfield types within the 5250-query class.
const (
	wtdsfTypeQuery             byte = 0x70
	wtdsfTypeQueryReply        byte = 0x70
	wtdsfTypeDefineAuditWindow byte = 0x82
	wtdsfTypeRemoveAuditWindow byte = 0x83
)

// Attribute byte bit semantics (5250 field attribute byte), per
// spec.md §3.
const (
	attrUnprotectedBit byte = 0x20 // clear = protected, set = unprotected
	attrNumericBit     byte = 0x10
	attrBypassBit      byte = 0x08 // only meaningful combined with protected
	attrFERBit         byte = 0x04
	attrDisplayMask    byte = 0x0C // nondisplay/intensified selector bits
	attrNonDisplay     byte = 0x0C
	attrIntensified    byte = 0x08
)

// isUnprotected reports whether the "unprotected" bit (0x20) of a
// 5250 field attribute byte is set.
func isUnprotected(attr byte) bool {
	return attr&attrUnprotectedBit != 0
}

// isBypass reports whether a field attribute marks the field bypassed
// (skipped during tab/field traversal, never receives input focus).
func isBypass(attr byte) bool {
	return attr&attrDisplayMask == attrNonDisplay && attr&attrUnprotectedBit == 0 && attr&attrBypassBit != 0
}

// isFER reports whether a field attribute requires an explicit Field
// Exit before the field is considered complete.
func isFER(attr byte) bool {
	return attr&attrFERBit != 0
}

// isNumericOnly reports whether a field attribute restricts input to
// numeric characters.
func isNumericOnly(attr byte) bool {
	return attr&attrNumericBit != 0
}

// isNonDisplay reports whether a field attribute marks the field
// nondisplay (e.g. a password field).
func isNonDisplay(attr byte) bool {
	return attr&attrDisplayMask == attrNonDisplay
}

// Extended-attribute value bits set by the SA and WEA orders, per
// spec.md §3. A value whose high nibble is 0xC, 0xD, 0xE or 0xF
// selects one monochrome highlighting flag; any other value is a
// color, kept in its low six bits (see the color* consts in
// screen.go).
const (
	extFlagColorMask  byte = 0x3F
	extFlagUnderscore byte = 0xC0
	extFlagBlink      byte = 0xD0
	extFlagReverse    byte = 0xE0
	extFlagColumnSep  byte = 0xF0
)

// parseExtendedAttribute decodes an SA/WEA value byte into the
// ExtendedAttribute a cell records for rendering.
func parseExtendedAttribute(val byte) ExtendedAttribute {
	switch val & 0xF0 {
	case extFlagUnderscore:
		return ExtendedAttribute{Underscore: true}
	case extFlagBlink:
		return ExtendedAttribute{Blink: true}
	case extFlagReverse:
		return ExtendedAttribute{Reverse: true}
	case extFlagColumnSep:
		return ExtendedAttribute{ColumnSep: true}
	default:
		return ExtendedAttribute{Color: val & extFlagColorMask}
	}
}
