// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

// Package queryreply builds the 5250 Query Reply structured field a
// client sends in response to a host's WTDSF Query, announcing the
// emulated terminal's rows, columns, color support, and keyboard
// type, per spec.md §4.3 and §7.
package queryreply

import "strings"

// Build assembles the payload of a 5250 Query Reply structured field
// (the subfield class/type header is prepended by the caller, which
// owns the WTDSF wire framing). rows and cols describe the emulated
// display; deviceType is the TN5250 terminal-type string in effect
// for the session (e.g. "IBM-3179-2" or "IBM-5555-C01" for a
// color-capable device).
func Build(rows, cols int, deviceType string) []byte {
	color := colorCapable(deviceType)

	var b []byte
	b = append(b, 0x88) // flag byte: "query reply" indicator, fixed for 5250
	b = append(b, controllerID(deviceType)...)
	b = append(b, byte(rows), byte(cols))
	b = append(b, 0x01) // number of supported screen sizes (this one only)
	b = append(b, byte(rows), byte(cols))

	var caps byte
	if color {
		caps |= 0x80
	}
	caps |= 0x40 // extended attributes always supported
	b = append(b, caps)

	b = append(b, 0x02) // keyboard type: 2 = standard 122-key typewriter

	return b
}

// controllerID returns the 7-byte device/controller identifier field
// IBM hosts use to distinguish 5250 emulation classes.
func controllerID(deviceType string) []byte {
	id := make([]byte, 7)
	copy(id, []byte(deviceType))
	return id
}

// colorCapable reports whether deviceType names one of the
// color-capable 5250 terminal-type strings (the "-Cnn" suffixed
// device classes, e.g. IBM-5555-C01).
func colorCapable(deviceType string) bool {
	return strings.Contains(deviceType, "-C")
}
