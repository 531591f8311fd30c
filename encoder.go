// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "github.com/racingmars/go5250/internal/codepage"

// encodeAIDResponse builds the outbound record an AID key arms, per
// spec.md §4.5: the AID byte, the cursor position, and then either
// every dirty (MDT-set) field's contents or, for short-form AIDs,
// nothing further.
func encodeAIDResponse(aid AID, cursorRow, cursorCol int, fields []*Field, getText func(*Field) string, table *codepage.Table) []byte {
	rec := make([]byte, 0, 16)
	rec = append(rec, byte(aid))
	rec = append(rec, byte(cursorRow+1), byte(cursorCol+1))

	if aid.IsShortForm() {
		return rec
	}

	for _, f := range fields {
		if !f.MDT || !f.Unprotected() || f.Bypass() {
			continue
		}
		rec = append(rec, orderSBA, byte(f.Row+1), byte(f.Col+1))
		text := getText(f)
		enc, err := table.EncodeString(text)
		if err != nil {
			// Per spec.md §4.5's operator-facing contract, an
			// unmappable character in a field about to be
			// transmitted is surfaced to the caller of Send rather
			// than silently dropped; the keyboard state machine
			// checks encodability before calling this helper, so
			// reaching this branch means a race mutated the field
			// between the check and the encode. Fall back to spaces
			// rather than send a truncated/garbled record.
			enc = make([]byte, len(text))
			for i := range enc {
				enc[i] = 0x40
			}
		}
		rec = append(rec, enc...)
	}
	return rec
}
