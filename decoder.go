// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"fmt"

	"github.com/racingmars/go5250/internal/codepage"
	"github.com/racingmars/go5250/internal/queryreply"
)

// decoder consumes inbound 5250 records and mutates a Screen and OIA
// in place. It owns no I/O; Session feeds it records read off a
// Framer and forwards any outbound replies (Query Reply, negative
// responses, Read Input/MDT Fields responses) back out through the
// same Framer.
type decoder struct {
	screen *Screen
	oia    *OIA
	table  *codepage.Table

	deviceType string

	pos       int  // current write position, linear offset row*cols+col
	curAttr   byte // attribute in force for SA-overridden characters
	pendingSF *Field

	// outbound carries replies the decoder produced while processing
	// the current record (Query Reply structured fields, negative
	// responses). Session drains it after each ProcessRecord call.
	outbound [][]byte
}

func newDecoder(screen *Screen, oia *OIA, table *codepage.Table, deviceType string) *decoder {
	return &decoder{screen: screen, oia: oia, table: table, deviceType: deviceType}
}

// TakeOutbound returns and clears any reply records queued during the
// most recent ProcessRecord call.
func (d *decoder) TakeOutbound() [][]byte {
	out := d.outbound
	d.outbound = nil
	return out
}

// ProcessRecord decodes one complete inbound 5250 record. It returns
// a *ProtocolError only for conditions that must tear the session
// down (an unrecognized top-level command, or a WTDSF subfield whose
// length is malformed); malformed orders instead
// queue a negative response and the record continues, per spec.md
// §4.3.
func (d *decoder) ProcessRecord(rec []byte) error {
	if len(rec) == 0 {
		return nil
	}

	d.screen.mu.Lock()
	defer d.screen.mu.Unlock()

	cmd := rec[0]
	body := rec[1:]

	switch cmd {
	case cmdWriteToDisplay:
		return d.processWTD(body)
	case cmdWriteStructuredField:
		return d.processWTDSF(body)
	case cmdReadInputFields:
		d.queueReadResponse(false)
		return nil
	case cmdReadMDTFields:
		d.queueReadResponse(true)
		return nil
	case cmdReadImmediate:
		d.queueReadResponse(true)
		return nil
	case cmdClearUnit:
		d.screen.resetLocked()
		d.oia.lock(InhibitPowerOn, 0)
		return nil
	case cmdClearFormatTable:
		d.screen.fields.clear()
		return nil
	case cmdSaveScreen, cmdSavePartialScreen:
		// Snapshotting into a host-addressable save area has no
		// client-visible effect for go5250: the client never issues a
		// Restore, so the command is accepted and otherwise ignored.
		return nil
	default:
		return &ProtocolError{Reason: fmt.Sprintf("unrecognized 5250 command byte 0x%02x", cmd), Record: rec}
	}
}

// processWTD decodes a Write to Display command body: two control
// bytes (CC1, CC2) followed by a stream of orders and character data.
func (d *decoder) processWTD(body []byte) error {
	if len(body) < 2 {
		d.negativeResponse(nrInvalidOrder)
		return nil
	}
	cc1 := body[0]
	i := 2
	defer d.closeLastField()

	if cc1&ccResetMDT != 0 {
		for _, f := range d.screen.fields.fields {
			f.MDT = false
		}
	}
	if cc1&ccKeyboardUnlock != 0 {
		d.oia.unlock()
	}
	if cc1&ccHomeCursor != 0 {
		d.setPos(0, 0)
	}

	for i < len(body) {
		b := body[i]
		i++
		var err error
		i, err = d.processOrderOrChar(body, i, b)
		if err != nil {
			d.negativeResponse(nrInvalidOrder)
			return nil
		}
	}
	return nil
}

// processOrderOrChar handles one order (dispatched on the order byte
// b already consumed at i-1) or, if b is not a recognized order byte,
// treats it as character data. It returns the new read index.
func (d *decoder) processOrderOrChar(body []byte, i int, b byte) (int, error) {
	switch b {
	case orderSBA:
		if i+1 >= len(body) {
			return i, fmt.Errorf("truncated SBA")
		}
		row, col, ok := decodeBufferAddress(body[i], body[i+1], d.screen.rows, d.screen.cols)
		if !ok {
			d.negativeResponse(nrInvalidSBA)
			return i + 2, nil
		}
		d.setPos(row, col)
		return i + 2, nil

	case orderIC:
		if i+1 >= len(body) {
			return i, fmt.Errorf("truncated IC")
		}
		row, col, ok := decodeBufferAddress(body[i], body[i+1], d.screen.rows, d.screen.cols)
		if !ok {
			return i + 2, fmt.Errorf("invalid IC address")
		}
		d.screen.cursorRow, d.screen.cursorCol = row, col
		return i + 2, nil

	case orderSF:
		if i >= len(body) {
			return i, fmt.Errorf("truncated SF")
		}
		attr := body[i]
		i++
		d.startField(attr, false, 0)
		return i, nil

	case orderSFE:
		if i >= len(body) {
			return i, fmt.Errorf("truncated SFE")
		}
		n := int(body[i])
		i++
		attr, fcw, newI, err := decodeSFE(body, i, n)
		if err != nil {
			return i, err
		}
		d.startField(attr, true, fcw)
		return newI, nil

	case orderSA:
		if i >= len(body) {
			return i, fmt.Errorf("truncated SA")
		}
		d.curAttr = body[i]
		return i + 1, nil

	case orderWEA:
		if i >= len(body) {
			return i, fmt.Errorf("truncated WEA")
		}
		d.screen.ext[d.pos] = parseExtendedAttribute(body[i])
		d.screen.dirty.mark(d.pos/d.screen.cols, d.pos%d.screen.cols)
		return i + 1, nil

	case orderMC:
		if i >= len(body) {
			return i, fmt.Errorf("truncated MC")
		}
		return i + 1, nil

	case orderSOH:
		if i >= len(body) {
			return i, fmt.Errorf("truncated SOH")
		}
		n := int(body[i])
		return i + 1 + n, nil

	case orderRA:
		if i+2 >= len(body) {
			return i, fmt.Errorf("truncated RA")
		}
		row, col, ok := decodeBufferAddress(body[i], body[i+1], d.screen.rows, d.screen.cols)
		fill := body[i+2]
		if !ok {
			d.negativeResponse(nrInvalidSBA)
			return i + 3, nil
		}
		d.repeatToAddress(row, col, d.table.Decode(fill))
		return i + 3, nil

	case orderEA:
		if i+2 >= len(body) {
			return i, fmt.Errorf("truncated EA")
		}
		row, col, ok := decodeBufferAddress(body[i], body[i+1], d.screen.rows, d.screen.cols)
		if !ok {
			d.negativeResponse(nrInvalidSBA)
			return i + 3, nil
		}
		d.repeatToAddress(row, col, ' ')
		return i + 3, nil

	case orderTD:
		// Transparent Data: a length byte followed by that many raw
		// (un-decoded) bytes copied verbatim. go5250 has no use for
		// transparent payloads beyond skipping them without
		// disturbing the write position.
		if i >= len(body) {
			return i, fmt.Errorf("truncated TD")
		}
		n := int(body[i])
		return i + 1 + n, nil

	default:
		// Not an order byte: treat as a single character.
		r := d.table.Decode(b)
		d.writeChar(r)
		return i, nil
	}
}

// setPos updates the decoder's write/cursor position to (row, col).
func (d *decoder) setPos(row, col int) {
	d.pos = row*d.screen.cols + col
	d.screen.cursorRow, d.screen.cursorCol = row, col
}

func (d *decoder) advance() {
	d.pos++
	total := d.screen.rows * d.screen.cols
	if d.pos >= total {
		d.pos = 0 // wrap to 0, per spec.md §4.3
	}
	d.screen.cursorRow = d.pos / d.screen.cols
	d.screen.cursorCol = d.pos % d.screen.cols
}

func (d *decoder) writeChar(r rune) {
	d.screen.chars[d.pos] = r
	if d.curAttr != 0 {
		d.screen.ext[d.pos] = parseExtendedAttribute(d.curAttr)
	}
	row, col := d.pos/d.screen.cols, d.pos%d.screen.cols
	d.screen.dirty.mark(row, col)
	d.advance()
}

// repeatToAddress fills from the current position through (row, col)
// inclusive with the given rune, per the RA/EA orders.
func (d *decoder) repeatToAddress(row, col int, r rune) {
	target := row*d.screen.cols + col
	total := d.screen.rows * d.screen.cols
	for {
		d.screen.chars[d.pos] = r
		d.screen.dirty.mark(d.pos/d.screen.cols, d.pos%d.screen.cols)
		if d.pos == target {
			d.advance()
			break
		}
		d.pos = (d.pos + 1) % total
	}
}

// startField registers a new field beginning at the current position
// with the attribute character written there, then advances past it.
// Length is finalized once the next SF/SFE is seen or, for the last
// field of a Write to Display record, runs to the end of the screen,
// per spec.md §4.3.
func (d *decoder) startField(attr byte, extended bool, fcw uint16) {
	row, col := d.pos/d.screen.cols, d.pos%d.screen.cols
	d.screen.chars[d.pos] = ' '
	d.screen.dirty.mark(row, col)

	f := &Field{Row: row, Col: col, Attr: attr, Extended: extended, FCW: fcw}
	d.closePendingField()
	d.pendingSF = f
	d.screen.fields.add(f)
	d.curAttr = 0
	d.advance()
}

// closePendingField finalizes the length of the field started by the
// previous SF/SFE, now that another SF/SFE has been reached.
func (d *decoder) closePendingField() {
	if d.pendingSF == nil {
		return
	}
	total := d.screen.rows * d.screen.cols
	start := (d.pendingSF.Row*d.screen.cols + d.pendingSF.Col + 1) % total
	length := d.pos - start
	if length < 0 {
		length += total
	}
	d.pendingSF.Length = length
	d.pendingSF = nil
}

// closeLastField finalizes the field still open at the end of a Write
// to Display record: it extends to the end of the screen.
func (d *decoder) closeLastField() {
	if d.pendingSF == nil {
		return
	}
	total := d.screen.rows * d.screen.cols
	d.pendingSF.Length = total - (d.pendingSF.Row*d.screen.cols + d.pendingSF.Col + 1)
	d.pendingSF = nil
}

// decodeBufferAddress translates a 5250 two-byte buffer address
// (1-based row/col, plain binary, not 3270's 6-bit code table) into
// 0-based row/col. ok is false if the resulting position falls
// outside the active screen.
func decodeBufferAddress(hi, lo byte, rows, cols int) (row, col int, ok bool) {
	row = int(hi) - 1
	col = int(lo) - 1
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return 0, 0, false
	}
	return row, col, true
}

// decodeSFE parses an SFE order's n (attribute-type, value) pairs,
// extracting the base field attribute byte (type 0xC0) and folding
// any other recognized pair into a Field Control Word bit. Unknown
// types are ignored, per spec.md's "see protocol spec" deferral for
// a full FCW decode.
func decodeSFE(body []byte, i, n int) (attr byte, fcw uint16, newI int, err error) {
	for p := 0; p < n; p++ {
		if i+1 >= len(body) {
			return 0, 0, i, fmt.Errorf("truncated SFE pair")
		}
		typ, val := body[i], body[i+1]
		i += 2
		switch typ {
		case 0xC0: // field attribute (3270-compatible encoding)
			attr = val
		case 0x27: // field control word, low byte
			fcw = fcw&0xFF00 | uint16(val)
		}
	}
	return attr, fcw, i, nil
}

// processWTDSF decodes a Write to Display Structured Field container:
// a sequence of {len(2B), class(1B), type(1B), payload} subfields.
func (d *decoder) processWTDSF(body []byte) error {
	i := 0
	for i+2 <= len(body) {
		l := int(body[i])<<8 | int(body[i+1])
		if l < 2 || i+l > len(body) {
			return &ProtocolError{Reason: "malformed WTDSF subfield length", Record: body}
		}
		sub := body[i : i+l]
		if len(sub) >= 4 {
			class, typ := sub[2], sub[3]
			d.handleSubfield(class, typ, sub[4:])
		}
		i += l
	}
	return nil
}

func (d *decoder) handleSubfield(class, typ byte, payload []byte) {
	switch {
	case class == wtdsfClass5250Query && typ == wtdsfTypeQuery:
		reply := queryreply.Build(d.screen.rows, d.screen.cols, d.deviceType)
		rec := make([]byte, 0, len(reply)+6)
		rec = append(rec, cmdWriteStructuredField)
		l := len(reply) + 4
		rec = append(rec, byte(l>>8), byte(l&0xFF))
		rec = append(rec, wtdsfClass5250Query, wtdsfTypeQueryReply)
		rec = append(rec, reply...)
		d.outbound = append(d.outbound, rec)
	case class == wtdsfClass5250Query && typ == wtdsfTypeDefineAuditWindow:
		// No client-visible effect; acknowledged implicitly by not
		// producing a negative response.
	case class == wtdsfClass5250Query && typ == wtdsfTypeRemoveAuditWindow:
	default:
		// Unknown classes are skipped by length, per spec.md §4.3.
	}
}

// queueReadResponse builds a Read Input Fields / Read MDT Fields
// response: an ENTER AID byte (the decoder does not track which AID
// key the operator last pressed), the cursor address, and each
// qualifying field's content.
//
// mdtOnly selects "only fields with MDT=1" (Read MDT Fields); when
// false every input-capable field is included (Read Input Fields).
func (d *decoder) queueReadResponse(mdtOnly bool) {
	var rec []byte
	rec = append(rec, byte(AIDEnter))
	row, col := d.screen.cursorRow, d.screen.cursorCol
	rec = append(rec, byte(row+1), byte(col+1))

	for _, f := range d.screen.fields.fields {
		if !f.Unprotected() || f.Bypass() {
			continue
		}
		if mdtOnly && !f.MDT {
			continue
		}
		rec = append(rec, orderSBA, byte(f.Row+1), byte(f.Col+1))
		text := d.screen.fieldTextLocked(f)
		enc, err := d.table.EncodeString(text)
		if err != nil {
			enc = []byte(nil)
		}
		rec = append(rec, enc...)
	}
	d.outbound = append(d.outbound, rec)
}

// negativeResponse queues the standard malformed-order error record:
// 0x05 0x01 0xNN, per spec.md §4.3 and §8.
func (d *decoder) negativeResponse(code byte) {
	d.outbound = append(d.outbound, []byte{nrRequestError, 0x01, code})
}
