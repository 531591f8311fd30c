// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

// Field describes one input-capable or display-only region of the
// screen, as established by the most recent Start of Field (or Start
// of Field Extended) order. Row and Col are 0-based and name the
// position of the field attribute character itself, which is not part
// of the field's displayable content.
type Field struct {
	Row, Col int // position of the attribute character
	Length   int // number of content cells following the attribute

	Attr     byte // raw 5250 field attribute byte
	Extended bool // established via SFE rather than SF

	// FCW, present only when Extended is true, carries the Field
	// Control Word flags from SFE (FER, monocase, etc.) beyond what
	// Attr alone encodes.
	FCW uint16

	MDT bool // Modified Data Tag: true once the user has changed content

	Name string // optional logical name assigned by the workflow layer
}

// Unprotected reports whether the operator may type into this field.
func (f *Field) Unprotected() bool { return isUnprotected(f.Attr) }

// Bypass reports whether the field is skipped during Tab/cursor
// traversal.
func (f *Field) Bypass() bool { return isBypass(f.Attr) }

// FERRequired reports whether this field requires an explicit Field
// Exit keystroke before it is considered complete.
func (f *Field) FERRequired() bool { return isFER(f.Attr) }

// Numeric reports whether the field accepts only digits, '+', '-',
// '.', and ','.
func (f *Field) Numeric() bool { return isNumericOnly(f.Attr) }

// NonDisplay reports whether the field's content is suppressed on
// screen (used for password-style input).
func (f *Field) NonDisplay() bool { return isNonDisplay(f.Attr) }

// contentStart returns the buffer offset of the first content cell
// following this field's attribute character.
func (f *Field) contentStart(cols int) int {
	return f.Row*cols + f.Col + 1
}

// containsOffset reports whether the linear offset off (row*cols+col)
// falls within this field's content region, wrapping across the end
// of the screen buffer the way a field's data can wrap from the last
// row back to row 0.
func (f *Field) containsOffset(off, cols, rows int) bool {
	start := f.contentStart(cols) % (cols * rows)
	for i := 0; i < f.Length; i++ {
		if (start+i)%(cols*rows) == off {
			return true
		}
	}
	return false
}

// fieldTable keeps Fields in buffer order for traversal (Tab/BackTab),
// for Read Input Fields encoding order, and for position-based lookup.
type fieldTable struct {
	cols, rows int
	fields     []*Field
}

func newFieldTable(cols, rows int) *fieldTable {
	return &fieldTable{cols: cols, rows: rows}
}

func (t *fieldTable) clear() {
	t.fields = nil
}

func (t *fieldTable) add(f *Field) {
	t.fields = append(t.fields, f)
}

// at returns the field whose content region contains the given
// 0-based row/col, or nil if that position is not part of any field
// (or lands on an attribute character itself).
func (t *fieldTable) at(row, col int) *Field {
	off := row*t.cols + col
	for _, f := range t.fields {
		if f.containsOffset(off, t.cols, t.rows) {
			return f
		}
	}
	return nil
}

// byName returns the field with the given logical name, or nil.
func (t *fieldTable) byName(name string) *Field {
	if name == "" {
		return nil
	}
	for _, f := range t.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// next returns the next unprotected, non-bypassed field in buffer
// order after the field containing (row, col), wrapping around to the
// first such field if none follows. It returns nil if there is no
// input-capable field on the screen at all.
func (t *fieldTable) next(row, col int) *Field {
	return t.step(row, col, 1)
}

// previous is the BackTab counterpart of next.
func (t *fieldTable) previous(row, col int) *Field {
	return t.step(row, col, -1)
}

func (t *fieldTable) step(row, col, dir int) *Field {
	n := len(t.fields)
	if n == 0 {
		return nil
	}
	cur := -1
	off := row*t.cols + col
	for i, f := range t.fields {
		foff := f.Row*t.cols + f.Col
		if foff == off || f.containsOffset(off, t.cols, t.rows) {
			cur = i
			break
		}
	}
	start := cur
	if start < 0 {
		start = -1
	}
	for i := 1; i <= n; i++ {
		idx := ((start+dir*i)%n + n) % n
		f := t.fields[idx]
		if f.Unprotected() && !f.Bypass() {
			return f
		}
	}
	return nil
}
