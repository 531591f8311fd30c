// This file is part of https://github.com/racingmars/go5250/
// Copyright 2020, 2025 by Matthew R. Wilson, licensed under the MIT license.
// See LICENSE in the project root for license information.

// Package codepage loads the CCSID (Coded Character Set Identifier)
// tables go5250 uses to translate between EBCDIC and Unicode, and exposes
// each one as a golang.org/x/text/encoding.Encoding so callers already
// working in the x/text ecosystem can plug a Table directly into a
// transform.Reader/transform.Writer chain.
package codepage

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

//go:embed data/ccsid.json
var resourceFS embed.FS

// Substitute is the Unicode code point (SUB) that Decode returns for
// EBCDIC byte positions a table does not assign.
const Substitute rune = 0x001A

type resourceDoc struct {
	Mappings []struct {
		CCSIDID     string     `json:"ccsid_id"`
		Name        string     `json:"name"`
		Description string     `json:"description"`
		Codepage    [256]int32 `json:"codepage"`
	} `json:"ccsid_mappings"`
}

// Table is a single, immutable CCSID translation table: a 256-entry
// EBCDIC-byte-to-Unicode array plus the sparse inverse built from it.
//
// Unlike the "graphic escape" scheme older EBCDIC tooling uses to reach
// code points beyond a single byte's 256 positions, CCSID tables as used
// by TN5250 are single-byte only: every byte decodes independently, with
// no shift/escape state carried across bytes.
type Table struct {
	id          string
	name        string
	description string
	e2u         [256]rune
	u2e         map[rune]byte
}

// UnmappableError reports that a Unicode code point has no EBCDIC
// representation in a given CCSID.
type UnmappableError struct {
	CCSID     string
	Codepoint rune
}

func (e *UnmappableError) Error() string {
	return fmt.Sprintf("codepage %s: code point %U has no EBCDIC mapping", e.CCSID, e.Codepoint)
}

func newTable(id, name, description string, codepage [256]int32) *Table {
	t := &Table{id: id, name: name, description: description}
	t.u2e = make(map[rune]byte, 256)
	for b := 0; b < 256; b++ {
		r := rune(codepage[b])
		t.e2u[b] = r
		// First byte wins when multiple positions decode to the same rune
		// (this happens for every byte a table leaves unassigned, which
		// all decode to Substitute).
		if _, exists := t.u2e[r]; !exists {
			t.u2e[r] = byte(b)
		}
	}
	return t
}

// ID returns the CCSID identifier, e.g. "037" or "1140".
func (t *Table) ID() string { return t.id }

// Name returns the short IBM name for the code page, e.g. "IBM037".
func (t *Table) Name() string { return t.name }

// Description returns the human-readable description of the code page.
func (t *Table) Description() string { return t.description }

// Decode converts a single EBCDIC byte into its Unicode code point. Decode
// is total: bytes this table does not assign decode to Substitute.
func (t *Table) Decode(b byte) rune {
	return t.e2u[b]
}

// Encode converts a single Unicode code point into its EBCDIC byte
// representation. It returns an *UnmappableError if r has no mapping in
// this table; callers must surface the error rather than substituting a
// placeholder byte.
func (t *Table) Encode(r rune) (byte, error) {
	b, ok := t.u2e[r]
	if !ok {
		return 0, &UnmappableError{CCSID: t.id, Codepoint: r}
	}
	return b, nil
}

// DecodeBytes converts a slice of EBCDIC bytes into a Unicode string.
func (t *Table) DecodeBytes(b []byte) string {
	runes := make([]rune, len(b))
	for i, v := range b {
		runes[i] = t.e2u[v]
	}
	return string(runes)
}

// EncodeString converts a Unicode string into EBCDIC bytes. It fails
// all-or-nothing: if any rune is unmappable, no partial result is
// returned, matching the "send does not partially commit" rule for
// outbound key/string operations.
func (t *Table) EncodeString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, err := t.Encode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// NewEncoding adapts this table to the golang.org/x/text/encoding.Encoding
// interface.
func (t *Table) NewEncoding() encoding.Encoding {
	return tableEncoding{t}
}

type tableEncoding struct{ t *Table }

func (e tableEncoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: &ebcdicToUTF8{t: e.t}}
}

func (e tableEncoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: &utf8ToEBCDIC{t: e.t}}
}

// ebcdicToUTF8 is a transform.Transformer that decodes an EBCDIC byte
// stream into UTF-8, one input byte at a time.
type ebcdicToUTF8 struct{ t *Table }

func (tr *ebcdicToUTF8) Reset() {}

func (tr *ebcdicToUTF8) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r := tr.t.Decode(src[nSrc])
		size := utf8.RuneLen(r)
		if size < 0 {
			size = utf8.RuneLen(utf8.RuneError)
			r = utf8.RuneError
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc++
	}
	return nDst, nSrc, nil
}

// utf8ToEBCDIC is a transform.Transformer that encodes a UTF-8 byte stream
// into EBCDIC, failing the whole Transform call on the first unmappable
// rune rather than silently substituting a placeholder byte.
type utf8ToEBCDIC struct{ t *Table }

func (tr *utf8ToEBCDIC) Reset() {}

func (tr *utf8ToEBCDIC) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && size == 0 {
				return nDst, nSrc, transform.ErrShortSrc
			}
			if !utf8.FullRune(src[nSrc:]) && !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}
		}
		b, encErr := tr.t.Encode(r)
		if encErr != nil {
			return nDst, nSrc, encErr
		}
		if nDst+1 > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		dst[nDst] = b
		nDst++
		nSrc += size
	}
	return nDst, nSrc, nil
}

var registry struct {
	once   sync.Once
	tables map[string]*Table
	err    error
}

func init() { load() }

func load() {
	registry.once.Do(func() {
		raw, err := resourceFS.ReadFile("data/ccsid.json")
		if err != nil {
			registry.err = fmt.Errorf("codepage: reading embedded resource: %w", err)
			return
		}
		var doc resourceDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			registry.err = fmt.Errorf("codepage: parsing embedded resource: %w", err)
			return
		}
		tables := make(map[string]*Table, len(doc.Mappings))
		for _, m := range doc.Mappings {
			tables[m.CCSIDID] = newTable(m.CCSIDID, m.Name, m.Description, m.Codepage)
		}
		registry.tables = tables
	})
}

// Get returns the loaded Table for the given CCSID id (e.g. "037"). It
// returns an error if the resource failed to load or the CCSID is
// unknown; per spec this is a hard ConfigError-class failure the caller
// must surface at session setup, never silently substituted.
func Get(ccsid string) (*Table, error) {
	load()
	if registry.err != nil {
		return nil, registry.err
	}
	t, ok := registry.tables[ccsid]
	if !ok {
		return nil, fmt.Errorf("codepage: unknown CCSID %q", ccsid)
	}
	return t, nil
}

// Available returns the CCSID ids of every loaded table.
func Available() []string {
	load()
	ids := make([]string, 0, len(registry.tables))
	for id := range registry.tables {
		ids = append(ids, id)
	}
	return ids
}
