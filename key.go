// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

// KeyKind classifies a Key for the keyboard state machine, per spec.md
// §4.5.
type KeyKind int

const (
	// KeyData is character input to be placed in the character plane at
	// the cursor position.
	KeyData KeyKind = iota
	// KeyCursor moves the cursor without touching the host.
	KeyCursor
	// KeyAID arms and sends a host response.
	KeyAID
	// KeyLocal is handled entirely client-side (Reset, Insert) and never
	// reaches the host.
	KeyLocal
)

// CursorMove names a cursor-movement key.
type CursorMove int

const (
	CursorHome CursorMove = iota
	CursorUp
	CursorDown
	CursorLeft
	CursorRight
	CursorTab
	CursorBackTab
	CursorFieldHome
	CursorNewLine
)

// LocalKey names a key the keyboard state machine handles without ever
// producing a host response.
type LocalKey int

const (
	LocalReset LocalKey = iota
	LocalToggleInsert
)

// Key is a single unit of keyboard input dispatched to
// Session.SendKey. Exactly one of the payload fields is set,
// matching the KeyKind discriminator -- an exhaustive, closed variant in
// the same spirit as the workflow step hierarchy (see workflow.go).
type Key struct {
	Kind KeyKind

	// Set when Kind == KeyData.
	Rune rune

	// Set when Kind == KeyCursor.
	Cursor CursorMove

	// Set when Kind == KeyAID.
	AID AID

	// Set when Kind == KeyLocal.
	Local LocalKey
}

// DataKey builds a KeyData key for a single character of input.
func DataKey(r rune) Key { return Key{Kind: KeyData, Rune: r} }

// CursorKey builds a KeyCursor key.
func CursorKey(m CursorMove) Key { return Key{Kind: KeyCursor, Cursor: m} }

// AIDKey builds a KeyAID key that arms and sends a host response.
func AIDKey(aid AID) Key { return Key{Kind: KeyAID, AID: aid} }

// LocalOnlyKey builds a KeyLocal key.
func LocalOnlyKey(l LocalKey) Key { return Key{Kind: KeyLocal, Local: l} }
