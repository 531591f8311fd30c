// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import "sync"

// OIA mirrors the Operator Information Area: the status line a real
// 5250 emulator draws beneath the presentation space. go5250 exposes
// it as readable state plus a wait-for-unlock primitive instead of
// rendering it, per spec.md §3.
//
// The governing invariant is: the keyboard is locked if and only if
// Reason != InhibitNone. Every transition goes through lock/unlock so
// that invariant can never be observed broken.
type OIA struct {
	mu     sync.Mutex
	cond   *sync.Cond
	locked bool
	reason InhibitReason
	code   byte

	messageWaiting bool
	insertMode     bool
	systemName     string
}

// NewOIA returns an OIA in the powered-on, locked state a freshly
// connected session starts in.
func NewOIA() *OIA {
	o := &OIA{locked: true, reason: InhibitPowerOn}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// Locked reports whether the keyboard is currently inhibited.
func (o *OIA) Locked() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.locked
}

// Reason reports why the keyboard is inhibited; InhibitNone if it is
// not.
func (o *OIA) Reason() InhibitReason {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

// MessageWaiting reports the OIA's message-waiting flag. No inbound
// command handled by the decoder sets this flag, so it reports false.
func (o *OIA) MessageWaiting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.messageWaiting
}

// InsertMode reports whether local insert mode is active.
func (o *OIA) InsertMode() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.insertMode
}

// SystemName reports the host system name; "" if unknown. The decoder
// never records a system name, so this is always "".
func (o *OIA) SystemName() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.systemName
}

// StatusText returns the 5250-style inhibit status text a real
// emulator draws in the OIA, e.g. "X SYSTEM" or "X II"; "" if the
// keyboard is not inhibited.
func (o *OIA) StatusText() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason.StatusText()
}

// lock inhibits the keyboard for the given reason and wakes any
// waiters so they can re-check their condition (a wait for unlock
// must still observe the new locked state).
func (o *OIA) lock(reason InhibitReason, code byte) {
	o.mu.Lock()
	o.locked = true
	o.reason = reason
	o.code = code
	o.mu.Unlock()
	o.cond.Broadcast()
}

// unlock clears the inhibit and wakes any goroutine blocked in
// waitUnlocked.
func (o *OIA) unlock() {
	o.mu.Lock()
	o.locked = false
	o.reason = InhibitNone
	o.code = 0
	o.mu.Unlock()
	o.cond.Broadcast()
}

func (o *OIA) setMessageWaiting(v bool) {
	o.mu.Lock()
	o.messageWaiting = v
	o.mu.Unlock()
	o.cond.Broadcast()
}

func (o *OIA) setInsertMode(v bool) {
	o.mu.Lock()
	o.insertMode = v
	o.mu.Unlock()
}

func (o *OIA) setSystemName(name string) {
	o.mu.Lock()
	o.systemName = name
	o.mu.Unlock()
}

// waitUnlocked blocks until the keyboard is unlocked or stop fires,
// returning false if stop fired first. It is the primitive
// Session.WaitForKeyboardUnlock builds on.
func (o *OIA) waitUnlocked(stop <-chan struct{}) bool {
	done := make(chan struct{})
	go func() {
		select {
		case <-stop:
			o.cond.Broadcast()
		case <-done:
		}
	}()
	defer close(done)

	o.mu.Lock()
	defer o.mu.Unlock()
	for o.locked {
		select {
		case <-stop:
			return false
		default:
		}
		o.cond.Wait()
	}
	return true
}
