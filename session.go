// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net"
	"regexp"
	"sync"
	"time"

	"github.com/racingmars/go5250/internal/codepage"
)

// Debug, if non-nil, receives a line of trace output for every
// inbound and outbound 5250 record, mirroring the teacher library's
// go3270.Debug hook.
var Debug io.Writer

func debugf(format string, args ...any) {
	if Debug == nil {
		return
	}
	fmt.Fprintf(Debug, format+"\n", args...)
}

// SessionState names the Session lifecycle state, per spec.md §4.6.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateNegotiating
	StateBound
	StateActive
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateNegotiating:
		return "Negotiating"
	case StateBound:
		return "Bound"
	case StateActive:
		return "Active"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}

// SessionConfig carries everything Session.Connect needs: no
// file-based config loading, per SPEC_FULL.md §2 -- callers build this
// struct directly.
type SessionConfig struct {
	Host string
	Port int
	TLS  bool

	// TLSConfig, if TLS is true and this is non-nil, is used verbatim
	// instead of a default client configuration.
	TLSConfig *tls.Config

	// DeviceType is the TN5250 TERMINAL-TYPE string, e.g. "IBM-3179-2".
	// Defaults to "IBM-3179-2" (a monochrome 24x80 device) if empty.
	DeviceType string

	// DeviceName is sent via NEW-ENVIRONMENT's DEVNAME variable. If
	// empty, a QPADEV#### name is synthesized the way a real IBM i
	// client does, per SPEC_FULL.md §4.
	DeviceName string

	// CCSID selects the codepage used to decode/encode character
	// data. Defaults to "037" if empty.
	CCSID string

	// Rows and Cols select the display geometry. Per spec.md §3 only
	// 24x80 and 27x132 are valid; both default to the 24x80 size if
	// left zero.
	Rows int
	Cols int

	DialTimeout time.Duration
}

func (c SessionConfig) deviceType() string {
	if c.DeviceType != "" {
		return c.DeviceType
	}
	return "IBM-3179-2"
}

func (c SessionConfig) ccsid() string {
	if c.CCSID != "" {
		return c.CCSID
	}
	return "037"
}

func (c SessionConfig) rows() int {
	if c.Rows != 0 {
		return c.Rows
	}
	return DefaultRows
}

func (c SessionConfig) cols() int {
	if c.Cols != 0 {
		return c.Cols
	}
	return DefaultCols
}

// synthesizeDeviceName builds a QPADEV####-style device name, the IBM
// i convention real clients use when no operator-chosen name is
// configured.
func synthesizeDeviceName() string {
	return fmt.Sprintf("QPADEV%04d", rand.Intn(10000))
}

// Session is the facade the rest of go5250 is built to support: it
// owns the telnet framer, decoder, screen, OIA, and keyboard
// controller for one TN5250 connection, and exposes the synchronous
// API of spec.md §4.6.
type Session struct {
	cfg   SessionConfig
	table *codepage.Table

	mu      sync.Mutex
	state   SessionState
	conn    net.Conn
	framer  *Framer
	decoder *decoder
	keyb    *keyboardController

	screen *Screen
	oia    *OIA

	listeners  map[int]Listener
	nextListID int

	readerDone chan struct{}
	closeOnce  sync.Once
}

// NewSession constructs a Session from cfg. The CCSID named in cfg
// must be one internal/codepage knows about, or NewSession returns a
// *ConfigError.
func NewSession(cfg SessionConfig) (*Session, error) {
	table, err := codepage.Get(cfg.ccsid())
	if err != nil {
		return nil, &ConfigError{Reason: "unknown CCSID " + cfg.ccsid(), Err: err}
	}
	screen, err := NewScreenSize(cfg.rows(), cfg.cols())
	if err != nil {
		return nil, err
	}
	if cfg.DeviceName == "" {
		cfg.DeviceName = synthesizeDeviceName()
	}
	return &Session{
		cfg:       cfg,
		table:     table,
		screen:    screen,
		oia:       NewOIA(),
		listeners: make(map[int]Listener),
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsConnected reports whether the session has an active connection
// (state Bound or Active).
func (s *Session) IsConnected() bool {
	st := s.State()
	return st == StateBound || st == StateActive
}

// Screen returns the session's live Screen. Callers never write
// through it directly; all mutation flows through Send.
func (s *Session) Screen() *Screen { return s.screen }

// OIA returns the session's live OIA.
func (s *Session) OIA() *OIA { return s.oia }

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.notifyListeners(Event{Kind: EventStateChanged, State: st})
}

// Connect opens the TCP (optionally TLS) connection, performs telnet
// negotiation, and transitions to Active once the host's first Write
// to Display has been applied, per spec.md §4.6.
func (s *Session) Connect(ctx context.Context) error {
	s.setState(StateConnecting)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	dialer := net.Dialer{Timeout: s.cfg.DialTimeout}
	var conn net.Conn
	var err error
	if s.cfg.TLS {
		tlsCfg := s.cfg.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{ServerName: s.cfg.Host} //nolint:gosec // caller opts into default verification; override via TLSConfig for custom trust roots
		}
		conn, err = tls.DialWithDialer(&dialer, "tcp", addr, tlsCfg)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		s.setState(StateDisconnected)
		return &ConnectionError{Reason: "dial " + addr, Err: err}
	}

	return s.bind(conn)
}

// bind wraps an already-open net.Conn (real socket or a net.Pipe end
// in tests) with a Framer, negotiates, and starts the reader
// goroutine. Exported indirectly via Connect; kept unexported so
// tests can reach it through a small helper without widening the
// public surface.
func (s *Session) bind(conn net.Conn) error {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.setState(StateNegotiating)
	framer := NewFramer(conn, s.cfg.deviceType(), s.cfg.DeviceName)
	if err := framer.Negotiate(); err != nil {
		conn.Close()
		s.setState(StateDisconnected)
		return err
	}

	s.mu.Lock()
	s.framer = framer
	s.decoder = newDecoder(s.screen, s.oia, s.table, s.cfg.deviceType())
	s.keyb = newKeyboardController(s.screen, s.oia, s.table, s.transmit)
	s.readerDone = make(chan struct{})
	s.mu.Unlock()

	s.setState(StateBound)
	go s.readLoop()
	return nil
}

func (s *Session) transmit(rec []byte) error {
	s.mu.Lock()
	framer := s.framer
	s.mu.Unlock()
	if framer == nil {
		return &ConnectionError{Reason: "session not connected"}
	}
	debugf("-> % x", rec)
	return framer.WriteRecord(rec)
}

// readLoop is the single per-session inbound reader goroutine of
// spec.md §5: it blocks on the socket, feeds each record to the
// decoder, and fans out change notifications.
func (s *Session) readLoop() {
	defer close(s.readerDone)
	for {
		rec, err := s.framer.ReadRecord()
		if err != nil {
			s.teardown(&ConnectionError{Reason: "read", Err: err})
			return
		}
		debugf("<- % x", rec)

		if err := s.decoder.ProcessRecord(rec); err != nil {
			s.teardown(err)
			return
		}
		if rec[0] == cmdWriteToDisplay && s.State() != StateActive {
			s.setState(StateActive)
		}
		for _, out := range s.decoder.TakeOutbound() {
			if werr := s.transmit(out); werr != nil {
				s.teardown(werr)
				return
			}
		}

		row1, col1, row2, col2, any := s.screen.takeDirty()
		if any {
			s.notifyListeners(Event{Kind: EventScreenChanged, Row1: row1, Col1: col1, Row2: row2, Col2: col2})
		}
	}
}

func (s *Session) teardown(cause error) {
	s.mu.Lock()
	if s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.oia.unlock() // release any wait_for_* waiters; they observe cause via the event
	s.notifyListeners(Event{Kind: EventDisconnected, Err: cause})
}

// Disconnect sends best-effort telnet DONT for negotiated options,
// closes the socket, and transitions to Disconnected, per spec.md
// §4.6. It is safe to call more than once.
func (s *Session) Disconnect() error {
	if s.State() == StateDisconnected {
		return nil
	}
	s.setState(StateDisconnecting)
	s.closeOnce.Do(func() {
		s.mu.Lock()
		framer := s.framer
		s.mu.Unlock()
		if framer != nil {
			framer.Close()
		}
	})
	s.mu.Lock()
	done := s.readerDone
	s.mu.Unlock()
	if done != nil {
		<-done
	} else {
		s.setState(StateDisconnected)
	}
	return nil
}

// SendKey dispatches a single Key through the keyboard state machine.
func (s *Session) SendKey(key Key) error {
	if s.keyb == nil {
		return &ConnectionError{Reason: "session not connected"}
	}
	return s.keyb.Send(key)
}

// SendString types text into the field at the cursor as a single
// atomic operation: the whole string must fit the field's remaining
// length and encode under the session's CCSID, or nothing is written,
// per spec.md §7/§8's truncation and "send does not partially commit"
// requirements.
func (s *Session) SendString(text string) error {
	if s.keyb == nil {
		return &ConnectionError{Reason: "session not connected"}
	}
	if s.oia.Locked() {
		return &OperatorErrorError{Code: 0x02, Reason: s.oia.Reason()}
	}
	return s.keyb.sendString(text)
}

// Cursor returns the current 0-based cursor position.
func (s *Session) Cursor() (row, col int) { return s.screen.Cursor() }

// WaitForKeyboardUnlock blocks until the OIA reports the keyboard
// unlocked or ctx is done, per spec.md §4.5's condition-variable
// contract.
func (s *Session) WaitForKeyboardUnlock(ctx context.Context) error {
	start := time.Now()
	stop := make(chan struct{})
	done := make(chan bool, 1)
	go func() { done <- s.oia.waitUnlocked(stop) }()
	select {
	case ok := <-done:
		if !ok {
			return &CancelledError{Reason: "wait for keyboard unlock"}
		}
		return nil
	case <-ctx.Done():
		close(stop)
		<-done
		if ctx.Err() == context.DeadlineExceeded {
			return &TimeoutError{WaitedFor: "keyboard unlock", ElapsedMs: time.Since(start).Milliseconds()}
		}
		return &CancelledError{Reason: ctx.Err().Error()}
	}
}

// WaitForText polls (every 100ms, never a tight spin) until the
// screen's full text matches re or ctx is done.
func (s *Session) WaitForText(ctx context.Context, re *regexp.Regexp) error {
	return s.poll(ctx, "text matching "+re.String(), func() bool {
		return re.MatchString(s.screen.Text())
	})
}

// WaitForField polls until a field with the given name exists.
func (s *Session) WaitForField(ctx context.Context, name string) error {
	return s.poll(ctx, "field "+name, func() bool {
		return s.screen.FieldByName(name) != nil
	})
}

const pollInterval = 100 * time.Millisecond

func (s *Session) poll(ctx context.Context, what string, cond func() bool) error {
	start := time.Now()
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	if cond() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return &TimeoutError{WaitedFor: what, ElapsedMs: time.Since(start).Milliseconds()}
			}
			return &CancelledError{Reason: ctx.Err().Error()}
		case <-t.C:
			if cond() {
				return nil
			}
		}
	}
}
