// This file is part of https://github.com/racingmars/go5250/
// Copyright 2025 by Matthew R. Wilson, licensed under the MIT license. See
// LICENSE in the project root for license information.

package go5250

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
)

// Telnet command bytes (RFC 854).
const (
	tnSE   byte = 0xF0
	tnNOP  byte = 0xF1
	tnDM   byte = 0xF2
	tnBRK  byte = 0xF3
	tnIP   byte = 0xF4
	tnAO   byte = 0xF5
	tnAYT  byte = 0xF6
	tnEC   byte = 0xF7
	tnEL   byte = 0xF8
	tnGA   byte = 0xF9
	tnSB   byte = 0xFA
	tnWILL byte = 0xFB
	tnWONT byte = 0xFC
	tnDO   byte = 0xFD
	tnDONT byte = 0xFE
	tnIAC  byte = 0xFF
	tnEOR  byte = 0xEF
)

// Telnet option numbers required (or optionally used) for TN5250, per
// RFC 1205/RFC 2877 and spec.md §4.2.
const (
	optBinary     byte = 0x00
	optEcho       byte = 0x01
	optSGA        byte = 0x03
	optTimingMark byte = 0x06
	optTermType   byte = 0x18
	optEOR        byte = 0x19
	optNewEnviron byte = 0x27
)

const readBufSize = 8 * 1024

// framerState is the telnet scanner's state, per spec.md §4.2:
// WaitHeader -> InData -> InIAC -> (InSB -> InSBIAC) -> WaitHeader.
type framerState int

const (
	stData framerState = iota
	stIAC
	stSB
	stSBIAC
)

// Framer turns a byte stream into 5250 records, handling telnet option
// negotiation out of band. One Framer is owned by exactly one Session.
type Framer struct {
	conn       net.Conn
	r          *bufio.Reader
	deviceType string
	deviceName string

	writeMu sync.Mutex

	state  framerState
	record []byte // accumulated record bytes (InData)
	sbBuf  []byte // accumulated subnegotiation payload

	negotiated   map[byte]bool
	remoteWill   map[byte]bool
	rejectedOpts map[byte]bool
}

// NewFramer constructs a Framer over conn. deviceType is the TERMINAL-TYPE
// string the client answers with (e.g. "IBM-3179-2"); deviceName, if
// non-empty, is sent via NEW-ENVIRONMENT as the DEVNAME variable.
func NewFramer(conn net.Conn, deviceType, deviceName string) *Framer {
	return &Framer{
		conn:         conn,
		r:            bufio.NewReaderSize(conn, readBufSize),
		deviceType:   deviceType,
		deviceName:   deviceName,
		negotiated:   make(map[byte]bool),
		remoteWill:   make(map[byte]bool),
		rejectedOpts: make(map[byte]bool),
	}
}

// Negotiate performs the required TN5250 telnet option negotiation: it
// offers DO/WILL for BINARY (both directions), END-OF-RECORD (both
// directions), and TERMINAL-TYPE, answers a TERMINAL-TYPE SEND request
// with deviceType, and optionally offers NEW-ENVIRONMENT. It returns once
// the mandatory options have been acknowledged (by the host agreeing or
// explicitly refusing) or a negotiation-level protocol error occurs.
func (f *Framer) Negotiate() error {
	f.writeCmd(tnDO, optBinary)
	f.writeCmd(tnWILL, optBinary)
	f.writeCmd(tnDO, optEOR)
	f.writeCmd(tnWILL, optEOR)
	f.writeCmd(tnDO, optTermType)
	if f.deviceName != "" {
		f.writeCmd(tnWILL, optNewEnviron)
	}

	required := map[byte]bool{optBinary: true, optEOR: true, optTermType: true}
	for {
		done := true
		for opt := range required {
			if !f.negotiated[opt] && !f.rejectedOpts[opt] {
				done = false
			}
		}
		if done {
			return nil
		}
		if err := f.pumpOne(); err != nil {
			return &ConnectionError{Reason: "telnet negotiation", Err: err}
		}
	}
}

// pumpOne reads and processes exactly one telnet command or data chunk
// from the connection, used during negotiation before ReadRecord's main
// loop takes over.
func (f *Framer) pumpOne() error {
	b, err := f.r.ReadByte()
	if err != nil {
		return err
	}
	if b != tnIAC {
		// Stray data byte before negotiation settled; harmless, discard.
		return nil
	}
	return f.handleIACSequence()
}

// handleIACSequence consumes the bytes following an already-read IAC and
// processes the command. It is shared by negotiation pumping and the main
// ReadRecord loop.
func (f *Framer) handleIACSequence() error {
	cmd, err := f.r.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case tnWILL, tnWONT, tnDO, tnDONT:
		opt, err := f.r.ReadByte()
		if err != nil {
			return err
		}
		return f.handleNegotiation(cmd, opt)
	case tnSB:
		return f.handleSubnegotiation()
	case tnEOR:
		return errEOR
	case tnIAC:
		return errLiteralFF
	case tnNOP, tnDM, tnGA:
		return nil
	case tnAYT:
		f.writeRaw([]byte{tnIAC, tnNOP})
		return nil
	default:
		return &ProtocolError{Reason: fmt.Sprintf("unknown telnet command 0x%02x after IAC", cmd)}
	}
}

// sentinel errors used internally to signal special IAC outcomes from
// handleIACSequence back to the record-scanning loop.
var errEOR = fmt.Errorf("go5250: end of record")
var errLiteralFF = fmt.Errorf("go5250: literal 0xff")

func (f *Framer) handleNegotiation(cmd, opt byte) error {
	switch cmd {
	case tnWILL:
		f.remoteWill[opt] = true
		switch opt {
		case optBinary, optEOR, optTimingMark:
			f.writeCmd(tnDO, opt)
			f.negotiated[opt] = true
		default:
			f.writeCmd(tnDONT, opt)
		}
	case tnWONT:
		f.rejectedOpts[opt] = true
	case tnDO:
		switch opt {
		case optBinary, optEOR, optTermType, optTimingMark:
			f.writeCmd(tnWILL, opt)
			f.negotiated[opt] = true
		case optNewEnviron:
			if f.deviceName != "" {
				f.writeCmd(tnWILL, opt)
				f.negotiated[opt] = true
			} else {
				f.writeCmd(tnWONT, opt)
			}
		default:
			f.writeCmd(tnWONT, opt)
		}
	case tnDONT:
		f.rejectedOpts[opt] = true
	}
	return nil
}

func (f *Framer) handleSubnegotiation() error {
	f.sbBuf = f.sbBuf[:0]
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return err
		}
		if b == tnIAC {
			b2, err := f.r.ReadByte()
			if err != nil {
				return err
			}
			if b2 == tnSE {
				break
			}
			if b2 == tnIAC {
				f.sbBuf = append(f.sbBuf, tnIAC)
				continue
			}
			return &ProtocolError{Reason: "malformed subnegotiation sequence"}
		}
		f.sbBuf = append(f.sbBuf, b)
	}
	if len(f.sbBuf) == 0 {
		return nil
	}
	switch f.sbBuf[0] {
	case optTermType:
		if len(f.sbBuf) >= 2 && f.sbBuf[1] == 0x01 { // SEND
			payload := append([]byte{optTermType, 0x00}, []byte(f.deviceType)...)
			f.writeSB(payload)
			f.negotiated[optTermType] = true
		}
	case optNewEnviron:
		if len(f.sbBuf) >= 2 && f.sbBuf[1] == 0x01 { // SEND
			f.replyNewEnvironment()
		}
	}
	return nil
}

// NEW-ENVIRONMENT subnegotiation constants (RFC 1572).
const (
	envVAR   byte = 0x00
	envVALUE byte = 0x01
	envIS    byte = 0x00
)

func (f *Framer) replyNewEnvironment() {
	payload := []byte{optNewEnviron, envIS}
	payload = append(payload, envVAR)
	payload = append(payload, []byte("DEVNAME")...)
	payload = append(payload, envVALUE)
	payload = append(payload, []byte(f.deviceName)...)
	f.writeSB(payload)
}

func (f *Framer) writeCmd(cmd, opt byte) {
	f.writeRaw([]byte{tnIAC, cmd, opt})
}

func (f *Framer) writeSB(payload []byte) {
	buf := make([]byte, 0, len(payload)+4)
	buf = append(buf, tnIAC, tnSB)
	buf = append(buf, payload...)
	buf = append(buf, tnIAC, tnSE)
	f.writeRaw(buf)
}

func (f *Framer) writeRaw(b []byte) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.conn.Write(b) //nolint:errcheck // best-effort; caller observes failures via the next ReadRecord
}

// ReadRecord blocks until a complete 5250 record (delimited by IAC EOR)
// has been read, handling any interleaved telnet negotiation out of
// band. It returns io.EOF if the connection closed cleanly between
// records, or a *ProtocolError for malformed framing.
func (f *Framer) ReadRecord() ([]byte, error) {
	f.record = f.record[:0]
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != tnIAC {
			f.record = append(f.record, b)
			continue
		}
		err = f.handleIACSequence()
		switch err {
		case nil:
			continue
		case errEOR:
			out := make([]byte, len(f.record))
			copy(out, f.record)
			return out, nil
		case errLiteralFF:
			f.record = append(f.record, tnIAC)
			continue
		default:
			return nil, err
		}
	}
}

// WriteRecord doubles every literal 0xFF byte in data and terminates the
// record with IAC EOR, per spec.md §4.2.
func (f *Framer) WriteRecord(data []byte) error {
	buf := make([]byte, 0, len(data)+2)
	for _, b := range data {
		buf = append(buf, b)
		if b == tnIAC {
			buf = append(buf, tnIAC)
		}
	}
	buf = append(buf, tnIAC, tnEOR)
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, err := f.conn.Write(buf)
	return err
}

// Close releases the framer's negotiated options with best-effort
// IAC DONT messages and closes the underlying connection.
func (f *Framer) Close() error {
	for opt := range f.negotiated {
		f.writeCmd(tnDONT, opt)
	}
	return f.conn.Close()
}

var _ io.Closer = (*Framer)(nil)
