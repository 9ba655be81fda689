// Package proto implements the piped remote-control protocol: a framing
// over stdin/stdout where an external driver advances the VM one step at a
// time, manages breakpoints, injects keyboard input and snapshots
// registers and memory. Every frame is a prefix byte plus a fixed or
// length-prefixed payload.
package proto

import (
	"bufio"
	"fmt"
	"io"

	"github.com/emmabritton/tape-device/internal/device"
	"github.com/emmabritton/tape-device/internal/exec"
	"github.com/emmabritton/tape-device/internal/host"
	"github.com/emmabritton/tape-device/internal/image"
)

// Host-to-device frame prefixes.
const (
	cmdStep       = 'e' // execute one step, honoring breakpoints
	cmdStepForce  = 'f' // execute one step, ignoring breakpoints
	cmdSetBp      = 'b' // payload: 2-byte ops offset
	cmdClearBp    = 'c' // payload: 2-byte ops offset
	cmdDump       = 'd'
	cmdKey        = 'k' // payload: 1 byte
	cmdString     = 't' // payload: 1-byte len + bytes, chunked at 255
	cmdMemory     = 'm' // payload: 2-byte lo, 2-byte hi (inclusive)
)

// Device-to-host frame prefixes.
const (
	replyStdout   = 'o' // 1-byte len + bytes
	replyStderr   = 'e' // 1-byte len + bytes
	replyBpHit    = 'h' // 2-byte pc
	replyDump     = 'd' // 1-byte len + JSON
	replyMemory   = 'm' // 2-byte big-endian len + bytes
	replyWantKey  = 'k'
	replyWantStr  = 't'
	replyFinished = 'f'
	replyCrashed  = 'c'
)

// chunk is the cap on a single length-prefixed string payload; a chunk of
// exactly this size signals that another chunk follows.
const chunk = 255

// ProtocolError is a malformed or unexpected frame; it closes the session.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Msg }

type state int

const (
	stateIdle state = iota
	stateAwaitingKey
	stateAwaitingString
	stateHalted
	stateCrashed
)

// captureHost wraps the real host so program output accumulates into
// buffers the session flushes as `o`/`e` frames after every command, which
// is what keeps step N's side effects ordered before step N+1's command
// read.
type captureHost struct {
	host.Host
	stdout []byte
	stderr []byte
}

func (h *captureHost) StdoutWrite(b byte) { h.stdout = append(h.stdout, b) }
func (h *captureHost) StderrWrite(b byte) { h.stderr = append(h.stderr, b) }

// Session is one piped run: a booted device plus the framing state.
type Session struct {
	r *bufio.Reader
	w *bufio.Writer

	d       *device.Device
	capture *captureHost
	st      state
	bps     map[uint16]bool
	sbuf    []byte // partial chunked input string
}

// NewSession boots a device from the image and binds it to the command
// stream. The base host still serves files, the clock and the PRNG;
// stdout/stderr are diverted onto the wire.
func NewSession(img image.Image, base host.Host, r io.Reader, w io.Writer) *Session {
	capture := &captureHost{Host: base}
	return &Session{
		r:       bufio.NewReader(r),
		w:       bufio.NewWriter(w),
		d:       device.New(img, capture),
		capture: capture,
		bps:     make(map[uint16]bool),
	}
}

// Device exposes the session's device for inspection.
func (s *Session) Device() *device.Device { return s.d }

// Run processes command frames until the driver disconnects. A clean EOF
// returns nil; a malformed frame returns the ProtocolError that closed
// the session.
func (s *Session) Run() error {
	for {
		prefix, err := s.r.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.handle(prefix); err != nil {
			return err
		}
		if err := s.w.Flush(); err != nil {
			return err
		}
	}
}

func (s *Session) handle(prefix byte) error {
	switch prefix {
	case cmdStep:
		return s.step(false)
	case cmdStepForce:
		return s.step(true)
	case cmdSetBp:
		addr, err := s.readWord()
		if err != nil {
			return err
		}
		s.bps[addr] = true
		return nil
	case cmdClearBp:
		addr, err := s.readWord()
		if err != nil {
			return err
		}
		delete(s.bps, addr)
		return nil
	case cmdDump:
		return s.sendDump()
	case cmdKey:
		b, err := s.r.ReadByte()
		if err != nil {
			return &ProtocolError{Msg: "truncated key frame"}
		}
		return s.deliverKey(b)
	case cmdString:
		return s.readStringFrame()
	case cmdMemory:
		return s.sendMemory()
	default:
		return &ProtocolError{Msg: fmt.Sprintf("unknown command prefix 0x%02X", prefix)}
	}
}

// step advances exactly one fetch-execute step, unless a breakpoint holds
// the device at its current PC.
func (s *Session) step(ignoreBps bool) error {
	switch s.st {
	case stateHalted:
		return s.writeFrame(replyFinished, nil)
	case stateCrashed:
		return s.writeFrame(replyCrashed, nil)
	case stateAwaitingKey:
		return s.writeFrame(replyWantKey, nil)
	case stateAwaitingString:
		return s.writeFrame(replyWantStr, nil)
	}

	if !ignoreBps && s.bps[s.d.PC] {
		var payload [2]byte
		payload[0] = byte(s.d.PC >> 8)
		payload[1] = byte(s.d.PC)
		return s.writeFrame(replyBpHit, payload[:])
	}
	return s.execute()
}

// execute runs one step and translates the outcome into session state and
// reply frames, flushing captured output first so side effects stay in
// program order on the wire.
func (s *Session) execute() error {
	outcome, _ := exec.Step(s.d, false)
	if err := s.flushOutput(); err != nil {
		return err
	}

	switch outcome {
	case exec.Continue:
		return nil
	case exec.Halted:
		s.st = stateHalted
		s.d.Halted = true
		return s.writeFrame(replyFinished, nil)
	case exec.Crashed:
		s.st = stateCrashed
		s.d.Halted = true
		return s.writeFrame(replyCrashed, nil)
	case exec.AwaitingKey:
		s.st = stateAwaitingKey
		return s.writeFrame(replyWantKey, nil)
	case exec.AwaitingString:
		s.st = stateAwaitingString
		return s.writeFrame(replyWantStr, nil)
	}
	return nil
}

// deliverKey buffers the key; if a RCHR is suspended on it, the paused
// instruction resumes immediately.
func (s *Session) deliverKey(b byte) error {
	s.d.InjectKey(b)
	if s.st != stateAwaitingKey {
		return nil
	}
	s.st = stateIdle
	return s.execute()
}

func (s *Session) readStringFrame() error {
	n, err := s.r.ReadByte()
	if err != nil {
		return &ProtocolError{Msg: "truncated string frame"}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return &ProtocolError{Msg: "truncated string frame"}
	}
	s.sbuf = append(s.sbuf, buf...)
	if int(n) == chunk {
		// Full chunk: more frames follow.
		return nil
	}

	line := s.sbuf
	s.sbuf = nil
	s.d.InjectString(line)
	if s.st != stateAwaitingString {
		return nil
	}
	s.st = stateIdle
	return s.execute()
}

func (s *Session) sendDump() error {
	payload := s.d.DumpJSON()
	if len(payload) > chunk {
		return &ProtocolError{Msg: "dump payload too large"}
	}
	return s.writeFrame(replyDump, append([]byte{byte(len(payload))}, payload...))
}

// sendMemory replies with mem[lo..=hi], split across frames of at most
// 255 bytes, each carrying its own big-endian length.
func (s *Session) sendMemory() error {
	lo, err := s.readWord()
	if err != nil {
		return err
	}
	hi, err := s.readWord()
	if err != nil {
		return err
	}
	if lo > hi {
		return &ProtocolError{Msg: fmt.Sprintf("memory range %d..%d is inverted", lo, hi)}
	}
	if int(hi) >= len(s.d.Mem) {
		hi = uint16(len(s.d.Mem) - 1)
	}

	for start := int(lo); start <= int(hi); start += chunk {
		end := start + chunk - 1
		if end > int(hi) {
			end = int(hi)
		}
		n := end - start + 1
		payload := make([]byte, 2+n)
		payload[0] = byte(n >> 8)
		payload[1] = byte(n)
		copy(payload[2:], s.d.Mem[start:end+1])
		if err := s.writeFrame(replyMemory, payload); err != nil {
			return err
		}
	}
	return nil
}

// flushOutput drains the captured stdout and stderr buffers as chunked
// `o` and `e` frames.
func (s *Session) flushOutput() error {
	if err := s.flushStream(replyStdout, &s.capture.stdout); err != nil {
		return err
	}
	return s.flushStream(replyStderr, &s.capture.stderr)
}

func (s *Session) flushStream(prefix byte, buf *[]byte) error {
	data := *buf
	*buf = nil
	for len(data) > 0 {
		n := len(data)
		if n > chunk {
			n = chunk
		}
		if err := s.writeFrame(prefix, append([]byte{byte(n)}, data[:n]...)); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (s *Session) readWord() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(s.r, b[:]); err != nil {
		return 0, &ProtocolError{Msg: "truncated address payload"}
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (s *Session) writeFrame(prefix byte, payload []byte) error {
	if err := s.w.WriteByte(prefix); err != nil {
		return err
	}
	_, err := s.w.Write(payload)
	return err
}
