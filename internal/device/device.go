// Package device holds the mutable state of one running device: its
// registers, its 65,535-byte memory/stack, and the immutable program image
// it was booted from. Everything here is a plain struct plus range-checked
// accessors; instruction semantics live in internal/exec.
package device

import (
	"github.com/emmabritton/tape-device/internal/host"
	"github.com/emmabritton/tape-device/internal/image"
)

const (
	memSize     = 65535
	stackTop    = 0xFFFF
	initialPC   = 0
)

// Device is one booted instance: registers, flat memory, and handles to
// the image it was loaded from and the host it talks I/O through.
type Device struct {
	D   [4]byte // D0..D3
	ACC byte
	A   [2]uint16 // A0, A1

	PC, SP, FP uint16
	Overflow   bool

	Mem [memSize]byte

	Img  image.Image
	Host host.Host

	Halted  bool
	HaltErr error // non-nil only when Halted was reached via a Trap

	// Pending input injected by the piped protocol for a suspended RCHR or
	// RSTR. The executor consumes these instead of touching the host when
	// stepping in non-blocking mode.
	HasPendingKey    bool
	PendingKey       byte
	HasPendingString bool
	PendingString    []byte
}

// InjectKey buffers one key for a suspended RCHR to consume on its retry.
func (d *Device) InjectKey(b byte) {
	d.PendingKey = b
	d.HasPendingKey = true
}

// InjectString buffers a full line for a suspended RSTR to consume.
func (d *Device) InjectString(s []byte) {
	d.PendingString = s
	d.HasPendingString = true
}

// New boots a fresh Device from an already-decoded image: SP and FP start
// at 0xFFFF, PC at 0, memory all zero.
func New(img image.Image, h host.Host) *Device {
	return &Device{
		SP:   stackTop,
		FP:   stackTop,
		PC:   initialPC,
		Img:  img,
		Host: h,
	}
}

// DataReg returns the current value of one DataReg operand slot.
func (d *Device) DataReg(idx byte) byte {
	switch idx {
	case image.RegACC:
		return d.ACC
	case image.RegD0:
		return d.D[0]
	case image.RegD1:
		return d.D[1]
	case image.RegD2:
		return d.D[2]
	case image.RegD3:
		return d.D[3]
	default:
		return 0
	}
}

// SetDataReg writes idx's DataReg operand slot.
func (d *Device) SetDataReg(idx byte, v byte) {
	switch idx {
	case image.RegACC:
		d.ACC = v
	case image.RegD0:
		d.D[0] = v
	case image.RegD1:
		d.D[1] = v
	case image.RegD2:
		d.D[2] = v
	case image.RegD3:
		d.D[3] = v
	}
}

// AddrReg returns the current value of one AddrReg operand slot.
func (d *Device) AddrReg(idx byte) uint16 {
	switch idx {
	case image.RegA0:
		return d.A[0]
	case image.RegA1:
		return d.A[1]
	default:
		return 0
	}
}

// SetAddrReg writes idx's AddrReg operand slot.
func (d *Device) SetAddrReg(idx byte, v uint16) {
	switch idx {
	case image.RegA0:
		d.A[0] = v
	case image.RegA1:
		d.A[1] = v
	}
}

// ReadByte reads one byte of the 65,535-byte memory, trapping on an
// out-of-range address.
func (d *Device) ReadByte(addr uint16) (byte, error) {
	if int(addr) >= len(d.Mem) {
		return 0, trap(TrapMemoryOOB, "read at %d", addr)
	}
	return d.Mem[addr], nil
}

// WriteByte writes one byte of memory, trapping on an out-of-range address.
func (d *Device) WriteByte(addr uint16, v byte) error {
	if int(addr) >= len(d.Mem) {
		return trap(TrapMemoryOOB, "write at %d", addr)
	}
	d.Mem[addr] = v
	return nil
}

// FetchOp reads one byte from the ops region at PC, trapping if PC has run
// off the end of the program.
func (d *Device) FetchOp() (byte, error) {
	if int(d.PC) >= len(d.Img.Ops) {
		return 0, trap(TrapMemoryOOB, "pc %d past end of ops (len %d)", d.PC, len(d.Img.Ops))
	}
	b := d.Img.Ops[d.PC]
	d.PC++
	return b, nil
}

// ApplyArith stores an arithmetic instruction's ACC result and overflow
// flag as one compound write, so a snapshot taken between instructions
// never sees half-updated state.
func (d *Device) ApplyArith(result int) {
	d.ACC = byte(result)
	d.Overflow = result < 0 || result > 255
}

// ApplyAddrArith is ApplyArith's 16-bit counterpart for INC/DEC on an
// address register: wraps mod 65536, sets Overflow the same way.
func (d *Device) ApplyAddrArith(idx byte, result int) {
	d.SetAddrReg(idx, uint16(result))
	d.Overflow = result < 0 || result > 65535
}
