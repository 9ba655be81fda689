// Package exec is the instruction executor (component D): it fetches one
// opcode from a device.Device, decodes its operands per the shared table
// in internal/image, applies the instruction's effect, and advances PC.
// Nothing here owns a loop — internal/runloop and internal/proto call
// Step repeatedly and interpret its Outcome.
package exec

import (
	"github.com/emmabritton/tape-device/internal/device"
	"github.com/emmabritton/tape-device/internal/image"
)

// Outcome reports what one Step call did, so the run loop (direct or
// piped) knows how to proceed.
type Outcome int

const (
	// Continue: the instruction completed normally, PC has advanced.
	Continue Outcome = iota
	// Halted: HALT executed; the program is done.
	Halted
	// Crashed: a RuntimeTrap stopped execution; see the returned error.
	Crashed
	// AwaitingKey: RCHR found no buffered key in non-blocking mode; PC has
	// been rewound so the same instruction retries once a key is injected.
	AwaitingKey
	// AwaitingString: RSTR found no buffered line in non-blocking mode;
	// PC rewound the same way as AwaitingKey.
	AwaitingString
)

// Step fetches, decodes and executes exactly one instruction.
//
// When blocking is true (direct run mode), RCHR/RSTR call through to
// d.Host's blocking reads directly. When false (piped mode), RCHR/RSTR
// consume an already-injected key/string from d.PendingKey/PendingString
// if present, or else suspend by rewinding PC and returning
// AwaitingKey/AwaitingString without touching the host at all — the piped
// protocol (internal/proto) is responsible for injecting the value and
// calling Step again.
func Step(d *device.Device, blocking bool) (Outcome, error) {
	startPC := d.PC

	opByte, err := d.FetchOp()
	if err != nil {
		return Crashed, err
	}

	spec, ok := image.Lookup(image.Opcode(opByte))
	if !ok {
		return Crashed, &device.Trap{Kind: device.TrapBadOpcode, Msg: fmtByte(opByte)}
	}

	operands := make([]uint16, len(spec.Operands))
	for i, kind := range spec.Operands {
		v, err := fetchOperand(d, kind)
		if err != nil {
			return Crashed, err
		}
		operands[i] = v
	}

	in := &instr{d: d, op: spec.Opcode, args: operands, blocking: blocking}
	outcome, err := dispatch(in)
	if outcome == AwaitingKey || outcome == AwaitingString {
		d.PC = startPC
	}
	return outcome, err
}

// instr bundles one decoded instruction with the device it runs against,
// so each family's handler reads like a short contract instead of a long
// parameter list.
type instr struct {
	d        *device.Device
	op       image.Opcode
	args     []uint16
	blocking bool
}

func (in *instr) dataReg(i int) byte      { return in.d.DataReg(byte(in.args[i])) }
func (in *instr) setDataReg(i int, v byte) { in.d.SetDataReg(byte(in.args[i]), v) }
func (in *instr) regIdx(i int) byte       { return byte(in.args[i]) }
func (in *instr) addrReg(i int) uint16    { return in.d.AddrReg(byte(in.args[i])) }
func (in *instr) setAddrReg(i int, v uint16) {
	in.d.SetAddrReg(byte(in.args[i]), v)
}
func (in *instr) num(i int) byte   { return byte(in.args[i]) }
func (in *instr) addr(i int) uint16 { return in.args[i] }

func fetchOperand(d *device.Device, kind image.OperandKind) (uint16, error) {
	if kind.Size() == 1 {
		b, err := d.FetchOp()
		return uint16(b), err
	}
	hi, err := d.FetchOp()
	if err != nil {
		return 0, err
	}
	lo, err := d.FetchOp()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func fmtByte(b byte) string {
	const hex = "0123456789ABCDEF"
	return string([]byte{'0', 'x', hex[b>>4], hex[b&0xF]})
}
