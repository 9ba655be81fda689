package exec

import (
	"github.com/emmabritton/tape-device/internal/device"
)

// File instructions surface recoverable I/O failures through their normal
// side channel (ACC = 0 bytes transferred, FCHK branching false); only
// FOPEN on a missing required file and a failed FSEEK are traps.

func execFopen(in *instr) (Outcome, error) {
	id := int(in.num(0))
	if err := in.d.Host.FileOpen(id); err != nil {
		return Crashed, &device.Trap{Kind: device.TrapIO, Msg: err.Error()}
	}
	size, err := in.d.Host.FileSize(id)
	if err != nil {
		return Crashed, &device.Trap{Kind: device.TrapIO, Msg: err.Error()}
	}
	in.d.D[3] = byte(size >> 24)
	in.d.D[2] = byte(size >> 16)
	in.d.D[1] = byte(size >> 8)
	in.d.D[0] = byte(size)
	return Continue, nil
}

func execFiler(in *instr) (Outcome, error) {
	id := int(in.num(0))
	addr := in.addrReg(1)
	buf, err := in.d.Host.FileRead(id, int(in.d.ACC))
	if err != nil {
		in.d.ACC = 0
		return Continue, nil
	}
	for i, b := range buf {
		if werr := in.d.WriteByte(addr+uint16(i), b); werr != nil {
			return Crashed, werr
		}
	}
	in.d.ACC = byte(len(buf))
	return Continue, nil
}

func execFilewAReg(in *instr) (Outcome, error) {
	id := int(in.num(0))
	addr := in.addrReg(1)
	n := int(in.d.ACC)
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := in.d.ReadByte(addr + uint16(i))
		if err != nil {
			return Crashed, err
		}
		buf[i] = b
	}
	written, err := in.d.Host.FileWrite(id, buf)
	if err != nil {
		in.d.ACC = 0
		return Continue, nil
	}
	in.d.ACC = byte(written)
	return Continue, nil
}

func writeSingleByte(in *instr, id int, b byte) (Outcome, error) {
	written, err := in.d.Host.FileWrite(id, []byte{b})
	if err != nil {
		in.d.ACC = 0
		return Continue, nil
	}
	in.d.ACC = byte(written)
	return Continue, nil
}

func execFilewReg(in *instr) (Outcome, error) {
	return writeSingleByte(in, int(in.num(0)), in.dataReg(1))
}

func execFilewNum(in *instr) (Outcome, error) {
	return writeSingleByte(in, int(in.num(0)), in.num(1))
}

func execFskip(in *instr) (Outcome, error) {
	id := int(in.num(0))
	skipped, err := in.d.Host.FileSkip(id, int(in.dataReg(1)))
	if err != nil {
		in.d.ACC = 0
		return Continue, nil
	}
	in.d.ACC = byte(skipped)
	return Continue, nil
}

// execFseek sets the cursor to the 32-bit position composed from D3 (most
// significant) down to D0.
func execFseek(in *instr) (Outcome, error) {
	id := int(in.num(0))
	pos := uint32(in.d.D[3])<<24 | uint32(in.d.D[2])<<16 | uint32(in.d.D[1])<<8 | uint32(in.d.D[0])
	if err := in.d.Host.FileSeek(id, pos); err != nil {
		return Crashed, &device.Trap{Kind: device.TrapIO, Msg: err.Error()}
	}
	return Continue, nil
}

func execFchk(in *instr) (Outcome, error) {
	if in.d.Host.FileAvailable(int(in.num(0))) {
		in.d.PC = in.addr(1)
	}
	return Continue, nil
}
