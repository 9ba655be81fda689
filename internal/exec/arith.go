package exec

import (
	"github.com/emmabritton/tape-device/internal/device"
)

// dataByteAt reads one byte of the data region at an absolute offset held
// in an address register. Out-of-range traps with TrapDataOOB.
func dataByteAt(d *device.Device, addr uint16) (byte, error) {
	if int(addr) >= len(d.Img.Data) {
		return 0, &device.Trap{Kind: device.TrapDataOOB, Msg: "arithmetic a_reg operand"}
	}
	return d.Img.Data[addr], nil
}

// execAdd, execSub and friends only ever write ACC — source registers are
// read-only operands.

func execAddRegReg(in *instr) (Outcome, error) {
	in.d.ApplyArith(int(in.dataReg(0)) + int(in.dataReg(1)))
	return Continue, nil
}

func execAddRegNum(in *instr) (Outcome, error) {
	in.d.ApplyArith(int(in.dataReg(0)) + int(in.num(1)))
	return Continue, nil
}

func execAddRegAReg(in *instr) (Outcome, error) {
	b, err := dataByteAt(in.d, in.addrReg(1))
	if err != nil {
		return Crashed, err
	}
	in.d.ApplyArith(int(in.dataReg(0)) + int(b))
	return Continue, nil
}

func execSubRegReg(in *instr) (Outcome, error) {
	in.d.ApplyArith(int(in.dataReg(0)) - int(in.dataReg(1)))
	return Continue, nil
}

func execSubRegNum(in *instr) (Outcome, error) {
	in.d.ApplyArith(int(in.dataReg(0)) - int(in.num(1)))
	return Continue, nil
}

func execSubRegAReg(in *instr) (Outcome, error) {
	b, err := dataByteAt(in.d, in.addrReg(1))
	if err != nil {
		return Crashed, err
	}
	in.d.ApplyArith(int(in.dataReg(0)) - int(b))
	return Continue, nil
}

// execIncReg and execDecReg update the addressed register itself and
// mirror the truncated result into ACC, so CMP/Jcc chains that follow a
// loop counter's INC can still branch on its result the way the worked
// stack/loop programs need.

func execIncReg(in *instr) (Outcome, error) {
	r := int(in.dataReg(0)) + 1
	in.setDataReg(0, byte(r))
	in.d.ApplyArith(r)
	return Continue, nil
}

func execDecReg(in *instr) (Outcome, error) {
	r := int(in.dataReg(0)) - 1
	in.setDataReg(0, byte(r))
	in.d.ApplyArith(r)
	return Continue, nil
}

func execIncAReg(in *instr) (Outcome, error) {
	r := int(in.addrReg(0)) + 1
	in.d.ApplyAddrArith(in.regIdx(0), r)
	return Continue, nil
}

func execDecAReg(in *instr) (Outcome, error) {
	r := int(in.addrReg(0)) - 1
	in.d.ApplyAddrArith(in.regIdx(0), r)
	return Continue, nil
}
