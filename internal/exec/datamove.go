package exec

import (
	"github.com/emmabritton/tape-device/internal/device"
	"github.com/emmabritton/tape-device/internal/image"
)

func execCpyRegReg(in *instr) (Outcome, error) {
	in.setDataReg(0, in.dataReg(1))
	return Continue, nil
}

func execCpyRegNum(in *instr) (Outcome, error) {
	in.setDataReg(0, in.num(1))
	return Continue, nil
}

func execCpyRegAReg(in *instr) (Outcome, error) {
	b, err := dataByteAt(in.d, in.addrReg(1))
	if err != nil {
		return Crashed, err
	}
	in.setDataReg(0, b)
	return Continue, nil
}

func execCpyARegAReg(in *instr) (Outcome, error) {
	in.setAddrReg(0, in.addrReg(1))
	return Continue, nil
}

func execCpyARegAddr(in *instr) (Outcome, error) {
	in.setAddrReg(0, in.addr(1))
	return Continue, nil
}

// execCpyARegJoin is `CPY a_reg d_hi d_lo`: joins two data registers into
// one address register, high byte first.
func execCpyARegJoin(in *instr) (Outcome, error) {
	v := uint16(in.dataReg(1))<<8 | uint16(in.dataReg(2))
	in.setAddrReg(0, v)
	return Continue, nil
}

// execCpyARegSplit is `CPY d_hi d_lo a_reg`: splits an address register
// into two data registers, high byte first.
func execCpyARegSplit(in *instr) (Outcome, error) {
	v := in.addrReg(2)
	in.setDataReg(0, byte(v>>8))
	in.setDataReg(1, byte(v))
	return Continue, nil
}

func execSwpRegReg(in *instr) (Outcome, error) {
	a, b := in.dataReg(0), in.dataReg(1)
	in.setDataReg(0, b)
	in.setDataReg(1, a)
	return Continue, nil
}

func execSwpARegAReg(in *instr) (Outcome, error) {
	a, b := in.addrReg(0), in.addrReg(1)
	in.setAddrReg(0, b)
	in.setAddrReg(1, a)
	return Continue, nil
}

func execMemr(in *instr) (Outcome, error) {
	b, err := in.d.ReadByte(in.addr(0))
	if err != nil {
		return Crashed, err
	}
	in.d.ACC = b
	return Continue, nil
}

func execMemw(in *instr) (Outcome, error) {
	if err := in.d.WriteByte(in.addr(0), in.d.ACC); err != nil {
		return Crashed, err
	}
	return Continue, nil
}

// execMemc is `MEMC a_src a_dst`: copies ACC bytes from data[a_src] to
// mem[a_dst], both ranges bounds-checked per byte.
func execMemc(in *instr) (Outcome, error) {
	src := in.addrReg(0)
	dst := in.addrReg(1)
	n := int(in.d.ACC)
	for i := 0; i < n; i++ {
		b, err := dataByteAt(in.d, src+uint16(i))
		if err != nil {
			return Crashed, err
		}
		if err := in.d.WriteByte(dst+uint16(i), b); err != nil {
			return Crashed, err
		}
	}
	return Continue, nil
}

func execLd(in *instr) (Outcome, error) {
	dataID := in.args[1]
	outer := int(in.num(2))
	inner := int(in.num(3))
	off, err := image.AbsoluteOffset(in.d.Img.Data, dataID, outer, inner)
	if err != nil {
		return Crashed, &device.Trap{Kind: device.TrapBadLDIndex, Msg: err.Error()}
	}
	in.setAddrReg(0, off)
	return Continue, nil
}

func execLen(in *instr) (Outcome, error) {
	dataID := in.args[0]
	outer := int(in.num(1))
	n, err := image.RowLen(in.d.Img.Data, dataID, outer)
	if err != nil {
		return Crashed, &device.Trap{Kind: device.TrapBadLDIndex, Msg: err.Error()}
	}
	in.d.ACC = n
	return Continue, nil
}
