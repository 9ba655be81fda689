package exec

func execPushReg(in *instr) (Outcome, error) {
	if err := in.d.PushByte(in.dataReg(0)); err != nil {
		return Crashed, err
	}
	return Continue, nil
}

func execPushNum(in *instr) (Outcome, error) {
	if err := in.d.PushByte(in.num(0)); err != nil {
		return Crashed, err
	}
	return Continue, nil
}

func execPushAReg(in *instr) (Outcome, error) {
	if err := in.d.PushWord(in.addrReg(0)); err != nil {
		return Crashed, err
	}
	return Continue, nil
}

func execPopReg(in *instr) (Outcome, error) {
	v, err := in.d.PopByte()
	if err != nil {
		return Crashed, err
	}
	in.setDataReg(0, v)
	return Continue, nil
}

func execPopAReg(in *instr) (Outcome, error) {
	v, err := in.d.PopWord()
	if err != nil {
		return Crashed, err
	}
	in.setAddrReg(0, v)
	return Continue, nil
}

// execArgReg and execArgAReg read from mem[FP+n] upward without touching
// SP or FP. See DESIGN.md for the exact offset convention CALL's FP
// placement establishes.

func execArgReg(in *instr) (Outcome, error) {
	addr := in.d.FP + in.addr(1)
	b, err := in.d.ReadByte(addr)
	if err != nil {
		return Crashed, err
	}
	in.setDataReg(0, b)
	return Continue, nil
}

func execArgAReg(in *instr) (Outcome, error) {
	addr := in.d.FP + in.addr(1)
	lo, err := in.d.ReadByte(addr)
	if err != nil {
		return Crashed, err
	}
	hi, err := in.d.ReadByte(addr + 1)
	if err != nil {
		return Crashed, err
	}
	in.setAddrReg(0, uint16(hi)<<8|uint16(lo))
	return Continue, nil
}
