package exec

// cmpResult mirrors the device's ACC-encoded comparison outcome: 0 equal,
// 1 lhs < rhs, 2 lhs > rhs.
func cmpResult(lhs, rhs byte) byte {
	switch {
	case lhs == rhs:
		return 0
	case lhs < rhs:
		return 1
	default:
		return 2
	}
}

func execCmpRegReg(in *instr) (Outcome, error) {
	in.d.ACC = cmpResult(in.dataReg(0), in.dataReg(1))
	return Continue, nil
}

func execCmpRegNum(in *instr) (Outcome, error) {
	in.d.ACC = cmpResult(in.dataReg(0), in.num(1))
	return Continue, nil
}

func execCmpRegAReg(in *instr) (Outcome, error) {
	b, err := dataByteAt(in.d, in.addrReg(1))
	if err != nil {
		return Crashed, err
	}
	in.d.ACC = cmpResult(in.dataReg(0), b)
	return Continue, nil
}

func execJmpAddr(in *instr) (Outcome, error) {
	in.d.PC = in.addr(0)
	return Continue, nil
}

func execJmpAReg(in *instr) (Outcome, error) {
	in.d.PC = in.addrReg(0)
	return Continue, nil
}

func execJe(in *instr) (Outcome, error) {
	if in.d.ACC == 0 {
		in.d.PC = in.addr(0)
	}
	return Continue, nil
}

func execJne(in *instr) (Outcome, error) {
	if in.d.ACC != 0 {
		in.d.PC = in.addr(0)
	}
	return Continue, nil
}

func execJl(in *instr) (Outcome, error) {
	if in.d.ACC == 1 {
		in.d.PC = in.addr(0)
	}
	return Continue, nil
}

func execJg(in *instr) (Outcome, error) {
	if in.d.ACC == 2 {
		in.d.PC = in.addr(0)
	}
	return Continue, nil
}

func execOver(in *instr) (Outcome, error) {
	if in.d.Overflow {
		in.d.PC = in.addr(0)
	}
	return Continue, nil
}

func execNover(in *instr) (Outcome, error) {
	if !in.d.Overflow {
		in.d.PC = in.addr(0)
	}
	return Continue, nil
}

// execCallAddr and execCallAReg push the return address (PC already
// advanced past this instruction's bytes), then set FP <- SP+1 per
// DESIGN.md's resolution of the RET/frame-discipline open question.

func execCallAddr(in *instr) (Outcome, error) {
	return doCall(in, in.addr(0))
}

func execCallAReg(in *instr) (Outcome, error) {
	return doCall(in, in.addrReg(0))
}

// doCall pushes the return address, then sets FP one past it, so ARG's
// positive offsets starting at 1 land on the caller's last-pushed argument
// byte — see DESIGN.md's resolution of the calling convention. Callers
// push arguments in reverse logical order immediately before CALL, so
// ARG n=1 is the first logical argument, n=2 the second, and so on.
func doCall(in *instr, target uint16) (Outcome, error) {
	if err := in.d.PushWord(in.d.PC); err != nil {
		return Crashed, err
	}
	in.d.FP = in.d.SP + 1
	in.d.PC = target
	return Continue, nil
}

func execRet(in *instr) (Outcome, error) {
	pc, err := in.d.PopWord()
	if err != nil {
		return Crashed, err
	}
	in.d.PC = pc
	return Continue, nil
}
