package exec

import (
	"strconv"

	"github.com/emmabritton/tape-device/internal/device"
	"github.com/emmabritton/tape-device/internal/image"
)

func writeStdout(in *instr, s string) {
	for i := 0; i < len(s); i++ {
		in.d.Host.StdoutWrite(s[i])
	}
}

func execPrtReg(in *instr) (Outcome, error) {
	writeStdout(in, strconv.Itoa(int(in.dataReg(0))))
	return Continue, nil
}

func execPrtNum(in *instr) (Outcome, error) {
	writeStdout(in, strconv.Itoa(int(in.num(0))))
	return Continue, nil
}

func execPrtcReg(in *instr) (Outcome, error) {
	in.d.Host.StdoutWrite(in.dataReg(0))
	return Continue, nil
}

func execPrtcNum(in *instr) (Outcome, error) {
	in.d.Host.StdoutWrite(in.num(0))
	return Continue, nil
}

func execPrts(in *instr) (Outcome, error) {
	s, err := image.ReadStringEntry(in.d.Img.Strings, in.args[0])
	if err != nil {
		return Crashed, &device.Trap{Kind: device.TrapDataOOB, Msg: err.Error()}
	}
	writeStdout(in, s)
	return Continue, nil
}

func execPrtln(in *instr) (Outcome, error) {
	in.d.Host.StdoutWrite('\n')
	return Continue, nil
}

// execPrtd prints ACC bytes as characters starting at data[a_reg].
func execPrtd(in *instr) (Outcome, error) {
	start := in.addrReg(0)
	for i := 0; i < int(in.d.ACC); i++ {
		b, err := dataByteAt(in.d, start+uint16(i))
		if err != nil {
			return Crashed, err
		}
		in.d.Host.StdoutWrite(b)
	}
	return Continue, nil
}

// execMemp is PRTD's memory-backed sibling: ACC bytes from mem[a_reg].
func execMemp(in *instr) (Outcome, error) {
	start := in.addrReg(0)
	for i := 0; i < int(in.d.ACC); i++ {
		b, err := in.d.ReadByte(start + uint16(i))
		if err != nil {
			return Crashed, err
		}
		in.d.Host.StdoutWrite(b)
	}
	return Continue, nil
}

// execDebug emits the register dump to stderr in the same format as a
// crash dump, without stopping the program.
func execDebug(in *instr) (Outcome, error) {
	text := in.d.DumpText()
	for i := 0; i < len(text); i++ {
		in.d.Host.StderrWrite(text[i])
	}
	in.d.Host.StderrWrite('\n')
	return Continue, nil
}
