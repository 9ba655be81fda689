package exec

import (
	"github.com/emmabritton/tape-device/internal/device"
)

func execIpoll(in *instr) (Outcome, error) {
	var ready bool
	if in.blocking {
		ready = in.d.Host.KbReady()
	} else {
		ready = in.d.HasPendingKey
	}
	if ready {
		in.d.PC = in.addr(0)
	}
	return Continue, nil
}

func execRchr(in *instr) (Outcome, error) {
	if !in.blocking {
		if !in.d.HasPendingKey {
			return AwaitingKey, nil
		}
		in.setDataReg(0, in.d.PendingKey)
		in.d.HasPendingKey = false
		return Continue, nil
	}
	b, err := in.d.Host.KbReadBlocking()
	if err != nil {
		return Crashed, &device.Trap{Kind: device.TrapIO, Msg: err.Error()}
	}
	in.setDataReg(0, b)
	return Continue, nil
}

const maxLineLen = 255

// execRstr reads a line into memory starting at the address register's
// value, stopping on return or at 255 bytes, with ACC left holding the
// length. Backspace and delete drop the last buffered byte; other control
// bytes are ignored.
func execRstr(in *instr) (Outcome, error) {
	var line []byte
	if !in.blocking {
		if !in.d.HasPendingString {
			return AwaitingString, nil
		}
		line = in.d.PendingString
		if len(line) > maxLineLen {
			line = line[:maxLineLen]
		}
		in.d.PendingString = nil
		in.d.HasPendingString = false
	} else {
		var err error
		line, err = readLineBlocking(in.d)
		if err != nil {
			return Crashed, &device.Trap{Kind: device.TrapIO, Msg: err.Error()}
		}
	}

	addr := in.addrReg(0)
	for i, b := range line {
		if err := in.d.WriteByte(addr+uint16(i), b); err != nil {
			return Crashed, err
		}
	}
	in.d.ACC = byte(len(line))
	return Continue, nil
}

func readLineBlocking(d *device.Device) ([]byte, error) {
	var line []byte
	for len(line) < maxLineLen {
		b, err := d.Host.KbReadBlocking()
		if err != nil {
			return nil, err
		}
		switch {
		case b == '\n' || b == '\r':
			return line, nil
		case b == 0x08 || b == 0x7F: // backspace, delete
			if len(line) > 0 {
				line = line[:len(line)-1]
			}
		case b == '\t' || (b >= 0x20 && b < 0x7F):
			line = append(line, b)
		}
		// Escape and other control bytes are dropped.
	}
	return line, nil
}

func execRand(in *instr) (Outcome, error) {
	in.setDataReg(0, in.d.Host.Rand())
	return Continue, nil
}

func execSeed(in *instr) (Outcome, error) {
	in.d.Host.Seed(in.dataReg(0))
	return Continue, nil
}

func execTime(in *instr) (Outcome, error) {
	sec, min, hour := in.d.Host.Clock()
	in.d.D[0] = sec
	in.d.D[1] = min
	in.d.D[2] = hour
	return Continue, nil
}
