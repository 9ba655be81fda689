package device

import (
	"encoding/json"
	"fmt"
)

// dumpJSON mirrors the piped protocol's `d` frame payload: every register
// and the overflow flag, under stable lowercase keys external drivers can
// rely on.
type dumpJSON struct {
	PC       uint16 `json:"pc"`
	A0       uint16 `json:"a0"`
	A1       uint16 `json:"a1"`
	SP       uint16 `json:"sp"`
	FP       uint16 `json:"fp"`
	ACC      byte   `json:"acc"`
	D0       byte   `json:"d0"`
	D1       byte   `json:"d1"`
	D2       byte   `json:"d2"`
	D3       byte   `json:"d3"`
	Overflow bool   `json:"overflow"`
}

// DumpJSON renders the register snapshot as the JSON object the piped
// protocol sends in a `d` frame.
func (d *Device) DumpJSON() []byte {
	out, err := json.Marshal(dumpJSON{
		PC: d.PC, A0: d.A[0], A1: d.A[1], SP: d.SP, FP: d.FP,
		ACC: d.ACC, D0: d.D[0], D1: d.D[1], D2: d.D[2], D3: d.D[3],
		Overflow: d.Overflow,
	})
	if err != nil {
		// Marshalling a struct of integers and a bool cannot fail.
		panic(err)
	}
	return out
}

// DumpBinary is the wire-compact 16-byte register snapshot:
// PC, A0, A1, SP, FP as big-endian words, then ACC, D0..D3 and the
// overflow flag as single bytes.
func (d *Device) DumpBinary() [16]byte {
	var out [16]byte
	words := []uint16{d.PC, d.A[0], d.A[1], d.SP, d.FP}
	for i, w := range words {
		out[i*2] = byte(w >> 8)
		out[i*2+1] = byte(w)
	}
	out[10] = d.ACC
	out[11] = d.D[0]
	out[12] = d.D[1]
	out[13] = d.D[2]
	out[14] = d.D[3]
	if d.Overflow {
		out[15] = 1
	}
	return out
}

// DumpText renders the binary dump the way crash output and DEBUG print
// it: five hex words then six hex bytes, space separated. A fresh device
// renders as `0000 0000 0000 FFFF FFFF 00 00 00 00 00 00`.
func (d *Device) DumpText() string {
	b := d.DumpBinary()
	return fmt.Sprintf("%02X%02X %02X%02X %02X%02X %02X%02X %02X%02X %02X %02X %02X %02X %02X %02X",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8], b[9],
		b[10], b[11], b[12], b[13], b[14], b[15])
}
