// Package image defines the closed enumeration of opcodes, operand shapes
// and the tape file container that the assembler (internal/asm), executor
// (internal/exec) and decompiler (internal/disasm) all share as a single
// source of truth, so the three never drift apart on what a byte means.
package image

import "fmt"

// Opcode is one opaque byte in the ops stream. Bytes are dense but not
// required contiguous; many mnemonics admit more than one operand shape and
// each shape gets its own Opcode.
type Opcode byte

// OperandKind tags the wire shape of one operand following an Opcode.
type OperandKind byte

const (
	// KindDataReg is 1 byte: ACC=0, D0=1, D1=2, D2=3, D3=4.
	KindDataReg OperandKind = iota
	// KindAddrReg is 1 byte: A0=0, A1=1.
	KindAddrReg
	// KindNum is a raw 1 byte literal.
	KindNum
	// KindAddr is a 2 byte big-endian absolute address: an ops offset for
	// jumps and calls, a memory address for MEMR/MEMW and CPY a_reg addr.
	KindAddr
	// KindStringId is a 2 byte big-endian offset into the strings region.
	KindStringId
	// KindDataId is a 2 byte big-endian offset into the data region.
	KindDataId
)

// Size returns the wire size in bytes of one operand of this kind.
func (k OperandKind) Size() int {
	switch k {
	case KindDataReg, KindAddrReg, KindNum:
		return 1
	case KindAddr, KindStringId, KindDataId:
		return 2
	default:
		panic(fmt.Sprintf("image: unknown operand kind %d", byte(k)))
	}
}

// Spec describes one opcode: its mnemonic (shared across shapes), the
// operand kinds it expects in order, and a shape tag distinguishing it from
// sibling opcodes sharing the same mnemonic.
type Spec struct {
	Mnemonic string
	Opcode   Opcode
	Operands []OperandKind
}

// OperandBytes is the number of bytes following the opcode byte for this
// instruction.
func (s Spec) OperandBytes() int {
	n := 0
	for _, k := range s.Operands {
		n += k.Size()
	}
	return n
}

// Data register indices, as encoded on the wire.
const (
	RegACC byte = iota
	RegD0
	RegD1
	RegD2
	RegD3
)

// Address register indices, as encoded on the wire.
const (
	RegA0 byte = iota
	RegA1
)

// Opcode byte assignments. Grouped by family; values are dense but not
// contiguous, with gaps left for readability rather than future growth
// (no opcode is reserved speculatively).
const (
	OpNop Opcode = 0x00

	OpAddRegReg    Opcode = 0x01
	OpAddRegNum    Opcode = 0x02
	OpAddRegAReg   Opcode = 0x03
	OpSubRegReg    Opcode = 0x04
	OpSubRegNum    Opcode = 0x05
	OpSubRegAReg   Opcode = 0x06
	OpIncReg       Opcode = 0x07
	OpIncAReg      Opcode = 0x08
	OpDecReg       Opcode = 0x09
	OpDecAReg      Opcode = 0x0A

	OpAndRegReg  Opcode = 0x10
	OpAndRegNum  Opcode = 0x11
	OpAndRegAReg Opcode = 0x12
	OpOrRegReg   Opcode = 0x13
	OpOrRegNum   Opcode = 0x14
	OpOrRegAReg  Opcode = 0x15
	OpXorRegReg  Opcode = 0x16
	OpXorRegNum  Opcode = 0x17
	OpXorRegAReg Opcode = 0x18
	OpNotReg     Opcode = 0x19

	OpCpyRegReg     Opcode = 0x20
	OpCpyRegNum     Opcode = 0x21
	OpCpyRegAReg    Opcode = 0x22
	OpCpyARegAReg   Opcode = 0x23
	OpCpyARegAddr   Opcode = 0x24
	OpCpyARegJoin   Opcode = 0x25 // CPY a_reg d_hi d_lo
	OpCpyARegSplit  Opcode = 0x26 // CPY d_hi d_lo a_reg
	OpSwpRegReg     Opcode = 0x27
	OpSwpARegAReg   Opcode = 0x28
	OpMemr          Opcode = 0x29
	OpMemw          Opcode = 0x2A
	OpMemc          Opcode = 0x2B
	OpLd            Opcode = 0x2C
	OpLen           Opcode = 0x2D

	OpCmpRegReg  Opcode = 0x30
	OpCmpRegNum  Opcode = 0x31
	OpCmpRegAReg Opcode = 0x32

	OpJmpAddr  Opcode = 0x40
	OpJmpAReg  Opcode = 0x41
	OpJe       Opcode = 0x42
	OpJne      Opcode = 0x43
	OpJl       Opcode = 0x44
	OpJg       Opcode = 0x45
	OpOver     Opcode = 0x46
	OpNover    Opcode = 0x47
	OpCallAddr Opcode = 0x48
	OpCallAReg Opcode = 0x49
	OpRet      Opcode = 0x4A

	OpPushReg  Opcode = 0x50
	OpPushNum  Opcode = 0x51
	OpPushAReg Opcode = 0x52
	OpPopReg   Opcode = 0x53
	OpPopAReg  Opcode = 0x54
	OpArgReg   Opcode = 0x55
	OpArgAReg  Opcode = 0x56

	OpPrtReg   Opcode = 0x60
	OpPrtNum   Opcode = 0x61
	OpPrtcReg  Opcode = 0x62
	OpPrtcNum  Opcode = 0x63
	OpPrts     Opcode = 0x64
	OpPrtln    Opcode = 0x65
	OpPrtd     Opcode = 0x66
	OpMemp     Opcode = 0x67
	OpDebug    Opcode = 0x68

	OpFopen Opcode = 0x70
	OpFiler Opcode = 0x71
	OpFilewAReg Opcode = 0x72
	OpFilewReg  Opcode = 0x73
	OpFilewNum  Opcode = 0x74
	OpFskip Opcode = 0x75
	OpFseek Opcode = 0x76
	OpFchk  Opcode = 0x77

	OpIpoll Opcode = 0x80
	OpRchr  Opcode = 0x81
	OpRstr  Opcode = 0x82

	OpRand Opcode = 0x90
	OpSeed Opcode = 0x91
	OpTime Opcode = 0x92

	OpHalt Opcode = 0xFF
)

// Table is the ordered, closed enumeration of every opcode, used by the
// assembler to pick a shape, the executor to decode and the decompiler to
// re-render a listing. Order within a mnemonic group matters only for
// readability; lookups are by Opcode or by (mnemonic, arity/kind) match.
var Table = []Spec{
	{"NOP", OpNop, nil},

	{"ADD", OpAddRegReg, []OperandKind{KindDataReg, KindDataReg}},
	{"ADD", OpAddRegNum, []OperandKind{KindDataReg, KindNum}},
	{"ADD", OpAddRegAReg, []OperandKind{KindDataReg, KindAddrReg}},
	{"SUB", OpSubRegReg, []OperandKind{KindDataReg, KindDataReg}},
	{"SUB", OpSubRegNum, []OperandKind{KindDataReg, KindNum}},
	{"SUB", OpSubRegAReg, []OperandKind{KindDataReg, KindAddrReg}},
	{"INC", OpIncReg, []OperandKind{KindDataReg}},
	{"INC", OpIncAReg, []OperandKind{KindAddrReg}},
	{"DEC", OpDecReg, []OperandKind{KindDataReg}},
	{"DEC", OpDecAReg, []OperandKind{KindAddrReg}},

	{"AND", OpAndRegReg, []OperandKind{KindDataReg, KindDataReg}},
	{"AND", OpAndRegNum, []OperandKind{KindDataReg, KindNum}},
	{"AND", OpAndRegAReg, []OperandKind{KindDataReg, KindAddrReg}},
	{"OR", OpOrRegReg, []OperandKind{KindDataReg, KindDataReg}},
	{"OR", OpOrRegNum, []OperandKind{KindDataReg, KindNum}},
	{"OR", OpOrRegAReg, []OperandKind{KindDataReg, KindAddrReg}},
	{"XOR", OpXorRegReg, []OperandKind{KindDataReg, KindDataReg}},
	{"XOR", OpXorRegNum, []OperandKind{KindDataReg, KindNum}},
	{"XOR", OpXorRegAReg, []OperandKind{KindDataReg, KindAddrReg}},
	{"NOT", OpNotReg, []OperandKind{KindDataReg}},

	{"CPY", OpCpyRegReg, []OperandKind{KindDataReg, KindDataReg}},
	{"CPY", OpCpyRegNum, []OperandKind{KindDataReg, KindNum}},
	{"CPY", OpCpyRegAReg, []OperandKind{KindDataReg, KindAddrReg}},
	{"CPY", OpCpyARegAReg, []OperandKind{KindAddrReg, KindAddrReg}},
	{"CPY", OpCpyARegAddr, []OperandKind{KindAddrReg, KindAddr}},
	{"CPY", OpCpyARegJoin, []OperandKind{KindAddrReg, KindDataReg, KindDataReg}},
	{"CPY", OpCpyARegSplit, []OperandKind{KindDataReg, KindDataReg, KindAddrReg}},
	{"SWP", OpSwpRegReg, []OperandKind{KindDataReg, KindDataReg}},
	{"SWP", OpSwpARegAReg, []OperandKind{KindAddrReg, KindAddrReg}},
	{"MEMR", OpMemr, []OperandKind{KindAddr}},
	{"MEMW", OpMemw, []OperandKind{KindAddr}},
	{"MEMC", OpMemc, []OperandKind{KindAddrReg, KindAddrReg}},
	{"LD", OpLd, []OperandKind{KindAddrReg, KindDataId, KindNum, KindNum}},
	{"LEN", OpLen, []OperandKind{KindDataId, KindNum}},

	{"CMP", OpCmpRegReg, []OperandKind{KindDataReg, KindDataReg}},
	{"CMP", OpCmpRegNum, []OperandKind{KindDataReg, KindNum}},
	{"CMP", OpCmpRegAReg, []OperandKind{KindDataReg, KindAddrReg}},

	{"JMP", OpJmpAddr, []OperandKind{KindAddr}},
	{"JMP", OpJmpAReg, []OperandKind{KindAddrReg}},
	{"JE", OpJe, []OperandKind{KindAddr}},
	{"JNE", OpJne, []OperandKind{KindAddr}},
	{"JL", OpJl, []OperandKind{KindAddr}},
	{"JG", OpJg, []OperandKind{KindAddr}},
	{"OVER", OpOver, []OperandKind{KindAddr}},
	{"NOVER", OpNover, []OperandKind{KindAddr}},
	{"CALL", OpCallAddr, []OperandKind{KindAddr}},
	{"CALL", OpCallAReg, []OperandKind{KindAddrReg}},
	{"RET", OpRet, nil},

	{"PUSH", OpPushReg, []OperandKind{KindDataReg}},
	{"PUSH", OpPushNum, []OperandKind{KindNum}},
	{"PUSH", OpPushAReg, []OperandKind{KindAddrReg}},
	{"POP", OpPopReg, []OperandKind{KindDataReg}},
	{"POP", OpPopAReg, []OperandKind{KindAddrReg}},
	{"ARG", OpArgReg, []OperandKind{KindDataReg, KindNum}},
	{"ARG", OpArgAReg, []OperandKind{KindAddrReg, KindNum}},

	{"PRT", OpPrtReg, []OperandKind{KindDataReg}},
	{"PRT", OpPrtNum, []OperandKind{KindNum}},
	{"PRTC", OpPrtcReg, []OperandKind{KindDataReg}},
	{"PRTC", OpPrtcNum, []OperandKind{KindNum}},
	{"PRTS", OpPrts, []OperandKind{KindStringId}},
	{"PRTLN", OpPrtln, nil},
	{"PRTD", OpPrtd, []OperandKind{KindAddrReg}},
	{"MEMP", OpMemp, []OperandKind{KindAddrReg}},
	{"DEBUG", OpDebug, nil},

	{"FOPEN", OpFopen, []OperandKind{KindNum}},
	{"FILER", OpFiler, []OperandKind{KindNum, KindAddrReg}},
	{"FILEW", OpFilewAReg, []OperandKind{KindNum, KindAddrReg}},
	{"FILEW", OpFilewReg, []OperandKind{KindNum, KindDataReg}},
	{"FILEW", OpFilewNum, []OperandKind{KindNum, KindNum}},
	{"FSKIP", OpFskip, []OperandKind{KindNum, KindDataReg}},
	{"FSEEK", OpFseek, []OperandKind{KindNum}},
	{"FCHK", OpFchk, []OperandKind{KindNum, KindAddr}},

	{"IPOLL", OpIpoll, []OperandKind{KindAddr}},
	{"RCHR", OpRchr, []OperandKind{KindDataReg}},
	{"RSTR", OpRstr, []OperandKind{KindAddrReg}},

	{"RAND", OpRand, []OperandKind{KindDataReg}},
	{"SEED", OpSeed, []OperandKind{KindDataReg}},
	{"TIME", OpTime, nil},

	{"HALT", OpHalt, nil},
}

var (
	byOpcode    map[Opcode]Spec
	byMnemonic  map[string][]Spec
)

func init() {
	byOpcode = make(map[Opcode]Spec, len(Table))
	byMnemonic = make(map[string][]Spec)
	for _, s := range Table {
		if _, dup := byOpcode[s.Opcode]; dup {
			panic(fmt.Sprintf("image: duplicate opcode 0x%02X", byte(s.Opcode)))
		}
		byOpcode[s.Opcode] = s
		byMnemonic[s.Mnemonic] = append(byMnemonic[s.Mnemonic], s)
	}
}

// Lookup returns the Spec for a decoded opcode byte.
func Lookup(op Opcode) (Spec, bool) {
	s, ok := byOpcode[op]
	return s, ok
}

// Shapes returns every Spec registered under a mnemonic, in table order.
// Mnemonic lookups are case-sensitive here; the assembler upper-cases
// mnemonics before calling in, since source mnemonics are
// case-insensitive.
func Shapes(mnemonic string) []Spec {
	return byMnemonic[mnemonic]
}
