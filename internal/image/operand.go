package image

import "encoding/binary"

// PutOperand encodes one operand value into dst per its kind, returning the
// number of bytes written. dst must have at least kind.Size() bytes.
func PutOperand(dst []byte, kind OperandKind, value uint16) int {
	switch kind.Size() {
	case 1:
		dst[0] = byte(value)
		return 1
	case 2:
		binary.BigEndian.PutUint16(dst, value)
		return 2
	default:
		panic("image: operand size must be 1 or 2")
	}
}

// ReadOperand decodes one operand value from src per its kind.
func ReadOperand(src []byte, kind OperandKind) uint16 {
	switch kind.Size() {
	case 1:
		return uint16(src[0])
	case 2:
		return binary.BigEndian.Uint16(src)
	default:
		panic("image: operand size must be 1 or 2")
	}
}

// DataRegName and AddrRegName render register indices the way source and
// listings spell them, for the decompiler's output.
func DataRegName(idx byte) string {
	switch idx {
	case RegACC:
		return "ACC"
	case RegD0:
		return "D0"
	case RegD1:
		return "D1"
	case RegD2:
		return "D2"
	case RegD3:
		return "D3"
	default:
		return "?"
	}
}

func AddrRegName(idx byte) string {
	switch idx {
	case RegA0:
		return "A0"
	case RegA1:
		return "A1"
	default:
		return "?"
	}
}
