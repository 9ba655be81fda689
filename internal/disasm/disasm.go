// Package disasm recovers a textual listing from an assembled image: the
// inverse of internal/asm, driven by the same opcode table. Labels are
// re-synthesized for every jump and call target; string and data entries
// get generated names in blob order.
package disasm

import (
	"fmt"
	"strings"

	"github.com/emmabritton/tape-device/internal/image"
)

// branchTarget reports whether operand i of an opcode is an ops offset
// (so the listing renders it as a label) rather than a memory address.
func branchTarget(op image.Opcode, i int) bool {
	switch op {
	case image.OpJmpAddr, image.OpJe, image.OpJne, image.OpJl, image.OpJg,
		image.OpOver, image.OpNover, image.OpCallAddr, image.OpIpoll:
		return i == 0
	case image.OpFchk:
		return i == 1
	default:
		return false
	}
}

// Decompile renders a complete source listing that reassembles to an
// equivalent image: header, strings, data, then the ops with labels.
func Decompile(img image.Image) (string, error) {
	var out strings.Builder

	name := img.Name
	if name == "" {
		name = "decompiled"
	}
	version := img.Version
	if version == "" {
		version = "0"
	}
	fmt.Fprintf(&out, "%s\n%s\n", name, version)

	stringNames, err := writeStrings(&out, img.Strings)
	if err != nil {
		return "", err
	}
	dataNames, err := writeData(&out, img.Data)
	if err != nil {
		return "", err
	}
	if err := writeOps(&out, img, stringNames, dataNames); err != nil {
		return "", err
	}
	return out.String(), nil
}

// writeStrings walks the length-prefixed entries in blob order, naming
// them s0, s1, ... and returning the offset-to-name map for operands.
func writeStrings(out *strings.Builder, blob []byte) (map[uint16]string, error) {
	names := make(map[uint16]string)
	if len(blob) == 0 {
		return names, nil
	}
	out.WriteString("\n.strings\n")
	for off, i := 0, 0; off < len(blob); i++ {
		s, err := image.ReadStringEntry(blob, uint16(off))
		if err != nil {
			return nil, fmt.Errorf("disasm: strings blob at offset %d: %w", off, err)
		}
		name := fmt.Sprintf("s%d", i)
		names[uint16(off)] = name
		fmt.Fprintf(out, "%s=\"%s\"\n", name, strings.ReplaceAll(s, `"`, `""`))
		off += 1 + len(s)
	}
	return names, nil
}

// writeData walks the packed tables in blob order, naming them data0,
// data1, ... (a bare d0..d3 would reassemble as a data register).
func writeData(out *strings.Builder, blob []byte) (map[uint16]string, error) {
	names := make(map[uint16]string)
	if len(blob) == 0 {
		return names, nil
	}
	out.WriteString("\n.data\n")
	for off, i := 0, 0; off < len(blob); i++ {
		name := fmt.Sprintf("data%d", i)
		names[uint16(off)] = name

		outerCount := int(blob[off])
		lenTable := off + 1
		if lenTable+outerCount > len(blob) {
			return nil, fmt.Errorf("disasm: data blob at offset %d: truncated table header", off)
		}
		var rows []string
		cursor := lenTable + outerCount
		for r := 0; r < outerCount; r++ {
			rowLen := int(blob[lenTable+r])
			if cursor+rowLen > len(blob) {
				return nil, fmt.Errorf("disasm: data blob at offset %d: truncated row %d", off, r)
			}
			cells := make([]string, rowLen)
			for c := 0; c < rowLen; c++ {
				cells[c] = fmt.Sprintf("%d", blob[cursor+c])
			}
			rows = append(rows, "["+strings.Join(cells, ",")+"]")
			cursor += rowLen
		}
		fmt.Fprintf(out, "%s=[%s]\n", name, strings.Join(rows, ","))
		off = cursor
	}
	return names, nil
}

func writeOps(out *strings.Builder, img image.Image, stringNames, dataNames map[uint16]string) error {
	if len(img.Ops) == 0 {
		return nil
	}
	out.WriteString("\n.ops\n")

	targets, err := scanTargets(img.Ops)
	if err != nil {
		return err
	}

	emitted := make(map[uint16]bool)
	for pc := 0; pc < len(img.Ops); {
		if targets[uint16(pc)] {
			fmt.Fprintf(out, "l_%d:\n", pc)
			emitted[uint16(pc)] = true
		}
		line, next, err := Instruction(img, pc, stringNames, dataNames)
		if err != nil {
			return err
		}
		out.WriteString(line)
		out.WriteByte('\n')
		pc = next
	}
	for t := range targets {
		if !emitted[t] {
			return fmt.Errorf("disasm: branch target %d is not an instruction boundary", t)
		}
	}
	return nil
}

// scanTargets decodes the whole stream once to collect every branch and
// call target, so the emit pass knows where labels belong.
func scanTargets(ops []byte) (map[uint16]bool, error) {
	targets := make(map[uint16]bool)
	for pc := 0; pc < len(ops); {
		spec, operands, next, err := decodeAt(ops, pc)
		if err != nil {
			return nil, err
		}
		for i := range spec.Operands {
			if branchTarget(spec.Opcode, i) {
				targets[operands[i]] = true
			}
		}
		pc = next
	}
	return targets, nil
}

func decodeAt(ops []byte, pc int) (image.Spec, []uint16, int, error) {
	spec, ok := image.Lookup(image.Opcode(ops[pc]))
	if !ok {
		return image.Spec{}, nil, 0, fmt.Errorf("disasm: bad opcode 0x%02X at offset %d", ops[pc], pc)
	}
	end := pc + 1 + spec.OperandBytes()
	if end > len(ops) {
		return image.Spec{}, nil, 0, fmt.Errorf("disasm: truncated %s at offset %d", spec.Mnemonic, pc)
	}
	operands := make([]uint16, len(spec.Operands))
	cursor := pc + 1
	for i, kind := range spec.Operands {
		operands[i] = image.ReadOperand(ops[cursor:], kind)
		cursor += kind.Size()
	}
	return spec, operands, end, nil
}

// Instruction renders the single instruction at ops offset pc and returns
// the listing line plus the offset of the next instruction. The name maps
// may be nil, in which case string/data ids render as raw offsets.
func Instruction(img image.Image, pc int, stringNames, dataNames map[uint16]string) (string, int, error) {
	spec, operands, next, err := decodeAt(img.Ops, pc)
	if err != nil {
		return "", 0, err
	}

	parts := []string{spec.Mnemonic}
	for i, kind := range spec.Operands {
		v := operands[i]
		switch {
		case kind == image.KindDataReg:
			parts = append(parts, image.DataRegName(byte(v)))
		case kind == image.KindAddrReg:
			parts = append(parts, image.AddrRegName(byte(v)))
		case kind == image.KindNum:
			parts = append(parts, fmt.Sprintf("%d", v))
		case kind == image.KindStringId:
			if stringNames == nil {
				parts = append(parts, fmt.Sprintf("%d", v))
			} else if name, ok := stringNames[v]; ok {
				parts = append(parts, name)
			} else {
				return "", 0, fmt.Errorf("disasm: %s at offset %d references string id %d, which starts no entry", spec.Mnemonic, pc, v)
			}
		case kind == image.KindDataId:
			if dataNames == nil {
				parts = append(parts, fmt.Sprintf("%d", v))
			} else if name, ok := dataNames[v]; ok {
				parts = append(parts, name)
			} else {
				return "", 0, fmt.Errorf("disasm: %s at offset %d references data id %d, which starts no table", spec.Mnemonic, pc, v)
			}
		case branchTarget(spec.Opcode, i):
			parts = append(parts, fmt.Sprintf("l_%d", v))
		default:
			parts = append(parts, fmt.Sprintf("@%d", v))
		}
	}
	return strings.Join(parts, " "), next, nil
}
