package asm

import (
	"strings"

	"github.com/emmabritton/tape-device/internal/image"
)

var dataRegs = map[string]byte{
	"ACC": image.RegACC,
	"D0":  image.RegD0,
	"D1":  image.RegD1,
	"D2":  image.RegD2,
	"D3":  image.RegD3,
}

var addrRegs = map[string]byte{
	"A0": image.RegA0,
	"A1": image.RegA1,
}

// mnemonicAliases fold historical spellings onto the canonical mnemonic;
// CMPAR assembles to the same opcodes as CMP.
var mnemonicAliases = map[string]string{
	"CMPAR": "CMP",
}

// operand is one resolved source operand: the kinds it can encode as, each
// with its wire value. A label reference keeps the name instead, since its
// offset is only known after the sizing pass.
type operand struct {
	tok      string
	kinds    map[image.OperandKind]uint16
	labelRef string
}

// pendingInstr is one instruction that survived shape selection in the
// sizing pass, ready to encode once labels are bound.
type pendingInstr struct {
	line     int
	spec     image.Spec
	operands []operand
}

// opsContext carries the name tables operand classification consults.
type opsContext struct {
	stringIDs map[string]uint16
	dataIDs   map[string]uint16
	labels    map[string]bool
	consts    map[string]string
}

// assembleOps runs the two ops passes: the first resolves shapes (which
// fixes every instruction's byte size, and so every label's offset), the
// second encodes with label offsets filled in.
func assembleOps(lines []srcLine, stringIDs, dataIDs map[string]uint16) ([]byte, error) {
	ctx := &opsContext{
		stringIDs: stringIDs,
		dataIDs:   dataIDs,
		labels:    scanLabelNames(lines),
		consts:    make(map[string]string),
	}

	var pending []pendingInstr
	labelOffsets := make(map[string]uint16)
	offset := 0

	// pendingLabels are labels waiting for their next instruction; more
	// than one at a time means an empty label, which is rejected rather
	// than silently producing a malformed image.
	var pendingLabels []srcLine

	for _, l := range lines {
		tokens, err := splitOpsTokens(l.no, stripComment(l.text, false))
		if err != nil {
			return nil, err
		}
		if len(tokens) == 0 {
			continue
		}

		// Leading label definition, possibly with an instruction after it.
		if strings.HasSuffix(tokens[0], ":") {
			name := tokens[0][:len(tokens[0])-1]
			if !isIdent(name) {
				return nil, errAt(l.no, "bad label name %q", name)
			}
			if _, dup := labelOffsets[name]; dup {
				return nil, errAt(l.no, "label %q already defined", name)
			}
			if len(pendingLabels) > 0 {
				return nil, errAt(l.no, "label %q follows label %q with no instruction between them", name, pendingLabels[0].text)
			}
			labelOffsets[name] = uint16(offset)
			pendingLabels = append(pendingLabels, srcLine{no: l.no, text: name})
			tokens = tokens[1:]
			if len(tokens) == 0 {
				continue
			}
		}

		// const NAME VALUE: a token substitution for later lines.
		if strings.EqualFold(tokens[0], "const") {
			if err := defineConst(ctx, l.no, tokens); err != nil {
				return nil, err
			}
			continue
		}

		inst, err := resolveInstruction(ctx, l.no, tokens)
		if err != nil {
			return nil, err
		}
		pending = append(pending, inst)
		offset += 1 + inst.spec.OperandBytes()
		if offset > 65535 {
			return nil, errAt(l.no, "ops region exceeds 65535 bytes")
		}
		pendingLabels = pendingLabels[:0]
	}

	if len(pendingLabels) > 0 {
		return nil, errAt(pendingLabels[0].no, "label %q has no following instruction", pendingLabels[0].text)
	}

	return encodeOps(pending, labelOffsets)
}

// scanLabelNames pre-collects every label name so operand classification
// can tell a forward label reference from an unknown name.
func scanLabelNames(lines []srcLine) map[string]bool {
	labels := make(map[string]bool)
	for _, l := range lines {
		tokens, err := splitOpsTokens(l.no, stripComment(l.text, false))
		if err != nil || len(tokens) == 0 {
			continue
		}
		if strings.HasSuffix(tokens[0], ":") {
			name := tokens[0][:len(tokens[0])-1]
			if isIdent(name) {
				labels[name] = true
			}
		}
	}
	return labels
}

func defineConst(ctx *opsContext, line int, tokens []string) error {
	if len(tokens) != 3 {
		return errAt(line, "const needs exactly a name and a value")
	}
	name, value := tokens[1], tokens[2]
	if !isIdent(name) {
		return errAt(line, "bad const name %q", name)
	}
	upper := strings.ToUpper(name)
	if len(image.Shapes(upper)) > 0 || mnemonicAliases[upper] != "" {
		return errAt(line, "const %q collides with a mnemonic", name)
	}
	if _, reg := dataRegs[upper]; reg {
		return errAt(line, "const %q collides with a register", name)
	}
	if _, reg := addrRegs[upper]; reg {
		return errAt(line, "const %q collides with a register", name)
	}
	if ctx.labels[name] {
		return errAt(line, "const %q collides with a label", name)
	}
	if _, dup := ctx.consts[name]; dup {
		return errAt(line, "const %q already defined", name)
	}
	ctx.consts[name] = value
	return nil
}

// resolveInstruction classifies each operand token and matches the result
// against every shape the mnemonic admits; exactly one shape must fit.
func resolveInstruction(ctx *opsContext, line int, tokens []string) (pendingInstr, error) {
	mnemonic := strings.ToUpper(tokens[0])
	if canonical, ok := mnemonicAliases[mnemonic]; ok {
		mnemonic = canonical
	}
	shapes := image.Shapes(mnemonic)
	if len(shapes) == 0 {
		return pendingInstr{}, errAt(line, "unknown mnemonic %q", tokens[0])
	}

	var operands []operand
	for _, tok := range tokens[1:] {
		if sub, ok := ctx.consts[tok]; ok {
			tok = sub
		}
		ods, err := classifyOperand(ctx, line, tok)
		if err != nil {
			return pendingInstr{}, err
		}
		operands = append(operands, ods...)
	}

	var matches []image.Spec
	for _, s := range shapes {
		if shapeFits(s, operands) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return pendingInstr{}, errAt(line, "no %s shape accepts operands %q", mnemonic, strings.Join(tokens[1:], " "))
	case 1:
		return pendingInstr{line: line, spec: matches[0], operands: operands}, nil
	default:
		return pendingInstr{}, errAt(line, "operands %q are ambiguous for %s", strings.Join(tokens[1:], " "), mnemonic)
	}
}

func shapeFits(s image.Spec, operands []operand) bool {
	if len(s.Operands) != len(operands) {
		return false
	}
	for i, kind := range s.Operands {
		if _, ok := operands[i].kinds[kind]; !ok {
			return false
		}
	}
	return true
}

// classifyOperand maps one source token to its candidate operand kinds.
// The `name[i][j]` indexing form expands to three operands (the data id
// and the two indices), which is how LD is written in source.
func classifyOperand(ctx *opsContext, line int, tok string) ([]operand, error) {
	upper := strings.ToUpper(tok)
	if idx, ok := dataRegs[upper]; ok {
		return []operand{{tok: tok, kinds: map[image.OperandKind]uint16{image.KindDataReg: uint16(idx)}}}, nil
	}
	if idx, ok := addrRegs[upper]; ok {
		return []operand{{tok: tok, kinds: map[image.OperandKind]uint16{image.KindAddrReg: uint16(idx)}}}, nil
	}

	if strings.HasPrefix(tok, "@") {
		v, ok := parseNum(tok[1:])
		if !ok {
			return nil, errAt(line, "bad memory address %q", tok)
		}
		return []operand{{tok: tok, kinds: map[image.OperandKind]uint16{image.KindAddr: v}}}, nil
	}

	if v, ok := parseNum(tok); ok {
		kinds := map[image.OperandKind]uint16{image.KindAddr: v}
		if v <= 255 {
			kinds[image.KindNum] = v
		}
		return []operand{{tok: tok, kinds: kinds}}, nil
	}

	if bracket := strings.IndexByte(tok, '['); bracket > 0 {
		return classifyIndexed(ctx, line, tok, bracket)
	}

	if ctx.labels[tok] {
		return []operand{{tok: tok, kinds: map[image.OperandKind]uint16{image.KindAddr: 0}, labelRef: tok}}, nil
	}
	if id, ok := ctx.stringIDs[tok]; ok {
		return []operand{{tok: tok, kinds: map[image.OperandKind]uint16{image.KindStringId: id}}}, nil
	}
	if id, ok := ctx.dataIDs[tok]; ok {
		return []operand{{tok: tok, kinds: map[image.OperandKind]uint16{image.KindDataId: id}}}, nil
	}

	return nil, errAt(line, "unknown operand %q", tok)
}

// classifyIndexed expands `name[outer][inner]` into a DataId plus two Num
// operands.
func classifyIndexed(ctx *opsContext, line int, tok string, bracket int) ([]operand, error) {
	name := tok[:bracket]
	id, ok := ctx.dataIDs[name]
	if !ok {
		return nil, errAt(line, "unknown data item %q in %q", name, tok)
	}

	rest := tok[bracket:]
	var indices []uint16
	for len(rest) > 0 {
		if rest[0] != '[' {
			return nil, errAt(line, "bad data index syntax %q", tok)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, errAt(line, "bad data index syntax %q", tok)
		}
		v, numOK := parseNum(rest[1:end])
		if !numOK || v > 255 {
			return nil, errAt(line, "bad data index %q in %q", rest[1:end], tok)
		}
		indices = append(indices, v)
		rest = rest[end+1:]
	}
	if len(indices) != 2 {
		return nil, errAt(line, "data index %q must be name[outer][inner]", tok)
	}

	return []operand{
		{tok: name, kinds: map[image.OperandKind]uint16{image.KindDataId: id}},
		{tok: tok, kinds: map[image.OperandKind]uint16{image.KindNum: indices[0]}},
		{tok: tok, kinds: map[image.OperandKind]uint16{image.KindNum: indices[1]}},
	}, nil
}

func encodeOps(pending []pendingInstr, labelOffsets map[string]uint16) ([]byte, error) {
	var ops []byte
	for _, inst := range pending {
		ops = append(ops, byte(inst.spec.Opcode))
		for i, kind := range inst.spec.Operands {
			od := inst.operands[i]
			v := od.kinds[kind]
			if od.labelRef != "" && kind == image.KindAddr {
				v = labelOffsets[od.labelRef]
			}
			var buf [2]byte
			n := image.PutOperand(buf[:], kind, v)
			ops = append(ops, buf[:n]...)
		}
	}
	return ops, nil
}

// splitOpsTokens splits an ops line on whitespace and commas, keeping
// character literals (which may contain either) intact.
func splitOpsTokens(line int, text string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\'' {
			end := strings.IndexByte(text[i+1:], '\'')
			if end < 0 {
				return nil, errAtCol(line, i+1, "unterminated character literal")
			}
			cur.WriteString(text[i : i+end+2])
			i += end + 1
			continue
		}
		if c == ' ' || c == '\t' || c == ',' {
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return tokens, nil
}
