package asm

import (
	"testing"

	"github.com/emmabritton/tape-device/internal/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAssemble(t *testing.T, src string) image.Image {
	t.Helper()
	img, err := Assemble(src)
	require.NoError(t, err)
	return img
}

func assembleErr(t *testing.T, src string) *Error {
	t.Helper()
	_, err := Assemble(src)
	require.Error(t, err)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	return aerr
}

func TestAssembleMinimalProgram(t *testing.T) {
	img := mustAssemble(t, `
test
1.0

.ops
CPY D0 1
CPY D1 2
ADD D0 D1
PRT ACC
HALT
`)
	assert.Equal(t, "test", img.Name)
	assert.Equal(t, "1.0", img.Version)
	assert.Equal(t, []byte{
		byte(image.OpCpyRegNum), image.RegD0, 1,
		byte(image.OpCpyRegNum), image.RegD1, 2,
		byte(image.OpAddRegReg), image.RegD0, image.RegD1,
		byte(image.OpPrtReg), image.RegACC,
		byte(image.OpHalt),
	}, img.Ops)
}

func TestMnemonicsAndRegistersAreCaseInsensitive(t *testing.T) {
	upper := mustAssemble(t, "t\n1\n.ops\nCPY D0 1\nHALT\n")
	lower := mustAssemble(t, "t\n1\n.ops\ncpy d0 1\nhalt\n")
	assert.Equal(t, upper.Ops, lower.Ops)
}

func TestCommasAndSpacesBothSeparateOperands(t *testing.T) {
	a := mustAssemble(t, "t\n1\n.ops\nCPY D0, 1\nHALT\n")
	b := mustAssemble(t, "t\n1\n.ops\nCPY D0 1\nHALT\n")
	assert.Equal(t, a.Ops, b.Ops)
}

func TestNumericLiteralForms(t *testing.T) {
	img := mustAssemble(t, "t\n1\n.ops\nCPY D0 x2A\nCPY D1 b00101010\nCPY D2 'c'\nCPY D3 42\nHALT\n")
	assert.Equal(t, byte(0x2A), img.Ops[2])
	assert.Equal(t, byte(0x2A), img.Ops[5])
	assert.Equal(t, byte('c'), img.Ops[8])
	assert.Equal(t, byte(42), img.Ops[11])
}

func TestLabelForwardReference(t *testing.T) {
	img := mustAssemble(t, `
t
1
.ops
JMP end
NOP
end:
HALT
`)
	// JMP is 3 bytes, NOP 1: the label binds to offset 4.
	assert.Equal(t, []byte{byte(image.OpJmpAddr), 0, 4, byte(image.OpNop), byte(image.OpHalt)}, img.Ops)
}

func TestLabelWithInstructionOnSameLine(t *testing.T) {
	img := mustAssemble(t, "t\n1\n.ops\nstart: NOP\nJMP start\n")
	assert.Equal(t, []byte{byte(image.OpNop), byte(image.OpJmpAddr), 0, 0}, img.Ops)
}

func TestConsecutiveLabelsRejected(t *testing.T) {
	aerr := assembleErr(t, "t\n1\n.ops\na:\nb:\nHALT\n")
	assert.Equal(t, 5, aerr.Line)
	assert.Contains(t, aerr.Msg, "no instruction between")
}

func TestTrailingLabelRejected(t *testing.T) {
	aerr := assembleErr(t, "t\n1\n.ops\nHALT\nend:\n")
	assert.Contains(t, aerr.Msg, "no following instruction")
}

func TestConstSubstitution(t *testing.T) {
	img := mustAssemble(t, `
t
1
.ops
const LIVES 6
CPY D2 LIVES
HALT
`)
	assert.Equal(t, []byte{byte(image.OpCpyRegNum), image.RegD2, 6, byte(image.OpHalt)}, img.Ops)
}

func TestConstMustBeDefinedBeforeUse(t *testing.T) {
	aerr := assembleErr(t, "t\n1\n.ops\nCPY D2 LIVES\nconst LIVES 6\nHALT\n")
	assert.Equal(t, 4, aerr.Line)
	assert.Contains(t, aerr.Msg, "unknown operand")
}

func TestConstCollisions(t *testing.T) {
	assert.Contains(t, assembleErr(t, "t\n1\n.ops\nconst add 1\nHALT\n").Msg, "mnemonic")
	assert.Contains(t, assembleErr(t, "t\n1\n.ops\nconst d0 1\nHALT\n").Msg, "register")
	assert.Contains(t, assembleErr(t, "t\n1\n.ops\nconst end 1\nend:\nHALT\n").Msg, "label")
}

func TestStringsSection(t *testing.T) {
	img := mustAssemble(t, `
t
1
.strings
plain=hello world
quoted="with trailing space "
escaped="say ""hi"" now"

.ops
PRTS plain
HALT
`)
	s, err := image.ReadStringEntry(img.Strings, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)

	s, err = image.ReadStringEntry(img.Strings, uint16(1+len("hello world")))
	require.NoError(t, err)
	assert.Equal(t, "with trailing space ", s)

	s, err = image.ReadStringEntry(img.Strings, uint16(2+len("hello world")+len("with trailing space ")))
	require.NoError(t, err)
	assert.Equal(t, `say "hi" now`, s)
}

func TestStringsCommentNotStrippedInsideQuotes(t *testing.T) {
	img := mustAssemble(t, "t\n1\n.strings\ns=\"a # b\" # real comment\n.ops\nPRTS s\nHALT\n")
	s, err := image.ReadStringEntry(img.Strings, 0)
	require.NoError(t, err)
	assert.Equal(t, "a # b", s)
}

func TestDataSection(t *testing.T) {
	img := mustAssemble(t, `
t
1
.data
mixed=[[1,x0A,b00000011,'x'],["ab"]]

.ops
LEN mixed 0
HALT
`)
	// outerCount, two row lengths, then the rows.
	assert.Equal(t, []byte{2, 4, 2, 1, 0x0A, 3, 'x', 'a', 'b'}, img.Data)
}

func TestLdIndexedOperandForm(t *testing.T) {
	bare := mustAssemble(t, "t\n1\n.data\nd=[[5]]\n.ops\nLD A0 d 1 0\nHALT\n")
	indexed := mustAssemble(t, "t\n1\n.data\nd=[[5]]\n.ops\nLD A0 d[1][0]\nHALT\n")
	assert.Equal(t, bare.Ops, indexed.Ops)
}

func TestMemoryAddressOperand(t *testing.T) {
	img := mustAssemble(t, "t\n1\n.ops\nMEMR @1000\nHALT\n")
	assert.Equal(t, []byte{byte(image.OpMemr), 0x03, 0xE8, byte(image.OpHalt)}, img.Ops)
}

func TestCmparAliasesCmp(t *testing.T) {
	a := mustAssemble(t, "t\n1\n.ops\nCMPAR D0 D1\nHALT\n")
	b := mustAssemble(t, "t\n1\n.ops\nCMP D0 D1\nHALT\n")
	assert.Equal(t, a.Ops, b.Ops)
}

func TestShapeSelectionPerOperandTypes(t *testing.T) {
	img := mustAssemble(t, `
t
1
.ops
PUSH D0
PUSH 9
PUSH A1
HALT
`)
	assert.Equal(t, []byte{
		byte(image.OpPushReg), image.RegD0,
		byte(image.OpPushNum), 9,
		byte(image.OpPushAReg), image.RegA1,
		byte(image.OpHalt),
	}, img.Ops)
}

func TestNoMatchingShapeIsLocatedError(t *testing.T) {
	aerr := assembleErr(t, "t\n1\n.ops\nADD A0 A1\nHALT\n")
	assert.Equal(t, 4, aerr.Line)
	assert.Contains(t, aerr.Msg, "no ADD shape")
}

func TestUnknownMnemonicIsLocatedError(t *testing.T) {
	aerr := assembleErr(t, "t\n1\n.ops\nFROB D0\nHALT\n")
	assert.Equal(t, 4, aerr.Line)
}

func TestMissingHeaderRejected(t *testing.T) {
	aerr := assembleErr(t, ".ops\nHALT\n")
	assert.Contains(t, aerr.Msg, "program name")
}

func TestOversizeNameRejected(t *testing.T) {
	aerr := assembleErr(t, "this program name is far too long to fit\n1\n.ops\nHALT\n")
	assert.Contains(t, aerr.Msg, "exceeds")
}

func TestCharLiteralOperandsSurviveTokenizing(t *testing.T) {
	img := mustAssemble(t, "t\n1\n.ops\nPRTC ' '\nPRTC ','\nPRTC '\\n'\nHALT\n")
	assert.Equal(t, []byte{
		byte(image.OpPrtcNum), ' ',
		byte(image.OpPrtcNum), ',',
		byte(image.OpPrtcNum), '\n',
		byte(image.OpHalt),
	}, img.Ops)
}
