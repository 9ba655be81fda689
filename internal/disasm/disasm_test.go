package disasm

import (
	"testing"

	"github.com/emmabritton/tape-device/internal/asm"
	"github.com/emmabritton/tape-device/internal/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roundTripSrc = `
rtrip
1.0

.strings
greet=hello

.data
bytes=[[1,2,3],[9]]

.ops
start:
PRTS greet
PRTLN
LEN bytes 0
CMP ACC 2
JE done
JMP start
done:
MEMR @512
HALT
`

// Decompiling an image and reassembling the listing must reproduce the
// regions byte for byte; only names and comments are lost.
func TestRoundTrip(t *testing.T) {
	img, err := asm.Assemble(roundTripSrc)
	require.NoError(t, err)

	listing, err := Decompile(img)
	require.NoError(t, err)

	again, err := asm.Assemble(listing)
	require.NoError(t, err)
	assert.Equal(t, img.Ops, again.Ops)
	assert.Equal(t, img.Strings, again.Strings)
	assert.Equal(t, img.Data, again.Data)
	assert.Equal(t, img.Name, again.Name)
	assert.Equal(t, img.Version, again.Version)
}

func TestLabelsSynthesizedAtBranchTargets(t *testing.T) {
	img, err := asm.Assemble("t\n1\n.ops\nloop: NOP\nJMP loop\n")
	require.NoError(t, err)

	listing, err := Decompile(img)
	require.NoError(t, err)
	assert.Contains(t, listing, "l_0:\n")
	assert.Contains(t, listing, "JMP l_0")
}

func TestMemoryAddressesRenderWithAtSign(t *testing.T) {
	img, err := asm.Assemble("t\n1\n.ops\nMEMR @4096\nMEMW @4096\nHALT\n")
	require.NoError(t, err)

	listing, err := Decompile(img)
	require.NoError(t, err)
	assert.Contains(t, listing, "MEMR @4096")
	assert.Contains(t, listing, "MEMW @4096")
	assert.NotContains(t, listing, "l_4096")
}

func TestQuotesInStringsAreDoubled(t *testing.T) {
	img, err := asm.Assemble("t\n1\n.strings\ns=\"say \"\"hi\"\"\"\n.ops\nPRTS s\nHALT\n")
	require.NoError(t, err)

	listing, err := Decompile(img)
	require.NoError(t, err)
	assert.Contains(t, listing, `s0="say ""hi"""`)

	again, err := asm.Assemble(listing)
	require.NoError(t, err)
	assert.Equal(t, img.Strings, again.Strings)
}

func TestDanglingStringIdRejected(t *testing.T) {
	blob, _, err := image.AppendStringEntry(nil, "hello")
	require.NoError(t, err)
	img := image.Image{
		Name: "t", Version: "1",
		// PRTS pointing into the middle of the entry, not at its start.
		Ops:     []byte{byte(image.OpPrts), 0, 3, byte(image.OpHalt)},
		Strings: blob,
	}
	_, err = Decompile(img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starts no entry")
}

func TestMidInstructionBranchTargetRejected(t *testing.T) {
	// JMP into its own operand bytes.
	img := image.Image{Name: "t", Version: "1", Ops: []byte{byte(image.OpJmpAddr), 0, 1}}
	_, err := Decompile(img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an instruction boundary")
}

func TestInstructionRendersSingleOp(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpCpyRegNum), 1, 42, byte(image.OpHalt)}}
	line, next, err := Instruction(img, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "CPY D0 42", line)
	assert.Equal(t, 3, next)
}
