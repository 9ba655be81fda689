package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	img := Image{
		Name:    "hello",
		Version: "1.0",
		Ops:     []byte{byte(OpNop), byte(OpHalt)},
		Strings: []byte{5, 'h', 'e', 'l', 'l', 'o'},
		Data:    []byte{1, 2, 9, 9},
	}

	raw, err := img.Encode()
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestEncodeRejectsOversizeName(t *testing.T) {
	img := Image{Name: "this name is definitely too long for the header"}
	_, err := img.Encode()
	assert.Error(t, err)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0})
	assert.Error(t, err)
}

func TestLookupAndShapes(t *testing.T) {
	spec, ok := Lookup(OpAddRegReg)
	require.True(t, ok)
	assert.Equal(t, "ADD", spec.Mnemonic)
	assert.Equal(t, 2, spec.OperandBytes())

	shapes := Shapes("CPY")
	assert.Len(t, shapes, 7)
}

func TestStringEntryRoundTrip(t *testing.T) {
	var blob []byte
	blob, id, err := AppendStringEntry(blob, "hi")
	require.NoError(t, err)

	got, err := ReadStringEntry(blob, id)
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestDataTableIndexing(t *testing.T) {
	var blob []byte
	blob, id, err := AppendDataTable(blob, DataTable{
		{1, 2, 3},
		{9, 9},
	})
	require.NoError(t, err)

	b, err := IndexByte(blob, id, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(2), b) // outerCount

	b, err = IndexByte(blob, id, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(3), b) // len(row0)

	b, err = IndexByte(blob, id, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, byte(3), b) // row0[2]

	b, err = IndexByte(blob, id, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(9), b) // row1[1]

	_, err = IndexByte(blob, id, 2, 5)
	assert.Error(t, err)

	l, err := RowLen(blob, id, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(2), l)

	l, err = RowLen(blob, id, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(3), l)
}
