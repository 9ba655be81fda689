package proto

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/emmabritton/tape-device/internal/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nullHost backs the session's non-wire concerns; piped tests never reach
// files, the clock or the keyboard (keys arrive as protocol frames).
type nullHost struct{}

func (nullHost) StdoutWrite(byte)                  {}
func (nullHost) StderrWrite(byte)                  {}
func (nullHost) KbReady() bool                     { return false }
func (nullHost) KbReadBlocking() (byte, error)     { return 0, nil }
func (nullHost) FileOpen(int) error                { return nil }
func (nullHost) FileAvailable(int) bool            { return false }
func (nullHost) FileSize(int) (uint32, error)      { return 0, nil }
func (nullHost) FileRead(int, int) ([]byte, error) { return nil, nil }
func (nullHost) FileWrite(int, []byte) (int, error) {
	return 0, nil
}
func (nullHost) FileSkip(int, int) (int, error) { return 0, nil }
func (nullHost) FileSeek(int, uint32) error     { return nil }
func (nullHost) Clock() (byte, byte, byte)      { return 0, 0, 0 }
func (nullHost) Rand() byte                     { return 0 }
func (nullHost) Seed(byte)                      {}

// drive runs one session over a scripted command stream and returns every
// reply byte the device wrote.
func drive(t *testing.T, img image.Image, commands []byte) ([]byte, *Session) {
	t.Helper()
	var replies bytes.Buffer
	s := NewSession(img, nullHost{}, bytes.NewReader(commands), &replies)
	require.NoError(t, s.Run())
	return replies.Bytes(), s
}

func ops(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func TestStepThenDumpReportsAdvancedPC(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpNop), byte(image.OpHalt)}}
	replies, _ := drive(t, img, []byte{'e', 'd'})

	// The NOP step produces no frames; the dump frame follows directly.
	require.Greater(t, len(replies), 2)
	assert.Equal(t, byte('d'), replies[0])
	n := int(replies[1])
	var dump map[string]any
	require.NoError(t, json.Unmarshal(replies[2:2+n], &dump))
	assert.Equal(t, float64(1), dump["pc"])
	assert.Equal(t, float64(0xFFFF), dump["sp"])
	assert.Equal(t, false, dump["overflow"])
}

func TestBreakpointHoldsStep(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpNop), byte(image.OpHalt)}}
	// Step to pc=1, set breakpoint at 1, step again: held, pc unchanged.
	replies, s := drive(t, img, []byte{'e', 'b', 0, 1, 'e'})
	assert.Equal(t, []byte{'h', 0, 1}, replies)
	assert.Equal(t, uint16(1), s.Device().PC)
}

func TestStepForceIgnoresBreakpoint(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpNop), byte(image.OpHalt)}}
	replies, s := drive(t, img, []byte{'b', 0, 0, 'f'})
	assert.Empty(t, replies)
	assert.Equal(t, uint16(1), s.Device().PC)
}

func TestClearBreakpointIsIdempotent(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpNop), byte(image.OpHalt)}}
	replies, s := drive(t, img, []byte{'b', 0, 0, 'c', 0, 0, 'c', 0, 0, 'e'})
	assert.Empty(t, replies)
	assert.Equal(t, uint16(1), s.Device().PC)
}

func TestHaltEmitsFinishedAndStays(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpHalt)}}
	replies, _ := drive(t, img, []byte{'e', 'e'})
	assert.Equal(t, []byte{'f', 'f'}, replies)
}

func TestCrashEmitsCrashedFrame(t *testing.T) {
	img := image.Image{Ops: []byte{0xEE}}
	replies, _ := drive(t, img, []byte{'e'})
	assert.Equal(t, []byte{'c'}, replies)
}

func TestStdoutArrivesAsOutputFrames(t *testing.T) {
	img := image.Image{Ops: ops(
		[]byte{byte(image.OpPrtcNum), 'h'},
		[]byte{byte(image.OpPrtcNum), 'i'},
		[]byte{byte(image.OpHalt)},
	)}
	replies, _ := drive(t, img, []byte{'e', 'e', 'e'})
	assert.Equal(t, []byte{'o', 1, 'h', 'o', 1, 'i', 'f'}, replies)
}

func TestAwaitingKeyRoundTrip(t *testing.T) {
	img := image.Image{Ops: ops(
		[]byte{byte(image.OpRchr), image.RegD0},
		[]byte{byte(image.OpPrtcReg), image.RegD0},
		[]byte{byte(image.OpHalt)},
	)}
	// Step suspends on RCHR; the key frame resumes the paused instruction.
	replies, s := drive(t, img, []byte{'e', 'k', 'q', 'e', 'e'})
	assert.Equal(t, []byte{'k', 'o', 1, 'q', 'f'}, replies)
	assert.Equal(t, byte('q'), s.Device().D[0])
}

func TestKeySentEarlyBuffersForLaterRchr(t *testing.T) {
	img := image.Image{Ops: ops(
		[]byte{byte(image.OpRchr), image.RegD0},
		[]byte{byte(image.OpHalt)},
	)}
	replies, s := drive(t, img, []byte{'k', 'z', 'e', 'e'})
	assert.Equal(t, []byte{'f'}, replies)
	assert.Equal(t, byte('z'), s.Device().D[0])
}

func TestAwaitingStringRoundTrip(t *testing.T) {
	img := image.Image{Ops: ops(
		[]byte{byte(image.OpCpyARegAddr), image.RegA0, 0x01, 0x00},
		[]byte{byte(image.OpRstr), image.RegA0},
		[]byte{byte(image.OpHalt)},
	)}
	commands := append([]byte{'e', 'e'}, append([]byte{'t', 3}, []byte("abc")...)...)
	commands = append(commands, 'e')
	replies, s := drive(t, img, commands)
	assert.Equal(t, []byte{'t', 'f'}, replies)
	assert.Equal(t, byte(3), s.Device().ACC)
	assert.Equal(t, byte('a'), s.Device().Mem[0x0100])
	assert.Equal(t, byte('c'), s.Device().Mem[0x0102])
}

func TestMemoryRequestReturnsRange(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpHalt)}}
	var replies bytes.Buffer
	s := NewSession(img, nullHost{}, bytes.NewReader([]byte{'m', 0, 10, 0, 13}), &replies)
	s.Device().Mem[10] = 1
	s.Device().Mem[11] = 2
	s.Device().Mem[12] = 3
	s.Device().Mem[13] = 4
	require.NoError(t, s.Run())
	assert.Equal(t, []byte{'m', 0, 4, 1, 2, 3, 4}, replies.Bytes())
}

func TestLargeMemoryRequestIsChunked(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpHalt)}}
	replies, _ := drive(t, img, []byte{'m', 0, 0, 0x01, 0x2B}) // 300 bytes
	// First frame: 255 bytes; second: 45.
	require.Equal(t, 3+255+3+45, len(replies))
	assert.Equal(t, byte('m'), replies[0])
	assert.Equal(t, 255, int(replies[1])<<8|int(replies[2]))
	second := replies[3+255:]
	assert.Equal(t, byte('m'), second[0])
	assert.Equal(t, 45, int(second[1])<<8|int(second[2]))
}

func TestInvertedMemoryRangeIsProtocolError(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpHalt)}}
	var replies bytes.Buffer
	s := NewSession(img, nullHost{}, bytes.NewReader([]byte{'m', 0, 9, 0, 1}), &replies)
	err := s.Run()
	require.Error(t, err)
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestUnknownPrefixIsProtocolError(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpHalt)}}
	var replies bytes.Buffer
	s := NewSession(img, nullHost{}, bytes.NewReader([]byte{'z'}), &replies)
	err := s.Run()
	require.Error(t, err)
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestFirstDumpMatchesBootSnapshot(t *testing.T) {
	img := image.Image{Ops: []byte{byte(image.OpNop)}}
	replies, s := drive(t, img, []byte{'d'})
	assert.Equal(t, "0000 0000 0000 FFFF FFFF 00 00 00 00 00 00", s.Device().DumpText())
	n := int(replies[1])
	var dump map[string]any
	require.NoError(t, json.Unmarshal(replies[2:2+n], &dump))
	assert.Equal(t, float64(0), dump["pc"])
}

func TestStepCountMatchesExecutedInstructions(t *testing.T) {
	img := image.Image{Ops: ops(
		[]byte{byte(image.OpNop)},
		[]byte{byte(image.OpNop)},
		[]byte{byte(image.OpHalt)},
	)}
	// Breakpoint at 1: second step reports the hit without executing, the
	// force-step crosses it, the final step halts. Three instructions run,
	// one hit is reported, four step commands were sent.
	replies, _ := drive(t, img, []byte{'b', 0, 1, 'e', 'e', 'f', 'e'})
	assert.Equal(t, []byte{'h', 0, 1, 'f'}, replies)
}
