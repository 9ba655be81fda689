package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReadWriteSkipSeek(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	h := NewOSHost([]string{path})

	size, err := h.FileSize(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(11), size)

	got, err := h.FileRead(0, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	skipped, err := h.FileSkip(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	got, err = h.FileRead(0, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), got)

	require.NoError(t, h.FileSeek(0, 0))
	got, err = h.FileRead(0, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestFileAvailableUnknownID(t *testing.T) {
	h := NewOSHost(nil)
	assert.False(t, h.FileAvailable(0))
	_, err := h.FileSize(0)
	assert.Error(t, err)
}

func TestSeedIsDeterministic(t *testing.T) {
	h1 := NewOSHost(nil)
	h2 := NewOSHost(nil)
	h1.Seed(42)
	h2.Seed(42)

	for i := 0; i < 8; i++ {
		assert.Equal(t, h1.Rand(), h2.Rand())
	}
}

func TestSeedZeroDoesNotStallGenerator(t *testing.T) {
	h := NewOSHost(nil)
	h.Seed(0)
	assert.NotEqual(t, byte(0), h.Rand())
}
