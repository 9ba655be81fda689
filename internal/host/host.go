// Package host abstracts every side channel the device touches: stdout,
// stderr, the keyboard, input files, the wall clock and the PRNG. It
// defines the narrow interface the executor drives plus one concrete,
// OS-backed implementation good enough to run real programs end to end.
package host

// Host is the abstract I/O surface the instruction executor (internal/exec)
// calls through for every side-effecting instruction. Every method here is
// a potential suspension point; implementations must treat file I/O as
// atomic from the VM's point of view.
type Host interface {
	StdoutWrite(b byte)
	StderrWrite(b byte)

	// KbReady reports whether a byte is available without blocking.
	KbReady() bool
	// KbReadBlocking blocks until one byte is available.
	KbReadBlocking() (byte, error)

	// FileOpen opens input file id on demand. Safe to call more than once.
	FileOpen(id int) error
	// FileAvailable reports whether id refers to an openable input file,
	// without surfacing an error (used by FCHK).
	FileAvailable(id int) bool
	// FileSize reports the file's size in bytes.
	FileSize(id int) (uint32, error)
	// FileRead reads up to n bytes from the file's current cursor,
	// advancing it by the number of bytes actually read.
	FileRead(id int, n int) ([]byte, error)
	// FileWrite writes data at the file's current cursor, extending the
	// file if past the end, and returns the number of bytes written.
	FileWrite(id int, data []byte) (int, error)
	// FileSkip advances the cursor by up to n bytes and returns how many.
	FileSkip(id int, n int) (int, error)
	// FileSeek sets the cursor to an absolute byte position.
	FileSeek(id int, pos uint32) error

	// Clock returns the local wall clock as (seconds, minutes, hours).
	Clock() (sec, min, hour byte)

	// Rand returns one uniform byte from the PRNG.
	Rand() byte
	// Seed replaces the PRNG's internal state, extended deterministically
	// from the single seed byte (see DESIGN.md).
	Seed(b byte)
}
