// Package runloop drives the executor in direct mode: fetch-execute until
// HALT, the end of the ops stream, or a crash. The piped counterpart lives
// in internal/proto; both share the executor's single-step contract.
package runloop

import (
	"fmt"
	"io"

	"github.com/emmabritton/tape-device/internal/device"
	"github.com/emmabritton/tape-device/internal/disasm"
	"github.com/emmabritton/tape-device/internal/exec"
)

// Options tunes one direct run.
type Options struct {
	// Trace, when non-nil, receives one listing line per executed
	// instruction.
	Trace io.Writer
	// Stop cancels the run between instructions; in-flight instructions
	// are never interrupted.
	Stop <-chan struct{}
}

// Result is how one direct run ended.
type Result struct {
	Outcome exec.Outcome
	Err     error
	Steps   int
}

// Run executes the device's program to completion. On a crash it writes
// the one-line error tag plus the register dump to the host's stderr, the
// direct-mode presentation of a RuntimeTrap.
func Run(d *device.Device, opts Options) Result {
	steps := 0
	for {
		select {
		case <-opts.Stop:
			return Result{Outcome: exec.Halted, Steps: steps}
		default:
		}

		// A program may simply run off the end of its ops stream; that is
		// a clean end of file, not a crash.
		if int(d.PC) >= len(d.Img.Ops) {
			d.Halted = true
			return Result{Outcome: exec.Halted, Steps: steps}
		}

		if opts.Trace != nil {
			if line, _, err := disasm.Instruction(d.Img, int(d.PC), nil, nil); err == nil {
				fmt.Fprintf(opts.Trace, "%5d: %s\n", d.PC, line)
			}
		}

		outcome, err := exec.Step(d, true)
		steps++

		switch outcome {
		case exec.Continue:
			continue
		case exec.Halted:
			d.Halted = true
			return Result{Outcome: outcome, Steps: steps}
		case exec.Crashed:
			d.Halted = true
			d.HaltErr = err
			writeCrash(d, err)
			return Result{Outcome: outcome, Err: err, Steps: steps}
		default:
			// Blocking mode never suspends; treat it as a wedged host.
			d.Halted = true
			d.HaltErr = err
			return Result{Outcome: exec.Crashed, Err: err, Steps: steps}
		}
	}
}

// writeCrash emits the error tag and the binary dump text to stderr
// through the host, so piped and fake hosts capture it the same way the
// real one does.
func writeCrash(d *device.Device, err error) {
	msg := fmt.Sprintf("crash: %v\n%s\n", err, d.DumpText())
	for i := 0; i < len(msg); i++ {
		d.Host.StderrWrite(msg[i])
	}
}
