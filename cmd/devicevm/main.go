// devicevm is the toolchain driver: assemble .basm sources into tape
// files, run or debug tapes directly, decompile them back into listings,
// and expose the piped remote-control protocol.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/emmabritton/tape-device/internal/asm"
	"github.com/emmabritton/tape-device/internal/device"
	"github.com/emmabritton/tape-device/internal/disasm"
	"github.com/emmabritton/tape-device/internal/exec"
	"github.com/emmabritton/tape-device/internal/host"
	"github.com/emmabritton/tape-device/internal/image"
	"github.com/emmabritton/tape-device/internal/proto"
	"github.com/emmabritton/tape-device/internal/runloop"
)

func main() {
	root := &cobra.Command{
		Use:           "devicevm",
		Short:         "Assembler, VM, decompiler and debug protocol for the tape device",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	// Flag names follow the source language's case-insensitivity.
	root.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ToLower(name))
	})
	root.AddCommand(assembleCmd(), runCmd(), decompileCmd(), debugCmd(), pipedCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadImage(path string) (image.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return image.Image{}, err
	}
	img, err := image.Decode(raw)
	if err != nil {
		return image.Image{}, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

func assembleCmd() *cobra.Command {
	var output string
	var listing bool

	cmd := &cobra.Command{
		Use:   "assemble <source.basm>",
		Short: "Compile an assembly source into a tape file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			img, err := asm.Assemble(string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			raw, err := img.Encode()
			if err != nil {
				return err
			}

			out := output
			if out == "" {
				base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
				out = base + ".tape"
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d bytes: %d ops, %d strings, %d data)\n",
				out, len(raw), len(img.Ops), len(img.Strings), len(img.Data))

			if listing {
				text, err := disasm.Decompile(img)
				if err != nil {
					return err
				}
				listPath := strings.TrimSuffix(out, filepath.Ext(out)) + ".list"
				if err := os.WriteFile(listPath, []byte(text), 0o644); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", listPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "tape file to write (default: source with .tape extension)")
	cmd.Flags().BoolVar(&listing, "listing", false, "also write the decompiled listing next to the tape")
	return cmd
}

func runCmd() *cobra.Command {
	var trace bool

	cmd := &cobra.Command{
		Use:   "run <program.tape> [input files...]",
		Short: "Execute a tape file directly",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadImage(args[0])
			if err != nil {
				return err
			}
			d := device.New(img, host.NewOSHost(args[1:]))

			stop := make(chan struct{})
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigs
				close(stop)
			}()

			opts := runloop.Options{Stop: stop}
			if trace {
				opts.Trace = os.Stderr
			}
			res := runloop.Run(d, opts)
			if res.Err != nil {
				return fmt.Errorf("program crashed after %d steps", res.Steps)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print each executed instruction to stderr")
	return cmd
}

func decompileCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "decompile <program.tape>",
		Short: "Recover a source listing from a tape file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadImage(args[0])
			if err != nil {
				return err
			}
			text, err := disasm.Decompile(img)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				fmt.Print(text)
				return nil
			}
			return os.WriteFile(output, []byte(text), 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "listing file to write, - for stdout")
	return cmd
}

func pipedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "piped <program.tape> [input files...]",
		Short: "Drive the VM over the stdin/stdout remote-control protocol",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadImage(args[0])
			if err != nil {
				return err
			}
			session := proto.NewSession(img, host.NewOSHost(args[1:]), os.Stdin, os.Stdout)
			return session.Run()
		},
	}
	return cmd
}

func debugCmd() *cobra.Command {
	var breakpoints []uint

	cmd := &cobra.Command{
		Use:   "debug <program.tape> [input files...]",
		Short: "Step a tape file from a line-oriented prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadImage(args[0])
			if err != nil {
				return err
			}
			d := device.New(img, host.NewOSHost(args[1:]))
			bps := make(map[uint16]bool)
			for _, bp := range breakpoints {
				bps[uint16(bp)] = true
			}
			return debugRepl(d, bps)
		},
	}
	cmd.Flags().UintSliceVar(&breakpoints, "breakpoint", nil, "ops offset to break at (repeatable)")
	return cmd
}

// debugRepl is a deliberately thin step driver: next, run, breakpoints and
// a register dump. The full-featured debugger UI is an external tool built
// on the piped protocol; this exists so a tape can be stepped without one.
func debugRepl(d *device.Device, bps map[uint16]bool) error {
	fmt.Println("commands: n(ext), r(un), b <offset>, p(rint state), q(uit)")
	printState(d)

	reader := bufio.NewReader(os.Stdin)
	running := false
	for {
		line := ""
		if !running {
			fmt.Print("-> ")
			raw, err := reader.ReadString('\n')
			if err != nil {
				return nil
			}
			line = strings.ToLower(strings.TrimSpace(raw))
		} else if bps[d.PC] {
			fmt.Printf("breakpoint at %d\n", d.PC)
			printState(d)
			running = false
			continue
		}

		switch {
		case running || line == "n" || line == "next" || line == "":
			outcome, err := exec.Step(d, true)
			if !running {
				printState(d)
			}
			switch outcome {
			case exec.Halted:
				fmt.Println("program finished")
				return nil
			case exec.Crashed:
				fmt.Fprintf(os.Stderr, "crash: %v\n%s\n", err, d.DumpText())
				return fmt.Errorf("program crashed")
			}
			if int(d.PC) >= len(d.Img.Ops) {
				fmt.Println("program finished")
				return nil
			}
		case line == "r" || line == "run":
			running = true
		case line == "p" || line == "print":
			printState(d)
		case strings.HasPrefix(line, "b"):
			arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "break"), "b"))
			off, err := strconv.ParseUint(arg, 10, 16)
			if err != nil {
				fmt.Println("bad offset:", arg)
				continue
			}
			if bps[uint16(off)] {
				delete(bps, uint16(off))
				fmt.Printf("cleared breakpoint at %d\n", off)
			} else {
				bps[uint16(off)] = true
				fmt.Printf("set breakpoint at %d\n", off)
			}
		case line == "q" || line == "quit":
			return nil
		default:
			fmt.Println("unknown command:", line)
		}
	}
}

func printState(d *device.Device) {
	if int(d.PC) < len(d.Img.Ops) {
		if line, _, err := disasm.Instruction(d.Img, int(d.PC), nil, nil); err == nil {
			fmt.Printf("next: %5d: %s\n", d.PC, line)
		}
	}
	fmt.Println(d.DumpText())
}
