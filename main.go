// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/gotal/asm"
	"github.com/beevik/gotal/device"
	"github.com/beevik/gotal/diag"
	"github.com/beevik/gotal/disasm"
	"github.com/beevik/gotal/host"
	"github.com/beevik/term"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

// Returned by commands whose errors have already been displayed.
var errReported = errors.New("error reported")

var (
	verbose   bool
	trimZeros bool
	source    bool
)

var rootCmd = &cobra.Command{
	Use:   "gotal",
	Short: "An assembler and disassembler for uxn TAL programs",
	Long: `Gotal assembles TAL source into uxn roms and disassembles roms back
into TAL. Run without arguments to start the interactive shell.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(nil)
	},
}

var assembleCmd = &cobra.Command{
	Use:   "assemble sourceFile",
	Short: "Assemble a TAL file into a rom",
	Long: `Assemble a TAL source file along with the files it includes. On
success a rom file, a binary symbol file (.rom.sym) and a text symbol
file (.rom.txt) are written next to the source file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var options asm.Option
		if verbose {
			options |= asm.Verbose
		}
		if trimZeros {
			options |= asm.TrimZeros
		}
		if err := asm.AssembleFile(args[0], options, os.Stdout); err != nil {
			if _, ok := diag.KindOf(err); ok {
				return errReported
			}
			return err
		}
		return nil
	},
}

var disassembleCmd = &cobra.Command{
	Use:   "disassemble romFile",
	Short: "Disassemble a rom",
	Long: `Disassemble a rom into a listing. Labels are taken from the rom's
binary symbol file when there is one. With --source, TAL source that
reassembles to the same rom is written instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rom, err := os.ReadFile(args[0])
		if err != nil {
			return diag.New(diag.FileReadError, "cannot read '%s'", args[0]).Wrap(err)
		}
		if err := disasm.Check(rom); err != nil {
			return err
		}

		if source {
			_, err = fmt.Print(disasm.Source(rom))
			return err
		}

		symbols := new(asm.Symbols)
		if f, err := os.Open(args[0] + ".sym"); err == nil {
			defer f.Close()
			if _, err := symbols.ReadFrom(f); err != nil {
				return err
			}
			glog.V(1).Infof("read %d symbols", symbols.Len())
		}
		return disasm.Text(os.Stdout, rom, symbols)
	},
}

var tokensCmd = &cobra.Command{
	Use:   "tokens sourceFile",
	Short: "Dump the token stream of a TAL file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color := term.IsTerminal(int(os.Stdout.Fd()))
		return host.DumpTokens(os.Stdout, args[0], device.Varvara(), color)
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices [name]",
	Short: "List the Varvara devices and their ports",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h := host.New()
		h.RunCommands(strings.NewReader("devices "+strings.Join(args, " ")), os.Stdout, false)
		return nil
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell [script ...]",
	Short: "Start the interactive shell",
	Long: `Start the interactive shell. Commands contained in the script files
are run first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(args)
	},
}

func init() {
	assembleCmd.Flags().BoolVar(&verbose, "verbose", false, "write an assembly listing")
	assembleCmd.Flags().BoolVar(&trimZeros, "trim", false, "drop trailing zero bytes from the rom")
	disassembleCmd.Flags().BoolVar(&source, "source", false, "write TAL source instead of a listing")

	rootCmd.AddCommand(assembleCmd, disassembleCmd, tokensCmd, devicesCmd, shellCmd)

	// Route glog to stderr unless asked otherwise, and expose its flags.
	flag.Set("logtostderr", "true")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func runShell(scripts []string) error {
	h := host.New()

	// Run commands contained in script files.
	for _, filename := range scripts {
		file, err := os.Open(filename)
		if err != nil {
			return err
		}
		h.RunCommands(file, os.Stdout, false)
		file.Close()
	}

	// Only prompt when a person is typing.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	h.RunCommands(os.Stdin, os.Stdout, interactive)
	return nil
}

func main() {
	err := rootCmd.Execute()
	glog.Flush()
	switch {
	case err == nil:
	case errors.Is(err, errReported):
		os.Exit(1)
	default:
		exitOnError(err)
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
