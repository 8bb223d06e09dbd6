// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host implements an interactive shell over the TAL toolchain.
//
// Within the host it is possible to assemble TAL files or snippets typed
// on the command line, load rom files along with their symbols, browse
// the symbols and devices, disassemble the loaded rom and dump the token
// stream produced by the lexer.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/gotal/asm"
	"github.com/beevik/gotal/device"
	"github.com/beevik/gotal/diag"
	"github.com/beevik/gotal/disasm"
	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
)

// The address at which roms are loaded.
const romStart = 0x0100

// The name used for source assembled from the command line.
const shellSource = "shell"

var errQuit = errors.New("exiting program")

// A selection is a command looked up from an input line, along with its
// arguments and the line's text following the command's name.
type selection struct {
	cmd  *cmd.Command
	args []string
	text string
}

// A Host holds the state of a shell session: the loaded rom and its
// symbols, the device map and the shell settings.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	lastCmd     *selection
	devices     *device.Map
	rom         []byte
	symbols     *asm.Symbols
	settings    *settings
}

// New creates a new host with an empty session.
func New() *Host {
	return &Host{
		devices:  device.Varvara(),
		symbols:  new(asm.Symbols),
		settings: newSettings(),
	}
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var s selection
		if line != "" {
			c, args, err := cmds.LookupCommand(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
			s = selection{cmd: c, args: args, text: commandText(line, c)}
		} else if h.lastCmd != nil {
			s = *h.lastCmd
		}

		if s.cmd == nil {
			continue
		}
		h.lastCmd = &s

		glog.V(2).Infof("command %q", line)
		err = s.cmd.Data.(func(*Host, *cmd.Command, []string) error)(h, s.cmd, s.args)
		if err != nil {
			break
		}
	}
	h.flush()
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return strings.TrimSpace(h.input.Text()), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

// Print an error, including the source excerpt of assembler diagnostics.
func (h *Host) reportError(err error) {
	var e *diag.Error
	if errors.As(err, &e) {
		e.Report(h.output)
		h.flush()
	} else {
		h.printf("%v\n", err)
	}
}

func (h *Host) options() asm.Option {
	var o asm.Option
	if h.settings.Verbose {
		o |= asm.Verbose
	}
	if h.settings.TrimZeros {
		o |= asm.TrimZeros
	}
	return o
}

func (h *Host) cmdAssembleFile(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		c.DisplayUsage(h.output)
		h.flush()
		return nil
	}

	filename := args[0]
	if filepath.Ext(filename) == "" {
		filename += ".tal"
	}

	// Diagnostics are reported to the output by the assembler.
	err := asm.AssembleFile(filename, h.options(), h.output)
	h.flush()
	if err != nil {
		var e *diag.Error
		if !errors.As(err, &e) {
			h.printf("%v\n", err)
		}
		h.printf("Failed to assemble '%s'.\n", filepath.Base(filename))
		return nil
	}

	ext := filepath.Ext(filename)
	if err := h.load(filename[:len(filename)-len(ext)] + ".rom"); err != nil {
		h.printf("%v\n", err)
	}
	return nil
}

func (h *Host) cmdAssembleSource(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		c.DisplayUsage(h.output)
		h.flush()
		return nil
	}

	a := asm.New(asm.Config{
		Devices: h.devices,
		Options: h.options(),
		Out:     h.output,
	})
	// Assemble the raw text so quoted strings survive argument splitting.
	assembly, err := a.Assemble(h.lastCmd.text, shellSource)
	h.flush()
	if err != nil {
		h.reportError(err)
		return nil
	}

	h.setRom(assembly)
	h.printf("Assembled %d bytes at $%04x.\n", len(h.rom), romStart)
	return nil
}

func (h *Host) cmdDevices(c *cmd.Command, args []string) error {
	if len(args) == 0 {
		for _, d := range h.devices.Devices() {
			h.printf("    %-12s $%02x  (%d ports)\n", d.Name, d.Addr, len(d.Fields))
		}
		return nil
	}

	d := h.findDevice(args[0])
	if d == nil {
		h.printf("Device '%s' not found.\n", args[0])
		return nil
	}
	for _, f := range d.Fields {
		addr, _ := d.FieldAddr(f.Name)
		h.printf("    .%s/%-12s $%02x  %d\n", d.Name, f.Name, addr, f.Size)
	}
	return nil
}

func (h *Host) findDevice(name string) *device.Device {
	if d, ok := h.devices.Device(name); ok {
		return d
	}
	for _, d := range h.devices.Devices() {
		if strings.EqualFold(d.Name, name) {
			return d
		}
	}
	return nil
}

func (h *Host) cmdDisassemble(c *cmd.Command, args []string) error {
	if len(h.rom) == 0 {
		h.println("No rom loaded.")
		return nil
	}

	addr := h.settings.NextDisasmAddr
	if len(args) > 0 && args[0] != "$" {
		a, err := h.resolveAddr(args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(args) > 1 {
		n, err := parseNumber(args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(n)
	}

	offset := int(addr) - romStart
	if offset < 0 || offset >= len(h.rom) {
		h.printf("Address $%04x is outside the rom.\n", addr)
		return nil
	}

	for n := 0; n < lines && offset < len(h.rom); n++ {
		var i disasm.Instruction
		i, offset = disasm.Decode(h.rom, offset)
		h.printf("%s\n", h.disassemble(i))
	}

	h.settings.NextDisasmAddr = uint16(offset + romStart)
	h.lastCmd.args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

// Format one instruction, preceded by the labels defined at its address.
func (h *Host) disassemble(i disasm.Instruction) string {
	if h.settings.CompactMode {
		return i.TAL()
	}
	line := disasm.Line(i, h.symbols)
	if name, ok := h.symbols.Label(i.Addr); ok {
		line = "@" + name + "\n" + line
	}
	return line
}

func (h *Host) cmdHelp(c *cmd.Command, args []string) error {
	err := cmds.GetHelp(h.output, args)
	h.flush()
	switch {
	case err == cmd.ErrNotFound:
		h.println("Command not found.")
	case err == cmd.ErrAmbiguous:
		h.println("Command is ambiguous.")
	case err != nil:
		h.printf("%v\n", err)
	}
	return nil
}

func (h *Host) cmdLoad(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		c.DisplayUsage(h.output)
		h.flush()
		return nil
	}

	filename := args[0]
	if filepath.Ext(filename) == "" {
		filename += ".rom"
	}
	if err := h.load(filename); err != nil {
		h.printf("%v\n", err)
	}
	return nil
}

func (h *Host) cmdQuit(c *cmd.Command, args []string) error {
	return errQuit
}

func (h *Host) cmdSet(c *cmd.Command, args []string) error {
	switch len(args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		c.DisplayUsage(h.output)
		h.flush()

	default:
		key, value := args[0], strings.Join(args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v uint64
			v, err = h.resolveNumber(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}
	return nil
}

func (h *Host) cmdSymbols(c *cmd.Command, args []string) error {
	var prefix string
	if len(args) > 0 {
		prefix = args[0]
	}

	n := 0
	for _, s := range h.symbols.All() {
		if strings.HasPrefix(s.Name, prefix) {
			h.printf("    %-24s $%04x  %d\n", s.Name, s.Addr, s.Size)
			n++
		}
	}
	if n == 0 {
		h.println("No symbols.")
	}
	return nil
}

func (h *Host) cmdTokens(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		c.DisplayUsage(h.output)
		h.flush()
		return nil
	}

	err := DumpTokens(h.output, args[0], h.devices, false)
	h.flush()
	if err != nil {
		h.reportError(err)
	}
	return nil
}

// DumpTokens lexes a source file and pretty-prints its token stream to
// w. Colors are used only when color is true.
func DumpTokens(w io.Writer, filename string, devices *device.Map, color bool) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return diag.New(diag.FileReadError, "cannot read '%s'", filename).Wrap(err)
	}

	tokens, err := asm.Lex(string(src), filepath.Base(filename), devices)
	if err != nil {
		return err
	}

	printer := pp.New()
	printer.SetColoringEnabled(color)
	printer.SetExportedOnly(true)
	_, err = printer.Fprintln(w, tokens)
	return err
}

// Load a rom file, along with its binary symbol file if there is one.
func (h *Host) load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open '%s': %v", filepath.Base(filename), err)
	}
	defer file.Close()

	a := &asm.Assembly{}
	if _, err := a.ReadFrom(file); err != nil {
		return fmt.Errorf("failed to read '%s': %v", filepath.Base(filename), err)
	}
	if err := disasm.Check(a.Code); err != nil {
		return err
	}
	h.printf("Loaded '%s' to $%04x..$%04x.\n", filepath.Base(filename),
		romStart, romStart+max(len(a.Code), 1)-1)
	glog.V(1).Infof("loaded %s (%d bytes)", filename, len(a.Code))

	symname := filename + ".sym"
	if sf, err := os.Open(symname); err == nil {
		defer sf.Close()
		s := new(asm.Symbols)
		if _, err := s.ReadFrom(sf); err != nil {
			h.printf("Failed to read '%s': %v\n", filepath.Base(symname), err)
		} else {
			a.Symbols = s
			h.printf("Loaded %d symbols from '%s'.\n", s.Len(), filepath.Base(symname))
		}
	}

	h.setRom(a)
	return nil
}

func (h *Host) setRom(a *asm.Assembly) {
	h.rom = a.Code
	h.symbols = a.Symbols
	if h.symbols == nil {
		h.symbols = new(asm.Symbols)
	}
	h.settings.NextDisasmAddr = romStart
}

// Resolve an address given as a symbol name or a number.
func (h *Host) resolveAddr(s string) (uint16, error) {
	v, err := h.resolveNumber(s)
	if err != nil {
		return 0, err
	}
	if v > 0xffff {
		return 0, fmt.Errorf("address '%s' out of range", s)
	}
	return uint16(v), nil
}

func (h *Host) resolveNumber(s string) (uint64, error) {
	if sym, ok := h.symbols.Lookup(strings.TrimPrefix(s, "@")); ok {
		return uint64(sym.Addr), nil
	}
	return parseNumber(s)
}
