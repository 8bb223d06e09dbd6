// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements an assembler for uxntal, the assembly language
// of the uxn virtual machine.
package asm

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/gotal/device"
	"github.com/beevik/gotal/diag"
	"github.com/beevik/gotal/opcode"
	"github.com/beevik/gotal/runes"
	"github.com/golang/glog"
)

// Option type used by the Assemble functions.
type Option uint

// Options for the Assemble functions.
const (
	Verbose   Option = 1 << iota // verbose output during assembly
	TrimZeros                    // drop trailing zero bytes from the ROM
)

// Config holds the settings shared by every assembly performed with an
// Assembler.
type Config struct {
	Devices  *device.Map // device table; nil selects the Varvara map
	Options  Option      // assembly options
	Out      io.Writer   // verbose output; nil selects os.Stdout
	Includes fs.FS       // file system used to resolve includes, or nil
}

// An Assembler converts TAL source into ROM images. Each assembly is
// independent of any other, so an Assembler may be used concurrently.
type Assembler struct {
	cfg Config
}

// New creates an assembler.
func New(cfg Config) *Assembler {
	if cfg.Devices == nil {
		cfg.Devices = device.Varvara()
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Assembler{cfg: cfg}
}

// Assembly contains the assembled ROM image and the symbols defined
// while assembling it.
type Assembly struct {
	Code    []byte   // ROM image, loaded at address 0x0100
	Symbols *Symbols // labels in definition order
}

// ReadFrom reads a ROM image from a binary input source.
func (a *Assembly) ReadFrom(r io.Reader) (n int64, err error) {
	a.Code, err = io.ReadAll(r)
	n = int64(len(a.Code))
	if err != nil {
		return n, err
	}
	if n > memorySize-romStart {
		return n, diag.New(diag.RomTooLarge, "rom exceeds %d bytes", memorySize-romStart)
	}
	if a.Symbols == nil {
		a.Symbols = newSymbols(nil, 0)
	}
	return n, nil
}

// WriteTo saves the ROM image as binary data into an output writer.
func (a *Assembly) WriteTo(w io.Writer) (n int64, err error) {
	nn, err := w.Write(a.Code)
	return int64(nn), err
}

// Assemble reads TAL source from the provided stream and assembles it
// using the Varvara device map.
func Assemble(r io.Reader, path string, out io.Writer, options Option) (*Assembly, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, diag.New(diag.FileReadError, "reading '%s'", path).Wrap(err)
	}
	return New(Config{Options: options, Out: out}).Assemble(string(src), path)
}

// AssembleFile reads a file containing TAL source, assembles it along
// with the files it includes, and produces a ROM file, a binary symbol
// file and a text symbol file.
func AssembleFile(path string, options Option, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	a := New(Config{
		Options:  options,
		Out:      out,
		Includes: os.DirFS(filepath.Dir(path)),
	})

	assembly, err := a.AssembleFile(path)
	if err != nil {
		var e *diag.Error
		if errors.As(err, &e) {
			e.Report(out)
		}
		return err
	}

	ext := filepath.Ext(path)
	prefix := path[:len(path)-len(ext)]
	romPath := prefix + ".rom"
	symPath := romPath + ".sym"
	txtPath := romPath + ".txt"

	if err := writeFile(romPath, assembly); err != nil {
		return err
	}
	if err := writeFile(symPath, assembly.Symbols); err != nil {
		return err
	}
	if err := writeFile(txtPath, textWriter{assembly.Symbols}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Assembled '%s' to produce '%s', '%s' and '%s'.\n",
		filepath.Base(path),
		filepath.Base(romPath),
		filepath.Base(symPath),
		filepath.Base(txtPath))
	return nil
}

type textWriter struct {
	s *Symbols
}

func (t textWriter) WriteTo(w io.Writer) (int64, error) {
	return t.s.WriteText(w)
}

func writeFile(path string, wt io.WriterTo) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	glog.V(1).Infof("wrote %s", path)
	return err
}

// AssembleFile reads and assembles a source file from disk. Includes are
// resolved through the assembler's include file system, relative to the
// directory containing the file.
func (a *Assembler) AssembleFile(path string) (*Assembly, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.FileReadError, "cannot read '%s'", path).Wrap(err)
	}
	glog.V(1).Infof("read %s (%d bytes)", path, len(src))
	return a.Assemble(string(src), filepath.Base(path))
}

// Assemble assembles TAL source. The path is used in error messages and
// as the base for resolving includes.
func (a *Assembler) Assemble(src, path string) (*Assembly, error) {
	tokens, err := Lex(src, path, a.cfg.Devices)
	if err != nil {
		return nil, err
	}
	if a.cfg.Includes != nil {
		tokens, err = ResolveIncludes(tokens, a.cfg.Includes, a.cfg.Devices)
		if err != nil {
			return nil, err
		}
	}
	return a.AssembleTokens(tokens)
}

// AssembleTokens parses and assembles a token stream.
func (a *Assembler) AssembleTokens(tokens []Token) (*Assembly, error) {
	nodes, err := Parse(tokens)
	if err != nil {
		return nil, err
	}
	return a.AssembleNodes(nodes)
}

// AssembleNodes assembles parsed nodes into a ROM image.
func (a *Assembler) AssembleNodes(nodes []Node) (*Assembly, error) {
	s := &session{
		devices: a.cfg.Devices,
		nodes:   nodes,
		addrs:   make([]int, len(nodes)+1),
		refs:    make([]int, len(nodes)),
		syms:    newSymtab(),
		out:     a.cfg.Out,
		verbose: (a.cfg.Options & Verbose) != 0,
		trim:    (a.cfg.Options & TrimZeros) != 0,
	}

	// Assembly consists of the following steps
	steps := []func(s *session) error{
		(*session).assignAddresses, // Pass 1: size nodes and define labels
		(*session).checkReferences, // Every referenced label must exist
		(*session).generateCode,    // Pass 2: write bytes into the ROM
	}

	// Execute assembler steps, breaking if an error is encountered
	// in any one of them.
	for _, step := range steps {
		if err := step(s); err != nil {
			return nil, err
		}
	}

	return &Assembly{
		Code:    s.rom.Image(),
		Symbols: s.syms.symbols(s.rom.Size()),
	}, nil
}

// A session is a state object used during a single assembly.
type session struct {
	devices *device.Map // device table
	nodes   []Node      // nodes being assembled
	addrs   []int       // node -> address assigned in pass 1
	refs    []int       // node -> symbol id of a reference
	syms    *symtab     // label arena
	rom     *Rom        // generated ROM
	out     io.Writer   // used for verbose output
	verbose bool        // verbose output
	trim    bool        // trim trailing zeros
}

// A symbol is an entry in the label arena.
type symbol struct {
	Symbol
	defined    bool
	referenced bool
	ref        Token // first reference, used to report undefined labels
}

// A symtab is an arena of labels. Each label receives a stable integer
// id the first time it is defined or referenced.
type symtab struct {
	arena []symbol
	ids   map[string]int
	order []int // ids in definition order
}

func newSymtab() *symtab {
	return &symtab{ids: make(map[string]int)}
}

func (t *symtab) id(name string) int {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := len(t.arena)
	t.arena = append(t.arena, symbol{Symbol: Symbol{Name: name}})
	t.ids[name] = id
	return id
}

func (t *symtab) define(n *Node, addr int) error {
	id := t.id(n.Name)
	sym := &t.arena[id]
	if sym.defined {
		return n.Tok.errorf(diag.DuplicateLabel, "label '%s' already defined at %s", n.Name, sym.Pos)
	}
	sym.defined = true
	sym.Addr = uint16(addr)
	sym.Pos = n.Tok.Pos
	t.order = append(t.order, id)
	return nil
}

func (t *symtab) reference(n *Node) int {
	id := t.id(n.Name)
	if sym := &t.arena[id]; !sym.referenced {
		sym.referenced = true
		sym.ref = n.Tok
	}
	return id
}

func (t *symtab) lookup(name string) (*symbol, bool) {
	id, ok := t.ids[name]
	if !ok || !t.arena[id].defined {
		return nil, false
	}
	return &t.arena[id], true
}

func (t *symtab) symbols(end int) *Symbols {
	list := make([]Symbol, len(t.order))
	for i, id := range t.order {
		list[i] = t.arena[id].Symbol
	}
	return newSymbols(list, end)
}

// Assign addresses to nodes and define labels.
func (s *session) assignAddresses() error {
	s.logSection("Assigning addresses")
	glog.V(1).Infof("pass 1: %d nodes", len(s.nodes))

	pc := romStart
	for i := range s.nodes {
		n := &s.nodes[i]
		s.addrs[i] = pc

		switch n.Kind {
		case LabelNode:
			if pc >= memorySize {
				return n.Tok.errorf(diag.RomTooLarge, "label '%s' defined past end of memory", n.Name)
			}
			if err := s.syms.define(n, pc); err != nil {
				return err
			}
			s.log("%04x  @%s", pc, n.Name)

		case PadNode:
			pc = n.Value
			s.log("%04x  |%04x", s.addrs[i], pc)

		case PadLabelNode:
			sym, ok := s.syms.lookup(n.Name)
			if !ok {
				return n.Tok.errorf(diag.InvalidPadding, "padding to undefined label '%s'", n.Name)
			}
			pc = int(sym.Addr)
			s.log("%04x  |%s", s.addrs[i], n.Name)

		case SkipNode:
			pc += n.Value
			s.log("%04x  $%x", s.addrs[i], n.Value)

		case SkipLabelNode:
			sym, ok := s.syms.lookup(n.Name)
			if !ok {
				return n.Tok.errorf(diag.InvalidPadding, "padding by undefined label '%s'", n.Name)
			}
			pc += int(sym.Addr)
			s.log("%04x  $%s", s.addrs[i], n.Name)

		case RefNode:
			s.refs[i] = s.syms.reference(n)
			pc += n.Size()

		case IncludeNode:
			return n.Tok.errorf(diag.Internal, "include '%s' was not resolved", n.Name)

		default:
			pc += n.Size()
		}

		if pc > memorySize {
			return n.Tok.errorf(diag.RomTooLarge, "assembly exceeds 64K at $%05x", pc)
		}
	}
	s.addrs[len(s.nodes)] = pc
	return nil
}

// Cause an error if any referenced label was never defined.
func (s *session) checkReferences() error {
	for _, sym := range s.syms.arena {
		if !sym.defined {
			return sym.ref.errorf(diag.UndefinedLabel, "'%s'", sym.Name)
		}
	}
	return nil
}

// Generate the ROM.
func (s *session) generateCode() error {
	s.logSection("Generating code")
	glog.V(1).Infof("pass 2: %d labels", len(s.syms.order))

	s.rom = NewRom()
	s.rom.PadTo(romStart)

	for i := range s.nodes {
		n := &s.nodes[i]

		var err error
		switch n.Kind {
		case LabelNode:
		case PadNode:
			err = s.rom.PadTo(n.Value)
		case PadLabelNode:
			sym, _ := s.syms.lookup(n.Name)
			err = s.rom.PadTo(int(sym.Addr))
		case SkipNode:
			err = s.rom.Skip(n.Value)
		case SkipLabelNode:
			sym, _ := s.syms.lookup(n.Name)
			err = s.rom.Skip(int(sym.Addr))
		default:
			err = s.emit(i, n)
		}
		if err != nil {
			return locate(n, err)
		}

		if s.rom.Cursor() != s.addrs[i+1] {
			return n.Tok.errorf(diag.Internal, "pass 2 address $%04x differs from pass 1 address $%04x",
				s.rom.Cursor(), s.addrs[i+1])
		}
	}

	if s.trim {
		s.rom.TrimZeros()
	}
	glog.V(1).Infof("pass 2 complete: %d bytes", max(0, s.rom.Size()-romStart))
	return nil
}

// Encode a node and write it to the ROM.
func (s *session) emit(i int, n *Node) error {
	addr := s.rom.Cursor()

	var b []byte
	switch n.Kind {
	case OpcodeNode:
		b = []byte{n.Op}

	case LiteralNode:
		width := 1
		if n.Short {
			width = 2
		}
		if n.Lit {
			op := opcode.LIT
			if n.Short {
				op = opcode.LIT2
			}
			b = append(b, op)
		}
		b = append(b, toBytes(width, n.Value)...)

	case RawNode:
		b = n.Bytes

	case DeviceNode:
		port, ok := s.devices.Resolve(n.Name, n.Field)
		if !ok {
			return n.Tok.errorf(diag.Internal, "unknown device field '%s/%s'", n.Name, n.Field)
		}
		if port > 0xff {
			return n.Tok.errorf(diag.InvalidAddressing, "device port $%04x is not in the zero-page", port)
		}
		b = []byte{opcode.LIT, byte(port)}

	case RefNode:
		var err error
		if b, err = s.encodeRef(n, addr, int(s.syms.arena[s.refs[i]].Addr)); err != nil {
			return err
		}

	default:
		return n.Tok.errorf(diag.Internal, "unexpected %s node", n.Kind)
	}

	if addr < romStart && len(b) > 0 {
		return n.Tok.errorf(diag.InvalidAddressing, "writing in zero-page at $%04x", addr)
	}
	if err := s.rom.WriteBytes(b); err != nil {
		return err
	}
	s.logNode(addr, b, n)
	return nil
}

// Encode a label reference found at addr.
func (s *session) encodeRef(n *Node, addr, target int) ([]byte, error) {
	var b []byte
	operand := addr
	if op, ok := runes.Opcode(n.Rune); ok {
		b = append(b, op)
		operand++
	}

	switch {
	case runes.IsZeroPage(n.Rune):
		if target > 0xff {
			return nil, n.Tok.errorf(diag.InvalidAddressing,
				"label '%s' at $%04x is not in the zero-page", n.Name, target)
		}
		b = append(b, byte(target))

	case runes.IsRelative(n.Rune):
		offset := target - (operand + 2)
		if offset < -128 || offset > 127 {
			return nil, n.Tok.errorf(diag.InvalidAddressing,
				"label '%s' is too far for a relative reference (%d bytes)", n.Name, offset)
		}
		b = append(b, byte(offset))

	case runes.IsImmediate(n.Rune):
		b = append(b, toBytes(2, (target-(operand+2))&0xffff)...)

	default:
		b = append(b, toBytes(2, target)...)
	}
	return b, nil
}

// Attach a node's position to an error raised without one.
func locate(n *Node, err error) error {
	var e *diag.Error
	if errors.As(err, &e) && e.Pos.Line == 0 {
		return n.Tok.errorf(e.Kind, "%s", e.Msg)
	}
	return err
}

// In verbose mode, log a string to the output.
func (s *session) log(format string, args ...any) {
	if s.verbose {
		fmt.Fprintf(s.out, format, args...)
		fmt.Fprintf(s.out, "\n")
	}
}

// In verbose mode, log the bytes generated for a node along with the
// source text it came from.
func (s *session) logNode(addr int, b []byte, n *Node) {
	if !s.verbose {
		return
	}
	if len(b) <= 3 {
		s.log("%04x-   %-8s    %s", addr, byteString(b), n.Tok.Text)
		return
	}
	s.log("%04x-   %-8s    %s", addr, byteString(b[:3]), n.Tok.Text)
	s.logBytes(addr+3, b[3:])
}

// In verbose mode, log a series of bytes with starting address.
func (s *session) logBytes(addr int, b []byte) {
	if s.verbose {
		for i, n := 0, len(b); i < n; i += 3 {
			j := min(i+3, n)
			s.log("%04x-*  %s", addr+i, byteString(b[i:j]))
		}
	}
}

// In verbose mode, log a section header to the output.
func (s *session) logSection(name string) {
	if s.verbose {
		fmt.Fprintln(s.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(s.out, "-- %s --\n", name)
		fmt.Fprintln(s.out, strings.Repeat("-", len(name)+6))
	}
}
