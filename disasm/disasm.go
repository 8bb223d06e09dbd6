// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a uxn ROM disassembler.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/gotal/diag"
	"github.com/beevik/gotal/opcode"
)

// The address at which a ROM is loaded.
const romStart = 0x0100

// The largest ROM that fits in memory.
const MaxSize = 0x10000 - romStart

var hex = "0123456789abcdef"

// Return a hexadecimal string representation of the byte slice.
func hexString(b []byte) string {
	hexbuf := make([]byte, len(b)*2)
	for i, n := range b {
		hexbuf[i*2] = hex[n>>4]
		hexbuf[i*2+1] = hex[n&0xf]
	}
	return string(hexbuf)
}

// An Instruction is a single decoded opcode and its inline operand.
type Instruction struct {
	Addr    uint16 // address of the opcode byte
	Op      byte   // opcode byte
	Operand []byte // inline operand bytes
	Partial bool   // operand truncated by the end of the ROM
}

// Name returns the instruction's mnemonic.
func (i Instruction) Name() string {
	return opcode.Name(i.Op)
}

// Len returns the number of ROM bytes the instruction occupies.
func (i Instruction) Len() int {
	return 1 + len(i.Operand)
}

// Bytes returns the opcode byte followed by the operand.
func (i Instruction) Bytes() []byte {
	return append([]byte{i.Op}, i.Operand...)
}

func (i Instruction) immediate() bool {
	return i.Op == opcode.JCI || i.Op == opcode.JMI || i.Op == opcode.JSI
}

// Target returns the absolute destination of an immediate jump.
func (i Instruction) Target() (uint16, bool) {
	if !i.immediate() || i.Partial {
		return 0, false
	}
	offset := uint16(i.Operand[0])<<8 | uint16(i.Operand[1])
	return i.Addr + 3 + offset, true
}

// String returns the instruction in listing form. Immediate jumps show
// their absolute destination.
func (i Instruction) String() string {
	if t, ok := i.Target(); ok {
		return fmt.Sprintf("%s $%04x", i.Name(), t)
	}
	if len(i.Operand) == 0 {
		return i.Name()
	}
	return fmt.Sprintf("%s %s", i.Name(), hexString(i.Operand))
}

// TAL returns source text that assembles to exactly the instruction's
// bytes.
func (i Instruction) TAL() string {
	if !i.Partial && (i.Op == opcode.LIT || i.Op == opcode.LIT2) {
		return "#" + hexString(i.Operand)
	}
	if len(i.Operand) == 0 {
		return i.Name()
	}

	var sb strings.Builder
	sb.WriteString(i.Name())
	switch len(i.Operand) {
	case 2:
		fmt.Fprintf(&sb, " %s", hexString(i.Operand))
	default:
		for _, b := range i.Operand {
			fmt.Fprintf(&sb, " %02x", b)
		}
	}
	return sb.String()
}

// Decode the instruction at a ROM offset. Return the instruction and the
// offset of the one that follows it.
func Decode(rom []byte, offset int) (inst Instruction, next int) {
	op := rom[offset]
	n := opcode.OperandSize(op)
	avail := len(rom) - offset - 1
	inst = Instruction{
		Addr:    uint16(offset + romStart),
		Op:      op,
		Operand: rom[offset+1 : offset+1+min(n, avail)],
		Partial: avail < n,
	}
	return inst, offset + inst.Len()
}

// Disassemble decodes a ROM image in a single forward pass, calling fn
// for each instruction. Operand bytes are never decoded as opcodes.
func Disassemble(rom []byte, fn func(Instruction)) {
	for offset := 0; offset < len(rom); {
		var inst Instruction
		inst, offset = Decode(rom, offset)
		fn(inst)
	}
}

// Lines returns every instruction in a ROM image.
func Lines(rom []byte) []Instruction {
	var lines []Instruction
	Disassemble(rom, func(i Instruction) {
		lines = append(lines, i)
	})
	return lines
}

// Check returns an error if the ROM cannot be loaded into memory.
func Check(rom []byte) error {
	if len(rom) > MaxSize {
		return diag.New(diag.Disassembly, "rom of %d bytes exceeds %d bytes", len(rom), MaxSize)
	}
	return nil
}

// Source returns TAL source that reassembles to the ROM image.
func Source(rom []byte) string {
	var sb strings.Builder
	sb.WriteString("|0100\n")
	Disassemble(rom, func(i Instruction) {
		sb.WriteString(i.TAL())
		sb.WriteByte('\n')
	})
	return sb.String()
}

// A Labeler names addresses.
type Labeler interface {
	Label(addr uint16) (string, bool)
}

// Text writes a listing of the ROM to w. Addresses with labels are
// annotated when labels is not nil.
func Text(w io.Writer, rom []byte, labels Labeler) error {
	if err := Check(rom); err != nil {
		return err
	}

	var err error
	Disassemble(rom, func(i Instruction) {
		if err != nil {
			return
		}
		if labels != nil {
			if name, ok := labels.Label(i.Addr); ok {
				_, err = fmt.Fprintf(w, "@%s\n", name)
			}
		}
		if err == nil {
			_, err = fmt.Fprintln(w, Line(i, labels))
		}
	})
	return err
}

// Line formats an instruction as a single listing line. The destination
// of an immediate jump is named when labels is not nil.
func Line(i Instruction, labels Labeler) string {
	line := fmt.Sprintf("%04x:  %-8s  %s", i.Addr, hexString(i.Bytes()), i)
	if t, ok := i.Target(); ok && labels != nil {
		if name, ok := labels.Label(t); ok {
			line += "  ( " + name + " )"
		}
	}
	if i.Partial {
		line += "  ( truncated )"
	}
	return line
}
