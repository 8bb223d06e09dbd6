// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/beevik/gotal/asm"
	"github.com/beevik/gotal/diag"
)

func assemble(t *testing.T, src string) *asm.Assembly {
	t.Helper()
	a := asm.New(asm.Config{Out: io.Discard})
	assembly, err := a.Assemble(src, "disasm.tal")
	if err != nil {
		t.Fatal(err)
	}
	return assembly
}

func TestInstructionStream(t *testing.T) {
	assembly := assemble(t, "#12 #1234 ADD2 LITr 34 @l !l BRK")

	expected := []struct {
		addr uint16
		str  string
		tal  string
	}{
		{0x0100, "LIT 12", "#12"},
		{0x0102, "LIT2 1234", "#1234"},
		{0x0105, "ADD2", "ADD2"},
		{0x0106, "LITr 34", "LITr 34"},
		{0x0108, "JMI $0108", "JMI fffd"},
		{0x010b, "BRK", "BRK"},
	}

	lines := Lines(assembly.Code)
	if len(lines) != len(expected) {
		t.Fatalf("got %d instructions, expected %d", len(lines), len(expected))
	}
	for i, e := range expected {
		l := lines[i]
		if l.Addr != e.addr || l.String() != e.str || l.TAL() != e.tal {
			t.Errorf("line %d: got $%04x %q %q, expected $%04x %q %q",
				i, l.Addr, l.String(), l.TAL(), e.addr, e.str, e.tal)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	programs := []string{
		"|0100 @main ;text print BRK @print &loop LDAk .Console/write DEO INC2 LDAk ?&loop POP2 JMP2r @text \"hello 00",
		"%M { #01 ADD } { #02 M } ?{ #03 } !{ BRK } LIT2r 1234 STH2kr",
		"@a ,a JMP _a =a #+300 'x",
	}
	for _, p := range programs {
		assembly := assemble(t, p)

		again := assemble(t, Source(assembly.Code))
		if !bytes.Equal(assembly.Code, again.Code) {
			t.Errorf("round trip mismatch for %q:\n%x\n%x", p, assembly.Code, again.Code)
		}
	}
}

func TestEveryByteRoundTrips(t *testing.T) {
	for b := 0; b < 256; b++ {
		rom := []byte{byte(b), 0x12, 0x34}
		assembly := assemble(t, Source(rom))
		if !bytes.Equal(assembly.Code, rom) {
			t.Errorf("$%02x: got %x", b, assembly.Code)
		}
	}
}

func TestTruncated(t *testing.T) {
	tests := []struct {
		rom     []byte
		operand int
		tal     string
	}{
		{[]byte{0x80}, 0, "LIT"},
		{[]byte{0xa0, 0x12}, 1, "LIT2 12"},
		{[]byte{0x60, 0x01}, 1, "JSI 01"},
		{[]byte{0x20}, 0, "JCI"},
	}
	for _, test := range tests {
		lines := Lines(test.rom)
		if len(lines) != 1 {
			t.Fatalf("%x: got %d lines", test.rom, len(lines))
		}
		l := lines[0]
		if !l.Partial || len(l.Operand) != test.operand || l.TAL() != test.tal {
			t.Errorf("%x: got partial=%v operand=%x tal=%q", test.rom, l.Partial, l.Operand, l.TAL())
		}
		if _, ok := l.Target(); ok {
			t.Errorf("%x: truncated jump has a target", test.rom)
		}

		assembly := assemble(t, Source(test.rom))
		if !bytes.Equal(assembly.Code, test.rom) {
			t.Errorf("%x: reassembled to %x", test.rom, assembly.Code)
		}
	}
}

func TestNeverPanics(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			n := 0
			Disassemble([]byte{byte(a), byte(b)}, func(i Instruction) {
				n += i.Len()
			})
			if n != 2 {
				t.Fatalf("%02x%02x: decoded %d bytes", a, b, n)
			}
		}
	}
	Disassemble(nil, func(Instruction) {
		t.Fatal("empty rom produced an instruction")
	})
}

func TestText(t *testing.T) {
	assembly := assemble(t, "@main #01 @loop !loop")

	var b bytes.Buffer
	if err := Text(&b, assembly.Code, assembly.Symbols); err != nil {
		t.Fatal(err)
	}
	exp := "@main\n" +
		"0100:  8001      LIT 01\n" +
		"@loop\n" +
		"0102:  40fffd    JMI $0102  ( loop )\n"
	if b.String() != exp {
		t.Errorf("got:\n%s\nexpected:\n%s", b.String(), exp)
	}

	b.Reset()
	if err := Text(&b, []byte{0xa0}, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(b.String(), "( truncated )\n") {
		t.Errorf("got %q", b.String())
	}
}

func TestCheck(t *testing.T) {
	if err := Check(make([]byte, MaxSize)); err != nil {
		t.Error(err)
	}
	err := Check(make([]byte, MaxSize+1))
	if !diag.Is(err, diag.Disassembly) {
		t.Errorf("expected disassembly error, got %v", err)
	}
	if err := Text(io.Discard, make([]byte, MaxSize+1), nil); !diag.Is(err, diag.Disassembly) {
		t.Errorf("expected disassembly error, got %v", err)
	}
}
