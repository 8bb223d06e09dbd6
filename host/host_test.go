// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(h *Host, script string) string {
	var out bytes.Buffer
	h.RunCommands(strings.NewReader(script), &out, false)
	return out.String()
}

func checkOutput(t *testing.T, out string, expected ...string) {
	t.Helper()
	for _, e := range expected {
		if !strings.Contains(out, e) {
			t.Errorf("output does not contain %q:\n%s", e, out)
		}
	}
}

func TestAssembleSource(t *testing.T) {
	h := New()
	out := run(h, "assemble source @main #01 @loop !loop\n"+
		"disassemble main\n")

	checkOutput(t, out,
		"Assembled 5 bytes at $0100.",
		"@main\n0100:  8001      LIT 01\n",
		"@loop\n0102:  40fffd    JMI $0102  ( loop )\n")

	if h.settings.NextDisasmAddr != 0x0105 {
		t.Errorf("next disassembly address $%04x", h.settings.NextDisasmAddr)
	}
}

func TestAssembleSourceText(t *testing.T) {
	h := New()
	out := run(h, "as   @text \"hi  \"there 00\n")
	checkOutput(t, out, "Assembled 8 bytes at $0100.")
	if string(h.rom) != "hithere\x00" {
		t.Errorf("rom %q", h.rom)
	}

	h = New()
	out = run(h, "ass sou #01\n")
	checkOutput(t, out, "Assembled 2 bytes at $0100.")
}

func TestAssembleSourceError(t *testing.T) {
	h := New()
	out := run(h, "assemble source #01 !nowhere\n")
	checkOutput(t, out, "undefined label", "'nowhere'")
	if len(h.rom) != 0 {
		t.Error("failed assembly replaced the rom")
	}
}

func TestDisassembleSettings(t *testing.T) {
	h := New()
	out := run(h, "assemble source #12 #1234 ADD2 BRK\n"+
		"set compact true\n"+
		"set disasmlines 2\n"+
		"disassemble $0100\n"+
		"\n")

	checkOutput(t, out, "#12\n#1234\nADD2\nBRK\n")
	if strings.Contains(out, "0100:") {
		t.Errorf("compact mode produced a listing:\n%s", out)
	}
	if !h.settings.CompactMode || h.settings.DisasmLines != 2 {
		t.Errorf("settings not updated: %+v", *h.settings)
	}
}

func TestDisassembleBounds(t *testing.T) {
	h := New()
	checkOutput(t, run(h, "disassemble\n"), "No rom loaded.")

	out := run(h, "assemble source BRK\ndisassemble $0200\n")
	checkOutput(t, out, "Address $0200 is outside the rom.")
}

func TestSet(t *testing.T) {
	h := New()
	out := run(h, "set\n"+
		"set verbose on\n"+
		"set nextdisasmaddr $0180\n"+
		"set bogus 1\n"+
		"set disasmlines x\n")

	checkOutput(t, out,
		"Variables:",
		"NextDisasmAddr   $0100",
		"setting 'bogus' not found",
		"invalid number 'x'")
	if !h.settings.Verbose || h.settings.NextDisasmAddr != 0x0180 {
		t.Errorf("settings not updated: %+v", *h.settings)
	}
}

func TestVerboseAssembly(t *testing.T) {
	h := New()
	out := run(h, "set verbose true\nassemble source @main #01\n")
	checkOutput(t, out, "@main", "Assembled 2 bytes")
}

func TestAssembleFileAndLoad(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.tal")
	if err := os.WriteFile(src, []byte("|0100 @main ;text BRK @text \"hi"), 0644); err != nil {
		t.Fatal(err)
	}

	h := New()
	out := run(h, "assemble file "+src+"\nsymbols te\n")
	checkOutput(t, out,
		"Assembled 'hello.tal'",
		"Loaded 'hello.rom' to $0100..$0105.",
		"Loaded 2 symbols from 'hello.rom.sym'.",
		"text")
	if strings.Contains(out, "    main") {
		t.Errorf("symbol prefix not applied:\n%s", out)
	}

	h = New()
	out = run(h, "load "+filepath.Join(dir, "hello")+"\ndisassemble\n")
	checkOutput(t, out, "@main\n0100:  a00104    LIT2 0104\n")
	if s, ok := h.symbols.Lookup("text"); !ok || s.Addr != 0x0104 {
		t.Errorf("text = %v,%v", s, ok)
	}
}

func TestAssembleFileError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.tal")
	if err := os.WriteFile(src, []byte("@dup\n@dup"), 0644); err != nil {
		t.Fatal(err)
	}

	out := run(New(), "assemble file "+src+"\n")
	checkOutput(t, out, "duplicate label", "Failed to assemble 'bad.tal'.")
	if _, err := os.Stat(filepath.Join(dir, "bad.rom")); err == nil {
		t.Error("rom written for a failed assembly")
	}
}

func TestDevices(t *testing.T) {
	out := run(New(), "devices\ndevices console\ndevices nothing\n")
	checkOutput(t, out,
		"Console",
		".Console/write",
		"$18",
		"Device 'nothing' not found.")
}

func TestTokens(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "t.tal")
	if err := os.WriteFile(src, []byte("#12 ADD"), 0644); err != nil {
		t.Fatal(err)
	}

	var b bytes.Buffer
	if err := DumpTokens(&b, src, New().devices, false); err != nil {
		t.Fatal(err)
	}
	checkOutput(t, b.String(), "Text:", `"#12"`, `"ADD"`)

	out := run(New(), "tokens "+filepath.Join(dir, "missing.tal")+"\n")
	checkOutput(t, out, "file read error")
}

func TestHelp(t *testing.T) {
	out := run(New(), "help\nhelp assemble\nhelp load\n")
	checkOutput(t, out,
		"gotal commands:",
		"Assemble commands",
		"assemble commands:",
		"Assemble source typed on the command line",
		"Usage: load <filename>")

	out = run(New(), "help frobnicate\nassemble source\n")
	checkOutput(t, out,
		"Command not found.",
		"Usage: assemble source <tal>...")
}

func TestQuit(t *testing.T) {
	out := run(New(), "quit\nassemble source BRK\n")
	if strings.Contains(out, "Assembled") {
		t.Errorf("commands ran after quit:\n%s", out)
	}
}

func TestRepeatCommand(t *testing.T) {
	h := New()
	out := run(h, "assemble source #01 #02 #03\ndisassemble $0100 1\n\n\n")
	checkOutput(t, out, "0100:  8001", "0102:  8002", "0104:  8003")
}

func TestUnknownCommand(t *testing.T) {
	checkOutput(t, run(New(), "frobnicate\n"), "Command not found.")
}
