// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorString(t *testing.T) {
	src := "|0100\n\t#12 ;nowhere\nBRK"
	e := At(UndefinedLabel, Position{Path: "a.tal", Line: 2, Column: 6, Offset: 11}, src, "'%s'", "nowhere")

	if got, exp := e.Error(), "a.tal:2:6: undefined label: 'nowhere'"; got != exp {
		t.Errorf("got %q, expected %q", got, exp)
	}
	if e.Source != "\t#12 ;nowhere" {
		t.Errorf("source line %q", e.Source)
	}

	var b bytes.Buffer
	e.Report(&b)
	exp := "a.tal:2:6: undefined label: 'nowhere'\n\t#12 ;nowhere\n------------^\n"
	if b.String() != exp {
		t.Errorf("report:\n%s\nexpected:\n%s", b.String(), exp)
	}
}

func TestErrorWithoutPosition(t *testing.T) {
	e := New(RomTooLarge, "%d bytes", 70000)
	if got, exp := e.Error(), "rom too large: 70000 bytes"; got != exp {
		t.Errorf("got %q, expected %q", got, exp)
	}
}

func TestIsAndUnwrap(t *testing.T) {
	e := New(FileReadError, "cannot read 'x.tal'").Wrap(fs.ErrNotExist)
	wrapped := fmt.Errorf("assembling: %w", e)

	if !Is(wrapped, FileReadError) {
		t.Error("Is failed through wrapping")
	}
	if Is(wrapped, SyntaxError) {
		t.Error("Is matched the wrong kind")
	}
	if !errors.Is(wrapped, fs.ErrNotExist) {
		t.Error("cause not reachable through Unwrap")
	}
	if k, ok := KindOf(wrapped); !ok || k != FileReadError {
		t.Errorf("KindOf = %v,%v", k, ok)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf matched a plain error")
	}
}

func TestLineAt(t *testing.T) {
	src := "one\r\ntwo\nthree"
	tests := []struct {
		offset int
		line   string
	}{
		{0, "one"},
		{2, "one"},
		{5, "two"},
		{9, "three"},
		{len(src), "three"},
		{-1, ""},
	}
	for _, test := range tests {
		if got := LineAt(src, test.offset); got != test.line {
			t.Errorf("LineAt(%d) = %q, expected %q", test.offset, got, test.line)
		}
	}
}
