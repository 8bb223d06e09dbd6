// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runes

import "testing"

func TestClassify(t *testing.T) {
	tests := map[byte]Role{
		'|': Padding, '$': Skip, '@': LabelDef, '&': SublabelDef,
		'%': Macro, '~': Include, '(': CommentOpen, ')': CommentClose,
		'[': BracketOpen, ']': BracketClose, '{': BraceOpen, '}': BraceClose,
		'#': HexLiteral, '\'': CharLiteral, '"': RawString, '+': Decimal,
		'.': ZeroPage, ',': Relative, ';': Absolute, '-': RawZeroPage,
		'_': RawRelative, '=': RawAbsolute, '!': JumpImmediate,
		'?': JumpConditional, '^': Reserved, '`': Reserved,
		'a': None, 'Z': None, '0': None, 0xce: None,
	}
	for c, role := range tests {
		if got := Classify(c); got != role {
			t.Errorf("Classify(%q) = %v, expected %v", c, got, role)
		}
	}
}

func TestWidths(t *testing.T) {
	tests := []struct {
		r       Role
		width   int
		operand int
		op      byte
		hasOp   bool
	}{
		{ZeroPage, 2, 1, 0x80, true},
		{Relative, 2, 1, 0x80, true},
		{Absolute, 3, 2, 0xa0, true},
		{RawZeroPage, 1, 1, 0, false},
		{RawRelative, 1, 1, 0, false},
		{RawAbsolute, 2, 2, 0, false},
		{JumpImmediate, 3, 2, 0x40, true},
		{JumpConditional, 3, 2, 0x20, true},
		{Call, 3, 2, 0x60, true},
	}

	for _, test := range tests {
		if !IsReference(test.r) {
			t.Errorf("%v: not a reference", test.r)
		}
		if got := Width(test.r); got != test.width {
			t.Errorf("Width(%v) = %d, expected %d", test.r, got, test.width)
		}
		if got := OperandWidth(test.r); got != test.operand {
			t.Errorf("OperandWidth(%v) = %d, expected %d", test.r, got, test.operand)
		}
		op, ok := Opcode(test.r)
		if op != test.op || ok != test.hasOp {
			t.Errorf("Opcode(%v) = %02x,%v", test.r, op, ok)
		}
		if w, _ := Opcode(test.r); ok && Width(test.r)-OperandWidth(test.r) != 1 {
			t.Errorf("%v: opcode %02x but width mismatch", test.r, w)
		}
	}
}

func TestChar(t *testing.T) {
	if c := Char(Relative); c != ',' {
		t.Errorf("Char(Relative) = %q", c)
	}
	if c := Char(Call); c != 0 {
		t.Errorf("Char(Call) = %q", c)
	}
}
