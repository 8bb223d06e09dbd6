// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runes classifies the punctuation characters that carry lexical
// or addressing meaning in TAL source.
package runes

import "github.com/beevik/gotal/opcode"

// A Role describes what a rune means when it starts a word.
type Role byte

// Rune roles.
const (
	None Role = iota
	Padding
	Skip
	LabelDef
	SublabelDef
	Macro
	Include
	CommentOpen
	CommentClose
	BracketOpen
	BracketClose
	BraceOpen
	BraceClose
	HexLiteral
	CharLiteral
	RawString
	Decimal

	// Reference runes.
	ZeroPage
	Relative
	Absolute
	RawZeroPage
	RawRelative
	RawAbsolute
	JumpImmediate
	JumpConditional

	// Bare words that resolve to labels are immediate calls.
	Call

	Reserved
)

var roleName = []string{
	"none",
	"padding",
	"skip",
	"label",
	"sublabel",
	"macro",
	"include",
	"comment-open",
	"comment-close",
	"bracket-open",
	"bracket-close",
	"brace-open",
	"brace-close",
	"literal",
	"char",
	"string",
	"decimal",
	"zero-page",
	"relative",
	"absolute",
	"raw-zero-page",
	"raw-relative",
	"raw-absolute",
	"jump",
	"jump-conditional",
	"call",
	"reserved",
}

func (r Role) String() string {
	if int(r) < len(roleName) {
		return roleName[r]
	}
	return "unknown"
}

var table = [128]Role{
	'|':  Padding,
	'$':  Skip,
	'@':  LabelDef,
	'&':  SublabelDef,
	'%':  Macro,
	'~':  Include,
	'(':  CommentOpen,
	')':  CommentClose,
	'[':  BracketOpen,
	']':  BracketClose,
	'{':  BraceOpen,
	'}':  BraceClose,
	'#':  HexLiteral,
	'\'': CharLiteral,
	'"':  RawString,
	'+':  Decimal,
	'.':  ZeroPage,
	',':  Relative,
	';':  Absolute,
	'-':  RawZeroPage,
	'_':  RawRelative,
	'=':  RawAbsolute,
	'!':  JumpImmediate,
	'?':  JumpConditional,
	'`':  Reserved,
	'^':  Reserved,
	':':  Reserved,
	'\\': Reserved,
}

// Classify returns the role of a word's first character.
func Classify(c byte) Role {
	if c >= 128 {
		return None
	}
	return table[c]
}

// Char returns the source character for a reference role, or 0 when the
// role has no rune of its own.
func Char(r Role) byte {
	for c, role := range table {
		if role == r && r != Reserved && r != None {
			return byte(c)
		}
	}
	return 0
}

// IsReference returns true if the role encodes a label reference.
func IsReference(r Role) bool {
	return r >= ZeroPage && r <= Call
}

// IsRelative returns true if the reference is encoded as a signed byte
// offset.
func IsRelative(r Role) bool {
	return r == Relative || r == RawRelative
}

// IsZeroPage returns true if the reference is encoded as a single
// zero-page address byte.
func IsZeroPage(r Role) bool {
	return r == ZeroPage || r == RawZeroPage
}

// IsImmediate returns true if the reference is an immediate jump, whose
// operand is a 16-bit offset relative to the following instruction.
func IsImmediate(r Role) bool {
	return r == JumpImmediate || r == JumpConditional || r == Call
}

// Width returns the number of bytes emitted for a reference, including
// any opcode that precedes the operand.
func Width(r Role) int {
	switch r {
	case RawZeroPage, RawRelative:
		return 1
	case ZeroPage, Relative, RawAbsolute:
		return 2
	case Absolute, JumpImmediate, JumpConditional, Call:
		return 3
	default:
		return 0
	}
}

// OperandWidth returns the width of the operand alone.
func OperandWidth(r Role) int {
	switch r {
	case ZeroPage, Relative, RawZeroPage, RawRelative:
		return 1
	case Absolute, RawAbsolute, JumpImmediate, JumpConditional, Call:
		return 2
	default:
		return 0
	}
}

// Opcode returns the opcode byte emitted ahead of a reference's operand.
// The second result is false for raw references, which emit no opcode.
func Opcode(r Role) (byte, bool) {
	switch r {
	case ZeroPage, Relative:
		return opcode.LIT, true
	case Absolute:
		return opcode.LIT2, true
	case JumpImmediate:
		return opcode.JMI, true
	case JumpConditional:
		return opcode.JCI, true
	case Call:
		return opcode.JSI, true
	default:
		return 0, false
	}
}
