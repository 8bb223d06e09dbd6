// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"

	"github.com/beevik/gotal/diag"
	"github.com/beevik/gotal/runes"
)

// A TokenKind identifies the lexical category of a token.
type TokenKind byte

// Token kinds.
const (
	Instruction  TokenKind = iota // opcode with modes: ADD2k
	HexLiteral                    // #12, #1234
	DecLiteral                    // #+42
	CharLiteral                   // 'a
	RawHex                        // 12, 1234
	RawDec                        // +42
	LabelDef                      // @label
	SublabelDef                   // &sublabel
	LabelRef                      // .label ,label ;label -label _label =label !label ?label
	Padding                       // |0100
	PaddingLabel                  // |label
	Skip                          // $2
	SkipLabel                     // $label
	DeviceAccess                  // .Console/write
	MacroDef                      // %name
	MacroCall                     // bare word
	RawString                     // "text
	Include                       // ~file.tal
	Comment                       // ( ... )
	BracketOpen                   // [
	BracketClose                  // ]
	BraceOpen                     // { ?{ !{
	BraceClose                    // }
	Newline
	EOF
)

var tokenKindName = []string{
	"Instruction",
	"HexLiteral",
	"DecLiteral",
	"CharLiteral",
	"RawHex",
	"RawDec",
	"LabelDef",
	"SublabelDef",
	"LabelRef",
	"Padding",
	"PaddingLabel",
	"Skip",
	"SkipLabel",
	"DeviceAccess",
	"MacroDef",
	"MacroCall",
	"RawString",
	"Include",
	"Comment",
	"BracketOpen",
	"BracketClose",
	"BraceOpen",
	"BraceClose",
	"Newline",
	"EOF",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindName) {
		return tokenKindName[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// A Token is a single lexical element of TAL source, along with the
// values decoded from it.
type Token struct {
	Kind  TokenKind
	Text  string        // source text of the token
	Pos   diag.Position // location of the token's first character
	Rune  runes.Role    // addressing role of references and braces
	Name  string        // label, macro, device or include name
	Field string        // device field of a DeviceAccess
	Value int           // numeric value of literals, padding and skips
	Short bool          // literal is two bytes wide
	Op    byte          // opcode byte of an Instruction
	Bytes []byte        // raw bytes of strings and characters

	src string // full text of the source file containing the token
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q %d:%d", t.Kind, t.Text, t.Pos.Line, t.Pos.Column)
}

// Create an error located at the token.
func (t Token) errorf(kind diag.Kind, format string, args ...any) *diag.Error {
	return diag.At(kind, t.Pos, t.src, format, args...)
}
