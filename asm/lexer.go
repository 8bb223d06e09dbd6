// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strings"
	"unicode/utf8"

	"github.com/beevik/gotal/device"
	"github.com/beevik/gotal/diag"
	"github.com/beevik/gotal/opcode"
	"github.com/beevik/gotal/runes"
)

// The instruction terminals recognized by the lexer. The list is checked
// against the opcode table when the package is initialized.
var instructionTerminals = []string{
	"BRK", "INC", "POP", "NIP", "SWP", "ROT", "DUP", "OVR",
	"EQU", "NEQ", "GTH", "LTH", "JMP", "JCN", "JSR", "STH",
	"LDZ", "STZ", "LDR", "STR", "LDA", "STA", "DEI", "DEO",
	"ADD", "SUB", "MUL", "DIV", "AND", "ORA", "EOR", "SFT",
}

func init() {
	if err := opcode.CheckTerminals(instructionTerminals); err != nil {
		panic(err)
	}
}

type lexer struct {
	s       *scanner
	devices *device.Map
	tokens  []Token
}

// Lex splits TAL source into a stream of tokens terminated by an EOF
// token. Device field accesses are recognized using the device map,
// which may be nil.
func Lex(src, path string, devices *device.Map) ([]Token, error) {
	if !utf8.ValidString(src) {
		return nil, utf8Error(src, path)
	}

	l := &lexer{
		s:       newScanner(path, src),
		devices: devices,
		tokens:  make([]Token, 0, len(src)/4),
	}

	for {
		l.s.skipWhile(whitespace)
		if l.s.isEmpty() {
			break
		}

		switch l.s.peek() {
		case '\n':
			l.emit(Token{Kind: Newline, Text: "\n", Pos: l.s.pos()})
			l.s.next()
		case '(':
			if err := l.comment(); err != nil {
				return nil, err
			}
		default:
			pos := l.s.pos()
			word := l.s.consumeUntil(separator)
			if err := l.word(word, pos); err != nil {
				return nil, err
			}
		}
	}

	l.emit(Token{Kind: EOF, Pos: l.s.pos()})
	return l.tokens, nil
}

func (l *lexer) emit(t Token) {
	t.src = l.s.src
	l.tokens = append(l.tokens, t)
}

// Scan a comment. Comments nest and may span lines. Only a standalone
// '(' or ')' word changes the nesting depth.
func (l *lexer) comment() error {
	pos := l.s.pos()
	start := l.s.offset
	l.s.consumeUntil(separator)
	depth := 1
	for {
		l.s.skipWhile(separator)
		if l.s.isEmpty() {
			break
		}
		switch l.s.consumeUntil(separator) {
		case "(":
			depth++
		case ")":
			depth--
		}
		if depth == 0 {
			l.emit(Token{Kind: Comment, Text: l.s.src[start:l.s.offset], Pos: pos})
			return nil
		}
	}
	return diag.At(diag.SyntaxError, pos, l.s.src, "unterminated comment")
}

// Classify a single whitespace-delimited word by its first character.
func (l *lexer) word(text string, pos diag.Position) error {
	t := Token{Text: text, Pos: pos, src: l.s.src}
	c, rest := text[0], text[1:]

	role := runes.Classify(c)
	switch role {
	case runes.CommentClose:
		return t.errorf(diag.SyntaxError, "unbalanced ')'")

	case runes.BracketOpen, runes.BracketClose, runes.BraceClose:
		if rest != "" {
			return t.errorf(diag.SyntaxError, "unexpected characters after '%c'", c)
		}
		switch role {
		case runes.BracketOpen:
			t.Kind = BracketOpen
		case runes.BracketClose:
			t.Kind = BracketClose
		default:
			t.Kind = BraceClose
		}

	case runes.BraceOpen:
		if rest != "" {
			return t.errorf(diag.SyntaxError, "unexpected characters after '{'")
		}
		t.Kind, t.Rune = BraceOpen, runes.Call

	case runes.HexLiteral:
		if err := l.literal(&t, rest); err != nil {
			return err
		}

	case runes.CharLiteral:
		if len(rest) != 1 || rest[0] >= utf8.RuneSelf {
			return t.errorf(diag.SyntaxError, "invalid character literal '%s'", text)
		}
		t.Kind, t.Bytes = CharLiteral, []byte{rest[0]}

	case runes.RawString:
		if rest == "" {
			return t.errorf(diag.SyntaxError, "empty string")
		}
		t.Kind, t.Bytes = RawString, []byte(rest)

	case runes.Decimal:
		v, err := l.decimal(&t, rest)
		if err != nil {
			return err
		}
		t.Kind, t.Value, t.Short = RawDec, v, v > 0xff

	case runes.Padding:
		switch {
		case rest == "":
			return t.errorf(diag.ExpectedIdentifierError, "expected address or label after '|'")
		case allHex(rest):
			if len(rest) > 4 {
				return t.errorf(diag.InvalidNumber, "padding '%s' exceeds 16 bits", rest)
			}
			t.Kind, t.Value = Padding, hexValue(rest)
		default:
			t.Kind, t.Name = PaddingLabel, rest
		}

	case runes.Skip:
		switch {
		case rest == "":
			return t.errorf(diag.ExpectedIdentifierError, "expected length or label after '$'")
		case !allHex(rest):
			t.Kind, t.Name = SkipLabel, rest
		case len(rest) > 4:
			return t.errorf(diag.InvalidNumber, "skip length '%s' exceeds 16 bits", rest)
		default:
			t.Kind, t.Value = Skip, hexValue(rest)
		}

	case runes.LabelDef, runes.SublabelDef, runes.Macro, runes.Include:
		if rest == "" {
			return t.errorf(diag.ExpectedIdentifierError, "expected name after '%c'", c)
		}
		switch role {
		case runes.LabelDef:
			t.Kind = LabelDef
		case runes.SublabelDef:
			t.Kind = SublabelDef
		case runes.Macro:
			t.Kind = MacroDef
		default:
			t.Kind = Include
		}
		t.Name = rest

	case runes.Reserved:
		return t.errorf(diag.SyntaxError, "unknown rune '%c'", c)

	case runes.None:
		if err := l.bareWord(&t); err != nil {
			return err
		}

	default:
		if !runes.IsReference(role) {
			return t.errorf(diag.Internal, "unhandled rune '%c'", c)
		}
		if err := l.reference(&t, role, rest); err != nil {
			return err
		}
	}

	l.tokens = append(l.tokens, t)
	return nil
}

// Decode a '#' literal: two or four hex digits, or '+' and a decimal
// number.
func (l *lexer) literal(t *Token, rest string) error {
	if strings.HasPrefix(rest, "+") {
		v, err := l.decimal(t, rest[1:])
		if err != nil {
			return err
		}
		t.Kind, t.Value, t.Short = DecLiteral, v, v > 0xff
		return nil
	}

	if !rawHex(rest) {
		return t.errorf(diag.SyntaxError, "invalid hex literal '%s'", t.Text)
	}
	t.Kind, t.Value, t.Short = HexLiteral, hexValue(rest), len(rest) == 4
	return nil
}

func (l *lexer) decimal(t *Token, digits string) (int, error) {
	if !allDecimal(digits) {
		return 0, t.errorf(diag.SyntaxError, "invalid decimal number '%s'", t.Text)
	}
	v := decValue(digits)
	if v > 0xffff {
		return 0, t.errorf(diag.InvalidNumber, "decimal number '%s' exceeds 16 bits", digits)
	}
	return v, nil
}

func (l *lexer) reference(t *Token, role runes.Role, rest string) error {
	if rest == "{" && (role == runes.JumpConditional || role == runes.JumpImmediate) {
		t.Kind, t.Rune = BraceOpen, role
		return nil
	}
	if rest == "" {
		return t.errorf(diag.ExpectedIdentifierError, "expected label after '%c'", t.Text[0])
	}

	if role == runes.ZeroPage && l.devices != nil {
		if dev, field, ok := strings.Cut(rest, "/"); ok {
			if _, ok := l.devices.Resolve(dev, field); ok {
				t.Kind, t.Name, t.Field = DeviceAccess, dev, field
				return nil
			}
		}
	}

	t.Kind, t.Rune, t.Name = LabelRef, role, rest
	return nil
}

// Classify a word that starts with no rune: an instruction, a raw hex
// number, or a macro invocation.
func (l *lexer) bareWord(t *Token) error {
	op, err := opcode.Parse(t.Text)
	switch {
	case err == nil:
		t.Kind, t.Op = Instruction, op
	case opcode.Resembles(t.Text):
		return t.errorf(diag.UnknownOpcode, "'%s': %v", t.Text, err)
	case rawHex(t.Text):
		t.Kind, t.Value, t.Short = RawHex, hexValue(t.Text), len(t.Text) == 4
	default:
		t.Kind, t.Name = MacroCall, t.Text
	}
	return nil
}

// Locate the first invalid byte sequence in the source.
func utf8Error(src, path string) error {
	s := newScanner(path, src)
	for !s.isEmpty() {
		r, size := utf8.DecodeRuneInString(src[s.offset:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		for i := 0; i < size; i++ {
			s.next()
		}
	}
	return diag.At(diag.Utf8Error, s.pos(), src, "invalid byte $%02x", s.peek())
}
