// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opcode implements the uxn opcode table. Every opcode byte is a
// 5-bit base operation combined with three mode bits: short, return and
// keep.
package opcode

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mode bits OR'd onto a base opcode.
const (
	Short  byte = 0x20
	Return byte = 0x40
	Keep   byte = 0x80

	baseMask byte = 0x1f
)

// Special opcode bytes.
const (
	BRK   byte = 0x00
	JCI   byte = 0x20
	JMI   byte = 0x40
	JSI   byte = 0x60
	LIT   byte = 0x80
	LIT2  byte = 0xa0
	LITr  byte = 0xc0
	LIT2r byte = 0xe0
)

// Errors
var (
	ErrUnknown       = errors.New("unknown opcode")
	ErrDuplicateMode = errors.New("duplicate mode")
	ErrInvalidMode   = errors.New("invalid mode")
	ErrNoModes       = errors.New("opcode takes no modes")
)

// Base mnemonics, indexed by their 5-bit opcode.
var names = [32]string{
	"BRK", "INC", "POP", "NIP", "SWP", "ROT", "DUP", "OVR",
	"EQU", "NEQ", "GTH", "LTH", "JMP", "JCN", "JSR", "STH",
	"LDZ", "STZ", "LDR", "STR", "LDA", "STA", "DEI", "DEO",
	"ADD", "SUB", "MUL", "DIV", "AND", "ORA", "EOR", "SFT",
}

// Opcodes whose encoding is fixed and which accept no mode characters.
var fixed = map[string]byte{
	"BRK": BRK,
	"JCI": JCI,
	"JMI": JMI,
	"JSI": JSI,
}

var bases map[string]byte

func init() {
	bases = make(map[string]byte, len(names))
	for i, n := range names {
		bases[n] = byte(i)
	}
	if len(bases) != len(names) {
		panic("duplicate mnemonic in opcode table")
	}
}

// Encode combines a base opcode and mode flags into an opcode byte.
func Encode(base byte, short, ret, keep bool) byte {
	b := base & baseMask
	if short {
		b |= Short
	}
	if ret {
		b |= Return
	}
	if keep {
		b |= Keep
	}
	return b
}

// Decode splits an opcode byte into its base opcode and mode flags. It is
// the exact inverse of Encode.
func Decode(b byte) (base byte, short, ret, keep bool) {
	return b & baseMask, b&Short != 0, b&Return != 0, b&Keep != 0
}

// Base returns the mnemonic of a 5-bit base opcode.
func Base(base byte) string {
	return names[base&baseMask]
}

// Mnemonics returns the 32 base mnemonics in opcode order.
func Mnemonics() []string {
	m := make([]string, len(names))
	copy(m, names[:])
	return m
}

// Name returns the canonical mnemonic for an opcode byte, including its
// mode suffixes (e.g. "ADD2kr", "LIT2", "JSI").
func Name(b byte) string {
	base, short, ret, keep := Decode(b)
	if base == 0 {
		switch {
		case b == BRK:
			return "BRK"
		case b == JCI:
			return "JCI"
		case b == JMI:
			return "JMI"
		case b == JSI:
			return "JSI"
		}
		keep = false
	}

	var sb strings.Builder
	if base == 0 {
		sb.WriteString("LIT")
	} else {
		sb.WriteString(names[base])
	}
	if short {
		sb.WriteByte('2')
	}
	if keep {
		sb.WriteByte('k')
	}
	if ret {
		sb.WriteByte('r')
	}
	return sb.String()
}

// OperandSize returns the number of inline operand bytes that follow the
// opcode byte in a ROM.
func OperandSize(b byte) int {
	switch b {
	case LIT, LITr:
		return 1
	case LIT2, LIT2r, JCI, JMI, JSI:
		return 2
	default:
		return 0
	}
}

// IsLiteral returns true if the opcode byte is one of the LIT variants.
func IsLiteral(b byte) bool {
	return b&baseMask == 0 && b&Keep != 0
}

// Parse converts an instruction word such as "ADD2k" into its opcode
// byte. Mode characters may appear in any order but only once each.
func Parse(word string) (byte, error) {
	if len(word) < 3 {
		return 0, ErrUnknown
	}
	if b, ok := fixed[word]; ok {
		return b, nil
	}

	mnemonic, modes := word[:3], word[3:]

	var base byte
	lit := false
	switch mnemonic {
	case "LIT":
		lit = true
	default:
		var ok bool
		base, ok = bases[mnemonic]
		if !ok {
			return 0, ErrUnknown
		}
		if _, isFixed := fixed[mnemonic]; isFixed {
			return 0, ErrNoModes
		}
	}

	var short, ret, keep bool
	for i := 0; i < len(modes); i++ {
		switch modes[i] {
		case '2':
			if short {
				return 0, ErrDuplicateMode
			}
			short = true
		case 'r':
			if ret {
				return 0, ErrDuplicateMode
			}
			ret = true
		case 'k':
			if keep || lit {
				return 0, ErrDuplicateMode
			}
			keep = true
		default:
			return 0, ErrInvalidMode
		}
	}

	if lit {
		keep = true
	}
	return Encode(base, short, ret, keep), nil
}

// Resembles returns true if the word is shaped like an instruction: a
// base mnemonic (or LIT) followed by at most three digits or mode
// characters. Words that resemble instructions but fail to Parse are
// malformed instructions rather than label names.
func Resembles(word string) bool {
	if len(word) < 3 || len(word) > 6 {
		return false
	}
	m := word[:3]
	if _, ok := bases[m]; !ok && m != "LIT" {
		return false
	}
	for i := 3; i < len(word); i++ {
		c := word[i]
		if !(c >= '0' && c <= '9') && c != 'k' && c != 'r' {
			return false
		}
	}
	return true
}

// CheckTerminals compares the table's base mnemonics against the
// instruction terminals of a grammar, reporting any name present on only
// one side.
func CheckTerminals(terminals []string) error {
	seen := make(map[string]bool, len(terminals))
	var missing, extra []string
	for _, t := range terminals {
		seen[t] = true
		if _, ok := bases[t]; !ok {
			extra = append(extra, t)
		}
	}
	for _, n := range names {
		if !seen[n] {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	sort.Strings(missing)
	sort.Strings(extra)
	return fmt.Errorf("opcode table mismatch: missing from grammar %v, unknown to encoder %v", missing, extra)
}
