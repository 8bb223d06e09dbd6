// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "github.com/beevik/gotal/diag"

// A scanner walks a source file one byte at a time, keeping track of the
// line and column of its cursor.
type scanner struct {
	path   string // used only for positions
	src    string // the full source text
	offset int    // byte offset of the cursor
	line   int    // 1-based line of the cursor
	column int    // 1-based column of the cursor
}

func newScanner(path, src string) *scanner {
	return &scanner{path: path, src: src, line: 1, column: 1}
}

func (s *scanner) pos() diag.Position {
	return diag.Position{Path: s.path, Line: s.line, Column: s.column, Offset: s.offset}
}

func (s *scanner) isEmpty() bool {
	return s.offset >= len(s.src)
}

func (s *scanner) peek() byte {
	if s.offset >= len(s.src) {
		return 0
	}
	return s.src[s.offset]
}

// Advance the cursor by one byte.
func (s *scanner) next() byte {
	c := s.src[s.offset]
	s.offset++
	if c == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return c
}

func (s *scanner) skipWhile(fn func(c byte) bool) {
	for !s.isEmpty() && fn(s.peek()) {
		s.next()
	}
}

// Consume bytes until fn returns true, returning the consumed text.
func (s *scanner) consumeUntil(fn func(c byte) bool) string {
	start := s.offset
	for !s.isEmpty() && !fn(s.peek()) {
		s.next()
	}
	return s.src[start:s.offset]
}

//
// character helper functions
//

func whitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func separator(c byte) bool {
	return whitespace(c) || c == '\n'
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

// TAL hex numbers are written in lowercase only.
func hexadecimal(c byte) bool {
	return decimal(c) || (c >= 'a' && c <= 'f')
}

func allHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !hexadecimal(s[i]) {
			return false
		}
	}
	return len(s) > 0
}

func allDecimal(s string) bool {
	for i := 0; i < len(s); i++ {
		if !decimal(s[i]) {
			return false
		}
	}
	return len(s) > 0
}

// Report whether the word is a raw byte or short in hex form.
func rawHex(s string) bool {
	return (len(s) == 2 || len(s) == 4) && allHex(s)
}
