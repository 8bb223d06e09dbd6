// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag defines the errors reported by the TAL toolchain. Every
// error carries a Kind and, when it can be traced to source text, the
// position and verbatim source line where it occurred.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// A Kind classifies an error.
type Kind byte

// Error kinds.
const (
	SyntaxError Kind = iota
	ExpectedIdentifierError
	FileReadError
	UnknownOpcode
	InvalidNumber
	Utf8Error
	UndefinedLabel
	DuplicateLabel
	InvalidAddressing
	RomTooLarge
	InvalidPadding
	LabelReferenceError
	Internal
	Backend
	Disassembly
)

var kindName = []string{
	"syntax error",
	"expected identifier",
	"file read error",
	"unknown opcode",
	"invalid number",
	"invalid utf-8",
	"undefined label",
	"duplicate label",
	"invalid addressing",
	"rom too large",
	"invalid padding",
	"label reference error",
	"internal error",
	"backend error",
	"disassembly error",
}

func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}
	return fmt.Sprintf("error(%d)", int(k))
}

// A Position locates a token within a source file.
type Position struct {
	Path   string // source path, used only for messages
	Line   int    // 1-based line number
	Column int    // 1-based column number
	Offset int    // 0-based byte offset into the source
}

func (p Position) String() string {
	path := p.Path
	if path == "" {
		path = "<input>"
	}
	if p.Line == 0 {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, p.Line, p.Column)
}

// An Error is a single toolchain error.
type Error struct {
	Kind   Kind
	Pos    Position
	Source string // the offending source line, verbatim
	Msg    string
	Err    error // underlying cause, if any
}

// New creates an error that has no source position.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// At creates an error located at a source position. The source text is
// used to extract the offending line.
func At(kind Kind, pos Position, source string, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		Pos:    pos,
		Source: LineAt(source, pos.Offset),
		Msg:    fmt.Sprintf(format, args...),
	}
}

// Wrap attaches an underlying cause to the error and returns it.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Pos.Path == "" && e.Pos.Line == 0:
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		msg = fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Report writes the error followed by the offending source line and a
// caret marking the column.
func (e *Error) Report(w io.Writer) {
	fmt.Fprintln(w, e.Error())
	if e.Source == "" || e.Pos.Column < 1 {
		return
	}
	fmt.Fprintln(w, e.Source)
	fmt.Fprintf(w, "%s^\n", strings.Repeat("-", caretOffset(e.Source, e.Pos.Column-1)))
}

// Expand tabs so the caret lines up with the column when the source
// line is printed.
func caretOffset(line string, col int) int {
	c := 0
	for i := 0; i < col && i < len(line); i++ {
		if line[i] == '\t' {
			c += 8 - (c % 8)
		} else {
			c++
		}
	}
	return c
}

// Is returns true if err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, and false if err is not an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// LineAt returns the full line of source containing the byte offset.
func LineAt(source string, offset int) string {
	if offset < 0 || offset > len(source) {
		return ""
	}
	start := strings.LastIndexByte(source[:offset], '\n') + 1
	end := strings.IndexByte(source[offset:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += offset
	}
	return strings.TrimRight(source[start:end], "\r")
}
