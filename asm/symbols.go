// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/gotal/diag"
)

// A Symbol is a label and the address it was assigned.
type Symbol struct {
	Name string
	Addr uint16
	Size int           // inferred distance to the next symbol
	Pos  diag.Position // where the label was defined, if known
}

// Symbols is a table of labels in definition order.
type Symbols struct {
	list   []Symbol
	byName map[string]int
	byAddr []int // indexes into list, sorted by address
}

// Build a symbol table. Sizes are inferred from the distance between
// consecutive addresses, with the last symbol running to end. Zero-page
// symbols never run past the zero page.
func newSymbols(list []Symbol, end int) *Symbols {
	s := &Symbols{
		list:   list,
		byName: make(map[string]int, len(list)),
		byAddr: make([]int, len(list)),
	}
	for i, sym := range list {
		if _, ok := s.byName[sym.Name]; !ok {
			s.byName[sym.Name] = i
		}
		s.byAddr[i] = i
	}
	sort.SliceStable(s.byAddr, func(a, b int) bool {
		return list[s.byAddr[a]].Addr < list[s.byAddr[b]].Addr
	})

	for k, i := range s.byAddr {
		addr := int(list[i].Addr)
		limit := end
		if addr < romStart {
			limit = romStart
		}
		for _, j := range s.byAddr[k+1:] {
			if next := int(list[j].Addr); next > addr {
				limit = min(limit, next)
				break
			}
		}
		list[i].Size = max(0, limit-addr)
	}
	return s
}

// Len returns the number of symbols.
func (s *Symbols) Len() int {
	return len(s.list)
}

// All returns the symbols in definition order.
func (s *Symbols) All() []Symbol {
	return append([]Symbol(nil), s.list...)
}

// Lookup returns the symbol with the given name.
func (s *Symbols) Lookup(name string) (Symbol, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Symbol{}, false
	}
	return s.list[i], true
}

// At returns the first symbol defined at an address.
func (s *Symbols) At(addr uint16) (Symbol, bool) {
	k := sort.Search(len(s.byAddr), func(k int) bool {
		return s.list[s.byAddr[k]].Addr >= addr
	})
	if k < len(s.byAddr) && s.list[s.byAddr[k]].Addr == addr {
		return s.list[s.byAddr[k]], true
	}
	return Symbol{}, false
}

// Label returns the name of the first symbol defined at an address.
func (s *Symbols) Label(addr uint16) (string, bool) {
	sym, ok := s.At(addr)
	return sym.Name, ok
}

// WriteText writes the symbols as lines of the form "name addr", with
// the address in four lowercase hex digits.
func (s *Symbols) WriteText(w io.Writer) (n int64, err error) {
	bw := bufio.NewWriter(w)
	for _, sym := range s.list {
		nn, err := fmt.Fprintf(bw, "%s %04x\n", sym.Name, sym.Addr)
		n += int64(nn)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ReadText reads symbols written by WriteText.
func (s *Symbols) ReadText(r io.Reader) (n int64, err error) {
	var list []Symbol
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		n += int64(len(sc.Bytes()) + 1)
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return n, diag.New(diag.FileReadError, "symbols line %d: expected name and address", line)
		}
		addr, err := strconv.ParseUint(fields[1], 16, 16)
		if err != nil {
			return n, diag.New(diag.FileReadError, "symbols line %d: invalid address '%s'", line, fields[1])
		}
		list = append(list, Symbol{Name: fields[0], Addr: uint16(addr)})
	}
	if err := sc.Err(); err != nil {
		return n, diag.New(diag.FileReadError, "cannot read symbols").Wrap(err)
	}
	*s = *newSymbols(list, lastAddr(list))
	return n, nil
}

// WriteTo writes the symbols in the binary symbol file format: for each
// symbol, a big-endian 16-bit address followed by the NUL-terminated
// name.
func (s *Symbols) WriteTo(w io.Writer) (n int64, err error) {
	var b bytes.Buffer
	for _, sym := range s.list {
		b.WriteByte(byte(sym.Addr >> 8))
		b.WriteByte(byte(sym.Addr))
		b.WriteString(sym.Name)
		b.WriteByte(0)
	}
	nn, err := w.Write(b.Bytes())
	return int64(nn), err
}

// ReadFrom reads symbols in the binary symbol file format.
func (s *Symbols) ReadFrom(r io.Reader) (n int64, err error) {
	b, err := io.ReadAll(r)
	n = int64(len(b))
	if err != nil {
		return n, diag.New(diag.FileReadError, "cannot read symbols").Wrap(err)
	}

	var list []Symbol
	for len(b) > 0 {
		if len(b) < 3 {
			return n, diag.New(diag.FileReadError, "symbol file truncated")
		}
		addr := uint16(b[0])<<8 | uint16(b[1])
		end := bytes.IndexByte(b[2:], 0)
		if end < 0 {
			return n, diag.New(diag.FileReadError, "symbol file truncated")
		}
		list = append(list, Symbol{Name: string(b[2 : 2+end]), Addr: addr})
		b = b[3+end:]
	}
	*s = *newSymbols(list, lastAddr(list))
	return n, nil
}

func lastAddr(list []Symbol) int {
	end := 0
	for _, sym := range list {
		end = max(end, int(sym.Addr))
	}
	return end
}
