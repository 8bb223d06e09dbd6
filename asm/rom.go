// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "github.com/beevik/gotal/diag"

// The first address of a uxn program. Memory below it is the zero page,
// which a ROM never contains.
const romStart = 0x0100

const memorySize = 64 * 1024

// A Rom represents the entire 16-bit uxn address space as a singular 64K
// buffer, along with a write cursor and the extent of written memory.
type Rom struct {
	b    [memorySize]byte
	ptr  int // write cursor
	size int // one past the highest address written
}

// NewRom creates an empty ROM with its cursor at address zero.
func NewRom() *Rom {
	return &Rom{}
}

func romTooLarge(addr int) *diag.Error {
	return diag.New(diag.RomTooLarge, "write past end of memory at $%05x", addr)
}

// WriteByte stores a byte at the cursor and advances it.
func (r *Rom) WriteByte(v byte) error {
	if r.ptr >= memorySize {
		return romTooLarge(r.ptr)
	}
	r.b[r.ptr] = v
	r.ptr++
	r.size = max(r.size, r.ptr)
	return nil
}

// WriteShort stores a big-endian 16-bit value at the cursor and advances
// it.
func (r *Rom) WriteShort(v uint16) error {
	if r.ptr+2 > memorySize {
		return romTooLarge(r.ptr)
	}
	if err := r.WriteByte(byte(v >> 8)); err != nil {
		return err
	}
	return r.WriteByte(byte(v))
}

// WriteBytes stores multiple bytes at the cursor and advances it.
func (r *Rom) WriteBytes(b []byte) error {
	if r.ptr+len(b) > memorySize {
		return romTooLarge(r.ptr + len(b))
	}
	for _, v := range b {
		r.WriteByte(v)
	}
	return nil
}

// WriteByteAt stores a byte at an address without moving the cursor.
func (r *Rom) WriteByteAt(addr int, v byte) error {
	if addr < 0 || addr >= memorySize {
		return romTooLarge(addr)
	}
	r.b[addr] = v
	r.size = max(r.size, addr+1)
	return nil
}

// PadTo moves the cursor to an absolute address. The cursor may move
// backwards. Memory is not cleared and the size never shrinks.
func (r *Rom) PadTo(addr int) error {
	if addr < 0 {
		return diag.New(diag.InvalidPadding, "padding to negative address %d", addr)
	}
	if addr > memorySize {
		return romTooLarge(addr)
	}
	r.ptr = addr
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Rom) Skip(n int) error {
	return r.PadTo(r.ptr + n)
}

// Cursor returns the address of the next write.
func (r *Rom) Cursor() int {
	return r.ptr
}

// Size returns one past the highest address written.
func (r *Rom) Size() int {
	return r.size
}

// LoadByte returns the byte at an address.
func (r *Rom) LoadByte(addr uint16) byte {
	return r.b[addr]
}

// Data returns memory from address zero through the highest address
// written.
func (r *Rom) Data() []byte {
	return r.b[:r.size]
}

// Image returns the ROM image: memory from 0x0100 through the highest
// address written. It is empty when nothing was written past the zero
// page.
func (r *Rom) Image() []byte {
	if r.size <= romStart {
		return []byte{}
	}
	b := make([]byte, r.size-romStart)
	copy(b, r.b[romStart:r.size])
	return b
}

// TrimZeros shrinks the size past any trailing zero bytes.
func (r *Rom) TrimZeros() {
	for r.size > romStart && r.b[r.size-1] == 0 {
		r.size--
	}
}
