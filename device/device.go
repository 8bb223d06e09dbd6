// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package device describes the memory-mapped device ports of the Varvara
// computer. Each device occupies a slice of the device page, and each of
// its named fields sits at a fixed offset from the device's base address.
package device

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errors
var (
	ErrUnknownDevice = errors.New("unknown device")
	ErrFieldExists   = errors.New("field already defined")
	ErrPageOverflow  = errors.New("field exceeds device page")
)

// A Field is a named port within a device.
type Field struct {
	Name string
	Size int
}

// A Device is a named group of ports starting at a base address.
type Device struct {
	Name   string
	Addr   uint16
	Fields []Field

	offsets map[string]uint16
}

// FieldAddr returns the absolute address of one of the device's fields.
func (d *Device) FieldAddr(field string) (uint16, bool) {
	off, ok := d.offsets[field]
	if !ok {
		return 0, false
	}
	return d.Addr + off, true
}

// Size returns the number of bytes spanned by the device's fields.
func (d *Device) Size() int {
	n := 0
	for _, f := range d.Fields {
		n += f.Size
	}
	return n
}

func (d *Device) index() error {
	d.offsets = make(map[string]uint16, len(d.Fields))
	off := 0
	for _, f := range d.Fields {
		if f.Name == "" || f.Size <= 0 {
			return fmt.Errorf("device %s: invalid field %q", d.Name, f.Name)
		}
		if _, ok := d.offsets[f.Name]; ok {
			return fmt.Errorf("device %s: %w: %s", d.Name, ErrFieldExists, f.Name)
		}
		if int(d.Addr)+off+f.Size-1 > 0xff {
			return fmt.Errorf("device %s: %w: %s", d.Name, ErrPageOverflow, f.Name)
		}
		d.offsets[f.Name] = uint16(off)
		off += f.Size
	}
	return nil
}

// A Map is an immutable table of devices. It is safe to share between
// concurrent assemblies.
type Map struct {
	devices []*Device
	byName  map[string]*Device
}

// New creates a device map, validating every device's layout.
func New(devices ...Device) (*Map, error) {
	m := &Map{byName: make(map[string]*Device, len(devices))}
	for _, d := range devices {
		if _, ok := m.byName[d.Name]; ok {
			return nil, fmt.Errorf("device %s defined more than once", d.Name)
		}
		dd := &Device{
			Name:   d.Name,
			Addr:   d.Addr,
			Fields: append([]Field(nil), d.Fields...),
		}
		if err := dd.index(); err != nil {
			return nil, err
		}
		m.devices = append(m.devices, dd)
		m.byName[dd.Name] = dd
	}
	sort.SliceStable(m.devices, func(i, j int) bool {
		return m.devices[i].Addr < m.devices[j].Addr
	})
	return m, nil
}

// Varvara returns the standard Varvara device map.
func Varvara() *Map {
	audio := []Field{
		{"vector", 2}, {"position", 2}, {"output", 1}, {"pad", 3},
		{"adsr", 2}, {"length", 2}, {"addr", 2}, {"volume", 1}, {"pitch", 1},
	}
	file := []Field{
		{"vector", 2}, {"success", 2}, {"stat", 2}, {"delete", 1}, {"append", 1},
		{"name", 2}, {"length", 2}, {"read", 2}, {"write", 2},
	}

	m, err := New(
		Device{Name: "System", Addr: 0x00, Fields: []Field{
			{"vector", 2}, {"expansion", 2}, {"wst", 1}, {"rst", 1}, {"metadata", 2},
			{"r", 2}, {"g", 2}, {"b", 2}, {"debug", 1}, {"state", 1},
		}},
		Device{Name: "Console", Addr: 0x10, Fields: []Field{
			{"vector", 2}, {"read", 1}, {"pad", 4}, {"type", 1}, {"write", 1}, {"error", 1},
		}},
		Device{Name: "Screen", Addr: 0x20, Fields: []Field{
			{"vector", 2}, {"width", 2}, {"height", 2}, {"auto", 1}, {"pad", 1},
			{"x", 2}, {"y", 2}, {"addr", 2}, {"pixel", 1}, {"sprite", 1},
		}},
		Device{Name: "Audio0", Addr: 0x30, Fields: audio},
		Device{Name: "Audio1", Addr: 0x40, Fields: audio},
		Device{Name: "Audio2", Addr: 0x50, Fields: audio},
		Device{Name: "Audio3", Addr: 0x60, Fields: audio},
		Device{Name: "Controller", Addr: 0x80, Fields: []Field{
			{"vector", 2}, {"button", 1}, {"key", 1},
		}},
		Device{Name: "Mouse", Addr: 0x90, Fields: []Field{
			{"vector", 2}, {"x", 2}, {"y", 2}, {"state", 1}, {"pad", 3},
			{"scrollx", 2}, {"scrolly", 2},
		}},
		Device{Name: "File0", Addr: 0xa0, Fields: file},
		Device{Name: "File1", Addr: 0xb0, Fields: file},
		Device{Name: "DateTime", Addr: 0xc0, Fields: []Field{
			{"year", 2}, {"month", 1}, {"day", 1}, {"hour", 1}, {"minute", 1},
			{"second", 1}, {"dotw", 1}, {"doty", 2}, {"isdst", 1},
		}},
	)
	if err != nil {
		panic(err)
	}
	return m
}

// Device returns the named device.
func (m *Map) Device(name string) (*Device, bool) {
	d, ok := m.byName[name]
	return d, ok
}

// Devices returns all devices in address order.
func (m *Map) Devices() []*Device {
	return append([]*Device(nil), m.devices...)
}

// Resolve returns the absolute address of a device field.
func (m *Map) Resolve(device, field string) (uint16, bool) {
	d, ok := m.byName[device]
	if !ok {
		return 0, false
	}
	return d.FieldAddr(field)
}

// Lookup resolves a "Device/field" path.
func (m *Map) Lookup(path string) (uint16, bool) {
	device, field, ok := strings.Cut(path, "/")
	if !ok {
		return 0, false
	}
	return m.Resolve(device, field)
}

// Extend returns a copy of the map with additional fields appended to
// an existing device. Fields already present cannot be redefined.
func (m *Map) Extend(device string, fields ...Field) (*Map, error) {
	if _, ok := m.byName[device]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}

	devices := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		dd := Device{Name: d.Name, Addr: d.Addr, Fields: d.Fields}
		if d.Name == device {
			dd.Fields = append(append([]Field(nil), d.Fields...), fields...)
		}
		devices = append(devices, dd)
	}
	return New(devices...)
}
