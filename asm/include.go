// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"io/fs"
	"path"

	"github.com/beevik/gotal/device"
	"github.com/beevik/gotal/diag"
	"github.com/golang/glog"
)

type includer struct {
	fsys    fs.FS
	devices *device.Map
	active  map[string]bool // files currently being included
}

// ResolveIncludes replaces every include token with the tokens of the
// file it names. Include paths are relative to the directory of the
// including file, and files are read from fsys. Included files may
// themselves include other files, but not cyclically.
func ResolveIncludes(tokens []Token, fsys fs.FS, devices *device.Map) ([]Token, error) {
	r := &includer{
		fsys:    fsys,
		devices: devices,
		active:  make(map[string]bool),
	}
	if len(tokens) > 0 {
		r.active[path.Clean(tokens[0].Pos.Path)] = true
	}
	return r.resolve(tokens, make([]Token, 0, len(tokens)))
}

func (r *includer) resolve(tokens, out []Token) ([]Token, error) {
	for _, t := range tokens {
		if t.Kind != Include {
			out = append(out, t)
			continue
		}

		p := path.Join(path.Dir(t.Pos.Path), t.Name)
		if r.active[p] {
			return nil, t.errorf(diag.Internal, "include cycle through '%s'", p)
		}

		b, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			return nil, t.errorf(diag.FileReadError, "cannot read '%s'", t.Name).Wrap(err)
		}
		glog.V(2).Infof("including %s (%d bytes) from %s", p, len(b), t.Pos)

		included, err := Lex(string(b), p, r.devices)
		if err != nil {
			return nil, err
		}

		// Drop the included file's EOF token.
		included = included[:len(included)-1]

		r.active[p] = true
		out, err = r.resolve(included, out)
		delete(r.active, p)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
