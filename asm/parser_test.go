// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/beevik/gotal/diag"
	"github.com/beevik/gotal/runes"
)

func parse(t *testing.T, src string) []Node {
	t.Helper()
	tokens, err := Lex(src, "parse.tal", nil)
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	return nodes
}

func TestParseScopes(t *testing.T) {
	nodes := parse(t, "@main &loop ,&loop /loop @other ;main/loop |&loop")

	expected := []struct {
		kind NodeKind
		name string
		role runes.Role
	}{
		{LabelNode, "main", runes.None},
		{LabelNode, "main/loop", runes.None},
		{RefNode, "main/loop", runes.Relative},
		{RefNode, "main/loop", runes.Call},
		{LabelNode, "other", runes.None},
		{RefNode, "main/loop", runes.Absolute},
		{PadLabelNode, "other/loop", runes.None},
	}
	if len(nodes) != len(expected) {
		t.Fatalf("got %d nodes, expected %d", len(nodes), len(expected))
	}
	for i, e := range expected {
		n := nodes[i]
		if n.Kind != e.kind || n.Name != e.name || n.Rune != e.role {
			t.Errorf("node %d: got %s %q %s, expected %s %q %s",
				i, n.Kind, n.Name, n.Rune, e.kind, e.name, e.role)
		}
	}
}

func TestParseLambdas(t *testing.T) {
	nodes := parse(t, "{ ?{ } !{ } }")

	expected := []struct {
		kind NodeKind
		name string
	}{
		{RefNode, "λ00"},
		{RefNode, "λ01"},
		{LabelNode, "λ01"},
		{RefNode, "λ02"},
		{LabelNode, "λ02"},
		{LabelNode, "λ00"},
	}
	for i, e := range expected {
		if nodes[i].Kind != e.kind || nodes[i].Name != e.name {
			t.Errorf("node %d: got %s %q, expected %s %q", i, nodes[i].Kind, nodes[i].Name, e.kind, e.name)
		}
	}
	if nodes[1].Rune != runes.JumpConditional || nodes[3].Rune != runes.JumpImmediate {
		t.Errorf("lambda runes %s %s", nodes[1].Rune, nodes[3].Rune)
	}
	if !nodes[5].Synthetic {
		t.Error("lambda label is not synthetic")
	}
}

func TestParseLambdaScope(t *testing.T) {
	// Closing a lambda does not change the current label scope.
	nodes := parse(t, "@main { } &after")
	last := nodes[len(nodes)-1]
	if last.Name != "main/after" {
		t.Errorf("got %q", last.Name)
	}
}

func TestParseMacros(t *testing.T) {
	nodes := parse(t, "%INCR { #0001 ADD2 } %TWICE { INCR INCR } TWICE")
	if len(nodes) != 4 {
		t.Fatalf("got %d nodes", len(nodes))
	}
	for i, kind := range []NodeKind{LiteralNode, OpcodeNode, LiteralNode, OpcodeNode} {
		if nodes[i].Kind != kind {
			t.Errorf("node %d: got %s, expected %s", i, nodes[i].Kind, kind)
		}
	}
	if !nodes[0].Lit || !nodes[0].Short || nodes[0].Value != 1 {
		t.Errorf("literal %+v", nodes[0])
	}
}

func TestParseMacroDepth(t *testing.T) {
	tokens, err := Lex("%A { B } %B { A } A", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Parse(tokens)
	if !diag.Is(err, diag.Internal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestParseSizes(t *testing.T) {
	nodes := parse(t, `ADD #12 #1234 12 1234 "abc .x ,x ;x -x _x =x !x ?x x`)
	sizes := []int{1, 2, 3, 1, 2, 3, 2, 2, 3, 1, 1, 2, 3, 3, 3}
	if len(nodes) != len(sizes) {
		t.Fatalf("got %d nodes", len(nodes))
	}
	for i, size := range sizes {
		if nodes[i].Size() != size {
			t.Errorf("node %d (%s): size %d, expected %d", i, nodes[i].Tok.Text, nodes[i].Size(), size)
		}
	}
}

func TestParseIgnoresTrivia(t *testing.T) {
	nodes := parse(t, "( comment )\n[ BRK ]\n")
	if len(nodes) != 1 || nodes[0].Kind != OpcodeNode {
		t.Errorf("got %v", nodes)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind diag.Kind
	}{
		{"%M #01", diag.SyntaxError},
		{"%M { #01", diag.SyntaxError},
		{"%M { %N { } }", diag.SyntaxError},
		{"%ADD2 { }", diag.SyntaxError},
		{"%M { } %M { }", diag.DuplicateLabel},
		{"&orphan", diag.LabelReferenceError},
		{";&orphan", diag.LabelReferenceError},
		{"|&orphan", diag.LabelReferenceError},
		{"@main ;&", diag.ExpectedIdentifierError},
		{"@beef", diag.SyntaxError},
		{"@main &INC", diag.SyntaxError},
		{"{ { }", diag.SyntaxError},
		{"{ } }", diag.SyntaxError},
	}
	for _, test := range tests {
		tokens, err := Lex(test.src, "", nil)
		if err != nil {
			t.Errorf("%q: lex error %v", test.src, err)
			continue
		}
		_, err = Parse(tokens)
		if !diag.Is(err, test.kind) {
			t.Errorf("%q: expected %s, got %v", test.src, test.kind, err)
		}
	}
}
