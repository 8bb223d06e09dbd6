// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"

	"github.com/beevik/gotal/diag"
	"github.com/beevik/gotal/opcode"
	"github.com/beevik/gotal/runes"
)

// A NodeKind identifies an assembling construct.
type NodeKind byte

// Node kinds.
const (
	OpcodeNode    NodeKind = iota // single opcode byte
	LiteralNode                   // byte or short, optionally prefixed by LIT
	RawNode                       // raw bytes from strings and characters
	LabelNode                     // label definition
	RefNode                       // label reference
	DeviceNode                    // device port access
	PadNode                       // absolute padding
	PadLabelNode                  // padding to a label's address
	SkipNode                      // relative padding
	SkipLabelNode                 // relative padding by a label's address
	IncludeNode                   // unresolved include
)

var nodeKindName = []string{
	"Opcode",
	"Literal",
	"Raw",
	"Label",
	"Ref",
	"Device",
	"Pad",
	"PadLabel",
	"Skip",
	"SkipLabel",
	"Include",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindName) {
		return nodeKindName[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// A Node is a single assembling construct produced by the parser. Label
// names in nodes are fully qualified.
type Node struct {
	Kind      NodeKind
	Tok       Token      // token the node was parsed from
	Op        byte       // OpcodeNode
	Value     int        // LiteralNode value, PadNode address, SkipNode length
	Short     bool       // LiteralNode width
	Lit       bool       // LiteralNode is preceded by a LIT opcode
	Bytes     []byte     // RawNode
	Name      string     // label, reference target, device or include path
	Field     string     // DeviceNode field
	Rune      runes.Role // RefNode addressing
	Synthetic bool       // LabelNode generated for an anonymous block
}

// Size returns the number of bytes the node emits.
func (n *Node) Size() int {
	switch n.Kind {
	case OpcodeNode:
		return 1
	case LiteralNode:
		size := 1
		if n.Short {
			size = 2
		}
		if n.Lit {
			size++
		}
		return size
	case RawNode:
		return len(n.Bytes)
	case RefNode:
		return runes.Width(n.Rune)
	case DeviceNode:
		return 2
	default:
		return 0
	}
}

const (
	maxMacroDepth  = 64
	maxMacroTokens = 1 << 20
)

type macro struct {
	tok  Token
	body []Token
}

// The parser is a state object used while converting a token stream
// into nodes.
type parser struct {
	macros  map[string]*macro // macro name -> definition
	scope   string            // current @label scope
	lambdas []int             // stack of open anonymous block ids
	nextID  int               // next anonymous block id
	nodes   []Node            // parsed nodes
}

// Parse converts a token stream into assembly nodes. Macros are collected
// and expanded, label names are qualified, and anonymous blocks are
// turned into synthetic labels.
func Parse(tokens []Token) ([]Node, error) {
	p := &parser{macros: make(map[string]*macro)}

	rest, err := p.collectMacros(tokens)
	if err != nil {
		return nil, err
	}

	expanded, err := p.expand(rest, nil, 0)
	if err != nil {
		return nil, err
	}

	if err := p.structure(expanded); err != nil {
		return nil, err
	}
	return p.nodes, nil
}

// Name of the synthetic label created for an anonymous block.
func lambdaName(id int) string {
	return fmt.Sprintf("λ%02x", id)
}

// Report whether a name can never be used as a label or macro.
func reservedName(name string) bool {
	if _, err := opcode.Parse(name); err == nil {
		return true
	}
	return rawHex(name)
}

// Skip tokens that never contribute to assembly.
func ignorable(t *Token) bool {
	switch t.Kind {
	case Comment, Newline, BracketOpen, BracketClose:
		return true
	default:
		return false
	}
}

// Remove macro definitions from the token stream, storing their bodies.
func (p *parser) collectMacros(tokens []Token) ([]Token, error) {
	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Kind != MacroDef {
			out = append(out, t)
			continue
		}

		if reservedName(t.Name) {
			return nil, t.errorf(diag.SyntaxError, "invalid macro name '%s'", t.Name)
		}
		if _, ok := p.macros[t.Name]; ok {
			return nil, t.errorf(diag.DuplicateLabel, "macro '%s' already defined", t.Name)
		}

		// Find the opening brace of the body.
		i++
		for i < len(tokens) && (tokens[i].Kind == Comment || tokens[i].Kind == Newline) {
			i++
		}
		if i >= len(tokens) || tokens[i].Kind != BraceOpen || tokens[i].Rune != runes.Call {
			return nil, t.errorf(diag.SyntaxError, "macro '%s' has no body", t.Name)
		}

		m := &macro{tok: t}
		depth := 1
		for i++; i < len(tokens); i++ {
			b := tokens[i]
			switch b.Kind {
			case BraceOpen:
				depth++
			case BraceClose:
				depth--
			case MacroDef:
				return nil, b.errorf(diag.SyntaxError, "macro '%s' defined inside macro '%s'", b.Name, t.Name)
			case EOF:
				return nil, t.errorf(diag.SyntaxError, "macro '%s' body is not terminated", t.Name)
			}
			if depth == 0 {
				break
			}
			if b.Kind != Comment && b.Kind != Newline {
				m.body = append(m.body, b)
			}
		}
		if depth != 0 {
			return nil, t.errorf(diag.SyntaxError, "macro '%s' body is not terminated", t.Name)
		}
		p.macros[t.Name] = m
	}
	return out, nil
}

// Substitute macro bodies for macro calls, recursively.
func (p *parser) expand(tokens, out []Token, depth int) ([]Token, error) {
	for _, t := range tokens {
		if t.Kind != MacroCall {
			out = append(out, t)
			continue
		}
		m, ok := p.macros[t.Name]
		if !ok {
			out = append(out, t)
			continue
		}
		if depth >= maxMacroDepth {
			return nil, t.errorf(diag.Internal, "macro '%s' expands too deeply", t.Name)
		}
		var err error
		out, err = p.expand(m.body, out, depth+1)
		if err != nil {
			return nil, err
		}
		if len(out) > maxMacroTokens {
			return nil, t.errorf(diag.Internal, "macro '%s' expands to too many tokens", t.Name)
		}
	}
	return out, nil
}

// Qualify a label name relative to the current scope.
func (p *parser) qualify(t *Token, name string) (string, error) {
	if name[0] != '&' && name[0] != '/' {
		return name, nil
	}
	if p.scope == "" {
		return "", t.errorf(diag.LabelReferenceError, "sublabel '%s' used outside of a label scope", name)
	}
	if len(name) == 1 {
		return "", t.errorf(diag.ExpectedIdentifierError, "expected sublabel name after '%c'", name[0])
	}
	return p.scope + "/" + name[1:], nil
}

// Check that a label name can be defined.
func checkLabelName(t *Token, name string) error {
	if reservedName(name) || strings.HasPrefix(name, "λ") {
		return t.errorf(diag.SyntaxError, "invalid label name '%s'", name)
	}
	return nil
}

func (p *parser) add(n Node) {
	p.nodes = append(p.nodes, n)
}

// Convert the expanded token stream into nodes.
func (p *parser) structure(tokens []Token) error {
	for i := range tokens {
		t := &tokens[i]
		if ignorable(t) {
			continue
		}

		switch t.Kind {
		case Instruction:
			p.add(Node{Kind: OpcodeNode, Tok: *t, Op: t.Op})

		case HexLiteral, DecLiteral:
			p.add(Node{Kind: LiteralNode, Tok: *t, Value: t.Value, Short: t.Short, Lit: true})

		case RawHex, RawDec:
			p.add(Node{Kind: LiteralNode, Tok: *t, Value: t.Value, Short: t.Short})

		case CharLiteral, RawString:
			p.add(Node{Kind: RawNode, Tok: *t, Bytes: t.Bytes})

		case LabelDef:
			if err := checkLabelName(t, t.Name); err != nil {
				return err
			}
			p.scope = t.Name
			p.add(Node{Kind: LabelNode, Tok: *t, Name: t.Name})

		case SublabelDef:
			if p.scope == "" {
				return t.errorf(diag.LabelReferenceError, "sublabel '&%s' defined outside of a label scope", t.Name)
			}
			if err := checkLabelName(t, t.Name); err != nil {
				return err
			}
			p.add(Node{Kind: LabelNode, Tok: *t, Name: p.scope + "/" + t.Name})

		case LabelRef, MacroCall:
			role := t.Rune
			if t.Kind == MacroCall {
				role = runes.Call
			}
			name, err := p.qualify(t, t.Name)
			if err != nil {
				return err
			}
			p.add(Node{Kind: RefNode, Tok: *t, Name: name, Rune: role})

		case DeviceAccess:
			p.add(Node{Kind: DeviceNode, Tok: *t, Name: t.Name, Field: t.Field})

		case Padding:
			p.add(Node{Kind: PadNode, Tok: *t, Value: t.Value})

		case PaddingLabel:
			name, err := p.qualify(t, t.Name)
			if err != nil {
				return err
			}
			p.add(Node{Kind: PadLabelNode, Tok: *t, Name: name})

		case Skip:
			p.add(Node{Kind: SkipNode, Tok: *t, Value: t.Value})

		case SkipLabel:
			name, err := p.qualify(t, t.Name)
			if err != nil {
				return err
			}
			p.add(Node{Kind: SkipLabelNode, Tok: *t, Name: name})

		case Include:
			p.add(Node{Kind: IncludeNode, Tok: *t, Name: t.Name})

		case BraceOpen:
			id := p.nextID
			p.nextID++
			p.lambdas = append(p.lambdas, id)
			p.add(Node{Kind: RefNode, Tok: *t, Name: lambdaName(id), Rune: t.Rune})

		case BraceClose:
			if len(p.lambdas) == 0 {
				return t.errorf(diag.SyntaxError, "unbalanced '}'")
			}
			id := p.lambdas[len(p.lambdas)-1]
			p.lambdas = p.lambdas[:len(p.lambdas)-1]
			p.add(Node{Kind: LabelNode, Tok: *t, Name: lambdaName(id), Synthetic: true})

		case EOF:
			return p.checkBalanced()

		default:
			return t.errorf(diag.Internal, "unexpected %s token", t.Kind)
		}
	}
	return p.checkBalanced()
}

func (p *parser) checkBalanced() error {
	if len(p.lambdas) == 0 {
		return nil
	}
	id := p.lambdas[len(p.lambdas)-1]
	for _, n := range p.nodes {
		if n.Kind == RefNode && n.Name == lambdaName(id) {
			return n.Tok.errorf(diag.SyntaxError, "unbalanced '{'")
		}
	}
	return diag.New(diag.SyntaxError, "unbalanced '{'")
}
