// Copyright 2025 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package testexpr reads relational expressions written as s-expressions,
// so that tests can state plans compactly:
//
//	(union all
//	  (filter (> $0 1) (scan t))
//	  (scan.ITERATOR u))
package testexpr

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Node is one element of an s-expression: an atom or a parenthesized list.
type Node struct {
	// Atom is the text of an atom. Quoted strings keep their quotes.
	Atom string
	// List holds the elements of a list; it is nil for atoms.
	List []*Node
	// Pos is the byte offset of the node in the input.
	Pos int
}

// IsList returns true if n is a parenthesized list.
func (n *Node) IsList() bool { return n.List != nil }

// Head returns the first atom of a list, or "".
func (n *Node) Head() string {
	if len(n.List) == 0 || n.List[0].IsList() {
		return ""
	}
	return n.List[0].Atom
}

func (n *Node) String() string {
	if !n.IsList() {
		return n.Atom
	}
	parts := make([]string, len(n.List))
	for i, c := range n.List {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Parse reads every top-level s-expression of input. Comments run from "--"
// to the end of the line.
func Parse(input string) ([]*Node, error) {
	p := parser{input: input}
	var res []*Node
	for {
		p.skipSpace()
		if p.pos >= len(p.input) {
			return res, nil
		}
		n, err := p.node()
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
}

// ParseOne reads a single s-expression.
func ParseOne(input string) (*Node, error) {
	nodes, err := Parse(input)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, errors.Newf("expected one expression, found %d", len(nodes))
	}
	return nodes[0], nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Newf("at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		switch c := p.input[p.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case strings.HasPrefix(p.input[p.pos:], "--"):
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) node() (*Node, error) {
	start := p.pos
	switch p.input[p.pos] {
	case '(':
		p.pos++
		list := []*Node{}
		for {
			p.skipSpace()
			if p.pos >= len(p.input) {
				return nil, p.errorf("unterminated list starting at offset %d", start)
			}
			if p.input[p.pos] == ')' {
				p.pos++
				return &Node{List: list, Pos: start}, nil
			}
			n, err := p.node()
			if err != nil {
				return nil, err
			}
			list = append(list, n)
		}

	case ')':
		return nil, p.errorf("unexpected )")

	case '\'':
		p.pos++
		for {
			i := strings.IndexByte(p.input[p.pos:], '\'')
			if i < 0 {
				return nil, p.errorf("unterminated string starting at offset %d", start)
			}
			p.pos += i + 1
			// A doubled quote stands for one quote.
			if p.pos < len(p.input) && p.input[p.pos] == '\'' {
				p.pos++
				continue
			}
			return &Node{Atom: p.input[start:p.pos], Pos: start}, nil
		}
	}

	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '(' || c == ')' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	return &Node{Atom: p.input[start:p.pos], Pos: start}, nil
}
