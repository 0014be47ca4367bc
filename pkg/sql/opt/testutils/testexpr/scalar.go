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

package testexpr

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/types"
)

// BuildScalar reads a scalar expression over the columns of input:
//
//	$i                    input column i
//	1, 2.5, 'str'         constants; integers, floats and strings are NOT NULL
//	2.50:DECIMAL          exact decimal constant
//	true, false, null
//	(cast x TYPE)
//	(name[:TYPE] args...) function or operator call
//
// Comparisons and logical operators are BOOL and arithmetic operators widen
// their arguments. Other functions are ANY unless their type is given.
func BuildScalar(input opt.RowType, s string) (_ opt.ScalarExpr, err error) {
	n, err := ParseOne(s)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = recoverError(r)
		}
	}()
	var b builder
	return b.buildScalar(n, input), nil
}

var boolOps = map[string]bool{
	"=": true, "<>": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"and": true, "or": true, "not": true, "is-null": true, "like": true,
}

var arithmeticOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
}

func (b *builder) buildScalar(n *Node, input opt.RowType) opt.ScalarExpr {
	if !n.IsList() {
		return b.buildAtom(n, input)
	}
	if n.Head() == "" {
		b.errorf(n, "expected a scalar expression")
	}

	if n.Head() == "cast" {
		if len(n.List) != 3 {
			b.errorf(n, "expected (cast x TYPE)")
		}
		x := b.buildScalar(n.List[1], input)
		fam, err := types.FamilyFromString(b.atom(n.List[2]))
		if err != nil {
			panic(builderError{err})
		}
		return opt.NewCast(x, types.T{Family: fam, Nullable: x.Type().Nullable})
	}

	name, typ, hasType := b.splitType(n.List[0])
	call := &opt.Call{Name: name}
	nullable := false
	for _, a := range n.List[1:] {
		arg := b.buildScalar(a, input)
		nullable = nullable || arg.Type().Nullable
		call.Args = append(call.Args, arg)
	}
	switch {
	case hasType:
		call.Typ = typ
	case boolOps[name]:
		call.Typ = types.Bool.WithNullable(nullable && name != "is-null")
	case arithmeticOps[name]:
		argTypes := make([]types.T, len(call.Args))
		for i, a := range call.Args {
			argTypes[i] = a.Type()
		}
		t, ok := types.LeastRestrictive(argTypes...)
		if !ok {
			b.errorf(n, "incompatible operand types for %s", name)
		}
		call.Typ = t
	default:
		call.Typ = types.Any
	}
	return call
}

func (b *builder) buildAtom(n *Node, input opt.RowType) opt.ScalarExpr {
	s := n.Atom
	switch {
	case strings.HasPrefix(s, "$"):
		i, err := strconv.Atoi(s[1:])
		if err != nil || i < 0 || i >= len(input) {
			b.errorf(n, "no input column %s in %s", s, input)
		}
		return opt.NewVariable(input, i)

	case strings.HasPrefix(s, "'"):
		str := strings.ReplaceAll(s[1:len(s)-1], "''", "'")
		return &opt.Const{Value: str, Typ: types.String.NotNull()}

	case s == "true" || s == "false":
		return &opt.Const{Value: s == "true", Typ: types.Bool.NotNull()}

	case s == "null":
		return &opt.Const{Typ: types.Unknown}

	case strings.HasSuffix(s, ":DECIMAL"):
		d, _, err := apd.NewFromString(strings.TrimSuffix(s, ":DECIMAL"))
		if err != nil {
			b.errorf(n, "invalid decimal %s", s)
		}
		return &opt.Const{Value: d, Typ: types.Decimal.NotNull()}
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &opt.Const{Value: i, Typ: types.Int.NotNull()}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &opt.Const{Value: f, Typ: types.Float.NotNull()}
	}
	b.errorf(n, "unknown scalar %s", s)
	return nil
}

// splitType splits "name:TYPE" into the name and a nullable type.
func (b *builder) splitType(n *Node) (string, types.T, bool) {
	s := b.atom(n)
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return s, types.T{}, false
	}
	fam, err := types.FamilyFromString(s[i+1:])
	if err != nil {
		panic(builderError{err})
	}
	return s[:i], types.T{Family: fam, Nullable: true}, true
}

// aggType returns the result type of an aggregate function. Aggregates other
// than count are NULL over an empty group.
func aggType(fn string, args []int, input opt.RowType) types.T {
	switch strings.ToLower(fn) {
	case "count", "count_rows":
		return types.Int.NotNull()
	case "avg":
		return types.Decimal
	case "sum", "min", "max", "any_value":
		if len(args) > 0 {
			return input[args[0]].Type.WithNullable(true)
		}
	}
	return types.Any
}

// ParseColumn reads a column definition: (name TYPE [NOT NULL | NULL]).
// Columns are nullable unless stated otherwise.
func ParseColumn(n *Node) (opt.Column, error) {
	if !n.IsList() || len(n.List) < 2 {
		return opt.Column{}, errors.Newf("expected (name TYPE [NOT NULL]), found %s", n)
	}
	words := make([]string, 0, len(n.List)-1)
	for _, w := range n.List {
		if w.IsList() {
			return opt.Column{}, errors.Newf("unexpected list in column definition %s", n)
		}
		words = append(words, w.Atom)
	}
	typ, err := ParseType(words[1:])
	if err != nil {
		return opt.Column{}, errors.Wrapf(err, "column %s", words[0])
	}
	return opt.Column{Name: words[0], Type: typ}, nil
}

// ParseType reads a type written as a family name optionally followed by
// NOT NULL or NULL.
func ParseType(words []string) (types.T, error) {
	if len(words) == 0 {
		return types.T{}, errors.New("missing type")
	}
	fam, err := types.FamilyFromString(words[0])
	if err != nil {
		return types.T{}, err
	}
	typ := types.T{Family: fam, Nullable: true}
	switch rest := strings.ToUpper(strings.Join(words[1:], " ")); rest {
	case "":
	case "NULL":
	case "NOT NULL":
		typ.Nullable = false
	default:
		return types.T{}, errors.Newf("unexpected %q after type", rest)
	}
	return typ, nil
}
