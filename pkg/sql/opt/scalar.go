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

package opt

import (
	"fmt"
	"strings"

	"github.com/relopt/relopt/pkg/sql/types"
	"github.com/relopt/relopt/pkg/util"
)

// ScalarExpr is a scalar expression evaluated against the columns of a
// relational expression's input. Scalar expressions are immutable and their
// String form is part of the owning expression's digest, so it must be
// deterministic.
type ScalarExpr interface {
	Type() types.T
	String() string
}

// Variable refers to the input column at ordinal Index.
type Variable struct {
	Index int
	Typ   types.T
}

// Const is a constant value: an int64, float64, *apd.Decimal, string, bool
// or nil.
type Const struct {
	Value interface{}
	Typ   types.T
}

// Call applies a function or operator to its arguments. Comparison and
// arithmetic operators use their symbol as Name.
type Call struct {
	Name string
	Args []ScalarExpr
	Typ  types.T
}

// Cast converts its input to another type.
type Cast struct {
	Input ScalarExpr
	Typ   types.T
}

var _ ScalarExpr = &Variable{}
var _ ScalarExpr = &Const{}
var _ ScalarExpr = &Call{}
var _ ScalarExpr = &Cast{}

// Type is part of the ScalarExpr interface.
func (v *Variable) Type() types.T { return v.Typ }

func (v *Variable) String() string { return fmt.Sprintf("$%d", v.Index) }

// Type is part of the ScalarExpr interface.
func (c *Const) Type() types.T { return c.Typ }

func (c *Const) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return fmt.Sprint(v)
	}
}

// Type is part of the ScalarExpr interface.
func (c *Call) Type() types.T { return c.Typ }

func (c *Call) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Type is part of the ScalarExpr interface.
func (c *Cast) Type() types.T { return c.Typ }

func (c *Cast) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", c.Input, c.Typ.Family)
}

// NewVariable returns a reference to input column i of the given row type.
func NewVariable(input RowType, i int) *Variable {
	return &Variable{Index: i, Typ: input[i].Type}
}

// True is the boolean constant true.
var True ScalarExpr = &Const{Value: true, Typ: types.Bool.NotNull()}

// IsTrue returns true if e is the constant true.
func IsTrue(e ScalarExpr) bool {
	c, ok := e.(*Const)
	if !ok {
		return false
	}
	b, ok := c.Value.(bool)
	return ok && b
}

// NewCast wraps e in a cast to typ. If e already has that type it is
// returned unchanged.
func NewCast(e ScalarExpr, typ types.T) ScalarExpr {
	if e.Type() == typ {
		return e
	}
	return &Cast{Input: e, Typ: typ}
}

// InputRefs returns the set of input column ordinals that e references.
func InputRefs(e ScalarExpr) util.FastIntSet {
	var res util.FastIntSet
	collectInputRefs(e, &res)
	return res
}

func collectInputRefs(e ScalarExpr, res *util.FastIntSet) {
	switch t := e.(type) {
	case *Variable:
		res.Add(t.Index)
	case *Call:
		for _, a := range t.Args {
			collectInputRefs(a, res)
		}
	case *Cast:
		collectInputRefs(t.Input, res)
	}
}

// RemapInputs returns a copy of e in which every input reference $i is
// replaced by $m(i). Scalar expressions are never modified in place.
func RemapInputs(e ScalarExpr, m func(i int) int) ScalarExpr {
	switch t := e.(type) {
	case *Variable:
		if n := m(t.Index); n != t.Index {
			return &Variable{Index: n, Typ: t.Typ}
		}
		return t
	case *Call:
		var args []ScalarExpr
		for i, a := range t.Args {
			n := RemapInputs(a, m)
			if n != a && args == nil {
				args = make([]ScalarExpr, len(t.Args))
				copy(args, t.Args[:i])
			}
			if args != nil {
				args[i] = n
			}
		}
		if args == nil {
			return t
		}
		return &Call{Name: t.Name, Args: args, Typ: t.Typ}
	case *Cast:
		if n := RemapInputs(t.Input, m); n != t.Input {
			return &Cast{Input: n, Typ: t.Typ}
		}
		return t
	}
	return e
}
