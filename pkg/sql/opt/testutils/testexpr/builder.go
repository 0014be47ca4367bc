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

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/flatfile"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// Catalog resolves the tables an expression reads from or writes to.
type Catalog interface {
	// Table returns the table with the given name.
	Table(name string) (*memo.Table, error)
	// FlatFile returns the flat file table with the given name.
	FlatFile(name string) (*flatfile.Table, error)
}

// builderError wraps errors raised while building, so that they can be told
// apart from other panics when they are recovered.
type builderError struct {
	error
}

// Build reads one relational expression. Each expression is written
// (op[.CONVENTION] args... inputs...), where the optional suffix sets the
// calling convention of the expression:
//
//	(scan t)
//	(flatfile-scan t [field...])
//	(filter condition input)
//	(project ((name scalar)...) input)
//	(join inner|left|right|full condition left right)
//	(aggregate group-count ((name func [distinct] $i...)...) input)
//	(union|intersect|except all|distinct input...)
//	(concatenate input...)
//	(sample bernoulli|system percentage [repeatable seed] input)
//	(table-function call ((name TYPE)...) input...)
//	(table-modify insert|update|delete|merge t [(cols name...)] [flattened] input)
//	(converter.TO input)
//	(one-row)
//	(empty (name TYPE [NOT NULL])...)
//
// See BuildScalar for scalar expressions.
func Build(cat Catalog, input string) (_ memo.RelExpr, err error) {
	n, err := ParseOne(input)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = recoverError(r)
		}
	}()
	b := builder{cat: cat}
	return b.buildRel(n), nil
}

func recoverError(r interface{}) error {
	if bErr, ok := r.(builderError); ok {
		return bErr.error
	}
	if err, ok := r.(error); ok {
		// Constructors reject malformed expressions with assertion failures.
		// Those are input errors here.
		return errors.UnwrapAll(err)
	}
	panic(r)
}

type builder struct {
	cat Catalog
}

func (b *builder) errorf(n *Node, format string, args ...interface{}) {
	err := errors.Newf(format, args...)
	panic(builderError{errors.Wrapf(err, "%s", truncate(n.String()))})
}

func truncate(s string) string {
	const max = 40
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// splitHead splits "op.CONVENTION" into the operator name and its trait set.
func splitHead(head string) (string, physical.TraitSet) {
	if i := strings.LastIndexByte(head, '.'); i > 0 {
		conv := head[i+1:]
		if conv != "" && strings.ToUpper(conv) == conv {
			return head[:i], physical.ConventionSet(physical.Convention(conv))
		}
	}
	return head, physical.Logical
}

func (b *builder) buildRel(n *Node) memo.RelExpr {
	if !n.IsList() || n.Head() == "" {
		b.errorf(n, "expected a relational expression")
	}
	name, traits := splitHead(n.Head())
	args := n.List[1:]

	var e memo.RelExpr
	switch name {
	case "scan":
		b.arity(n, args, 1)
		tab, err := b.cat.Table(b.atom(args[0]))
		if err != nil {
			panic(builderError{err})
		}
		e = memo.NewScan(tab)

	case "flatfile-scan":
		if len(args) == 0 {
			b.errorf(n, "flatfile-scan needs a table")
		}
		tab, err := b.cat.FlatFile(b.atom(args[0]))
		if err != nil {
			panic(builderError{err})
		}
		if len(args) == 1 {
			e = flatfile.NewScan(tab)
		} else {
			fields := make([]int, len(args)-1)
			for i, a := range args[1:] {
				fields[i] = b.int(a)
			}
			e = flatfile.NewProjectedScan(tab, fields)
		}

	case "filter":
		b.arity(n, args, 2)
		input := b.buildRel(args[1])
		e = memo.NewFilter(input, b.buildScalar(args[0], input.RowType()))

	case "project":
		b.arity(n, args, 2)
		input := b.buildRel(args[1])
		var projections []opt.ScalarExpr
		var names []string
		for _, p := range b.list(args[0]) {
			pair := b.list(p)
			if len(pair) != 2 {
				b.errorf(p, "expected (name scalar)")
			}
			names = append(names, b.atom(pair[0]))
			projections = append(projections, b.buildScalar(pair[1], input.RowType()))
		}
		e = memo.NewProject(input, projections, names)

	case "join":
		b.arity(n, args, 4)
		joinType, err := memo.JoinTypeFromString(b.atom(args[0]))
		if err != nil {
			panic(builderError{err})
		}
		left, right := b.buildRel(args[2]), b.buildRel(args[3])
		cond := b.buildScalar(args[1], left.RowType().Concat(right.RowType()))
		e = memo.NewJoin(joinType, left, right, cond)

	case "aggregate":
		b.arity(n, args, 3)
		input := b.buildRel(args[2])
		var aggs []memo.AggCall
		for _, a := range b.list(args[1]) {
			aggs = append(aggs, b.buildAggCall(a, input.RowType()))
		}
		e = memo.NewAggregate(input, b.int(args[0]), aggs)

	case "union", "intersect", "except":
		if len(args) < 2 {
			b.errorf(n, "%s needs a mode and at least one input", name)
		}
		all := false
		switch mode := b.atom(args[0]); mode {
		case "all":
			all = true
		case "distinct":
		default:
			b.errorf(args[0], "expected all or distinct, found %s", mode)
		}
		op, _ := opt.OperatorByName(name)
		e = memo.NewSetOp(op, b.buildRels(args[1:]), all)

	case "concatenate":
		if len(args) == 0 {
			b.errorf(n, "concatenate needs at least one input")
		}
		return memo.NewConcatenate(b.buildRels(args), traits)

	case "sample":
		e = b.buildSample(n, args)

	case "table-function":
		if len(args) < 2 {
			b.errorf(n, "table-function needs a call and columns")
		}
		inputs := b.buildRels(args[2:])
		var inputCols opt.RowType
		for _, in := range inputs {
			inputCols = inputCols.Concat(in.RowType())
		}
		call := b.buildScalar(args[0], inputCols)
		e = memo.NewTableFunction(call, inputs, b.columns(b.list(args[1])))

	case "table-modify":
		e = b.buildTableModify(n, args)

	case "converter":
		b.arity(n, args, 1)
		input := b.buildRel(args[0])
		if traits == physical.Logical {
			b.errorf(n, "converter needs a target convention")
		}
		return memo.NewConverter(input, traits.Convention())

	case "one-row":
		b.arity(n, args, 0)
		e = memo.NewOneRow()

	case "empty":
		e = memo.NewEmpty(b.columns(args))

	default:
		b.errorf(n, "unknown operator %s", name)
	}

	if traits != physical.Logical {
		e = e.WithTraits(traits)
	}
	return e
}

func (b *builder) buildRels(nodes []*Node) []memo.RelExpr {
	res := make([]memo.RelExpr, len(nodes))
	for i, n := range nodes {
		res[i] = b.buildRel(n)
	}
	return res
}

func (b *builder) buildSample(n *Node, args []*Node) memo.RelExpr {
	if len(args) != 3 && len(args) != 5 {
		b.errorf(n, "expected (sample mode percentage [repeatable seed] input)")
	}
	var params memo.SampleParams
	switch mode := b.atom(args[0]); mode {
	case "bernoulli":
		params.Bernoulli = true
	case "system":
	default:
		b.errorf(args[0], "unknown sampling mode %s", mode)
	}
	pct, err := strconv.ParseFloat(b.atom(args[1]), 64)
	if err != nil || pct < 0 || pct > 100 {
		b.errorf(args[1], "percentage must be between 0 and 100")
	}
	params.Percentage = pct
	if len(args) == 5 {
		if b.atom(args[2]) != "repeatable" {
			b.errorf(args[2], "expected repeatable")
		}
		params.Repeatable = true
		params.Seed = b.int(args[3])
	}
	return memo.NewSample(b.buildRel(args[len(args)-1]), params)
}

func (b *builder) buildTableModify(n *Node, args []*Node) memo.RelExpr {
	if len(args) < 3 {
		b.errorf(n, "expected (table-modify operation table [(cols ...)] [flattened] input)")
	}
	op, err := memo.ModifyOperationFromString(b.atom(args[0]))
	if err != nil {
		panic(builderError{err})
	}
	tab, err := b.cat.Table(b.atom(args[1]))
	if err != nil {
		panic(builderError{err})
	}
	var updateCols []string
	flattened := false
	for _, a := range args[2 : len(args)-1] {
		switch {
		case a.IsList() && a.Head() == "cols":
			for _, c := range a.List[1:] {
				updateCols = append(updateCols, b.atom(c))
			}
		case !a.IsList() && a.Atom == "flattened":
			flattened = true
		default:
			b.errorf(a, "expected (cols ...) or flattened")
		}
	}
	return memo.NewTableModify(tab, op, b.buildRel(args[len(args)-1]), updateCols, flattened)
}

// buildAggCall reads (name func [distinct] $i...). The result type follows
// the function unless it is given as func:TYPE.
func (b *builder) buildAggCall(n *Node, input opt.RowType) memo.AggCall {
	parts := b.list(n)
	if len(parts) < 2 {
		b.errorf(n, "expected (name func [distinct] args...)")
	}
	call := memo.AggCall{Name: b.atom(parts[0])}
	fn, typ, hasType := b.splitType(parts[1])
	call.Func = fn
	args := parts[2:]
	if len(args) > 0 && !args[0].IsList() && args[0].Atom == "distinct" {
		call.Distinct = true
		args = args[1:]
	}
	for _, a := range args {
		v, ok := b.buildScalar(a, input).(*opt.Variable)
		if !ok {
			b.errorf(a, "aggregate arguments must be input columns")
		}
		call.Args = append(call.Args, v.Index)
	}
	if !hasType {
		typ = aggType(fn, call.Args, input)
	}
	call.Type = typ
	return call
}

func (b *builder) arity(n *Node, args []*Node, want int) {
	if len(args) != want {
		b.errorf(n, "%s expects %d arguments, found %d", n.Head(), want, len(args))
	}
}

func (b *builder) atom(n *Node) string {
	if n.IsList() {
		b.errorf(n, "expected an atom")
	}
	return n.Atom
}

func (b *builder) list(n *Node) []*Node {
	if !n.IsList() {
		b.errorf(n, "expected a list")
	}
	return n.List
}

func (b *builder) int(n *Node) int {
	i, err := strconv.Atoi(b.atom(n))
	if err != nil {
		b.errorf(n, "expected an integer")
	}
	return i
}

func (b *builder) columns(defs []*Node) opt.RowType {
	cols := make(opt.RowType, len(defs))
	for i, d := range defs {
		col, err := ParseColumn(d)
		if err != nil {
			panic(builderError{err})
		}
		cols[i] = col
	}
	return cols
}
