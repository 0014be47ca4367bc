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

// Package transformonce defines an Analyzer that detects rules that may
// propose more than one expression for the same binding.
package transformonce

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Doc documents this pass.
const Doc = `check that rule.Call.TransformTo is called at most once per call

A rule may propose one expression per binding. The optimizers panic when
TransformTo is called twice, as in:

  func(call rule.Call) {
      call.TransformTo(a)
      if cond {
          call.TransformTo(b)
      }
  }

A call in a loop must be followed by a return.`

const name = "transformonce"

// rulePkgSuffix identifies the package declaring rule.Call.
const rulePkgSuffix = "/sql/opt/rule"

// Analyzer is a linter that reports paths through a function on which
// TransformTo may be called twice.
var Analyzer = &analysis.Analyzer{
	Name:     name,
	Doc:      Doc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	inspect.Preorder([]ast.Node{
		(*ast.FuncDecl)(nil),
		(*ast.FuncLit)(nil),
	}, func(n ast.Node) {
		var body *ast.BlockStmt
		switch f := n.(type) {
		case *ast.FuncDecl:
			body = f.Body
		case *ast.FuncLit:
			body = f.Body
		}
		if body == nil {
			return
		}
		c := checker{pass: pass}
		c.stmts(body.List, false /* seen */)
	})
	return nil, nil
}

type checker struct {
	pass *analysis.Pass
}

// flow is the state at the end of a statement: whether TransformTo may have
// been called on a path reaching it, and whether every path returned.
type flow struct {
	seen       bool
	terminated bool
}

func (c *checker) stmts(list []ast.Stmt, seen bool) flow {
	for _, s := range list {
		f := c.stmt(s, seen)
		if f.terminated {
			return f
		}
		seen = f.seen
	}
	return flow{seen: seen}
}

func (c *checker) stmt(s ast.Stmt, seen bool) flow {
	switch s := s.(type) {
	case *ast.ExprStmt:
		call, ok := s.X.(*ast.CallExpr)
		if !ok {
			return flow{seen: seen}
		}
		if c.isTransformTo(call) {
			if seen && !hasNolintComment(c.pass, s) {
				c.pass.Reportf(call.Pos(), "TransformTo may be called twice for the same binding")
			}
			return flow{seen: true}
		}
		if id, ok := call.Fun.(*ast.Ident); ok && id.Name == "panic" {
			return flow{seen: seen, terminated: true}
		}
		return flow{seen: seen}

	case *ast.ReturnStmt:
		return flow{seen: seen, terminated: true}

	case *ast.BlockStmt:
		return c.stmts(s.List, seen)

	case *ast.LabeledStmt:
		return c.stmt(s.Stmt, seen)

	case *ast.IfStmt:
		then := c.stmts(s.Body.List, seen)
		els := flow{seen: seen}
		if s.Else != nil {
			els = c.stmt(s.Else, seen)
		}
		return join(then, els)

	case *ast.SwitchStmt:
		return c.clauses(s.Body, seen)

	case *ast.TypeSwitchStmt:
		return c.clauses(s.Body, seen)

	case *ast.ForStmt:
		return c.loop(s, s.Body, seen)

	case *ast.RangeStmt:
		return c.loop(s, s.Body, seen)
	}
	return flow{seen: seen}
}

// clauses joins the flows of the cases of a switch. Without a default case,
// the switch may also fall through untouched.
func (c *checker) clauses(body *ast.BlockStmt, seen bool) flow {
	res := flow{terminated: true}
	hasDefault := false
	for _, cl := range body.List {
		cc := cl.(*ast.CaseClause)
		if cc.List == nil {
			hasDefault = true
		}
		res = join(res, c.stmts(cc.Body, seen))
	}
	if !hasDefault {
		res = join(res, flow{seen: seen})
	}
	return res
}

// loop reports a loop body that can call TransformTo and then continue with
// the next iteration.
func (c *checker) loop(loop ast.Stmt, body *ast.BlockStmt, seen bool) flow {
	f := c.stmts(body.List, seen)
	if !f.terminated && f.seen && !seen && !hasNolintComment(c.pass, loop) {
		c.pass.Reportf(loop.Pos(), "TransformTo is called in a loop without returning")
	}
	// The loop may not run at all.
	return join(f, flow{seen: seen})
}

// join merges the flows of two alternative paths.
func join(a, b flow) flow {
	switch {
	case a.terminated:
		return b
	case b.terminated:
		return a
	}
	return flow{seen: a.seen || b.seen}
}

// isTransformTo returns true if call is a call to the TransformTo method of
// a rule.Call.
func (c *checker) isTransformTo(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "TransformTo" {
		return false
	}
	named, ok := c.pass.TypesInfo.TypeOf(sel.X).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Name() == "Call" && obj.Pkg() != nil &&
		strings.HasSuffix(obj.Pkg().Path(), rulePkgSuffix)
}

// hasNolintComment returns true if the line of n carries a
// "//nolint:transformonce" comment.
func hasNolintComment(pass *analysis.Pass, n ast.Node) bool {
	pos := pass.Fset.Position(n.Pos())
	for _, f := range pass.Files {
		if pass.Fset.File(f.Pos()).Name() != pos.Filename {
			continue
		}
		for _, cg := range f.Comments {
			for _, cm := range cg.List {
				if pass.Fset.Position(cm.Pos()).Line == pos.Line &&
					strings.Contains(cm.Text, "nolint:"+name) {
					return true
				}
			}
		}
	}
	return false
}
