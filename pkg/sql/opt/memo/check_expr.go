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

package memo

import (
	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
)

// CheckExpr does sanity checking on an expression about to be stored. It
// panics with an assertion failure if the expression violates the RelExpr
// contract.
func CheckExpr(e RelExpr) {
	digest := Digest(e)

	// Copies must keep the digest.
	if c := e.WithChildren(Children(e)); Digest(c) != digest {
		panic(errors.AssertionFailedf("copy of %s changed its digest from %s to %s",
			errors.Safe(e.Op()), digest, Digest(c)))
	}
	if e.Op() != opt.SubsetOp {
		if c := e.WithTraits(e.Traits()); Digest(c) != digest {
			panic(errors.AssertionFailedf("copy of %s with the same traits changed its digest",
				errors.Safe(e.Op())))
		}
	}

	// Check operator-specific fields.
	switch t := e.(type) {
	case *ProjectExpr:
		in := t.Input.RowType()
		for _, p := range t.Projections {
			checkInputRefs(e, p, len(in))
		}

	case *FilterExpr:
		checkInputRefs(e, t.Condition, len(t.Input.RowType()))

	case *JoinExpr:
		checkInputRefs(e, t.Condition, len(t.Left.RowType())+len(t.Right.RowType()))

	case *AggregateExpr:
		n := len(t.Input.RowType())
		for _, a := range t.Aggs {
			for _, arg := range a.Args {
				if arg >= n {
					panic(errors.AssertionFailedf("%s refers to column %d of %d", a, arg, n))
				}
			}
		}

	case *SampleExpr:
		if t.Params.Percentage < 0 || t.Params.Percentage > 100 {
			panic(errors.AssertionFailedf("sample percentage %g out of range", t.Params.Percentage))
		}

	case *SetOpExpr:
		if len(t.Inputs) == 0 {
			panic(errors.AssertionFailedf("%s has no inputs", errors.Safe(e.Op())))
		}
	}
}

func checkInputRefs(e RelExpr, s opt.ScalarExpr, n int) {
	refs := opt.InputRefs(s)
	if next, ok := refs.Next(n); ok {
		panic(errors.AssertionFailedf("%s refers to column %d of %d", errors.Safe(e.Op()), next, n))
	}
}
