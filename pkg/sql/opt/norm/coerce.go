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

package norm

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
)

// CoerceInputs returns a rule that wraps every input of an op expression
// whose column types differ from the expected ones in a casting projection.
// The expected row type is the row type of the expression itself for set
// operations, and the target table's columns for an insert. If coerceNames is
// set, inputs whose column names differ are renamed as well.
func CoerceInputs(op opt.Operator, coerceNames bool) rule.Rule {
	if !op.IsSetOp() && op != opt.TableModifyOp {
		panic(errors.AssertionFailedf("cannot coerce the inputs of %s", errors.Safe(op)))
	}
	name := fmt.Sprintf("CoerceInputs(%s)", op)
	if coerceNames {
		name = fmt.Sprintf("CoerceInputs(%s,names)", op)
	}
	return rule.New(name, logical(op), func(call rule.Call) {
		e := call.Binding(0)
		want := e.RowType()
		if tm, ok := e.(*memo.TableModifyExpr); ok {
			want = tm.ExpectedInputRowType()
		}
		children := memo.Children(e)
		changed := false
		for i, in := range children {
			if len(in.RowType()) != len(want) {
				// Column counts that differ cannot be fixed by casting.
				return
			}
			if c := castTo(in, want, coerceNames); c != in {
				children[i] = c
				changed = true
			}
		}
		if !changed {
			return
		}
		call.TransformTo(e.WithChildren(children))
	})
}
