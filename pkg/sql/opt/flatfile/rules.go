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

package flatfile

import (
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/iter"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
)

// ScanToIterator implements a flat file scan in the Iterator convention.
var ScanToIterator = rule.NewConverterRule("FlatFileScanToIterator", ScanOp, physical.None, iter.Iterator,
	func(call rule.Call, e memo.RelExpr) memo.RelExpr {
		return e.WithTraits(e.Traits().Replace(iter.Iterator))
	})

// ProjectIntoScan replaces a projection of plain columns over a flat file
// scan by a scan of only those fields. The column names of the projection
// must be those of the fields.
var ProjectIntoScan = rule.New(
	"FlatFileProjectIntoScan",
	rule.OpAny(opt.ProjectOp).WithTrait(physical.None).WithChildren(
		rule.Op(ScanOp).WithTrait(physical.None),
	),
	func(call rule.Call) {
		project := call.Binding(0).(*memo.ProjectExpr)
		scan := call.Binding(1).(*ScanExpr)
		fields := make([]int, len(project.Projections))
		for i, p := range project.Projections {
			v, ok := p.(*opt.Variable)
			if !ok {
				return
			}
			fields[i] = scan.Fields[v.Index]
			if scan.Table.Columns[fields[i]].Name != project.Names[i] {
				return
			}
		}
		call.TransformTo(NewProjectedScan(scan.Table, fields).WithTraits(project.Traits()))
	},
)

// Rules returns the rules of the connector.
func Rules() []rule.Rule {
	return []rule.Rule{ProjectIntoScan, ScanToIterator}
}
