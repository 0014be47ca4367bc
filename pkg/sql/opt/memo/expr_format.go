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
	"fmt"
	"strings"
)

// ExprFmtFlags controls what FormatExpr prints.
type ExprFmtFlags int

const (
	// ExprFmtShowAll shows all information.
	ExprFmtShowAll ExprFmtFlags = 0

	// ExprFmtHideTraits omits the trait set of each expression.
	ExprFmtHideTraits ExprFmtFlags = 1 << (iota - 1)

	// ExprFmtShowRowType appends the row type of each expression.
	ExprFmtShowRowType
)

// HasFlags tests whether the given flags are all set.
func (f ExprFmtFlags) HasFlags(subset ExprFmtFlags) bool {
	return f&subset == subset
}

// FormatExpr returns an indented rendering of the expression tree rooted at
// e, one expression per line:
//
//	union.NONE all
//	  scan.NONE t1
//	  scan.NONE t2
func FormatExpr(e RelExpr, flags ExprFmtFlags) string {
	var b strings.Builder
	formatExpr(&b, e, flags, 0)
	return b.String()
}

func formatExpr(b *strings.Builder, e RelExpr, flags ExprFmtFlags, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(e.Op().String())
	if !flags.HasFlags(ExprFmtHideTraits) {
		b.WriteByte('.')
		b.WriteString(e.Traits().String())
	}
	if p := e.Private(); p != "" {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	if flags.HasFlags(ExprFmtShowRowType) {
		fmt.Fprintf(b, " %s", e.RowType())
	}
	b.WriteByte('\n')
	for i, n := 0, e.ChildCount(); i < n; i++ {
		formatExpr(b, e.Child(i), flags, depth+1)
	}
}
