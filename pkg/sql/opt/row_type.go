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
	"strings"

	"github.com/relopt/relopt/pkg/sql/types"
)

// Column is one field of a row type.
type Column struct {
	Name string
	Type types.T
}

// RowType is the ordered list of columns a relational expression produces.
// Row types are derived once and never modified afterwards.
type RowType []Column

func (r RowType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range r {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(c.Type.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Types returns the column types in order.
func (r RowType) Types() []types.T {
	res := make([]types.T, len(r))
	for i := range r {
		res[i] = r[i].Type
	}
	return res
}

// Equals returns true if both row types have the same column names and
// identical types.
func (r RowType) Equals(o RowType) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// IdenticalTypes returns true if both row types have identical column types,
// ignoring names.
func (r RowType) IdenticalTypes(o RowType) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i].Type != o[i].Type {
			return false
		}
	}
	return true
}

// Equivalent is the name-coercion policy used to check that a rewrite
// preserves its row type: column names and nullability may differ, but each
// column must keep its type family.
func (r RowType) Equivalent(o RowType) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if !r[i].Type.Equivalent(o[i].Type) {
			return false
		}
	}
	return true
}

// Concat returns the columns of r followed by the columns of o.
func (r RowType) Concat(o RowType) RowType {
	res := make(RowType, 0, len(r)+len(o))
	res = append(res, r...)
	return append(res, o...)
}

// WithNullable returns a copy of r in which every column is nullable.
func (r RowType) WithNullable() RowType {
	res := make(RowType, len(r))
	for i := range r {
		res[i] = Column{Name: r[i].Name, Type: r[i].Type.WithNullable(true)}
	}
	return res
}
