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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/relopt/relopt/pkg/sql/types"
	"github.com/stretchr/testify/require"
)

func TestRowType(t *testing.T) {
	left := RowType{{Name: "a", Type: types.Int.NotNull()}, {Name: "b", Type: types.String}}
	right := RowType{{Name: "c", Type: types.Float.NotNull()}}

	require.Equal(t, "(a INT NOT NULL, b STRING)", left.String())
	require.Equal(t, []types.T{types.Int.NotNull(), types.String}, left.Types())

	expected := RowType{
		{Name: "a", Type: types.Int.NotNull()},
		{Name: "b", Type: types.String},
		{Name: "c", Type: types.Float.NotNull()},
	}
	if diff := cmp.Diff(expected, left.Concat(right)); diff != "" {
		t.Errorf("unexpected concat (-want +got):\n%s", diff)
	}
	// Concat must not alias its receiver.
	require.Len(t, left, 2)

	nullable := RowType{{Name: "a", Type: types.Int}, {Name: "b", Type: types.String}}
	if diff := cmp.Diff(nullable, left.WithNullable()); diff != "" {
		t.Errorf("unexpected nullable row type (-want +got):\n%s", diff)
	}
	require.Equal(t, types.Int.NotNull(), left[0].Type)
}

func TestRowTypeComparisons(t *testing.T) {
	base := RowType{{Name: "a", Type: types.Int.NotNull()}, {Name: "b", Type: types.String}}
	renamed := RowType{{Name: "x", Type: types.Int.NotNull()}, {Name: "y", Type: types.String}}
	nullable := base.WithNullable()
	widened := RowType{{Name: "a", Type: types.Float}, {Name: "b", Type: types.String}}
	anyType := RowType{{Name: "a", Type: types.Any}, {Name: "b", Type: types.String}}

	testCases := []struct {
		name                               string
		other                              RowType
		equals, identicalTypes, equivalent bool
	}{
		{name: "same", other: base, equals: true, identicalTypes: true, equivalent: true},
		{name: "renamed", other: renamed, identicalTypes: true, equivalent: true},
		{name: "nullable", other: nullable, equivalent: true},
		{name: "widened", other: widened},
		{name: "any", other: anyType, equivalent: true},
		{name: "shorter", other: base[:1]},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.equals, base.Equals(tc.other), "Equals")
			require.Equal(t, tc.identicalTypes, base.IdenticalTypes(tc.other), "IdenticalTypes")
			require.Equal(t, tc.equivalent, base.Equivalent(tc.other), "Equivalent")
		})
	}
}

func TestScalar(t *testing.T) {
	input := RowType{
		{Name: "a", Type: types.Int},
		{Name: "b", Type: types.String},
		{Name: "c", Type: types.Int},
	}
	a, c := NewVariable(input, 0), NewVariable(input, 2)
	gt := &Call{Name: ">", Args: []ScalarExpr{c, &Const{Value: int64(1), Typ: types.Int}}, Typ: types.Bool}
	and := &Call{Name: "and", Args: []ScalarExpr{gt, NewCast(a, types.Float)}, Typ: types.Bool}

	require.Equal(t, "and(>($2, 1), CAST($0 AS FLOAT))", and.String())
	require.Equal(t, "'it''s'", (&Const{Value: "it's", Typ: types.String}).String())
	require.Equal(t, "NULL", (&Const{Typ: types.Unknown}).String())
	require.Same(t, a, NewCast(a, types.Int))

	require.True(t, IsTrue(True))
	require.False(t, IsTrue(gt))

	require.Equal(t, []int{0, 2}, InputRefs(and).Ordered())

	// Remapping to the same ordinals returns the expression itself.
	require.Same(t, and, RemapInputs(and, func(i int) int { return i }).(*Call))

	remapped := RemapInputs(and, func(i int) int { return i + 1 })
	require.Equal(t, "and(>($3, 1), CAST($1 AS FLOAT))", remapped.String())
	require.Equal(t, "and(>($2, 1), CAST($0 AS FLOAT))", and.String())

	// Only the changed branch is copied.
	partial := RemapInputs(and, func(i int) int {
		if i == 0 {
			return 1
		}
		return i
	}).(*Call)
	require.Same(t, gt, partial.Args[0])
	require.NotSame(t, and.Args[1], partial.Args[1])
}

func TestCatchOptimizerError(t *testing.T) {
	catch := func(f func()) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = CatchOptimizerError(r)
			}
		}()
		f()
		return nil
	}

	err := catch(func() { panic(errors.New("boom")) })
	require.EqualError(t, err, "boom")
	require.False(t, errors.IsAssertionFailure(err))

	err = catch(func() {
		var s []int
		_ = s[3]
	})
	require.Error(t, err)
	require.True(t, errors.IsAssertionFailure(err))

	require.Panics(t, func() {
		_ = catch(func() { panic("not an error") })
	})
}
