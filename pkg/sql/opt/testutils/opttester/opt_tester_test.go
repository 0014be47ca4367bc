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

package opttester

import (
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/relopt/relopt/pkg/sql/opt/hep"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/testutils/testcat"
	"github.com/stretchr/testify/require"
)

func newTester(t *testing.T, input string) *OptTester {
	cat := testcat.New()
	_, err := cat.ExecuteDDL(`
(table t (a INT NOT NULL) (b STRING) (rows 100))
(table u (a INT NOT NULL) (b STRING) (rows 10))`)
	require.NoError(t, err)
	ot := New(cat)
	ot.input = input
	ot.seenRules = make(map[string]bool)
	return ot
}

func TestFlags(t *testing.T) {
	var f Flags
	set := func(key string, vals ...string) error {
		return f.Set(datadriven.CmdArg{Key: key, Vals: vals})
	}
	require.NoError(t, set("format", "hide-traits", "show-row-type"))
	require.Equal(t, memo.ExprFmtHideTraits|memo.ExprFmtShowRowType, f.ExprFormat)
	require.NoError(t, set("tie-break", "later"))
	require.Equal(t, memo.PreferLater, f.TieBreak)
	require.NoError(t, set("conversions", "A->B", "B->C"))
	require.Equal(t, [][2]string{{"A", "B"}, {"B", "C"}}, f.Conversions)
	require.NoError(t, set("order", "bottom-up"))
	require.Equal(t, hep.BottomUp, f.MatchOrder)
	require.NoError(t, set("abstract-converters", "off"))
	require.False(t, f.AbstractConverters)
	require.NoError(t, set("required", "ARRAY"))
	require.Equal(t, "ARRAY", f.Required.String())

	require.EqualError(t, set("format", "pretty"), "unknown format value pretty")
	require.EqualError(t, set("tie-break", "never"), "unknown tie-break never")
	require.EqualError(t, set("conversions", "A"), `conversion "A" must be written FROM->TO`)
	require.EqualError(t, set("frobnicate"), "unknown argument: frobnicate")
	require.Error(t, set("max-steps", "many"))
}

func TestOptSteps(t *testing.T) {
	ot := newTester(t, "(union all (scan t) (scan u))")
	res, err := ot.OptSteps()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res, strings.Repeat("=", 80)+"\nInitial expression\n"), res)
	require.Contains(t, res, "UnionToConcatenate\n  Cost: ")
	require.True(t, strings.HasSuffix(res,
		"Final best expression\n"+
			"  Cost: {rows: 220, cpu: 1110, io: 1000}\n"+
			strings.Repeat("=", 80)+"\n"+
			"  concatenate.ITERATOR\n"+
			"    scan.ITERATOR t\n"+
			"    scan.ITERATOR u\n"), res)
}

func TestRuleStats(t *testing.T) {
	ot := newTester(t, "(union all (scan t) (scan u))")
	res, err := ot.RuleStats()
	require.NoError(t, err)
	require.Contains(t, res, "UnionToConcatenate")
	require.Contains(t, res, "total")
	require.Regexp(t, `\n\d+ steps\n$`, res)
}

func TestMemo(t *testing.T) {
	ot := newTester(t, "(scan t)")
	ot.Flags.Required = physical.ConventionSet("FOO")
	res, err := ot.Memo()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res, "memo\n"), res)
	require.Contains(t, res, "FOO required")
}

func TestHep(t *testing.T) {
	ot := newTester(t, "(filter true (project ((a $0) (b $1)) (scan t)))")
	ot.Flags.ExpectedRules = []string{"EliminateTrueFilter", "EliminateIdentityProject"}
	e, err := ot.Hep()
	require.NoError(t, err)
	require.Equal(t, "scan.NONE t\n", memo.FormatExpr(e, memo.ExprFmtShowAll))
	require.NoError(t, ot.checkExpectedRules())

	ot.Flags.UnexpectedRules = []string{"EliminateTrueFilter"}
	require.EqualError(t, ot.checkExpectedRules(),
		"expected not to see EliminateTrueFilter, but it was triggered")
}

func TestChain(t *testing.T) {
	ot := newTester(t, "")
	res, err := ot.Chain("ARRAY", "ARRAY")
	require.NoError(t, err)
	require.Equal(t, "ARRAY (distance 0)\n", res)

	ot.Flags.Conversions = [][2]string{{"A", "A"}}
	_, err = ot.Chain("A", "B")
	require.Error(t, err)
}
