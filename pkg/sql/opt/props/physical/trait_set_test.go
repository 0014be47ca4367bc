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

package physical

import (
	"testing"

	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

type testOrdering string

var testOrderingDef = RegisterTraitDef("test-ordering", testOrdering("UNORDERED"))

func (o testOrdering) Def() *TraitDef { return testOrderingDef }
func (o testOrdering) String() string { return string(o) }

func TestTraitSet(t *testing.T) {
	iter := Convention("ITERATOR")

	require.Equal(t, None, Logical.Convention())
	require.Equal(t, "NONE.UNORDERED", Logical.String())

	s := MakeTraitSet(iter)
	require.Equal(t, iter, s.Convention())
	require.True(t, s.Contains(iter))
	require.False(t, s.Contains(None))
	require.Equal(t, "ITERATOR.UNORDERED", s.String())

	// Replacing with the default gives back a set equal to the zero value.
	require.Equal(t, Logical, s.Replace(None))
	require.True(t, MakeTraitSet(None) == Logical)

	sorted := s.Replace(testOrdering("ASC"))
	require.Equal(t, []*TraitDef{testOrderingDef}, s.Diff(sorted))
	require.Equal(t, []*TraitDef{ConventionDef, testOrderingDef}, Logical.Diff(sorted))
	require.Empty(t, sorted.Diff(MakeTraitSet(testOrdering("ASC"), iter)))

	m := map[TraitSet]int{s: 1}
	m[MakeTraitSet(iter)]++
	require.Equal(t, 2, m[s])
}

func TestTraitSetSafeFormat(t *testing.T) {
	s := MakeTraitSet(Convention("ITERATOR"))
	require.Equal(t, redact.RedactableString("required ITERATOR.UNORDERED"),
		redact.Sprintf("required %v", s))
}
