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
	"testing"

	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/stretchr/testify/require"
)

func TestCostLess(t *testing.T) {
	testCases := []struct {
		left, right Cost
		expected    bool
	}{
		{Cost{CPU: 0.0}, Cost{CPU: 1.0}, true},
		{Cost{CPU: 0.0}, Cost{CPU: 0.0}, false},
		{Cost{CPU: 1.0}, Cost{CPU: 0.0}, false},
		{Cost{Rows: 1, CPU: 1}, Cost{IO: 3}, true},
		{Cost{Rows: 2, CPU: 1}, Cost{IO: 3}, false},
		{HugeCost, InfiniteCost, true},
		{InfiniteCost, HugeCost, false},
		{InfiniteCost, InfiniteCost, false},
		{ZeroCost, InfiniteCost, true},
	}
	for _, tc := range testCases {
		if DefaultCostModel.Less(tc.left, tc.right) != tc.expected {
			t.Errorf("expected %v.Less(%v) to be %v", tc.left, tc.right, tc.expected)
		}
	}
}

func TestWeightedCostModel(t *testing.T) {
	ioHeavy := WeightedCostModel{RowsWeight: 0, CPUWeight: 1, IOWeight: 10}
	a := Cost{Rows: 100, CPU: 100, IO: 1}
	b := Cost{Rows: 1, CPU: 1, IO: 20}
	require.True(t, DefaultCostModel.Less(a, b) == false)
	require.True(t, ioHeavy.Less(a, b))
	require.Equal(t, 110.0, ioHeavy.Scalar(a))
}

func TestCostAdd(t *testing.T) {
	c := Cost{Rows: 1, CPU: 2, IO: 3}.Add(Cost{Rows: 10, CPU: 20, IO: 30})
	require.Equal(t, Cost{Rows: 11, CPU: 22, IO: 33}, c)
	require.True(t, c.Add(InfiniteCost).IsInfinite())
	require.Equal(t, "inf", InfiniteCost.String())
	require.Equal(t, "{rows: 11, cpu: 22, io: 33}", c.String())
}

func TestDefaultCoster(t *testing.T) {
	scan := NewScan(testTable("t", 10))
	require.Equal(t, InfiniteCost, DefaultCoster{}.ComputeCost(scan, TreeMetadata))

	impl := scan.WithTraits(physical.ConventionSet("ITERATOR"))
	require.Equal(t, Cost{Rows: 10, CPU: 10}, DefaultCoster{}.ComputeCost(impl, TreeMetadata))

	empty := NewEmpty(scan.RowType()).WithTraits(physical.ConventionSet("ITERATOR"))
	require.Equal(t, ZeroCost, DefaultCoster{}.ComputeCost(empty, TreeMetadata))
}

func TestTreeCost(t *testing.T) {
	impl := NewScan(testTable("t", 10)).WithTraits(physical.ConventionSet("ITERATOR"))
	conv := NewConverter(impl, physical.Convention("COLLECTION"))
	require.Equal(t, Cost{Rows: 20, CPU: 20}, TreeCost(conv, DefaultCoster{}, TreeMetadata))

	logical := NewConverter(NewScan(testTable("t", 10)), physical.Convention("COLLECTION"))
	require.True(t, TreeCost(logical, DefaultCoster{}, TreeMetadata).IsInfinite())
}
