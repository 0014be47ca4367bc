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

package xform

import "github.com/relopt/relopt/pkg/sql/opt/memo"

// DefaultMaxSteps is the default number of rule firings an optimization may
// perform.
const DefaultMaxSteps = 10000

// Settings configure one optimization.
type Settings struct {
	// MaxSteps bounds the number of rule firings. When it is reached the
	// optimizer stops exploring and extracts the best plan found so far.
	MaxSteps int

	// AbstractConverters enables placeholder converters between subsets of the
	// same set whose traits the conversion graph can bridge. Without them, a
	// required trait set must be produced directly by a rule.
	AbstractConverters bool

	// TieBreak decides between members of equal cost.
	TieBreak memo.TieBreak

	// CostModel orders costs. If nil, memo.DefaultCostModel is used.
	CostModel memo.CostModel

	// Coster computes self costs. If nil, memo.DefaultCoster is used.
	Coster memo.Coster
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		MaxSteps:           DefaultMaxSteps,
		AbstractConverters: true,
		TieBreak:           memo.PreferEarlier,
		CostModel:          memo.DefaultCostModel,
		Coster:             memo.DefaultCoster{},
	}
}
