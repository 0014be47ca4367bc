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

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// NoPlanError is returned when no executable plan provides the required
// traits.
type NoPlanError struct {
	// Reason says why the set has no plan.
	Reason string
	// SetDigest is the digest of the first expression of the offending set.
	SetDigest string
	// Required is the trait set no plan was found for.
	Required physical.TraitSet
	// BudgetExhausted is set if exploration was cut short, so that a plan
	// might have been found with a larger budget.
	BudgetExhausted bool
}

var _ error = (*NoPlanError)(nil)

func (e *NoPlanError) Error() string {
	msg := fmt.Sprintf("no plan provides %s: %s: %s", e.Required, e.Reason, e.SetDigest)
	if e.BudgetExhausted {
		msg += " (budget exhausted)"
	}
	return msg
}

// IsNoPlan returns true if err says that no plan satisfies the required
// traits. Retrying with other traits or a larger budget may succeed.
func IsNoPlan(err error) bool {
	return errors.HasType(err, (*NoPlanError)(nil))
}

// IsInternalError returns true if err is an internal invariant violation,
// such as a rule that changed the row type of the expression it rewrote.
func IsInternalError(err error) bool {
	return errors.HasAssertionFailure(err)
}
