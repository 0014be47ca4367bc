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

// Package types holds the type families that relational row types are made
// of. The optimizer only consults them: it never type-checks expressions
// beyond deciding whether two row types line up.
package types

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Family is the broad category of a type. Two types of the same family can
// be operands of the same comparison.
type Family uint8

// Type families.
const (
	UnknownFamily Family = iota
	BoolFamily
	IntFamily
	FloatFamily
	DecimalFamily
	StringFamily
	TimestampFamily
	AnyFamily
)

var familyNames = [...]string{
	UnknownFamily:   "UNKNOWN",
	BoolFamily:      "BOOL",
	IntFamily:       "INT",
	FloatFamily:     "FLOAT",
	DecimalFamily:   "DECIMAL",
	StringFamily:    "STRING",
	TimestampFamily: "TIMESTAMP",
	AnyFamily:       "ANY",
}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return "UNKNOWN"
}

// Numeric returns true for the families that widen into one another.
func (f Family) Numeric() bool {
	return f == IntFamily || f == FloatFamily || f == DecimalFamily
}

// T is a column type. T values are comparable with ==.
type T struct {
	Family   Family
	Nullable bool
}

// Commonly used types. All are nullable, which is the SQL default.
var (
	Unknown   = T{Family: UnknownFamily, Nullable: true}
	Bool      = T{Family: BoolFamily, Nullable: true}
	Int       = T{Family: IntFamily, Nullable: true}
	Float     = T{Family: FloatFamily, Nullable: true}
	Decimal   = T{Family: DecimalFamily, Nullable: true}
	String    = T{Family: StringFamily, Nullable: true}
	Timestamp = T{Family: TimestampFamily, Nullable: true}
	Any       = T{Family: AnyFamily, Nullable: true}
)

// NotNull returns a non-nullable copy of t.
func (t T) NotNull() T {
	t.Nullable = false
	return t
}

// WithNullable returns a copy of t with the given nullability.
func (t T) WithNullable(nullable bool) T {
	t.Nullable = nullable
	return t
}

// Equivalent returns true if t and o belong to the same family, ignoring
// nullability.
func (t T) Equivalent(o T) bool {
	return t.Family == o.Family || t.Family == AnyFamily || o.Family == AnyFamily
}

// Identical returns true if t and o are the same type, nullability included.
func (t T) Identical(o T) bool {
	return t == o
}

func (t T) String() string {
	if t.Nullable {
		return t.Family.String()
	}
	return t.Family.String() + " NOT NULL"
}

// FamilyFromString parses a family name, case-insensitively. A few common
// SQL aliases are accepted.
func FamilyFromString(s string) (Family, error) {
	switch strings.ToUpper(s) {
	case "BOOL", "BOOLEAN":
		return BoolFamily, nil
	case "INT", "INTEGER", "BIGINT":
		return IntFamily, nil
	case "FLOAT", "DOUBLE", "REAL":
		return FloatFamily, nil
	case "DECIMAL", "NUMERIC":
		return DecimalFamily, nil
	case "STRING", "VARCHAR", "TEXT", "CHAR":
		return StringFamily, nil
	case "TIMESTAMP":
		return TimestampFamily, nil
	case "ANY":
		return AnyFamily, nil
	}
	return UnknownFamily, errors.Newf("unknown type %q", s)
}

// LeastRestrictive returns the narrowest type every one of ts can be cast
// to without loss, or false if the types are incompatible. Numeric families
// widen INT < FLOAT < DECIMAL; the result is nullable if any input is.
func LeastRestrictive(ts ...T) (T, bool) {
	if len(ts) == 0 {
		return Unknown, false
	}
	res := ts[0]
	for _, t := range ts[1:] {
		res.Nullable = res.Nullable || t.Nullable
		switch {
		case t.Family == res.Family:
		case res.Family == AnyFamily || res.Family == UnknownFamily:
			res.Family = t.Family
		case t.Family == AnyFamily || t.Family == UnknownFamily:
		case res.Family.Numeric() && t.Family.Numeric():
			if t.Family > res.Family {
				res.Family = t.Family
			}
		default:
			return Unknown, false
		}
	}
	return res, true
}
