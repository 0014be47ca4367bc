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
	"io"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Params describes how the rows of a flat file are laid out.
type Params struct {
	Directory      string `yaml:"directory"`
	Extension      string `yaml:"extension"`
	FieldDelimiter string `yaml:"field_delimiter"`
	LineDelimiter  string `yaml:"line_delimiter"`
	Quote          string `yaml:"quote"`
	Escape         string `yaml:"escape"`
	Header         bool   `yaml:"header"`
	// RowsToScan is the number of rows read to infer column types when the
	// table does not declare them.
	RowsToScan int `yaml:"rows_to_scan"`
}

// DefaultParams returns the parameters of a comma-separated file with a
// header line.
func DefaultParams() Params {
	return Params{
		Extension:      "txt",
		FieldDelimiter: ",",
		LineDelimiter:  "\n",
		Quote:          `"`,
		Escape:         `"`,
		Header:         true,
		RowsToScan:     5,
	}
}

// LoadParams decodes YAML parameters from r. Fields missing from the input
// keep their default value.
func LoadParams(r io.Reader) (Params, error) {
	p := DefaultParams()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Params{}, errors.Wrap(err, "decoding flat file parameters")
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks that delimiters, quote and escape are single characters.
func (p Params) Validate() error {
	for _, f := range []struct {
		name, val string
	}{
		{"field_delimiter", p.FieldDelimiter},
		{"line_delimiter", p.LineDelimiter},
		{"quote", p.Quote},
		{"escape", p.Escape},
	} {
		if utf8.RuneCountInString(f.val) != 1 {
			return errors.Newf("%s must be a single character, got %q", f.name, f.val)
		}
	}
	if p.Extension == "" {
		return errors.New("extension must not be empty")
	}
	if p.RowsToScan < 0 {
		return errors.Newf("rows_to_scan must not be negative, got %d", p.RowsToScan)
	}
	return nil
}

// Path returns the file holding the rows of the named table.
func (p Params) Path(table string) string {
	if p.Directory == "" {
		return table + "." + p.Extension
	}
	return p.Directory + "/" + table + "." + p.Extension
}
