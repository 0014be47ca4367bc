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

package cli

import (
	"io"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt/convert"
	"github.com/relopt/relopt/pkg/sql/opt/hep"
	"github.com/relopt/relopt/pkg/sql/opt/iter"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/sql/opt/ruleset"
	"github.com/relopt/relopt/pkg/sql/opt/testutils/testcat"
	"github.com/relopt/relopt/pkg/sql/opt/xform"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config is the YAML form of the optimizer configuration:
//
//	required: ITERATOR
//	catalog: tables.ddl
//	ddl: |
//	  (table t (a INT) (b STRING) (rows 100))
//	settings:
//	  max_steps: 1000
//	  abstract_converters: true
//	  tie_break: earlier
//	rules: [UnionToConcatenate, Implement(scan)]
//	conversions: [ITERATOR->COLLECTION, COLLECTION->ARRAY]
//	hep:
//	  - rules: [UnionEliminator]
//	    order: bottom-up
//	    limit: 10
//
// Missing fields keep their default value. An empty rule list selects the
// default rules, and an empty conversion list the default conversions.
type Config struct {
	Required    string              `yaml:"required"`
	Catalog     string              `yaml:"catalog"`
	DDL         string              `yaml:"ddl"`
	Settings    SettingsConfig      `yaml:"settings"`
	Rules       []string            `yaml:"rules"`
	Conversions []string            `yaml:"conversions"`
	Hep         []InstructionConfig `yaml:"hep"`
}

// SettingsConfig is the YAML form of xform.Settings.
type SettingsConfig struct {
	MaxSteps           int    `yaml:"max_steps"`
	AbstractConverters bool   `yaml:"abstract_converters"`
	TieBreak           string `yaml:"tie_break"`
}

// InstructionConfig is the YAML form of hep.Instruction.
type InstructionConfig struct {
	Rules []string `yaml:"rules"`
	Order string   `yaml:"order"`
	Limit int      `yaml:"limit"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	def := xform.DefaultSettings()
	return Config{
		Required: iter.Iterator.String(),
		Settings: SettingsConfig{
			MaxSteps:           def.MaxSteps,
			AbstractConverters: def.AbstractConverters,
			TieBreak:           def.TieBreak.String(),
		},
	}
}

// LoadConfig reads the configuration file at path. A relative catalog path
// is resolved against the directory of the file.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	cfg, err := DecodeConfig(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "loading %s", path)
	}
	if cfg.Catalog != "" && !filepath.IsAbs(cfg.Catalog) {
		cfg.Catalog = filepath.Join(filepath.Dir(path), cfg.Catalog)
	}
	return cfg, nil
}

// DecodeConfig decodes a YAML configuration from r. Unknown fields are
// rejected.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	return cfg, nil
}

// RequiredTraits returns the traits the plan must provide.
func (c Config) RequiredTraits() physical.TraitSet {
	return physical.ConventionSet(physical.Convention(c.Required))
}

// OptimizerSettings returns the settings of the cost-based optimizer.
func (c Config) OptimizerSettings() (xform.Settings, error) {
	s := xform.DefaultSettings()
	if c.Settings.MaxSteps > 0 {
		s.MaxSteps = c.Settings.MaxSteps
	}
	s.AbstractConverters = c.Settings.AbstractConverters
	tb, err := memo.TieBreakFromString(c.Settings.TieBreak)
	if err != nil {
		return xform.Settings{}, errors.Wrap(err, "settings")
	}
	s.TieBreak = tb
	return s, nil
}

// RuleRegistry returns the rules of the cost-based optimizer.
func (c Config) RuleRegistry() (*rule.Registry, error) {
	if len(c.Rules) == 0 {
		return ruleset.Default(), nil
	}
	r, err := ruleset.Select(c.Rules...)
	if err != nil {
		return nil, errors.Wrap(err, "rules")
	}
	return r, nil
}

// ConversionGraph returns the conversions abstract converters may expand
// into.
func (c Config) ConversionGraph() (*convert.Graph, error) {
	pairs := make([][2]string, len(c.Conversions))
	for i, s := range c.Conversions {
		p, err := ruleset.ParseConversion(s)
		if err != nil {
			return nil, errors.Wrap(err, "conversions")
		}
		pairs[i] = p
	}
	g, err := ruleset.Graph(pairs...)
	if err != nil {
		return nil, errors.Wrap(err, "conversions")
	}
	return g, nil
}

// Program returns the program of the heuristic planner. Without
// instructions, the normalization rules are applied top-down.
func (c Config) Program() (*hep.Program, error) {
	if len(c.Hep) == 0 {
		return hep.NewProgram(ruleset.Normalization().Rules()...), nil
	}
	p := &hep.Program{}
	for i, in := range c.Hep {
		rules, err := ruleset.Select(in.Rules...)
		if err != nil {
			return nil, errors.Wrapf(err, "hep instruction %d", i+1)
		}
		order, err := hep.MatchOrderFromString(in.Order)
		if err != nil {
			return nil, errors.Wrapf(err, "hep instruction %d", i+1)
		}
		p.Add(hep.Instruction{Rules: rules.Rules(), MatchOrder: order, MatchLimit: in.Limit})
	}
	return p, nil
}

// NewCatalog returns a catalog holding the tables of the catalog file and of
// the inline DDL, in that order.
func (c Config) NewCatalog(fs afero.Fs) (*testcat.Catalog, error) {
	cat := testcat.New()
	if c.Catalog != "" {
		ddl, err := afero.ReadFile(fs, c.Catalog)
		if err != nil {
			return nil, err
		}
		if _, err := cat.ExecuteDDL(string(ddl)); err != nil {
			return nil, errors.Wrapf(err, "catalog %s", c.Catalog)
		}
	}
	if c.DDL != "" {
		if _, err := cat.ExecuteDDL(c.DDL); err != nil {
			return nil, errors.Wrap(err, "ddl")
		}
	}
	return cat, nil
}
