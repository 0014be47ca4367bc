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

// Package opttester runs the datadriven tests of the optimizers.
package opttester

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/relopt/relopt/pkg/sql/opt/convert"
	"github.com/relopt/relopt/pkg/sql/opt/hep"
	"github.com/relopt/relopt/pkg/sql/opt/iter"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/sql/opt/ruleset"
	"github.com/relopt/relopt/pkg/sql/opt/testutils/testcat"
	"github.com/relopt/relopt/pkg/sql/opt/testutils/testexpr"
	"github.com/relopt/relopt/pkg/sql/opt/xform"
)

// OptTester is a helper for testing the optimizers. It contains the
// boiler-plate code for the following useful tasks:
//   - Build an expression from its s-expression form
//   - Optimize it with the cost-based optimizer or a heuristic program
//   - Format the memo structure
//   - Create a diff showing the optimizer's work, step-by-step
//
// The OptTester is used by the tests of the optimizer packages.
type OptTester struct {
	Flags Flags

	catalog   *testcat.Catalog
	input     string
	ctx       context.Context
	seenRules map[string]bool

	builder strings.Builder
}

// Flags are control knobs for tests. Note that specific testcases can
// override these defaults.
type Flags struct {
	// ExprFormat controls the output detail of the build, opt, hep and
	// optsteps commands.
	ExprFormat memo.ExprFmtFlags

	// Rules restricts the rules to the named ones. If empty, the default
	// rules are used.
	Rules []string

	// DisableRules are removed from the rules that would be used otherwise.
	DisableRules []string

	// Required is the trait set the plan must provide.
	Required physical.TraitSet

	// MaxSteps bounds the number of rule firings.
	MaxSteps int

	// AbstractConverters enables abstract converters in the cost-based
	// optimizer.
	AbstractConverters bool

	// TieBreak decides between plans of equal cost.
	TieBreak memo.TieBreak

	// Conversions replaces the default conversion graph. Each conversion is
	// written FROM->TO.
	Conversions [][2]string

	// MatchOrder and MatchLimit configure the instruction of the hep
	// command.
	MatchOrder hep.MatchOrder
	MatchLimit int

	// ExpectedRules must all fire for the test to pass.
	ExpectedRules []string

	// UnexpectedRules must not fire for the test to pass.
	UnexpectedRules []string

	// Verbose indicates whether verbose test debugging information will be
	// output to stdout when commands run. Only certain commands support this.
	Verbose bool
}

// New constructs a new instance of the OptTester over the given catalog.
func New(catalog *testcat.Catalog) *OptTester {
	return &OptTester{
		catalog: catalog,
		ctx:     context.Background(),
		Flags: Flags{
			Required:           physical.ConventionSet(iter.Iterator),
			AbstractConverters: true,
		},
	}
}

// RunCommand implements commands that are used by most tests:
//
//   - exec-ddl
//
//     Runs DDL statements (see testcat.Catalog.ExecuteDDL) to build the test
//     catalog.
//
//   - build [flags]
//
//     Builds an expression and outputs it without any rule applied to it.
//
//   - opt [flags]
//
//     Optimizes an expression with the cost-based optimizer and outputs the
//     cheapest plan that provides the required traits.
//
//   - hep [flags]
//
//     Applies a single-instruction heuristic program (the normalization
//     rules unless rules are given) and outputs the result.
//
//   - memo [flags]
//
//     Optimizes an expression and outputs the memo.
//
//   - optsteps [flags]
//
//     Outputs the cheapest plan after each step of the optimization, using
//     the standard unified diff format.
//
//   - rulestats [flags]
//
//     Optimizes an expression and outputs how often each rule fired.
//
//   - chain from=TRAIT to=TRAIT [conversions=...]
//
//     Outputs the shortest chain of conversions between two conventions.
//
// Supported flags:
//
//   - format: controls the formatting of expressions. Possible values:
//     show-all, hide-traits, show-row-type.
//
//   - rules: the rules to use, replacing the default ones.
//
//   - disable: rules that are not allowed to run.
//
//   - required: the required convention (ITERATOR by default).
//
//   - max-steps: the rule firing budget.
//
//   - abstract-converters: on or off.
//
//   - tie-break: earlier or later.
//
//   - conversions: the conversion graph, as a list of FROM->TO.
//
//   - order, limit: the match order and limit of the hep instruction.
//
//   - expect: fail the test if the rules specified by name do not fire.
//
//   - expect-not: fail the test if the rules specified by name fire.
func (ot *OptTester) RunCommand(tb testing.TB, d *datadriven.TestData) string {
	// Allow testcases to override the flags.
	for _, a := range d.CmdArgs {
		if err := ot.Flags.Set(a); err != nil {
			d.Fatalf(tb, "%+v", err)
		}
	}
	ot.Flags.Verbose = testing.Verbose()
	ot.input = d.Input
	ot.seenRules = make(map[string]bool)

	switch d.Cmd {
	case "exec-ddl":
		s, err := ot.catalog.ExecuteDDL(d.Input)
		if err != nil {
			d.Fatalf(tb, "%v", err)
		}
		return s

	case "build":
		e, err := ot.Build()
		if err != nil {
			return fmt.Sprintf("error: %s\n", strings.TrimSpace(err.Error()))
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "opt":
		e, err := ot.Optimize()
		if xform.IsNoPlan(err) {
			return fmt.Sprintf("error: %s\n", err)
		}
		if err != nil {
			d.Fatalf(tb, "%+v", err)
		}
		if err := ot.checkExpectedRules(); err != nil {
			tb.Fatal(err)
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "hep":
		e, err := ot.Hep()
		if err != nil {
			d.Fatalf(tb, "%+v", err)
		}
		if err := ot.checkExpectedRules(); err != nil {
			tb.Fatal(err)
		}
		return memo.FormatExpr(e, ot.Flags.ExprFormat)

	case "memo":
		result, err := ot.Memo()
		if err != nil {
			d.Fatalf(tb, "%+v", err)
		}
		return result

	case "optsteps":
		result, err := ot.OptSteps()
		if err != nil {
			d.Fatalf(tb, "%+v", err)
		}
		return result

	case "rulestats":
		result, err := ot.RuleStats()
		if err != nil {
			d.Fatalf(tb, "%+v", err)
		}
		return result

	case "chain":
		var from, to string
		d.ScanArgs(tb, "from", &from)
		d.ScanArgs(tb, "to", &to)
		result, err := ot.Chain(physical.Convention(from), physical.Convention(to))
		if err != nil {
			d.Fatalf(tb, "%+v", err)
		}
		return result

	default:
		d.Fatalf(tb, "unsupported command: %s", d.Cmd)
		return ""
	}
}

func (ot *OptTester) checkExpectedRules() error {
	var unseen, seen []string
	for _, r := range ot.Flags.ExpectedRules {
		if !ot.seenRules[r] {
			unseen = append(unseen, r)
		}
	}
	for _, r := range ot.Flags.UnexpectedRules {
		if ot.seenRules[r] {
			seen = append(seen, r)
		}
	}
	if len(unseen) > 0 {
		return errors.Newf("expected to see %s, but was not triggered. Did see %s",
			strings.Join(unseen, ", "), strings.Join(ot.seenRuleNames(), ", "))
	}
	if len(seen) > 0 {
		return errors.Newf("expected not to see %s, but it was triggered", strings.Join(seen, ", "))
	}
	return nil
}

func (ot *OptTester) seenRuleNames() []string {
	names := make([]string, 0, len(ot.seenRules))
	for name := range ot.seenRules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set parses an argument that refers to a flag.
// See OptTester.RunCommand for supported flags.
func (f *Flags) Set(arg datadriven.CmdArg) error {
	switch arg.Key {
	case "format":
		f.ExprFormat = 0
		if len(arg.Vals) == 0 {
			return errors.New("format flag requires value(s)")
		}
		for _, v := range arg.Vals {
			m := map[string]memo.ExprFmtFlags{
				"show-all":      memo.ExprFmtShowAll,
				"hide-traits":   memo.ExprFmtHideTraits,
				"show-row-type": memo.ExprFmtShowRowType,
			}
			val, ok := m[v]
			if !ok {
				return errors.Newf("unknown format value %s", v)
			}
			f.ExprFormat |= val
		}

	case "rules":
		if len(arg.Vals) == 0 {
			return errors.New("rules requires arguments")
		}
		f.Rules = arg.Vals

	case "disable":
		if len(arg.Vals) == 0 {
			return errors.New("disable requires arguments")
		}
		f.DisableRules = arg.Vals

	case "required":
		if len(arg.Vals) != 1 {
			return errors.New("required requires one argument")
		}
		f.Required = physical.ConventionSet(physical.Convention(arg.Vals[0]))

	case "max-steps":
		if len(arg.Vals) != 1 {
			return errors.New("max-steps requires one argument")
		}
		n, err := strconv.Atoi(arg.Vals[0])
		if err != nil {
			return errors.Wrap(err, "max-steps")
		}
		f.MaxSteps = n

	case "abstract-converters":
		switch {
		case len(arg.Vals) == 0 || arg.Vals[0] == "on":
			f.AbstractConverters = true
		case arg.Vals[0] == "off":
			f.AbstractConverters = false
		default:
			return errors.Newf("abstract-converters must be on or off, found %s", arg.Vals[0])
		}

	case "tie-break":
		if len(arg.Vals) != 1 {
			return errors.New("tie-break requires one argument")
		}
		tb, err := memo.TieBreakFromString(arg.Vals[0])
		if err != nil {
			return err
		}
		f.TieBreak = tb

	case "conversions":
		f.Conversions = nil
		for _, v := range arg.Vals {
			c, err := ruleset.ParseConversion(v)
			if err != nil {
				return err
			}
			f.Conversions = append(f.Conversions, c)
		}

	case "order":
		if len(arg.Vals) != 1 {
			return errors.New("order requires one argument")
		}
		order, err := hep.MatchOrderFromString(arg.Vals[0])
		if err != nil {
			return err
		}
		f.MatchOrder = order

	case "limit":
		if len(arg.Vals) != 1 {
			return errors.New("limit requires one argument")
		}
		n, err := strconv.Atoi(arg.Vals[0])
		if err != nil {
			return errors.Wrap(err, "limit")
		}
		f.MatchLimit = n

	case "expect":
		f.ExpectedRules = arg.Vals

	case "expect-not":
		f.UnexpectedRules = arg.Vals

	case "from", "to":
		// Arguments of the chain command.

	default:
		return errors.Newf("unknown argument: %s", arg.Key)
	}
	return nil
}

// Build constructs the expression of the test input, with no rule applied
// to it.
func (ot *OptTester) Build() (memo.RelExpr, error) {
	return testexpr.Build(ot.catalog, ot.input)
}

// rules returns the registry of rules the flags select.
func (ot *OptTester) rules(defaults func() *rule.Registry) (*rule.Registry, error) {
	if len(ot.Flags.Rules) > 0 {
		return ruleset.Select(ot.Flags.Rules...)
	}
	r := defaults()
	if len(ot.Flags.DisableRules) == 0 {
		return r, nil
	}
	disabled := make(map[string]bool)
	for _, name := range ot.Flags.DisableRules {
		if _, ok := r.Lookup(name); !ok {
			return nil, errors.Newf("unknown rule %q", name)
		}
		disabled[name] = true
	}
	var names []string
	for _, rl := range r.Rules() {
		if !disabled[rl.Name()] {
			names = append(names, rl.Name())
		}
	}
	return r.Select(names...)
}

func (ot *OptTester) graph() (*convert.Graph, error) {
	return ruleset.Graph(ot.Flags.Conversions...)
}

// makeOptimizer returns an optimizer configured by the flags, that may fire
// at most maxSteps rules.
func (ot *OptTester) makeOptimizer(maxSteps int) (*xform.Optimizer, error) {
	rules, err := ot.rules(ruleset.Default)
	if err != nil {
		return nil, err
	}
	g, err := ot.graph()
	if err != nil {
		return nil, err
	}
	settings := xform.DefaultSettings()
	if maxSteps > 0 {
		settings.MaxSteps = maxSteps
	}
	settings.AbstractConverters = ot.Flags.AbstractConverters
	settings.TieBreak = ot.Flags.TieBreak
	o := xform.New(rules, g, settings)
	o.NotifyOnAppliedRule(func(ruleName string, source, target memo.RelExpr) {
		if target != nil {
			ot.seenRules[ruleName] = true
		}
	})
	return o, nil
}

// Optimize builds the expression of the test input and returns its cheapest
// plan.
func (ot *OptTester) Optimize() (memo.RelExpr, error) {
	o, err := ot.makeOptimizer(ot.Flags.MaxSteps)
	if err != nil {
		return nil, err
	}
	return ot.optimizeExpr(o)
}

func (ot *OptTester) optimizeExpr(o *xform.Optimizer) (memo.RelExpr, error) {
	e, err := ot.Build()
	if err != nil {
		return nil, err
	}
	return o.Optimize(ot.ctx, e, ot.Flags.Required)
}

// Hep builds the expression of the test input and applies a heuristic
// program with one instruction to it.
func (ot *OptTester) Hep() (memo.RelExpr, error) {
	rules, err := ot.rules(ruleset.Normalization)
	if err != nil {
		return nil, err
	}
	e, err := ot.Build()
	if err != nil {
		return nil, err
	}
	prog := (&hep.Program{}).Add(hep.Instruction{
		Rules:      rules.Rules(),
		MatchOrder: ot.Flags.MatchOrder,
		MatchLimit: ot.Flags.MatchLimit,
	})
	p := hep.New(prog)
	p.SetMaxSteps(ot.Flags.MaxSteps)
	p.NotifyOnAppliedRule(func(ruleName string, source, target memo.RelExpr) {
		if target != nil {
			ot.seenRules[ruleName] = true
		}
	})
	return p.ApplyProgram(ot.ctx, e)
}

// Memo returns a string that shows the memo data structure that is
// constructed by the optimizer. A missing plan is not an error here, since
// the memo shows why.
func (ot *OptTester) Memo() (string, error) {
	o, err := ot.makeOptimizer(ot.Flags.MaxSteps)
	if err != nil {
		return "", err
	}
	if _, err := ot.optimizeExpr(o); err != nil && !xform.IsNoPlan(err) {
		return "", err
	}
	if o.Memo() == nil {
		return "", errors.New("no memo was built")
	}
	return o.Memo().String(), nil
}

// RuleStats performs the optimization and returns statistics about how
// often each rule fired.
func (ot *OptTester) RuleStats() (string, error) {
	o, err := ot.makeOptimizer(ot.Flags.MaxSteps)
	if err != nil {
		return "", err
	}
	if _, err := ot.optimizeExpr(o); err != nil && !xform.IsNoPlan(err) {
		return "", err
	}
	var res strings.Builder
	o.RuleStats().WriteTable(&res)
	fmt.Fprintf(&res, "%d steps", o.Steps())
	if o.BudgetExhausted() {
		res.WriteString(", budget exhausted")
	}
	res.WriteString("\n")
	return res.String(), nil
}

// Chain returns the shortest chain of conversions between two conventions.
func (ot *OptTester) Chain(from, to physical.Convention) (string, error) {
	g, err := ot.graph()
	if err != nil {
		return "", err
	}
	path := g.Path(from, to)
	if path == nil {
		return fmt.Sprintf("no conversion from %s to %s\n", from, to), nil
	}
	parts := make([]string, len(path))
	for i, t := range path {
		parts[i] = t.String()
	}
	return fmt.Sprintf("%s (distance %g)\n", strings.Join(parts, " -> "), g.Distance(from, to)), nil
}

// OptSteps steps through the rule firings of the optimizer one by one. The
// output of each step is the cheapest plan after that many firings, diff'd
// against the output of a previous step using the standard unified diff
// format. The optimization is rerun from scratch with a budget of one more
// step each time, so every step shows the plan the optimizer would return
// if it was stopped there.
//
// Some steps produce better plans that have a lower execution cost. Other
// steps don't. The output distinguishes these two cases by using stronger
// "====" header delimiters when a better plan has been found, and weaker
// "----" header delimiters when not.
func (ot *OptTester) OptSteps() (string, error) {
	ot.builder.Reset()
	e, err := ot.Build()
	if err != nil {
		return "", err
	}
	limit := ot.Flags.MaxSteps
	if limit <= 0 {
		limit = xform.DefaultMaxSteps
	}

	next := memo.FormatExpr(e, ot.Flags.ExprFormat)
	prev, prevBest := next, next
	bestCost := memo.InfiniteCost
	ot.bestHeader("Initial expression", bestCost)
	ot.indent(next)

	for steps := 1; steps <= limit; steps++ {
		os, err := ot.optStep(steps)
		if err != nil {
			return "", err
		}
		if os.done {
			break
		}
		next = os.text
		switch {
		case next == prev || next == prevBest:
			ot.altHeader(fmt.Sprintf("%s (no changes)", os.ruleName))
		case memo.DefaultCostModel.Less(os.cost, bestCost):
			// New plan is better than the previous plan. Diff it against the
			// previous *best* plan (might not be the previous plan).
			ot.bestHeader(os.ruleName, os.cost)
			ot.diff(prevBest, next)
			prevBest, bestCost = next, os.cost
		default:
			ot.altHeader(fmt.Sprintf("%s (higher cost)", os.ruleName))
			ot.diff(prev, next)
		}
		prev = next
	}

	ot.bestHeader("Final best expression", bestCost)
	ot.indent(prevBest)
	return ot.builder.String(), nil
}

type optStep struct {
	ruleName string
	text     string
	cost     memo.Cost
	done     bool
}

// optStep optimizes with a budget of the given number of steps. The step is
// done if the optimization reached its fix point within fewer steps.
func (ot *OptTester) optStep(steps int) (optStep, error) {
	o, err := ot.makeOptimizer(steps)
	if err != nil {
		return optStep{}, err
	}
	var res optStep
	fired := 0
	o.NotifyOnAppliedRule(func(ruleName string, source, target memo.RelExpr) {
		fired++
		if fired == steps {
			res.ruleName = ruleName
		}
	})
	plan, err := ot.optimizeExpr(o)
	if fired < steps {
		res.done = true
		return res, nil
	}
	switch {
	case err == nil:
		res.text = memo.FormatExpr(plan, ot.Flags.ExprFormat)
		res.cost = memo.TreeCost(plan, memo.DefaultCoster{}, memo.TreeMetadata)
	case xform.IsNoPlan(err):
		res.text = "no plan\n"
		res.cost = memo.InfiniteCost
	default:
		return optStep{}, err
	}
	return res, nil
}

func (ot *OptTester) output(format string, args ...interface{}) {
	fmt.Fprintf(&ot.builder, format, args...)
	if ot.Flags.Verbose {
		fmt.Printf(format, args...)
	}
}

func (ot *OptTester) indent(str string) {
	str = strings.TrimRight(str, " \n\t\r")
	lines := strings.Split(str, "\n")
	for _, line := range lines {
		ot.output("  %s\n", line)
	}
}

// bestHeader is used when a new best plan has been found. If the cost is
// known, it is shown in the header.
func (ot *OptTester) bestHeader(header string, cost memo.Cost) {
	ot.separator("=")
	ot.output("%s\n", header)
	if !cost.IsInfinite() {
		ot.output("  Cost: %s\n", cost)
	}
	ot.separator("=")
}

// altHeader is used when the step did not produce a better plan.
func (ot *OptTester) altHeader(header string) {
	ot.separator("-")
	ot.output("%s\n", header)
	ot.separator("-")
}

func (ot *OptTester) separator(sep string) {
	ot.output("%s\n", strings.Repeat(sep, 80))
}

// diff writes the unified diff between two plans, without its file headers.
func (ot *OptTester) diff(before, after string) {
	diff := difflib.UnifiedDiff{
		A:       difflib.SplitLines(before),
		B:       difflib.SplitLines(after),
		Context: 100,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	// Skip the "@@ ... @@" header (first line).
	text = strings.SplitN(text, "\n", 2)[1]
	ot.indent(text)
}
