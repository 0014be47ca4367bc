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

package hep

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/memo"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
	"github.com/relopt/relopt/pkg/sql/opt/rule"
	"github.com/relopt/relopt/pkg/util/log"
	"github.com/xlab/treeprint"
)

// DefaultMaxSteps is the rule-firing budget of a planner unless set
// otherwise.
const DefaultMaxSteps = 10000

var planCount int64

var budgetLogEvery = log.Every(10 * time.Second)

// AppliedRuleFunc is called after a rule was fired on source. target is the
// expression the rule proposed, or nil if it declined.
type AppliedRuleFunc func(ruleName string, source, target memo.RelExpr)

// Planner applies a program to one expression at a time. Programs and their
// rules may be shared by concurrent planners, but a Planner itself may not.
type Planner struct {
	program     *Program
	maxSteps    int
	metrics     *Metrics
	appliedRule AppliedRuleFunc

	ctx        context.Context
	vertices   []*vertex
	index      map[string]*vertex
	root       VertexID
	converters []*rule.ConverterRule
	fired      map[string]struct{}
	stats      rule.StatsCollector
	steps      int

	budgetExhausted bool
}

var _ memo.Metadata = &Planner{}

// New returns a planner for program.
func New(program *Program) *Planner {
	return &Planner{program: program, maxSteps: DefaultMaxSteps}
}

// SetMaxSteps limits the number of rule firings of one program application.
func (p *Planner) SetMaxSteps(n int) {
	if n <= 0 {
		n = DefaultMaxSteps
	}
	p.maxSteps = n
}

// SetMetrics makes the planner record into m.
func (p *Planner) SetMetrics(m *Metrics) { p.metrics = m }

// NotifyOnAppliedRule sets a callback invoked after every rule firing.
func (p *Planner) NotifyOnAppliedRule(fn AppliedRuleFunc) { p.appliedRule = fn }

// RuleStats returns the per-rule statistics of the last application.
func (p *Planner) RuleStats() *rule.StatsCollector { return &p.stats }

// Steps returns the number of rule firings of the last application.
func (p *Planner) Steps() int { return p.steps }

// BudgetExhausted returns true if the last application stopped early.
func (p *Planner) BudgetExhausted() bool { return p.budgetExhausted }

// ApplyProgram wraps every expression of root in a vertex, applies the
// instructions of the program in order and returns the resulting tree. An
// instruction that runs out of budget ends the program; the tree as it is at
// that point is returned. The error is an assertion failure if a rule broke
// an invariant.
func (p *Planner) ApplyProgram(ctx context.Context, root memo.RelExpr) (plan memo.RelExpr, err error) {
	p.ctx = logtags.AddTag(ctx, "hep", atomic.AddInt64(&planCount, 1))
	p.vertices = nil
	p.index = make(map[string]*vertex)
	p.fired = make(map[string]struct{})
	p.stats = rule.StatsCollector{}
	p.steps = 0
	p.budgetExhausted = false

	defer func() {
		if r := recover(); r != nil {
			plan, err = nil, opt.CatchOptimizerError(r)
		}
		p.recordResult(err)
	}()

	p.root = p.addExpr(root).id
	p.rebuildIndex()
	for i, in := range p.program.Instructions {
		log.VEventf(p.ctx, 1, "instruction %d: %d rules, %s, limit %d",
			i, len(in.Rules), in.MatchOrder, in.MatchLimit)
		p.applyInstruction(in)
		if p.budgetExhausted {
			break
		}
	}
	return p.buildFinalPlan(), nil
}

func (p *Planner) recordResult(err error) {
	if p.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "internal_error"
	}
	p.metrics.Programs.WithLabelValues(result).Inc()
	p.metrics.Vertices.Observe(float64(len(p.index)))
}

// applyInstruction fires the rules of in until none matches, restarting
// from the root after every replacement.
func (p *Planner) applyInstruction(in Instruction) {
	p.converters = p.converters[:0]
	for _, r := range in.Rules {
		if cr, ok := r.(*rule.ConverterRule); ok {
			p.converters = append(p.converters, cr)
		}
	}
	for matches := 0; in.MatchLimit <= 0 || matches < in.MatchLimit; matches++ {
		if !p.applyOnce(in) {
			return
		}
	}
}

// applyOnce offers the vertices to the rules in match order and returns
// true after the first replacement.
func (p *Planner) applyOnce(in Instruction) bool {
	for _, v := range p.order(in.MatchOrder) {
		for _, r := range in.Rules {
			if p.applyRule(r, v) {
				return true
			}
			if p.budgetExhausted {
				return false
			}
		}
	}
	return false
}

func (p *Planner) applyRule(r rule.Rule, v *vertex) bool {
	if cr, ok := r.(*rule.ConverterRule); ok && !p.converterApplies(cr, v) {
		return false
	}
	for _, b := range rule.Match(r.Operand(), v.payload, p.expand) {
		key := p.fingerprint(r, v, b)
		if _, ok := p.fired[key]; ok {
			continue
		}
		if p.outOfBudget() {
			return false
		}
		p.fired[key] = struct{}{}
		p.steps++
		mark := VertexID(len(p.vertices))
		if target := p.fire(r, b); target != nil {
			p.replace(r, v, target, mark)
			return true
		}
	}
	return false
}

// converterApplies returns true if cr may fire on v. Rules implementing
// logical expressions always may. Rules converting between two physical
// traits only fire when a parent of v that is not a converter itself wants
// the trait they produce; otherwise every conversion would be followed by the
// conversion back.
func (p *Planner) converterApplies(cr *rule.ConverterRule, v *vertex) bool {
	if cr.In() == cr.In().Def().Default() {
		return true
	}
	wanted := false
	p.walk(TopDown, func(u *vertex) {
		if wanted || u.payload.Op() == opt.ConverterOp || !u.payload.Traits().Contains(cr.Out()) {
			return
		}
		for i, n := 0, u.payload.ChildCount(); i < n; i++ {
			if p.vertexOf(u.payload.Child(i).(*VertexExpr)) == v {
				wanted = true
				return
			}
		}
	})
	return wanted
}

// fingerprint identifies a firing by the rule, the vertex and the bound
// expressions, including the current expressions of every vertex below them.
// A rule is offered a vertex again once something below it changed. Two
// vertices may hold the same expression over time, so the vertex is part of
// the key.
func (p *Planner) fingerprint(r rule.Rule, v *vertex, bindings []memo.RelExpr) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d|%s", v.id, r.Name())
	for _, e := range bindings {
		b.WriteByte('|')
		b.WriteString(memo.Digest(e))
		for i, n := 0, e.ChildCount(); i < n; i++ {
			if ve, ok := e.Child(i).(*VertexExpr); ok {
				fmt.Fprintf(&b, "{%s}", p.deepDigest(p.canonical(ve.id)))
			}
		}
	}
	return b.String()
}

// deepDigest returns the digest of the tree rooted at v.
func (p *Planner) deepDigest(v *vertex) string {
	var b strings.Builder
	var write func(v *vertex)
	write = func(v *vertex) {
		b.WriteString(v.digest)
		for i, n := 0, v.payload.ChildCount(); i < n; i++ {
			b.WriteByte('{')
			write(p.canonical(v.payload.Child(i).(*VertexExpr).id))
			b.WriteByte('}')
		}
	}
	write(v)
	return b.String()
}

func (p *Planner) fire(r rule.Rule, bindings []memo.RelExpr) memo.RelExpr {
	digests := make([]string, len(bindings))
	for i, e := range bindings {
		digests[i] = memo.Digest(e)
	}

	call := &ruleCall{p: p, rule: r, bindings: bindings}
	call.ctx = logtags.AddTag(p.ctx, "rule", r.Name())
	r.OnMatch(call)

	for i, e := range bindings {
		if d := memo.Digest(e); d != digests[i] {
			panic(errors.AssertionFailedf("rule %s modified bound expression %s into %s",
				errors.Safe(r.Name()), digests[i], d))
		}
	}

	p.stats.Record(r.Name(), call.target != nil)
	if p.metrics != nil {
		p.metrics.Steps.Inc()
		if call.target != nil {
			p.metrics.RuleFires.WithLabelValues(r.Name()).Inc()
		}
	}
	if p.appliedRule != nil {
		p.appliedRule(r.Name(), bindings[0], call.target)
	}
	return call.target
}

// replace overwrites the expression of v with e. If e is the placeholder of
// another vertex, v forwards to that vertex instead. Vertices created after
// mark were built by the rule from the old expression of v; where e or those
// vertices refer to v, they are moved over to a fresh vertex holding the old
// expression, so that v does not become an input of itself.
func (p *Planner) replace(r rule.Rule, v *vertex, e memo.RelExpr, mark VertexID) {
	if !e.RowType().Equivalent(v.rowType) {
		panic(errors.AssertionFailedf("rule %s changed the row type of vertex #%d from %s to %s",
			errors.Safe(r.Name()), errors.Safe(v.id), v.rowType, e.RowType()))
	}
	log.VEventf(p.ctx, 2, "%s: replacing #%d %s", r.Name(), v.id, v.digest)
	if ve, ok := e.(*VertexExpr); ok {
		w := p.vertexOf(ve)
		if w.id <= mark {
			if w != v {
				v.forward = w.id
			}
			p.rebuildIndex()
			return
		}
		e = w.payload
	}

	old := v.payload
	if p.index[v.digest] == v {
		delete(p.index, v.digest)
	}
	payload := p.withVertexChildren(e)
	var rehomed *vertex
	rehome := func(x memo.RelExpr) memo.RelExpr {
		var children []memo.RelExpr
		for i, n := 0, x.ChildCount(); i < n; i++ {
			if p.vertexOf(x.Child(i).(*VertexExpr)) != v {
				continue
			}
			if rehomed == nil {
				rehomed = p.addExpr(old)
			}
			if children == nil {
				children = memo.Children(x)
			}
			children[i] = rehomed.ph
		}
		if children == nil {
			return x
		}
		return x.WithChildren(children)
	}
	for _, u := range p.vertices[mark:] {
		if u != v && u.forward == 0 {
			u.payload = rehome(u.payload)
		}
	}
	v.payload = rehome(payload)
	p.rebuildIndex()
}

// outOfBudget returns true, once for good, when no more rules may fire.
func (p *Planner) outOfBudget() bool {
	if p.budgetExhausted {
		return true
	}
	if p.steps < p.maxSteps && p.ctx.Err() == nil {
		return false
	}
	p.budgetExhausted = true
	if budgetLogEvery.ShouldLog() {
		log.Warningf(p.ctx, "program stopped after %d steps", p.steps)
	}
	return true
}

// vertexOf returns the canonical vertex of a placeholder of this planner.
func (p *Planner) vertexOf(ve *VertexExpr) *vertex {
	if ve.p != p {
		panic(errors.AssertionFailedf("vertex #%d belongs to another planner", errors.Safe(ve.id)))
	}
	return p.canonical(ve.id)
}

func (p *Planner) canonical(id VertexID) *vertex {
	v := p.vertices[id-1]
	for v.forward != 0 {
		v = p.vertices[v.forward-1]
	}
	return v
}

// addExpr returns the vertex holding e, creating vertices for e and its
// inputs as needed.
func (p *Planner) addExpr(e memo.RelExpr) *vertex {
	if ve, ok := e.(*VertexExpr); ok {
		return p.vertexOf(ve)
	}
	payload := p.withVertexChildren(e)
	d := memo.Digest(payload)
	if v, ok := p.index[d]; ok {
		return p.canonical(v.id)
	}
	memo.CheckExpr(payload)
	v := &vertex{
		id:      VertexID(len(p.vertices) + 1),
		payload: payload,
		digest:  d,
		rowType: payload.RowType(),
	}
	v.ph = &VertexExpr{id: v.id, p: p}
	p.vertices = append(p.vertices, v)
	p.index[d] = v
	return v
}

// withVertexChildren returns e with every input replaced by the placeholder
// of its canonical vertex.
func (p *Planner) withVertexChildren(e memo.RelExpr) memo.RelExpr {
	n := e.ChildCount()
	if n == 0 {
		return e
	}
	children := make([]memo.RelExpr, n)
	changed := false
	for i := range children {
		c := e.Child(i)
		children[i] = p.addExpr(c).ph
		changed = changed || children[i] != c
	}
	if !changed {
		return e
	}
	return e.WithChildren(children)
}

// rebuildIndex recomputes the digests of the vertices reachable from the
// root, merges vertices that became duplicates and forgets unreachable ones.
func (p *Planner) rebuildIndex() {
	for {
		p.index = make(map[string]*vertex)
		merged := false
		p.walk(BottomUp, func(v *vertex) {
			v.payload = p.withVertexChildren(v.payload)
			v.digest = memo.Digest(v.payload)
			if w, ok := p.index[v.digest]; ok && w != v {
				v.forward = w.id
				merged = true
				return
			}
			p.index[v.digest] = v
		})
		if !merged {
			return
		}
	}
}

// order returns the vertices reachable from the root in match order.
func (p *Planner) order(o MatchOrder) []*vertex {
	var res []*vertex
	p.walk(o, func(v *vertex) { res = append(res, v) })
	return res
}

// walk calls fn once for every vertex reachable from the root, before or
// after its inputs.
func (p *Planner) walk(o MatchOrder, fn func(v *vertex)) {
	const (
		onStack = 1
		done    = 2
	)
	state := make(map[*vertex]uint8)
	var visit func(v *vertex)
	visit = func(v *vertex) {
		switch state[v] {
		case onStack:
			panic(errors.AssertionFailedf("vertex #%d is an input of itself", errors.Safe(v.id)))
		case done:
			return
		}
		state[v] = onStack
		if o == TopDown {
			fn(v)
		}
		for i, n := 0, v.payload.ChildCount(); i < n; i++ {
			visit(p.vertexOf(v.payload.Child(i).(*VertexExpr)))
		}
		if o == BottomUp {
			fn(v)
		}
		state[v] = done
	}
	visit(p.canonical(p.root))
}

// buildFinalPlan replaces every placeholder by the expression of its
// vertex.
func (p *Planner) buildFinalPlan() memo.RelExpr {
	visiting := make(map[*vertex]bool)
	var build func(v *vertex) memo.RelExpr
	build = func(v *vertex) memo.RelExpr {
		if visiting[v] {
			panic(errors.AssertionFailedf("final plan of vertex #%d refers to itself", errors.Safe(v.id)))
		}
		visiting[v] = true
		defer delete(visiting, v)

		e := v.payload
		n := e.ChildCount()
		if n == 0 {
			return e
		}
		children := make([]memo.RelExpr, n)
		for i := range children {
			children[i] = build(p.vertexOf(e.Child(i).(*VertexExpr)))
		}
		return e.WithChildren(children)
	}
	return build(p.canonical(p.root))
}

func (p *Planner) expand(e memo.RelExpr) []memo.RelExpr {
	if ve, ok := e.(*VertexExpr); ok {
		return []memo.RelExpr{p.vertexOf(ve).payload}
	}
	return []memo.RelExpr{e}
}

// convert returns an expression providing traits that is equivalent to e,
// using the converter rules of the current instruction, or nil.
func (p *Planner) convert(call rule.Call, e memo.RelExpr, traits physical.TraitSet) memo.RelExpr {
	if e.Traits() == traits {
		return e
	}
	src := p.expand(e)[0]
	for _, cr := range p.converters {
		if !traits.Contains(cr.Out()) || !src.Traits().Contains(cr.In()) ||
			src.Traits().Replace(cr.Out()) != traits {
			continue
		}
		if res := cr.Convert(call, src); res != nil {
			return p.addExpr(res).ph
		}
	}
	return nil
}

// RowCount is part of the memo.Metadata interface.
func (p *Planner) RowCount(e memo.RelExpr) float64 {
	if ve, ok := e.(*VertexExpr); ok {
		return p.RowCount(p.vertexOf(ve).payload)
	}
	return memo.EstimateRowCount(e, p)
}

// String renders the graph reachable from the root. Vertices with more than
// one parent are expanded once and referred to by ID afterwards.
func (p *Planner) String() string {
	tree := treeprint.NewWithRoot("hep")
	if p.root == 0 {
		return tree.String()
	}
	seen := make(map[*vertex]bool)
	var add func(branch treeprint.Tree, v *vertex)
	add = func(branch treeprint.Tree, v *vertex) {
		label := fmt.Sprintf("#%d %s", v.id, header(v.payload))
		if seen[v] || v.payload.ChildCount() == 0 {
			branch.AddNode(label)
			seen[v] = true
			return
		}
		seen[v] = true
		node := branch.AddBranch(label)
		for i, n := 0, v.payload.ChildCount(); i < n; i++ {
			add(node, p.vertexOf(v.payload.Child(i).(*VertexExpr)))
		}
	}
	add(tree, p.canonical(p.root))
	return tree.String()
}

func header(e memo.RelExpr) string {
	s := e.Op().String() + "." + e.Traits().String()
	if priv := e.Private(); priv != "" {
		s += " " + priv
	}
	return s
}

// ruleCall implements rule.Call for the heuristic planner.
type ruleCall struct {
	p        *Planner
	ctx      context.Context
	rule     rule.Rule
	bindings []memo.RelExpr
	target   memo.RelExpr
}

var _ rule.Call = &ruleCall{}

// Context is part of the rule.Call interface.
func (c *ruleCall) Context() context.Context { return c.ctx }

// Rule is part of the rule.Call interface.
func (c *ruleCall) Rule() rule.Rule { return c.rule }

// Binding is part of the rule.Call interface.
func (c *ruleCall) Binding(nth int) memo.RelExpr { return c.bindings[nth] }

// Bindings is part of the rule.Call interface.
func (c *ruleCall) Bindings() []memo.RelExpr { return c.bindings }

// TransformTo is part of the rule.Call interface. The proposed expression
// replaces the expression of the vertex the first binding belongs to.
func (c *ruleCall) TransformTo(e memo.RelExpr) {
	if c.target != nil {
		panic(errors.AssertionFailedf("rule %s transformed its binding twice", errors.Safe(c.rule.Name())))
	}
	c.target = e
}

// Convert is part of the rule.Call interface.
func (c *ruleCall) Convert(e memo.RelExpr, traits physical.TraitSet) memo.RelExpr {
	return c.p.convert(c, e, traits)
}

// Expand is part of the rule.Call interface.
func (c *ruleCall) Expand(e memo.RelExpr) []memo.RelExpr { return c.p.expand(e) }

// RowCount is part of the rule.Call interface.
func (c *ruleCall) RowCount(e memo.RelExpr) float64 { return c.p.RowCount(e) }
