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

// Package memo stores the equivalence sets and subsets the cost-based
// optimizer searches over, together with the relational expressions that
// make them up.
package memo

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/relopt/relopt/pkg/sql/opt"
	"github.com/relopt/relopt/pkg/sql/opt/props/physical"
)

// SetID identifies an equivalence set within a memo. IDs start at 1.
type SetID int32

// SubsetID identifies a subset within a memo. IDs start at 1.
type SubsetID int32

// TieBreak decides which of two members with equal cost becomes the best
// member of a subset.
type TieBreak uint8

const (
	// PreferEarlier keeps the member that was registered first.
	PreferEarlier TieBreak = iota
	// PreferLater switches to the member that was registered last.
	PreferLater
)

func (t TieBreak) String() string {
	if t == PreferLater {
		return "later"
	}
	return "earlier"
}

// TieBreakFromString parses "earlier" or "later".
func TieBreakFromString(s string) (TieBreak, error) {
	switch s {
	case "earlier", "":
		return PreferEarlier, nil
	case "later":
		return PreferLater, nil
	}
	return PreferEarlier, errors.Newf("unknown tie-break %s", s)
}

// Memo is an arena of equivalence sets. Each set holds expressions that
// compute the same rows; each set is partitioned into subsets, one per trait
// set provided by its members. Expressions stored in the memo never refer to
// each other directly: every child is the *SubsetExpr placeholder of a
// subset, so a cheaper member found later is picked up by every consumer
// without rewriting it.
//
// A Memo is not safe for concurrent use.
type Memo struct {
	coster    Coster
	costModel CostModel
	tieBreak  TieBreak

	sets    []*EquivSet
	subsets []*Subset
	digests map[string]*Member
	seq     int

	// mergeQueue holds pairs of sets proven equivalent but not merged yet.
	mergeQueue [][2]*EquivSet
	merging    bool

	// costQueue holds members whose cost must be recomputed because the best
	// member of one of their inputs changed.
	costQueue []*Member
	costing   bool

	// events holds subsets that were created, moved to another set, or became
	// required since the last call to DrainEvents.
	events []*Subset

	stats Stats

	// OnMerge, if set, is called after each set merge.
	OnMerge func(kept, merged SetID)
}

var _ Metadata = &Memo{}

// Stats counts what happened in a memo.
type Stats struct {
	Sets             int
	Subsets          int
	Members          int
	Merges           int
	BestImprovements int
}

// EquivSet is a set of expressions proven to produce the same rows. A set
// that was merged into another one forwards to it.
type EquivSet struct {
	id         SetID
	mergedInto *EquivSet
	rowType    opt.RowType
	rowCount   float64
	members    []*Member
	subsets    []*Subset
}

// Subset is the part of an equivalence set that provides one trait set. It
// tracks the cheapest member found so far; the cost of that member never
// increases.
type Subset struct {
	id       SubsetID
	forward  *Subset
	set      *EquivSet
	traits   physical.TraitSet
	members  []*Member
	parents  []*Member
	best     *Member
	bestCost Cost
	required bool

	placeholder *SubsetExpr
}

// Member is an expression stored in the memo. Its children are always
// placeholders of canonical subsets as of the last merge that affected it.
type Member struct {
	expr   RelExpr
	digest string
	set    *EquivSet
	subset *Subset
	seq    int
	cost   Cost
	// dead is set when a merge made the member a duplicate of another one.
	dead bool
}

// New returns an empty memo.
func New(coster Coster, costModel CostModel, tieBreak TieBreak) *Memo {
	if coster == nil {
		coster = DefaultCoster{}
	}
	if costModel == nil {
		costModel = DefaultCostModel
	}
	return &Memo{
		coster:    coster,
		costModel: costModel,
		tieBreak:  tieBreak,
		digests:   make(map[string]*Member),
	}
}

// CostModel returns the cost model the memo orders members with.
func (m *Memo) CostModel() CostModel { return m.costModel }

// ---------------------------------------------------------------------------
// EquivSet accessors

// ID returns the identifier of the set.
func (s *EquivSet) ID() SetID { return s.id }

// RowType returns the columns produced by every member of the set.
func (s *EquivSet) RowType() opt.RowType { return s.rowType }

// RowCount returns the estimated row count of the set. It is computed once,
// from the first expression registered in the set.
func (s *EquivSet) RowCount() float64 { return s.rowCount }

// Canonical returns the set s was merged into, or s itself.
func (s *EquivSet) Canonical() *EquivSet {
	for s.mergedInto != nil {
		s = s.mergedInto
	}
	return s
}

// Merged returns true if s was merged into another set.
func (s *EquivSet) Merged() bool { return s.mergedInto != nil }

// Members returns the live members of the set in registration order.
func (s *EquivSet) Members() []*Member {
	return liveMembers(s.members)
}

// Subsets returns the subsets of the set in creation order.
func (s *EquivSet) Subsets() []*Subset { return s.subsets }

// Subset returns the subset of s with the given traits, or nil.
func (s *EquivSet) Subset(traits physical.TraitSet) *Subset {
	for _, sub := range s.subsets {
		if sub.traits == traits {
			return sub
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Subset accessors

// ID returns the identifier of the subset.
func (s *Subset) ID() SubsetID { return s.id }

// Canonical returns the subset s was merged into, or s itself.
func (s *Subset) Canonical() *Subset {
	for s.forward != nil {
		s = s.forward
	}
	return s
}

// Set returns the canonical set the subset belongs to.
func (s *Subset) Set() *EquivSet { return s.Canonical().set.Canonical() }

// Traits returns the trait set of the subset.
func (s *Subset) Traits() physical.TraitSet { return s.traits }

// Members returns the live members of the subset in registration order.
func (s *Subset) Members() []*Member {
	return liveMembers(s.Canonical().members)
}

// Best returns the cheapest member of the subset and its cost, or nil if no
// member has a finite cost yet.
func (s *Subset) Best() (*Member, Cost) {
	c := s.Canonical()
	if c.best == nil {
		return nil, InfiniteCost
	}
	return c.best, c.bestCost
}

// Required returns true if some consumer asked for the traits of the subset.
func (s *Subset) Required() bool { return s.Canonical().required }

// Placeholder returns the expression consumers use to refer to the subset.
func (s *Subset) Placeholder() *SubsetExpr { return s.Canonical().placeholder }

func (s *Subset) String() string {
	return fmt.Sprintf("#%d %s", s.id, s.traits)
}

// ---------------------------------------------------------------------------
// Member accessors

// Expr returns the expression of the member.
func (mem *Member) Expr() RelExpr { return mem.expr }

// Digest returns the digest of the member's expression.
func (mem *Member) Digest() string { return mem.digest }

// Set returns the canonical set of the member.
func (mem *Member) Set() *EquivSet { return mem.set.Canonical() }

// Subset returns the canonical subset of the member.
func (mem *Member) Subset() *Subset { return mem.subset.Canonical() }

// Seq returns the registration order of the member.
func (mem *Member) Seq() int { return mem.seq }

// Cost returns the cost of the member including its inputs.
func (mem *Member) Cost() Cost { return mem.cost }

// Dead returns true if the member became a duplicate of another one.
func (mem *Member) Dead() bool { return mem.dead }

func liveMembers(members []*Member) []*Member {
	res := make([]*Member, 0, len(members))
	for _, mem := range members {
		if !mem.dead {
			res = append(res, mem)
		}
	}
	return res
}

// ---------------------------------------------------------------------------
// Registration

// Register stores e and, recursively, its inputs in the memo and returns the
// subset e ends up in. If equivTo is non-zero, e is known to be equivalent
// to the expressions of that set; if e is already stored in another set, the
// two sets are merged.
//
// Register panics with an assertion failure if e does not have the row type
// of the set it joins.
func (m *Memo) Register(e RelExpr, equivTo SetID) *Subset {
	var target *EquivSet
	if equivTo != 0 {
		target = m.Set(equivTo)
	}
	sub := m.register(e, target)
	m.processMerges()
	m.processCosts()
	return sub.Canonical()
}

func (m *Memo) register(e RelExpr, target *EquivSet) *Subset {
	if ph, ok := e.(*SubsetExpr); ok {
		sub := m.subsetOf(ph)
		if target != nil {
			m.checkRowType(target.Canonical(), e)
			m.queueMerge(target, sub.Set())
			m.processMerges()
		}
		return sub.Canonical()
	}

	e = m.canonicalizeChildren(e, true /* register */)
	digest := Digest(e)
	if mem, ok := m.digests[digest]; ok {
		if target != nil {
			m.checkRowType(target.Canonical(), e)
			m.queueMerge(target, mem.Set())
			m.processMerges()
		}
		return mem.Subset()
	}

	CheckExpr(e)
	var set *EquivSet
	if target != nil {
		set = target.Canonical()
		m.checkRowType(set, e)
	} else {
		set = m.newSet(e)
	}
	mem := &Member{expr: e, digest: digest, set: set, seq: m.seq}
	m.seq++
	m.stats.Members++
	mem.subset = m.ensureSubset(set, e.Traits())
	set.members = append(set.members, mem)
	mem.subset.members = append(mem.subset.members, mem)
	m.digests[digest] = mem
	for i, n := 0, e.ChildCount(); i < n; i++ {
		child := m.subsetOf(e.Child(i))
		child.parents = append(child.parents, mem)
	}
	m.updateCost(mem)
	return mem.subset
}

// canonicalizeChildren returns e with every child replaced by the placeholder
// of its canonical subset. Children that are not placeholders are registered
// first if register is true.
func (m *Memo) canonicalizeChildren(e RelExpr, register bool) RelExpr {
	n := e.ChildCount()
	if n == 0 {
		return e
	}
	var children []RelExpr
	for i := 0; i < n; i++ {
		child := e.Child(i)
		var ph *SubsetExpr
		if s, ok := child.(*SubsetExpr); ok {
			ph = s.Subset().Placeholder()
		} else if register {
			ph = m.register(child, nil).Placeholder()
		} else {
			panic(errors.AssertionFailedf("child %d of %s is not in the memo", i, errors.Safe(e.Op())))
		}
		if children == nil && RelExpr(ph) != child {
			children = make([]RelExpr, n)
			for j := 0; j < i; j++ {
				children[j] = e.Child(j)
			}
		}
		if children != nil {
			children[i] = ph
		}
	}
	if register {
		// Registering a later child may have merged the set of an earlier one.
		for i := range children {
			children[i] = m.subsetOf(children[i]).Placeholder()
		}
	}
	if children == nil {
		return e
	}
	return e.WithChildren(children)
}

func (m *Memo) checkRowType(set *EquivSet, e RelExpr) {
	if !set.rowType.Equivalent(e.RowType()) {
		panic(errors.AssertionFailedf(
			"row type %s of %s does not match row type %s of set %d",
			e.RowType(), errors.Safe(e.Op()), set.rowType, errors.Safe(set.id)))
	}
}

func (m *Memo) newSet(e RelExpr) *EquivSet {
	set := &EquivSet{
		id:       SetID(len(m.sets) + 1),
		rowType:  e.RowType(),
		rowCount: m.RowCount(e),
	}
	m.sets = append(m.sets, set)
	m.stats.Sets++
	return set
}

func (m *Memo) ensureSubset(set *EquivSet, traits physical.TraitSet) *Subset {
	if sub := set.Subset(traits); sub != nil {
		return sub
	}
	sub := &Subset{
		id:       SubsetID(len(m.subsets) + 1),
		set:      set,
		traits:   traits,
		bestCost: InfiniteCost,
	}
	sub.placeholder = &SubsetExpr{
		relBase: relBase{traits: traits, rowType: set.rowType},
		id:      sub.id,
		memo:    m,
	}
	m.subsets = append(m.subsets, sub)
	set.subsets = append(set.subsets, sub)
	m.stats.Subsets++
	m.events = append(m.events, sub)
	return sub
}

// EnsureSubset returns the subset of the set with the given traits, creating
// it if it does not exist yet. A new subset has no members until an
// expression with its traits is registered in the set.
func (m *Memo) EnsureSubset(id SetID, traits physical.TraitSet) *Subset {
	return m.ensureSubset(m.Set(id), traits)
}

// MarkRequired records that a consumer needs the traits of the subset.
func (m *Memo) MarkRequired(sub *Subset) {
	sub = sub.Canonical()
	if !sub.required {
		sub.required = true
		m.events = append(m.events, sub)
	}
}

// DrainEvents returns the subsets that were created, moved to another set or
// marked required since the last call, in the order the events happened.
func (m *Memo) DrainEvents() []*Subset {
	if len(m.events) == 0 {
		return nil
	}
	seen := make(map[*Subset]bool, len(m.events))
	res := make([]*Subset, 0, len(m.events))
	for _, sub := range m.events {
		sub = sub.Canonical()
		if !seen[sub] {
			seen[sub] = true
			res = append(res, sub)
		}
	}
	m.events = m.events[:0]
	return res
}

// ---------------------------------------------------------------------------
// Cost

func (m *Memo) updateCost(mem *Member) {
	m.costQueue = append(m.costQueue, mem)
	m.processCosts()
}

func (m *Memo) processCosts() {
	if m.costing || m.merging {
		return
	}
	m.costing = true
	defer func() { m.costing = false }()
	for len(m.costQueue) > 0 {
		mem := m.costQueue[0]
		m.costQueue = m.costQueue[1:]
		if mem.dead {
			continue
		}
		mem.cost = m.memberCost(mem)
		m.ratchet(mem.Subset(), mem)
	}
}

// memberCost returns the self cost of mem plus the best costs of its inputs,
// or infinity if some input has no best member yet.
func (m *Memo) memberCost(mem *Member) Cost {
	cost := m.coster.ComputeCost(mem.expr, m)
	if cost.IsInfinite() {
		return InfiniteCost
	}
	for i, n := 0, mem.expr.ChildCount(); i < n; i++ {
		best, bestCost := m.subsetOf(mem.expr.Child(i)).Best()
		if best == nil {
			return InfiniteCost
		}
		cost = cost.Add(bestCost)
	}
	return cost
}

// ratchet offers mem as the best member of sub. A strictly cheaper member
// replaces the current best and the consumers of sub are re-costed. Members
// with equal cost are ordered by the tie-break policy, except that a member
// whose best plan goes through sub never wins a tie: with zero-cost members,
// such as converters over an empty input, it would make the best plan of sub
// refer to itself.
func (m *Memo) ratchet(sub *Subset, mem *Member) {
	if mem.dead || mem.cost.IsInfinite() {
		return
	}
	switch {
	case sub.best == nil || m.costModel.Less(mem.cost, sub.bestCost):
		if sub.best == nil && m.reachesThroughBest(mem, sub) {
			return
		}
		sub.best = mem
		sub.bestCost = mem.cost
		m.stats.BestImprovements++
		m.costQueue = append(m.costQueue, sub.parents...)

	case sub.best == mem:
		if m.costModel.Less(sub.bestCost, mem.cost) {
			panic(errors.AssertionFailedf(
				"best cost of subset %d increased from %s to %s",
				errors.Safe(sub.id), sub.bestCost, mem.cost))
		}

	case !m.costModel.Less(sub.bestCost, mem.cost):
		// Equal cost.
		if (m.tieBreak == PreferEarlier) == (mem.seq < sub.best.seq) && !m.reachesThroughBest(mem, sub) {
			sub.best = mem
		}
	}
}

// reachesThroughBest returns true if sub is an input of mem, directly or
// through the best members of its inputs.
func (m *Memo) reachesThroughBest(mem *Member, sub *Subset) bool {
	seen := make(map[*Subset]bool)
	var walk func(mem *Member) bool
	walk = func(mem *Member) bool {
		for i, n := 0, mem.expr.ChildCount(); i < n; i++ {
			child := m.subsetOf(mem.expr.Child(i))
			if child == sub {
				return true
			}
			if seen[child] {
				continue
			}
			seen[child] = true
			if child.best != nil && walk(child.best) {
				return true
			}
		}
		return false
	}
	return walk(mem)
}

// RowCount is part of the Metadata interface. Placeholders report the row
// count of their set.
func (m *Memo) RowCount(e RelExpr) float64 {
	if ph, ok := e.(*SubsetExpr); ok {
		return m.subsetOf(ph).Set().RowCount()
	}
	return EstimateRowCount(e, m)
}

// ---------------------------------------------------------------------------
// Merge

// Merge records that the two sets are equivalent.
func (m *Memo) Merge(a, b SetID) {
	m.queueMerge(m.Set(a), m.Set(b))
	m.processMerges()
	m.processCosts()
}

func (m *Memo) queueMerge(a, b *EquivSet) {
	m.mergeQueue = append(m.mergeQueue, [2]*EquivSet{a, b})
}

func (m *Memo) processMerges() {
	if m.merging {
		return
	}
	m.merging = true
	defer func() { m.merging = false }()
	for len(m.mergeQueue) > 0 {
		pair := m.mergeQueue[0]
		m.mergeQueue = m.mergeQueue[1:]
		a, b := pair[0].Canonical(), pair[1].Canonical()
		if a == b {
			continue
		}
		if b.id < a.id {
			a, b = b, a
		}
		m.mergeSets(a, b)
	}
}

// mergeSets moves everything in gone into keeper.
func (m *Memo) mergeSets(keeper, gone *EquivSet) {
	if !keeper.rowType.Equivalent(gone.rowType) {
		panic(errors.AssertionFailedf("cannot merge set %d %s into set %d %s",
			errors.Safe(gone.id), gone.rowType, errors.Safe(keeper.id), keeper.rowType))
	}
	gone.mergedInto = keeper
	m.stats.Merges++
	m.stats.Sets--

	var parents []*Member
	var forwarded []*Subset
	for _, g := range gone.subsets {
		parents = append(parents, g.parents...)
		k := keeper.Subset(g.traits)
		if k == nil {
			g.set = keeper
			keeper.subsets = append(keeper.subsets, g)
			m.events = append(m.events, g)
			continue
		}
		g.forward = k
		m.stats.Subsets--
		if g.required && !k.required {
			k.required = true
			m.events = append(m.events, k)
		}
		for _, mem := range g.members {
			mem.subset = k
		}
		k.members = append(k.members, g.members...)
		sort.SliceStable(k.members, func(i, j int) bool { return k.members[i].seq < k.members[j].seq })
		k.parents = append(k.parents, g.parents...)
		g.members, g.parents, g.best = nil, nil, nil
		forwarded = append(forwarded, k)
	}
	for _, mem := range gone.members {
		mem.set = keeper
	}
	keeper.members = append(keeper.members, gone.members...)
	sort.SliceStable(keeper.members, func(i, j int) bool {
		return keeper.members[i].seq < keeper.members[j].seq
	})
	gone.members, gone.subsets = nil, nil

	m.fixupParents(parents)

	for _, k := range forwarded {
		m.reselectBest(k)
	}
	m.costQueue = append(m.costQueue, parents...)

	if m.OnMerge != nil {
		m.OnMerge(keeper.id, gone.id)
	}
}

// fixupParents re-canonicalizes the children of members that referred to a
// subset of a merged set. A member that becomes a duplicate of another one
// dies, and if the two were in different sets those sets are merged as well.
func (m *Memo) fixupParents(parents []*Member) {
	for _, p := range parents {
		if p.dead {
			continue
		}
		e := m.canonicalizeChildren(p.expr, false /* register */)
		if e == p.expr {
			continue
		}
		digest := Digest(e)
		if digest == p.digest {
			p.expr = e
			continue
		}
		if m.digests[p.digest] == p {
			delete(m.digests, p.digest)
		}
		p.expr, p.digest = e, digest
		other, ok := m.digests[digest]
		if !ok || other == p || other.dead {
			m.digests[digest] = p
			continue
		}
		p.dead = true
		m.stats.Members--
		if other.Set() != p.Set() {
			m.queueMerge(other.Set(), p.Set())
		} else {
			m.reselectBest(p.Subset())
		}
	}
}

// reselectBest recomputes the best member of sub after members were added to
// it by a merge or one of its members died. A dead best member stays in place
// until its live duplicate has joined the same subset.
func (m *Memo) reselectBest(sub *Subset) {
	sub = sub.Canonical()
	if dead := sub.best; dead != nil && dead.dead {
		sub.best = nil
		for _, mem := range sub.members {
			if !mem.dead {
				mem.cost = m.memberCost(mem)
				m.ratchet(sub, mem)
			}
		}
		if sub.best == nil {
			sub.best = dead
		}
		return
	}
	for _, mem := range sub.members {
		m.ratchet(sub, mem)
	}
}

// ---------------------------------------------------------------------------
// Lookup

// Set returns the canonical set with the given ID.
func (m *Memo) Set(id SetID) *EquivSet {
	if id <= 0 || int(id) > len(m.sets) {
		panic(errors.AssertionFailedf("no set %d", errors.Safe(id)))
	}
	return m.sets[id-1].Canonical()
}

// Subset returns the canonical subset with the given ID.
func (m *Memo) Subset(id SubsetID) *Subset {
	if id <= 0 || int(id) > len(m.subsets) {
		panic(errors.AssertionFailedf("no subset %d", errors.Safe(id)))
	}
	return m.subsets[id-1].Canonical()
}

func (m *Memo) subsetOf(e RelExpr) *Subset {
	ph, ok := e.(*SubsetExpr)
	if !ok || ph.memo != m {
		panic(errors.AssertionFailedf("%s is not a placeholder of this memo", errors.Safe(e.Op())))
	}
	return m.Subset(ph.id)
}

// SubsetOf returns the canonical subset that a placeholder refers to.
func (m *Memo) SubsetOf(ph *SubsetExpr) *Subset { return m.subsetOf(ph) }

// Lookup returns the live member with the same digest as e, or nil. The
// children of e must be placeholders.
func (m *Memo) Lookup(e RelExpr) *Member {
	e = m.canonicalizeChildren(e, false /* register */)
	if mem, ok := m.digests[Digest(e)]; ok && !mem.dead {
		return mem
	}
	return nil
}

// Expand returns the expressions a placeholder stands for: the live members
// of its subset. Any other expression stands for itself.
func (m *Memo) Expand(e RelExpr) []RelExpr {
	ph, ok := e.(*SubsetExpr)
	if !ok {
		return []RelExpr{e}
	}
	members := m.subsetOf(ph).Members()
	res := make([]RelExpr, len(members))
	for i, mem := range members {
		res[i] = mem.expr
	}
	return res
}

// MemberOf returns the live member whose expression is e, or nil.
func (m *Memo) MemberOf(e RelExpr) *Member {
	if mem, ok := m.digests[Digest(e)]; ok && !mem.dead && mem.expr == e {
		return mem
	}
	return m.Lookup(e)
}

// Sets returns the canonical sets in ID order.
func (m *Memo) Sets() []*EquivSet {
	var res []*EquivSet
	for _, s := range m.sets {
		if !s.Merged() {
			res = append(res, s)
		}
	}
	return res
}

// Stats returns counters describing the memo.
func (m *Memo) Stats() Stats { return m.stats }

// ---------------------------------------------------------------------------
// Placeholder

// SubsetExpr stands for the best member of a subset. It is the only kind of
// child an expression stored in the memo has.
type SubsetExpr struct {
	relBase
	id   SubsetID
	memo *Memo
}

var _ RelExpr = &SubsetExpr{}

// Subset returns the canonical subset the placeholder refers to.
func (e *SubsetExpr) Subset() *Subset { return e.memo.Subset(e.id) }

// Op is part of the RelExpr interface.
func (e *SubsetExpr) Op() opt.Operator { return opt.SubsetOp }

// ChildCount is part of the RelExpr interface.
func (e *SubsetExpr) ChildCount() int { return 0 }

// Child is part of the RelExpr interface.
func (e *SubsetExpr) Child(nth int) RelExpr {
	panic(errors.AssertionFailedf("subset has no children"))
}

// Private is part of the RelExpr interface. It is the ID the placeholder was
// created with, not that of its canonical subset, so that digests of stored
// expressions only change when the memo rewrites them.
func (e *SubsetExpr) Private() string { return fmt.Sprintf("#%d", e.id) }

// SelfCost is part of the RelExpr interface.
func (e *SubsetExpr) SelfCost(md Metadata) Cost {
	panic(errors.AssertionFailedf("subset placeholders are not costed"))
}

// WithChildren is part of the RelExpr interface.
func (e *SubsetExpr) WithChildren(children []RelExpr) RelExpr {
	checkChildCount(e, children, 0)
	return e
}

// WithTraits is part of the RelExpr interface. A placeholder always has the
// traits of its subset; use the optimizer to convert it.
func (e *SubsetExpr) WithTraits(traits physical.TraitSet) RelExpr {
	panic(errors.AssertionFailedf("cannot change the traits of subset #%d", errors.Safe(e.id)))
}
