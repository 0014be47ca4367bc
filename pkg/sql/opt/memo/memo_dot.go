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
	"fmt"

	"github.com/emicklei/dot"
)

// Dot renders the memo as a Graphviz graph. Each set is a cluster holding a
// node per subset and per live member. A dashed edge leads from a subset to
// each of its members, and a solid edge from a member to the subset of each
// of its children. The best member of a subset is drawn bold.
func (m *Memo) Dot() string {
	g := dot.NewGraph(dot.Directed)
	subNodes := make(map[*Subset]dot.Node)
	type memberNode struct {
		mem  *Member
		node dot.Node
	}
	var members []memberNode

	for _, set := range m.Sets() {
		cluster := g.Subgraph(fmt.Sprintf("S%d", set.id), dot.ClusterOption{})
		cluster.Attr("label", fmt.Sprintf("S%d %s rows=%g", set.id, set.rowType, set.rowCount))
		for _, sub := range set.subsets {
			label := fmt.Sprintf("#%d %s", sub.id, sub.traits)
			if sub.best != nil {
				label += fmt.Sprintf("\ncost=%s", sub.bestCost)
			}
			n := cluster.Node(fmt.Sprintf("sub%d", sub.id)).Label(label)
			if sub.required {
				n.Attr("peripheries", "2")
			}
			subNodes[sub] = n
			for _, mem := range sub.members {
				if mem.dead {
					continue
				}
				mn := cluster.Node(fmt.Sprintf("mem%d", mem.seq)).Label(m.formatMember(mem)).Box()
				g.Edge(n, mn).Attr("style", "dashed")
				if sub.best == mem {
					mn.Attr("style", "bold")
				}
				members = append(members, memberNode{mem: mem, node: mn})
			}
		}
	}

	for _, mn := range members {
		for i, c := 0, mn.mem.expr.ChildCount(); i < c; i++ {
			child := m.subsetOf(mn.mem.expr.Child(i))
			if to, ok := subNodes[child]; ok {
				g.Edge(mn.node, to, fmt.Sprint(i))
			}
		}
	}
	return g.String()
}
