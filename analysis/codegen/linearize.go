// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codegen

import (
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/internal/graphutil"
	"golang.org/x/exp/slices"
)

// Linearize returns an order of all the blocks of g in which the entry block comes first, the blocks of each chain
// of Immediate edges are contiguous, and the blocks of each exception range are grouped as much as possible.
// The entry is not first if it has an incoming Immediate edge.
// The graph must have exactly one entry, otherwise flowgraph.ErrMultipleEntries is returned.
//
// The order is a function of the graph only. Immediate edges on cycles of Immediate edges cannot all be satisfied:
// Naturalize turns the ones that are not into gotos.
func Linearize(g *flowgraph.Graph) ([]flowgraph.BlockID, error) {
	entry, err := g.Entry()
	if err != nil {
		return nil, err
	}
	bundles, owner, err := formBundles(g, entry)
	if err != nil {
		return nil, err
	}
	units, unitOf := formUnits(g, bundles, owner)
	unitOf[entry].moveFirst(owner[entry])

	// successors of each unit through non-immediate edges, sorted and without self loops
	succs := make([][]int, len(units))
	for _, u := range units {
		for _, id := range u.blocks {
			edges, _ := g.Edges(id)
			for _, e := range edges {
				if e.Kind == flowgraph.Immediate {
					continue
				}
				v := unitOf[e.Dst].index
				if v == u.index {
					continue
				}
				if i, found := slices.BinarySearch(succs[u.index], v); !found {
					succs[u.index] = slices.Insert(succs[u.index], i, v)
				}
			}
		}
	}

	l := &linearizer{units: units}
	all := make([]int, len(units))
	for i := range units {
		all[i] = i
	}
	var order []flowgraph.BlockID
	for _, i := range l.order(all, unitOf[entry].index, func(i int) []int { return succs[i] }) {
		order = append(order, units[i].blocks...)
	}
	return order, nil
}

type linearizer struct {
	units []*unit
}

// order returns the members ordered such that the strongly connected components come in topological order, the
// first one containing entry. Components of more than one unit are ordered recursively, after removing the edges
// into the unit chosen to enter them, so each recursion strictly shrinks the set of units. Members that entry does
// not reach are ordered afterwards, starting from the one with the smallest head.
func (l *linearizer) order(members []int, entry int, succs func(int) []int) []int {
	pending := map[int]bool{}
	for _, m := range members {
		pending[m] = true
	}
	restricted := func(i int) []int {
		var res []int
		for _, j := range succs(i) {
			if pending[j] {
				res = append(res, j)
			}
		}
		return res
	}

	var res []int
	for start := entry; ; {
		for _, scc := range graphutil.TopologicalSCCs([]int{start}, restricted) {
			if len(scc) == 1 {
				res = append(res, scc[0])
			} else {
				e := l.chooseEntry(scc, start, members, restricted)
				res = append(res, l.order(scc, e, cutInto(scc, e, restricted))...)
			}
			for _, m := range scc {
				delete(pending, m)
			}
		}
		if len(pending) == 0 {
			return res
		}
		start = l.smallestHead(pending)
	}
}

// chooseEntry returns the unit through which the component scc is entered. This is start if it is in the
// component. Otherwise, it is the loop header: the unit with the smallest head among those that have a predecessor
// in members outside the component. If no unit has one, the unit with the smallest head is returned.
func (l *linearizer) chooseEntry(scc []int, start int, members []int, succs func(int) []int) int {
	inSCC := map[int]bool{}
	for _, m := range scc {
		inSCC[m] = true
	}
	if inSCC[start] {
		return start
	}
	headers := map[int]bool{}
	for _, m := range members {
		if inSCC[m] {
			continue
		}
		for _, s := range succs(m) {
			if inSCC[s] {
				headers[s] = true
			}
		}
	}
	if len(headers) == 0 {
		return l.smallestHead(inSCC)
	}
	return l.smallestHead(headers)
}

// cutInto returns the successor function restricted to the component, without the edges into entry
func cutInto(scc []int, entry int, succs func(int) []int) func(int) []int {
	inSCC := map[int]bool{}
	for _, m := range scc {
		inSCC[m] = true
	}
	return func(i int) []int {
		var res []int
		for _, j := range succs(i) {
			if inSCC[j] && j != entry {
				res = append(res, j)
			}
		}
		return res
	}
}

func (l *linearizer) smallestHead(set map[int]bool) int {
	best := -1
	for i := range set {
		if best < 0 || l.units[i].head < l.units[best].head {
			best = i
		}
	}
	return best
}
