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

package graphutil

import (
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// FindAllElementaryCycles finds all elementary cycles in the graph g.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
//
// Each cycle is returned as the path of node ids starting and ending at its smallest node, e.g. [1 3 1].
// Self-loops are cycles of the form [v v]. Cycles are returned grouped by smallest node, in increasing order.
func FindAllElementaryCycles(g *DiGraph) [][]int64 {
	s := &cycleSearch{}
	keys := g.Keys()
	for start := 0; start < len(keys); {
		sub := g.Subgraph(keys[start:])
		least, component := leastComponent(sub)
		if component == nil {
			break
		}
		s.reset()
		s.circuit(least, least, sub.Subgraph(component))
		start = slices.Index(keys, least) + 1
	}
	return s.cycles
}

// leastComponent returns the smallest node that is part of a non-trivial strongly connected component of g,
// along with the node ids of that component. A single node with a self-loop is non-trivial.
func leastComponent(g *DiGraph) (int64, []int64) {
	var best []int64
	for _, component := range graph.StrongComponents(g) {
		if len(component) == 1 && !g.HasEdgeFromTo(g.Key(component[0]), g.Key(component[0])) {
			continue
		}
		ids := make([]int64, len(component))
		for i, v := range component {
			ids[i] = g.Key(v)
		}
		slices.Sort(ids)
		if best == nil || ids[0] < best[0] {
			best = ids
		}
	}
	if best == nil {
		return 0, nil
	}
	return best[0], best
}

type cycleSearch struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *cycleSearch) reset() {
	s.stack = nil
	s.blocked = map[int64]bool{}
	s.blist = map[int64]map[int64]bool{}
}

func (s *cycleSearch) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *cycleSearch) circuit(v int64, start int64, g *DiGraph) bool {
	found := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range g.Successors(v) {
		if w == start {
			cycle := append(slices.Clone(s.stack), w)
			s.cycles = append(s.cycles, cycle)
			found = true
		} else if !s.blocked[w] {
			if s.circuit(w, start, g) {
				found = true
			}
		}
	}

	if found {
		s.unblock(v)
	} else {
		for _, w := range g.Successors(v) {
			if s.blist[w] == nil {
				s.blist[w] = map[int64]bool{}
			}
			s.blist[w][v] = true
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return found
}
