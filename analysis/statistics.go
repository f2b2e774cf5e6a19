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

package analysis

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
	"github.com/awslabs/ar-bytecode-tools/analysis/render"
	"github.com/awslabs/ar-bytecode-tools/internal/graphutil"
	"github.com/yourbasic/graph"
)

// Statistics are general statistics about the flow graph of a method
type Statistics struct {
	NumberOfBlocks     int
	NumberOfStatements int
	NumberOfPhis       int
	NumberOfEdges      int
	// EdgesByKind counts the edges of each kind. Parallel edges of different kinds are counted once per kind.
	EdgesByKind     map[flowgraph.EdgeKind]int
	NumberOfRanges  int
	NumberOfEntries int
	// Cycles are the elementary cycles of the graph, as paths of block ids starting and ending at the same block
	Cycles [][]flowgraph.BlockID
	// Acyclic is true if the graph has no cycle, self-loops included
	Acyclic bool
	// Isolated is the number of blocks without incoming or outgoing edge
	Isolated int
	// Unreachable are the blocks that cannot be reached from any entry, sorted
	Unreachable []flowgraph.BlockID
}

// GraphStatistics returns Statistics about the graph g
func GraphStatistics(g *flowgraph.Graph) Statistics {
	s := Statistics{
		NumberOfBlocks:  g.Size(),
		NumberOfEdges:   g.NumEdges(),
		EdgesByKind:     map[flowgraph.EdgeKind]int{},
		NumberOfRanges:  len(g.Ranges()),
		NumberOfEntries: len(g.Entries()),
	}
	for _, b := range g.Vertices() {
		s.NumberOfStatements += b.Len()
		for _, stmt := range b.Stmts() {
			if ir.IsPhi(stmt) {
				s.NumberOfPhis++
			}
		}
		edges, _ := g.Edges(b.ID())
		for _, e := range edges {
			s.EdgesByKind[e.Kind]++
		}
	}

	d := render.ToDiGraph(g)
	s.Acyclic = graph.Acyclic(d)
	s.Isolated = graph.Check(d).Isolated
	for _, c := range graphutil.FindAllElementaryCycles(d) {
		cycle := make([]flowgraph.BlockID, len(c))
		for i, id := range c {
			cycle[i] = flowgraph.BlockID(id)
		}
		s.Cycles = append(s.Cycles, cycle)
	}

	reached := map[flowgraph.BlockID]bool{}
	for _, e := range g.Entries() {
		blocks, _ := g.Trails(e, e, true, true)
		for _, b := range blocks {
			reached[b] = true
		}
	}
	for _, id := range g.IDs() {
		if !reached[id] {
			s.Unreachable = append(s.Unreachable, id)
		}
	}
	return s
}

func (s Statistics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "blocks: %d, statements: %d, phis: %d\n", s.NumberOfBlocks, s.NumberOfStatements,
		s.NumberOfPhis)
	fmt.Fprintf(&b, "edges: %d", s.NumberOfEdges)
	for k := flowgraph.Immediate; k <= flowgraph.TryCatch; k++ {
		if n := s.EdgesByKind[k]; n > 0 {
			fmt.Fprintf(&b, ", %s: %d", k, n)
		}
	}
	fmt.Fprintf(&b, "\nentries: %d, exception ranges: %d\n", s.NumberOfEntries, s.NumberOfRanges)
	fmt.Fprintf(&b, "acyclic: %t, elementary cycles: %d, isolated blocks: %d, unreachable blocks: %d\n",
		s.Acyclic, len(s.Cycles), s.Isolated, len(s.Unreachable))
	return b.String()
}
