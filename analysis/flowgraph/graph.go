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

// Package flowgraph implements the control-flow graph of a method body: basic blocks connected by typed edges,
// the exception ranges protecting them and the entry blocks.
//
// Blocks are addressed by their BlockID. The graph keeps two adjacency indexes, one for successors and one for
// predecessors, and every mutation updates both within the same call. The edges of a block are always returned in
// a fixed order (immediate edges first, then by kind and by the other endpoint), which the linearizer and the
// dataflow solver rely on.
package flowgraph

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Graph is a control-flow graph. A graph is not safe for concurrent use.
type Graph struct {
	// Name identifies the method the graph was built from, for diagnostics
	Name string

	blocks map[BlockID]*Block

	// succs and preds are the forward and reverse adjacency indexes.
	// invariant: e in succs[e.Src] <=> e in preds[e.Dst]
	succs map[BlockID][]Edge
	preds map[BlockID][]Edge

	// entries is sorted
	entries []BlockID
	ranges  []*ExceptionRange
	names   map[string]BlockID
}

// New returns an empty graph
func New(name string) *Graph {
	return &Graph{
		Name:   name,
		blocks: map[BlockID]*Block{},
		succs:  map[BlockID][]Edge{},
		preds:  map[BlockID][]Edge{},
		names:  map[string]BlockID{},
	}
}

// Size returns the number of blocks in the graph
func (g *Graph) Size() int { return len(g.blocks) }

// Contains returns true if id is a vertex of the graph
func (g *Graph) Contains(id BlockID) bool {
	_, ok := g.blocks[id]
	return ok
}

// Block returns the block with the given id
func (g *Graph) Block(id BlockID) (*Block, bool) {
	b, ok := g.blocks[id]
	return b, ok
}

// BlockByName returns the block with the given name
func (g *Graph) BlockByName(name string) (*Block, bool) {
	id, ok := g.names[name]
	if !ok {
		return nil, false
	}
	return g.blocks[id], true
}

// Vertices returns the blocks of the graph sorted by id
func (g *Graph) Vertices() []*Block {
	blocks := make([]*Block, 0, len(g.blocks))
	for _, b := range g.blocks {
		blocks = append(blocks, b)
	}
	slices.SortFunc(blocks, func(a, b *Block) bool { return a.id < b.id })
	return blocks
}

// IDs returns the ids of the blocks of the graph, sorted
func (g *Graph) IDs() []BlockID {
	ids := make([]BlockID, 0, len(g.blocks))
	for id := range g.blocks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AddVertex adds b to the graph. Adding a block that is already a vertex is a no-op; adding a different block
// with the same id or the same name fails with ErrDuplicateVertex.
func (g *Graph) AddVertex(b *Block) error {
	if old, ok := g.blocks[b.id]; ok {
		if old == b {
			return nil
		}
		return fmt.Errorf("%w: block id %s", ErrDuplicateVertex, b.id)
	}
	if other, ok := g.names[b.name]; ok {
		return fmt.Errorf("%w: block name %q already used by %s", ErrDuplicateVertex, b.name, other)
	}
	g.blocks[b.id] = b
	g.names[b.name] = b.id
	return nil
}

// RemoveVertex removes the block and everything that refers to it: its incident edges in both indexes, its entry
// status, and its membership in exception ranges. Ranges left without protected blocks, and ranges handled by the
// removed block, are dropped.
func (g *Graph) RemoveVertex(id BlockID) error {
	b, ok := g.blocks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVertex, id)
	}

	kept := g.ranges[:0]
	for _, r := range g.ranges {
		r.RemoveBlock(id)
		if r.IsEmpty() || r.handler == id {
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(g.ranges); i++ {
		g.ranges[i] = nil
	}
	g.ranges = kept

	if i := slices.Index(g.entries, id); i >= 0 {
		g.entries = slices.Delete(g.entries, i, i+1)
	}

	for _, e := range g.succs[id] {
		if e.Dst != id {
			g.preds[e.Dst] = deleteEdge(g.preds[e.Dst], e)
		}
	}
	for _, e := range g.preds[id] {
		if e.Src != id {
			g.succs[e.Src] = deleteEdge(g.succs[e.Src], e)
		}
	}
	delete(g.succs, id)
	delete(g.preds, id)
	delete(g.names, b.name)
	delete(g.blocks, id)
	return nil
}

// AddEdge adds e to both adjacency indexes. Both endpoints must be vertices. Adding an edge already in the graph
// is a no-op.
func (g *Graph) AddEdge(e Edge) error {
	if err := g.checkEndpoints(e); err != nil {
		return err
	}
	if slices.Contains(g.succs[e.Src], e) {
		return nil
	}
	g.succs[e.Src] = insertEdge(g.succs[e.Src], e, lessOut)
	g.preds[e.Dst] = insertEdge(g.preds[e.Dst], e, lessIn)
	return nil
}

// RemoveEdge removes e from both adjacency indexes and returns true if it was in the graph
func (g *Graph) RemoveEdge(e Edge) bool {
	if !slices.Contains(g.succs[e.Src], e) {
		return false
	}
	g.succs[e.Src] = deleteEdge(g.succs[e.Src], e)
	g.preds[e.Dst] = deleteEdge(g.preds[e.Dst], e)
	return true
}

// ReplaceEdge removes old and adds e in its place
func (g *Graph) ReplaceEdge(old Edge, e Edge) error {
	if err := g.checkEndpoints(e); err != nil {
		return err
	}
	if !g.RemoveEdge(old) {
		return fmt.Errorf("edge %s is not in the graph", old)
	}
	return g.AddEdge(e)
}

// HasEdge returns true if e is in the graph
func (g *Graph) HasEdge(e Edge) bool {
	return slices.Contains(g.succs[e.Src], e)
}

// Edges returns a copy of the outgoing edges of the block, immediate edges first
func (g *Graph) Edges(id BlockID) ([]Edge, error) {
	if !g.Contains(id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVertex, id)
	}
	return slices.Clone(g.succs[id]), nil
}

// ReverseEdges returns a copy of the incoming edges of the block, immediate edges first
func (g *Graph) ReverseEdges(id BlockID) ([]Edge, error) {
	if !g.Contains(id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVertex, id)
	}
	return slices.Clone(g.preds[id]), nil
}

// Successors returns the distinct successors of the block, in edge order. Unknown blocks have no successors.
func (g *Graph) Successors(id BlockID) []BlockID {
	var s []BlockID
	for _, e := range g.succs[id] {
		if !slices.Contains(s, e.Dst) {
			s = append(s, e.Dst)
		}
	}
	return s
}

// Predecessors returns the distinct predecessors of the block, in edge order. Unknown blocks have no predecessors.
func (g *Graph) Predecessors(id BlockID) []BlockID {
	var p []BlockID
	for _, e := range g.preds[id] {
		if !slices.Contains(p, e.Src) {
			p = append(p, e.Src)
		}
	}
	return p
}

// Immediate returns the destination of the outgoing immediate edge of the block, if it has one
func (g *Graph) Immediate(id BlockID) (BlockID, bool) {
	if es := g.succs[id]; len(es) > 0 && es[0].Kind == Immediate {
		return es[0].Dst, true
	}
	return 0, false
}

// IncomingImmediate returns the source of an incoming immediate edge of the block, if it has one
func (g *Graph) IncomingImmediate(id BlockID) (BlockID, bool) {
	if es := g.preds[id]; len(es) > 0 && es[0].Kind == Immediate {
		return es[0].Src, true
	}
	return 0, false
}

// AddEntry marks the block as an entry of the graph
func (g *Graph) AddEntry(id BlockID) error {
	if !g.Contains(id) {
		return fmt.Errorf("%w: %s", ErrUnknownVertex, id)
	}
	i, found := slices.BinarySearch(g.entries, id)
	if !found {
		g.entries = slices.Insert(g.entries, i, id)
	}
	return nil
}

// Entries returns the entry blocks, sorted by id
func (g *Graph) Entries() []BlockID { return slices.Clone(g.entries) }

// Entry returns the single entry block of the graph, or ErrMultipleEntries
func (g *Graph) Entry() (BlockID, error) {
	if len(g.entries) != 1 {
		return 0, fmt.Errorf("%w: %s has %d", ErrMultipleEntries, g.Name, len(g.entries))
	}
	return g.entries[0], nil
}

// AddRange adds an exception range. Its handler and protected blocks must be vertices, and it must protect at
// least one block. Adding a range already in the graph is a no-op.
func (g *Graph) AddRange(r *ExceptionRange) error {
	if r.IsEmpty() {
		return fmt.Errorf("%w: %s protects no block", ErrInvalidRange, r)
	}
	if !g.Contains(r.handler) {
		return fmt.Errorf("%w: handler %s of range %s", ErrUnknownVertex, r.handler, r)
	}
	for _, b := range r.blocks {
		if !g.Contains(b) {
			return fmt.Errorf("%w: block %s of range %s", ErrUnknownVertex, b, r)
		}
	}
	if !slices.Contains(g.ranges, r) {
		g.ranges = append(g.ranges, r)
	}
	return nil
}

// RemoveRange removes an exception range from the graph
func (g *Graph) RemoveRange(r *ExceptionRange) bool {
	i := slices.Index(g.ranges, r)
	if i < 0 {
		return false
	}
	g.ranges = slices.Delete(g.ranges, i, i+1)
	return true
}

// RemoveEmptyRanges removes the ranges that no longer protect any block, and returns them in insertion order.
// Ranges are emptied by calls to RemoveBlock on the shared ranges.
func (g *Graph) RemoveEmptyRanges() []*ExceptionRange {
	var removed []*ExceptionRange
	kept := g.ranges[:0]
	for _, r := range g.ranges {
		if r.IsEmpty() {
			removed = append(removed, r)
		} else {
			kept = append(kept, r)
		}
	}
	g.ranges = kept
	return removed
}

// Ranges returns the exception ranges of the graph, in insertion order. The returned slice is a copy but the
// ranges are shared with the graph.
func (g *Graph) Ranges() []*ExceptionRange { return slices.Clone(g.ranges) }

// NumEdges returns the number of edges in the graph
func (g *Graph) NumEdges() int {
	n := 0
	for _, es := range g.succs {
		n += len(es)
	}
	return n
}

func (g *Graph) checkEndpoints(e Edge) error {
	if !g.Contains(e.Src) {
		return fmt.Errorf("%w: source of %s", ErrUnknownVertex, e)
	}
	if !g.Contains(e.Dst) {
		return fmt.Errorf("%w: destination of %s", ErrUnknownVertex, e)
	}
	return nil
}

func insertEdge(edges []Edge, e Edge, less func(a, b Edge) bool) []Edge {
	i := slices.IndexFunc(edges, func(x Edge) bool { return less(e, x) })
	if i < 0 {
		return append(edges, e)
	}
	return slices.Insert(edges, i, e)
}

func deleteEdge(edges []Edge, e Edge) []Edge {
	if i := slices.Index(edges, e); i >= 0 {
		return slices.Delete(edges, i, i+1)
	}
	return edges
}
