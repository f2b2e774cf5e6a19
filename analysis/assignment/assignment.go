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

// Package assignment computes the locals that are definitely assigned at the boundaries of each block: a local is
// definitely assigned at a point if every path from an entry to that point assigns it.
//
// The analysis is forward, and states are merged by intersection. Exceptional edges are supported: the handler
// receives the entry state of the protected block, since any of its statements may throw.
package assignment

import (
	"fmt"

	"github.com/awslabs/ar-bytecode-tools/analysis/dataflow"
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
	"github.com/awslabs/ar-bytecode-tools/analysis/liveness"
)

// Name is the name of the analysis, used as prefix of the committed block facts
const Name = "assignment"

// Analyser is the definite-assignment analysis
type Analyser struct {
	index  *liveness.LocalIndex
	params []ir.Local

	// universe contains every local assigned in the graph and the parameters. It is the initial state of every
	// block, and the neutral element of the intersection.
	universe *liveness.LocalSet

	// defs are the locals assigned by each block, phis included
	defs map[flowgraph.BlockID]*liveness.LocalSet

	// entry is the in state each block was last executed with
	entry map[flowgraph.BlockID]*liveness.LocalSet
}

// NewAnalyser returns an analyser in which the locals params are assigned on entry
func NewAnalyser(params ...ir.Local) *Analyser {
	return &Analyser{index: liveness.NewLocalIndex(), params: params}
}

func (a *Analyser) Name() string { return Name }

func (a *Analyser) Direction() dataflow.Direction { return dataflow.Forward }

// Init computes the locals assigned by each block
func (a *Analyser) Init(g *flowgraph.Graph) error {
	a.universe = a.index.NewSet(a.params...)
	a.defs = map[flowgraph.BlockID]*liveness.LocalSet{}
	a.entry = map[flowgraph.BlockID]*liveness.LocalSet{}
	for _, b := range g.Vertices() {
		defs := a.index.NewSet()
		for _, s := range b.Stmts() {
			if c, ok := ir.IsCopy(s); ok {
				defs.Add(c.Var)
			}
		}
		a.universe.UnionWith(defs)
		a.defs[b.ID()] = defs
	}
	for _, b := range g.Vertices() {
		a.entry[b.ID()] = a.NewState()
	}
	return nil
}

func (a *Analyser) NewState() *liveness.LocalSet {
	s := a.index.NewSet()
	s.Copy(a.universe)
	return s
}

func (a *Analyser) NewEntryState() *liveness.LocalSet { return a.index.NewSet(a.params...) }

// Execute adds the locals assigned by b
func (a *Analyser) Execute(b *flowgraph.Block, in *liveness.LocalSet, out *liveness.LocalSet) {
	a.entry[b.ID()].Copy(in)
	out.Copy(in)
	out.UnionWith(a.defs[b.ID()])
}

// FlowThrough passes the out state of src to dst unchanged
func (a *Analyser) FlowThrough(_ *flowgraph.Block, dstIn *liveness.LocalSet, _ *flowgraph.Block,
	srcOut *liveness.LocalSet) {
	dstIn.Copy(srcOut)
}

// FlowException passes to the handler the in state of src: the exception may be thrown before any statement of
// src runs. A local that src reassigns stays assigned if it was assigned on entry.
func (a *Analyser) FlowException(_ *flowgraph.Block, dstIn *liveness.LocalSet, src *flowgraph.Block,
	_ *liveness.LocalSet) error {
	dstIn.Copy(a.entry[src.ID()])
	return nil
}

func (a *Analyser) Merge(into *liveness.LocalSet, c *liveness.LocalSet) { into.IntersectionWith(c) }

func (a *Analyser) Equals(x *liveness.LocalSet, y *liveness.LocalSet) bool { return x.Equals(y) }

func (a *Analyser) Copy(src *liveness.LocalSet, dst *liveness.LocalSet) { dst.Copy(src) }

// Assignment is the result of the definite-assignment analysis of a graph
type Assignment struct {
	g      *flowgraph.Graph
	result *dataflow.Result[*liveness.LocalSet]
	index  *liveness.LocalIndex
}

// Analyse runs the definite-assignment analysis on g, with params assigned on entry
func Analyse(g *flowgraph.Graph, opts dataflow.Options, params ...ir.Local) (*Assignment, error) {
	a := NewAnalyser(params...)
	res, err := dataflow.Run[*liveness.LocalSet](g, a, opts)
	if err != nil {
		return nil, err
	}
	return &Assignment{g: g, result: res, index: a.index}, nil
}

// AssignedIn returns the locals definitely assigned at the entry of the block, sorted
func (r *Assignment) AssignedIn(id flowgraph.BlockID) []ir.Local {
	if s, ok := r.result.In(id); ok {
		return s.Locals()
	}
	return nil
}

// AssignedOut returns the locals definitely assigned at the exit of the block, sorted
func (r *Assignment) AssignedOut(id flowgraph.BlockID) []ir.Local {
	if s, ok := r.result.Out(id); ok {
		return s.Locals()
	}
	return nil
}

// IsAssignedIn returns true if the local is definitely assigned at the entry of the block
func (r *Assignment) IsAssignedIn(id flowgraph.BlockID, l ir.Local) bool {
	s, ok := r.result.In(id)
	return ok && s.Has(l)
}

// Violation is a read of a local that is not definitely assigned
type Violation struct {
	Block flowgraph.BlockID
	// Index is the position of the statement in the block
	Index int
	Local ir.Local
}

func (v Violation) String() string {
	return fmt.Sprintf("%s may be unassigned at statement %d of block %s", v.Local, v.Index, v.Block)
}

// Violations returns the reads of locals that may not be assigned, in block and statement order. Phi arguments are
// not checked: they are read on the incoming edges.
func (r *Assignment) Violations() []Violation {
	var res []Violation
	for _, b := range r.g.Vertices() {
		in, ok := r.result.In(b.ID())
		if !ok {
			continue
		}
		assigned := r.index.NewSet()
		assigned.Copy(in)
		for i, s := range b.Stmts() {
			if !ir.IsPhi(s) {
				for _, l := range ir.Reads(s) {
					if !assigned.Has(l) {
						res = append(res, Violation{Block: b.ID(), Index: i, Local: l})
					}
				}
			}
			if c, ok := ir.IsCopy(s); ok {
				assigned.Add(c.Var)
			}
		}
	}
	return res
}
