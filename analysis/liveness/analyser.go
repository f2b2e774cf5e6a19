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

// Package liveness computes the live locals at the boundaries of the blocks of a flow graph in SSA form.
//
// Phi assignments are considered to happen on the incoming edges of their block: the target of a phi is live at the
// start of the block but not across its incoming edges, and a phi argument is live out of a predecessor only if
// that predecessor assigns it.
package liveness

import (
	"github.com/awslabs/ar-bytecode-tools/analysis/dataflow"
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
)

// Name is the name of the analysis, used as prefix of the committed block facts
const Name = "liveness"

// Analyser is the backward liveness analysis. Exceptional edges are not supported.
type Analyser struct {
	dataflow.Unsupported[*LocalSet]

	index *LocalIndex

	// def are the locals assigned by non-phi copies of each block
	def map[flowgraph.BlockID]*LocalSet

	// phiDef are the locals assigned by phi copies of each block
	phiDef map[flowgraph.BlockID]*LocalSet

	// phiUse are the locals read by the phi arguments of each block
	phiUse map[flowgraph.BlockID]*LocalSet
}

// NewAnalyser returns a liveness analyser with a fresh index of locals
func NewAnalyser() *Analyser {
	return &Analyser{index: NewLocalIndex()}
}

// Index returns the index shared by all the sets of the analysis
func (a *Analyser) Index() *LocalIndex { return a.index }

func (a *Analyser) Name() string { return Name }

func (a *Analyser) Direction() dataflow.Direction { return dataflow.Backward }

// Init computes the def, phiDef and phiUse sets of every block
func (a *Analyser) Init(g *flowgraph.Graph) error {
	a.def = map[flowgraph.BlockID]*LocalSet{}
	a.phiDef = map[flowgraph.BlockID]*LocalSet{}
	a.phiUse = map[flowgraph.BlockID]*LocalSet{}
	for _, b := range g.Vertices() {
		def, phiDef, phiUse := a.index.NewSet(), a.index.NewSet(), a.index.NewSet()
		for _, s := range b.Stmts() {
			c, ok := ir.IsCopy(s)
			if !ok {
				continue
			}
			phi, isPhi := c.Value().(*ir.PhiExpr)
			if !isPhi {
				def.Add(c.Var)
				continue
			}
			phiDef.Add(c.Var)
			for _, l := range ir.Reads(phi) {
				phiUse.Add(l)
			}
		}
		a.def[b.ID()], a.phiDef[b.ID()], a.phiUse[b.ID()] = def, phiDef, phiUse
	}
	return nil
}

func (a *Analyser) NewState() *LocalSet { return a.index.NewSet() }

func (a *Analyser) NewEntryState() *LocalSet { return a.index.NewSet() }

// Execute computes the live-in set of b from its live-out set
func (a *Analyser) Execute(b *flowgraph.Block, out *LocalSet, in *LocalSet) {
	defs := a.defs(a.def, b.ID())
	in.Copy(out)
	in.DifferenceWith(defs)
	for _, s := range b.Stmts() {
		if ir.IsPhi(s) {
			c, _ := ir.IsCopy(s)
			in.Add(c.Var)
			continue
		}
		for _, l := range ir.Reads(s) {
			if !defs.Has(l) {
				in.Add(l)
			}
		}
	}
}

// FlowThrough computes the part of the live-out set of src that flows from the edge to dst
func (a *Analyser) FlowThrough(dst *flowgraph.Block, dstIn *LocalSet, src *flowgraph.Block, srcOut *LocalSet) {
	phiDefs := a.defs(a.phiDef, dst.ID())
	for _, l := range dstIn.Locals() {
		if phiDefs.Has(l) {
			srcOut.Remove(l)
		} else {
			srcOut.Add(l)
		}
	}
	defs := a.defs(a.def, src.ID())
	for _, l := range a.defs(a.phiUse, dst.ID()).Locals() {
		if defs.Has(l) {
			srcOut.Add(l)
		}
	}
}

func (a *Analyser) Merge(into *LocalSet, c *LocalSet) { into.UnionWith(c) }

func (a *Analyser) Equals(x *LocalSet, y *LocalSet) bool { return x.Equals(y) }

func (a *Analyser) Copy(src *LocalSet, dst *LocalSet) { dst.Copy(src) }

// PhiDefs returns the targets of the phis of the block
func (a *Analyser) PhiDefs(id flowgraph.BlockID) *LocalSet { return a.defs(a.phiDef, id) }

func (a *Analyser) defs(m map[flowgraph.BlockID]*LocalSet, id flowgraph.BlockID) *LocalSet {
	if s, ok := m[id]; ok {
		return s
	}
	return a.index.NewSet()
}
