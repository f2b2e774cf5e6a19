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

package liveness

import (
	"github.com/awslabs/ar-bytecode-tools/analysis/dataflow"
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
)

// Liveness is the result of the liveness analysis of a graph
type Liveness struct {
	analyser *Analyser
	result   *dataflow.Result[*LocalSet]
}

// Analyse runs the liveness analysis on g. It fails with dataflow.ErrUnsupported if g has exceptional edges and
// opts.SkipExceptionEdges is false.
func Analyse(g *flowgraph.Graph, opts dataflow.Options) (*Liveness, error) {
	a := NewAnalyser()
	res, err := dataflow.Run[*LocalSet](g, a, opts)
	if err != nil {
		return nil, err
	}
	return &Liveness{analyser: a, result: res}, nil
}

// Result returns the raw states of the solver. The in state of a block contains the targets of its phis.
func (l *Liveness) Result() *dataflow.Result[*LocalSet] { return l.result }

// LiveIn returns the locals live across the incoming edges of the block, sorted. The targets of the phis of the
// block are not included: they are assigned on the incoming edges.
func (l *Liveness) LiveIn(id flowgraph.BlockID) []ir.Local {
	in, ok := l.result.In(id)
	if !ok {
		return nil
	}
	s := l.analyser.index.NewSet()
	s.Copy(in)
	s.DifferenceWith(l.analyser.PhiDefs(id))
	return s.Locals()
}

// LiveOut returns the locals live at the exit of the block, sorted
func (l *Liveness) LiveOut(id flowgraph.BlockID) []ir.Local {
	out, ok := l.result.Out(id)
	if !ok {
		return nil
	}
	return out.Locals()
}

// IsLiveIn returns true if the local is live across the incoming edges of the block
func (l *Liveness) IsLiveIn(id flowgraph.BlockID, v ir.Local) bool {
	in, ok := l.result.In(id)
	return ok && in.Has(v) && !l.analyser.PhiDefs(id).Has(v)
}

// IsLiveOut returns true if the local is live at the exit of the block
func (l *Liveness) IsLiveOut(id flowgraph.BlockID, v ir.Local) bool {
	out, ok := l.result.Out(id)
	return ok && out.Has(v)
}

// IsLiveOnEdge returns true if the local is live across the edge from src to dst. A phi argument of dst is live
// on the edges coming from the predecessors that assign it, and only on those.
func (l *Liveness) IsLiveOnEdge(src *flowgraph.Block, dst *flowgraph.Block, v ir.Local) bool {
	in, ok := l.result.In(dst.ID())
	if !ok {
		return false
	}
	s := l.analyser.index.NewSet()
	l.analyser.FlowThrough(dst, in, src, s)
	return s.Has(v)
}
