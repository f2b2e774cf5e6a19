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
	"fmt"

	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
)

// fixup is one edge that naturalization rewrites
type fixup struct {
	edge        flowgraph.Edge
	replacement flowgraph.Edge
}

// naturalization is the set of edge rewrites that makes a graph agree with a block order. It is computed without
// touching the graph, so the order can be checked against it before anything changes.
type naturalization struct {
	fixups []fixup
	// kinds maps every rewritten edge to its kind once applied
	kinds map[flowgraph.Edge]flowgraph.EdgeKind
}

func planNaturalization(g *flowgraph.Graph, order []flowgraph.BlockID) (*naturalization, error) {
	n := &naturalization{kinds: map[flowgraph.Edge]flowgraph.EdgeKind{}}
	for i, id := range order {
		if !g.Contains(id) {
			return nil, fmt.Errorf("%w: %s in block order", flowgraph.ErrUnknownVertex, id)
		}
		hasNext := i+1 < len(order)
		edges, _ := g.Edges(id)
		for _, e := range edges {
			toNext := hasNext && order[i+1] == e.Dst
			var kind flowgraph.EdgeKind
			switch {
			case e.Kind == flowgraph.Immediate && !toNext:
				kind = flowgraph.UnconditionalJump
			case e.Kind == flowgraph.UnconditionalJump && toNext:
				kind = flowgraph.Immediate
			default:
				continue
			}
			n.fixups = append(n.fixups, fixup{edge: e, replacement: flowgraph.NewEdge(e.Src, e.Dst, kind)})
			n.kinds[e] = kind
		}
	}
	return n, nil
}

// kind returns the kind e has once the naturalization is applied
func (n *naturalization) kind(e flowgraph.Edge) flowgraph.EdgeKind {
	if k, ok := n.kinds[e]; ok {
		return k
	}
	return e.Kind
}

func (n *naturalization) apply(g *flowgraph.Graph, sink DiagnosticSink) (int, error) {
	fixes := 0
	for _, f := range n.fixups {
		b, _ := g.Block(f.edge.Src)
		if err := g.ReplaceEdge(f.edge, f.replacement); err != nil {
			return fixes, err
		}
		fixes++
		if f.replacement.Kind == flowgraph.UnconditionalJump {
			b.Append(ir.NewJump(f.edge.Dst))
			sink.report(Diagnostic{
				Kind:    ImmediateFixup,
				Method:  g.Name,
				Block:   f.edge.Src,
				Message: fmt.Sprintf("fall-through to %s replaced by a goto", f.edge.Dst),
			})
		} else {
			b.RemoveLastJump()
			sink.report(Diagnostic{
				Kind:    JumpElided,
				Method:  g.Name,
				Block:   f.edge.Src,
				Message: fmt.Sprintf("goto %s removed", f.edge.Dst),
			})
		}
	}
	return fixes, nil
}

// Naturalize makes the edges of g agree with the block order: an Immediate edge whose destination is not the next
// block gets a goto appended to its source and becomes an UnconditionalJump edge, and an UnconditionalJump edge to
// the next block loses the last goto of its source and becomes an Immediate edge.
// It returns the number of edges it changed. Running it twice with the same order changes nothing the second time.
func Naturalize(g *flowgraph.Graph, order []flowgraph.BlockID, sink DiagnosticSink) (int, error) {
	n, err := planNaturalization(g, order)
	if err != nil {
		return 0, err
	}
	return n.apply(g, sink)
}
