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
)

// Verify checks that order contains every block of g exactly once, and that the destination of every Immediate
// edge is the block that follows its source. Violations are reported with ErrIllegalLinearization.
func Verify(g *flowgraph.Graph, order []flowgraph.BlockID) error {
	return verify(g, order, func(e flowgraph.Edge) flowgraph.EdgeKind { return e.Kind })
}

// verify is Verify with the kind of each edge given by kind, so that pending edge rewrites can be checked
func verify(g *flowgraph.Graph, order []flowgraph.BlockID, kind func(flowgraph.Edge) flowgraph.EdgeKind) error {
	seen := make(map[flowgraph.BlockID]bool, len(order))
	for _, id := range order {
		if !g.Contains(id) {
			return fmt.Errorf("%w: %s: unknown block %s", ErrIllegalLinearization, g.Name, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s: block %s appears twice", ErrIllegalLinearization, g.Name, id)
		}
		seen[id] = true
	}
	if len(seen) != g.Size() {
		return fmt.Errorf("%w: %s: %d blocks ordered out of %d", ErrIllegalLinearization, g.Name, len(seen),
			g.Size())
	}
	for i, id := range order {
		edges, _ := g.Edges(id)
		for _, e := range edges {
			if kind(e) != flowgraph.Immediate {
				continue
			}
			if i+1 == len(order) {
				return fmt.Errorf("%w: %s: trailing fall-through %s", ErrIllegalLinearization, g.Name, e)
			}
			if order[i+1] != e.Dst {
				return fmt.Errorf("%w: %s: fall-through %s but %s comes next", ErrIllegalLinearization, g.Name,
					e, order[i+1])
			}
		}
	}
	return nil
}
