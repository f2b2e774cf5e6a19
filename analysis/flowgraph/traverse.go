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

package flowgraph

import (
	"fmt"

	"github.com/awslabs/ar-bytecode-tools/internal/funcutil"
)

// PostOrder returns the blocks reachable from entry in depth-first post-order. Successors are visited in edge
// order, so the result is deterministic.
func (g *Graph) PostOrder(entry BlockID) ([]BlockID, error) {
	if !g.Contains(entry) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVertex, entry)
	}
	var order []BlockID
	visited := map[BlockID]bool{}
	var visit func(BlockID)
	visit = func(b BlockID) {
		visited[b] = true
		for _, e := range g.succs[b] {
			if !visited[e.Dst] {
				visit(e.Dst)
			}
		}
		order = append(order, b)
	}
	visit(entry)
	return order, nil
}

// Trails returns the set of blocks that can be reached from "from" without going through "to", following
// successors if forward is true and predecessors otherwise. Exceptional edges are followed only if
// followExceptions is true. The result always contains from and never contains to, unless to == from.
// Blocks are returned sorted by id.
func (g *Graph) Trails(from, to BlockID, forward bool, followExceptions bool) ([]BlockID, error) {
	if !g.Contains(from) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVertex, from)
	}
	visited := map[BlockID]bool{from: true}
	stack := []BlockID{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		edges := g.succs[cur]
		if !forward {
			edges = g.preds[cur]
		}
		for _, e := range edges {
			if e.Kind == TryCatch && !followExceptions {
				continue
			}
			next := e.Dst
			if !forward {
				next = e.Src
			}
			if next != to && !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return funcutil.SetToOrderedSlice(visited), nil
}
