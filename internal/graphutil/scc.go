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

import "github.com/awslabs/ar-bytecode-tools/internal/funcutil"

// StronglyConnectedComponents is an implementation of Tarjan's strongly connected component (SCC) algorithm
// for generic nodes T.
// Successors returns a slice containing the targets of directed edges out from the given node.
// The search starts from the nodes in the order they are given, and follows successors in the order they are
// returned, so the result only depends on those two orders.
// The order of SCCs is toposorted so that successors appear first; i.e. if the graph is a tree then
// in order from leaves towards the root. Within an SCC, nodes appear in the reverse of the order they were
// discovered.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) (sccs [][]T) {
	t := &tarjan[T]{
		onStack:    map[T]bool{},
		index:      map[T]int{},
		lowlink:    map[T]int{},
		successors: successors,
	}
	for _, v := range nodes {
		if _, ok := t.index[v]; !ok {
			t.visit(v)
		}
	}
	return t.sccs
}

// TopologicalSCCs returns the strongly connected components of the graph ordered so that the sources appear
// first, which is the reverse of StronglyConnectedComponents. Within a component, nodes appear in the order they
// were discovered, so the first node searched appears first in its component.
func TopologicalSCCs[T comparable](nodes []T, successors func(T) []T) [][]T {
	sccs := StronglyConnectedComponents(nodes, successors)
	funcutil.Reverse(sccs)
	for _, scc := range sccs {
		funcutil.Reverse(scc)
	}
	return sccs
}

type tarjan[T comparable] struct {
	stack      []T
	onStack    map[T]bool
	index      map[T]int
	lowlink    map[T]int
	nextIndex  int
	sccs       [][]T
	successors func(T) []T
}

func (t *tarjan[T]) visit(v T) {
	t.index[v] = t.nextIndex
	t.lowlink[v] = t.nextIndex
	t.nextIndex++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.successors(v) {
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] && t.index[w] < t.lowlink[v] {
			t.lowlink[v] = t.index[w]
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var scc []T
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}
