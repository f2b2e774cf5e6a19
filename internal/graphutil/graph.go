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
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/iterator"
)

// DiGraph is a simple directed graph over int64 node ids, built to work with existing graph libraries. It
// implements the methods to satisfy yourbasic's graph.Iterator (over dense node indexes, see Key) and Gonum's
// graph.Directed (over node ids). Parallel edges are collapsed into one edge.
type DiGraph struct {
	// keys are all the node ids, sorted
	keys []int64

	// index maps a node id to its position in keys
	index map[int64]int

	nodes map[int64]DNode

	// out and in are sorted adjacency lists
	out map[int64][]int64
	in  map[int64][]int64

	edgeAttrs map[[2]int64][]encoding.Attribute
}

// NewDiGraph returns an empty graph
func NewDiGraph() *DiGraph {
	return &DiGraph{
		index:     map[int64]int{},
		nodes:     map[int64]DNode{},
		out:       map[int64][]int64{},
		in:        map[int64][]int64{},
		edgeAttrs: map[[2]int64][]encoding.Attribute{},
	}
}

// AddNode adds a node with the given DOT name and attributes. Adding an existing node replaces its attributes.
func (g *DiGraph) AddNode(id int64, name string, attrs ...encoding.Attribute) {
	if _, ok := g.nodes[id]; !ok {
		i, _ := slices.BinarySearch(g.keys, id)
		g.keys = slices.Insert(g.keys, i, id)
		for j := i; j < len(g.keys); j++ {
			g.index[g.keys[j]] = j
		}
	}
	g.nodes[id] = DNode{id: id, name: name, attrs: attrs}
}

// AddEdge adds a directed edge between two nodes that are in the graph. Attributes of parallel edges are
// appended to the attributes of the existing edge.
func (g *DiGraph) AddEdge(from, to int64, attrs ...encoding.Attribute) {
	if _, ok := g.nodes[from]; !ok {
		return
	}
	if _, ok := g.nodes[to]; !ok {
		return
	}
	if i, found := slices.BinarySearch(g.out[from], to); !found {
		g.out[from] = slices.Insert(g.out[from], i, to)
		j, _ := slices.BinarySearch(g.in[to], from)
		g.in[to] = slices.Insert(g.in[to], j, from)
	}
	k := [2]int64{from, to}
	g.edgeAttrs[k] = append(g.edgeAttrs[k], attrs...)
}

// Keys returns the node ids in increasing order
func (g *DiGraph) Keys() []int64 { return slices.Clone(g.keys) }

// Key returns the node id of the node at dense index v
func (g *DiGraph) Key(v int) int64 { return g.keys[v] }

// Successors returns the successors of the node, sorted
func (g *DiGraph) Successors(id int64) []int64 { return g.out[id] }

// Subgraph returns the subgraph induced by the given nodes: only the edges that have both the origin and the
// destination in include are kept.
func (g *DiGraph) Subgraph(include []int64) *DiGraph {
	sub := NewDiGraph()
	for _, id := range include {
		if n, ok := g.nodes[id]; ok {
			sub.AddNode(id, n.name, n.attrs...)
		}
	}
	for _, id := range sub.keys {
		for _, to := range g.out[id] {
			if _, ok := sub.nodes[to]; ok {
				sub.AddEdge(id, to, g.edgeAttrs[[2]int64{id, to}]...)
			}
		}
	}
	return sub
}

// *************** graph.Iterator (yourbasic) implementation **********************

// Order returns the number of nodes in the graph
func (g *DiGraph) Order() int { return len(g.keys) }

// Visit calls do for each successor of the node at dense index v, in increasing order
func (g *DiGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= len(g.keys) {
		return false
	}
	for _, to := range g.out[g.keys[v]] {
		if do(g.index[to], 1) {
			return true
		}
	}
	return false
}

// *************** graph.Directed (gonum) implementation **********************

// Node returns the node with the given id, or nil
func (g *DiGraph) Node(id int64) graph.Node {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return n
}

// Nodes returns all the nodes of the graph, ordered by id
func (g *DiGraph) Nodes() graph.Nodes { return g.nodeSet(g.keys) }

// From returns the nodes that can be reached directly from the node with the given id
func (g *DiGraph) From(id int64) graph.Nodes { return g.nodeSet(g.out[id]) }

// To returns the nodes that can reach directly the node with the given id
func (g *DiGraph) To(id int64) graph.Nodes { return g.nodeSet(g.in[id]) }

// HasEdgeBetween returns whether an edge exists between the two nodes, in either direction
func (g *DiGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdgeFromTo(xid, yid) || g.HasEdgeFromTo(yid, xid)
}

// HasEdgeFromTo returns whether an edge exists from u to v
func (g *DiGraph) HasEdgeFromTo(uid, vid int64) bool {
	_, found := slices.BinarySearch(g.out[uid], vid)
	return found
}

// Edge returns the edge from u to v, or nil if there is none
func (g *DiGraph) Edge(uid, vid int64) graph.Edge {
	if !g.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return DEdge{from: g.nodes[uid], to: g.nodes[vid], attrs: g.edgeAttrs[[2]int64{uid, vid}]}
}

func (g *DiGraph) nodeSet(ids []int64) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return iterator.NewOrderedNodes(nodes)
}

// *************** Nodes and edges **********************

// DNode is a node of a DiGraph. It implements graph.Node, and the DOT node and attributes interfaces.
type DNode struct {
	id    int64
	name  string
	attrs []encoding.Attribute
}

// ID returns the id of the node
func (n DNode) ID() int64 { return n.id }

// DOTID returns the name of the node in DOT output
func (n DNode) DOTID() string { return n.name }

// Attributes returns the DOT attributes of the node
func (n DNode) Attributes() []encoding.Attribute { return n.attrs }

func (n DNode) String() string { return n.name }

// DEdge is an edge of a DiGraph
type DEdge struct {
	from  DNode
	to    DNode
	attrs []encoding.Attribute
}

// From returns the origin of the edge
func (e DEdge) From() graph.Node { return e.from }

// To returns the destination of the edge
func (e DEdge) To() graph.Node { return e.to }

// ReversedEdge returns a new value representing the reversed edge
func (e DEdge) ReversedEdge() graph.Edge { return DEdge{from: e.to, to: e.from, attrs: e.attrs} }

// Attributes returns the DOT attributes of the edge
func (e DEdge) Attributes() []encoding.Attribute { return e.attrs }
