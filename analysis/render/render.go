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

// Package render writes flow graphs in the GraphViz DOT format.
package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/internal/graphutil"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// edgeStyle defines specific styles for specific edges
// - exceptional edges are dashed
// - gotos and switch cases are blue
// - fall-throughs and conditional branches have the default style
func edgeStyle(k flowgraph.EdgeKind) []encoding.Attribute {
	switch k {
	case flowgraph.TryCatch:
		return []encoding.Attribute{{Key: "style", Value: "dashed"}}
	case flowgraph.UnconditionalJump, flowgraph.Switch:
		return []encoding.Attribute{{Key: "color", Value: "blue"}}
	}
	return nil
}

func nodeLabel(b *flowgraph.Block) string {
	var s strings.Builder
	s.WriteString(b.Name())
	s.WriteString(`:\l`)
	for _, stmt := range b.Stmts() {
		s.WriteString(strings.ReplaceAll(stmt.String(), "\"", "'"))
		s.WriteString(`\l`)
	}
	return s.String()
}

// ToDiGraph returns the graph of blocks of g, with DOT attributes. Node ids are block ids and parallel edges are
// merged into one edge labelled with all their kinds.
// Blocks protected by exception ranges are filled, with the indexes of their ranges as external label. Handlers
// are drawn with a double border.
func ToDiGraph(g *flowgraph.Graph) *graphutil.DiGraph {
	d := graphutil.NewDiGraph()
	protected := map[flowgraph.BlockID][]string{}
	handlers := map[flowgraph.BlockID]bool{}
	for i, r := range g.Ranges() {
		handlers[r.Handler()] = true
		for _, b := range r.Blocks() {
			protected[b] = append(protected[b], fmt.Sprintf("try%d", i))
		}
	}
	entries := map[flowgraph.BlockID]bool{}
	for _, e := range g.Entries() {
		entries[e] = true
	}

	for _, b := range g.Vertices() {
		attrs := []encoding.Attribute{{Key: "shape", Value: "box"}, {Key: "label", Value: nodeLabel(b)}}
		if ranges, ok := protected[b.ID()]; ok {
			attrs = append(attrs,
				encoding.Attribute{Key: "style", Value: "filled"},
				encoding.Attribute{Key: "fillcolor", Value: "lightgrey"},
				encoding.Attribute{Key: "xlabel", Value: strings.Join(ranges, " ")})
		}
		if handlers[b.ID()] {
			attrs = append(attrs, encoding.Attribute{Key: "peripheries", Value: "2"})
		}
		if entries[b.ID()] {
			attrs = append(attrs, encoding.Attribute{Key: "penwidth", Value: "2"})
		}
		d.AddNode(int64(b.ID()), b.Name(), attrs...)
	}

	for _, b := range g.IDs() {
		edges, _ := g.Edges(b)
		kinds := map[flowgraph.BlockID][]string{}
		var dsts []flowgraph.BlockID
		styles := map[flowgraph.BlockID][]encoding.Attribute{}
		for _, e := range edges {
			if _, ok := kinds[e.Dst]; !ok {
				dsts = append(dsts, e.Dst)
				styles[e.Dst] = edgeStyle(e.Kind)
			}
			kinds[e.Dst] = append(kinds[e.Dst], e.Kind.String())
		}
		for _, dst := range dsts {
			attrs := append([]encoding.Attribute{{Key: "label", Value: strings.Join(kinds[dst], ",")}},
				styles[dst]...)
			d.AddEdge(int64(b), int64(dst), attrs...)
		}
	}
	return d
}

// Dot returns the DOT representation of g
func Dot(g *flowgraph.Graph) ([]byte, error) {
	b, err := dot.Marshal(ToDiGraph(g), g.Name, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error while rendering %s: %w", g.Name, err)
	}
	return b, nil
}

// WriteDot writes the DOT representation of g to w
func WriteDot(g *flowgraph.Graph, w io.Writer) error {
	b, err := Dot(g)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("error while writing graph: %w", err)
	}
	return nil
}

// DotToFile writes the DOT representation of g to the file
func DotToFile(g *flowgraph.Graph, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := WriteDot(g, w); err != nil {
		return err
	}
	return w.Flush()
}
