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
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraph(t *testing.T, n int) *Graph {
	g := New("test")
	for i := 0; i < n; i++ {
		require.NoError(t, g.AddVertex(NewBlock(BlockID(i), "")))
	}
	return g
}

// checkIndexes verifies that every edge in the forward index is in the reverse index and vice versa
func checkIndexes(g *Graph) error {
	for _, b := range g.IDs() {
		out, _ := g.Edges(b)
		for _, e := range out {
			in, err := g.ReverseEdges(e.Dst)
			if err != nil {
				return err
			}
			if !containsEdge(in, e) {
				return fmt.Errorf("%s missing from reverse index of %s", e, e.Dst)
			}
		}
		in, _ := g.ReverseEdges(b)
		for _, e := range in {
			out, err := g.Edges(e.Src)
			if err != nil {
				return err
			}
			if !containsEdge(out, e) {
				return fmt.Errorf("%s missing from forward index of %s", e, e.Src)
			}
		}
	}
	return nil
}

func containsEdge(edges []Edge, e Edge) bool {
	for _, x := range edges {
		if x == e {
			return true
		}
	}
	return false
}

func TestEdgeIndexConsistency(t *testing.T) {
	r := rand.New(rand.NewSource(97341))
	for round := 0; round < 20; round++ {
		g := newTestGraph(t, 12)
		var added []Edge
		for i := 0; i < 40; i++ {
			e := NewEdge(BlockID(r.Intn(12)), BlockID(r.Intn(12)), EdgeKind(r.Intn(5)))
			require.NoError(t, g.AddEdge(e))
			added = append(added, e)
		}
		require.NoError(t, checkIndexes(g))

		for _, e := range added[:20] {
			g.RemoveEdge(e)
			assert.False(t, g.HasEdge(e))
			in, _ := g.ReverseEdges(e.Dst)
			assert.False(t, containsEdge(in, e))
		}
		require.NoError(t, checkIndexes(g))

		require.NoError(t, g.RemoveVertex(BlockID(r.Intn(12))))
		require.NoError(t, checkIndexes(g))
	}
}

func TestEdgeOrderImmediateFirst(t *testing.T) {
	g := newTestGraph(t, 4)
	require.NoError(t, g.AddEdge(NewEdge(0, 3, TryCatch)))
	require.NoError(t, g.AddEdge(NewEdge(0, 1, Conditional)))
	require.NoError(t, g.AddEdge(NewEdge(0, 2, Immediate)))
	require.NoError(t, g.AddEdge(NewEdge(0, 2, Immediate))) // duplicate

	edges, err := g.Edges(0)
	require.NoError(t, err)
	assert.Equal(t, []Edge{
		NewEdge(0, 2, Immediate),
		NewEdge(0, 1, Conditional),
		NewEdge(0, 3, TryCatch),
	}, edges)

	next, ok := g.Immediate(0)
	assert.True(t, ok)
	assert.Equal(t, BlockID(2), next)
	prev, ok := g.IncomingImmediate(2)
	assert.True(t, ok)
	assert.Equal(t, BlockID(0), prev)
	_, ok = g.Immediate(1)
	assert.False(t, ok)
	assert.Equal(t, 3, g.NumEdges())
}

func TestUnknownVertex(t *testing.T) {
	g := newTestGraph(t, 2)
	_, err := g.Edges(5)
	assert.True(t, errors.Is(err, ErrUnknownVertex))
	_, err = g.ReverseEdges(5)
	assert.True(t, errors.Is(err, ErrUnknownVertex))
	assert.True(t, errors.Is(g.AddEdge(NewEdge(0, 5, Immediate)), ErrUnknownVertex))
	assert.True(t, errors.Is(g.RemoveVertex(5), ErrUnknownVertex))
	assert.True(t, errors.Is(g.AddEntry(5), ErrUnknownVertex))
	// querying did not insert the vertex
	assert.False(t, g.Contains(5))
	assert.Equal(t, 2, g.Size())
}

func TestAddVertexDuplicates(t *testing.T) {
	g := New("dup")
	b := NewBlock(1, "A")
	require.NoError(t, g.AddVertex(b))
	require.NoError(t, g.AddVertex(b))
	assert.True(t, errors.Is(g.AddVertex(NewBlock(1, "B")), ErrDuplicateVertex))
	assert.True(t, errors.Is(g.AddVertex(NewBlock(2, "A")), ErrDuplicateVertex))
	found, ok := g.BlockByName("A")
	require.True(t, ok)
	assert.Same(t, b, found)
}

func TestRemoveVertexCascadesToRanges(t *testing.T) {
	g := newTestGraph(t, 5)
	sole := NewExceptionRange(4, "java/lang/Exception")
	sole.AddBlock(0)
	several := NewExceptionRange(4)
	several.AddBlock(1)
	several.AddBlock(2)
	several.AddBlock(3)
	require.NoError(t, g.AddRange(sole))
	require.NoError(t, g.AddRange(several))
	require.NoError(t, g.AddEdge(NewEdge(0, 1, Immediate)))
	require.NoError(t, g.AddEdge(NewEdge(1, 4, TryCatch)))
	require.NoError(t, g.AddEntry(0))

	// removing the sole protected block drops the range
	require.NoError(t, g.RemoveVertex(0))
	assert.Equal(t, []*ExceptionRange{several}, g.Ranges())
	assert.Empty(t, g.Entries())
	in, err := g.ReverseEdges(1)
	require.NoError(t, err)
	assert.Empty(t, in)

	// removing one of several protected blocks shrinks the range
	require.NoError(t, g.RemoveVertex(2))
	require.Len(t, g.Ranges(), 1)
	assert.Equal(t, []BlockID{1, 3}, several.Blocks())

	// removing the handler drops the range
	require.NoError(t, g.RemoveVertex(4))
	assert.Empty(t, g.Ranges())
	out, err := g.Edges(1)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAddRangeValidation(t *testing.T) {
	g := newTestGraph(t, 2)
	assert.True(t, errors.Is(g.AddRange(NewExceptionRange(1)), ErrInvalidRange))
	r := NewExceptionRange(7)
	r.AddBlock(0)
	assert.True(t, errors.Is(g.AddRange(r), ErrUnknownVertex))
	r = NewExceptionRange(1, "b", "a", "b")
	r.AddBlock(0)
	require.NoError(t, g.AddRange(r))
	require.NoError(t, g.AddRange(r))
	assert.Len(t, g.Ranges(), 1)
	assert.Equal(t, []string{"a", "b"}, r.Types())
	assert.False(t, r.IsCatchAll())
	assert.True(t, g.RemoveRange(r))
	assert.False(t, g.RemoveRange(r))
}

func TestRemoveEmptyRanges(t *testing.T) {
	g := newTestGraph(t, 3)
	kept := NewExceptionRange(2)
	kept.AddBlock(0)
	emptied := NewExceptionRange(2, "java/lang/Exception")
	emptied.AddBlock(1)
	require.NoError(t, g.AddRange(emptied))
	require.NoError(t, g.AddRange(kept))
	assert.Empty(t, g.RemoveEmptyRanges())

	require.True(t, g.Ranges()[0].RemoveBlock(1))
	assert.Equal(t, []*ExceptionRange{emptied}, g.RemoveEmptyRanges())
	assert.Equal(t, []*ExceptionRange{kept}, g.Ranges())
}

func TestEntry(t *testing.T) {
	g := newTestGraph(t, 3)
	_, err := g.Entry()
	assert.True(t, errors.Is(err, ErrMultipleEntries))
	require.NoError(t, g.AddEntry(1))
	e, err := g.Entry()
	require.NoError(t, err)
	assert.Equal(t, BlockID(1), e)
	require.NoError(t, g.AddEntry(0))
	_, err = g.Entry()
	assert.True(t, errors.Is(err, ErrMultipleEntries))
	assert.Equal(t, []BlockID{0, 1}, g.Entries())
}

func TestPostOrderAndTrails(t *testing.T) {
	// 0 -> 1 -> 3, 0 -> 2 -> 3, 3 -> 1 (loop), 2 -> 4 (exception)
	g := newTestGraph(t, 5)
	require.NoError(t, g.AddEdge(NewEdge(0, 1, Immediate)))
	require.NoError(t, g.AddEdge(NewEdge(0, 2, Conditional)))
	require.NoError(t, g.AddEdge(NewEdge(1, 3, Immediate)))
	require.NoError(t, g.AddEdge(NewEdge(2, 3, UnconditionalJump)))
	require.NoError(t, g.AddEdge(NewEdge(3, 1, UnconditionalJump)))
	require.NoError(t, g.AddEdge(NewEdge(2, 4, TryCatch)))

	po, err := g.PostOrder(0)
	require.NoError(t, err)
	assert.Equal(t, []BlockID{3, 1, 4, 2, 0}, po)

	trails, err := g.Trails(0, 3, true, false)
	require.NoError(t, err)
	assert.Equal(t, []BlockID{0, 1, 2}, trails)
	trails, err = g.Trails(0, 3, true, true)
	require.NoError(t, err)
	assert.Equal(t, []BlockID{0, 1, 2, 4}, trails)
	trails, err = g.Trails(3, 0, false, false)
	require.NoError(t, err)
	assert.Equal(t, []BlockID{1, 2, 3}, trails)
}

func TestBlockStatements(t *testing.T) {
	b := NewBlock(3, "")
	assert.Equal(t, "B3", b.Name())
	b.Append(ir.NewPop(ir.NewConst(1)), ir.NewJump(4))
	b.Insert(0, ir.NewPop(ir.NewConst(0)))
	assert.Equal(t, 3, b.Len())
	assert.True(t, b.RemoveLastJump())
	assert.False(t, b.RemoveLastJump())
	assert.Equal(t, "0;", b.Stmts()[0].String())
	assert.Equal(t, 2, b.Len())

	b.SetFact("k", 1)
	v, ok := b.Fact("k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
