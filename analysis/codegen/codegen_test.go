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
	"errors"
	"math/rand"
	"testing"

	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
)

type testGraph struct {
	*flowgraph.Graph
	t *testing.T
}

func newGraph(t *testing.T, name string, blocks ...*flowgraph.Block) testGraph {
	g := flowgraph.New(name)
	for _, b := range blocks {
		require.NoError(t, g.AddVertex(b))
	}
	require.NoError(t, g.AddEntry(blocks[0].ID()))
	return testGraph{g, t}
}

func (g testGraph) edge(src, dst flowgraph.BlockID, k flowgraph.EdgeKind) {
	require.NoError(g.t, g.AddEdge(flowgraph.NewEdge(src, dst, k)))
}

func (g testGraph) protect(handler flowgraph.BlockID, types []string, blocks ...flowgraph.BlockID) {
	r := flowgraph.NewExceptionRange(handler, types...)
	for _, b := range blocks {
		r.AddBlock(b)
		g.edge(b, handler, flowgraph.TryCatch)
	}
	require.NoError(g.t, g.AddRange(r))
}

func (g testGraph) block(id flowgraph.BlockID) *flowgraph.Block {
	b, ok := g.Block(id)
	require.True(g.t, ok)
	return b
}

var (
	v0 = ir.NewLocal(0, 1)
	s0 = ir.NewStackLocal(0, 1)
)

func cond(target flowgraph.BlockID) ir.Stmt {
	return ir.NewConditionalJump(ir.NewVar(v0), "!=", ir.NewConst(0), target)
}

func ret() ir.Stmt { return ir.NewReturn(ir.NewVar(v0)) }

// checkOrder verifies that the order is a permutation of the blocks of g that keeps every Immediate edge
func checkOrder(t *testing.T, g *flowgraph.Graph, order []flowgraph.BlockID) {
	sorted := slices.Clone(order)
	slices.Sort(sorted)
	require.Equal(t, g.IDs(), sorted)
	require.NoError(t, Verify(g, order))
}

func TestStraightLine(t *testing.T) {
	g := newGraph(t, "line",
		flowgraph.NewBlock(0, ""),
		flowgraph.NewBlock(1, ""),
		flowgraph.NewBlock(2, "", ret()))
	g.edge(0, 1, flowgraph.Immediate)
	g.edge(1, 2, flowgraph.Immediate)
	order, err := Linearize(g.Graph)
	require.NoError(t, err)
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2}, order)
}

func TestLinearizeLoop(t *testing.T) {
	// 0 -> 1 (header) -> 2 (body) -> goto 1, 1 exits to 3
	g := newGraph(t, "loop",
		flowgraph.NewBlock(0, "", ir.NewCopy(v0, ir.NewConst(10))),
		flowgraph.NewBlock(1, "", cond(3)),
		flowgraph.NewBlock(2, "", ir.NewPop(ir.NewInvoke("Foo", "bar", "()V")), ir.NewJump(1)),
		flowgraph.NewBlock(3, "", ret()))
	g.edge(0, 1, flowgraph.Immediate)
	g.edge(1, 2, flowgraph.Immediate)
	g.edge(1, 3, flowgraph.Conditional)
	g.edge(2, 1, flowgraph.UnconditionalJump)

	order, err := Linearize(g.Graph)
	require.NoError(t, err)
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2, 3}, order)

	c := &Collector{}
	n, err := Naturalize(g.Graph, order, c.Sink())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, c.Diagnostics)
	checkOrder(t, g.Graph, order)
}

func TestLinearizeIrreducible(t *testing.T) {
	// the cycle 1 <-> 2 is entered from 0 at both blocks
	g := newGraph(t, "irreducible",
		flowgraph.NewBlock(0, "", cond(2), ir.NewJump(1)),
		flowgraph.NewBlock(1, "", cond(3), ir.NewJump(2)),
		flowgraph.NewBlock(2, "", ir.NewJump(1)),
		flowgraph.NewBlock(3, "", ret()))
	g.edge(0, 2, flowgraph.Conditional)
	g.edge(0, 1, flowgraph.UnconditionalJump)
	g.edge(1, 3, flowgraph.Conditional)
	g.edge(1, 2, flowgraph.UnconditionalJump)
	g.edge(2, 1, flowgraph.UnconditionalJump)

	order, err := Linearize(g.Graph)
	require.NoError(t, err)
	// the lowest block entered from outside the cycle is the entry of the cycle
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2, 3}, order)

	c := &Collector{}
	n, err := Naturalize(g.Graph, order, c.Sink())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Count(JumpElided))
	assert.True(t, g.HasEdge(flowgraph.NewEdge(0, 1, flowgraph.Immediate)))
	assert.True(t, g.HasEdge(flowgraph.NewEdge(1, 2, flowgraph.Immediate)))
	assert.Equal(t, 1, g.block(0).Len())
	assert.Equal(t, 1, g.block(1).Len())
	checkOrder(t, g.Graph, order)
}

func TestImmediateCycleIsOpened(t *testing.T) {
	// 1 and 2 fall through into each other
	g := newGraph(t, "immcycle",
		flowgraph.NewBlock(0, "", ir.NewJump(2)),
		flowgraph.NewBlock(1, "", ir.NewCopy(v0, ir.NewConst(1))),
		flowgraph.NewBlock(2, "", ir.NewCopy(v0, ir.NewConst(2))))
	g.edge(0, 2, flowgraph.UnconditionalJump)
	g.edge(1, 2, flowgraph.Immediate)
	g.edge(2, 1, flowgraph.Immediate)

	order, err := Linearize(g.Graph)
	require.NoError(t, err)
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2}, order)
	assert.Error(t, Verify(g.Graph, order))

	c := &Collector{}
	n, err := Naturalize(g.Graph, order, c.Sink())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, c.Diagnostics, 1)
	assert.Equal(t, ImmediateFixup, c.Diagnostics[0].Kind)
	assert.Equal(t, flowgraph.BlockID(2), c.Diagnostics[0].Block)
	assert.True(t, g.HasEdge(flowgraph.NewEdge(2, 1, flowgraph.UnconditionalJump)))
	stmts := g.block(2).Stmts()
	assert.Equal(t, "goto 1;", stmts[len(stmts)-1].String())
	checkOrder(t, g.Graph, order)
}

func TestNaturalizeIdempotent(t *testing.T) {
	g := newGraph(t, "elide",
		flowgraph.NewBlock(0, "", ir.NewJump(1)),
		flowgraph.NewBlock(1, "", ret()))
	g.edge(0, 1, flowgraph.UnconditionalJump)
	order, err := Linearize(g.Graph)
	require.NoError(t, err)

	c := &Collector{}
	n, err := Naturalize(g.Graph, order, c.Sink())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, c.Count(JumpElided))
	assert.Equal(t, 0, g.block(0).Len())

	n, err = Naturalize(g.Graph, order, c.Sink())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, c.Diagnostics, 1)

	_, err = Naturalize(g.Graph, []flowgraph.BlockID{0, 7}, nil)
	assert.True(t, errors.Is(err, flowgraph.ErrUnknownVertex))
}

func TestVerify(t *testing.T) {
	g := newGraph(t, "verify",
		flowgraph.NewBlock(0, ""),
		flowgraph.NewBlock(1, ""),
		flowgraph.NewBlock(2, "", ret()))
	g.edge(0, 1, flowgraph.Immediate)
	g.edge(0, 2, flowgraph.Conditional)

	assert.NoError(t, Verify(g.Graph, []flowgraph.BlockID{0, 1, 2}))
	assert.NoError(t, Verify(g.Graph, []flowgraph.BlockID{2, 0, 1}))
	for _, order := range [][]flowgraph.BlockID{
		{0, 2, 1},    // fall-through broken
		{1, 2, 0},    // trailing fall-through
		{0, 1},       // missing block
		{0, 1, 1, 2}, // duplicate
		{0, 1, 2, 3}, // unknown block
	} {
		err := Verify(g.Graph, order)
		assert.True(t, errors.Is(err, ErrIllegalLinearization), "%v: %v", order, err)
	}
}

func TestMultipleEntries(t *testing.T) {
	g := newGraph(t, "entries", flowgraph.NewBlock(0, "", ret()), flowgraph.NewBlock(1, "", ret()))
	require.NoError(t, g.AddEntry(1))
	_, err := Linearize(g.Graph)
	assert.True(t, errors.Is(err, flowgraph.ErrMultipleEntries))

	d := NewDumper(g.Graph, "()V", nil)
	assert.True(t, errors.Is(d.Dump(), flowgraph.ErrMultipleEntries))
	assert.Nil(t, d.Body())
	assert.Nil(t, d.Order())
}

func TestExceptionTableSplit(t *testing.T) {
	g := newGraph(t, "split",
		flowgraph.NewBlock(0, ""),
		flowgraph.NewBlock(1, ""),
		flowgraph.NewBlock(2, ""),
		flowgraph.NewBlock(3, ""),
		flowgraph.NewBlock(4, "", ir.NewThrow(ir.NewVar(s0))))
	g.protect(4, []string{"java/lang/Exception"}, 1, 2)
	g.protect(4, nil, 3, 1)

	c := &Collector{}
	table := ExceptionTable(g.Graph, []flowgraph.BlockID{0, 1, 2, 3, 4}, c.Sink())
	assert.Equal(t, []TryCatchBlock{
		{Start: BlockLabel(1), End: BlockLabel(3), Handler: BlockLabel(4), Type: "java/lang/Exception"},
		{Start: BlockLabel(1), End: BlockLabel(2), Handler: BlockLabel(4)},
		{Start: BlockLabel(3), End: BlockLabel(4), Handler: BlockLabel(4)},
	}, table)
	require.Len(t, c.Diagnostics, 1)
	assert.Equal(t, RangeSplit, c.Diagnostics[0].Kind)
	assert.Equal(t, flowgraph.BlockID(3), c.Diagnostics[0].Block)
}

func TestExceptionTableTypesAndTerminal(t *testing.T) {
	g := newGraph(t, "types",
		flowgraph.NewBlock(0, "", ir.NewThrow(ir.NewVar(s0))),
		flowgraph.NewBlock(1, ""),
		flowgraph.NewBlock(2, "", ret()))
	g.protect(0, []string{"b/B", "a/A"}, 2)

	table := ExceptionTable(g.Graph, []flowgraph.BlockID{0, 1, 2}, nil)
	assert.Equal(t, []TryCatchBlock{
		{Start: BlockLabel(2), End: TerminalLabel, Handler: BlockLabel(0), Type: "a/A"},
		{Start: BlockLabel(2), End: TerminalLabel, Handler: BlockLabel(0), Type: "b/B"},
	}, table)
}

func TestExceptionTableThreeBlockRange(t *testing.T) {
	g := newGraph(t, "three",
		flowgraph.NewBlock(0, ""),
		flowgraph.NewBlock(1, ""),
		flowgraph.NewBlock(2, ""),
		flowgraph.NewBlock(3, ""),
		flowgraph.NewBlock(4, "", ir.NewThrow(ir.NewVar(s0))))
	g.protect(4, nil, 1, 2, 3)

	c := &Collector{}
	table := ExceptionTable(g.Graph, []flowgraph.BlockID{0, 1, 2, 3, 4}, c.Sink())
	assert.Equal(t, []TryCatchBlock{
		{Start: BlockLabel(1), End: BlockLabel(4), Handler: BlockLabel(4)},
	}, table)
	assert.Empty(t, c.Diagnostics)

	// 2 moved after the handler: 1 and 3 stay together, 2 runs to the end of the method
	table = ExceptionTable(g.Graph, []flowgraph.BlockID{0, 1, 3, 4, 2}, c.Sink())
	assert.Equal(t, []TryCatchBlock{
		{Start: BlockLabel(1), End: BlockLabel(4), Handler: BlockLabel(4)},
		{Start: BlockLabel(2), End: TerminalLabel, Handler: BlockLabel(4)},
	}, table)
	require.Len(t, c.Diagnostics, 1)
	assert.Equal(t, RangeSplit, c.Diagnostics[0].Kind)
	assert.Equal(t, flowgraph.BlockID(2), c.Diagnostics[0].Block)
}

func TestEmptiedRangeIsDropped(t *testing.T) {
	g := newGraph(t, "emptied",
		flowgraph.NewBlock(0, ""),
		flowgraph.NewBlock(1, "", ret()))
	g.edge(0, 1, flowgraph.Immediate)
	g.protect(1, []string{"java/lang/Exception"}, 0)
	require.True(t, g.Ranges()[0].RemoveBlock(0))

	assert.Empty(t, ExceptionTable(g.Graph, []flowgraph.BlockID{0, 1}, nil))
	require.Len(t, g.Ranges(), 1)

	c := &Collector{}
	d := NewDumper(g.Graph, "()V", c.Sink())
	require.NoError(t, d.Dump())
	assert.Equal(t, []flowgraph.BlockID{0, 1}, d.Order())
	assert.Empty(t, d.Body().TryCatchBlocks)
	assert.Empty(t, g.Ranges())
	assert.Equal(t, 1, c.Count(RangeDropped))
	assert.Equal(t, flowgraph.BlockID(1), c.Diagnostics[0].Block)
}

func tryCatchGraph(t *testing.T) testGraph {
	g := newGraph(t, "Foo.bar",
		flowgraph.NewBlock(0, "", ir.NewCopy(v0, ir.NewConst(0))),
		flowgraph.NewBlock(1, "", ir.NewPop(ir.NewInvoke("Foo", "baz", "()I"))),
		flowgraph.NewBlock(2, "", ret()),
		flowgraph.NewBlock(3, "", ir.NewThrow(ir.NewVar(s0))))
	g.edge(0, 1, flowgraph.Immediate)
	g.edge(1, 2, flowgraph.Immediate)
	g.protect(3, []string{"java/lang/Exception"}, 1, 2)
	return g
}

func TestDump(t *testing.T) {
	g := tryCatchGraph(t)
	c := &Collector{}
	d := NewDumper(g.Graph, "()I", c.Sink())
	require.NoError(t, d.Dump())
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2, 3}, d.Order())

	body := d.Body()
	assert.Equal(t, "Foo.bar", body.Name)
	assert.Equal(t, "()I", body.Desc)
	assert.Equal(t, []Label{BlockLabel(0), BlockLabel(1), BlockLabel(2), BlockLabel(3), TerminalLabel},
		body.Labels())
	assert.Len(t, body.Statements(), 4)
	assert.Equal(t, []TryCatchBlock{
		{Start: BlockLabel(1), End: BlockLabel(3), Handler: BlockLabel(3), Type: "java/lang/Exception"},
	}, body.TryCatchBlocks)
	assert.Empty(t, c.Diagnostics)
}

func TestDumpKeepsBodyOnFailure(t *testing.T) {
	g := tryCatchGraph(t)
	d := NewDumper(g.Graph, "()I", nil)
	require.NoError(t, d.Dump())
	body := d.Body()
	order := d.Order()

	require.NoError(t, g.AddEntry(3))
	assert.Error(t, d.Dump())
	assert.Same(t, body, d.Body())
	assert.Equal(t, order, d.Order())
}

func TestIllegalOrderLeavesGraphUntouched(t *testing.T) {
	g := newGraph(t, "illegal",
		flowgraph.NewBlock(0, ""),
		flowgraph.NewBlock(1, ""),
		flowgraph.NewBlock(2, "", ret()))
	g.edge(0, 1, flowgraph.Immediate)
	g.edge(1, 2, flowgraph.Immediate)

	// the trailing fall-through of 1 becomes a goto once applied
	order := []flowgraph.BlockID{0, 2, 1}
	assert.Error(t, Verify(g.Graph, order))
	plan, err := planNaturalization(g.Graph, order)
	require.NoError(t, err)
	require.NoError(t, verify(g.Graph, order, plan.kind))

	// 2 is missing: the order is rejected before any edge is rewritten
	order = []flowgraph.BlockID{0, 1}
	plan, err = planNaturalization(g.Graph, order)
	require.NoError(t, err)
	require.Len(t, plan.fixups, 1)
	err = verify(g.Graph, order, plan.kind)
	assert.True(t, errors.Is(err, ErrIllegalLinearization))
	assert.True(t, g.HasEdge(flowgraph.NewEdge(1, 2, flowgraph.Immediate)))
	assert.Equal(t, 0, g.block(1).Len())
}

func TestRangeBlocksStayTogether(t *testing.T) {
	// 1 and 3 are in different chains, protected by the same range
	g := newGraph(t, "bunch",
		flowgraph.NewBlock(0, "", cond(2)),
		flowgraph.NewBlock(1, "", ir.NewJump(3)),
		flowgraph.NewBlock(2, "", ir.NewThrow(ir.NewVar(s0))),
		flowgraph.NewBlock(3, "", ret()))
	g.edge(0, 1, flowgraph.Immediate)
	g.edge(0, 2, flowgraph.Conditional)
	g.edge(1, 3, flowgraph.UnconditionalJump)
	g.protect(2, nil, 1, 3)

	c := &Collector{}
	d := NewDumper(g.Graph, "()V", c.Sink())
	require.NoError(t, d.Dump())
	order := d.Order()
	i := slices.Index(order, 1)
	require.Less(t, i+1, len(order))
	assert.Equal(t, flowgraph.BlockID(3), order[i+1])
	assert.Len(t, d.Body().TryCatchBlocks, 1)
	assert.Equal(t, 0, c.Count(RangeSplit))
	assert.Equal(t, 1, c.Count(JumpElided))
}

// randomGraph builds a graph whose blocks end with a fall-through, a conditional jump and a fall-through, a goto or
// a return. Each block has at most one incoming fall-through, and the entry has none. One exception range is added if the graph is large
// enough.
func randomGraph(t *testing.T, seed int64, n int) testGraph {
	r := rand.New(rand.NewSource(seed))
	blocks := make([]*flowgraph.Block, n)
	for i := range blocks {
		blocks[i] = flowgraph.NewBlock(flowgraph.BlockID(i), "", ir.NewPop(ir.NewConst(i)))
	}
	g := newGraph(t, "random", blocks...)
	hasIncoming := map[int]bool{0: true}
	fallThrough := func(i int) (int, bool) {
		var free []int
		for j := 0; j < n; j++ {
			if j != i && !hasIncoming[j] {
				free = append(free, j)
			}
		}
		if len(free) == 0 {
			return 0, false
		}
		j := free[r.Intn(len(free))]
		hasIncoming[j] = true
		return j, true
	}
	for i, b := range blocks {
		src := flowgraph.BlockID(i)
		switch r.Intn(4) {
		case 0, 1:
			j, ok := fallThrough(i)
			if !ok {
				b.Append(ret())
				continue
			}
			if k := r.Intn(n); k != j && r.Intn(2) == 0 {
				b.Append(cond(flowgraph.BlockID(k)))
				g.edge(src, flowgraph.BlockID(k), flowgraph.Conditional)
			}
			g.edge(src, flowgraph.BlockID(j), flowgraph.Immediate)
		case 2:
			k := flowgraph.BlockID(r.Intn(n))
			b.Append(ir.NewJump(k))
			g.edge(src, k, flowgraph.UnconditionalJump)
		default:
			b.Append(ret())
		}
	}
	if n > 4 {
		handler := flowgraph.BlockID(r.Intn(n))
		var protected []flowgraph.BlockID
		for _, i := range r.Perm(n)[:3] {
			if flowgraph.BlockID(i) != handler {
				protected = append(protected, flowgraph.BlockID(i))
			}
		}
		g.protect(handler, nil, protected...)
	}
	return g
}

// checkCoverage verifies that the try-catch entries cover exactly the protected blocks
func checkCoverage(t *testing.T, g *flowgraph.Graph, order []flowgraph.BlockID, table []TryCatchBlock) {
	pos := map[Label]int{TerminalLabel: len(order)}
	for i, id := range order {
		pos[BlockLabel(id)] = i
	}
	for _, r := range g.Ranges() {
		var covered []flowgraph.BlockID
		for _, tc := range table {
			if tc.Handler != BlockLabel(r.Handler()) {
				continue
			}
			require.Less(t, pos[tc.Start], pos[tc.End])
			covered = append(covered, order[pos[tc.Start]:pos[tc.End]]...)
		}
		slices.Sort(covered)
		expected := r.Blocks()
		slices.Sort(expected)
		assert.Equal(t, expected, covered)
	}
}

func TestRandomGraphs(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		n := 2 + int(seed%13)
		g := randomGraph(t, seed, n)
		d := NewDumper(g.Graph, "()V", nil)
		require.NoError(t, d.Dump(), "seed %d", seed)
		order := d.Order()
		checkOrder(t, g.Graph, order)
		assert.Equal(t, flowgraph.BlockID(0), order[0])
		checkCoverage(t, g.Graph, order, d.Body().TryCatchBlocks)

		fixes, err := Naturalize(g.Graph, order, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, fixes, "seed %d", seed)

		again, err := Linearize(randomGraph(t, seed, n).Graph)
		require.NoError(t, err)
		linear, err := Linearize(randomGraph(t, seed, n).Graph)
		require.NoError(t, err)
		assert.Equal(t, again, linear, "seed %d", seed)
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Kind: RangeSplit, Method: "Foo.bar", Block: 3, Message: "split"}
	assert.Equal(t, "range-split in Foo.bar at block 3: split", d.String())
	assert.Equal(t, "range-dropped", RangeDropped.String())
	assert.Equal(t, "Lend", TerminalLabel.String())
	assert.Equal(t, "L4", BlockLabel(4).String())
}
