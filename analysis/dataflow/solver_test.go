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

package dataflow

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/awslabs/ar-bytecode-tools/analysis/config"
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockSet map[flowgraph.BlockID]bool

// reach computes, in the forward direction, the blocks on some path from an entry to each block and, in the
// backward direction, the blocks on some path from each block to an exit
type reach struct {
	Unsupported[blockSet]
	dir   Direction
	inits int
}

func (r *reach) Name() string                { return "reach" }
func (r *reach) Direction() Direction        { return r.dir }
func (r *reach) Init(*flowgraph.Graph) error { r.inits++; return nil }
func (r *reach) NewState() blockSet          { return blockSet{} }
func (r *reach) NewEntryState() blockSet     { return blockSet{} }
func (r *reach) Equals(a blockSet, b blockSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func (r *reach) Copy(src blockSet, dst blockSet) {
	for k := range dst {
		delete(dst, k)
	}
	for k := range src {
		dst[k] = true
	}
}

func (r *reach) Merge(into blockSet, c blockSet) {
	for k := range c {
		into[k] = true
	}
}

func (r *reach) Execute(b *flowgraph.Block, src blockSet, dst blockSet) {
	r.Copy(src, dst)
	dst[b.ID()] = true
}

func (r *reach) FlowThrough(_ *flowgraph.Block, dstIn blockSet, _ *flowgraph.Block, srcOut blockSet) {
	if r.dir == Backward {
		r.Copy(dstIn, srcOut)
	} else {
		r.Copy(srcOut, dstIn)
	}
}

// reachAll also follows exceptional edges
type reachAll struct {
	reach
}

func (r *reachAll) FlowException(dst *flowgraph.Block, dstIn blockSet, src *flowgraph.Block, srcOut blockSet) error {
	r.FlowThrough(dst, dstIn, src, srcOut)
	return nil
}

// counter never reaches a fixed point on a cyclic graph
type counter struct {
	Unsupported[*int]
}

func (c counter) Name() string                               { return "counter" }
func (c counter) Direction() Direction                       { return Forward }
func (c counter) Init(*flowgraph.Graph) error                { return nil }
func (c counter) NewState() *int                             { return new(int) }
func (c counter) NewEntryState() *int                        { return new(int) }
func (c counter) Execute(_ *flowgraph.Block, s *int, d *int) { *d = *s + 1 }
func (c counter) Merge(into *int, x *int) {
	if *x > *into {
		*into = *x
	}
}
func (c counter) Equals(a *int, b *int) bool { return *a == *b }
func (c counter) Copy(src *int, dst *int)    { *dst = *src }
func (c counter) FlowThrough(_ *flowgraph.Block, dstIn *int, _ *flowgraph.Block, srcOut *int) {
	*dstIn = *srcOut
}

// loopGraph returns 0 -> 1 -> {2, 3}, 2 -> 1, with 4 handling exceptions of 2
func loopGraph(t *testing.T) *flowgraph.Graph {
	g := flowgraph.New("loop")
	for i := 0; i < 5; i++ {
		require.NoError(t, g.AddVertex(flowgraph.NewBlock(flowgraph.BlockID(i), "")))
	}
	require.NoError(t, g.AddEntry(0))
	for _, e := range []flowgraph.Edge{
		flowgraph.NewEdge(0, 1, flowgraph.Immediate),
		flowgraph.NewEdge(1, 2, flowgraph.Conditional),
		flowgraph.NewEdge(1, 3, flowgraph.Immediate),
		flowgraph.NewEdge(2, 1, flowgraph.UnconditionalJump),
		flowgraph.NewEdge(2, 4, flowgraph.TryCatch),
	} {
		require.NoError(t, g.AddEdge(e))
	}
	r := flowgraph.NewExceptionRange(4)
	r.AddBlock(2)
	require.NoError(t, g.AddRange(r))
	return g
}

func ids(s blockSet) []flowgraph.BlockID {
	var res []flowgraph.BlockID
	for i := flowgraph.BlockID(0); i < 10; i++ {
		if s[i] {
			res = append(res, i)
		}
	}
	return res
}

func TestForwardFixedPoint(t *testing.T) {
	g := loopGraph(t)
	a := &reach{dir: Forward}
	res, err := Run[blockSet](g, a, Options{SkipExceptionEdges: true})
	require.NoError(t, err)
	assert.Equal(t, 1, a.inits)

	in1, ok := res.In(1)
	require.True(t, ok)
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2}, ids(in1))
	out3, _ := res.Out(3)
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2, 3}, ids(out3))
	// the handler is only reachable through the skipped exceptional edge
	out4, _ := res.Out(4)
	assert.Equal(t, []flowgraph.BlockID{4}, ids(out4))
	_, ok = res.In(7)
	assert.False(t, ok)
}

func TestBackwardFixedPoint(t *testing.T) {
	g := loopGraph(t)
	res, err := Run[blockSet](g, &reachAll{reach{dir: Backward}}, Options{})
	require.NoError(t, err)
	in0, _ := res.In(0)
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2, 3, 4}, ids(in0))
	out1, _ := res.Out(1)
	assert.Equal(t, []flowgraph.BlockID{1, 2, 3, 4}, ids(out1))
	out3, _ := res.Out(3)
	assert.Empty(t, ids(out3))
}

func TestExceptionEdgesUnsupported(t *testing.T) {
	g := loopGraph(t)
	_, err := Run[blockSet](g, &reach{dir: Backward}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), "B2 -> B4")

	_, err = Run[blockSet](g, &reach{dir: Backward}, Options{SkipExceptionEdges: true})
	assert.NoError(t, err)
}

func TestMaxIterations(t *testing.T) {
	g := loopGraph(t)
	_, err := Run[*int](g, counter{}, Options{MaxIterations: 50, SkipExceptionEdges: true})
	assert.True(t, errors.Is(err, ErrNoFixedPoint))

	c := config.NewDefault()
	c.MaxIterations = 100
	c.SkipExceptionEdges = true
	_, err = Run[*int](g, counter{}, OptionsFromConfig(c, nil))
	assert.True(t, errors.Is(err, ErrNoFixedPoint))
}

func TestCommitAndDeterminism(t *testing.T) {
	g := loopGraph(t)
	c := config.NewDefault()
	c.LogLevel = int(config.TraceLevel)
	log := config.NewLogGroup(c)
	var buf bytes.Buffer
	log.SetAllOutput(&buf)

	res1, err := Run[blockSet](g, &reachAll{reach{dir: Forward}}, Options{Commit: true, Log: log})
	require.NoError(t, err)
	res2, err := Run[blockSet](g, &reachAll{reach{dir: Forward}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, res1.Iterations, res2.Iterations)

	b4, _ := g.Block(4)
	fact, ok := b4.Fact(OutFactKey("reach"))
	require.True(t, ok)
	assert.Equal(t, []flowgraph.BlockID{0, 1, 2, 4}, ids(fact.(blockSet)))
	_, ok = b4.Fact(InFactKey("reach"))
	assert.True(t, ok)

	assert.True(t, strings.Contains(buf.String(), "reach: visited B0"))
	assert.True(t, strings.Contains(buf.String(), "fixed point after"))
}
