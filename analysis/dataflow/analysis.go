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
	"errors"
	"fmt"

	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
)

var (
	// ErrUnsupported is returned when an analysis is asked to propagate facts along an edge it does not support
	ErrUnsupported = errors.New("unsupported dataflow operation")

	// ErrNoFixedPoint is returned when the solver exceeds its iteration bound
	ErrNoFixedPoint = errors.New("no fixed point reached")
)

// Direction is the direction in which facts flow
type Direction int

const (
	// Forward analyses compute the out state of a block from its in state
	Forward Direction = iota
	// Backward analyses compute the in state of a block from its out state
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Analysis is a dataflow analysis with states of type S. States are mutable values (typically pointers or maps)
// owned by the solver; the methods below never retain the states they receive.
//
// In FlowThrough and FlowException, dst and src are the destination and source of a control-flow edge, whatever
// the direction of the analysis. For a backward analysis, dstIn is the input and the contribution of the edge is
// written into srcOut. For a forward analysis, srcOut is the input and the contribution is written into dstIn.
type Analysis[S any] interface {
	// Name identifies the analysis in logs and in committed block facts
	Name() string

	Direction() Direction

	// Init is called once before solving, to compute the per-block information of the analysis
	Init(g *flowgraph.Graph) error

	// NewState returns the initial state of every block boundary, which is also the neutral element of Merge
	NewState() S

	// NewEntryState returns the state at the boundary of the graph: the in state of entry blocks in a forward
	// analysis, the out state of exit blocks in a backward analysis
	NewEntryState() S

	// Execute is the transfer function of block b. src is the solved state (out for backward, in for forward), and
	// dst is a fresh state from NewState that receives the state on the other side of the block.
	Execute(b *flowgraph.Block, src S, dst S)

	// FlowThrough computes the contribution of a normal edge
	FlowThrough(dst *flowgraph.Block, dstIn S, src *flowgraph.Block, srcOut S)

	// FlowException computes the contribution of a TryCatch edge
	FlowException(dst *flowgraph.Block, dstIn S, src *flowgraph.Block, srcOut S) error

	// Merge combines contribution into into
	Merge(into S, contribution S)

	Equals(a S, b S) bool

	// Copy overwrites dst with the content of src
	Copy(src S, dst S)
}

// Unsupported can be embedded in an analysis that does not support exceptional edges
type Unsupported[S any] struct{}

// FlowException always returns ErrUnsupported
func (Unsupported[S]) FlowException(dst *flowgraph.Block, _ S, src *flowgraph.Block, _ S) error {
	return fmt.Errorf("%w: exceptional edge %s -> %s", ErrUnsupported, src.Name(), dst.Name())
}
