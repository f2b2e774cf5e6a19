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

/*
Package dataflow implements a generic fixed-point solver for dataflow analyses over a [flowgraph.Graph].

An analysis implements [Analysis] for its lattice element type S. The solver keeps one state per block boundary
("in" at the entry of a block, "out" at its exit) and iterates until no state changes:

  - for a backward analysis, the out state of a block is the merge of the contributions of its successor edges, and
    its in state is computed by the transfer function Execute from the out state;
  - for a forward analysis, the in state of a block is the merge of the contributions of its predecessor edges, and
    its out state is computed by Execute from the in state.

The contribution of an edge is computed by FlowThrough, or by FlowException for TryCatch edges. Analyses that do not
define how facts flow along exceptional edges embed [Unsupported], and the solver fails with [ErrUnsupported] when
such an edge is met (see [Options.SkipExceptionEdges]).

Termination is only guaranteed for monotone transfer functions over lattices of finite height. The solver does not
check monotonicity; [Options.MaxIterations] can bound the number of block visits.
*/
package dataflow
