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
Package codegen turns a flow graph back into a single instruction stream.

The conversion runs in the following steps:

 1. [Linearize] computes a total order of the blocks. Blocks chained by Immediate edges are grouped in bundles that
    stay contiguous; bundles that share an exception range are grouped in bunches so that the protected blocks stay
    adjacent; bunches are then ordered by recursively decomposing the graph of their non-immediate edges in strongly
    connected components, entering each component through a loop header when there is one.
 2. [Naturalize] repairs the graph for that order: an Immediate edge whose destination is not the next block becomes
    an explicit goto, and a goto to the next block is removed.
 3. [Verify] checks that every Immediate edge falls through to the next block.
 4. [ExceptionTable] rebuilds the exception table, splitting the ranges whose blocks are not contiguous.

[Dumper] runs all the steps and writes the result in a [MethodBody]. Conditions that are repaired (range splits, jump
fixups) are reported to a [DiagnosticSink] rather than logged.
*/
package codegen
