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
	"fmt"

	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"golang.org/x/exp/slices"
)

// ExceptionTable returns the exception table of g for the block order, which must contain every block.
// Each range is emitted as the sub-ranges of its blocks that are contiguous in the order: a range whose blocks are
// separated by other blocks is split, and the split is reported to the sink. A sub-range ends at the label of the
// block that follows it, or at TerminalLabel if it runs to the end of the method.
// Each sub-range gives one entry per guarded type, in type order, or a single catch-all entry if the range has no
// type. Ranges are emitted in the order of the graph. Ranges that protect no block are skipped.
func ExceptionTable(g *flowgraph.Graph, order []flowgraph.BlockID, sink DiagnosticSink) []TryCatchBlock {
	pos := make(map[flowgraph.BlockID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	label := func(i int) Label {
		if i == len(order) {
			return TerminalLabel
		}
		return BlockLabel(order[i])
	}

	var table []TryCatchBlock
	for _, r := range g.Ranges() {
		if r.IsEmpty() {
			continue
		}
		blocks := r.Blocks()
		slices.SortFunc(blocks, func(a, b flowgraph.BlockID) bool { return pos[a] < pos[b] })
		emit := func(start, end Label) {
			handler := BlockLabel(r.Handler())
			if r.IsCatchAll() {
				table = append(table, TryCatchBlock{Start: start, End: end, Handler: handler})
				return
			}
			for _, t := range r.Types() {
				table = append(table, TryCatchBlock{Start: start, End: end, Handler: handler, Type: t})
			}
		}

		start := BlockLabel(blocks[0])
		for k := 0; ; k++ {
			p := pos[blocks[k]]
			if k+1 == len(blocks) {
				emit(start, label(p+1))
				break
			}
			next := blocks[k+1]
			if pos[next]-p > 1 {
				emit(start, label(p+1))
				sink.report(Diagnostic{
					Kind:   RangeSplit,
					Method: g.Name,
					Block:  next,
					Message: fmt.Sprintf("range %s is interrupted after block %s, new entry starts at %s", r,
						blocks[k], next),
				})
				start = BlockLabel(next)
			}
		}
	}
	return table
}
