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
)

// Dumper generates the body of one method from its flow graph.
// A successful dump modifies the graph in place: ranges that protect no block are removed, fall-throughs that the
// block order breaks become gotos, and gotos to the next block become fall-throughs.
type Dumper struct {
	Graph *flowgraph.Graph
	// Desc is the method descriptor, copied to the body
	Desc string
	// Sink receives the diagnostics of the dump. It may be nil.
	Sink DiagnosticSink

	order []flowgraph.BlockID
	body  *MethodBody
}

// NewDumper returns a dumper for the graph. The method name is the name of the graph.
func NewDumper(g *flowgraph.Graph, desc string, sink DiagnosticSink) *Dumper {
	return &Dumper{Graph: g, Desc: desc, Sink: sink}
}

// Dump linearizes the graph and builds the method body. The block order is verified before the graph is
// naturalized, so an illegal order leaves the edges and statements untouched. The body is only published if every
// step succeeds: on error, Body and Order return the result of the last successful dump, if any.
func (d *Dumper) Dump() error {
	for _, r := range d.Graph.RemoveEmptyRanges() {
		d.Sink.report(Diagnostic{
			Kind:    RangeDropped,
			Method:  d.Graph.Name,
			Block:   r.Handler(),
			Message: fmt.Sprintf("range %s protects no block", r),
		})
	}
	order, err := Linearize(d.Graph)
	if err != nil {
		return fmt.Errorf("failed to linearize %s: %w", d.Graph.Name, err)
	}
	plan, err := planNaturalization(d.Graph, order)
	if err != nil {
		return fmt.Errorf("failed to naturalize %s: %w", d.Graph.Name, err)
	}
	if err := verify(d.Graph, order, plan.kind); err != nil {
		return err
	}
	if _, err := plan.apply(d.Graph, d.Sink); err != nil {
		return fmt.Errorf("failed to naturalize %s: %w", d.Graph.Name, err)
	}

	body := NewMethodBody(d.Graph.Name, d.Desc)
	for _, id := range order {
		b, _ := d.Graph.Block(id)
		body.Instructions = append(body.Instructions, &LabelInsn{Label: BlockLabel(id)})
		for _, s := range b.Stmts() {
			body.Instructions = append(body.Instructions, &StmtInsn{Block: id, Stmt: s})
		}
	}
	body.Instructions = append(body.Instructions, &LabelInsn{Label: TerminalLabel})
	body.TryCatchBlocks = ExceptionTable(d.Graph, order, d.Sink)

	d.order = order
	d.body = body
	return nil
}

// Order returns the block order of the last successful dump
func (d *Dumper) Order() []flowgraph.BlockID { return d.order }

// Body returns the method body of the last successful dump, or nil
func (d *Dumper) Body() *MethodBody { return d.body }
