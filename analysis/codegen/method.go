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
	"github.com/awslabs/ar-bytecode-tools/analysis/flowgraph"
	"github.com/awslabs/ar-bytecode-tools/analysis/ir"
)

// Label marks a position in the instruction stream: the start of a block, or the end of the method
type Label struct {
	Block flowgraph.BlockID
	// Terminal is true for the label after the last instruction
	Terminal bool
}

// TerminalLabel is the label placed after the last instruction of a method
var TerminalLabel = Label{Terminal: true}

// BlockLabel returns the label of the start of the block
func BlockLabel(id flowgraph.BlockID) Label { return Label{Block: id} }

func (l Label) String() string {
	if l.Terminal {
		return "Lend"
	}
	return "L" + l.Block.String()
}

// Instruction is an element of the instruction stream: a *LabelInsn or a *StmtInsn
type Instruction interface {
	isInstruction()
}

// LabelInsn places a label
type LabelInsn struct {
	Label Label
}

// StmtInsn is a statement of a block
type StmtInsn struct {
	Block flowgraph.BlockID
	Stmt  ir.Stmt
}

func (*LabelInsn) isInstruction() {}
func (*StmtInsn) isInstruction()  {}

// TryCatchBlock is an entry of the exception table. The fields are in the order the class writer expects them.
// Type is empty for a handler that catches everything.
type TryCatchBlock struct {
	Start   Label
	End     Label
	Handler Label
	Type    string
}

// MethodBody is the output of code generation for one method
type MethodBody struct {
	Name           string
	Desc           string
	Instructions   []Instruction
	TryCatchBlocks []TryCatchBlock
}

// NewMethodBody returns an empty body for the method
func NewMethodBody(name, desc string) *MethodBody {
	return &MethodBody{Name: name, Desc: desc}
}

// Labels returns the labels of the body, in order
func (m *MethodBody) Labels() []Label {
	var labels []Label
	for _, insn := range m.Instructions {
		if l, ok := insn.(*LabelInsn); ok {
			labels = append(labels, l.Label)
		}
	}
	return labels
}

// Statements returns the statements of the body, in order
func (m *MethodBody) Statements() []ir.Stmt {
	var stmts []ir.Stmt
	for _, insn := range m.Instructions {
		if s, ok := insn.(*StmtInsn); ok {
			stmts = append(stmts, s.Stmt)
		}
	}
	return stmts
}
